// Package main 初始化数据库结构与首个管理员
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"novel-platform-api/internal/config"
	"novel-platform-api/internal/domain/entity"
	"novel-platform-api/internal/wire"
)

func main() {
	_ = godotenv.Load()

	fmt.Println("Starting system bootstrap...")

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	ctx := context.Background()

	dataLayer, cleanup, err := wire.InitializePostgresOnly(ctx, cfg)
	if err != nil {
		log.Fatalf("failed to initialize data layer: %v", err)
	}
	defer cleanup()

	fmt.Println("Migrating schema...")
	if err := dataLayer.PgClient.Migrate(ctx); err != nil {
		log.Fatalf("failed to migrate schema: %v", err)
	}

	adminUsername := envOr("BOOTSTRAP_ADMIN_USERNAME", "admin")
	adminEmail := envOr("BOOTSTRAP_ADMIN_EMAIL", "admin@novel-platform.local")
	adminPassword := os.Getenv("BOOTSTRAP_ADMIN_PASSWORD")
	if adminPassword == "" {
		log.Fatalf("BOOTSTRAP_ADMIN_PASSWORD is required")
	}

	existing, err := dataLayer.UserRepo.GetByEmail(ctx, adminEmail)
	if err != nil {
		log.Fatalf("failed to check admin existence: %v", err)
	}
	if existing != nil {
		fmt.Printf("Admin user %s already exists.\n", adminEmail)
		fmt.Println("Bootstrap completed successfully.")
		return
	}

	fmt.Printf("Creating admin user: %s...\n", adminEmail)
	admin := entity.NewUser(adminUsername, adminEmail, entity.UserRoleAdmin)
	if err := admin.SetPassword(adminPassword); err != nil {
		log.Fatalf("failed to hash admin password: %v", err)
	}
	if err := dataLayer.UserRepo.Create(ctx, admin); err != nil {
		log.Fatalf("failed to create admin user: %v", err)
	}

	fmt.Println("Bootstrap completed successfully.")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
