package notify

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"novel-platform-api/internal/domain/entity"
	"novel-platform-api/internal/domain/repository"
	"novel-platform-api/internal/infrastructure/mail"
	"novel-platform-api/internal/infrastructure/messaging"
	"novel-platform-api/pkg/logger"
)

const fanoutChunk = 200

// Fanout 把新章节通知扇出给订阅者
type Fanout struct {
	subscriptions repository.SubscriptionRepository
	users         repository.UserRepository
	dispatcher    *Dispatcher
	mailer        mail.Mailer
	composer      *mail.Composer
	concurrency   int
}

// NewFanout 创建扇出处理器，concurrency 限制并发写入的批次数
func NewFanout(
	subscriptions repository.SubscriptionRepository,
	users repository.UserRepository,
	dispatcher *Dispatcher,
	mailer mail.Mailer,
	composer *mail.Composer,
	concurrency int,
) *Fanout {
	if concurrency <= 0 {
		concurrency = 4
	}
	return &Fanout{
		subscriptions: subscriptions,
		users:         users,
		dispatcher:    dispatcher,
		mailer:        mailer,
		composer:      composer,
		concurrency:   concurrency,
	}
}

// Recipients 订阅了小说或作者的用户，去重并排除作者本人
func (f *Fanout) Recipients(ctx context.Context, novelID, authorID string) ([]string, error) {
	byNovel, err := f.subscriptions.ListSubscriberIDs(ctx, entity.SubscribeNovel, novelID)
	if err != nil {
		return nil, fmt.Errorf("failed to list novel subscribers: %w", err)
	}
	byAuthor, err := f.subscriptions.ListSubscriberIDs(ctx, entity.SubscribeUser, authorID)
	if err != nil {
		return nil, fmt.Errorf("failed to list author subscribers: %w", err)
	}

	seen := make(map[string]struct{}, len(byNovel)+len(byAuthor))
	out := make([]string, 0, len(byNovel)+len(byAuthor))
	for _, id := range append(byNovel, byAuthor...) {
		if id == authorID {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}

// HandleChapterPublished 为每个订阅者写入 new_chapter 通知，随后推送并发送邮件
// 重投递时可能重复通知
func (f *Fanout) HandleChapterPublished(ctx context.Context, event *messaging.ChapterPublishedMessage) (int, error) {
	recipients, err := f.Recipients(ctx, event.NovelID, event.AuthorID)
	if err != nil {
		return 0, err
	}
	if len(recipients) == 0 {
		logger.Debug(ctx, "no subscribers for new chapter", "novel_id", event.NovelID)
		return 0, nil
	}

	url := fmt.Sprintf("/novel/%s/%d", event.NovelSlug, event.ChapterNumber)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(f.concurrency)
	for start := 0; start < len(recipients); start += fanoutChunk {
		end := min(start+fanoutChunk, len(recipients))
		chunk := recipients[start:end]
		g.Go(func() error {
			notices := make([]Notice, 0, len(chunk))
			for _, id := range chunk {
				notices = append(notices, Notice{
					RecipientID: id,
					Type:        entity.NotificationNewChapter,
					Title:       "New chapter: " + event.NovelTitle,
					Message:     fmt.Sprintf("Chapter %d: %s is now available", event.ChapterNumber, event.ChapterTitle),
					NovelID:     event.NovelID,
					ChapterID:   event.ChapterID,
					UserID:      event.AuthorID,
					ActionURL:   url,
					Metadata: &entity.NotificationMetadata{NewChapter: &entity.NewChapterMeta{
						NovelTitle:    event.NovelTitle,
						ChapterTitle:  event.ChapterTitle,
						ChapterNumber: event.ChapterNumber,
					}},
				})
			}
			_, err := f.dispatcher.NotifyMany(gctx, notices)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return 0, err
	}

	f.mail(ctx, event, recipients)
	logger.Info(ctx, "new chapter fanned out",
		"novel_id", event.NovelID,
		"chapter_id", event.ChapterID,
		"recipients", len(recipients),
	)
	return len(recipients), nil
}

// mail 邮件以密送方式发出，失败不影响站内通知
func (f *Fanout) mail(ctx context.Context, event *messaging.ChapterPublishedMessage, recipients []string) {
	if f.mailer == nil || f.composer == nil {
		return
	}
	users, err := f.users.ListByIDs(ctx, recipients)
	if err != nil {
		logger.Error(ctx, "failed to load subscriber emails", err, "novel_id", event.NovelID)
		return
	}
	emails := make([]string, 0, len(users))
	for _, u := range users {
		emails = append(emails, u.Email)
	}
	msg := f.composer.NewChapter(emails, event.NovelTitle, event.NovelSlug, event.ChapterNumber, event.ChapterTitle)
	if err := f.mailer.Send(ctx, msg); err != nil {
		logger.Error(ctx, "failed to send new chapter mail", err, "novel_id", event.NovelID)
	}
}

// MessageHandler 适配 Redis Stream 消费者
func (f *Fanout) MessageHandler() messaging.MessageHandler {
	return func(ctx context.Context, msg *messaging.Message) error {
		var event messaging.ChapterPublishedMessage
		if err := msg.UnmarshalPayload(&event); err != nil {
			return fmt.Errorf("%w: %v", messaging.ErrMalformedMessage, err)
		}
		_, err := f.HandleChapterPublished(ctx, &event)
		return err
	}
}
