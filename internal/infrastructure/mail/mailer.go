// Package mail 提供邮件投递
package mail

import (
	"context"
	"fmt"
	"strings"

	"novel-platform-api/pkg/logger"
)

// Message 邮件内容，收件人以密送方式投递
type Message struct {
	From    string
	To      []string
	Subject string
	Body    string
}

// Mailer 邮件投递接口
type Mailer interface {
	Send(ctx context.Context, msg *Message) error
}

// LogMailer 将邮件写入日志，未接入 SMTP 的环境使用
type LogMailer struct {
	from    string
	enabled bool
}

// NewLogMailer 创建日志邮件投递器
func NewLogMailer(from string, enabled bool) *LogMailer {
	return &LogMailer{from: from, enabled: enabled}
}

// Send 记录一封邮件
func (m *LogMailer) Send(ctx context.Context, msg *Message) error {
	if len(msg.To) == 0 {
		return nil
	}
	if !m.enabled {
		logger.Debug(ctx, "mail delivery disabled", "subject", msg.Subject, "recipients", len(msg.To))
		return nil
	}
	from := msg.From
	if from == "" {
		from = m.from
	}
	logger.Info(ctx, "mail sent",
		"from", from,
		"subject", msg.Subject,
		"recipients", len(msg.To),
	)
	return nil
}

// Composer 生成站点邮件
type Composer struct {
	publicURL string
}

// NewComposer 创建邮件生成器
func NewComposer(publicURL string) *Composer {
	return &Composer{publicURL: strings.TrimRight(publicURL, "/")}
}

// NewChapter 新章节通知，发送给小说订阅者
func (c *Composer) NewChapter(recipients []string, novelTitle, novelSlug string, number int, chapterTitle string) *Message {
	link := fmt.Sprintf("%s/novel/%s/%d", c.publicURL, novelSlug, number)
	return &Message{
		To:      recipients,
		Subject: "New chapter: " + novelTitle,
		Body: fmt.Sprintf("%s\n\nChapter %d: %s is now available.\n\nRead now: %s\n",
			novelTitle, number, chapterTitle, link),
	}
}

// Welcome 注册欢迎邮件
func (c *Composer) Welcome(email, username string) *Message {
	return &Message{
		To:      []string{email},
		Subject: "Welcome to the library",
		Body: fmt.Sprintf("Welcome, %s!\n\nThanks for joining. Start exploring: %s\n",
			username, c.publicURL),
	}
}
