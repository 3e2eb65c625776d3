package notify

import (
	"context"

	"novel-platform-api/internal/domain/entity"
	"novel-platform-api/internal/infrastructure/messaging"
	"novel-platform-api/internal/infrastructure/realtime"
	"novel-platform-api/pkg/logger"
)

// ChapterQueue 新章节事件队列
type ChapterQueue interface {
	PublishChapterPublished(ctx context.Context, msg *messaging.ChapterPublishedMessage) (string, error)
}

// NewChapterEvent novel_<id> 房间收到的 new_chapter 数据
type NewChapterEvent struct {
	NovelID   string `json:"novel"`
	ChapterID string `json:"chapter"`
	Number    int    `json:"number"`
	Title     string `json:"title"`
}

// Announcer 章节上线后广播并投递订阅者扇出事件
type Announcer struct {
	dispatcher *Dispatcher
	queue      ChapterQueue
}

// NewAnnouncer queue 为 nil 时只做实时广播
func NewAnnouncer(dispatcher *Dispatcher, queue ChapterQueue) *Announcer {
	return &Announcer{dispatcher: dispatcher, queue: queue}
}

// ChapterReleased 广播 new_chapter；章节对读者可见时投递扇出事件，投递失败只记录日志
func (a *Announcer) ChapterReleased(ctx context.Context, novel *entity.Novel, ch *entity.Chapter) {
	a.dispatcher.Broadcast(ctx, novel.ID, realtime.EventNewChapter, NewChapterEvent{
		NovelID:   novel.ID,
		ChapterID: ch.ID,
		Number:    ch.Number,
		Title:     ch.Title,
	})

	if a.queue == nil || !ch.IsVisible() || !novel.IsPublic() {
		return
	}
	msg := &messaging.ChapterPublishedMessage{
		NovelID:       novel.ID,
		NovelTitle:    novel.Title,
		NovelSlug:     novel.Slug,
		AuthorID:      novel.AuthorID,
		ChapterID:     ch.ID,
		ChapterNumber: ch.Number,
		ChapterTitle:  ch.Title,
	}
	if ch.PublishedAt != nil {
		msg.PublishedAt = *ch.PublishedAt
	}
	if _, err := a.queue.PublishChapterPublished(ctx, msg); err != nil {
		logger.Error(ctx, "failed to enqueue chapter fan-out", err,
			"novel_id", novel.ID,
			"chapter_id", ch.ID,
		)
	}
}
