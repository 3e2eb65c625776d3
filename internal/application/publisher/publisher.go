// Package publisher 定时发布到期的章节草稿
package publisher

import (
	"context"
	"sync"
	"time"

	"novel-platform-api/internal/application/notify"
	"novel-platform-api/internal/application/stats"
	"novel-platform-api/internal/domain/entity"
	"novel-platform-api/internal/domain/repository"
	"novel-platform-api/pkg/logger"
	"novel-platform-api/pkg/metrics"
)

const defaultBatchSize = 100

// Summary 一次扫描的结果
type Summary struct {
	Published int `json:"published"`
	Failed    int `json:"failed"`
}

// Publisher 周期性扫描到期草稿并发布，单章失败不影响其他章节
type Publisher struct {
	tx        repository.Transactor
	chapters  repository.ChapterRepository
	novels    repository.NovelRepository
	stats     *stats.Aggregator
	announcer *notify.Announcer
	interval  time.Duration
	batchSize int
	now       func() time.Time

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

// New 创建定时发布器
func New(
	tx repository.Transactor,
	chapters repository.ChapterRepository,
	novels repository.NovelRepository,
	aggregator *stats.Aggregator,
	announcer *notify.Announcer,
	interval time.Duration,
	batchSize int,
) *Publisher {
	if interval <= 0 {
		interval = 5 * time.Minute
	}
	if batchSize <= 0 {
		batchSize = defaultBatchSize
	}
	return &Publisher{
		tx:        tx,
		chapters:  chapters,
		novels:    novels,
		stats:     aggregator,
		announcer: announcer,
		interval:  interval,
		batchSize: batchSize,
		now:       time.Now,
	}
}

// Start 立即执行一次并启动定时循环，重复调用无效
func (p *Publisher) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running {
		return
	}
	ctx, p.cancel = context.WithCancel(logger.WithComponent(ctx, "publisher"))
	p.done = make(chan struct{})
	p.running = true

	go p.loop(ctx, p.done)
	logger.Info(ctx, "scheduled publisher started", "interval", p.interval.String())
}

// Stop 停止循环并等待当前扫描结束
func (p *Publisher) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	cancel, done := p.cancel, p.done
	p.mu.Unlock()

	cancel()
	<-done
}

func (p *Publisher) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.RunOnce(ctx)
	for {
		select {
		case <-ctx.Done():
			logger.Info(context.WithoutCancel(ctx), "scheduled publisher stopped")
			return
		case <-ticker.C:
			p.RunOnce(ctx)
		}
	}
}

// RunOnce 发布当前到期的全部草稿
func (p *Publisher) RunOnce(ctx context.Context) Summary {
	start := time.Now()
	defer func() {
		metrics.ScheduledRunDuration.Observe(time.Since(start).Seconds())
	}()

	now := p.now()
	due, err := p.chapters.ListDueScheduled(ctx, now, p.batchSize)
	if err != nil {
		logger.Error(ctx, "failed to list due chapters", err)
		metrics.ScheduledPublishes.WithLabelValues("error").Inc()
		return Summary{}
	}

	var summary Summary
	for _, ch := range due {
		if ctx.Err() != nil {
			break
		}
		published, err := p.publish(ctx, ch, now)
		switch {
		case err != nil:
			summary.Failed++
			metrics.ScheduledPublishes.WithLabelValues("error").Inc()
			logger.Error(ctx, "failed to publish scheduled chapter", err,
				"chapter_id", ch.ID,
				"novel_id", ch.NovelID,
			)
		case published:
			summary.Published++
			metrics.ScheduledPublishes.WithLabelValues("published").Inc()
		default:
			metrics.ScheduledPublishes.WithLabelValues("skipped").Inc()
		}
	}

	if len(due) > 0 {
		logger.Info(ctx, "scheduled publish pass finished",
			"due", len(due),
			"published", summary.Published,
			"failed", summary.Failed,
		)
	}
	return summary
}

// publish 发布与统计重算在同一事务内；条件更新保证多实例下只发布一次，未更新时返回 false
func (p *Publisher) publish(ctx context.Context, ch *entity.Chapter, now time.Time) (bool, error) {
	var published bool
	err := p.tx.WithTransaction(ctx, func(ctx context.Context) error {
		ok, err := p.chapters.MarkPublished(ctx, ch.ID, now)
		if err != nil || !ok {
			return err
		}
		if _, err := p.stats.RecomputeNovelChapters(ctx, ch.NovelID); err != nil {
			return err
		}
		published = true
		return nil
	})
	if err != nil || !published {
		return false, err
	}
	ch.Publish(now)

	novel, err := p.novels.GetByID(ctx, ch.NovelID)
	if err != nil {
		logger.Error(ctx, "failed to load novel for announcement", err, "novel_id", ch.NovelID)
		return true, nil
	}
	if novel != nil && p.announcer != nil {
		p.announcer.ChapterReleased(ctx, novel, ch)
	}
	return true, nil
}
