package account

import (
	"context"
	"errors"

	"novel-platform-api/internal/domain/entity"
	"novel-platform-api/internal/domain/repository"
	apperrors "novel-platform-api/pkg/errors"
)

// Subscribe 订阅作者或小说
func (s *Service) Subscribe(ctx context.Context, actor entity.Actor, target entity.SubscriptionTarget, targetID string) (*entity.Subscription, error) {
	if !target.IsValid() {
		return nil, apperrors.ValidationField("target_type", "must be user or novel")
	}
	switch target {
	case entity.SubscribeUser:
		if targetID == actor.UserID {
			return nil, apperrors.ValidationField("target_id", "cannot subscribe to yourself")
		}
		if _, err := s.user(ctx, targetID); err != nil {
			return nil, err
		}
	case entity.SubscribeNovel:
		if _, err := s.publicNovel(ctx, actor, targetID); err != nil {
			return nil, err
		}
	}

	sub := &entity.Subscription{UserID: actor.UserID, TargetType: target, TargetID: targetID}
	if err := s.subs.Create(ctx, sub); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.ErrDuplicateSubscribe
		}
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to subscribe")
	}
	return sub, nil
}

// Unsubscribe 取消订阅
func (s *Service) Unsubscribe(ctx context.Context, actor entity.Actor, target entity.SubscriptionTarget, targetID string) error {
	if !target.IsValid() {
		return apperrors.ValidationField("target_type", "must be user or novel")
	}
	if err := s.subs.Delete(ctx, actor.UserID, target, targetID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("subscription")
		}
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to unsubscribe")
	}
	return nil
}

// Subscriptions 当前用户的订阅
func (s *Service) Subscriptions(ctx context.Context, actor entity.Actor) ([]*entity.Subscription, error) {
	subs, err := s.subs.ListByUser(ctx, actor.UserID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to list subscriptions")
	}
	return subs, nil
}

// AddBookmark 收藏小说，可选记录章节；重复收藏更新章节
func (s *Service) AddBookmark(ctx context.Context, actor entity.Actor, novelID string, chapterID *string) (*entity.Bookmark, error) {
	novel, err := s.publicNovel(ctx, actor, novelID)
	if err != nil {
		return nil, err
	}
	if chapterID != nil && *chapterID != "" {
		ch, err := s.chapters.GetByID(ctx, *chapterID)
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load chapter")
		}
		if ch == nil || ch.NovelID != novel.ID {
			return nil, apperrors.ErrChapterNotFound
		}
	} else {
		chapterID = nil
	}

	mark := &entity.Bookmark{UserID: actor.UserID, NovelID: novel.ID, ChapterID: chapterID}
	if err := s.marks.Upsert(ctx, mark); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to save bookmark")
	}
	return mark, nil
}

// RemoveBookmark 取消收藏
func (s *Service) RemoveBookmark(ctx context.Context, actor entity.Actor, novelID string) error {
	if err := s.marks.Delete(ctx, actor.UserID, novelID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("bookmark")
		}
		return apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to remove bookmark")
	}
	return nil
}

// Bookmarks 当前用户的书签，最新在前
func (s *Service) Bookmarks(ctx context.Context, actor entity.Actor) ([]*entity.Bookmark, error) {
	marks, err := s.marks.ListByUser(ctx, actor.UserID)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to list bookmarks")
	}
	return marks, nil
}

func (s *Service) publicNovel(ctx context.Context, actor entity.Actor, id string) (*entity.Novel, error) {
	novel, err := s.novels.GetByID(ctx, id)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeDatabaseError, "failed to load novel")
	}
	if novel == nil || (!novel.IsPublic() && !actor.CanManage(novel.AuthorID)) {
		return nil, apperrors.ErrNovelNotFound
	}
	return novel, nil
}
