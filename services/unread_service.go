package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/akinalp/leasehub/pkg/cache"
	"github.com/akinalp/leasehub/repository"
)

// UnreadService serves the total unread badge count, cache-aside.
//
// The cache is an optimization only: a read or write failure falls back to
// the store and is logged.
type UnreadService interface {
	Total(ctx context.Context, userID string) (int, error)
	Invalidate(ctx context.Context, userID string)
}

type unreadService struct {
	convRepo repository.ConversationRepository
	cache    cache.Store
	ttl      time.Duration
	logger   *slog.Logger
}

// NewUnreadService creates the badge service.
func NewUnreadService(convRepo repository.ConversationRepository, store cache.Store, ttl time.Duration, logger *slog.Logger) UnreadService {
	return &unreadService{
		convRepo: convRepo,
		cache:    store,
		ttl:      ttl,
		logger:   logger.With("component", "unread_service"),
	}
}

func unreadKey(userID string) string { return "unread:" + userID }

func (s *unreadService) Total(ctx context.Context, userID string) (int, error) {
	key := unreadKey(userID)

	n, ok, err := cache.GetJSON[int](ctx, s.cache, key)
	if err != nil {
		s.logger.Warn("unread cache read failed", "user_id", userID, "error", err)
	} else if ok {
		return n, nil
	}

	n, err = s.convRepo.GetTotalUnreadCount(ctx, userID)
	if err != nil {
		return 0, err
	}

	if err := cache.SetJSON(ctx, s.cache, key, n, s.ttl); err != nil {
		s.logger.Warn("unread cache write failed", "user_id", userID, "error", err)
	}
	return n, nil
}

func (s *unreadService) Invalidate(ctx context.Context, userID string) {
	if err := s.cache.Delete(ctx, unreadKey(userID)); err != nil {
		s.logger.Warn("unread cache invalidation failed", "user_id", userID, "error", err)
	}
}
