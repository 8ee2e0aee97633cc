package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/akinalp/leasehub/models"
	"github.com/akinalp/leasehub/pkg/cache"
	"github.com/akinalp/leasehub/repository"
)

// KPIService aggregates a user's dashboard numbers, cache-aside.
//
// Landlord numbers come from the properties they own and broker numbers from
// the deals they run; a user with neither gets zeros.
type KPIService interface {
	GetKPIs(ctx context.Context, userID string) (*models.DashboardKPIs, error)
	Invalidate(ctx context.Context, userID string)
}

type kpiService struct {
	propertyRepo repository.PropertyRepository
	dealRepo     repository.DealRepository
	cache        cache.Store
	ttl          time.Duration
	logger       *slog.Logger
}

// NewKPIService creates the KPI service.
func NewKPIService(
	propertyRepo repository.PropertyRepository,
	dealRepo repository.DealRepository,
	store cache.Store,
	ttl time.Duration,
	logger *slog.Logger,
) KPIService {
	return &kpiService{
		propertyRepo: propertyRepo,
		dealRepo:     dealRepo,
		cache:        store,
		ttl:          ttl,
		logger:       logger.With("component", "kpi_service"),
	}
}

func kpiKey(userID string) string { return "kpi:" + userID }

func (s *kpiService) GetKPIs(ctx context.Context, userID string) (*models.DashboardKPIs, error) {
	key := kpiKey(userID)

	cached, ok, err := cache.GetJSON[models.DashboardKPIs](ctx, s.cache, key)
	if err != nil {
		s.logger.Warn("kpi cache read failed", "user_id", userID, "error", err)
	} else if ok {
		return &cached, nil
	}

	props, err := s.propertyRepo.StatusCounts(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count properties: %w", err)
	}
	deals, err := s.dealRepo.StageSummary(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to summarize deals: %w", err)
	}

	kpis := &models.DashboardKPIs{
		Properties:  props,
		Deals:       deals,
		GeneratedAt: time.Now().UTC(),
	}

	if err := cache.SetJSON(ctx, s.cache, key, kpis, s.ttl); err != nil {
		s.logger.Warn("kpi cache write failed", "user_id", userID, "error", err)
	}
	return kpis, nil
}

func (s *kpiService) Invalidate(ctx context.Context, userID string) {
	if err := s.cache.Delete(ctx, kpiKey(userID)); err != nil {
		s.logger.Warn("kpi cache invalidation failed", "user_id", userID, "error", err)
	}
}
