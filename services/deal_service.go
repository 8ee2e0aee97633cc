package services

import (
	"context"
	"fmt"

	"github.com/akinalp/leasehub/models"
	"github.com/akinalp/leasehub/pkg"
	"github.com/akinalp/leasehub/repository"
)

// DealService manages a broker's pipeline.
type DealService interface {
	Create(ctx context.Context, userID string, role models.Role, req *models.CreateDealRequest) (*models.Deal, error)
	List(ctx context.Context, userID string) ([]models.Deal, error)
	Get(ctx context.Context, userID, id string) (*models.Deal, error)
	Update(ctx context.Context, userID, id string, req *models.UpdateDealRequest) (*models.Deal, error)
}

type dealService struct {
	dealRepo repository.DealRepository
	events   DashboardEvents
}

// NewDealService creates the deal service.
func NewDealService(dealRepo repository.DealRepository, events DashboardEvents) DealService {
	return &dealService{dealRepo: dealRepo, events: events}
}

func (s *dealService) Create(ctx context.Context, userID string, role models.Role, req *models.CreateDealRequest) (*models.Deal, error) {
	if role != models.RoleBroker {
		return nil, fmt.Errorf("%w: only brokers can track deals", pkg.ErrForbidden)
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	d := &models.Deal{
		BrokerID:   userID,
		PropertyID: req.PropertyID,
		Title:      req.Title,
		Stage:      req.Stage,
		Value:      req.Value,
	}
	if err := s.dealRepo.Create(ctx, d); err != nil {
		return nil, err
	}

	s.events.DealCreated(ctx, d)
	return d, nil
}

func (s *dealService) List(ctx context.Context, userID string) ([]models.Deal, error) {
	return s.dealRepo.ListByBroker(ctx, userID)
}

func (s *dealService) Get(ctx context.Context, userID, id string) (*models.Deal, error) {
	return s.owned(ctx, userID, id)
}

func (s *dealService) Update(ctx context.Context, userID, id string, req *models.UpdateDealRequest) (*models.Deal, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}
	d, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	req.ApplyTo(d)
	if err := s.dealRepo.Update(ctx, d); err != nil {
		return nil, err
	}

	s.events.DealUpdated(ctx, d)
	return d, nil
}

func (s *dealService) owned(ctx context.Context, userID, id string) (*models.Deal, error) {
	d, err := s.dealRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if d.BrokerID != userID {
		return nil, fmt.Errorf("%w: deal not found", pkg.ErrNotFound)
	}
	return d, nil
}
