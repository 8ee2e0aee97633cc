package services

import (
	"context"
	"fmt"

	"github.com/akinalp/leasehub/models"
	"github.com/akinalp/leasehub/pkg"
	"github.com/akinalp/leasehub/repository"
)

// PropertyService manages a landlord's listings. Only landlords create
// listings and only the owner reads or changes one.
type PropertyService interface {
	Create(ctx context.Context, userID string, role models.Role, req *models.CreatePropertyRequest) (*models.Property, error)
	List(ctx context.Context, userID string) ([]models.Property, error)
	Get(ctx context.Context, userID, id string) (*models.Property, error)
	Update(ctx context.Context, userID, id string, req *models.UpdatePropertyRequest) (*models.Property, error)
	ChangeStatus(ctx context.Context, userID, id string, req *models.PropertyStatusRequest) (*models.Property, error)
	Delete(ctx context.Context, userID, id string) error
}

type propertyService struct {
	propertyRepo repository.PropertyRepository
	events       DashboardEvents
}

// NewPropertyService creates the property service.
func NewPropertyService(propertyRepo repository.PropertyRepository, events DashboardEvents) PropertyService {
	return &propertyService{propertyRepo: propertyRepo, events: events}
}

func (s *propertyService) Create(ctx context.Context, userID string, role models.Role, req *models.CreatePropertyRequest) (*models.Property, error) {
	if role != models.RoleLandlord {
		return nil, fmt.Errorf("%w: only landlords can list properties", pkg.ErrForbidden)
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}

	p := &models.Property{
		OwnerID:     userID,
		Title:       req.Title,
		Address:     req.Address,
		ListingType: req.ListingType,
		SizeSqft:    req.SizeSqft,
		AskingRent:  req.AskingRent,
	}
	if err := s.propertyRepo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.events.PropertyCreated(ctx, p)
	return p, nil
}

func (s *propertyService) List(ctx context.Context, userID string) ([]models.Property, error) {
	return s.propertyRepo.ListByOwner(ctx, userID)
}

func (s *propertyService) Get(ctx context.Context, userID, id string) (*models.Property, error) {
	return s.owned(ctx, userID, id)
}

func (s *propertyService) Update(ctx context.Context, userID, id string, req *models.UpdatePropertyRequest) (*models.Property, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}
	p, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	req.ApplyTo(p)
	if err := s.propertyRepo.Update(ctx, p); err != nil {
		return nil, err
	}

	s.events.PropertyUpdated(ctx, p)
	return p, nil
}

func (s *propertyService) ChangeStatus(ctx context.Context, userID, id string, req *models.PropertyStatusRequest) (*models.Property, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %s", pkg.ErrBadRequest, err.Error())
	}
	p, err := s.owned(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if p.Status == req.Status {
		return p, nil
	}

	previous := p.Status
	if err := s.propertyRepo.UpdateStatus(ctx, id, req.Status); err != nil {
		return nil, err
	}
	p.Status = req.Status

	s.events.PropertyStatusChanged(ctx, p, previous)
	return p, nil
}

func (s *propertyService) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.owned(ctx, userID, id); err != nil {
		return err
	}
	if err := s.propertyRepo.Delete(ctx, id); err != nil {
		return err
	}

	s.events.PropertyDeleted(ctx, userID, id)
	return nil
}

// owned loads a property and hides other owners' listings as not found.
func (s *propertyService) owned(ctx context.Context, userID, id string) (*models.Property, error) {
	p, err := s.propertyRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p.OwnerID != userID {
		return nil, fmt.Errorf("%w: property not found", pkg.ErrNotFound)
	}
	return p, nil
}
