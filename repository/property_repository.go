package repository

import (
	"context"

	"github.com/akinalp/leasehub/models"
)

// PropertyRepository stores landlord listings.
type PropertyRepository interface {
	// Create assigns ID and timestamps; status starts as draft.
	Create(ctx context.Context, p *models.Property) error
	GetByID(ctx context.Context, id string) (*models.Property, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Property, error)
	// Update writes title, address, size and rent.
	Update(ctx context.Context, p *models.Property) error
	UpdateStatus(ctx context.Context, id string, status models.PropertyStatus) error
	Delete(ctx context.Context, id string) error
	// StatusCounts groups the owner's listings by status.
	StatusCounts(ctx context.Context, ownerID string) (models.PropertyKPIs, error)
}

// DealRepository stores broker deals.
type DealRepository interface {
	// Create assigns ID and timestamps. An unknown property is ErrBadRequest.
	Create(ctx context.Context, d *models.Deal) error
	GetByID(ctx context.Context, id string) (*models.Deal, error)
	ListByBroker(ctx context.Context, brokerID string) ([]models.Deal, error)
	// Update writes title, stage and value.
	Update(ctx context.Context, d *models.Deal) error
	// StageSummary aggregates the broker's pipeline.
	StageSummary(ctx context.Context, brokerID string) (models.DealKPIs, error)
}
