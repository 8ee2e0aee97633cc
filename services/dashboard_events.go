package services

import (
	"context"
	"log/slog"
	"time"

	"github.com/akinalp/leasehub/models"
	"github.com/akinalp/leasehub/pkg/eventbus"
)

// DashboardBroadcaster is the part of the dashboard socket the events need.
// realtime.DashboardSocket satisfies it.
type DashboardBroadcaster interface {
	EmitToUser(userID, op string, payload any)
	EmitKPIUpdate(userID string, kpis any)
	IsUserConnected(userID string) bool
}

// Dashboard event ops, sent on the user's personal room.
const (
	OpPropertyCreated       = "property:created"
	OpPropertyUpdated       = "property:updated"
	OpPropertyDeleted       = "property:deleted"
	OpPropertyStatusChanged = "property:status_changed"
	OpDealCreated           = "deal:created"
	OpDealUpdated           = "deal:updated"
)

// DashboardEvents pushes listing and deal changes to the owner's dashboard.
//
// Every event runs: invalidate the KPI cache, stop if the user has no
// dashboard open, recompute, emit the entity event and kpi:update. Each step
// is best effort; failures are logged and never reach the caller.
type DashboardEvents interface {
	PropertyCreated(ctx context.Context, p *models.Property)
	PropertyUpdated(ctx context.Context, p *models.Property)
	PropertyDeleted(ctx context.Context, ownerID, propertyID string)
	PropertyStatusChanged(ctx context.Context, p *models.Property, previous models.PropertyStatus)
	DealCreated(ctx context.Context, d *models.Deal)
	DealUpdated(ctx context.Context, d *models.Deal)
}

type dashboardEvents struct {
	kpis      KPIService
	bcast     DashboardBroadcaster
	publisher eventbus.Publisher
	logger    *slog.Logger
}

// NewDashboardEvents creates the dashboard event service. bcast may be nil,
// in which case only the cache and the event stream are touched.
func NewDashboardEvents(kpis KPIService, bcast DashboardBroadcaster, publisher eventbus.Publisher, logger *slog.Logger) DashboardEvents {
	return &dashboardEvents{
		kpis:      kpis,
		bcast:     bcast,
		publisher: publisher,
		logger:    logger.With("component", "dashboard_events"),
	}
}

type propertyDeletedData struct {
	PropertyID string    `json:"propertyId"`
	Timestamp  time.Time `json:"timestamp"`
}

type propertyStatusData struct {
	Property       *models.Property      `json:"property"`
	PreviousStatus models.PropertyStatus `json:"previousStatus"`
	Timestamp      time.Time             `json:"timestamp"`
}

type entityData struct {
	Property  *models.Property `json:"property,omitempty"`
	Deal      *models.Deal     `json:"deal,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

func (e *dashboardEvents) PropertyCreated(ctx context.Context, p *models.Property) {
	e.dispatch(ctx, p.OwnerID, p.ID, OpPropertyCreated, entityData{Property: p, Timestamp: time.Now().UTC()})
}

func (e *dashboardEvents) PropertyUpdated(ctx context.Context, p *models.Property) {
	e.dispatch(ctx, p.OwnerID, p.ID, OpPropertyUpdated, entityData{Property: p, Timestamp: time.Now().UTC()})
}

func (e *dashboardEvents) PropertyDeleted(ctx context.Context, ownerID, propertyID string) {
	e.dispatch(ctx, ownerID, propertyID, OpPropertyDeleted, propertyDeletedData{PropertyID: propertyID, Timestamp: time.Now().UTC()})
}

func (e *dashboardEvents) PropertyStatusChanged(ctx context.Context, p *models.Property, previous models.PropertyStatus) {
	e.dispatch(ctx, p.OwnerID, p.ID, OpPropertyStatusChanged, propertyStatusData{
		Property:       p,
		PreviousStatus: previous,
		Timestamp:      time.Now().UTC(),
	})
}

func (e *dashboardEvents) DealCreated(ctx context.Context, d *models.Deal) {
	e.dispatch(ctx, d.BrokerID, d.ID, OpDealCreated, entityData{Deal: d, Timestamp: time.Now().UTC()})
}

func (e *dashboardEvents) DealUpdated(ctx context.Context, d *models.Deal) {
	e.dispatch(ctx, d.BrokerID, d.ID, OpDealUpdated, entityData{Deal: d, Timestamp: time.Now().UTC()})
}

func (e *dashboardEvents) dispatch(ctx context.Context, userID, aggregateID, op string, payload any) {
	e.kpis.Invalidate(ctx, userID)
	publish(ctx, e.publisher, e.logger, eventbus.Event{
		Type:        op,
		AggregateID: aggregateID,
		ActorID:     userID,
		OccurredAt:  time.Now().UTC(),
		Payload:     payload,
	})

	if e.bcast == nil || !e.bcast.IsUserConnected(userID) {
		return
	}

	kpis, err := e.kpis.GetKPIs(ctx, userID)
	if err != nil {
		e.logger.Error("failed to recompute kpis", "user_id", userID, "op", op, "error", err)
		e.bcast.EmitToUser(userID, op, payload)
		return
	}

	e.bcast.EmitToUser(userID, op, payload)
	e.bcast.EmitKPIUpdate(userID, kpis)
}

// publish sends ev to the stream, logging failures.
func publish(ctx context.Context, p eventbus.Publisher, logger *slog.Logger, ev eventbus.Event) {
	if p == nil {
		return
	}
	if err := p.Publish(ctx, ev); err != nil {
		logger.Warn("event publish failed", "type", ev.Type, "aggregate_id", ev.AggregateID, "error", err)
	}
}
