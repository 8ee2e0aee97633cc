package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// DealStage is a broker pipeline stage.
type DealStage string

const (
	DealProspect      DealStage = "prospect"
	DealNegotiation   DealStage = "negotiation"
	DealUnderContract DealStage = "under_contract"
	DealClosedWon     DealStage = "closed_won"
	DealClosedLost    DealStage = "closed_lost"
)

// Valid reports whether s is a known stage.
func (s DealStage) Valid() bool {
	switch s {
	case DealProspect, DealNegotiation, DealUnderContract, DealClosedWon, DealClosedLost:
		return true
	}
	return false
}

// Closed reports whether the deal left the pipeline.
func (s DealStage) Closed() bool {
	return s == DealClosedWon || s == DealClosedLost
}

// Deal is a row of the deals table.
type Deal struct {
	ID         string    `json:"id"`
	BrokerID   string    `json:"brokerId"`
	PropertyID *string   `json:"propertyId"`
	Title      string    `json:"title"`
	Stage      DealStage `json:"stage"`
	Value      float64   `json:"value"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// CreateDealRequest is the body of POST /api/deals. Stage defaults to prospect.
type CreateDealRequest struct {
	Title      string    `json:"title"`
	PropertyID *string   `json:"propertyId"`
	Stage      DealStage `json:"stage"`
	Value      float64   `json:"value"`
}

// Validate checks title, stage and value.
func (r *CreateDealRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	if n := utf8.RuneCountInString(r.Title); n < 1 || n > 200 {
		return fmt.Errorf("title must be 1-200 characters")
	}
	if r.Stage == "" {
		r.Stage = DealProspect
	}
	if !r.Stage.Valid() {
		return fmt.Errorf("unknown deal stage %q", r.Stage)
	}
	if r.Value < 0 {
		return fmt.Errorf("value must not be negative")
	}
	if r.PropertyID != nil && *r.PropertyID == "" {
		r.PropertyID = nil
	}
	return nil
}

// UpdateDealRequest is the body of PATCH /api/deals/{id}. Nil fields are kept.
type UpdateDealRequest struct {
	Title *string    `json:"title"`
	Stage *DealStage `json:"stage"`
	Value *float64   `json:"value"`
}

// Validate checks the fields that are present.
func (r *UpdateDealRequest) Validate() error {
	if r.Title != nil {
		t := strings.TrimSpace(*r.Title)
		if n := utf8.RuneCountInString(t); n < 1 || n > 200 {
			return fmt.Errorf("title must be 1-200 characters")
		}
		r.Title = &t
	}
	if r.Stage != nil && !r.Stage.Valid() {
		return fmt.Errorf("unknown deal stage %q", *r.Stage)
	}
	if r.Value != nil && *r.Value < 0 {
		return fmt.Errorf("value must not be negative")
	}
	return nil
}

// ApplyTo copies the present fields onto d.
func (r *UpdateDealRequest) ApplyTo(d *Deal) {
	if r.Title != nil {
		d.Title = *r.Title
	}
	if r.Stage != nil {
		d.Stage = *r.Stage
	}
	if r.Value != nil {
		d.Value = *r.Value
	}
}
