package models

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"
)

// PropertyListingType is how a property is offered.
type PropertyListingType string

const (
	PropertyForLease PropertyListingType = "lease"
	PropertyForSale  PropertyListingType = "sale"
)

// PropertyStatus is the lifecycle state of a listing.
type PropertyStatus string

const (
	PropertyDraft      PropertyStatus = "draft"
	PropertyActive     PropertyStatus = "active"
	PropertyUnderOffer PropertyStatus = "under_offer"
	PropertyLeased     PropertyStatus = "leased"
	PropertySold       PropertyStatus = "sold"
	PropertyArchived   PropertyStatus = "archived"
)

// Valid reports whether s is a known status.
func (s PropertyStatus) Valid() bool {
	switch s {
	case PropertyDraft, PropertyActive, PropertyUnderOffer, PropertyLeased, PropertySold, PropertyArchived:
		return true
	}
	return false
}

// Property is a row of the properties table.
type Property struct {
	ID          string              `json:"id"`
	OwnerID     string              `json:"ownerId"`
	Title       string              `json:"title"`
	Address     string              `json:"address"`
	ListingType PropertyListingType `json:"listingType"`
	Status      PropertyStatus      `json:"status"`
	SizeSqft    int                 `json:"sizeSqft"`
	AskingRent  float64             `json:"askingRent"`
	CreatedAt   time.Time           `json:"createdAt"`
	UpdatedAt   time.Time           `json:"updatedAt"`
}

// CreatePropertyRequest is the body of POST /api/properties.
type CreatePropertyRequest struct {
	Title       string              `json:"title"`
	Address     string              `json:"address"`
	ListingType PropertyListingType `json:"listingType"`
	SizeSqft    int                 `json:"sizeSqft"`
	AskingRent  float64             `json:"askingRent"`
}

// Validate checks title length, listing type and non-negative numbers.
func (r *CreatePropertyRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	r.Address = strings.TrimSpace(r.Address)
	if n := utf8.RuneCountInString(r.Title); n < 1 || n > 200 {
		return fmt.Errorf("title must be 1-200 characters")
	}
	if r.ListingType != PropertyForLease && r.ListingType != PropertyForSale {
		return fmt.Errorf("listingType must be lease or sale")
	}
	if r.SizeSqft < 0 || r.AskingRent < 0 {
		return fmt.Errorf("size and asking rent must not be negative")
	}
	return nil
}

// UpdatePropertyRequest is the body of PATCH /api/properties/{id}.
// Nil fields are left unchanged.
type UpdatePropertyRequest struct {
	Title      *string  `json:"title"`
	Address    *string  `json:"address"`
	SizeSqft   *int     `json:"sizeSqft"`
	AskingRent *float64 `json:"askingRent"`
}

// Validate checks the fields that are present.
func (r *UpdatePropertyRequest) Validate() error {
	if r.Title != nil {
		t := strings.TrimSpace(*r.Title)
		if n := utf8.RuneCountInString(t); n < 1 || n > 200 {
			return fmt.Errorf("title must be 1-200 characters")
		}
		r.Title = &t
	}
	if r.SizeSqft != nil && *r.SizeSqft < 0 {
		return fmt.Errorf("size must not be negative")
	}
	if r.AskingRent != nil && *r.AskingRent < 0 {
		return fmt.Errorf("asking rent must not be negative")
	}
	return nil
}

// ApplyTo copies the present fields onto p.
func (r *UpdatePropertyRequest) ApplyTo(p *Property) {
	if r.Title != nil {
		p.Title = *r.Title
	}
	if r.Address != nil {
		p.Address = strings.TrimSpace(*r.Address)
	}
	if r.SizeSqft != nil {
		p.SizeSqft = *r.SizeSqft
	}
	if r.AskingRent != nil {
		p.AskingRent = *r.AskingRent
	}
}

// PropertyStatusRequest is the body of PATCH /api/properties/{id}/status.
type PropertyStatusRequest struct {
	Status PropertyStatus `json:"status"`
}

// Validate requires a known status.
func (r *PropertyStatusRequest) Validate() error {
	if !r.Status.Valid() {
		return fmt.Errorf("unknown property status %q", r.Status)
	}
	return nil
}
