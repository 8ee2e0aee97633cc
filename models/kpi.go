package models

import "time"

// PropertyKPIs counts a landlord's listings per status.
type PropertyKPIs struct {
	Total      int `json:"total"`
	Draft      int `json:"draft"`
	Active     int `json:"active"`
	UnderOffer int `json:"underOffer"`
	Leased     int `json:"leased"`
	Sold       int `json:"sold"`
	Archived   int `json:"archived"`
}

// Add counts n listings in status s.
func (k *PropertyKPIs) Add(s PropertyStatus, n int) {
	k.Total += n
	switch s {
	case PropertyDraft:
		k.Draft += n
	case PropertyActive:
		k.Active += n
	case PropertyUnderOffer:
		k.UnderOffer += n
	case PropertyLeased:
		k.Leased += n
	case PropertySold:
		k.Sold += n
	case PropertyArchived:
		k.Archived += n
	}
}

// DealKPIs summarizes a broker's pipeline.
type DealKPIs struct {
	Open          int     `json:"open"`
	Won           int     `json:"won"`
	Lost          int     `json:"lost"`
	PipelineValue float64 `json:"pipelineValue"` // sum of open deal values
	WonValue      float64 `json:"wonValue"`
}

// Add counts n deals in stage s worth value in total.
func (k *DealKPIs) Add(s DealStage, n int, value float64) {
	switch s {
	case DealClosedWon:
		k.Won += n
		k.WonValue += value
	case DealClosedLost:
		k.Lost += n
	default:
		k.Open += n
		k.PipelineValue += value
	}
}

// DashboardKPIs is the cached aggregate behind GET /api/dashboard/kpis.
type DashboardKPIs struct {
	Properties  PropertyKPIs `json:"properties"`
	Deals       DealKPIs     `json:"deals"`
	GeneratedAt time.Time    `json:"generatedAt"`
}
