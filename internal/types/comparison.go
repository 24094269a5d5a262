package types

import (
	"time"

	"github.com/google/uuid"
)

// Missing-domain reason classifications produced by the benchmark comparator.
const (
	MissingUnavailable  = "unavailable"
	MissingQualityIssue = "quality_issue"
	MissingPriceChange  = "price_change"
)

// Substitution records a benchmark-requested domain replaced 1:1 by a
// different delivered domain on the same target page.
type Substitution struct {
	RequestedDomain string  `json:"requested_domain"`
	DeliveredDomain string  `json:"delivered_domain"`
	RequestedPrice  float64 `json:"requested_price"`
	DeliveredPrice  float64 `json:"delivered_price"`
}

type MissingDomain struct {
	Domain string  `json:"domain"`
	Reason string  `json:"reason"`
	Price  float64 `json:"price"`
}

type ExtraDomain struct {
	Domain string  `json:"domain"`
	Price  float64 `json:"price"`
}

// PriceChange flags a delivered domain whose price drifted more than the
// relative threshold from its benchmark price.
type PriceChange struct {
	Domain         string  `json:"domain"`
	BenchmarkPrice float64 `json:"benchmark_price"`
	CurrentPrice   float64 `json:"current_price"`
	DriftPercent   float64 `json:"drift_percent"`
}

type TargetPageAnalysis struct {
	URL           string          `json:"url"`
	Requested     int             `json:"requested"`
	Delivered     int             `json:"delivered"`
	Substitutions []Substitution  `json:"substitutions"`
	Missing       []MissingDomain `json:"missing"`
	Extras        []ExtraDomain   `json:"extras"`
	PriceChanges  []PriceChange   `json:"price_changes"`
}

type ClientAnalysis struct {
	ClientID           uuid.UUID            `json:"client_id"`
	ClientName         string               `json:"client_name"`
	RequestedLinks     int                  `json:"requested_links"`
	DeliveredLinks     int                  `json:"delivered_links"`
	TargetPageAnalysis []TargetPageAnalysis `json:"target_page_analysis"`
}

type ComparisonIssue struct {
	Kind          string `json:"kind"`
	ClientName    string `json:"client_name"`
	TargetPageURL string `json:"target_page_url"`
	Detail        string `json:"detail"`
}

// ComparisonReport is the derived benchmark-vs-actual deviation report. It is
// recomputed on demand from the benchmark snapshot plus live order state and is
// never authoritative.
type ComparisonReport struct {
	BenchmarkID          uuid.UUID         `json:"benchmark_id"`
	OrderID              uuid.UUID         `json:"order_id"`
	BenchmarkVersion     int               `json:"benchmark_version"`
	ComputedAt           time.Time         `json:"computed_at"`
	RequestedLinks       int               `json:"requested_links"`
	DeliveredLinks       int               `json:"delivered_links"`
	CompletionPercentage float64           `json:"completion_percentage"`
	ExpectedRevenue      float64           `json:"expected_revenue"`
	ActualRevenue        float64           `json:"actual_revenue"`
	RevenueDifference    float64           `json:"revenue_difference"`
	ClientAnalysis       []ClientAnalysis  `json:"client_analysis"`
	Issues               []ComparisonIssue `json:"issues"`
}
