package types

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// OrderBenchmark is an immutable versioned snapshot of what an order requested
// at confirmation time. New versions are appended on deliberate revision; rows
// are never mutated in place. Exactly one row per order carries is_latest.
type OrderBenchmark struct {
	ID            uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	OrderID       uuid.UUID      `gorm:"type:uuid;not null;index" json:"order_id"`
	Version       int            `gorm:"column:version;not null" json:"version"`
	IsLatest      bool           `gorm:"column:is_latest;not null;default:false;index" json:"is_latest"`
	CapturedAt    time.Time      `gorm:"not null" json:"captured_at"`
	CapturedBy    uuid.UUID      `gorm:"type:uuid;not null" json:"captured_by"`
	CaptureReason string         `gorm:"column:capture_reason;not null" json:"capture_reason"`
	BenchmarkData datatypes.JSON `gorm:"column:benchmark_data;type:jsonb;not null" json:"benchmark_data"`
	CreatedAt     time.Time      `gorm:"not null" json:"created_at"`
}

func (OrderBenchmark) TableName() string { return "order_benchmark" }

// BenchmarkDomain is one requested domain inside a benchmark snapshot.
type BenchmarkDomain struct {
	Domain         string             `json:"domain"`
	WholesalePrice float64            `json:"wholesale_price"`
	RetailPrice    float64            `json:"retail_price"`
	AnchorText     string             `json:"anchor_text"`
	Metrics        map[string]float64 `json:"metrics,omitempty"`
}

type BenchmarkTargetPage struct {
	URL              string            `json:"url"`
	RequestedDomains []BenchmarkDomain `json:"requested_domains"`
}

type BenchmarkClientGroup struct {
	ClientID    uuid.UUID             `json:"client_id"`
	ClientName  string                `json:"client_name"`
	TargetPages []BenchmarkTargetPage `json:"target_pages"`
}

// BenchmarkData is the strictly nested wishlist tree: order totals at the top,
// then client groups, target pages, and requested domains.
type BenchmarkData struct {
	RequestedLinks  int                    `json:"requested_links"`
	ExpectedRevenue float64                `json:"expected_revenue"`
	ClientGroups    []BenchmarkClientGroup `json:"client_groups"`
}

// DecodeBenchmarkData parses and validates a raw benchmark_data column.
func DecodeBenchmarkData(raw datatypes.JSON) (*BenchmarkData, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("decode benchmark_data: empty payload")
	}
	var data BenchmarkData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode benchmark_data: %w", err)
	}
	for gi, group := range data.ClientGroups {
		if group.ClientID == uuid.Nil {
			return nil, fmt.Errorf("decode benchmark_data: client group %d has no client_id", gi)
		}
		for pi, page := range group.TargetPages {
			if page.URL == "" {
				return nil, fmt.Errorf("decode benchmark_data: group %d target page %d has no url", gi, pi)
			}
		}
	}
	return &data, nil
}
