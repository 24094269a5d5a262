package types

import (
	"encoding/json"
	"fmt"

	"gorm.io/datatypes"
)

// DomainEvidence is the whole-domain summary of keyword-overlap evidence,
// aggregated from every per-target-URL analysis.
type DomainEvidence struct {
	DirectCount           int      `json:"direct_count"`
	DirectMedianPosition  *float64 `json:"direct_median_position,omitempty"`
	RelatedCount          int      `json:"related_count"`
	RelatedMedianPosition *float64 `json:"related_median_position,omitempty"`
}

// TargetEvidence is the keyword-overlap evidence tying a domain to a single
// candidate target URL.
type TargetEvidence struct {
	DirectKeywords        []string `json:"direct_keywords"`
	RelatedKeywords       []string `json:"related_keywords"`
	DirectCount           int      `json:"direct_count"`
	RelatedCount          int      `json:"related_count"`
	DirectMedianPosition  *float64 `json:"direct_median_position,omitempty"`
	RelatedMedianPosition *float64 `json:"related_median_position,omitempty"`
}

type TargetAnalysis struct {
	TargetURL    string         `json:"target_url"`
	MatchQuality string         `json:"match_quality"`
	Reasoning    string         `json:"reasoning"`
	Evidence     TargetEvidence `json:"evidence"`
}

// TargetMatchData is the upstream AI producer's per-target-URL analysis
// payload, stored on the domain record as a JSON column. The list order is the
// producer's ranking and is preserved.
type TargetMatchData struct {
	TargetAnalysis []TargetAnalysis `json:"target_analysis"`
}

// DecodeTargetMatchData parses and validates a raw target_match_data column.
// Validation happens here, at the boundary where the payload first enters the
// core, not at each use site.
func DecodeTargetMatchData(raw datatypes.JSON) (*TargetMatchData, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var data TargetMatchData
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil, fmt.Errorf("decode target_match_data: %w", err)
	}
	for i, ta := range data.TargetAnalysis {
		if ta.TargetURL == "" {
			return nil, fmt.Errorf("decode target_match_data: analysis %d has no target_url", i)
		}
	}
	return &data, nil
}

// DecodeDomainEvidence parses a raw evidence column.
func DecodeDomainEvidence(raw datatypes.JSON) (*DomainEvidence, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var ev DomainEvidence
	if err := json.Unmarshal(raw, &ev); err != nil {
		return nil, fmt.Errorf("decode evidence: %w", err)
	}
	return &ev, nil
}

// EncodeJSON marshals any payload struct into a JSON column value.
func EncodeJSON(v any) (datatypes.JSON, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode json column: %w", err)
	}
	return datatypes.JSON(raw), nil
}
