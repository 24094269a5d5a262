package services

import (
	"github.com/pagelift/outreach-backend/internal/normalization"
	"github.com/pagelift/outreach-backend/internal/types"
)

// AggregateEvidence folds per-target-URL analyses into whole-domain evidence.
//
// Counts are the flattened union across all analyses and are intentionally NOT
// deduplicated: the qualification signal is "how much ranking evidence exists",
// so a keyword ranking against several target pages counts once per page.
// Median positions come from the primary analysis only: the one matching the
// suggested target URL, else the first in producer order.
func AggregateEvidence(analyses []types.TargetAnalysis, suggestedTargetURL string) types.DomainEvidence {
	var ev types.DomainEvidence
	if len(analyses) == 0 {
		return ev
	}

	for _, ta := range analyses {
		ev.DirectCount += len(ta.Evidence.DirectKeywords)
		ev.RelatedCount += len(ta.Evidence.RelatedKeywords)
	}

	primary := primaryAnalysis(analyses, suggestedTargetURL)
	ev.DirectMedianPosition = primary.Evidence.DirectMedianPosition
	ev.RelatedMedianPosition = primary.Evidence.RelatedMedianPosition
	return ev
}

func primaryAnalysis(analyses []types.TargetAnalysis, suggestedTargetURL string) types.TargetAnalysis {
	if suggestedTargetURL != "" {
		want := normalization.NormalizeDomain(suggestedTargetURL)
		for _, ta := range analyses {
			if normalization.NormalizeDomain(ta.TargetURL) == want {
				return ta
			}
		}
	}
	return analyses[0]
}

// DeriveOverlapStatus classifies aggregated evidence into the four-way overlap
// status shown in review UIs.
func DeriveOverlapStatus(ev types.DomainEvidence) types.OverlapStatus {
	switch {
	case ev.DirectCount > 0 && ev.RelatedCount > 0:
		return types.OverlapBoth
	case ev.DirectCount > 0:
		return types.OverlapDirect
	case ev.RelatedCount > 0:
		return types.OverlapRelated
	default:
		return types.OverlapNone
	}
}
