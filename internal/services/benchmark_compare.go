package services

import (
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/pagelift/outreach-backend/internal/normalization"
	"github.com/pagelift/outreach-backend/internal/types"
)

// priceDriftThreshold is the relative retail-price drift above which a
// delivered domain is flagged. Strictly greater-than: exactly 10% does not
// flag.
const priceDriftThreshold = 0.10

// qualityKey indexes qualification lookups per (client, domain).
func qualityKey(clientID uuid.UUID, domain string) string {
	return clientID.String() + "|" + domain
}

// compareBenchmark computes the full deviation report from a benchmark
// snapshot and the live order tree. Pure: no I/O, no side effects; every input
// arrives as an argument.
func compareBenchmark(
	benchmark *types.OrderBenchmark,
	data *types.BenchmarkData,
	order *types.Order,
	quality map[string]types.QualificationStatus,
	now time.Time,
) *types.ComparisonReport {
	report := &types.ComparisonReport{
		BenchmarkID:      benchmark.ID,
		OrderID:          benchmark.OrderID,
		BenchmarkVersion: benchmark.Version,
		ComputedAt:       now,
		ExpectedRevenue:  data.ExpectedRevenue,
	}

	liveGroups := make(map[uuid.UUID]*types.OrderClientGroup, len(order.ClientGroups))
	for i := range order.ClientGroups {
		liveGroups[order.ClientGroups[i].ClientID] = &order.ClientGroups[i]
	}

	for _, benchGroup := range data.ClientGroups {
		clientReport := types.ClientAnalysis{
			ClientID:   benchGroup.ClientID,
			ClientName: benchGroup.ClientName,
		}
		live := liveGroups[benchGroup.ClientID]

		for _, benchPage := range benchGroup.TargetPages {
			pageReport := comparePage(benchPage, findLivePage(live, benchPage.URL), benchGroup.ClientID, quality)
			clientReport.RequestedLinks += pageReport.Requested
			clientReport.DeliveredLinks += pageReport.Delivered
			clientReport.TargetPageAnalysis = append(clientReport.TargetPageAnalysis, pageReport)
			appendIssues(report, benchGroup.ClientName, pageReport)
		}

		report.RequestedLinks += clientReport.RequestedLinks
		report.DeliveredLinks += clientReport.DeliveredLinks
		report.ClientAnalysis = append(report.ClientAnalysis, clientReport)
	}

	report.ActualRevenue = deliveredRevenue(data, order)
	report.RevenueDifference = report.ActualRevenue - report.ExpectedRevenue
	if report.RequestedLinks > 0 {
		// Not clamped: over-delivery above 100% is representable and meaningful.
		report.CompletionPercentage = float64(report.DeliveredLinks) / float64(report.RequestedLinks) * 100
	} else {
		report.CompletionPercentage = 100
	}
	return report
}

// comparePage classifies one target page's requested-vs-delivered sets.
// A 1:1 swap is reported as a substitution, which takes priority over the
// missing+extra pair it would otherwise produce.
func comparePage(benchPage types.BenchmarkTargetPage, livePage *types.OrderTargetPage, clientID uuid.UUID, quality map[string]types.QualificationStatus) types.TargetPageAnalysis {
	pageReport := types.TargetPageAnalysis{
		URL:           benchPage.URL,
		Substitutions: []types.Substitution{},
		Missing:       []types.MissingDomain{},
		Extras:        []types.ExtraDomain{},
		PriceChanges:  []types.PriceChange{},
	}

	delivered := map[string]*types.DomainAssignment{}
	removalReasons := map[string]string{}
	if livePage != nil {
		for i := range livePage.Assignments {
			assignment := &livePage.Assignments[i]
			domain := normalization.NormalizeDomain(assignment.Domain)
			if assignment.Active() {
				delivered[domain] = assignment
			} else if assignment.Status == types.AssignmentRemoved && assignment.RemovalReason != "" {
				removalReasons[domain] = assignment.RemovalReason
			}
		}
	}
	pageReport.Requested = len(benchPage.RequestedDomains)
	pageReport.Delivered = len(delivered)

	requested := map[string]types.BenchmarkDomain{}
	for _, benchDomain := range benchPage.RequestedDomains {
		domain := normalization.NormalizeDomain(benchDomain.Domain)
		requested[domain] = benchDomain

		assignment, ok := delivered[domain]
		if !ok {
			continue
		}
		// Present in both sets: no deviation beyond possible price drift.
		if drift, changed := priceDrift(benchDomain.RetailPrice, assignment.RetailPrice); changed {
			pageReport.PriceChanges = append(pageReport.PriceChanges, types.PriceChange{
				Domain:         domain,
				BenchmarkPrice: benchDomain.RetailPrice,
				CurrentPrice:   assignment.RetailPrice,
				DriftPercent:   drift * 100,
			})
		}
	}

	var missing []types.MissingDomain
	for _, benchDomain := range benchPage.RequestedDomains {
		domain := normalization.NormalizeDomain(benchDomain.Domain)
		if _, ok := delivered[domain]; ok {
			continue
		}
		missing = append(missing, types.MissingDomain{
			Domain: domain,
			Reason: classifyMissing(domain, clientID, removalReasons, quality),
			Price:  benchDomain.RetailPrice,
		})
	}

	var extras []types.ExtraDomain
	for domain, assignment := range delivered {
		if _, ok := requested[domain]; ok {
			continue
		}
		extras = append(extras, types.ExtraDomain{
			Domain: domain,
			Price:  assignment.RetailPrice,
		})
	}

	if len(benchPage.RequestedDomains) == 1 && len(delivered) == 1 && len(missing) == 1 && len(extras) == 1 {
		pageReport.Substitutions = append(pageReport.Substitutions, types.Substitution{
			RequestedDomain: missing[0].Domain,
			DeliveredDomain: extras[0].Domain,
			RequestedPrice:  missing[0].Price,
			DeliveredPrice:  extras[0].Price,
		})
		return pageReport
	}

	pageReport.Missing = append(pageReport.Missing, missing...)
	pageReport.Extras = append(pageReport.Extras, extras...)
	return pageReport
}

// classifyMissing is best-effort: an explicit removal reason on the live order
// wins, then a disqualified/marginal qualification for the client, then
// "unavailable".
func classifyMissing(domain string, clientID uuid.UUID, removalReasons map[string]string, quality map[string]types.QualificationStatus) string {
	if reason, ok := removalReasons[domain]; ok {
		switch reason {
		case types.RemovalQualityIssue:
			return types.MissingQualityIssue
		case types.RemovalPriceChange:
			return types.MissingPriceChange
		default:
			return types.MissingUnavailable
		}
	}
	switch quality[qualityKey(clientID, domain)] {
	case types.QualificationDisqualified, types.QualificationMarginal:
		return types.MissingQualityIssue
	}
	return types.MissingUnavailable
}

// priceDrift reports the relative drift and whether it crosses the threshold.
func priceDrift(benchmarkPrice, currentPrice float64) (float64, bool) {
	if benchmarkPrice == 0 {
		return 0, false
	}
	drift := math.Abs(benchmarkPrice-currentPrice) / benchmarkPrice
	return drift, drift > priceDriftThreshold
}

func findLivePage(group *types.OrderClientGroup, url string) *types.OrderTargetPage {
	if group == nil {
		return nil
	}
	want := normalization.NormalizeDomain(url)
	for i := range group.TargetPages {
		if normalization.NormalizeDomain(group.TargetPages[i].URL) == want {
			return &group.TargetPages[i]
		}
	}
	return nil
}

// deliveredRevenue sums retail prices of active assignments on the pages the
// benchmark covers.
func deliveredRevenue(data *types.BenchmarkData, order *types.Order) float64 {
	liveGroups := make(map[uuid.UUID]*types.OrderClientGroup, len(order.ClientGroups))
	for i := range order.ClientGroups {
		liveGroups[order.ClientGroups[i].ClientID] = &order.ClientGroups[i]
	}

	var total float64
	for _, benchGroup := range data.ClientGroups {
		live := liveGroups[benchGroup.ClientID]
		for _, benchPage := range benchGroup.TargetPages {
			page := findLivePage(live, benchPage.URL)
			if page == nil {
				continue
			}
			for _, assignment := range page.Assignments {
				if assignment.Active() {
					total += assignment.RetailPrice
				}
			}
		}
	}
	return total
}

func appendIssues(report *types.ComparisonReport, clientName string, pageReport types.TargetPageAnalysis) {
	for _, sub := range pageReport.Substitutions {
		report.Issues = append(report.Issues, types.ComparisonIssue{
			Kind:          "substitution",
			ClientName:    clientName,
			TargetPageURL: pageReport.URL,
			Detail:        fmt.Sprintf("%s replaced by %s", sub.RequestedDomain, sub.DeliveredDomain),
		})
	}
	for _, miss := range pageReport.Missing {
		report.Issues = append(report.Issues, types.ComparisonIssue{
			Kind:          "missing",
			ClientName:    clientName,
			TargetPageURL: pageReport.URL,
			Detail:        fmt.Sprintf("%s not delivered (%s)", miss.Domain, miss.Reason),
		})
	}
	for _, extra := range pageReport.Extras {
		report.Issues = append(report.Issues, types.ComparisonIssue{
			Kind:          "extra",
			ClientName:    clientName,
			TargetPageURL: pageReport.URL,
			Detail:        fmt.Sprintf("%s delivered without being requested", extra.Domain),
		})
	}
	for _, change := range pageReport.PriceChanges {
		report.Issues = append(report.Issues, types.ComparisonIssue{
			Kind:          "price_changed",
			ClientName:    clientName,
			TargetPageURL: pageReport.URL,
			Detail:        fmt.Sprintf("%s drifted %.2f%% from %.2f to %.2f", change.Domain, change.DriftPercent, change.BenchmarkPrice, change.CurrentPrice),
		})
	}
}
