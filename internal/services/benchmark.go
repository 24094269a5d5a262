package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/pagelift/outreach-backend/internal/normalization"
	pkgerrors "github.com/pagelift/outreach-backend/internal/pkg/errors"
	"github.com/pagelift/outreach-backend/internal/pkg/logger"
	"github.com/pagelift/outreach-backend/internal/repos"
	"github.com/pagelift/outreach-backend/internal/types"
)

type BenchmarkService interface {
	// Capture freezes the order's current wishlist as a new benchmark version.
	Capture(ctx context.Context, orderID, capturedBy uuid.UUID, reason string) (*types.OrderBenchmark, error)
	// Compare recomputes the deviation report for one benchmark version.
	Compare(ctx context.Context, benchmarkID uuid.UUID) (*types.ComparisonReport, error)
	// GetLatest returns the order's current latest benchmark.
	GetLatest(ctx context.Context, orderID uuid.UUID) (*types.OrderBenchmark, error)
	// ListVersions returns every benchmark version for an order, oldest first.
	ListVersions(ctx context.Context, orderID uuid.UUID) ([]*types.OrderBenchmark, error)
}

type benchmarkService struct {
	db            *gorm.DB
	log           *logger.Logger
	orderRepo     repos.OrderRepo
	benchmarkRepo repos.OrderBenchmarkRepo
	domainRepo    repos.DomainRecordRepo
}

func NewBenchmarkService(db *gorm.DB, baseLog *logger.Logger, orderRepo repos.OrderRepo, benchmarkRepo repos.OrderBenchmarkRepo, domainRepo repos.DomainRecordRepo) BenchmarkService {
	serviceLog := baseLog.With("service", "BenchmarkService")
	return &benchmarkService{
		db:            db,
		log:           serviceLog,
		orderRepo:     orderRepo,
		benchmarkRepo: benchmarkRepo,
		domainRepo:    domainRepo,
	}
}

// Capture serializes the live order tree and appends it as the new latest
// version. Demoting the prior latest and inserting the new row share one
// transaction: the store never exposes zero or two latest rows for an order.
func (s *benchmarkService) Capture(ctx context.Context, orderID, capturedBy uuid.UUID, reason string) (*types.OrderBenchmark, error) {
	if capturedBy == uuid.Nil {
		return nil, fmt.Errorf("%w: captured_by is required", pkgerrors.ErrInvalidArgument)
	}
	if reason == "" {
		return nil, fmt.Errorf("%w: capture reason is required", pkgerrors.ErrInvalidArgument)
	}

	var benchmark *types.OrderBenchmark
	err := s.db.Transaction(func(tx *gorm.DB) error {
		order, err := s.orderRepo.GetTree(ctx, tx, orderID)
		if err != nil {
			return err
		}

		data := buildBenchmarkData(order)
		raw, err := types.EncodeJSON(data)
		if err != nil {
			return err
		}

		maxVersion, err := s.benchmarkRepo.MaxVersion(ctx, tx, orderID)
		if err != nil {
			return err
		}
		if err := s.benchmarkRepo.DemoteLatest(ctx, tx, orderID); err != nil {
			return err
		}

		benchmark = &types.OrderBenchmark{
			OrderID:       orderID,
			Version:       maxVersion + 1,
			IsLatest:      true,
			CapturedAt:    time.Now(),
			CapturedBy:    capturedBy,
			CaptureReason: reason,
			BenchmarkData: raw,
		}
		benchmark, err = s.benchmarkRepo.Create(ctx, tx, benchmark)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("benchmark captured",
		"order_id", orderID, "version", benchmark.Version, "reason", reason)
	return benchmark, nil
}

// Compare loads the benchmark row, then gathers the live order tree and the
// qualification data for the missing-reason classifier concurrently before
// running the pure comparison. The computation is all-or-nothing: any load or
// decode failure fails the whole call.
func (s *benchmarkService) Compare(ctx context.Context, benchmarkID uuid.UUID) (*types.ComparisonReport, error) {
	benchmark, err := s.benchmarkRepo.GetByID(ctx, nil, benchmarkID)
	if err != nil {
		return nil, err
	}
	data, err := types.DecodeBenchmarkData(benchmark.BenchmarkData)
	if err != nil {
		return nil, err
	}

	var (
		order   *types.Order
		quality map[string]types.QualificationStatus
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var loadErr error
		order, loadErr = s.orderRepo.GetTree(gctx, nil, benchmark.OrderID)
		return loadErr
	})
	g.Go(func() error {
		var loadErr error
		quality, loadErr = s.loadQuality(gctx, data)
		return loadErr
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return compareBenchmark(benchmark, data, order, quality, time.Now()), nil
}

func (s *benchmarkService) GetLatest(ctx context.Context, orderID uuid.UUID) (*types.OrderBenchmark, error) {
	return s.benchmarkRepo.GetLatestByOrder(ctx, nil, orderID)
}

func (s *benchmarkService) ListVersions(ctx context.Context, orderID uuid.UUID) ([]*types.OrderBenchmark, error) {
	return s.benchmarkRepo.ListByOrder(ctx, nil, orderID)
}

// loadQuality fetches qualification statuses for every requested domain, per
// client, so the comparator can classify quality-driven gaps.
func (s *benchmarkService) loadQuality(ctx context.Context, data *types.BenchmarkData) (map[string]types.QualificationStatus, error) {
	quality := map[string]types.QualificationStatus{}
	for _, group := range data.ClientGroups {
		var domains []string
		seen := map[string]struct{}{}
		for _, page := range group.TargetPages {
			for _, benchDomain := range page.RequestedDomains {
				domain := normalization.NormalizeDomain(benchDomain.Domain)
				if _, ok := seen[domain]; ok {
					continue
				}
				seen[domain] = struct{}{}
				domains = append(domains, domain)
			}
		}
		if len(domains) == 0 {
			continue
		}

		records, err := s.domainRepo.FindByClientAndDomains(ctx, nil, group.ClientID, domains)
		if err != nil {
			return nil, fmt.Errorf("load qualification for client %s: %w", group.ClientID, err)
		}
		for _, rec := range records {
			key := qualityKey(group.ClientID, rec.Domain)
			// Prefer the worst signal when the domain exists in several projects.
			if existing, ok := quality[key]; ok && worseQuality(existing, rec.QualificationStatus) {
				continue
			}
			quality[key] = rec.QualificationStatus
		}
	}
	return quality, nil
}

// worseQuality reports whether a is at least as bad a signal as b.
func worseQuality(a, b types.QualificationStatus) bool {
	rank := map[types.QualificationStatus]int{
		types.QualificationDisqualified: 0,
		types.QualificationMarginal:     1,
		types.QualificationPending:      2,
		types.QualificationGoodQuality:  3,
		types.QualificationHighQuality:  4,
	}
	return rank[a] <= rank[b]
}

// buildBenchmarkData serializes the live order tree into the nested wishlist
// shape. Only active assignments count as requested inventory.
func buildBenchmarkData(order *types.Order) types.BenchmarkData {
	data := types.BenchmarkData{}
	for _, group := range order.ClientGroups {
		benchGroup := types.BenchmarkClientGroup{
			ClientID:   group.ClientID,
			ClientName: group.ClientName,
		}
		for _, page := range group.TargetPages {
			benchPage := types.BenchmarkTargetPage{URL: page.URL}
			for _, assignment := range page.Assignments {
				if !assignment.Active() {
					continue
				}
				benchPage.RequestedDomains = append(benchPage.RequestedDomains, types.BenchmarkDomain{
					Domain:         normalization.NormalizeDomain(assignment.Domain),
					WholesalePrice: assignment.WholesalePrice,
					RetailPrice:    assignment.RetailPrice,
					AnchorText:     assignment.AnchorText,
				})
				data.RequestedLinks++
				data.ExpectedRevenue += assignment.RetailPrice
			}
			benchGroup.TargetPages = append(benchGroup.TargetPages, benchPage)
		}
		data.ClientGroups = append(data.ClientGroups, benchGroup)
	}
	return data
}
