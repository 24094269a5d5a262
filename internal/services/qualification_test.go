package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/pagelift/outreach-backend/internal/pkg/errors"
	"github.com/pagelift/outreach-backend/internal/pkg/pointers"
	"github.com/pagelift/outreach-backend/internal/repos"
	"github.com/pagelift/outreach-backend/internal/types"
)

// memCache is a map-backed SummaryCache for exercising the read-through and
// invalidation paths without a redis instance.
type memCache struct {
	entries map[uuid.UUID]*DomainSummary
	hits    int
}

func newMemCache() *memCache {
	return &memCache{entries: map[uuid.UUID]*DomainSummary{}}
}

func (c *memCache) Get(_ context.Context, id uuid.UUID) (*DomainSummary, bool) {
	summary, ok := c.entries[id]
	if ok {
		c.hits++
	}
	return summary, ok
}

func (c *memCache) Set(_ context.Context, id uuid.UUID, summary *DomainSummary) {
	c.entries[id] = summary
}

func (c *memCache) Invalidate(_ context.Context, id uuid.UUID) {
	delete(c.entries, id)
}

func seedRecord(t *testing.T, db *gorm.DB, repo repos.DomainRecordRepo, mutate func(*types.DomainRecord)) *types.DomainRecord {
	t.Helper()
	record := &types.DomainRecord{
		ClientID:            uuid.New(),
		Domain:              "seeded.com",
		QualificationStatus: types.QualificationPending,
	}
	if mutate != nil {
		mutate(record)
	}
	created, err := repo.Create(context.Background(), nil, []*types.DomainRecord{record})
	if err != nil {
		t.Fatalf("seed record: %v", err)
	}
	return created[0]
}

func newQualificationFixture(t *testing.T, cache SummaryCache) (QualificationService, repos.DomainRecordRepo, *gorm.DB) {
	t.Helper()
	db := newTestDB(t)
	log := testLogger(t)
	repo := repos.NewDomainRecordRepo(db, log)
	return NewQualificationService(db, log, repo, cache), repo, db
}

func TestSetStatusManualOverrideOnChangedStatus(t *testing.T) {
	svc, repo, db := newQualificationFixture(t, nil)
	reviewer := uuid.New()
	record := seedRecord(t, db, repo, func(r *types.DomainRecord) {
		r.AIAssessed = true
		r.QualificationStatus = types.QualificationGoodQuality
	})

	updated, err := svc.SetStatus(context.Background(), record.ID, types.QualificationDisqualified, reviewer, "spammy link profile", true)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if !updated.WasManuallyQualified {
		t.Error("changed status under override should set was_manually_qualified")
	}
	if updated.WasHumanVerified {
		t.Error("was_human_verified must stay false when the status changed")
	}
	if updated.ManuallyQualifiedBy == nil || *updated.ManuallyQualifiedBy != reviewer {
		t.Errorf("ManuallyQualifiedBy = %v, want %s", updated.ManuallyQualifiedBy, reviewer)
	}
	if updated.QualificationStatus != types.QualificationDisqualified {
		t.Errorf("status = %q, want disqualified", updated.QualificationStatus)
	}
	if updated.CheckedBy == nil || *updated.CheckedBy != reviewer {
		t.Errorf("CheckedBy = %v, want %s", updated.CheckedBy, reviewer)
	}
	if updated.Notes != "spammy link profile" {
		t.Errorf("Notes = %q", updated.Notes)
	}
}

func TestSetStatusHumanVerificationOnUnchangedStatus(t *testing.T) {
	svc, repo, db := newQualificationFixture(t, nil)
	reviewer := uuid.New()
	record := seedRecord(t, db, repo, func(r *types.DomainRecord) {
		r.AIAssessed = true
		r.QualificationStatus = types.QualificationGoodQuality
	})

	updated, err := svc.SetStatus(context.Background(), record.ID, types.QualificationGoodQuality, reviewer, "", true)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if !updated.WasHumanVerified {
		t.Error("unchanged status under override should set was_human_verified")
	}
	if updated.WasManuallyQualified {
		t.Error("was_manually_qualified must stay false when the reviewer agreed")
	}
	if updated.HumanVerifiedBy == nil || *updated.HumanVerifiedBy != reviewer {
		t.Errorf("HumanVerifiedBy = %v, want %s", updated.HumanVerifiedBy, reviewer)
	}
}

func TestSetStatusNoOverrideStampsNeitherFlag(t *testing.T) {
	svc, repo, db := newQualificationFixture(t, nil)
	record := seedRecord(t, db, repo, func(r *types.DomainRecord) {
		r.AIAssessed = true
	})

	updated, err := svc.SetStatus(context.Background(), record.ID, types.QualificationHighQuality, uuid.New(), "", false)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if updated.WasManuallyQualified || updated.WasHumanVerified {
		t.Errorf("flags = %v/%v, want neither without manual override",
			updated.WasManuallyQualified, updated.WasHumanVerified)
	}
	if updated.QualificationStatus != types.QualificationHighQuality {
		t.Errorf("status = %q, want high_quality", updated.QualificationStatus)
	}
}

func TestSetStatusOverrideWithoutAssessmentStampsNeitherFlag(t *testing.T) {
	svc, repo, db := newQualificationFixture(t, nil)
	record := seedRecord(t, db, repo, nil)

	updated, err := svc.SetStatus(context.Background(), record.ID, types.QualificationMarginal, uuid.New(), "", true)
	if err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	if updated.WasManuallyQualified || updated.WasHumanVerified {
		t.Error("override flags require attached AI output; nothing to override yet")
	}
}

func TestSetStatusRejectsInvalidInput(t *testing.T) {
	svc, repo, db := newQualificationFixture(t, nil)
	record := seedRecord(t, db, repo, nil)

	if _, err := svc.SetStatus(context.Background(), record.ID, "banana", uuid.New(), "", false); !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Errorf("unknown status error = %v, want ErrInvalidArgument", err)
	}
	if _, err := svc.SetStatus(context.Background(), record.ID, types.QualificationPending, uuid.New(), "", false); !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Errorf("pending error = %v, want ErrInvalidArgument (pending is not a reviewable outcome)", err)
	}
	if _, err := svc.SetStatus(context.Background(), record.ID, types.QualificationGoodQuality, uuid.Nil, "", false); !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Errorf("nil reviewer error = %v, want ErrInvalidArgument", err)
	}
	if _, err := svc.SetStatus(context.Background(), uuid.New(), types.QualificationGoodQuality, uuid.New(), "", false); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Errorf("missing record error = %v, want ErrNotFound", err)
	}
}

func TestBulkSetStatusPartialFailure(t *testing.T) {
	svc, repo, db := newQualificationFixture(t, nil)
	a := seedRecord(t, db, repo, func(r *types.DomainRecord) { r.Domain = "a.com" })
	b := seedRecord(t, db, repo, func(r *types.DomainRecord) { r.Domain = "b.com" })
	missing := uuid.New()

	result, err := svc.BulkSetStatus(context.Background(),
		[]uuid.UUID{a.ID, missing, b.ID},
		types.QualificationGoodQuality, uuid.New(), "")
	pbe, ok := pkgerrors.AsPartialBatch(err)
	if !ok {
		t.Fatalf("BulkSetStatus error = %v, want PartialBatchError", err)
	}
	if len(pbe.Failed) != 1 {
		t.Fatalf("partial batch failed = %d, want 1", len(pbe.Failed))
	}
	if result.Updated != 2 || result.Failed != 1 {
		t.Fatalf("updated/failed = %d/%d, want 2/1", result.Updated, result.Failed)
	}
	if len(result.Errors) != 1 || result.Errors[0].ID != missing {
		t.Fatalf("errors = %+v, want one entry for the missing id", result.Errors)
	}
	if !errors.Is(result.Errors[0].Err, pkgerrors.ErrNotFound) {
		t.Errorf("batch error = %v, want ErrNotFound", result.Errors[0].Err)
	}

	// The good records were committed despite the failure in between.
	got, err := repo.GetByID(context.Background(), nil, b.ID)
	if err != nil {
		t.Fatalf("reload b: %v", err)
	}
	if got.QualificationStatus != types.QualificationGoodQuality {
		t.Errorf("b status = %q, want good_quality", got.QualificationStatus)
	}
}

func TestBulkSetStatusEmptyList(t *testing.T) {
	svc, _, _ := newQualificationFixture(t, nil)
	if _, err := svc.BulkSetStatus(context.Background(), nil, types.QualificationGoodQuality, uuid.New(), ""); !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Errorf("error = %v, want ErrInvalidArgument", err)
	}
}

func TestBulkDeletePartialFailure(t *testing.T) {
	svc, repo, db := newQualificationFixture(t, nil)
	a := seedRecord(t, db, repo, func(r *types.DomainRecord) { r.Domain = "a.com" })
	missing := uuid.New()

	result, err := svc.BulkDelete(context.Background(), []uuid.UUID{a.ID, missing})
	if _, ok := pkgerrors.AsPartialBatch(err); !ok {
		t.Fatalf("BulkDelete error = %v, want PartialBatchError", err)
	}
	if result.Updated != 1 || result.Failed != 1 {
		t.Fatalf("updated/failed = %d/%d, want 1/1", result.Updated, result.Failed)
	}
	if _, err := repo.GetByID(context.Background(), nil, a.ID); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Errorf("deleted record lookup = %v, want ErrNotFound", err)
	}
}

func TestAttachAssessment(t *testing.T) {
	svc, repo, db := newQualificationFixture(t, nil)
	record := seedRecord(t, db, repo, nil)

	input := AssessmentInput{
		TargetMatchData: types.TargetMatchData{TargetAnalysis: []types.TargetAnalysis{
			analysis("https://client.com/pricing", []string{"a", "b"}, []string{"c"}, pointers.Float64(3), pointers.Float64(11)),
			analysis("https://client.com/blog", nil, []string{"d"}, nil, pointers.Float64(30)),
		}},
		SuggestedTargetURL: "client.com/pricing",
		Reasoning:          "strong direct keyword overlap with the pricing page",
		AuthorityDirect:    types.AuthorityStrong,
	}

	updated, err := svc.AttachAssessment(context.Background(), record.ID, input)
	if err != nil {
		t.Fatalf("AttachAssessment: %v", err)
	}
	if !updated.AIAssessed {
		t.Error("AIAssessed should be set once output is attached")
	}
	if updated.OverlapStatus != types.OverlapBoth {
		t.Errorf("OverlapStatus = %q, want both", updated.OverlapStatus)
	}
	if updated.AuthorityDirect != types.AuthorityStrong {
		t.Errorf("AuthorityDirect = %q, want strong", updated.AuthorityDirect)
	}
	if updated.TargetMatchedAt == nil {
		t.Error("TargetMatchedAt should be stamped")
	}

	evidence, err := types.DecodeDomainEvidence(updated.Evidence)
	if err != nil {
		t.Fatalf("decode evidence: %v", err)
	}
	if evidence.DirectCount != 2 || evidence.RelatedCount != 2 {
		t.Errorf("evidence counts = %d/%d, want 2/2", evidence.DirectCount, evidence.RelatedCount)
	}
	if evidence.DirectMedianPosition == nil || *evidence.DirectMedianPosition != 3 {
		t.Errorf("DirectMedianPosition = %v, want 3 from the suggested analysis", evidence.DirectMedianPosition)
	}

	if _, err := svc.AttachAssessment(context.Background(), record.ID, AssessmentInput{}); !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Errorf("empty assessment error = %v, want ErrInvalidArgument", err)
	}
}

func TestGetSummaryReadThroughCache(t *testing.T) {
	cache := newMemCache()
	svc, repo, db := newQualificationFixture(t, cache)
	record := seedRecord(t, db, repo, func(r *types.DomainRecord) {
		r.Domain = "cached.com"
		r.QualificationStatus = types.QualificationGoodQuality
	})

	first, err := svc.GetSummary(context.Background(), record.ID)
	if err != nil {
		t.Fatalf("GetSummary: %v", err)
	}
	if first.Domain != "cached.com" {
		t.Errorf("Domain = %q", first.Domain)
	}
	if cache.hits != 0 {
		t.Fatalf("first read hit the cache %d times, want a miss", cache.hits)
	}

	if _, err := svc.GetSummary(context.Background(), record.ID); err != nil {
		t.Fatalf("GetSummary (cached): %v", err)
	}
	if cache.hits != 1 {
		t.Fatalf("cache hits = %d, want 1", cache.hits)
	}

	// A review invalidates; the next read reflects the new status.
	if _, err := svc.SetStatus(context.Background(), record.ID, types.QualificationDisqualified, uuid.New(), "", false); err != nil {
		t.Fatalf("SetStatus: %v", err)
	}
	refreshed, err := svc.GetSummary(context.Background(), record.ID)
	if err != nil {
		t.Fatalf("GetSummary (after invalidate): %v", err)
	}
	if refreshed.QualificationStatus != types.QualificationDisqualified {
		t.Errorf("status after invalidation = %q, want disqualified", refreshed.QualificationStatus)
	}
}
