package services

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/pagelift/outreach-backend/internal/pkg/errors"
	"github.com/pagelift/outreach-backend/internal/repos"
	"github.com/pagelift/outreach-backend/internal/types"
)

type duplicateFixture struct {
	svc         DuplicateService
	domainRepo  repos.DomainRecordRepo
	projectRepo repos.ProjectRepo
	db          *gorm.DB
	clientID    uuid.UUID
	projectA    uuid.UUID
	projectB    uuid.UUID
}

func newDuplicateFixture(t *testing.T) *duplicateFixture {
	t.Helper()
	db := newTestDB(t)
	log := testLogger(t)
	domainRepo := repos.NewDomainRecordRepo(db, log)
	projectRepo := repos.NewProjectRepo(db, log)

	clientID := uuid.New()
	projects, err := projectRepo.Create(context.Background(), nil, []*types.Project{
		{ClientID: clientID, Name: "Spring Campaign", Status: "active", WorkflowStatus: "analysis"},
		{ClientID: clientID, Name: "Autumn Campaign", Status: "active", WorkflowStatus: "outreach"},
	})
	if err != nil {
		t.Fatalf("seed projects: %v", err)
	}

	return &duplicateFixture{
		svc:         NewDuplicateService(db, log, domainRepo, projectRepo),
		domainRepo:  domainRepo,
		projectRepo: projectRepo,
		db:          db,
		clientID:    clientID,
		projectA:    projects[0].ID,
		projectB:    projects[1].ID,
	}
}

func (f *duplicateFixture) seed(t *testing.T, domain string, projectID uuid.UUID) *types.DomainRecord {
	t.Helper()
	record := &types.DomainRecord{
		ClientID:            f.clientID,
		Domain:              domain,
		ProjectID:           &projectID,
		QualificationStatus: types.QualificationGoodQuality,
	}
	created, err := f.domainRepo.Create(context.Background(), nil, []*types.DomainRecord{record})
	if err != nil {
		t.Fatalf("seed %s: %v", domain, err)
	}
	return created[0]
}

func TestCheckDuplicatesPartitionsEveryCandidate(t *testing.T) {
	f := newDuplicateFixture(t)
	f.seed(t, "other.com", f.projectA)
	f.seed(t, "mine.com", f.projectB)

	result, err := f.svc.CheckDuplicates(context.Background(), f.clientID,
		[]string{"other.com", "mine.com", "fresh.com"}, f.projectB)
	if err != nil {
		t.Fatalf("CheckDuplicates: %v", err)
	}

	if len(result.Duplicates) != 1 || result.Duplicates[0].Domain != "other.com" {
		t.Fatalf("duplicates = %+v, want exactly other.com", result.Duplicates)
	}
	if result.Duplicates[0].ProjectName != "Spring Campaign" {
		t.Errorf("ProjectName = %q, want the other project's display name", result.Duplicates[0].ProjectName)
	}
	if result.Duplicates[0].QualificationStatus != types.QualificationGoodQuality {
		t.Errorf("QualificationStatus = %q", result.Duplicates[0].QualificationStatus)
	}
	if len(result.AlreadyInProject) != 1 || result.AlreadyInProject[0] != "mine.com" {
		t.Fatalf("already_in_project = %v, want exactly mine.com", result.AlreadyInProject)
	}
	if len(result.NewDomains) != 1 || result.NewDomains[0] != "fresh.com" {
		t.Fatalf("new_domains = %v, want exactly fresh.com", result.NewDomains)
	}
}

func TestCheckDuplicatesCollapsesSpellingVariants(t *testing.T) {
	f := newDuplicateFixture(t)

	result, err := f.svc.CheckDuplicates(context.Background(), f.clientID,
		[]string{"https://www.Example.com/", "example.com", "HTTP://EXAMPLE.COM"}, f.projectB)
	if err != nil {
		t.Fatalf("CheckDuplicates: %v", err)
	}
	if len(result.NewDomains) != 1 || result.NewDomains[0] != "example.com" {
		t.Fatalf("new_domains = %v, want the three spellings collapsed to one", result.NewDomains)
	}
}

func TestCheckDuplicatesEmptyAfterNormalization(t *testing.T) {
	f := newDuplicateFixture(t)
	if _, err := f.svc.CheckDuplicates(context.Background(), f.clientID, []string{"  ", ""}, f.projectB); !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Errorf("error = %v, want ErrInvalidArgument", err)
	}
}

func TestResolveAndCreateInsertsUnresolvedAsNew(t *testing.T) {
	f := newDuplicateFixture(t)

	result, err := f.svc.ResolveAndCreate(context.Background(), f.clientID, f.projectB, uuid.New(),
		[]CandidateDomain{{Domain: "https://Fresh.com", SuggestedTargetURL: "https://client.com/pricing"}}, nil)
	if err != nil {
		t.Fatalf("ResolveAndCreate: %v", err)
	}
	if len(result.Created) != 1 {
		t.Fatalf("created = %d, want 1", len(result.Created))
	}
	created := result.Created[0]
	if created.Domain != "fresh.com" {
		t.Errorf("Domain = %q, want normalized fresh.com", created.Domain)
	}
	if created.QualificationStatus != types.QualificationPending {
		t.Errorf("status = %q, want pending", created.QualificationStatus)
	}
	if created.SuggestedTargetURL != "https://client.com/pricing" {
		t.Errorf("SuggestedTargetURL = %q", created.SuggestedTargetURL)
	}
}

func TestResolveAndCreateKeepBoth(t *testing.T) {
	f := newDuplicateFixture(t)
	existing := f.seed(t, "shared.com", f.projectA)
	resolvedBy := uuid.New()

	result, err := f.svc.ResolveAndCreate(context.Background(), f.clientID, f.projectB, resolvedBy,
		[]CandidateDomain{{Domain: "shared.com"}},
		map[string]types.DuplicateResolution{"shared.com": types.ResolutionKeepBoth})
	if err != nil {
		t.Fatalf("ResolveAndCreate: %v", err)
	}
	if len(result.Created) != 1 || result.Failed != 0 {
		t.Fatalf("created/failed = %d/%d, want 1/0", len(result.Created), result.Failed)
	}
	created := result.Created[0]
	if created.DuplicateOf == nil || *created.DuplicateOf != existing.ID {
		t.Errorf("DuplicateOf = %v, want %s", created.DuplicateOf, existing.ID)
	}
	if created.DuplicateResolution != types.ResolutionKeepBoth {
		t.Errorf("DuplicateResolution = %q", created.DuplicateResolution)
	}

	// Both rows survive, one per project.
	records, err := f.domainRepo.FindByClientAndDomain(context.Background(), nil, f.clientID, "shared.com")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("records = %d, want 2", len(records))
	}
}

func TestResolveAndCreateKeepBothFallsBackOnLegacyConstraint(t *testing.T) {
	f := newDuplicateFixture(t)
	// Legacy deployments constrain (client, domain) without the project column;
	// keep_both cannot insert a second row there.
	if err := f.db.Exec("CREATE UNIQUE INDEX idx_legacy_client_domain ON domain_record(client_id, domain)").Error; err != nil {
		t.Fatalf("create legacy index: %v", err)
	}
	existing := f.seed(t, "shared.com", f.projectA)

	result, err := f.svc.ResolveAndCreate(context.Background(), f.clientID, f.projectB, uuid.New(),
		[]CandidateDomain{{Domain: "shared.com", SuggestedTargetURL: "https://client.com/new"}},
		map[string]types.DuplicateResolution{"shared.com": types.ResolutionKeepBoth})
	if err != nil {
		t.Fatalf("ResolveAndCreate: %v", err)
	}
	if result.Failed != 0 {
		t.Fatalf("failed = %d (%+v), want graceful fallback", result.Failed, result.Errors)
	}
	if len(result.Created) != 0 || len(result.Updated) != 1 {
		t.Fatalf("created/updated = %d/%d, want 0/1", len(result.Created), len(result.Updated))
	}

	updated, err := f.domainRepo.GetByID(context.Background(), nil, existing.ID)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if updated.ProjectID == nil || *updated.ProjectID != f.projectB {
		t.Errorf("ProjectID = %v, want moved to %s", updated.ProjectID, f.projectB)
	}
	if updated.OriginalProjectID == nil || *updated.OriginalProjectID != f.projectA {
		t.Errorf("OriginalProjectID = %v, want %s", updated.OriginalProjectID, f.projectA)
	}
	if updated.DuplicateResolution != types.ResolutionKeepBoth {
		t.Errorf("DuplicateResolution = %q, want keep_both recorded even on fallback", updated.DuplicateResolution)
	}
}

func TestResolveAndCreateMoveToNew(t *testing.T) {
	f := newDuplicateFixture(t)
	existing := f.seed(t, "moving.com", f.projectA)

	result, err := f.svc.ResolveAndCreate(context.Background(), f.clientID, f.projectB, uuid.New(),
		[]CandidateDomain{{Domain: "moving.com", SuggestedTargetURL: "https://client.com/landing"}},
		map[string]types.DuplicateResolution{"moving.com": types.ResolutionMoveToNew})
	if err != nil {
		t.Fatalf("ResolveAndCreate: %v", err)
	}
	if len(result.Updated) != 1 || len(result.Created) != 0 {
		t.Fatalf("updated/created = %d/%d, want 1/0", len(result.Updated), len(result.Created))
	}

	records, err := f.domainRepo.FindByClientAndDomain(context.Background(), nil, f.clientID, "moving.com")
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want the single row relocated", len(records))
	}
	moved := records[0]
	if moved.ID != existing.ID {
		t.Errorf("record id changed: %s -> %s", existing.ID, moved.ID)
	}
	if moved.ProjectID == nil || *moved.ProjectID != f.projectB {
		t.Errorf("ProjectID = %v, want %s", moved.ProjectID, f.projectB)
	}
	if moved.OriginalProjectID == nil || *moved.OriginalProjectID != f.projectA {
		t.Errorf("OriginalProjectID = %v, want %s", moved.OriginalProjectID, f.projectA)
	}
	if moved.SuggestedTargetURL != "https://client.com/landing" {
		t.Errorf("SuggestedTargetURL = %q", moved.SuggestedTargetURL)
	}
}

func TestResolveAndCreateUpdateOriginalAndSkip(t *testing.T) {
	f := newDuplicateFixture(t)
	refreshed := f.seed(t, "refresh.com", f.projectA)
	skipped := f.seed(t, "skip.com", f.projectA)
	resolvedBy := uuid.New()

	result, err := f.svc.ResolveAndCreate(context.Background(), f.clientID, f.projectB, resolvedBy,
		[]CandidateDomain{
			{Domain: "refresh.com", SuggestedTargetURL: "https://client.com/updated"},
			{Domain: "skip.com"},
		},
		map[string]types.DuplicateResolution{
			"refresh.com": types.ResolutionUpdateOriginal,
			"skip.com":    types.ResolutionSkip,
		})
	if err != nil {
		t.Fatalf("ResolveAndCreate: %v", err)
	}
	if len(result.Updated) != 1 || len(result.Skipped) != 1 || result.Failed != 0 {
		t.Fatalf("updated/skipped/failed = %d/%d/%d, want 1/1/0",
			len(result.Updated), len(result.Skipped), result.Failed)
	}

	got, err := f.domainRepo.GetByID(context.Background(), nil, refreshed.ID)
	if err != nil {
		t.Fatalf("reload refreshed: %v", err)
	}
	if got.ProjectID == nil || *got.ProjectID != f.projectA {
		t.Errorf("update_original must leave the record in its project; got %v", got.ProjectID)
	}
	if got.SuggestedTargetURL != "https://client.com/updated" {
		t.Errorf("SuggestedTargetURL = %q", got.SuggestedTargetURL)
	}

	got, err = f.domainRepo.GetByID(context.Background(), nil, skipped.ID)
	if err != nil {
		t.Fatalf("reload skipped: %v", err)
	}
	if got.DuplicateResolution != types.ResolutionSkip {
		t.Errorf("skip stamp = %q, want skip", got.DuplicateResolution)
	}
	if got.DuplicateResolvedBy == nil || *got.DuplicateResolvedBy != resolvedBy {
		t.Errorf("DuplicateResolvedBy = %v, want %s", got.DuplicateResolvedBy, resolvedBy)
	}
}

func TestResolveAndCreateRejectsUnknownResolution(t *testing.T) {
	f := newDuplicateFixture(t)
	_, err := f.svc.ResolveAndCreate(context.Background(), f.clientID, f.projectB, uuid.New(),
		[]CandidateDomain{{Domain: "x.com"}},
		map[string]types.DuplicateResolution{"x.com": "merge_somehow"})
	if !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Errorf("error = %v, want ErrInvalidArgument before any write", err)
	}
}

func TestResolveAndCreateDeduplicatesCandidates(t *testing.T) {
	f := newDuplicateFixture(t)

	result, err := f.svc.ResolveAndCreate(context.Background(), f.clientID, f.projectB, uuid.New(),
		[]CandidateDomain{
			{Domain: "https://www.dup.com/"},
			{Domain: "dup.com"},
		}, nil)
	if err != nil {
		t.Fatalf("ResolveAndCreate: %v", err)
	}
	if len(result.Created) != 1 || result.Failed != 0 {
		t.Fatalf("created/failed = %d/%d, want the variants collapsed into one insert", len(result.Created), result.Failed)
	}
}
