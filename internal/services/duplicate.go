package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/pagelift/outreach-backend/internal/normalization"
	pkgerrors "github.com/pagelift/outreach-backend/internal/pkg/errors"
	"github.com/pagelift/outreach-backend/internal/pkg/logger"
	"github.com/pagelift/outreach-backend/internal/repos"
	"github.com/pagelift/outreach-backend/internal/types"
)

// DuplicateInfo decorates a cross-project duplicate with the other project's
// display data so the reviewer can choose a resolution.
type DuplicateInfo struct {
	Domain              string                    `json:"domain"`
	ExistingRecordID    uuid.UUID                 `json:"existing_record_id"`
	ProjectID           *uuid.UUID                `json:"project_id,omitempty"`
	ProjectName         string                    `json:"project_name"`
	ProjectStatus       string                    `json:"project_status"`
	WorkflowStatus      string                    `json:"workflow_status"`
	QualificationStatus types.QualificationStatus `json:"qualification_status"`
}

// DuplicateCheckResult partitions the candidate set exactly: every normalized
// candidate lands in exactly one of the three buckets.
type DuplicateCheckResult struct {
	Duplicates       []DuplicateInfo `json:"duplicates"`
	NewDomains       []string        `json:"new_domains"`
	AlreadyInProject []string        `json:"already_in_project"`
}

// CandidateDomain is one domain submitted for analysis, with the target-page
// linkage it was submitted against.
type CandidateDomain struct {
	Domain             string `json:"domain"`
	SuggestedTargetURL string `json:"suggested_target_url"`
}

// ResolveResult reports the per-record outcome of a resolution batch. Failures
// are omitted from the created/updated sets but never abort siblings.
type ResolveResult struct {
	Created []*types.DomainRecord      `json:"created"`
	Updated []*types.DomainRecord      `json:"updated"`
	Skipped []string                   `json:"skipped"`
	Failed  int                        `json:"failed"`
	Errors  []pkgerrors.BatchItemError `json:"-"`
}

type DuplicateService interface {
	CheckDuplicates(ctx context.Context, clientID uuid.UUID, candidateDomains []string, currentProjectID uuid.UUID) (*DuplicateCheckResult, error)
	ResolveAndCreate(ctx context.Context, clientID, projectID, resolvedBy uuid.UUID, candidates []CandidateDomain, resolutions map[string]types.DuplicateResolution) (*ResolveResult, error)
}

type duplicateService struct {
	db          *gorm.DB
	log         *logger.Logger
	domainRepo  repos.DomainRecordRepo
	projectRepo repos.ProjectRepo
}

func NewDuplicateService(db *gorm.DB, baseLog *logger.Logger, domainRepo repos.DomainRecordRepo, projectRepo repos.ProjectRepo) DuplicateService {
	serviceLog := baseLog.With("service", "DuplicateService")
	return &duplicateService{
		db:          db,
		log:         serviceLog,
		domainRepo:  domainRepo,
		projectRepo: projectRepo,
	}
}

// CheckDuplicates partitions normalized candidates into duplicates (records in
// OTHER projects for this client), already-in-project (silently skippable, not
// a conflict), and genuinely new domains.
func (s *duplicateService) CheckDuplicates(ctx context.Context, clientID uuid.UUID, candidateDomains []string, currentProjectID uuid.UUID) (*DuplicateCheckResult, error) {
	domains := normalization.NormalizeDomains(candidateDomains)
	if len(domains) == 0 {
		return nil, fmt.Errorf("%w: candidate domain list must not be empty", pkgerrors.ErrInvalidArgument)
	}

	existing, err := s.domainRepo.FindByClientAndDomains(ctx, nil, clientID, domains)
	if err != nil {
		return nil, fmt.Errorf("find existing records: %w", err)
	}

	byDomain := make(map[string][]*types.DomainRecord, len(existing))
	for _, rec := range existing {
		byDomain[rec.Domain] = append(byDomain[rec.Domain], rec)
	}

	projectNames, projectStatuses, workflowStatuses := s.projectDisplayData(ctx, existing)

	result := &DuplicateCheckResult{}
	for _, domain := range domains {
		records := byDomain[domain]
		if len(records) == 0 {
			result.NewDomains = append(result.NewDomains, domain)
			continue
		}
		if anyInProject(records, currentProjectID) {
			result.AlreadyInProject = append(result.AlreadyInProject, domain)
			continue
		}
		for _, rec := range records {
			info := DuplicateInfo{
				Domain:              domain,
				ExistingRecordID:    rec.ID,
				ProjectID:           rec.ProjectID,
				QualificationStatus: rec.QualificationStatus,
			}
			if rec.ProjectID != nil {
				info.ProjectName = projectNames[*rec.ProjectID]
				info.ProjectStatus = projectStatuses[*rec.ProjectID]
				info.WorkflowStatus = workflowStatuses[*rec.ProjectID]
			}
			result.Duplicates = append(result.Duplicates, info)
		}
	}
	return result, nil
}

// ResolveAndCreate applies one caller-chosen policy per conflicting candidate
// and inserts the rest as new records. Each domain runs in its own transaction;
// a failure is logged with replay context, omitted from the result set, and
// reported through a PartialBatchError alongside the partial result.
func (s *duplicateService) ResolveAndCreate(ctx context.Context, clientID, projectID, resolvedBy uuid.UUID, candidates []CandidateDomain, resolutions map[string]types.DuplicateResolution) (*ResolveResult, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: candidate list must not be empty", pkgerrors.ErrInvalidArgument)
	}
	for domain, resolution := range resolutions {
		if !resolution.Valid() {
			return nil, fmt.Errorf("%w: unknown resolution %q for %q", pkgerrors.ErrInvalidArgument, resolution, domain)
		}
	}

	result := &ResolveResult{}
	seen := make(map[string]struct{}, len(candidates))
	for _, candidate := range candidates {
		domain := normalization.NormalizeDomain(candidate.Domain)
		if domain == "" {
			continue
		}
		if _, dup := seen[domain]; dup {
			continue
		}
		seen[domain] = struct{}{}

		resolution, hasResolution := resolutions[domain]
		if !hasResolution {
			if raw, ok := resolutions[candidate.Domain]; ok {
				resolution, hasResolution = raw, true
			}
		}

		err := s.db.Transaction(func(tx *gorm.DB) error {
			if !hasResolution {
				return s.insertNew(ctx, tx, clientID, projectID, domain, candidate, result)
			}
			return s.applyResolution(ctx, tx, clientID, projectID, resolvedBy, domain, candidate, resolution, result)
		})
		if err != nil {
			s.log.Warn("duplicate resolution failed for domain",
				"client_id", clientID, "domain", domain,
				"resolution", string(resolution), "error", err)
			result.Failed++
			result.Errors = append(result.Errors, pkgerrors.BatchItemError{
				Domain: domain, Op: "resolve_duplicate", Err: err,
			})
		}
	}
	if result.Failed > 0 {
		return result, &pkgerrors.PartialBatchError{Op: "resolve_duplicates", Failed: result.Errors}
	}
	return result, nil
}

func (s *duplicateService) insertNew(ctx context.Context, tx *gorm.DB, clientID, projectID uuid.UUID, domain string, candidate CandidateDomain, result *ResolveResult) error {
	record := &types.DomainRecord{
		ClientID:            clientID,
		Domain:              domain,
		ProjectID:           &projectID,
		QualificationStatus: types.QualificationPending,
		SuggestedTargetURL:  candidate.SuggestedTargetURL,
	}
	created, err := s.domainRepo.Create(ctx, tx, []*types.DomainRecord{record})
	if err != nil {
		return err
	}
	result.Created = append(result.Created, created[0])
	return nil
}

func (s *duplicateService) applyResolution(ctx context.Context, tx *gorm.DB, clientID, projectID, resolvedBy uuid.UUID, domain string, candidate CandidateDomain, resolution types.DuplicateResolution, result *ResolveResult) error {
	existing, err := s.findConflict(ctx, tx, clientID, projectID, domain)
	if err != nil {
		return err
	}
	if existing == nil {
		// Resolution supplied but nothing conflicts anymore; treat as new.
		return s.insertNew(ctx, tx, clientID, projectID, domain, candidate, result)
	}

	now := time.Now()
	switch resolution {
	case types.ResolutionKeepBoth:
		return s.keepBoth(ctx, tx, clientID, projectID, resolvedBy, domain, candidate, existing, now, result)

	case types.ResolutionMoveToNew:
		existing.OriginalProjectID = existing.ProjectID
		existing.ProjectID = &projectID
		existing.SuggestedTargetURL = candidate.SuggestedTargetURL
		stampResolution(existing, types.ResolutionMoveToNew, resolvedBy, now)
		if err := s.domainRepo.Save(ctx, tx, existing); err != nil {
			return err
		}
		result.Updated = append(result.Updated, existing)
		return nil

	case types.ResolutionUpdateOriginal:
		// Refresh linkage in place; the record stays in its original project.
		existing.SuggestedTargetURL = candidate.SuggestedTargetURL
		stampResolution(existing, types.ResolutionUpdateOriginal, resolvedBy, now)
		if err := s.domainRepo.Save(ctx, tx, existing); err != nil {
			return err
		}
		result.Updated = append(result.Updated, existing)
		return nil

	case types.ResolutionSkip:
		stampResolution(existing, types.ResolutionSkip, resolvedBy, now)
		if err := s.domainRepo.Save(ctx, tx, existing); err != nil {
			return err
		}
		result.Skipped = append(result.Skipped, domain)
		return nil
	}
	return fmt.Errorf("%w: unknown resolution %q", pkgerrors.ErrInvalidArgument, resolution)
}

// keepBoth inserts a second row referencing the existing one. When a legacy
// (client, domain) uniqueness constraint blocks the insert, it degrades to
// updating the existing row's project linkage instead of failing the batch;
// the fallback is tagged in resolution_metadata so the audit trail still
// distinguishes it from update_original.
func (s *duplicateService) keepBoth(ctx context.Context, tx *gorm.DB, clientID, projectID, resolvedBy uuid.UUID, domain string, candidate CandidateDomain, existing *types.DomainRecord, now time.Time, result *ResolveResult) error {
	metadata, err := types.EncodeJSON(map[string]any{
		"kept_with":   existing.ID,
		"resolved_by": resolvedBy,
	})
	if err != nil {
		return err
	}
	record := &types.DomainRecord{
		ClientID:            clientID,
		Domain:              domain,
		ProjectID:           &projectID,
		QualificationStatus: types.QualificationPending,
		SuggestedTargetURL:  candidate.SuggestedTargetURL,
		DuplicateOf:         &existing.ID,
		DuplicateResolution: types.ResolutionKeepBoth,
		DuplicateResolvedBy: &resolvedBy,
		DuplicateResolvedAt: &now,
		ResolutionMetadata:  metadata,
	}
	// The insert attempt runs under a savepoint so a constraint failure does
	// not abort the surrounding transaction before the fallback update.
	err = tx.Transaction(func(nested *gorm.DB) error {
		created, createErr := s.domainRepo.Create(ctx, nested, []*types.DomainRecord{record})
		if createErr != nil {
			return createErr
		}
		result.Created = append(result.Created, created[0])
		return nil
	})
	if err == nil {
		return nil
	}
	if !errors.Is(err, pkgerrors.ErrConstraintViolation) {
		return err
	}

	s.log.Warn("keep_both insert blocked by uniqueness constraint, updating existing row",
		"client_id", clientID, "domain", domain)
	fallbackMeta, err := types.EncodeJSON(map[string]any{
		"fallback":    "update_existing",
		"resolved_by": resolvedBy,
	})
	if err != nil {
		return err
	}
	existing.OriginalProjectID = existing.ProjectID
	existing.ProjectID = &projectID
	existing.SuggestedTargetURL = candidate.SuggestedTargetURL
	existing.ResolutionMetadata = fallbackMeta
	stampResolution(existing, types.ResolutionKeepBoth, resolvedBy, now)
	if err := s.domainRepo.Save(ctx, tx, existing); err != nil {
		return err
	}
	result.Updated = append(result.Updated, existing)
	return nil
}

// findConflict returns the existing record for this (client, domain) living in
// a different project, or nil when none conflicts.
func (s *duplicateService) findConflict(ctx context.Context, tx *gorm.DB, clientID, projectID uuid.UUID, domain string) (*types.DomainRecord, error) {
	records, err := s.domainRepo.FindByClientAndDomain(ctx, tx, clientID, domain)
	if err != nil {
		return nil, err
	}
	for _, rec := range records {
		if rec.ProjectID == nil || *rec.ProjectID != projectID {
			return rec, nil
		}
	}
	return nil, nil
}

func (s *duplicateService) projectDisplayData(ctx context.Context, records []*types.DomainRecord) (names, statuses, workflows map[uuid.UUID]string) {
	names = map[uuid.UUID]string{}
	statuses = map[uuid.UUID]string{}
	workflows = map[uuid.UUID]string{}

	var ids []uuid.UUID
	seen := map[uuid.UUID]struct{}{}
	for _, rec := range records {
		if rec.ProjectID == nil {
			continue
		}
		if _, ok := seen[*rec.ProjectID]; ok {
			continue
		}
		seen[*rec.ProjectID] = struct{}{}
		ids = append(ids, *rec.ProjectID)
	}
	if len(ids) == 0 {
		return names, statuses, workflows
	}

	projects, err := s.projectRepo.GetByIDs(ctx, nil, ids)
	if err != nil {
		// Display data only; the partition itself does not depend on it.
		s.log.Warn("project lookup for duplicate display failed", "error", err)
		return names, statuses, workflows
	}
	for _, p := range projects {
		names[p.ID] = p.Name
		statuses[p.ID] = p.Status
		workflows[p.ID] = p.WorkflowStatus
	}
	return names, statuses, workflows
}

func anyInProject(records []*types.DomainRecord, projectID uuid.UUID) bool {
	for _, rec := range records {
		if rec.ProjectID != nil && *rec.ProjectID == projectID {
			return true
		}
	}
	return false
}

func stampResolution(record *types.DomainRecord, resolution types.DuplicateResolution, resolvedBy uuid.UUID, now time.Time) {
	record.DuplicateResolution = resolution
	record.DuplicateResolvedBy = &resolvedBy
	record.DuplicateResolvedAt = &now
}
