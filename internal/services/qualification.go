package services

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	pkgerrors "github.com/pagelift/outreach-backend/internal/pkg/errors"
	"github.com/pagelift/outreach-backend/internal/pkg/logger"
	"github.com/pagelift/outreach-backend/internal/repos"
	"github.com/pagelift/outreach-backend/internal/types"
)

// AssessmentInput is the payload the upstream AI producer writes onto a domain
// record. This service only stores and reconciles it; it never calls a model.
type AssessmentInput struct {
	TargetMatchData    types.TargetMatchData
	SuggestedTargetURL string
	Reasoning          string
	AuthorityDirect    types.AuthorityLevel
	AuthorityRelated   types.AuthorityLevel
}

// BulkResult reports a bulk operation's partial outcome. Each record is updated
// in its own transaction; failures never roll back siblings.
type BulkResult struct {
	Updated int                        `json:"updated"`
	Failed  int                        `json:"failed"`
	Errors  []pkgerrors.BatchItemError `json:"-"`
}

// DomainSummary is the read shape served to review UIs.
type DomainSummary struct {
	DomainID             uuid.UUID                 `json:"domain_id"`
	Domain               string                    `json:"domain"`
	QualificationStatus  types.QualificationStatus `json:"qualification_status"`
	OverlapStatus        types.OverlapStatus       `json:"overlap_status"`
	AuthorityDirect      types.AuthorityLevel      `json:"authority_direct"`
	AuthorityRelated     types.AuthorityLevel      `json:"authority_related"`
	Evidence             *types.DomainEvidence     `json:"evidence,omitempty"`
	SuggestedTargetURL   string                    `json:"suggested_target_url"`
	WasManuallyQualified bool                      `json:"was_manually_qualified"`
	WasHumanVerified     bool                      `json:"was_human_verified"`
	CheckedAt            *time.Time                `json:"checked_at,omitempty"`
}

// SummaryCache is an optional read-through cache for domain summaries.
// Implementations must tolerate concurrent use; a nil cache disables caching.
type SummaryCache interface {
	Get(ctx context.Context, domainID uuid.UUID) (*DomainSummary, bool)
	Set(ctx context.Context, domainID uuid.UUID, summary *DomainSummary)
	Invalidate(ctx context.Context, domainID uuid.UUID)
}

type QualificationService interface {
	SetStatus(ctx context.Context, domainID uuid.UUID, newStatus types.QualificationStatus, reviewerID uuid.UUID, notes string, manualOverride bool) (*types.DomainRecord, error)
	BulkSetStatus(ctx context.Context, domainIDs []uuid.UUID, status types.QualificationStatus, reviewerID uuid.UUID, notes string) (*BulkResult, error)
	BulkDelete(ctx context.Context, domainIDs []uuid.UUID) (*BulkResult, error)
	AttachAssessment(ctx context.Context, domainID uuid.UUID, input AssessmentInput) (*types.DomainRecord, error)
	GetSummary(ctx context.Context, domainID uuid.UUID) (*DomainSummary, error)
}

type qualificationService struct {
	db         *gorm.DB
	log        *logger.Logger
	domainRepo repos.DomainRecordRepo
	cache      SummaryCache
}

func NewQualificationService(db *gorm.DB, baseLog *logger.Logger, domainRepo repos.DomainRecordRepo, cache SummaryCache) QualificationService {
	serviceLog := baseLog.With("service", "QualificationService")
	return &qualificationService{
		db:         db,
		log:        serviceLog,
		domainRepo: domainRepo,
		cache:      cache,
	}
}

// SetStatus applies one qualification review inside a single transaction.
//
// When the reviewer overrides while AI output is attached, a changed status is
// recorded as a manual qualification and an unchanged status as a human
// verification of the AI's call. The two stamps are mutually exclusive per
// review.
func (s *qualificationService) SetStatus(ctx context.Context, domainID uuid.UUID, newStatus types.QualificationStatus, reviewerID uuid.UUID, notes string, manualOverride bool) (*types.DomainRecord, error) {
	if !newStatus.Valid() || newStatus == types.QualificationPending {
		return nil, fmt.Errorf("%w: status %q", pkgerrors.ErrInvalidArgument, newStatus)
	}
	if reviewerID == uuid.Nil {
		return nil, fmt.Errorf("%w: reviewer id is required", pkgerrors.ErrInvalidArgument)
	}

	var record *types.DomainRecord
	err := s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		record, txErr = s.domainRepo.GetByID(ctx, tx, domainID)
		if txErr != nil {
			return txErr
		}

		now := time.Now()
		if manualOverride && record.AIAssessed {
			if newStatus != record.QualificationStatus {
				record.WasManuallyQualified = true
				record.ManuallyQualifiedBy = &reviewerID
				record.ManuallyQualifiedAt = &now
			} else {
				record.WasHumanVerified = true
				record.HumanVerifiedBy = &reviewerID
				record.HumanVerifiedAt = &now
			}
		}
		record.QualificationStatus = newStatus
		record.CheckedBy = &reviewerID
		record.CheckedAt = &now
		record.Notes = notes

		return s.domainRepo.Save(ctx, tx, record)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, domainID)
	return record, nil
}

func (s *qualificationService) BulkSetStatus(ctx context.Context, domainIDs []uuid.UUID, status types.QualificationStatus, reviewerID uuid.UUID, notes string) (*BulkResult, error) {
	if len(domainIDs) == 0 {
		return nil, fmt.Errorf("%w: domain id list must not be empty", pkgerrors.ErrInvalidArgument)
	}
	if !status.Valid() || status == types.QualificationPending {
		return nil, fmt.Errorf("%w: status %q", pkgerrors.ErrInvalidArgument, status)
	}

	result := &BulkResult{}
	for _, id := range domainIDs {
		if _, err := s.SetStatus(ctx, id, status, reviewerID, notes, false); err != nil {
			s.log.Warn("bulk status update failed for record",
				"domain_id", id, "status", status, "error", err)
			result.Failed++
			result.Errors = append(result.Errors, pkgerrors.BatchItemError{
				ID: id, Op: "bulk_set_status", Err: err,
			})
			continue
		}
		result.Updated++
	}
	if result.Failed > 0 {
		return result, &pkgerrors.PartialBatchError{Op: "bulk_set_status", Failed: result.Errors}
	}
	return result, nil
}

// BulkDelete removes records one transaction at a time; the only way domain
// records leave the table.
func (s *qualificationService) BulkDelete(ctx context.Context, domainIDs []uuid.UUID) (*BulkResult, error) {
	if len(domainIDs) == 0 {
		return nil, fmt.Errorf("%w: domain id list must not be empty", pkgerrors.ErrInvalidArgument)
	}

	result := &BulkResult{}
	for _, id := range domainIDs {
		err := s.db.Transaction(func(tx *gorm.DB) error {
			return s.domainRepo.DeleteByID(ctx, tx, id)
		})
		if err != nil {
			s.log.Warn("bulk delete failed for record", "domain_id", id, "error", err)
			result.Failed++
			result.Errors = append(result.Errors, pkgerrors.BatchItemError{
				ID: id, Op: "bulk_delete", Err: err,
			})
			continue
		}
		s.invalidate(ctx, id)
		result.Updated++
	}
	if result.Failed > 0 {
		return result, &pkgerrors.PartialBatchError{Op: "bulk_delete", Failed: result.Errors}
	}
	return result, nil
}

// AttachAssessment stores upstream AI output on the record: target match data,
// aggregated evidence, overlap status, and the assessed flag the state machine
// branches on.
func (s *qualificationService) AttachAssessment(ctx context.Context, domainID uuid.UUID, input AssessmentInput) (*types.DomainRecord, error) {
	if len(input.TargetMatchData.TargetAnalysis) == 0 {
		return nil, fmt.Errorf("%w: target analysis must not be empty", pkgerrors.ErrInvalidArgument)
	}
	for i, ta := range input.TargetMatchData.TargetAnalysis {
		if ta.TargetURL == "" {
			return nil, fmt.Errorf("%w: analysis %d has no target_url", pkgerrors.ErrInvalidArgument, i)
		}
	}

	rawMatch, err := types.EncodeJSON(input.TargetMatchData)
	if err != nil {
		return nil, err
	}
	evidence := AggregateEvidence(input.TargetMatchData.TargetAnalysis, input.SuggestedTargetURL)
	rawEvidence, err := types.EncodeJSON(evidence)
	if err != nil {
		return nil, err
	}

	var record *types.DomainRecord
	err = s.db.Transaction(func(tx *gorm.DB) error {
		var txErr error
		record, txErr = s.domainRepo.GetByID(ctx, tx, domainID)
		if txErr != nil {
			return txErr
		}

		now := time.Now()
		record.TargetMatchData = rawMatch
		record.TargetMatchedAt = &now
		record.SuggestedTargetURL = input.SuggestedTargetURL
		record.Evidence = rawEvidence
		record.OverlapStatus = DeriveOverlapStatus(evidence)
		record.AIAssessed = true
		record.AIQualificationReasoning = input.Reasoning
		if input.AuthorityDirect != "" {
			record.AuthorityDirect = input.AuthorityDirect
		}
		if input.AuthorityRelated != "" {
			record.AuthorityRelated = input.AuthorityRelated
		}

		return s.domainRepo.Save(ctx, tx, record)
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, domainID)
	return record, nil
}

func (s *qualificationService) GetSummary(ctx context.Context, domainID uuid.UUID) (*DomainSummary, error) {
	if s.cache != nil {
		if summary, ok := s.cache.Get(ctx, domainID); ok {
			return summary, nil
		}
	}

	record, err := s.domainRepo.GetByID(ctx, nil, domainID)
	if err != nil {
		return nil, err
	}
	evidence, err := types.DecodeDomainEvidence(record.Evidence)
	if err != nil {
		return nil, err
	}

	summary := &DomainSummary{
		DomainID:             record.ID,
		Domain:               record.Domain,
		QualificationStatus:  record.QualificationStatus,
		OverlapStatus:        record.OverlapStatus,
		AuthorityDirect:      record.AuthorityDirect,
		AuthorityRelated:     record.AuthorityRelated,
		Evidence:             evidence,
		SuggestedTargetURL:   record.SuggestedTargetURL,
		WasManuallyQualified: record.WasManuallyQualified,
		WasHumanVerified:     record.WasHumanVerified,
		CheckedAt:            record.CheckedAt,
	}
	if s.cache != nil {
		s.cache.Set(ctx, domainID, summary)
	}
	return summary, nil
}

func (s *qualificationService) invalidate(ctx context.Context, domainID uuid.UUID) {
	if s.cache != nil {
		s.cache.Invalidate(ctx, domainID)
	}
}
