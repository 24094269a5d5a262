package types

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

// DomainRecord is one analyzed domain for a client within a project. The
// composite unique key tolerates the same domain appearing in several projects
// for one client; those cross-project duplicates are resolved explicitly, never
// merged silently.
type DomainRecord struct {
	ID        uuid.UUID  `gorm:"type:uuid;primaryKey" json:"id"`
	ClientID  uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex:idx_client_domain_project;index" json:"client_id"`
	Domain    string     `gorm:"column:domain;not null;uniqueIndex:idx_client_domain_project" json:"domain"`
	ProjectID *uuid.UUID `gorm:"type:uuid;uniqueIndex:idx_client_domain_project;index" json:"project_id,omitempty"`

	QualificationStatus  QualificationStatus `gorm:"column:qualification_status;not null;default:'pending'" json:"qualification_status"`
	WasManuallyQualified bool                `gorm:"column:was_manually_qualified;not null;default:false" json:"was_manually_qualified"`
	WasHumanVerified     bool                `gorm:"column:was_human_verified;not null;default:false" json:"was_human_verified"`
	CheckedBy            *uuid.UUID          `gorm:"type:uuid" json:"checked_by,omitempty"`
	CheckedAt            *time.Time          `json:"checked_at,omitempty"`
	ManuallyQualifiedBy  *uuid.UUID          `gorm:"type:uuid" json:"manually_qualified_by,omitempty"`
	ManuallyQualifiedAt  *time.Time          `json:"manually_qualified_at,omitempty"`
	HumanVerifiedBy      *uuid.UUID          `gorm:"type:uuid" json:"human_verified_by,omitempty"`
	HumanVerifiedAt      *time.Time          `json:"human_verified_at,omitempty"`
	Notes                string              `gorm:"column:notes" json:"notes"`

	// AIAssessed is set once when upstream AI output is first attached. The
	// override-vs-verification branch keys on this flag, not on reasoning-string
	// nullability.
	AIAssessed               bool           `gorm:"column:ai_assessed;not null;default:false" json:"ai_assessed"`
	AIQualificationReasoning string         `gorm:"column:ai_qualification_reasoning" json:"ai_qualification_reasoning"`
	OverlapStatus            OverlapStatus  `gorm:"column:overlap_status;not null;default:'none'" json:"overlap_status"`
	AuthorityDirect          AuthorityLevel `gorm:"column:authority_direct;not null;default:'n/a'" json:"authority_direct"`
	AuthorityRelated         AuthorityLevel `gorm:"column:authority_related;not null;default:'n/a'" json:"authority_related"`
	Evidence                 datatypes.JSON `gorm:"column:evidence;type:jsonb" json:"evidence,omitempty"`

	SuggestedTargetURL string         `gorm:"column:suggested_target_url" json:"suggested_target_url"`
	TargetMatchData    datatypes.JSON `gorm:"column:target_match_data;type:jsonb" json:"target_match_data,omitempty"`
	TargetMatchedAt    *time.Time     `json:"target_matched_at,omitempty"`

	// DuplicateOf is a back-reference for lineage display only, never an
	// ownership edge.
	DuplicateOf         *uuid.UUID          `gorm:"type:uuid" json:"duplicate_of,omitempty"`
	DuplicateResolution DuplicateResolution `gorm:"column:duplicate_resolution" json:"duplicate_resolution,omitempty"`
	DuplicateResolvedBy *uuid.UUID          `gorm:"type:uuid" json:"duplicate_resolved_by,omitempty"`
	DuplicateResolvedAt *time.Time          `json:"duplicate_resolved_at,omitempty"`
	OriginalProjectID   *uuid.UUID          `gorm:"type:uuid" json:"original_project_id,omitempty"`
	ResolutionMetadata  datatypes.JSON      `gorm:"column:resolution_metadata;type:jsonb" json:"resolution_metadata,omitempty"`

	CreatedAt time.Time `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null" json:"updated_at"`
}

func (DomainRecord) TableName() string { return "domain_record" }
