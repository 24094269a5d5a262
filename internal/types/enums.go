package types

// QualificationStatus classifies a domain's fitness for guest-post placement
// against a client's keyword targets.
type QualificationStatus string

const (
	QualificationPending      QualificationStatus = "pending"
	QualificationHighQuality  QualificationStatus = "high_quality"
	QualificationGoodQuality  QualificationStatus = "good_quality"
	QualificationMarginal     QualificationStatus = "marginal_quality"
	QualificationDisqualified QualificationStatus = "disqualified"
)

func (s QualificationStatus) Valid() bool {
	switch s {
	case QualificationPending, QualificationHighQuality, QualificationGoodQuality,
		QualificationMarginal, QualificationDisqualified:
		return true
	}
	return false
}

// OverlapStatus captures whether a domain ranks for the client's exact
// keywords, broader related topics, both, or neither.
type OverlapStatus string

const (
	OverlapDirect  OverlapStatus = "direct"
	OverlapRelated OverlapStatus = "related"
	OverlapBoth    OverlapStatus = "both"
	OverlapNone    OverlapStatus = "none"
)

// AuthorityLevel grades the strength of ranking evidence.
type AuthorityLevel string

const (
	AuthorityStrong   AuthorityLevel = "strong"
	AuthorityModerate AuthorityLevel = "moderate"
	AuthorityWeak     AuthorityLevel = "weak"
	AuthorityNA       AuthorityLevel = "n/a"
)

// DuplicateResolution is the user-chosen policy applied when a candidate
// domain already exists for the client in another project.
type DuplicateResolution string

const (
	ResolutionKeepBoth       DuplicateResolution = "keep_both"
	ResolutionMoveToNew      DuplicateResolution = "move_to_new"
	ResolutionSkip           DuplicateResolution = "skip"
	ResolutionUpdateOriginal DuplicateResolution = "update_original"
)

func (r DuplicateResolution) Valid() bool {
	switch r {
	case ResolutionKeepBoth, ResolutionMoveToNew, ResolutionSkip, ResolutionUpdateOriginal:
		return true
	}
	return false
}
