package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pagelift/outreach-backend/internal/http/response"
	"github.com/pagelift/outreach-backend/internal/normalization"
	pkgerrors "github.com/pagelift/outreach-backend/internal/pkg/errors"
	"github.com/pagelift/outreach-backend/internal/pkg/logger"
	"github.com/pagelift/outreach-backend/internal/services"
	"github.com/pagelift/outreach-backend/internal/types"
)

type DomainHandler struct {
	log           *logger.Logger
	qualification services.QualificationService
	duplicates    services.DuplicateService
}

func NewDomainHandler(log *logger.Logger, qualification services.QualificationService, duplicates services.DuplicateService) *DomainHandler {
	return &DomainHandler{
		log:           log.With("handler", "DomainHandler"),
		qualification: qualification,
		duplicates:    duplicates,
	}
}

type checkDuplicatesRequest struct {
	ClientID  uuid.UUID `json:"client_id" binding:"required"`
	ProjectID uuid.UUID `json:"project_id" binding:"required"`
	Domains   []string  `json:"domains"`
	// DomainsRaw carries pasted free-form text (newline/comma separated) and
	// is merged with the structured list after parsing.
	DomainsRaw string `json:"domains_raw"`
}

// POST /api/domains/check-duplicates
func (h *DomainHandler) CheckDuplicates(c *gin.Context) {
	var req checkDuplicatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	domains := req.Domains
	if req.DomainsRaw != "" {
		domains = append(domains, normalization.ParseDomainList(req.DomainsRaw)...)
	}
	if len(domains) == 0 {
		response.RespondError(c, http.StatusBadRequest, "invalid_request",
			pkgerrors.ErrInvalidArgument)
		return
	}

	result, err := h.duplicates.CheckDuplicates(c.Request.Context(), req.ClientID, domains, req.ProjectID)
	if err != nil {
		h.log.Error("CheckDuplicates failed", "error", err, "client_id", req.ClientID)
		response.RespondError(c, response.StatusFor(err), "check_duplicates_failed", err)
		return
	}
	response.RespondOK(c, result)
}

type resolveDuplicatesRequest struct {
	ClientID    uuid.UUID                            `json:"client_id" binding:"required"`
	ProjectID   uuid.UUID                            `json:"project_id" binding:"required"`
	ResolvedBy  uuid.UUID                            `json:"resolved_by" binding:"required"`
	Candidates  []services.CandidateDomain           `json:"candidates" binding:"required"`
	Resolutions map[string]types.DuplicateResolution `json:"resolutions"`
}

// POST /api/domains/resolve-duplicates
func (h *DomainHandler) ResolveDuplicates(c *gin.Context) {
	var req resolveDuplicatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	result, err := h.duplicates.ResolveAndCreate(c.Request.Context(),
		req.ClientID, req.ProjectID, req.ResolvedBy, req.Candidates, req.Resolutions)
	if err != nil {
		if pbe, ok := pkgerrors.AsPartialBatch(err); ok {
			c.JSON(http.StatusMultiStatus, gin.H{"result": result, "errors": batchErrorPayload(pbe.Failed)})
			return
		}
		h.log.Error("ResolveDuplicates failed", "error", err, "client_id", req.ClientID)
		response.RespondError(c, response.StatusFor(err), "resolve_duplicates_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"result": result})
}

type setStatusRequest struct {
	Status         types.QualificationStatus `json:"status" binding:"required"`
	ReviewerID     uuid.UUID                 `json:"reviewer_id" binding:"required"`
	Notes          string                    `json:"notes"`
	ManualOverride bool                      `json:"manual_override"`
}

// PATCH /api/domains/:id/status
func (h *DomainHandler) SetStatus(c *gin.Context) {
	domainID, err := uuid.Parse(c.Param("id"))
	if err != nil || domainID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_domain_id", err)
		return
	}
	var req setStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	record, err := h.qualification.SetStatus(c.Request.Context(),
		domainID, req.Status, req.ReviewerID, req.Notes, req.ManualOverride)
	if err != nil {
		h.log.Error("SetStatus failed", "error", err, "domain_id", domainID, "status", req.Status)
		response.RespondError(c, response.StatusFor(err), "set_status_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"domain": record})
}

type bulkStatusRequest struct {
	DomainIDs  []uuid.UUID               `json:"domain_ids" binding:"required"`
	Status     types.QualificationStatus `json:"status" binding:"required"`
	ReviewerID uuid.UUID                 `json:"reviewer_id" binding:"required"`
	Notes      string                    `json:"notes"`
}

// POST /api/domains/bulk-status
func (h *DomainHandler) BulkSetStatus(c *gin.Context) {
	var req bulkStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	result, err := h.qualification.BulkSetStatus(c.Request.Context(),
		req.DomainIDs, req.Status, req.ReviewerID, req.Notes)
	if err != nil && !isPartialBatch(err) {
		h.log.Error("BulkSetStatus failed", "error", err, "count", len(req.DomainIDs))
		response.RespondError(c, response.StatusFor(err), "bulk_status_failed", err)
		return
	}
	respondBulk(c, result)
}

type bulkDeleteRequest struct {
	DomainIDs []uuid.UUID `json:"domain_ids" binding:"required"`
}

// POST /api/domains/bulk-delete
func (h *DomainHandler) BulkDelete(c *gin.Context) {
	var req bulkDeleteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	result, err := h.qualification.BulkDelete(c.Request.Context(), req.DomainIDs)
	if err != nil && !isPartialBatch(err) {
		h.log.Error("BulkDelete failed", "error", err, "count", len(req.DomainIDs))
		response.RespondError(c, response.StatusFor(err), "bulk_delete_failed", err)
		return
	}
	respondBulk(c, result)
}

type attachAssessmentRequest struct {
	TargetMatchData    types.TargetMatchData `json:"target_match_data" binding:"required"`
	SuggestedTargetURL string                `json:"suggested_target_url"`
	Reasoning          string                `json:"reasoning"`
	AuthorityDirect    types.AuthorityLevel  `json:"authority_direct"`
	AuthorityRelated   types.AuthorityLevel  `json:"authority_related"`
}

// PUT /api/domains/:id/assessment
func (h *DomainHandler) AttachAssessment(c *gin.Context) {
	domainID, err := uuid.Parse(c.Param("id"))
	if err != nil || domainID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_domain_id", err)
		return
	}
	var req attachAssessmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	record, err := h.qualification.AttachAssessment(c.Request.Context(), domainID, services.AssessmentInput{
		TargetMatchData:    req.TargetMatchData,
		SuggestedTargetURL: req.SuggestedTargetURL,
		Reasoning:          req.Reasoning,
		AuthorityDirect:    req.AuthorityDirect,
		AuthorityRelated:   req.AuthorityRelated,
	})
	if err != nil {
		h.log.Error("AttachAssessment failed", "error", err, "domain_id", domainID)
		response.RespondError(c, response.StatusFor(err), "attach_assessment_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"domain": record})
}

// GET /api/domains/:id/summary
func (h *DomainHandler) GetSummary(c *gin.Context) {
	domainID, err := uuid.Parse(c.Param("id"))
	if err != nil || domainID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_domain_id", err)
		return
	}

	summary, err := h.qualification.GetSummary(c.Request.Context(), domainID)
	if err != nil {
		h.log.Error("GetSummary failed", "error", err, "domain_id", domainID)
		response.RespondError(c, response.StatusFor(err), "load_summary_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"summary": summary})
}

func isPartialBatch(err error) bool {
	_, ok := pkgerrors.AsPartialBatch(err)
	return ok
}

// respondBulk reports partial batch outcomes with 207 so callers can tell
// "everything applied" from "some records failed".
func respondBulk(c *gin.Context, result *services.BulkResult) {
	if result.Failed > 0 {
		c.JSON(http.StatusMultiStatus, gin.H{"result": result, "errors": batchErrorPayload(result.Errors)})
		return
	}
	response.RespondOK(c, gin.H{"result": result})
}

func batchErrorPayload(errs []pkgerrors.BatchItemError) []gin.H {
	payload := make([]gin.H, 0, len(errs))
	for _, e := range errs {
		item := gin.H{"op": e.Op, "message": e.Err.Error()}
		if e.ID != uuid.Nil {
			item["id"] = e.ID
		}
		if e.Domain != "" {
			item["domain"] = e.Domain
		}
		payload = append(payload, item)
	}
	return payload
}
