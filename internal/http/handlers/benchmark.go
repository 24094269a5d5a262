package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pagelift/outreach-backend/internal/http/response"
	"github.com/pagelift/outreach-backend/internal/pkg/logger"
	"github.com/pagelift/outreach-backend/internal/services"
)

type BenchmarkHandler struct {
	log        *logger.Logger
	benchmarks services.BenchmarkService
}

func NewBenchmarkHandler(log *logger.Logger, benchmarks services.BenchmarkService) *BenchmarkHandler {
	return &BenchmarkHandler{
		log:        log.With("handler", "BenchmarkHandler"),
		benchmarks: benchmarks,
	}
}

type captureRequest struct {
	CapturedBy uuid.UUID `json:"captured_by" binding:"required"`
	Reason     string    `json:"reason" binding:"required"`
}

// POST /api/orders/:id/benchmarks
func (h *BenchmarkHandler) Capture(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil || orderID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_order_id", err)
		return
	}
	var req captureRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
		return
	}

	benchmark, err := h.benchmarks.Capture(c.Request.Context(), orderID, req.CapturedBy, req.Reason)
	if err != nil {
		h.log.Error("Capture failed", "error", err, "order_id", orderID)
		response.RespondError(c, response.StatusFor(err), "capture_benchmark_failed", err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"benchmark": benchmark})
}

// GET /api/orders/:id/benchmarks
func (h *BenchmarkHandler) ListVersions(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil || orderID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_order_id", err)
		return
	}

	benchmarks, err := h.benchmarks.ListVersions(c.Request.Context(), orderID)
	if err != nil {
		h.log.Error("ListVersions failed", "error", err, "order_id", orderID)
		response.RespondError(c, response.StatusFor(err), "list_benchmarks_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"benchmarks": benchmarks})
}

// GET /api/orders/:id/benchmarks/latest
func (h *BenchmarkHandler) GetLatest(c *gin.Context) {
	orderID, err := uuid.Parse(c.Param("id"))
	if err != nil || orderID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_order_id", err)
		return
	}

	benchmark, err := h.benchmarks.GetLatest(c.Request.Context(), orderID)
	if err != nil {
		h.log.Error("GetLatest failed", "error", err, "order_id", orderID)
		response.RespondError(c, response.StatusFor(err), "load_benchmark_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"benchmark": benchmark})
}

// GET /api/benchmarks/:id/comparison
func (h *BenchmarkHandler) Compare(c *gin.Context) {
	benchmarkID, err := uuid.Parse(c.Param("id"))
	if err != nil || benchmarkID == uuid.Nil {
		response.RespondError(c, http.StatusBadRequest, "invalid_benchmark_id", err)
		return
	}

	report, err := h.benchmarks.Compare(c.Request.Context(), benchmarkID)
	if err != nil {
		h.log.Error("Compare failed", "error", err, "benchmark_id", benchmarkID)
		response.RespondError(c, response.StatusFor(err), "compare_benchmark_failed", err)
		return
	}
	response.RespondOK(c, gin.H{"report": report})
}
