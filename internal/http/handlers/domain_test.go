package handlers

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/pagelift/outreach-backend/internal/pkg/logger"
	"github.com/pagelift/outreach-backend/internal/services"
	"github.com/pagelift/outreach-backend/internal/types"
)

type fakeDuplicateService struct {
	gotDomains []string
}

func (f *fakeDuplicateService) CheckDuplicates(ctx context.Context, clientID uuid.UUID, candidateDomains []string, currentProjectID uuid.UUID) (*services.DuplicateCheckResult, error) {
	f.gotDomains = candidateDomains
	return &services.DuplicateCheckResult{NewDomains: candidateDomains}, nil
}

func (f *fakeDuplicateService) ResolveAndCreate(ctx context.Context, clientID, projectID, resolvedBy uuid.UUID, candidates []services.CandidateDomain, resolutions map[string]types.DuplicateResolution) (*services.ResolveResult, error) {
	return &services.ResolveResult{}, nil
}

func newDuplicateRouter(fake *fakeDuplicateService) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewDomainHandler(logger.NewNop(), nil, fake)
	r := gin.New()
	r.POST("/api/domains/check-duplicates", h.CheckDuplicates)
	return r
}

func TestCheckDuplicatesParsesRawInput(t *testing.T) {
	fake := &fakeDuplicateService{}
	r := newDuplicateRouter(fake)

	body := `{
		"client_id": "` + uuid.NewString() + `",
		"project_id": "` + uuid.NewString() + `",
		"domains": ["listed.com"],
		"domains_raw": "Example.com, www.example.com/\nhttps://other.net"
	}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/domains/check-duplicates", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	want := []string{"listed.com", "example.com", "other.net"}
	if len(fake.gotDomains) != len(want) {
		t.Fatalf("service saw %v, want %v", fake.gotDomains, want)
	}
	for i := range want {
		if fake.gotDomains[i] != want[i] {
			t.Fatalf("service saw %v, want %v", fake.gotDomains, want)
		}
	}
}

func TestCheckDuplicatesRejectsEmptyInput(t *testing.T) {
	fake := &fakeDuplicateService{}
	r := newDuplicateRouter(fake)

	body := `{
		"client_id": "` + uuid.NewString() + `",
		"project_id": "` + uuid.NewString() + `",
		"domains_raw": "   "
	}`
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/domains/check-duplicates", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status=%d body=%s", rec.Code, rec.Body.String())
	}
	if fake.gotDomains != nil {
		t.Fatalf("service should not have been called, saw %v", fake.gotDomains)
	}
}
