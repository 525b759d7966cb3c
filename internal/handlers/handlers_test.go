package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustportal/trust-api/internal/config"
	"github.com/trustportal/trust-api/internal/jobs"
	"github.com/trustportal/trust-api/internal/ledger"
	"github.com/trustportal/trust-api/internal/models"
	"github.com/trustportal/trust-api/internal/repository"
	"github.com/trustportal/trust-api/internal/services"
	"github.com/trustportal/trust-api/internal/storage"
)

const testJWTSecret = "handler-test-secret"

type testServer struct {
	router *gin.Engine
	ledger *ledger.Ledger
	repos  *repository.Repositories
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	cfg := &config.Config{JWTSecret: testJWTSecret}
	cfg.Audit.VerifyStrategy = config.VerifyFull
	cfg.Audit.AppendTimeout = time.Second
	cfg.Scoring.ModelPath = "../../data/artifacts/loan_model.json"

	repos := repository.NewMemoryRepositories()
	l := ledger.New(repos.Audit, ledger.Config{})
	worker := jobs.NewWorker(1)
	t.Cleanup(worker.Shutdown)
	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	svcs := services.NewServices(l, repos, worker, store, cfg, nil)
	router := gin.New()
	NewHandlers(svcs).RegisterRoutes(router.Group("/api/v1"), testJWTSecret)

	return &testServer{router: router, ledger: l, repos: repos}
}

func (s *testServer) do(method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	var reader *bytes.Buffer
	if body != "" {
		reader = bytes.NewBufferString(body)
	} else {
		reader = &bytes.Buffer{}
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) entries(t *testing.T, filter ledger.Filter) []models.AuditEntry {
	t.Helper()
	entries, err := s.ledger.List(context.Background(), filter, ledger.MaxListLimit)
	require.NoError(t, err)
	return entries
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/v1/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"integrity":"unknown"`)
}

func TestConsentFlow(t *testing.T) {
	s := newTestServer(t)
	actor := map[string]string{"X-Actor-Id": "officer-5"}

	w := s.do(http.MethodGet, "/api/v1/consent/CUST-7", "", actor)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"customerId":"CUST-7","consent":{"credit_history":true,"income_data":true,"employment_data":true,"transaction_monitoring":true}}`, w.Body.String())

	w = s.do(http.MethodPut, "/api/v1/consent/CUST-7", `{"consent":{"income_data":false,"credit_history":"nope"}}`, actor)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"customerId":"CUST-7","consent":{"credit_history":true,"income_data":false,"employment_data":true,"transaction_monitoring":true}}`, w.Body.String())

	entries := s.entries(t, ledger.Filter{EntityID: "CUST-7"})
	require.Len(t, entries, 2)
	assert.Equal(t, models.ActionConsentUpdated, entries[0].Action)
	assert.Equal(t, models.ActionConsentViewed, entries[1].Action)
	assert.Equal(t, "officer-5", entries[0].PerformedBy)
}

func TestConsentUpdate_BadRequest(t *testing.T) {
	s := newTestServer(t)

	tests := []struct {
		name string
		body string
	}{
		{name: "empty object", body: `{}`},
		{name: "consent not an object", body: `{"consent":"yes"}`},
		{name: "not json", body: `consent`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(http.MethodPut, "/api/v1/consent/CUST-1", tt.body, nil)
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Contains(t, w.Body.String(), "customerId and consent payload are required")
		})
	}
	assert.Empty(t, s.entries(t, ledger.Filter{}))
}

func TestLoanScore(t *testing.T) {
	s := newTestServer(t)

	body := `{"customerId":"CUST-1","applicationId":"APP-9","features":{"annual_income":"85000","loan_amount":20000,"credit_score":720,"employment_status":"employed"}}`
	w := s.do(http.MethodPost, "/api/v1/loans/score", body, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var decision services.LoanDecision
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &decision))
	assert.Equal(t, "APP-9", decision.ApplicationID)
	assert.Equal(t, "logreg-2024.06-demo", decision.ModelVersion)
	assert.NotEmpty(t, decision.ExplanationSummary)
	assert.NotEmpty(t, decision.FeatureImpacts)

	entries := s.entries(t, ledger.Filter{Action: models.ActionLoanScored})
	require.Len(t, entries, 1)
	assert.Equal(t, models.EntityTypeLoanApplication, entries[0].EntityType)
	assert.Equal(t, "APP-9", entries[0].EntityID)
	assert.Equal(t, models.DefaultActor, entries[0].PerformedBy)

	w = s.do(http.MethodGet, "/api/v1/loans/APP-9", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/v1/loans/APP-missing", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestLoanScore_BadRequest(t *testing.T) {
	s := newTestServer(t)

	for _, body := range []string{`{"customerId":"CUST-1"}`, `{"features":{}}`, `[]`} {
		w := s.do(http.MethodPost, "/api/v1/loans/score", body, nil)
		assert.Equal(t, http.StatusBadRequest, w.Code, body)
		assert.Contains(t, w.Body.String(), "customerId and features are required")
	}
}

func TestAuditIndex(t *testing.T) {
	s := newTestServer(t)
	s.do(http.MethodGet, "/api/v1/consent/CUST-1", "", nil)
	s.do(http.MethodGet, "/api/v1/consent/CUST-2", "", nil)

	w := s.do(http.MethodGet, "/api/v1/audit?entityId=CUST-1&limit=abc", "", map[string]string{"X-Actor-Id": "auditor"})
	require.Equal(t, http.StatusOK, w.Code)

	var view services.AuditLogView
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &view))
	require.Len(t, view.Entries, 1)
	assert.Equal(t, "CUST-1", view.Entries[0].EntityID)
	assert.True(t, view.Integrity.Verified)
	assert.Equal(t, int64(2), view.Integrity.Checked)
	assert.Equal(t, "verified", view.Integrity.State)

	viewed := s.entries(t, ledger.Filter{Action: models.ActionAuditViewed})
	require.Len(t, viewed, 1)
	assert.Equal(t, "auditor", viewed[0].PerformedBy)
	assert.JSONEq(t, `{"filters":{"action":null,"entityId":"CUST-1","entityType":null},"limit":50}`, string(viewed[0].Details))
}

func TestAuditExports(t *testing.T) {
	s := newTestServer(t)
	s.do(http.MethodGet, "/api/v1/consent/CUST-1", "", nil)

	tests := []struct {
		path        string
		contentType string
		format      string
	}{
		{path: "/api/v1/audit/export.xlsx", contentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", format: "xlsx"},
		{path: "/api/v1/audit/export.csv", contentType: "text/csv", format: "csv"},
		{path: "/api/v1/audit/integrity.pdf", contentType: "application/pdf", format: "pdf"},
	}

	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			w := s.do(http.MethodGet, tt.path, "", nil)
			require.Equal(t, http.StatusOK, w.Code)
			assert.Equal(t, tt.contentType, w.Header().Get("Content-Type"))
			assert.Contains(t, w.Header().Get("Content-Disposition"), "attachment; filename=")

			latest := s.entries(t, ledger.Filter{Action: models.ActionAuditExported})
			require.NotEmpty(t, latest)
			assert.Contains(t, string(latest[0].Details), `"format":"`+tt.format+`"`)
		})
	}
}

func TestAuditVerify(t *testing.T) {
	s := newTestServer(t)
	s.do(http.MethodGet, "/api/v1/consent/CUST-1", "", nil)

	w := s.do(http.MethodGet, "/api/v1/audit/verify", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var status services.IntegrityStatus
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.True(t, status.Verified)
	assert.Equal(t, "full", status.Mode)
	assert.Equal(t, ledger.AlgorithmSHA256, status.Algorithm)
}

func TestAuditArchives(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/v1/audit/archives", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"archives":[]}`, w.Body.String())

	w = s.do(http.MethodGet, "/api/v1/audit/archives/archives/2026/01/missing.xlsx", "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestJobs(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/v1/jobs/status", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var stats jobs.WorkerStats
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 10, stats.MaxConcurrent)

	w = s.do(http.MethodPost, "/api/v1/jobs/verify", "", nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.Contains(t, w.Body.String(), `"job":"audit-full-verify"`)
}

func TestInvalidBearerIsRejected(t *testing.T) {
	s := newTestServer(t)

	w := s.do(http.MethodGet, "/api/v1/consent/CUST-1", "", map[string]string{"Authorization": "Bearer not-a-jwt"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Empty(t, s.entries(t, ledger.Filter{}))
}

func TestParseLimit(t *testing.T) {
	tests := map[string]int{
		"":       50,
		"abc":    50,
		"0":      50,
		"-3":     50,
		"NaN":    50,
		"10":     10,
		"12.7":   12,
		"999":    200,
		"Inf":    200,
		"1e309":  200,
		"-1e309": 50,
		"-Inf":   50,
	}
	for raw, want := range tests {
		assert.Equal(t, want, parseLimit(raw), raw)
	}
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, statusFor(&ledger.ValidationError{Field: "action", Reason: "bad"}))
	assert.Equal(t, http.StatusBadRequest, statusFor(services.ErrInvalidInput))
	assert.Equal(t, http.StatusNotFound, statusFor(services.ErrNotFound))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(ledger.ErrStorage))
	assert.Equal(t, http.StatusServiceUnavailable, statusFor(services.ErrUnavailable))
	assert.Equal(t, http.StatusInternalServerError, statusFor(assert.AnError))
}
