package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustportal/trust-api/internal/config"
	"github.com/trustportal/trust-api/internal/models"
)

func sampleImpacts() []models.FeatureImpact {
	return []models.FeatureImpact{
		{Feature: "credit_score", Value: 580, Weight: -1.2, DisplayValue: "580"},
		{Feature: "annual_income", Value: 85000, Weight: 0.8},
		{Feature: "debt_to_income", Value: 0.45, Weight: -0.5, DisplayValue: "45%"},
		{Feature: "dependents", Value: 2, Weight: 0.01},
	}
}

func TestFallbackExplanation(t *testing.T) {
	tests := []struct {
		name     string
		decision string
		impacts  []models.FeatureImpact
		want     string
	}{
		{
			name:     "no impacts",
			decision: models.LoanDecisionDenied,
			want:     "The decision was based on the information provided in your application. If anything looks incorrect, please update your details and we will review it again.",
		},
		{
			name:     "denied",
			decision: models.LoanDecisionDenied,
			impacts:  sampleImpacts(),
			want: "Key items that led to the denial because credit_score (580), debt_to_income (45%). " +
				"Strengths in your application included annual_income (85000). " +
				"You may improve your chances by adding more reliable credit history, lowering the requested loan amount, or updating your income information if it has changed.",
		},
		{
			name:     "manual review",
			decision: models.LoanDecisionManualReview,
			impacts:  sampleImpacts()[:1],
			want: "Key items that triggered a manual review because credit_score (580). " +
				"You may improve your chances by adding more reliable credit history, lowering the requested loan amount, or updating your income information if it has changed.",
		},
		{
			name:     "approved with only strengths",
			decision: models.LoanDecisionApproved,
			impacts:  sampleImpacts()[1:2],
			want: "Strengths in your application included annual_income (85000). " +
				"No further action is required, we will keep you informed about the next steps.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, fallbackExplanation(tt.decision, topImpacts(tt.impacts)))
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	prompt := buildPrompt(ExplanationRequest{
		CustomerID:   "CUST-9",
		Decision:     models.LoanDecisionDenied,
		Score:        0.3127,
		ModelVersion: "v1",
	}, topImpacts(sampleImpacts()))

	assert.Contains(t, prompt, "Approval probability: 31.3%")
	assert.Contains(t, prompt, "1. credit_score: 580 (increasing risk, impact -1.20)")
	assert.Contains(t, prompt, "2. annual_income: 85000 (supporting approval, impact 0.80)")
	assert.NotContains(t, prompt, "dependents")
}

func TestExtractSummary(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    string
		wantErr bool
	}{
		{name: "list summary", payload: `[{"summary_text":" Approved. "}]`, want: "Approved."},
		{name: "list generated", payload: `[{"generated_text":"Denied."}]`, want: "Denied."},
		{name: "object", payload: `{"generated_text":"Review."}`, want: "Review."},
		{name: "empty list", payload: `[]`, want: ""},
		{name: "error object", payload: `{"error":"loading"}`, want: ""},
		{name: "garbage", payload: `<html>`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := extractSummary([]byte(tt.payload))
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestExplanationService_UsesRemoteModel(t *testing.T) {
	var gotAuth string
	var gotBody map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		_ = json.NewDecoder(r.Body).Decode(&gotBody)
		_, _ = w.Write([]byte(`[{"summary_text":"Your strong income helped."}]`))
	}))
	defer server.Close()

	svc := NewExplanationService(config.Scoring{HuggingFaceURL: server.URL, HuggingFaceToken: "hf_secret"})
	got := svc.Explain(context.Background(), ExplanationRequest{Decision: models.LoanDecisionApproved, FeatureImpacts: sampleImpacts()})

	assert.Equal(t, "Your strong income helped.", got)
	assert.Equal(t, "Bearer hf_secret", gotAuth)
	assert.Contains(t, gotBody["inputs"], "Key factors:")
}

func TestExplanationService_FallsBack(t *testing.T) {
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model loading", http.StatusServiceUnavailable)
	}))
	defer failing.Close()

	empty := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"summary_text":"   "}]`))
	}))
	defer empty.Close()

	req := ExplanationRequest{Decision: models.LoanDecisionDenied, FeatureImpacts: sampleImpacts()}
	want := fallbackExplanation(req.Decision, topImpacts(req.FeatureImpacts))

	tests := []struct {
		name string
		cfg  config.Scoring
	}{
		{name: "no token", cfg: config.Scoring{HuggingFaceURL: failing.URL}},
		{name: "demo token", cfg: config.Scoring{HuggingFaceURL: failing.URL, HuggingFaceToken: "demo-token"}},
		{name: "server error", cfg: config.Scoring{HuggingFaceURL: failing.URL, HuggingFaceToken: "hf"}},
		{name: "blank summary", cfg: config.Scoring{HuggingFaceURL: empty.URL, HuggingFaceToken: "hf"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := NewExplanationService(tt.cfg)
			assert.Equal(t, want, svc.Explain(context.Background(), req))
		})
	}
}
