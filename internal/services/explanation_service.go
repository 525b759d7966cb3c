package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/trustportal/trust-api/internal/config"
	"github.com/trustportal/trust-api/internal/models"
	"github.com/trustportal/trust-api/pkg/logger"
)

const (
	explanationTopFeatures = 3
	explanationTimeout     = 15 * time.Second
	demoHuggingFaceToken   = "demo-token"
)

// ExplanationRequest carries a scored application into the explainer
type ExplanationRequest struct {
	CustomerID     string
	Decision       string
	Score          float64
	FeatureImpacts []models.FeatureImpact
	ModelVersion   string
}

// ExplanationService turns a score into a customer-facing summary. It asks the
// HuggingFace inference API when a token is configured and falls back to a
// template otherwise.
type ExplanationService struct {
	apiURL string
	token  string
	client *http.Client
}

func NewExplanationService(cfg config.Scoring) *ExplanationService {
	return &ExplanationService{
		apiURL: cfg.HuggingFaceURL,
		token:  cfg.HuggingFaceToken,
		client: &http.Client{Timeout: explanationTimeout},
	}
}

func (s *ExplanationService) enabled() bool {
	return s.token != "" && s.token != demoHuggingFaceToken && s.apiURL != ""
}

// Explain never fails: any problem with the remote model yields the fallback text
func (s *ExplanationService) Explain(ctx context.Context, req ExplanationRequest) string {
	top := topImpacts(req.FeatureImpacts)
	fallback := fallbackExplanation(req.Decision, top)
	if !s.enabled() {
		return fallback
	}

	summary, err := s.summarize(ctx, buildPrompt(req, top))
	if err != nil {
		logger.Warn("Explanation model unavailable, using fallback", "customer_id", req.CustomerID, "error", err)
		return fallback
	}
	if summary == "" {
		return fallback
	}
	return summary
}

type hfRequest struct {
	Inputs string `json:"inputs"`
}

type hfOutput struct {
	SummaryText   *string `json:"summary_text"`
	GeneratedText *string `json:"generated_text"`
}

func (o hfOutput) text() string {
	if o.SummaryText != nil {
		return strings.TrimSpace(*o.SummaryText)
	}
	if o.GeneratedText != nil {
		return strings.TrimSpace(*o.GeneratedText)
	}
	return ""
}

func (s *ExplanationService) summarize(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(hfRequest{Inputs: prompt})
	if err != nil {
		return "", err
	}

	ctx, cancel := context.WithTimeout(ctx, explanationTimeout)
	defer cancel()

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, s.apiURL, bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	httpReq.Header.Set("Authorization", "Bearer "+s.token)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", err
	}
	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("huggingface returned status %d", resp.StatusCode)
	}

	return extractSummary(payload)
}

// extractSummary accepts either a list of outputs or a single output object
func extractSummary(payload []byte) (string, error) {
	trimmed := bytes.TrimSpace(payload)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var outputs []hfOutput
		if err := json.Unmarshal(trimmed, &outputs); err != nil {
			return "", err
		}
		if len(outputs) == 0 {
			return "", nil
		}
		return outputs[0].text(), nil
	}

	var output hfOutput
	if err := json.Unmarshal(trimmed, &output); err != nil {
		return "", err
	}
	return output.text(), nil
}

func topImpacts(impacts []models.FeatureImpact) []models.FeatureImpact {
	top := make([]models.FeatureImpact, 0, explanationTopFeatures)
	for _, impact := range impacts {
		if math.IsNaN(impact.Weight) || math.IsInf(impact.Weight, 0) {
			continue
		}
		top = append(top, impact)
		if len(top) == explanationTopFeatures {
			break
		}
	}
	return top
}

func impactDisplay(impact models.FeatureImpact) string {
	if impact.DisplayValue != "" {
		return impact.DisplayValue
	}
	return strconv.FormatFloat(impact.Value, 'f', -1, 64)
}

func buildPrompt(req ExplanationRequest, top []models.FeatureImpact) string {
	lines := []string{
		"You are an assistant for a banking transparency portal. Produce a concise, customer-friendly explanation of an AI loan decision.",
		"",
		"Decision: " + req.Decision,
		fmt.Sprintf("Approval probability: %.1f%%", req.Score*100),
		"Customer ID: " + req.CustomerID,
		"Model version: " + req.ModelVersion,
		"",
		"Key factors:",
	}
	for i, impact := range top {
		direction := "supporting approval"
		if impact.Weight < 0 {
			direction = "increasing risk"
		}
		lines = append(lines, fmt.Sprintf("%d. %s: %s (%s, impact %.2f)", i+1, impact.Feature, impactDisplay(impact), direction, impact.Weight))
	}
	lines = append(lines,
		"",
		"Guidelines:",
		"- Be clear, empathetic, and avoid technical jargon.",
		"- Reference the factors above in plain language.",
		"- Provide guidance on what could improve the outcome if the decision was negative.",
		"- Limit the response to 3 sentences.",
	)
	return strings.Join(lines, "\n")
}

func fallbackExplanation(decision string, top []models.FeatureImpact) string {
	if len(top) == 0 {
		return "The decision was based on the information provided in your application. " +
			"If anything looks incorrect, please update your details and we will review it again."
	}

	var positive, negative []string
	for _, impact := range top {
		item := fmt.Sprintf("%s (%s)", impact.Feature, impactDisplay(impact))
		if impact.Weight >= 0 {
			positive = append(positive, item)
		} else {
			negative = append(negative, item)
		}
	}

	var segments []string
	if len(negative) > 0 {
		phrase := "led to the denial because"
		switch decision {
		case models.LoanDecisionApproved:
			phrase = "helped approve"
		case models.LoanDecisionManualReview:
			phrase = "triggered a manual review because"
		}
		segments = append(segments, fmt.Sprintf("Key items that %s %s.", phrase, strings.Join(negative, ", ")))
	}
	if len(positive) > 0 {
		segments = append(segments, fmt.Sprintf("Strengths in your application included %s.", strings.Join(positive, ", ")))
	}
	if decision == models.LoanDecisionApproved {
		segments = append(segments, "No further action is required, we will keep you informed about the next steps.")
	} else {
		segments = append(segments, "You may improve your chances by adding more reliable credit history, lowering the requested loan amount, or updating your income information if it has changed.")
	}
	return strings.Join(segments, " ")
}
