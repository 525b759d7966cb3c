// Package scoring evaluates the static logistic loan model shipped as a JSON artifact.
package scoring

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"regexp"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/trustportal/trust-api/internal/models"
)

// NumericFeature is standardized as (v-mean)/std before weighting
type NumericFeature struct {
	Mean        float64 `json:"mean"`
	Std         float64 `json:"std"`
	Weight      float64 `json:"weight"`
	Description string  `json:"description,omitempty"`
}

// CategoricalFeature maps labels to logit contributions
type CategoricalFeature struct {
	Weights     map[string]float64 `json:"weights"`
	Description string             `json:"description,omitempty"`
}

// Thresholds split the approval probability into decisions. ManualReview
// defaults to Approved, which disables the review band.
type Thresholds struct {
	Approved     float64  `json:"approved"`
	ManualReview *float64 `json:"manualReview,omitempty"`
}

// Model is the loan model artifact
type Model struct {
	Version     string                        `json:"version"`
	Bias        float64                       `json:"bias"`
	Numeric     map[string]NumericFeature     `json:"numeric"`
	Categorical map[string]CategoricalFeature `json:"categorical"`
	Thresholds  *Thresholds                   `json:"thresholds"`
}

// Result is the outcome of scoring one application
type Result struct {
	Score          float64                `json:"score"`
	Decision       string                 `json:"decision"`
	FeatureImpacts []models.FeatureImpact `json:"featureImpacts"`
	ModelVersion   string                 `json:"modelVersion"`
}

// ErrInvalidArtifact is returned for artifacts missing required sections
var ErrInvalidArtifact = errors.New("invalid loan model artifact")

// ParseModel decodes and checks an artifact
func ParseModel(data []byte) (*Model, error) {
	var m Model
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArtifact, err)
	}
	switch {
	case m.Version == "":
		return nil, fmt.Errorf("%w: version is required", ErrInvalidArtifact)
	case m.Numeric == nil || m.Categorical == nil:
		return nil, fmt.Errorf("%w: numeric and categorical sections are required", ErrInvalidArtifact)
	case m.Thresholds == nil:
		return nil, fmt.Errorf("%w: thresholds are required", ErrInvalidArtifact)
	}
	return &m, nil
}

// LoadModel reads an artifact from disk
func LoadModel(path string) (*Model, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read loan model %s: %w", path, err)
	}
	return ParseModel(data)
}

// Score evaluates features. Missing or unparseable numeric inputs fall back
// to the feature mean; unknown categorical labels contribute nothing.
func (m *Model) Score(features map[string]any) Result {
	logit := m.Bias
	impacts := make([]models.FeatureImpact, 0, len(m.Numeric)+len(m.Categorical))

	for name, spec := range m.Numeric {
		impact := numericImpact(name, spec, features[name])
		logit += impact.Weight
		impacts = append(impacts, impact)
	}
	for name, spec := range m.Categorical {
		impact := categoricalImpact(name, spec, features[name])
		logit += impact.Weight
		impacts = append(impacts, impact)
	}

	for i := range impacts {
		impacts[i].Weight = round6(impacts[i].Weight)
		impacts[i].NormalizedValue = round6(impacts[i].NormalizedValue)
	}
	sort.SliceStable(impacts, func(i, j int) bool {
		wi, wj := math.Abs(impacts[i].Weight), math.Abs(impacts[j].Weight)
		if wi != wj {
			return wi > wj
		}
		return impacts[i].Feature < impacts[j].Feature
	})

	probability := 1 / (1 + math.Exp(-logit))
	return Result{
		Score:          round6(probability),
		Decision:       m.decide(probability),
		FeatureImpacts: impacts,
		ModelVersion:   m.Version,
	}
}

func (m *Model) decide(p float64) string {
	manualReview := m.Thresholds.Approved
	if m.Thresholds.ManualReview != nil {
		manualReview = *m.Thresholds.ManualReview
	}
	switch {
	case p >= m.Thresholds.Approved:
		return models.LoanDecisionApproved
	case p >= manualReview:
		return models.LoanDecisionManualReview
	}
	return models.LoanDecisionDenied
}

func numericImpact(name string, spec NumericFeature, raw any) models.FeatureImpact {
	value, ok := sanitizeNumber(raw)
	if !ok {
		value = spec.Mean
	}
	normalized := value - spec.Mean
	if spec.Std != 0 {
		normalized /= spec.Std
	}
	return newImpact(name, value, normalized*spec.Weight, normalized, "", !ok)
}

func categoricalImpact(name string, spec CategoricalFeature, raw any) models.FeatureImpact {
	label := "unknown"
	switch v := raw.(type) {
	case nil:
	case string:
		label = strings.TrimSpace(v)
	default:
		label = fmt.Sprint(v)
	}
	weight, known := spec.Weights[label]
	value := 0.0
	if weight != 0 {
		value = 1
	}
	return newImpact(name, value, weight, weight, label, !known)
}

func newImpact(name string, value, contribution, normalized float64, display string, isDefault bool) models.FeatureImpact {
	direction := "positive"
	if contribution < 0 {
		direction = "negative"
	}
	if math.IsNaN(value) || math.IsInf(value, 0) {
		value = 0
	}
	if math.IsNaN(normalized) || math.IsInf(normalized, 0) {
		normalized = 0
	}
	return models.FeatureImpact{
		Feature:         name,
		Value:           value,
		Weight:          contribution,
		Direction:       direction,
		DisplayValue:    display,
		NormalizedValue: normalized,
		IsDefault:       isDefault,
	}
}

var (
	plusSuffix   = regexp.MustCompile(`^\d+\+$`)
	nonNumerical = regexp.MustCompile(`[^\d.-]`)
)

// sanitizeNumber accepts numbers and loosely formatted strings such as
// "$52,000" or "3+"
func sanitizeNumber(raw any) (float64, bool) {
	var f float64
	switch v := raw.(type) {
	case float64:
		f = v
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case json.Number:
		parsed, err := v.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, false
		}
		if plusSuffix.MatchString(s) {
			s = strings.TrimSuffix(s, "+")
		}
		s = nonNumerical.ReplaceAllString(s, "")
		if s == "" {
			return 0, false
		}
		parsed, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

func round6(f float64) float64 {
	return math.Round(f*1e6) / 1e6
}

// Scorer loads the artifact on first use and keeps it. A failed load is
// retried on the next call.
type Scorer struct {
	path  string
	mu    sync.Mutex
	model *Model
}

func NewScorer(path string) *Scorer {
	return &Scorer{path: path}
}

// Model returns the cached model, loading it if needed
func (s *Scorer) Model() (*Model, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.model != nil {
		return s.model, nil
	}
	m, err := LoadModel(s.path)
	if err != nil {
		return nil, err
	}
	s.model = m
	return m, nil
}

// Score evaluates features with the cached model
func (s *Scorer) Score(features map[string]any) (Result, error) {
	m, err := s.Model()
	if err != nil {
		return Result{}, err
	}
	return m.Score(features), nil
}
