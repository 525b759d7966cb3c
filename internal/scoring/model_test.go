package scoring

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trustportal/trust-api/internal/models"
)

const testArtifact = `{
  "version": "test-1",
  "bias": 0,
  "numeric": {
    "x": {"mean": 0, "std": 2, "weight": 1},
    "y": {"mean": 10, "std": 0, "weight": -0.5}
  },
  "categorical": {
    "c": {"weights": {"a": 0.25, "b": -2}}
  },
  "thresholds": {"approved": 0.65, "manualReview": 0.45}
}`

func testModel(t *testing.T) *Model {
	t.Helper()
	m, err := ParseModel([]byte(testArtifact))
	require.NoError(t, err)
	return m
}

func TestScore_ImpactsSortedAndRounded(t *testing.T) {
	result := testModel(t).Score(map[string]any{"x": 3.0, "y": "12", "c": " a "})

	require.Len(t, result.FeatureImpacts, 3)
	assert.Equal(t, []string{"x", "y", "c"}, []string{
		result.FeatureImpacts[0].Feature,
		result.FeatureImpacts[1].Feature,
		result.FeatureImpacts[2].Feature,
	})

	x := result.FeatureImpacts[0]
	assert.Equal(t, 1.5, x.Weight)
	assert.Equal(t, 1.5, x.NormalizedValue)
	assert.Equal(t, "positive", x.Direction)

	y := result.FeatureImpacts[1]
	assert.Equal(t, -1.0, y.Weight)
	assert.Equal(t, 2.0, y.NormalizedValue, "zero std falls back to v-mean")
	assert.Equal(t, "negative", y.Direction)

	c := result.FeatureImpacts[2]
	assert.Equal(t, "a", c.DisplayValue)
	assert.Equal(t, 1.0, c.Value)
	assert.False(t, c.IsDefault)

	assert.Equal(t, 0.679179, result.Score)
	assert.Equal(t, models.LoanDecisionApproved, result.Decision)
	assert.Equal(t, "test-1", result.ModelVersion)
}

func TestScore_MissingInputsUseDefaults(t *testing.T) {
	result := testModel(t).Score(map[string]any{"c": "zzz"})

	for _, impact := range result.FeatureImpacts {
		assert.True(t, impact.IsDefault, impact.Feature)
		assert.Zero(t, impact.Weight, impact.Feature)
	}
	assert.Equal(t, 0.5, result.Score)
	assert.Equal(t, models.LoanDecisionManualReview, result.Decision)
}

func TestScore_Decisions(t *testing.T) {
	m := testModel(t)

	assert.Equal(t, models.LoanDecisionDenied, m.Score(map[string]any{"c": "b"}).Decision)

	m.Thresholds.ManualReview = nil
	assert.Equal(t, models.LoanDecisionDenied, m.Score(map[string]any{}).Decision, "no review band without manualReview")
	assert.Equal(t, models.LoanDecisionApproved, m.Score(map[string]any{"x": 4}).Decision)
}

func TestSanitizeNumber(t *testing.T) {
	tests := []struct {
		in     any
		want   float64
		wantOK bool
	}{
		{42.5, 42.5, true},
		{7, 7, true},
		{json.Number("12"), 12, true},
		{"$52,000", 52000, true},
		{" 3+ ", 3, true},
		{"-4.5", -4.5, true},
		{"", 0, false},
		{"abc", 0, false},
		{"1.2.3", 0, false},
		{nil, 0, false},
		{true, 0, false},
	}
	for _, tt := range tests {
		got, ok := sanitizeNumber(tt.in)
		assert.Equal(t, tt.wantOK, ok, "input %#v", tt.in)
		if tt.wantOK {
			assert.Equal(t, tt.want, got, "input %#v", tt.in)
		}
	}
}

func TestParseModel_Invalid(t *testing.T) {
	tests := []string{
		`not json`,
		`{"bias": 1, "numeric": {}, "categorical": {}, "thresholds": {"approved": 0.5}}`,
		`{"version": "v", "bias": 1, "categorical": {}, "thresholds": {"approved": 0.5}}`,
		`{"version": "v", "bias": 1, "numeric": {}, "categorical": {}}`,
	}
	for _, artifact := range tests {
		_, err := ParseModel([]byte(artifact))
		assert.ErrorIs(t, err, ErrInvalidArtifact, artifact)
	}
}

func TestScorer_LoadsOnceAndRetriesFailures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "model.json")
	s := NewScorer(path)

	_, err := s.Score(map[string]any{})
	require.Error(t, err)

	require.NoError(t, os.WriteFile(path, []byte(testArtifact), 0o600))
	result, err := s.Score(map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, "test-1", result.ModelVersion)

	require.NoError(t, os.Remove(path))
	_, err = s.Score(map[string]any{})
	assert.NoError(t, err, "model stays cached")
}

func TestShippedArtifactLoads(t *testing.T) {
	m, err := LoadModel("../../data/artifacts/loan_model.json")
	require.NoError(t, err)

	result := m.Score(map[string]any{
		"annual_income":     "$95,000",
		"loan_amount":       10000,
		"credit_score":      760,
		"debt_to_income":    0.18,
		"employment_years":  "5+",
		"employment_status": "full_time",
		"home_ownership":    "own",
	})
	assert.Equal(t, models.LoanDecisionApproved, result.Decision)
	assert.Len(t, result.FeatureImpacts, 9)
}
