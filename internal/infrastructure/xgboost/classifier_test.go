package xgboost_test

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"

	"github.com/bibbank/creditrisk/internal/infrastructure/xgboost"
	"github.com/bibbank/creditrisk/pkg/observability"
	"github.com/bibbank/creditrisk/pkg/testutil"
)

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

func loadClassifier(t *testing.T, opts ...xgboost.Option) *xgboost.Classifier {
	t.Helper()
	_, path := testutil.WriteArtifacts(t, t.TempDir())
	c, err := xgboost.Load(path, observability.DiscardLogger(), opts...)
	require.NoError(t, err)
	return c
}

// encoded builds a fixture row from the three scaled columns the trees read
// and the default-on-file flag.
func encoded(lti, rate, hist float64, defaulted bool) []float64 {
	row := make([]float64, testutil.FixtureWidth)
	row[4], row[5], row[6] = rate, lti, hist
	if defaulted {
		row[25] = 1
	} else {
		row[24] = 1
	}
	return row
}

func TestBooster_PredictRow(t *testing.T) {
	c := loadClassifier(t)
	booster, ok := c.Booster()
	require.True(t, ok)

	tests := []struct {
		name   string
		row    []float64
		margin float64
	}{
		{name: "low ratio", row: encoded(0, 0, 0, false), margin: -0.8 - 0.3 - 0.2},
		{name: "high ratio moderate rate", row: encoded(1.2, 0.1, 0, false), margin: 0.4 - 0.3 - 0.2},
		{name: "every driver", row: encoded(5, 4, -1.2, true), margin: 1.6 + 0.9 + 0.5},
		{name: "split value goes right", row: encoded(1.0, 1.0, -0.7, false), margin: 1.6 - 0.3 - 0.2},
		{name: "missing follows default", row: func() []float64 {
			r := encoded(math.NaN(), 0, math.NaN(), false)
			return r
		}(), margin: -0.8 - 0.3 - 0.2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := booster.PredictRow(tt.row)
			require.NoError(t, err)
			require.Len(t, out, 1)
			assert.InDelta(t, sigmoid(tt.margin), out[0], 1e-6)
		})
	}
}

func TestBooster_ShapeMismatch(t *testing.T) {
	c := loadClassifier(t)
	booster, _ := c.Booster()

	_, err := booster.PredictRow(make([]float64, 25))
	assert.EqualError(t, err, "feature shape mismatch, expected: 26, got 25")
}

func TestClassifier_WrapperAPI(t *testing.T) {
	c := loadClassifier(t, xgboost.WithoutBooster())
	_, ok := c.Booster()
	assert.False(t, ok)

	x := mat.NewDense(2, testutil.FixtureWidth, append(encoded(0, 0, 0, false), encoded(5, 4, -1.2, true)...))

	proba, err := c.PredictProba(x)
	require.NoError(t, err)
	rows, cols := proba.Dims()
	assert.Equal(t, 2, rows)
	assert.Equal(t, 2, cols)
	assert.InDelta(t, 1.0, proba.At(0, 0)+proba.At(0, 1), 1e-12)
	assert.InDelta(t, sigmoid(3.0), proba.At(1, 1), 1e-6)

	labels, err := c.Predict(x)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1}, labels)
}

func TestClassifier_WrapperThresholdIsStrict(t *testing.T) {
	doc := testutil.ModelDocument()
	// One stump whose leaves are both zero puts every row exactly on 0.5.
	gb := learner(doc)["gradient_booster"].(map[string]any)
	gb["model"].(map[string]any)["trees"] = []any{map[string]any{
		"left_children":    []int{1, -1, -1},
		"right_children":   []int{2, -1, -1},
		"split_indices":    []int{0, 0, 0},
		"split_conditions": []float64{0, 0, 0},
		"default_left":     []bool{true, false, false},
	}}
	path := testutil.WriteJSON(t, t.TempDir(), "edge.json", doc)

	c, err := xgboost.Load(path, observability.DiscardLogger())
	require.NoError(t, err)

	x := mat.NewDense(1, testutil.FixtureWidth, nil)
	labels, err := c.Predict(x)
	require.NoError(t, err)
	assert.Equal(t, []int{0}, labels)

	proba, err := c.PredictProba(x)
	require.NoError(t, err)
	assert.Equal(t, 0.5, proba.At(0, 1))
}

func TestBooster_SinglePrecisionSplits(t *testing.T) {
	doc := testutil.ModelDocument()
	gb := learner(doc)["gradient_booster"].(map[string]any)
	gb["model"].(map[string]any)["trees"] = []any{map[string]any{
		"left_children":    []int{1, -1, -1},
		"right_children":   []int{2, -1, -1},
		"split_indices":    []int{0, 0, 0},
		"split_conditions": []float64{0.1, -1, 1},
		"default_left":     []bool{true, false, false},
	}}
	path := testutil.WriteJSON(t, t.TempDir(), "stump.json", doc)

	c, err := xgboost.Load(path, observability.DiscardLogger())
	require.NoError(t, err)
	booster, ok := c.Booster()
	require.True(t, ok)

	tests := []struct {
		name    string
		feature float64
		margin  float64
	}{
		{name: "well below split", feature: 0.0999, margin: -1},
		{name: "within one float32 step rounds onto split", feature: 0.0999999999, margin: 1},
		{name: "on split", feature: 0.1, margin: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			row := make([]float64, testutil.FixtureWidth)
			row[0] = tt.feature

			out, err := booster.PredictRow(row)
			require.NoError(t, err)
			assert.InDelta(t, sigmoid(tt.margin), out[0], 1e-6)
		})
	}
}

func TestLoad_Errors(t *testing.T) {
	_, err := xgboost.Load("/nonexistent/model.json", observability.DiscardLogger())
	testutil.AssertErrorContains(t, err, "open model")

	bad := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(bad, []byte("{not json"), 0o600))
	_, err = xgboost.Load(bad, observability.DiscardLogger())
	testutil.AssertErrorContains(t, err, "decode model")
}
