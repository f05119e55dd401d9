package service_test

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/bibbank/creditrisk/internal/domain/model"
	"github.com/bibbank/creditrisk/internal/domain/port"
)

type stubPreprocessor struct {
	width int
	row   []float64
	err   error
	panic any
}

func (s *stubPreprocessor) Transform(model.FeatureRecord) (*mat.Dense, error) {
	if s.panic != nil {
		panic(s.panic)
	}
	if s.err != nil {
		return nil, s.err
	}
	return mat.NewDense(1, len(s.row), append([]float64(nil), s.row...)), nil
}

func (s *stubPreprocessor) OutputWidth() int { return s.width }

// logisticClassifier scores sigmoid(sum(row)) and optionally exposes itself as
// a booster.
type logisticClassifier struct {
	exposeBooster bool
	labelOverride *int
	predictErr    error
	probaOverride *float64
}

func (c *logisticClassifier) proba(row []float64) float64 {
	if c.probaOverride != nil {
		return *c.probaOverride
	}
	var sum float64
	for _, v := range row {
		sum += v
	}
	return sigmoid(sum)
}

func (c *logisticClassifier) Predict(x mat.Matrix) ([]int, error) {
	if c.predictErr != nil {
		return nil, c.predictErr
	}
	if c.labelOverride != nil {
		return []int{*c.labelOverride}, nil
	}
	p := c.proba(mat.Row(nil, 0, x))
	if p >= 0.5 {
		return []int{1}, nil
	}
	return []int{0}, nil
}

func (c *logisticClassifier) PredictProba(x mat.Matrix) (*mat.Dense, error) {
	if c.predictErr != nil {
		return nil, c.predictErr
	}
	p := c.proba(mat.Row(nil, 0, x))
	return mat.NewDense(1, 2, []float64{1 - p, p}), nil
}

func (c *logisticClassifier) Booster() (port.Booster, bool) {
	if !c.exposeBooster {
		return nil, false
	}
	return boosterFunc(func(row []float64) ([]float64, error) {
		return []float64{c.proba(row)}, nil
	}), true
}

type boosterFunc func([]float64) ([]float64, error)

func (f boosterFunc) PredictRow(row []float64) ([]float64, error) { return f(row) }

type boosterOnly struct {
	logisticClassifier
	booster port.Booster
}

func (b *boosterOnly) Booster() (port.Booster, bool) { return b.booster, true }

// jointClassifier answers labels and probabilities in one call and counts
// how it was asked.
type jointClassifier struct {
	logisticClassifier
	err           error
	jointCalls    int
	separateCalls int
}

func (c *jointClassifier) Predict(x mat.Matrix) ([]int, error) {
	c.separateCalls++
	return c.logisticClassifier.Predict(x)
}

func (c *jointClassifier) PredictProba(x mat.Matrix) (*mat.Dense, error) {
	c.separateCalls++
	return c.logisticClassifier.PredictProba(x)
}

func (c *jointClassifier) PredictWithProba(x mat.Matrix) ([]int, *mat.Dense, error) {
	c.jointCalls++
	if c.err != nil {
		return nil, nil, c.err
	}
	labels, err := c.logisticClassifier.Predict(x)
	if err != nil {
		return nil, nil, err
	}
	proba, err := c.logisticClassifier.PredictProba(x)
	return labels, proba, err
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}

var errStub = errors.New("stub failure")
