package xgboost

import (
	"fmt"
	"math"
)

// Booster scores raw feature rows by walking every tree. It is the low-level
// engine behind Classifier and is safe for concurrent use.
type Booster struct {
	model      *Model
	baseMargin float32
}

// NewBooster creates a Booster for m.
func NewBooster(m *Model) *Booster {
	return &Booster{
		model:      m,
		baseMargin: float32(math.Log(m.BaseScore / (1 - m.BaseScore))),
	}
}

// Margin returns the untransformed score of row, accumulated in single
// precision.
func (b *Booster) Margin(row []float64) (float64, error) {
	if len(row) != b.model.NumFeature {
		return 0, fmt.Errorf("feature shape mismatch, expected: %d, got %d", b.model.NumFeature, len(row))
	}
	margin := b.baseMargin
	for _, t := range b.model.Trees {
		margin += t.Leaf(row)
	}
	return float64(margin), nil
}

// PredictRow returns the positive-class probability of row as a
// single-element slice.
func (b *Booster) PredictRow(row []float64) ([]float64, error) {
	margin, err := b.Margin(row)
	if err != nil {
		return nil, err
	}
	return []float64{sigmoid(margin)}, nil
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
