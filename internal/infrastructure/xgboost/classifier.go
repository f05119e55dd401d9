package xgboost

import (
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/mat"

	"github.com/bibbank/creditrisk/internal/domain/port"
)

var (
	_ port.Classifier      = (*Classifier)(nil)
	_ port.BoosterProvider = (*Classifier)(nil)
	_ port.Booster         = (*Booster)(nil)
)

// wrapperThreshold is the scikit-learn wrapper's own rule: a row is positive
// only when its probability is strictly above one half.
const wrapperThreshold = 0.5

// Classifier is the high-level wrapper around a Booster.
type Classifier struct {
	model         *Model
	booster       *Booster
	exposeBooster bool
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithoutBooster hides the embedded engine so callers go through
// Predict/PredictProba.
func WithoutBooster() Option {
	return func(c *Classifier) { c.exposeBooster = false }
}

// NewClassifier wraps an adapted model.
func NewClassifier(m *Model, opts ...Option) *Classifier {
	c := &Classifier{
		model:         m,
		booster:       NewBooster(m),
		exposeBooster: true,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Load reads, adapts and wraps the model stored at path.
func Load(path string, logger *slog.Logger, opts ...Option) (*Classifier, error) {
	doc, err := ReadFile(path)
	if err != nil {
		return nil, err
	}
	m, err := Adapt(doc, logger)
	if err != nil {
		return nil, fmt.Errorf("adapt model %s: %w", path, err)
	}
	return NewClassifier(m, opts...), nil
}

// Model returns the adapted model.
func (c *Classifier) Model() *Model { return c.model }

// Booster returns the embedded engine unless it was hidden.
func (c *Classifier) Booster() (port.Booster, bool) {
	if !c.exposeBooster {
		return nil, false
	}
	return c.booster, true
}

// PredictProba returns an Rx2 matrix of [P(0), P(1)] per row.
func (c *Classifier) PredictProba(x mat.Matrix) (*mat.Dense, error) {
	rows, _ := x.Dims()
	out := mat.NewDense(rows, 2, nil)
	for i := range rows {
		p, err := c.booster.PredictRow(mat.Row(nil, i, x))
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i, err)
		}
		out.Set(i, 0, 1-p[0])
		out.Set(i, 1, p[0])
	}
	return out, nil
}

// Predict returns one label per row.
func (c *Classifier) Predict(x mat.Matrix) ([]int, error) {
	proba, err := c.PredictProba(x)
	if err != nil {
		return nil, err
	}
	rows, _ := proba.Dims()
	labels := make([]int, rows)
	for i := range rows {
		if proba.At(i, 1) > wrapperThreshold {
			labels[i] = 1
		}
	}
	return labels, nil
}
