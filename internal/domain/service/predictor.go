package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gonum.org/v1/gonum/mat"

	"github.com/bibbank/creditrisk/internal/domain/model"
	"github.com/bibbank/creditrisk/internal/domain/port"
	"github.com/bibbank/creditrisk/internal/domain/valueobject"
)

// Predictor scores a transformed record. It calls the classifier's embedded
// booster directly when one is available and otherwise falls back to the
// classifier's own Predict/PredictProba.
type Predictor struct {
	classifier port.Classifier
	logger     *slog.Logger
}

// NewPredictor creates a Predictor for classifier.
func NewPredictor(classifier port.Classifier, logger *slog.Logger) *Predictor {
	return &Predictor{classifier: classifier, logger: logger}
}

// Path reports which scoring path Score will take.
func (p *Predictor) Path() model.ScoringPath {
	if _, ok := p.booster(); ok {
		return model.PathBooster
	}
	return model.PathWrapper
}

func (p *Predictor) booster() (port.Booster, bool) {
	provider, ok := p.classifier.(port.BoosterProvider)
	if !ok {
		return nil, false
	}
	return provider.Booster()
}

// Score returns the label and positive-class probability for the single row
// in x. Failures on either path are returned as *model.PredictionError.
func (p *Predictor) Score(ctx context.Context, x *mat.Dense) (result model.ScoredResult, err error) {
	booster, direct := p.booster()
	path := model.PathWrapper
	if direct {
		path = model.PathBooster
	}

	defer func() {
		if r := recover(); r != nil {
			result, err = model.ScoredResult{}, p.fail(ctx, path, fmt.Errorf("scoring panicked: %v", r))
		}
	}()

	if x == nil {
		return model.ScoredResult{}, p.fail(ctx, path, errors.New("no input matrix"))
	}
	if rows, _ := x.Dims(); rows != 1 {
		return model.ScoredResult{}, p.fail(ctx, path, fmt.Errorf("expected 1 row, got %d", rows))
	}

	var probability valueobject.Probability
	if direct {
		probability, err = p.scoreBooster(booster, x)
	} else {
		probability, err = p.scoreWrapper(ctx, x)
	}
	if err != nil {
		return model.ScoredResult{}, p.fail(ctx, path, err)
	}

	return model.ScoredResult{
		Label:       probability.Label(),
		Probability: probability.Float64(),
		Path:        path,
	}, nil
}

func (p *Predictor) scoreBooster(booster port.Booster, x *mat.Dense) (valueobject.Probability, error) {
	out, err := booster.PredictRow(mat.Row(nil, 0, x))
	if err != nil {
		return valueobject.Probability{}, err
	}
	if len(out) == 0 {
		return valueobject.Probability{}, errors.New("booster returned no output")
	}
	return valueobject.NewProbability(out[0])
}

func (p *Predictor) wrapperOutputs(x *mat.Dense) ([]int, *mat.Dense, error) {
	if joint, ok := p.classifier.(port.JointPredictor); ok {
		labels, proba, err := joint.PredictWithProba(x)
		if err != nil {
			return nil, nil, fmt.Errorf("predict: %w", err)
		}
		return labels, proba, nil
	}

	labels, err := p.classifier.Predict(x)
	if err != nil {
		return nil, nil, fmt.Errorf("predict: %w", err)
	}
	proba, err := p.classifier.PredictProba(x)
	if err != nil {
		return nil, nil, fmt.Errorf("predict_proba: %w", err)
	}
	return labels, proba, nil
}

func (p *Predictor) scoreWrapper(ctx context.Context, x *mat.Dense) (valueobject.Probability, error) {
	labels, proba, err := p.wrapperOutputs(x)
	if err != nil {
		return valueobject.Probability{}, err
	}
	if proba == nil {
		return valueobject.Probability{}, errors.New("predict_proba returned no output")
	}
	if rows, cols := proba.Dims(); rows < 1 || cols < 2 {
		return valueobject.Probability{}, fmt.Errorf("predict_proba returned %dx%d, want 1x2", rows, cols)
	}

	probability, err := valueobject.NewProbability(proba.At(0, 1))
	if err != nil {
		return valueobject.Probability{}, err
	}

	if len(labels) == 0 || labels[0] != probability.Label() {
		p.logger.WarnContext(ctx, "classifier label disagrees with decision threshold, using threshold",
			slog.Any("classifier_labels", labels),
			slog.Float64("probability", probability.Float64()),
			slog.Float64("threshold", valueobject.DecisionThreshold),
		)
	}
	return probability, nil
}

func (p *Predictor) fail(ctx context.Context, path model.ScoringPath, err error) error {
	p.logger.ErrorContext(ctx, "prediction failed",
		slog.String("path", string(path)),
		slog.String("error", err.Error()),
	)
	return &model.PredictionError{Path: path, Err: err}
}
