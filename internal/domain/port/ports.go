package port

import (
	"context"
	"time"

	"gonum.org/v1/gonum/mat"

	"github.com/bibbank/creditrisk/internal/domain/model"
	"github.com/bibbank/creditrisk/pkg/events"
)

// Preprocessor is a fitted feature pipeline.
type Preprocessor interface {
	// Transform encodes one record as a 1xN matrix.
	Transform(record model.FeatureRecord) (*mat.Dense, error)

	// OutputWidth is N, fixed once the preprocessor is fitted.
	OutputWidth() int
}

// Classifier is the high-level binary classifier API.
type Classifier interface {
	// Predict returns one class label per row.
	Predict(x mat.Matrix) ([]int, error)

	// PredictProba returns an Rx2 matrix of class probabilities; column 1 is
	// the positive class.
	PredictProba(x mat.Matrix) (*mat.Dense, error)
}

// JointPredictor is implemented by classifiers that produce labels and
// probabilities from one evaluation. The wrapper path prefers it over
// separate Predict and PredictProba calls.
type JointPredictor interface {
	PredictWithProba(x mat.Matrix) ([]int, *mat.Dense, error)
}

// BoosterProvider is implemented by classifiers that embed a low-level
// scoring engine which can be called directly.
type BoosterProvider interface {
	Booster() (Booster, bool)
}

// Booster scores a single raw feature row. For binary logistic objectives
// the first output is the positive-class probability.
type Booster interface {
	PredictRow(row []float64) ([]float64, error)
}

// EventPublisher defines the port for publishing domain events.
type EventPublisher interface {
	Publish(ctx context.Context, events ...events.DomainEvent) error
}

// InferenceRecorder records per-inference telemetry.
type InferenceRecorder interface {
	RecordInference(ctx context.Context, outcome string, path model.ScoringPath, elapsed time.Duration)
}
