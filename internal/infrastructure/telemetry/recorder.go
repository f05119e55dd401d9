package telemetry

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"github.com/bibbank/creditrisk/internal/domain/model"
	"github.com/bibbank/creditrisk/internal/domain/port"
)

var _ port.InferenceRecorder = (*Recorder)(nil)

// Instrument names. The Prometheus exporter renders them as
// creditrisk_inferences_total and creditrisk_inference_duration_seconds.
const (
	InferencesCounter = "creditrisk.inferences"
	DurationHistogram = "creditrisk.inference.duration"
)

// Recorder counts inferences by outcome and scoring path and records their
// latency.
type Recorder struct {
	inferences metric.Int64Counter
	duration   metric.Float64Histogram
}

// NewRecorder creates the instruments on meter.
func NewRecorder(meter metric.Meter) (*Recorder, error) {
	inferences, err := meter.Int64Counter(InferencesCounter,
		metric.WithDescription("Loan applications scored, by outcome and scoring path."),
		metric.WithUnit("{inference}"),
	)
	if err != nil {
		return nil, fmt.Errorf("inferences counter: %w", err)
	}

	duration, err := meter.Float64Histogram(DurationHistogram,
		metric.WithDescription("Time spent scoring one loan application."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1),
	)
	if err != nil {
		return nil, fmt.Errorf("duration histogram: %w", err)
	}

	return &Recorder{inferences: inferences, duration: duration}, nil
}

// RecordInference implements port.InferenceRecorder.
func (r *Recorder) RecordInference(ctx context.Context, outcome string, path model.ScoringPath, elapsed time.Duration) {
	attrs := metric.WithAttributes(
		attribute.String("outcome", outcome),
		attribute.String("path", string(path)),
	)
	r.inferences.Add(ctx, 1, attrs)
	r.duration.Record(ctx, elapsed.Seconds(), attrs)
}
