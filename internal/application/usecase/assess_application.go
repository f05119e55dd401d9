package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/bibbank/creditrisk/internal/application/dto"
	"github.com/bibbank/creditrisk/internal/domain/model"
	"github.com/bibbank/creditrisk/internal/domain/port"
	"github.com/bibbank/creditrisk/internal/domain/service"
)

const tracerName = "github.com/bibbank/creditrisk/internal/application/usecase"

// AssessApplication is the inference use case: raw record in, decision out.
type AssessApplication struct {
	artifacts   *service.Artifacts
	transformer *service.FeatureTransformer
	predictor   *service.Predictor
	rationale   *service.RationaleEngine
	publisher   port.EventPublisher
	recorder    port.InferenceRecorder
	logger      *slog.Logger
	tracer      trace.Tracer
}

// NewAssessApplication creates the use case. A nil artifacts handle yields a
// use case that is not ready and rejects every call with model.ErrNotReady.
// publisher and recorder are optional.
func NewAssessApplication(
	artifacts *service.Artifacts,
	publisher port.EventPublisher,
	recorder port.InferenceRecorder,
	logger *slog.Logger,
) *AssessApplication {
	uc := &AssessApplication{
		artifacts: artifacts,
		rationale: service.NewRationaleEngine(),
		publisher: publisher,
		recorder:  recorder,
		logger:    logger,
		tracer:    otel.Tracer(tracerName),
	}
	if artifacts != nil {
		uc.transformer = service.NewFeatureTransformer(artifacts.Preprocessor())
		uc.predictor = service.NewPredictor(artifacts.Classifier(), logger)
	}
	return uc
}

// Ready reports whether artifacts are loaded.
func (uc *AssessApplication) Ready() bool { return uc.artifacts != nil }

// Artifacts returns the loaded handle, or nil when not ready.
func (uc *AssessApplication) Artifacts() *service.Artifacts { return uc.artifacts }

// Execute scores record. Errors are model.ErrNotReady, *model.PreprocessingError,
// *model.PredictionError or wrap model.ErrUnexpected.
func (uc *AssessApplication) Execute(ctx context.Context, record model.FeatureRecord) (resp dto.AssessmentResponse, err error) {
	if !uc.Ready() {
		return dto.AssessmentResponse{}, model.ErrNotReady
	}

	start := time.Now()
	path := uc.predictor.Path()
	ctx, span := uc.tracer.Start(ctx, "AssessApplication.Execute",
		trace.WithAttributes(attribute.String("scoring.path", string(path))))

	defer func() {
		if r := recover(); r != nil {
			uc.logger.ErrorContext(ctx, "inference panicked",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
			resp, err = dto.AssessmentResponse{}, fmt.Errorf("%w: %v", model.ErrUnexpected, r)
		}

		outcome := model.Outcome(err)
		span.SetAttributes(attribute.String("inference.outcome", outcome))
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()

		if uc.recorder != nil {
			uc.recorder.RecordInference(ctx, outcome, path, time.Since(start))
		}
	}()

	assessment, err := uc.assess(ctx, record)
	if err != nil {
		return dto.AssessmentResponse{}, err
	}

	uc.publish(ctx, assessment)

	uc.logger.InfoContext(ctx, "loan application assessed",
		slog.String("assessment_id", assessment.ID().String()),
		slog.Int("prediction", assessment.Label()),
		slog.Float64("probability", assessment.Probability().Float64()),
		slog.String("scoring_path", string(path)),
	)

	return dto.FromModel(assessment), nil
}

func (uc *AssessApplication) assess(ctx context.Context, record model.FeatureRecord) (*model.Assessment, error) {
	// 1. Encode the raw record.
	_, span := uc.tracer.Start(ctx, "transform")
	x, err := uc.transformer.Transform(record)
	span.End()
	if err != nil {
		uc.logger.WarnContext(ctx, "preprocessing rejected record", slog.String("error", err.Error()))
		return nil, err
	}

	// 2. Score it.
	scoreCtx, span := uc.tracer.Start(ctx, "score")
	result, err := uc.predictor.Score(scoreCtx, x)
	span.End()
	if err != nil {
		return nil, err
	}

	// 3. Explain the decision from the raw inputs.
	_, span = uc.tracer.Start(ctx, "explain")
	result.Rationale = uc.rationale.Explain(record, result.Probability)
	span.End()

	assessment, err := model.NewAssessment(record, result)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrUnexpected, err)
	}
	return assessment, nil
}

// publish sends the assessment's events. Delivery failures are logged only;
// the decision has already been made.
func (uc *AssessApplication) publish(ctx context.Context, assessment *model.Assessment) {
	events := assessment.Drain()
	if uc.publisher == nil || len(events) == 0 {
		return
	}
	if err := uc.publisher.Publish(ctx, events...); err != nil {
		uc.logger.WarnContext(ctx, "failed to publish assessment events",
			slog.String("assessment_id", assessment.ID().String()),
			slog.Int("events", len(events)),
			slog.String("error", err.Error()),
		)
	}
}
