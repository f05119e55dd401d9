package model

import (
	"errors"
	"fmt"
)

// ErrNotReady is returned when inference is requested before a valid set of
// artifacts has been loaded.
var ErrNotReady = errors.New("models not loaded")

// ErrUnexpected marks a failure that escaped stage-level classification.
var ErrUnexpected = errors.New("unexpected inference failure")

// PreprocessingError reports that the feature transformer rejected a record.
// It is a client data fault.
type PreprocessingError struct {
	Err error
}

func (e *PreprocessingError) Error() string {
	return fmt.Sprintf("data preprocessing failed: %v", e.Err)
}

func (e *PreprocessingError) Unwrap() error { return e.Err }

// PredictionError reports that scoring failed after successful preprocessing.
// It is a server fault.
type PredictionError struct {
	Path ScoringPath
	Err  error
}

func (e *PredictionError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("prediction failed: %v", e.Err)
	}
	return fmt.Sprintf("prediction failed (%s path): %v", e.Path, e.Err)
}

func (e *PredictionError) Unwrap() error { return e.Err }

// Outcome classifies err for metrics and logs.
func Outcome(err error) string {
	var (
		pre  *PreprocessingError
		pred *PredictionError
	)
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, ErrNotReady):
		return "not_ready"
	case errors.As(err, &pre):
		return "preprocessing_error"
	case errors.As(err, &pred):
		return "prediction_error"
	default:
		return "internal_error"
	}
}
