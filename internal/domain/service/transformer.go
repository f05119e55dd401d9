package service

import (
	"fmt"

	"gonum.org/v1/gonum/mat"

	"github.com/bibbank/creditrisk/internal/domain/model"
	"github.com/bibbank/creditrisk/internal/domain/port"
)

// FeatureTransformer turns one raw record into the classifier's input row.
// Every failure comes back as *model.PreprocessingError.
type FeatureTransformer struct {
	preprocessor port.Preprocessor
}

// NewFeatureTransformer wraps a fitted preprocessor.
func NewFeatureTransformer(preprocessor port.Preprocessor) *FeatureTransformer {
	return &FeatureTransformer{preprocessor: preprocessor}
}

// Transform encodes record as a 1xN matrix.
func (t *FeatureTransformer) Transform(record model.FeatureRecord) (x *mat.Dense, err error) {
	defer func() {
		if r := recover(); r != nil {
			x, err = nil, &model.PreprocessingError{Err: fmt.Errorf("preprocessor panicked: %v", r)}
		}
	}()

	x, err = t.preprocessor.Transform(record)
	if err != nil {
		return nil, &model.PreprocessingError{Err: err}
	}

	rows, cols := x.Dims()
	if want := t.preprocessor.OutputWidth(); rows != 1 || cols != want {
		return nil, &model.PreprocessingError{
			Err: fmt.Errorf("transformed shape %dx%d, want 1x%d", rows, cols, want),
		}
	}
	return x, nil
}
