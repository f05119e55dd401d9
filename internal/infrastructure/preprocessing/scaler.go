package preprocessing

import (
	"fmt"
	"math"
	"slices"

	"github.com/bibbank/creditrisk/internal/domain/model"
)

type standardScaler struct {
	name    string
	columns []string
	mean    []float64
	scale   []float64
}

func newStandardScaler(sd StepDocument) (*standardScaler, error) {
	n := len(sd.Columns)
	withMean := sd.WithMean == nil || *sd.WithMean
	withStd := sd.WithStd == nil || *sd.WithStd

	s := &standardScaler{
		name:    sd.Name,
		columns: slices.Clone(sd.Columns),
		mean:    make([]float64, n),
		scale:   make([]float64, n),
	}

	if withMean {
		if len(sd.Mean) != n {
			return nil, fmt.Errorf("mean has %d values for %d columns", len(sd.Mean), n)
		}
		copy(s.mean, sd.Mean)
	}

	for i := range s.scale {
		s.scale[i] = 1
	}
	if withStd {
		if len(sd.Scale) != n {
			return nil, fmt.Errorf("scale has %d values for %d columns", len(sd.Scale), n)
		}
		for i, v := range sd.Scale {
			// Constant columns are stored with a zero scale; they pass through centred.
			if v != 0 {
				s.scale[i] = v
			}
		}
	}

	for i := range n {
		if math.IsNaN(s.mean[i]) || math.IsInf(s.mean[i], 0) || math.IsNaN(s.scale[i]) || math.IsInf(s.scale[i], 0) {
			return nil, fmt.Errorf("column %q has non-finite statistics", s.columns[i])
		}
	}
	return s, nil
}

func (s *standardScaler) width() int { return len(s.columns) }

func (s *standardScaler) encode(record model.FeatureRecord, dst []float64) error {
	for i, col := range s.columns {
		v, ok := record.Number(col)
		if !ok {
			if !record.Has(col) {
				return fmt.Errorf("column %q is missing", col)
			}
			return fmt.Errorf("column %q: value %#v is not numeric", col, record[col])
		}
		dst[i] = (v - s.mean[i]) / s.scale[i]
	}
	return nil
}

func (s *standardScaler) featureNames(prefix string) []string {
	out := make([]string, len(s.columns))
	for i, col := range s.columns {
		out[i] = prefix + "__" + col
	}
	return out
}

func (s *standardScaler) info() StepInfo {
	return StepInfo{
		Name:        s.name,
		Kind:        KindStandardScaler,
		Columns:     slices.Clone(s.columns),
		OutputWidth: s.width(),
	}
}
