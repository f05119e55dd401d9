package preprocessing

import (
	"errors"
	"fmt"
	"slices"

	"gonum.org/v1/gonum/mat"

	"github.com/bibbank/creditrisk/internal/domain/model"
	"github.com/bibbank/creditrisk/internal/domain/port"
)

var _ port.Preprocessor = (*ColumnTransformer)(nil)

type step interface {
	width() int
	encode(record model.FeatureRecord, dst []float64) error
	featureNames(prefix string) []string
	info() StepInfo
}

// StepInfo describes a compiled step for operators.
type StepInfo struct {
	Name          string     `json:"name" yaml:"name"`
	Kind          string     `json:"kind" yaml:"kind"`
	Columns       []string   `json:"columns" yaml:"columns"`
	Categories    [][]string `json:"categories,omitempty" yaml:"categories,omitempty"`
	HandleUnknown string     `json:"handle_unknown,omitempty" yaml:"handle_unknown,omitempty"`
	OutputWidth   int        `json:"output_width" yaml:"output_width"`
}

// ColumnTransformer is a fitted, read-only feature pipeline. It is safe for
// concurrent use.
type ColumnTransformer struct {
	steps        []step
	names        []string
	featureNames []string
	width        int
}

// New compiles doc into a ColumnTransformer.
func New(doc *Document) (*ColumnTransformer, error) {
	if doc == nil {
		return nil, errors.New("preprocessor document is nil")
	}
	switch doc.Remainder {
	case "", "drop":
	default:
		return nil, fmt.Errorf("unsupported remainder %q", doc.Remainder)
	}
	if len(doc.Transformers) == 0 {
		return nil, errors.New("preprocessor has no transformers")
	}

	ct := &ColumnTransformer{}
	seen := make(map[string]string)
	for i, sd := range doc.Transformers {
		if sd.Name == "" {
			return nil, fmt.Errorf("transformer %d has no name", i)
		}
		for _, col := range sd.Columns {
			if owner, dup := seen[col]; dup {
				return nil, fmt.Errorf("column %q used by both %q and %q", col, owner, sd.Name)
			}
			seen[col] = sd.Name
		}

		s, err := compileStep(sd)
		if err != nil {
			return nil, fmt.Errorf("transformer %q: %w", sd.Name, err)
		}
		ct.steps = append(ct.steps, s)
		ct.names = append(ct.names, sd.Name)
		ct.width += s.width()
	}

	if len(doc.FeatureNamesOut) > 0 {
		if len(doc.FeatureNamesOut) != ct.width {
			return nil, fmt.Errorf("feature_names_out has %d names, transformers produce %d columns",
				len(doc.FeatureNamesOut), ct.width)
		}
		ct.featureNames = slices.Clone(doc.FeatureNamesOut)
	} else {
		for i, s := range ct.steps {
			ct.featureNames = append(ct.featureNames, s.featureNames(ct.names[i])...)
		}
	}

	return ct, nil
}

func compileStep(sd StepDocument) (step, error) {
	if len(sd.Columns) == 0 {
		return nil, errors.New("no columns")
	}
	switch sd.Kind {
	case KindStandardScaler:
		return newStandardScaler(sd)
	case KindOneHot:
		return newOneHotEncoder(sd)
	default:
		return nil, fmt.Errorf("unsupported kind %q", sd.Kind)
	}
}

// Transform encodes record as a 1xN row. Extra keys are ignored.
func (ct *ColumnTransformer) Transform(record model.FeatureRecord) (*mat.Dense, error) {
	row := make([]float64, ct.width)
	offset := 0
	for i, s := range ct.steps {
		w := s.width()
		if err := s.encode(record, row[offset:offset+w]); err != nil {
			return nil, fmt.Errorf("%s: %w", ct.names[i], err)
		}
		offset += w
	}
	return mat.NewDense(1, ct.width, row), nil
}

// OutputWidth is the number of encoded columns.
func (ct *ColumnTransformer) OutputWidth() int { return ct.width }

// FeatureNamesOut returns the encoded column names in output order.
func (ct *ColumnTransformer) FeatureNamesOut() []string { return slices.Clone(ct.featureNames) }

// InputColumns returns every raw column consumed, in step order.
func (ct *ColumnTransformer) InputColumns() []string {
	var cols []string
	for _, s := range ct.steps {
		cols = append(cols, s.info().Columns...)
	}
	return cols
}

// Steps describes each compiled step.
func (ct *ColumnTransformer) Steps() []StepInfo {
	out := make([]StepInfo, len(ct.steps))
	for i, s := range ct.steps {
		out[i] = s.info()
	}
	return out
}
