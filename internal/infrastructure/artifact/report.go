package artifact

import (
	"context"
	"time"

	"github.com/bibbank/creditrisk/internal/infrastructure/onnx"
	"github.com/bibbank/creditrisk/internal/infrastructure/preprocessing"
	"github.com/bibbank/creditrisk/internal/infrastructure/xgboost"
)

// Report describes loaded artifacts for operators.
type Report struct {
	LoadedAt     time.Time          `json:"loaded_at" yaml:"loaded_at"`
	Schema       *InputSchema       `json:"input_schema,omitempty" yaml:"input_schema,omitempty"`
	Preprocessor PreprocessorReport `json:"preprocessor" yaml:"preprocessor"`
	Model        ModelReport        `json:"model" yaml:"model"`
}

// PreprocessorReport lists the steps and encoded columns.
type PreprocessorReport struct {
	Path            string                   `json:"path" yaml:"path"`
	Steps           []preprocessing.StepInfo `json:"steps" yaml:"steps"`
	InputColumns    []string                 `json:"input_columns" yaml:"input_columns"`
	FeatureNamesOut []string                 `json:"feature_names_out" yaml:"feature_names_out"`
	OutputWidth     int                      `json:"output_width" yaml:"output_width"`
}

// ModelReport shows the classifier after compatibility adaptation.
type ModelReport struct {
	Wrapper          *xgboost.WrapperParams   `json:"wrapper,omitempty" yaml:"wrapper,omitempty"`
	Engine           *xgboost.ExecutionParams `json:"engine,omitempty" yaml:"engine,omitempty"`
	Signature        *onnx.Signature          `json:"signature,omitempty" yaml:"signature,omitempty"`
	Path             string                   `json:"path" yaml:"path"`
	Kind             string                   `json:"kind" yaml:"kind"`
	Version          string                   `json:"format_version,omitempty" yaml:"format_version,omitempty"`
	Objective        string                   `json:"objective,omitempty" yaml:"objective,omitempty"`
	Patches          []xgboost.Patch          `json:"patches,omitempty" yaml:"patches,omitempty"`
	BaseScore        float64                  `json:"base_score,omitempty" yaml:"base_score,omitempty"`
	NumFeature       int                      `json:"num_feature" yaml:"num_feature"`
	NumTrees         int                      `json:"num_trees,omitempty" yaml:"num_trees,omitempty"`
	BoosterAvailable bool                     `json:"booster_available" yaml:"booster_available"`
}

// Inspect loads the artifacts and describes them without keeping them open.
func (s *Store) Inspect(ctx context.Context) (*Report, error) {
	l, err := s.load(ctx)
	if err != nil {
		return nil, err
	}
	if l.graph != nil {
		defer l.graph.Close()
	}

	r := &Report{
		LoadedAt: l.info.LoadedAt,
		Schema:   l.schema,
		Preprocessor: PreprocessorReport{
			Path:            l.info.PreprocessorPath,
			Steps:           l.preprocessor.Steps(),
			InputColumns:    l.preprocessor.InputColumns(),
			FeatureNamesOut: l.preprocessor.FeatureNamesOut(),
			OutputWidth:     l.preprocessor.OutputWidth(),
		},
		Model: ModelReport{
			Path: l.info.ClassifierPath,
			Kind: l.info.ClassifierKind,
		},
	}

	if m := l.tree; m != nil {
		wrapper, engine := m.Wrapper, m.Engine
		r.Model.Wrapper = &wrapper
		r.Model.Engine = &engine
		r.Model.Version = m.Version.String()
		r.Model.Objective = m.Objective
		r.Model.Patches = m.Patches
		r.Model.BaseScore = m.BaseScore
		r.Model.NumFeature = m.NumFeature
		r.Model.NumTrees = len(m.Trees)
		r.Model.BoosterAvailable = !s.cfg.ForceWrapper
	}
	if g := l.graph; g != nil {
		sig := g.Signature()
		r.Model.Signature = &sig
		r.Model.NumFeature = sig.NumFeature
	}
	return r, nil
}
