package preprocessing

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Transformer kinds understood by the loader.
const (
	KindStandardScaler = "standard_scaler"
	KindOneHot         = "one_hot"
)

// Unknown-category policies of a one-hot step.
const (
	HandleUnknownIgnore = "ignore"
	HandleUnknownError  = "error"
)

// Document is the on-disk form of a fitted column transformer: numeric
// columns standardized, categorical columns one-hot encoded, everything else
// dropped.
type Document struct {
	Remainder       string         `json:"remainder" yaml:"remainder"`
	Transformers    []StepDocument `json:"transformers" yaml:"transformers"`
	FeatureNamesOut []string       `json:"feature_names_out,omitempty" yaml:"feature_names_out,omitempty"`
	Version         int            `json:"version" yaml:"version"`
}

// StepDocument is one named transformer and the columns it consumes.
type StepDocument struct {
	WithMean      *bool      `json:"with_mean,omitempty" yaml:"with_mean,omitempty"`
	WithStd       *bool      `json:"with_std,omitempty" yaml:"with_std,omitempty"`
	Name          string     `json:"name" yaml:"name"`
	Kind          string     `json:"kind" yaml:"kind"`
	HandleUnknown string     `json:"handle_unknown,omitempty" yaml:"handle_unknown,omitempty"`
	Columns       []string   `json:"columns" yaml:"columns"`
	Mean          []float64  `json:"mean,omitempty" yaml:"mean,omitempty"`
	Scale         []float64  `json:"scale,omitempty" yaml:"scale,omitempty"`
	Categories    [][]string `json:"categories,omitempty" yaml:"categories,omitempty"`
}

// ReadDocument decodes a Document, rejecting unknown fields.
func ReadDocument(r io.Reader) (*Document, error) {
	var doc Document
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode preprocessor: %w", err)
	}
	return &doc, nil
}

// LoadFile reads and compiles the preprocessor stored at path.
func LoadFile(path string) (*ColumnTransformer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open preprocessor: %w", err)
	}
	defer f.Close()

	doc, err := ReadDocument(f)
	if err != nil {
		return nil, err
	}
	return New(doc)
}
