package service

import (
	"errors"
	"time"

	"github.com/bibbank/creditrisk/internal/domain/port"
)

// ArtifactInfo describes where a set of artifacts came from.
type ArtifactInfo struct {
	PreprocessorPath string
	ClassifierPath   string
	ClassifierKind   string
	LoadedAt         time.Time
}

// Artifacts is the fitted preprocessor and classifier pair. It is built once
// at startup and shared read-only by every request; there is no way to swap
// its contents after construction.
type Artifacts struct {
	preprocessor port.Preprocessor
	classifier   port.Classifier
	info         ArtifactInfo
}

// NewArtifacts pairs a preprocessor with a classifier. Both are required.
func NewArtifacts(preprocessor port.Preprocessor, classifier port.Classifier, info ArtifactInfo) (*Artifacts, error) {
	if preprocessor == nil {
		return nil, errors.New("preprocessor is required")
	}
	if classifier == nil {
		return nil, errors.New("classifier is required")
	}
	return &Artifacts{preprocessor: preprocessor, classifier: classifier, info: info}, nil
}

func (a *Artifacts) Preprocessor() port.Preprocessor { return a.preprocessor }
func (a *Artifacts) Classifier() port.Classifier { return a.classifier }
func (a *Artifacts) Info() ArtifactInfo { return a.info }
