package xgboost

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Document mirrors XGBoost's JSON model format (Booster.save_model with a
// .json suffix), optionally with the output of Booster.save_config embedded
// under "config". Only the fields scoring needs are decoded.
type Document struct {
	Config  *ConfigDocument `json:"config,omitempty"`
	Learner LearnerDocument `json:"learner"`
	Version []int           `json:"version"`
}

// LearnerDocument is the "learner" object.
type LearnerDocument struct {
	Attributes        map[string]string       `json:"attributes"`
	LearnerModelParam LearnerModelParam       `json:"learner_model_param"`
	Objective         ObjectiveDocument       `json:"objective"`
	FeatureNames      []string                `json:"feature_names"`
	GradientBooster   GradientBoosterDocument `json:"gradient_booster"`
}

// LearnerModelParam holds the learner's string-encoded scalars.
type LearnerModelParam struct {
	BaseScore  string `json:"base_score"`
	NumClass   string `json:"num_class"`
	NumFeature string `json:"num_feature"`
}

// ObjectiveDocument names the training objective.
type ObjectiveDocument struct {
	Name string `json:"name"`
}

// GradientBoosterDocument is the "gradient_booster" object.
type GradientBoosterDocument struct {
	Name  string              `json:"name"`
	Model GBTreeModelDocument `json:"model"`
}

// GBTreeModelDocument holds the trees of a gbtree booster.
type GBTreeModelDocument struct {
	Trees    []TreeDocument `json:"trees"`
	TreeInfo []int          `json:"tree_info"`
}

// TreeDocument is one regression tree in structure-of-arrays form. Leaves
// have a left child of -1 and keep their value in SplitConditions.
type TreeDocument struct {
	LeftChildren    []int     `json:"left_children"`
	RightChildren   []int     `json:"right_children"`
	SplitIndices    []int     `json:"split_indices"`
	SplitConditions []float64 `json:"split_conditions"`
	DefaultLeft     Flags     `json:"default_left"`
	ID              int       `json:"id"`
}

// ConfigDocument is the subset of save_config output carrying execution
// settings persisted with the engine.
type ConfigDocument struct {
	Learner struct {
		GenericParam    map[string]string `json:"generic_param"`
		GradientBooster struct {
			GBTreeTrainParam map[string]string `json:"gbtree_train_param"`
		} `json:"gradient_booster"`
	} `json:"learner"`
}

// Flags decodes a JSON array of either booleans (1.x) or 0/1 integers (2.x).
type Flags []bool

// UnmarshalJSON implements json.Unmarshaler.
func (f *Flags) UnmarshalJSON(data []byte) error {
	var bools []bool
	if err := json.Unmarshal(data, &bools); err == nil {
		*f = bools
		return nil
	}
	var ints []int
	if err := json.Unmarshal(data, &ints); err != nil {
		return fmt.Errorf("default_left: %w", err)
	}
	out := make([]bool, len(ints))
	for i, v := range ints {
		out[i] = v != 0
	}
	*f = out
	return nil
}

// ReadDocument decodes a model document.
func ReadDocument(r io.Reader) (*Document, error) {
	var doc Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode model: %w", err)
	}
	return &doc, nil
}

// ReadFile decodes the model document stored at path.
func ReadFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("open model: %w", err)
	}
	return ReadDocument(bytes.NewReader(data))
}
