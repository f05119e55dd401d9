package xgboost

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
)

// Pinned execution settings. Serving hosts have no accelerator and scoring
// runs one row at a time.
const (
	DeviceCPU     = "cpu"
	PinnedThreads = 1
)

// FormatVersion is the XGBoost release that wrote a model document.
type FormatVersion struct {
	Major, Minor, Patch int
}

func (v FormatVersion) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// ExecutionParams say where and how scoring runs.
type ExecutionParams struct {
	Device     string `json:"device" yaml:"device"`
	TreeMethod string `json:"tree_method,omitempty" yaml:"tree_method,omitempty"`
	Predictor  string `json:"predictor,omitempty" yaml:"predictor,omitempty"`
	NThread    int    `json:"nthread" yaml:"nthread"`
}

// WrapperParams are the scikit-learn wrapper's settings.
type WrapperParams struct {
	ExecutionParams `yaml:",inline"`
	EstimatorType   string `json:"estimator_type,omitempty" yaml:"estimator_type,omitempty"`
	NClasses        int    `json:"n_classes,omitempty" yaml:"n_classes,omitempty"`
	UseLabelEncoder bool   `json:"use_label_encoder" yaml:"use_label_encoder"`
}

// Patch records one compatibility adjustment made while adapting a model.
type Patch struct {
	Name       string            `json:"name" yaml:"name"`
	Overridden map[string]string `json:"overridden,omitempty" yaml:"overridden,omitempty"`
	Error      string            `json:"error,omitempty" yaml:"error,omitempty"`
	Applied    bool              `json:"applied" yaml:"applied"`
}

// Model is the canonical in-memory form of a binary tree ensemble. Wrapper
// and Engine are configured separately and both are pinned to CPU with a
// single thread whatever the document persisted.
type Model struct {
	Objective    string
	FeatureNames []string
	Trees        []Tree
	Patches      []Patch
	Wrapper      WrapperParams
	Engine       ExecutionParams
	Version      FormatVersion
	BaseScore    float64
	NumFeature   int
}

var supportedObjectives = map[string]bool{
	"binary:logistic": true,
	"reg:logistic":    true,
}

// schema lists where a format version persists execution settings.
type schema struct {
	deviceKeys []string
	threadKeys []string
}

var schemas = map[int]schema{
	1: {
		deviceKeys: []string{"gpu_id", "tree_method", "predictor"},
		threadKeys: []string{"n_jobs", "nthread"},
	},
	2: {
		deviceKeys: []string{"device", "tree_method"},
		threadKeys: []string{"n_jobs", "nthread"},
	},
}

func schemaFor(v FormatVersion) schema {
	if v.Major >= 2 {
		return schemas[2]
	}
	return schemas[1]
}

// Adapt maps a decoded document to a Model. Structural problems (unknown
// objective, malformed trees) are errors; a compatibility patch that cannot
// be applied is logged and the pinned defaults stand.
func Adapt(doc *Document, logger *slog.Logger) (*Model, error) {
	if doc == nil {
		return nil, errors.New("model document is nil")
	}

	version, err := versionOf(doc, logger)
	if err != nil {
		return nil, err
	}

	l := doc.Learner
	if !supportedObjectives[l.Objective.Name] {
		return nil, fmt.Errorf("unsupported objective %q", l.Objective.Name)
	}
	if l.GradientBooster.Name != "" && l.GradientBooster.Name != "gbtree" {
		return nil, fmt.Errorf("unsupported booster %q", l.GradientBooster.Name)
	}
	if nc := strings.TrimSpace(l.LearnerModelParam.NumClass); nc != "" && nc != "0" && nc != "1" && nc != "2" {
		return nil, fmt.Errorf("multi-class models are not supported (num_class=%s)", nc)
	}

	baseScore, err := parseBaseScore(l.LearnerModelParam.BaseScore)
	if err != nil {
		return nil, err
	}

	numFeature, err := parseNumFeature(l)
	if err != nil {
		return nil, err
	}

	if len(l.GradientBooster.Model.Trees) == 0 {
		return nil, errors.New("model has no trees")
	}
	trees := make([]Tree, 0, len(l.GradientBooster.Model.Trees))
	for i, td := range l.GradientBooster.Model.Trees {
		tree, err := compileTree(td, numFeature)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		trees = append(trees, tree)
	}

	m := &Model{
		Version:      version,
		Objective:    l.Objective.Name,
		BaseScore:    baseScore,
		NumFeature:   numFeature,
		FeatureNames: l.FeatureNames,
		Trees:        trees,
		Wrapper: WrapperParams{
			ExecutionParams: ExecutionParams{Device: DeviceCPU, NThread: PinnedThreads},
			UseLabelEncoder: false,
		},
		Engine: ExecutionParams{Device: DeviceCPU, NThread: PinnedThreads},
	}

	sk := schemaFor(version)
	patches := []struct {
		name  string
		apply func() (map[string]string, error)
	}{
		{"label_encoder", func() (map[string]string, error) { return patchLabelEncoder(doc, m) }},
		{"wrapper_execution", func() (map[string]string, error) { return patchWrapperExecution(doc, m, sk) }},
		{"engine_execution", func() (map[string]string, error) { return patchEngineExecution(doc, m, sk) }},
	}
	for _, p := range patches {
		overridden, err := p.apply()
		result := Patch{Name: p.name, Overridden: overridden, Applied: err == nil}
		if err != nil {
			result.Error = err.Error()
			logger.Warn("compatibility patch failed, keeping defaults",
				slog.String("patch", p.name),
				slog.String("model_version", version.String()),
				slog.String("error", err.Error()),
			)
		} else if len(overridden) > 0 {
			logger.Info("compatibility patch overrode persisted settings",
				slog.String("patch", p.name),
				slog.Any("overridden", overridden),
			)
		}
		m.Patches = append(m.Patches, result)
	}

	return m, nil
}

func versionOf(doc *Document, logger *slog.Logger) (FormatVersion, error) {
	if len(doc.Version) == 0 {
		logger.Warn("model document has no version, assuming 1.0.0")
		return FormatVersion{Major: 1}, nil
	}
	var v FormatVersion
	parts := []*int{&v.Major, &v.Minor, &v.Patch}
	for i := 0; i < len(doc.Version) && i < len(parts); i++ {
		*parts[i] = doc.Version[i]
	}
	if v.Major < 1 {
		return v, fmt.Errorf("unsupported model format version %s", v)
	}
	return v, nil
}

// parseBaseScore accepts "0.5", "5E-1" and the bracketed "[5E-1]" form.
// An empty value means XGBoost's default of 0.5.
func parseBaseScore(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimSuffix(strings.TrimPrefix(s, "["), "]")
	if s == "" {
		return 0.5, nil
	}
	if strings.Contains(s, ",") {
		return 0, fmt.Errorf("base_score %q has more than one target", raw)
	}
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, fmt.Errorf("base_score %q: %w", raw, err)
	}
	if v <= 0 || v >= 1 {
		return 0, fmt.Errorf("base_score %v outside (0, 1)", v)
	}
	return v, nil
}

func parseNumFeature(l LearnerDocument) (int, error) {
	if s := strings.TrimSpace(l.LearnerModelParam.NumFeature); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return 0, fmt.Errorf("num_feature %q: %w", s, err)
		}
		if n > 0 {
			return n, nil
		}
	}
	if len(l.FeatureNames) > 0 {
		return len(l.FeatureNames), nil
	}

	maxIndex := -1
	for _, td := range l.GradientBooster.Model.Trees {
		for i, idx := range td.SplitIndices {
			if i < len(td.LeftChildren) && td.LeftChildren[i] != -1 && idx > maxIndex {
				maxIndex = idx
			}
		}
	}
	if maxIndex < 0 {
		return 0, errors.New("cannot determine num_feature")
	}
	return maxIndex + 1, nil
}

func sklearnParams(doc *Document) (map[string]any, error) {
	raw, ok := doc.Learner.Attributes["scikit_learn"]
	if !ok || strings.TrimSpace(raw) == "" {
		return map[string]any{}, nil
	}
	var params map[string]any
	if err := json.Unmarshal([]byte(raw), &params); err != nil {
		return nil, fmt.Errorf("scikit_learn attribute: %w", err)
	}
	return params, nil
}

func patchLabelEncoder(doc *Document, m *Model) (map[string]string, error) {
	params, err := sklearnParams(doc)
	if err != nil {
		return nil, err
	}

	if v, ok := params["_estimator_type"].(string); ok {
		m.Wrapper.EstimatorType = v
	}
	if v, ok := params["n_classes_"].(float64); ok {
		m.Wrapper.NClasses = int(v)
	}

	v, ok := params["use_label_encoder"]
	if !ok || v == nil {
		return map[string]string{"use_label_encoder": "<absent>"}, nil
	}
	if b, isBool := v.(bool); isBool && !b {
		return nil, nil
	}
	return map[string]string{"use_label_encoder": fmt.Sprint(v)}, nil
}

func patchWrapperExecution(doc *Document, m *Model, sk schema) (map[string]string, error) {
	params, err := sklearnParams(doc)
	if err != nil {
		return nil, err
	}
	return pin(&m.Wrapper.ExecutionParams, stringify(params), sk), nil
}

func patchEngineExecution(doc *Document, m *Model, sk schema) (map[string]string, error) {
	if doc.Config == nil {
		return nil, nil
	}
	persisted := make(map[string]string)
	for k, v := range doc.Config.Learner.GenericParam {
		persisted[k] = v
	}
	for k, v := range doc.Config.Learner.GradientBooster.GBTreeTrainParam {
		persisted[k] = v
	}
	return pin(&m.Engine, persisted, sk), nil
}

// pin keeps p on CPU with one thread and reports persisted values that would
// have said otherwise. A persisted CPU tree method is kept.
func pin(p *ExecutionParams, persisted map[string]string, sk schema) map[string]string {
	overridden := make(map[string]string)

	for _, key := range sk.deviceKeys {
		v, ok := persisted[key]
		if !ok || v == "" {
			continue
		}
		switch key {
		case "tree_method":
			if strings.HasPrefix(v, "gpu_") {
				overridden[key] = v
				p.TreeMethod = "hist"
			} else {
				p.TreeMethod = v
			}
		case "predictor":
			if v != "cpu_predictor" && v != "auto" {
				overridden[key] = v
			}
			p.Predictor = "cpu_predictor"
		case "gpu_id":
			if v != "-1" {
				overridden[key] = v
			}
		default:
			if v != DeviceCPU {
				overridden[key] = v
			}
		}
	}

	for _, key := range sk.threadKeys {
		if v, ok := persisted[key]; ok && v != "" && v != strconv.Itoa(PinnedThreads) {
			overridden[key] = v
		}
	}

	p.Device = DeviceCPU
	p.NThread = PinnedThreads

	if len(overridden) == 0 {
		return nil
	}
	return overridden
}

func stringify(params map[string]any) map[string]string {
	out := make(map[string]string, len(params))
	for k, v := range params {
		switch t := v.(type) {
		case nil:
		case string:
			out[k] = t
		case float64:
			if t == math.Trunc(t) {
				out[k] = strconv.FormatInt(int64(t), 10)
			} else {
				out[k] = strconv.FormatFloat(t, 'g', -1, 64)
			}
		default:
			out[k] = fmt.Sprint(t)
		}
	}
	return out
}
