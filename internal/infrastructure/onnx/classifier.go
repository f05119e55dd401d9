package onnx

import (
	"errors"
	"fmt"
	"log/slog"

	ort "github.com/yalue/onnxruntime_go"
	"gonum.org/v1/gonum/mat"

	"github.com/bibbank/creditrisk/internal/domain/port"
)

var (
	_ port.Classifier     = (*Classifier)(nil)
	_ port.JointPredictor = (*Classifier)(nil)
)

// Options configures a Classifier.
type Options struct {
	// LibraryPath locates the onnxruntime shared library.
	LibraryPath string
}

// Signature names the graph's single input and its two outputs.
type Signature struct {
	Input         string `json:"input" yaml:"input"`
	Label         string `json:"label" yaml:"label"`
	Probabilities string `json:"probabilities" yaml:"probabilities"`
	NumFeature    int    `json:"num_feature" yaml:"num_feature"`
}

// Classifier scores through an exported scikit-learn classifier graph
// (input float[N, F] -> label int64[N], probabilities float[N, 2]). It
// exposes no booster, so scoring always goes through the wrapper API.
// Sessions run on the CPU provider with one intra-op and one inter-op thread.
type Classifier struct {
	session   *ort.DynamicAdvancedSession
	signature Signature
}

// Load opens the graph at path.
func Load(path string, opts Options, logger *slog.Logger) (*Classifier, error) {
	if err := InitRuntime(opts.LibraryPath); err != nil {
		return nil, err
	}

	inputs, outputs, err := ort.GetInputOutputInfo(path)
	if err != nil {
		return nil, fmt.Errorf("inspect onnx model %s: %w", path, err)
	}
	sig, err := resolveSignature(inputs, outputs)
	if err != nil {
		return nil, fmt.Errorf("onnx model %s: %w", path, err)
	}

	sessionOpts, err := ort.NewSessionOptions()
	if err != nil {
		return nil, fmt.Errorf("session options: %w", err)
	}
	defer sessionOpts.Destroy()
	if err := sessionOpts.SetIntraOpNumThreads(1); err != nil {
		return nil, fmt.Errorf("set intra-op threads: %w", err)
	}
	if err := sessionOpts.SetInterOpNumThreads(1); err != nil {
		return nil, fmt.Errorf("set inter-op threads: %w", err)
	}

	session, err := ort.NewDynamicAdvancedSession(path,
		[]string{sig.Input}, []string{sig.Label, sig.Probabilities}, sessionOpts)
	if err != nil {
		return nil, fmt.Errorf("create onnx session: %w", err)
	}

	logger.Info("onnx classifier loaded",
		slog.String("path", path),
		slog.String("input", sig.Input),
		slog.Int("num_feature", sig.NumFeature),
	)
	return &Classifier{session: session, signature: sig}, nil
}

// Signature returns the resolved graph signature.
func (c *Classifier) Signature() Signature { return c.signature }

// Close destroys the session.
func (c *Classifier) Close() error {
	if c.session == nil {
		return nil
	}
	err := c.session.Destroy()
	c.session = nil
	return err
}

// Predict returns the graph's label output.
func (c *Classifier) Predict(x mat.Matrix) ([]int, error) {
	labels, _, err := c.run(x)
	return labels, err
}

// PredictProba returns the graph's probability output as an Rx2 matrix.
func (c *Classifier) PredictProba(x mat.Matrix) (*mat.Dense, error) {
	_, proba, err := c.run(x)
	return proba, err
}

// PredictWithProba returns both outputs from a single session run.
func (c *Classifier) PredictWithProba(x mat.Matrix) ([]int, *mat.Dense, error) {
	return c.run(x)
}

func (c *Classifier) run(x mat.Matrix) ([]int, *mat.Dense, error) {
	if c.session == nil {
		return nil, nil, errors.New("onnx session is closed")
	}
	rows, cols := x.Dims()
	if c.signature.NumFeature > 0 && cols != c.signature.NumFeature {
		return nil, nil, fmt.Errorf("feature shape mismatch, expected: %d, got %d", c.signature.NumFeature, cols)
	}

	input, err := ort.NewTensor(ort.NewShape(int64(rows), int64(cols)), toFloat32(x))
	if err != nil {
		return nil, nil, fmt.Errorf("input tensor: %w", err)
	}
	defer input.Destroy()

	outputs := []ort.Value{nil, nil}
	if err := c.session.Run([]ort.Value{input}, outputs); err != nil {
		return nil, nil, fmt.Errorf("onnx run: %w", err)
	}
	defer func() {
		for _, o := range outputs {
			if o != nil {
				o.Destroy()
			}
		}
	}()

	labelTensor, ok := outputs[0].(*ort.Tensor[int64])
	if !ok {
		return nil, nil, fmt.Errorf("label output is %T, want int64 tensor", outputs[0])
	}
	probaTensor, ok := outputs[1].(*ort.Tensor[float32])
	if !ok {
		return nil, nil, fmt.Errorf("probabilities output is %T, want float tensor", outputs[1])
	}

	labels := toLabels(labelTensor.GetData())
	proba, err := toProba(probaTensor.GetData(), rows)
	if err != nil {
		return nil, nil, err
	}
	return labels, proba, nil
}

func resolveSignature(inputs, outputs []ort.InputOutputInfo) (Signature, error) {
	if len(inputs) != 1 {
		return Signature{}, fmt.Errorf("expected 1 input, found %d", len(inputs))
	}
	in := inputs[0]
	if in.OrtValueType != ort.ONNXTypeTensor || in.DataType != ort.TensorElementDataTypeFloat {
		return Signature{}, fmt.Errorf("input %q must be a float tensor", in.Name)
	}

	sig := Signature{Input: in.Name}
	if dims := in.Dimensions; len(dims) == 2 && dims[1] > 0 {
		sig.NumFeature = int(dims[1])
	}

	var nonTensor string
	for _, out := range outputs {
		if out.OrtValueType != ort.ONNXTypeTensor {
			nonTensor = out.Name
			continue
		}
		switch {
		case out.DataType == ort.TensorElementDataTypeInt64 && sig.Label == "":
			sig.Label = out.Name
		case out.DataType == ort.TensorElementDataTypeFloat && sig.Probabilities == "":
			sig.Probabilities = out.Name
		}
	}
	if sig.Probabilities == "" && nonTensor != "" {
		return Signature{}, fmt.Errorf("output %q is not a tensor; export with zipmap disabled", nonTensor)
	}
	if sig.Label == "" || sig.Probabilities == "" {
		return Signature{}, errors.New("graph needs an int64 label output and a float probability tensor output")
	}
	return sig, nil
}

func toFloat32(x mat.Matrix) []float32 {
	rows, cols := x.Dims()
	out := make([]float32, 0, rows*cols)
	for i := range rows {
		for j := range cols {
			out = append(out, float32(x.At(i, j)))
		}
	}
	return out
}

func toLabels(data []int64) []int {
	out := make([]int, len(data))
	for i, v := range data {
		out[i] = int(v)
	}
	return out
}

func toProba(data []float32, rows int) (*mat.Dense, error) {
	if rows == 0 || len(data) != rows*2 {
		return nil, fmt.Errorf("probabilities have %d values for %d rows, want 2 per row", len(data), rows)
	}
	values := make([]float64, len(data))
	for i, v := range data {
		values[i] = float64(v)
	}
	return mat.NewDense(rows, 2, values), nil
}
