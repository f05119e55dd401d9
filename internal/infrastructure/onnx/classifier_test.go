package onnx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	ort "github.com/yalue/onnxruntime_go"
	"gonum.org/v1/gonum/mat"

	"github.com/bibbank/creditrisk/pkg/observability"
)

func tensorInfo(name string, dtype ort.TensorElementDataType, dims ...int64) ort.InputOutputInfo {
	return ort.InputOutputInfo{
		Name:         name,
		OrtValueType: ort.ONNXTypeTensor,
		DataType:     dtype,
		Dimensions:   ort.NewShape(dims...),
	}
}

func TestResolveSignature(t *testing.T) {
	floatInput := []ort.InputOutputInfo{tensorInfo("input", ort.TensorElementDataTypeFloat, -1, 26)}

	tests := []struct {
		name    string
		inputs  []ort.InputOutputInfo
		outputs []ort.InputOutputInfo
		want    Signature
		wantErr string
	}{
		{
			name:   "skl2onnx classifier",
			inputs: floatInput,
			outputs: []ort.InputOutputInfo{
				tensorInfo("label", ort.TensorElementDataTypeInt64, -1),
				tensorInfo("probabilities", ort.TensorElementDataTypeFloat, -1, 2),
			},
			want: Signature{Input: "input", Label: "label", Probabilities: "probabilities", NumFeature: 26},
		},
		{
			name:   "zipmap output",
			inputs: floatInput,
			outputs: []ort.InputOutputInfo{
				tensorInfo("output_label", ort.TensorElementDataTypeInt64, -1),
				{Name: "output_probability", OrtValueType: ort.ONNXTypeSequence},
			},
			wantErr: `output "output_probability" is not a tensor; export with zipmap disabled`,
		},
		{
			name:    "two inputs",
			inputs:  append(floatInput, tensorInfo("extra", ort.TensorElementDataTypeFloat, 1)),
			wantErr: "expected 1 input, found 2",
		},
		{
			name:    "integer input",
			inputs:  []ort.InputOutputInfo{tensorInfo("input", ort.TensorElementDataTypeInt64, -1, 26)},
			wantErr: `input "input" must be a float tensor`,
		},
		{
			name:   "regressor graph",
			inputs: floatInput,
			outputs: []ort.InputOutputInfo{
				tensorInfo("variable", ort.TensorElementDataTypeFloat, -1, 1),
			},
			wantErr: "graph needs an int64 label output",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig, err := resolveSignature(tt.inputs, tt.outputs)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, sig)
		})
	}
}

func TestTensorConversions(t *testing.T) {
	x := mat.NewDense(2, 2, []float64{0.25, -1, 3, 0})
	assert.Equal(t, []float32{0.25, -1, 3, 0}, toFloat32(x))

	assert.Equal(t, []int{0, 1}, toLabels([]int64{0, 1}))

	proba, err := toProba([]float32{0.75, 0.25, 0.5, 0.5}, 2)
	require.NoError(t, err)
	assert.Equal(t, 0.25, proba.At(0, 1))
	assert.Equal(t, 0.5, proba.At(1, 0))

	_, err = toProba([]float32{1}, 1)
	assert.EqualError(t, err, "probabilities have 1 values for 1 rows, want 2 per row")
}

// TestLoad_Runtime needs a real runtime and model:
// ONNXRUNTIME_LIB=/usr/lib/libonnxruntime.so CREDITRISK_ONNX_MODEL=model/final_xgb_model.onnx go test ./...
func TestLoad_Runtime(t *testing.T) {
	lib, model := os.Getenv("ONNXRUNTIME_LIB"), os.Getenv("CREDITRISK_ONNX_MODEL")
	if lib == "" || model == "" {
		t.Skip("ONNXRUNTIME_LIB and CREDITRISK_ONNX_MODEL not set")
	}

	c, err := Load(model, Options{LibraryPath: lib}, observability.DiscardLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Close() })

	x := mat.NewDense(1, c.Signature().NumFeature, nil)
	proba, err := c.PredictProba(x)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, proba.At(0, 0)+proba.At(0, 1), 1e-5)

	labels, err := c.Predict(x)
	require.NoError(t, err)
	assert.Len(t, labels, 1)
}
