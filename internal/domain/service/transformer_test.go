package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bibbank/creditrisk/internal/domain/model"
	"github.com/bibbank/creditrisk/internal/domain/service"
)

func TestFeatureTransformer_Transform(t *testing.T) {
	tests := []struct {
		name    string
		pre     *stubPreprocessor
		wantErr string
	}{
		{
			name: "valid row",
			pre:  &stubPreprocessor{width: 3, row: []float64{0.1, -1, 1}},
		},
		{
			name:    "preprocessor error",
			pre:     &stubPreprocessor{width: 3, err: errStub},
			wantErr: "stub failure",
		},
		{
			name:    "preprocessor panic",
			pre:     &stubPreprocessor{width: 3, panic: "boom"},
			wantErr: "preprocessor panicked: boom",
		},
		{
			name:    "width mismatch",
			pre:     &stubPreprocessor{width: 4, row: []float64{0.1, -1, 1}},
			wantErr: "transformed shape 1x3, want 1x4",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			transformer := service.NewFeatureTransformer(tt.pre)

			x, err := transformer.Transform(model.FeatureRecord{})
			if tt.wantErr != "" {
				require.Error(t, err)
				var pre *model.PreprocessingError
				require.ErrorAs(t, err, &pre)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, x)
				return
			}

			require.NoError(t, err)
			rows, cols := x.Dims()
			assert.Equal(t, 1, rows)
			assert.Equal(t, 3, cols)
		})
	}
}
