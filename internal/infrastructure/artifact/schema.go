package artifact

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"slices"
)

// InputSchema is the optional training-time record layout saved next to the
// artifacts.
type InputSchema struct {
	Numeric     []string `json:"numerical" yaml:"numerical"`
	Categorical []string `json:"categorical" yaml:"categorical"`
	Target      string   `json:"target,omitempty" yaml:"target,omitempty"`
}

// ReadSchema returns nil, nil when no schema file exists.
func ReadSchema(path string) (*InputSchema, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read input schema: %w", err)
	}
	var schema InputSchema
	if err := json.Unmarshal(data, &schema); err != nil {
		return nil, fmt.Errorf("decode input schema: %w", err)
	}
	return &schema, nil
}

// Columns returns every schema column, numeric first.
func (s *InputSchema) Columns() []string {
	return slices.Concat(s.Numeric, s.Categorical)
}

// Validate checks that the preprocessor consumes exactly the schema columns.
func (s *InputSchema) Validate(consumed []string) error {
	want := slices.Sorted(slices.Values(s.Columns()))
	got := slices.Sorted(slices.Values(consumed))
	if slices.Equal(want, got) {
		return nil
	}

	var missing, extra []string
	for _, c := range want {
		if !slices.Contains(got, c) {
			missing = append(missing, c)
		}
	}
	for _, c := range got {
		if !slices.Contains(want, c) {
			extra = append(extra, c)
		}
	}
	return fmt.Errorf("preprocessor columns differ from schema (not consumed: %v, not in schema: %v)", missing, extra)
}
