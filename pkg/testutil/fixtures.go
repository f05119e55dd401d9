package testutil

import (
	"encoding/json"
	"maps"
	"os"
	"path/filepath"
	"testing"
)

// LowRiskApplicant is a complete loan application with no risk drivers.
var LowRiskApplicant = map[string]any{
	"person_age":                 35,
	"person_income":              85000,
	"person_emp_length":          9,
	"loan_amnt":                  12000,
	"loan_int_rate":              11.5,
	"loan_percent_income":        0.3,
	"cb_person_cred_hist_length": 5,
	"person_home_ownership":      "MORTGAGE",
	"loan_intent":                "HOMEIMPROVEMENT",
	"loan_grade":                 "B",
	"cb_person_default_on_file":  "N",
}

// HighRiskApplicant trips every rationale rule on the high-risk side.
var HighRiskApplicant = map[string]any{
	"person_age":                 22,
	"person_income":              18000,
	"person_emp_length":          0,
	"loan_amnt":                  13500,
	"loan_int_rate":              25.0,
	"loan_percent_income":        0.75,
	"cb_person_cred_hist_length": 1,
	"person_home_ownership":      "RENT",
	"loan_intent":                "VENTURE",
	"loan_grade":                 "F",
	"cb_person_default_on_file":  "Y",
}

// Applicant returns a copy of base with overrides applied. A nil override
// value deletes the key.
func Applicant(base map[string]any, overrides map[string]any) map[string]any {
	out := maps.Clone(base)
	for k, v := range overrides {
		if v == nil {
			delete(out, k)
			continue
		}
		out[k] = v
	}
	return out
}

// WriteJSON marshals v into dir/name and returns the full path.
func WriteJSON(t *testing.T, dir, name string, v any) string {
	t.Helper()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		t.Fatalf("marshal %s: %v", name, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}
