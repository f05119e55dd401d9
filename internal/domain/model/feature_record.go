package model

import (
	"encoding/json"
	"maps"
	"math"
	"strconv"
	"strings"
)

// Feature names of a loan application.
const (
	FeaturePersonAge           = "person_age"
	FeaturePersonIncome        = "person_income"
	FeaturePersonEmpLength     = "person_emp_length"
	FeatureLoanAmount          = "loan_amnt"
	FeatureLoanIntRate         = "loan_int_rate"
	FeatureLoanPercentIncome   = "loan_percent_income"
	FeatureCreditHistoryLength = "cb_person_cred_hist_length"
	FeatureHomeOwnership       = "person_home_ownership"
	FeatureLoanIntent          = "loan_intent"
	FeatureLoanGrade           = "loan_grade"
	FeatureDefaultOnFile       = "cb_person_default_on_file"
)

// NumericFeatures and CategoricalFeatures list the application schema in
// training column order.
var (
	NumericFeatures = []string{
		FeaturePersonAge,
		FeaturePersonIncome,
		FeaturePersonEmpLength,
		FeatureLoanAmount,
		FeatureLoanIntRate,
		FeatureLoanPercentIncome,
		FeatureCreditHistoryLength,
	}
	CategoricalFeatures = []string{
		FeatureHomeOwnership,
		FeatureLoanIntent,
		FeatureLoanGrade,
		FeatureDefaultOnFile,
	}
)

// FeatureRecord is one raw loan application keyed by feature name. Values are
// whatever the caller sent: numbers, strings, bools or nil.
type FeatureRecord map[string]any

// NewFeatureRecord copies m so later changes by the caller are not observed.
func NewFeatureRecord(m map[string]any) FeatureRecord {
	return FeatureRecord(maps.Clone(m))
}

// Has reports whether name is present, even with a null value.
func (r FeatureRecord) Has(name string) bool {
	_, ok := r[name]
	return ok
}

// Number returns the named value as a finite float64. Numeric strings are
// parsed; bools, nulls and everything else are not numbers.
func (r FeatureRecord) Number(name string) (float64, bool) {
	v, ok := r[name]
	if !ok {
		return 0, false
	}

	var f float64
	switch n := v.(type) {
	case float64:
		f = n
	case float32:
		f = float64(n)
	case int:
		f = float64(n)
	case int32:
		f = float64(n)
	case int64:
		f = float64(n)
	case json.Number:
		parsed, err := n.Float64()
		if err != nil {
			return 0, false
		}
		f = parsed
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		if err != nil {
			return 0, false
		}
		f = parsed
	default:
		return 0, false
	}

	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, false
	}
	return f, true
}

// Category returns the named value when it is a string.
func (r FeatureRecord) Category(name string) (string, bool) {
	s, ok := r[name].(string)
	return s, ok
}
