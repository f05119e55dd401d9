package service

import (
	"strings"

	"github.com/bibbank/creditrisk/internal/domain/model"
)

// Rationale tags.
const (
	TagHighLoanToIncome   = "High loan-to-income ratio"
	TagLowLoanToIncome    = "Low loan-to-income ratio"
	TagVeryHighRate       = "Very high interest rate"
	TagFavorableRate      = "Favorable interest rate"
	TagShortHistory       = "Short credit history"
	TagEstablishedHistory = "Established credit history"
	TagPreviousDefault    = "Previous default on file"
	TagTypicalProfile     = "Typical risk profile for provided features"
	TagUnavailable        = "Rationale unavailable"
)

// RationaleEngine explains a decision with fixed thresholds over the raw
// application. It never looks at the model.
type RationaleEngine struct{}

// NewRationaleEngine creates a RationaleEngine.
func NewRationaleEngine() *RationaleEngine {
	return &RationaleEngine{}
}

// Explain returns the matching tags in rule order. If loan_percent_income,
// loan_int_rate or cb_person_cred_hist_length is missing or not a number the
// result is TagUnavailable alone; if no rule matches it is TagTypicalProfile.
// The rules read only the raw record; probability does not change them.
func (e *RationaleEngine) Explain(record model.FeatureRecord, probability float64) []string {
	loanToIncome, okRatio := record.Number(model.FeatureLoanPercentIncome)
	rate, okRate := record.Number(model.FeatureLoanIntRate)
	history, okHistory := record.Number(model.FeatureCreditHistoryLength)
	if !okRatio || !okRate || !okHistory {
		return []string{TagUnavailable}
	}

	var tags []string

	switch {
	case loanToIncome > 0.6:
		tags = append(tags, TagHighLoanToIncome)
	case loanToIncome < 0.2:
		tags = append(tags, TagLowLoanToIncome)
	}

	switch {
	case rate > 20:
		tags = append(tags, TagVeryHighRate)
	case rate < 8:
		tags = append(tags, TagFavorableRate)
	}

	switch {
	case history < 2:
		tags = append(tags, TagShortHistory)
	case history > 8:
		tags = append(tags, TagEstablishedHistory)
	}

	if flag, ok := record.Category(model.FeatureDefaultOnFile); ok && strings.EqualFold(strings.TrimSpace(flag), "Y") {
		tags = append(tags, TagPreviousDefault)
	}

	if len(tags) == 0 {
		return []string{TagTypicalProfile}
	}
	return tags
}
