package service_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/bibbank/creditrisk/internal/domain/model"
	"github.com/bibbank/creditrisk/internal/domain/service"
)

func TestRationaleEngine_Explain(t *testing.T) {
	tests := []struct {
		name   string
		record model.FeatureRecord
		want   []string
	}{
		{
			name: "all risk drivers",
			record: model.FeatureRecord{
				"loan_percent_income":        0.75,
				"loan_int_rate":              25.0,
				"cb_person_cred_hist_length": 1.0,
				"cb_person_default_on_file":  "Y",
			},
			want: []string{
				service.TagHighLoanToIncome,
				service.TagVeryHighRate,
				service.TagShortHistory,
				service.TagPreviousDefault,
			},
		},
		{
			name: "typical profile",
			record: model.FeatureRecord{
				"loan_percent_income":        0.3,
				"loan_int_rate":              15.0,
				"cb_person_cred_hist_length": 5.0,
				"cb_person_default_on_file":  "N",
			},
			want: []string{service.TagTypicalProfile},
		},
		{
			name: "favorable profile",
			record: model.FeatureRecord{
				"loan_percent_income":        0.1,
				"loan_int_rate":              7.5,
				"cb_person_cred_hist_length": 12,
			},
			want: []string{
				service.TagLowLoanToIncome,
				service.TagFavorableRate,
				service.TagEstablishedHistory,
			},
		},
		{
			name: "boundaries fire nothing",
			record: model.FeatureRecord{
				"loan_percent_income":        0.6,
				"loan_int_rate":              20.0,
				"cb_person_cred_hist_length": 8.0,
			},
			want: []string{service.TagTypicalProfile},
		},
		{
			name: "lower boundaries fire nothing",
			record: model.FeatureRecord{
				"loan_percent_income":        0.2,
				"loan_int_rate":              8.0,
				"cb_person_cred_hist_length": 2.0,
			},
			want: []string{service.TagTypicalProfile},
		},
		{
			name: "numeric strings are compared",
			record: model.FeatureRecord{
				"loan_percent_income":        "0.65",
				"loan_int_rate":              "11",
				"cb_person_cred_hist_length": "4",
				"cb_person_default_on_file":  "y",
			},
			want: []string{service.TagHighLoanToIncome, service.TagPreviousDefault},
		},
		{
			name: "missing field degrades",
			record: model.FeatureRecord{
				"loan_percent_income": 0.75,
				"loan_int_rate":       25.0,
			},
			want: []string{service.TagUnavailable},
		},
		{
			name: "non-numeric field degrades",
			record: model.FeatureRecord{
				"loan_percent_income":        "lots",
				"loan_int_rate":              25.0,
				"cb_person_cred_hist_length": 1.0,
			},
			want: []string{service.TagUnavailable},
		},
		{
			name: "null field degrades",
			record: model.FeatureRecord{
				"loan_percent_income":        0.4,
				"loan_int_rate":              nil,
				"cb_person_cred_hist_length": 1.0,
			},
			want: []string{service.TagUnavailable},
		},
		{
			name: "non-string default flag is ignored",
			record: model.FeatureRecord{
				"loan_percent_income":        0.4,
				"loan_int_rate":              12.0,
				"cb_person_cred_hist_length": 5.0,
				"cb_person_default_on_file":  true,
			},
			want: []string{service.TagTypicalProfile},
		},
	}

	engine := service.NewRationaleEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := engine.Explain(tt.record, 0.5)
			assert.Equal(t, tt.want, got)

			assert.Equal(t, got, engine.Explain(tt.record, 0.01), "probability must not change the result")
		})
	}
}
