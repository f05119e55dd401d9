package model

import (
	"fmt"
	"slices"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bibbank/creditrisk/internal/domain/event"
	"github.com/bibbank/creditrisk/internal/domain/valueobject"
	"github.com/bibbank/creditrisk/pkg/events"
)

// Assessment is the aggregate produced by one inference: the decision, its
// customer-facing wording and the rationale behind it.
type Assessment struct {
	events.EventCollector

	id             uuid.UUID
	label          int
	probability    valueobject.Probability
	riskLevel      valueobject.RiskLevel
	recommendation valueobject.Recommendation
	rationale      []string
	path           ScoringPath
}

// NewAssessment builds an Assessment from a scored record and raises its
// domain events.
func NewAssessment(record FeatureRecord, result ScoredResult) (*Assessment, error) {
	probability, err := valueobject.NewProbability(result.Probability)
	if err != nil {
		return nil, err
	}
	level, err := valueobject.RiskLevelFromLabel(result.Label)
	if err != nil {
		return nil, err
	}

	a := &Assessment{
		id:             uuid.New(),
		label:          result.Label,
		probability:    probability,
		riskLevel:      level,
		recommendation: valueobject.RecommendationFor(level),
		rationale:      slices.Clone(result.Rationale),
		path:           result.Path,
	}

	loanAmount := decimal.Zero
	if amount, ok := record.Number(FeatureLoanAmount); ok {
		loanAmount = decimal.NewFromFloat(amount).Round(2)
	}
	intent, _ := record.Category(FeatureLoanIntent)
	grade, _ := record.Category(FeatureLoanGrade)

	a.Record(event.NewAssessmentCompleted(a.id, event.Decision{
		Prediction:  a.label,
		Probability: probability.Float64(),
		RiskLevel:   level.String(),
		Rationale:   a.Rationale(),
		ScoringPath: string(a.path),
		LoanAmount:  loanAmount,
		LoanIntent:  intent,
		LoanGrade:   grade,
	}))
	if level.IsHigh() {
		a.Record(event.NewHighRiskDetected(a.id, probability.Float64(), loanAmount, a.Rationale()))
	}

	return a, nil
}

func (a *Assessment) ID() uuid.UUID { return a.id }
func (a *Assessment) Label() int { return a.label }
func (a *Assessment) Probability() valueobject.Probability { return a.probability }
func (a *Assessment) RiskLevel() valueobject.RiskLevel { return a.riskLevel }
func (a *Assessment) Recommendation() valueobject.Recommendation { return a.recommendation }
func (a *Assessment) Path() ScoringPath { return a.path }

// Rationale returns a copy of the rationale tags.
func (a *Assessment) Rationale() []string { return slices.Clone(a.rationale) }

// Message is the customer-facing summary, for example
// "Low Risk: This loan application has a 12.35% probability of default. Recommended for approval."
func (a *Assessment) Message() string {
	return fmt.Sprintf("%s: This loan application has a %s probability of default. %s",
		a.riskLevel, a.probability.Percent(), a.recommendation)
}
