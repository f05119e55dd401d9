package event

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/bibbank/creditrisk/pkg/events"
)

const (
	// EventTypeAssessmentCompleted is emitted for every successful inference.
	EventTypeAssessmentCompleted = "creditrisk.assessment.completed"

	// EventTypeHighRiskDetected is emitted when an application is labelled high risk.
	EventTypeHighRiskDetected = "creditrisk.high_risk.detected"

	aggregateType = "Assessment"
)

// Decision is the scored outcome carried by AssessmentCompleted. Raw applicant
// features other than the loan's amount, intent and grade are not included.
type Decision struct {
	Prediction  int             `json:"prediction"`
	Probability float64         `json:"probability"`
	RiskLevel   string          `json:"risk_level"`
	Rationale   []string        `json:"rationale"`
	ScoringPath string          `json:"scoring_path"`
	LoanAmount  decimal.Decimal `json:"loan_amount"`
	LoanIntent  string          `json:"loan_intent,omitempty"`
	LoanGrade   string          `json:"loan_grade,omitempty"`
}

// AssessmentCompleted is published when an application has been scored.
type AssessmentCompleted struct {
	events.BaseEvent
	Decision
}

// NewAssessmentCompleted creates an AssessmentCompleted for assessmentID.
func NewAssessmentCompleted(assessmentID uuid.UUID, d Decision) AssessmentCompleted {
	return AssessmentCompleted{
		BaseEvent: events.NewBaseEvent(EventTypeAssessmentCompleted, assessmentID, aggregateType),
		Decision:  d,
	}
}

// HighRiskDetected is published alongside AssessmentCompleted when the
// application is labelled high risk, for manual-review queues.
type HighRiskDetected struct {
	events.BaseEvent
	Probability float64         `json:"probability"`
	LoanAmount  decimal.Decimal `json:"loan_amount"`
	Rationale   []string        `json:"rationale"`
}

// NewHighRiskDetected creates a HighRiskDetected for assessmentID.
func NewHighRiskDetected(assessmentID uuid.UUID, probability float64, loanAmount decimal.Decimal, rationale []string) HighRiskDetected {
	return HighRiskDetected{
		BaseEvent:   events.NewBaseEvent(EventTypeHighRiskDetected, assessmentID, aggregateType),
		Probability: probability,
		LoanAmount:  loanAmount,
		Rationale:   rationale,
	}
}
