package dto

import (
	"strings"

	"github.com/google/uuid"

	"github.com/bibbank/creditrisk/internal/domain/model"
)

// RationaleSeparator joins rationale tags into the single response string.
const RationaleSeparator = ", "

// AssessmentResponse is the output DTO of an inference.
type AssessmentResponse struct {
	RationaleTags  []string  `json:"rationale_tags"`
	Probability    float64   `json:"probability"`
	ID             uuid.UUID `json:"assessment_id"`
	Message        string    `json:"message"`
	RiskLevel      string    `json:"risk_level"`
	Recommendation string    `json:"recommendation"`
	Rationale      string    `json:"rationale"`
	ScoringPath    string    `json:"scoring_path"`
	Prediction     int       `json:"prediction"`
}

// ExplainRequest asks for the rationale of a record at a given probability.
type ExplainRequest struct {
	Features    map[string]any `json:"features"`
	Probability float64        `json:"probability"`
}

// ExplainResponse carries the rationale tags for an ExplainRequest.
type ExplainResponse struct {
	RationaleTags []string `json:"rationale_tags"`
	Rationale     string   `json:"rationale"`
}

// FromModel maps a domain model to the response DTO.
func FromModel(a *model.Assessment) AssessmentResponse {
	tags := a.Rationale()
	return AssessmentResponse{
		ID:             a.ID(),
		Prediction:     a.Label(),
		Probability:    a.Probability().Float64(),
		Message:        a.Message(),
		RiskLevel:      a.RiskLevel().String(),
		Recommendation: a.Recommendation().String(),
		RationaleTags:  tags,
		Rationale:      JoinRationale(tags),
		ScoringPath:    string(a.Path()),
	}
}

// JoinRationale renders tags the way the public API returns them.
func JoinRationale(tags []string) string {
	return strings.Join(tags, RationaleSeparator)
}
