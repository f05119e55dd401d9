package valueobject

import "fmt"

// Predicted class labels. The positive class is a likely default.
const (
	LabelLowRisk  = 0
	LabelHighRisk = 1
)

// RiskLevel is an immutable value object for the customer-facing risk band.
type RiskLevel struct {
	value string
}

var (
	RiskLevelLow  = RiskLevel{value: "Low Risk"}
	RiskLevelHigh = RiskLevel{value: "High Risk"}
)

// RiskLevelFromString reconstructs a RiskLevel from its string representation.
func RiskLevelFromString(s string) (RiskLevel, error) {
	switch s {
	case RiskLevelLow.value:
		return RiskLevelLow, nil
	case RiskLevelHigh.value:
		return RiskLevelHigh, nil
	default:
		return RiskLevel{}, fmt.Errorf("invalid risk level: %q", s)
	}
}

// RiskLevelFromLabel maps a predicted class label to its risk band.
func RiskLevelFromLabel(label int) (RiskLevel, error) {
	switch label {
	case LabelLowRisk:
		return RiskLevelLow, nil
	case LabelHighRisk:
		return RiskLevelHigh, nil
	default:
		return RiskLevel{}, fmt.Errorf("invalid label %d: must be 0 or 1", label)
	}
}

// String returns the string representation.
func (r RiskLevel) String() string {
	return r.value
}

// IsHigh reports whether this is the high-risk band.
func (r RiskLevel) IsHigh() bool {
	return r == RiskLevelHigh
}

// IsZero returns true if the RiskLevel has not been set.
func (r RiskLevel) IsZero() bool {
	return r.value == ""
}

// Equal checks equality with another RiskLevel.
func (r RiskLevel) Equal(other RiskLevel) bool {
	return r.value == other.value
}
