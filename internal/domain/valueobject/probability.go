package valueobject

import (
	"fmt"
	"math"
)

// DecisionThreshold is the canonical cut-off: a probability at or above it is
// labelled high risk, on every scoring path.
const DecisionThreshold = 0.5

// Probability is a default probability in the closed interval [0, 1].
type Probability struct {
	value float64
}

// NewProbability validates v.
func NewProbability(v float64) (Probability, error) {
	if math.IsNaN(v) || v < 0 || v > 1 {
		return Probability{}, fmt.Errorf("probability %v outside [0, 1]", v)
	}
	return Probability{value: v}, nil
}

// Float64 returns the raw value.
func (p Probability) Float64() float64 { return p.value }

// Label applies DecisionThreshold.
func (p Probability) Label() int {
	if p.value >= DecisionThreshold {
		return LabelHighRisk
	}
	return LabelLowRisk
}

// Percent formats the value as a percentage with two decimals, e.g. "12.35%".
func (p Probability) Percent() string {
	return fmt.Sprintf("%.2f%%", p.value*100)
}
