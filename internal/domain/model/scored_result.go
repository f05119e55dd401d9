package model

// ScoringPath names the code path that produced a score.
type ScoringPath string

const (
	// PathBooster scores through the tree engine embedded in the classifier.
	PathBooster ScoringPath = "booster"
	// PathWrapper scores through the classifier's own predict methods.
	PathWrapper ScoringPath = "wrapper"
)

// ScoredResult is the outcome of scoring one transformed record.
type ScoredResult struct {
	Label       int
	Probability float64
	Path        ScoringPath
	Rationale   []string
}
