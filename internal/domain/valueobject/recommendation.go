package valueobject

// Recommendation is the approval guidance attached to a risk band.
type Recommendation struct {
	value string
}

var (
	RecommendApprove = Recommendation{value: "Recommended for approval."}
	RecommendDecline = Recommendation{value: "Not recommended for approval."}
)

// RecommendationFor returns the guidance for a risk band.
func RecommendationFor(level RiskLevel) Recommendation {
	if level.IsHigh() {
		return RecommendDecline
	}
	return RecommendApprove
}

func (r Recommendation) String() string { return r.value }

// IsApproved reports whether the recommendation is to approve.
func (r Recommendation) IsApproved() bool { return r == RecommendApprove }
