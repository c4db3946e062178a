package scoring

import "github.com/gdugdh24/mpit2026-matching/internal/domain"

const (
	ReasonMutualInterest = "you are looking for each other"
	ReasonSimilarAge     = "fits your age preference"
	ReasonNearby         = "lives nearby"
	ReasonSamePlaces     = "likes the same places"
	ReasonLifestyle      = "shares your lifestyle"
)

func recommendations(s domain.CompatibilityScore) []string {
	reasons := []string{}

	if s.MutualStatus >= 1 {
		reasons = append(reasons, ReasonMutualInterest)
	}
	if s.Age >= 0.8 {
		reasons = append(reasons, ReasonSimilarAge)
	}
	if s.Distance >= 0.8 {
		reasons = append(reasons, ReasonNearby)
	}
	if s.Location >= 0.3 {
		reasons = append(reasons, ReasonSamePlaces)
	}
	if s.Lifestyle >= 0.85 {
		reasons = append(reasons, ReasonLifestyle)
	}

	return reasons
}
