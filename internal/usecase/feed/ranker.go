package feed

import (
	"sort"

	"github.com/gdugdh24/mpit2026-matching/internal/domain"
)

// Scorer is the compatibility function the ranker orders by.
type Scorer interface {
	Score(viewer, candidate *domain.Profile) domain.CompatibilityScore
}

// Ranker scores every candidate and orders them by total descending, then by
// profile id. It never drops a candidate.
type Ranker struct {
	scorer Scorer
}

func NewRanker(scorer Scorer) *Ranker {
	return &Ranker{scorer: scorer}
}

func (r *Ranker) Rank(viewer *domain.Profile, candidates []*domain.Profile) []domain.ScoredCandidate {
	scored := make([]domain.ScoredCandidate, 0, len(candidates))
	for _, c := range candidates {
		scored = append(scored, domain.ScoredCandidate{
			Profile: c,
			Score:   r.scorer.Score(viewer, c),
		})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score.Total != scored[j].Score.Total {
			return scored[i].Score.Total > scored[j].Score.Total
		}
		return scored[i].Profile.ID < scored[j].Profile.ID
	})

	return scored
}
