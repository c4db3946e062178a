package scoring

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/gdugdh24/mpit2026-matching/internal/domain"
)

const (
	// DefaultDistanceCutoffKm is where the distance factor reaches zero.
	DefaultDistanceCutoffKm = 100.0

	neutralScore      = 0.5
	noPreferenceScore = 0.7
)

// Scorer computes the compatibility of a candidate for a viewer. It holds no
// mutable state and is safe for concurrent use.
type Scorer struct {
	weights  Weights
	cutoffKm float64
	now      func() time.Time
}

type Option func(*Scorer)

func WithDistanceCutoff(km float64) Option {
	return func(s *Scorer) {
		s.cutoffKm = km
	}
}

// WithClock fixes the time used to derive ages.
func WithClock(now func() time.Time) Option {
	return func(s *Scorer) {
		s.now = now
	}
}

func NewScorer(weights Weights, opts ...Option) (*Scorer, error) {
	if err := weights.Validate(); err != nil {
		return nil, err
	}
	s := &Scorer{
		weights:  weights,
		cutoffKm: DefaultDistanceCutoffKm,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.cutoffKm <= 0 || math.IsNaN(s.cutoffKm) || math.IsInf(s.cutoffKm, 0) {
		return nil, fmt.Errorf("distance cutoff must be positive, got %v", s.cutoffKm)
	}
	return s, nil
}

func (s *Scorer) Weights() Weights {
	return s.weights
}

// Score never fails: malformed fields degrade the affected factor to its neutral value.
func (s *Scorer) Score(viewer, candidate *domain.Profile) domain.CompatibilityScore {
	score := domain.CompatibilityScore{
		MutualStatus: mutualStatusScore(viewer, candidate),
		Age:          s.ageScore(viewer, candidate),
		Distance:     s.distanceScore(viewer, candidate),
		Location:     jaccard(viewer.LocationPrefs, candidate.LocationPrefs),
		Lifestyle:    lifestyleScore(viewer, candidate),
	}

	score.Total = clamp01(
		s.weights.MutualStatus*score.MutualStatus +
			s.weights.Age*score.Age +
			s.weights.Distance*score.Distance +
			s.weights.Location*score.Location +
			s.weights.Lifestyle*score.Lifestyle,
	)
	score.Recommendations = recommendations(score)

	return score
}

func mutualStatusScore(viewer, candidate *domain.Profile) float64 {
	viewerWants := viewer.Seeks(candidate.Status)
	candidateWants := candidate.Seeks(viewer.Status)
	switch {
	case viewerWants && candidateWants:
		return 1
	case viewerWants || candidateWants:
		return 0.5
	default:
		return 0
	}
}

func (s *Scorer) ageScore(viewer, candidate *domain.Profile) float64 {
	now := s.now()

	viewerAge, ok := meanAge(viewer.Members(), now)
	if !ok {
		return neutralScore
	}

	buckets := viewer.SeekAgeBuckets
	if len(buckets) == 0 {
		buckets = []domain.AgeBucket{domain.AgeBucketAny}
	}

	best, found := 0.0, false
	for _, m := range relevantMembers(viewer, candidate) {
		age, ok := m.AgeAt(now)
		if !ok {
			continue
		}
		found = true
		diff := math.Abs(float64(age) - viewerAge)
		for _, b := range buckets {
			best = math.Max(best, bucketScore(diff, b))
		}
	}
	if !found {
		return neutralScore
	}
	return best
}

// relevantMembers picks the candidate's members whose gender the viewer is
// looking for, falling back to all of them.
func relevantMembers(viewer, candidate *domain.Profile) []domain.Member {
	all := candidate.Members()
	var picked []domain.Member
	for _, m := range all {
		if viewer.SeeksGender(m.Gender) {
			picked = append(picked, m)
		}
	}
	if len(picked) == 0 {
		return all
	}
	return picked
}

func meanAge(members []domain.Member, now time.Time) (float64, bool) {
	var sum float64
	var n int
	for _, m := range members {
		if age, ok := m.AgeAt(now); ok {
			sum += float64(age)
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

// bucketScore is 1 inside the bucket and decays linearly to 0 at twice the
// bucket's half-width past its edge.
func bucketScore(diff float64, b domain.AgeBucket) float64 {
	hw, ok := b.HalfWidth()
	if !ok {
		return 1
	}
	if diff <= hw {
		return 1
	}
	return clamp01(1 - (diff-hw)/(2*hw))
}

func (s *Scorer) distanceScore(viewer, candidate *domain.Profile) float64 {
	km, ok := ProfileDistanceKm(viewer, candidate)
	if !ok {
		return neutralScore
	}
	return clamp01(1 - km/s.cutoffKm)
}

// jaccard is |A∩B| / |A∪B| over normalized tags, 0 when both sets are empty.
func jaccard(a, b []string) float64 {
	setA := tagSet(a)
	setB := tagSet(b)

	union := len(setA)
	intersection := 0
	for tag := range setB {
		if _, ok := setA[tag]; ok {
			intersection++
		} else {
			union++
		}
	}
	if union == 0 {
		return 0
	}
	return float64(intersection) / float64(union)
}

func tagSet(tags []string) map[string]struct{} {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		t = strings.ToLower(strings.TrimSpace(t))
		if t != "" {
			set[t] = struct{}{}
		}
	}
	return set
}

func lifestyleScore(viewer, candidate *domain.Profile) float64 {
	viewerMembers := viewer.Members()
	candidateMembers := candidate.Members()

	var sum float64
	for i, cm := range candidateMembers {
		vm := viewerMembers[min(i, len(viewerMembers)-1)]
		sum += (attitudeAgreement(vm.Smoking, cm.Smoking) + attitudeAgreement(vm.Alcohol, cm.Alcohol)) / 2
	}
	return sum / float64(len(candidateMembers))
}

func attitudeAgreement(a, b domain.Attitude) float64 {
	if a.IsNoPreference() || b.IsNoPreference() {
		return noPreferenceScore
	}
	if a == b {
		return 1
	}
	return 0
}

func clamp01(v float64) float64 {
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
