package domain

// CompatibilityScore is computed on demand and never persisted.
type CompatibilityScore struct {
	MutualStatus    float64  `json:"mutual_status"`
	Age             float64  `json:"age"`
	Distance        float64  `json:"distance"`
	Location        float64  `json:"location"`
	Lifestyle       float64  `json:"lifestyle"`
	Total           float64  `json:"total"`
	Recommendations []string `json:"recommendations"`
}

type ScoredCandidate struct {
	Profile *Profile           `json:"profile"`
	Score   CompatibilityScore `json:"score"`
}

// CandidateFilter holds the hard filters of a candidate query. Empty fields do not filter.
type CandidateFilter struct {
	Statuses []StatusCategory
	Country  string
	City     string
	// IncludeDisliked lets profiles the viewer disliked earlier back into the result.
	IncludeDisliked bool
}
