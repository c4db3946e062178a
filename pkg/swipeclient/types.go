// Package swipeclient is the client side of the matching API: a typed HTTP
// client and a prefetching candidate queue with bounded undo.
package swipeclient

// Candidate is a profile with the score it was ranked by.
type Candidate struct {
	Profile Profile `json:"profile"`
	Score   Score   `json:"score"`
}

func (c Candidate) ID() int64 {
	return c.Profile.ID
}

type Profile struct {
	ID            int64    `json:"id"`
	Status        string   `json:"status"`
	SeekStatuses  []string `json:"seek_statuses"`
	Country       string   `json:"country,omitempty"`
	City          string   `json:"city,omitempty"`
	LocationPrefs []string `json:"location_prefs"`
	VIPTier       int      `json:"vip_tier"`
}

type Score struct {
	MutualStatus    float64  `json:"mutual_status"`
	Age             float64  `json:"age"`
	Distance        float64  `json:"distance"`
	Location        float64  `json:"location"`
	Lifestyle       float64  `json:"lifestyle"`
	Total           float64  `json:"total"`
	Recommendations []string `json:"recommendations"`
}

type Batch struct {
	Candidates []Candidate `json:"candidates"`
	Exhausted  bool        `json:"exhausted"`
}

type Match struct {
	ID                 int64    `json:"id"`
	ProfileA           int64    `json:"profile_a"`
	ProfileB           int64    `json:"profile_b"`
	CompletedBy        string   `json:"completed_by"`
	CompletedByProfile int64    `json:"completed_by_profile"`
	Icebreakers        []string `json:"icebreakers,omitempty"`
}

type SwipeResult struct {
	MatchCreated bool   `json:"match_created"`
	Match        *Match `json:"match,omitempty"`
}

const (
	KindLike      = "like"
	KindDislike   = "dislike"
	KindSuperlike = "superlike"
)
