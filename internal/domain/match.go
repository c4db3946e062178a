package domain

import (
	"time"

	"github.com/google/uuid"
)

type Match struct {
	ID                 int64        `json:"id" db:"id"`
	ProfileA           int64        `json:"profile_a" db:"profile_a_id"`
	ProfileB           int64        `json:"profile_b" db:"profile_b_id"`
	CompletedBy        DecisionKind `json:"completed_by" db:"completed_by_kind"`
	CompletedByProfile int64        `json:"completed_by_profile" db:"completed_by_profile_id"`
	Icebreakers        []string     `json:"icebreakers,omitempty" db:"-"`
	CreatedAt          time.Time    `json:"created_at" db:"created_at"`
}

// CanonicalPair orders two profile ids so that a < b.
func CanonicalPair(x, y int64) (a, b int64) {
	if x > y {
		return y, x
	}
	return x, y
}

func (m *Match) HasProfile(profileID int64) bool {
	return m.ProfileA == profileID || m.ProfileB == profileID
}

func (m *Match) OtherProfile(profileID int64) (int64, bool) {
	if m.ProfileA == profileID {
		return m.ProfileB, true
	}
	if m.ProfileB == profileID {
		return m.ProfileA, true
	}
	return 0, false
}

// MatchEvent is published once, after the transaction creating the match commits.
type MatchEvent struct {
	ID                 uuid.UUID    `json:"id"`
	MatchID            int64        `json:"match_id"`
	ProfileA           int64        `json:"profile_a"`
	ProfileB           int64        `json:"profile_b"`
	CompletedBy        DecisionKind `json:"completed_by"`
	CompletedByProfile int64        `json:"completed_by_profile"`
	CreatedAt          time.Time    `json:"created_at"`
}

func NewMatchEvent(m *Match) MatchEvent {
	return MatchEvent{
		ID:                 uuid.New(),
		MatchID:            m.ID,
		ProfileA:           m.ProfileA,
		ProfileB:           m.ProfileB,
		CompletedBy:        m.CompletedBy,
		CompletedByProfile: m.CompletedByProfile,
		CreatedAt:          m.CreatedAt,
	}
}
