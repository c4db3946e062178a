package domain

import (
	"strings"
	"time"
)

type DecisionKind string

const (
	DecisionLike      DecisionKind = "like"
	DecisionDislike   DecisionKind = "dislike"
	DecisionSuperlike DecisionKind = "superlike"
)

func (k DecisionKind) Valid() bool {
	return k == DecisionLike || k == DecisionDislike || k == DecisionSuperlike
}

// IsPositive reports whether the decision can complete a match.
func (k DecisionKind) IsPositive() bool {
	return k == DecisionLike || k == DecisionSuperlike
}

type SwipeDecision struct {
	From      int64        `json:"from" db:"from_profile_id"`
	To        int64        `json:"to" db:"to_profile_id"`
	Kind      DecisionKind `json:"kind" db:"kind"`
	Message   *string      `json:"message,omitempty" db:"message"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
	UpdatedAt time.Time    `json:"updated_at" db:"updated_at"`
}

// Validate checks the shape of a decision before anything is stored. A blank
// message is dropped, so a stored message is never empty and always belongs
// to a superlike.
func (d *SwipeDecision) Validate() error {
	if d.From == d.To {
		return ErrCannotSwipeSelf
	}
	if !d.Kind.Valid() {
		return ErrUnknownDecisionKind
	}
	if d.Message != nil && strings.TrimSpace(*d.Message) == "" {
		d.Message = nil
	}
	hasMessage := d.Message != nil
	if d.Kind == DecisionSuperlike && !hasMessage {
		return ErrSuperlikeNeedsMessage
	}
	if d.Kind != DecisionSuperlike && hasMessage {
		return ErrMessageNotAllowed
	}
	return nil
}

// DecisionResult is what a caller learns from recording a swipe.
type DecisionResult struct {
	MatchCreated bool           `json:"match_created"`
	Decision     *SwipeDecision `json:"decision"`
	Match        *Match         `json:"match,omitempty"`
}
