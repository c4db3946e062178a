package repository

import (
	"context"

	"github.com/gdugdh24/mpit2026-matching/internal/domain"
)

// SwipeStore runs the swipe write path as one unit of work. Nothing written
// through the SwipeTx is visible to others unless fn returns nil.
type SwipeStore interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context, tx SwipeTx) error) error
	GetDecision(ctx context.Context, from, to int64) (*domain.SwipeDecision, error)
}

type SwipeTx interface {
	// LockPair serializes every writer touching the unordered pair until the unit ends.
	LockPair(ctx context.Context, a, b int64) error
	UpsertDecision(ctx context.Context, d *domain.SwipeDecision) error
	// GetDecisionForUpdate returns nil, nil when no decision exists.
	GetDecisionForUpdate(ctx context.Context, from, to int64) (*domain.SwipeDecision, error)
	// InsertMatch stores m unless the pair already has a match. created is
	// false in that case and m is left untouched.
	InsertMatch(ctx context.Context, m *domain.Match) (created bool, err error)
}
