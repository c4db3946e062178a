package repository

import (
	"context"

	"github.com/gdugdh24/mpit2026-matching/internal/domain"
)

// ProfileStore is the read-only view of profiles the engine consumes.
type ProfileStore interface {
	GetProfile(ctx context.Context, id int64) (*domain.Profile, error)
	ProfileExists(ctx context.Context, id int64) (bool, error)
}

type CandidateRepository interface {
	// FetchCandidates returns matchable profiles ordered by id. The viewer,
	// profiles the viewer already decided on and excludeIDs are never returned.
	FetchCandidates(ctx context.Context, viewerID int64, filter domain.CandidateFilter, excludeIDs []int64, limit, offset int) ([]*domain.Profile, error)
}
