package repository

import (
	"context"

	"github.com/gdugdh24/mpit2026-matching/internal/domain"
)

type MatchRepository interface {
	GetByProfiles(ctx context.Context, profileA, profileB int64) (*domain.Match, error)
	Exists(ctx context.Context, profileA, profileB int64) (bool, error)
	ListForProfile(ctx context.Context, profileID int64, limit, offset int) ([]*domain.Match, error)
	UpdateIcebreakers(ctx context.Context, matchID int64, icebreakers []string) error
}
