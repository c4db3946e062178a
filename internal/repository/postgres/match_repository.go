package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/gdugdh24/mpit2026-matching/internal/domain"
	"github.com/gdugdh24/mpit2026-matching/internal/repository"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const matchColumns = `id, profile_a_id, profile_b_id, completed_by_kind, completed_by_profile_id, icebreakers, created_at`

type matchRow struct {
	ID                 int64          `db:"id"`
	ProfileA           int64          `db:"profile_a_id"`
	ProfileB           int64          `db:"profile_b_id"`
	CompletedBy        string         `db:"completed_by_kind"`
	CompletedByProfile int64          `db:"completed_by_profile_id"`
	Icebreakers        pq.StringArray `db:"icebreakers"`
	CreatedAt          time.Time      `db:"created_at"`
}

func (r *matchRow) toDomain() *domain.Match {
	return &domain.Match{
		ID:                 r.ID,
		ProfileA:           r.ProfileA,
		ProfileB:           r.ProfileB,
		CompletedBy:        domain.DecisionKind(r.CompletedBy),
		CompletedByProfile: r.CompletedByProfile,
		Icebreakers:        []string(r.Icebreakers),
		CreatedAt:          r.CreatedAt,
	}
}

type matchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) repository.MatchRepository {
	return &matchRepository{db: db}
}

func (r *matchRepository) GetByProfiles(ctx context.Context, profileA, profileB int64) (*domain.Match, error) {
	profileA, profileB = domain.CanonicalPair(profileA, profileB)

	var row matchRow
	query := `SELECT ` + matchColumns + ` FROM matches WHERE profile_a_id = $1 AND profile_b_id = $2`
	err := r.db.GetContext(ctx, &row, query, profileA, profileB)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrMatchNotFound
		}
		return nil, classify(err)
	}
	return row.toDomain(), nil
}

func (r *matchRepository) Exists(ctx context.Context, profileA, profileB int64) (bool, error) {
	profileA, profileB = domain.CanonicalPair(profileA, profileB)

	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM matches WHERE profile_a_id = $1 AND profile_b_id = $2)`
	if err := r.db.GetContext(ctx, &exists, query, profileA, profileB); err != nil {
		return false, classify(err)
	}
	return exists, nil
}

func (r *matchRepository) ListForProfile(ctx context.Context, profileID int64, limit, offset int) ([]*domain.Match, error) {
	var rows []matchRow
	query := `
		SELECT ` + matchColumns + ` FROM matches
		WHERE (profile_a_id = $1 OR profile_b_id = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3
	`
	if err := r.db.SelectContext(ctx, &rows, query, profileID, limit, offset); err != nil {
		return nil, classify(err)
	}

	matches := make([]*domain.Match, 0, len(rows))
	for i := range rows {
		matches = append(matches, rows[i].toDomain())
	}
	return matches, nil
}

func (r *matchRepository) UpdateIcebreakers(ctx context.Context, matchID int64, icebreakers []string) error {
	query := `UPDATE matches SET icebreakers = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, pq.Array(icebreakers), matchID)
	if err != nil {
		return classify(err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrMatchNotFound
	}
	return nil
}
