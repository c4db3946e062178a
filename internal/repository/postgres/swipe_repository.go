package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/gdugdh24/mpit2026-matching/internal/domain"
	"github.com/gdugdh24/mpit2026-matching/internal/repository"
	"github.com/jmoiron/sqlx"
)

type swipeRepository struct {
	db *sqlx.DB
}

func NewSwipeRepository(db *sqlx.DB) repository.SwipeStore {
	return &swipeRepository{db: db}
}

func (r *swipeRepository) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.SwipeTx) error) error {
	return withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		return fn(ctx, &swipeTx{tx: tx})
	})
}

func (r *swipeRepository) GetDecision(ctx context.Context, from, to int64) (*domain.SwipeDecision, error) {
	var d domain.SwipeDecision
	query := `
		SELECT from_profile_id, to_profile_id, kind, message, created_at, updated_at
		FROM swipe_decisions
		WHERE from_profile_id = $1 AND to_profile_id = $2
	`
	if err := r.db.GetContext(ctx, &d, query, from, to); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, classify(err)
	}
	return &d, nil
}

type swipeTx struct {
	tx *sqlx.Tx
}

func (t *swipeTx) LockPair(ctx context.Context, a, b int64) error {
	a, b = domain.CanonicalPair(a, b)
	// Row locks cannot cover a reciprocal decision that does not exist yet, so
	// the pair is serialized with a transaction-scoped advisory lock.
	key := fmt.Sprintf("swipe_pair:%d:%d", a, b)
	_, err := t.tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtextextended($1, 0))`, key)
	return classify(err)
}

func (t *swipeTx) UpsertDecision(ctx context.Context, d *domain.SwipeDecision) error {
	query := `
		INSERT INTO swipe_decisions (from_profile_id, to_profile_id, kind, message)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (from_profile_id, to_profile_id)
		DO UPDATE SET kind = EXCLUDED.kind, message = EXCLUDED.message, updated_at = NOW()
		RETURNING created_at, updated_at
	`
	err := t.tx.QueryRowContext(ctx, query, d.From, d.To, d.Kind, d.Message).
		Scan(&d.CreatedAt, &d.UpdatedAt)
	return classify(err)
}

func (t *swipeTx) GetDecisionForUpdate(ctx context.Context, from, to int64) (*domain.SwipeDecision, error) {
	var d domain.SwipeDecision
	query := `
		SELECT from_profile_id, to_profile_id, kind, message, created_at, updated_at
		FROM swipe_decisions
		WHERE from_profile_id = $1 AND to_profile_id = $2
		FOR UPDATE
	`
	if err := t.tx.GetContext(ctx, &d, query, from, to); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, classify(err)
	}
	return &d, nil
}

func (t *swipeTx) InsertMatch(ctx context.Context, m *domain.Match) (bool, error) {
	a, b := domain.CanonicalPair(m.ProfileA, m.ProfileB)
	query := `
		INSERT INTO matches (profile_a_id, profile_b_id, completed_by_kind, completed_by_profile_id)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (profile_a_id, profile_b_id) DO NOTHING
		RETURNING id, created_at
	`
	var inserted domain.Match
	err := t.tx.QueryRowContext(ctx, query, a, b, m.CompletedBy, m.CompletedByProfile).
		Scan(&inserted.ID, &inserted.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, classify(err)
	}

	m.ID = inserted.ID
	m.CreatedAt = inserted.CreatedAt
	m.ProfileA, m.ProfileB = a, b
	return true, nil
}
