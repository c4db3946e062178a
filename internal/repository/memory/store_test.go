package memory

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gdugdh24/mpit2026-matching/internal/domain"
	"github.com/gdugdh24/mpit2026-matching/internal/repository"
)

func seeded(ids ...int64) *Store {
	s := NewStore()
	for _, id := range ids {
		s.PutProfile(&domain.Profile{ID: id, Status: domain.StatusWoman, IsActive: true})
	}
	return s
}

func TestWithinTx(t *testing.T) {
	ctx := context.Background()

	t.Run("failed unit leaves no trace", func(t *testing.T) {
		s := seeded(1, 2)
		boom := errors.New("boom")

		err := s.WithinTx(ctx, func(ctx context.Context, tx repository.SwipeTx) error {
			require.NoError(t, tx.UpsertDecision(ctx, &domain.SwipeDecision{From: 1, To: 2, Kind: domain.DecisionLike}))
			created, err := tx.InsertMatch(ctx, &domain.Match{ProfileA: 2, ProfileB: 1})
			require.NoError(t, err)
			require.True(t, created)
			return boom
		})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, 0, s.DecisionCount())
		assert.Equal(t, 0, s.MatchCount())
	})

	t.Run("staged writes are visible inside the unit", func(t *testing.T) {
		s := seeded(1, 2)

		err := s.WithinTx(ctx, func(ctx context.Context, tx repository.SwipeTx) error {
			require.NoError(t, tx.UpsertDecision(ctx, &domain.SwipeDecision{From: 1, To: 2, Kind: domain.DecisionLike}))
			d, err := tx.GetDecisionForUpdate(ctx, 1, 2)
			require.NoError(t, err)
			require.NotNil(t, d)
			assert.Equal(t, domain.DecisionLike, d.Kind)

			none, err := tx.GetDecisionForUpdate(ctx, 2, 1)
			require.NoError(t, err)
			assert.Nil(t, none)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, 1, s.DecisionCount())
	})

	t.Run("second insert for a pair is not created", func(t *testing.T) {
		s := seeded(1, 2)

		var first, second bool
		err := s.WithinTx(ctx, func(ctx context.Context, tx repository.SwipeTx) error {
			var err error
			first, err = tx.InsertMatch(ctx, &domain.Match{ProfileA: 2, ProfileB: 1})
			return err
		})
		require.NoError(t, err)
		err = s.WithinTx(ctx, func(ctx context.Context, tx repository.SwipeTx) error {
			var err error
			second, err = tx.InsertMatch(ctx, &domain.Match{ProfileA: 1, ProfileB: 2})
			return err
		})
		require.NoError(t, err)

		assert.True(t, first)
		assert.False(t, second)
		m, err := s.GetByProfiles(ctx, 2, 1)
		require.NoError(t, err)
		assert.Equal(t, int64(1), m.ProfileA)
		assert.Equal(t, int64(2), m.ProfileB)
	})

	t.Run("upsert keeps created_at", func(t *testing.T) {
		s := seeded(1, 2)
		upsert := func(kind domain.DecisionKind) {
			require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, tx repository.SwipeTx) error {
				return tx.UpsertDecision(ctx, &domain.SwipeDecision{From: 1, To: 2, Kind: kind})
			}))
		}
		upsert(domain.DecisionLike)
		first, err := s.GetDecision(ctx, 1, 2)
		require.NoError(t, err)
		upsert(domain.DecisionDislike)
		second, err := s.GetDecision(ctx, 1, 2)
		require.NoError(t, err)

		assert.Equal(t, first.CreatedAt, second.CreatedAt)
		assert.Equal(t, domain.DecisionDislike, second.Kind)
	})

	t.Run("message on a like is refused", func(t *testing.T) {
		s := seeded(1, 2)
		msg := "hi"

		err := s.WithinTx(ctx, func(ctx context.Context, tx repository.SwipeTx) error {
			return tx.UpsertDecision(ctx, &domain.SwipeDecision{From: 1, To: 2, Kind: domain.DecisionLike, Message: &msg})
		})
		assert.ErrorIs(t, err, domain.ErrInvalidDecision)
		assert.Equal(t, 0, s.DecisionCount())
	})
}

func TestFetchCandidates(t *testing.T) {
	ctx := context.Background()
	s := seeded(1, 2, 3, 4, 5)

	t.Run("pages by id", func(t *testing.T) {
		page, err := s.FetchCandidates(ctx, 1, domain.CandidateFilter{}, nil, 2, 1)
		require.NoError(t, err)
		require.Len(t, page, 2)
		assert.Equal(t, int64(3), page[0].ID)
		assert.Equal(t, int64(4), page[1].ID)
	})

	t.Run("offset past the end", func(t *testing.T) {
		page, err := s.FetchCandidates(ctx, 1, domain.CandidateFilter{}, nil, 2, 10)
		require.NoError(t, err)
		assert.Empty(t, page)
	})

	t.Run("returns copies", func(t *testing.T) {
		page, err := s.FetchCandidates(ctx, 1, domain.CandidateFilter{}, nil, 1, 0)
		require.NoError(t, err)
		page[0].City = "changed"

		p, err := s.GetProfile(ctx, page[0].ID)
		require.NoError(t, err)
		assert.Empty(t, p.City)
	})
}

func TestUpdateIcebreakers(t *testing.T) {
	ctx := context.Background()
	s := seeded(1, 2)

	assert.ErrorIs(t, s.UpdateIcebreakers(ctx, 1, []string{"x"}), domain.ErrMatchNotFound)

	require.NoError(t, s.WithinTx(ctx, func(ctx context.Context, tx repository.SwipeTx) error {
		_, err := tx.InsertMatch(ctx, &domain.Match{ProfileA: 1, ProfileB: 2})
		return err
	}))
	require.NoError(t, s.UpdateIcebreakers(ctx, 1, []string{"x"}))

	m, err := s.GetByProfiles(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"x"}, m.Icebreakers)
}
