package swipe

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/gdugdh24/mpit2026-matching/internal/domain"
	"github.com/gdugdh24/mpit2026-matching/internal/infrastructure/ratelimit"
	"github.com/gdugdh24/mpit2026-matching/internal/infrastructure/retry"
	"github.com/gdugdh24/mpit2026-matching/internal/repository"
	"github.com/gdugdh24/mpit2026-matching/internal/repository/memory"
)

var noBackoff = retry.Policy{Attempts: 3}

func counterValue(t *testing.T, name string) float64 {
	t.Helper()
	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		var total float64
		for _, m := range mf.GetMetric() {
			total += m.GetCounter().GetValue()
		}
		return total
	}
	return 0
}

type recordingSink struct {
	mu     sync.Mutex
	events []domain.MatchEvent
}

func (s *recordingSink) EmitMatchEvent(ctx context.Context, event domain.MatchEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) snapshot() []domain.MatchEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.MatchEvent(nil), s.events...)
}

type fixture struct {
	store *memory.Store
	sink  *recordingSink
	uc    *SwipeUseCase
	coord *MatchCoordinator
}

func newFixture(t *testing.T, dailyLimit int, profileIDs ...int64) *fixture {
	t.Helper()
	store := memory.NewStore()
	for _, id := range profileIDs {
		store.PutProfile(&domain.Profile{ID: id, Status: domain.StatusWoman, IsActive: true})
	}
	sink := &recordingSink{}
	coord := NewMatchCoordinator(store, store, sink, noBackoff, zap.NewNop())
	uc := NewSwipeUseCase(store, store, coord, ratelimit.NewMemoryLimiter(dailyLimit), noBackoff, zap.NewNop())
	return &fixture{store: store, sink: sink, uc: uc, coord: coord}
}

func like(target int64) *SwipeRequest {
	return &SwipeRequest{TargetID: target, Kind: domain.DecisionLike}
}

func TestRecordSwipe(t *testing.T) {
	ctx := context.Background()

	t.Run("reciprocal like creates one match", func(t *testing.T) {
		f := newFixture(t, 0, 1, 2)

		res, err := f.uc.RecordSwipe(ctx, 1, like(2))
		require.NoError(t, err)
		assert.False(t, res.MatchCreated)
		assert.Nil(t, res.Match)

		res, err = f.uc.RecordSwipe(ctx, 2, like(1))
		require.NoError(t, err)
		assert.True(t, res.MatchCreated)
		require.NotNil(t, res.Match)
		assert.Equal(t, int64(1), res.Match.ProfileA)
		assert.Equal(t, int64(2), res.Match.ProfileB)
		assert.Equal(t, int64(2), res.Match.CompletedByProfile)
		assert.Equal(t, domain.DecisionLike, res.Match.CompletedBy)

		events := f.sink.snapshot()
		require.Len(t, events, 1)
		assert.Equal(t, res.Match.ID, events[0].MatchID)
	})

	t.Run("repeating a positive decision does not create a second match", func(t *testing.T) {
		f := newFixture(t, 0, 1, 2)
		const existed = "matching_match_already_exists_total"
		before := counterValue(t, existed)

		_, err := f.uc.RecordSwipe(ctx, 1, like(2))
		require.NoError(t, err)
		_, err = f.uc.RecordSwipe(ctx, 2, like(1))
		require.NoError(t, err)
		assert.Equal(t, before, counterValue(t, existed))

		res, err := f.uc.RecordSwipe(ctx, 1, like(2))
		require.NoError(t, err)
		assert.False(t, res.MatchCreated)
		assert.Equal(t, 1, f.store.MatchCount())
		assert.Len(t, f.sink.snapshot(), 1)
		assert.Equal(t, before+1, counterValue(t, existed))
	})

	t.Run("match is symmetric", func(t *testing.T) {
		f := newFixture(t, 0, 1, 2)
		_, err := f.uc.RecordSwipe(ctx, 2, like(1))
		require.NoError(t, err)
		_, err = f.uc.RecordSwipe(ctx, 1, like(2))
		require.NoError(t, err)

		ab, err := f.uc.CheckExistingMatch(ctx, 1, 2)
		require.NoError(t, err)
		ba, err := f.uc.CheckExistingMatch(ctx, 2, 1)
		require.NoError(t, err)
		assert.True(t, ab)
		assert.True(t, ba)
	})

	t.Run("superlike completes a match", func(t *testing.T) {
		f := newFixture(t, 0, 1, 2)
		_, err := f.uc.RecordSwipe(ctx, 1, like(2))
		require.NoError(t, err)

		msg := "hi there"
		res, err := f.uc.RecordSwipe(ctx, 2, &SwipeRequest{TargetID: 1, Kind: domain.DecisionSuperlike, Message: &msg})
		require.NoError(t, err)
		assert.True(t, res.MatchCreated)
		assert.Equal(t, domain.DecisionSuperlike, res.Match.CompletedBy)
	})

	t.Run("dislike never matches", func(t *testing.T) {
		f := newFixture(t, 0, 1, 2)
		_, err := f.uc.RecordSwipe(ctx, 1, like(2))
		require.NoError(t, err)

		res, err := f.uc.RecordSwipe(ctx, 2, &SwipeRequest{TargetID: 1, Kind: domain.DecisionDislike})
		require.NoError(t, err)
		assert.False(t, res.MatchCreated)
		assert.Equal(t, 0, f.store.MatchCount())
	})

	t.Run("later decision replaces earlier one", func(t *testing.T) {
		f := newFixture(t, 0, 1, 2)
		_, err := f.uc.RecordSwipe(ctx, 1, like(2))
		require.NoError(t, err)
		_, err = f.uc.RecordSwipe(ctx, 1, &SwipeRequest{TargetID: 2, Kind: domain.DecisionDislike})
		require.NoError(t, err)

		assert.Equal(t, 1, f.store.DecisionCount())
		d, err := f.store.GetDecision(ctx, 1, 2)
		require.NoError(t, err)
		assert.Equal(t, domain.DecisionDislike, d.Kind)

		res, err := f.uc.RecordSwipe(ctx, 2, like(1))
		require.NoError(t, err)
		assert.False(t, res.MatchCreated)
	})

	t.Run("invalid decisions are rejected before storage", func(t *testing.T) {
		f := newFixture(t, 0, 1, 2)
		msg := "hello"

		cases := map[string]*SwipeRequest{
			"self":                      like(1),
			"superlike without message": {TargetID: 2, Kind: domain.DecisionSuperlike},
			"like with message":         {TargetID: 2, Kind: domain.DecisionLike, Message: &msg},
			"unknown kind":              {TargetID: 2, Kind: "poke"},
		}
		for name, req := range cases {
			t.Run(name, func(t *testing.T) {
				_, err := f.uc.RecordSwipe(ctx, 1, req)
				assert.ErrorIs(t, err, domain.ErrInvalidDecision)
			})
		}
		assert.Equal(t, 0, f.store.DecisionCount())
	})

	t.Run("blank messages are not stored", func(t *testing.T) {
		f := newFixture(t, 0, 1, 2, 3)
		blank := "   "

		res, err := f.uc.RecordSwipe(ctx, 1, &SwipeRequest{TargetID: 2, Kind: domain.DecisionLike, Message: &blank})
		require.NoError(t, err)
		assert.Nil(t, res.Decision.Message)

		_, err = f.uc.RecordSwipe(ctx, 1, &SwipeRequest{TargetID: 3, Kind: domain.DecisionDislike, Message: &blank})
		require.NoError(t, err)

		for _, to := range []int64{2, 3} {
			stored, err := f.store.GetDecision(ctx, 1, to)
			require.NoError(t, err)
			require.NotNil(t, stored)
			assert.Nil(t, stored.Message)
		}

		_, err = f.uc.RecordSwipe(ctx, 1, &SwipeRequest{TargetID: 2, Kind: domain.DecisionSuperlike, Message: &blank})
		assert.ErrorIs(t, err, domain.ErrSuperlikeNeedsMessage)
	})

	t.Run("unknown profiles", func(t *testing.T) {
		f := newFixture(t, 0, 1)

		_, err := f.uc.RecordSwipe(ctx, 1, like(99))
		assert.ErrorIs(t, err, domain.ErrProfileNotFound)

		_, err = f.uc.RecordSwipe(ctx, 98, like(1))
		assert.ErrorIs(t, err, domain.ErrProfileNotFound)
		assert.Equal(t, 0, f.store.DecisionCount())
	})
}

func TestRecordSwipeRateLimit(t *testing.T) {
	ctx := context.Background()

	t.Run("caps positive decisions", func(t *testing.T) {
		f := newFixture(t, 1, 1, 2, 3, 4)

		_, err := f.uc.RecordSwipe(ctx, 1, like(2))
		require.NoError(t, err)

		_, err = f.uc.RecordSwipe(ctx, 1, like(3))
		assert.ErrorIs(t, err, domain.ErrRateLimited)
		assert.Equal(t, 1, f.store.DecisionCount())

		_, err = f.uc.RecordSwipe(ctx, 1, &SwipeRequest{TargetID: 4, Kind: domain.DecisionDislike})
		assert.NoError(t, err)
	})

	t.Run("vip viewers bypass the cap", func(t *testing.T) {
		f := newFixture(t, 1, 2, 3, 4)
		f.store.PutProfile(&domain.Profile{ID: 1, Status: domain.StatusMan, VIPTier: 2, IsActive: true})

		for _, target := range []int64{2, 3, 4} {
			_, err := f.uc.RecordSwipe(ctx, 1, like(target))
			require.NoError(t, err)
		}
	})

	t.Run("concurrent likes stop at the cap", func(t *testing.T) {
		targets := make([]int64, 0, 20)
		for id := int64(2); id <= 21; id++ {
			targets = append(targets, id)
		}
		f := newFixture(t, 3, append([]int64{1}, targets...)...)

		var stored, limited atomic.Int32
		var wg sync.WaitGroup
		for _, target := range targets {
			wg.Add(1)
			go func(target int64) {
				defer wg.Done()
				_, err := f.uc.RecordSwipe(ctx, 1, like(target))
				switch {
				case err == nil:
					stored.Add(1)
				case errors.Is(err, domain.ErrRateLimited):
					limited.Add(1)
				}
			}(target)
		}
		wg.Wait()

		assert.Equal(t, int32(3), stored.Load())
		assert.Equal(t, int32(17), limited.Load())
		assert.Equal(t, 3, f.store.DecisionCount())
	})

	t.Run("failed write returns the slot", func(t *testing.T) {
		store := memory.NewStore()
		for _, id := range []int64{1, 2} {
			store.PutProfile(&domain.Profile{ID: id, Status: domain.StatusWoman, IsActive: true})
		}
		limiter := ratelimit.NewMemoryLimiter(1)

		flaky := &flakyStore{SwipeStore: store, failures: 5, err: domain.ErrTransientStorage}
		failing := NewSwipeUseCase(store, store,
			NewMatchCoordinator(flaky, store, nil, noBackoff, zap.NewNop()),
			limiter, noBackoff, zap.NewNop())

		_, err := failing.RecordSwipe(ctx, 1, like(2))
		assert.ErrorIs(t, err, domain.ErrTransientStorage)
		assert.Equal(t, int64(0), limiter.Used(1))

		healthy := NewSwipeUseCase(store, store,
			NewMatchCoordinator(store, store, nil, noBackoff, zap.NewNop()),
			limiter, noBackoff, zap.NewNop())
		_, err = healthy.RecordSwipe(ctx, 1, like(2))
		require.NoError(t, err)
		assert.Equal(t, int64(1), limiter.Used(1))
	})
}

func TestConcurrentReciprocalLikes(t *testing.T) {
	ctx := context.Background()

	for i := 0; i < 50; i++ {
		f := newFixture(t, 0, 1, 2)

		var created int32
		var wg sync.WaitGroup
		for _, pair := range [][2]int64{{1, 2}, {2, 1}} {
			wg.Add(1)
			go func(from, to int64) {
				defer wg.Done()
				res, err := f.uc.RecordSwipe(ctx, from, like(to))
				if assert.NoError(t, err) && res.MatchCreated {
					atomic.AddInt32(&created, 1)
				}
			}(pair[0], pair[1])
		}
		wg.Wait()

		require.Equal(t, int32(1), created)
		require.Equal(t, 1, f.store.MatchCount())
		require.Len(t, f.sink.snapshot(), 1)
	}
}

// flakyStore fails the first n units of work with err.
type flakyStore struct {
	repository.SwipeStore
	failures int32
	err      error
	calls    int32
}

func (s *flakyStore) WithinTx(ctx context.Context, fn func(ctx context.Context, tx repository.SwipeTx) error) error {
	if atomic.AddInt32(&s.calls, 1) <= s.failures {
		return s.err
	}
	return s.SwipeStore.WithinTx(ctx, fn)
}

func TestMatchCoordinatorRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("retries conflicts", func(t *testing.T) {
		store := memory.NewStore()
		flaky := &flakyStore{SwipeStore: store, failures: 2, err: domain.ErrConcurrencyConflict}
		coord := NewMatchCoordinator(flaky, store, nil, noBackoff, zap.NewNop())

		_, _, err := coord.Record(ctx, &domain.SwipeDecision{From: 1, To: 2, Kind: domain.DecisionLike})
		require.NoError(t, err)
		assert.Equal(t, int32(3), flaky.calls)
		assert.Equal(t, 1, store.DecisionCount())
	})

	t.Run("gives up after the attempts", func(t *testing.T) {
		store := memory.NewStore()
		flaky := &flakyStore{SwipeStore: store, failures: 5, err: domain.ErrTransientStorage}
		coord := NewMatchCoordinator(flaky, store, nil, noBackoff, zap.NewNop())

		_, _, err := coord.Record(ctx, &domain.SwipeDecision{From: 1, To: 2, Kind: domain.DecisionLike})
		assert.ErrorIs(t, err, domain.ErrTransientStorage)
		assert.Equal(t, int32(3), flaky.calls)
		assert.Equal(t, 0, store.DecisionCount())
	})

	t.Run("does not retry other errors", func(t *testing.T) {
		store := memory.NewStore()
		boom := errors.New("boom")
		flaky := &flakyStore{SwipeStore: store, failures: 5, err: boom}
		coord := NewMatchCoordinator(flaky, store, nil, noBackoff, zap.NewNop())

		_, _, err := coord.Record(ctx, &domain.SwipeDecision{From: 1, To: 2, Kind: domain.DecisionLike})
		assert.ErrorIs(t, err, boom)
		assert.Equal(t, int32(1), flaky.calls)
	})
}

func TestPairState(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0, 1, 2)

	state, err := f.coord.PairState(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, StateNoDecision, state)

	_, err = f.uc.RecordSwipe(ctx, 2, &SwipeRequest{TargetID: 1, Kind: domain.DecisionDislike})
	require.NoError(t, err)
	state, err = f.coord.PairState(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, StateNoDecision, state)

	_, err = f.uc.RecordSwipe(ctx, 1, like(2))
	require.NoError(t, err)
	state, err = f.coord.PairState(ctx, 2, 1)
	require.NoError(t, err)
	assert.Equal(t, StateOneSided, state)

	_, err = f.uc.RecordSwipe(ctx, 2, like(1))
	require.NoError(t, err)
	state, err = f.coord.PairState(ctx, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, StateMatched, state)
	assert.Equal(t, "matched", state.String())
}

func TestListMatches(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t, 0, 1, 2, 3)

	for _, other := range []int64{2, 3} {
		_, err := f.uc.RecordSwipe(ctx, 1, like(other))
		require.NoError(t, err)
		_, err = f.uc.RecordSwipe(ctx, other, like(1))
		require.NoError(t, err)
	}

	matches, err := f.uc.ListMatches(ctx, 1, 10, 0)
	require.NoError(t, err)
	assert.Len(t, matches, 2)

	matches, err = f.uc.ListMatches(ctx, 2, 10, 0)
	require.NoError(t, err)
	require.Len(t, matches, 1)
	other, ok := matches[0].OtherProfile(2)
	assert.True(t, ok)
	assert.Equal(t, int64(1), other)

	t.Run("transient errors are retried", func(t *testing.T) {
		flaky := &flakyMatches{MatchRepository: f.store, failures: 2}
		uc := NewSwipeUseCase(f.store, flaky, f.coord, ratelimit.NewMemoryLimiter(0), noBackoff, zap.NewNop())

		matches, err := uc.ListMatches(ctx, 1, 10, 0)
		require.NoError(t, err)
		assert.Len(t, matches, 2)
		assert.Equal(t, int32(3), flaky.calls.Load())
	})
}

type flakyMatches struct {
	repository.MatchRepository
	failures int32
	calls    atomic.Int32
}

func (m *flakyMatches) ListForProfile(ctx context.Context, profileID int64, limit, offset int) ([]*domain.Match, error) {
	if m.calls.Add(1) <= m.failures {
		return nil, domain.ErrTransientStorage
	}
	return m.MatchRepository.ListForProfile(ctx, profileID, limit, offset)
}

type stubGenerator struct {
	lines []string
	err   error
	got   [2]int64
}

func (g *stubGenerator) GenerateIcebreakers(ctx context.Context, a, b *domain.Profile) ([]string, error) {
	g.got = [2]int64{a.ID, b.ID}
	return g.lines, g.err
}

func TestIcebreakerEnricher(t *testing.T) {
	ctx := context.Background()

	t.Run("stores generated lines on the match", func(t *testing.T) {
		f := newFixture(t, 0, 1, 2)
		_, err := f.uc.RecordSwipe(ctx, 1, like(2))
		require.NoError(t, err)
		res, err := f.uc.RecordSwipe(ctx, 2, like(1))
		require.NoError(t, err)

		gen := &stubGenerator{lines: []string{"hey", "hello"}}
		enricher := NewIcebreakerEnricher(f.store, f.store, gen, zap.NewNop())
		require.NoError(t, enricher.EmitMatchEvent(ctx, domain.NewMatchEvent(res.Match)))

		assert.Equal(t, [2]int64{2, 1}, gen.got)
		m, err := f.store.GetByProfiles(ctx, 1, 2)
		require.NoError(t, err)
		assert.Equal(t, []string{"hey", "hello"}, m.Icebreakers)
	})

	t.Run("generator error is returned", func(t *testing.T) {
		f := newFixture(t, 0, 1, 2)
		gen := &stubGenerator{err: errors.New("down")}
		enricher := NewIcebreakerEnricher(f.store, f.store, gen, zap.NewNop())

		err := enricher.EmitMatchEvent(ctx, domain.MatchEvent{MatchID: 1, ProfileA: 1, ProfileB: 2, CompletedByProfile: 1})
		assert.Error(t, err)
	})

	t.Run("missing profile", func(t *testing.T) {
		f := newFixture(t, 0, 1)
		enricher := NewIcebreakerEnricher(f.store, f.store, &stubGenerator{}, zap.NewNop())

		err := enricher.EmitMatchEvent(ctx, domain.MatchEvent{MatchID: 1, ProfileA: 1, ProfileB: 2, CompletedByProfile: 1})
		assert.ErrorIs(t, err, domain.ErrProfileNotFound)
	})
}
