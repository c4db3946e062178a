package swipe

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/gdugdh24/mpit2026-matching/internal/domain"
	"github.com/gdugdh24/mpit2026-matching/internal/infrastructure/metrics"
	"github.com/gdugdh24/mpit2026-matching/internal/infrastructure/retry"
	"github.com/gdugdh24/mpit2026-matching/internal/repository"
)

// NotificationSink receives a MatchEvent once per created match.
type NotificationSink interface {
	EmitMatchEvent(ctx context.Context, event domain.MatchEvent) error
}

// PairState is where an unordered pair stands on the way to a match.
type PairState int

const (
	StateNoDecision PairState = iota
	StateOneSided
	StateMatched
)

func (s PairState) String() string {
	switch s {
	case StateOneSided:
		return "one_sided"
	case StateMatched:
		return "matched"
	default:
		return "no_decision"
	}
}

const emitTimeout = 5 * time.Second

// MatchCoordinator writes decisions and turns a reciprocal positive pair into
// exactly one match.
type MatchCoordinator struct {
	swipes  repository.SwipeStore
	matches repository.MatchRepository
	sink    NotificationSink
	retry   retry.Policy
	logger  *zap.Logger
}

func NewMatchCoordinator(
	swipes repository.SwipeStore,
	matches repository.MatchRepository,
	sink NotificationSink,
	policy retry.Policy,
	logger *zap.Logger,
) *MatchCoordinator {
	return &MatchCoordinator{
		swipes:  swipes,
		matches: matches,
		sink:    sink,
		retry:   policy,
		logger:  logger,
	}
}

// Record upserts d and, for a positive decision, creates the match when the
// reciprocal decision is positive too. Both writes commit or neither does.
// created is true only for the call whose commit produced the match.
func (c *MatchCoordinator) Record(ctx context.Context, d *domain.SwipeDecision) (match *domain.Match, created bool, err error) {
	err = retry.Do(ctx, c.retry, c.logger, "record_decision", func(ctx context.Context) error {
		match, created = nil, false
		return c.swipes.WithinTx(ctx, func(ctx context.Context, tx repository.SwipeTx) error {
			if err := tx.LockPair(ctx, d.From, d.To); err != nil {
				return err
			}
			if err := tx.UpsertDecision(ctx, d); err != nil {
				return err
			}
			if !d.Kind.IsPositive() {
				return nil
			}

			m, ok, err := c.checkAndCreateMatch(ctx, tx, d)
			if err != nil {
				return err
			}
			match, created = m, ok
			return nil
		})
	})
	if err != nil {
		return nil, false, fmt.Errorf("failed to record decision: %w", err)
	}

	if created {
		metrics.RecordMatch(string(match.CompletedBy))
		c.logger.Info("match created",
			zap.Int64("match_id", match.ID),
			zap.Int64("profile_a", match.ProfileA),
			zap.Int64("profile_b", match.ProfileB),
			zap.String("completed_by", string(match.CompletedBy)),
		)
		c.emit(ctx, match)
	}

	return match, created, nil
}

func (c *MatchCoordinator) checkAndCreateMatch(ctx context.Context, tx repository.SwipeTx, d *domain.SwipeDecision) (*domain.Match, bool, error) {
	reciprocal, err := tx.GetDecisionForUpdate(ctx, d.To, d.From)
	if err != nil {
		return nil, false, err
	}
	if reciprocal == nil || !reciprocal.Kind.IsPositive() {
		return nil, false, nil
	}

	m := &domain.Match{
		ProfileA:           d.From,
		ProfileB:           d.To,
		CompletedBy:        d.Kind,
		CompletedByProfile: d.From,
	}
	created, err := tx.InsertMatch(ctx, m)
	if err != nil {
		return nil, false, err
	}
	if !created {
		// The pair lock serializes units, so a lost insert is a re-like of a
		// pair matched earlier rather than a race.
		metrics.RecordMatchAlreadyExists()
		return nil, false, nil
	}
	return m, true, nil
}

// emit runs after commit and outlives a cancelled request.
func (c *MatchCoordinator) emit(ctx context.Context, m *domain.Match) {
	if c.sink == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), emitTimeout)
	defer cancel()

	event := domain.NewMatchEvent(m)
	if err := c.sink.EmitMatchEvent(ctx, event); err != nil {
		c.logger.Error("failed to emit match event",
			zap.Int64("match_id", m.ID),
			zap.String("event_id", event.ID.String()),
			zap.Error(err),
		)
	}
}

// PairState reports the state of the unordered pair {a, b}.
func (c *MatchCoordinator) PairState(ctx context.Context, a, b int64) (PairState, error) {
	matched, err := c.matches.Exists(ctx, a, b)
	if err != nil {
		return StateNoDecision, err
	}
	if matched {
		return StateMatched, nil
	}

	for _, pair := range [][2]int64{{a, b}, {b, a}} {
		d, err := c.swipes.GetDecision(ctx, pair[0], pair[1])
		if err != nil {
			return StateNoDecision, err
		}
		if d != nil && d.Kind.IsPositive() {
			return StateOneSided, nil
		}
	}
	return StateNoDecision, nil
}
