package swipe

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gdugdh24/mpit2026-matching/internal/domain"
	"github.com/gdugdh24/mpit2026-matching/internal/infrastructure/metrics"
	"github.com/gdugdh24/mpit2026-matching/internal/infrastructure/retry"
	"github.com/gdugdh24/mpit2026-matching/internal/repository"
)

// RateLimitPolicy caps positive decisions per day for non-VIP viewers.
// ReserveLike takes a slot atomically; ReleaseLike returns it.
type RateLimitPolicy interface {
	ReserveLike(ctx context.Context, viewerID int64) (bool, error)
	ReleaseLike(ctx context.Context, viewerID int64) error
}

type SwipeUseCase struct {
	profiles    repository.ProfileStore
	matches     repository.MatchRepository
	coordinator *MatchCoordinator
	limits      RateLimitPolicy
	retry       retry.Policy
	logger      *zap.Logger
}

func NewSwipeUseCase(
	profiles repository.ProfileStore,
	matches repository.MatchRepository,
	coordinator *MatchCoordinator,
	limits RateLimitPolicy,
	policy retry.Policy,
	logger *zap.Logger,
) *SwipeUseCase {
	return &SwipeUseCase{
		profiles:    profiles,
		matches:     matches,
		coordinator: coordinator,
		limits:      limits,
		retry:       policy,
		logger:      logger,
	}
}

// SwipeRequest represents a swipe action
type SwipeRequest struct {
	TargetID int64               `json:"target_id" binding:"required,gt=0"`
	Kind     domain.DecisionKind `json:"kind" binding:"required,decision_kind"`
	Message  *string             `json:"message" binding:"omitempty,max=500"`
}

// RecordSwipe stores the viewer's decision on the target and reports whether
// this call created a match.
func (uc *SwipeUseCase) RecordSwipe(ctx context.Context, viewerID int64, req *SwipeRequest) (*domain.DecisionResult, error) {
	start := time.Now()
	defer func() { metrics.RecordResponseTime("record_swipe", time.Since(start)) }()

	decision := &domain.SwipeDecision{
		From:    viewerID,
		To:      req.TargetID,
		Kind:    req.Kind,
		Message: req.Message,
	}
	if err := decision.Validate(); err != nil {
		return nil, err
	}

	viewer, err := uc.loadParticipants(ctx, viewerID, req.TargetID)
	if err != nil {
		return nil, err
	}

	// Every positive decision takes a slot, a repeated like of the same
	// target included.
	reserved := false
	if decision.Kind.IsPositive() && !viewer.IsVIP() {
		ok, err := uc.limits.ReserveLike(ctx, viewerID)
		switch {
		case err != nil:
			// An unavailable counter does not block swiping.
			uc.logger.Warn("like quota check failed", zap.Int64("viewer_id", viewerID), zap.Error(err))
		case !ok:
			metrics.RecordRateLimited()
			return nil, domain.ErrRateLimited
		default:
			reserved = true
		}
	}

	match, created, err := uc.coordinator.Record(ctx, decision)
	if err != nil {
		if reserved {
			uc.releaseLike(ctx, viewerID)
		}
		return nil, err
	}
	metrics.RecordSwipe(string(decision.Kind))

	uc.logger.Debug("swipe recorded",
		zap.Int64("viewer_id", viewerID),
		zap.Int64("target_id", req.TargetID),
		zap.String("kind", string(decision.Kind)),
		zap.Bool("match_created", created),
	)

	return &domain.DecisionResult{
		MatchCreated: created,
		Decision:     decision,
		Match:        match,
	}, nil
}

func (uc *SwipeUseCase) releaseLike(ctx context.Context, viewerID int64) {
	if err := uc.limits.ReleaseLike(context.WithoutCancel(ctx), viewerID); err != nil {
		uc.logger.Warn("failed to return like slot", zap.Int64("viewer_id", viewerID), zap.Error(err))
	}
}

// loadParticipants fetches the viewer and checks the target exists, concurrently.
func (uc *SwipeUseCase) loadParticipants(ctx context.Context, viewerID, targetID int64) (*domain.Profile, error) {
	var viewer *domain.Profile
	var targetExists bool

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return retry.Do(gctx, uc.retry, uc.logger, "get_profile", func(ctx context.Context) error {
			var err error
			viewer, err = uc.profiles.GetProfile(ctx, viewerID)
			return err
		})
	})
	g.Go(func() error {
		return retry.Do(gctx, uc.retry, uc.logger, "profile_exists", func(ctx context.Context) error {
			var err error
			targetExists, err = uc.profiles.ProfileExists(ctx, targetID)
			return err
		})
	})
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to load profiles: %w", err)
	}
	if !targetExists {
		return nil, fmt.Errorf("target %d: %w", targetID, domain.ErrProfileNotFound)
	}
	return viewer, nil
}

// CheckExistingMatch reports whether the viewer and target are already matched.
func (uc *SwipeUseCase) CheckExistingMatch(ctx context.Context, viewerID, targetID int64) (bool, error) {
	var matched bool
	err := retry.Do(ctx, uc.retry, uc.logger, "match_exists", func(ctx context.Context) error {
		var err error
		matched, err = uc.matches.Exists(ctx, viewerID, targetID)
		return err
	})
	if err != nil {
		return false, fmt.Errorf("failed to check match: %w", err)
	}
	return matched, nil
}

func (uc *SwipeUseCase) ListMatches(ctx context.Context, viewerID int64, limit, offset int) ([]*domain.Match, error) {
	var matches []*domain.Match
	err := retry.Do(ctx, uc.retry, uc.logger, "list_matches", func(ctx context.Context) error {
		var err error
		matches, err = uc.matches.ListForProfile(ctx, viewerID, limit, offset)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list matches: %w", err)
	}
	return matches, nil
}
