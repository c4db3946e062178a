package swipe

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/gdugdh24/mpit2026-matching/internal/domain"
	"github.com/gdugdh24/mpit2026-matching/internal/repository"
)

type IcebreakerGenerator interface {
	GenerateIcebreakers(ctx context.Context, a, b *domain.Profile) ([]string, error)
}

// IcebreakerEnricher attaches suggested opening lines to a new match. It
// consumes match events, so a failure here never affects the match itself.
type IcebreakerEnricher struct {
	profiles  repository.ProfileStore
	matches   repository.MatchRepository
	generator IcebreakerGenerator
	logger    *zap.Logger
}

func NewIcebreakerEnricher(
	profiles repository.ProfileStore,
	matches repository.MatchRepository,
	generator IcebreakerGenerator,
	logger *zap.Logger,
) *IcebreakerEnricher {
	return &IcebreakerEnricher{
		profiles:  profiles,
		matches:   matches,
		generator: generator,
		logger:    logger,
	}
}

func (e *IcebreakerEnricher) EmitMatchEvent(ctx context.Context, event domain.MatchEvent) error {
	var sender, receiver *domain.Profile

	// The profile that completed the match gets to open the conversation.
	senderID, receiverID := event.CompletedByProfile, event.ProfileA
	if receiverID == senderID {
		receiverID = event.ProfileB
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sender, err = e.profiles.GetProfile(gctx, senderID)
		return err
	})
	g.Go(func() error {
		var err error
		receiver, err = e.profiles.GetProfile(gctx, receiverID)
		return err
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("failed to load match profiles: %w", err)
	}

	lines, err := e.generator.GenerateIcebreakers(ctx, sender, receiver)
	if err != nil {
		return fmt.Errorf("failed to generate icebreakers: %w", err)
	}
	if len(lines) == 0 {
		return nil
	}

	if err := e.matches.UpdateIcebreakers(ctx, event.MatchID, lines); err != nil {
		return fmt.Errorf("failed to store icebreakers: %w", err)
	}
	e.logger.Debug("icebreakers attached", zap.Int64("match_id", event.MatchID), zap.Int("count", len(lines)))
	return nil
}
