package feed

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

type Config struct {
	// PoolSize is how many raw candidates are ranked to pick a batch from.
	PoolSize int
	MaxBatch int
	// RecycleDisliked serves disliked profiles again once nothing undecided is left.
	RecycleDisliked bool
	Retry           retry.Policy
}

func DefaultConfig() Config {
	return Config{
		PoolSize: 50,
		MaxBatch: 20,
		Retry:    retry.DefaultPolicy(),
	}
}

type FeedUseCase struct {
	profiles   repository.ProfileStore
	candidates repository.CandidateRepository
	ranker     *Ranker
	cfg        Config
	logger     *zap.Logger
}

func NewFeedUseCase(
	profiles repository.ProfileStore,
	candidates repository.CandidateRepository,
	ranker *Ranker,
	cfg Config,
	logger *zap.Logger,
) *FeedUseCase {
	return &FeedUseCase{
		profiles:   profiles,
		candidates: candidates,
		ranker:     ranker,
		cfg:        cfg,
		logger:     logger,
	}
}

type BatchRequest struct {
	Filter     domain.CandidateFilter
	ExcludeIDs []int64
	Count      int
}

type Batch struct {
	Candidates []domain.ScoredCandidate `json:"candidates"`
	// Exhausted is set when no candidate is left for the viewer under the
	// given filters.
	Exhausted bool `json:"exhausted"`
}

// GetCandidateBatch returns up to req.Count scored candidates for the viewer,
// best first.
func (uc *FeedUseCase) GetCandidateBatch(ctx context.Context, viewerID int64, req BatchRequest) (*Batch, error) {
	start := time.Now()
	defer func() { metrics.RecordResponseTime("get_candidate_batch", time.Since(start)) }()

	count := req.Count
	if count <= 0 || count > uc.cfg.MaxBatch {
		count = uc.cfg.MaxBatch
	}
	pool := uc.cfg.PoolSize
	if pool < count {
		pool = count
	}

	var viewer *domain.Profile
	err := retry.Do(ctx, uc.cfg.Retry, uc.logger, "get_profile", func(ctx context.Context) error {
		var err error
		viewer, err = uc.profiles.GetProfile(ctx, viewerID)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to get viewer profile: %w", err)
	}

	filter := req.Filter
	filter.IncludeDisliked = false

	raw, err := uc.fetch(ctx, viewerID, filter, req.ExcludeIDs, pool)
	if err != nil {
		return nil, err
	}

	if len(raw) == 0 && uc.cfg.RecycleDisliked {
		filter.IncludeDisliked = true
		raw, err = uc.fetch(ctx, viewerID, filter, req.ExcludeIDs, pool)
		if err != nil {
			return nil, err
		}
		if len(raw) > 0 {
			uc.logger.Debug("serving previously disliked candidates",
				zap.Int64("viewer_id", viewerID),
				zap.Int("count", len(raw)),
			)
		}
	}

	ranked := uc.ranker.Rank(viewer, raw)
	if len(ranked) > count {
		ranked = ranked[:count]
	}

	for _, c := range ranked {
		metrics.RecordCompatibilityScore(c.Score.Total)
	}
	metrics.RecordBatchSize(len(ranked))

	return &Batch{
		Candidates: ranked,
		Exhausted:  len(raw) == 0,
	}, nil
}

func (uc *FeedUseCase) fetch(ctx context.Context, viewerID int64, filter domain.CandidateFilter, exclude []int64, limit int) ([]*domain.Profile, error) {
	var raw []*domain.Profile
	err := retry.Do(ctx, uc.cfg.Retry, uc.logger, "fetch_candidates", func(ctx context.Context) error {
		var err error
		raw, err = uc.candidates.FetchCandidates(ctx, viewerID, filter, exclude, limit, 0)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch candidates: %w", err)
	}
	return raw, nil
}
