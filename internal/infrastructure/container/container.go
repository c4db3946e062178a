package container

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/gdugdh24/mpit2026-matching/internal/config"
	"github.com/gdugdh24/mpit2026-matching/internal/delivery/http"
	"github.com/gdugdh24/mpit2026-matching/internal/delivery/http/handler"
	"github.com/gdugdh24/mpit2026-matching/internal/delivery/http/middleware"
	"github.com/gdugdh24/mpit2026-matching/internal/infrastructure/database"
	"github.com/gdugdh24/mpit2026-matching/internal/infrastructure/gemini"
	"github.com/gdugdh24/mpit2026-matching/internal/infrastructure/notify"
	"github.com/gdugdh24/mpit2026-matching/internal/infrastructure/ratelimit"
	"github.com/gdugdh24/mpit2026-matching/internal/infrastructure/retry"
	"github.com/gdugdh24/mpit2026-matching/internal/infrastructure/server"
	"github.com/gdugdh24/mpit2026-matching/internal/repository/postgres"
	"github.com/gdugdh24/mpit2026-matching/internal/scoring"
	"github.com/gdugdh24/mpit2026-matching/internal/usecase/feed"
	"github.com/gdugdh24/mpit2026-matching/internal/usecase/swipe"
)

const icebreakerQueueSize = 256

// Container holds all application dependencies
type Container struct {
	Config *config.Config
	DB     *sqlx.DB
	Redis  *redis.Client
	Server *server.Server
	Gemini *gemini.GeminiClient
	Hub    *notify.Hub
	Kafka  *notify.KafkaPublisher

	icebreakers *notify.Async
	logger      *zap.Logger
}

// NewContainer creates a new dependency injection container. ctx bounds
// start-up only; background workers stop in Close.
func NewContainer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Container, error) {
	c := &Container{Config: cfg, logger: logger}

	if err := handler.RegisterValidators(); err != nil {
		return nil, err
	}

	// Initialize database
	db, err := database.NewPostgresDB(ctx, &cfg.Database, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	c.DB = db

	// Like counters live in Redis when it is configured
	var limiter swipe.RateLimitPolicy
	if cfg.Redis.Enabled() {
		redisClient, err := database.NewRedisClient(ctx, &cfg.Redis, logger)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("failed to initialize redis: %w", err)
		}
		c.Redis = redisClient
		limiter = ratelimit.NewRedisLimiter(redisClient, cfg.Swipe.DailyLikeLimit)
	} else {
		logger.Warn("redis not configured, like quota is tracked per process")
		limiter = ratelimit.NewMemoryLimiter(cfg.Swipe.DailyLikeLimit)
	}

	// Initialize repositories
	profileRepo := postgres.NewProfileRepository(db)
	swipeRepo := postgres.NewSwipeRepository(db)
	matchRepo := postgres.NewMatchRepository(db)

	scorer, err := scoring.NewScorer(scoring.Weights{
		MutualStatus: cfg.Matching.WeightMutualStatus,
		Age:          cfg.Matching.WeightAge,
		Distance:     cfg.Matching.WeightDistance,
		Location:     cfg.Matching.WeightLocation,
		Lifestyle:    cfg.Matching.WeightLifestyle,
	}, scoring.WithDistanceCutoff(cfg.Matching.DistanceCutoffKm))
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("failed to initialize scorer: %w", err)
	}

	// Match events fan out to every configured sink
	sinks := notify.NewFanout()
	c.Hub = notify.NewHub(logger)
	sinks.Add("websocket", c.Hub)

	if len(cfg.Kafka.Brokers) > 0 {
		c.Kafka = notify.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		sinks.Add("kafka", c.Kafka)
	}

	if cfg.Gemini.APIKey != "" {
		geminiClient, err := gemini.NewGeminiClient(ctx, cfg.Gemini.APIKey, cfg.Gemini.Model, logger)
		if err != nil {
			// Icebreakers are optional, matching works without them
			logger.Warn("failed to initialize gemini client", zap.Error(err))
		} else {
			c.Gemini = geminiClient
			enricher := swipe.NewIcebreakerEnricher(profileRepo, matchRepo, geminiClient, logger)
			c.icebreakers = notify.NewAsync("icebreakers", enricher, icebreakerQueueSize, logger)
			c.icebreakers.Start()
			sinks.Add("icebreakers", c.icebreakers)
		}
	}

	retryPolicy := retry.Policy{
		Attempts: cfg.Swipe.RetryAttempts,
		Backoff:  cfg.Swipe.RetryBackoff,
	}

	// Initialize use cases
	feedUseCase := feed.NewFeedUseCase(
		profileRepo,
		profileRepo,
		feed.NewRanker(scorer),
		feed.Config{
			PoolSize:        cfg.Feed.PoolSize,
			MaxBatch:        cfg.Feed.MaxBatch,
			RecycleDisliked: cfg.Feed.RecycleDisliked,
			Retry:           retryPolicy,
		},
		logger,
	)

	coordinator := swipe.NewMatchCoordinator(swipeRepo, matchRepo, sinks, retryPolicy, logger)

	swipeUseCase := swipe.NewSwipeUseCase(
		profileRepo,
		matchRepo,
		coordinator,
		limiter,
		retryPolicy,
		logger,
	)

	// Initialize router
	router := http.NewRouter(
		handler.NewCandidateHandler(feedUseCase, logger),
		handler.NewSwipeHandler(swipeUseCase, logger),
		handler.NewNotificationHandler(c.Hub),
		middleware.NewViewerAuth(cfg.JWT.AccessSecret),
		logger,
	)

	c.Server = server.NewServer(&cfg.Server, router.Setup(), logger)
	return c, nil
}

// Close stops background work and closes all connections
func (c *Container) Close() error {
	if c.icebreakers != nil {
		c.icebreakers.Close()
	}
	if c.Hub != nil {
		c.Hub.Close()
	}
	if c.Kafka != nil {
		if err := c.Kafka.Close(); err != nil {
			c.logger.Error("error closing kafka writer", zap.Error(err))
		}
	}
	if c.Gemini != nil {
		c.Gemini.Close()
	}

	// Close Redis
	if c.Redis != nil {
		if err := c.Redis.Close(); err != nil {
			c.logger.Error("error closing redis", zap.Error(err))
		}
	}

	// Close database
	if c.DB != nil {
		if err := c.DB.Close(); err != nil {
			return fmt.Errorf("failed to close database: %w", err)
		}
	}

	return nil
}
