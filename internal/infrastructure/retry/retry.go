package retry

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/gdugdh24/mpit2026-matching/internal/domain"
	"github.com/gdugdh24/mpit2026-matching/internal/infrastructure/metrics"
)

type Policy struct {
	Attempts int
	Backoff  time.Duration
}

func DefaultPolicy() Policy {
	return Policy{Attempts: 3, Backoff: 20 * time.Millisecond}
}

// Do runs fn until it succeeds, fails with a non-retryable error, the context
// ends or the attempts are used up. The wait doubles after every failure.
func Do(ctx context.Context, p Policy, log *zap.Logger, operation string, fn func(ctx context.Context) error) error {
	attempts := p.Attempts
	if attempts < 1 {
		attempts = 1
	}
	wait := p.Backoff

	var err error
	for attempt := 1; attempt <= attempts; attempt++ {
		err = fn(ctx)
		if err == nil || !domain.IsRetryable(err) || attempt == attempts {
			return err
		}

		metrics.RecordRetry(operation)
		log.Warn("retrying storage operation",
			zap.String("operation", operation),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)

		if wait > 0 {
			timer := time.NewTimer(wait)
			select {
			case <-ctx.Done():
				timer.Stop()
				return ctx.Err()
			case <-timer.C:
			}
			wait *= 2
		}
	}
	return err
}
