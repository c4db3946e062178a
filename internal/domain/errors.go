package domain

import (
	"errors"
	"fmt"
)

var (
	ErrProfileNotFound     = errors.New("profile not found")
	ErrMatchNotFound       = errors.New("match not found")
	ErrInvalidDecision     = errors.New("invalid decision")
	ErrRateLimited         = errors.New("daily like quota exceeded")
	ErrTransientStorage    = errors.New("transient storage error")
	ErrConcurrencyConflict = errors.New("concurrency conflict")
)

// Shapes of ErrInvalidDecision.
var (
	ErrCannotSwipeSelf       = fmt.Errorf("%w: cannot swipe own profile", ErrInvalidDecision)
	ErrUnknownDecisionKind   = fmt.Errorf("%w: unknown decision kind", ErrInvalidDecision)
	ErrSuperlikeNeedsMessage = fmt.Errorf("%w: superlike requires a message", ErrInvalidDecision)
	ErrMessageNotAllowed     = fmt.Errorf("%w: only a superlike can carry a message", ErrInvalidDecision)
)

// IsRetryable reports whether an operation failing with err may succeed if repeated.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrTransientStorage) || errors.Is(err, ErrConcurrencyConflict)
}
