package postgres

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/gdugdh24/mpit2026-matching/internal/domain"
	"github.com/lib/pq"
)

const (
	codeSerializationFailure = pq.ErrorCode("40001")
	codeDeadlockDetected     = pq.ErrorCode("40P01")
	codeLockNotAvailable     = pq.ErrorCode("55P03")
	codeAdminShutdown        = pq.ErrorCode("57P01")
	codeTooManyConnections   = pq.ErrorCode("53300")
	codeCheckViolation       = pq.ErrorCode("23514")
	classConnectionException = pq.ErrorClass("08")
)

// classify maps driver errors onto the domain's retryable errors. Context
// errors and everything unrecognised pass through unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		switch {
		case pqErr.Code == codeSerializationFailure,
			pqErr.Code == codeDeadlockDetected,
			pqErr.Code == codeLockNotAvailable:
			return fmt.Errorf("%w: %v", domain.ErrConcurrencyConflict, err)
		case pqErr.Code.Class() == classConnectionException,
			pqErr.Code == codeAdminShutdown,
			pqErr.Code == codeTooManyConnections:
			return fmt.Errorf("%w: %v", domain.ErrTransientStorage, err)
		case pqErr.Code == codeCheckViolation && pqErr.Table == "swipe_decisions":
			return fmt.Errorf("%w: %v", domain.ErrInvalidDecision, err)
		}
		return err
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, sql.ErrConnDone) {
		return fmt.Errorf("%w: %v", domain.ErrTransientStorage, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", domain.ErrTransientStorage, err)
	}

	return err
}
