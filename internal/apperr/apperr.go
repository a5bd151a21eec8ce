// Package apperr holds the error kinds shared by every feature package.
// Feature packages derive their own sentinels from these so callers can match
// either the precise condition or its kind with errors.Is.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrPermissionDenied   = errors.New("permission denied")
	ErrNotFound           = errors.New("not found")
	ErrInvariantViolation = errors.New("invariant violation")
	ErrStoreUnavailable   = errors.New("store unavailable")
	ErrInvalidInput       = errors.New("invalid input")
)

// PermissionDenied reports which role was missing for which action.
func PermissionDenied(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrPermissionDenied, fmt.Sprintf(format, args...))
}

// InvalidInput wraps a validation failure.
func InvalidInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// FromStore classifies a driver error. Transient infrastructure failures are
// marked as ErrStoreUnavailable so callers know the whole operation can be retried.
func FromStore(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrStoreUnavailable) || errors.Is(err, pgx.ErrNoRows) {
		return err
	}
	if isTransient(err) {
		return fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	}
	if isRejectedValue(err) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	return err
}

// isRejectedValue reports values the schema refuses: check constraints and numeric overflow.
func isRejectedValue(err error) bool {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	return pgErr.Code == "23514" || pgErr.Code == "22003"
}

func isTransient(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if pgconn.SafeToRetry(err) || pgconn.Timeout(err) {
		return true
	}
	var connectErr *pgconn.ConnectError
	if errors.As(err, &connectErr) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// class 08: connection exception, 57P0x: server shutting down
		return len(pgErr.Code) == 5 && (pgErr.Code[:2] == "08" || pgErr.Code[:4] == "57P0")
	}
	return false
}
