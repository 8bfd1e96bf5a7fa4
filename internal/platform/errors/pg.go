package errors

import (
	"context"
	stderrs "errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
)

// SQLSTATE classes the result writer distinguishes. Anything else is ErrorCodeDB
var pgStates = map[string]ErrorCode{
	"23505": ErrorCodeDuplicateKey,
	"25006": ErrorCodeUnavailable, // read only transaction, a replica or failover
	"57P03": ErrorCodeUnavailable, // cannot connect now
	"57P01": ErrorCodeUnavailable, // admin shutdown
}

// SQLSTATEs worth rerunning the whole transaction for
var pgRetryStates = map[string]bool{
	"40001": true, // serialization failure
	"40P01": true, // deadlock
	"55P03": true, // lock not available
}

// pgx reports some aborted commits as text only
var pgRetryTexts = []string{
	"commit unexpectedly resulted in rollback",
	"terminating connection due to administrator command",
}

func pgError(err error) (*pgconn.PgError, bool) {
	var pe *pgconn.PgError
	ok := stderrs.As(err, &pe)
	return pe, ok
}

// FromPostgres wraps a postgres failure with the code its SQLSTATE maps to. nil stays nil
func FromPostgres(err error, msg string) error {
	if err == nil {
		return nil
	}
	code := ErrorCodeDB
	if pe, ok := pgError(err); ok {
		if c, known := pgStates[pe.Code]; known {
			code = c
		}
	}
	return Wrap(err, code, msg)
}

// IsRetryable reports whether a transaction that failed with err may succeed when
// run again. Cancellation never is
func IsRetryable(err error) bool {
	if err == nil || stderrs.Is(err, context.Canceled) || stderrs.Is(err, context.DeadlineExceeded) {
		return false
	}
	if pe, ok := pgError(err); ok {
		return pgRetryStates[pe.Code]
	}
	msg := strings.ToLower(Root(err).Error())
	for _, s := range pgRetryTexts {
		if strings.Contains(msg, s) {
			return true
		}
	}
	return false
}
