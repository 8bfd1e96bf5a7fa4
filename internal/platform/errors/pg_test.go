package errors

import (
	"context"
	stderrs "errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func state(code string) error { return &pgconn.PgError{Code: code} }

func TestFromPostgres(t *testing.T) {
	if FromPostgres(nil, "x") != nil {
		t.Fatal("nil should stay nil")
	}
	cases := []struct {
		err  error
		want ErrorCode
	}{
		{state("23505"), ErrorCodeDuplicateKey},
		{fmt.Errorf("tx: %w", state("23505")), ErrorCodeDuplicateKey},
		{state("23503"), ErrorCodeDB},
		{state("25006"), ErrorCodeUnavailable},
		{state("57P03"), ErrorCodeUnavailable},
		{state("40001"), ErrorCodeDB},
		{stderrs.New("conn reset"), ErrorCodeDB},
	}
	for _, c := range cases {
		err := FromPostgres(c.err, "insert fip_polygon")
		if CodeOf(err) != c.want || !stderrs.Is(err, c.err) {
			t.Fatalf("%v: code %s", c.err, CodeOf(err))
		}
	}
}

func TestIsRetryable(t *testing.T) {
	cases := []struct {
		err  error
		want bool
	}{
		{state("40001"), true},
		{state("40P01"), true},
		{fmt.Errorf("commit: %w", state("55P03")), true},
		{state("23505"), false},
		{stderrs.New("commit unexpectedly resulted in rollback"), true},
		{stderrs.New("nope"), false},
		{fmt.Errorf("x: %w", context.Canceled), false},
		{nil, false},
	}
	for _, c := range cases {
		if got := IsRetryable(c.err); got != c.want {
			t.Fatalf("IsRetryable(%v) = %v", c.err, got)
		}
	}
}
