package repokit

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"vdyp/internal/platform/testkit"
)

type fakeQ struct{ sqls []string }

func (f *fakeQ) Exec(_ context.Context, sql string, _ ...any) (CommandTag, error) {
	f.sqls = append(f.sqls, sql)
	return pgconn.NewCommandTag("SET"), nil
}

func (f *fakeQ) Query(context.Context, string, ...any) (Rows, error) { return nil, nil }
func (f *fakeQ) QueryRow(context.Context, string, ...any) Row        { return nil }

type fakeTx struct {
	fakeQ
	txs int
}

func (f *fakeTx) Tx(_ context.Context, fn func(q Queryer) error) error {
	f.txs++
	return fn(&f.fakeQ)
}

func TestMustBind(t *testing.T) {
	t.Parallel()

	b := BindFunc[string](func(q Queryer) string {
		if q == nil {
			return "nil"
		}
		return "bound"
	})
	if got := MustBind[string](b, &fakeQ{}); got != "bound" {
		t.Fatalf("MustBind = %q", got)
	}

	testkit.MustPanic(t, func() { MustBind[string](b, nil) })
}

func TestWithTx_BindsToTx(t *testing.T) {
	t.Parallel()

	tx := &fakeTx{}
	var got Queryer
	b := BindFunc[Queryer](func(q Queryer) Queryer { return q })
	err := WithTx(context.Background(), tx, b, func(q Queryer) error {
		got = q
		return nil
	})
	if err != nil || tx.txs != 1 || got != &tx.fakeQ {
		t.Fatalf("err=%v txs=%d bound=%v", err, tx.txs, got)
	}
}

func TestWithBeginHooks(t *testing.T) {
	t.Parallel()

	tx := &fakeTx{}
	if WithBeginHooks(tx) != TxRunner(tx) {
		t.Fatal("no hooks should return inner")
	}

	var order []string
	hook := func(name string) BeginHook {
		return func(context.Context, Queryer) error { order = append(order, name); return nil }
	}
	h := WithBeginHooks(tx, hook("a"), StatementTimeout(1500*time.Millisecond), hook("b"))
	err := h.Tx(context.Background(), func(Queryer) error { order = append(order, "fn"); return nil })
	if err != nil {
		t.Fatal(err)
	}
	if len(order) != 3 || order[0] != "a" || order[1] != "b" || order[2] != "fn" {
		t.Fatalf("order = %v", order)
	}
	if len(tx.sqls) != 1 || tx.sqls[0] != "SET LOCAL statement_timeout = 1500" {
		t.Fatalf("sqls = %v", tx.sqls)
	}
}

func TestWithBeginHooks_HookErrorSkipsFn(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")
	h := WithBeginHooks(&fakeTx{}, func(context.Context, Queryer) error { return boom })
	ran := false
	if err := h.Tx(context.Background(), func(Queryer) error { ran = true; return nil }); !errors.Is(err, boom) || ran {
		t.Fatalf("err=%v ran=%v", err, ran)
	}
}

func TestStatementTimeout_ZeroIsNoop(t *testing.T) {
	t.Parallel()

	q := &fakeQ{}
	if err := StatementTimeout(0)(context.Background(), q); err != nil || len(q.sqls) != 0 {
		t.Fatalf("err=%v sqls=%v", err, q.sqls)
	}
}

type fakeGuard struct{ err error }

func (g fakeGuard) Guard(ctx context.Context) error {
	if _, ok := ctx.Deadline(); !ok {
		return errors.New("no deadline")
	}
	return g.err
}

func TestMustGuard(t *testing.T) {
	t.Parallel()

	MustGuard(context.Background(), fakeGuard{})

	v := testkit.MustPanic(t, func() { MustGuard(context.Background(), fakeGuard{err: errors.New("pg down")}) })
	if msg, _ := v.(string); !strings.Contains(msg, "pg down") {
		t.Fatalf("panic = %v", v)
	}
}
