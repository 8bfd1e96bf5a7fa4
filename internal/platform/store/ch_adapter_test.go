package store

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"vdyp/internal/platform/store/ch"
)

type fakeCHRows struct {
	n      int
	closed bool
}

func (r *fakeCHRows) Next() bool             { r.n++; return r.n == 1 }
func (r *fakeCHRows) Scan(dest ...any) error { *dest[0].(*int32) = 1; return nil }
func (r *fakeCHRows) Err() error             { return nil }
func (r *fakeCHRows) Close() error           { r.closed = true; return nil }
func (r *fakeCHRows) Columns() []string      { return []string{"one"} }

type fakeCH struct {
	table   string
	rows    [][]any
	execs   []string
	result  *fakeCHRows
	pingErr error
	closed  bool
}

func (f *fakeCH) Insert(_ context.Context, table string, rows [][]any) error {
	f.table, f.rows = table, rows
	return nil
}
func (f *fakeCH) Exec(_ context.Context, sql string, _ ...any) error {
	f.execs = append(f.execs, sql)
	return nil
}
func (f *fakeCH) Query(context.Context, string, ...any) (ch.Rows, error) {
	if f.result == nil {
		return nil, errors.New("no server")
	}
	return f.result, nil
}
func (f *fakeCH) Ping(context.Context) error { return f.pingErr }
func (f *fakeCH) Close() error               { f.closed = true; return nil }

func TestCHStore_Delegates(t *testing.T) {
	f := &fakeCH{result: &fakeCHRows{}}
	var c Clickhouse = chStore{f}
	ctx := context.Background()

	rows := [][]any{{"run", 1.5}}
	if err := c.Insert(ctx, "fip_utilization", rows); err != nil {
		t.Fatal(err)
	}
	if f.table != "fip_utilization" || !reflect.DeepEqual(f.rows, rows) {
		t.Fatalf("insert not forwarded: %s %v", f.table, f.rows)
	}
	if err := c.Exec(ctx, "CREATE TABLE t"); err != nil || len(f.execs) != 1 {
		t.Fatalf("exec: %v %v", err, f.execs)
	}

	r, err := c.Query(ctx, "SELECT 1")
	if err != nil {
		t.Fatal(err)
	}
	var one int32
	if !r.Next() || r.Scan(&one) != nil || one != 1 || r.Columns()[0] != "one" {
		t.Fatalf("rows not wrapped")
	}
	r.Close()
	if !f.result.closed {
		t.Fatalf("close not forwarded")
	}

	if err := c.Close(); err != nil || !f.closed {
		t.Fatalf("close: %v", err)
	}
}

func TestCHStore_QueryError(t *testing.T) {
	if r, err := (chStore{&fakeCH{}}).Query(context.Background(), "SELECT 1"); err == nil || r != nil {
		t.Fatalf("want error and nil rows, got %v %v", r, err)
	}
}
