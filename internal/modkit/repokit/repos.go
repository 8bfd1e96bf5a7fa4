// Package repokit holds the seams repositories are written against, so they bind to a
// pool or a transaction without importing a driver
package repokit

import (
	"context"
	"fmt"
	"time"

	"vdyp/internal/platform/store"
)

type (
	// Queryer is the read and write surface SQL repos bind to
	Queryer = store.RowQuerier
	// TxRunner runs a function inside a transaction
	TxRunner   = store.TxRunner
	Rows       = store.Rows
	Row        = store.Row
	CommandTag = store.CommandTag
)

// Binder builds a repo on top of a Queryer, the pool or a transaction
type Binder[T any] interface {
	Bind(Queryer) T
}

// BindFunc is a Binder written as a function
type BindFunc[T any] func(Queryer) T

func (f BindFunc[T]) Bind(q Queryer) T { return f(q) }

// MustBind binds b to q. A nil q is a wiring bug and panics
func MustBind[T any](b Binder[T], q Queryer) T {
	if q == nil {
		panic("repokit: bind on a nil Queryer")
	}
	return b.Bind(q)
}

// WithTx runs fn with b bound to one transaction of tx
func WithTx[T any](ctx context.Context, tx TxRunner, b Binder[T], fn func(T) error) error {
	return tx.Tx(ctx, func(q Queryer) error { return fn(MustBind(b, q)) })
}

// guardTimeout bounds MustGuard when ctx has no deadline
const guardTimeout = 5 * time.Second

// MustGuard panics unless every backend st holds answers a ping
func MustGuard(ctx context.Context, st interface{ Guard(context.Context) error }) {
	if _, ok := ctx.Deadline(); !ok {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, guardTimeout)
		defer cancel()
	}
	if err := st.Guard(ctx); err != nil {
		panic(fmt.Sprintf("repokit: stores are not ready: %v", err))
	}
}
