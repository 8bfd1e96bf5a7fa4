package modkit

import (
	"vdyp/internal/core/coefficients"
	"vdyp/internal/modkit/repokit"
	"vdyp/internal/platform/config"
	"vdyp/internal/platform/store"
)

// Deps holds what modules share. PG, CH and Tables may be nil; modules that need
// them report unavailable
type Deps struct {
	Cfg    config.Conf
	PG     repokit.TxRunner
	CH     store.Clickhouse
	Tables *coefficients.Tables
}
