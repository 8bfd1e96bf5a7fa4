package store

import (
	"context"
	"time"

	perr "vdyp/internal/platform/errors"
	"vdyp/internal/platform/logger"
	chx "vdyp/internal/platform/store/ch"
	"vdyp/internal/platform/store/pg"
)

const (
	defaultConnectRetries = 20
	defaultPingTimeout    = 3 * time.Second
	firstBackoff          = 150 * time.Millisecond
	maxBackoff            = 2 * time.Second
)

// openPG builds the pool and waits for postgres to answer, so a store that opens is
// one a run can write to
func openPG(ctx context.Context, cfg Config, log logger.Logger) (TxRunner, error) {
	pc := pg.Config{
		URL:      cfg.PG.URL,
		MaxConns: cfg.PG.MaxConns,
		AppName:  appName(cfg),
		Slow:     time.Duration(cfg.PG.SlowQueryMs) * time.Millisecond,
	}
	if cfg.PG.LogSQL {
		pc.Tracer = pg.Tracer(log)
	}
	p, err := pg.Open(ctx, pc)
	if err != nil {
		return nil, err
	}

	attempts := cfg.PG.ConnectRetries
	if attempts <= 0 {
		attempts = defaultConnectRetries
	}
	timeout := cfg.PG.PingTimeout
	if timeout <= 0 {
		timeout = defaultPingTimeout
	}

	// ping the pool itself; startup probes stay out of the sql trace
	backoff := firstBackoff
	for attempt := 1; ; attempt++ {
		pctx, cancel := context.WithTimeout(ctx, timeout)
		err = p.Pool.Ping(pctx)
		cancel()
		if err == nil {
			return newPGStore(p), nil
		}
		if attempt == attempts {
			break
		}
		log.Debug().Err(err).Int("attempt", attempt).Msg("postgres not ready")
		select {
		case <-ctx.Done():
			p.Close()
			return nil, ctx.Err()
		case <-time.After(backoff):
		}
		backoff = min(backoff*2, maxBackoff)
	}
	p.Close()
	return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "postgres did not answer after %d attempts", attempts)
}

// appName is the postgres application_name, vdyp-<role>
func appName(cfg Config) string {
	if cfg.AppName == "" {
		return "vdyp"
	}
	return "vdyp-" + cfg.AppName
}

func openCH(ctx context.Context, cfg Config) (Clickhouse, error) {
	c, err := chx.Open(ctx, chx.Config{URL: cfg.CH.URL, Role: cfg.AppName, Tag: cfg.Version})
	if err != nil {
		return nil, err
	}
	return chStore{c}, nil
}
