// Package store opens the optional result backends: a postgres pool behind TxRunner
// and a clickhouse client behind Clickhouse. Either may be absent
package store

import (
	"context"
	"errors"

	perr "vdyp/internal/platform/errors"
	"vdyp/internal/platform/logger"
)

// Store holds the open backends. A disabled backend is a nil interface
type Store struct {
	Log logger.Logger
	PG  TxRunner
	CH  Clickhouse
}

// Option configures Open
type Option func(*Store)

// WithLogger sets the logger the backends report through. The default is silent
func WithLogger(log logger.Logger) Option {
	return func(s *Store) { s.Log = log }
}

// Open opens every backend enabled in cfg. When one fails the ones already open are closed
func Open(ctx context.Context, cfg Config, opts ...Option) (*Store, error) {
	s := &Store{}
	for _, o := range opts {
		o(s)
	}
	s.Log = s.Log.With().Str("component", "store").Logger()

	if cfg.PG.Enabled {
		db, err := openPG(ctx, cfg, s.Log)
		if err != nil {
			return nil, err
		}
		s.PG = db
	}
	if cfg.CH.Enabled {
		c, err := openCH(ctx, cfg)
		if err != nil {
			_ = s.Close(ctx)
			return nil, err
		}
		s.CH = c
	}

	s.Log.Info().Bool("postgres", s.PG != nil).Bool("clickhouse", s.CH != nil).Msg("store open")
	return s, nil
}

// Enabled reports whether any backend is open
func (s *Store) Enabled() bool { return s != nil && (s.PG != nil || s.CH != nil) }

type backend struct {
	name string
	seam any
}

func (s *Store) backends() []backend {
	var out []backend
	if s.PG != nil {
		out = append(out, backend{"postgres", s.PG})
	}
	if s.CH != nil {
		out = append(out, backend{"clickhouse", s.CH})
	}
	return out
}

// Guard pings every open backend that can be pinged. Failures come back joined, each
// coded Unavailable and prefixed with the backend name
func (s *Store) Guard(ctx context.Context) error {
	if s == nil {
		return perr.Configf("store is not open")
	}
	var errs []error
	for _, b := range s.backends() {
		p, ok := b.seam.(Pinger)
		if !ok {
			continue
		}
		if err := p.Ping(ctx); err != nil {
			errs = append(errs, perr.Wrap(err, perr.ErrorCodeUnavailable, b.name))
		}
	}
	return errors.Join(errs...)
}

// Close closes the open backends, last opened first
func (s *Store) Close(ctx context.Context) error {
	if s == nil {
		return nil
	}
	bs := s.backends()
	var errs []error
	for i := len(bs) - 1; i >= 0; i-- {
		c, ok := bs[i].seam.(interface{ Close() error })
		if !ok {
			continue
		}
		if err := c.Close(); err != nil {
			s.Log.Warn().Err(err).Str("backend", bs[i].name).Msg("close failed")
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
