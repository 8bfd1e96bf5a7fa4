// Package service implements the fip service: per polygon validation, veteran and
// primary layer reconciliation, and the batch runner
package service

import (
	"context"

	"vdyp/internal/core/coefficients"
	"vdyp/internal/core/estimate"
	"vdyp/internal/core/reconcile"
	perr "vdyp/internal/platform/errors"
	"vdyp/internal/platform/logger"
	dom "vdyp/internal/services/fip/domain"
)

// Config for the fip service
type Config struct {
	Workers int
	// Minima overrides the thresholds carried by the coefficient tables
	Minima *coefficients.Minima
	Solver reconcile.Options
	DryRun bool
}

// Service implements domain.ProcessorPort and domain.RunnerPort
type Service struct {
	est    *estimate.Estimator
	minima coefficients.Minima
	Cfg    Config
}

// New constructs a new fip service
func New(est *estimate.Estimator, cfg Config) *Service {
	w := cfg.Workers
	if w <= 0 {
		w = 1
	}
	minima := est.Tables().Minima
	if cfg.Minima != nil {
		minima = *cfg.Minima
	}
	cfg.Workers = w
	return &Service{est: est, minima: minima, Cfg: cfg}
}

// Minima returns the thresholds in effect
func (s *Service) Minima() coefficients.Minima { return s.minima }

// ProcessPolygon validates and reconciles one polygon. Validation, low value and
// processing failures come back as StatusRejected. A rejected result whose Err is not
// a polygon fault (configuration, cancellation) must stop the caller
func (s *Service) ProcessPolygon(ctx context.Context, index int, p *dom.InputPolygon) dom.Result {
	ctx = logger.WithPolygon(ctx, p.ID.String())
	log := logger.C(ctx)

	mode := p.Mode
	if mode == dom.ModeUnset {
		mode = dom.ModeStart
	}
	if mode != dom.ModeStart && mode != dom.ModeYoung {
		log.Info().Str("mode", mode.String()).Msg("skipping polygon with mode")
		return dom.Skipped(index, p.ID, "mode "+mode.String())
	}

	out, err := s.process(ctx, p, mode)
	if err != nil {
		return dom.Rejected(index, p.ID, err)
	}
	return dom.Ok(index, out)
}

func (s *Service) process(ctx context.Context, p *dom.InputPolygon, mode dom.Mode) (*dom.OutputPolygon, error) {
	bec, ok := s.est.Tables().Bec(p.BEC)
	if !ok {
		return nil, perr.Validationf("Polygon %s has unknown biogeoclimatic zone %s.", p.ID, p.BEC)
	}
	if err := s.CheckPolygon(p); err != nil {
		return nil, err
	}

	out := &dom.OutputPolygon{
		ID:                  p.ID,
		BEC:                 bec,
		ForestInventoryZone: p.ForestInventoryZone,
		Mode:                mode,
		Layers:              make(map[dom.LayerType]*dom.OutputLayer, 2),
	}

	var overstory float64
	if vet, ok := present(p, dom.LayerVeteran); ok {
		vl, err := s.ProcessVeteran(bec, vet)
		if err != nil {
			return nil, err
		}
		out.Layers[dom.LayerVeteran] = vl
		overstory = vl.BaseArea.All()
	}

	primaryIn, _ := present(p, dom.LayerPrimary)
	primary, err := s.ProcessPrimary(ctx, p, bec, primaryIn, overstory)
	if err != nil {
		return nil, err
	}
	out.Layers[dom.LayerPrimary] = primary

	pct, err := s.EstimatePercentForestLand(p, bec)
	if err != nil {
		return nil, err
	}
	out.PercentAvailable = pct

	ba := primary.BaseArea.All()
	if ba < s.minima.BaseArea {
		return nil, perr.LowValue("Base area", ba, s.minima.BaseArea)
	}
	if pct > 0 {
		if predicted := ba * 100 / pct; predicted < s.minima.FullyStockedArea {
			return nil, perr.LowValue("Predicted base area", predicted, s.minima.FullyStockedArea)
		}
	}

	s.AdjustForStocking(primary, primaryIn, bec)
	return out, nil
}
