package service

import (
	"context"
	"math"

	"vdyp/internal/core/coefficients"
	"vdyp/internal/core/estimate"
	"vdyp/internal/core/reconcile"
	"vdyp/internal/core/utilization"
	perr "vdyp/internal/platform/errors"
	"vdyp/internal/platform/logger"
	dom "vdyp/internal/services/fip/domain"
)

const (
	// primary species may be this much taller than the species limit
	primaryHeightAllowance = 1.5
	// relative mismatch allowed between the layer density and the sum over species
	densityTolerance = 0.002
	// allowed difference between a species share of volume and its target share
	volumeShareTolerance = 0.1
)

// Fraction sources for weighting species when estimating their diameters
const (
	sourcePercent = 1 + iota
	sourcePercentPerHeight
	sourceBaseArea
)

// speciesDiameter places a species diameter between the 7.5cm bound and its base
// diameter, shifted by the solver's last unknown
func speciesDiameter(base, shift float64) float64 {
	low := utilization.U75To125.LowBound()
	return low + (base-low)*math.Exp(shift/20)
}

// rootResiduals is the forward model of the diameter and basal area reconciliation.
// x holds the percents of all but the last species and the diameter shift. The result
// holds each species share of whole stem volume (percent) followed by the layer diameter
func (s *Service) rootResiduals(l *dom.OutputLayer, dqBase []float64) reconcile.Func {
	return func(x []float64) ([]float64, error) {
		n := len(x)
		layerBA := l.BaseArea.All()

		var pctSum float64
		for _, p := range x[:n-1] {
			pctSum += p
		}

		vols := make([]float64, n)
		var volSum, tphSum float64
		for j, sp := range l.Species {
			pct := 100 - pctSum
			if j < n-1 {
				pct = x[j]
			}
			dq := speciesDiameter(dqBase[j], x[n-1])
			tph := utilization.TreesPerHectare(layerBA*pct/100, dq)
			mv, err := s.est.MeanVolume(sp.VolumeGroup, sp.LoreyHeight.All(), dq)
			if err != nil {
				return nil, err
			}
			vols[j] = tph * mv
			volSum += vols[j]
			tphSum += tph
		}
		if volSum <= 0 || math.IsNaN(volSum) || math.IsInf(volSum, 0) {
			return nil, perr.Processingf("species volumes sum to %g", volSum)
		}

		y := make([]float64, n)
		for j := range vols {
			y[j] = 100 * vols[j] / volSum
		}
		y[n-1] = utilization.QuadMeanDiameter(layerBA, tphSum)
		return y, nil
	}
}

// findRootsForDiameterAndBaseArea splits the layer basal area, density and diameter
// over its species so that each species share of whole stem volume matches its input
// percent and the species densities add up to the layer density
func (s *Service) findRootsForDiameterAndBaseArea(ctx context.Context, l *dom.OutputLayer, bec coefficients.BecDefinition, source int) error {
	dqTotal := l.QuadMeanDiameter.All()
	baTotal := l.BaseArea.All()
	tphTotal := l.TreesPerHectare.All()

	var tphSum float64
	var targets []float64

	if len(l.Species) == 1 {
		sp := l.Species[0]
		for _, sel := range utilization.NonVolumeSelectors {
			sel.Of(&sp.Holder).SetAll(sel.Of(&l.Holder).All())
		}
		l.LoreyHeight.SetAll(sp.LoreyHeight.All())
		sp.PercentGenus = 100
		tphSum = tphTotal
	} else {
		for _, sp := range l.Species {
			limits, err := s.est.Tables().Limits(sp.Genus, bec.Region)
			if err != nil {
				return err
			}
			hMax := limits.LoreyHeightMaximum
			if sp.Genus == l.PrimaryGenus {
				hMax *= primaryHeightAllowance
			}
			sp.LoreyHeight.SetAll(math.Min(sp.LoreyHeight.All(), hMax))
		}

		weight, err := fractionSource(source)
		if err != nil {
			return err
		}
		var sourceSum float64
		for _, sp := range l.Species {
			sourceSum += weight(sp)
		}
		shares := make([]estimate.Share, len(l.Species))
		var hlTotal float64
		for i, sp := range l.Species {
			sp.FractionGenus = weight(sp) / sourceSum
			shares[i] = estimate.Share{Genus: sp.Genus, Fraction: sp.FractionGenus}
			hlTotal += sp.FractionGenus * sp.LoreyHeight.All()
		}

		totals := estimate.StandTotals{
			QuadMeanDiameter: dqTotal,
			BaseArea:         baTotal,
			TreesPerHectare:  tphTotal,
			LoreyHeight:      hlTotal,
		}
		dqBase := make([]float64, len(l.Species))
		for i, sp := range l.Species {
			dqBase[i], err = s.est.SpeciesQuadMeanDiameter(shares[i], sp.LoreyHeight.All(), shares, bec.Region, totals)
			if err != nil {
				return err
			}
		}

		n := len(l.Species)
		goal := make([]float64, n)
		x0 := make([]float64, n)
		targets = make([]float64, n)
		var targetSum float64
		for i, sp := range l.Species[:n-1] {
			goal[i] = sp.PercentGenus
			x0[i] = sp.PercentGenus
			targets[i] = sp.PercentGenus
			targetSum += sp.PercentGenus
		}
		goal[n-1] = dqTotal
		targets[n-1] = 100 - targetSum

		opt := s.Cfg.Solver
		if opt.Trace == nil {
			log := logger.C(ctx)
			opt.Trace = func(it int, cost float64, x []float64) {
				log.Trace().Int("iteration", it).Float64("cost", cost).Floats64("x", x).Msg("reconcile step")
			}
		}
		res, err := reconcile.Solve(ctx, s.rootResiduals(l, dqBase), goal, x0, opt)
		if err != nil {
			return err
		}

		shift := res.X[n-1]
		var pctSum, hlSum float64
		for i, sp := range l.Species {
			if i < n-1 {
				sp.PercentGenus = res.X[i]
				pctSum += res.X[i]
			} else {
				sp.PercentGenus = 100 - pctSum
			}
			dq := speciesDiameter(dqBase[i], shift)
			ba := baTotal * sp.PercentGenus / 100
			tph := utilization.TreesPerHectare(ba, dq)
			sp.QuadMeanDiameter.SetAll(dq)
			sp.BaseArea.SetAll(ba)
			sp.TreesPerHectare.SetAll(tph)
			tphSum += tph
			hlSum += sp.LoreyHeight.All() * ba
		}
		l.LoreyHeight.SetAll(hlSum / baTotal)
	}

	var volSum float64
	for _, sp := range l.Species {
		mv, err := s.est.MeanVolume(sp.VolumeGroup, sp.LoreyHeight.All(), sp.QuadMeanDiameter.All())
		if err != nil {
			return err
		}
		ws := sp.TreesPerHectare.All() * mv
		sp.WholeStemVolume.SetAll(ws)
		volSum += ws
	}
	l.WholeStemVolume.SetAll(volSum)

	tphStart := l.TreesPerHectare.All()
	l.TreesPerHectare.SetAll(tphSum)
	l.QuadMeanDiameter.SetAll(utilization.QuadMeanDiameter(l.BaseArea.All(), tphSum))
	return checkReconciled(l, tphStart, targets)
}

// checkReconciled compares the reconciled layer density with tphStart and, for mixed
// layers, each species share of whole stem volume with its target percent
func checkReconciled(l *dom.OutputLayer, tphStart float64, targets []float64) error {
	tphSum := l.TreesPerHectare.All()
	if tphSum <= 0 || math.Abs(tphStart/tphSum-1) > densityTolerance {
		return perr.Processingf("%s layer species densities sum to %.2f, expected %.2f", l.Type, tphSum, tphStart)
	}
	if len(l.Species) < 2 {
		return nil
	}
	volSum := l.WholeStemVolume.All()
	for i, sp := range l.Species {
		share := sp.WholeStemVolume.All() / volSum
		if math.Abs(share-targets[i]/100) > volumeShareTolerance {
			return perr.Processingf("%s layer species %s has %.1f%% of volume, expected %.1f%%", l.Type, sp.Genus, 100*share, targets[i])
		}
	}
	return nil
}

// fractionSource picks what species are weighted by when estimating their diameters
func fractionSource(source int) (func(*dom.OutputSpecies) float64, error) {
	switch source {
	case sourcePercent:
		return func(sp *dom.OutputSpecies) float64 { return sp.PercentGenus }, nil
	case sourcePercentPerHeight:
		return func(sp *dom.OutputSpecies) float64 { return sp.PercentGenus / sp.LoreyHeight.All() }, nil
	case sourceBaseArea:
		return func(sp *dom.OutputSpecies) float64 { return sp.BaseArea.All() }, nil
	}
	return nil, perr.Processingf("Unknown source for root finding %d", source)
}
