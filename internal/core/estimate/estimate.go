// Package estimate implements the empirical stand equations: yield of basal area
// and diameter, Lorey heights, per-species diameter, the split of a species into
// diameter classes, and the volume chain from whole stem down to net of breakage.
//
// Estimators read their coefficients from a coefficients.Tables and hold no other
// state, so one Estimator may be shared by concurrent workers.
package estimate

import (
	"math"

	"vdyp/internal/core/coefficients"
	perr "vdyp/internal/platform/errors"
)

// Estimator evaluates the empirical equations against one coefficient set
type Estimator struct {
	coe *coefficients.Tables
}

// New returns an Estimator over t
func New(t *coefficients.Tables) *Estimator {
	return &Estimator{coe: t}
}

// Tables exposes the coefficient set
func (e *Estimator) Tables() *coefficients.Tables { return e.coe }

// Share is a genus with its fraction of the layer
type Share struct {
	Genus    string
	Fraction float64
}

// lead returns the share with the largest fraction; the first wins a tie
func lead(shares []Share) Share {
	best := shares[0]
	for _, s := range shares[1:] {
		if s.Fraction > best.Fraction {
			best = s
		}
	}
	return best
}

func clamp(x, lo, hi float64) float64 {
	return math.Min(math.Max(x, lo), hi)
}

func logistic(x float64) float64 {
	e := math.Exp(x)
	return e / (1 + e)
}

// safeExp refuses arguments large enough to overflow single precision in the legacy model
func safeExp(logit float64) (float64, error) {
	if logit > 88 {
		return 0, perr.Processingf("logit %g exceeds 88", logit)
	}
	return math.Exp(logit), nil
}

func expRatio(logit float64) (float64, error) {
	x, err := safeExp(logit)
	if err != nil {
		return 0, err
	}
	return x / (1 + x), nil
}

// ratio is a logistic saturated to 0 and 1 outside [-r, r]
func ratio(arg, r float64) float64 {
	if arg < -r {
		return 0
	}
	if arg > r {
		return 1
	}
	return logistic(arg)
}
