package estimate

import (
	"math"

	"vdyp/internal/core/utilization"
	perr "vdyp/internal/platform/errors"
)

// ReconcileComponents adjusts the band basal area, density and diameter of a species so the
// bands agree with the All values and each band diameter lies within its class bounds
func ReconcileComponents(ba, tph, dq *utilization.Vector) error {
	if ba.All() == 0 {
		for _, c := range utilization.Bands {
			tph.Set(c, 0)
			ba.Set(c, 0)
		}
		return nil
	}

	baSum := ba.BandSum()
	if math.Abs(baSum-ba.All())/baSum > 0.00003 {
		return perr.Processingf("Computed base areas for 7.5+ components do not sum to expected total")
	}
	if utilization.QuadMeanDiameter(ba.All(), tph.All()) < 7.5 {
		return perr.Processingf("Quadratic mean diameter computed from total base area and trees per hectare is less than 7.5 cm")
	}

	// density if every band held trees at its lower bound
	var tphHigh float64
	for _, c := range utilization.Bands {
		tphHigh += utilization.TreesPerHectare(ba.Get(c), c.LowBound())
	}

	if tphHigh < tph.All() {
		reconcileShiftDown(ba, tph, dq, tphHigh)
		return nil
	}
	if !reconciled(ba, tph, dq) {
		return reconcileScale(ba, tph, dq)
	}
	return nil
}

// reconcileShiftDown handles a stand with more trees than its bands can hold: every band
// goes to its lower bound and basal area moves down from the largest bands
func reconcileShiftDown(ba, tph, dq *utilization.Vector, tphHigh float64) {
	need := tph.All() - tphHigh

	for _, c := range utilization.Bands {
		dq.Set(c, c.LowBound())
	}
	for _, c := range []utilization.Class{utilization.Over225, utilization.U175To225, utilization.U125To175} {
		prev, _ := c.Previous()
		avail := utilization.TreesPerHectare(ba.Get(c), prev.LowBound()) - utilization.TreesPerHectare(ba.Get(c), c.LowBound())
		if avail < need {
			ba.Set(prev, ba.Get(prev)+ba.Get(c))
			ba.Set(c, 0)
			need -= avail
			continue
		}
		move := ba.Get(c) * need / avail
		ba.Set(prev, ba.Get(prev)+move)
		ba.Set(c, ba.Get(c)-move)
		break
	}
	for _, c := range utilization.Bands {
		tph.Set(c, utilization.TreesPerHectare(ba.Get(c), dq.Get(c)))
	}
}

// reconciled reports whether the bands already agree closely enough to skip scaling
func reconciled(ba, tph, dq *utilization.Vector) bool {
	tphSum := tph.BandSum()
	if math.Abs(tphSum-tph.All())/tphSum > 0.00001 {
		return false
	}
	for _, c := range utilization.Bands {
		if ba.Get(c) <= 0 {
			continue
		}
		if tph.Get(c) <= 0 {
			return false
		}
		want := utilization.QuadMeanDiameter(ba.Get(c), tph.Get(c))
		got := dq.Get(c)
		if got >= c.LowBound() && got <= c.HighBound() && math.Abs(want-got) < 0.00001 {
			return true
		}
	}
	return true
}

// reconcileScale scales the free band diameters by a common factor, pinning the worst
// out of bounds band to its bound on each pass
func reconcileScale(ba, tph, dq *utilization.Vector) error {
	var (
		baFixed, tphFixed float64
		limited           [6]bool
		trial             utilization.Vector
	)

	for n := 1; ; n++ {
		if n > 4 {
			return perr.Processingf("Mode 2 component reconciliation iterations exceeded 4")
		}

		var sum float64
		for _, c := range utilization.Bands {
			if b := ba.Get(c); b != 0 && !limited[c.Index()] {
				sum += b / (dq.Get(c) * dq.Get(c))
			}
		}

		baAll := ba.All() - baFixed
		tphAll := tph.All() - tphFixed
		if baAll <= 0 || tphAll <= 0 {
			reconcileSingleClass(ba, tph, dq)
			return nil
		}

		dqAll := utilization.QuadMeanDiameter(baAll, tphAll)
		k := math.Sqrt(dqAll * dqAll / baAll * sum)
		for _, c := range utilization.Bands {
			if !limited[c.Index()] && ba.Get(c) > 0 {
				trial.Set(c, dq.Get(c)*k)
			}
		}

		var (
			worst    utilization.Class
			violate  float64
			found    bool
			worstLow bool
		)
		for _, c := range utilization.Bands {
			t := trial.Get(c)
			if ba.Get(c) > 0 && t < c.LowBound() {
				if v := 1 - t/c.LowBound(); v > violate {
					violate, worst, worstLow, found = v, c, true, true
				}
			}
			if t > c.HighBound() {
				if v := t/c.HighBound() - 1; v > violate {
					violate, worst, worstLow, found = v, c, false, true
				}
			}
		}
		if !found {
			break
		}

		if worstLow {
			trial.Set(worst, worst.LowBound())
		} else {
			trial.Set(worst, worst.HighBound())
		}
		limited[worst.Index()] = true
		baFixed += ba.Get(worst)
		tphFixed += utilization.TreesPerHectare(ba.Get(worst), trial.Get(worst))
	}

	for _, c := range utilization.Bands {
		dq.Set(c, trial.Get(c))
		tph.Set(c, utilization.TreesPerHectare(ba.Get(c), dq.Get(c)))
	}

	baSum := ba.BandSum()
	tphSum := tph.BandSum()
	if math.Abs(baSum-ba.All())/baSum > 0.0002 {
		return perr.Processingf("Failed to reconcile Base Area")
	}
	if math.Abs(tphSum-tph.All())/tphSum > 0.0002 {
		return perr.Processingf("Failed to reconcile Trees per Hectare")
	}
	return nil
}

// reconcileSingleClass puts the whole stand in the one band its diameter falls in
func reconcileSingleClass(ba, tph, dq *utilization.Vector) {
	for _, c := range utilization.Bands {
		ba.Set(c, 0)
		tph.Set(c, 0)
		dq.Set(c, c.LowBound()+2.5)
	}
	for _, c := range utilization.Bands {
		if dq.All() < c.HighBound() {
			ba.Set(c, ba.All())
			tph.Set(c, tph.All())
			dq.Set(c, dq.All())
			return
		}
	}
}
