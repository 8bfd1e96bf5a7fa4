package estimate

import (
	"math"

	"vdyp/internal/core/coefficients"
	"vdyp/internal/core/utilization"
	perr "vdyp/internal/platform/errors"
)

// MeanVolume is the whole stem volume of the mean tree (m3) for a volume group (EMP090)
func (e *Estimator) MeanVolume(volumeGroup int, loreyHeight, qmd float64) (float64, error) {
	c, err := e.coe.MeanVolumeCoe(volumeGroup)
	if err != nil {
		return 0, err
	}
	hl, dq := loreyHeight, qmd
	return math.Exp(c[0] +
		c[1]*math.Log(dq) +
		c[2]*math.Log(hl) +
		c[3]*dq +
		c[4]/dq +
		c[5]*hl +
		c[6]*dq*dq +
		c[7]*hl*dq +
		c[8]*hl/dq), nil
}

type bandFunc func(c utilization.Class, in float64) (float64, error)

// eachBand maps in to out for every band that class selects (All selects every band).
// skip is evaluated before the class filter, so a skipped band is zeroed even when not selected
func eachBand(in, out *utilization.Vector, class utilization.Class, skip func(float64) bool, fn bandFunc) error {
	for _, c := range utilization.Bands {
		x := in.Get(c)
		if skip != nil && skip(x) {
			out.Set(c, 0)
			continue
		}
		if class != utilization.All && class != c {
			continue
		}
		y, err := fn(c, x)
		if err != nil {
			return err
		}
		out.Set(c, y)
	}
	return nil
}

// WholeStemVolume estimates whole stem volume by band from basal area (EMP091). When class
// is All the bands are scaled to sum to the existing All value. adjust applies only to class
func (e *Estimator) WholeStemVolume(class utilization.Class, adjust float64, volumeGroup int, loreyHeight float64, dq, ba, ws *utilization.Vector) error {
	dqSp := dq.All()
	err := eachBand(ba, ws, class, func(x float64) bool { return x <= 0 }, func(c utilization.Class, b float64) (float64, error) {
		a, err := e.coe.WholeStemByClassCoe(int(c), volumeGroup)
		if err != nil {
			return 0, err
		}
		arg := a[0] + a[1]*math.Log(loreyHeight) + a[2]*math.Log(dq.Get(c))
		if c != utilization.Over225 {
			arg += a[3] * math.Log(dqSp)
		} else {
			arg += a[3] * dqSp
		}
		if c == class {
			arg += adjust
		}
		return b * math.Exp(arg), nil
	})
	if err != nil {
		return err
	}
	if class == utilization.All {
		sum := ws.BandSum()
		if sum <= 0 {
			return perr.Processingf("Total volume %g was not positive.", sum)
		}
		k := ws.All() / sum
		for _, c := range utilization.Bands {
			ws.Set(c, ws.Get(c)*k)
		}
	}
	return nil
}

func storeSum(v *utilization.Vector, class utilization.Class) {
	if class == utilization.All {
		v.SetAll(v.BandSum())
	}
}

// CloseUtilizationVolume estimates close utilization volume by band (EMP092)
func (e *Estimator) CloseUtilizationVolume(class utilization.Class, adjust *utilization.Vector, volumeGroup int, loreyHeight float64, dq, ws, cu *utilization.Vector) error {
	err := eachBand(ws, cu, class, nil, func(c utilization.Class, w float64) (float64, error) {
		a, err := e.coe.CloseUtilizationCoe(int(c), volumeGroup)
		if err != nil {
			return 0, err
		}
		arg := a[0] + a[1]*dq.Get(c) + a[2]*loreyHeight + adjust.Get(c)
		return w * ratio(arg, 7), nil
	})
	if err != nil {
		return err
	}
	storeSum(cu, class)
	return nil
}

// NetDecayVolume estimates close utilization volume net of decay by band (EMP093)
func (e *Estimator) NetDecayVolume(genus string, region coefficients.Region, class utilization.Class, adjust *utilization.Vector, decayGroup int, breastHeightAge float64, dq, cu, nd *utilization.Vector) error {
	dqSp := dq.All()
	ageTr := math.Log(math.Max(20, breastHeightAge))
	mod := e.coe.DecayModifier(genus, region)

	err := eachBand(cu, nd, class, nil, func(c utilization.Class, v float64) (float64, error) {
		a, err := e.coe.NetDecayCoe(int(c), decayGroup)
		if err != nil {
			return 0, err
		}
		d := dqSp
		if c == utilization.Over225 {
			d = dq.Get(c)
		}
		arg := a[0] + a[1]*math.Log(d) + a[2]*ageTr + adjust.Get(c) + mod
		return v * ratio(arg, 8), nil
	})
	if err != nil {
		return err
	}
	storeSum(nd, class)
	return nil
}

// NetDecayWasteVolume estimates close utilization volume net of decay and waste by band (EMP094)
func (e *Estimator) NetDecayWasteVolume(region coefficients.Region, class utilization.Class, adjust *utilization.Vector, genus string, loreyHeight float64, dq, cu, nd, nw *utilization.Vector) error {
	a, err := e.coe.NetWasteCoe(genus)
	if err != nil {
		return err
	}
	mod := e.coe.WasteModifier(genus, region)

	err = eachBand(nd, nw, class, nil, func(c utilization.Class, netDecay float64) (float64, error) {
		if math.IsNaN(netDecay) || netDecay <= 0 {
			return 0, nil
		}
		a0 := a[0]
		if c == utilization.Over225 {
			a0 += a[5]
		}
		frd := 1 - netDecay/cu.Get(c)
		arg := clamp(a0+a[1]*frd+a[3]*math.Log(dq.Get(c))+a[4]*math.Log(loreyHeight)+mod, -10, 10)

		frw := math.Min(frd, (1-math.Exp(a[2]*frd))*logistic(arg)*(1-frd))
		result := cu.Get(c) * (1 - frd - frw)

		// adjustments act on the logit of the net to net-of-decay ratio
		if adj := adjust.Get(c); adj != 0 {
			if r := result / netDecay; r > 0 && r < 1 {
				result = logistic(clamp(math.Log(r/(1-r))+adj, -10, 10)) * netDecay
			}
		}
		return result, nil
	})
	if err != nil {
		return err
	}
	storeSum(nw, class)
	return nil
}

// NetDecayWasteBreakageVolume estimates close utilization volume net of decay, waste and
// breakage by band (EMP095)
func (e *Estimator) NetDecayWasteBreakageVolume(class utilization.Class, breakageGroup int, dq, cu, nw, nb *utilization.Vector) error {
	a, err := e.coe.NetBreakageCoe(breakageGroup)
	if err != nil {
		return err
	}
	err = eachBand(nw, nb, class, nil, func(c utilization.Class, netWaste float64) (float64, error) {
		if netWaste <= 0 {
			return 0, nil
		}
		pct := clamp(a[0]+a[1]*math.Log(dq.Get(c)), a[2], a[3])
		return netWaste - math.Min(pct/100*cu.Get(c), netWaste), nil
	})
	if err != nil {
		return err
	}
	storeSum(nb, class)
	return nil
}
