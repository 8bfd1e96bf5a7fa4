package estimate

import (
	"math"

	"vdyp/internal/core/coefficients"
	perr "vdyp/internal/platform/errors"
)

// LowCrownClosure is the crown closure under which the yield equations are evaluated
// at this value and scaled back down
const LowCrownClosure = 10.0

// MinimumBaseArea guards later equations against underflow
const MinimumBaseArea = 0.05

// Stand describes a primary layer for the basal area and diameter yield equations
type Stand struct {
	Shares          []Share
	Bec             coefficients.BecDefinition
	Height          float64
	CrownClosure    float64
	BreastHeightAge float64
	OverstoryBA     float64
}

// weighted builds a coefficient row where the indices in idx are the fraction
// weighted sum over all shares and the rest come from the first share
func (e *Estimator) weighted(get func(bec, genus string) ([]float64, error), s Stand, idx []int) ([]float64, error) {
	bec := s.Bec.Decay()
	var out []float64
	for i, sh := range s.Shares {
		row, err := get(bec, sh.Genus)
		if err != nil {
			return nil, err
		}
		if i == 0 {
			out = make([]float64, len(row))
			copy(out, row)
			for _, j := range idx {
				out[j] = 0
			}
		}
		for _, j := range idx {
			out[j] += row[j] * sh.Fraction
		}
	}
	if out == nil {
		return nil, perr.Processingf("no species to weight coefficients over")
	}
	return out, nil
}

// PrimaryBaseArea is the yield of basal area (m2/ha, 7.5cm+) for a primary layer.
// crownClosure is the value to evaluate at; the layer's own crown closure decides the
// low crown closure adjustment. Values at or under MinimumBaseArea are a low value failure
func (e *Estimator) PrimaryBaseArea(s Stand, yieldFactor, crownClosure float64) (float64, error) {
	low := s.CrownClosure < LowCrownClosure
	if low {
		crownClosure = LowCrownClosure
	}

	c, err := e.weighted(e.coe.PrimaryBaseAreaCoe, s, []int{0, 1, 2, 3, 4, 5})
	if err != nil {
		return 0, err
	}
	ld := lead(s.Shares)

	trAge := math.Log(clamp(s.BreastHeightAge, 5, 350))
	a00 := math.Exp(c[0]) * (1 + c[1]*trAge)
	ap := math.Exp(c[3]) + math.Exp(c[4])*trAge

	var ba float64
	h := s.Height
	if h > c[2]-3 {
		var fh float64
		if h <= c[2]+3 {
			fh = math.Pow(h-(c[2]-3), 2) / 12
		} else {
			fh = h - c[2]
		}
		ba = a00 * math.Pow(crownClosure/100, c[7]+c[8]*math.Log(h)) * math.Pow(fh, ap) *
			math.Exp(c[5]*h+c[6]*s.OverstoryBA)

		ba *= e.coe.BaseAreaModifier(ld.Genus, s.Bec.Region)

		upper, err := e.coe.Upper(s.Bec.Region, ld.Genus)
		if err != nil {
			return 0, err
		}
		ba = math.Min(ba, upper.BaseArea)

		if low {
			ba *= s.CrownClosure / LowCrownClosure
		}
	}

	ba *= yieldFactor
	if ba <= MinimumBaseArea {
		return 0, perr.LowValue("Estimated base area", ba, MinimumBaseArea)
	}
	return ba, nil
}

// PrimaryQuadMeanDiameter is the yield of quadratic mean diameter (cm, 7.5cm+) for a primary layer
func (e *Estimator) PrimaryQuadMeanDiameter(s Stand) (float64, error) {
	c, err := e.weighted(e.coe.PrimaryQuadMeanDiameterCoe, s, []int{0, 1, 2, 3, 4})
	if err != nil {
		return 0, err
	}
	ld := lead(s.Shares)

	trAge := math.Log(clamp(s.BreastHeightAge, 5, 350))
	h := s.Height
	if h <= c[5] {
		return 7.6, nil
	}

	c1 := math.Exp(c[1]) + math.Exp(c[2])*trAge
	c2 := math.Exp(c[3]) + math.Exp(c[4])*trAge

	dq := c[0] + math.Pow(c1*math.Pow(h-c[5], c2), 2)*math.Exp(c[7]*s.OverstoryBA)*(1-c[6]*s.CrownClosure/100)
	dq *= e.coe.QuadMeanDiameterModifier(ld.Genus, s.Bec.Region)
	dq = math.Max(dq, 7.6)

	upper, err := e.coe.Upper(s.Bec.Region, ld.Genus)
	if err != nil {
		return 0, err
	}
	return math.Min(dq, upper.QuadMeanDiameter), nil
}
