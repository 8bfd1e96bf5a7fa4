package estimate

import (
	"math"

	"vdyp/internal/core/coefficients"
	"vdyp/internal/core/utilization"
	perr "vdyp/internal/platform/errors"
)

// basal area of one tree of 1cm diameter per the density equation, in m2 times 1/(cm2)
const tphConstant = 0.00441786467

// StandTotals are the 7.5cm+ layer values a species diameter is estimated against
type StandTotals struct {
	QuadMeanDiameter float64
	BaseArea         float64
	TreesPerHectare  float64
	LoreyHeight      float64
}

// SpeciesQuadMeanDiameter is the starting diameter of one species in a mixed layer,
// clamped to the species size limits
func (e *Estimator) SpeciesQuadMeanDiameter(sp Share, loreyHeight float64, shares []Share, region coefficients.Region, stand StandTotals) (float64, error) {
	limits, err := e.coe.Limits(sp.Genus, region)
	if err != nil {
		return 0, err
	}
	dq, err := e.quadMeanDiameterForSpecies(sp, loreyHeight, shares, limits, stand)
	if err != nil {
		return 0, err
	}
	lo := limits.MinDiameterHeightRatio * loreyHeight
	hi := math.Max(limits.QuadMeanDiameterMaximum, limits.MaxDiameterHeightRatio*loreyHeight)
	return clamp(dq, lo, hi), nil
}

func (e *Estimator) quadMeanDiameterForSpecies(sp Share, hlSp float64, shares []Share, limits coefficients.SizeLimits, stand StandTotals) (float64, error) {
	minDQ := math.Min(7.6, stand.QuadMeanDiameter)
	if sp.Fraction >= 1 || stand.QuadMeanDiameter < minDQ {
		return stand.QuadMeanDiameter, nil
	}

	fraction := make(map[string]float64, len(shares))
	for _, s := range shares {
		fraction[s.Genus] = s.Fraction
	}
	rest := 1 - sp.Fraction

	// coefficients are a contrast over the whole genus list, anchored on the first genus
	aliases := e.coe.GenusAliases()
	first, err := e.coe.SpeciesQuadMeanDiameterCoe(aliases[0])
	if err != nil {
		return 0, err
	}
	a0, a1, a2 := first[0], first[1], first[2]
	for _, g := range aliases[1:] {
		var mult float64
		switch {
		case g == sp.Genus:
			mult = 1
		case fraction[g] > 0:
			mult = -fraction[g] / rest
		default:
			continue
		}
		c, err := e.coe.SpeciesQuadMeanDiameterCoe(g)
		if err != nil {
			return 0, err
		}
		a0 += mult * c[0]
		if g == sp.Genus {
			a1 += mult * c[1]
		} else {
			a1 -= mult * c[1]
		}
	}

	hl1 := math.Max(4, hlSp)
	hl2 := (stand.LoreyHeight - hlSp*sp.Fraction) / rest
	hlRatio := clamp((hl1-3)/(hl2-3), 0.05, 20)

	r := math.Exp(a0 + a1*math.Log(hlRatio) + a2*math.Log(stand.QuadMeanDiameter))

	ba1 := sp.Fraction * stand.BaseArea
	ba2 := stand.BaseArea - ba1
	tphAll := stand.TreesPerHectare

	var tph1 float64
	if math.Abs(r-1) < 0.0005 {
		tph1 = sp.Fraction * tphAll
	} else {
		aa := (r - 1) * tphConstant
		bb := tphConstant*(1-r)*tphAll + ba1 + ba2*r
		cc := -ba1 * tphAll
		term := bb*bb - 4*aa*cc
		if term <= 0 {
			return 0, perr.Processingf(
				"Term for trees per hectare calculation when estimating quadratic mean diameter for species %s was %g but should be positive.",
				sp.Genus, term)
		}
		tph1 = (-bb + math.Sqrt(term)) / (2 * aa)
		if tph1 <= 0 || tph1 > tphAll {
			return 0, perr.Processingf(
				"Trees per hectare 1 for species %s was %g but should be positive and less than or equal to stand trees per hectare %g",
				sp.Genus, tph1, tphAll)
		}
	}

	dq1 := utilization.QuadMeanDiameter(ba1, tph1)
	tph2 := tphAll - tph1
	dq2 := utilization.QuadMeanDiameter(ba2, tph2)

	// the remainder of the layer is too small; shrink this species
	shrink := func() {
		dq2 = minDQ
		tph2 = utilization.TreesPerHectare(ba2, dq2)
		tph1 = tphAll - tph2
		dq1 = utilization.QuadMeanDiameter(ba1, tph1)
	}
	if dq2 < minDQ {
		shrink()
	}

	dqMinSp := math.Max(minDQ, limits.MinDiameterHeightRatio*hlSp)
	dqMaxSp := math.Max(7.6, math.Min(limits.QuadMeanDiameterMaximum, limits.MaxDiameterHeightRatio*hlSp))

	// tph2 is reflected about the stand total below rather than derived from tph1
	if dq1 < dqMinSp {
		dq1 = dqMinSp
		tph1 = utilization.TreesPerHectare(ba1, dq1)
		tph2 = tphAll - tph2
		dq2 = utilization.QuadMeanDiameter(ba2, tph2)
	}
	if dq1 > dqMaxSp {
		dq1 = dqMaxSp
		tph1 = utilization.TreesPerHectare(ba1, dq1)
		tph2 = tphAll - tph2
		if tph2 > 0 && ba2 > 0 {
			dq2 = utilization.QuadMeanDiameter(ba2, tph2)
		} else {
			dq2 = 1000
		}
		if dq2 < minDQ {
			shrink()
		}
	}
	return dq1, nil
}
