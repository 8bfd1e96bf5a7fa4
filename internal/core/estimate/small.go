package estimate

import (
	"math"

	"vdyp/internal/core/coefficients"
	"vdyp/internal/core/utilization"
)

// SmallInput is one species of a primary layer as seen by the small component model
type SmallInput struct {
	Genus       string
	LoreyHeight float64
	// BaseArea is the actual basal area: the fully occupied value scaled by percent available
	BaseArea         float64
	QuadMeanDiameter float64
}

// Small is the estimated under 7.5cm component of one species
type Small struct {
	LoreyHeight      float64
	BaseArea         float64
	TreesPerHectare  float64
	QuadMeanDiameter float64
	WholeStemVolume  float64
}

// SmallComponents estimates the under 7.5cm component of a species. percentAvailable
// is the polygon's percent of available land, zero when unknown
func (e *Estimator) SmallComponents(sp SmallInput, region coefficients.Region, breastHeightAge, percentAvailable float64) (Small, error) {
	coast := 0.0
	if region == coefficients.Coastal {
		coast = 1
	}

	// probability that the species has any small trees
	p, err := e.coe.SmallProbabilityCoe(sp.Genus)
	if err != nil {
		return Small{}, err
	}
	prob := logistic(p[0] + p[1]*coast + p[2]*breastHeightAge + p[3]*sp.LoreyHeight)

	// conditional basal area, evaluated on actual rather than fully occupied basal area;
	// the region term b[1] is not applied
	b, err := e.coe.SmallBaseAreaCoe(sp.Genus)
	if err != nil {
		return Small{}, err
	}
	available := 1.0
	if percentAvailable > 0 {
		available = percentAvailable / 100
	}
	baCond := math.Max((b[0]+b[2]*sp.BaseArea)*math.Exp(b[3]*sp.LoreyHeight), 0) / available

	d, err := e.coe.SmallQuadMeanDiameterCoe(sp.Genus)
	if err != nil {
		return Small{}, err
	}
	dqSm := 4 + 3.5*logistic(d[0]+d[1]*sp.LoreyHeight)

	h, err := e.coe.SmallLoreyHeightCoe(sp.Genus)
	if err != nil {
		return Small{}, err
	}
	hlSm := 1.3 + (sp.LoreyHeight-1.3)*math.Exp(h[0]*(math.Pow(dqSm, h[1])-math.Pow(sp.QuadMeanDiameter, h[1])))

	v, err := e.coe.SmallWholeStemVolumeCoe(sp.Genus)
	if err != nil {
		return Small{}, err
	}
	meanVolume := math.Exp(v[0] + v[1]*math.Log(dqSm) + v[2]*math.Log(hlSm) + v[3]*dqSm)

	ba := prob * baCond
	tph := utilization.TreesPerHectare(ba, dqSm)
	return Small{
		LoreyHeight:      hlSm,
		BaseArea:         ba,
		TreesPerHectare:  tph,
		QuadMeanDiameter: dqSm,
		WholeStemVolume:  tph * meanVolume,
	}, nil
}
