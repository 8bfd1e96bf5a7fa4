package service

import (
	"math"

	"vdyp/internal/core/coefficients"
	"vdyp/internal/core/estimate"
	"vdyp/internal/core/utilization"
	perr "vdyp/internal/platform/errors"
	dom "vdyp/internal/services/fip/domain"
)

// veterans are never younger than this at breast height
const veteranMinimumYearsToBreastHeight = 6.0

// groups looks up the volume, decay and breakage equation groups of a genus
func (s *Service) groups(genus string, bec coefficients.BecDefinition) (estimate.Groups, error) {
	t := s.est.Tables()
	vg, err := t.VolumeGroup(genus, bec.Volume())
	if err != nil {
		return estimate.Groups{}, err
	}
	dg, err := t.DecayGroup(genus, bec.Decay())
	if err != nil {
		return estimate.Groups{}, err
	}
	bg, err := t.BreakageGroup(genus, bec.Decay())
	if err != nil {
		return estimate.Groups{}, err
	}
	return estimate.Groups{Volume: vg, Decay: dg, Breakage: bg}, nil
}

// outputSpecies copies an input species and attaches its equation groups
func (s *Service) outputSpecies(in *dom.InputSpecies, bec coefficients.BecDefinition) (*dom.OutputSpecies, error) {
	g, err := s.groups(in.Genus, bec)
	if err != nil {
		return nil, err
	}
	return &dom.OutputSpecies{
		Genus:         in.Genus,
		PercentGenus:  in.PercentGenus,
		FractionGenus: in.FractionGenus,
		VolumeGroup:   g.Volume,
		DecayGroup:    g.Decay,
		BreakageGroup: g.Breakage,
	}, nil
}

// ProcessVeteran estimates a veteran layer. Every veteran tree is in the 22.5cm+ band
func (s *Service) ProcessVeteran(bec coefficients.BecDefinition, in *dom.InputLayer) (*dom.OutputLayer, error) {
	if len(in.Species) == 0 {
		return nil, perr.Processingf("%s layer has no species", dom.LayerVeteran)
	}
	lead := in.Species[0]
	for _, sp := range in.Species[1:] {
		if sp.PercentGenus > lead.PercentGenus {
			lead = sp
		}
	}

	site := in.Site
	ytbh := math.Max(site.YearsToBreastHeight, veteranMinimumYearsToBreastHeight)
	out := &dom.OutputLayer{
		Type:                dom.LayerVeteran,
		AgeTotal:            site.AgeTotal,
		YearsToBreastHeight: ytbh,
		BreastHeightAge:     site.AgeTotal - ytbh,
		Height:              site.Height,
		SiteIndex:           site.SiteIndex,
		SiteGenus:           site.SiteGenus,
		PrimaryGenus:        lead.Genus,
	}

	ba, err := s.est.VeteranBaseArea(site.Height, in.CrownClosure, lead.Genus, bec.Region)
	if err != nil {
		return nil, err
	}
	out.BaseArea.SetAll(ba)
	out.BaseArea.SetLarge(ba)

	for _, spIn := range in.Species {
		sp, err := s.outputSpecies(spIn, bec)
		if err != nil {
			return nil, err
		}
		sp.LoreyHeight = utilization.NewHeights(0, site.Height)
		spBA := ba * spIn.PercentGenus / 100
		sp.BaseArea.SetLarge(spBA)

		dq, err := s.est.VeteranQuadMeanDiameter(sp.Genus, bec.Region, site.Height)
		if err != nil {
			return nil, err
		}
		sp.QuadMeanDiameter.SetLarge(dq)
		sp.TreesPerHectare.SetLarge(utilization.TreesPerHectare(spBA, dq))

		if err := s.est.VeteranUtilization(sp.Genus, speciesGroups(sp), bec.Region, out.BreastHeightAge, &sp.Holder); err != nil {
			return nil, err
		}
		out.Species = append(out.Species, sp)
	}

	out.Recompute()
	setFractions(out)
	return out, nil
}

func speciesGroups(sp *dom.OutputSpecies) estimate.Groups {
	return estimate.Groups{Volume: sp.VolumeGroup, Decay: sp.DecayGroup, Breakage: sp.BreakageGroup}
}

// setFractions sets each species fraction to its share of the layer basal area
func setFractions(l *dom.OutputLayer) {
	total := l.BaseArea.All()
	if total <= 0 {
		return
	}
	for _, sp := range l.Species {
		sp.FractionGenus = sp.BaseArea.All() / total
	}
}
