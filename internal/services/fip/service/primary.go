package service

import (
	"context"
	"sort"

	"vdyp/internal/core/coefficients"
	"vdyp/internal/core/estimate"
	"vdyp/internal/core/utilization"
	perr "vdyp/internal/platform/errors"
	"vdyp/internal/platform/logger"
	dom "vdyp/internal/services/fip/domain"
)

// genera that count as one when choosing the primary species
var primaryCombinations = [][]string{{"PL", "PA"}, {"C", "Y"}}

// GenusPercent is a genus and its percent of the layer
type GenusPercent struct {
	Genus   string
	Percent float64
}

// FindPrimarySpecies returns the primary and, when there is one, the secondary genus of
// a layer. PL with PA and C with Y are combined under whichever of the pair has more.
// Ties go to the species that comes first in the layer
func (s *Service) FindPrimarySpecies(l *dom.InputLayer) ([]GenusPercent, error) {
	if len(l.Species) == 0 {
		return nil, perr.Processingf("Can not find primary species as there are no species")
	}

	combined := make([]GenusPercent, 0, len(l.Species))
	for _, sp := range l.Species {
		combined = append(combined, GenusPercent{sp.Genus, sp.PercentGenus})
	}

	for _, group := range primaryCombinations {
		var members []int
		for i, c := range combined {
			if c.Genus == group[0] || c.Genus == group[1] {
				members = append(members, i)
			}
		}
		if len(members) < 2 {
			continue
		}
		a, b := combined[members[0]], combined[members[1]]
		lead := a
		if b.Percent > a.Percent {
			lead = b
		}
		lead.Percent = a.Percent + b.Percent
		combined[members[0]] = lead
		combined = append(combined[:members[1]], combined[members[1]+1:]...)
	}

	sort.SliceStable(combined, func(i, j int) bool { return combined[i].Percent > combined[j].Percent })
	if len(combined) > 2 {
		combined = combined[:2]
	}
	return combined, nil
}

var hardwoods = map[string]bool{"AC": true, "AT": true, "D": true, "E": true, "MB": true}

// inventory type group of a layer made up of a single genus
var pureInventoryTypeGroup = map[string]int{
	"AC": 36, "AT": 42, "B": 18, "C": 9, "D": 38, "E": 40, "F": 1, "H": 12,
	"L": 34, "MB": 39, "PA": 28, "PL": 28, "PW": 27, "PY": 32, "S": 21, "Y": 9,
}

// pure layers have a primary genus of at least this percent
const pureThreshold = 79.999

// FindItg returns the inventory type group for a primary and optional secondary genus
func FindItg(ps []GenusPercent) (int, error) {
	if len(ps) == 0 {
		return 0, perr.Processingf("no primary species")
	}
	primary := ps[0]
	if primary.Percent > pureThreshold || len(ps) < 2 {
		itg, ok := pureInventoryTypeGroup[primary.Genus]
		if !ok {
			return 0, perr.Processingf("Unexpected primary species: %s", primary.Genus)
		}
		return itg, nil
	}
	secondary := ps[1].Genus
	in := func(xs ...string) bool {
		for _, x := range xs {
			if secondary == x {
				return true
			}
		}
		return false
	}

	switch primary.Genus {
	case "F":
		switch {
		case in("C", "Y"):
			return 2, nil
		case in("B", "H"):
			return 3, nil
		case in("S"):
			return 4, nil
		case in("PL", "PA"):
			return 5, nil
		case in("PY"):
			return 6, nil
		case in("L", "PW"):
			return 7, nil
		}
		return 8, nil
	case "C", "Y":
		if in("H", "B", "S") {
			return 11, nil
		}
		return 10, nil
	case "H":
		switch {
		case in("F"):
			return 13, nil
		case in("C", "Y"):
			return 14, nil
		case in("B"):
			return 15, nil
		case in("S"):
			return 16, nil
		case hardwoods[secondary]:
			return 17, nil
		}
		return 12, nil
	case "B":
		if in("C", "Y", "H") {
			return 19, nil
		}
		return 20, nil
	case "S":
		switch {
		case in("C", "Y", "H"):
			return 23, nil
		case in("B"):
			return 24, nil
		case in("PL"):
			return 25, nil
		case hardwoods[secondary]:
			return 26, nil
		}
		return 22, nil
	case "PW":
		return 27, nil
	case "PL", "PA":
		switch {
		case in("PL", "PA"):
			return 28, nil
		case in("F", "PW", "L", "PY"):
			return 29, nil
		case hardwoods[secondary]:
			return 31, nil
		}
		return 30, nil
	case "PY":
		return 32, nil
	case "L":
		if in("F") {
			return 33, nil
		}
		return 34, nil
	case "AC":
		if hardwoods[secondary] {
			return 36, nil
		}
		return 35, nil
	case "D":
		if hardwoods[secondary] {
			return 38, nil
		}
		return 37, nil
	case "MB":
		return 39, nil
	case "E":
		return 40, nil
	case "AT":
		if hardwoods[secondary] {
			return 42, nil
		}
		return 41, nil
	}
	return 0, perr.Processingf("Unexpected primary species: %s", primary.Genus)
}

// FindEmpiricalRelationshipParameterIndex is the basal area equation group of the
// primary genus, modified by the inventory type group
func (s *Service) FindEmpiricalRelationshipParameterIndex(genus string, bec coefficients.BecDefinition, itg int) (int, error) {
	t := s.est.Tables()
	g, err := t.EquationGroup(genus, bec.Growth())
	if err != nil {
		return 0, err
	}
	return t.ModifiedEquationGroup(g, itg), nil
}

// stand describes a primary layer to the yield equations
func stand(bec coefficients.BecDefinition, l *dom.InputLayer, breastHeightAge, overstory float64) estimate.Stand {
	shares := make([]estimate.Share, len(l.Species))
	for i, sp := range l.Species {
		shares[i] = estimate.Share{Genus: sp.Genus, Fraction: sp.FractionGenus}
	}
	return estimate.Stand{
		Shares:          shares,
		Bec:             bec,
		Height:          l.Site.Height,
		CrownClosure:    l.CrownClosure,
		BreastHeightAge: breastHeightAge,
		OverstoryBA:     overstory,
	}
}

// ProcessPrimary estimates and reconciles the primary layer against the overstory
// basal area of the veteran layer
func (s *Service) ProcessPrimary(ctx context.Context, p *dom.InputPolygon, bec coefficients.BecDefinition, in *dom.InputLayer, overstory float64) (*dom.OutputLayer, error) {
	log := logger.C(ctx)

	ps, err := s.FindPrimarySpecies(in)
	if err != nil {
		return nil, err
	}
	itg, err := FindItg(ps)
	if err != nil {
		return nil, err
	}
	primaryGenus := ps[0].Genus
	group, err := s.FindEmpiricalRelationshipParameterIndex(primaryGenus, bec, itg)
	if err != nil {
		return nil, err
	}

	site := in.Site
	out := &dom.OutputLayer{
		Type:                    dom.LayerPrimary,
		AgeTotal:                site.AgeTotal,
		YearsToBreastHeight:     site.YearsToBreastHeight,
		BreastHeightAge:         site.AgeTotal - site.YearsToBreastHeight,
		Height:                  site.Height,
		SiteIndex:               site.SiteIndex,
		SiteGenus:               site.SiteGenus,
		PrimaryGenus:            primaryGenus,
		InventoryTypeGroup:      itg,
		EmpiricalRelationshipID: group,
	}

	st := stand(bec, in, out.BreastHeightAge, overstory)
	ba, err := s.est.PrimaryBaseArea(st, yieldFactor(p), in.CrownClosure)
	if err != nil {
		return nil, err
	}
	dq, err := s.est.PrimaryQuadMeanDiameter(st)
	if err != nil {
		return nil, err
	}
	tphTotal := utilization.TreesPerHectare(ba, dq)
	out.BaseArea.SetAll(ba)
	out.QuadMeanDiameter.SetAll(dq)
	out.TreesPerHectare.SetAll(tphTotal)
	log.Debug().Float64("ba", ba).Float64("dq", dq).Float64("tph", tphTotal).Msg("primary layer yield")

	targets := make([]float64, len(in.Species))
	for i, spIn := range in.Species {
		sp, err := s.outputSpecies(spIn, bec)
		if err != nil {
			return nil, err
		}
		targets[i] = spIn.PercentGenus
		out.Species = append(out.Species, sp)
	}
	lead, ok := out.SpeciesByGenus(primaryGenus)
	if !ok {
		return nil, perr.Processingf("primary genus %s is not a species of the layer", primaryGenus)
	}

	passes := 1
	if len(out.Species) > 1 {
		passes = 2
	}
	leadHeight := site.Height
	for pass := 1; pass <= passes; pass++ {
		if pass == 2 {
			for i, sp := range out.Species {
				sp.PercentGenus = targets[i]
			}
		}

		var primaryHeight float64
		switch {
		case pass == 1 && len(out.Species) == 1:
			primaryHeight, err = s.est.PrimaryHeightFromLeadHeight(leadHeight, primaryGenus, bec.Region, tphTotal)
		case pass == 1:
			primaryHeight, err = s.est.PrimaryHeightFromLeadHeightInitial(leadHeight, primaryGenus, bec.Region)
		default:
			primaryHeight, err = s.est.PrimaryHeightFromLeadHeight(leadHeight, primaryGenus, bec.Region, lead.TreesPerHectare.All())
		}
		if err != nil {
			return nil, err
		}

		lead.LoreyHeight.SetAll(primaryHeight)
		for _, sp := range out.Species {
			if sp == lead {
				continue
			}
			h, err := s.est.NonPrimaryHeight(sp.Genus, primaryGenus, bec.Region, leadHeight, primaryHeight)
			if err != nil {
				return nil, err
			}
			sp.LoreyHeight.SetAll(h)
		}

		if err := s.findRootsForDiameterAndBaseArea(ctx, out, bec, pass+1); err != nil {
			return nil, err
		}
	}

	if err := s.smallComponents(p, bec, out); err != nil {
		return nil, err
	}

	for _, sp := range out.Species {
		if err := s.est.PrimaryUtilization(sp.Genus, speciesGroups(sp), bec, out.BreastHeightAge, &sp.Holder); err != nil {
			return nil, err
		}
	}
	out.Recompute()
	setFractions(out)
	return out, nil
}

// smallComponents fills the under 7.5cm slots of every species and of the layer
func (s *Service) smallComponents(p *dom.InputPolygon, bec coefficients.BecDefinition, l *dom.OutputLayer) error {
	var pctAvail float64
	if p.PercentAvailable != nil {
		pctAvail = *p.PercentAvailable
	}
	for _, sp := range l.Species {
		sm, err := s.est.SmallComponents(estimate.SmallInput{
			Genus:            sp.Genus,
			LoreyHeight:      sp.LoreyHeight.All(),
			BaseArea:         sp.BaseArea.All() * availableFraction(pctAvail),
			QuadMeanDiameter: sp.QuadMeanDiameter.All(),
		}, bec.Region, l.BreastHeightAge, pctAvail)
		if err != nil {
			return err
		}
		sp.LoreyHeight.SetSmall(sm.LoreyHeight)
		sp.BaseArea.SetSmall(sm.BaseArea)
		sp.TreesPerHectare.SetSmall(sm.TreesPerHectare)
		sp.QuadMeanDiameter.SetSmall(sm.QuadMeanDiameter)
		sp.WholeStemVolume.SetSmall(sm.WholeStemVolume)
	}
	return nil
}

func availableFraction(pct float64) float64 {
	if pct > 0 {
		return pct / 100
	}
	return 1
}

// yieldFactor defaults to 1 when not given
func yieldFactor(p *dom.InputPolygon) float64 {
	if p.YieldFactor > 0 {
		return p.YieldFactor
	}
	return 1
}
