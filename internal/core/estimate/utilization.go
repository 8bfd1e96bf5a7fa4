package estimate

import (
	"vdyp/internal/core/coefficients"
	"vdyp/internal/core/utilization"
)

// Groups are the volume, decay and breakage equation groups of a species
type Groups struct {
	Volume   int
	Decay    int
	Breakage int
}

// PrimaryUtilization splits a primary layer species into diameter bands and estimates
// its volumes by band. h must carry the 7.5cm+ basal area, density, diameter, whole
// stem volume and Lorey height. Small slots are left untouched
func (e *Estimator) PrimaryUtilization(genus string, g Groups, bec coefficients.BecDefinition, breastHeightAge float64, h *utilization.Holder) error {
	hl := h.LoreyHeight.All()

	ba := utilization.NewVector(h.BaseArea.All())
	dq := utilization.NewVector(h.QuadMeanDiameter.All())
	tph := utilization.NewVector(h.TreesPerHectare.All())
	ws := utilization.NewVector(h.WholeStemVolume.All())
	var cu, nd, nw, nb, adjust utilization.Vector

	if err := e.QuadMeanDiameterByClass(genus, bec.Growth(), &dq); err != nil {
		return err
	}
	if err := e.BaseAreaByClass(genus, bec.Growth(), &dq, &ba); err != nil {
		return err
	}

	bandDensity := func() {
		for _, c := range utilization.Bands {
			tph.Set(c, utilization.TreesPerHectare(ba.Get(c), dq.Get(c)))
		}
	}
	bandDensity()
	if err := ReconcileComponents(&ba, &tph, &dq); err != nil {
		return err
	}
	// diameters may have moved, so reconcile once more
	bandDensity()
	if err := ReconcileComponents(&ba, &tph, &dq); err != nil {
		return err
	}

	if err := e.WholeStemVolume(utilization.All, adjust.Large(), g.Volume, hl, &dq, &ba, &ws); err != nil {
		return err
	}
	if err := e.CloseUtilizationVolume(utilization.All, &adjust, g.Volume, hl, &dq, &ws, &cu); err != nil {
		return err
	}
	if err := e.NetDecayVolume(genus, bec.Region, utilization.All, &adjust, g.Decay, breastHeightAge, &dq, &cu, &nd); err != nil {
		return err
	}
	if err := e.NetDecayWasteVolume(bec.Region, utilization.All, &adjust, genus, hl, &dq, &cu, &nd, &nw); err != nil {
		return err
	}
	if err := e.NetDecayWasteBreakageVolume(utilization.All, g.Breakage, &dq, &cu, &nw, &nb); err != nil {
		return err
	}

	h.BaseArea.CopyBands(&ba)
	h.TreesPerHectare.CopyBands(&tph)
	h.QuadMeanDiameter.CopyBands(&dq)
	h.WholeStemVolume.CopyNotSmall(&ws)
	h.CloseUtilVolume.CopyNotSmall(&cu)
	h.CloseUtilNetDecay.CopyNotSmall(&nd)
	h.CloseUtilNetDecayWaste.CopyNotSmall(&nw)
	h.CloseUtilNetDecayWasteBreakage.CopyNotSmall(&nb)
	return nil
}

// VeteranUtilization estimates the volumes of a veteran species, all of which lies in
// the 22.5cm+ band. h must carry basal area, density and diameter in that band and the
// Lorey height. On return every vector holds only All and the 22.5cm+ band
func (e *Estimator) VeteranUtilization(genus string, g Groups, region coefficients.Region, breastHeightAge float64, h *utilization.Holder) error {
	hl := h.LoreyHeight.All()
	adj := e.coe.VeteranVolumeAdjustCoe(genus)

	large := func(v *utilization.Vector) utilization.Vector {
		out := utilization.NewVector(v.Large())
		out.SetLarge(v.Large())
		return out
	}
	ba := large(&h.BaseArea)
	tph := large(&h.TreesPerHectare)
	dq := large(&h.QuadMeanDiameter)
	var ws, cu, nd, nw, nb, adjust utilization.Vector

	const class = utilization.Over225
	if err := e.WholeStemVolume(class, adj[0], g.Volume, hl, &dq, &ba, &ws); err != nil {
		return err
	}
	adjust.Set(class, adj[1])
	if err := e.CloseUtilizationVolume(class, &adjust, g.Volume, hl, &dq, &ws, &cu); err != nil {
		return err
	}
	adjust.Set(class, adj[2])
	if err := e.NetDecayVolume(genus, region, class, &adjust, g.Decay, breastHeightAge, &dq, &cu, &nd); err != nil {
		return err
	}
	adjust.Set(class, adj[3])
	if err := e.NetDecayWasteVolume(region, class, &adjust, genus, hl, &dq, &cu, &nd, &nw); err != nil {
		return err
	}
	if err := e.NetDecayWasteBreakageVolume(class, g.Breakage, &dq, &cu, &nw, &nb); err != nil {
		return err
	}

	h.BaseArea, h.TreesPerHectare, h.QuadMeanDiameter = ba, tph, dq
	h.WholeStemVolume, h.CloseUtilVolume = ws, cu
	h.CloseUtilNetDecay, h.CloseUtilNetDecayWaste, h.CloseUtilNetDecayWasteBreakage = nd, nw, nb
	for _, s := range utilization.VectorSelectors {
		v := s.Of(h)
		x := v.Large()
		v.Broadcast(0)
		v.SetLarge(x)
		v.SetAll(x)
	}
	return nil
}
