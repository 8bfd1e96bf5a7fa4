package coefficients

import (
	"sort"

	perr "vdyp/internal/platform/errors"
)

// pick returns m[key], falling back to m[Any]
func pick[K ~string, V any](m map[K]V, key K) (V, bool) {
	if v, ok := m[key]; ok {
		return v, true
	}
	v, ok := m[K(Any)]
	return v, ok
}

func pick2[K1, K2 ~string, V any](m map[K1]map[K2]V, a K1, b K2) (V, bool) {
	inner, ok := pick(m, a)
	if !ok {
		var zero V
		return zero, false
	}
	return pick(inner, b)
}

func missing(table string, keys ...any) error {
	return perr.Newf(perr.ErrorCodeConfig, "coefficients: no %s entry for %v", table, keys)
}

// GenusIndex returns the 1-based position of alias in the genus list
func (t *Tables) GenusIndex(alias string) (int, bool) {
	i, ok := t.genusIndex[alias]
	return i, ok
}

// GenusAliases returns genus aliases in index order
func (t *Tables) GenusAliases() []string {
	out := make([]string, len(t.Genera))
	for i, g := range t.Genera {
		out[i] = g.Alias
	}
	return out
}

// Bec returns the definition for a BEC alias
func (t *Tables) Bec(alias string) (BecDefinition, bool) {
	b, ok := t.becs[alias]
	return b, ok
}

// BecAliases returns the known BEC aliases sorted
func (t *Tables) BecAliases() []string {
	out := make([]string, 0, len(t.becs))
	for a := range t.becs {
		out = append(out, a)
	}
	sort.Strings(out)
	return out
}

// EquationGroup returns the default basal area equation group for genus in the growth BEC
func (t *Tables) EquationGroup(genus, growthBec string) (int, error) {
	g, ok := pick2(t.EquationGroups, genus, growthBec)
	if !ok {
		return 0, missing("equation group", genus, growthBec)
	}
	return g, nil
}

// ModifiedEquationGroup applies the inventory type group override, if any
func (t *Tables) ModifiedEquationGroup(group, itg int) int {
	if m, ok := t.EquationModifiers[group][itg]; ok {
		return m
	}
	return group
}

// VolumeGroup for genus in the volume BEC
func (t *Tables) VolumeGroup(genus, volumeBec string) (int, error) {
	g, ok := pick2(t.VolumeGroups, genus, volumeBec)
	if !ok {
		return 0, missing("volume group", genus, volumeBec)
	}
	return g, nil
}

// DecayGroup for genus in the decay BEC
func (t *Tables) DecayGroup(genus, decayBec string) (int, error) {
	g, ok := pick2(t.DecayGroups, genus, decayBec)
	if !ok {
		return 0, missing("decay group", genus, decayBec)
	}
	return g, nil
}

// BreakageGroup for genus in the decay BEC
func (t *Tables) BreakageGroup(genus, decayBec string) (int, error) {
	g, ok := pick2(t.BreakageGroups, genus, decayBec)
	if !ok {
		return 0, missing("breakage group", genus, decayBec)
	}
	return g, nil
}

// StockingFactor returns the multiplier for a stocking class in a region. ok is false
// when the class has no entry, which means no adjustment
func (t *Tables) StockingFactor(class rune, region Region) (float64, bool) {
	byRegion, ok := t.StockingClassFactors[string(class)]
	if !ok {
		return 0, false
	}
	f, ok := byRegion[region]
	return f, ok
}

// Limits returns the size limits for genus in region
func (t *Tables) Limits(genus string, region Region) (SizeLimits, error) {
	l, ok := pick2(t.SizeLimits, genus, region)
	if !ok {
		return SizeLimits{}, missing("size limits", genus, region)
	}
	return l, nil
}

// PrimaryBaseAreaCoe returns the nine basal area yield coefficients
func (t *Tables) PrimaryBaseAreaCoe(decayBec, genus string) ([]float64, error) {
	c, ok := pick2(t.PrimaryBaseArea, decayBec, genus)
	if !ok {
		return nil, missing("primary base area", decayBec, genus)
	}
	return c, nil
}

// PrimaryQuadMeanDiameterCoe returns the eight diameter yield coefficients
func (t *Tables) PrimaryQuadMeanDiameterCoe(decayBec, genus string) ([]float64, error) {
	c, ok := pick2(t.PrimaryQuadMeanDiameter, decayBec, genus)
	if !ok {
		return nil, missing("primary quad mean diameter", decayBec, genus)
	}
	return c, nil
}

// BaseAreaModifier defaults to 1
func (t *Tables) BaseAreaModifier(genus string, region Region) float64 {
	if m, ok := pick2(t.BaseAreaModifiers, genus, region); ok {
		return m
	}
	return 1
}

// QuadMeanDiameterModifier defaults to 1
func (t *Tables) QuadMeanDiameterModifier(genus string, region Region) float64 {
	if m, ok := pick2(t.QuadMeanDiameterModifiers, genus, region); ok {
		return m
	}
	return 1
}

// Upper returns the stand upper bounds for the lead genus
func (t *Tables) Upper(region Region, genus string) (UpperBound, error) {
	u, ok := pick2(t.UpperBounds, region, genus)
	if !ok {
		return UpperBound{}, missing("upper bounds", region, genus)
	}
	return u, nil
}

// LeadHeightCoe returns the three coefficients relating primary Lorey height to lead height
// given density. ok is false when there is no entry
func (t *Tables) LeadHeightCoe(genus string, region Region) ([]float64, bool) {
	return pick2(t.LeadHeight, genus, region)
}

// LeadHeightInitialCoe returns the two coefficients of the first pass height estimate
func (t *Tables) LeadHeightInitialCoe(genus string, region Region) ([]float64, bool) {
	return pick2(t.LeadHeightInitial, genus, region)
}

// NonPrimaryHeightCoe for a species given the primary genus
func (t *Tables) NonPrimaryHeightCoe(genus, primary string, region Region) (NonPrimaryHeight, bool) {
	byPrimary, ok := pick(t.NonPrimaryHeight, genus)
	if !ok {
		return NonPrimaryHeight{}, false
	}
	return pick2(byPrimary, primary, region)
}

// SpeciesQuadMeanDiameterCoe returns the three by-species diameter coefficients
func (t *Tables) SpeciesQuadMeanDiameterCoe(genus string) ([]float64, error) {
	c, ok := pick(t.SpeciesQuadMeanDiameter, genus)
	if !ok {
		return nil, missing("species quad mean diameter", genus)
	}
	return c, nil
}

// MeanVolumeCoe returns the nine whole stem volume per tree coefficients
func (t *Tables) MeanVolumeCoe(volumeGroup int) ([]float64, error) {
	c, ok := t.MeanVolume[volumeGroup]
	if !ok {
		return nil, missing("mean volume", volumeGroup)
	}
	return c, nil
}

// BaseAreaByClassCoe for utilization class index 1..3
func (t *Tables) BaseAreaByClassCoe(class int, genus, growthBec string) ([]float64, error) {
	c, ok := pick2(t.BaseAreaByClass[class], genus, growthBec)
	if !ok {
		return nil, missing("base area by class", class, genus, growthBec)
	}
	return c, nil
}

// QuadMeanDiameterByClassCoe for utilization class index 1..4
func (t *Tables) QuadMeanDiameterByClassCoe(class int, genus, growthBec string) ([]float64, error) {
	c, ok := pick2(t.QuadMeanDiameterByClass[class], genus, growthBec)
	if !ok {
		return nil, missing("quad mean diameter by class", class, genus, growthBec)
	}
	return c, nil
}

func byGroup(m map[int]map[int][]float64, table string, class, group int) ([]float64, error) {
	c, ok := m[class][group]
	if !ok {
		return nil, missing(table, class, group)
	}
	return c, nil
}

// WholeStemByClassCoe for utilization class index 1..4 and volume group
func (t *Tables) WholeStemByClassCoe(class, volumeGroup int) ([]float64, error) {
	return byGroup(t.WholeStemByClass, "whole stem by class", class, volumeGroup)
}

// CloseUtilizationCoe for utilization class index 1..4 and volume group
func (t *Tables) CloseUtilizationCoe(class, volumeGroup int) ([]float64, error) {
	return byGroup(t.CloseUtilization, "close utilization", class, volumeGroup)
}

// NetDecayCoe for utilization class index 1..4 and decay group
func (t *Tables) NetDecayCoe(class, decayGroup int) ([]float64, error) {
	return byGroup(t.NetDecay, "net decay", class, decayGroup)
}

// NetWasteCoe returns the six waste coefficients for genus
func (t *Tables) NetWasteCoe(genus string) ([]float64, error) {
	c, ok := pick(t.NetWaste, genus)
	if !ok {
		return nil, missing("net waste", genus)
	}
	return c, nil
}

// NetBreakageCoe returns the four breakage coefficients for a breakage group
func (t *Tables) NetBreakageCoe(group int) ([]float64, error) {
	c, ok := t.NetBreakage[group]
	if !ok {
		return nil, missing("net breakage", group)
	}
	return c, nil
}

// DecayModifier defaults to 0
func (t *Tables) DecayModifier(genus string, region Region) float64 {
	m, _ := pick2(t.DecayModifiers, genus, region)
	return m
}

// WasteModifier defaults to 0
func (t *Tables) WasteModifier(genus string, region Region) float64 {
	m, _ := pick2(t.WasteModifiers, genus, region)
	return m
}

// VeteranBaseAreaCoe returns the three veteran basal area coefficients
func (t *Tables) VeteranBaseAreaCoe(genus string, region Region) ([]float64, error) {
	c, ok := pick2(t.VeteranBaseArea, genus, region)
	if !ok {
		return nil, missing("veteran base area", genus, region)
	}
	return c, nil
}

// VeteranQuadMeanDiameterCoe returns the three veteran diameter coefficients
func (t *Tables) VeteranQuadMeanDiameterCoe(genus string, region Region) ([]float64, error) {
	c, ok := pick2(t.VeteranQuadMeanDiameter, genus, region)
	if !ok {
		return nil, missing("veteran quad mean diameter", genus, region)
	}
	return c, nil
}

// VeteranVolumeAdjustCoe defaults to zeros
func (t *Tables) VeteranVolumeAdjustCoe(genus string) []float64 {
	if c, ok := pick(t.VeteranVolumeAdjust, genus); ok {
		return c
	}
	return make([]float64, 4)
}

// small component tables are all keyed by genus alone
func (t *Tables) small(m map[string][]float64, table, genus string) ([]float64, error) {
	c, ok := pick(m, genus)
	if !ok {
		return nil, missing(table, genus)
	}
	return c, nil
}

// SmallProbabilityCoe is the logistic model of a species having trees under 7.5cm
func (t *Tables) SmallProbabilityCoe(genus string) ([]float64, error) {
	return t.small(t.SmallProbability, "small probability", genus)
}

// SmallBaseAreaCoe is the conditional basal area model for trees under 7.5cm
func (t *Tables) SmallBaseAreaCoe(genus string) ([]float64, error) {
	return t.small(t.SmallBaseArea, "small base area", genus)
}

// SmallQuadMeanDiameterCoe for trees under 7.5cm
func (t *Tables) SmallQuadMeanDiameterCoe(genus string) ([]float64, error) {
	return t.small(t.SmallQuadMeanDiameter, "small quad mean diameter", genus)
}

// SmallLoreyHeightCoe for trees under 7.5cm
func (t *Tables) SmallLoreyHeightCoe(genus string) ([]float64, error) {
	return t.small(t.SmallLoreyHeight, "small lorey height", genus)
}

// SmallWholeStemVolumeCoe is the mean volume model for trees under 7.5cm
func (t *Tables) SmallWholeStemVolumeCoe(genus string) ([]float64, error) {
	return t.small(t.SmallWholeStemVolume, "small whole stem volume", genus)
}
