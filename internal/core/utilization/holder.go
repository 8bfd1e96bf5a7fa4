package utilization

// Holder carries the full set of utilization vectors for a layer or species
type Holder struct {
	LoreyHeight                    Heights `json:"lorey_height"`
	BaseArea                       Vector  `json:"base_area"`
	TreesPerHectare                Vector  `json:"trees_per_hectare"`
	QuadMeanDiameter               Vector  `json:"quad_mean_diameter"`
	WholeStemVolume                Vector  `json:"whole_stem_volume"`
	CloseUtilVolume                Vector  `json:"close_util_volume"`
	CloseUtilNetDecay              Vector  `json:"close_util_net_decay"`
	CloseUtilNetDecayWaste         Vector  `json:"close_util_net_decay_waste"`
	CloseUtilNetDecayWasteBreakage Vector  `json:"close_util_net_decay_waste_breakage"`
}

// Selector names one vector field of a Holder
type Selector struct {
	Name string
	Of   func(*Holder) *Vector
}

// Field selectors for each Vector of a Holder
var (
	BaseAreaField                       = Selector{"base_area", func(h *Holder) *Vector { return &h.BaseArea }}
	TreesPerHectareField                = Selector{"trees_per_hectare", func(h *Holder) *Vector { return &h.TreesPerHectare }}
	QuadMeanDiameterField               = Selector{"quad_mean_diameter", func(h *Holder) *Vector { return &h.QuadMeanDiameter }}
	WholeStemVolumeField                = Selector{"whole_stem_volume", func(h *Holder) *Vector { return &h.WholeStemVolume }}
	CloseUtilVolumeField                = Selector{"close_util_volume", func(h *Holder) *Vector { return &h.CloseUtilVolume }}
	CloseUtilNetDecayField              = Selector{"close_util_net_decay", func(h *Holder) *Vector { return &h.CloseUtilNetDecay }}
	CloseUtilNetDecayWasteField         = Selector{"close_util_net_decay_waste", func(h *Holder) *Vector { return &h.CloseUtilNetDecayWaste }}
	CloseUtilNetDecayWasteBreakageField = Selector{"close_util_net_decay_waste_breakage", func(h *Holder) *Vector { return &h.CloseUtilNetDecayWasteBreakage }}
)

// SummableSelectors are the extensive quantities: a layer's value is the sum over its species
var SummableSelectors = []Selector{
	BaseAreaField,
	TreesPerHectareField,
	WholeStemVolumeField,
	CloseUtilVolumeField,
	CloseUtilNetDecayField,
	CloseUtilNetDecayWasteField,
	CloseUtilNetDecayWasteBreakageField,
}

// NonVolumeSelectors are copied wholesale from layer to species for single species layers
var NonVolumeSelectors = []Selector{
	BaseAreaField,
	TreesPerHectareField,
	QuadMeanDiameterField,
}

// VectorSelectors lists every Vector field; Lorey height is a Heights and is not included
var VectorSelectors = []Selector{
	BaseAreaField,
	TreesPerHectareField,
	QuadMeanDiameterField,
	WholeStemVolumeField,
	CloseUtilVolumeField,
	CloseUtilNetDecayField,
	CloseUtilNetDecayWasteField,
	CloseUtilNetDecayWasteBreakageField,
}

// ScaleSummable multiplies every summable vector by f in place
func (h *Holder) ScaleSummable(f float64) {
	for _, s := range SummableSelectors {
		s.Of(h).Scale(f)
	}
}

// SumSummable overwrites the summable vectors of h with the slot-wise sum over parts
func (h *Holder) SumSummable(parts []*Holder) {
	for _, s := range SummableSelectors {
		var acc Vector
		for _, p := range parts {
			acc.Add(s.Of(p))
		}
		*s.Of(h) = acc
	}
}

// RecomputeFrom rebuilds the aggregate vectors of h from its parts: summable vectors are
// summed, Lorey height is basal area weighted, and diameter is derived from basal area and density
func (h *Holder) RecomputeFrom(parts []*Holder) {
	h.SumSummable(parts)

	var hl Heights
	for _, p := range parts {
		hl[0] += p.LoreyHeight.Small() * p.BaseArea.Small()
		hl[1] += p.LoreyHeight.All() * p.BaseArea.All()
	}
	if ba := h.BaseArea.Small(); ba > 0 {
		hl[0] /= ba
	}
	if ba := h.BaseArea.All(); ba > 0 {
		hl[1] /= ba
	}
	h.LoreyHeight = hl

	for i := range h.QuadMeanDiameter {
		h.QuadMeanDiameter[i] = QuadMeanDiameter(h.BaseArea[i], h.TreesPerHectare[i])
	}
}
