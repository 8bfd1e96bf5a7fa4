// Package coefficients holds the regression coefficient tables and reference
// lists (genera, BEC zones, minima) that drive stand estimation.
//
// A default set is embedded in the binary. Load returns it; LoadFile reads a
// replacement with the same JSON shape. String keyed tables accept "*" as a
// fallback key, consulted only when the specific key is absent.
package coefficients

import (
	_ "embed"
	"encoding/json"
	"os"

	perr "vdyp/internal/platform/errors"
)

//go:embed coefficients.json
var embedded []byte

// Any is the wildcard key for string keyed tables
const Any = "*"

// Region is a BEC region
type Region string

// Regions
const (
	Coastal  Region = "C"
	Interior Region = "I"
)

// Genus is a species group. Its index is its 1-based position in Tables.Genera
type Genus struct {
	Alias string `json:"alias"`
	Name  string `json:"name"`
}

// BecDefinition is a biogeoclimatic zone. Growth, volume and decay tables may be
// keyed by a different zone; an empty alias means the zone itself
type BecDefinition struct {
	Alias     string `json:"alias"`
	Name      string `json:"name"`
	Region    Region `json:"region"`
	GrowthBec string `json:"growth_bec,omitempty"`
	VolumeBec string `json:"volume_bec,omitempty"`
	DecayBec  string `json:"decay_bec,omitempty"`
}

// Growth returns the alias used for growth tables
func (b BecDefinition) Growth() string { return orAlias(b.GrowthBec, b.Alias) }

// Volume returns the alias used for volume group lookups
func (b BecDefinition) Volume() string { return orAlias(b.VolumeBec, b.Alias) }

// Decay returns the alias used for decay and breakage lookups and the basal area tables
func (b BecDefinition) Decay() string { return orAlias(b.DecayBec, b.Alias) }

func orAlias(s, alias string) string {
	if s == "" {
		return alias
	}
	return s
}

// Minima are the run-wide thresholds
type Minima struct {
	Height           float64 `json:"height"`
	BaseArea         float64 `json:"base_area"`
	FullyStockedArea float64 `json:"fully_stocked_area"`
	VeteranHeight    float64 `json:"veteran_height"`
}

// SizeLimits bound species height and diameter relative to height
type SizeLimits struct {
	LoreyHeightMaximum      float64 `json:"lorey_height_maximum"`
	QuadMeanDiameterMaximum float64 `json:"quad_mean_diameter_maximum"`
	MinDiameterHeightRatio  float64 `json:"min_diameter_height_ratio"`
	MaxDiameterHeightRatio  float64 `json:"max_diameter_height_ratio"`
}

// UpperBound caps stand level basal area and diameter
type UpperBound struct {
	BaseArea         float64 `json:"base_area"`
	QuadMeanDiameter float64 `json:"quad_mean_diameter"`
}

// NonPrimaryHeight selects which height a non-primary species is derived from
// (1 = lead height, 2 = primary Lorey height) and the two curve coefficients
type NonPrimaryHeight struct {
	Equation int        `json:"equation"`
	Coe      [2]float64 `json:"coe"`
}

// Tables is the full coefficient set
type Tables struct {
	Genera []Genus         `json:"genera"`
	Becs   []BecDefinition `json:"becs"`
	Minima Minima          `json:"minima"`

	// genus -> growth BEC -> basal area equation group
	EquationGroups map[string]map[string]int `json:"equation_groups"`
	// group -> inventory type group -> replacement group
	EquationModifiers map[int]map[int]int `json:"equation_modifiers"`

	VolumeGroups   map[string]map[string]int `json:"volume_groups"`   // genus -> volume BEC
	DecayGroups    map[string]map[string]int `json:"decay_groups"`    // genus -> decay BEC
	BreakageGroups map[string]map[string]int `json:"breakage_groups"` // genus -> decay BEC

	StockingClassFactors map[string]map[Region]float64    `json:"stocking_class_factors"`
	SizeLimits           map[string]map[Region]SizeLimits `json:"size_limits"`

	// decay BEC -> genus
	PrimaryBaseArea         map[string]map[string][]float64 `json:"primary_base_area"`
	PrimaryQuadMeanDiameter map[string]map[string][]float64 `json:"primary_quad_mean_diameter"`

	BaseAreaModifiers         map[string]map[Region]float64    `json:"base_area_modifiers"`
	QuadMeanDiameterModifiers map[string]map[Region]float64    `json:"quad_mean_diameter_modifiers"`
	UpperBounds               map[Region]map[string]UpperBound `json:"upper_bounds"`

	LeadHeight        map[string]map[Region][]float64 `json:"lead_height"`
	LeadHeightInitial map[string]map[Region][]float64 `json:"lead_height_initial"`
	// genus -> primary genus -> region
	NonPrimaryHeight map[string]map[string]map[Region]NonPrimaryHeight `json:"non_primary_height"`

	SpeciesQuadMeanDiameter map[string][]float64 `json:"species_quad_mean_diameter"`
	MeanVolume              map[int][]float64    `json:"mean_volume"`

	// utilization class index -> genus -> growth BEC
	BaseAreaByClass         map[int]map[string]map[string][]float64 `json:"base_area_by_class"`
	QuadMeanDiameterByClass map[int]map[string]map[string][]float64 `json:"quad_mean_diameter_by_class"`

	// utilization class index -> group
	WholeStemByClass map[int]map[int][]float64 `json:"whole_stem_by_class"`
	CloseUtilization map[int]map[int][]float64 `json:"close_utilization"`
	NetDecay         map[int]map[int][]float64 `json:"net_decay"`

	NetWaste       map[string][]float64          `json:"net_waste"`
	NetBreakage    map[int][]float64             `json:"net_breakage"`
	DecayModifiers map[string]map[Region]float64 `json:"decay_modifiers"`
	WasteModifiers map[string]map[Region]float64 `json:"waste_modifiers"`

	VeteranBaseArea         map[string]map[Region][]float64 `json:"veteran_base_area"`
	VeteranQuadMeanDiameter map[string]map[Region][]float64 `json:"veteran_quad_mean_diameter"`
	VeteranVolumeAdjust     map[string][]float64            `json:"veteran_volume_adjust"`

	SmallProbability      map[string][]float64 `json:"small_probability"`
	SmallBaseArea         map[string][]float64 `json:"small_base_area"`
	SmallQuadMeanDiameter map[string][]float64 `json:"small_quad_mean_diameter"`
	SmallLoreyHeight      map[string][]float64 `json:"small_lorey_height"`
	SmallWholeStemVolume  map[string][]float64 `json:"small_whole_stem_volume"`

	genusIndex map[string]int
	becs       map[string]BecDefinition
}

// Load returns the embedded default tables
func Load() (*Tables, error) {
	return Parse(embedded)
}

// LoadFile reads tables from a JSON file
func LoadFile(path string) (*Tables, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeConfig, "read coefficients %s", path)
	}
	return Parse(b)
}

// Parse decodes and validates tables
func Parse(b []byte) (*Tables, error) {
	var t Tables
	if err := json.Unmarshal(b, &t); err != nil {
		return nil, perr.Wrap(err, perr.ErrorCodeConfig, "decode coefficients")
	}
	if err := t.index(); err != nil {
		return nil, err
	}
	if err := t.validate(); err != nil {
		return nil, err
	}
	return &t, nil
}

func (t *Tables) index() error {
	if len(t.Genera) == 0 {
		return perr.Configf("coefficients: no genera defined")
	}
	if len(t.Becs) == 0 {
		return perr.Configf("coefficients: no BEC zones defined")
	}
	t.genusIndex = make(map[string]int, len(t.Genera))
	for i, g := range t.Genera {
		if _, dup := t.genusIndex[g.Alias]; dup {
			return perr.Configf("coefficients: duplicate genus %s", g.Alias)
		}
		t.genusIndex[g.Alias] = i + 1
	}
	t.becs = make(map[string]BecDefinition, len(t.Becs))
	for _, b := range t.Becs {
		if b.Region != Coastal && b.Region != Interior {
			return perr.Configf("coefficients: BEC %s has unknown region %q", b.Alias, b.Region)
		}
		t.becs[b.Alias] = b
	}
	return nil
}

// widths of each coefficient row
var rowWidths = []struct {
	name  string
	width int
	rows  func(t *Tables) [][]float64
}{
	{"primary_base_area", 9, func(t *Tables) [][]float64 { return nested(t.PrimaryBaseArea) }},
	{"primary_quad_mean_diameter", 8, func(t *Tables) [][]float64 { return nested(t.PrimaryQuadMeanDiameter) }},
	{"lead_height", 3, func(t *Tables) [][]float64 { return nested(t.LeadHeight) }},
	{"lead_height_initial", 2, func(t *Tables) [][]float64 { return nested(t.LeadHeightInitial) }},
	{"species_quad_mean_diameter", 3, func(t *Tables) [][]float64 { return flat(t.SpeciesQuadMeanDiameter) }},
	{"mean_volume", 9, func(t *Tables) [][]float64 { return flat(t.MeanVolume) }},
	{"net_waste", 6, func(t *Tables) [][]float64 { return flat(t.NetWaste) }},
	{"net_breakage", 4, func(t *Tables) [][]float64 { return flat(t.NetBreakage) }},
	{"veteran_base_area", 3, func(t *Tables) [][]float64 { return nested(t.VeteranBaseArea) }},
	{"veteran_quad_mean_diameter", 3, func(t *Tables) [][]float64 { return nested(t.VeteranQuadMeanDiameter) }},
	{"veteran_volume_adjust", 4, func(t *Tables) [][]float64 { return flat(t.VeteranVolumeAdjust) }},
	{"small_probability", 4, func(t *Tables) [][]float64 { return flat(t.SmallProbability) }},
	{"small_base_area", 4, func(t *Tables) [][]float64 { return flat(t.SmallBaseArea) }},
	{"small_quad_mean_diameter", 2, func(t *Tables) [][]float64 { return flat(t.SmallQuadMeanDiameter) }},
	{"small_lorey_height", 2, func(t *Tables) [][]float64 { return flat(t.SmallLoreyHeight) }},
	{"small_whole_stem_volume", 4, func(t *Tables) [][]float64 { return flat(t.SmallWholeStemVolume) }},
	{"base_area_by_class", 2, func(t *Tables) [][]float64 { return byClassRows(t.BaseAreaByClass) }},
	{"whole_stem_by_class", 4, func(t *Tables) [][]float64 { return groupRows(t.WholeStemByClass) }},
	{"close_utilization", 3, func(t *Tables) [][]float64 { return groupRows(t.CloseUtilization) }},
	{"net_decay", 3, func(t *Tables) [][]float64 { return groupRows(t.NetDecay) }},
}

func (t *Tables) validate() error {
	for _, w := range rowWidths {
		for _, r := range w.rows(t) {
			if len(r) != w.width {
				return perr.Configf("coefficients: %s row has %d values, want %d", w.name, len(r), w.width)
			}
		}
	}
	// the largest class carries one extra coefficient
	for c, byGenus := range t.QuadMeanDiameterByClass {
		want := 3
		if c == 4 {
			want = 4
		}
		for _, byBec := range byGenus {
			for _, r := range byBec {
				if len(r) != want {
					return perr.Configf("coefficients: quad_mean_diameter_by_class[%d] row has %d values, want %d", c, len(r), want)
				}
			}
		}
	}
	return nil
}

func flat[K comparable](m map[K][]float64) [][]float64 {
	out := make([][]float64, 0, len(m))
	for _, r := range m {
		out = append(out, r)
	}
	return out
}

func nested[K1, K2 comparable](m map[K1]map[K2][]float64) [][]float64 {
	var out [][]float64
	for _, inner := range m {
		out = append(out, flat(inner)...)
	}
	return out
}

func byClassRows(m map[int]map[string]map[string][]float64) [][]float64 {
	var out [][]float64
	for _, g := range m {
		out = append(out, nested(g)...)
	}
	return out
}

func groupRows(m map[int]map[int][]float64) [][]float64 {
	var out [][]float64
	for _, g := range m {
		out = append(out, flat(g)...)
	}
	return out
}
