package service

import (
	"context"
	"testing"

	"vdyp/internal/core/coefficients"
	"vdyp/internal/core/estimate"
	"vdyp/internal/core/reconcile"
	"vdyp/internal/core/utilization"
	perr "vdyp/internal/platform/errors"
	"vdyp/internal/platform/testkit"
	dom "vdyp/internal/services/fip/domain"
)

const rel = 1e-4

func newService(t *testing.T, cfg Config) *Service {
	t.Helper()
	tab, err := coefficients.Load()
	if err != nil {
		t.Fatalf("load coefficients: %v", err)
	}
	return New(estimate.New(tab), cfg)
}

func species(pairs ...any) []*dom.InputSpecies {
	var out []*dom.InputSpecies
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, &dom.InputSpecies{Genus: pairs[i].(string), PercentGenus: float64(pairs[i+1].(int))})
	}
	return out
}

// coastalPolygon is a mixed Douglas fir stand with no veteran layer
func coastalPolygon() *dom.InputPolygon {
	return &dom.InputPolygon{
		ID:   dom.PolygonIdentifier{Base: "01002 S000001 00", Year: 1970},
		BEC:  "CWH",
		Mode: dom.ModeStart,
		Layers: map[dom.LayerType]*dom.InputLayer{
			dom.LayerPrimary: {
				Type:         dom.LayerPrimary,
				CrownClosure: 87.4,
				Site:         dom.Site{AgeTotal: 55, YearsToBreastHeight: 1, Height: 35.3, SiteIndex: 30},
				Species:      species("B", 1, "C", 7, "D", 74, "H", 9, "S", 9),
			},
		},
	}
}

// interiorPolygon is a pure fir stand with a fir veteran layer
func interiorPolygon() *dom.InputPolygon {
	return &dom.InputPolygon{
		ID:   dom.PolygonIdentifier{Base: "01003AS000001 00", Year: 1953},
		BEC:  "IDF",
		Mode: dom.ModeStart,
		Layers: map[dom.LayerType]*dom.InputLayer{
			dom.LayerPrimary: {
				Type:         dom.LayerPrimary,
				CrownClosure: 50,
				Site:         dom.Site{AgeTotal: 80, YearsToBreastHeight: 8, Height: 25, SiteIndex: 20},
				Species:      species("F", 100),
			},
			dom.LayerVeteran: {
				Type:         dom.LayerVeteran,
				CrownClosure: 5,
				Site:         dom.Site{AgeTotal: 200, YearsToBreastHeight: 8, Height: 35, SiteIndex: 20},
				Species:      species("F", 100),
			},
		},
	}
}

func process(t *testing.T, s *Service, p *dom.InputPolygon) *dom.OutputPolygon {
	t.Helper()
	r := s.ProcessPolygon(context.Background(), 0, p)
	if r.Status != dom.StatusOK {
		t.Fatalf("polygon %s: status %s: %v", p.ID, r.Status, r.Err)
	}
	return r.Polygon
}

func assertAdditive(t *testing.T, l *dom.OutputLayer) {
	t.Helper()
	for _, sel := range utilization.SummableSelectors {
		for i := 0; i < len(l.BaseArea); i++ {
			var sum float64
			for _, sp := range l.Species {
				sum += sel.Of(&sp.Holder)[i]
			}
			if !testkit.IsClose(sel.Of(&l.Holder)[i], sum, 1e-9) {
				t.Fatalf("%s %s[%d]: layer %g species sum %g", l.Type, sel.Name, i, sel.Of(&l.Holder)[i], sum)
			}
		}
	}
}

func TestProcessPolygon_MixedStand(t *testing.T) {
	s := newService(t, Config{})
	out := process(t, s, coastalPolygon())

	if out.PercentAvailable != 98 {
		t.Fatalf("percent forest land: got %v want 98", out.PercentAvailable)
	}
	if _, ok := out.Layers[dom.LayerVeteran]; ok {
		t.Fatalf("no veteran layer expected")
	}
	l := out.Layers[dom.LayerPrimary]
	if l.PrimaryGenus != "D" || l.InventoryTypeGroup != 37 || l.EmpiricalRelationshipID != 41 {
		t.Fatalf("primary %s itg %d group %d", l.PrimaryGenus, l.InventoryTypeGroup, l.EmpiricalRelationshipID)
	}

	testkit.Close(t, "ba all", l.BaseArea.All(), 42.599783493197435, rel)
	testkit.Close(t, "ba small", l.BaseArea.Small(), 0.33017684866983193, rel)
	testkit.Close(t, "ba 22.5+", l.BaseArea.Large(), 35.505686702027255, rel)
	testkit.Close(t, "tph all", l.TreesPerHectare.All(), 831.9419922808863, rel)
	testkit.Close(t, "dq all", l.QuadMeanDiameter.All(), 25.533610683760408, rel)
	testkit.Close(t, "hl all", l.LoreyHeight.All(), 29.348962166257493, rel)
	testkit.Close(t, "hl small", l.LoreyHeight.Small(), 9.097317736046941, rel)
	testkit.Close(t, "ws all", l.WholeStemVolume.All(), 367.69059107533263, rel)
	testkit.Close(t, "nb all", l.CloseUtilNetDecayWasteBreakage.All(), 274.86008795921856, rel)

	want := map[string][3]float64{
		"B": {0.8887175592466039, 24.515375847969267, 28.25848119746153},
		"C": {6.225144278113024, 24.678272718387774, 28.25848119746153},
		"D": {76.85573328616982, 25.72884633407984, 29.677348628906877},
		"H": {8.018843272475877, 25.14740084054612, 28.25848119746153},
		"S": {8.011561603994679, 24.91997579494819, 28.25848119746153},
	}
	var pct, frac float64
	for _, sp := range l.Species {
		w := want[sp.Genus]
		testkit.Close(t, sp.Genus+" percent", sp.PercentGenus, w[0], 1e-3)
		testkit.Close(t, sp.Genus+" dq", sp.QuadMeanDiameter.All(), w[1], rel)
		testkit.Close(t, sp.Genus+" hl", sp.LoreyHeight.All(), w[2], rel)
		pct += sp.PercentGenus
		frac += sp.FractionGenus
	}
	testkit.Close(t, "percent total", pct, 100, 1e-9)
	testkit.Close(t, "fraction total", frac, 1, 1e-9)
	assertAdditive(t, l)
}

func TestProcessPolygon_SingleSpeciesWithVeteran(t *testing.T) {
	s := newService(t, Config{})
	out := process(t, s, interiorPolygon())

	if out.PercentAvailable != 90 {
		t.Fatalf("percent forest land: got %v want 90", out.PercentAvailable)
	}

	v := out.Layers[dom.LayerVeteran]
	testkit.Close(t, "veteran ba", v.BaseArea.All(), 3.75, rel)
	testkit.Close(t, "veteran tph", v.TreesPerHectare.All(), 24.66243952870279, rel)
	testkit.Close(t, "veteran dq", v.QuadMeanDiameter.Large(), 44, rel)
	testkit.Close(t, "veteran ws", v.WholeStemVolume.All(), 150.25904806176854, rel)
	testkit.Close(t, "veteran nb", v.CloseUtilNetDecayWasteBreakage.Large(), 112.17288840830639, rel)
	if v.YearsToBreastHeight != 8 || v.BreastHeightAge != 192 {
		t.Fatalf("veteran ages: ytbh %v bh %v", v.YearsToBreastHeight, v.BreastHeightAge)
	}
	for _, c := range utilization.BandsButLargest {
		if v.BaseArea.Get(c) != 0 {
			t.Fatalf("veteran basal area outside 22.5cm+: %v", v.BaseArea)
		}
	}

	l := out.Layers[dom.LayerPrimary]
	if l.InventoryTypeGroup != 1 || l.EmpiricalRelationshipID != 7 {
		t.Fatalf("itg %d group %d", l.InventoryTypeGroup, l.EmpiricalRelationshipID)
	}
	testkit.Close(t, "ba all", l.BaseArea.All(), 29.4675226428415, rel)
	testkit.Close(t, "ba small", l.BaseArea.Small(), 0.08111687062067681, rel)
	testkit.Close(t, "tph all", l.TreesPerHectare.All(), 761.5342819740428, rel)
	testkit.Close(t, "dq all", l.QuadMeanDiameter.All(), 22.196379571592107, rel)
	testkit.Close(t, "hl all", l.LoreyHeight.All(), 20.417170902760606, rel)
	testkit.Close(t, "ws all", l.WholeStemVolume.All(), 208.84177653239848, rel)
	testkit.Close(t, "nb all", l.CloseUtilNetDecayWasteBreakage.All(), 146.9352595748531, rel)

	sp := l.Species[0]
	if sp.PercentGenus != 100 || sp.FractionGenus != 1 {
		t.Fatalf("single species shares: %v %v", sp.PercentGenus, sp.FractionGenus)
	}
	assertSameVectors(t, &sp.Holder, &l.Holder)
	assertAdditive(t, l)
	assertAdditive(t, v)
}

// assertSameVectors compares every utilization vector of got and want slot by slot
func assertSameVectors(t *testing.T, got, want *utilization.Holder) {
	t.Helper()
	for _, sel := range utilization.VectorSelectors {
		g, w := sel.Of(got), sel.Of(want)
		for i := range w {
			if !testkit.IsClose(g[i], w[i], 1e-9) {
				t.Fatalf("%s[%d]: got %g want %g", sel.Name, i, g[i], w[i])
			}
		}
	}
	for i := range want.LoreyHeight {
		if !testkit.IsClose(got.LoreyHeight[i], want.LoreyHeight[i], 1e-9) {
			t.Fatalf("lorey_height[%d]: got %g want %g", i, got.LoreyHeight[i], want.LoreyHeight[i])
		}
	}
}

func TestProcessPolygon_SolverOnlyForMixedLayers(t *testing.T) {
	var steps int
	s := newService(t, Config{Solver: reconcile.Options{Trace: func(int, float64, []float64) { steps++ }}})

	process(t, s, interiorPolygon())
	if steps != 0 {
		t.Fatalf("single species layer ran the solver for %d steps", steps)
	}

	process(t, s, coastalPolygon())
	if steps == 0 {
		t.Fatalf("mixed layer never ran the solver")
	}
}

func TestCheckReconciled(t *testing.T) {
	layer := func(tph float64, volumes ...float64) *dom.OutputLayer {
		l := &dom.OutputLayer{Type: dom.LayerPrimary}
		l.TreesPerHectare.SetAll(tph)
		var sum float64
		for i, v := range volumes {
			sp := &dom.OutputSpecies{Genus: []string{"F", "H", "C"}[i]}
			sp.WholeStemVolume.SetAll(v)
			l.Species = append(l.Species, sp)
			sum += v
		}
		l.WholeStemVolume.SetAll(sum)
		return l
	}

	cases := []struct {
		name     string
		l        *dom.OutputLayer
		tphStart float64
		targets  []float64
		want     string
	}{
		{"consistent", layer(1000, 80, 20), 1001, []float64{80, 20}, ""},
		{"single species ignores volume", layer(500, 10), 500, []float64{100}, ""},
		{"density off by 0.3%", layer(1000, 80, 20), 1003, []float64{80, 20}, "species densities sum to 1000.00, expected 1003.00"},
		{"no density", layer(0, 10), 0, []float64{100}, "species densities sum to 0.00"},
		{"volume share off", layer(1000, 50, 50), 1000, []float64{80, 20}, "species F has 50.0% of volume, expected 80.0%"},
		{"last species off", layer(1000, 70, 10, 20), 1000, []float64{70, 25, 5}, "species H has 10.0% of volume, expected 25.0%"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := checkReconciled(tc.l, tc.tphStart, tc.targets)
			if tc.want == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !perr.IsCode(err, perr.ErrorCodeProcessing) {
				t.Fatalf("want a processing error, got %v", err)
			}
			testkit.MustContain(t, err.Error(), dom.LayerPrimary.String()+" layer")
			testkit.MustContain(t, err.Error(), tc.want)
		})
	}
}

func TestProcessPolygon_StockingClass(t *testing.T) {
	s := newService(t, Config{})
	pct := 80.0

	plain := interiorPolygon()
	plain.PercentAvailable = &pct
	base := process(t, s, plain).Layers[dom.LayerPrimary]
	testkit.Close(t, "small ba at 80%", base.BaseArea.Small(), 0.09387630804916695, rel)

	stocked := interiorPolygon()
	stocked.PercentAvailable = &pct
	stocked.Layers[dom.LayerPrimary].StockingClass = "R"
	out := process(t, s, stocked)
	if out.PercentAvailable != 80 {
		t.Fatalf("explicit percent available should win: %v", out.PercentAvailable)
	}
	l := out.Layers[dom.LayerPrimary]
	testkit.Close(t, "stocked ba", l.BaseArea.All(), 17.6805135857049, rel)
	testkit.Close(t, "stocked tph", l.TreesPerHectare.All(), 456.92056918442563, rel)
	testkit.Close(t, "stocked small ba", l.BaseArea.Small(), 0.05632578482950017, rel)
	if l.QuadMeanDiameter.All() != base.QuadMeanDiameter.All() || l.LoreyHeight.All() != base.LoreyHeight.All() {
		t.Fatalf("stocking must not touch diameter or height")
	}
	testkit.Close(t, "stocked nb", l.CloseUtilNetDecayWasteBreakage.All(), base.CloseUtilNetDecayWasteBreakage.All()*0.6, 1e-12)
	assertAdditive(t, l)

	// a class with no factor leaves the layer alone
	unknown := interiorPolygon()
	unknown.PercentAvailable = &pct
	unknown.Layers[dom.LayerPrimary].StockingClass = "Q"
	got := process(t, s, unknown).Layers[dom.LayerPrimary]
	if got.Holder != base.Holder {
		t.Fatalf("unknown stocking class changed the layer:\n got %+v\nwant %+v", got.Holder, base.Holder)
	}
	for i, sp := range got.Species {
		if sp.Holder != base.Species[i].Holder {
			t.Fatalf("unknown stocking class changed species %s", sp.Genus)
		}
	}
}

func TestProcessPolygon_Modes(t *testing.T) {
	s := newService(t, Config{})
	for _, m := range []dom.Mode{dom.ModeBatc, dom.ModeBatn, dom.ModeDontProcess} {
		p := coastalPolygon()
		p.Mode = m
		r := s.ProcessPolygon(context.Background(), 3, p)
		if r.Status != dom.StatusSkipped || r.Index != 3 || r.ID != p.ID {
			t.Fatalf("mode %s: %+v", m, r)
		}
		testkit.MustContain(t, r.Reason, m.String())
	}

	p := coastalPolygon()
	p.Mode = dom.ModeUnset
	if r := s.ProcessPolygon(context.Background(), 0, p); r.Status != dom.StatusOK || r.Polygon.Mode != dom.ModeStart {
		t.Fatalf("unset mode should run as start: %+v", r)
	}
}

func TestProcessPolygon_Rejections(t *testing.T) {
	s := newService(t, Config{})

	p := coastalPolygon()
	p.BEC = "XX"
	r := s.ProcessPolygon(context.Background(), 0, p)
	if r.Status != dom.StatusRejected || !perr.IsCode(r.Err, perr.ErrorCodeValidation) {
		t.Fatalf("unknown bec: %+v", r)
	}
	testkit.MustContain(t, r.Reason, "unknown biogeoclimatic zone XX")

	// minima overrides take effect
	s = newService(t, Config{Minima: &coefficients.Minima{Height: 5, BaseArea: 50, FullyStockedArea: 2, VeteranHeight: 10}})
	r = s.ProcessPolygon(context.Background(), 0, coastalPolygon())
	if r.Status != dom.StatusRejected || !perr.IsCode(r.Err, perr.ErrorCodeLowValue) {
		t.Fatalf("base area under minimum: %+v", r)
	}
	if !perr.IsPolygonFault(r.Err) {
		t.Fatalf("low value should only bypass the polygon")
	}
	testkit.MustContain(t, r.Reason, "Base area")
}

func TestAdjustForStocking(t *testing.T) {
	s := newService(t, Config{})
	bec, _ := s.est.Tables().Bec("IDF")
	l := &dom.OutputLayer{Species: []*dom.OutputSpecies{{Genus: "F"}}}
	l.LoreyHeight.SetAll(20)
	l.BaseArea.SetAll(10)
	l.QuadMeanDiameter.SetAll(25)
	l.TreesPerHectare.SetAll(203.7)
	l.CloseUtilVolume.SetAll(60)
	l.Species[0].Holder = l.Holder
	before, spBefore := l.Holder, l.Species[0].Holder

	s.AdjustForStocking(l, &dom.InputLayer{}, bec)
	if l.Holder != before || l.Species[0].Holder != spBefore {
		t.Fatalf("no class should be a no-op")
	}
	s.AdjustForStocking(l, &dom.InputLayer{StockingClass: "Q"}, bec)
	if l.Holder != before || l.Species[0].Holder != spBefore {
		t.Fatalf("a class without a factor should be a no-op")
	}

	s.AdjustForStocking(l, &dom.InputLayer{StockingClass: "4"}, bec)
	for _, h := range []*utilization.Holder{&l.Holder, &l.Species[0].Holder} {
		testkit.Close(t, "ba", h.BaseArea.All(), 8, 1e-12)
		testkit.Close(t, "tph", h.TreesPerHectare.All(), 203.7*0.8, 1e-12)
		testkit.Close(t, "cu", h.CloseUtilVolume.All(), 48, 1e-12)
		if h.LoreyHeight != before.LoreyHeight || h.QuadMeanDiameter != before.QuadMeanDiameter {
			t.Fatalf("stocking must not touch height or diameter")
		}
	}
}
