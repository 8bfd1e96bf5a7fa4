package repo

import (
	"vdyp/internal/core/coefficients"
	"vdyp/internal/core/utilization"
	"vdyp/internal/services/fip/domain"
)

// holder fills every vector with base + class index so rows are easy to tell apart
func holder(base float64) utilization.Holder {
	var h utilization.Holder
	for _, sel := range utilization.VectorSelectors {
		v := sel.Of(&h)
		for _, c := range classes {
			v.Set(c, base+float64(c.Index()))
		}
	}
	h.LoreyHeight = utilization.NewHeights(base/10, base)
	return h
}

func samplePolygon() *domain.OutputPolygon {
	return &domain.OutputPolygon{
		ID:                  domain.PolygonIdentifier{Base: "01002 S000001 00", Year: 1970},
		BEC:                 coefficients.BecDefinition{Alias: "CWH", Name: "Coastal Western Hemlock", Region: coefficients.Coastal},
		ForestInventoryZone: "A",
		Mode:                domain.ModeStart,
		PercentAvailable:    90,
		Layers: map[domain.LayerType]*domain.OutputLayer{
			domain.LayerVeteran: {
				Type: domain.LayerVeteran, AgeTotal: 200, YearsToBreastHeight: 6, BreastHeightAge: 194,
				Height: 34, SiteIndex: 14, PrimaryGenus: "H",
				Species: []*domain.OutputSpecies{
					{Genus: "H", PercentGenus: 100, FractionGenus: 1, VolumeGroup: 37, DecayGroup: 31, BreakageGroup: 17, Holder: holder(300)},
				},
				Holder: holder(30),
			},
			domain.LayerPrimary: {
				Type: domain.LayerPrimary, AgeTotal: 60, YearsToBreastHeight: 8.5, BreastHeightAge: 51.5,
				Height: 20, SiteIndex: 16, SiteGenus: "F", PrimaryGenus: "F",
				InventoryTypeGroup: 2, EmpiricalRelationshipID: 11,
				Species: []*domain.OutputSpecies{
					{Genus: "F", PercentGenus: 80, FractionGenus: 0.8, VolumeGroup: 5, DecayGroup: 3, BreakageGroup: 2, Holder: holder(100)},
					{Genus: "C", PercentGenus: 20, FractionGenus: 0.2, VolumeGroup: 8, DecayGroup: 6, BreakageGroup: 4, Holder: holder(200)},
				},
				Holder: holder(10),
			},
		},
	}
}
