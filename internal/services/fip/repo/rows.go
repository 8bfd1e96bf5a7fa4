package repo

import (
	"vdyp/internal/core/utilization"
	"vdyp/internal/services/fip/domain"
)

// classes in the order rows are written
var classes = [...]utilization.Class{
	utilization.Small,
	utilization.All,
	utilization.U75To125,
	utilization.U125To175,
	utilization.U175To225,
	utilization.Over225,
}

// layerOrder is the order layers are written
var layerOrder = [...]domain.LayerType{domain.LayerPrimary, domain.LayerVeteran}

// utilRow is one utilization class of a layer total or of one species. Genus is
// empty for layer totals
type utilRow struct {
	Layer       domain.LayerType
	Genus       string
	Class       utilization.Class
	LoreyHeight *float64
	// Values follow utilization.VectorSelectors
	Values []float64
}

func layersOf(p *domain.OutputPolygon) []*domain.OutputLayer {
	out := make([]*domain.OutputLayer, 0, len(p.Layers))
	for _, t := range layerOrder {
		if l, ok := p.Layers[t]; ok && l != nil {
			out = append(out, l)
		}
	}
	return out
}

func holderRows(layer domain.LayerType, genus string, h *utilization.Holder) []utilRow {
	out := make([]utilRow, 0, len(classes))
	for _, c := range classes {
		r := utilRow{Layer: layer, Genus: genus, Class: c}
		switch c {
		case utilization.Small:
			hl := h.LoreyHeight.Small()
			r.LoreyHeight = &hl
		case utilization.All:
			hl := h.LoreyHeight.All()
			r.LoreyHeight = &hl
		}
		r.Values = make([]float64, len(utilization.VectorSelectors))
		for i, sel := range utilization.VectorSelectors {
			v := sel.Of(h)
			r.Values[i] = v.Get(c)
		}
		out = append(out, r)
	}
	return out
}

// utilRows lists the layer totals followed by each species in layer order
func utilRows(p *domain.OutputPolygon) []utilRow {
	var out []utilRow
	for _, l := range layersOf(p) {
		out = append(out, holderRows(l.Type, "", &l.Holder)...)
		for _, sp := range l.Species {
			out = append(out, holderRows(l.Type, sp.Genus, &sp.Holder)...)
		}
	}
	return out
}

// valueColumns are the utilization vector columns, named after their selectors
func valueColumns() []string {
	out := make([]string, len(utilization.VectorSelectors))
	for i, sel := range utilization.VectorSelectors {
		out[i] = sel.Name
	}
	return out
}
