package service

import (
	"vdyp/internal/core/coefficients"
	dom "vdyp/internal/services/fip/domain"
)

// AdjustForStocking scales the summable quantities of the layer and its species by the
// factor for the input stocking class. Layers without a class, or with a class that has
// no factor in the region, are left alone
func (s *Service) AdjustForStocking(out *dom.OutputLayer, in *dom.InputLayer, bec coefficients.BecDefinition) {
	class := in.StockingRune()
	if class == 0 {
		return
	}
	f, ok := s.est.Tables().StockingFactor(class, bec.Region)
	if !ok || f == 1 {
		return
	}
	out.ScaleSummable(f)
	for _, sp := range out.Species {
		sp.ScaleSummable(f)
	}
}
