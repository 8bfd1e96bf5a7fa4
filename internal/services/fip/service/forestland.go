package service

import (
	"math"

	"vdyp/internal/core/coefficients"
	dom "vdyp/internal/services/fip/domain"
)

const (
	// ages under which crown closure is scaled up as if the stand were fully grown
	crownClosureMaturityAge = 25.0
	// stands older than this get no adjustment
	forestLandMaximumAge = 125.0
	// crown closure of a fully stocked stand
	fullyStockedCrownClosure = 90.0
	// percent assumed when the yield ratio can not be computed
	defaultPercentForestLand = 90.0
	minimumBreastHeightAge   = 5.0
)

// EstimatePercentForestLand returns the percent of the polygon that is stocked forest
// land. An explicit percent available wins and young stands are taken as fully stocked.
// Otherwise it is the ratio of the predicted basal area at the layer crown closure to
// that of a fully stocked stand, raised toward 90 for stands under 125 years
func (s *Service) EstimatePercentForestLand(p *dom.InputPolygon, bec coefficients.BecDefinition) (float64, error) {
	if p.PercentAvailable != nil && *p.PercentAvailable > 0 {
		return *p.PercentAvailable, nil
	}
	if p.Mode == dom.ModeYoung {
		return 100, nil
	}

	primary, ok := p.Layer(dom.LayerPrimary)
	if !ok {
		return defaultPercentForestLand, nil
	}
	site := primary.Site
	age := site.AgeTotal

	cc := primary.CrownClosure
	if age < crownClosureMaturityAge && age > 0 {
		cc *= crownClosureMaturityAge / age
	}
	if vet, ok := present(p, dom.LayerVeteran); ok {
		cc += vet.CrownClosure
	}
	cc = math.Min(math.Max(cc, 0), 100)

	bhAge := math.Max(minimumBreastHeightAge, age-site.YearsToBreastHeight)
	st := stand(bec, primary, bhAge, 0)
	yf := yieldFactor(p)

	baTop, err := s.est.PrimaryBaseArea(st, yf, fullyStockedCrownClosure)
	if err != nil {
		return 0, err
	}
	baHat, err := s.est.PrimaryBaseArea(st, yf, cc)
	if err != nil {
		return 0, err
	}

	py := defaultPercentForestLand
	if baTop > 0 && baHat > 0 {
		py = math.Min(100, 100*baHat/baTop)
	}

	var gain float64
	switch {
	case age > forestLandMaximumAge:
	case age < crownClosureMaturityAge:
		gain = math.Max(defaultPercentForestLand-py, 0)
	default:
		gain = math.Min(math.Max(defaultPercentForestLand-py, 0), forestLandMaximumAge-age)
	}
	return math.Floor(math.Min(py+gain, 100)), nil
}
