package service

import (
	"math"
	"strconv"
	"strings"

	perr "vdyp/internal/platform/errors"
	dom "vdyp/internal/services/fip/domain"
)

const (
	// minimum years between total age and breast height age, and minimum years to breast height
	minimumYearsToBreastHeight = 0.5
	minimumSiteIndex           = 0.5
	// tolerance on the primary layer percent total
	percentTotalTolerance = 0.02
)

// present reports whether a layer exists with a positive height and crown closure
func present(p *dom.InputPolygon, t dom.LayerType) (*dom.InputLayer, bool) {
	l, ok := p.Layer(t)
	if !ok || l.Site.Height <= 0 || l.CrownClosure <= 0 {
		return nil, false
	}
	return l, true
}

// oneDecimal formats v with at least one decimal place
func oneDecimal(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

func (s *Service) heightMinimum(t dom.LayerType) float64 {
	if t == dom.LayerVeteran {
		return s.minima.VeteranHeight
	}
	return s.minima.Height
}

// CheckPolygon runs the input checks in order and returns the first failure as a
// validation error. On success the primary species fractions are set from their percents
func (s *Service) CheckPolygon(p *dom.InputPolygon) error {
	id := p.ID
	primary, ok := present(p, dom.LayerPrimary)
	if !ok {
		return perr.Validationf("Polygon \"%s\" has no %s layer, or that layer has non-positive height or crown closure.", id, dom.LayerPrimary)
	}

	site := primary.Site
	if site.AgeTotal-site.YearsToBreastHeight < minimumYearsToBreastHeight {
		return perr.Validationf("Polygon %s has %s layer where total age (%s) is less than YTBH (%s).",
			id, dom.LayerPrimary, oneDecimal(site.AgeTotal), oneDecimal(site.YearsToBreastHeight))
	}

	for _, t := range [...]dom.LayerType{dom.LayerPrimary, dom.LayerVeteran} {
		l, ok := present(p, t)
		if !ok {
			continue
		}
		if minimum := s.heightMinimum(t); l.Site.Height < minimum {
			return perr.Validationf("Polygon %s has %s layer where height %.1f is less than minimum %.1f.", id, t, l.Site.Height, minimum)
		}
	}

	if p.Mode == dom.ModeYoung {
		return perr.Validationf("Polygon %s is using unsupported mode %s.", id, dom.ModeYoung)
	}

	if site.YearsToBreastHeight < minimumYearsToBreastHeight {
		return perr.Validationf("Polygon %s has %s layer where years to breast height %.1f is less than minimum %.1f years.",
			id, dom.LayerPrimary, site.YearsToBreastHeight, minimumYearsToBreastHeight)
	}

	if site.SiteIndex < minimumSiteIndex {
		return perr.Validationf("Polygon %s has %s layer where site index %s is less than minimum %.1f years.",
			id, dom.LayerPrimary, oneDecimal(site.SiteIndex), minimumSiteIndex)
	}

	var total float64
	for _, sp := range primary.Species {
		total += sp.PercentGenus
	}
	if len(primary.Species) == 0 || math.Abs(total-100) > percentTotalTolerance {
		return perr.Validationf("Polygon \"%s\" has %s layer where species entries have a percentage total that does not sum to 100%%.", id, dom.LayerPrimary)
	}

	for _, t := range [...]dom.LayerType{dom.LayerPrimary, dom.LayerVeteran} {
		l, ok := present(p, t)
		if !ok {
			continue
		}
		for _, sp := range l.Species {
			if _, known := s.est.Tables().GenusIndex(sp.Genus); !known {
				return perr.Validationf("Polygon %s has %s layer with unknown genus %s.", id, t, sp.Genus)
			}
		}
	}

	for _, sp := range primary.Species {
		sp.FractionGenus = sp.PercentGenus / total
	}
	return nil
}
