package estimate

import (
	"math"

	"vdyp/internal/core/coefficients"
	perr "vdyp/internal/platform/errors"
)

// PrimaryHeightFromLeadHeight relates the primary species Lorey height to the lead height
// given the density of the primary species (EMP050)
func (e *Estimator) PrimaryHeightFromLeadHeight(leadHeight float64, genus string, region coefficients.Region, tph float64) (float64, error) {
	c, ok := e.coe.LeadHeightCoe(genus, region)
	if !ok {
		return 0, perr.Configf("no lead height coefficients for %s %s", genus, region)
	}
	return 1.3 + (leadHeight-1.3)*(c[0]-c[1]+c[1]*math.Exp(c[2]*(tph-100))), nil
}

// PrimaryHeightFromLeadHeightInitial is the first pass estimate of primary Lorey height,
// used before any density is known (EMP051)
func (e *Estimator) PrimaryHeightFromLeadHeightInitial(leadHeight float64, genus string, region coefficients.Region) (float64, error) {
	c, ok := e.coe.LeadHeightInitialCoe(genus, region)
	if !ok {
		return 0, perr.Configf("no initial lead height coefficients for %s %s", genus, region)
	}
	return 1.3 + c[0]*math.Pow(leadHeight-1.3, c[1]), nil
}

// NonPrimaryHeight estimates a non-primary species Lorey height from either the lead
// height or the primary species Lorey height, as the coefficient entry selects (EMP053)
func (e *Estimator) NonPrimaryHeight(genus, primary string, region coefficients.Region, leadHeight, primaryHeight float64) (float64, error) {
	np, ok := e.coe.NonPrimaryHeightCoe(genus, primary, region)
	if !ok {
		return 0, perr.Processingf("Could not find Lorey Height Nonprimary Coefficients for %s %s %s", genus, primary, region)
	}
	h := primaryHeight
	if np.Equation == 1 {
		h = leadHeight
	}
	return 1.3 + np.Coe[0]*math.Pow(h-1.3, np.Coe[1]), nil
}
