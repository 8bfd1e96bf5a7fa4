package estimate

import (
	"math"

	"vdyp/internal/core/coefficients"
	"vdyp/internal/core/utilization"
)

// VeteranBaseArea is the 7.5cm+ basal area of a veteran layer from its height and crown
// closure, never less than 0.01 (EMP098)
func (e *Estimator) VeteranBaseArea(height, crownClosure float64, genus string, region coefficients.Region) (float64, error) {
	a, err := e.coe.VeteranBaseAreaCoe(genus, region)
	if err != nil {
		return 0, err
	}
	ba := a[0] * math.Pow(math.Max(height-a[1], 0), a[2])
	ba *= crownClosure / 4
	return math.Max(ba, 0.01), nil
}

// VeteranQuadMeanDiameter is a veteran species diameter; veterans are all in the 22.5cm+ band
func (e *Estimator) VeteranQuadMeanDiameter(genus string, region coefficients.Region, loreyHeight float64) (float64, error) {
	a, err := e.coe.VeteranQuadMeanDiameterCoe(genus, region)
	if err != nil {
		return 0, err
	}
	return math.Max(a[0]+a[1]*math.Pow(loreyHeight, a[2]), utilization.Over225.LowBound()), nil
}
