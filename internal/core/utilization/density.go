package utilization

import "math"

// PI40K converts a squared diameter in cm to basal area in m2: pi/4 * 1/10000
const PI40K = math.Pi / 40000

// TreesPerHectare from basal area (m2/ha) and quadratic mean diameter (cm). 0 when either is not positive
func TreesPerHectare(baseArea, qmd float64) float64 {
	if baseArea <= 0 || qmd <= 0 || math.IsNaN(baseArea) || math.IsNaN(qmd) {
		return 0
	}
	return baseArea / PI40K / (qmd * qmd)
}

// QuadMeanDiameter from basal area and trees per hectare. 0 for non-positive, NaN or absurd inputs
func QuadMeanDiameter(baseArea, tph float64) float64 {
	if baseArea > 1e6 || tph > 1e6 || math.IsNaN(baseArea) || math.IsNaN(tph) {
		return 0
	}
	if baseArea <= 0 || tph <= 0 {
		return 0
	}
	return math.Sqrt(baseArea / tph / PI40K)
}

// BaseArea from quadratic mean diameter and trees per hectare
func BaseArea(qmd, tph float64) float64 {
	return qmd * qmd * PI40K * tph
}
