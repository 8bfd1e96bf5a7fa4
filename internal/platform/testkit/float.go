package testkit

import (
	"math"
	"testing"
)

// Close asserts that got is within tol of want. tol is relative when want is non-zero
func Close(t *testing.T, name string, got, want, tol float64) {
	t.Helper()
	if !IsClose(got, want, tol) {
		t.Fatalf("%s: got %.8g want %.8g (tol %g)", name, got, want, tol)
	}
}

// IsClose is the predicate behind Close
func IsClose(got, want, tol float64) bool {
	if math.IsNaN(got) || math.IsNaN(want) {
		return false
	}
	diff := math.Abs(got - want)
	if want == 0 {
		return diff <= tol
	}
	return diff <= tol*math.Abs(want)
}
