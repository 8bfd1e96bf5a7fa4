package estimate

import (
	"testing"

	"vdyp/internal/core/coefficients"
	"vdyp/internal/core/utilization"
	"vdyp/internal/platform/testkit"
)

func TestVeteranUtilization(t *testing.T) {
	e := newEstimator(t)

	var h utilization.Holder
	h.LoreyHeight = utilization.NewHeights(0, 30)
	h.BaseArea.SetLarge(15)
	h.QuadMeanDiameter.SetLarge(40)
	h.TreesPerHectare.SetLarge(utilization.TreesPerHectare(15, 40))

	if err := e.VeteranUtilization("H", Groups{8, 8, 8}, coefficients.Coastal, 95, &h); err != nil {
		t.Fatalf("VeteranUtilization: %v", err)
	}

	for _, s := range utilization.VectorSelectors {
		v := s.Of(&h)
		if v.All() != v.Large() {
			t.Fatalf("%s: All %v should equal 22.5+ %v", s.Name, v.All(), v.Large())
		}
		for _, c := range utilization.BandsButLargest {
			if v.Get(c) != 0 {
				t.Fatalf("%s: band %s should be empty", s.Name, c)
			}
		}
		if v.Small() != 0 {
			t.Fatalf("%s: small should be empty", s.Name)
		}
	}
	testkit.Close(t, "basal area kept", h.BaseArea.All(), 15, 1e-12)
	if !(h.WholeStemVolume.All() > h.CloseUtilVolume.All() && h.CloseUtilVolume.All() > h.CloseUtilNetDecayWasteBreakage.All() && h.CloseUtilNetDecayWasteBreakage.All() > 0) {
		t.Fatalf("volume chain out of order: %+v", h)
	}
}

func TestPrimaryUtilization(t *testing.T) {
	e := newEstimator(t)
	bec, _ := e.Tables().Bec("CWH")

	mv, err := e.MeanVolume(5, 30, 25.9)
	if err != nil {
		t.Fatal(err)
	}
	var h utilization.Holder
	h.LoreyHeight = utilization.NewHeights(9.5, 30)
	h.BaseArea = utilization.NewVector(44.2)
	h.BaseArea.SetSmall(0.08)
	h.QuadMeanDiameter = utilization.NewVector(25.9)
	h.TreesPerHectare = utilization.NewVector(839)
	h.WholeStemVolume = utilization.NewVector(mv * 839)
	h.WholeStemVolume.SetSmall(0.4)

	if err := e.PrimaryUtilization("D", Groups{5, 5, 5}, bec, 54, &h); err != nil {
		t.Fatalf("PrimaryUtilization: %v", err)
	}

	if h.BaseArea.All() != 44.2 || h.QuadMeanDiameter.All() != 25.9 || h.TreesPerHectare.All() != 839 {
		t.Fatalf("7.5cm+ totals must not change: %+v", h)
	}
	if h.BaseArea.Small() != 0.08 || h.WholeStemVolume.Small() != 0.4 {
		t.Fatalf("small slots must not change: %+v", h)
	}
	testkit.Close(t, "ba bands", h.BaseArea.BandSum(), 44.2, 1e-4)
	testkit.Close(t, "tph bands", h.TreesPerHectare.BandSum(), 839, 2e-4)
	testkit.Close(t, "ws bands", h.WholeStemVolume.BandSum(), h.WholeStemVolume.All(), 1e-9)
	testkit.Close(t, "cu", h.CloseUtilVolume.All(), 347.174857280, tol)
	testkit.Close(t, "nb", h.CloseUtilNetDecayWasteBreakage.All(), 278.484693756, tol)
}
