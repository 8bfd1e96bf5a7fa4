package fipfile

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	perr "vdyp/internal/platform/errors"
	"vdyp/internal/platform/testkit"
	dom "vdyp/internal/services/fip/domain"
)

func lines(xs ...string) io.Reader { return strings.NewReader(strings.Join(xs, "\n") + "\n") }

const (
	poly1 = "01002 S000001 00     1970 A CWH  90.0  1 BLAH  0.95"
	poly4 = "01002 S000004 00     1970 B IDF                    "
)

func TestReader_TwoPolygons(t *testing.T) {
	rd := NewReader(
		lines(poly1, poly4),
		lines(
			"01002 S000001 00     1970 1  55 35.3 35.0 87.4   D  D  1.0 0              13",
			"01002 S000001 00     1970 Z  55  0.0  0.0  0.0         0.0",
			"01002 S000004 00     1970 V 195 45.2 22.3  4.0   B  B  9.4 2               8",
			"01002 S000004 00     1970 2  85 42.3 31.9 82.8   H  H  4.9 0              34",
			"01002 S000004 00     1970 P  85 42.3 31.9 82.8   H  H  4.9 R  12     80.1 34",
			"01002 S000004 00     1970 Z  85  0.0  0.0  0.0         0.0",
		),
		lines(
			"01002 S000001 00     1970 1 B   75.0B  100.0     0.0     0.0     0.0",
			"01002 S000001 00     1970 1 C   25.0C   60.0CW  40.0     0.0     0.0",
			"01002 S000001 00     1970 Z      0.0     0.0     0.0     0.0     0.0",
			"01002 S000004 00     1970 V B  100.0B  100.0     0.0     0.0     0.0",
			"01002 S000004 00     1970 P H  100.0H  100.0     0.0     0.0     0.0",
			"01002 S000004 00     1970 Z      0.0     0.0     0.0     0.0     0.0",
		),
	)
	ctx := context.Background()

	p, err := rd.Next(ctx)
	if err != nil {
		t.Fatalf("first polygon: %v", err)
	}
	if p.ID.String() != "01002 S000001 00     1970" || p.ForestInventoryZone != "A" || p.BEC != "CWH" {
		t.Fatalf("polygon fields: %+v", p)
	}
	if p.PercentAvailable == nil || *p.PercentAvailable != 90 || p.Mode != dom.ModeStart || p.NonproductiveDesc != "BLAH" {
		t.Fatalf("polygon options: %+v", p)
	}
	testkit.Close(t, "yield factor", p.YieldFactor, 0.95, 1e-12)

	l, ok := p.Layer(dom.LayerPrimary)
	if !ok || len(p.Layers) != 1 {
		t.Fatalf("want only a primary layer: %v", p.Layers)
	}
	if l.Site.AgeTotal != 55 || l.Site.Height != 35.3 || l.Site.SiteIndex != 35 || l.CrownClosure != 87.4 {
		t.Fatalf("layer site: %+v", l.Site)
	}
	if l.Site.SiteGenus != "D" || l.Site.SiteSpecies != "D" || l.Site.YearsToBreastHeight != 1 || l.StockingClass != "0" {
		t.Fatalf("layer site species: %+v", l)
	}
	if l.InventoryTypeGroup != nil || l.Site.BreastHeightAge != nil || l.Site.SiteCurve == nil || *l.Site.SiteCurve != 13 {
		t.Fatalf("optional layer fields: %+v", l)
	}
	if len(l.Species) != 2 || l.Species[0].Genus != "B" || l.Species[1].Genus != "C" {
		t.Fatalf("species order: %+v", l.Species)
	}
	c := l.Species[1]
	if c.PercentGenus != 25 || len(c.Sp64) != 2 || c.Sp64[1] != (dom.Sp64Share{Species: "CW", Percent: 40}) {
		t.Fatalf("species shares: %+v", c)
	}

	p, err = rd.Next(ctx)
	if err != nil {
		t.Fatalf("second polygon: %v", err)
	}
	if p.PercentAvailable != nil || p.Mode != dom.ModeUnset || p.YieldFactor != 1 {
		t.Fatalf("blank polygon options: %+v", p)
	}
	vet, ok := p.Layer(dom.LayerVeteran)
	if !ok || vet.Site.AgeTotal != 195 || vet.Site.SiteCurve == nil || *vet.Site.SiteCurve != 8 {
		t.Fatalf("veteran layer: %+v", vet)
	}
	prim, ok := p.Layer(dom.LayerPrimary)
	if !ok || prim.StockingRune() != 'R' || prim.InventoryTypeGroup == nil || *prim.InventoryTypeGroup != 12 {
		t.Fatalf("primary layer: %+v", prim)
	}
	if prim.Site.BreastHeightAge == nil || *prim.Site.BreastHeightAge != 80.1 {
		t.Fatalf("breast height age: %v", prim.Site.BreastHeightAge)
	}
	if len(prim.Species) != 1 || prim.Species[0].Genus != "H" || len(vet.Species) != 1 {
		t.Fatalf("species per layer: %+v %+v", prim.Species, vet.Species)
	}

	if _, err := rd.Next(ctx); !errors.Is(err, io.EOF) {
		t.Fatalf("want EOF, got %v", err)
	}
	if rd.Read() != 2 {
		t.Fatalf("read %d", rd.Read())
	}
}

func TestReader_ShortFiles(t *testing.T) {
	ctx := context.Background()

	rd := NewReader(lines(poly1), lines(""), lines(""))
	_, err := rd.Next(ctx)
	if !perr.IsCode(err, perr.ErrorCodeIO) || err.Error() != "Layers file has fewer records than polygon file." {
		t.Fatalf("layers: %v", err)
	}
	if perr.IsPolygonFault(err) {
		t.Fatalf("short input must end the run")
	}

	rd = NewReader(lines(poly1), lines("01002 S000001 00     1970 Z  55  0.0  0.0  0.0         0.0"), strings.NewReader(""))
	_, err = rd.Next(ctx)
	if err == nil || err.Error() != "Species file has fewer records than polygon file." {
		t.Fatalf("species: %v", err)
	}
}

func TestReader_Mismatches(t *testing.T) {
	ctx := context.Background()
	end := "01002 S000001 00     1970 Z      0.0     0.0     0.0     0.0     0.0"

	rd := NewReader(
		lines(poly1, poly1),
		lines(
			"01002 S000002 00     1970 1  55 35.3 35.0 87.4   D  D  1.0 0              13",
			"01002 S000002 00     1970 Z  55  0.0  0.0  0.0         0.0",
			"01002 S000001 00     1970 1  55 35.3 35.0 87.4   D  D  1.0 0              13",
			"01002 S000001 00     1970 Z  55  0.0  0.0  0.0         0.0",
		),
		lines(
			"01002 S000001 00     1970 1 D  100.0D  100.0     0.0     0.0     0.0", end,
			"01002 S000001 00     1970 V D  100.0D  100.0     0.0     0.0     0.0", end,
		),
	)
	p, err := rd.Next(ctx)
	if !perr.IsCode(err, perr.ErrorCodeValidation) || p == nil {
		t.Fatalf("layer mismatch: %v", err)
	}
	testkit.MustContain(t, err.Error(), "contains layer for polygon 01002 S000002 00     1970 when expecting one for 01002 S000001 00     1970")

	// the streams stay aligned after a mismatch
	_, err = rd.Next(ctx)
	if !perr.IsCode(err, perr.ErrorCodeValidation) {
		t.Fatalf("missing layer: %v", err)
	}
	testkit.MustContain(t, err.Error(), "references layer VETERAN")
}

func TestReader_Malformed(t *testing.T) {
	rd := NewReader(lines("01002 S000001 00     1970 A CWH  9x.0"), lines(""), lines(""))
	_, err := rd.Next(context.Background())
	if !perr.IsCode(err, perr.ErrorCodeIO) {
		t.Fatalf("want io error, got %v", err)
	}
	testkit.MustContain(t, err.Error(), "polygon line 1")

	rd = NewReader(
		lines(poly1),
		lines("01002 S000001 00     1970 Z"),
		lines("01002 S000001 00     1970 1     100.0"),
	)
	_, err = rd.Next(context.Background())
	testkit.MustContain(t, err.Error(), "Genus identifier can not be empty")
}

func TestOpen(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) string {
		p := filepath.Join(dir, name)
		if err := os.WriteFile(p, []byte(body), 0o600); err != nil {
			t.Fatal(err)
		}
		return p
	}
	rd, err := Open(
		write("poly.dat", poly1+"\n"),
		write("layer.dat", "01002 S000001 00     1970 1  55 35.3 35.0 87.4   D  D  1.0 0              13\n01002 S000001 00     1970 Z\n"),
		write("spec.dat", "01002 S000001 00     1970 1 D  100.0D  100.0\n01002 S000001 00     1970 Z\n"),
	)
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = rd.Close() }()

	p, err := rd.Next(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if l, ok := p.Layer(dom.LayerPrimary); !ok || len(l.Species) != 1 {
		t.Fatalf("polygon: %+v", p)
	}

	if _, err := Open(filepath.Join(dir, "missing"), "", ""); !perr.IsCode(err, perr.ErrorCodeIO) {
		t.Fatalf("missing file: %v", err)
	}
}
