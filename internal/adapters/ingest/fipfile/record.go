package fipfile

import (
	"fmt"
	"strconv"
	"strings"

	perr "vdyp/internal/platform/errors"
	dom "vdyp/internal/services/fip/domain"
)

// column is a fixed-width field. Lines shorter than the field read as blank
type column struct {
	start, width int
}

func (c column) of(line string) string {
	if c.start >= len(line) {
		return ""
	}
	end := min(c.start+c.width, len(line))
	return strings.TrimSpace(line[c.start:end])
}

// columns lays out widths one after another; negative widths are skipped spaces
func columns(widths ...int) []column {
	out := make([]column, 0, len(widths))
	pos := 0
	for _, w := range widths {
		if w < 0 {
			pos -= w
			continue
		}
		out = append(out, column{pos, w})
		pos += w
	}
	return out
}

var (
	// id, fiz, bec, percent available, mode, nonproductive description, yield factor
	polygonColumns = columns(dom.IdentifierLength, -1, 1, -1, 4, 5, 3, 5, 6)
	// id, layer, age, height, site index, crown closure, site genus, site species,
	// years to breast height, stocking class, inventory type group, breast height age, site curve
	layerColumns = columns(dom.IdentifierLength, -1, 1, 4, 5, 5, 5, -3, 2, 3, 5, 1, -2, 4, -1, 6, 3)
	// id, layer, genus, percent, then four species and percent pairs
	speciesColumns = columns(dom.IdentifierLength, -1, 1, -1, 2, 6, 3, 5, 3, 5, 3, 5, 3, 5)
)

const endOfGroup = "Z"

// position locates a record for error messages. Malformed records end the run
type position struct {
	file string
	line int
}

func (l position) errorf(format string, a ...any) error {
	return perr.IOf("%s line %d: %s", l.file, l.line, fmt.Sprintf(format, a...))
}

func (l position) float(s, name string) (float64, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, l.errorf("%s %q is not a number", name, s)
	}
	return v, nil
}

func (l position) optionalInt(s, name string) (*int, error) {
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, l.errorf("%s %q is not an integer", name, s)
	}
	return &v, nil
}

func (l position) id(s string) (dom.PolygonIdentifier, error) {
	id, err := dom.ParsePolygonIdentifier(s)
	if err != nil {
		return dom.PolygonIdentifier{}, l.errorf("%v", err)
	}
	return id, nil
}

// layerType maps a layer code. ok is false for codes that FIP does not process
func layerType(code string) (dom.LayerType, bool) {
	switch strings.ToUpper(code) {
	case "1", "P":
		return dom.LayerPrimary, true
	case "V":
		return dom.LayerVeteran, true
	}
	return "", false
}

// parsePolygon reads a polygon record. A non-positive percent available is absent,
// a blank or zero mode is unset and a non-positive yield factor is 1
func parsePolygon(line string, at position) (*dom.InputPolygon, error) {
	f := make([]string, len(polygonColumns))
	for i, c := range polygonColumns {
		f[i] = c.of(line)
	}
	// the identifier keeps its inner spacing
	id, err := at.id(padded(line, dom.IdentifierLength))
	if err != nil {
		return nil, err
	}
	p := &dom.InputPolygon{
		ID:                  id,
		ForestInventoryZone: f[1],
		BEC:                 f[2],
		NonproductiveDesc:   f[5],
		YieldFactor:         1,
		Layers:              make(map[dom.LayerType]*dom.InputLayer, 2),
	}
	pct, err := at.float(f[3], "percent available")
	if err != nil {
		return nil, err
	}
	if pct > 0 {
		p.PercentAvailable = &pct
	}
	mode, err := at.optionalInt(f[4], "mode")
	if err != nil {
		return nil, err
	}
	if mode != nil {
		p.Mode = dom.Mode(*mode)
	}
	yf, err := at.float(f[6], "yield factor")
	if err != nil {
		return nil, err
	}
	if yf > 0 {
		p.YieldFactor = yf
	}
	return p, nil
}

// record is one layer or species line of a group
type record struct {
	id     dom.PolygonIdentifier
	code   string
	layer  *dom.InputLayer
	specie *dom.InputSpecies
}

func (r record) end() bool { return strings.EqualFold(r.code, endOfGroup) }

func parseLayer(line string, at position) (record, error) {
	f := make([]string, len(layerColumns))
	for i, c := range layerColumns {
		f[i] = c.of(line)
	}
	r := record{code: f[1]}
	if r.end() {
		return r, nil
	}
	id, err := at.id(padded(line, dom.IdentifierLength))
	if err != nil {
		return r, err
	}
	r.id = id
	t, ok := layerType(r.code)
	if !ok {
		return r, nil
	}

	var nums [5]float64
	for i, name := range []string{"total age", "height", "site index", "crown closure"} {
		if nums[i], err = at.float(f[2+i], name); err != nil {
			return r, err
		}
	}
	if nums[4], err = at.float(f[8], "years to breast height"); err != nil {
		return r, err
	}
	itg, err := at.optionalInt(f[10], "inventory type group")
	if err != nil {
		return r, err
	}
	curve, err := at.optionalInt(f[12], "site curve")
	if err != nil {
		return r, err
	}
	var bhAge *float64
	if f[11] != "" {
		v, err := at.float(f[11], "breast height age")
		if err != nil {
			return r, err
		}
		bhAge = &v
	}

	r.layer = &dom.InputLayer{
		Type:         t,
		CrownClosure: nums[3],
		Site: dom.Site{
			AgeTotal:            nums[0],
			Height:              nums[1],
			SiteIndex:           nums[2],
			YearsToBreastHeight: nums[4],
			BreastHeightAge:     bhAge,
			SiteGenus:           f[6],
			SiteSpecies:         f[7],
			SiteCurve:           curve,
		},
		InventoryTypeGroup: itg,
		StockingClass:      f[9],
	}
	return r, nil
}

func parseSpecies(line string, at position) (record, error) {
	f := make([]string, len(speciesColumns))
	for i, c := range speciesColumns {
		f[i] = c.of(line)
	}
	r := record{code: f[1]}
	if r.end() {
		return r, nil
	}
	id, err := at.id(padded(line, dom.IdentifierLength))
	if err != nil {
		return r, err
	}
	r.id = id
	if _, ok := layerType(r.code); !ok {
		return r, nil
	}
	if f[2] == "" {
		return r, at.errorf("Genus identifier can not be empty except in end of record entries")
	}
	pct, err := at.float(f[3], "percent genus")
	if err != nil {
		return r, err
	}
	sp := &dom.InputSpecies{Genus: f[2], PercentGenus: pct}
	for i := 4; i+1 < len(f); i += 2 {
		if f[i] == "" {
			continue
		}
		v, err := at.float(f[i+1], "percent species")
		if err != nil {
			return r, err
		}
		sp.Sp64 = append(sp.Sp64, dom.Sp64Share{Species: f[i], Percent: v})
	}
	r.specie = sp
	return r, nil
}

// padded returns the first n columns of line, space filled
func padded(line string, n int) string {
	if len(line) >= n {
		return line[:n]
	}
	return line + strings.Repeat(" ", n-len(line))
}
