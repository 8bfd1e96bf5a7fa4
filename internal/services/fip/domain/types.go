// Package domain defines the core types and interfaces for the fip service
package domain

import (
	"fmt"
	"strconv"
	"strings"

	"vdyp/internal/core/coefficients"
	"vdyp/internal/core/utilization"
	perr "vdyp/internal/platform/errors"
)

// Polygon identifier layout: a left-justified base and a four digit year
const (
	IdentifierLength = 25
	yearLength       = 4
	baseLength       = IdentifierLength - yearLength
)

// PolygonIdentifier names a polygon by map sheet base and inventory year
type PolygonIdentifier struct {
	Base string `json:"base" validate:"required,max=21"`
	Year int    `json:"year" validate:"gt=0"`
}

// String formats the identifier in its 25 column file form
func (id PolygonIdentifier) String() string {
	return fmt.Sprintf("%-*s%*d", baseLength, id.Base, yearLength, id.Year)
}

// ParsePolygonIdentifier splits a 25 column identifier
func ParsePolygonIdentifier(s string) (PolygonIdentifier, error) {
	if len(s) != IdentifierLength {
		return PolygonIdentifier{}, perr.InvalidArgf("polygon identifier %q must be exactly %d characters", s, IdentifierLength)
	}
	year, err := strconv.Atoi(strings.TrimSpace(s[baseLength:]))
	if err != nil {
		return PolygonIdentifier{}, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "polygon identifier %q has no year", s)
	}
	if year <= 0 {
		return PolygonIdentifier{}, perr.InvalidArgf("polygon identifier year %d must be positive", year)
	}
	return PolygonIdentifier{Base: strings.TrimSpace(s[:baseLength]), Year: year}, nil
}

// Mode is the processing mode requested for a polygon
type Mode int

// Modes. ModeUnset is processed as ModeStart
const (
	ModeDontProcess Mode = -1
	ModeUnset       Mode = 0
	ModeStart       Mode = 1
	ModeYoung       Mode = 2
	ModeBatc        Mode = 3
	ModeBatn        Mode = 4
)

func (m Mode) String() string {
	switch m {
	case ModeDontProcess:
		return "DONT_PROCESS"
	case ModeUnset:
		return "UNSET"
	case ModeStart:
		return "FIPSTART"
	case ModeYoung:
		return "FIPYOUNG"
	case ModeBatc:
		return "BATC"
	case ModeBatn:
		return "BATN"
	}
	return fmt.Sprintf("Mode(%d)", int(m))
}

// LayerType is the kind of a layer within a polygon
type LayerType string

// Layer types
const (
	LayerPrimary LayerType = "PRIMARY"
	LayerVeteran LayerType = "VETERAN"
)

func (l LayerType) String() string { return string(l) }

// Code is the single letter used in the layer file
func (l LayerType) Code() string {
	if l == LayerVeteran {
		return "V"
	}
	return "P"
}

// Site is the site description of a layer
type Site struct {
	AgeTotal            float64  `json:"age_total" validate:"gte=0"`
	YearsToBreastHeight float64  `json:"years_to_breast_height" validate:"gte=0"`
	Height              float64  `json:"height" validate:"gte=0"`
	SiteIndex           float64  `json:"site_index"`
	BreastHeightAge     *float64 `json:"breast_height_age,omitempty"`
	SiteGenus           string   `json:"site_genus,omitempty"`
	SiteSpecies         string   `json:"site_species,omitempty"`
	SiteCurve           *int     `json:"site_curve,omitempty"`
}

// Sp64Share is a detailed species and its share within a genus
type Sp64Share struct {
	Species string  `json:"species"`
	Percent float64 `json:"percent"`
}

// InputSpecies is one genus of an input layer
type InputSpecies struct {
	Genus        string      `json:"genus" validate:"genus"`
	PercentGenus float64     `json:"percent_genus" validate:"gte=0,lte=100"`
	Sp64         []Sp64Share `json:"sp64,omitempty" validate:"max=4"`

	// FractionGenus is set by validation on the primary layer
	FractionGenus float64 `json:"-"`
}

// InputLayer is one layer of an input polygon. Species keep their input order
type InputLayer struct {
	Type               LayerType       `json:"type" validate:"oneof=PRIMARY VETERAN"`
	CrownClosure       float64         `json:"crown_closure" validate:"gte=0,lte=100"`
	Site               Site            `json:"site"`
	InventoryTypeGroup *int            `json:"inventory_type_group,omitempty"`
	StockingClass      string          `json:"stocking_class,omitempty" validate:"max=1"`
	Species            []*InputSpecies `json:"species" validate:"dive"`
}

// SpeciesByGenus returns the species with the given genus
func (l *InputLayer) SpeciesByGenus(genus string) (*InputSpecies, bool) {
	for _, s := range l.Species {
		if s.Genus == genus {
			return s, true
		}
	}
	return nil, false
}

// StockingRune returns the stocking class letter, 0 when none
func (l *InputLayer) StockingRune() rune {
	if l.StockingClass == "" {
		return 0
	}
	return []rune(l.StockingClass)[0]
}

// InputPolygon is one polygon as read from the input files or the API
type InputPolygon struct {
	ID                  PolygonIdentifier         `json:"id"`
	BEC                 string                    `json:"bec" validate:"required"`
	ForestInventoryZone string                    `json:"forest_inventory_zone,omitempty"`
	Mode                Mode                      `json:"mode"`
	YieldFactor         float64                   `json:"yield_factor"`
	PercentAvailable    *float64                  `json:"percent_available,omitempty" validate:"omitempty,gt=0,lte=100"`
	NonproductiveDesc   string                    `json:"nonproductive_description,omitempty"`
	Layers              map[LayerType]*InputLayer `json:"layers" validate:"dive"`
}

// Layer returns the layer of type t
func (p *InputPolygon) Layer(t LayerType) (*InputLayer, bool) {
	l, ok := p.Layers[t]
	return l, ok && l != nil
}

// OutputSpecies is a reconciled species
type OutputSpecies struct {
	Genus         string  `json:"genus"`
	PercentGenus  float64 `json:"percent_genus"`
	FractionGenus float64 `json:"fraction_genus"`
	VolumeGroup   int     `json:"volume_group"`
	DecayGroup    int     `json:"decay_group"`
	BreakageGroup int     `json:"breakage_group"`

	utilization.Holder
}

// OutputLayer is a reconciled layer. Its summable vectors are the sum over species
type OutputLayer struct {
	Type                    LayerType `json:"type"`
	AgeTotal                float64   `json:"age_total"`
	YearsToBreastHeight     float64   `json:"years_to_breast_height"`
	BreastHeightAge         float64   `json:"breast_height_age"`
	Height                  float64   `json:"height"`
	SiteIndex               float64   `json:"site_index"`
	SiteGenus               string    `json:"site_genus,omitempty"`
	PrimaryGenus            string    `json:"primary_genus"`
	InventoryTypeGroup      int       `json:"inventory_type_group,omitempty"`
	EmpiricalRelationshipID int       `json:"empirical_relationship_id,omitempty"`

	Species []*OutputSpecies `json:"species"`

	utilization.Holder
}

// SpeciesByGenus returns the species with the given genus
func (l *OutputLayer) SpeciesByGenus(genus string) (*OutputSpecies, bool) {
	for _, s := range l.Species {
		if s.Genus == genus {
			return s, true
		}
	}
	return nil, false
}

// Recompute rebuilds the layer vectors from its species
func (l *OutputLayer) Recompute() {
	parts := make([]*utilization.Holder, len(l.Species))
	for i, s := range l.Species {
		parts[i] = &s.Holder
	}
	l.Holder.RecomputeFrom(parts)
}

// OutputPolygon is the result of processing one polygon
type OutputPolygon struct {
	ID                  PolygonIdentifier          `json:"id"`
	BEC                 coefficients.BecDefinition `json:"bec"`
	ForestInventoryZone string                     `json:"forest_inventory_zone,omitempty"`
	Mode                Mode                       `json:"mode"`
	PercentAvailable    float64                    `json:"percent_available"`
	Layers              map[LayerType]*OutputLayer `json:"layers"`
}

// Status tags a Result
type Status string

// Result statuses
const (
	StatusOK       Status = "ok"
	StatusSkipped  Status = "skipped"
	StatusRejected Status = "rejected"
)

// Result is the outcome of processing one polygon. Polygon is set for StatusOK;
// Reason for StatusSkipped; Err for StatusRejected
type Result struct {
	Index   int               `json:"index"`
	ID      PolygonIdentifier `json:"id"`
	Status  Status            `json:"status"`
	Polygon *OutputPolygon    `json:"polygon,omitempty"`
	Reason  string            `json:"reason,omitempty"`
	Err     error             `json:"-"`
}

// Ok wraps a processed polygon
func Ok(index int, p *OutputPolygon) Result {
	return Result{Index: index, ID: p.ID, Status: StatusOK, Polygon: p}
}

// Skipped reports a polygon passed over without processing
func Skipped(index int, id PolygonIdentifier, reason string) Result {
	return Result{Index: index, ID: id, Status: StatusSkipped, Reason: reason}
}

// Rejected reports a polygon that failed validation or processing
func Rejected(index int, id PolygonIdentifier, err error) Result {
	return Result{Index: index, ID: id, Status: StatusRejected, Reason: err.Error(), Err: err}
}
