package module

import (
	"time"

	"vdyp/internal/core/coefficients"
	"vdyp/internal/platform/config"
	"vdyp/internal/services/fip/service"
)

// Options controls the fip service
type Options struct {
	Workers int
	// Coefficients is a tables file replacing the embedded tables
	Coefficients string
	DryRun       bool
	BatchSize    int
	// StatementTimeout bounds each postgres statement of a result batch
	StatementTimeout time.Duration

	// zero keeps the tables threshold
	MinHeight           float64
	MinBaseArea         float64
	MinFullyStockedArea float64
	MinVeteranHeight    float64
}

// FromConfig reads FIP_* settings
func FromConfig(cfg config.Conf) Options {
	c := cfg.Prefix("FIP_")
	return Options{
		Workers:             c.MayInt("WORKERS", 4),
		Coefficients:        c.MayString("COEFFICIENTS", ""),
		DryRun:              c.MayBool("DRY_RUN", false),
		BatchSize:           c.MayInt("BATCH_SIZE", service.DefaultBatchSize),
		StatementTimeout:    c.MayDuration("STATEMENT_TIMEOUT", 30*time.Second),
		MinHeight:           c.MayFloat64("MIN_HEIGHT", 0),
		MinBaseArea:         c.MayFloat64("MIN_BASE_AREA", 0),
		MinFullyStockedArea: c.MayFloat64("MIN_FULLY_STOCKED_AREA", 0),
		MinVeteranHeight:    c.MayFloat64("MIN_VETERAN_HEIGHT", 0),
	}
}

// LoadTables reads the Coefficients file, or the embedded tables when it is unset
func (o Options) LoadTables() (*coefficients.Tables, error) {
	if o.Coefficients == "" {
		return coefficients.Load()
	}
	return coefficients.LoadFile(o.Coefficients)
}

// minima applies the overrides to base, returning nil when nothing is overridden
func (o Options) minima(base coefficients.Minima) *coefficients.Minima {
	m := base
	set := func(dst *float64, v float64) bool {
		if v > 0 {
			*dst = v
			return true
		}
		return false
	}
	changed := set(&m.Height, o.MinHeight)
	changed = set(&m.BaseArea, o.MinBaseArea) || changed
	changed = set(&m.FullyStockedArea, o.MinFullyStockedArea) || changed
	changed = set(&m.VeteranHeight, o.MinVeteranHeight) || changed
	if !changed {
		return nil
	}
	return &m
}

// serviceConfig is the service config for tables t
func (o Options) serviceConfig(t *coefficients.Tables) service.Config {
	return service.Config{
		Workers: o.Workers,
		Minima:  o.minima(t.Minima),
		DryRun:  o.DryRun,
	}
}
