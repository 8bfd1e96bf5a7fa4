package store

import (
	"time"

	"vdyp/internal/platform/config"
)

// Config aggregates per backend configuration
type Config struct {
	// AppName is the process role reported to both backends
	AppName string
	Version string

	PG PGConfig
	CH CHConfig
}

// PGConfig configures postgres connectivity and tracing
type PGConfig struct {
	Enabled     bool
	URL         string
	MaxConns    int32
	LogSQL      bool
	SlowQueryMs int

	// ConnectRetries bounds the startup ping loop, default 20
	ConnectRetries int
	// PingTimeout bounds each startup ping, default 3s
	PingTimeout time.Duration
}

// CHConfig configures clickhouse connectivity
type CHConfig struct {
	Enabled bool
	URL     string
}

// FromConfig reads SERVICE_PGSQL_* and SERVICE_CLICKHOUSE_*. A backend is enabled
// when its DBURL is set
func FromConfig(cfg config.Conf, app string) Config {
	pg := cfg.Prefix("SERVICE_PGSQL_")
	ch := cfg.Prefix("SERVICE_CLICKHOUSE_")
	pgURL := pg.MayString("DBURL", "")
	chURL := ch.MayString("DBURL", "")
	return Config{
		AppName: app,
		PG: PGConfig{
			Enabled:     pgURL != "",
			URL:         pgURL,
			MaxConns:    int32(pg.MayInt("MAX_CONNS", 4)),
			SlowQueryMs: pg.MayInt("SLOW_MS", 500),
			LogSQL:      pg.MayBool("LOG_SQL", false),
		},
		CH: CHConfig{
			Enabled: chURL != "",
			URL:     chURL,
		},
	}
}
