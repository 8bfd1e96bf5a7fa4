// Package http provides the service meta endpoints
package http

import (
	"context"
	stdhttp "net/http"
	"time"

	"vdyp/internal/core/version"
	"vdyp/internal/modkit/httpkit"
)

// Pinger is satisfied by stores that can report readiness
type Pinger interface {
	Ping(context.Context) error
}

// Deps are the handler dependencies. PG and CH are nil when not configured
type Deps struct {
	ServiceName string
	StartedAt   time.Time
	PG          any
	CH          any
	// ReadyTimeout bounds all readiness pings, default 2s
	ReadyTimeout time.Duration
	now          func() time.Time
}

// Register mounts the meta routes
func Register(r httpkit.Router, d Deps) {
	if d.now == nil {
		d.now = time.Now
	}
	if d.ReadyTimeout <= 0 {
		d.ReadyTimeout = 2 * time.Second
	}
	h := &handlers{deps: d}
	httpkit.Get(r, "/healthz", h.health)
	httpkit.Get(r, "/readyz", h.ready)
	httpkit.Get(r, "/version", h.version)
}

// HealthResponse is the liveness payload
type HealthResponse struct {
	OK      bool   `json:"ok"`
	Service string `json:"service"`
	Version string `json:"version"`
	Started string `json:"started"`
	Uptime  int64  `json:"uptime_seconds"`
}

// ReadyCheck is the state of one store: ok, fail or skipped
type ReadyCheck struct {
	Name   string `json:"name"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// ReadyResponse is ok when every configured store answers and fail otherwise
type ReadyResponse struct {
	Status string       `json:"status"`
	Checks []ReadyCheck `json:"checks"`
}

type handlers struct{ deps Deps }

// @Summary Liveness
// @Tags Meta
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /healthz [get]
func (h *handlers) health(*stdhttp.Request) (any, error) {
	return HealthResponse{
		OK:      true,
		Service: h.deps.ServiceName,
		Version: version.Info(h.deps.ServiceName).Version,
		Started: h.deps.StartedAt.UTC().Format(time.RFC3339),
		Uptime:  int64(h.deps.now().Sub(h.deps.StartedAt) / time.Second),
	}, nil
}

// @Summary Readiness of the configured stores
// @Tags Meta
// @Produce json
// @Success 200 {object} ReadyResponse
// @Failure 503 {object} ReadyResponse
// @Router /readyz [get]
func (h *handlers) ready(r *stdhttp.Request) (any, error) {
	ctx, cancel := context.WithTimeout(r.Context(), h.deps.ReadyTimeout)
	defer cancel()

	check := func(name string, c any) ReadyCheck {
		p, ok := c.(Pinger)
		if c == nil || !ok {
			return ReadyCheck{Name: name, Status: "skipped"}
		}
		if err := p.Ping(ctx); err != nil {
			return ReadyCheck{Name: name, Status: "fail", Error: err.Error()}
		}
		return ReadyCheck{Name: name, Status: "ok"}
	}

	resp := ReadyResponse{Status: "ok", Checks: []ReadyCheck{check("pg", h.deps.PG), check("ch", h.deps.CH)}}
	for _, c := range resp.Checks {
		if c.Status == "fail" {
			resp.Status = "fail"
			return httpkit.Response{Status: stdhttp.StatusServiceUnavailable, Body: resp}, nil
		}
	}
	return resp, nil
}

// @Summary Build information
// @Tags Meta
// @Produce json
// @Success 200 {object} version.BuildInfo
// @Router /version [get]
func (h *handlers) version(*stdhttp.Request) (any, error) {
	return version.Info(h.deps.ServiceName), nil
}
