package http

import (
	"context"
	"encoding/json"
	"errors"
	stdhttp "net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	phttp "vdyp/internal/platform/net/http"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

func get(t *testing.T, d Deps, path string, out any) int {
	t.Helper()
	mux := chi.NewRouter()
	Register(phttp.AdaptChi(mux), d)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(stdhttp.MethodGet, path, nil))
	var env struct {
		Data json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		t.Fatalf("decode data %s: %v", env.Data, err)
	}
	return rec.Code
}

func TestHealth(t *testing.T) {
	start := time.Date(2026, 10, 1, 8, 0, 0, 0, time.UTC)
	d := Deps{ServiceName: "vdyp-api", StartedAt: start, now: func() time.Time { return start.Add(90 * time.Second) }}

	var got HealthResponse
	if code := get(t, d, "/healthz", &got); code != stdhttp.StatusOK {
		t.Fatalf("code = %d", code)
	}
	if !got.OK || got.Service != "vdyp-api" || got.Uptime != 90 || got.Started != "2026-10-01T08:00:00Z" || got.Version == "" {
		t.Fatalf("health = %+v", got)
	}
}

func TestReady(t *testing.T) {
	cases := []struct {
		name   string
		pg, ch any
		code   int
		status string
		checks [2]string
	}{
		{"nothing configured", nil, nil, stdhttp.StatusOK, "ok", [2]string{"skipped", "skipped"}},
		{"pg up", pinger{}, nil, stdhttp.StatusOK, "ok", [2]string{"ok", "skipped"}},
		{"ch down", pinger{}, pinger{err: errors.New("dial tcp: refused")}, stdhttp.StatusServiceUnavailable, "fail", [2]string{"ok", "fail"}},
		{"no ping method", struct{}{}, nil, stdhttp.StatusOK, "ok", [2]string{"skipped", "skipped"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var got ReadyResponse
			code := get(t, Deps{ServiceName: "vdyp-api", PG: tc.pg, CH: tc.ch}, "/readyz", &got)
			if code != tc.code || got.Status != tc.status || len(got.Checks) != 2 {
				t.Fatalf("code=%d ready=%+v", code, got)
			}
			for i, want := range tc.checks {
				if got.Checks[i].Status != want {
					t.Fatalf("check %s = %s, want %s", got.Checks[i].Name, got.Checks[i].Status, want)
				}
			}
		})
	}
}

func TestVersion(t *testing.T) {
	var got struct {
		Service string `json:"service"`
		Version string `json:"version"`
	}
	if code := get(t, Deps{ServiceName: "vdyp-api"}, "/version", &got); code != stdhttp.StatusOK {
		t.Fatalf("code = %d", code)
	}
	if got.Service != "vdyp-api" || got.Version == "" {
		t.Fatalf("version = %+v", got)
	}
}
