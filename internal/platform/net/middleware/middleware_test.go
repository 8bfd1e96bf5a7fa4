package middleware_test

import (
	"bytes"
	"compress/flate"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	perr "vdyp/internal/platform/errors"
	"vdyp/internal/platform/logger"
	pnet "vdyp/internal/platform/net"
	phttp "vdyp/internal/platform/net/http"
	"vdyp/internal/platform/net/middleware"
)

func chain(h http.Handler, mws ...func(http.Handler) http.Handler) http.Handler {
	for i := len(mws) - 1; i >= 0; i-- {
		h = mws[i](h)
	}
	return h
}

func TestAccessLog_PassThroughAndRequestID(t *testing.T) {
	var seen string
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = pnet.RequestID(r.Context())
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, "ok")
	})
	h := chain(next, middleware.RequestID(), middleware.AccessLog(middleware.AccessLogOptions{Slow: time.Nanosecond}))

	req := httptest.NewRequest(http.MethodPost, "/v1/fip/polygons:process", nil)
	req.Header.Set("X-Request-ID", "rid-42")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusCreated || rec.Body.String() != "ok" {
		t.Fatalf("code=%d body=%q", rec.Code, rec.Body.String())
	}
	if seen != "rid-42" {
		t.Fatalf("request id = %q", seen)
	}
}

func TestAccessLog_Line(t *testing.T) {
	var buf bytes.Buffer
	logger.Init(logger.Options{Level: "info", Format: "json", Writer: &buf})
	t.Cleanup(func() { logger.Init(logger.FromEnv()) })

	next := http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "accepted")
	})
	h := chain(next, middleware.RequestID(), middleware.AccessLog(middleware.AccessLogOptions{Slow: time.Nanosecond}))
	req := httptest.NewRequest(http.MethodGet, "/v1/fip/runs/r1", nil)
	req.Header.Set("X-Request-ID", "rid-7")
	h.ServeHTTP(httptest.NewRecorder(), req)

	var line struct {
		Level     string `json:"level"`
		Message   string `json:"message"`
		Status    int    `json:"status"`
		Bytes     int    `json:"bytes"`
		Path      string `json:"path"`
		RequestID string `json:"request_id"`
	}
	if err := json.Unmarshal(buf.Bytes(), &line); err != nil {
		t.Fatalf("%v: %s", err, buf.String())
	}
	if line.Message != "request done" || line.Level != "warn" || line.Status != http.StatusOK ||
		line.Bytes != len("accepted") || line.Path != "/v1/fip/runs/r1" || line.RequestID != "rid-7" {
		t.Fatalf("line %+v", line)
	}
}

func TestRecoverJSON(t *testing.T) {
	h := middleware.RecoverJSON(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic("boom") }))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(pnet.WithRequest(req.Context(), "rid-p"))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError || rec.Header().Get("X-Request-ID") != "rid-p" {
		t.Fatalf("code=%d headers=%v", rec.Code, rec.Header())
	}
	var env phttp.Envelope
	if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
		t.Fatal(err)
	}
	if env.Code != perr.ErrorCodePanic || env.RequestID != "rid-p" {
		t.Fatalf("envelope = %+v", env)
	}
}

func TestRecoverJSON_AbortHandlerPropagates(t *testing.T) {
	h := middleware.RecoverJSON(http.HandlerFunc(func(http.ResponseWriter, *http.Request) { panic(http.ErrAbortHandler) }))
	defer func() {
		if v := recover(); v != http.ErrAbortHandler {
			t.Fatalf("recovered %v", v)
		}
	}()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
}

func TestRecoverJSON_NoPanic(t *testing.T) {
	h := middleware.RecoverJSON(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusNoContent) }))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("code = %d", rec.Code)
	}
}

func TestCORS_Preflight(t *testing.T) {
	h := middleware.CORS(middleware.CORSOptions{AllowedOrigins: []string{"https://example.org"}})(
		http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) }))

	req := httptest.NewRequest(http.MethodOptions, "/v1/healthz", nil)
	req.Header.Set("Origin", "https://example.org")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "https://example.org" {
		t.Fatalf("allow origin = %q", got)
	}
}

func TestCompress(t *testing.T) {
	h := middleware.Compress(flate.BestSpeed)(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, strings.Repeat(`{"base_area":1.0}`, 500))
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Header().Get("Content-Encoding") != "gzip" {
		t.Fatalf("content encoding = %q", rec.Header().Get("Content-Encoding"))
	}
}

func TestAllowContentType(t *testing.T) {
	h := middleware.AllowContentType("application/json")(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {}))
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("x"))
	req.Header.Set("Content-Type", "text/plain")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("code = %d", rec.Code)
	}
}

func TestAdapters_NotNil(t *testing.T) {
	for i, mw := range []func(http.Handler) http.Handler{
		middleware.RealIP(), middleware.NoCache(), middleware.StripSlashes(),
		middleware.Timeout(time.Second), middleware.ThrottleBacklog(4, 16, time.Second),
	} {
		if mw == nil {
			t.Fatalf("adapter %d is nil", i)
		}
	}
}
