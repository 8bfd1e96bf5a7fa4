package httpkit

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"

	"vdyp/internal/platform/config"
	phttp "vdyp/internal/platform/net/http"
)

type echoIn struct {
	ID string `json:"id" validate:"required"`
}

func TestMountAPIV1(t *testing.T) {
	mux := chi.NewRouter()
	MountAPIV1(phttp.AdaptChi(mux), CommonStack(StackOptions{AllowContents: []string{"application/json"}}), func(r Router) {
		Get(r, "/ping", func(*http.Request) (any, error) { return "pong", nil })
		PostJSON(r, "/echo", func(_ *http.Request, in echoIn) (any, error) {
			return Response{Status: http.StatusCreated, Body: in.ID}, nil
		})
	})

	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/v1/ping", nil)
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `"data":"pong"`) {
		t.Fatalf("ping: %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/v1/echo", strings.NewReader(`{"id":"093C045 1 2020"}`))
	req.Header.Set("Content-Type", "application/json")
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusCreated || !strings.Contains(rec.Body.String(), "093C045") {
		t.Fatalf("echo: %d %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodPost, "/v1/echo", strings.NewReader(`id=1`))
	req.Header.Set("Content-Type", "text/plain")
	mux.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnsupportedMediaType {
		t.Fatalf("content type: %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ping", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("unversioned: %d", rec.Code)
	}
}

func TestStackFromConfig(t *testing.T) {
	t.Setenv("API_TIMEOUT", "5s")
	t.Setenv("API_CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("API_MAX_IN_FLIGHT", "0")

	o := StackFromConfig(config.New().Prefix("API_"))
	if o.Timeout.String() != "5s" || len(o.CORSOrigins) != 2 || o.CORSOrigins[1] != "https://b.example" || o.MaxInFlight != 0 {
		t.Fatalf("options %+v", o)
	}
	if n := len(CommonStack(o)); n != 10 {
		t.Fatalf("stack has %d middlewares", n)
	}
}
