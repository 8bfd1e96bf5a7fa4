package store

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	perr "vdyp/internal/platform/errors"
)

func TestOpen_Disabled(t *testing.T) {
	t.Parallel()
	s, err := Open(context.Background(), Config{})
	if err != nil || s.Enabled() {
		t.Fatalf("store %+v, %v", s, err)
	}
	if err := s.Guard(context.Background()); err != nil {
		t.Fatalf("Guard: %v", err)
	}
	if err := s.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}
}

func TestOpen_ClickhouseOnly(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	cfg := Config{AppName: "fipstart", CH: CHConfig{Enabled: true, URL: "clickhouse://localhost:9000/vdyp"}}
	// the driver dials lazily
	s, err := Open(context.Background(), cfg, WithLogger(zerolog.New(&buf)))
	if err != nil {
		t.Fatal(err)
	}
	if s.CH == nil || s.PG != nil || !s.Enabled() {
		t.Fatalf("backends pg=%v ch=%v", s.PG, s.CH)
	}
	if !strings.Contains(buf.String(), `"component":"store"`) || !strings.Contains(buf.String(), `"clickhouse":true`) {
		t.Fatalf("log %s", buf.String())
	}
	if err := s.Close(context.Background()); err != nil {
		t.Fatal(err)
	}
}

func TestOpen_BadURLs(t *testing.T) {
	t.Parallel()
	cases := map[string]Config{
		"postgres":   {PG: PGConfig{Enabled: true, URL: "://bad"}},
		"clickhouse": {CH: CHConfig{Enabled: true, URL: "://bad"}},
		"first fails": {
			PG: PGConfig{Enabled: true, URL: "://bad"},
			CH: CHConfig{Enabled: true, URL: "clickhouse://localhost:9000"},
		},
	}
	for name, cfg := range cases {
		t.Run(name, func(t *testing.T) {
			s, err := Open(context.Background(), cfg)
			if s != nil || !perr.IsCode(err, perr.ErrorCodeConfig) {
				t.Fatalf("store %v, err %v", s, err)
			}
		})
	}
}

type fakeBackend struct {
	TxRunner
	pingErr  error
	closeErr error
	closed   *[]string
	name     string
}

func (f *fakeBackend) Ping(context.Context) error { return f.pingErr }
func (f *fakeBackend) Close() error {
	*f.closed = append(*f.closed, f.name)
	return f.closeErr
}

type fakeCHBackend struct {
	Clickhouse
	*fakeBackend
}

func (f fakeCHBackend) Close() error { return f.fakeBackend.Close() }

func TestGuard(t *testing.T) {
	t.Parallel()

	var nilStore *Store
	if !perr.IsCode(nilStore.Guard(context.Background()), perr.ErrorCodeConfig) {
		t.Fatal("nil store")
	}

	var closed []string
	s := &Store{
		PG: &fakeBackend{pingErr: errors.New("refused"), closed: &closed, name: "pg"},
		CH: fakeCHBackend{fakeBackend: &fakeBackend{closed: &closed, name: "ch"}},
	}
	err := s.Guard(context.Background())
	if !perr.IsCode(err, perr.ErrorCodeUnavailable) || !strings.HasPrefix(err.Error(), "postgres: refused") {
		t.Fatalf("Guard = %v", err)
	}

	s.CH = fakeCHBackend{fakeBackend: &fakeBackend{pingErr: errors.New("timeout"), closed: &closed, name: "ch"}}
	if err := s.Guard(context.Background()); !strings.Contains(err.Error(), "clickhouse: timeout") {
		t.Fatalf("Guard = %v", err)
	}
}

func TestClose_ReverseOrderAndJoinedErrors(t *testing.T) {
	t.Parallel()

	var closed []string
	s := &Store{
		PG: &fakeBackend{closed: &closed, name: "pg", closeErr: errors.New("pg busy")},
		CH: fakeCHBackend{fakeBackend: &fakeBackend{closed: &closed, name: "ch"}},
	}
	err := s.Close(context.Background())
	if err == nil || !strings.Contains(err.Error(), "pg busy") {
		t.Fatalf("Close = %v", err)
	}
	if len(closed) != 2 || closed[0] != "ch" || closed[1] != "pg" {
		t.Fatalf("close order %v", closed)
	}
}

func TestAppName(t *testing.T) {
	t.Parallel()
	if appName(Config{}) != "vdyp" || appName(Config{AppName: "api"}) != "vdyp-api" {
		t.Fatal("appName")
	}
}
