// Package containers starts throwaway postgres and clickhouse servers for the
// integration tests, which run with -tags integration
package containers

import (
	"context"
	"fmt"
	"testing"
	"time"

	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	PostgresImage   = "postgres:16-alpine"
	ClickhouseImage = "clickhouse/clickhouse-server:24.8-alpine"

	// a cold image pull counts against this
	startTimeout = 3 * time.Minute
	database     = "vdyp"
)

type server struct {
	image string
	port  string
	env   map[string]string
	ready wait.Strategy
	dsn   string // host and port are filled in
}

// start runs s until the test ends and returns its DSN
func start(t *testing.T, s server) string {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), startTimeout)
	defer cancel()

	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{
		ContainerRequest: tc.ContainerRequest{
			Image:        s.image,
			ExposedPorts: []string{s.port},
			Env:          s.env,
			WaitingFor:   s.ready,
		},
		Started: true,
	})
	if err != nil {
		t.Fatalf("start %s: %v", s.image, err)
	}
	t.Cleanup(func() {
		if err := c.Terminate(context.Background()); err != nil {
			t.Logf("terminate %s: %v", s.image, err)
		}
	})

	// the only exposed port, as host:port
	ep, err := c.Endpoint(ctx, "")
	if err != nil {
		t.Fatalf("%s endpoint: %v", s.image, err)
	}
	return fmt.Sprintf(s.dsn, ep)
}

// Postgres starts postgres with a vdyp database and returns a pgx DSN
func Postgres(t *testing.T) string {
	return start(t, server{
		image: PostgresImage,
		port:  "5432/tcp",
		env: map[string]string{
			"POSTGRES_USER":     "vdyp",
			"POSTGRES_PASSWORD": "vdyp",
			"POSTGRES_DB":       database,
		},
		// postgres restarts once after init, so the ready line shows up twice
		ready: wait.ForAll(
			wait.ForListeningPort("5432/tcp"),
			wait.ForLog("database system is ready to accept connections").WithOccurrence(2),
		),
		dsn: "postgres://vdyp:vdyp@%s/" + database + "?sslmode=disable",
	})
}

// Clickhouse starts clickhouse with a vdyp database and returns a native protocol DSN
func Clickhouse(t *testing.T) string {
	return start(t, server{
		image: ClickhouseImage,
		port:  "9000/tcp",
		env: map[string]string{
			"CLICKHOUSE_DB":       database,
			"CLICKHOUSE_USER":     "vdyp",
			"CLICKHOUSE_PASSWORD": "vdyp",
		},
		ready: wait.ForListeningPort("9000/tcp"),
		dsn: "clickhouse://vdyp:vdyp@%s/" + database,
	})
}
