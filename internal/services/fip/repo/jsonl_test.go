package repo

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	perr "vdyp/internal/platform/errors"
	"vdyp/internal/services/fip/domain"
)

func TestJSONL_Put(t *testing.T) {
	var buf bytes.Buffer
	s := NewJSONL(&buf, runID)
	ctx := context.Background()
	id := domain.PolygonIdentifier{Base: "01002 S000002 00", Year: 1970}

	for _, r := range []domain.Result{
		domain.Ok(0, samplePolygon()),
		domain.Skipped(1, id, "mode BATC"),
		domain.Rejected(2, id, perr.LowValue("Base area", 0.02, 0.5)),
	} {
		if err := s.Put(ctx, r); err != nil {
			t.Fatalf("Put: %v", err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 3 {
		t.Fatalf("lines = %d", len(lines))
	}

	var ok map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &ok); err != nil {
		t.Fatal(err)
	}
	if ok["run_id"] != runID || ok["status"] != "ok" || ok["polygon"] == nil || ok["error"] != nil {
		t.Fatalf("ok line = %s", lines[0])
	}

	var rejected struct {
		Status string    `json:"status"`
		Reason string    `json:"reason"`
		Error  perr.Wire `json:"error"`
	}
	if err := json.Unmarshal([]byte(lines[2]), &rejected); err != nil {
		t.Fatal(err)
	}
	if rejected.Status != "rejected" || rejected.Error.Code != perr.ErrorCodeLowValue || rejected.Error.Field != "Base area" {
		t.Fatalf("rejected line = %s", lines[2])
	}
}

func TestCreateJSONL(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.jsonl")
	s, err := CreateJSONL(path, runID)
	if err != nil {
		t.Fatalf("CreateJSONL: %v", err)
	}
	if err := s.Put(context.Background(), domain.Skipped(0, domain.PolygonIdentifier{Base: "A", Year: 2000}, "mode BATN")); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"reason":"mode BATN"`) {
		t.Fatalf("file = %s", b)
	}

	if _, err := CreateJSONL(filepath.Join(t.TempDir(), "missing", "out.jsonl"), runID); !perr.IsCode(err, perr.ErrorCodeIO) {
		t.Fatalf("err = %v", err)
	}
}
