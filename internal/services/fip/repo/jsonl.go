package repo

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"os"

	perr "vdyp/internal/platform/errors"
	"vdyp/internal/services/fip/domain"
)

// Record is one JSON line: a result tagged with its run and, for rejections, the
// error code and field
type Record struct {
	RunID string `json:"run_id"`
	domain.Result
	Error *perr.Wire `json:"error,omitempty"`
}

// NewRecord tags r with runID and the wire form of its error
func NewRecord(runID string, r domain.Result) Record {
	rec := Record{RunID: runID, Result: r}
	if r.Err != nil {
		w := perr.WireFrom(r.Err)
		rec.Error = &w
	}
	return rec
}

// JSONL writes every result as a JSON line
type JSONL struct {
	runID  string
	w      *bufio.Writer
	enc    *json.Encoder
	closer io.Closer
}

// NewJSONL writes to w. Close flushes but does not close w
func NewJSONL(w io.Writer, runID string) *JSONL {
	bw := bufio.NewWriter(w)
	return &JSONL{runID: runID, w: bw, enc: json.NewEncoder(bw)}
}

// CreateJSONL opens path for writing; "-" is stdout
func CreateJSONL(path, runID string) (*JSONL, error) {
	if path == "-" {
		return NewJSONL(os.Stdout, runID), nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeIO, "create %s", path)
	}
	s := NewJSONL(f, runID)
	s.closer = f
	return s, nil
}

// Put implements domain.Sink
func (s *JSONL) Put(_ context.Context, r domain.Result) error {
	if err := s.enc.Encode(NewRecord(s.runID, r)); err != nil {
		return perr.Wrapf(err, perr.ErrorCodeIO, "write result %d", r.Index)
	}
	return nil
}

// Close flushes buffered lines and closes the file it created
func (s *JSONL) Close() error {
	err := s.w.Flush()
	if s.closer != nil {
		if cerr := s.closer.Close(); err == nil {
			err = cerr
		}
	}
	if err != nil {
		return perr.Wrap(err, perr.ErrorCodeIO, "close results")
	}
	return nil
}
