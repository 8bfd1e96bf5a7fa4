package service

import (
	"context"

	"vdyp/internal/platform/logger"
	dom "vdyp/internal/services/fip/domain"
)

// DefaultBatchSize is how many processed polygons BatchSink holds before writing
const DefaultBatchSize = 500

// BatchSink buffers processed polygons and hands them to a writer in batches.
// Skipped and rejected results are dropped. Call Flush after the run
type BatchSink struct {
	W    dom.WriterPort
	Size int

	runID string
	buf   []*dom.OutputPolygon
}

// NewBatchSink constructs a batch sink; size <= 0 uses DefaultBatchSize
func NewBatchSink(w dom.WriterPort, size int) *BatchSink {
	if size <= 0 {
		size = DefaultBatchSize
	}
	return &BatchSink{W: w, Size: size}
}

// Put implements domain.Sink
func (b *BatchSink) Put(ctx context.Context, r dom.Result) error {
	if r.Status != dom.StatusOK || r.Polygon == nil {
		return nil
	}
	if b.runID == "" {
		b.runID = logger.RunID(ctx)
	}
	b.buf = append(b.buf, r.Polygon)
	if len(b.buf) >= b.Size {
		return b.Flush(ctx)
	}
	return nil
}

// Flush writes whatever is buffered
func (b *BatchSink) Flush(ctx context.Context) error {
	if len(b.buf) == 0 {
		return nil
	}
	runID := b.runID
	if runID == "" {
		runID = logger.RunID(ctx)
	}
	if err := b.W.WritePolygons(ctx, runID, b.buf); err != nil {
		return err
	}
	logger.C(ctx).Debug().Int("polygons", len(b.buf)).Msg("fip batch written")
	b.buf = b.buf[:0]
	return nil
}

// Tee passes every result to each sink in turn and stops at the first error
type Tee []dom.Sink

// Put implements domain.Sink
func (t Tee) Put(ctx context.Context, r dom.Result) error {
	for _, s := range t {
		if err := s.Put(ctx, r); err != nil {
			return err
		}
	}
	return nil
}
