package service

import (
	"context"
	"errors"
	"io"
	"sync"

	"github.com/google/uuid"

	perr "vdyp/internal/platform/errors"
	"vdyp/internal/platform/logger"
	dom "vdyp/internal/services/fip/domain"
)

// the reader runs at most this many polygons per worker ahead of the sink
const reorderAhead = 4

type job struct {
	index int
	p     *dom.InputPolygon
}

// Run reads every polygon from src, processes them over Cfg.Workers goroutines and
// hands the results to sink in input order. Polygon faults are logged and counted.
// Any other error stops the run and is returned with the counts so far
func (s *Service) Run(ctx context.Context, src dom.Source, sink dom.Sink) (dom.Summary, error) {
	sum := dom.Summary{RunID: logger.RunID(ctx)}
	if sum.RunID == "" {
		sum.RunID = uuid.NewString()
		ctx = logger.WithRun(ctx, sum.RunID)
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	log := logger.C(ctx)
	log.Info().Int("workers", s.Cfg.Workers).Bool("dry_run", s.Cfg.DryRun).Msg("fip run starting")

	var (
		mu    sync.Mutex
		fatal error
	)
	fail := func(err error) {
		mu.Lock()
		defer mu.Unlock()
		if fatal == nil {
			fatal = err
			cancel()
		}
	}
	failed := func() error {
		mu.Lock()
		defer mu.Unlock()
		return fatal
	}

	jobs := make(chan job)
	results := make(chan dom.Result, s.Cfg.Workers)
	// one slot per polygon read and not yet emitted
	window := make(chan struct{}, reorderAhead*s.Cfg.Workers)

	// reader
	go func() {
		defer close(jobs)
		for i := 0; ; i++ {
			p, err := src.Next(ctx)
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil && !perr.IsPolygonFault(err) {
				fail(err)
				return
			}
			select {
			case window <- struct{}{}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				var id dom.PolygonIdentifier
				if p != nil {
					id = p.ID
				}
				select {
				case results <- dom.Rejected(i, id, err):
					continue
				case <-ctx.Done():
					return
				}
			}
			select {
			case jobs <- job{i, p}:
			case <-ctx.Done():
				return
			}
		}
	}()

	// workers
	var wg sync.WaitGroup
	sem := make(chan struct{}, s.Cfg.Workers)
	go func() {
		defer func() {
			wg.Wait()
			close(results)
		}()
		for j := range jobs {
			sem <- struct{}{}
			wg.Add(1)
			go func(j job) {
				defer func() { <-sem; wg.Done() }()
				r := s.ProcessPolygon(ctx, j.index, j.p)
				select {
				case results <- r:
				case <-ctx.Done():
				}
			}(j)
		}
	}()

	// reorder
	pending := make(map[int]dom.Result)
	next := 0
	for r := range results {
		if failed() != nil {
			continue
		}
		pending[r.Index] = r
		for {
			r, ok := pending[next]
			if !ok {
				break
			}
			delete(pending, next)
			next++
			<-window
			if err := s.emit(ctx, sink, r, &sum); err != nil {
				fail(err)
				break
			}
		}
	}

	if ctx.Err() != nil {
		fail(ctx.Err())
	}
	err := failed()
	ev := log.Info()
	if err != nil {
		ev = log.Error().Err(err)
	}
	ev.Int("read", sum.Read).Int("ok", sum.OK).Int("skipped", sum.Skipped).Int("rejected", sum.Rejected).Msg("fip run finished")
	return sum, err
}

// emit counts one result and passes it to the sink. Rejections that are not polygon
// faults end the run
func (s *Service) emit(ctx context.Context, sink dom.Sink, r dom.Result, sum *dom.Summary) error {
	sum.Read++
	switch r.Status {
	case dom.StatusOK:
		sum.OK++
	case dom.StatusSkipped:
		sum.Skipped++
	case dom.StatusRejected:
		if !perr.IsPolygonFault(r.Err) {
			return r.Err
		}
		sum.Rejected++
		logger.C(logger.WithPolygon(ctx, r.ID.String())).Warn().Err(r.Err).Msg("polygon bypassed")
	}
	if s.Cfg.DryRun {
		return nil
	}
	return sink.Put(ctx, r)
}
