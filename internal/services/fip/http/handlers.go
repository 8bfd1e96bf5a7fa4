// Package http provides the fip endpoints
package http

import (
	stdhttp "net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"vdyp/internal/modkit/httpkit"
	perr "vdyp/internal/platform/errors"
	"vdyp/internal/platform/logger"
	dom "vdyp/internal/services/fip/domain"
	"vdyp/internal/services/fip/repo"
)

// Ports are the result store the handlers persist to and read runs from
type Ports interface {
	dom.WriterPort
	dom.QueryPort
}

// Register mounts the fip routes
func Register(r httpkit.Router, proc dom.ProcessorPort, store Ports) {
	h := &handlers{proc: proc, store: store}

	// one polygon, answered with its tagged result
	httpkit.PostJSON[dom.InputPolygon](r, "/polygons:process", h.process)

	// what a stored run holds, summed by layer
	httpkit.Get(r, "/runs/{run_id}", h.runTotals)
}

type handlers struct {
	proc  dom.ProcessorPort
	store Ports
}

// process runs a single polygon as its own run. With ?persist=true an accepted polygon
// is stored under that run id. Rejections are part of the result and answer 200;
// only failures outside the polygon map to an error status
//
// @Summary Process one polygon
// @Tags FIP
// @Accept json
// @Produce json
// @Param persist query bool false "store an accepted polygon"
// @Param payload body domain.InputPolygon true "Polygon"
// @Success 200 {object} repo.Record "tagged result"
// @Router /fip/polygons:process [post]
func (h *handlers) process(r *stdhttp.Request, in dom.InputPolygon) (any, error) {
	persist := false
	if s := r.URL.Query().Get("persist"); s != "" {
		v, err := strconv.ParseBool(s)
		if err != nil {
			return nil, perr.WithField(perr.InvalidArgf("persist must be a boolean"), "persist")
		}
		persist = v
	}

	runID := uuid.NewString()
	ctx := logger.WithRun(r.Context(), runID)

	res := h.proc.ProcessPolygon(ctx, 0, &in)
	if res.Err != nil && !perr.IsPolygonFault(res.Err) {
		return nil, res.Err
	}
	if persist && res.Status == dom.StatusOK {
		if err := h.store.WritePolygons(ctx, runID, []*dom.OutputPolygon{res.Polygon}); err != nil {
			return nil, err
		}
		logger.C(ctx).Info().Str("polygon", res.ID.String()).Msg("polygon stored")
	}
	return repo.NewRecord(runID, res), nil
}

// @Summary Totals of a stored run
// @Tags FIP
// @Produce json
// @Param run_id path string true "run id (uuid)"
// @Success 200 {object} domain.RunTotals "ok"
// @Router /fip/runs/{run_id} [get]
func (h *handlers) runTotals(r *stdhttp.Request) (any, error) {
	id := chi.URLParam(r, "run_id")
	if _, err := uuid.Parse(id); err != nil {
		return nil, perr.WithField(perr.InvalidArgf("run id %q is not a uuid", id), "run_id")
	}
	return h.store.RunTotals(r.Context(), id)
}
