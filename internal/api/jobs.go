package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/amorlink/engage/internal/campaign"
	"github.com/amorlink/engage/internal/pkg/httputil"
	"github.com/amorlink/engage/internal/pkg/logger"
)

// RunFunc executes one externally-triggered job and returns its counters.
type RunFunc func(ctx context.Context) (map[string]any, error)

// JobRegistry maps trigger names to runnable jobs. Registration happens at
// wiring time; lookups are read-only afterwards.
type JobRegistry struct {
	jobs map[string]RunFunc
}

// NewJobRegistry creates an empty registry.
func NewJobRegistry() *JobRegistry {
	return &JobRegistry{jobs: map[string]RunFunc{}}
}

// Register adds a job under its trigger name.
func (r *JobRegistry) Register(name string, fn RunFunc) {
	r.jobs[name] = fn
}

// Lookup resolves a trigger name.
func (r *JobRegistry) Lookup(name string) (RunFunc, bool) {
	fn, ok := r.jobs[name]
	return fn, ok
}

// MailJobFunc adapts a mail campaign to the trigger registry.
func MailJobFunc(runner *campaign.Runner, job campaign.Job) RunFunc {
	return func(ctx context.Context) (map[string]any, error) {
		summary, err := runner.Run(ctx, job)
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"sent":    summary.Sent,
			"skipped": summary.Skipped,
			"errors":  summary.Errors,
		}, nil
	}
}

// RunJob executes the named job synchronously and reports its counters.
//
//	POST /api/jobs/{name}/run
func (h *Handlers) RunJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	fn, ok := h.jobs.Lookup(name)
	if !ok {
		httputil.NotFound(w, "unknown job")
		return
	}

	started := time.Now()
	counts, err := fn(r.Context())
	if err != nil {
		logger.Error("job run failed", "job", name, "error", err)
		httputil.JSON(w, http.StatusInternalServerError, map[string]any{
			"success": false,
			"error":   err.Error(),
		})
		return
	}

	logger.Info("job run finished", "job", name, "duration", time.Since(started).String())
	resp := map[string]any{"success": true}
	for k, v := range counts {
		resp[k] = v
	}
	httputil.OK(w, resp)
}
