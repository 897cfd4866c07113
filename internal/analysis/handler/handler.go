// Package handler exposes the read-only analysis endpoints: version diffs
// and dependent impact reports.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ontoreg/internal/change"
	"ontoreg/internal/impact"
	"ontoreg/internal/platform/metrics"
	"ontoreg/internal/platform/middleware"
	"ontoreg/internal/transport/http/shared"
	id "ontoreg/pkg/domain"
	dErrors "ontoreg/pkg/domain-errors"
)

// Differ computes the structured diff between two versions.
type Differ interface {
	Diff(ctx context.Context, oldID, newID id.VersionID) (*change.ChangeSet, error)
}

// Advisor reports impact of a change set on dependents.
type Advisor interface {
	AnalyzeImpact(ctx context.Context, cs *change.ChangeSet) (*impact.Report, error)
}

// Handler serves the analysis endpoints.
type Handler struct {
	logger  *slog.Logger
	differ  Differ
	advisor Advisor
	metrics *metrics.Metrics
}

// New creates a new analysis Handler.
func New(differ Differ, advisor Advisor, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		logger:  logger,
		differ:  differ,
		advisor: advisor,
		metrics: m,
	}
}

// Register registers the analysis routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(anRouter chi.Router) {
		anRouter.Use(middleware.Recovery(h.logger))
		anRouter.Use(middleware.RequestID)
		anRouter.Use(middleware.Logger(h.logger))
		anRouter.Use(middleware.Timeout(60 * time.Second))
		anRouter.Use(middleware.Latency(h.metrics))

		anRouter.Get("/diff", h.handleDiff)
		anRouter.Get("/impact", h.handleImpact)
	})
}

func (h *Handler) handleDiff(w http.ResponseWriter, r *http.Request) {
	cs, ok := h.diffFromQuery(w, r)
	if !ok {
		return
	}
	shared.WriteJSON(w, http.StatusOK, cs)
}

func (h *Handler) handleImpact(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	cs, ok := h.diffFromQuery(w, r)
	if !ok {
		return
	}
	report, err := h.advisor.AnalyzeImpact(ctx, cs)
	if err != nil {
		h.logger.ErrorContext(ctx, "impact analysis failed",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, report)
}

// diffFromQuery parses old= and new= and runs the diff, writing the error
// response itself on failure.
func (h *Handler) diffFromQuery(w http.ResponseWriter, r *http.Request) (*change.ChangeSet, bool) {
	ctx := r.Context()
	q := r.URL.Query()

	oldID, err := id.ParseVersionID(q.Get("old"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "old must be a version id"))
		return nil, false
	}
	newID, err := id.ParseVersionID(q.Get("new"))
	if err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "new must be a version id"))
		return nil, false
	}

	cs, err := h.differ.Diff(ctx, oldID, newID)
	if err != nil {
		h.logger.WarnContext(ctx, "diff rejected",
			"request_id", middleware.GetRequestID(ctx),
			"error", err.Error(),
		)
		shared.WriteError(w, err)
		return nil, false
	}
	return cs, true
}
