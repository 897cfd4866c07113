package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	igmodels "ontoreg/internal/importgraph/models"
	nsmodels "ontoreg/internal/namespace/models"
	"ontoreg/internal/platform/metrics"
	"ontoreg/internal/platform/middleware"
	"ontoreg/internal/transport/http/shared"
	id "ontoreg/pkg/domain"
	dErrors "ontoreg/pkg/domain-errors"
)

// Service defines the import graph operations the handler exposes.
type Service interface {
	AddImport(ctx context.Context, source, target id.NamespaceID, targetVersion id.VersionID) (*igmodels.ImportEdge, error)
	RemoveImport(ctx context.Context, edgeID id.ImportEdgeID) error
	UpdateTargetVersion(ctx context.Context, edgeID id.ImportEdgeID, newTargetVersion id.VersionID) (*igmodels.ImportEdge, error)
	EdgesFrom(ctx context.Context, nsID id.NamespaceID) ([]*igmodels.ImportEdge, error)
	EdgesTo(ctx context.Context, nsID id.NamespaceID) ([]*igmodels.ImportEdge, error)
	Ancestors(ctx context.Context, nsID id.NamespaceID) ([]*nsmodels.Namespace, error)
	Descendants(ctx context.Context, nsID id.NamespaceID) ([]*nsmodels.Namespace, error)
}

// Handler exposes the import dependency graph over HTTP.
type Handler struct {
	logger  *slog.Logger
	imports Service
	metrics *metrics.Metrics
}

// New creates a new import graph Handler.
func New(imports Service, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		logger:  logger,
		imports: imports,
		metrics: m,
	}
}

// Register registers the import graph routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(igRouter chi.Router) {
		igRouter.Use(middleware.Recovery(h.logger))
		igRouter.Use(middleware.RequestID)
		igRouter.Use(middleware.RequestTime)
		igRouter.Use(middleware.Logger(h.logger))
		igRouter.Use(middleware.Timeout(30 * time.Second))
		igRouter.Use(middleware.ContentTypeJSON)
		igRouter.Use(middleware.Latency(h.metrics))

		igRouter.Post("/imports", h.handleAdd)
		igRouter.Patch("/imports/{edgeID}", h.handleRepoint)
		igRouter.Delete("/imports/{edgeID}", h.handleRemove)
		igRouter.Get("/namespaces/{namespaceID}/imports", h.handleEdgesFrom)
		igRouter.Get("/namespaces/{namespaceID}/importers", h.handleEdgesTo)
		igRouter.Get("/namespaces/{namespaceID}/ancestors", h.handleAncestors)
		igRouter.Get("/namespaces/{namespaceID}/descendants", h.handleDescendants)
	})
}

type addImportRequest struct {
	SourceNamespaceID string `json:"source_namespace_id"`
	TargetNamespaceID string `json:"target_namespace_id"`
	TargetVersionID   string `json:"target_version_id"`
}

func (h *Handler) handleAdd(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req addImportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	source, err := id.ParseNamespaceID(req.SourceNamespaceID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	target, err := id.ParseNamespaceID(req.TargetNamespaceID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	targetVersion, err := id.ParseVersionID(req.TargetVersionID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	edge, err := h.imports.AddImport(ctx, source, target, targetVersion)
	if err != nil {
		h.logFailure(ctx, "add import", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, edge)
}

type repointRequest struct {
	TargetVersionID string `json:"target_version_id"`
}

func (h *Handler) handleRepoint(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	edgeID, err := id.ParseImportEdgeID(chi.URLParam(r, "edgeID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req repointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}
	targetVersion, err := id.ParseVersionID(req.TargetVersionID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	edge, err := h.imports.UpdateTargetVersion(ctx, edgeID, targetVersion)
	if err != nil {
		h.logFailure(ctx, "repoint import", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, edge)
}

func (h *Handler) handleRemove(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	edgeID, err := id.ParseImportEdgeID(chi.URLParam(r, "edgeID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.imports.RemoveImport(ctx, edgeID); err != nil {
		h.logFailure(ctx, "remove import", err)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleEdgesFrom(w http.ResponseWriter, r *http.Request) {
	h.writeEdges(w, r, h.imports.EdgesFrom)
}

func (h *Handler) handleEdgesTo(w http.ResponseWriter, r *http.Request) {
	h.writeEdges(w, r, h.imports.EdgesTo)
}

func (h *Handler) writeEdges(w http.ResponseWriter, r *http.Request, list func(context.Context, id.NamespaceID) ([]*igmodels.ImportEdge, error)) {
	nsID, err := id.ParseNamespaceID(chi.URLParam(r, "namespaceID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	edges, err := list(r.Context(), nsID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"edges": edges})
}

func (h *Handler) handleAncestors(w http.ResponseWriter, r *http.Request) {
	h.writeClosure(w, r, h.imports.Ancestors)
}

func (h *Handler) handleDescendants(w http.ResponseWriter, r *http.Request) {
	h.writeClosure(w, r, h.imports.Descendants)
}

func (h *Handler) writeClosure(w http.ResponseWriter, r *http.Request, closure func(context.Context, id.NamespaceID) ([]*nsmodels.Namespace, error)) {
	ctx := r.Context()

	nsID, err := id.ParseNamespaceID(chi.URLParam(r, "namespaceID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	namespaces, err := closure(ctx, nsID)
	if err != nil {
		h.logFailure(ctx, "resolve closure", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"namespaces": namespaces})
}

func (h *Handler) logFailure(ctx context.Context, op string, err error) {
	if dErrors.Is(err, dErrors.CodeInternal) || dErrors.Is(err, dErrors.CodeGraphIntegrity) {
		h.logger.ErrorContext(ctx, "operation failed",
			"request_id", middleware.GetRequestID(ctx),
			"op", op,
			"error", err.Error(),
		)
		return
	}
	h.logger.WarnContext(ctx, "operation rejected",
		"request_id", middleware.GetRequestID(ctx),
		"op", op,
		"error", err.Error(),
	)
}
