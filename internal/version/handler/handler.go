package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"ontoreg/internal/platform/metrics"
	"ontoreg/internal/platform/middleware"
	"ontoreg/internal/transport/http/shared"
	vermodels "ontoreg/internal/version/models"
	"ontoreg/internal/version/service"
	id "ontoreg/pkg/domain"
	dErrors "ontoreg/pkg/domain-errors"
)

// Service defines the version lifecycle operations the handler exposes.
type Service interface {
	CreateVersion(ctx context.Context, nsID id.NamespaceID, label string) (*vermodels.Version, error)
	GetVersion(ctx context.Context, versionID id.VersionID) (*vermodels.Version, error)
	ListVersions(ctx context.Context, nsID id.NamespaceID) ([]*vermodels.Version, error)
	Release(ctx context.Context, versionID id.VersionID) (*vermodels.Version, error)
	Deprecate(ctx context.Context, versionID id.VersionID) (*vermodels.Version, error)
	AddClass(ctx context.Context, versionID id.VersionID, req service.ClassRequest) (*vermodels.ClassDefinition, error)
	UpdateClass(ctx context.Context, classID id.ClassID, label, comment *string, references []string) (*vermodels.ClassDefinition, error)
	RemoveClass(ctx context.Context, classID id.ClassID) error
	ListClasses(ctx context.Context, versionID id.VersionID) ([]*vermodels.ClassDefinition, error)
}

// Handler exposes version lifecycle and class definitions over HTTP.
type Handler struct {
	logger   *slog.Logger
	versions Service
	metrics  *metrics.Metrics
}

// New creates a new version Handler.
func New(versions Service, logger *slog.Logger, m *metrics.Metrics) *Handler {
	return &Handler{
		logger:   logger,
		versions: versions,
		metrics:  m,
	}
}

// Register registers the version routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(verRouter chi.Router) {
		verRouter.Use(middleware.Recovery(h.logger))
		verRouter.Use(middleware.RequestID)
		verRouter.Use(middleware.RequestTime)
		verRouter.Use(middleware.Logger(h.logger))
		verRouter.Use(middleware.Timeout(30 * time.Second))
		verRouter.Use(middleware.ContentTypeJSON)
		verRouter.Use(middleware.Latency(h.metrics))

		verRouter.Post("/namespaces/{namespaceID}/versions", h.handleCreate)
		verRouter.Get("/namespaces/{namespaceID}/versions", h.handleList)
		verRouter.Get("/versions/{versionID}", h.handleGet)
		verRouter.Post("/versions/{versionID}/release", h.handleRelease)
		verRouter.Post("/versions/{versionID}/deprecate", h.handleDeprecate)
		verRouter.Post("/versions/{versionID}/classes", h.handleAddClass)
		verRouter.Get("/versions/{versionID}/classes", h.handleListClasses)
		verRouter.Patch("/classes/{classID}", h.handleUpdateClass)
		verRouter.Delete("/classes/{classID}", h.handleRemoveClass)
	})
}

type createVersionRequest struct {
	Label string `json:"label"`
}

func (h *Handler) handleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	nsID, err := id.ParseNamespaceID(chi.URLParam(r, "namespaceID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req createVersionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	version, err := h.versions.CreateVersion(ctx, nsID, req.Label)
	if err != nil {
		h.logFailure(ctx, "create version", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, version)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	nsID, err := id.ParseNamespaceID(chi.URLParam(r, "namespaceID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	versions, err := h.versions.ListVersions(r.Context(), nsID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"versions": versions})
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	versionID, err := id.ParseVersionID(chi.URLParam(r, "versionID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	version, err := h.versions.GetVersion(r.Context(), versionID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, version)
}

func (h *Handler) handleRelease(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	versionID, err := id.ParseVersionID(chi.URLParam(r, "versionID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	version, err := h.versions.Release(ctx, versionID)
	if err != nil {
		h.logFailure(ctx, "release version", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, version)
}

func (h *Handler) handleDeprecate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	versionID, err := id.ParseVersionID(chi.URLParam(r, "versionID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	version, err := h.versions.Deprecate(ctx, versionID)
	if err != nil {
		h.logFailure(ctx, "deprecate version", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, version)
}

type classRequest struct {
	LocalName  string   `json:"local_name"`
	Label      string   `json:"label"`
	Comment    string   `json:"comment"`
	References []string `json:"references"`
}

func (h *Handler) handleAddClass(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	versionID, err := id.ParseVersionID(chi.URLParam(r, "versionID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req classRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	class, err := h.versions.AddClass(ctx, versionID, service.ClassRequest{
		LocalName:  req.LocalName,
		Label:      req.Label,
		Comment:    req.Comment,
		References: req.References,
	})
	if err != nil {
		h.logFailure(ctx, "add class", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusCreated, class)
}

func (h *Handler) handleListClasses(w http.ResponseWriter, r *http.Request) {
	versionID, err := id.ParseVersionID(chi.URLParam(r, "versionID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	classes, err := h.versions.ListClasses(r.Context(), versionID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"classes": classes})
}

type updateClassRequest struct {
	Label      *string  `json:"label"`
	Comment    *string  `json:"comment"`
	References []string `json:"references"`
}

func (h *Handler) handleUpdateClass(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	classID, err := id.ParseClassID(chi.URLParam(r, "classID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	var req updateClassRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	class, err := h.versions.UpdateClass(ctx, classID, req.Label, req.Comment, req.References)
	if err != nil {
		h.logFailure(ctx, "update class", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, class)
}

func (h *Handler) handleRemoveClass(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	classID, err := id.ParseClassID(chi.URLParam(r, "classID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	if err := h.versions.RemoveClass(ctx, classID); err != nil {
		h.logFailure(ctx, "remove class", err)
		shared.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
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
