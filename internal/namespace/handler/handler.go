package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	nsmodels "ontoreg/internal/namespace/models"
	"ontoreg/internal/namespace/service"
	"ontoreg/internal/platform/metrics"
	"ontoreg/internal/platform/middleware"
	"ontoreg/internal/transport/http/shared"
	id "ontoreg/pkg/domain"
	dErrors "ontoreg/pkg/domain-errors"
)

// Service defines the namespace operations the handler exposes.
type Service interface {
	Register(ctx context.Context, req service.RegisterRequest) (*nsmodels.Namespace, error)
	Get(ctx context.Context, nsID id.NamespaceID) (*nsmodels.Namespace, error)
	Find(ctx context.Context, name string, nsType nsmodels.Type) (*nsmodels.Namespace, error)
	FindByPrefix(ctx context.Context, prefix string) (*nsmodels.Namespace, error)
	List(ctx context.Context) ([]*nsmodels.Namespace, error)
	UpdateMetadata(ctx context.Context, nsID id.NamespaceID, owners []string, description *string) (*nsmodels.Namespace, error)
	Delete(ctx context.Context, nsID id.NamespaceID, cascade bool) error
}

// Handler exposes the namespace registry over HTTP.
type Handler struct {
	logger     *slog.Logger
	namespaces Service
	metrics    *metrics.Metrics
	adminToken string
}

// New creates a new namespace Handler.
func New(namespaces Service, logger *slog.Logger, m *metrics.Metrics, adminToken string) *Handler {
	return &Handler{
		logger:     logger,
		namespaces: namespaces,
		metrics:    m,
		adminToken: adminToken,
	}
}

// Register registers the namespace routes with the chi router.
func (h *Handler) Register(r chi.Router) {
	r.Group(func(nsRouter chi.Router) {
		nsRouter.Use(middleware.Recovery(h.logger))
		nsRouter.Use(middleware.RequestID)
		nsRouter.Use(middleware.RequestTime)
		nsRouter.Use(middleware.Logger(h.logger))
		nsRouter.Use(middleware.Timeout(30 * time.Second))
		nsRouter.Use(middleware.ContentTypeJSON)
		nsRouter.Use(middleware.Latency(h.metrics))

		nsRouter.Post("/namespaces", h.handleRegister)
		nsRouter.Get("/namespaces", h.handleList)
		nsRouter.Get("/namespaces/lookup", h.handleLookup)
		nsRouter.Get("/namespaces/{namespaceID}", h.handleGet)
		nsRouter.Patch("/namespaces/{namespaceID}", h.handleUpdateMetadata)
		nsRouter.With(middleware.RequireAdminToken(h.adminToken, h.logger)).
			Delete("/namespaces/{namespaceID}", h.handleDelete)
	})
}

type registerRequest struct {
	Name        string   `json:"name"`
	Type        string   `json:"type"`
	Prefix      string   `json:"prefix"`
	Owners      []string `json:"owners"`
	Description string   `json:"description"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	ns, err := h.namespaces.Register(ctx, service.RegisterRequest{
		Name:        req.Name,
		Type:        nsmodels.Type(req.Type),
		Prefix:      req.Prefix,
		Owners:      req.Owners,
		Description: req.Description,
	})
	if err != nil {
		h.logFailure(ctx, "register namespace", err)
		shared.WriteError(w, err)
		return
	}

	shared.WriteJSON(w, http.StatusCreated, ns)
}

func (h *Handler) handleList(w http.ResponseWriter, r *http.Request) {
	namespaces, err := h.namespaces.List(r.Context())
	if err != nil {
		h.logFailure(r.Context(), "list namespaces", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, map[string]any{"namespaces": namespaces})
}

// handleLookup resolves a namespace by prefix, or by name and type.
func (h *Handler) handleLookup(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	if prefix := q.Get("prefix"); prefix != "" {
		ns, err := h.namespaces.FindByPrefix(ctx, prefix)
		if err != nil {
			shared.WriteError(w, err)
			return
		}
		shared.WriteJSON(w, http.StatusOK, ns)
		return
	}

	name, nsType := q.Get("name"), q.Get("type")
	if name == "" || nsType == "" {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "lookup requires prefix, or name and type"))
		return
	}
	ns, err := h.namespaces.Find(ctx, name, nsmodels.Type(nsType))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, ns)
}

func (h *Handler) handleGet(w http.ResponseWriter, r *http.Request) {
	nsID, err := id.ParseNamespaceID(chi.URLParam(r, "namespaceID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	ns, err := h.namespaces.Get(r.Context(), nsID)
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, ns)
}

type updateMetadataRequest struct {
	Owners      []string `json:"owners"`
	Description *string  `json:"description"`
}

func (h *Handler) handleUpdateMetadata(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	nsID, err := id.ParseNamespaceID(chi.URLParam(r, "namespaceID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}

	var req updateMetadataRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		shared.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return
	}

	ns, err := h.namespaces.UpdateMetadata(ctx, nsID, req.Owners, req.Description)
	if err != nil {
		h.logFailure(ctx, "update namespace metadata", err)
		shared.WriteError(w, err)
		return
	}
	shared.WriteJSON(w, http.StatusOK, ns)
}

func (h *Handler) handleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	nsID, err := id.ParseNamespaceID(chi.URLParam(r, "namespaceID"))
	if err != nil {
		shared.WriteError(w, err)
		return
	}
	cascade := r.URL.Query().Get("cascade") == "true"

	if err := h.namespaces.Delete(ctx, nsID, cascade); err != nil {
		h.logFailure(ctx, "delete namespace", err)
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
