package shortener

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/sundayezeilo/shortlink/internal/errx"
	"github.com/sundayezeilo/shortlink/internal/httpx"
)

// RedirectCacheControl lets clients and shared caches keep a redirect for five
// minutes and keep serving it while revalidating or while the store is down.
const RedirectCacheControl = "public, max-age=300, s-maxage=300, stale-while-revalidate=300, stale-if-error=300"

const (
	notFoundBody      = "not found"
	internalErrorBody = "internal error"
)

// HTTPCreateLinkRequest represents the JSON request body for creating a link.
type HTTPCreateLinkRequest struct {
	ID        string `json:"id"`
	TargetURL string `json:"targetUrl"`
}

// HTTPUpdateLinkRequest represents the JSON request body for updating a link.
type HTTPUpdateLinkRequest struct {
	TargetURL string `json:"targetUrl"`
}

// LinkResponse is the JSON form of a Link.
type LinkResponse struct {
	ID        string `json:"id"`
	TargetURL string `json:"targetUrl"`
}

// Handler provides HTTP handlers for the URL shortener service.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// HandlerConfig holds configuration for the handler.
type HandlerConfig struct {
	Service Service
	Logger  *slog.Logger
}

// NewHandler creates a new Handler instance.
func NewHandler(cfg HandlerConfig) *Handler {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Handler{
		service: cfg.Service,
		logger:  logger,
	}
}

// RegisterRoutes mounts the link endpoints on r.
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Post("/create", h.CreateLink)
	r.Get("/{id}", h.ResolveLink)
	r.Patch("/{id}", h.UpdateLink)
}

// requestLogger returns the handler logger scoped to r.
func (h *Handler) requestLogger(r *http.Request) *slog.Logger {
	return h.logger.With(
		"request_id", httpx.GetRequestID(r.Context()),
		"method", r.Method,
		"path", r.URL.Path,
	)
}

// ResolveLink handles GET /{id} and redirects to the stored target URL.
func (h *Handler) ResolveLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)
	id := chi.URLParam(r, "id")

	targetURL, err := h.service.Resolve(ctx, id)
	if err != nil {
		h.handleResolveError(ctx, logger, w, err, id)
		return
	}

	logger.DebugContext(ctx, "redirecting",
		"id", id,
		"target_url", targetURL,
	)

	w.Header().Set("Location", targetURL)
	w.Header().Set("Cache-Control", RedirectCacheControl)
	w.WriteHeader(http.StatusTemporaryRedirect)
}

// CreateLink handles POST /create.
func (h *Handler) CreateLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)
	w.Header().Set("Cache-Control", "no-store")

	req, err := httpx.DecodeJSON[HTTPCreateLinkRequest](w, r)
	if err != nil {
		h.handleMutationError(ctx, logger, w, err, "create", "")
		return
	}

	link, err := h.service.Create(ctx, CreateLinkRequest{
		ID:        req.ID,
		TargetURL: req.TargetURL,
	})
	if err != nil {
		h.handleMutationError(ctx, logger, w, err, "create", req.ID)
		return
	}

	logger.InfoContext(ctx, "link created",
		"id", link.ID,
		"target_url", link.TargetURL,
		"generated_id", req.ID == "",
	)

	httpx.WriteJSON(w, http.StatusCreated, LinkResponse{ID: link.ID, TargetURL: link.TargetURL})
}

// UpdateLink handles PATCH /{id}.
func (h *Handler) UpdateLink(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := h.requestLogger(r)
	w.Header().Set("Cache-Control", "no-store")
	id := chi.URLParam(r, "id")

	req, err := httpx.DecodeJSON[HTTPUpdateLinkRequest](w, r)
	if err != nil {
		h.handleMutationError(ctx, logger, w, err, "update", id)
		return
	}

	link, err := h.service.Update(ctx, id, req.TargetURL)
	if err != nil {
		h.handleMutationError(ctx, logger, w, err, "update", id)
		return
	}

	logger.InfoContext(ctx, "link updated",
		"id", link.ID,
		"target_url", link.TargetURL,
	)

	httpx.WriteJSON(w, http.StatusOK, LinkResponse{ID: link.ID, TargetURL: link.TargetURL})
}

// handleResolveError writes the plain-text failure for the redirect path.
// Server-side causes are logged and never echoed to the client.
func (h *Handler) handleResolveError(ctx context.Context, logger *slog.Logger, w http.ResponseWriter, err error, id string) {
	kind := errx.KindOf(err)
	status := httpx.ErrorKindToStatus(kind)

	logAttrs := []any{
		"error", err.Error(),
		"error_kind", kind,
		"operation", errx.OpOf(err),
		"id", id,
	}

	switch {
	case kind == errx.NotFound:
		logger.DebugContext(ctx, "link not found", logAttrs...)
		httpx.WriteText(w, status, notFoundBody)

	case status < http.StatusInternalServerError:
		logger.WarnContext(ctx, "invalid resolve request", logAttrs...)
		httpx.WriteText(w, status, http.StatusText(status))

	default:
		logger.ErrorContext(ctx, "failed to resolve link", logAttrs...)
		httpx.WriteText(w, status, internalErrorBody)
	}
}

// handleMutationError writes the JSON failure for create and update.
func (h *Handler) handleMutationError(ctx context.Context, logger *slog.Logger, w http.ResponseWriter, err error, action, id string) {
	kind := errx.KindOf(err)
	status := httpx.ErrorKindToStatus(kind)
	code := httpx.ErrorKindToCode(kind)

	logAttrs := []any{
		"error", err.Error(),
		"error_kind", kind,
		"operation", errx.OpOf(err),
		"action", action,
		"id", id,
	}

	switch kind {
	case errx.Conflict:
		logger.WarnContext(ctx, "link id conflict", logAttrs...)
		httpx.WriteError(w, status, code, "a link with this id already exists", nil)

	case errx.NotFound:
		logger.WarnContext(ctx, "link not found", logAttrs...)
		httpx.WriteError(w, status, code, notFoundBody, nil)

	case errx.Invalid:
		logger.WarnContext(ctx, "invalid link request", logAttrs...)
		httpx.WriteError(w, status, code, clientMessage(err), nil)

	default:
		logger.ErrorContext(ctx, "failed to "+action+" link", logAttrs...)
		httpx.WriteError(w, status, code, internalErrorBody, nil)
	}
}

// clientMessage returns the innermost message of err, without the op chain.
func clientMessage(err error) string {
	for {
		next := errors.Unwrap(err)
		if next == nil {
			return err.Error()
		}
		err = next
	}
}
