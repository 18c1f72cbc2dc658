package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"complio/internal/actions/models"
	dErrors "complio/pkg/domain-errors"
	"complio/pkg/platform/httputil"
	liststrings "complio/pkg/platform/strings"
	"complio/pkg/requestcontext"
)

// maxListIDs bounds the ids query parameter.
const maxListIDs = 200

type Service interface {
	Get(ctx context.Context, id string) (*models.Action, error)
	List(ctx context.Context, ids []string) ([]*models.Action, error)
}

// Handler exposes read access to the Global Action register.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Get("/actions", h.HandleList)
	r.Get("/actions/{id}", h.HandleGet)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	action, err := h.service.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.logger.WarnContext(ctx, "failed to get global action",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, action)
}

// HandleList serves GET /actions?ids=a,b,c.
func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ids := liststrings.SplitList(r.URL.Query().Get("ids"))
	if len(ids) == 0 {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "ids query parameter is required"))
		return
	}
	if len(ids) > maxListIDs {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "too many ids requested"))
		return
	}

	actions, err := h.service.List(ctx, ids)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list global actions",
			"error", err,
			"request_id", requestcontext.RequestID(ctx),
		)
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"actions": actions})
}
