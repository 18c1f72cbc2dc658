package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"complio/internal/permit/models"
	"complio/internal/permit/service"
	"complio/internal/permit/store"
	"complio/pkg/platform/httputil"
	"complio/pkg/requestcontext"
)

type Service interface {
	Create(ctx context.Context, in models.NewPermitInput) (*models.Permit, error)
	Get(ctx context.Context, id string) (*models.Permit, error)
	List(ctx context.Context, filter store.ListFilter) ([]*models.Permit, error)
	Update(ctx context.Context, id string, patch models.PermitPatch) (*models.Permit, error)
	Delete(ctx context.Context, id string) error
	RecordApproval(ctx context.Context, permitID string, in models.NewApprovalInput) (*service.ApprovalResult, error)
	ListApprovals(ctx context.Context, permitID string) ([]*models.Approval, error)
}

type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/permits", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)
		r.Get("/{id}", h.HandleGet)
		r.Put("/{id}", h.HandleUpdate)
		r.Delete("/{id}", h.HandleDelete)
		r.Get("/{id}/approvals", h.HandleListApprovals)
		r.Post("/{id}/approvals", h.HandleRecordApproval)
	})
}

func (h *Handler) fail(ctx context.Context, w http.ResponseWriter, msg string, err error) {
	h.logger.WarnContext(ctx, msg,
		"error", err,
		"request_id", requestcontext.RequestID(ctx),
	)
	httputil.WriteError(w, err)
}

func (h *Handler) HandleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	filter := store.ListFilter{Status: models.Status(strings.ToUpper(r.URL.Query().Get("status")))}
	permits, err := h.service.List(ctx, filter)
	if err != nil {
		h.fail(ctx, w, "failed to list permits", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"permits": permits})
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[CreatePermitRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	p, err := h.service.Create(ctx, req.toInput())
	if err != nil {
		h.fail(ctx, w, "failed to create permit", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, p)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	p, err := h.service.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(ctx, w, "failed to get permit", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[UpdatePermitRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	p, err := h.service.Update(ctx, chi.URLParam(r, "id"), req.toPatch())
	if err != nil {
		h.fail(ctx, w, "failed to update permit", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, p)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.service.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		h.fail(ctx, w, "failed to delete permit", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) HandleListApprovals(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	rows, err := h.service.ListApprovals(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(ctx, w, "failed to list approvals", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"approvals": rows})
}

func (h *Handler) HandleRecordApproval(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeAndPrepare[RecordApprovalRequest](w, r, h.logger, ctx, requestcontext.RequestID(ctx))
	if !ok {
		return
	}
	result, err := h.service.RecordApproval(ctx, chi.URLParam(r, "id"), req.toInput())
	if err != nil {
		h.fail(ctx, w, "failed to record approval", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, result)
}
