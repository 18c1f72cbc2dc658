package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"complio/internal/nonconformance/models"
	"complio/internal/nonconformance/service"
	"complio/internal/nonconformance/store"
	"complio/pkg/platform/httputil"
	"complio/pkg/requestcontext"
)

type Service interface {
	Create(ctx context.Context, in service.CreateInput) (*service.CaseDetails, error)
	Get(ctx context.Context, id string) (*service.CaseDetails, error)
	List(ctx context.Context, filter store.ListFilter) ([]service.CaseSummary, error)
	Update(ctx context.Context, id string, patch models.CasePatch, actorID string) (*service.CaseDetails, error)
	Close(ctx context.Context, id string, in service.CloseInput) (*service.CloseResult, error)
	Delete(ctx context.Context, id string) error
	AddAction(ctx context.Context, caseID string, in service.AddActionInput) (*models.Action, error)
	UpdateAction(ctx context.Context, caseID, actionID string, patch models.ActionPatch) (*models.Action, error)
	DeleteAction(ctx context.Context, caseID, actionID string) error
}

// Handler exposes the non-conformance lifecycle over HTTP.
type Handler struct {
	service Service
	logger  *slog.Logger
}

func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{service: service, logger: logger}
}

func (h *Handler) Register(r chi.Router) {
	r.Route("/nonconformance", func(r chi.Router) {
		r.Get("/", h.HandleList)
		r.Post("/", h.HandleCreate)
		r.Get("/{id}", h.HandleGet)
		r.Put("/{id}", h.HandleUpdate)
		r.Delete("/{id}", h.HandleDelete)
		r.Post("/{id}/close", h.HandleClose)
		r.Post("/{id}/actions", h.HandleAddAction)
		r.Put("/{id}/actions/{actionID}", h.HandleUpdateAction)
		r.Delete("/{id}/actions/{actionID}", h.HandleDeleteAction)
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
	q := r.URL.Query()
	filter := store.ListFilter{
		Status:   models.CaseStatus(strings.ToUpper(q.Get("status"))),
		CaseType: models.CaseType(strings.ToUpper(q.Get("case_type"))),
	}
	cases, err := h.service.List(ctx, filter)
	if err != nil {
		h.fail(ctx, w, "failed to list cases", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"cases": cases})
}

func (h *Handler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[CreateCaseRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	details, err := h.service.Create(ctx, req.toInput(requestcontext.ActorID(ctx)))
	if err != nil {
		h.fail(ctx, w, "failed to create case", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, details)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	details, err := h.service.Get(ctx, chi.URLParam(r, "id"))
	if err != nil {
		h.fail(ctx, w, "failed to get case", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, details)
}

func (h *Handler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[UpdateCaseRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	actorID := requestcontext.ActorID(ctx)
	if actorID == "" {
		actorID = req.UpdatedBy
	}
	details, err := h.service.Update(ctx, chi.URLParam(r, "id"), req.toPatch(), actorID)
	if err != nil {
		h.fail(ctx, w, "failed to update case", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, details)
}

func (h *Handler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.service.Delete(ctx, chi.URLParam(r, "id")); err != nil {
		h.fail(ctx, w, "failed to delete case", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleClose returns 200 even when some linked Global Actions could not be
// completed; those are listed under cascade_failures.
func (h *Handler) HandleClose(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[CloseCaseRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	result, err := h.service.Close(ctx, chi.URLParam(r, "id"), service.CloseInput{
		Closure: models.Closure{
			Signature:  req.Signature,
			ApprovedBy: req.ApprovedBy,
			Comments:   req.Comments,
		},
		ActorID: requestcontext.ActorID(ctx),
	})
	if err != nil {
		h.fail(ctx, w, "failed to close case", err)
		return
	}
	if result.CascadeFailures == nil {
		result.CascadeFailures = []service.CascadeFailure{}
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) HandleAddAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[AddActionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	action, err := h.service.AddAction(ctx, chi.URLParam(r, "id"), req.toInput())
	if err != nil {
		h.fail(ctx, w, "failed to add action", err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, action)
}

func (h *Handler) HandleUpdateAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	req, ok := httputil.DecodeAndPrepare[UpdateActionRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}
	action, err := h.service.UpdateAction(ctx, chi.URLParam(r, "id"), chi.URLParam(r, "actionID"), req.toPatch())
	if err != nil {
		h.fail(ctx, w, "failed to update action", err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, action)
}

func (h *Handler) HandleDeleteAction(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if err := h.service.DeleteAction(ctx, chi.URLParam(r, "id"), chi.URLParam(r, "actionID")); err != nil {
		h.fail(ctx, w, "failed to delete action", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
