package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"complio/internal/rag"
	"complio/pkg/platform/httputil"
	"complio/pkg/requestcontext"
)

// Handler exposes the RAG classifier over HTTP.
type Handler struct {
	classifier *rag.Classifier
	logger     *slog.Logger
}

func New(classifier *rag.Classifier, logger *slog.Logger) *Handler {
	return &Handler{classifier: classifier, logger: logger}
}

// Register mounts RAG endpoints on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/rag/classify", h.HandleClassify)
	r.Get("/rag/config", h.HandleConfig)
}

// ClassificationResponse is one classified subject.
type ClassificationResponse struct {
	Kind  string `json:"kind"`
	RAG   string `json:"rag"`
	Label string `json:"label"`
}

// HandleClassify classifies a batch at one instant so every item shares the same "now".
func (h *Handler) HandleClassify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)

	req, ok := httputil.DecodeAndPrepare[ClassifyRequest](w, r, h.logger, ctx, requestID)
	if !ok {
		return
	}

	now := requestcontext.Now(ctx)
	out := make([]ClassificationResponse, 0, len(req.Subjects))
	for _, subject := range req.Subjects {
		kind, s := subject.toSubject()
		status := h.classifier.ClassifyAt(now, kind, s)
		out = append(out, ClassificationResponse{
			Kind:  string(kind),
			RAG:   string(status),
			Label: status.Label(),
		})
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"results": out})
}

// HandleConfig returns the thresholds in effect.
func (h *Handler) HandleConfig(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, h.classifier.Config())
}
