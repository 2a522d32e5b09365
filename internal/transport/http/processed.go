package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"lineage/internal/processed"
	id "lineage/pkg/domain"
	dErrors "lineage/pkg/domain-errors"
	"lineage/pkg/platform/httputil"
)

// ProcessedHandler serves the processed-suggestion ledger.
type ProcessedHandler struct {
	tracker *processed.Tracker
	logger  *slog.Logger
}

// NewProcessedHandler creates a processed-suggestion Handler.
func NewProcessedHandler(tracker *processed.Tracker, logger *slog.Logger) *ProcessedHandler {
	return &ProcessedHandler{tracker: tracker, logger: logger}
}

// Register registers processed-suggestion routes with the chi router.
func (h *ProcessedHandler) Register(r chi.Router) {
	r.Get("/owners/{ownerID}/persons/{personID}/suggestions/processed", h.handleList)
	r.Post("/owners/{ownerID}/persons/{personID}/suggestions/processed", h.handleMark)
}

// MarkProcessedRequest records that a suggestion was acted on.
type MarkProcessedRequest struct {
	SuggestionID string `json:"suggestion_id" validate:"required,uuid"`
	Text         string `json:"text" validate:"max=1000"`
}

// ProcessedMarkResponse is the read shape for one ledger entry.
type ProcessedMarkResponse struct {
	SuggestionID string    `json:"suggestion_id"`
	Text         string    `json:"text,omitempty"`
	MarkedAt     time.Time `json:"marked_at"`
}

func (h *ProcessedHandler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID, personID, ok := h.scope(w, r)
	if !ok {
		return
	}
	marks, err := h.tracker.List(ctx, ownerID, personID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list processed suggestions",
			"owner_id", ownerID, "person_id", personID, "error", err)
		httputil.WriteError(w, err)
		return
	}
	out := make([]ProcessedMarkResponse, 0, len(marks))
	for _, mark := range marks {
		out = append(out, ProcessedMarkResponse{
			SuggestionID: mark.SuggestionID.String(),
			Text:         mark.RenderedText,
			MarkedAt:     mark.MarkedAt,
		})
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"processed": out})
}

func (h *ProcessedHandler) handleMark(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID, personID, ok := h.scope(w, r)
	if !ok {
		return
	}
	req, ok := httputil.DecodeJSON[MarkProcessedRequest](w, r, h.logger)
	if !ok {
		return
	}
	suggestionID, err := id.ParseSuggestionID(req.SuggestionID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid suggestion id"))
		return
	}
	if err := h.tracker.MarkByID(ctx, ownerID, personID, suggestionID, req.Text); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ProcessedHandler) scope(w http.ResponseWriter, r *http.Request) (id.UserID, id.PersonID, bool) {
	ownerID, err := id.ParseUserID(chi.URLParam(r, "ownerID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid owner id"))
		return id.UserID{}, id.PersonID{}, false
	}
	personID, err := id.ParsePersonID(chi.URLParam(r, "personID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid person id"))
		return id.UserID{}, id.PersonID{}, false
	}
	return ownerID, personID, true
}
