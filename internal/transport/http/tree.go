package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"lineage/internal/tree"
	id "lineage/pkg/domain"
	dErrors "lineage/pkg/domain-errors"
	"lineage/pkg/platform/httputil"
)

// TreeHandler serves assembled family trees.
type TreeHandler struct {
	builder *tree.Builder
	logger  *slog.Logger
}

// NewTreeHandler creates a tree Handler.
func NewTreeHandler(builder *tree.Builder, logger *slog.Logger) *TreeHandler {
	return &TreeHandler{builder: builder, logger: logger}
}

// Register registers tree routes with the chi router.
func (h *TreeHandler) Register(r chi.Router) {
	r.Get("/owners/{ownerID}/tree", h.handleGetTree)
}

// TreeResponse wraps the owner's trees.
type TreeResponse struct {
	OwnerID string       `json:"owner_id"`
	Roots   []*tree.Node `json:"roots"`
}

func (h *TreeHandler) handleGetTree(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID, err := id.ParseUserID(chi.URLParam(r, "ownerID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid owner id"))
		return
	}
	roots, err := h.builder.Build(ctx, ownerID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to build tree", "owner_id", ownerID, "error", err)
		httputil.WriteError(w, err)
		return
	}
	if roots == nil {
		roots = []*tree.Node{}
	}
	httputil.WriteJSON(w, http.StatusOK, TreeResponse{OwnerID: ownerID.String(), Roots: roots})
}
