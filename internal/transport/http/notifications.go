package http

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"lineage/internal/notification/models"
	"lineage/internal/notification/service"
	id "lineage/pkg/domain"
	dErrors "lineage/pkg/domain-errors"
	"lineage/pkg/platform/httputil"
)

// NotificationHandler serves notifications and the access-request workflow.
type NotificationHandler struct {
	notifications *service.Service
	logger        *slog.Logger
}

// NewNotificationHandler creates a notification Handler.
func NewNotificationHandler(notifications *service.Service, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{notifications: notifications, logger: logger}
}

// Register registers notification routes with the chi router.
func (h *NotificationHandler) Register(r chi.Router) {
	r.Get("/owners/{ownerID}/notifications", h.handleList)
	r.Post("/owners/{ownerID}/notifications/{notificationID}/read", h.handleMarkRead)
	r.Post("/access-requests", h.handleRequestAccess)
	r.Post("/access-requests/{requestID}/respond", h.handleRespond)
}

// NotificationResponse is the read shape for one notification.
type NotificationResponse struct {
	ID                   string                `json:"id"`
	Kind                 string                `json:"kind"`
	Message              string                `json:"message"`
	TriggeredBy          models.RecordSummary  `json:"triggered_by"`
	Groups               []models.MatchGroup   `json:"groups,omitempty"`
	RelatedFamilyMembers []string              `json:"related_family_members,omitempty"`
	RequestID            *string               `json:"request_id,omitempty"`
	Read                 bool                  `json:"read"`
	CreatedAt            time.Time             `json:"created_at"`
}

// AccessRequestResponse is the read shape for an access request.
type AccessRequestResponse struct {
	ID          string     `json:"id"`
	RequesterID string     `json:"requester_id"`
	TargetID    string     `json:"target_id"`
	Status      string     `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	RespondedAt *time.Time `json:"responded_at,omitempty"`
}

// CreateAccessRequestRequest opens a new access request.
type CreateAccessRequestRequest struct {
	RequesterID string `json:"requester_id" validate:"required,uuid"`
	TargetID    string `json:"target_id" validate:"required,uuid"`
}

// RespondAccessRequestRequest answers a pending access request.
type RespondAccessRequestRequest struct {
	ResponderID string `json:"responder_id" validate:"required,uuid"`
	Accept      *bool  `json:"accept" validate:"required"`
}

func (h *NotificationHandler) handleList(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID, err := id.ParseUserID(chi.URLParam(r, "ownerID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid owner id"))
		return
	}
	list, err := h.notifications.List(ctx, ownerID)
	if err != nil {
		h.logger.ErrorContext(ctx, "failed to list notifications", "owner_id", ownerID, "error", err)
		httputil.WriteError(w, err)
		return
	}
	out := make([]NotificationResponse, 0, len(list))
	for _, n := range list {
		out = append(out, toNotificationResponse(n))
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]any{"notifications": out})
}

func (h *NotificationHandler) handleMarkRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ownerID, err := id.ParseUserID(chi.URLParam(r, "ownerID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid owner id"))
		return
	}
	notificationID, err := id.ParseNotificationID(chi.URLParam(r, "notificationID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid notification id"))
		return
	}
	if err := h.notifications.MarkRead(ctx, ownerID, notificationID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *NotificationHandler) handleRequestAccess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	req, ok := httputil.DecodeJSON[CreateAccessRequestRequest](w, r, h.logger)
	if !ok {
		return
	}
	requesterID, err := id.ParseUserID(req.RequesterID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid requester id"))
		return
	}
	targetID, err := id.ParseUserID(req.TargetID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid target id"))
		return
	}
	request, err := h.notifications.RequestAccess(ctx, requesterID, targetID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, toAccessRequestResponse(request))
}

func (h *NotificationHandler) handleRespond(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID, err := id.ParseAccessRequestID(chi.URLParam(r, "requestID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request id"))
		return
	}
	req, ok := httputil.DecodeJSON[RespondAccessRequestRequest](w, r, h.logger)
	if !ok {
		return
	}
	responderID, err := id.ParseUserID(req.ResponderID)
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid responder id"))
		return
	}
	request, err := h.notifications.Respond(ctx, responderID, requestID, *req.Accept)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toAccessRequestResponse(request))
}

func toNotificationResponse(n *models.Notification) NotificationResponse {
	resp := NotificationResponse{
		ID:          n.ID.String(),
		Kind:        string(n.Kind),
		Message:     n.Message,
		TriggeredBy: n.TriggeredBy,
		Groups:      n.Groups,
		Read:        n.Read,
		CreatedAt:   n.CreatedAt,
	}
	for _, p := range n.RelatedFamilyMembers {
		resp.RelatedFamilyMembers = append(resp.RelatedFamilyMembers, p.String())
	}
	if n.RequestID != nil {
		v := n.RequestID.String()
		resp.RequestID = &v
	}
	return resp
}

func toAccessRequestResponse(r *models.AccessRequest) AccessRequestResponse {
	return AccessRequestResponse{
		ID:          r.ID.String(),
		RequesterID: r.RequesterID.String(),
		TargetID:    r.TargetID.String(),
		Status:      string(r.Status),
		CreatedAt:   r.CreatedAt,
		RespondedAt: r.RespondedAt,
	}
}
