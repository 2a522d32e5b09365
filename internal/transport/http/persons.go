// Package http wires the service layer onto chi routes. Handlers stay thin:
// decode, delegate, translate errors.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"lineage/internal/person/models"
	"lineage/internal/person/store"
	id "lineage/pkg/domain"
	dErrors "lineage/pkg/domain-errors"
	"lineage/pkg/platform/httputil"
)

// AnalysisQueue accepts background analysis tasks. The engine worker
// satisfies it.
type AnalysisQueue interface {
	Enqueue(record *models.Record) bool
}

// TreeInvalidator drops cached trees after a write. The tree builder
// satisfies it.
type TreeInvalidator interface {
	Invalidate(ctx context.Context, ownerID id.UserID)
}

// PersonHandler handles person record writes and reads.
type PersonHandler struct {
	persons store.Store
	queue   AnalysisQueue
	trees   TreeInvalidator
	logger  *slog.Logger
}

// NewPersonHandler creates a person Handler.
func NewPersonHandler(persons store.Store, queue AnalysisQueue, trees TreeInvalidator, logger *slog.Logger) *PersonHandler {
	return &PersonHandler{persons: persons, queue: queue, trees: trees, logger: logger}
}

// Register registers person routes with the chi router.
func (h *PersonHandler) Register(r chi.Router) {
	r.Post("/persons", h.handleCreate)
	r.Put("/persons/{personID}", h.handleUpdate)
	r.Get("/persons/{personID}", h.handleGet)
}

// UpsertPersonRequest is the write payload for person records.
type UpsertPersonRequest struct {
	OwnerID    string   `json:"owner_id" validate:"required,uuid"`
	Name       string   `json:"name" validate:"required,max=200"`
	Surname    string   `json:"surname" validate:"max=200"`
	Gender     string   `json:"gender" validate:"omitempty,oneof=male female other"`
	Status     string   `json:"status" validate:"omitempty,oneof=alive dead unknown"`
	BirthDate  *string  `json:"birth_date" validate:"omitempty,datetime=2006-01-02"`
	DeathDate  *string  `json:"death_date" validate:"omitempty,datetime=2006-01-02"`
	Country    string   `json:"country" validate:"max=100"`
	Occupation string   `json:"occupation" validate:"max=200"`
	FatherID   *string  `json:"father_id" validate:"omitempty,uuid"`
	MotherID   *string  `json:"mother_id" validate:"omitempty,uuid"`
	PartnerIDs []string `json:"partner_ids" validate:"dive,uuid"`
	ChildIDs   []string `json:"child_ids" validate:"dive,uuid"`
}

// PersonResponse is the read shape for person records.
type PersonResponse struct {
	ID         string     `json:"id"`
	OwnerID    string     `json:"owner_id"`
	Name       string     `json:"name"`
	Surname    string     `json:"surname,omitempty"`
	Gender     string     `json:"gender,omitempty"`
	Status     string     `json:"status"`
	BirthDate  *time.Time `json:"birth_date,omitempty"`
	DeathDate  *time.Time `json:"death_date,omitempty"`
	Country    string     `json:"country,omitempty"`
	Occupation string     `json:"occupation,omitempty"`
	FatherID   *string    `json:"father_id,omitempty"`
	MotherID   *string    `json:"mother_id,omitempty"`
	PartnerIDs []string   `json:"partner_ids,omitempty"`
	ChildIDs   []string   `json:"child_ids,omitempty"`
	CreatedAt  time.Time  `json:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at"`
}

func (h *PersonHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	h.upsert(w, r, id.NewPersonID())
}

func (h *PersonHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	personID, err := id.ParsePersonID(chi.URLParam(r, "personID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid person id"))
		return
	}
	h.upsert(w, r, personID)
}

// upsert persists the record, schedules background analysis, and drops the
// owner's cached tree. Analysis is fire-and-forget: a full queue never fails
// the write.
func (h *PersonHandler) upsert(w http.ResponseWriter, r *http.Request, personID id.PersonID) {
	ctx := r.Context()
	req, ok := httputil.DecodeJSON[UpsertPersonRequest](w, r, h.logger)
	if !ok {
		return
	}
	record, err := req.toRecord(personID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.persons.Save(ctx, record); err != nil {
		h.logger.ErrorContext(ctx, "failed to save person",
			"person_id", personID, "error", err)
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "save person"))
		return
	}

	h.queue.Enqueue(record)
	h.trees.Invalidate(ctx, record.OwnerID)

	saved, err := h.persons.FindByID(ctx, personID)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeInternal, "load saved person"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPersonResponse(saved))
}

func (h *PersonHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	personID, err := id.ParsePersonID(chi.URLParam(r, "personID"))
	if err != nil {
		httputil.WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid person id"))
		return
	}
	record, err := h.persons.FindByID(r.Context(), personID)
	if err != nil {
		httputil.WriteError(w, dErrors.Wrap(err, dErrors.CodeNotFound, "person not found"))
		return
	}
	httputil.WriteJSON(w, http.StatusOK, toPersonResponse(record))
}

func (req *UpsertPersonRequest) toRecord(personID id.PersonID) (*models.Record, error) {
	ownerID, err := id.ParseUserID(req.OwnerID)
	if err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid owner id")
	}
	record := &models.Record{
		ID:         personID,
		OwnerID:    ownerID,
		Name:       req.Name,
		Surname:    req.Surname,
		Gender:     req.Gender,
		Status:     models.StatusUnknown,
		Country:    req.Country,
		Occupation: req.Occupation,
	}
	if req.Status != "" {
		record.Status = models.Status(req.Status)
	}
	if record.BirthDate, err = parseDate(req.BirthDate); err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid birth date")
	}
	if record.DeathDate, err = parseDate(req.DeathDate); err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid death date")
	}
	if record.FatherID, err = parsePersonIDPtr(req.FatherID); err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid father id")
	}
	if record.MotherID, err = parsePersonIDPtr(req.MotherID); err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid mother id")
	}
	if record.PartnerIDs, err = parsePersonIDs(req.PartnerIDs); err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid partner ids")
	}
	if record.ChildIDs, err = parsePersonIDs(req.ChildIDs); err != nil {
		return nil, dErrors.New(dErrors.CodeBadRequest, "invalid child ids")
	}
	return record, nil
}

func toPersonResponse(record *models.Record) PersonResponse {
	resp := PersonResponse{
		ID:         record.ID.String(),
		OwnerID:    record.OwnerID.String(),
		Name:       record.Name,
		Surname:    record.Surname,
		Gender:     record.Gender,
		Status:     string(record.Status),
		BirthDate:  record.BirthDate,
		DeathDate:  record.DeathDate,
		Country:    record.Country,
		Occupation: record.Occupation,
		CreatedAt:  record.CreatedAt,
		UpdatedAt:  record.UpdatedAt,
	}
	if record.FatherID != nil {
		v := record.FatherID.String()
		resp.FatherID = &v
	}
	if record.MotherID != nil {
		v := record.MotherID.String()
		resp.MotherID = &v
	}
	for _, p := range record.PartnerIDs {
		resp.PartnerIDs = append(resp.PartnerIDs, p.String())
	}
	for _, c := range record.ChildIDs {
		resp.ChildIDs = append(resp.ChildIDs, c.String())
	}
	return resp
}

func parseDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse("2006-01-02", *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func parsePersonIDPtr(s *string) (*id.PersonID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	p, err := id.ParsePersonID(*s)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func parsePersonIDs(in []string) ([]id.PersonID, error) {
	out := make([]id.PersonID, 0, len(in))
	for _, s := range in {
		p, err := id.ParsePersonID(s)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
