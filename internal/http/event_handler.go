package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/room-scheduler/internal/application"
)

type eventService interface {
	CreateEvent(ctx context.Context, req application.CreateEventRequest) (application.EventDetail, error)
	UpdateEvent(ctx context.Context, req application.UpdateEventRequest) (application.EventDetail, error)
	DeleteEvent(ctx context.Context, principal application.Principal, eventID string) error
	GetEvent(ctx context.Context, principal application.Principal, eventID string) (application.EventDetail, error)
	CheckConflicts(ctx context.Context, req application.CheckConflictsRequest) ([]application.Term, error)
	CreateSpecialReservation(ctx context.Context, params application.CreateSpecialReservationParams) (application.EventDetail, error)
}

type EventHandler struct {
	service   eventService
	responder responder
	logger    *slog.Logger
}

func NewEventHandler(service eventService, logger *slog.Logger) *EventHandler {
	base := defaultLogger(logger)
	return &EventHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *EventHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "EventHandler", operation, attrs...)
}

func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var payload application.EventPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		h.log(r.Context(), "Create", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode event request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	detail, err := h.service.CreateEvent(r.Context(), application.CreateEventRequest{
		Principal: principal,
		Payload:   payload,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toEventDTO(detail))
}

func (h *EventHandler) Update(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var payload application.EventPayload
	if err := decodeJSON(w, r, &payload); err != nil {
		h.log(r.Context(), "Update", "event_id", eventID, "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode event update", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	detail, err := h.service.UpdateEvent(r.Context(), application.UpdateEventRequest{
		Principal: principal,
		EventID:   eventID,
		Payload:   payload,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toEventDTO(detail))
}

func (h *EventHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	if err := h.service.DeleteEvent(r.Context(), principal, eventID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

func (h *EventHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	eventID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(eventID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidEventID)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	detail, err := h.service.GetEvent(r.Context(), principal, eventID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toEventDTO(detail))
}

func (h *EventHandler) CheckConflicts(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())

	var req checkConflictsRequest
	if err := decodeJSON(w, r, &req); err != nil {
		h.log(r.Context(), "CheckConflicts", "error_kind", "bad_request").WarnContext(r.Context(), "failed to decode conflict check", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	conflicts, err := h.service.CheckConflicts(r.Context(), application.CheckConflictsRequest{
		Principal: principal,
		EventID:   strings.TrimSpace(req.EventID),
		Terms:     req.Terms,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, checkConflictsResponse{Conflicts: toConflictDTOs(conflicts)})
}

func (h *EventHandler) CreateSpecialReservation(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "CreateSpecialReservation", "principal_id", principal.UserID)

	var input application.SpecialReservationInput
	if err := decodeJSON(w, r, &input); err != nil {
		logger.With("error_kind", "bad_request").WarnContext(r.Context(), "failed to decode special reservation", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	detail, err := h.service.CreateSpecialReservation(r.Context(), application.CreateSpecialReservationParams{
		Principal: principal,
		Input:     input,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("event_id", detail.ID, "term_count", countTerms(detail.Terms)).InfoContext(r.Context(), "special reservation created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toEventDTO(detail))
}

type checkConflictsRequest struct {
	EventID string                    `json:"event_id"`
	Terms   []application.TermPayload `json:"terms"`
}

type checkConflictsResponse struct {
	Conflicts []conflictDTO `json:"conflicts"`
}

type eventDTO struct {
	ID           string         `json:"id"`
	Title        string         `json:"title"`
	Description  string         `json:"description"`
	Author       string         `json:"author"`
	AuthorURL    string         `json:"author_url"`
	Status       string         `json:"status"`
	Type         string         `json:"type"`
	Visible      bool           `json:"visible"`
	Created      string         `json:"created"`
	Edited       string         `json:"edited"`
	UserIsAuthor bool           `json:"user_is_author"`
	Terms        []termEntryDTO `json:"terms"`
}

type termEntryDTO struct {
	Day   string          `json:"day"`
	Start string          `json:"start"`
	End   string          `json:"end"`
	Rooms map[string]bool `json:"rooms,omitempty"`
	Place string          `json:"place,omitempty"`
}

type conflictDTO struct {
	TermID  string `json:"term_id,omitempty"`
	EventID string `json:"event_id,omitempty"`
	Day     string `json:"day"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Room    string `json:"room"`
}

func toEventDTO(detail application.EventDetail) eventDTO {
	terms := make([]termEntryDTO, 0, len(detail.Terms))
	for _, entry := range detail.Terms {
		dto := termEntryDTO{
			Day:   entry.Day.String(),
			Start: entry.Start.String(),
			End:   entry.End.String(),
			Place: entry.Place,
		}
		if len(entry.Rooms) > 0 {
			dto.Rooms = make(map[string]bool, len(entry.Rooms))
			for _, room := range entry.Rooms {
				dto.Rooms[room] = false
			}
			for _, room := range entry.IgnoredRooms {
				dto.Rooms[room] = true
			}
		}
		terms = append(terms, dto)
	}

	return eventDTO{
		ID:           detail.ID,
		Title:        detail.Title,
		Description:  detail.Description,
		Author:       detail.AuthorName,
		AuthorURL:    detail.AuthorURL,
		Status:       string(detail.Status),
		Type:         string(detail.Type),
		Visible:      detail.Visible,
		Created:      detail.CreatedAt.UTC().Format(time.RFC3339),
		Edited:       detail.EditedAt.UTC().Format(time.RFC3339),
		UserIsAuthor: detail.UserIsAuthor,
		Terms:        terms,
	}
}

func toConflictDTOs(terms []application.Term) []conflictDTO {
	out := make([]conflictDTO, 0, len(terms))
	for _, term := range terms {
		out = append(out, conflictDTO{
			TermID:  term.ID,
			EventID: term.EventID,
			Day:     term.Day.String(),
			Start:   term.Start.String(),
			End:     term.End.String(),
			Room:    term.RoomNumber,
		})
	}
	return out
}

func countTerms(entries []application.TermEntry) int {
	total := 0
	for _, entry := range entries {
		if len(entry.Rooms) == 0 {
			total++
			continue
		}
		total += len(entry.Rooms)
	}
	return total
}
