package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/example/room-scheduler/internal/application"
)

type roomService interface {
	CreateClassroom(ctx context.Context, params application.CreateClassroomParams) (application.Classroom, error)
	ListClassrooms(ctx context.Context, principal application.Principal, includeUnreservable bool) ([]application.Classroom, error)
}

type RoomHandler struct {
	service   roomService
	responder responder
	logger    *slog.Logger
}

func NewRoomHandler(service roomService, logger *slog.Logger) *RoomHandler {
	base := defaultLogger(logger)
	return &RoomHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *RoomHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "RoomHandler", operation, attrs...)
}

func (h *RoomHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID)

	var input application.ClassroomInput
	if err := decodeJSON(w, r, &input); err != nil {
		logger.With("error_kind", "bad_request").WarnContext(r.Context(), "failed to decode room request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	classroom, err := h.service.CreateClassroom(r.Context(), application.CreateClassroomParams{
		Principal: principal,
		Input:     input,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("room_id", classroom.ID).InfoContext(r.Context(), "room created")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toRoomDTO(classroom))
}

// List returns reservable rooms; managers may pass all=true to include the rest.
func (h *RoomHandler) List(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, ok := PrincipalFromContext(r.Context())
	if !ok || strings.TrimSpace(principal.UserID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusUnauthorized, errMissingAccessToken)
		return
	}

	includeAll := false
	if raw := strings.TrimSpace(r.URL.Query().Get("all")); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			h.responder.handleServiceError(r.Context(), w, &application.ValidationError{FieldErrors: map[string]string{"all": "must be true or false"}})
			return
		}
		includeAll = parsed
	}

	rooms, err := h.service.ListClassrooms(r.Context(), principal, includeAll)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toRoomDTOs(rooms))
}

type roomDTO struct {
	ID         string `json:"id"`
	Number     string `json:"number"`
	Floor      int    `json:"floor"`
	Capacity   int    `json:"capacity"`
	CanReserve bool   `json:"can_reserve"`
	CreatedAt  string `json:"created_at"`
}

func toRoomDTO(room application.Classroom) roomDTO {
	return roomDTO{
		ID:         room.ID,
		Number:     room.Number,
		Floor:      room.Floor,
		Capacity:   room.Capacity,
		CanReserve: room.CanReserve,
		CreatedAt:  room.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toRoomDTOs(rooms []application.Classroom) []roomDTO {
	out := make([]roomDTO, 0, len(rooms))
	for _, room := range rooms {
		out = append(out, toRoomDTO(room))
	}
	return out
}
