package http

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/example/room-scheduler/internal/application"
	"github.com/example/room-scheduler/internal/export"
	"github.com/example/room-scheduler/internal/scheduler"
)

const (
	calendarContentType = "text/calendar; charset=utf-8"
	workbookContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	queryDayLayout      = "2006-01-02"
)

type reservationService interface {
	ListReservations(ctx context.Context, params application.ListReservationsParams) ([]application.Reservation, error)
	Location() *time.Location
}

type ReservationHandler struct {
	service   reservationService
	baseURL   string
	responder responder
	logger    *slog.Logger
}

// NewReservationHandler builds the listing, calendar and report endpoints.
// baseURL prefixes event links in the calendar feed.
func NewReservationHandler(service reservationService, baseURL string, logger *slog.Logger) *ReservationHandler {
	base := defaultLogger(logger)
	return &ReservationHandler{service: service, baseURL: baseURL, responder: newResponder(base), logger: base}
}

func (h *ReservationHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "ReservationHandler", operation, attrs...)
}

func (h *ReservationHandler) List(w http.ResponseWriter, r *http.Request) {
	reservations, _, ok := h.list(w, r)
	if !ok {
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toReservationDTOs(reservations))
}

func (h *ReservationHandler) Calendar(w http.ResponseWriter, r *http.Request) {
	reservations, _, ok := h.list(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := export.WriteCalendar(&buf, reservations, export.CalendarOptions{Name: "Room reservations", BaseURL: h.baseURL}); err != nil {
		h.log(r.Context(), "Calendar").ErrorContext(r.Context(), "failed to render calendar", "error", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeFile(r.Context(), w, calendarContentType, "", buf.Bytes())
}

func (h *ReservationHandler) RoomReport(w http.ResponseWriter, r *http.Request) {
	reservations, filter, ok := h.list(w, r)
	if !ok {
		return
	}

	buf, err := export.BuildOccupancyWorkbook(reservations, export.WorkbookOptions{
		Location: h.service.Location(),
		Rooms:    filter.RoomNumbers,
		From:     filter.Start,
		To:       filter.End,
	})
	if err != nil {
		h.log(r.Context(), "RoomReport").ErrorContext(r.Context(), "failed to render workbook", "error", err)
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	loc := h.service.Location()
	filename := fmt.Sprintf("rooms-%s-%s.xlsx", filter.Start.In(loc).Format(queryDayLayout), filter.End.In(loc).Format(queryDayLayout))
	h.responder.writeFile(r.Context(), w, workbookContentType, filename, buf.Bytes())
}

func (h *ReservationHandler) list(w http.ResponseWriter, r *http.Request) ([]application.Reservation, application.ReservationFilter, bool) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return nil, application.ReservationFilter{}, false
	}

	principal, _ := PrincipalFromContext(r.Context())
	filter, err := buildReservationFilter(r.URL.Query(), h.service.Location())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return nil, filter, false
	}

	reservations, err := h.service.ListReservations(r.Context(), application.ListReservationsParams{
		Principal: principal,
		Filter:    filter,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return nil, filter, false
	}
	return reservations, filter, true
}

// buildReservationFilter reads start/end as RFC 3339 instants or as days in
// loc. A day given as end covers that whole day.
func buildReservationFilter(values url.Values, loc *time.Location) (application.ReservationFilter, error) {
	var filter application.ReservationFilter
	fieldErrors := map[string]string{}

	if raw := strings.TrimSpace(values.Get("start")); raw != "" {
		ts, err := parseQueryTime(raw, loc, false)
		if err != nil {
			fieldErrors["start"] = "must be an RFC 3339 timestamp or YYYY-MM-DD"
		}
		filter.Start = ts
	}
	if raw := strings.TrimSpace(values.Get("end")); raw != "" {
		ts, err := parseQueryTime(raw, loc, true)
		if err != nil {
			fieldErrors["end"] = "must be an RFC 3339 timestamp or YYYY-MM-DD"
		}
		filter.End = ts
	}

	filter.RoomNumbers = parseCSV(values.Get("rooms"))
	filter.Place = strings.TrimSpace(values.Get("place"))
	filter.TitleAuthor = strings.TrimSpace(values.Get("title_author"))
	for _, t := range parseCSV(values.Get("types")) {
		filter.Types = append(filter.Types, scheduler.EventType(t))
	}
	for _, s := range parseCSV(values.Get("statuses")) {
		filter.Statuses = append(filter.Statuses, scheduler.EventStatus(s))
	}
	if raw := strings.TrimSpace(values.Get("visible")); raw != "" {
		visible, err := strconv.ParseBool(raw)
		if err != nil {
			fieldErrors["visible"] = "must be true or false"
		} else {
			filter.Visible = &visible
		}
	}

	if len(fieldErrors) > 0 {
		return filter, &application.ValidationError{FieldErrors: fieldErrors}
	}
	return filter, nil
}

func parseQueryTime(value string, loc *time.Location, endOfDay bool) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, value); err == nil {
		return ts, nil
	}
	if loc == nil {
		loc = time.UTC
	}
	day, err := time.ParseInLocation(queryDayLayout, value, loc)
	if err != nil {
		return time.Time{}, err
	}
	if endOfDay {
		day = day.AddDate(0, 0, 1)
	}
	return day, nil
}

func parseCSV(value string) []string {
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			result = append(result, trimmed)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}

type reservationDTO struct {
	Title        string `json:"title"`
	Status       string `json:"status"`
	Type         string `json:"type"`
	Visible      bool   `json:"visible"`
	URL          string `json:"url"`
	UserIsAuthor bool   `json:"user_is_author"`
	Start        string `json:"start"`
	End          string `json:"end"`
	Room         string `json:"room,omitempty"`
	Place        string `json:"place,omitempty"`
}

func toReservationDTOs(reservations []application.Reservation) []reservationDTO {
	out := make([]reservationDTO, 0, len(reservations))
	for _, reservation := range reservations {
		out = append(out, reservationDTO{
			Title:        reservation.Title,
			Status:       string(reservation.Status),
			Type:         string(reservation.Type),
			Visible:      reservation.Visible,
			URL:          reservation.URL,
			UserIsAuthor: reservation.UserIsAuthor,
			Start:        reservation.Start.Format(time.RFC3339),
			End:          reservation.End.Format(time.RFC3339),
			Room:         reservation.RoomNumber,
			Place:        reservation.Place,
		})
	}
	return out
}
