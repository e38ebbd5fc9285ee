package application

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/room-scheduler/internal/scheduler"
)

// ReservationQuery is the coarse, day-granular filter pushed down to storage.
type ReservationQuery struct {
	FromDay     scheduler.Day
	ToDay       scheduler.Day
	RoomNumbers []string
	Place       string
	Types       []scheduler.EventType
	Statuses    []scheduler.EventStatus
	Visible     *bool
}

// ReservationRecord joins one term with its event and author.
type ReservationRecord struct {
	Term   Term
	Event  Event
	Author User
}

// ReservationReader lists persisted terms with their events.
type ReservationReader interface {
	ListReservations(ctx context.Context, query ReservationQuery) ([]ReservationRecord, error)
}

// ReservationService answers listing queries over reserved terms.
type ReservationService struct {
	reader   ReservationReader
	location *time.Location
	logger   *slog.Logger
}

// NewReservationService constructs a listing service. Term days and times are
// interpreted in location (UTC when nil).
func NewReservationService(reader ReservationReader, location *time.Location) *ReservationService {
	return NewReservationServiceWithLogger(reader, location, nil)
}

// NewReservationServiceWithLogger constructs a listing service with a specified logger.
func NewReservationServiceWithLogger(reader ReservationReader, location *time.Location, logger *slog.Logger) *ReservationService {
	if location == nil {
		location = time.UTC
	}
	return &ReservationService{reader: reader, location: location, logger: defaultLogger(logger)}
}

// Location returns the time zone terms are interpreted in.
func (s *ReservationService) Location() *time.Location {
	return s.location
}

// ListReservations returns the terms inside the filter window that the
// principal may see, ordered by start time and room.
func (s *ReservationService) ListReservations(ctx context.Context, params ListReservationsParams) (reservations []Reservation, err error) {
	if s == nil {
		err = fmt.Errorf("ReservationService is nil")
		return
	}

	filter := params.Filter
	logger := serviceLogger(ctx, s.logger, "ReservationService", "ListReservations",
		"principal_id", params.Principal.UserID,
	)
	defer func() {
		if err != nil {
			logOutcome(ctx, logger, err, "failed to list reservations")
			return
		}
		logger.With("result_count", len(reservations)).DebugContext(ctx, "reservations listed")
	}()

	vErr := &ValidationError{}
	if filter.Start.IsZero() {
		vErr.add("start", "is required")
	}
	if filter.End.IsZero() {
		vErr.add("end", "is required")
	}
	if !vErr.HasErrors() && !filter.End.After(filter.Start) {
		vErr.add("end", "must be after start")
	}
	for _, t := range filter.Types {
		if !t.Valid() {
			vErr.add("types", fmt.Sprintf("unknown event type %q", t))
		}
	}
	for _, st := range filter.Statuses {
		if !st.Valid() {
			vErr.add("statuses", fmt.Sprintf("unknown status %q", st))
		}
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}
	if s.reader == nil {
		return []Reservation{}, nil
	}

	query := ReservationQuery{
		FromDay:     scheduler.DayOf(filter.Start.In(s.location)),
		ToDay:       scheduler.DayOf(filter.End.In(s.location)),
		RoomNumbers: filter.RoomNumbers,
		Place:       strings.TrimSpace(filter.Place),
		Types:       filter.Types,
		Statuses:    filter.Statuses,
		Visible:     filter.Visible,
	}

	var records []ReservationRecord
	records, err = s.reader.ListReservations(ctx, query)
	if err != nil {
		err = mapEventRepoError(err)
		return
	}

	needle := strings.ToLower(strings.TrimSpace(filter.TitleAuthor))
	reservations = make([]Reservation, 0, len(records))
	for _, record := range records {
		if !canView(params.Principal, record.Event) {
			continue
		}
		if needle != "" && !matchesTitleOrAuthor(record, needle) {
			continue
		}

		start := record.Term.Day.At(record.Term.Start, s.location)
		end := record.Term.Day.At(record.Term.End, s.location)
		if !start.Before(filter.End) || !end.After(filter.Start) {
			continue
		}

		reservations = append(reservations, Reservation{
			TermID:       record.Term.ID,
			EventID:      record.Event.ID,
			Title:        record.Event.Title,
			Status:       record.Event.Status,
			Type:         record.Event.Type,
			Visible:      record.Event.Visible,
			URL:          "/events/" + record.Event.ID,
			UserIsAuthor: record.Event.AuthorID == params.Principal.UserID,
			AuthorName:   record.Author.FullName(),
			Start:        start,
			End:          end,
			RoomNumber:   record.Term.RoomNumber,
			Place:        record.Term.Place,
		})
	}

	sort.SliceStable(reservations, func(i, j int) bool {
		a, b := reservations[i], reservations[j]
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		if a.RoomNumber != b.RoomNumber {
			return a.RoomNumber < b.RoomNumber
		}
		return a.TermID < b.TermID
	})
	return reservations, nil
}

func matchesTitleOrAuthor(record ReservationRecord, needle string) bool {
	haystacks := []string{
		record.Event.Title,
		record.Author.FirstName,
		record.Author.LastName,
		record.Author.FullName(),
	}
	for _, haystack := range haystacks {
		if strings.Contains(strings.ToLower(haystack), needle) {
			return true
		}
	}
	return false
}
