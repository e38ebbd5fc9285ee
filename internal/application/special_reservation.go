package application

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/example/room-scheduler/internal/recurrence"
	"github.com/example/room-scheduler/internal/scheduler"
)

const defaultRecurrenceLimit = 400

var weekdaysByName = map[string]time.Weekday{
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
	"sunday":    time.Sunday,
}

// CreateSpecialReservation books one room on a weekday for every week of a
// window. The resulting event is accepted and visible, and its terms never
// take part in conflict detection.
func (s *EventService) CreateSpecialReservation(ctx context.Context, params CreateSpecialReservationParams) (detail EventDetail, err error) {
	if s == nil {
		err = fmt.Errorf("EventService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateSpecialReservation",
		"principal_id", params.Principal.UserID,
		"room", params.Input.RoomNumber,
	)
	defer func() {
		if err != nil {
			logOutcome(ctx, logger, err, "failed to create special reservation")
			return
		}
		logger.With("event_id", detail.ID).InfoContext(ctx, "special reservation created")
	}()

	if !params.Principal.CanManageEvents {
		err = ErrUnauthorized
		return
	}

	var rule recurrence.Rule
	rule, err = parseSpecialReservation(params.Input)
	if err != nil {
		return
	}

	var classroom Classroom
	classroom, err = s.reservableClassroom(ctx, strings.TrimSpace(params.Input.RoomNumber))
	if err != nil {
		return
	}

	occurrences, genErr := s.recurrence.GenerateOccurrences(rule, recurrence.GenerateOptions{Limit: s.recurrenceLimit})
	if genErr != nil {
		err = mapRecurrenceError(genErr, s.recurrenceLimit)
		return
	}
	if len(occurrences) == 0 {
		vErr := &ValidationError{}
		vErr.add("weekday", "does not occur between starts_on and ends_on")
		err = vErr
		return
	}

	now := s.now()
	event := Event{
		ID:          s.idGenerator(),
		Title:       strings.TrimSpace(params.Input.Title),
		Description: strings.TrimSpace(params.Input.Description),
		AuthorID:    params.Principal.UserID,
		Visible:     true,
		Status:      scheduler.EventStatusAccepted,
		Type:        scheduler.EventTypeSpecialReservation,
		CreatedAt:   now,
		EditedAt:    now,
	}

	terms := make([]Term, 0, len(occurrences))
	for _, occurrence := range occurrences {
		interval, ivErr := scheduler.NewInterval(occurrence.Day, occurrence.Start, occurrence.End, classroom.ID, "", true)
		if ivErr != nil {
			err = ivErr
			return
		}
		terms = append(terms, Term{Interval: interval, RoomNumber: classroom.Number})
	}
	s.assignTermIDs(event.ID, terms)

	err = s.withinTransaction(ctx, func(ctx context.Context, tx ReservationTx) error {
		if err := tx.CreateEvent(ctx, event); err != nil {
			return err
		}
		return tx.InsertTerms(ctx, terms)
	})
	if err != nil {
		err = mapEventRepoError(err)
		return
	}

	detail = s.buildDetail(ctx, params.Principal, event, terms)
	return
}

func parseSpecialReservation(input SpecialReservationInput) (recurrence.Rule, error) {
	vErr := validateStruct(input)
	if strings.TrimSpace(input.Title) == "" {
		vErr.add("title", "is required")
	}
	if vErr.HasErrors() {
		return recurrence.Rule{}, vErr
	}

	rule := recurrence.Rule{
		Frequency: recurrence.FrequencyWeekly,
		Weekdays:  []time.Weekday{weekdaysByName[input.Weekday]},
	}
	var err error
	if rule.StartsOn, err = scheduler.ParseDay(input.StartsOn); err != nil {
		vErr.add("starts_on", "must use the YYYY-MM-DD format")
	}
	if rule.EndsOn, err = scheduler.ParseDay(input.EndsOn); err != nil {
		vErr.add("ends_on", "must use the YYYY-MM-DD format")
	}
	if rule.Start, err = scheduler.ParseTimeOfDay(input.Start); err != nil {
		vErr.add("start", "must use the HH:MM format")
	}
	if rule.End, err = scheduler.ParseTimeOfDay(input.End); err != nil {
		vErr.add("end", "must use the HH:MM format")
	}
	if vErr.HasErrors() {
		return recurrence.Rule{}, vErr
	}
	return rule, nil
}

func (s *EventService) reservableClassroom(ctx context.Context, number string) (Classroom, error) {
	byNumber, err := s.resolver.lookup(ctx, map[string]struct{}{number: {}})
	if err != nil {
		return Classroom{}, err
	}
	classroom, ok := byNumber[number]
	vErr := &ValidationError{}
	switch {
	case !ok:
		vErr.add("room", fmt.Sprintf("unknown room %q", number))
	case !classroom.CanReserve:
		vErr.add("room", fmt.Sprintf("room %q cannot be reserved", number))
	default:
		return classroom, nil
	}
	return Classroom{}, vErr
}

func mapRecurrenceError(err error, limit int) error {
	vErr := &ValidationError{}
	switch {
	case errors.Is(err, recurrence.ErrInvalidDuration):
		vErr.add("end", "must be after start")
	case errors.Is(err, recurrence.ErrInvalidWindow):
		vErr.add("ends_on", "must not be before starts_on")
	case errors.Is(err, recurrence.ErrTooManyOccurrences):
		vErr.add("ends_on", fmt.Sprintf("window expands to more than %d terms", limit))
	default:
		return err
	}
	return vErr
}
