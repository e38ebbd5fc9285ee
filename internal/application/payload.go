package application

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/example/room-scheduler/internal/scheduler"
)

// ClassroomFinder resolves room numbers submitted by clients.
type ClassroomFinder interface {
	FindClassroomsByNumber(ctx context.Context, numbers []string) ([]Classroom, error)
}

var payloadValidator = newPayloadValidator()

func newPayloadValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct runs the struct tag rules and reports failures keyed by JSON path.
func validateStruct(value any) *ValidationError {
	vErr := &ValidationError{}
	err := payloadValidator.Struct(value)
	if err == nil {
		return vErr
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		vErr.add("payload", err.Error())
		return vErr
	}
	for _, fe := range fieldErrs {
		vErr.add(fieldPath(fe.Namespace()), fieldMessage(fe))
	}
	return vErr
}

func fieldPath(namespace string) string {
	if idx := strings.IndexByte(namespace, '.'); idx >= 0 {
		return namespace[idx+1:]
	}
	return namespace
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "min":
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s item(s)", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	case "oneof":
		return "must be one of: " + strings.ReplaceAll(fe.Param(), " ", ", ")
	case "datetime":
		switch fe.Param() {
		case "2006-01-02":
			return "must use the YYYY-MM-DD format"
		case "15:04":
			return "must use the HH:MM format"
		}
	}
	return "is invalid"
}

type termsPayload struct {
	Terms []TermPayload `json:"terms" validate:"required,min=1,dive"`
}

// termResolver turns submitted terms into validated per-room terms.
type termResolver struct {
	classrooms ClassroomFinder
}

type parsedTerm struct {
	day   scheduler.Day
	start scheduler.TimeOfDay
	end   scheduler.TimeOfDay
	rooms []string
	place string
}

// resolve validates terms and expands every room of every entry into its own
// term. Failures are reported as a *ValidationError keyed by terms[i].
func (r termResolver) resolve(ctx context.Context, payloads []TermPayload) ([]Term, error) {
	vErr := &ValidationError{}
	parsed := make([]parsedTerm, len(payloads))
	numbers := make(map[string]struct{})

	for i, payload := range payloads {
		prefix := fmt.Sprintf("terms[%d]", i)
		term, termErr := parseTermPayload(prefix, payload)
		if termErr.HasErrors() {
			vErr.merge(termErr)
			continue
		}
		parsed[i] = term
		for _, number := range term.rooms {
			numbers[number] = struct{}{}
		}
	}
	if vErr.HasErrors() {
		return nil, vErr
	}

	byNumber, err := r.lookup(ctx, numbers)
	if err != nil {
		return nil, err
	}

	var terms []Term
	for i, term := range parsed {
		prefix := fmt.Sprintf("terms[%d]", i)
		entry := scheduler.GroupedEntry{Day: term.day, Start: term.start, End: term.end, Place: term.place}
		roomNumbers := make(map[string]string, len(term.rooms))
		for _, number := range term.rooms {
			classroom, ok := byNumber[number]
			switch {
			case !ok:
				vErr.add(prefix+".rooms", fmt.Sprintf("unknown room %q", number))
				continue
			case !classroom.CanReserve:
				vErr.add(prefix+".rooms", fmt.Sprintf("room %q cannot be reserved", number))
				continue
			}
			roomNumbers[classroom.ID] = number
			entry.Rooms = append(entry.Rooms, scheduler.RoomSlot{
				RoomID:          classroom.ID,
				IgnoreConflicts: payloads[i].Rooms[number],
			})
		}
		if len(term.rooms) > 0 && len(entry.Rooms) != len(term.rooms) {
			continue
		}

		intervals, expandErr := scheduler.Expand([]scheduler.GroupedEntry{entry})
		if expandErr != nil {
			vErr.add(prefix, expandErr.Error())
			continue
		}
		for _, interval := range intervals {
			terms = append(terms, Term{Interval: interval, RoomNumber: roomNumbers[interval.RoomID]})
		}
	}
	if vErr.HasErrors() {
		return nil, vErr
	}
	return terms, nil
}

func (r termResolver) lookup(ctx context.Context, numbers map[string]struct{}) (map[string]Classroom, error) {
	byNumber := make(map[string]Classroom, len(numbers))
	if len(numbers) == 0 {
		return byNumber, nil
	}
	if r.classrooms == nil {
		return nil, fmt.Errorf("classroom repository not configured")
	}

	list := make([]string, 0, len(numbers))
	for number := range numbers {
		list = append(list, number)
	}
	sort.Strings(list)

	found, err := r.classrooms.FindClassroomsByNumber(ctx, list)
	if err != nil {
		return nil, err
	}
	for _, classroom := range found {
		byNumber[classroom.Number] = classroom
	}
	return byNumber, nil
}

func parseTermPayload(prefix string, payload TermPayload) (parsedTerm, *ValidationError) {
	vErr := &ValidationError{}
	var term parsedTerm

	day, err := scheduler.ParseDay(payload.Day)
	if err != nil {
		vErr.add(prefix+".day", "must use the YYYY-MM-DD format")
	}
	start, err := scheduler.ParseTimeOfDay(payload.Start)
	if err != nil {
		vErr.add(prefix+".start", "must use the HH:MM format")
	}
	end, err := scheduler.ParseTimeOfDay(payload.End)
	if err != nil {
		vErr.add(prefix+".end", "must use the HH:MM format")
	}
	if vErr.HasErrors() {
		return term, vErr
	}
	if start >= end {
		vErr.add(prefix+".end", "must be after start")
	}

	for number := range payload.Rooms {
		trimmed := strings.TrimSpace(number)
		if trimmed == "" {
			vErr.add(prefix+".rooms", "room numbers must not be blank")
			continue
		}
		if trimmed != number {
			vErr.add(prefix+".rooms", fmt.Sprintf("room %q must not contain surrounding spaces", number))
			continue
		}
		term.rooms = append(term.rooms, number)
	}
	sort.Strings(term.rooms)

	hasPlace := payload.Place != nil
	if hasPlace {
		term.place = strings.TrimSpace(*payload.Place)
	}
	switch {
	case len(payload.Rooms) > 0 && hasPlace:
		vErr.add(prefix, "must name either rooms or a place, not both")
	case len(payload.Rooms) == 0 && !hasPlace:
		vErr.add(prefix, "rooms or place is required")
	case hasPlace && term.place == "":
		vErr.add(prefix+".place", "is required")
	}

	term.day, term.start, term.end = day, start, end
	return term, vErr
}
