package testfixtures

import (
	"fmt"
	"sync/atomic"
	"time"

	"github.com/example/room-scheduler/internal/application"
	"github.com/example/room-scheduler/internal/persistence"
	"github.com/example/room-scheduler/internal/scheduler"
)

var (
	userCounter      uint64
	classroomCounter uint64
	eventCounter     uint64
	termCounter      uint64
)

// referenceTime is a Monday morning inside a teaching week.
var referenceTime = time.Date(2024, time.March, 4, 8, 0, 0, 0, time.UTC)

// ReferenceTime returns the canonical baseline timestamp used by fixtures.
func ReferenceTime() time.Time {
	return referenceTime
}

// ReferenceDay returns the calendar day of ReferenceTime.
func ReferenceDay() scheduler.Day {
	return scheduler.DayOf(referenceTime)
}

// ----------------------------- User fixtures -----------------------------

// UserFixture represents a deterministic account record.
type UserFixture struct {
	ID              string
	Username        string
	FirstName       string
	LastName        string
	Role            scheduler.Role
	CanManageEvents bool
	TokenHash       string
	CreatedAt       time.Time
}

// UserOption configures the generated user fixture.
type UserOption func(*UserFixture)

// NewUserFixture returns a deterministic student account with optional overrides.
func NewUserFixture(opts ...UserOption) UserFixture {
	idx := atomic.AddUint64(&userCounter, 1)
	id := fmt.Sprintf("user-%03d", idx)
	fixture := UserFixture{
		ID:        id,
		Username:  id,
		FirstName: "User",
		LastName:  fmt.Sprintf("%03d", idx),
		Role:      scheduler.RoleStudent,
		CreatedAt: referenceTime.Add(time.Duration(idx) * time.Minute),
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithUserID overrides the generated user ID.
func WithUserID(id string) UserOption {
	return func(f *UserFixture) {
		f.ID = id
		f.Username = id
	}
}

// AsEmployee marks the account as an employee.
func AsEmployee() UserOption {
	return func(f *UserFixture) {
		f.Role = scheduler.RoleEmployee
	}
}

// AsManager marks the account as an employee allowed to manage every event.
func AsManager() UserOption {
	return func(f *UserFixture) {
		f.Role = scheduler.RoleEmployee
		f.CanManageEvents = true
	}
}

// WithTokenHash sets the stored access token hash.
func WithTokenHash(hash string) UserOption {
	return func(f *UserFixture) {
		f.TokenHash = hash
	}
}

// Principal returns the acting identity for the fixture.
func (f UserFixture) Principal() application.Principal {
	return application.Principal{UserID: f.ID, Role: f.Role, CanManageEvents: f.CanManageEvents}
}

// Application converts the fixture into an application-layer user.
func (f UserFixture) Application() application.User {
	return application.User{
		ID:              f.ID,
		Username:        f.Username,
		FirstName:       f.FirstName,
		LastName:        f.LastName,
		Role:            f.Role,
		CanManageEvents: f.CanManageEvents,
		TokenHash:       f.TokenHash,
		CreatedAt:       f.CreatedAt,
		UpdatedAt:       f.CreatedAt,
	}
}

// Persistence converts the fixture into a persistence-layer user.
func (f UserFixture) Persistence() persistence.User {
	return persistence.User{
		ID:              f.ID,
		Username:        f.Username,
		FirstName:       f.FirstName,
		LastName:        f.LastName,
		Role:            string(f.Role),
		CanManageEvents: f.CanManageEvents,
		TokenHash:       f.TokenHash,
		CreatedAt:       f.CreatedAt,
		UpdatedAt:       f.CreatedAt,
	}
}

// ----------------------------- Classroom fixtures -----------------------------

// ClassroomFixture represents a deterministic room catalog entry.
type ClassroomFixture struct {
	ID         string
	Number     string
	Floor      int
	Capacity   int
	CanReserve bool
	CreatedAt  time.Time
}

// ClassroomOption configures the generated classroom fixture.
type ClassroomOption func(*ClassroomFixture)

// NewClassroomFixture returns a reservable classroom with optional overrides.
func NewClassroomFixture(opts ...ClassroomOption) ClassroomFixture {
	idx := atomic.AddUint64(&classroomCounter, 1)
	fixture := ClassroomFixture{
		ID:         fmt.Sprintf("room-%03d", idx),
		Number:     fmt.Sprintf("%d", 100+idx),
		Floor:      1,
		Capacity:   30,
		CanReserve: true,
		CreatedAt:  referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithClassroomID overrides the generated classroom ID.
func WithClassroomID(id string) ClassroomOption {
	return func(f *ClassroomFixture) {
		f.ID = id
	}
}

// WithClassroomNumber overrides the display number.
func WithClassroomNumber(number string) ClassroomOption {
	return func(f *ClassroomFixture) {
		f.Number = number
	}
}

// NotReservable excludes the classroom from reservations.
func NotReservable() ClassroomOption {
	return func(f *ClassroomFixture) {
		f.CanReserve = false
	}
}

// Application converts the fixture into an application-layer classroom.
func (f ClassroomFixture) Application() application.Classroom {
	return application.Classroom{
		ID:         f.ID,
		Number:     f.Number,
		Floor:      f.Floor,
		Capacity:   f.Capacity,
		CanReserve: f.CanReserve,
		CreatedAt:  f.CreatedAt,
		UpdatedAt:  f.CreatedAt,
	}
}

// Persistence converts the fixture into a persistence-layer classroom.
func (f ClassroomFixture) Persistence() persistence.Classroom {
	return persistence.Classroom{
		ID:         f.ID,
		Number:     f.Number,
		Floor:      f.Floor,
		Capacity:   f.Capacity,
		CanReserve: f.CanReserve,
		CreatedAt:  f.CreatedAt,
		UpdatedAt:  f.CreatedAt,
	}
}

// ----------------------------- Event fixtures -----------------------------

// TermFixture describes one interval of an event fixture.
type TermFixture struct {
	ID              string
	Day             scheduler.Day
	Start           scheduler.TimeOfDay
	End             scheduler.TimeOfDay
	RoomID          string
	RoomNumber      string
	Place           string
	IgnoreConflicts bool
}

// EventFixture represents a deterministic event with its terms.
type EventFixture struct {
	ID          string
	Title       string
	Description string
	AuthorID    string
	Visible     bool
	Status      scheduler.EventStatus
	Type        scheduler.EventType
	CreatedAt   time.Time
	Terms       []TermFixture
}

// EventOption configures the generated event fixture.
type EventOption func(*EventFixture)

// NewEventFixture returns a visible, accepted generic event authored by
// authorID. Without WithRoomTerm or WithPlaceTerm the event has no terms.
func NewEventFixture(authorID string, opts ...EventOption) EventFixture {
	idx := atomic.AddUint64(&eventCounter, 1)
	fixture := EventFixture{
		ID:        fmt.Sprintf("event-%03d", idx),
		Title:     fmt.Sprintf("Event %03d", idx),
		AuthorID:  authorID,
		Visible:   true,
		Status:    scheduler.EventStatusAccepted,
		Type:      scheduler.EventTypeGeneric,
		CreatedAt: referenceTime,
	}
	for _, opt := range opts {
		opt(&fixture)
	}
	return fixture
}

// WithEventID overrides the generated event ID.
func WithEventID(id string) EventOption {
	return func(f *EventFixture) {
		f.ID = id
	}
}

// WithTitle overrides the generated title.
func WithTitle(title string) EventOption {
	return func(f *EventFixture) {
		f.Title = title
	}
}

// WithStatus overrides the event status.
func WithStatus(status scheduler.EventStatus) EventOption {
	return func(f *EventFixture) {
		f.Status = status
	}
}

// WithType overrides the event type.
func WithType(eventType scheduler.EventType) EventOption {
	return func(f *EventFixture) {
		f.Type = eventType
	}
}

// Hidden marks the event as not publicly visible.
func Hidden() EventOption {
	return func(f *EventFixture) {
		f.Visible = false
	}
}

// WithRoomTerm appends a term held in room between start and end ("HH:MM").
func WithRoomTerm(day scheduler.Day, start, end string, room ClassroomFixture) EventOption {
	return func(f *EventFixture) {
		f.Terms = append(f.Terms, TermFixture{
			ID:         nextTermID(),
			Day:        day,
			Start:      mustTime(start),
			End:        mustTime(end),
			RoomID:     room.ID,
			RoomNumber: room.Number,
		})
	}
}

// WithPlaceTerm appends a term held at a free-text place.
func WithPlaceTerm(day scheduler.Day, start, end, place string) EventOption {
	return func(f *EventFixture) {
		f.Terms = append(f.Terms, TermFixture{
			ID:    nextTermID(),
			Day:   day,
			Start: mustTime(start),
			End:   mustTime(end),
			Place: place,
		})
	}
}

// IgnoringConflicts flags every term added so far as exempt from conflict detection.
func IgnoringConflicts() EventOption {
	return func(f *EventFixture) {
		for i := range f.Terms {
			f.Terms[i].IgnoreConflicts = true
		}
	}
}

// Application converts the fixture into an application-layer event and terms.
func (f EventFixture) Application() (application.Event, []application.Term) {
	event := application.Event{
		ID:          f.ID,
		Title:       f.Title,
		Description: f.Description,
		AuthorID:    f.AuthorID,
		Visible:     f.Visible,
		Status:      f.Status,
		Type:        f.Type,
		CreatedAt:   f.CreatedAt,
		EditedAt:    f.CreatedAt,
	}
	terms := make([]application.Term, 0, len(f.Terms))
	for _, t := range f.Terms {
		terms = append(terms, application.Term{
			Interval: scheduler.Interval{
				ID:              t.ID,
				EventID:         f.ID,
				Day:             t.Day,
				Start:           t.Start,
				End:             t.End,
				RoomID:          t.RoomID,
				Place:           t.Place,
				IgnoreConflicts: t.IgnoreConflicts,
			},
			RoomNumber: t.RoomNumber,
		})
	}
	return event, terms
}

// Persistence converts the fixture into a persistence-layer event and terms.
func (f EventFixture) Persistence() (persistence.Event, []persistence.Term) {
	event := persistence.Event{
		ID:          f.ID,
		Title:       f.Title,
		Description: f.Description,
		AuthorID:    f.AuthorID,
		Visible:     f.Visible,
		Status:      string(f.Status),
		Type:        string(f.Type),
		CreatedAt:   f.CreatedAt,
		EditedAt:    f.CreatedAt,
	}
	terms := make([]persistence.Term, 0, len(f.Terms))
	for _, t := range f.Terms {
		term := persistence.Term{
			ID:              t.ID,
			EventID:         f.ID,
			Day:             t.Day.String(),
			StartMinute:     int(t.Start),
			EndMinute:       int(t.End),
			RoomNumber:      t.RoomNumber,
			IgnoreConflicts: t.IgnoreConflicts,
		}
		if t.RoomID != "" {
			roomID := t.RoomID
			term.RoomID = &roomID
		} else {
			place := t.Place
			term.Place = &place
		}
		terms = append(terms, term)
	}
	return event, terms
}

func nextTermID() string {
	return fmt.Sprintf("term-%03d", atomic.AddUint64(&termCounter, 1))
}

func mustTime(value string) scheduler.TimeOfDay {
	t, err := scheduler.ParseTimeOfDay(value)
	if err != nil {
		panic(fmt.Sprintf("testfixtures: %v", err))
	}
	return t
}
