package application

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/example/room-scheduler/internal/persistence"
	"github.com/example/room-scheduler/internal/scheduler"
)

// memoryStore keeps events and terms in maps and applies a transaction's
// writes only when its function succeeds.
type memoryStore struct {
	events    map[string]Event
	terms     map[string]Term
	commits   int
	rollbacks int
	listErr   error
}

func newMemoryStore() *memoryStore {
	return &memoryStore{events: map[string]Event{}, terms: map[string]Term{}}
}

func (m *memoryStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx ReservationTx) error) error {
	tx := &memoryTx{events: make(map[string]Event, len(m.events)), terms: make(map[string]Term, len(m.terms)), listErr: m.listErr}
	for id, event := range m.events {
		tx.events[id] = event
	}
	for id, term := range m.terms {
		tx.terms[id] = term
	}
	if err := fn(ctx, tx); err != nil {
		m.rollbacks++
		return err
	}
	m.events, m.terms = tx.events, tx.terms
	m.commits++
	return nil
}

func (m *memoryStore) eventTerms(eventID string) []Term {
	var out []Term
	for _, term := range m.terms {
		if term.EventID == eventID {
			out = append(out, term)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

type memoryTx struct {
	events  map[string]Event
	terms   map[string]Term
	listErr error
}

func (t *memoryTx) GetEvent(ctx context.Context, id string) (Event, error) {
	event, ok := t.events[id]
	if !ok {
		return Event{}, persistence.ErrNotFound
	}
	return event, nil
}

func (t *memoryTx) CreateEvent(ctx context.Context, event Event) error {
	if _, exists := t.events[event.ID]; exists {
		return persistence.ErrDuplicate
	}
	t.events[event.ID] = event
	return nil
}

func (t *memoryTx) UpdateEvent(ctx context.Context, event Event) error {
	if _, exists := t.events[event.ID]; !exists {
		return persistence.ErrNotFound
	}
	t.events[event.ID] = event
	return nil
}

func (t *memoryTx) DeleteEvent(ctx context.Context, id string) error {
	if _, exists := t.events[id]; !exists {
		return persistence.ErrNotFound
	}
	delete(t.events, id)
	for termID, term := range t.terms {
		if term.EventID == id {
			delete(t.terms, termID)
		}
	}
	return nil
}

func (t *memoryTx) ListEventTerms(ctx context.Context, eventID string) ([]Term, error) {
	var out []Term
	for _, term := range t.terms {
		if term.EventID == eventID {
			out = append(out, term)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *memoryTx) ListTermsInRooms(ctx context.Context, roomIDs []string, days []scheduler.Day) ([]Term, error) {
	if t.listErr != nil {
		return nil, t.listErr
	}
	rooms := make(map[string]bool, len(roomIDs))
	for _, id := range roomIDs {
		rooms[id] = true
	}
	daySet := make(map[scheduler.Day]bool, len(days))
	for _, day := range days {
		daySet[day] = true
	}
	var out []Term
	for _, term := range t.terms {
		if rooms[term.RoomID] && daySet[term.Day] {
			out = append(out, term)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (t *memoryTx) InsertTerms(ctx context.Context, terms []Term) error {
	for _, term := range terms {
		if _, exists := t.terms[term.ID]; exists {
			return persistence.ErrDuplicate
		}
		t.terms[term.ID] = term
	}
	return nil
}

func (t *memoryTx) DeleteTerms(ctx context.Context, ids []string) error {
	for _, id := range ids {
		delete(t.terms, id)
	}
	return nil
}

type classroomStub struct {
	byNumber  map[string]Classroom
	created   Classroom
	createErr error
	findCalls int
}

func newClassroomStub(classrooms ...Classroom) *classroomStub {
	stub := &classroomStub{byNumber: map[string]Classroom{}}
	for _, classroom := range classrooms {
		stub.byNumber[classroom.Number] = classroom
	}
	return stub
}

func (c *classroomStub) FindClassroomsByNumber(ctx context.Context, numbers []string) ([]Classroom, error) {
	c.findCalls++
	var out []Classroom
	for _, number := range numbers {
		if classroom, ok := c.byNumber[number]; ok {
			out = append(out, classroom)
		}
	}
	return out, nil
}

func (c *classroomStub) CreateClassroom(ctx context.Context, classroom Classroom) (Classroom, error) {
	if c.createErr != nil {
		return Classroom{}, c.createErr
	}
	c.created = classroom
	return classroom, nil
}

func (c *classroomStub) ListClassrooms(ctx context.Context, onlyReservable bool) ([]Classroom, error) {
	var out []Classroom
	for _, classroom := range c.byNumber {
		if onlyReservable && !classroom.CanReserve {
			continue
		}
		out = append(out, classroom)
	}
	return out, nil
}

type userStub struct {
	users map[string]User
}

func (u *userStub) GetUser(ctx context.Context, id string) (User, error) {
	user, ok := u.users[id]
	if !ok {
		return User{}, persistence.ErrNotFound
	}
	return user, nil
}

func (u *userStub) UpsertUser(ctx context.Context, user User) (User, error) {
	if u.users == nil {
		u.users = map[string]User{}
	}
	u.users[user.ID] = user
	return user, nil
}

func sequentialIDs(prefix string) func() string {
	next := 0
	return func() string {
		next++
		return fmt.Sprintf("%s-%03d", prefix, next)
	}
}

var (
	studentPrincipal  = Principal{UserID: "student-1", Role: scheduler.RoleStudent}
	employeePrincipal = Principal{UserID: "employee-1", Role: scheduler.RoleEmployee}
	colleague         = Principal{UserID: "employee-2", Role: scheduler.RoleEmployee}
	managerPrincipal  = Principal{UserID: "manager-1", Role: scheduler.RoleEmployee, CanManageEvents: true}
)

type eventFixture struct {
	store      *memoryStore
	classrooms *classroomStub
	users      *userStub
	svc        *EventService
}

func newEventFixture() eventFixture {
	store := newMemoryStore()
	classrooms := newClassroomStub(
		Classroom{ID: "room-25", Number: "25", Capacity: 30, CanReserve: true},
		Classroom{ID: "room-103", Number: "103", Capacity: 120, CanReserve: true},
		Classroom{ID: "room-40", Number: "40", Capacity: 20, CanReserve: true},
		Classroom{ID: "room-lab", Number: "lab", Capacity: 12, CanReserve: false},
	)
	users := &userStub{users: map[string]User{
		"employee-1": {ID: "employee-1", Username: "akowalska", FirstName: "Anna", LastName: "Kowalska", Role: scheduler.RoleEmployee},
		"employee-2": {ID: "employee-2", Username: "jnowak", FirstName: "Jan", LastName: "Nowak", Role: scheduler.RoleEmployee},
	}}
	now := time.Date(2024, time.March, 1, 8, 0, 0, 0, time.UTC)
	svc := NewEventService(EventServiceDeps{
		Store:       store,
		Classrooms:  classrooms,
		Users:       users,
		IDGenerator: sequentialIDs("id"),
		Now:         func() time.Time { return now },
	})
	return eventFixture{store: store, classrooms: classrooms, users: users, svc: svc}
}

func roomTerm(day, start, end string, rooms map[string]bool) TermPayload {
	return TermPayload{Day: day, Start: start, End: end, Rooms: rooms}
}

func placeTerm(day, start, end, place string) TermPayload {
	return TermPayload{Day: day, Start: start, End: end, Place: &place}
}

func examPayload(terms ...TermPayload) EventPayload {
	return EventPayload{Title: "Algebra exam", Visible: true, Status: "accepted", Type: "exam", Terms: terms}
}
