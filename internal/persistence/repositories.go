package persistence

import "context"

// UserRepository stores user accounts.
type UserRepository interface {
	UpsertUser(ctx context.Context, user User) error
	GetUser(ctx context.Context, id string) (User, error)
}

// ClassroomRepository stores the room catalog.
type ClassroomRepository interface {
	CreateClassroom(ctx context.Context, classroom Classroom) error
	ListClassrooms(ctx context.Context, onlyReservable bool) ([]Classroom, error)
	FindClassroomsByNumber(ctx context.Context, numbers []string) ([]Classroom, error)
}

// EventTx exposes event and term operations inside one transaction.
type EventTx interface {
	GetEvent(ctx context.Context, id string) (Event, error)
	CreateEvent(ctx context.Context, event Event) error
	UpdateEvent(ctx context.Context, event Event) error
	DeleteEvent(ctx context.Context, id string) error
	ListEventTerms(ctx context.Context, eventID string) ([]Term, error)
	// ListTermsInRooms returns room terms held in any of roomIDs on any of days.
	ListTermsInRooms(ctx context.Context, roomIDs []string, days []string) ([]Term, error)
	InsertTerms(ctx context.Context, terms []Term) error
	DeleteTerms(ctx context.Context, ids []string) error
}

// ReservationFilter narrows reservation listings. Days use DayLayout and are inclusive.
type ReservationFilter struct {
	FromDay     string
	ToDay       string
	RoomNumbers []string
	Place       string
	Types       []string
	Statuses    []string
	Visible     *bool
}

// EventStore stores events with their terms.
type EventStore interface {
	// WithinTransaction runs fn in a write transaction that is committed only when fn returns nil.
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx EventTx) error) error
	ListReservations(ctx context.Context, filter ReservationFilter) ([]Reservation, error)
}
