package application

import (
	"time"

	"github.com/example/room-scheduler/internal/scheduler"
)

// Principal represents the authenticated user invoking a service method.
type Principal struct {
	UserID          string
	Role            scheduler.Role
	CanManageEvents bool
}

// User is a registered account that can author events.
type User struct {
	ID              string
	Username        string
	FirstName       string
	LastName        string
	Role            scheduler.Role
	CanManageEvents bool
	TokenHash       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// FullName returns the display name of the user, falling back to the username.
func (u User) FullName() string {
	switch {
	case u.FirstName != "" && u.LastName != "":
		return u.FirstName + " " + u.LastName
	case u.FirstName != "" || u.LastName != "":
		return u.FirstName + u.LastName
	default:
		return u.Username
	}
}

// Classroom is a physical room that terms may reserve.
type Classroom struct {
	ID         string
	Number     string
	Floor      int
	Capacity   int
	CanReserve bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Event is a reservation owned by an author, holding one or more terms.
type Event struct {
	ID          string
	Title       string
	Description string
	AuthorID    string
	Visible     bool
	Status      scheduler.EventStatus
	Type        scheduler.EventType
	CreatedAt   time.Time
	EditedAt    time.Time
}

// Term is one persisted interval of an event. RoomNumber is the display key of
// RoomID and is empty for place-based terms.
type Term struct {
	scheduler.Interval
	RoomNumber string
}

// TermEntry is the presentation form of terms sharing a day and time range.
type TermEntry struct {
	Day   scheduler.Day
	Start scheduler.TimeOfDay
	End   scheduler.TimeOfDay
	// Rooms lists room numbers in submission order.
	Rooms []string
	// IgnoredRooms lists the room numbers whose terms skip conflict detection.
	IgnoredRooms []string
	Place        string
}

// EventDetail is the full view of an event returned to callers.
type EventDetail struct {
	Event
	Terms        []TermEntry
	AuthorName   string
	AuthorURL    string
	UserIsAuthor bool
}

// TermPayload is one submitted term: either a set of rooms (room number mapped
// to its ignore_conflicts flag) or a free-text place.
type TermPayload struct {
	Day   string          `json:"day" validate:"required,datetime=2006-01-02"`
	Start string          `json:"start" validate:"required,datetime=15:04"`
	End   string          `json:"end" validate:"required,datetime=15:04"`
	Rooms map[string]bool `json:"rooms,omitempty"`
	Place *string         `json:"place,omitempty"`
}

// EventPayload is the submitted body of a create or update request.
type EventPayload struct {
	Title       string        `json:"title" validate:"required,max=255"`
	Description string        `json:"description" validate:"max=10000"`
	Visible     bool          `json:"visible"`
	Status      string        `json:"status" validate:"required,oneof=pending accepted rejected"`
	Type        string        `json:"type" validate:"required,oneof=exam test generic class other special_reservation"`
	Terms       []TermPayload `json:"terms" validate:"required,min=1,dive"`
}

// CreateEventRequest wraps the data required to create an event.
type CreateEventRequest struct {
	Principal Principal
	Payload   EventPayload
}

// UpdateEventRequest wraps the data required to replace an event and its terms.
type UpdateEventRequest struct {
	Principal Principal
	EventID   string
	Payload   EventPayload
}

// CheckConflictsRequest asks whether terms would collide without storing anything.
// EventID, when set, excludes that event's persisted terms as an update would.
type CheckConflictsRequest struct {
	Principal Principal
	EventID   string
	Terms     []TermPayload
}

// ReservationFilter narrows the reservation listing.
type ReservationFilter struct {
	Start       time.Time
	End         time.Time
	RoomNumbers []string
	Place       string
	Types       []scheduler.EventType
	Statuses    []scheduler.EventStatus
	TitleAuthor string
	Visible     *bool
}

// ListReservationsParams wraps a listing request.
type ListReservationsParams struct {
	Principal Principal
	Filter    ReservationFilter
}

// Reservation is one term as shown in the listing.
type Reservation struct {
	TermID       string
	EventID      string
	Title        string
	Status       scheduler.EventStatus
	Type         scheduler.EventType
	Visible      bool
	URL          string
	UserIsAuthor bool
	AuthorName   string
	Start        time.Time
	End          time.Time
	RoomNumber   string
	Place        string
}

// ClassroomInput captures caller provided classroom fields.
type ClassroomInput struct {
	Number     string `json:"number" validate:"required,max=32"`
	Floor      int    `json:"floor" validate:"gte=-5,lte=100"`
	Capacity   int    `json:"capacity" validate:"gte=0"`
	CanReserve bool   `json:"can_reserve"`
}

// CreateClassroomParams wraps the data required to register a classroom.
type CreateClassroomParams struct {
	Principal Principal
	Input     ClassroomInput
}

// SpecialReservationInput describes a standing weekly reservation of one room.
type SpecialReservationInput struct {
	Title       string `json:"title" validate:"required,max=255"`
	Description string `json:"description" validate:"max=10000"`
	RoomNumber  string `json:"room" validate:"required"`
	Weekday     string `json:"weekday" validate:"required,oneof=monday tuesday wednesday thursday friday saturday sunday"`
	Start       string `json:"start" validate:"required,datetime=15:04"`
	End         string `json:"end" validate:"required,datetime=15:04"`
	StartsOn    string `json:"starts_on" validate:"required,datetime=2006-01-02"`
	EndsOn      string `json:"ends_on" validate:"required,datetime=2006-01-02"`
}

// CreateSpecialReservationParams wraps a special reservation request.
type CreateSpecialReservationParams struct {
	Principal Principal
	Input     SpecialReservationInput
}

// RegisterUserParams wraps the data required to register or re-key an account.
type RegisterUserParams struct {
	// Principal is the acting user; nil registers without a permission check.
	Principal *Principal
	User      User
	// Secret is the plain access token secret; only its hash is stored.
	Secret string
}
