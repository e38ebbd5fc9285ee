package persistence

import "time"

// DayLayout is the storage format of term days. It sorts lexically.
const DayLayout = "2006-01-02"

// User represents an account that can author events.
type User struct {
	ID              string
	Username        string
	FirstName       string
	LastName        string
	Role            string
	CanManageEvents bool
	TokenHash       string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Classroom represents a room catalog entry.
type Classroom struct {
	ID         string
	Number     string
	Floor      int
	Capacity   int
	CanReserve bool
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// Event represents a reservation owned by an author.
type Event struct {
	ID          string
	Title       string
	Description string
	AuthorID    string
	Visible     bool
	Status      string
	Type        string
	CreatedAt   time.Time
	EditedAt    time.Time
}

// Term represents one reserved interval of an event. Exactly one of RoomID and
// Place is set. RoomNumber is filled on reads and ignored on writes.
type Term struct {
	ID              string
	EventID         string
	Day             string
	StartMinute     int
	EndMinute       int
	RoomID          *string
	RoomNumber      string
	Place           *string
	IgnoreConflicts bool
}

// Reservation joins a term with its event and the event author.
type Reservation struct {
	Term   Term
	Event  Event
	Author User
}
