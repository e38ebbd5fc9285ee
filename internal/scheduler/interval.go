package scheduler

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	// ErrInvalidDay is returned when a day cannot be parsed as YYYY-MM-DD.
	ErrInvalidDay = errors.New("scheduler: invalid day")
	// ErrInvalidTimeOfDay is returned when a time cannot be parsed as HH:MM.
	ErrInvalidTimeOfDay = errors.New("scheduler: invalid time of day")
	// ErrInvalidRange is returned when an interval does not start before it ends.
	ErrInvalidRange = errors.New("scheduler: start must be before end")
	// ErrLocationRequired is returned when an interval has neither a room nor a place.
	ErrLocationRequired = errors.New("scheduler: room or place is required")
	// ErrAmbiguousLocation is returned when an interval names both a room and a place.
	ErrAmbiguousLocation = errors.New("scheduler: room and place are mutually exclusive")
)

const dayLayout = "2006-01-02"

// Day is a calendar date without a time component.
type Day struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDay parses a YYYY-MM-DD string.
func ParseDay(value string) (Day, error) {
	t, err := time.Parse(dayLayout, strings.TrimSpace(value))
	if err != nil {
		return Day{}, fmt.Errorf("%w: %q", ErrInvalidDay, value)
	}
	return DayOf(t), nil
}

// DayOf returns the calendar date of t in its own location.
func DayOf(t time.Time) Day {
	y, m, d := t.Date()
	return Day{Year: y, Month: m, Day: d}
}

// IsZero reports whether the day is unset.
func (d Day) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// Time returns midnight of the day in loc (UTC when loc is nil).
func (d Day) Time(loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, loc)
}

// At returns the wall clock time t on the day in loc (UTC when loc is nil).
// On days with a clock change the result keeps the wall clock reading.
func (d Day) At(t TimeOfDay, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	return time.Date(d.Year, d.Month, d.Day, int(t)/60, int(t)%60, 0, 0, loc)
}

// AddDays returns the day n days later.
func (d Day) AddDays(n int) Day {
	return DayOf(d.Time(time.UTC).AddDate(0, 0, n))
}

// Weekday returns the day of the week.
func (d Day) Weekday() time.Weekday {
	return d.Time(time.UTC).Weekday()
}

// Compare returns -1, 0 or +1 depending on whether d is before, equal to or after other.
func (d Day) Compare(other Day) int {
	switch {
	case d.Year != other.Year:
		return cmpInt(d.Year, other.Year)
	case d.Month != other.Month:
		return cmpInt(int(d.Month), int(other.Month))
	default:
		return cmpInt(d.Day, other.Day)
	}
}

func (d Day) String() string {
	return fmt.Sprintf("%04d-%02d-%02d", d.Year, int(d.Month), d.Day)
}

// TimeOfDay counts minutes since midnight.
type TimeOfDay int

// ParseTimeOfDay parses an HH:MM string.
func ParseTimeOfDay(value string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", strings.TrimSpace(value))
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidTimeOfDay, value)
	}
	return TimeOfDay(t.Hour()*60 + t.Minute()), nil
}

// MustTimeOfDay is ParseTimeOfDay for literals known to be valid.
func MustTimeOfDay(value string) TimeOfDay {
	t, err := ParseTimeOfDay(value)
	if err != nil {
		panic(err)
	}
	return t
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}

// Interval is a single reservation of one room (or one free-text place) on one day.
type Interval struct {
	ID              string
	EventID         string
	Day             Day
	Start           TimeOfDay
	End             TimeOfDay
	RoomID          string
	Place           string
	IgnoreConflicts bool
}

// NewInterval validates and constructs an interval. Exactly one of roomID and
// place must be set.
func NewInterval(day Day, start, end TimeOfDay, roomID, place string, ignoreConflicts bool) (Interval, error) {
	interval := Interval{
		Day:             day,
		Start:           start,
		End:             end,
		RoomID:          strings.TrimSpace(roomID),
		Place:           strings.TrimSpace(place),
		IgnoreConflicts: ignoreConflicts,
	}
	if err := interval.Validate(); err != nil {
		return Interval{}, err
	}
	return interval, nil
}

// Validate checks the range and location invariants.
func (i Interval) Validate() error {
	if i.Day.IsZero() {
		return ErrInvalidDay
	}
	if i.Start >= i.End {
		return ErrInvalidRange
	}
	switch {
	case i.RoomID == "" && i.Place == "":
		return ErrLocationRequired
	case i.RoomID != "" && i.Place != "":
		return ErrAmbiguousLocation
	}
	return nil
}

// IsRoomBased reports whether the interval reserves a formal room.
func (i Interval) IsRoomBased() bool {
	return i.RoomID != "" && i.Place == ""
}

// Overlaps reports whether both intervals reserve the same room on the same
// day for intersecting half-open time ranges. Place-based intervals never
// overlap anything.
func (i Interval) Overlaps(other Interval) bool {
	if !i.IsRoomBased() || !other.IsRoomBased() {
		return false
	}
	if i.Day != other.Day || i.RoomID != other.RoomID {
		return false
	}
	return i.Start < other.End && other.Start < i.End
}

// SameSlot reports whether both intervals describe the same day, times and location.
func (i Interval) SameSlot(other Interval) bool {
	return i.slot() == other.slot()
}

type slotKey struct {
	day    Day
	start  TimeOfDay
	end    TimeOfDay
	roomID string
	place  string
}

func (i Interval) slot() slotKey {
	return slotKey{day: i.Day, start: i.Start, end: i.End, roomID: i.RoomID, place: i.Place}
}

func cmpInt(a, b int) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
