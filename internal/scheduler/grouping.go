package scheduler

import "sort"

// RoomSlot is one room inside a grouped entry together with its own
// ignore-conflicts flag.
type RoomSlot struct {
	RoomID          string
	IgnoreConflicts bool
}

// GroupedEntry collapses room-based intervals sharing day, start and end into
// a single presentation entry. Place-based intervals are carried in their own
// entry with an empty room list.
type GroupedEntry struct {
	Day   Day
	Start TimeOfDay
	End   TimeOfDay
	Rooms []RoomSlot
	Place string
	// IgnoreConflicts applies to a place entry only; room entries carry it per slot.
	IgnoreConflicts bool
}

// RoomIDs lists the room identifiers of the entry in order.
func (e GroupedEntry) RoomIDs() []string {
	ids := make([]string, 0, len(e.Rooms))
	for _, slot := range e.Rooms {
		ids = append(ids, slot.RoomID)
	}
	return ids
}

type timeKey struct {
	day   Day
	start TimeOfDay
	end   TimeOfDay
}

// Group merges room-based intervals with identical day, start and end into one
// entry. A place-based interval is never merged, even when a room-based entry
// shares its times.
func Group(intervals []Interval) []GroupedEntry {
	entries := make([]GroupedEntry, 0, len(intervals))
	byTime := make(map[timeKey]int)

	for _, interval := range intervals {
		if !interval.IsRoomBased() {
			entries = append(entries, GroupedEntry{
				Day:             interval.Day,
				Start:           interval.Start,
				End:             interval.End,
				Place:           interval.Place,
				IgnoreConflicts: interval.IgnoreConflicts,
			})
			continue
		}

		key := timeKey{day: interval.Day, start: interval.Start, end: interval.End}
		slot := RoomSlot{RoomID: interval.RoomID, IgnoreConflicts: interval.IgnoreConflicts}
		if idx, ok := byTime[key]; ok {
			entries[idx].Rooms = append(entries[idx].Rooms, slot)
			continue
		}
		byTime[key] = len(entries)
		entries = append(entries, GroupedEntry{
			Day:   interval.Day,
			Start: interval.Start,
			End:   interval.End,
			Rooms: []RoomSlot{slot},
		})
	}

	sort.SliceStable(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if c := a.Day.Compare(b.Day); c != 0 {
			return c < 0
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.End != b.End {
			return a.End < b.End
		}
		return a.Place < b.Place
	})
	return entries
}

// Expand is the inverse of Group: one interval per room slot, or a single
// interval for a place entry. Every interval is validated.
func Expand(entries []GroupedEntry) ([]Interval, error) {
	intervals := make([]Interval, 0, len(entries))
	for _, entry := range entries {
		if len(entry.Rooms) == 0 {
			interval, err := NewInterval(entry.Day, entry.Start, entry.End, "", entry.Place, entry.IgnoreConflicts)
			if err != nil {
				return nil, err
			}
			intervals = append(intervals, interval)
			continue
		}
		if entry.Place != "" {
			return nil, ErrAmbiguousLocation
		}
		for _, slot := range entry.Rooms {
			interval, err := NewInterval(entry.Day, entry.Start, entry.End, slot.RoomID, "", slot.IgnoreConflicts)
			if err != nil {
				return nil, err
			}
			intervals = append(intervals, interval)
		}
	}
	return intervals, nil
}
