package scheduler

import (
	"sort"
	"strconv"
)

// IgnoreSet holds persisted interval ids that must not be reported as conflicts,
// typically the terms an event already owns while it is being updated.
type IgnoreSet map[string]struct{}

// NewIgnoreSet builds an IgnoreSet from ids, skipping empty values.
func NewIgnoreSet(ids ...string) IgnoreSet {
	set := make(IgnoreSet, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		set[id] = struct{}{}
	}
	return set
}

// Contains reports whether id is part of the set.
func (s IgnoreSet) Contains(id string) bool {
	if id == "" || len(s) == 0 {
		return false
	}
	_, ok := s[id]
	return ok
}

// FindConflicts returns the union of intervals colliding with any candidate.
//
// Existing intervals flagged IgnoreConflicts, listed in ignore, or sharing the
// candidate's own id are skipped. Candidates flagged IgnoreConflicts are not
// checked at all. Candidates colliding with each other are reported too, so an
// identical interval submitted twice in one batch is a conflict. The result is
// deduplicated by identity and ordered by day, start and room.
func FindConflicts(candidates, existing []Interval, ignore IgnoreSet) []Interval {
	found := make(map[string]Interval)

	for ci, candidate := range candidates {
		if candidate.IgnoreConflicts || !candidate.IsRoomBased() {
			continue
		}

		for ei, other := range existing {
			if other.IgnoreConflicts || ignore.Contains(other.ID) {
				continue
			}
			if candidate.ID != "" && candidate.ID == other.ID {
				continue
			}
			if candidate.Overlaps(other) {
				found[identity("existing", other, ei)] = other
			}
		}

		for cj := ci + 1; cj < len(candidates); cj++ {
			other := candidates[cj]
			if other.IgnoreConflicts {
				continue
			}
			if candidate.Overlaps(other) {
				found[identity("candidate", candidate, ci)] = candidate
				found[identity("candidate", other, cj)] = other
			}
		}
	}

	if len(found) == 0 {
		return nil
	}

	conflicts := make([]Interval, 0, len(found))
	for _, interval := range found {
		conflicts = append(conflicts, interval)
	}
	SortIntervals(conflicts)
	return conflicts
}

// Footprint returns the rooms and days touched by room-based candidates that
// take part in conflict detection. Stores use it to narrow the existing set.
func Footprint(candidates []Interval) (roomIDs []string, days []Day) {
	seenRooms := make(map[string]struct{})
	seenDays := make(map[Day]struct{})
	for _, candidate := range candidates {
		if candidate.IgnoreConflicts || !candidate.IsRoomBased() {
			continue
		}
		if _, ok := seenRooms[candidate.RoomID]; !ok {
			seenRooms[candidate.RoomID] = struct{}{}
			roomIDs = append(roomIDs, candidate.RoomID)
		}
		if _, ok := seenDays[candidate.Day]; !ok {
			seenDays[candidate.Day] = struct{}{}
			days = append(days, candidate.Day)
		}
	}
	sort.Strings(roomIDs)
	sort.Slice(days, func(i, j int) bool { return days[i].Compare(days[j]) < 0 })
	return roomIDs, days
}

// SortIntervals orders intervals by day, start, end, room, place and id.
func SortIntervals(intervals []Interval) {
	sort.SliceStable(intervals, func(i, j int) bool {
		a, b := intervals[i], intervals[j]
		if c := a.Day.Compare(b.Day); c != 0 {
			return c < 0
		}
		if a.Start != b.Start {
			return a.Start < b.Start
		}
		if a.End != b.End {
			return a.End < b.End
		}
		if a.RoomID != b.RoomID {
			return a.RoomID < b.RoomID
		}
		if a.Place != b.Place {
			return a.Place < b.Place
		}
		return a.ID < b.ID
	})
}

func identity(origin string, interval Interval, index int) string {
	if interval.ID != "" {
		return "id:" + interval.ID
	}
	return origin + ":" + strconv.Itoa(index)
}
