package scheduler

import (
	"sort"
	"testing"
)

func TestGroup(t *testing.T) {
	t.Parallel()

	t.Run("merges rooms sharing day and times", func(t *testing.T) {
		t.Parallel()
		intervals := []Interval{
			roomInterval(t, "2024-03-14", "09:00", "10:00", "room-1"),
			roomInterval(t, "2024-03-14", "09:00", "10:00", "room-2"),
			roomInterval(t, "2024-03-14", "11:00", "12:00", "room-1"),
		}

		entries := Group(intervals)
		if len(entries) != 2 {
			t.Fatalf("expected 2 entries, got %d", len(entries))
		}
		if got := entries[0].RoomIDs(); len(got) != 2 || got[0] != "room-1" || got[1] != "room-2" {
			t.Fatalf("expected both rooms in the first entry, got %v", got)
		}
		if got := entries[1].RoomIDs(); len(got) != 1 || entries[1].Start != MustTimeOfDay("11:00") {
			t.Fatalf("unexpected second entry %+v", entries[1])
		}
	})

	t.Run("keeps place entries separate", func(t *testing.T) {
		t.Parallel()
		day := mustDay(t, "2024-03-14")
		place, err := NewInterval(day, MustTimeOfDay("09:00"), MustTimeOfDay("10:00"), "", "Courtyard", false)
		if err != nil {
			t.Fatalf("NewInterval returned error: %v", err)
		}
		entries := Group([]Interval{roomInterval(t, "2024-03-14", "09:00", "10:00", "room-1"), place})
		if len(entries) != 2 {
			t.Fatalf("expected place to stay separate, got %+v", entries)
		}
		if entries[0].Place != "" || entries[1].Place != "Courtyard" || len(entries[1].Rooms) != 0 {
			t.Fatalf("unexpected entries %+v", entries)
		}
	})
}

func TestExpand(t *testing.T) {
	t.Parallel()

	t.Run("carries per-room ignore flags", func(t *testing.T) {
		t.Parallel()
		entry := GroupedEntry{
			Day:   mustDay(t, "2024-03-14"),
			Start: MustTimeOfDay("09:00"),
			End:   MustTimeOfDay("10:00"),
			Rooms: []RoomSlot{{RoomID: "room-1"}, {RoomID: "room-2", IgnoreConflicts: true}},
		}
		intervals, err := Expand([]GroupedEntry{entry})
		if err != nil {
			t.Fatalf("Expand returned error: %v", err)
		}
		if len(intervals) != 2 {
			t.Fatalf("expected 2 intervals, got %d", len(intervals))
		}
		if intervals[0].IgnoreConflicts || !intervals[1].IgnoreConflicts {
			t.Fatalf("ignore flags not carried: %+v", intervals)
		}
	})

	t.Run("rejects invalid entries", func(t *testing.T) {
		t.Parallel()
		entry := GroupedEntry{
			Day:   mustDay(t, "2024-03-14"),
			Start: MustTimeOfDay("10:00"),
			End:   MustTimeOfDay("09:00"),
			Rooms: []RoomSlot{{RoomID: "room-1"}},
		}
		if _, err := Expand([]GroupedEntry{entry}); err == nil {
			t.Fatalf("expected validation error")
		}
		if _, err := Expand([]GroupedEntry{{Day: entry.Day, Start: entry.End, End: entry.Start}}); err == nil {
			t.Fatalf("expected location error")
		}
	})

	t.Run("round trips room based intervals", func(t *testing.T) {
		t.Parallel()
		flagged := roomInterval(t, "2024-03-15", "08:00", "09:00", "room-3")
		flagged.IgnoreConflicts = true
		intervals := []Interval{
			roomInterval(t, "2024-03-14", "09:00", "10:00", "room-2"),
			flagged,
			roomInterval(t, "2024-03-14", "09:00", "10:00", "room-1"),
			roomInterval(t, "2024-03-14", "12:00", "13:00", "room-1"),
			roomInterval(t, "2024-03-14", "09:00", "10:00", "room-2"),
		}

		expanded, err := Expand(Group(intervals))
		if err != nil {
			t.Fatalf("Expand returned error: %v", err)
		}
		if got, want := fingerprints(expanded), fingerprints(intervals); !equalStrings(got, want) {
			t.Fatalf("round trip mismatch:\n got  %v\n want %v", got, want)
		}
	})
}

func fingerprints(intervals []Interval) []string {
	out := make([]string, 0, len(intervals))
	for _, i := range intervals {
		flag := "-"
		if i.IgnoreConflicts {
			flag = "ignore"
		}
		out = append(out, i.Day.String()+" "+i.Start.String()+"-"+i.End.String()+" "+i.RoomID+" "+flag)
	}
	sort.Strings(out)
	return out
}

func equalStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
