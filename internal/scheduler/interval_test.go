package scheduler

import (
	"errors"
	"testing"
	"time"
	_ "time/tzdata"
)

func mustDay(t *testing.T, value string) Day {
	t.Helper()
	day, err := ParseDay(value)
	if err != nil {
		t.Fatalf("ParseDay(%q) returned error: %v", value, err)
	}
	return day
}

func roomInterval(t *testing.T, day, start, end, room string) Interval {
	t.Helper()
	interval, err := NewInterval(mustDay(t, day), MustTimeOfDay(start), MustTimeOfDay(end), room, "", false)
	if err != nil {
		t.Fatalf("NewInterval returned error: %v", err)
	}
	return interval
}

func TestParseTimeOfDay(t *testing.T) {
	t.Parallel()

	got, err := ParseTimeOfDay("09:30")
	if err != nil {
		t.Fatalf("ParseTimeOfDay returned error: %v", err)
	}
	if got != 9*60+30 {
		t.Fatalf("expected 570 minutes, got %d", got)
	}
	if got.String() != "09:30" {
		t.Fatalf("expected 09:30, got %s", got)
	}

	if _, err := ParseTimeOfDay("9.30"); !errors.Is(err, ErrInvalidTimeOfDay) {
		t.Fatalf("expected ErrInvalidTimeOfDay, got %v", err)
	}
}

func TestParseDay(t *testing.T) {
	t.Parallel()

	day := mustDay(t, "2024-03-14")
	if day.String() != "2024-03-14" {
		t.Fatalf("unexpected day string %s", day)
	}
	if got := day.AddDays(18).String(); got != "2024-04-01" {
		t.Fatalf("expected 2024-04-01, got %s", got)
	}
	if _, err := ParseDay("14.03.2024"); !errors.Is(err, ErrInvalidDay) {
		t.Fatalf("expected ErrInvalidDay, got %v", err)
	}
}

func TestDay_At(t *testing.T) {
	t.Parallel()

	warsaw, err := time.LoadLocation("Europe/Warsaw")
	if err != nil {
		t.Fatalf("LoadLocation returned error: %v", err)
	}

	cases := map[string]struct {
		day    string
		offset int
	}{
		"spring forward": {day: "2025-03-30", offset: 2 * 3600},
		"fall back":      {day: "2025-10-26", offset: 1 * 3600},
		"regular day":    {day: "2025-06-02", offset: 2 * 3600},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			got := mustDay(t, tc.day).At(MustTimeOfDay("09:00"), warsaw)
			if got.Hour() != 9 || got.Minute() != 0 {
				t.Fatalf("wall clock = %s, want 09:00", got.Format("15:04"))
			}
			if _, offset := got.Zone(); offset != tc.offset {
				t.Fatalf("offset = %d, want %d", offset, tc.offset)
			}
			if DayOf(got) != mustDay(t, tc.day) {
				t.Fatalf("day = %s, want %s", DayOf(got), tc.day)
			}
		})
	}

	t.Run("defaults to UTC", func(t *testing.T) {
		t.Parallel()
		got := mustDay(t, "2025-03-30").At(MustTimeOfDay("23:59"), nil)
		want := time.Date(2025, time.March, 30, 23, 59, 0, 0, time.UTC)
		if !got.Equal(want) {
			t.Fatalf("got %v, want %v", got, want)
		}
	})
}

func TestNewInterval(t *testing.T) {
	t.Parallel()

	day := mustDay(t, "2024-03-14")

	t.Run("rejects inverted and empty ranges", func(t *testing.T) {
		t.Parallel()
		if _, err := NewInterval(day, MustTimeOfDay("10:00"), MustTimeOfDay("09:00"), "room-1", "", false); !errors.Is(err, ErrInvalidRange) {
			t.Fatalf("expected ErrInvalidRange, got %v", err)
		}
		if _, err := NewInterval(day, MustTimeOfDay("10:00"), MustTimeOfDay("10:00"), "room-1", "", false); !errors.Is(err, ErrInvalidRange) {
			t.Fatalf("expected ErrInvalidRange for zero length, got %v", err)
		}
	})

	t.Run("requires exactly one location", func(t *testing.T) {
		t.Parallel()
		if _, err := NewInterval(day, MustTimeOfDay("09:00"), MustTimeOfDay("10:00"), "", " ", false); !errors.Is(err, ErrLocationRequired) {
			t.Fatalf("expected ErrLocationRequired, got %v", err)
		}
		if _, err := NewInterval(day, MustTimeOfDay("09:00"), MustTimeOfDay("10:00"), "room-1", "Hall", false); !errors.Is(err, ErrAmbiguousLocation) {
			t.Fatalf("expected ErrAmbiguousLocation, got %v", err)
		}
	})
}

func TestInterval_Overlaps(t *testing.T) {
	t.Parallel()

	t.Run("is symmetric and reflexive", func(t *testing.T) {
		t.Parallel()
		a := roomInterval(t, "2024-03-14", "09:00", "10:30", "room-1")
		b := roomInterval(t, "2024-03-14", "10:00", "11:00", "room-1")
		if a.Overlaps(b) != b.Overlaps(a) {
			t.Fatalf("overlap is not symmetric")
		}
		if !a.Overlaps(b) {
			t.Fatalf("expected intervals to overlap")
		}
		if !a.Overlaps(a) {
			t.Fatalf("expected interval to overlap itself")
		}
	})

	t.Run("touching endpoints do not overlap", func(t *testing.T) {
		t.Parallel()
		a := roomInterval(t, "2024-03-14", "09:00", "10:00", "room-1")
		b := roomInterval(t, "2024-03-14", "10:00", "11:00", "room-1")
		if a.Overlaps(b) || b.Overlaps(a) {
			t.Fatalf("touching intervals must not overlap")
		}
		c := roomInterval(t, "2024-03-14", "09:00", "10:01", "room-1")
		if !c.Overlaps(b) {
			t.Fatalf("expected one-minute overlap to be detected")
		}
	})

	t.Run("different room or day never overlaps", func(t *testing.T) {
		t.Parallel()
		a := roomInterval(t, "2024-03-14", "09:00", "10:00", "room-1")
		if a.Overlaps(roomInterval(t, "2024-03-14", "09:00", "10:00", "room-2")) {
			t.Fatalf("different rooms must not overlap")
		}
		if a.Overlaps(roomInterval(t, "2024-03-15", "09:00", "10:00", "room-1")) {
			t.Fatalf("different days must not overlap")
		}
	})

	t.Run("place based intervals are never compared", func(t *testing.T) {
		t.Parallel()
		day := mustDay(t, "2024-03-14")
		a, _ := NewInterval(day, MustTimeOfDay("09:00"), MustTimeOfDay("10:00"), "", "Main hall", false)
		b, _ := NewInterval(day, MustTimeOfDay("09:00"), MustTimeOfDay("10:00"), "", "Main hall", false)
		if a.Overlaps(b) {
			t.Fatalf("place based intervals must not overlap")
		}
	})
}
