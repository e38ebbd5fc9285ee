package recurrence

import (
	"errors"
	"testing"
	"time"

	"github.com/example/room-scheduler/internal/scheduler"
)

func day(t *testing.T, value string) scheduler.Day {
	t.Helper()
	d, err := scheduler.ParseDay(value)
	if err != nil {
		t.Fatalf("ParseDay(%q): %v", value, err)
	}
	return d
}

func TestEngine_GenerateOccurrences(t *testing.T) {
	t.Parallel()

	engine := NewEngine()
	base := Rule{
		Frequency: FrequencyWeekly,
		Weekdays:  []time.Weekday{time.Monday, time.Wednesday},
		StartsOn:  day(t, "2024-03-04"),
		EndsOn:    day(t, "2024-03-18"),
		Start:     scheduler.MustTimeOfDay("10:15"),
		End:       scheduler.MustTimeOfDay("12:00"),
	}

	t.Run("respects weekday selections", func(t *testing.T) {
		t.Parallel()
		occurrences, err := engine.GenerateOccurrences(base, GenerateOptions{})
		if err != nil {
			t.Fatalf("GenerateOccurrences returned error: %v", err)
		}
		want := []string{"2024-03-04", "2024-03-06", "2024-03-11", "2024-03-13", "2024-03-18"}
		if len(occurrences) != len(want) {
			t.Fatalf("expected %d occurrences, got %d", len(want), len(occurrences))
		}
		for i, occurrence := range occurrences {
			if occurrence.Day.String() != want[i] {
				t.Fatalf("occurrence %d: expected %s, got %s", i, want[i], occurrence.Day)
			}
			if occurrence.Start != base.Start || occurrence.End != base.End {
				t.Fatalf("occurrence %d: unexpected times %s-%s", i, occurrence.Start, occurrence.End)
			}
		}
	})

	t.Run("clips occurrences to the requested period", func(t *testing.T) {
		t.Parallel()
		from := day(t, "2024-03-05")
		to := day(t, "2024-03-12")
		occurrences, err := engine.GenerateOccurrences(base, GenerateOptions{RangeStart: &from, RangeEnd: &to})
		if err != nil {
			t.Fatalf("GenerateOccurrences returned error: %v", err)
		}
		if len(occurrences) != 2 || occurrences[0].Day.String() != "2024-03-06" || occurrences[1].Day.String() != "2024-03-11" {
			t.Fatalf("unexpected occurrences %+v", occurrences)
		}
	})

	t.Run("rejects invalid rules", func(t *testing.T) {
		t.Parallel()
		inverted := base
		inverted.Start, inverted.End = base.End, base.Start
		if _, err := engine.GenerateOccurrences(inverted, GenerateOptions{}); !errors.Is(err, ErrInvalidDuration) {
			t.Fatalf("expected ErrInvalidDuration, got %v", err)
		}

		window := base
		window.EndsOn = day(t, "2024-03-01")
		if _, err := engine.GenerateOccurrences(window, GenerateOptions{}); !errors.Is(err, ErrInvalidWindow) {
			t.Fatalf("expected ErrInvalidWindow, got %v", err)
		}

		freq := base
		freq.Frequency = FrequencyUnspecified
		if _, err := engine.GenerateOccurrences(freq, GenerateOptions{}); !errors.Is(err, ErrInvalidFrequency) {
			t.Fatalf("expected ErrInvalidFrequency, got %v", err)
		}
	})

	t.Run("enforces the occurrence limit", func(t *testing.T) {
		t.Parallel()
		if _, err := engine.GenerateOccurrences(base, GenerateOptions{Limit: 3}); !errors.Is(err, ErrTooManyOccurrences) {
			t.Fatalf("expected ErrTooManyOccurrences, got %v", err)
		}
	})
}
