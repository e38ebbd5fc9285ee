package recurrence

import (
	"errors"
	"time"

	"github.com/example/room-scheduler/internal/scheduler"
)

// Frequency represents supported recurrence intervals.
type Frequency int

const (
	// FrequencyUnspecified indicates the rule frequency is not set.
	FrequencyUnspecified Frequency = iota
	// FrequencyDaily generates occurrences for each day within the range.
	FrequencyDaily
	// FrequencyWeekly generates occurrences for the selected weekdays.
	FrequencyWeekly
)

// Rule describes a recurring reservation slot, such as a standing weekly
// booking for the lecture period of a semester.
type Rule struct {
	Frequency Frequency
	Weekdays  []time.Weekday
	StartsOn  scheduler.Day
	EndsOn    scheduler.Day
	Start     scheduler.TimeOfDay
	End       scheduler.TimeOfDay
}

// GenerateOptions defines optional range bounds for occurrence generation.
type GenerateOptions struct {
	RangeStart *scheduler.Day
	RangeEnd   *scheduler.Day
	// Limit caps the number of generated occurrences; zero means no cap.
	Limit int
}

// Occurrence is one generated day of a rule.
type Occurrence struct {
	Day   scheduler.Day
	Start scheduler.TimeOfDay
	End   scheduler.TimeOfDay
}

// Engine expands recurrence rules into occurrences.
type Engine struct{}

// NewEngine constructs an Engine.
func NewEngine() *Engine {
	return &Engine{}
}

var (
	// ErrInvalidFrequency indicates the recurrence frequency is not supported.
	ErrInvalidFrequency = errors.New("recurrence: invalid frequency")
	// ErrInvalidWindow indicates the rule window is missing or inverted.
	ErrInvalidWindow = errors.New("recurrence: rule requires starts_on before or equal to ends_on")
	// ErrInvalidDuration indicates the slot does not start before it ends.
	ErrInvalidDuration = errors.New("recurrence: slot duration must be positive")
	// ErrTooManyOccurrences indicates the rule expands beyond the configured limit.
	ErrTooManyOccurrences = errors.New("recurrence: too many occurrences")
)

// GenerateOccurrences produces the occurrences of rule within its window.
//
// Both window bounds are inclusive. The optional range narrows the window
// further. Weekly rules require at least one weekday; daily rules may filter
// by weekdays when provided.
func (e *Engine) GenerateOccurrences(rule Rule, opts GenerateOptions) ([]Occurrence, error) {
	if rule.Start >= rule.End {
		return nil, ErrInvalidDuration
	}
	if rule.StartsOn.IsZero() || rule.EndsOn.IsZero() || rule.StartsOn.Compare(rule.EndsOn) > 0 {
		return nil, ErrInvalidWindow
	}

	lowerBound := rule.StartsOn
	if opts.RangeStart != nil && opts.RangeStart.Compare(lowerBound) > 0 {
		lowerBound = *opts.RangeStart
	}
	upperBound := rule.EndsOn
	if opts.RangeEnd != nil && opts.RangeEnd.Compare(upperBound) < 0 {
		upperBound = *opts.RangeEnd
	}
	if lowerBound.Compare(upperBound) > 0 {
		return nil, nil
	}

	weekdaySet := make(map[time.Weekday]struct{}, len(rule.Weekdays))
	for _, day := range rule.Weekdays {
		weekdaySet[day] = struct{}{}
	}

	occurrences := make([]Occurrence, 0)
	for current := lowerBound; current.Compare(upperBound) <= 0; current = current.AddDays(1) {
		include, err := shouldInclude(rule.Frequency, weekdaySet, current.Weekday())
		if err != nil {
			return nil, err
		}
		if !include {
			continue
		}
		if opts.Limit > 0 && len(occurrences) >= opts.Limit {
			return nil, ErrTooManyOccurrences
		}
		occurrences = append(occurrences, Occurrence{Day: current, Start: rule.Start, End: rule.End})
	}

	return occurrences, nil
}

func shouldInclude(freq Frequency, weekdaySet map[time.Weekday]struct{}, day time.Weekday) (bool, error) {
	switch freq {
	case FrequencyDaily:
		if len(weekdaySet) == 0 {
			return true, nil
		}
		_, ok := weekdaySet[day]
		return ok, nil
	case FrequencyWeekly:
		if len(weekdaySet) == 0 {
			return false, nil
		}
		_, ok := weekdaySet[day]
		return ok, nil
	case FrequencyUnspecified:
		fallthrough
	default:
		return false, ErrInvalidFrequency
	}
}
