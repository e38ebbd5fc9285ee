package export

import (
	"fmt"
	"io"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"

	"github.com/example/room-scheduler/internal/application"
	"github.com/example/room-scheduler/internal/scheduler"
)

const productID = "-//room-scheduler//reservations//EN"

// CalendarOptions controls the generated feed.
type CalendarOptions struct {
	Name    string
	BaseURL string
	Now     time.Time
}

// WriteCalendar renders the reservations as an iCalendar feed, one VEVENT per term.
func WriteCalendar(w io.Writer, reservations []application.Reservation, opts CalendarOptions) error {
	if opts.Now.IsZero() {
		opts.Now = time.Now()
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId(productID)
	if opts.Name != "" {
		cal.SetXWRCalName(opts.Name)
	}

	for _, reservation := range reservations {
		event := cal.AddEvent(reservation.TermID + "@room-scheduler")
		event.SetDtStampTime(opts.Now.UTC())
		event.SetStartAt(reservation.Start.UTC())
		event.SetEndAt(reservation.End.UTC())
		event.SetSummary(reservation.Title)
		event.SetLocation(location(reservation))
		event.SetStatus(objectStatus(reservation.Status))
		if reservation.AuthorName != "" {
			event.SetDescription(fmt.Sprintf("%s (%s)", reservation.AuthorName, reservation.Type))
		}
		if reservation.URL != "" {
			event.SetURL(strings.TrimRight(opts.BaseURL, "/") + reservation.URL)
		}
	}

	if _, err := io.WriteString(w, cal.Serialize()); err != nil {
		return fmt.Errorf("failed to write calendar: %w", err)
	}
	return nil
}

func location(reservation application.Reservation) string {
	if reservation.RoomNumber != "" {
		return "Room " + reservation.RoomNumber
	}
	return reservation.Place
}

func objectStatus(status scheduler.EventStatus) ics.ObjectStatus {
	switch status {
	case scheduler.EventStatusAccepted:
		return ics.ObjectStatusConfirmed
	case scheduler.EventStatusRejected:
		return ics.ObjectStatusCancelled
	default:
		return ics.ObjectStatusTentative
	}
}
