package testfixtures

import (
	"context"
	"testing"

	"github.com/example/room-scheduler/internal/persistence"
	"github.com/example/room-scheduler/internal/scheduler"
)

func TestEventFixtureConversions(t *testing.T) {
	t.Parallel()

	room := NewClassroomFixture(WithClassroomNumber("A1"))
	author := NewUserFixture(AsEmployee())
	day := ReferenceDay()
	fixture := NewEventFixture(author.ID,
		WithType(scheduler.EventTypeExam),
		WithRoomTerm(day, "10:00", "12:00", room),
		WithPlaceTerm(day, "13:00", "14:00", "Aula"),
	)

	event, terms := fixture.Persistence()
	if event.Type != "exam" || event.AuthorID != author.ID {
		t.Fatalf("unexpected persistence event: %+v", event)
	}
	if len(terms) != 2 {
		t.Fatalf("expected 2 terms, got %d", len(terms))
	}
	if terms[0].RoomID == nil || *terms[0].RoomID != room.ID || terms[0].Place != nil {
		t.Fatalf("expected room term, got %+v", terms[0])
	}
	if terms[1].Place == nil || *terms[1].Place != "Aula" || terms[1].RoomID != nil {
		t.Fatalf("expected place term, got %+v", terms[1])
	}
	if terms[0].StartMinute != 600 || terms[0].EndMinute != 720 {
		t.Fatalf("unexpected minutes: %d-%d", terms[0].StartMinute, terms[0].EndMinute)
	}

	_, appTerms := fixture.Application()
	if appTerms[0].RoomNumber != "A1" || appTerms[0].EventID != fixture.ID {
		t.Fatalf("unexpected application term: %+v", appTerms[0])
	}
}

func TestSQLiteHarnessSeedsReservations(t *testing.T) {
	t.Parallel()

	h := NewSQLiteHarness(t)
	room := NewClassroomFixture()
	author := NewUserFixture(AsManager())
	event := NewEventFixture(author.ID, WithRoomTerm(ReferenceDay(), "08:00", "09:30", room))

	h.SeedUsers(author)
	h.SeedClassrooms(room)
	h.SeedEvents(event)

	day := ReferenceDay().String()
	rows, err := h.Events.ListReservations(context.Background(), persistence.ReservationFilter{FromDay: day, ToDay: day})
	if err != nil {
		t.Fatalf("list reservations: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("expected 1 reservation, got %d", len(rows))
	}
	if rows[0].Event.ID != event.ID || rows[0].Term.RoomNumber != room.Number || rows[0].Author.ID != author.ID {
		t.Fatalf("unexpected reservation: %+v", rows[0])
	}
}
