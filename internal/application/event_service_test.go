package application

import (
	"context"
	"errors"
	"testing"

	"github.com/example/room-scheduler/internal/scheduler"
)

func TestEventService_CreateEvent(t *testing.T) {
	t.Parallel()

	t.Run("stores one term per room and returns grouped detail", func(t *testing.T) {
		t.Parallel()
		fx := newEventFixture()

		detail, err := fx.svc.CreateEvent(context.Background(), CreateEventRequest{
			Principal: employeePrincipal,
			Payload:   examPayload(roomTerm("2024-03-11", "10:00", "12:00", map[string]bool{"25": false, "103": false})),
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}

		stored := fx.store.eventTerms(detail.ID)
		if len(stored) != 2 {
			t.Fatalf("expected two stored terms, got %d", len(stored))
		}
		if len(detail.Terms) != 1 {
			t.Fatalf("expected one grouped entry, got %d", len(detail.Terms))
		}
		if got := detail.Terms[0].Rooms; len(got) != 2 || got[0] != "103" || got[1] != "25" {
			t.Fatalf("expected rooms [103 25], got %v", got)
		}
		if detail.AuthorName != "Anna Kowalska" || !detail.UserIsAuthor {
			t.Fatalf("unexpected author fields: %+v", detail)
		}
		if detail.AuthorURL != "/users/employee-1" {
			t.Fatalf("unexpected author url %q", detail.AuthorURL)
		}
	})

	t.Run("rejects a colliding room term and persists nothing", func(t *testing.T) {
		t.Parallel()
		fx := newEventFixture()
		ctx := context.Background()

		first, err := fx.svc.CreateEvent(ctx, CreateEventRequest{
			Principal: employeePrincipal,
			Payload:   examPayload(roomTerm("2024-03-11", "10:00", "12:00", map[string]bool{"25": false, "103": false})),
		})
		if err != nil {
			t.Fatalf("seed create failed: %v", err)
		}

		_, err = fx.svc.CreateEvent(ctx, CreateEventRequest{
			Principal: colleague,
			Payload:   examPayload(roomTerm("2024-03-11", "11:00", "13:00", map[string]bool{"25": false})),
		})
		var cErr *ConflictError
		if !errors.As(err, &cErr) {
			t.Fatalf("expected ConflictError, got %v", err)
		}
		if len(cErr.Conflicts) != 1 {
			t.Fatalf("expected one conflicting term, got %+v", cErr.Conflicts)
		}
		conflict := cErr.Conflicts[0]
		if conflict.EventID != first.ID || conflict.RoomNumber != "25" {
			t.Fatalf("expected the first event's room 25 term, got %+v", conflict)
		}
		if len(fx.store.events) != 1 || len(fx.store.terms) != 2 {
			t.Fatalf("expected store unchanged, got %d events %d terms", len(fx.store.events), len(fx.store.terms))
		}
	})

	t.Run("accepts terms that only touch at the boundary", func(t *testing.T) {
		t.Parallel()
		fx := newEventFixture()
		ctx := context.Background()

		for _, term := range []TermPayload{
			roomTerm("2024-03-11", "10:00", "12:00", map[string]bool{"25": false}),
			roomTerm("2024-03-11", "12:00", "14:00", map[string]bool{"25": false}),
		} {
			if _, err := fx.svc.CreateEvent(ctx, CreateEventRequest{Principal: employeePrincipal, Payload: examPayload(term)}); err != nil {
				t.Fatalf("expected touching terms to be accepted, got %v", err)
			}
		}
	})

	t.Run("skips terms flagged to ignore conflicts", func(t *testing.T) {
		t.Parallel()
		fx := newEventFixture()
		ctx := context.Background()

		if _, err := fx.svc.CreateEvent(ctx, CreateEventRequest{
			Principal: managerPrincipal,
			Payload:   examPayload(roomTerm("2024-03-11", "08:00", "18:00", map[string]bool{"25": true})),
		}); err != nil {
			t.Fatalf("seed create failed: %v", err)
		}

		if _, err := fx.svc.CreateEvent(ctx, CreateEventRequest{
			Principal: employeePrincipal,
			Payload:   examPayload(roomTerm("2024-03-11", "10:00", "12:00", map[string]bool{"25": false})),
		}); err != nil {
			t.Fatalf("expected flagged term to be ignored, got %v", err)
		}
	})

	t.Run("reports collisions inside one submission", func(t *testing.T) {
		t.Parallel()
		fx := newEventFixture()

		_, err := fx.svc.CreateEvent(context.Background(), CreateEventRequest{
			Principal: employeePrincipal,
			Payload: examPayload(
				roomTerm("2024-03-11", "10:00", "12:00", map[string]bool{"25": false}),
				roomTerm("2024-03-11", "11:30", "13:00", map[string]bool{"25": false}),
			),
		})
		var cErr *ConflictError
		if !errors.As(err, &cErr) || len(cErr.Conflicts) != 2 {
			t.Fatalf("expected both submitted terms reported, got %v", err)
		}
		for _, conflict := range cErr.Conflicts {
			if conflict.ID != "" || conflict.EventID != "" {
				t.Fatalf("expected unsaved terms to carry no identifiers, got %+v", conflict)
			}
		}
		if len(fx.store.events) != 0 || len(fx.store.terms) != 0 {
			t.Fatalf("expected nothing stored")
		}
	})

	t.Run("lets only managers exempt terms from conflict checks", func(t *testing.T) {
		t.Parallel()
		fx := newEventFixture()
		ctx := context.Background()
		payload := examPayload(roomTerm("2024-03-11", "10:00", "12:00", map[string]bool{"25": true}))

		_, err := fx.svc.CreateEvent(ctx, CreateEventRequest{Principal: employeePrincipal, Payload: payload})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
		if len(fx.store.events) != 0 {
			t.Fatalf("expected nothing stored")
		}

		if _, err := fx.svc.CreateEvent(ctx, CreateEventRequest{Principal: managerPrincipal, Payload: payload}); err != nil {
			t.Fatalf("expected manager create to succeed, got %v", err)
		}
	})

	t.Run("forbids students from creating exams", func(t *testing.T) {
		t.Parallel()
		fx := newEventFixture()

		payload := examPayload(roomTerm("2024-03-11", "10:00", "12:00", map[string]bool{"25": false}))
		payload.Status = "pending"
		_, err := fx.svc.CreateEvent(context.Background(), CreateEventRequest{Principal: studentPrincipal, Payload: payload})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
		if !errors.Is(err, scheduler.ErrInsufficientPrivilege) {
			t.Fatalf("expected policy reason to be wrapped, got %v", err)
		}
		if fx.store.commits != 0 || fx.store.rollbacks != 0 {
			t.Fatalf("expected no transaction for forbidden request")
		}
	})

	t.Run("lets students create pending generic events", func(t *testing.T) {
		t.Parallel()
		fx := newEventFixture()

		_, err := fx.svc.CreateEvent(context.Background(), CreateEventRequest{
			Principal: studentPrincipal,
			Payload: EventPayload{
				Title:  "Study group",
				Status: "pending",
				Type:   "generic",
				Terms:  []TermPayload{placeTerm("2024-03-12", "16:00", "17:00", "Library")},
			},
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
	})

	t.Run("validates payload fields before touching storage", func(t *testing.T) {
		t.Parallel()
		fx := newEventFixture()

		_, err := fx.svc.CreateEvent(context.Background(), CreateEventRequest{
			Principal: employeePrincipal,
			Payload: EventPayload{
				Title:  "  ",
				Status: "maybe",
				Type:   "exam",
				Terms: []TermPayload{
					roomTerm("2024-03-11", "12:00", "10:00", map[string]bool{"25": false}),
					{Day: "2024-03-11", Start: "10:00", End: "11:00"},
				},
			},
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"title", "status"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected %s error, got %v", field, vErr.FieldErrors)
			}
		}
		if fx.classrooms.findCalls != 0 {
			t.Fatalf("expected rooms not to be resolved for invalid fields")
		}
	})

	t.Run("validates term ranges and locations", func(t *testing.T) {
		t.Parallel()
		fx := newEventFixture()

		_, err := fx.svc.CreateEvent(context.Background(), CreateEventRequest{
			Principal: employeePrincipal,
			Payload: examPayload(
				roomTerm("2024-03-11", "12:00", "10:00", map[string]bool{"25": false}),
				TermPayload{Day: "2024-03-11", Start: "10:00", End: "11:00"},
				TermPayload{Day: "2024-03-11", Start: "10:00", End: "11:00", Rooms: map[string]bool{"25": false}, Place: strPtr("Aula")},
			),
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		for _, field := range []string{"terms[0].end", "terms[1]", "terms[2]"} {
			if _, ok := vErr.FieldErrors[field]; !ok {
				t.Fatalf("expected %s error, got %v", field, vErr.FieldErrors)
			}
		}
	})

	t.Run("rejects unknown and unreservable rooms", func(t *testing.T) {
		t.Parallel()
		fx := newEventFixture()

		_, err := fx.svc.CreateEvent(context.Background(), CreateEventRequest{
			Principal: employeePrincipal,
			Payload: examPayload(
				roomTerm("2024-03-11", "10:00", "11:00", map[string]bool{"999": false}),
				roomTerm("2024-03-11", "10:00", "11:00", map[string]bool{"lab": false}),
			),
		})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if vErr.FieldErrors["terms[0].rooms"] != `unknown room "999"` {
			t.Fatalf("unexpected unknown room message: %v", vErr.FieldErrors)
		}
		if vErr.FieldErrors["terms[1].rooms"] != `room "lab" cannot be reserved` {
			t.Fatalf("unexpected unreservable room message: %v", vErr.FieldErrors)
		}
	})
}

func TestEventService_UpdateEvent(t *testing.T) {
	t.Parallel()

	seed := func(t *testing.T, fx eventFixture) EventDetail {
		t.Helper()
		detail, err := fx.svc.CreateEvent(context.Background(), CreateEventRequest{
			Principal: employeePrincipal,
			Payload:   examPayload(roomTerm("2024-03-11", "10:00", "12:00", map[string]bool{"25": false, "103": false})),
		})
		if err != nil {
			t.Fatalf("seed create failed: %v", err)
		}
		return detail
	}

	t.Run("resubmitting the same terms does not conflict with itself", func(t *testing.T) {
		t.Parallel()
		fx := newEventFixture()
		event := seed(t, fx)
		before := fx.store.eventTerms(event.ID)

		_, err := fx.svc.UpdateEvent(context.Background(), UpdateEventRequest{
			Principal: employeePrincipal,
			EventID:   event.ID,
			Payload:   examPayload(roomTerm("2024-03-11", "10:00", "12:00", map[string]bool{"25": false, "103": false})),
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}

		after := fx.store.eventTerms(event.ID)
		if len(after) != len(before) {
			t.Fatalf("expected %d terms, got %d", len(before), len(after))
		}
		for i := range before {
			if before[i].ID != after[i].ID {
				t.Fatalf("expected unchanged terms to keep their ids, got %v then %v", before[i].ID, after[i].ID)
			}
		}
	})

	t.Run("keeps matched terms, deletes stale ones and inserts new ones", func(t *testing.T) {
		t.Parallel()
		fx := newEventFixture()
		event := seed(t, fx)

		var keptID string
		for _, term := range fx.store.eventTerms(event.ID) {
			if term.RoomNumber == "25" {
				keptID = term.ID
			}
		}

		detail, err := fx.svc.UpdateEvent(context.Background(), UpdateEventRequest{
			Principal: employeePrincipal,
			EventID:   event.ID,
			Payload: examPayload(
				roomTerm("2024-03-11", "10:00", "12:00", map[string]bool{"25": false}),
				placeTerm("2024-03-11", "10:00", "12:00", "Aula Magna"),
			),
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}

		terms := fx.store.eventTerms(event.ID)
		if len(terms) != 2 {
			t.Fatalf("expected two terms after update, got %+v", terms)
		}
		var sawKept, sawPlace bool
		for _, term := range terms {
			switch {
			case term.ID == keptID:
				sawKept = true
			case term.Place == "Aula Magna":
				sawPlace = true
			case term.RoomNumber == "103":
				t.Fatalf("expected room 103 term to be deleted")
			}
		}
		if !sawKept || !sawPlace {
			t.Fatalf("expected kept room 25 term and new place term, got %+v", terms)
		}
		if len(detail.Terms) != 2 {
			t.Fatalf("expected room and place entries to stay separate, got %+v", detail.Terms)
		}
	})

	t.Run("rejects moving into another event's room and leaves terms untouched", func(t *testing.T) {
		t.Parallel()
		fx := newEventFixture()
		ctx := context.Background()
		event := seed(t, fx)
		if _, err := fx.svc.CreateEvent(ctx, CreateEventRequest{
			Principal: colleague,
			Payload:   examPayload(roomTerm("2024-03-12", "14:00", "15:00", map[string]bool{"40": false})),
		}); err != nil {
			t.Fatalf("seed create failed: %v", err)
		}
		before := fx.store.eventTerms(event.ID)

		_, err := fx.svc.UpdateEvent(ctx, UpdateEventRequest{
			Principal: employeePrincipal,
			EventID:   event.ID,
			Payload:   examPayload(roomTerm("2024-03-12", "14:30", "15:30", map[string]bool{"40": false})),
		})
		var cErr *ConflictError
		if !errors.As(err, &cErr) {
			t.Fatalf("expected ConflictError, got %v", err)
		}
		if after := fx.store.eventTerms(event.ID); len(after) != len(before) {
			t.Fatalf("expected terms untouched, got %+v", after)
		}
	})

	t.Run("forbids authors without manage permission from exempting new terms", func(t *testing.T) {
		t.Parallel()
		fx := newEventFixture()
		event := seed(t, fx)
		before := fx.store.eventTerms(event.ID)

		_, err := fx.svc.UpdateEvent(context.Background(), UpdateEventRequest{
			Principal: employeePrincipal,
			EventID:   event.ID,
			Payload:   examPayload(roomTerm("2024-03-12", "10:00", "12:00", map[string]bool{"40": true})),
		})
		if !errors.Is(err, ErrUnauthorized) {
			t.Fatalf("expected ErrUnauthorized, got %v", err)
		}
		if after := fx.store.eventTerms(event.ID); len(after) != len(before) {
			t.Fatalf("expected terms untouched, got %+v", after)
		}
	})

	t.Run("forbids non-authors without manage permission", func(t *testing.T) {
		t.Parallel()
		fx := newEventFixture()
		event := seed(t, fx)

		_, err := fx.svc.UpdateEvent(context.Background(), UpdateEventRequest{
			Principal: colleague,
			EventID:   event.ID,
			Payload:   examPayload(roomTerm("2024-03-11", "10:00", "12:00", map[string]bool{"25": false})),
		})
		if !errors.Is(err, ErrUnauthorized) || !errors.Is(err, scheduler.ErrNotAuthor) {
			t.Fatalf("expected not-author rejection, got %v", err)
		}
	})

	t.Run("lets managers edit any event", func(t *testing.T) {
		t.Parallel()
		fx := newEventFixture()
		event := seed(t, fx)

		payload := examPayload(roomTerm("2024-03-11", "10:00", "12:00", map[string]bool{"25": false}))
		payload.Type = "class"
		detail, err := fx.svc.UpdateEvent(context.Background(), UpdateEventRequest{
			Principal: managerPrincipal,
			EventID:   event.ID,
			Payload:   payload,
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if detail.AuthorID != employeePrincipal.UserID {
			t.Fatalf("expected author to be preserved, got %q", detail.AuthorID)
		}
		if detail.Type != scheduler.EventTypeClass {
			t.Fatalf("expected type to be updated, got %q", detail.Type)
		}
	})

	t.Run("returns ErrNotFound for a missing event", func(t *testing.T) {
		t.Parallel()
		fx := newEventFixture()

		_, err := fx.svc.UpdateEvent(context.Background(), UpdateEventRequest{
			Principal: managerPrincipal,
			EventID:   "missing",
			Payload:   examPayload(roomTerm("2024-03-11", "10:00", "12:00", map[string]bool{"25": false})),
		})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})
}

func TestEventService_DeleteEvent(t *testing.T) {
	t.Parallel()

	fx := newEventFixture()
	ctx := context.Background()
	event, err := fx.svc.CreateEvent(ctx, CreateEventRequest{
		Principal: employeePrincipal,
		Payload:   examPayload(roomTerm("2024-03-11", "10:00", "12:00", map[string]bool{"25": false})),
	})
	if err != nil {
		t.Fatalf("seed create failed: %v", err)
	}

	if err := fx.svc.DeleteEvent(ctx, colleague, event.ID); !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized for non-author, got %v", err)
	}
	if err := fx.svc.DeleteEvent(ctx, employeePrincipal, event.ID); err != nil {
		t.Fatalf("expected author delete to succeed, got %v", err)
	}
	if len(fx.store.events) != 0 || len(fx.store.terms) != 0 {
		t.Fatalf("expected event and terms removed")
	}
	if err := fx.svc.DeleteEvent(ctx, managerPrincipal, event.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestEventService_GetEvent(t *testing.T) {
	t.Parallel()

	fx := newEventFixture()
	ctx := context.Background()
	payload := examPayload(roomTerm("2024-03-11", "10:00", "12:00", map[string]bool{"25": false}))
	payload.Status = "pending"
	event, err := fx.svc.CreateEvent(ctx, CreateEventRequest{Principal: employeePrincipal, Payload: payload})
	if err != nil {
		t.Fatalf("seed create failed: %v", err)
	}
	// Administrative exemption set outside the author's reach.
	for id, term := range fx.store.terms {
		term.IgnoreConflicts = true
		fx.store.terms[id] = term
	}

	t.Run("hides pending events of other users", func(t *testing.T) {
		if _, err := fx.svc.GetEvent(ctx, colleague, event.ID); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("shows the author the flagged rooms", func(t *testing.T) {
		detail, err := fx.svc.GetEvent(ctx, employeePrincipal, event.ID)
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if len(detail.Terms) != 1 || len(detail.Terms[0].IgnoredRooms) != 1 || detail.Terms[0].IgnoredRooms[0] != "25" {
			t.Fatalf("expected room 25 flagged, got %+v", detail.Terms)
		}
	})

	t.Run("shows managers everything", func(t *testing.T) {
		detail, err := fx.svc.GetEvent(ctx, managerPrincipal, event.ID)
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if detail.UserIsAuthor {
			t.Fatalf("expected manager not to be reported as author")
		}
	})
}

func TestEventService_CheckConflicts(t *testing.T) {
	t.Parallel()

	fx := newEventFixture()
	ctx := context.Background()
	event, err := fx.svc.CreateEvent(ctx, CreateEventRequest{
		Principal: employeePrincipal,
		Payload:   examPayload(roomTerm("2024-03-11", "10:00", "12:00", map[string]bool{"25": false})),
	})
	if err != nil {
		t.Fatalf("seed create failed: %v", err)
	}
	commits := fx.store.commits

	t.Run("reports conflicts without persisting", func(t *testing.T) {
		conflicts, err := fx.svc.CheckConflicts(ctx, CheckConflictsRequest{
			Principal: colleague,
			Terms:     []TermPayload{roomTerm("2024-03-11", "11:00", "11:30", map[string]bool{"25": false})},
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if len(conflicts) != 1 || conflicts[0].EventID != event.ID {
			t.Fatalf("expected the seeded term, got %+v", conflicts)
		}
		if fx.store.commits != commits || len(fx.store.terms) != 1 {
			t.Fatalf("expected dry run to leave the store untouched")
		}
	})

	t.Run("ignores the event's own terms when an event id is supplied", func(t *testing.T) {
		conflicts, err := fx.svc.CheckConflicts(ctx, CheckConflictsRequest{
			Principal: employeePrincipal,
			EventID:   event.ID,
			Terms:     []TermPayload{roomTerm("2024-03-11", "11:00", "13:00", map[string]bool{"25": false})},
		})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if conflicts == nil || len(conflicts) != 0 {
			t.Fatalf("expected an empty, non-nil result, got %#v", conflicts)
		}
	})

	t.Run("treats events the caller cannot view as missing", func(t *testing.T) {
		hidden := examPayload(roomTerm("2024-03-13", "10:00", "12:00", map[string]bool{"40": false}))
		hidden.Status = "pending"
		hidden.Visible = false
		pending, err := fx.svc.CreateEvent(ctx, CreateEventRequest{Principal: employeePrincipal, Payload: hidden})
		if err != nil {
			t.Fatalf("seed create failed: %v", err)
		}
		req := CheckConflictsRequest{
			Principal: colleague,
			EventID:   pending.ID,
			Terms:     []TermPayload{roomTerm("2024-03-13", "11:00", "13:00", map[string]bool{"40": false})},
		}

		if _, err := fx.svc.CheckConflicts(ctx, req); !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound for another user's hidden event, got %v", err)
		}

		req.Principal = employeePrincipal
		conflicts, err := fx.svc.CheckConflicts(ctx, req)
		if err != nil || len(conflicts) != 0 {
			t.Fatalf("expected the author's own terms to be ignored, got %+v, %v", conflicts, err)
		}
	})

	t.Run("returns ErrNotFound for an unknown event id", func(t *testing.T) {
		_, err := fx.svc.CheckConflicts(ctx, CheckConflictsRequest{
			Principal: employeePrincipal,
			EventID:   "missing",
			Terms:     []TermPayload{roomTerm("2024-03-11", "11:00", "13:00", map[string]bool{"25": false})},
		})
		if !errors.Is(err, ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("requires at least one term", func(t *testing.T) {
		_, err := fx.svc.CheckConflicts(ctx, CheckConflictsRequest{Principal: employeePrincipal})
		var vErr *ValidationError
		if !errors.As(err, &vErr) {
			t.Fatalf("expected ValidationError, got %v", err)
		}
		if _, ok := vErr.FieldErrors["terms"]; !ok {
			t.Fatalf("expected terms error, got %v", vErr.FieldErrors)
		}
	})
}

func TestDiffTerms(t *testing.T) {
	t.Parallel()

	day, _ := scheduler.ParseDay("2024-03-11")
	ten, noon := scheduler.MustTimeOfDay("10:00"), scheduler.MustTimeOfDay("12:00")
	stored := Term{Interval: scheduler.Interval{ID: "t1", Day: day, Start: ten, End: noon, RoomID: "room-25", IgnoreConflicts: true}}
	staleTerm := Term{Interval: scheduler.Interval{ID: "t2", Day: day, Start: ten, End: noon, RoomID: "room-103"}}
	resubmitted := Term{Interval: scheduler.Interval{Day: day, Start: ten, End: noon, RoomID: "room-25"}}
	added := Term{Interval: scheduler.Interval{Day: day, Start: ten, End: noon, Place: "Aula"}}

	kept, inserted, stale := diffTerms([]Term{stored, staleTerm}, []Term{resubmitted, added})
	if len(kept) != 1 || kept[0].ID != "t1" || !kept[0].IgnoreConflicts {
		t.Fatalf("expected stored term kept with its flag, got %+v", kept)
	}
	if len(inserted) != 1 || inserted[0].Place != "Aula" {
		t.Fatalf("expected place term inserted, got %+v", inserted)
	}
	if len(stale) != 1 || stale[0].ID != "t2" {
		t.Fatalf("expected room 103 term stale, got %+v", stale)
	}
}

func strPtr(value string) *string {
	return &value
}
