package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/room-scheduler/internal/persistence"
	"github.com/example/room-scheduler/internal/recurrence"
	"github.com/example/room-scheduler/internal/scheduler"
)

// ReservationTx is the transactional view of the reservation store. Every
// method observes the writes made earlier in the same transaction.
type ReservationTx interface {
	GetEvent(ctx context.Context, id string) (Event, error)
	CreateEvent(ctx context.Context, event Event) error
	UpdateEvent(ctx context.Context, event Event) error
	DeleteEvent(ctx context.Context, id string) error
	ListEventTerms(ctx context.Context, eventID string) ([]Term, error)
	// ListTermsInRooms returns the persisted room terms held in any of roomIDs on any of days.
	ListTermsInRooms(ctx context.Context, roomIDs []string, days []scheduler.Day) ([]Term, error)
	InsertTerms(ctx context.Context, terms []Term) error
	DeleteTerms(ctx context.Context, ids []string) error
}

// ReservationStore runs fn in one transaction, committing when fn returns nil
// and rolling back otherwise. The error returned by fn is passed through.
type ReservationStore interface {
	WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx ReservationTx) error) error
}

// UserDirectory resolves event authors.
type UserDirectory interface {
	GetUser(ctx context.Context, id string) (User, error)
}

// EventServiceDeps bundles the collaborators of EventService.
type EventServiceDeps struct {
	Store        ReservationStore
	Classrooms   ClassroomFinder
	Users        UserDirectory
	Policy       scheduler.Policy
	Recurrence   *recurrence.Engine
	IDGenerator  func() string
	Now          func() time.Time
	StoreTimeout time.Duration
	// RecurrenceLimit caps the terms a special reservation may expand into.
	RecurrenceLimit int
	Logger          *slog.Logger
}

// EventService coordinates validation, authorization and conflict detection
// for the event lifecycle.
type EventService struct {
	store           ReservationStore
	resolver        termResolver
	users           UserDirectory
	policy          scheduler.Policy
	recurrence      *recurrence.Engine
	idGenerator     func() string
	now             func() time.Time
	timeout         time.Duration
	recurrenceLimit int
	logger          *slog.Logger
}

var errDryRun = errors.New("application: dry run")

// NewEventService constructs an event service with the provided dependencies.
func NewEventService(deps EventServiceDeps) *EventService {
	idGenerator := deps.IDGenerator
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	now := deps.Now
	if now == nil {
		now = time.Now
	}
	policy := deps.Policy
	if len(policy.StudentTypes) == 0 && len(policy.EmployeeTypes) == 0 {
		policy = scheduler.DefaultPolicy()
	}
	engine := deps.Recurrence
	if engine == nil {
		engine = recurrence.NewEngine()
	}
	limit := deps.RecurrenceLimit
	if limit <= 0 {
		limit = defaultRecurrenceLimit
	}
	return &EventService{
		store:           deps.Store,
		resolver:        termResolver{classrooms: deps.Classrooms},
		users:           deps.Users,
		policy:          policy,
		recurrence:      engine,
		idGenerator:     idGenerator,
		now:             now,
		timeout:         deps.StoreTimeout,
		recurrenceLimit: limit,
		logger:          defaultLogger(deps.Logger),
	}
}

func (s *EventService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "EventService", operation, attrs...)
}

// CreateEvent validates, authorizes and stores a new event with its terms.
func (s *EventService) CreateEvent(ctx context.Context, req CreateEventRequest) (detail EventDetail, err error) {
	if s == nil {
		err = fmt.Errorf("EventService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateEvent",
		"principal_id", req.Principal.UserID,
	)
	defer func() {
		if err != nil {
			logOutcome(ctx, logger, err, "failed to create event")
			return
		}
		logger.With("event_id", detail.ID).InfoContext(ctx, "event created")
	}()

	var (
		event Event
		terms []Term
	)
	event, terms, err = s.parseEvent(ctx, req.Payload)
	if err != nil {
		return
	}
	if err = s.authorize(req.Principal, event, nil); err != nil {
		return
	}
	if err = authorizeIgnoredTerms(req.Principal, terms); err != nil {
		return
	}

	now := s.now()
	event.AuthorID = req.Principal.UserID
	event.CreatedAt = now
	event.EditedAt = now

	err = s.withinTransaction(ctx, func(ctx context.Context, tx ReservationTx) error {
		if err := rejectConflicts(ctx, tx, terms, nil); err != nil {
			return err
		}
		// Conflicts must never cite identifiers of rows that are not stored.
		event.ID = s.idGenerator()
		s.assignTermIDs(event.ID, terms)
		if err := tx.CreateEvent(ctx, event); err != nil {
			return err
		}
		return tx.InsertTerms(ctx, terms)
	})
	if err != nil {
		err = mapEventRepoError(err)
		return
	}

	detail = s.buildDetail(ctx, req.Principal, event, terms)
	return
}

// UpdateEvent replaces the fields and terms of an existing event. Terms whose
// day, times and location are unchanged keep their persisted identity.
func (s *EventService) UpdateEvent(ctx context.Context, req UpdateEventRequest) (detail EventDetail, err error) {
	if s == nil {
		err = fmt.Errorf("EventService is nil")
		return
	}

	logger := s.loggerWith(ctx, "UpdateEvent",
		"principal_id", req.Principal.UserID,
		"event_id", req.EventID,
	)
	defer func() {
		if err != nil {
			logOutcome(ctx, logger, err, "failed to update event")
			return
		}
		logger.InfoContext(ctx, "event updated")
	}()

	fields, submitted, err := s.parseEvent(ctx, req.Payload)
	if err != nil {
		return
	}

	var (
		event  Event
		stored []Term
	)
	err = s.withinTransaction(ctx, func(ctx context.Context, tx ReservationTx) error {
		existing, err := tx.GetEvent(ctx, req.EventID)
		if err != nil {
			return err
		}
		if err := s.authorize(req.Principal, fields, &existing); err != nil {
			return err
		}

		current, err := tx.ListEventTerms(ctx, existing.ID)
		if err != nil {
			return err
		}
		kept, inserted, stale := diffTerms(current, submitted)
		if err := authorizeIgnoredTerms(req.Principal, inserted); err != nil {
			return err
		}

		effective := make([]Term, 0, len(kept)+len(inserted))
		effective = append(effective, kept...)
		effective = append(effective, inserted...)

		ignore := scheduler.NewIgnoreSet(termIDs(current)...)
		if err := rejectConflicts(ctx, tx, effective, ignore); err != nil {
			return err
		}
		s.assignTermIDs(existing.ID, inserted)

		event = existing
		event.Title = fields.Title
		event.Description = fields.Description
		event.Visible = fields.Visible
		event.Status = fields.Status
		event.Type = fields.Type
		event.EditedAt = s.now()
		if err := tx.UpdateEvent(ctx, event); err != nil {
			return err
		}
		if len(stale) > 0 {
			if err := tx.DeleteTerms(ctx, termIDs(stale)); err != nil {
				return err
			}
		}
		if len(inserted) > 0 {
			if err := tx.InsertTerms(ctx, inserted); err != nil {
				return err
			}
		}
		stored = effective
		return nil
	})
	if err != nil {
		err = mapEventRepoError(err)
		return
	}

	detail = s.buildDetail(ctx, req.Principal, event, stored)
	return
}

// DeleteEvent removes an event and its terms for its author or an event manager.
func (s *EventService) DeleteEvent(ctx context.Context, principal Principal, eventID string) (err error) {
	if s == nil {
		return fmt.Errorf("EventService is nil")
	}

	logger := s.loggerWith(ctx, "DeleteEvent",
		"principal_id", principal.UserID,
		"event_id", eventID,
	)
	defer func() {
		if err != nil {
			logOutcome(ctx, logger, err, "failed to delete event")
			return
		}
		logger.InfoContext(ctx, "event deleted")
	}()

	err = s.withinTransaction(ctx, func(ctx context.Context, tx ReservationTx) error {
		existing, err := tx.GetEvent(ctx, eventID)
		if err != nil {
			return err
		}
		if err := s.policy.MayDelete(existing.AuthorID == principal.UserID, principal.CanManageEvents); err != nil {
			return fmt.Errorf("%w: %w", ErrUnauthorized, err)
		}
		return tx.DeleteEvent(ctx, existing.ID)
	})
	return mapEventRepoError(err)
}

// GetEvent returns the detail view of an event the principal may see.
func (s *EventService) GetEvent(ctx context.Context, principal Principal, eventID string) (detail EventDetail, err error) {
	if s == nil {
		err = fmt.Errorf("EventService is nil")
		return
	}

	var (
		event Event
		terms []Term
	)
	err = s.withinTransaction(ctx, func(ctx context.Context, tx ReservationTx) error {
		var err error
		event, err = tx.GetEvent(ctx, eventID)
		if err != nil {
			return err
		}
		if !canView(principal, event) {
			return ErrNotFound
		}
		terms, err = tx.ListEventTerms(ctx, event.ID)
		return err
	})
	if err != nil {
		err = mapEventRepoError(err)
		return
	}

	detail = s.buildDetail(ctx, principal, event, terms)
	return
}

// CheckConflicts reports the terms that would collide with the submitted
// ones. Nothing is persisted.
func (s *EventService) CheckConflicts(ctx context.Context, req CheckConflictsRequest) (conflicts []Term, err error) {
	if s == nil {
		err = fmt.Errorf("EventService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CheckConflicts",
		"principal_id", req.Principal.UserID,
		"event_id", req.EventID,
	)
	defer func() {
		if err != nil {
			logOutcome(ctx, logger, err, "failed to check conflicts")
			return
		}
		logger.With("conflict_count", len(conflicts)).InfoContext(ctx, "conflicts checked")
	}()

	if vErr := validateStruct(termsPayload{Terms: req.Terms}); vErr.HasErrors() {
		err = vErr
		return
	}
	var candidates []Term
	candidates, err = s.resolver.resolve(ctx, req.Terms)
	if err != nil {
		return
	}

	err = s.withinTransaction(ctx, func(ctx context.Context, tx ReservationTx) error {
		var ignore scheduler.IgnoreSet
		if req.EventID != "" {
			event, err := tx.GetEvent(ctx, req.EventID)
			if err != nil {
				return err
			}
			if !canView(req.Principal, event) {
				return ErrNotFound
			}
			current, err := tx.ListEventTerms(ctx, req.EventID)
			if err != nil {
				return err
			}
			ignore = scheduler.NewIgnoreSet(termIDs(current)...)
		}

		found, err := detectConflicts(ctx, tx, candidates, ignore)
		if err != nil {
			return err
		}
		conflicts = found
		return errDryRun
	})
	if errors.Is(err, errDryRun) {
		err = nil
	}
	if err != nil {
		conflicts = nil
		err = mapEventRepoError(err)
		return
	}
	if conflicts == nil {
		conflicts = []Term{}
	}
	return
}

func (s *EventService) parseEvent(ctx context.Context, payload EventPayload) (Event, []Term, error) {
	vErr := validateStruct(payload)
	if strings.TrimSpace(payload.Title) == "" {
		vErr.add("title", "is required")
	}
	if vErr.HasErrors() {
		return Event{}, nil, vErr
	}

	terms, err := s.resolver.resolve(ctx, payload.Terms)
	if err != nil {
		return Event{}, nil, err
	}

	event := Event{
		Title:       strings.TrimSpace(payload.Title),
		Description: strings.TrimSpace(payload.Description),
		Visible:     payload.Visible,
		Status:      scheduler.EventStatus(payload.Status),
		Type:        scheduler.EventType(payload.Type),
	}
	return event, terms, nil
}

func (s *EventService) authorize(principal Principal, event Event, existing *Event) error {
	req := scheduler.AuthorizationRequest{
		Role:      principal.Role,
		Type:      event.Type,
		Status:    event.Status,
		CanManage: principal.CanManageEvents,
	}
	if existing != nil {
		req.EventExists = true
		req.IsAuthor = existing.AuthorID == principal.UserID
	}
	if err := s.policy.Authorize(req); err != nil {
		return fmt.Errorf("%w: %w", ErrUnauthorized, err)
	}
	return nil
}

func (s *EventService) withinTransaction(ctx context.Context, fn func(ctx context.Context, tx ReservationTx) error) error {
	if s.store == nil {
		return fmt.Errorf("reservation store not configured")
	}
	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}
	return s.store.WithinTransaction(ctx, fn)
}

func (s *EventService) assignTermIDs(eventID string, terms []Term) {
	for i := range terms {
		terms[i].ID = s.idGenerator()
		terms[i].EventID = eventID
	}
}

func (s *EventService) buildDetail(ctx context.Context, principal Principal, event Event, terms []Term) EventDetail {
	detail := EventDetail{
		Event:        event,
		Terms:        groupTerms(terms),
		AuthorURL:    "/users/" + event.AuthorID,
		UserIsAuthor: event.AuthorID == principal.UserID,
	}
	if s.users == nil || event.AuthorID == "" {
		return detail
	}
	author, err := s.users.GetUser(ctx, event.AuthorID)
	if err != nil {
		s.loggerWith(ctx, "buildDetail", "event_id", event.ID).
			WarnContext(ctx, "failed to resolve event author", "error", err)
		return detail
	}
	detail.AuthorName = author.FullName()
	return detail
}

// rejectConflicts returns a *ConflictError when candidates collide.
func rejectConflicts(ctx context.Context, tx ReservationTx, candidates []Term, ignore scheduler.IgnoreSet) error {
	conflicts, err := detectConflicts(ctx, tx, candidates, ignore)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		return &ConflictError{Conflicts: conflicts}
	}
	return nil
}

// detectConflicts loads the persisted terms sharing a room and day with the
// candidates and runs the detector over them.
func detectConflicts(ctx context.Context, tx ReservationTx, candidates []Term, ignore scheduler.IgnoreSet) ([]Term, error) {
	intervals := intervalsOf(candidates)
	roomIDs, days := scheduler.Footprint(intervals)
	if len(roomIDs) == 0 {
		return nil, nil
	}

	existing, err := tx.ListTermsInRooms(ctx, roomIDs, days)
	if err != nil {
		return nil, err
	}

	numbers := make(map[string]string)
	for _, term := range append(append([]Term(nil), candidates...), existing...) {
		if term.RoomNumber != "" {
			numbers[term.RoomID] = term.RoomNumber
		}
	}

	found := scheduler.FindConflicts(intervals, intervalsOf(existing), ignore)
	if len(found) == 0 {
		return nil, nil
	}
	conflicts := make([]Term, 0, len(found))
	for _, interval := range found {
		conflicts = append(conflicts, Term{Interval: interval, RoomNumber: numbers[interval.RoomID]})
	}
	return conflicts, nil
}

// diffTerms matches submitted terms against the persisted ones by day, times
// and location. Matched persisted terms are kept as stored.
func diffTerms(current, submitted []Term) (kept, inserted, stale []Term) {
	matched := make([]bool, len(current))
	for _, candidate := range submitted {
		found := -1
		for i, existing := range current {
			if !matched[i] && existing.SameSlot(candidate.Interval) {
				found = i
				break
			}
		}
		if found >= 0 {
			matched[found] = true
			kept = append(kept, current[found])
			continue
		}
		inserted = append(inserted, candidate)
	}
	for i, existing := range current {
		if !matched[i] {
			stale = append(stale, existing)
		}
	}
	return kept, inserted, stale
}

func groupTerms(terms []Term) []TermEntry {
	numbers := make(map[string]string, len(terms))
	for _, term := range terms {
		numbers[term.RoomID] = term.RoomNumber
	}

	groups := scheduler.Group(intervalsOf(terms))
	entries := make([]TermEntry, 0, len(groups))
	for _, group := range groups {
		entry := TermEntry{Day: group.Day, Start: group.Start, End: group.End, Place: group.Place}
		for _, slot := range group.Rooms {
			number := numbers[slot.RoomID]
			if number == "" {
				number = slot.RoomID
			}
			entry.Rooms = append(entry.Rooms, number)
			if slot.IgnoreConflicts {
				entry.IgnoredRooms = append(entry.IgnoredRooms, number)
			}
		}
		entries = append(entries, entry)
	}
	return entries
}

// canView reports whether principal may see event: managers see everything,
// others their own events plus visible accepted ones.
// authorizeIgnoredTerms allows only event managers to exempt new terms from
// conflict detection.
func authorizeIgnoredTerms(principal Principal, terms []Term) error {
	if principal.CanManageEvents {
		return nil
	}
	for _, term := range terms {
		if term.IgnoreConflicts {
			return fmt.Errorf("%w: only event managers may set ignore_conflicts", ErrUnauthorized)
		}
	}
	return nil
}

func canView(principal Principal, event Event) bool {
	if principal.CanManageEvents || event.AuthorID == principal.UserID {
		return true
	}
	return event.Visible && event.Status == scheduler.EventStatusAccepted
}

func intervalsOf(terms []Term) []scheduler.Interval {
	intervals := make([]scheduler.Interval, len(terms))
	for i, term := range terms {
		intervals[i] = term.Interval
	}
	return intervals
}

func termIDs(terms []Term) []string {
	ids := make([]string, 0, len(terms))
	for _, term := range terms {
		if term.ID != "" {
			ids = append(ids, term.ID)
		}
	}
	return ids
}

func mapEventRepoError(err error) error {
	if err == nil {
		return nil
	}
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		return ErrNotFound
	case errors.Is(err, persistence.ErrDuplicate):
		return ErrAlreadyExists
	case errors.Is(err, persistence.ErrConstraintViolation):
		vErr := &ValidationError{}
		vErr.add("terms", "violates reservation constraints")
		return vErr
	}
	return err
}
