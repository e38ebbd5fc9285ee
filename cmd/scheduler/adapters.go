package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/example/room-scheduler/internal/application"
	"github.com/example/room-scheduler/internal/persistence"
	"github.com/example/room-scheduler/internal/scheduler"
)

type reservationStoreAdapter struct {
	store persistence.EventStore
}

func newReservationStoreAdapter(store persistence.EventStore) *reservationStoreAdapter {
	return &reservationStoreAdapter{store: store}
}

func (a *reservationStoreAdapter) WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx application.ReservationTx) error) error {
	return a.store.WithinTransaction(ctx, func(ctx context.Context, tx persistence.EventTx) error {
		return fn(ctx, &reservationTxAdapter{tx: tx})
	})
}

func (a *reservationStoreAdapter) ListReservations(ctx context.Context, query application.ReservationQuery) ([]application.ReservationRecord, error) {
	filter := persistence.ReservationFilter{
		FromDay:     query.FromDay.String(),
		ToDay:       query.ToDay.String(),
		RoomNumbers: append([]string(nil), query.RoomNumbers...),
		Place:       query.Place,
		Visible:     query.Visible,
	}
	for _, t := range query.Types {
		filter.Types = append(filter.Types, string(t))
	}
	for _, s := range query.Statuses {
		filter.Statuses = append(filter.Statuses, string(s))
	}

	rows, err := a.store.ListReservations(ctx, filter)
	if err != nil {
		return nil, err
	}

	records := make([]application.ReservationRecord, 0, len(rows))
	for _, row := range rows {
		term, err := toApplicationTerm(row.Term)
		if err != nil {
			return nil, err
		}
		records = append(records, application.ReservationRecord{
			Term:   term,
			Event:  toApplicationEvent(row.Event),
			Author: toApplicationUser(row.Author),
		})
	}
	return records, nil
}

type reservationTxAdapter struct {
	tx persistence.EventTx
}

func (a *reservationTxAdapter) GetEvent(ctx context.Context, id string) (application.Event, error) {
	stored, err := a.tx.GetEvent(ctx, id)
	if err != nil {
		return application.Event{}, err
	}
	return toApplicationEvent(stored), nil
}

func (a *reservationTxAdapter) CreateEvent(ctx context.Context, event application.Event) error {
	return a.tx.CreateEvent(ctx, toPersistenceEvent(event))
}

func (a *reservationTxAdapter) UpdateEvent(ctx context.Context, event application.Event) error {
	return a.tx.UpdateEvent(ctx, toPersistenceEvent(event))
}

func (a *reservationTxAdapter) DeleteEvent(ctx context.Context, id string) error {
	return a.tx.DeleteEvent(ctx, id)
}

func (a *reservationTxAdapter) ListEventTerms(ctx context.Context, eventID string) ([]application.Term, error) {
	stored, err := a.tx.ListEventTerms(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return toApplicationTerms(stored)
}

func (a *reservationTxAdapter) ListTermsInRooms(ctx context.Context, roomIDs []string, days []scheduler.Day) ([]application.Term, error) {
	keys := make([]string, 0, len(days))
	for _, day := range days {
		keys = append(keys, day.String())
	}
	stored, err := a.tx.ListTermsInRooms(ctx, roomIDs, keys)
	if err != nil {
		return nil, err
	}
	return toApplicationTerms(stored)
}

func (a *reservationTxAdapter) InsertTerms(ctx context.Context, terms []application.Term) error {
	models := make([]persistence.Term, 0, len(terms))
	for _, term := range terms {
		models = append(models, toPersistenceTerm(term))
	}
	return a.tx.InsertTerms(ctx, models)
}

func (a *reservationTxAdapter) DeleteTerms(ctx context.Context, ids []string) error {
	return a.tx.DeleteTerms(ctx, ids)
}

type classroomRepositoryAdapter struct {
	repo persistence.ClassroomRepository
}

func newClassroomRepositoryAdapter(repo persistence.ClassroomRepository) *classroomRepositoryAdapter {
	return &classroomRepositoryAdapter{repo: repo}
}

func (a *classroomRepositoryAdapter) CreateClassroom(ctx context.Context, classroom application.Classroom) (application.Classroom, error) {
	if err := a.repo.CreateClassroom(ctx, toPersistenceClassroom(classroom)); err != nil {
		return application.Classroom{}, err
	}
	return classroom, nil
}

func (a *classroomRepositoryAdapter) ListClassrooms(ctx context.Context, onlyReservable bool) ([]application.Classroom, error) {
	models, err := a.repo.ListClassrooms(ctx, onlyReservable)
	if err != nil {
		return nil, err
	}
	return toApplicationClassrooms(models), nil
}

func (a *classroomRepositoryAdapter) FindClassroomsByNumber(ctx context.Context, numbers []string) ([]application.Classroom, error) {
	models, err := a.repo.FindClassroomsByNumber(ctx, numbers)
	if err != nil {
		return nil, err
	}
	return toApplicationClassrooms(models), nil
}

type userStoreAdapter struct {
	repo persistence.UserRepository
}

func newUserStoreAdapter(repo persistence.UserRepository) *userStoreAdapter {
	return &userStoreAdapter{repo: repo}
}

func (a *userStoreAdapter) GetUser(ctx context.Context, id string) (application.User, error) {
	stored, err := a.repo.GetUser(ctx, id)
	if err != nil {
		return application.User{}, err
	}
	return toApplicationUser(stored), nil
}

func (a *userStoreAdapter) UpsertUser(ctx context.Context, user application.User) (application.User, error) {
	if err := a.repo.UpsertUser(ctx, toPersistenceUser(user)); err != nil {
		return application.User{}, err
	}
	return a.GetUser(ctx, user.ID)
}

func toApplicationUser(model persistence.User) application.User {
	return application.User{
		ID:              model.ID,
		Username:        model.Username,
		FirstName:       model.FirstName,
		LastName:        model.LastName,
		Role:            scheduler.Role(model.Role),
		CanManageEvents: model.CanManageEvents,
		TokenHash:       model.TokenHash,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}

func toPersistenceUser(user application.User) persistence.User {
	return persistence.User{
		ID:              user.ID,
		Username:        user.Username,
		FirstName:       user.FirstName,
		LastName:        user.LastName,
		Role:            string(user.Role),
		CanManageEvents: user.CanManageEvents,
		TokenHash:       user.TokenHash,
		CreatedAt:       user.CreatedAt,
		UpdatedAt:       user.UpdatedAt,
	}
}

func toApplicationClassrooms(models []persistence.Classroom) []application.Classroom {
	classrooms := make([]application.Classroom, 0, len(models))
	for _, model := range models {
		classrooms = append(classrooms, application.Classroom{
			ID:         model.ID,
			Number:     model.Number,
			Floor:      model.Floor,
			Capacity:   model.Capacity,
			CanReserve: model.CanReserve,
			CreatedAt:  model.CreatedAt,
			UpdatedAt:  model.UpdatedAt,
		})
	}
	return classrooms
}

func toPersistenceClassroom(classroom application.Classroom) persistence.Classroom {
	return persistence.Classroom{
		ID:         classroom.ID,
		Number:     classroom.Number,
		Floor:      classroom.Floor,
		Capacity:   classroom.Capacity,
		CanReserve: classroom.CanReserve,
		CreatedAt:  classroom.CreatedAt,
		UpdatedAt:  classroom.UpdatedAt,
	}
}

func toApplicationEvent(model persistence.Event) application.Event {
	return application.Event{
		ID:          model.ID,
		Title:       model.Title,
		Description: model.Description,
		AuthorID:    model.AuthorID,
		Visible:     model.Visible,
		Status:      scheduler.EventStatus(model.Status),
		Type:        scheduler.EventType(model.Type),
		CreatedAt:   model.CreatedAt,
		EditedAt:    model.EditedAt,
	}
}

func toPersistenceEvent(event application.Event) persistence.Event {
	return persistence.Event{
		ID:          event.ID,
		Title:       event.Title,
		Description: event.Description,
		AuthorID:    event.AuthorID,
		Visible:     event.Visible,
		Status:      string(event.Status),
		Type:        string(event.Type),
		CreatedAt:   event.CreatedAt,
		EditedAt:    event.EditedAt,
	}
}

func toApplicationTerms(models []persistence.Term) ([]application.Term, error) {
	terms := make([]application.Term, 0, len(models))
	for _, model := range models {
		term, err := toApplicationTerm(model)
		if err != nil {
			return nil, err
		}
		terms = append(terms, term)
	}
	return terms, nil
}

func toApplicationTerm(model persistence.Term) (application.Term, error) {
	day, err := scheduler.ParseDay(model.Day)
	if err != nil {
		return application.Term{}, fmt.Errorf("term %s: %w", model.ID, err)
	}
	return application.Term{
		Interval: scheduler.Interval{
			ID:              model.ID,
			EventID:         model.EventID,
			Day:             day,
			Start:           scheduler.TimeOfDay(model.StartMinute),
			End:             scheduler.TimeOfDay(model.EndMinute),
			RoomID:          derefString(model.RoomID),
			Place:           derefString(model.Place),
			IgnoreConflicts: model.IgnoreConflicts,
		},
		RoomNumber: model.RoomNumber,
	}, nil
}

func toPersistenceTerm(term application.Term) persistence.Term {
	return persistence.Term{
		ID:              term.ID,
		EventID:         term.EventID,
		Day:             term.Day.String(),
		StartMinute:     int(term.Start),
		EndMinute:       int(term.End),
		RoomID:          optionalString(term.RoomID),
		Place:           optionalString(term.Place),
		IgnoreConflicts: term.IgnoreConflicts,
	}
}

func derefString(value *string) string {
	if value == nil {
		return ""
	}
	return *value
}

func optionalString(value string) *string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	clone := value
	return &clone
}
