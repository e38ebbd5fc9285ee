package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/example/room-scheduler/internal/persistence"
)

// ClassroomRepository captures the persistence operations needed by the service.
type ClassroomRepository interface {
	ClassroomFinder
	CreateClassroom(ctx context.Context, classroom Classroom) (Classroom, error)
	ListClassrooms(ctx context.Context, onlyReservable bool) ([]Classroom, error)
}

// RoomService manages the catalog of reservable classrooms.
type RoomService struct {
	classrooms  ClassroomRepository
	idGenerator func() string
	now         func() time.Time
	logger      *slog.Logger
}

// NewRoomService constructs a room service with the provided dependencies.
func NewRoomService(classrooms ClassroomRepository, idGenerator func() string, now func() time.Time) *RoomService {
	return NewRoomServiceWithLogger(classrooms, idGenerator, now, nil)
}

// NewRoomServiceWithLogger constructs a room service with a specified logger.
func NewRoomServiceWithLogger(classrooms ClassroomRepository, idGenerator func() string, now func() time.Time, logger *slog.Logger) *RoomService {
	if idGenerator == nil {
		idGenerator = func() string { return "" }
	}
	if now == nil {
		now = time.Now
	}
	return &RoomService{classrooms: classrooms, idGenerator: idGenerator, now: now, logger: defaultLogger(logger)}
}

func (s *RoomService) loggerWith(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	return serviceLogger(ctx, s.logger, "RoomService", operation, attrs...)
}

// CreateClassroom validates input and registers a classroom for event managers.
func (s *RoomService) CreateClassroom(ctx context.Context, params CreateClassroomParams) (classroom Classroom, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}

	logger := s.loggerWith(ctx, "CreateClassroom",
		"principal_id", params.Principal.UserID,
	)
	defer func() {
		if err != nil {
			logOutcome(ctx, logger, err, "failed to create classroom")
			return
		}
		logger.With("classroom_id", classroom.ID, "number", classroom.Number).InfoContext(ctx, "classroom created")
	}()

	if !params.Principal.CanManageEvents {
		err = ErrUnauthorized
		return
	}

	vErr := validateStruct(params.Input)
	if strings.TrimSpace(params.Input.Number) == "" {
		vErr.add("number", "is required")
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	classroom = Classroom{
		ID:         s.idGenerator(),
		Number:     strings.TrimSpace(params.Input.Number),
		Floor:      params.Input.Floor,
		Capacity:   params.Input.Capacity,
		CanReserve: params.Input.CanReserve,
		CreatedAt:  s.now(),
	}
	classroom.UpdatedAt = classroom.CreatedAt

	if s.classrooms == nil {
		return
	}

	var persisted Classroom
	persisted, err = s.classrooms.CreateClassroom(ctx, classroom)
	if err != nil {
		err = mapClassroomRepoError(err)
		return
	}

	classroom = persisted
	return
}

// ListClassrooms returns the classroom catalog ordered by number. Only event
// managers may ask for rooms that cannot be reserved.
func (s *RoomService) ListClassrooms(ctx context.Context, principal Principal, includeUnreservable bool) (classrooms []Classroom, err error) {
	if s == nil {
		err = fmt.Errorf("RoomService is nil")
		return
	}
	if s.classrooms == nil {
		return []Classroom{}, nil
	}

	logger := s.loggerWith(ctx, "ListClassrooms",
		"principal_id", principal.UserID,
	)
	defer func() {
		if err != nil {
			logOutcome(ctx, logger, err, "failed to list classrooms")
			return
		}
		logger.With("result_count", len(classrooms)).DebugContext(ctx, "classrooms listed")
	}()

	onlyReservable := !(includeUnreservable && principal.CanManageEvents)

	var raw []Classroom
	raw, err = s.classrooms.ListClassrooms(ctx, onlyReservable)
	if err != nil {
		err = mapClassroomRepoError(err)
		return
	}

	classrooms = make([]Classroom, len(raw))
	copy(classrooms, raw)

	sort.Slice(classrooms, func(i, j int) bool {
		return lessRoomNumber(classrooms[i].Number, classrooms[j].Number)
	})
	return
}

// lessRoomNumber orders numeric room numbers numerically and everything else lexically.
func lessRoomNumber(a, b string) bool {
	if len(a) != len(b) && isDigits(a) && isDigits(b) {
		return len(a) < len(b)
	}
	return strings.ToLower(a) < strings.ToLower(b)
}

func isDigits(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func mapClassroomRepoError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, persistence.ErrNotFound) {
		return ErrNotFound
	}
	if errors.Is(err, persistence.ErrDuplicate) {
		return ErrAlreadyExists
	}
	if errors.Is(err, persistence.ErrConstraintViolation) {
		vErr := &ValidationError{}
		vErr.add("capacity", "must not be negative")
		return vErr
	}
	return err
}
