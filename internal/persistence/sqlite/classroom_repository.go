package sqlite

import (
	"context"
	"database/sql"

	"github.com/example/room-scheduler/internal/persistence"
)

// ClassroomRepository implements persistence.ClassroomRepository using SQLite
type ClassroomRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
}

// NewClassroomRepository creates a new SQLite classroom repository
func NewClassroomRepository(pool *ConnectionPool) *ClassroomRepository {
	return &ClassroomRepository{pool: pool, mapper: NewErrorMapper()}
}

const classroomColumns = `id, number, floor, capacity, can_reserve, created_at, updated_at`

// CreateClassroom inserts a new classroom.
func (r *ClassroomRepository) CreateClassroom(ctx context.Context, classroom persistence.Classroom) error {
	if classroom.ID == "" || classroom.Capacity < 0 {
		return persistence.ErrConstraintViolation
	}

	_, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO classrooms (`+classroomColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		classroom.ID,
		classroom.Number,
		classroom.Floor,
		classroom.Capacity,
		boolToInt(classroom.CanReserve),
		formatTime(classroom.CreatedAt),
		formatTime(classroom.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// ListClassrooms returns classrooms ordered by number.
func (r *ClassroomRepository) ListClassrooms(ctx context.Context, onlyReservable bool) ([]persistence.Classroom, error) {
	query := `SELECT ` + classroomColumns + ` FROM classrooms`
	if onlyReservable {
		query += ` WHERE can_reserve = 1`
	}
	query += ` ORDER BY number ASC, id ASC`

	rows, err := r.pool.db.QueryContext(ctx, query)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	return r.collect(rows)
}

// FindClassroomsByNumber returns the classrooms whose number is listed. Unknown numbers are skipped.
func (r *ClassroomRepository) FindClassroomsByNumber(ctx context.Context, numbers []string) ([]persistence.Classroom, error) {
	if len(numbers) == 0 {
		return nil, nil
	}
	args := make([]any, len(numbers))
	for i, number := range numbers {
		args[i] = number
	}

	rows, err := r.pool.db.QueryContext(ctx, `
		SELECT `+classroomColumns+`
		FROM classrooms
		WHERE number IN (`+placeholders(len(numbers))+`)
		ORDER BY number ASC
	`, args...)
	if err != nil {
		return nil, r.mapper.MapError(err)
	}
	return r.collect(rows)
}

func (r *ClassroomRepository) collect(rows *sql.Rows) ([]persistence.Classroom, error) {
	defer rows.Close()

	var classrooms []persistence.Classroom
	for rows.Next() {
		var (
			classroom            persistence.Classroom
			canReserve           int
			createdAt, updatedAt string
		)
		err := rows.Scan(
			&classroom.ID,
			&classroom.Number,
			&classroom.Floor,
			&classroom.Capacity,
			&canReserve,
			&createdAt,
			&updatedAt,
		)
		if err != nil {
			return nil, r.mapper.MapError(err)
		}
		classroom.CanReserve = canReserve != 0
		if classroom.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
			return nil, err
		}
		if classroom.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
			return nil, err
		}
		classrooms = append(classrooms, classroom)
	}
	if err := rows.Err(); err != nil {
		return nil, r.mapper.MapError(err)
	}
	return classrooms, nil
}
