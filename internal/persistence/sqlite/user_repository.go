package sqlite

import (
	"context"

	"github.com/example/room-scheduler/internal/persistence"
)

// UserRepository implements persistence.UserRepository using SQLite
type UserRepository struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
}

// NewUserRepository creates a new SQLite user repository
func NewUserRepository(pool *ConnectionPool) *UserRepository {
	return &UserRepository{pool: pool, mapper: NewErrorMapper()}
}

// UpsertUser inserts a user or replaces the mutable fields of an existing one.
// The original created_at is kept on update.
func (r *UserRepository) UpsertUser(ctx context.Context, user persistence.User) error {
	if user.ID == "" {
		return persistence.ErrConstraintViolation
	}

	_, err := r.pool.db.ExecContext(ctx, `
		INSERT INTO users (id, username, first_name, last_name, role, can_manage_events, token_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			username = excluded.username,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			role = excluded.role,
			can_manage_events = excluded.can_manage_events,
			token_hash = excluded.token_hash,
			updated_at = excluded.updated_at
	`,
		user.ID,
		user.Username,
		user.FirstName,
		user.LastName,
		user.Role,
		boolToInt(user.CanManageEvents),
		user.TokenHash,
		formatTime(user.CreatedAt),
		formatTime(user.UpdatedAt),
	)
	return r.mapper.MapError(err)
}

// GetUser retrieves a user by ID.
func (r *UserRepository) GetUser(ctx context.Context, id string) (persistence.User, error) {
	if id == "" {
		return persistence.User{}, persistence.ErrNotFound
	}

	var (
		user                 persistence.User
		canManage            int
		createdAt, updatedAt string
	)
	err := r.pool.db.QueryRowContext(ctx, `
		SELECT id, username, first_name, last_name, role, can_manage_events, token_hash, created_at, updated_at
		FROM users
		WHERE id = ?
	`, id).Scan(
		&user.ID,
		&user.Username,
		&user.FirstName,
		&user.LastName,
		&user.Role,
		&canManage,
		&user.TokenHash,
		&createdAt,
		&updatedAt,
	)
	if err != nil {
		return persistence.User{}, r.mapper.MapError(err)
	}

	user.CanManageEvents = canManage != 0
	if user.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.User{}, err
	}
	if user.UpdatedAt, err = parseTime("updated_at", updatedAt); err != nil {
		return persistence.User{}, err
	}
	return user, nil
}
