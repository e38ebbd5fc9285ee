package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/example/room-scheduler/internal/persistence"
)

// EventStore implements persistence.EventStore using SQLite
type EventStore struct {
	pool   *ConnectionPool
	mapper *ErrorMapper
}

// NewEventStore creates a new SQLite event store
func NewEventStore(pool *ConnectionPool) *EventStore {
	return &EventStore{pool: pool, mapper: NewErrorMapper()}
}

// WithinTransaction runs fn inside one immediate transaction.
func (s *EventStore) WithinTransaction(ctx context.Context, fn func(ctx context.Context, tx persistence.EventTx) error) error {
	return s.pool.WithTransaction(ctx, func(tx *sql.Tx) error {
		return fn(ctx, &eventTx{q: tx, mapper: s.mapper})
	})
}

const termColumns = `t.id, t.event_id, t.day, t.start_minute, t.end_minute, t.room_id, COALESCE(c.number, ''), t.place, t.ignore_conflicts`

const eventColumns = `e.id, e.title, e.description, e.author_id, e.visible, e.status, e.type, e.created_at, e.edited_at`

// eventTx implements persistence.EventTx on a single transaction.
type eventTx struct {
	q      queryer
	mapper *ErrorMapper
}

func (t *eventTx) GetEvent(ctx context.Context, id string) (persistence.Event, error) {
	if id == "" {
		return persistence.Event{}, persistence.ErrNotFound
	}
	row := t.q.QueryRowContext(ctx, `SELECT `+eventColumns+` FROM events e WHERE e.id = ?`, id)
	event, err := scanEvent(row)
	if err != nil {
		return persistence.Event{}, t.mapper.MapError(err)
	}
	return event, nil
}

func (t *eventTx) CreateEvent(ctx context.Context, event persistence.Event) error {
	if event.ID == "" {
		return persistence.ErrConstraintViolation
	}
	_, err := t.q.ExecContext(ctx, `
		INSERT INTO events (id, title, description, author_id, visible, status, type, created_at, edited_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		event.ID,
		event.Title,
		event.Description,
		event.AuthorID,
		boolToInt(event.Visible),
		event.Status,
		event.Type,
		formatTime(event.CreatedAt),
		formatTime(event.EditedAt),
	)
	return t.mapper.MapError(err)
}

func (t *eventTx) UpdateEvent(ctx context.Context, event persistence.Event) error {
	result, err := t.q.ExecContext(ctx, `
		UPDATE events
		SET title = ?, description = ?, visible = ?, status = ?, type = ?, edited_at = ?
		WHERE id = ?
	`,
		event.Title,
		event.Description,
		boolToInt(event.Visible),
		event.Status,
		event.Type,
		formatTime(event.EditedAt),
		event.ID,
	)
	if err != nil {
		return t.mapper.MapError(err)
	}
	return requireAffected(result)
}

func (t *eventTx) DeleteEvent(ctx context.Context, id string) error {
	if _, err := t.q.ExecContext(ctx, `DELETE FROM terms WHERE event_id = ?`, id); err != nil {
		return t.mapper.MapError(err)
	}
	result, err := t.q.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return t.mapper.MapError(err)
	}
	return requireAffected(result)
}

func (t *eventTx) ListEventTerms(ctx context.Context, eventID string) ([]persistence.Term, error) {
	rows, err := t.q.QueryContext(ctx, `
		SELECT `+termColumns+`
		FROM terms t
		LEFT JOIN classrooms c ON c.id = t.room_id
		WHERE t.event_id = ?
		ORDER BY t.day, t.start_minute, t.end_minute, t.id
	`, eventID)
	if err != nil {
		return nil, t.mapper.MapError(err)
	}
	return collectTerms(rows, t.mapper)
}

func (t *eventTx) ListTermsInRooms(ctx context.Context, roomIDs []string, days []string) ([]persistence.Term, error) {
	if len(roomIDs) == 0 || len(days) == 0 {
		return nil, nil
	}

	args := make([]any, 0, len(roomIDs)+len(days))
	for _, id := range roomIDs {
		args = append(args, id)
	}
	for _, day := range days {
		args = append(args, day)
	}

	rows, err := t.q.QueryContext(ctx, `
		SELECT `+termColumns+`
		FROM terms t
		LEFT JOIN classrooms c ON c.id = t.room_id
		WHERE t.room_id IN (`+placeholders(len(roomIDs))+`)
		  AND t.day IN (`+placeholders(len(days))+`)
		ORDER BY t.day, t.start_minute, t.id
	`, args...)
	if err != nil {
		return nil, t.mapper.MapError(err)
	}
	return collectTerms(rows, t.mapper)
}

func (t *eventTx) InsertTerms(ctx context.Context, terms []persistence.Term) error {
	for _, term := range terms {
		if term.ID == "" {
			return persistence.ErrConstraintViolation
		}
		_, err := t.q.ExecContext(ctx, `
			INSERT INTO terms (id, event_id, day, start_minute, end_minute, room_id, place, ignore_conflicts)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		`,
			term.ID,
			term.EventID,
			term.Day,
			term.StartMinute,
			term.EndMinute,
			nullString(term.RoomID),
			nullString(term.Place),
			boolToInt(term.IgnoreConflicts),
		)
		if err != nil {
			return t.mapper.MapError(err)
		}
	}
	return nil
}

func (t *eventTx) DeleteTerms(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	_, err := t.q.ExecContext(ctx, `DELETE FROM terms WHERE id IN (`+placeholders(len(ids))+`)`, args...)
	return t.mapper.MapError(err)
}

// ListReservations returns terms inside the filter's day range with their events and authors.
func (s *EventStore) ListReservations(ctx context.Context, filter persistence.ReservationFilter) ([]persistence.Reservation, error) {
	var (
		clauses = []string{"t.day BETWEEN ? AND ?"}
		args    = []any{filter.FromDay, filter.ToDay}
	)
	if len(filter.RoomNumbers) > 0 {
		clauses = append(clauses, "c.number IN ("+placeholders(len(filter.RoomNumbers))+")")
		for _, number := range filter.RoomNumbers {
			args = append(args, number)
		}
	}
	if filter.Place != "" {
		clauses = append(clauses, "t.place LIKE ? ESCAPE '\\'")
		args = append(args, "%"+escapeLike(filter.Place)+"%")
	}
	if len(filter.Types) > 0 {
		clauses = append(clauses, "e.type IN ("+placeholders(len(filter.Types))+")")
		for _, value := range filter.Types {
			args = append(args, value)
		}
	}
	if len(filter.Statuses) > 0 {
		clauses = append(clauses, "e.status IN ("+placeholders(len(filter.Statuses))+")")
		for _, value := range filter.Statuses {
			args = append(args, value)
		}
	}
	if filter.Visible != nil {
		clauses = append(clauses, "e.visible = ?")
		args = append(args, boolToInt(*filter.Visible))
	}

	query := `
		SELECT ` + termColumns + `, ` + eventColumns + `,
		       u.id, u.username, u.first_name, u.last_name, u.role, u.can_manage_events
		FROM terms t
		JOIN events e ON e.id = t.event_id
		JOIN users u ON u.id = e.author_id
		LEFT JOIN classrooms c ON c.id = t.room_id
		WHERE ` + strings.Join(clauses, " AND ") + `
		ORDER BY t.day, t.start_minute, c.number, t.id
	`

	rows, err := s.pool.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, s.mapper.MapError(err)
	}
	defer rows.Close()

	var reservations []persistence.Reservation
	for rows.Next() {
		var (
			r                          persistence.Reservation
			roomID, place              sql.NullString
			ignore, visible, canManage int
			createdAt, editedAt        string
		)
		err := rows.Scan(
			&r.Term.ID, &r.Term.EventID, &r.Term.Day, &r.Term.StartMinute, &r.Term.EndMinute,
			&roomID, &r.Term.RoomNumber, &place, &ignore,
			&r.Event.ID, &r.Event.Title, &r.Event.Description, &r.Event.AuthorID, &visible,
			&r.Event.Status, &r.Event.Type, &createdAt, &editedAt,
			&r.Author.ID, &r.Author.Username, &r.Author.FirstName, &r.Author.LastName, &r.Author.Role, &canManage,
		)
		if err != nil {
			return nil, s.mapper.MapError(err)
		}
		r.Term.RoomID = stringPtr(roomID)
		r.Term.Place = stringPtr(place)
		r.Term.IgnoreConflicts = ignore != 0
		r.Event.Visible = visible != 0
		r.Author.CanManageEvents = canManage != 0
		if r.Event.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
			return nil, err
		}
		if r.Event.EditedAt, err = parseTime("edited_at", editedAt); err != nil {
			return nil, err
		}
		reservations = append(reservations, r)
	}
	if err := rows.Err(); err != nil {
		return nil, s.mapper.MapError(err)
	}
	return reservations, nil
}

func scanEvent(row rowScanner) (persistence.Event, error) {
	var (
		event               persistence.Event
		visible             int
		createdAt, editedAt string
	)
	err := row.Scan(
		&event.ID,
		&event.Title,
		&event.Description,
		&event.AuthorID,
		&visible,
		&event.Status,
		&event.Type,
		&createdAt,
		&editedAt,
	)
	if err != nil {
		return persistence.Event{}, err
	}
	event.Visible = visible != 0
	if event.CreatedAt, err = parseTime("created_at", createdAt); err != nil {
		return persistence.Event{}, err
	}
	if event.EditedAt, err = parseTime("edited_at", editedAt); err != nil {
		return persistence.Event{}, err
	}
	return event, nil
}

func scanTerm(row rowScanner) (persistence.Term, error) {
	var (
		term          persistence.Term
		roomID, place sql.NullString
		ignore        int
	)
	err := row.Scan(
		&term.ID,
		&term.EventID,
		&term.Day,
		&term.StartMinute,
		&term.EndMinute,
		&roomID,
		&term.RoomNumber,
		&place,
		&ignore,
	)
	if err != nil {
		return persistence.Term{}, err
	}
	term.RoomID = stringPtr(roomID)
	term.Place = stringPtr(place)
	term.IgnoreConflicts = ignore != 0
	return term, nil
}

func collectTerms(rows *sql.Rows, mapper *ErrorMapper) ([]persistence.Term, error) {
	defer rows.Close()

	var terms []persistence.Term
	for rows.Next() {
		term, err := scanTerm(rows)
		if err != nil {
			return nil, mapper.MapError(err)
		}
		terms = append(terms, term)
	}
	if err := rows.Err(); err != nil {
		return nil, mapper.MapError(err)
	}
	return terms, nil
}

func requireAffected(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if affected == 0 {
		return persistence.ErrNotFound
	}
	return nil
}

func nullString(value *string) sql.NullString {
	if value == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *value, Valid: true}
}

func stringPtr(value sql.NullString) *string {
	if !value.Valid {
		return nil
	}
	s := value.String
	return &s
}

func escapeLike(value string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(value)
}
