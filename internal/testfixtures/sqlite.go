package testfixtures

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/example/room-scheduler/internal/persistence"
	"github.com/example/room-scheduler/internal/persistence/sqlite"
)

// SQLiteHarness provides repository access backed by a temporary, migrated
// SQLite database for integration-style tests.
type SQLiteHarness struct {
	Pool       *sqlite.ConnectionPool
	Events     *sqlite.EventStore
	Classrooms *sqlite.ClassroomRepository
	Users      *sqlite.UserRepository

	tb      testing.TB
	cleanup func()
}

// Close releases resources associated with the harness.
func (h *SQLiteHarness) Close() {
	if h != nil && h.cleanup != nil {
		h.cleanup()
		h.cleanup = nil
	}
}

// NewSQLiteHarness opens a database file in a temporary directory and applies
// all migrations. Close is registered with tb automatically.
func NewSQLiteHarness(tb testing.TB) *SQLiteHarness {
	tb.Helper()

	path := filepath.Join(tb.TempDir(), "scheduler.db")
	ctx := context.Background()

	pool, err := sqlite.Open(ctx, sqlite.DefaultConfig(path))
	if err != nil {
		tb.Fatalf("failed to open storage: %v", err)
	}
	if _, err := pool.Migrate(ctx, nil); err != nil {
		_ = pool.Close()
		tb.Fatalf("failed to migrate storage: %v", err)
	}

	harness := &SQLiteHarness{
		Pool:       pool,
		Events:     sqlite.NewEventStore(pool),
		Classrooms: sqlite.NewClassroomRepository(pool),
		Users:      sqlite.NewUserRepository(pool),
		tb:         tb,
		cleanup: func() {
			_ = pool.Close()
		},
	}

	tb.Cleanup(harness.Close)
	return harness
}

// SeedUsers stores the given accounts.
func (h *SQLiteHarness) SeedUsers(users ...UserFixture) {
	h.tb.Helper()
	for _, u := range users {
		if err := h.Users.UpsertUser(context.Background(), u.Persistence()); err != nil {
			h.tb.Fatalf("failed to seed user %s: %v", u.ID, err)
		}
	}
}

// SeedClassrooms stores the given catalog entries.
func (h *SQLiteHarness) SeedClassrooms(classrooms ...ClassroomFixture) {
	h.tb.Helper()
	for _, c := range classrooms {
		if err := h.Classrooms.CreateClassroom(context.Background(), c.Persistence()); err != nil {
			h.tb.Fatalf("failed to seed classroom %s: %v", c.Number, err)
		}
	}
}

// SeedEvents stores each event with its terms in its own transaction.
func (h *SQLiteHarness) SeedEvents(events ...EventFixture) {
	h.tb.Helper()
	for _, e := range events {
		event, terms := e.Persistence()
		err := h.Events.WithinTransaction(context.Background(), func(ctx context.Context, tx persistence.EventTx) error {
			if err := tx.CreateEvent(ctx, event); err != nil {
				return err
			}
			return tx.InsertTerms(ctx, terms)
		})
		if err != nil {
			h.tb.Fatalf("failed to seed event %s: %v", e.ID, err)
		}
	}
}
