package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/example/room-scheduler/internal/application"
	"github.com/example/room-scheduler/internal/config"
	httptransport "github.com/example/room-scheduler/internal/http"
	"github.com/example/room-scheduler/internal/logging"
	"github.com/example/room-scheduler/internal/persistence/sqlite"
	"github.com/example/room-scheduler/internal/scheduler"
)

func main() {
	bootLogger := logging.New(os.Stdout, slog.LevelInfo)
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		bootLogger.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}
	logger := logging.New(os.Stdout, cfg.LogLevel)

	app, err := buildApp(ctx, cfg, logger, dependencies{
		IDGenerator: uuid.NewString,
		Now:         time.Now,
		TokenParams: application.DefaultArgon2idParams,
	})
	if err != nil {
		logger.Error("failed to initialise scheduler", "error", err)
		os.Exit(1)
	}
	defer func() {
		if cerr := app.Close(); cerr != nil {
			logger.Error("failed to close storage", "error", cerr)
		}
	}()

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           app.Handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("failed to shutdown server", "error", err)
		}
	}()

	logger.Info("scheduler API listening", "addr", server.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server encountered error", "error", err)
		os.Exit(1)
	}
}

// dependencies holds the sources of identifiers, time and hashing cost.
type dependencies struct {
	IDGenerator func() string
	Now         func() time.Time
	TokenParams application.Argon2idParams
}

type app struct {
	Handler http.Handler
	pool    *sqlite.ConnectionPool
}

func (a *app) Close() error {
	if a == nil || a.pool == nil {
		return nil
	}
	return a.pool.Close()
}

// buildApp opens and migrates storage, wires the services and returns the
// authenticated HTTP handler.
func buildApp(ctx context.Context, cfg config.Config, logger *slog.Logger, deps dependencies) (*app, error) {
	pool, err := sqlite.Open(ctx, sqlite.DefaultConfig(cfg.SQLiteDSN))
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	if _, err := pool.Migrate(ctx, logger); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("apply migrations: %w", err)
	}

	store := newReservationStoreAdapter(sqlite.NewEventStore(pool))
	classrooms := newClassroomRepositoryAdapter(sqlite.NewClassroomRepository(pool))
	users := newUserStoreAdapter(sqlite.NewUserRepository(pool))

	eventService := application.NewEventService(application.EventServiceDeps{
		Store:           store,
		Classrooms:      classrooms,
		Users:           users,
		Policy:          cfg.Policy,
		IDGenerator:     deps.IDGenerator,
		Now:             deps.Now,
		StoreTimeout:    cfg.StoreTimeout,
		RecurrenceLimit: cfg.RecurrenceLimit,
		Logger:          logger,
	})
	reservationService := application.NewReservationServiceWithLogger(store, cfg.Location, logger)
	roomService := application.NewRoomServiceWithLogger(classrooms, deps.IDGenerator, deps.Now, logger)
	accessService := application.NewAccessServiceWithLogger(users, deps.TokenParams, deps.Now, logger)

	if cfg.BootstrapAdminID != "" {
		_, err := accessService.RegisterUser(ctx, application.RegisterUserParams{
			User: application.User{
				ID:              cfg.BootstrapAdminID,
				Username:        cfg.BootstrapAdminID,
				Role:            scheduler.RoleEmployee,
				CanManageEvents: true,
			},
			Secret: cfg.BootstrapAdminSecret,
		})
		if err != nil {
			_ = pool.Close()
			return nil, fmt.Errorf("register bootstrap administrator: %w", err)
		}
	}

	handler := httptransport.NewRouter(httptransport.RouterConfig{
		Events:       httptransport.NewEventHandler(eventService, logger),
		Reservations: httptransport.NewReservationHandler(reservationService, cfg.BaseURL, logger),
		Rooms:        httptransport.NewRoomHandler(roomService, logger),
		Users:        httptransport.NewUserHandler(accessService, logger),
		Middleware: []func(http.Handler) http.Handler{
			httptransport.RequestLogger(logger),
			httptransport.RequireAccessToken(accessService, logger),
		},
	})

	return &app{Handler: handler, pool: pool}, nil
}
