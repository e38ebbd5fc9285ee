package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/example/room-scheduler/internal/persistence"
	"github.com/example/room-scheduler/internal/scheduler"
)

// CredentialStore captures the user persistence needed for token handling.
type CredentialStore interface {
	GetUser(ctx context.Context, id string) (User, error)
	UpsertUser(ctx context.Context, user User) (User, error)
}

// AccessService resolves bearer tokens into principals and provisions accounts.
type AccessService struct {
	users  CredentialStore
	params Argon2idParams
	now    func() time.Time
	logger *slog.Logger
}

// NewAccessService constructs an access service with the provided dependencies.
func NewAccessService(users CredentialStore, params Argon2idParams, now func() time.Time) *AccessService {
	return NewAccessServiceWithLogger(users, params, now, nil)
}

// NewAccessServiceWithLogger constructs an access service with a specified logger.
func NewAccessServiceWithLogger(users CredentialStore, params Argon2idParams, now func() time.Time, logger *slog.Logger) *AccessService {
	if params.KeyLength == 0 {
		params = DefaultArgon2idParams
	}
	if now == nil {
		now = time.Now
	}
	return &AccessService{users: users, params: params, now: now, logger: defaultLogger(logger)}
}

// Authenticate verifies a "<user-id>.<secret>" token and returns the principal it names.
func (s *AccessService) Authenticate(ctx context.Context, token string) (Principal, error) {
	if s == nil || s.users == nil {
		return Principal{}, fmt.Errorf("access service not configured")
	}

	userID, secret, ok := SplitAccessToken(token)
	if !ok {
		return Principal{}, ErrUnauthenticated
	}

	user, err := s.users.GetUser(ctx, userID)
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) || errors.Is(err, ErrNotFound) {
			return Principal{}, ErrUnauthenticated
		}
		return Principal{}, err
	}
	if user.TokenHash == "" {
		return Principal{}, ErrUnauthenticated
	}
	if err := VerifyAccessSecret(user.TokenHash, secret); err != nil {
		if !errors.Is(err, ErrUnauthenticated) {
			serviceLogger(ctx, s.logger, "AccessService", "Authenticate", "user_id", user.ID).
				WarnContext(ctx, "stored token hash is unusable", "error", err)
		}
		return Principal{}, ErrUnauthenticated
	}

	return Principal{UserID: user.ID, Role: user.Role, CanManageEvents: user.CanManageEvents}, nil
}

// RegisterUser creates or updates an account and replaces its token hash.
func (s *AccessService) RegisterUser(ctx context.Context, params RegisterUserParams) (user User, err error) {
	if s == nil || s.users == nil {
		err = fmt.Errorf("access service not configured")
		return
	}

	logger := serviceLogger(ctx, s.logger, "AccessService", "RegisterUser", "user_id", params.User.ID)
	defer func() {
		if err != nil {
			logOutcome(ctx, logger, err, "failed to register user")
			return
		}
		logger.InfoContext(ctx, "user registered")
	}()

	if params.Principal != nil && !params.Principal.CanManageEvents {
		err = ErrUnauthorized
		return
	}

	user = params.User
	user.ID = strings.TrimSpace(user.ID)
	user.Username = strings.TrimSpace(user.Username)

	vErr := &ValidationError{}
	if user.ID == "" || strings.Contains(user.ID, ".") {
		vErr.add("id", "is required and must not contain dots")
	}
	if user.Username == "" {
		vErr.add("username", "is required")
	}
	if user.Role != scheduler.RoleStudent && user.Role != scheduler.RoleEmployee {
		vErr.add("role", "must be one of: student, employee")
	}
	if len(params.Secret) < minSecretLength {
		vErr.add("secret", fmt.Sprintf("must be at least %d characters", minSecretLength))
	}
	if vErr.HasErrors() {
		err = vErr
		return
	}

	user.TokenHash, err = HashAccessSecret(params.Secret, s.params)
	if err != nil {
		return
	}
	now := s.now()
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	user.UpdatedAt = now

	user, err = s.users.UpsertUser(ctx, user)
	if err != nil && errors.Is(err, persistence.ErrDuplicate) {
		err = ErrAlreadyExists
	}
	return
}

// GetProfile returns the public view of a registered user. The token hash is never exposed.
func (s *AccessService) GetProfile(ctx context.Context, principal Principal, userID string) (user User, err error) {
	if s == nil || s.users == nil {
		err = fmt.Errorf("access service not configured")
		return
	}

	logger := serviceLogger(ctx, s.logger, "AccessService", "GetProfile",
		"principal_id", principal.UserID,
		"user_id", userID,
	)
	defer func() {
		if err != nil {
			logOutcome(ctx, logger, err, "failed to load user profile")
		}
	}()

	if strings.TrimSpace(principal.UserID) == "" {
		err = ErrUnauthenticated
		return
	}

	user, err = s.users.GetUser(ctx, strings.TrimSpace(userID))
	if err != nil {
		if errors.Is(err, persistence.ErrNotFound) {
			err = ErrNotFound
		}
		return User{}, err
	}
	user.TokenHash = ""
	return user, nil
}
