package http

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/example/room-scheduler/internal/application"
	"github.com/example/room-scheduler/internal/scheduler"
)

type userService interface {
	RegisterUser(ctx context.Context, params application.RegisterUserParams) (application.User, error)
	GetProfile(ctx context.Context, principal application.Principal, userID string) (application.User, error)
}

type UserHandler struct {
	service   userService
	responder responder
	logger    *slog.Logger
}

func NewUserHandler(service userService, logger *slog.Logger) *UserHandler {
	base := defaultLogger(logger)
	return &UserHandler{service: service, responder: newResponder(base), logger: base}
}

func (h *UserHandler) log(ctx context.Context, operation string, attrs ...any) *slog.Logger {
	if h == nil {
		return slog.Default()
	}
	return handlerLogger(ctx, h.logger, "UserHandler", operation, attrs...)
}

// Create registers an account. When no secret is supplied one is generated and
// the resulting access token is returned once in the response.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	logger := h.log(r.Context(), "Create", "principal_id", principal.UserID)

	var req userRequest
	if err := decodeJSON(w, r, &req); err != nil {
		logger.With("error_kind", "bad_request").WarnContext(r.Context(), "failed to decode user request", "error", err)
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	secret := req.Secret
	if secret == "" {
		generated, err := application.GenerateAccessSecret()
		if err != nil {
			h.responder.handleServiceError(r.Context(), w, err)
			return
		}
		secret = generated
	}

	user, err := h.service.RegisterUser(r.Context(), application.RegisterUserParams{
		Principal: &principal,
		User:      req.toUser(),
		Secret:    secret,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	logger.With("user_id", user.ID).InfoContext(r.Context(), "user registered")
	h.responder.writeJSON(r.Context(), w, http.StatusCreated, registeredUserResponse{
		User:        toUserDTO(user),
		AccessToken: application.FormatAccessToken(user.ID, secret),
	})
}

// Get returns a public profile; the id "me" names the caller.
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	if h == nil || h.service == nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	principal, _ := PrincipalFromContext(r.Context())
	userID, ok := ResourceIDFromContext(r.Context())
	if !ok || strings.TrimSpace(userID) == "" {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidUserID)
		return
	}
	if userID == "me" {
		userID = principal.UserID
	}

	user, err := h.service.GetProfile(r.Context(), principal, userID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusOK, toUserDTO(user))
}

type userRequest struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Role            string `json:"role"`
	CanManageEvents bool   `json:"can_manage_events"`
	Secret          string `json:"secret,omitempty"`
}

func (r userRequest) toUser() application.User {
	return application.User{
		ID:              strings.TrimSpace(r.ID),
		Username:        strings.TrimSpace(r.Username),
		FirstName:       strings.TrimSpace(r.FirstName),
		LastName:        strings.TrimSpace(r.LastName),
		Role:            scheduler.Role(strings.TrimSpace(r.Role)),
		CanManageEvents: r.CanManageEvents,
	}
}

type registeredUserResponse struct {
	User        userDTO `json:"user"`
	AccessToken string  `json:"access_token"`
}

type userDTO struct {
	ID              string `json:"id"`
	Username        string `json:"username"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	FullName        string `json:"full_name"`
	Role            string `json:"role"`
	CanManageEvents bool   `json:"can_manage_events"`
	CreatedAt       string `json:"created_at"`
}

func toUserDTO(user application.User) userDTO {
	return userDTO{
		ID:              user.ID,
		Username:        user.Username,
		FirstName:       user.FirstName,
		LastName:        user.LastName,
		FullName:        user.FullName(),
		Role:            string(user.Role),
		CanManageEvents: user.CanManageEvents,
		CreatedAt:       user.CreatedAt.UTC().Format(time.RFC3339Nano),
	}
}
