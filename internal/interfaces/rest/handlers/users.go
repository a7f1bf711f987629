package handlers

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/bookcourier/book-courier-api/internal/application"
	"github.com/bookcourier/book-courier-api/internal/application/services"
	"github.com/bookcourier/book-courier-api/internal/domain"
	"github.com/bookcourier/book-courier-api/internal/interfaces/rest"
	"github.com/go-playground/validator"
)

type UserService interface {
	Create(ctx context.Context, cmd services.CreateUserCommand) (*domain.User, bool, error)
	List(ctx context.Context) ([]*domain.User, error)
	Role(ctx context.Context, email string) (string, error)
	UpdateProfile(ctx context.Context, id string, name, role *string) (*application.UpdateOutcome, error)
}

type UserHandler struct {
	users    UserService
	validate *validator.Validate
	logger   *slog.Logger
}

func NewUserHandler(users UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		users:    users,
		validate: validator.New(),
		logger:   logger,
	}
}

func (h *UserHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /users", h.HandleCreate)
	mux.HandleFunc("GET /users", h.HandleList)
	mux.HandleFunc("GET /users/{email}/role", h.HandleRole)
	mux.HandleFunc("PATCH /users/{id}", h.HandleUpdate)
}

type userResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name,omitempty"`
	Role      string    `json:"role"`
	CreatedAt time.Time `json:"createdAt"`
}

func toUserResponse(u *domain.User) userResponse {
	return userResponse{
		ID:        u.ID,
		Email:     u.Email,
		Name:      u.Name,
		Role:      u.Role,
		CreatedAt: u.CreatedAt,
	}
}

type createUserRequest struct {
	Email string `json:"email" validate:"required,email"`
	Name  string `json:"name"`
}

func (h *UserHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rest.WriteError(w, application.NewValidationError("invalid request body"), h.logger)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		rest.WriteError(w, application.NewValidationError(err.Error()), h.logger)
		return
	}

	user, existed, err := h.users.Create(r.Context(), services.CreateUserCommand{
		Email: req.Email,
		Name:  req.Name,
	})
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}
	if existed {
		rest.WriteJSON(w, http.StatusOK, rest.MessageResponse{Message: "user is already existed"})
		return
	}

	rest.WriteJSON(w, http.StatusCreated, toUserResponse(user))
}

func (h *UserHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.List(r.Context())
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}

	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	rest.WriteJSON(w, http.StatusOK, out)
}

func (h *UserHandler) HandleRole(w http.ResponseWriter, r *http.Request) {
	role, err := h.users.Role(r.Context(), r.PathValue("email"))
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}
	rest.WriteJSON(w, http.StatusOK, map[string]string{"role": role})
}

type updateUserRequest struct {
	Name *string `json:"name"`
	Role *string `json:"role"`
}

func (h *UserHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		rest.WriteError(w, application.NewValidationError("invalid request body"), h.logger)
		return
	}

	outcome, err := h.users.UpdateProfile(r.Context(), r.PathValue("id"), req.Name, req.Role)
	if err != nil {
		rest.WriteError(w, err, h.logger)
		return
	}
	rest.WriteJSON(w, http.StatusOK, outcome)
}
