package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/wildroots/wildroots/modules/core/domain/aggregates/user"
	"github.com/wildroots/wildroots/modules/core/domain/value_objects/internet"
	"github.com/wildroots/wildroots/modules/core/presentation/dtos"
	"github.com/wildroots/wildroots/modules/core/services"
	"github.com/wildroots/wildroots/pkg/application"
	"github.com/wildroots/wildroots/pkg/httpapi"
)

type UsersController struct {
	basePath    string
	userService *services.UserService
}

func NewUsersController(app application.Application) application.Controller {
	return &UsersController{
		basePath:    "/api/users",
		userService: app.Service(services.UserService{}).(*services.UserService),
	}
}

func (c *UsersController) Key() string {
	return c.basePath
}

func (c *UsersController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("", c.List).Methods(http.MethodGet)
	router.HandleFunc("", c.Create).Methods(http.MethodPost)
	router.HandleFunc("/{id:[0-9]+}", c.GetByID).Methods(http.MethodGet)
}

type userResponse struct {
	ID                        uint       `json:"id"`
	Email                     string     `json:"email"`
	FirstName                 string     `json:"firstName"`
	LastName                  string     `json:"lastName"`
	MigratedAt                *time.Time `json:"migratedAt,omitempty"`
	LegacyUserID              string     `json:"legacyUserId,omitempty"`
	NeedsEvidenceResubmission bool       `json:"needsEvidenceResubmission"`
}

func toUserResponse(u user.User) userResponse {
	return userResponse{
		ID:                        u.ID(),
		Email:                     u.Email().Value(),
		FirstName:                 u.FirstName(),
		LastName:                  u.LastName(),
		MigratedAt:                u.MigratedAt(),
		LegacyUserID:              u.MigratedFrom(),
		NeedsEvidenceResubmission: u.NeedsEvidenceResubmission(),
	}
}

func (c *UsersController) List(w http.ResponseWriter, r *http.Request) {
	users, total, err := c.userService.GetPaginatedWithTotal(r.Context(), &user.FindParams{})
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "USERS_LIST_FAILED", err.Error(), nil)
		return
	}
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"total": total,
		"users": out,
	})
}

func (c *UsersController) Create(w http.ResponseWriter, r *http.Request) {
	var dto dtos.CreateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST_BODY", err.Error(), nil)
		return
	}
	if err := dto.Validate(); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error(), nil)
		return
	}

	email, err := internet.NewEmail(dto.Email)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_EMAIL", err.Error(), nil)
		return
	}
	entity, err := user.New(dto.FirstName, dto.LastName, email).SetPassword(dto.Password)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "USER_CREATE_FAILED", err.Error(), nil)
		return
	}

	created, err := c.userService.Create(r.Context(), entity)
	if err != nil {
		if errors.Is(err, user.ErrEmailTaken) {
			_ = httpapi.WriteError(w, http.StatusConflict, "EMAIL_TAKEN", err.Error(), nil)
			return
		}
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "USER_CREATE_FAILED", err.Error(), nil)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, toUserResponse(created))
}

func (c *UsersController) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseUint(mux.Vars(r)["id"], 10, 64)
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_USER_ID", err.Error(), nil)
		return
	}
	u, err := c.userService.GetByID(r.Context(), uint(id))
	if err != nil {
		if errors.Is(err, user.ErrUserNotFound) {
			_ = httpapi.WriteError(w, http.StatusNotFound, "USER_NOT_FOUND", err.Error(), nil)
			return
		}
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "USER_GET_FAILED", err.Error(), nil)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, toUserResponse(u))
}
