package controllers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/wildroots/wildroots/modules/core/domain/entities/school"
	"github.com/wildroots/wildroots/modules/core/presentation/dtos"
	"github.com/wildroots/wildroots/modules/core/services"
	"github.com/wildroots/wildroots/pkg/application"
	"github.com/wildroots/wildroots/pkg/httpapi"
)

type SchoolsController struct {
	basePath      string
	schoolService *services.SchoolService
}

func NewSchoolsController(app application.Application) application.Controller {
	return &SchoolsController{
		basePath:      "/api/schools",
		schoolService: app.Service(services.SchoolService{}).(*services.SchoolService),
	}
}

func (c *SchoolsController) Key() string {
	return c.basePath
}

func (c *SchoolsController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("", c.List).Methods(http.MethodGet)
	router.HandleFunc("", c.Create).Methods(http.MethodPost)
	router.HandleFunc("/{id}", c.GetByID).Methods(http.MethodGet)
}

type schoolResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Country   string    `json:"country"`
	Stage     int       `json:"stage"`
	CreatedAt time.Time `json:"createdAt"`
}

func toSchoolResponse(s *school.School) schoolResponse {
	return schoolResponse{
		ID:        s.ID.String(),
		Name:      s.Name,
		Country:   s.Country,
		Stage:     int(s.Stage),
		CreatedAt: s.CreatedAt,
	}
}

func (c *SchoolsController) List(w http.ResponseWriter, r *http.Request) {
	schools, err := c.schoolService.GetAll(r.Context())
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "SCHOOLS_LIST_FAILED", err.Error(), nil)
		return
	}
	out := make([]schoolResponse, 0, len(schools))
	for _, s := range schools {
		out = append(out, toSchoolResponse(s))
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, out)
}

func (c *SchoolsController) Create(w http.ResponseWriter, r *http.Request) {
	var dto dtos.CreateSchoolRequest
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST_BODY", err.Error(), nil)
		return
	}
	if err := dto.Validate(); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error(), nil)
		return
	}

	created, err := c.schoolService.Create(r.Context(), &school.School{
		Name:    dto.Name,
		Country: dto.Country,
		Stage:   school.Stage(dto.Stage),
	})
	if err != nil {
		if errors.Is(err, school.ErrSchoolExists) {
			_ = httpapi.WriteError(w, http.StatusConflict, "SCHOOL_EXISTS", err.Error(), nil)
			return
		}
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "SCHOOL_CREATE_FAILED", err.Error(), nil)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusCreated, toSchoolResponse(created))
}

func (c *SchoolsController) GetByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_SCHOOL_ID", err.Error(), nil)
		return
	}
	s, err := c.schoolService.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, school.ErrSchoolNotFound) {
			_ = httpapi.WriteError(w, http.StatusNotFound, "SCHOOL_NOT_FOUND", err.Error(), nil)
			return
		}
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "SCHOOL_GET_FAILED", err.Error(), nil)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, toSchoolResponse(s))
}
