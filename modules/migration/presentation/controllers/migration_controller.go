package controllers

import (
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	coreservices "github.com/wildroots/wildroots/modules/core/services"
	"github.com/wildroots/wildroots/modules/migration/domain/entities/migrationlog"
	"github.com/wildroots/wildroots/modules/migration/presentation/dtos"
	"github.com/wildroots/wildroots/modules/migration/services"
	"github.com/wildroots/wildroots/pkg/application"
	"github.com/wildroots/wildroots/pkg/configuration"
	"github.com/wildroots/wildroots/pkg/httpapi"
)

type MigrationController struct {
	basePath             string
	maxUploadSize        int64
	migrationService     *services.MigrationService
	consolidationService *services.ConsolidationService
	userService          *coreservices.UserService
}

func NewMigrationController(app application.Application) application.Controller {
	return &MigrationController{
		basePath:             "/api/migration",
		maxUploadSize:        configuration.Use().Migration.MaxUploadSize,
		migrationService:     app.Service(services.MigrationService{}).(*services.MigrationService),
		consolidationService: app.Service(services.ConsolidationService{}).(*services.ConsolidationService),
		userService:          app.Service(coreservices.UserService{}).(*coreservices.UserService),
	}
}

func (c *MigrationController) Key() string {
	return c.basePath
}

func (c *MigrationController) Register(r *mux.Router) {
	router := r.PathPrefix(c.basePath).Subrouter()
	router.HandleFunc("/run", c.Run).Methods(http.MethodPost)
	router.HandleFunc("/logs", c.ListLogs).Methods(http.MethodGet)
	router.HandleFunc("/logs/{id}", c.GetLog).Methods(http.MethodGet)
	router.HandleFunc("/logs/{id}/credentials.csv", c.DownloadCredentials).Methods(http.MethodGet)
	router.HandleFunc("/migrated-users", c.ListMigratedUsers).Methods(http.MethodGet)
	router.HandleFunc("/consolidate-duplicates", c.ConsolidateDuplicates).Methods(http.MethodPost)
}

type runResultResponse struct {
	ProcessedRows  int `json:"processedRows"`
	ValidRows      int `json:"validRows"`
	SkippedRows    int `json:"skippedRows"`
	FailedRows     int `json:"failedRows"`
	UsersCreated   int `json:"usersCreated"`
	SchoolsCreated int `json:"schoolsCreated"`
}

func toRunResult(counters migrationlog.Counters) runResultResponse {
	return runResultResponse{
		ProcessedRows:  counters.TotalRows,
		ValidRows:      counters.ValidRows,
		SkippedRows:    counters.SkippedRows,
		FailedRows:     counters.FailedRows,
		UsersCreated:   counters.UsersCreated,
		SchoolsCreated: counters.SchoolsCreated,
	}
}

type runResponse struct {
	LogID  string            `json:"logId"`
	Status string            `json:"status"`
	DryRun bool              `json:"dryRun"`
	Result runResultResponse `json:"result"`
}

type logSummaryResponse struct {
	ID             string     `json:"id"`
	StartedAt      time.Time  `json:"startedAt"`
	FinishedAt     *time.Time `json:"finishedAt,omitempty"`
	Status         string     `json:"status"`
	DryRun         bool       `json:"dryRun"`
	UsersCreated   int        `json:"usersCreated"`
	SchoolsCreated int        `json:"schoolsCreated"`
}

type logDetailResponse struct {
	ID          string                         `json:"id"`
	StartedAt   time.Time                      `json:"startedAt"`
	FinishedAt  *time.Time                     `json:"finishedAt,omitempty"`
	Status      string                         `json:"status"`
	DryRun      bool                           `json:"dryRun"`
	TotalRows   int                            `json:"totalRows"`
	ValidRows   int                            `json:"validRows"`
	SkippedRows int                            `json:"skippedRows"`
	FailedRows  int                            `json:"failedRows"`
	ErrorLog    []migrationlog.RowError        `json:"errorLog"`
	ReportData  *migrationlog.CredentialReport `json:"reportData,omitempty"`
}

func toLogDetailResponse(log *migrationlog.MigrationLog) logDetailResponse {
	resp := logDetailResponse{
		ID:          log.ID.String(),
		StartedAt:   log.StartedAt,
		FinishedAt:  log.FinishedAt,
		Status:      string(log.Status),
		DryRun:      log.DryRun,
		TotalRows:   log.Counters.TotalRows,
		ValidRows:   log.Counters.ValidRows,
		SkippedRows: log.Counters.SkippedRows,
		FailedRows:  log.Counters.FailedRows,
		ErrorLog:    log.Errors,
		ReportData:  log.Report,
	}
	if resp.ErrorLog == nil {
		resp.ErrorLog = []migrationlog.RowError{}
	}
	return resp
}

// Run accepts the legacy export and executes it. The run response carries
// counts only; plaintext credentials live in the log's report, fetched via
// the log detail or the CSV download.
func (c *MigrationController) Run(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, c.maxUploadSize)
	var dto dtos.RunMigrationRequest
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_REQUEST_BODY", err.Error(), nil)
		return
	}
	if err := dto.Validate(); err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "VALIDATION_FAILED", err.Error(), nil)
		return
	}

	log, err := c.migrationService.Run(r.Context(), services.RunOptions{
		CSVContent: dto.CSVContent,
		DryRun:     dto.DryRun,
	})
	if err != nil {
		if errors.Is(err, services.ErrRunInProgress) {
			_ = httpapi.WriteError(w, http.StatusConflict, "MIGRATION_RUN_IN_PROGRESS", err.Error(), nil)
			return
		}
		meta := map[string]string{}
		if log != nil {
			meta["logId"] = log.ID.String()
		}
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "MIGRATION_RUN_FAILED", err.Error(), meta)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, runResponse{
		LogID:  log.ID.String(),
		Status: string(log.Status),
		DryRun: log.DryRun,
		Result: toRunResult(log.Counters),
	})
}

func (c *MigrationController) ListLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := c.migrationService.Logs(r.Context())
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "MIGRATION_LOGS_FAILED", err.Error(), nil)
		return
	}
	out := make([]logSummaryResponse, 0, len(logs))
	for _, log := range logs {
		out = append(out, logSummaryResponse{
			ID:             log.ID.String(),
			StartedAt:      log.StartedAt,
			FinishedAt:     log.FinishedAt,
			Status:         string(log.Status),
			DryRun:         log.DryRun,
			UsersCreated:   log.Counters.UsersCreated,
			SchoolsCreated: log.Counters.SchoolsCreated,
		})
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, out)
}

func (c *MigrationController) GetLog(w http.ResponseWriter, r *http.Request) {
	log, ok := c.fetchLog(w, r)
	if !ok {
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, toLogDetailResponse(log))
}

// DownloadCredentials streams the one-time password report of a completed
// live run. Dry runs and failed runs have nothing to hand out.
func (c *MigrationController) DownloadCredentials(w http.ResponseWriter, r *http.Request) {
	log, ok := c.fetchLog(w, r)
	if !ok {
		return
	}
	if log.DryRun || log.Status != migrationlog.StatusCompleted || log.Report == nil {
		_ = httpapi.WriteError(w, http.StatusNotFound, "NO_CREDENTIAL_REPORT",
			"no credential report available for this run", nil)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", "credentials-"+log.ID.String()+".csv"))
	writer := csv.NewWriter(w)
	_ = writer.Write([]string{"email", "temporaryPassword", "schoolName"})
	for _, entry := range log.Report.UserCredentials {
		_ = writer.Write([]string{entry.Email, entry.TemporaryPassword, entry.SchoolName})
	}
	writer.Flush()
}

type migratedUserResponse struct {
	ID                        uint       `json:"id"`
	Email                     string     `json:"email"`
	FirstName                 string     `json:"firstName"`
	LastName                  string     `json:"lastName"`
	MigratedAt                *time.Time `json:"migratedAt,omitempty"`
	LegacyUserID              string     `json:"legacyUserId,omitempty"`
	NeedsEvidenceResubmission bool       `json:"needsEvidenceResubmission"`
}

func (c *MigrationController) ListMigratedUsers(w http.ResponseWriter, r *http.Request) {
	users, total, err := c.userService.GetMigrated(r.Context())
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "MIGRATED_USERS_FAILED", err.Error(), nil)
		return
	}
	out := make([]migratedUserResponse, 0, len(users))
	for _, u := range users {
		out = append(out, migratedUserResponse{
			ID:                        u.ID(),
			Email:                     u.Email().Value(),
			FirstName:                 u.FirstName(),
			LastName:                  u.LastName(),
			MigratedAt:                u.MigratedAt(),
			LegacyUserID:              u.MigratedFrom(),
			NeedsEvidenceResubmission: u.NeedsEvidenceResubmission(),
		})
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, map[string]any{
		"total": total,
		"users": out,
	})
}

func (c *MigrationController) ConsolidateDuplicates(w http.ResponseWriter, r *http.Request) {
	report, err := c.consolidationService.ConsolidateDuplicates(r.Context())
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "CONSOLIDATION_FAILED", err.Error(), nil)
		return
	}
	_ = httpapi.WriteJSON(w, http.StatusOK, report)
}

func (c *MigrationController) fetchLog(w http.ResponseWriter, r *http.Request) (*migrationlog.MigrationLog, bool) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		_ = httpapi.WriteError(w, http.StatusBadRequest, "INVALID_LOG_ID", err.Error(), nil)
		return nil, false
	}
	log, err := c.migrationService.Log(r.Context(), id)
	if err != nil {
		if errors.Is(err, migrationlog.ErrLogNotFound) {
			_ = httpapi.WriteError(w, http.StatusNotFound, "LOG_NOT_FOUND", err.Error(), nil)
			return nil, false
		}
		_ = httpapi.WriteError(w, http.StatusInternalServerError, "LOG_GET_FAILED", err.Error(), nil)
		return nil, false
	}
	return log, true
}
