package controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	coreservices "github.com/wildroots/wildroots/modules/core/services"

	corepersistence "github.com/wildroots/wildroots/modules/core/infrastructure/persistence"
	"github.com/wildroots/wildroots/modules/migration/infrastructure/persistence"
	"github.com/wildroots/wildroots/modules/migration/presentation/controllers"
	"github.com/wildroots/wildroots/modules/migration/services"
	"github.com/wildroots/wildroots/pkg/application"
	"github.com/wildroots/wildroots/pkg/eventbus"
)

type controllerFixture struct {
	router *mux.Router
	logs   *persistence.InmemMigrationLogRepository
}

func newControllerFixture(t *testing.T) *controllerFixture {
	t.Helper()

	passThrough := func(ctx context.Context, fn func(context.Context) error) error {
		return fn(ctx)
	}

	users := corepersistence.NewInmemUserRepository()
	schools := corepersistence.NewInmemSchoolRepository()
	memberships := corepersistence.NewInmemMembershipRepository()
	evidenceRepo := corepersistence.NewInmemEvidenceRepository()
	logs := persistence.NewInmemMigrationLogRepository()

	logger := logrus.New()
	bus := eventbus.NewEventPublisher(logger)

	app := application.New(&application.ApplicationOptions{
		EventBus: bus,
		Logger:   logger,
	})
	app.RegisterServices(
		services.NewMigrationService(services.MigrationServiceConfig{
			Logs:              logs,
			Users:             users,
			Schools:           schools,
			Memberships:       memberships,
			Credentials:       services.NewCredentialGenerator(12),
			Publisher:         bus,
			StaleRunThreshold: time.Hour,
			InTx:              passThrough,
		}),
		services.NewConsolidationService(services.ConsolidationServiceConfig{
			Schools:     schools,
			Memberships: memberships,
			Evidence:    evidenceRepo,
			Publisher:   bus,
			InTx:        passThrough,
		}),
		coreservices.NewUserService(coreservices.UserServiceConfig{
			Repo:      users,
			Publisher: bus,
			InTx:      passThrough,
		}),
	)

	router := mux.NewRouter()
	controllers.NewMigrationController(app).Register(router)
	return &controllerFixture{router: router, logs: logs}
}

func (f *controllerFixture) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	w := httptest.NewRecorder()
	f.router.ServeHTTP(w, req)
	return w
}

const sampleCSV = "legacy_user_id,email,first_name,last_name,school_name,country,stage_1\n" +
	"L-1,alice@old.com,Alice,Nkomo,Willow Creek Primary,ZA,done\n" +
	"L-2,carol@old.com,Carol,Mensah,Riverside School,GH,\n"

func TestMigrationController_RunDry(t *testing.T) {
	f := newControllerFixture(t)

	w := f.do(t, http.MethodPost, "/api/migration/run", map[string]any{
		"csvContent": sampleCSV,
		"dryRun":     true,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		LogID  string `json:"logId"`
		DryRun bool   `json:"dryRun"`
		Status string `json:"status"`
		Result struct {
			ProcessedRows int `json:"processedRows"`
			ValidRows     int `json:"validRows"`
			SkippedRows   int `json:"skippedRows"`
			UsersCreated  int `json:"usersCreated"`
		} `json:"result"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp.DryRun)
	assert.NotEmpty(t, resp.LogID)
	assert.Equal(t, "completed", resp.Status)
	assert.Equal(t, 2, resp.Result.ProcessedRows)
	assert.Equal(t, 1, resp.Result.ValidRows)
	assert.Equal(t, 1, resp.Result.SkippedRows)
	assert.Equal(t, 0, resp.Result.UsersCreated)
	assert.NotContains(t, w.Body.String(), "temporaryPassword",
		"plaintext credentials must never appear in run responses")
}

func TestMigrationController_RunRequiresContent(t *testing.T) {
	f := newControllerFixture(t)

	w := f.do(t, http.MethodPost, "/api/migration/run", map[string]any{"dryRun": true})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/api/migration/run", strings.NewReader("{not json"))
	rec := httptest.NewRecorder()
	f.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMigrationController_RunConflict(t *testing.T) {
	f := newControllerFixture(t)
	_, err := f.logs.Create(context.Background(), false)
	require.NoError(t, err)

	w := f.do(t, http.MethodPost, "/api/migration/run", map[string]any{
		"csvContent": sampleCSV,
	})
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestMigrationController_LogsRoundTrip(t *testing.T) {
	f := newControllerFixture(t)

	run := f.do(t, http.MethodPost, "/api/migration/run", map[string]any{
		"csvContent": sampleCSV,
	})
	require.Equal(t, http.StatusOK, run.Code)
	var created struct {
		LogID string `json:"logId"`
	}
	require.NoError(t, json.Unmarshal(run.Body.Bytes(), &created))

	list := f.do(t, http.MethodGet, "/api/migration/logs", nil)
	require.Equal(t, http.StatusOK, list.Code)
	var logs []map[string]any
	require.NoError(t, json.Unmarshal(list.Body.Bytes(), &logs))
	require.Len(t, logs, 1)
	assert.Equal(t, created.LogID, logs[0]["id"])

	get := f.do(t, http.MethodGet, "/api/migration/logs/"+created.LogID, nil)
	assert.Equal(t, http.StatusOK, get.Code)
	var detail struct {
		TotalRows  int                      `json:"totalRows"`
		ErrorLog   []map[string]any         `json:"errorLog"`
		ReportData *struct {
			UserCredentials []map[string]any `json:"userCredentials"`
		} `json:"reportData"`
	}
	require.NoError(t, json.Unmarshal(get.Body.Bytes(), &detail))
	assert.Equal(t, 2, detail.TotalRows)
	require.NotNil(t, detail.ReportData)
	require.Len(t, detail.ReportData.UserCredentials, 1)

	missing := f.do(t, http.MethodGet, "/api/migration/logs/00000000-0000-0000-0000-000000000000", nil)
	assert.Equal(t, http.StatusNotFound, missing.Code)

	bad := f.do(t, http.MethodGet, "/api/migration/logs/not-a-uuid", nil)
	assert.Equal(t, http.StatusBadRequest, bad.Code)
}

func TestMigrationController_CredentialsDownload(t *testing.T) {
	f := newControllerFixture(t)

	run := f.do(t, http.MethodPost, "/api/migration/run", map[string]any{
		"csvContent": sampleCSV,
	})
	require.Equal(t, http.StatusOK, run.Code)
	var created struct {
		LogID string `json:"logId"`
	}
	require.NoError(t, json.Unmarshal(run.Body.Bytes(), &created))

	csvResp := f.do(t, http.MethodGet, "/api/migration/logs/"+created.LogID+"/credentials.csv", nil)
	require.Equal(t, http.StatusOK, csvResp.Code)
	assert.Equal(t, "text/csv", csvResp.Header().Get("Content-Type"))
	lines := strings.Split(strings.TrimSpace(csvResp.Body.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "email,temporaryPassword,schoolName", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "alice@old.com,"))
}

func TestMigrationController_NoCredentialsForDryRun(t *testing.T) {
	f := newControllerFixture(t)

	run := f.do(t, http.MethodPost, "/api/migration/run", map[string]any{
		"csvContent": sampleCSV,
		"dryRun":     true,
	})
	require.Equal(t, http.StatusOK, run.Code)
	var created struct {
		LogID string `json:"logId"`
	}
	require.NoError(t, json.Unmarshal(run.Body.Bytes(), &created))

	csvResp := f.do(t, http.MethodGet, "/api/migration/logs/"+created.LogID+"/credentials.csv", nil)
	assert.Equal(t, http.StatusNotFound, csvResp.Code)
}

func TestMigrationController_MigratedUsers(t *testing.T) {
	f := newControllerFixture(t)

	run := f.do(t, http.MethodPost, "/api/migration/run", map[string]any{
		"csvContent": sampleCSV,
	})
	require.Equal(t, http.StatusOK, run.Code)

	w := f.do(t, http.MethodGet, "/api/migration/migrated-users", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Total int `json:"total"`
		Users []struct {
			Email        string `json:"email"`
			LegacyUserID string `json:"legacyUserId"`
		} `json:"users"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Equal(t, 1, resp.Total)
	assert.Equal(t, "alice@old.com", resp.Users[0].Email)
	assert.Equal(t, "L-1", resp.Users[0].LegacyUserID)
}

func TestMigrationController_Consolidate(t *testing.T) {
	f := newControllerFixture(t)

	w := f.do(t, http.MethodPost, "/api/migration/consolidate-duplicates", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var report struct {
		GroupsFound    int `json:"groupsFound"`
		SchoolsDeleted int `json:"schoolsDeleted"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, 0, report.GroupsFound)
}
