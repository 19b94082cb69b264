package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/arnavshah/staffing-engine-go/pkg/auth"
	"github.com/arnavshah/staffing-engine-go/pkg/config"
	"github.com/arnavshah/staffing-engine-go/pkg/database"
	"github.com/arnavshah/staffing-engine-go/pkg/schedule"
	"github.com/arnavshah/staffing-engine-go/pkg/staffing"
)

type testEnv struct {
	db     *gorm.DB
	router *gin.Engine
	key    string
}

func newTestEnv(t *testing.T) *testEnv {
	return newTestEnvWithSchema(t, true)
}

// newTestEnvWithSchema builds the API over a fresh sqlite database. With
// planningColumns off the tickets table lacks the planning columns while the
// service still starts with the planning status feature on.
func newTestEnvWithSchema(t *testing.T, planningColumns bool) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	auth.Configure(config.AuthConfig{JWTSecret: "jwt-test", APIMasterSecret: "master-test"})

	db, err := database.InitDB(config.DatabaseConfig{
		Path:                   filepath.Join(t.TempDir(), "api.db"),
		MigratePlanningColumns: planningColumns,
	})
	require.NoError(t, err)

	var t1, t2 any = &database.Ticket{ID: "t1", SiteID: "site1", PositionCode: "FLOOR", ScheduledDate: "2024-01-01", StartTime: "09:00:00", EndTime: "17:00:00", Status: "SCHEDULED"},
		&database.Ticket{ID: "t2", SiteID: "site1", PositionCode: "FLOOR", ScheduledDate: "2024-01-01", StartTime: "09:00:00", EndTime: "17:00:00", Status: "SCHEDULED"}
	if !planningColumns {
		t1 = &database.LegacyTicket{ID: "t1", SiteID: "site1", PositionCode: "FLOOR", ScheduledDate: "2024-01-01", StartTime: "09:00:00", EndTime: "17:00:00", Status: "SCHEDULED"}
		t2 = &database.LegacyTicket{ID: "t2", SiteID: "site1", PositionCode: "FLOOR", ScheduledDate: "2024-01-01", StartTime: "09:00:00", EndTime: "17:00:00", Status: "SCHEDULED"}
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	for _, v := range []any{
		&database.Client{ID: "c1", Name: "Acme"},
		&database.Site{ID: "site1", ClientID: "c1", Name: "HQ", Code: "HQ-01"},
		&database.Staff{ID: "s1", Name: "Alice", HourlyRate: 20},
		&database.Staff{ID: "s2", Name: "Bob", HourlyRate: 10},
		t1, t2,
		&database.Assignment{ID: "a1", TicketID: "t1", StaffID: "s1", PositionCode: "FLOOR", Status: "ASSIGNED"},
		&database.StaffPosition{StaffID: "s2", PositionCode: "FLOOR"},
	} {
		require.NoError(t, db.Create(v).Error)
	}

	svc := staffing.NewService(database.NewStore(db), true, schedule.BudgetOptions{
		OvertimeThreshold:  schedule.DefaultOvertimeThreshold,
		OvertimeMultiplier: schedule.DefaultOvertimeMultiplier,
	})
	r := gin.New()
	New(db, svc).Register(r)

	key, err := auth.GenerateHMACKey("acme")
	require.NoError(t, err)

	return &testEnv{db: db, router: r, key: key}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func TestAPIRequiresKey(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/coverage?start=2024-01-01&end=2024-01-01", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/api/coverage?start=2024-01-01&end=2024-01-01", "acme.deadbeef", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestCoverageEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/coverage?start=2024-01-01&end=2024-01-02", env.key, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	cells := body["cells"].([]any)
	require.Len(t, cells, 1)
	cell := cells[0].(map[string]any)
	assert.Equal(t, "HQ", cell["site"])
	assert.Equal(t, 1.0, cell["assigned"])
	assert.Equal(t, 2.0, cell["total"])
	assert.Equal(t, true, cell["gap"])
	assert.Equal(t, 1.0, body["gap_count"])
}

func TestCoverageRejectsBadRange(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/coverage?start=2024-01-05&end=2024-01-01", env.key, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/coverage?end=2024-01-01", env.key, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = env.do(t, http.MethodGet, "/api/coverage?start=2020-01-01&end=2024-01-01", env.key, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCoverageCellEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/coverage/cell?client=Acme&site=HQ&position=FLOOR&date=2024-01-01", env.key, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Len(t, body["assigned"], 1)
	assert.Len(t, body["unassigned"], 1)
}

func TestBudgetEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/budget?start=2024-01-01&end=2024-01-07", env.key, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	body := decode(t, w)
	assert.Equal(t, 8.0, body["total_hours"])
	assert.Equal(t, "160", body["total_cost"])
}

func TestStaffingReportEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodGet, "/api/reports/staffing.xlsx?start=2024-01-01&end=2024-01-07", env.key, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, xlsxContentType, w.Header().Get("Content-Type"))
	assert.Contains(t, w.Header().Get("Content-Disposition"), "staffing_2024-01-01_2024-01-07.xlsx")
	assert.NotZero(t, w.Body.Len())
}

func TestAutoFillAndUsage(t *testing.T) {
	env := newTestEnv(t)
	rng := gin.H{"start": "2024-01-01", "end": "2024-01-01"}

	w := env.do(t, http.MethodPost, "/api/autofill/preview", env.key, rng)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1.0, decode(t, w)["filled"])

	var count int64
	env.db.Model(&database.Assignment{}).Count(&count)
	assert.Equal(t, int64(1), count, "preview must not write")

	w = env.do(t, http.MethodPost, "/api/autofill", env.key, rng)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, 1.0, body["open_tickets"])
	assert.Equal(t, 1.0, body["filled"])

	env.db.Model(&database.Assignment{}).Count(&count)
	assert.Equal(t, int64(2), count)

	// second run finds nothing open
	w = env.do(t, http.MethodPost, "/api/autofill", env.key, rng)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0.0, decode(t, w)["open_tickets"])

	hash, err := bcrypt.GenerateFromPassword([]byte("secret"), bcrypt.MinCost)
	require.NoError(t, err)
	require.NoError(t, env.db.Create(&database.MasterUser{Username: "admin", PasswordHash: string(hash)}).Error)

	w = env.do(t, http.MethodPost, "/admin/login", "", gin.H{"username": "admin", "password": "secret"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	token := decode(t, w)["access_token"].(string)

	w = env.do(t, http.MethodGet, "/admin/autofill-usage", token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	totals := decode(t, w)["totals"].(map[string]any)
	assert.Equal(t, 2.0, totals["runs"])
	assert.Equal(t, 1.0, totals["filled_shifts"])

	w = env.do(t, http.MethodGet, "/admin/autofill-usage", env.key, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestLoginRejectsBadPassword(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/admin/login", "", gin.H{"username": "admin", "password": "nope"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestPlanningStatusEndpoint(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPut, "/api/tickets/t2/planning-status", env.key, gin.H{"planning_status": "published"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, true, body["persisted"])
	assert.Equal(t, "v2", body["mode"])

	w = env.do(t, http.MethodGet, "/api/tickets?start=2024-01-01&end=2024-01-01", env.key, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	tickets := decode(t, w)["tickets"].([]any)
	require.Len(t, tickets, 2)
	assert.Equal(t, "published", tickets[1].(map[string]any)["planning_status"])

	w = env.do(t, http.MethodPut, "/api/tickets/missing/planning-status", env.key, gin.H{"planning_status": "published"})
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPut, "/api/tickets/t2/planning-status", env.key, gin.H{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPlanningStatusDegradesOnLegacySchema(t *testing.T) {
	env := newTestEnvWithSchema(t, false)

	w := env.do(t, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "v2", decode(t, w)["schema_mode"])

	w = env.do(t, http.MethodGet, "/api/tickets?start=2024-01-01&end=2024-01-01", env.key, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body := decode(t, w)
	assert.Equal(t, "legacy", body["mode"])
	assert.Len(t, body["tickets"], 2)

	w = env.do(t, http.MethodPut, "/api/tickets/t2/planning-status", env.key, gin.H{"planning_status": "published"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	body = decode(t, w)
	assert.Equal(t, false, body["persisted"])
	assert.Equal(t, "legacy", body["mode"])
	assert.NotEmpty(t, body["advisory"])

	// the status is kept for the life of the process
	w = env.do(t, http.MethodGet, "/api/tickets?start=2024-01-01&end=2024-01-01", env.key, nil)
	require.Equal(t, http.StatusOK, w.Code)
	tickets := decode(t, w)["tickets"].([]any)
	assert.Equal(t, "published", tickets[1].(map[string]any)["planning_status"])

	var cols int64
	env.db.Raw("SELECT COUNT(*) FROM pragma_table_info('tickets') WHERE name = 'planning_status'").Scan(&cols)
	assert.Equal(t, int64(0), cols, "startup must not add planning columns")
}

func TestValidateRange(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/validate", env.key, gin.H{"start": "2024-01-01", "end": "2024-01-07"})
	require.Equal(t, http.StatusOK, w.Code)
	body := decode(t, w)
	assert.Equal(t, true, body["valid"])
	assert.Equal(t, 7.0, body["stats"].(map[string]any)["day_count"])

	w = env.do(t, http.MethodPost, "/api/validate", env.key, gin.H{"start": "2024-01-07", "end": "2024-01-01"})
	assert.Equal(t, false, decode(t, w)["valid"])
}
