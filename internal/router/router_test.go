package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"itineramio/internal/config"
	"itineramio/internal/infra"
	"itineramio/internal/middleware"
	"itineramio/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

const testSecret = "test-secret-key"

// memQueue records pushes; nothing consumes them in these tests.
type memQueue struct {
	mu    sync.Mutex
	lists map[string]int64
}

func (q *memQueue) LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.lists[key] += int64(len(values))
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(q.lists[key])
	return cmd
}

func (q *memQueue) BRPop(ctx context.Context, _ time.Duration, _ ...string) *redis.StringSliceCmd {
	cmd := redis.NewStringSliceCmd(ctx)
	cmd.SetErr(redis.Nil)
	return cmd
}

func (q *memQueue) RPop(ctx context.Context, _ string) *redis.StringCmd {
	cmd := redis.NewStringCmd(ctx)
	cmd.SetErr(redis.Nil)
	return cmd
}

func (q *memQueue) RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	return q.LPush(ctx, key, values...)
}

func (q *memQueue) LLen(ctx context.Context, key string) *redis.IntCmd {
	q.mu.Lock()
	defer q.mu.Unlock()
	cmd := redis.NewIntCmd(ctx)
	cmd.SetVal(q.lists[key])
	return cmd
}

type testEnv struct {
	engine *gin.Engine
	queue  *memQueue
	admin  string
	viewer string
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, infra.RunMigrations(db))
	return db
}

func token(t *testing.T, role string) string {
	t.Helper()
	claims := middleware.JWTClaims{
		Email: role + "@itineramio.test",
		Role:  role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   role,
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		Env:             "test",
		JWTSecret:       testSecret,
		WebhookToken:    "hook-secret",
		ImportMaxRows:   5000,
		ImportMaxErrors: 500,
		InvoiceDueDays:  30,
		DefaultCurrency: "EUR",
		PublicBaseURL:   "https://billing.example.test",
	}
	db := newTestDB(t)
	q := &memQueue{lists: map[string]int64{}}
	health := func(c *gin.Context) { c.JSON(http.StatusOK, gin.H{"ok": true}) }
	return &testEnv{
		engine: build(cfg, NewServices(cfg, db), worker.NewDispatcher(q), health),
		queue:  q,
		admin:  token(t, middleware.RoleAdmin),
		viewer: token(t, middleware.RoleViewer),
	}
}

func (env *testEnv) do(t *testing.T, method, path string, body any, bearer string) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	w := httptest.NewRecorder()
	env.engine.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dest any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), dest), w.Body.String())
}

func splitConfig() map[string]any {
	return map[string]any{
		"commission_type":                 "PERCENTAGE",
		"commission_value":                15,
		"commission_vat":                  21,
		"cleaning_type":                   "FIXED",
		"cleaning_value":                  40,
		"cleaning_fee_recipient":          "SPLIT",
		"cleaning_fee_split_pct":          50,
		"cleaning_included_in_room_total": true,
		"default_vat_rate":                21,
		"default_retention_rate":          19,
		"airbnb_names":                    []string{"Apartamento Mar"},
	}
}

// seedProperty creates an owner, a property and its billing config over HTTP.
func (env *testEnv) seedProperty(t *testing.T) string {
	t.Helper()
	w := env.do(t, http.MethodPost, "/v1/owners", map[string]any{"name": "Marta Gil", "type": "INDIVIDUAL"}, env.admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var owner struct{ ID string }
	decode(t, w, &owner)

	w = env.do(t, http.MethodPost, "/v1/properties", map[string]any{"name": "Sea View 2B", "owner_id": owner.ID}, env.admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var prop struct{ ID string }
	decode(t, w, &prop)

	w = env.do(t, http.MethodPut, "/v1/properties/"+prop.ID+"/billing-config", splitConfig(), env.admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return prop.ID
}

func importBody(rows [][]string) map[string]any {
	return map[string]any{
		"rows": rows,
		"mapping": map[string]any{
			"confirmationCode": 0, "guestName": 1, "checkIn": 2, "checkOut": 3, "amount": 4, "cleaningFee": 5,
		},
		"config": map[string]any{
			"dateFormat": "DD/MM/YYYY", "numberFormat": "EU", "amountType": "GROSS", "platform": "AIRBNB",
		},
	}
}

func TestAuth_RequiresTokenAndRole(t *testing.T) {
	env := setupTestEnv(t)

	w := env.do(t, http.MethodGet, "/v1/properties", nil, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.NotEmpty(t, w.Header().Get(middleware.RequestIDHeader))

	w = env.do(t, http.MethodGet, "/v1/properties", nil, "not-a-jwt")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = env.do(t, http.MethodGet, "/v1/properties", nil, env.viewer)
	assert.Equal(t, http.StatusOK, w.Code)

	w = env.do(t, http.MethodPost, "/v1/properties", map[string]any{"name": "Loft"}, env.viewer)
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestBillingConfig_RejectsInconsistentValues(t *testing.T) {
	env := setupTestEnv(t)
	pid := env.seedProperty(t)

	bad := splitConfig()
	delete(bad, "cleaning_fee_split_pct")
	bad["commission_value"] = 120
	w := env.do(t, http.MethodPut, "/v1/properties/"+pid+"/billing-config", bad, env.admin)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var body struct {
		Code   string
		Fields map[string]string
	}
	decode(t, w, &body)
	assert.Equal(t, "INVALID_CONFIG", body.Code)
	assert.Contains(t, body.Fields, "cleaning_fee_split_pct")

	w = env.do(t, http.MethodPut, "/v1/properties/"+pid+"/billing-config", map[string]any{"commission_type": "WEEKLY"}, env.admin)
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)
	decode(t, w, &body)
	assert.Equal(t, "VALIDATION_ERROR", body.Code)
	assert.Equal(t, "oneof", body.Fields["commission_type"])
}

func TestFullLiquidationCycle(t *testing.T) {
	env := setupTestEnv(t)
	pid := env.seedProperty(t)

	// 1. Import two reservations as JSON, one row broken
	rows := [][]string{
		{"Code", "Guest", "In", "Out", "Total", "Cleaning"},
		{"HMA1", "Ana García", "01/03/2025", "04/03/2025", "500,00", "40,00"},
		{"HMA2", "Ben Ortiz", "10/03/2025", "13/03/2025", "500,00", "40,00"},
		{"HMA3", "", "31/02/2025", "10/03/2025", "abc", ""},
	}
	w := env.do(t, http.MethodPost, "/v1/properties/"+pid+"/reservations/import", importBody(rows), env.admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var report struct {
		TotalRows     int `json:"total_rows"`
		ImportedCount int `json:"imported_count"`
		ErrorCount    int `json:"error_count"`
		Errors        []struct {
			Row int `json:"row"`
		} `json:"errors"`
	}
	decode(t, w, &report)
	assert.Equal(t, 3, report.TotalRows)
	assert.Equal(t, 2, report.ImportedCount)
	assert.Equal(t, 1, report.ErrorCount)
	assert.Equal(t, 4, report.Errors[0].Row)

	// 2. Upload a semicolon CSV with the third reservation and a duplicate
	options := importBody(nil)
	delete(options, "rows")
	options["skip_duplicates"] = true
	opts, err := json.Marshal(options)
	require.NoError(t, err)
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", "airbnb.csv")
	require.NoError(t, err)
	_, _ = fw.Write([]byte("Code;Guest;In;Out;Total;Cleaning\nHMA4;Carla Ruiz;20/03/2025;23/03/2025;500,00;40,00\nHMA1;Ana García;01/03/2025;04/03/2025;500,00;40,00\n"))
	require.NoError(t, mw.WriteField("options", string(opts)))
	require.NoError(t, mw.Close())
	req := httptest.NewRequest(http.MethodPost, "/v1/properties/"+pid+"/reservations/import/upload", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+env.admin)
	up := httptest.NewRecorder()
	env.engine.ServeHTTP(up, req)
	require.Equal(t, http.StatusOK, up.Code, up.Body.String())
	var upReport struct {
		ImportedCount int `json:"imported_count"`
		SkippedCount  int `json:"skipped_count"`
	}
	decode(t, up, &upReport)
	assert.Equal(t, 1, upReport.ImportedCount)
	assert.Equal(t, 1, upReport.SkippedCount)

	// 3. Liquidate March
	period := map[string]any{"period_start": "2025-03-01", "period_end": "2025-03-31"}
	w = env.do(t, http.MethodPost, "/v1/properties/"+pid+"/liquidations", period, env.admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var liq struct {
		ID               string          `json:"id"`
		ReservationCount int             `json:"reservation_count"`
		TotalCommission  decimal.Decimal `json:"total_commission"`
		ManagerCleaning  decimal.Decimal `json:"total_manager_cleaning"`
	}
	decode(t, w, &liq)
	assert.Equal(t, 3, liq.ReservationCount)

	// the same period again claims nothing
	again := map[string]any{"period_start": "2025-03-01", "period_end": "2025-03-31", "require_non_empty": true}
	w = env.do(t, http.MethodPost, "/v1/properties/"+pid+"/liquidations", again, env.admin)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = env.do(t, http.MethodGet, "/v1/liquidations/"+liq.ID, nil, env.viewer)
	require.Equal(t, http.StatusOK, w.Code)
	var detail struct {
		Reservations []json.RawMessage `json:"reservations"`
	}
	decode(t, w, &detail)
	assert.Len(t, detail.Reservations, 3)

	// 4. Invoice it once
	w = env.do(t, http.MethodPost, "/v1/liquidations/"+liq.ID+"/invoice", nil, env.admin)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	var inv struct {
		ID          string          `json:"id"`
		Subtotal    decimal.Decimal `json:"subtotal"`
		PublicToken string          `json:"public_token"`
		Items       []json.RawMessage
	}
	decode(t, w, &inv)
	assert.Len(t, inv.Items, 2)
	assert.True(t, inv.Subtotal.Equal(liq.TotalCommission.Add(liq.ManagerCleaning)), "commission plus manager cleaning")
	assert.Equal(t, "60.00", liq.ManagerCleaning.StringFixed(2))

	w = env.do(t, http.MethodPost, "/v1/liquidations/"+liq.ID+"/invoice", nil, env.admin)
	assert.Equal(t, http.StatusConflict, w.Code)

	// 5. Lifecycle
	w = env.do(t, http.MethodPatch, "/v1/invoices/"+inv.ID+"/status", map[string]any{"status": "ISSUED"}, env.admin)
	require.Equal(t, http.StatusConflict, w.Code)
	assert.Contains(t, w.Body.String(), "USE_ISSUE_ENDPOINT")

	w = env.do(t, http.MethodPost, "/v1/invoices/"+inv.ID+"/issue", nil, env.admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var issued struct {
		FullNumber string `json:"full_number"`
	}
	decode(t, w, &issued)
	assert.Equal(t, fmt.Sprintf("F-%d-00001", time.Now().UTC().Year()), issued.FullNumber)

	w = env.do(t, http.MethodPost, "/v1/invoices/"+inv.ID+"/issue", nil, env.admin)
	assert.Equal(t, http.StatusConflict, w.Code)

	// 6. Public view
	w = env.do(t, http.MethodGet, "/public/invoices/"+inv.PublicToken, nil, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.NotContains(t, w.Body.String(), inv.ID)
	assert.Equal(t, "no-store", w.Header().Get("Cache-Control"))

	w = env.do(t, http.MethodGet, "/public/invoices/abc", nil, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// 7. Bulk delete leaves invoiced reservations alone
	w = env.do(t, http.MethodDelete, "/v1/properties/"+pid+"/reservations?year=2025&month=3", nil, env.admin)
	require.Equal(t, http.StatusOK, w.Code)
	var del struct {
		Deleted int
		Skipped int
		Details struct{ Invoiced int }
	}
	decode(t, w, &del)
	assert.Equal(t, 0, del.Deleted)
	assert.Equal(t, 3, del.Skipped)
	assert.Equal(t, 3, del.Details.Invoiced)

	w = env.do(t, http.MethodDelete, "/v1/properties/"+pid+"/reservations?month=3", nil, env.admin)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code, "month without year")
}

func TestAsyncEndpointsQueueJobs(t *testing.T) {
	env := setupTestEnv(t)

	emails := map[string]any{"reservations": []map[string]any{
		{"property_name": "Apartamento Mar", "platform": "airbnb", "confirmation_code": "HMZZ9"},
	}}
	w := env.do(t, http.MethodPost, "/v1/integrations/email-reservations", emails, "")
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	req := httptest.NewRequest(http.MethodPost, "/v1/integrations/email-reservations", strings.NewReader(`{"reservations":[{"property_name":"Apartamento Mar","platform":"airbnb"}]}`))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Token", "hook-secret")
	rec := httptest.NewRecorder()
	env.engine.ServeHTTP(rec, req)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())

	w = env.do(t, http.MethodPost, "/v1/liquidations/batch", map[string]any{"year": 2025, "month": 3}, env.admin)
	require.Equal(t, http.StatusAccepted, w.Code)

	w = env.do(t, http.MethodPost, "/v1/liquidations/batch", map[string]any{"year": 2025, "month": 13}, env.admin)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)

	w = env.do(t, http.MethodGet, "/v1/admin/queues", nil, env.admin)
	require.Equal(t, http.StatusOK, w.Code)
	var stats map[string]struct {
		Pending int64 `json:"pending"`
	}
	decode(t, w, &stats)
	assert.Equal(t, int64(1), stats[worker.QueueEmailIngest].Pending)
	assert.Equal(t, int64(1), stats[worker.QueueLiquidation].Pending)

	w = env.do(t, http.MethodPost, "/v1/admin/queues/"+worker.QueueEmailIngest+"/redrive", nil, env.admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.JSONEq(t, `{"moved":0}`, w.Body.String())

	w = env.do(t, http.MethodPost, "/v1/admin/queues/jobs:nope/redrive", nil, env.admin)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = env.do(t, http.MethodPost, "/v1/admin/queues/"+worker.QueueEmailIngest+"/redrive", nil, env.viewer)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
