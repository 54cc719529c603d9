package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http/httptest"
	"testing"

	"autovalor/config"
	"autovalor/internal/models"
	"autovalor/internal/repository"
	"autovalor/internal/service"
	"autovalor/pkg/mercadopago"

	"github.com/gin-gonic/gin"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	// in-memory sqlite is per-connection
	sqlDB.SetMaxOpenConns(1)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Evaluation{},
		&models.Payment{},
		&models.Notification{},
		&models.AuditLog{},
	))
	return db
}

func testConfig(env string) *config.Config {
	return &config.Config{
		Server: config.ServerConfig{
			Env:       env,
			PublicURL: "http://localhost:8080",
		},
		Valuation: config.ValuationConfig{
			AmountCents: 990,
			Currency:    "BRL",
			Title:       "Avaliação AutoValorAI",
		},
	}
}

// fakeMercadoPago substitutes the provider API. Lookups are served from the
// maps; err, when set, fails every call.
type fakeMercadoPago struct {
	payments   map[string]*mercadopago.Payment
	orders     map[string]*mercadopago.MerchantOrder
	preference *mercadopago.Preference
	created    *mercadopago.Payment

	err error

	lastPaymentReq    *mercadopago.PaymentRequest
	lastPreferenceReq *mercadopago.PreferenceRequest
	getCalls          int
}

func (f *fakeMercadoPago) CreatePayment(_ context.Context, req mercadopago.PaymentRequest) (*mercadopago.Payment, error) {
	f.lastPaymentReq = &req
	if f.err != nil {
		return nil, f.err
	}
	return f.created, nil
}

func (f *fakeMercadoPago) GetPayment(_ context.Context, id string) (*mercadopago.Payment, error) {
	f.getCalls++
	if f.err != nil {
		return nil, f.err
	}
	p, ok := f.payments[id]
	if !ok {
		return nil, fmt.Errorf("payment %s not found", id)
	}
	return p, nil
}

func (f *fakeMercadoPago) CreatePreference(_ context.Context, req mercadopago.PreferenceRequest) (*mercadopago.Preference, error) {
	f.lastPreferenceReq = &req
	if f.err != nil {
		return nil, f.err
	}
	return f.preference, nil
}

func (f *fakeMercadoPago) GetMerchantOrder(_ context.Context, id string) (*mercadopago.MerchantOrder, error) {
	f.getCalls++
	if f.err != nil {
		return nil, f.err
	}
	o, ok := f.orders[id]
	if !ok {
		return nil, fmt.Errorf("merchant order %s not found", id)
	}
	return o, nil
}

// asUser replaces the JWT middleware in tests.
func asUser(userID uint) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set("user_id", userID)
		c.Next()
	}
}

func newWebhookServer(db *gorm.DB, mp mercadopago.API) *gin.Engine {
	notifSvc := service.NewNotificationService(repository.NewNotificationRepository(db))
	reconciler := service.NewReconcileService(
		repository.NewEvaluationRepository(db),
		repository.NewPaymentRepository(db),
		notifSvc,
		testConfig("development").Valuation,
	)
	h := NewPaymentWebhookHandler(mp, reconciler, repository.NewAuditLogRepository(db))
	r := gin.New()
	r.POST("/api/v1/payments/webhook", h.Handle)
	return r
}

func newPaymentServer(db *gorm.DB, mp mercadopago.API, env string, userID uint) *gin.Engine {
	cfg := testConfig(env)
	h := NewPaymentHandler(
		cfg,
		repository.NewUserRepository(db),
		repository.NewEvaluationRepository(db),
		repository.NewPaymentRepository(db),
		repository.NewAuditLogRepository(db),
		mp,
	)
	r := gin.New()
	r.POST("/api/v1/payments/checkout", asUser(userID), h.Checkout)
	r.POST("/api/v1/payments/start", asUser(userID), h.StartPix)
	r.GET("/api/v1/payments/:id/status", asUser(userID), h.Status)
	r.POST("/api/v1/payments/dev-approve", asUser(userID), h.DevApprove)
	return r
}

func doJSON(t *testing.T, r *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func seedUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, Name: "Maria Silva", Role: "USER", CPF: "12345678901"}
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedEvaluation(t *testing.T, db *gorm.DB, userID uint) *models.Evaluation {
	t.Helper()
	e := &models.Evaluation{
		UserID:      userID,
		VehicleData: `{"marca":"Fiat","modelo":"Uno","ano_fabricacao":2015}`,
	}
	require.NoError(t, db.Create(e).Error)
	return e
}
