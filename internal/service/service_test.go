package service

import (
	"testing"

	"autovalor/config"
	"autovalor/internal/models"
	"autovalor/internal/repository"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testFee = config.ValuationConfig{AmountCents: 990, Currency: "BRL", Title: "Avaliação AutoValorAI"}

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

func newReconciler(t *testing.T, db *gorm.DB) *ReconcileService {
	t.Helper()
	notifSvc := NewNotificationService(repository.NewNotificationRepository(db))
	return NewReconcileService(
		repository.NewEvaluationRepository(db),
		repository.NewPaymentRepository(db),
		notifSvc,
		testFee,
	)
}

func seedUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	u := &models.User{Email: "maria@example.com", Name: "Maria Silva", Role: "USER"}
	require.NoError(t, db.Create(u).Error)
	return u
}

func seedEvaluation(t *testing.T, db *gorm.DB, userID uint) *models.Evaluation {
	t.Helper()
	e := &models.Evaluation{
		UserID:      userID,
		VehicleData: `{"marca":"Fiat","modelo":"Uno","versao":"Attractive","ano_fabricacao":2015,"ano_modelo":2016,"km":80000}`,
	}
	require.NoError(t, db.Create(e).Error)
	return e
}
