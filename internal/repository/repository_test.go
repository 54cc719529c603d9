package repository

import (
	"testing"

	"autovalor/internal/models"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

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

func createUser(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()
	u := &models.User{Email: email, Name: "Test User", Role: "USER"}
	require.NoError(t, db.Create(u).Error)
	return u
}

func createEvaluation(t *testing.T, db *gorm.DB, userID uint) *models.Evaluation {
	t.Helper()
	e := &models.Evaluation{UserID: userID, VehicleData: `{"marca":"Fiat","modelo":"Uno","ano_fabricacao":2015}`}
	require.NoError(t, db.Create(e).Error)
	return e
}
