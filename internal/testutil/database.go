package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/internal/repositories"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var dbSeq atomic.Int64

// NewTestDB opens a private in-memory SQLite database with the full schema.
// A single connection keeps every statement on the same memory database.
func NewTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", dbSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, repositories.AutoMigrate(db))
	return db
}

var userSeq atomic.Int64

// CreateUser inserts a public, active user. mutate may adjust fields before insert.
func CreateUser(t *testing.T, db *gorm.DB, mutate func(*models.User)) *models.User {
	t.Helper()

	n := userSeq.Add(1)
	u := models.NewUser(fmt.Sprintf("user%d", n), fmt.Sprintf("user%d@example.com", n))
	u.DisplayName = fmt.Sprintf("User %d", n)
	if mutate != nil {
		mutate(u)
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }
