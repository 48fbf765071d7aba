package repositories_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/anonto42/nano-social/backend/internal/models"
	"github.com/anonto42/nano-social/backend/internal/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return db, mock
}

var errConnRefused = errors.New("dial tcp 10.0.0.5:5432: connect: connection refused")

func TestStoreUnavailableMapping(t *testing.T) {
	tests := []struct {
		name  string
		setup func(sqlmock.Sqlmock)
		call  func(db *gorm.DB) error
	}{
		{
			name: "user lookup",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .* FROM "users"`).WillReturnError(errConnRefused)
			},
			call: func(db *gorm.DB) error {
				_, err := repositories.NewPostgresUserRepository(db).GetUserByID(context.Background(), 1)
				return err
			},
		},
		{
			name: "pair transition",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectBegin().WillReturnError(errConnRefused)
			},
			call: func(db *gorm.DB) error {
				return repositories.NewPostgresRelationshipRepository(db).SwapPairState(context.Background(), models.PairTransition{
					ActorID: 1, TargetID: 2, To: models.PairState{Following: true},
				})
			},
		},
		{
			name: "pair state read",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT .* FROM "follows"`).WillReturnError(errConnRefused)
			},
			call: func(db *gorm.DB) error {
				_, err := repositories.NewPostgresRelationshipRepository(db).GetPairState(context.Background(), 1, 2)
				return err
			},
		},
		{
			name: "notification insert",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`INSERT INTO "notifications"`).WillReturnError(errConnRefused)
			},
			call: func(db *gorm.DB) error {
				_, err := repositories.NewPostgresNotificationRepository(db).Create(context.Background(), models.NotificationJob{RecipientID: 1})
				return err
			},
		},
		{
			name: "retention delete",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectExec(`DELETE FROM "notifications"`).WillReturnError(errConnRefused)
			},
			call: func(db *gorm.DB) error {
				_, err := repositories.NewPostgresNotificationRepository(db).DeleteCreatedBefore(context.Background(), time.Now())
				return err
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock := newMockDB(t)
			tt.setup(mock)

			err := tt.call(db)
			assert.ErrorIs(t, err, models.ErrStoreUnavailable)
			assert.ErrorIs(t, err, errConnRefused)
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestUserNotFoundIsNotStoreFailure(t *testing.T) {
	db, mock := newMockDB(t)
	mock.ExpectQuery(`SELECT .* FROM "users"`).WillReturnRows(sqlmock.NewRows([]string{"id"}))

	_, err := repositories.NewPostgresUserRepository(db).GetUserByID(context.Background(), 7)
	assert.ErrorIs(t, err, models.ErrUserNotFound)
	assert.NotErrorIs(t, err, models.ErrStoreUnavailable)
}
