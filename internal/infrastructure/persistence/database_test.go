package persistence

import (
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newMockDatabase creates a Database instance backed by a mocked SQL connection
func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	dialector := postgres.New(postgres.Config{
		Conn:                 mockDB,
		DriverName:           "postgres",
		PreferSimpleProtocol: true,
	})

	gormDB, err := gorm.Open(dialector, &gorm.Config{
		SkipDefaultTransaction: true,
	})
	require.NoError(t, err)

	return &Database{DB: gormDB}, mock
}

func TestDatabase_Ping(t *testing.T) {
	t.Run("succeeds on live connection", func(t *testing.T) {
		db, _ := newMockDatabase(t)

		assert.NoError(t, db.Ping())
	})
}

func TestDatabase_Transaction(t *testing.T) {
	t.Run("commits when the function succeeds", func(t *testing.T) {
		db, mock := newMockDatabase(t)

		mock.ExpectBegin()
		mock.ExpectExec(`UPDATE "forests"`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		err := db.Transaction(func(tx *gorm.DB) error {
			return tx.Exec(`UPDATE "forests" SET version = version + 1`).Error
		})
		require.NoError(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rolls back when the function fails", func(t *testing.T) {
		db, mock := newMockDatabase(t)

		mock.ExpectBegin()
		mock.ExpectRollback()

		wantErr := errors.New("boom")
		err := db.Transaction(func(tx *gorm.DB) error {
			return wantErr
		})
		require.ErrorIs(t, err, wantErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
