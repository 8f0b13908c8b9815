package repository

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newMockStore(t *testing.T) (*NotificationStore, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{Conn: db}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	return NewNotificationStore(gdb), mock
}

// markAsReadSQL pins the update shape: ownership is the only filter, and
// read_at keeps its first value on repeat marks.
const markAsReadSQL = `UPDATE "notifications" SET "is_read"=\$1,"read_at"=COALESCE\(read_at, \$2\) WHERE id = \$3 AND user_id = \$4`

func TestMarkAsRead_AlreadyReadStillReportsSuccess(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(markAsReadSQL).
		WithArgs(true, sqlmock.AnyArg(), "n1", uint(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	ok, err := store.MarkAsRead(context.Background(), "n1", 42)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMarkAsRead_NotOwnedReportsFalse(t *testing.T) {
	store, mock := newMockStore(t)

	mock.ExpectExec(markAsReadSQL).
		WithArgs(true, sqlmock.AnyArg(), "n1", uint(7)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	ok, err := store.MarkAsRead(context.Background(), "n1", 7)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}
