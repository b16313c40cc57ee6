package database

import (
	"context"
	"errors"
	"io/fs"
	"regexp"
	"testing"
	"testing/fstest"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gymstay/backend/migrations"
)

func newMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

var (
	versionsTable = regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS schema_migrations")
	checkVersion  = regexp.QuoteMeta("SELECT EXISTS(SELECT 1 FROM schema_migrations WHERE version = $1)")
	recordVersion = regexp.QuoteMeta("INSERT INTO schema_migrations (version) VALUES ($1)")
)

func TestMigrate(t *testing.T) {
	ctx := context.Background()
	log, _ := logtest.NewNullLogger()
	files := fstest.MapFS{
		"0002_more.sql": {Data: []byte("ALTER TABLE a ADD COLUMN b TEXT")},
		"0001_init.sql": {Data: []byte("CREATE TABLE a (id TEXT)")},
		"README.md":     {Data: []byte("not a migration")},
	}

	t.Run("applies pending files in order", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(versionsTable).WillReturnResult(sqlmock.NewResult(0, 0))

		mock.ExpectQuery(checkVersion).WithArgs("0001_init.sql").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

		mock.ExpectQuery(checkVersion).WithArgs("0002_more.sql").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("ALTER TABLE a ADD COLUMN b TEXT")).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectExec(recordVersion).WithArgs("0002_more.sql").WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		n, err := Migrate(ctx, db, files, log)
		require.NoError(t, err)
		assert.Equal(t, 1, n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failed file is rolled back", func(t *testing.T) {
		db, mock := newMock(t)
		mock.ExpectExec(versionsTable).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(checkVersion).WithArgs("0001_init.sql").
			WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))
		mock.ExpectBegin()
		mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE a (id TEXT)")).WillReturnError(errors.New("syntax error"))
		mock.ExpectRollback()

		n, err := Migrate(ctx, db, files, log)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "0001_init.sql")
		assert.Zero(t, n)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

// The repositories query these tables; the shipped schema must create all of them.
func TestSchemaCoversStores(t *testing.T) {
	body, err := fs.ReadFile(migrations.FS, "0001_init.sql")
	require.NoError(t, err)

	for _, table := range []string{
		"gyms", "gym_packages", "package_fixed_options", "package_variants",
		"bookings", "booking_events", "booking_access_tokens",
	} {
		assert.Regexp(t, `CREATE TABLE IF NOT EXISTS `+table+` \(`, string(body), table)
	}
	for _, status := range []string{
		"pending_payment", "awaiting_approval", "pending_confirmation",
		"confirmed", "declined", "completed", "cancelled",
	} {
		assert.Contains(t, string(body), "'"+status+"'")
	}
}
