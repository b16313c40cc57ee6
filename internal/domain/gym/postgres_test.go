package gym

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockRepo(t *testing.T) (*PostgresRepo, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewPostgresRepo(sqlx.NewDb(db, "sqlmock")), mock
}

func TestPostgresRepo_GetGym(t *testing.T) {
	repo, mock := newMockRepo(t)
	now := time.Now()

	t.Run("found", func(t *testing.T) {
		rows := sqlmock.NewRows([]string{
			"id", "name", "email", "currency", "city", "country", "verification_status",
			"owner_uid", "owner_ids", "created_at", "updated_at",
		}).AddRow("gym-1", "Tiger Camp", "camp@example.com", "thb", "Phuket", "TH", "verified",
			"owner-1", "{owner-2,owner-3}", now, now)
		mock.ExpectQuery("SELECT (.+) FROM gyms").WithArgs("gym-1").WillReturnRows(rows)

		g, err := repo.GetGym(context.Background(), "gym-1")
		require.NoError(t, err)
		assert.Equal(t, "Tiger Camp", g.Name)
		assert.True(t, g.Bookable())
		assert.True(t, g.IsOwner("owner-3"))
	})

	t.Run("missing", func(t *testing.T) {
		mock.ExpectQuery("SELECT (.+) FROM gyms").WithArgs("nope").
			WillReturnRows(sqlmock.NewRows([]string{"id"}))

		_, err := repo.GetGym(context.Background(), "nope")
		assert.True(t, IsErrNotFound(err))
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepo_GetPackageLoadsOptions(t *testing.T) {
	repo, mock := newMockRepo(t)

	mock.ExpectQuery("SELECT (.+) FROM gym_packages").WithArgs("pkg-1", "gym-1").
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "gym_id", "name", "type", "pricing_mode", "daily_rate", "weekly_rate", "monthly_rate",
			"min_stay_days", "active",
		}).AddRow("pkg-1", "gym-1", "Fight Camp", "training", "fixed", 0.0, 0.0, 0.0, 7, true))
	mock.ExpectQuery("SELECT (.+) FROM package_fixed_options").WithArgs("pkg-1").
		WillReturnRows(sqlmock.NewRows([]string{"duration_days", "price", "label"}).
			AddRow(7, 300.0, "").
			AddRow(14, 550.0, "2 weeks"))

	p, err := repo.GetPackage(context.Background(), "gym-1", "pkg-1")
	require.NoError(t, err)
	require.Len(t, p.Options, 2)
	assert.Equal(t, 550.0, p.Options[1].Price)
	assert.Equal(t, "2 weeks", p.Options[1].Label)
	assert.NoError(t, mock.ExpectationsWereMet())
}
