package weapon

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func setupMock(t *testing.T) (Repository, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return NewRepository(db), mock
}

func TestCountExisting(t *testing.T) {
	repo, mock := setupMock(t)

	count, err := repo.CountExisting(context.Background(), nil)
	require.NoError(t, err)
	assert.Zero(t, count)

	ids := []uuid.UUID{uuid.New(), uuid.New()}
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT count(*) FROM "weapons" WHERE id IN ($1,$2)`)).
		WithArgs(ids[0], ids[1]).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	count, err = repo.CountExisting(context.Background(), ids)
	require.NoError(t, err)
	assert.EqualValues(t, 1, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindMaintenanceDue(t *testing.T) {
	repo, mock := setupMock(t)
	before := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "weapons" WHERE is_active = $1 AND next_maintenance_date IS NOT NULL AND next_maintenance_date <= $2 ORDER BY next_maintenance_date ASC`)).
		WithArgs(true, before).
		WillReturnRows(sqlmock.NewRows([]string{"id", "serial_number"}).AddRow(uuid.New(), "SN-1"))

	weapons, err := repo.FindMaintenanceDue(context.Background(), before)
	require.NoError(t, err)
	require.Len(t, weapons, 1)
	assert.Equal(t, "SN-1", weapons[0].SerialNumber)
	assert.NoError(t, mock.ExpectationsWereMet())
}
