package db

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestLogMode(t *testing.T) {
	assert.Equal(t, logger.Info, logMode("debug"))
	assert.Equal(t, logger.Info, logMode("DEBUG"))
	assert.Equal(t, logger.Warn, logMode("info"))
	assert.Equal(t, logger.Error, logMode("error"))
	assert.Equal(t, logger.Silent, logMode(""))
}

func TestConnectRequiresURL(t *testing.T) {
	t.Setenv("DATABASE_URL", "")

	_, err := Connect(Config{})
	assert.ErrorContains(t, err, "DATABASE_URL")
}

func TestClose(t *testing.T) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	database, err := gorm.Open(
		postgres.New(postgres.Config{Conn: mockDB, PreferSimpleProtocol: true}),
		&gorm.Config{Logger: logger.Default.LogMode(logger.Silent)},
	)
	require.NoError(t, err)

	mock.ExpectClose()
	require.NoError(t, Close(database))
	assert.NoError(t, mock.ExpectationsWereMet())
}

type closingPool struct {
	gorm.ConnPool
	closed bool
}

func (p *closingPool) Close() error {
	p.closed = true
	return nil
}

func TestCloseWithoutSQLDB(t *testing.T) {
	pool := &closingPool{}
	require.NoError(t, Close(&gorm.DB{Config: &gorm.Config{ConnPool: pool}}))
	assert.True(t, pool.closed)

	err := Close(&gorm.DB{Config: &gorm.Config{}})
	assert.ErrorIs(t, err, gorm.ErrInvalidDB)
}
