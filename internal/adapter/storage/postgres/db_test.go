package postgres

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealthCheck_Ping(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("to_regclass").
		WillReturnRows(pgxmock.NewRows([]string{"migrated"}).AddRow(true))

	hc := NewHealthCheck(mock)
	assert.Equal(t, "postgres", hc.Name())
	assert.NoError(t, hc.Ping(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHealthCheck_SchemaMissing(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("to_regclass").
		WillReturnRows(pgxmock.NewRows([]string{"migrated"}).AddRow(false))

	err = NewHealthCheck(mock).Ping(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "run migrations")
}

func TestHealthCheck_PingFails(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("to_regclass").WillReturnError(errors.New("connection refused"))

	assert.Error(t, NewHealthCheck(mock).Ping(context.Background()))
}

func TestTransactor_Begin(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectCommit()

	tx, err := NewTransactor(mock).Begin(context.Background())
	require.NoError(t, err)
	require.NoError(t, tx.Commit(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}
