package sessiondb

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeviceIDs(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"device_id"}).
		AddRow("Intel_D455_1").
		AddRow("Eyelink_1")
	mock.ExpectQuery(regexp.QuoteMeta("SELECT dparam.device_id")).
		WithArgs("12345", "2024-01-15", "finger_tap").
		WillReturnRows(rows)

	ids, err := NewPostgresSource(db).DeviceIDs(context.Background(), "12345", "2024-01-15", "finger_tap")
	require.NoError(t, err)
	assert.Equal(t, []string{"Intel_D455_1", "Eyelink_1"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeviceIDsEmptyResult(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT dparam.device_id")).
		WithArgs("12345", "2024-01-15", "unknown_task").
		WillReturnRows(sqlmock.NewRows([]string{"device_id"}))

	ids, err := NewPostgresSource(db).DeviceIDs(context.Background(), "12345", "2024-01-15", "unknown_task")
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestDeviceIDsQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT dparam.device_id")).
		WillReturnError(assert.AnError)

	_, err = NewPostgresSource(db).DeviceIDs(context.Background(), "12345", "2024-01-15", "finger_tap")
	require.Error(t, err)
	assert.ErrorIs(t, err, assert.AnError)
	assert.Contains(t, err.Error(), "finger_tap")
}
