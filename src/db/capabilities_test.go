package db

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

func TestCapsProbe(t *testing.T) {
	d, mock := NewMockDB()
	ResetCaps()
	defer ResetCaps()

	count := func(n int) *sqlmock.Rows {
		return sqlmock.NewRows([]string{"count"}).AddRow(n)
	}
	mock.ExpectQuery(`(?i)SELECT count\(\*\) FROM information_schema\.tables`).
		WillReturnRows(count(1))
	// event_date, start_time, end_time, event_type
	for i := 0; i < 4; i++ {
		mock.ExpectQuery(`(?i)SELECT count\(\*\) FROM information_schema\.columns`).
			WillReturnRows(count(1))
	}
	// notes absent, booking_id present
	mock.ExpectQuery(`(?i)SELECT count\(\*\) FROM information_schema\.columns`).
		WillReturnRows(count(0))
	mock.ExpectQuery(`(?i)SELECT count\(\*\) FROM information_schema\.columns`).
		WillReturnRows(count(1))

	got := Caps(d)
	assert.True(t, got.NotificationLogTable)
	assert.True(t, got.BookingEventColumns)
	assert.False(t, got.BookingNotesColumn)
	assert.True(t, got.HoldBookingIDColumn)

	// Second call must answer from the cache without another probe.
	assert.Equal(t, got, Caps(d))
	assert.NoError(t, mock.ExpectationsWereMet())
}
