package availability

import (
	"testing"
	"time"

	"farmstay/src/models"
	"farmstay/src/types"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func day(s string) time.Time {
	d, err := ParseDay(s)
	if err != nil {
		panic(err)
	}
	return d
}

func dayPtr(s string) *time.Time {
	d := day(s)
	return &d
}

func strPtr(s string) *string { return &s }

func stayCandidate(in, out string) Candidate {
	return Candidate{CheckIn: dayPtr(in), CheckOut: dayPtr(out)}
}

func stayBooking(in, out string) *models.Booking {
	return &models.Booking{CheckIn: dayPtr(in), CheckOut: dayPtr(out), Status: types.BOOKING_CONFIRMED}
}

func TestStayOverlapIsHalfOpen(t *testing.T) {
	existing := stayBooking("2025-07-10", "2025-07-12")

	// Adjacent: new check-in on the existing checkout day is legal.
	assert.False(t, bookingConflicts(stayCandidate("2025-07-12", "2025-07-14"), existing))
	// One shared night rejects.
	assert.True(t, bookingConflicts(stayCandidate("2025-07-11", "2025-07-13"), existing))
	// Fully before.
	assert.False(t, bookingConflicts(stayCandidate("2025-07-08", "2025-07-10"), existing))
	// Candidate swallowing the existing stay rejects.
	assert.True(t, bookingConflicts(stayCandidate("2025-07-09", "2025-07-14"), existing))
}

func TestEventTimeOverlap(t *testing.T) {
	existing := &models.Booking{
		EventDate: dayPtr("2025-08-05"),
		StartTime: strPtr("11:00"),
		EndTime:   strPtr("13:00"),
		Status:    types.BOOKING_CONFIRMED,
	}
	cand := Candidate{
		EventDate: dayPtr("2025-08-05"),
		StartTime: strPtr("09:00"),
		EndTime:   strPtr("11:00"),
	}
	// Touching boundaries do not overlap.
	assert.False(t, bookingConflicts(cand, existing))

	existing.StartTime = strPtr("10:00")
	existing.EndTime = strPtr("12:00")
	assert.True(t, bookingConflicts(cand, existing))

	// Either side without times occupies the whole day.
	existing.StartTime = nil
	existing.EndTime = nil
	assert.True(t, bookingConflicts(cand, existing))

	// Different day never conflicts whatever the times.
	existing.EventDate = dayPtr("2025-08-06")
	assert.False(t, bookingConflicts(cand, existing))
}

func TestEventAgainstStayAndViceVersa(t *testing.T) {
	stay := stayBooking("2025-08-01", "2025-08-03")
	assert.True(t, bookingConflicts(Candidate{EventDate: dayPtr("2025-08-02")}, stay))
	// Checkout day itself is free.
	assert.False(t, bookingConflicts(Candidate{EventDate: dayPtr("2025-08-03")}, stay))

	event := &models.Booking{EventDate: dayPtr("2025-08-02"), Status: types.BOOKING_PENDING}
	assert.True(t, bookingConflicts(stayCandidate("2025-08-01", "2025-08-03"), event))
	assert.False(t, bookingConflicts(stayCandidate("2025-08-03", "2025-08-05"), event))
}

func TestBlockedRangeConflicts(t *testing.T) {
	block := &models.BlockedDateRange{StartDate: day("2025-09-10"), EndDate: day("2025-09-12")}

	assert.True(t, rangeConflicts(stayCandidate("2025-09-11", "2025-09-13"), block))
	assert.False(t, rangeConflicts(stayCandidate("2025-09-12", "2025-09-14"), block))

	assert.True(t, rangeConflicts(Candidate{EventDate: dayPtr("2025-09-12")}, block))
	assert.False(t, rangeConflicts(Candidate{EventDate: dayPtr("2025-09-13")}, block))
}

func TestRangeCoversDayPerSource(t *testing.T) {
	admin := &models.BlockedDateRange{
		StartDate: day("2025-09-10"),
		EndDate:   day("2025-09-12"),
		Source:    types.RANGE_ADMIN,
	}
	assert.True(t, rangeCoversDay(admin, day("2025-09-12")), "admin ranges include their end day")

	hold := &models.BlockedDateRange{
		StartDate: day("2025-09-10"),
		EndDate:   day("2025-09-12"),
		Source:    types.RANGE_SYSTEM,
	}
	assert.True(t, rangeCoversDay(hold, day("2025-09-11")))
	assert.False(t, rangeCoversDay(hold, day("2025-09-12")), "stay holds keep the checkout day free")

	eventHold := &models.BlockedDateRange{
		StartDate: day("2025-09-15"),
		EndDate:   day("2025-09-15"),
		Source:    types.RANGE_SYSTEM,
	}
	assert.True(t, rangeCoversDay(eventHold, day("2025-09-15")))
}

func TestMinutesOfDay(t *testing.T) {
	m, ok := minutesOfDay("09:30")
	assert.True(t, ok)
	assert.Equal(t, 570, m)

	_, ok = minutesOfDay("24:00")
	assert.False(t, ok)
	_, ok = minutesOfDay("nope")
	assert.False(t, ok)
}

func newMockEngine(t *testing.T) (*Engine, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}
	gormDB, err := gorm.Open(postgres.New(postgres.Config{Conn: conn, PreferSimpleProtocol: true}), &gorm.Config{})
	if err != nil {
		t.Fatalf("An error '%s' was not expected when opening gorm database", err)
	}
	e := New(gormDB)
	e.now = func() time.Time { return day("2025-07-01") }
	return e, mock
}

// Scenario: two units share a resource group; a confirmed event on the
// sibling must disable the day on this unit's calendar.
func TestDisabledDatesAcrossResourceGroup(t *testing.T) {
	e, mock := newMockEngine(t)
	group := "main-campus"
	unit := &models.Unit{ID: 1, Slug: "the-white-house", Type: types.UNIT_STAY, ResourceGroup: &group}

	mock.ExpectQuery(`SELECT "id" FROM "units"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(1).AddRow(2))
	mock.ExpectQuery(`SELECT \* FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id", "unit_id", "status", "event_date"}).
			AddRow(7, 2, "confirmed", day("2025-08-01")))
	mock.ExpectQuery(`SELECT \* FROM "blocked_date_ranges"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	dates, err := e.DisabledDates(unit, day("2025-08-01"), day("2025-08-04"))
	assert.Nil(t, err)
	assert.Equal(t, []string{"2025-08-01"}, dates)
}

func TestDisabledDatesPastDaysAlwaysDisabled(t *testing.T) {
	e, mock := newMockEngine(t)
	unit := &models.Unit{ID: 1, Slug: "red-roost", Type: types.UNIT_STAY}

	mock.ExpectQuery(`SELECT \* FROM "bookings"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))
	mock.ExpectQuery(`SELECT \* FROM "blocked_date_ranges"`).
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	dates, err := e.DisabledDates(unit, day("2025-06-29"), day("2025-07-02"))
	assert.Nil(t, err)
	assert.Equal(t, []string{"2025-06-29", "2025-06-30"}, dates)
}

// A read failure must fail open, never reject.
func TestHasOverlapFailsOpenOnReadError(t *testing.T) {
	e, mock := newMockEngine(t)
	unit := &models.Unit{ID: 1, Slug: "red-roost", Type: types.UNIT_STAY}

	mock.ExpectQuery(`SELECT \* FROM "bookings"`).
		WillReturnError(assert.AnError)

	assert.False(t, e.HasOverlap(nil, unit, stayCandidate("2025-07-10", "2025-07-12")))
}
