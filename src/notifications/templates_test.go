package notifications

import (
	"testing"
	"time"

	"farmstay/src/availability"
	"farmstay/src/models"
	"farmstay/src/types"

	"github.com/stretchr/testify/assert"
)

func mustDay(s string) time.Time {
	d, err := availability.ParseDay(s)
	if err != nil {
		panic(err)
	}
	return d
}

func TestBookingViewFlattensDates(t *testing.T) {
	checkIn := mustDay("2025-06-01")
	checkOut := mustDay("2025-06-02")
	notes := "late arrival"
	guests := uint(2)
	b := &models.Booking{
		ID:         7,
		GuestName:  "Jo Guest",
		GuestEmail: "jo@example.com",
		CheckIn:    &checkIn,
		CheckOut:   &checkOut,
		Guests:     &guests,
		Notes:      &notes,
	}
	u := &models.Unit{Slug: "red-roost", Name: "Red Roost"}

	v := NewBookingView(b, u)
	assert.Equal(t, "2025-06-01", v.CheckIn)
	assert.Equal(t, "2025-06-02", v.CheckOut)
	assert.Equal(t, "Red Roost", v.UnitName)
	assert.Equal(t, uint(2), v.Guests)
}

func TestEmailContentPerMessageType(t *testing.T) {
	v := BookingView{BookingID: 7, UnitName: "Red Roost", GuestName: "Jo", GuestEmail: "jo@example.com", CheckIn: "2025-06-01", CheckOut: "2025-06-02"}

	subject, html, text, ok := EmailContent(types.MSG_GUEST_RECEIPT, v)
	assert.True(t, ok)
	assert.Contains(t, subject, "Red Roost")
	assert.Contains(t, text, "2025-06-01 to 2025-06-02")
	assert.Contains(t, html, "<p>")

	subject, _, _, ok = EmailContent(types.MSG_GUEST_CONFIRMED, v)
	assert.True(t, ok)
	assert.Contains(t, subject, "confirmed")

	_, _, text, ok = EmailContent(types.MSG_OWNER_NEW_REQUEST, v)
	assert.True(t, ok)
	assert.Contains(t, text, "jo@example.com")
}

func TestEmailEscapesGuestInput(t *testing.T) {
	v := BookingView{BookingID: 7, UnitName: "Red Roost", GuestName: "<script>", GuestEmail: "jo@example.com", EventDate: "2025-08-01"}
	_, html, _, ok := EmailContent(types.MSG_OWNER_NEW_REQUEST, v)
	assert.True(t, ok)
	assert.NotContains(t, html, "<script>")
}

func TestSMSContent(t *testing.T) {
	v := BookingView{BookingID: 7, UnitName: "Aurora Grand", GuestName: "Jo", EventDate: "2025-08-01", StartTime: "09:00", EndTime: "11:00"}

	body, ok := SMSContent(types.MSG_OWNER_NEW_REQUEST, types.AUDIENCE_OWNER, v)
	assert.True(t, ok)
	assert.Contains(t, body, "2025-08-01 09:00-11:00")

	_, ok = SMSContent(types.MSG_OWNER_NEW_REQUEST, types.AUDIENCE_GUEST, v)
	assert.False(t, ok)
}
