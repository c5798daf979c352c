package notifications

import (
	"context"
	"testing"

	"farmstay/src/lib"
	"farmstay/src/models"
	"farmstay/src/types"

	"github.com/stretchr/testify/assert"
)

type fakeStore struct {
	logs       []*models.NotificationLog
	verified   bool
	statusSets int
	failStatus bool
}

func newFakeStore() *fakeStore {
	return &fakeStore{verified: true}
}

func (f *fakeStore) AlreadySent(bookingID uint, audience types.Audience, channel types.Channel, msgType types.MessageType) (bool, bool) {
	if !f.verified {
		return false, false
	}
	for _, l := range f.logs {
		if l.BookingID == bookingID && l.Audience == audience && l.Channel == channel && l.MessageType == msgType && l.Status == types.SEND_SENT {
			return true, true
		}
	}
	return false, true
}

func (f *fakeStore) AppendLog(row *models.NotificationLog) error {
	f.logs = append(f.logs, row)
	return nil
}

func (f *fakeStore) SetBookingSendStatus(bookingID uint, audience types.Audience, channel types.Channel, status types.SendStatus, sendErr *string) error {
	f.statusSets++
	if f.failStatus {
		return assert.AnError
	}
	return nil
}

type fakeChannel struct {
	name       string
	configured bool
	ok         bool
	errorCode  string
	calls      int
}

func (f *fakeChannel) Name() string     { return f.name }
func (f *fakeChannel) Configured() bool { return f.configured }
func (f *fakeChannel) Send(_ context.Context, _ *Message) lib.SendResult {
	f.calls++
	if f.ok {
		return lib.SendResult{Ok: true, Provider: f.name, ProviderMessageID: "msg-1"}
	}
	return lib.SendResult{Provider: f.name, ErrorCode: f.errorCode, Error: "boom"}
}

func testBooking() (*models.Booking, *models.Unit) {
	phone := "+4912345678"
	checkIn := mustDay("2025-07-10")
	checkOut := mustDay("2025-07-12")
	b := &models.Booking{
		ID:         42,
		UnitID:     1,
		Status:     types.BOOKING_PENDING,
		GuestName:  "Jo Guest",
		GuestEmail: "jo@example.com",
		GuestPhone: &phone,
		CheckIn:    &checkIn,
		CheckOut:   &checkOut,
	}
	u := &models.Unit{ID: 1, Slug: "red-roost", Name: "Red Roost", Type: types.UNIT_STAY}
	return b, u
}

func orchestratorWith(store Store, email, sms []Channel) *Orchestrator {
	return NewWithDeps(store, email, sms, "owner@example.com", "+491110000", true)
}

func TestIdempotentSend(t *testing.T) {
	store := newFakeStore()
	ch := &fakeChannel{name: "ses", configured: true, ok: true}
	o := orchestratorWith(store, []Channel{ch}, nil)
	b, u := testBooking()
	req := SendRequest{Booking: b, Unit: u, Audience: types.AUDIENCE_GUEST, Channel: types.CHANNEL_EMAIL, MessageType: types.MSG_GUEST_RECEIPT}

	status, _ := o.Send(context.Background(), req)
	assert.Equal(t, types.SEND_SENT, status)
	assert.Equal(t, 1, ch.calls)
	assert.Len(t, store.logs, 1)

	// Second call short-circuits as already sent without touching the
	// provider or writing another row.
	status, _ = o.Send(context.Background(), req)
	assert.Equal(t, types.SEND_SENT, status)
	assert.Equal(t, 1, ch.calls)
	assert.Len(t, store.logs, 1)
}

func TestForcedResendBypassesIdempotency(t *testing.T) {
	store := newFakeStore()
	ch := &fakeChannel{name: "ses", configured: true, ok: true}
	o := orchestratorWith(store, []Channel{ch}, nil)
	b, u := testBooking()
	req := SendRequest{Booking: b, Unit: u, Audience: types.AUDIENCE_GUEST, Channel: types.CHANNEL_EMAIL, MessageType: types.MSG_GUEST_RECEIPT, Force: true}

	o.Send(context.Background(), req)
	o.Send(context.Background(), req)
	assert.Equal(t, 2, ch.calls)
	assert.Len(t, store.logs, 2)
}

func TestUnverifiedIdempotencyProceeds(t *testing.T) {
	store := newFakeStore()
	store.verified = false
	ch := &fakeChannel{name: "ses", configured: true, ok: true}
	o := orchestratorWith(store, []Channel{ch}, nil)
	b, u := testBooking()
	req := SendRequest{Booking: b, Unit: u, Audience: types.AUDIENCE_GUEST, Channel: types.CHANNEL_EMAIL, MessageType: types.MSG_GUEST_RECEIPT}

	o.Send(context.Background(), req)
	o.Send(context.Background(), req)
	// Duplicate sends are possible in the degraded mode; that is the
	// documented trade-off.
	assert.Equal(t, 2, ch.calls)
}

func TestEmailChainFallsBackToSMTP(t *testing.T) {
	store := newFakeStore()
	primary := &fakeChannel{name: "ses", configured: true, ok: false, errorCode: lib.ErrCodeSendFailed}
	fallback := &fakeChannel{name: "smtp", configured: true, ok: true}
	o := orchestratorWith(store, []Channel{primary, fallback}, nil)
	b, u := testBooking()

	status, warnings := o.Send(context.Background(), SendRequest{Booking: b, Unit: u, Audience: types.AUDIENCE_GUEST, Channel: types.CHANNEL_EMAIL, MessageType: types.MSG_GUEST_RECEIPT})
	assert.Equal(t, types.SEND_SENT, status)
	assert.Empty(t, warnings)
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 1, fallback.calls)
	assert.Equal(t, "smtp", store.logs[0].Provider)
}

func TestChainStopsAtFirstSuccess(t *testing.T) {
	store := newFakeStore()
	primary := &fakeChannel{name: "ses", configured: true, ok: true}
	fallback := &fakeChannel{name: "smtp", configured: true, ok: true}
	o := orchestratorWith(store, []Channel{primary, fallback}, nil)
	b, u := testBooking()

	o.Send(context.Background(), SendRequest{Booking: b, Unit: u, Audience: types.AUDIENCE_GUEST, Channel: types.CHANNEL_EMAIL, MessageType: types.MSG_GUEST_RECEIPT})
	assert.Equal(t, 1, primary.calls)
	assert.Equal(t, 0, fallback.calls)
}

func TestNoEmailProviderConfigured(t *testing.T) {
	store := newFakeStore()
	unconfigured := &fakeChannel{name: "ses", configured: false}
	o := orchestratorWith(store, []Channel{unconfigured}, []Channel{&fakeChannel{name: "sns", configured: false}})
	b, u := testBooking()

	summary, warnings := o.NotifyBookingCreated(context.Background(), b, u)
	assert.Equal(t, types.SEND_FAILED, summary.GuestEmail)
	assert.Equal(t, types.SEND_FAILED, summary.OwnerEmail)
	assert.Contains(t, warnings, "NO_EMAIL_PROVIDER_CONFIGURED")
	assert.Contains(t, warnings, "NO_SMS_PROVIDER_CONFIGURED")
	assert.Equal(t, 0, unconfigured.calls)

	// Deduplicated across the four sends.
	count := 0
	for _, w := range warnings {
		if w == "NO_EMAIL_PROVIDER_CONFIGURED" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestGuestSMSDisabledByFlag(t *testing.T) {
	store := newFakeStore()
	sms := &fakeChannel{name: "sns", configured: true, ok: true}
	o := NewWithDeps(store, []Channel{&fakeChannel{name: "ses", configured: true, ok: true}}, []Channel{sms}, "owner@example.com", "+491110000", false)
	b, u := testBooking()

	summary, _ := o.NotifyBookingCreated(context.Background(), b, u)
	assert.Equal(t, types.SEND_DISABLED, summary.GuestSms)
	assert.Equal(t, types.SEND_SENT, summary.OwnerSms)
}

func TestGuestSMSWithoutPhoneDisabled(t *testing.T) {
	store := newFakeStore()
	sms := &fakeChannel{name: "sns", configured: true, ok: true}
	o := orchestratorWith(store, []Channel{&fakeChannel{name: "ses", configured: true, ok: true}}, []Channel{sms})
	b, u := testBooking()
	b.GuestPhone = nil

	summary, _ := o.NotifyBookingCreated(context.Background(), b, u)
	assert.Equal(t, types.SEND_DISABLED, summary.GuestSms)
}

func TestStatusWriteFailureDoesNotFailSend(t *testing.T) {
	store := newFakeStore()
	store.failStatus = true
	ch := &fakeChannel{name: "ses", configured: true, ok: true}
	o := orchestratorWith(store, []Channel{ch}, nil)
	b, u := testBooking()

	status, _ := o.Send(context.Background(), SendRequest{Booking: b, Unit: u, Audience: types.AUDIENCE_GUEST, Channel: types.CHANNEL_EMAIL, MessageType: types.MSG_GUEST_RECEIPT})
	assert.Equal(t, types.SEND_SENT, status)
}

func TestConfirmedIsIdempotent(t *testing.T) {
	store := newFakeStore()
	ch := &fakeChannel{name: "ses", configured: true, ok: true}
	o := orchestratorWith(store, []Channel{ch}, nil)
	b, u := testBooking()

	status, _ := o.NotifyBookingConfirmed(context.Background(), b, u)
	assert.Equal(t, types.SEND_SENT, status)
	status, _ = o.NotifyBookingConfirmed(context.Background(), b, u)
	assert.Equal(t, types.SEND_SENT, status)
	assert.Equal(t, 1, ch.calls)
	assert.Len(t, store.logs, 1)
}
