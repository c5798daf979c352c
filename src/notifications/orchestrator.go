// Package notifications delivers booking emails and SMS through
// provider fallback chains, records an audit row per attempt, and keeps
// the booking's denormalized per-recipient status fields current. Every
// branch is independently recovered so one channel's failure cannot
// suppress another's attempt, and no outcome here ever reverses a
// booking.
package notifications

import (
	"context"
	"log"
	"os"

	"farmstay/src/config"
	"farmstay/src/lib"
	"farmstay/src/models"
	"farmstay/src/types"

	"gorm.io/gorm"
)

type Orchestrator struct {
	store Store
	email []Channel
	sms   []Channel

	ownerEmail string
	ownerPhone string
	guestSMS   bool
}

func New(d *gorm.DB) *Orchestrator {
	return &Orchestrator{
		store:      NewStore(d),
		email:      DefaultEmailChain(),
		sms:        DefaultSMSChain(),
		ownerEmail: os.Getenv("OWNER_EMAIL"),
		ownerPhone: os.Getenv("OWNER_PHONE"),
		guestSMS:   config.GuestSMSEnabled(),
	}
}

// NewWithDeps is the injection constructor used by tests and the admin
// resend path.
func NewWithDeps(store Store, email, sms []Channel, ownerEmail, ownerPhone string, guestSMS bool) *Orchestrator {
	return &Orchestrator{
		store:      store,
		email:      email,
		sms:        sms,
		ownerEmail: ownerEmail,
		ownerPhone: ownerPhone,
		guestSMS:   guestSMS,
	}
}

type SendRequest struct {
	Booking     *models.Booking
	Unit        *models.Unit
	Audience    types.Audience
	Channel     types.Channel
	MessageType types.MessageType
	Force       bool
}

// Send runs one delivery attempt end to end: idempotency check,
// template render, chain dispatch, audit row, denormalized status
// update. It never returns an error; the outcome is the status value
// plus any configuration warnings.
func (o *Orchestrator) Send(ctx context.Context, req SendRequest) (types.SendStatus, []string) {
	b := req.Booking

	var recipient string
	switch {
	case req.Audience == types.AUDIENCE_GUEST && req.Channel == types.CHANNEL_EMAIL:
		recipient = b.GuestEmail
	case req.Audience == types.AUDIENCE_GUEST && req.Channel == types.CHANNEL_SMS:
		if !o.guestSMS && !req.Force {
			return types.SEND_DISABLED, nil
		}
		if b.GuestPhone != nil {
			recipient = *b.GuestPhone
		}
	case req.Audience == types.AUDIENCE_OWNER && req.Channel == types.CHANNEL_EMAIL:
		recipient = o.ownerEmail
	case req.Audience == types.AUDIENCE_OWNER && req.Channel == types.CHANNEL_SMS:
		recipient = o.ownerPhone
	}
	if recipient == "" {
		return types.SEND_DISABLED, nil
	}

	if !req.Force {
		sent, verified := o.store.AlreadySent(b.ID, req.Audience, req.Channel, req.MessageType)
		if sent {
			return types.SEND_SENT, nil
		}
		if !verified {
			log.Printf("Idempotency unverified for booking %d (%s/%s/%s); sending anyway\n", b.ID, req.Audience, req.Channel, req.MessageType)
		}
	}

	view := NewBookingView(b, req.Unit)
	msg := &Message{To: recipient, ReplyTo: b.GuestEmail}
	if req.Channel == types.CHANNEL_EMAIL {
		subject, html, text, ok := EmailContent(req.MessageType, view)
		if !ok {
			return types.SEND_NOT_SENT, nil
		}
		msg.Subject, msg.HTML, msg.Text = subject, html, text
		if req.Audience == types.AUDIENCE_GUEST {
			msg.ReplyTo = o.ownerEmail
		}
	} else {
		body, ok := SMSContent(req.MessageType, req.Audience, view)
		if !ok {
			return types.SEND_NOT_SENT, nil
		}
		msg.Body = body
	}

	result, warnings := o.dispatch(ctx, req.Channel, msg)

	status := types.SEND_FAILED
	if result.Ok {
		status = types.SEND_SENT
	}

	if result.Provider != "" {
		row := &models.NotificationLog{
			BookingID:   b.ID,
			Audience:    req.Audience,
			Channel:     req.Channel,
			MessageType: req.MessageType,
			Status:      status,
			Provider:    result.Provider,
		}
		if result.ProviderMessageID != "" {
			row.ProviderMessageID = &result.ProviderMessageID
		}
		if result.Error != "" {
			row.Error = &result.Error
		}
		if err := o.store.AppendLog(row); err != nil {
			log.Printf("Could not write notification log for booking %d: %s\n", b.ID, err.Error())
		}
	}

	var sendErr *string
	if !result.Ok && result.Error != "" {
		sendErr = &result.Error
	}
	if err := o.store.SetBookingSendStatus(b.ID, req.Audience, req.Channel, status, sendErr); err != nil {
		// A status-write failure is not a notification failure.
		log.Printf("Could not update %s/%s status for booking %d: %s\n", req.Audience, req.Channel, b.ID, err.Error())
	}

	return status, warnings
}

// dispatch walks the channel chain in order and stops at the first
// success. When no provider in the chain is configured at all, the
// result carries the distinguishable not-configured code so the caller
// can tell "we tried and failed" apart from "nothing is set up yet".
func (o *Orchestrator) dispatch(ctx context.Context, channel types.Channel, msg *Message) (result lib.SendResult, warnings []string) {
	chain := o.email
	notConfigured := lib.ErrCodeNoEmailProvider
	if channel == types.CHANNEL_SMS {
		chain = o.sms
		notConfigured = lib.ErrCodeNoSMSProvider
	}

	anyConfigured := false
	for _, c := range chain {
		if !c.Configured() {
			continue
		}
		anyConfigured = true
		res := func() (res lib.SendResult) {
			defer func() {
				if r := recover(); r != nil {
					log.Printf("Provider %s panicked: %v\n", c.Name(), r)
					res = lib.SendResult{Provider: c.Name(), ErrorCode: lib.ErrCodeSendFailed, Error: "provider panic"}
				}
			}()
			return c.Send(ctx, msg)
		}()
		result = res
		if res.Ok {
			return result, nil
		}
		if res.ErrorCode == lib.ErrCodeSMSFromInvalid {
			warnings = append(warnings, lib.ErrCodeSMSFromInvalid)
		}
		log.Printf("Provider %s failed (%s): %s\n", c.Name(), res.ErrorCode, res.Error)
	}
	if !anyConfigured {
		return lib.SendResult{ErrorCode: notConfigured, Error: "no provider configured"}, []string{notConfigured}
	}
	return result, warnings
}

// SendDirectEmail pushes an operational email (password resets and the
// like) through the email chain, bypassing booking idempotency and
// audit entirely.
func (o *Orchestrator) SendDirectEmail(ctx context.Context, to, subject, html, text string) (lib.SendResult, []string) {
	return o.dispatch(ctx, types.CHANNEL_EMAIL, &Message{To: to, Subject: subject, HTML: html, Text: text})
}

// NotifyBookingCreated fires the four creation-time sends in fixed
// order: guest receipt email, owner new-request email, owner SMS, guest
// SMS. Sends run sequentially within the request; warnings are
// deduplicated across the four.
func (o *Orchestrator) NotifyBookingCreated(ctx context.Context, b *models.Booking, u *models.Unit) (types.NotificationSummary, []string) {
	summary := types.NotificationSummary{
		GuestEmail: types.SEND_NOT_SENT,
		OwnerEmail: types.SEND_NOT_SENT,
		OwnerSms:   types.SEND_NOT_SENT,
		GuestSms:   types.SEND_NOT_SENT,
	}
	var all []string
	var w []string

	summary.GuestEmail, w = o.Send(ctx, SendRequest{Booking: b, Unit: u, Audience: types.AUDIENCE_GUEST, Channel: types.CHANNEL_EMAIL, MessageType: types.MSG_GUEST_RECEIPT})
	all = append(all, w...)
	summary.OwnerEmail, w = o.Send(ctx, SendRequest{Booking: b, Unit: u, Audience: types.AUDIENCE_OWNER, Channel: types.CHANNEL_EMAIL, MessageType: types.MSG_OWNER_NEW_REQUEST})
	all = append(all, w...)
	summary.OwnerSms, w = o.Send(ctx, SendRequest{Booking: b, Unit: u, Audience: types.AUDIENCE_OWNER, Channel: types.CHANNEL_SMS, MessageType: types.MSG_OWNER_NEW_REQUEST})
	all = append(all, w...)
	summary.GuestSms, w = o.Send(ctx, SendRequest{Booking: b, Unit: u, Audience: types.AUDIENCE_GUEST, Channel: types.CHANNEL_SMS, MessageType: types.MSG_GUEST_RECEIPT})
	all = append(all, w...)

	return summary, dedupe(all)
}

// NotifyBookingConfirmed fires the single guest-confirmation email on
// the pending to confirmed edge. Idempotent per booking, so repeated
// confirm clicks do not resend.
func (o *Orchestrator) NotifyBookingConfirmed(ctx context.Context, b *models.Booking, u *models.Unit) (types.SendStatus, []string) {
	status, warnings := o.Send(ctx, SendRequest{
		Booking:     b,
		Unit:        u,
		Audience:    types.AUDIENCE_GUEST,
		Channel:     types.CHANNEL_EMAIL,
		MessageType: types.MSG_GUEST_CONFIRMED,
	})
	return status, dedupe(warnings)
}

func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	var out []string
	for _, s := range in {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
