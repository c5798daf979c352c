package notifications

import (
	"errors"
	"log"

	"farmstay/src/db"
	"farmstay/src/models"
	"farmstay/src/types"

	"gorm.io/gorm"
)

// Store separates the orchestrator's primary outcome (did the provider
// accept the message) from its side effects (audit log, denormalized
// status fields), which are all best-effort.
type Store interface {
	// AlreadySent reports whether a sent row exists for the key. The
	// second return is false when the log table is unavailable and the
	// answer could not be verified; the caller then proceeds, accepting
	// the possibility of a duplicate send in that degraded mode.
	AlreadySent(bookingID uint, audience types.Audience, channel types.Channel, msgType types.MessageType) (sent bool, verified bool)
	AppendLog(row *models.NotificationLog) error
	SetBookingSendStatus(bookingID uint, audience types.Audience, channel types.Channel, status types.SendStatus, sendErr *string) error
}

type gormStore struct {
	db *gorm.DB
}

func NewStore(d *gorm.DB) Store {
	return &gormStore{db: d}
}

func (s *gormStore) AlreadySent(bookingID uint, audience types.Audience, channel types.Channel, msgType types.MessageType) (bool, bool) {
	if !db.Caps(s.db).NotificationLogTable {
		return false, false
	}
	var row models.NotificationLog
	err := s.db.
		Model(&models.NotificationLog{}).
		Where(&models.NotificationLog{
			BookingID:   bookingID,
			Audience:    audience,
			Channel:     channel,
			MessageType: msgType,
			Status:      types.SEND_SENT,
		}).
		First(&row).
		Error
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			log.Printf("Could not verify idempotency for booking %d: %s\n", bookingID, err.Error())
			return false, false
		}
		return false, true
	}
	return true, true
}

func (s *gormStore) AppendLog(row *models.NotificationLog) error {
	if !db.Caps(s.db).NotificationLogTable {
		log.Printf("notification_logs table absent; skipping audit row for booking %d\n", row.BookingID)
		return nil
	}
	return s.db.Create(row).Error
}

func (s *gormStore) SetBookingSendStatus(bookingID uint, audience types.Audience, channel types.Channel, status types.SendStatus, sendErr *string) error {
	updates := map[string]any{statusColumn(audience, channel): status}
	if sendErr != nil {
		updates["notify_error"] = *sendErr
	}
	return s.db.
		Model(&models.Booking{}).
		Where("id = ?", bookingID).
		Updates(updates).
		Error
}

func statusColumn(audience types.Audience, channel types.Channel) string {
	switch {
	case audience == types.AUDIENCE_OWNER && channel == types.CHANNEL_EMAIL:
		return "owner_email_status"
	case audience == types.AUDIENCE_OWNER && channel == types.CHANNEL_SMS:
		return "owner_sms_status"
	case audience == types.AUDIENCE_GUEST && channel == types.CHANNEL_SMS:
		return "guest_sms_status"
	default:
		return "guest_email_status"
	}
}
