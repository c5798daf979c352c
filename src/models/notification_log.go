package models

import (
	"time"

	"farmstay/src/types"
)

// NotificationLog is the append-only audit trail of delivery attempts,
// one row per attempt. Rows are never updated or deleted. The table may
// be absent on older schema deployments; writers treat absence as a
// soft failure (see db.Caps).
type NotificationLog struct {
	ID                uint              `gorm:"primarykey" json:"id"`
	BookingID         uint              `gorm:"index" json:"booking_id"`
	Audience          types.Audience    `json:"audience"`
	Channel           types.Channel     `json:"channel"`
	MessageType       types.MessageType `json:"message_type"`
	Status            types.SendStatus  `json:"status"`
	Provider          string            `json:"provider"`
	ProviderMessageID *string           `json:"provider_message_id,omitempty"`
	Error             *string           `json:"error,omitempty"`
	CreatedAt         time.Time         `gorm:"autoCreateTime:nano" json:"created_at"`
}
