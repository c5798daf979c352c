package models

import (
	"time"

	"farmstay/src/types"
)

// Booking is a reservation request against one unit. Exactly one of
// (CheckIn, CheckOut) or EventDate is populated, matching the unit type.
// CheckOut is exclusive: the night of CheckOut is free.
type Booking struct {
	ID         uint                `gorm:"primarykey" json:"id"`
	UnitID     uint                `gorm:"index" json:"unit_id"`
	Status     types.BookingStatus `gorm:"default:'pending'" json:"status"`
	GuestName  string              `json:"guest_name"`
	GuestEmail string              `json:"guest_email"`
	GuestPhone *string             `json:"guest_phone,omitempty"`

	CheckIn  *time.Time `json:"check_in,omitempty"`
	CheckOut *time.Time `json:"check_out,omitempty"`

	EventDate *time.Time `json:"event_date,omitempty"`
	StartTime *string    `json:"start_time,omitempty"`
	EndTime   *string    `json:"end_time,omitempty"`
	EventType *string    `json:"event_type,omitempty"`

	Guests *uint   `json:"guests,omitempty"`
	Notes  *string `json:"notes,omitempty"`

	OwnerEmailStatus types.SendStatus `gorm:"default:'not_sent'" json:"owner_email_status"`
	OwnerSmsStatus   types.SendStatus `gorm:"default:'not_sent'" json:"owner_sms_status"`
	GuestEmailStatus types.SendStatus `gorm:"default:'not_sent'" json:"guest_email_status"`
	GuestSmsStatus   types.SendStatus `gorm:"default:'not_sent'" json:"guest_sms_status"`
	NotifyError      *string          `json:"notify_error,omitempty"`

	Unit *Unit `gorm:"foreignKey:unit_id" json:"unit,omitempty"`

	types.Timestamps
}

// IsStay reports whether the booking carries the stay date shape.
func (b *Booking) IsStay() bool {
	return b.CheckIn != nil && b.CheckOut != nil
}
