package types

import (
	"time"

	"gorm.io/gorm"
)

type Timestamps struct {
	CreatedAt time.Time      `gorm:"autoCreateTime:nano" json:"created_at,omitempty"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime:nano" json:"updated_at,omitempty"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty,omitnil"`
}

type UnitType string

const (
	UNIT_STAY  UnitType = "stay"
	UNIT_EVENT UnitType = "event"
)

type BookingStatus string

const (
	BOOKING_PENDING   BookingStatus = "pending"
	BOOKING_CONFIRMED BookingStatus = "confirmed"
	BOOKING_CANCELLED BookingStatus = "cancelled"
)

type SendStatus string

const (
	SEND_NOT_SENT SendStatus = "not_sent"
	SEND_SENT     SendStatus = "sent"
	SEND_FAILED   SendStatus = "failed"
	SEND_DISABLED SendStatus = "disabled"
)

type Audience string

const (
	AUDIENCE_OWNER Audience = "owner"
	AUDIENCE_GUEST Audience = "guest"
)

type Channel string

const (
	CHANNEL_EMAIL Channel = "email"
	CHANNEL_SMS   Channel = "sms"
)

type MessageType string

const (
	MSG_GUEST_RECEIPT     MessageType = "guest_receipt"
	MSG_GUEST_CONFIRMED   MessageType = "guest_confirmed"
	MSG_OWNER_NEW_REQUEST MessageType = "owner_new_request"
)

type RangeSource string

const (
	RANGE_ADMIN  RangeSource = "admin"
	RANGE_SYSTEM RangeSource = "system"
)

// Error codes returned in the errorCode field of failure responses.
const (
	ERR_VALIDATION     = "VALIDATION"
	ERR_UNIT_NOT_FOUND = "UNIT_NOT_FOUND"
	ERR_OVERLAP        = "OVERLAP"
	ERR_RATE_LIMIT     = "RATE_LIMIT"
	ERR_SCHEMA         = "SCHEMA_MISMATCH"
	ERR_SPAM           = "SPAM_DETECTED"
	ERR_INVALID_JSON   = "INVALID_JSON"
	ERR_DATABASE       = "DATABASE_ERROR"
	ERR_INTERNAL       = "INTERNAL_ERROR"
)

type CreateBookingRequestBody struct {
	UnitSlug  string  `json:"unitSlug,omitempty"`
	UnitID    uint    `json:"unitId,omitempty"`
	Name      string  `json:"name" binding:"required,max=120"`
	Email     string  `json:"email" binding:"required,email,max=254"`
	Phone     *string `json:"phone,omitempty" binding:"omitempty,max=32"`
	CheckIn   *string `json:"checkIn,omitempty" binding:"omitempty,isodate"`
	CheckOut  *string `json:"checkOut,omitempty" binding:"omitempty,isodate"`
	Guests    *uint   `json:"guests,omitempty"`
	EventDate *string `json:"eventDate,omitempty" binding:"omitempty,isodate"`
	StartTime *string `json:"startTime,omitempty" binding:"omitempty,clocktime"`
	EndTime   *string `json:"endTime,omitempty" binding:"omitempty,clocktime"`
	EventType *string `json:"eventType,omitempty" binding:"omitempty,max=80"`
	Notes     *string `json:"notes,omitempty" binding:"omitempty,max=2000"`
	Honey     string  `json:"honey,omitempty"`
}

type UpdateBookingStatusRequestBody struct {
	Status BookingStatus `json:"status" binding:"required,oneof=confirmed cancelled"`
}

type ResendRequestBody struct {
	Audience    Audience    `json:"audience" binding:"required,oneof=owner guest"`
	Channel     Channel     `json:"channel" binding:"required,oneof=email sms"`
	MessageType MessageType `json:"messageType" binding:"required,oneof=guest_receipt guest_confirmed owner_new_request"`
	Force       bool        `json:"force,omitempty"`
}

type CreateBlockedRangeRequestBody struct {
	UnitSlug      string  `json:"unitSlug,omitempty"`
	ResourceGroup *string `json:"resourceGroup,omitempty"`
	StartDate     string  `json:"startDate" binding:"required,isodate"`
	EndDate       string  `json:"endDate" binding:"required,isodate"`
	Reason        *string `json:"reason,omitempty" binding:"omitempty,max=500"`
}

type CreateUnitRequestBody struct {
	Name          string   `json:"name" binding:"required,max=120"`
	Type          UnitType `json:"type" binding:"required,oneof=stay event"`
	SleepsUpTo    *uint    `json:"sleepsUpTo,omitempty"`
	ResourceGroup *string  `json:"resourceGroup,omitempty" binding:"omitempty,max=80"`
}

type AdminLoginRequestBody struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type PasswordResetRequestBody struct {
	Email string `json:"email" binding:"required,email"`
}

type PasswordResetConfirmBody struct {
	Email       string `json:"email" binding:"required,email"`
	Token       string `json:"token" binding:"required"`
	NewPassword string `json:"newPassword" binding:"required,min=10"`
}

type SimpleRequestParams struct {
	ID uint `uri:"id" binding:"required"`
}

// NotificationSummary is the per-channel outcome map echoed on booking
// creation and admin resends.
type NotificationSummary struct {
	GuestEmail SendStatus `json:"guestEmail"`
	OwnerEmail SendStatus `json:"ownerEmail"`
	OwnerSms   SendStatus `json:"ownerSms"`
	GuestSms   SendStatus `json:"guestSms"`
}

type ErrorResponse struct {
	Ok          bool              `json:"ok"`
	ErrorCode   string            `json:"errorCode"`
	Message     string            `json:"message"`
	RequestID   string            `json:"requestId"`
	FieldErrors map[string]string `json:"fieldErrors,omitempty"`
}

type CreateBookingResponse struct {
	Ok                 bool                `json:"ok"`
	BookingID          uint                `json:"bookingId"`
	RequestID          string              `json:"requestId"`
	Notifications      NotificationSummary `json:"notifications"`
	Warnings           []string            `json:"warnings,omitempty"`
	NotificationStatus string              `json:"notificationStatus"`
}
