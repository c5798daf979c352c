package scopes

import (
	"farmstay/src/types"

	"gorm.io/gorm"
)

func WithID(id uint) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("id = ?", id)
	}
}

func WithStatus(status types.BookingStatus) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("status = ?", status)
	}
}

// Occupying selects the bookings that block a calendar: a pending
// request holds its dates just like a confirmed one.
func Occupying(db *gorm.DB) *gorm.DB {
	return db.Where("status IN (?)", []types.BookingStatus{types.BOOKING_PENDING, types.BOOKING_CONFIRMED})
}
