package models

import (
	"time"

	"farmstay/src/types"
)

// BlockedDateRange is an exclusion window over a unit or a whole
// resource group. At least one of UnitID/ResourceGroup is set.
//
// End semantics depend on Source: admin ranges are inclusive both ends;
// system "hold" ranges written alongside a booking mirror the booking's
// exclusive-checkout convention for stays and cover the single day for
// events.
type BlockedDateRange struct {
	ID            uint              `gorm:"primarykey" json:"id"`
	UnitID        *uint             `gorm:"index" json:"unit_id,omitempty"`
	ResourceGroup *string           `gorm:"index" json:"resource_group,omitempty"`
	StartDate     time.Time         `json:"start_date"`
	EndDate       time.Time         `json:"end_date"`
	Reason        *string           `json:"reason,omitempty"`
	Source        types.RangeSource `gorm:"default:'admin'" json:"source"`
	BookingID     *uint             `gorm:"index" json:"booking_id,omitempty"`

	types.Timestamps
}

// InclusiveEnd reports whether EndDate itself is an occupied day.
func (r *BlockedDateRange) InclusiveEnd() bool {
	if r.Source != types.RANGE_SYSTEM {
		return true
	}
	// System event-holds are a single inclusive day; stay-holds keep the
	// checkout day free.
	return r.StartDate.Equal(r.EndDate)
}
