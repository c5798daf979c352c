package models

import "farmstay/src/types"

// Unit is a bookable physical thing: a stay cottage or an event venue.
// Units sharing a ResourceGroup tag share physical availability.
type Unit struct {
	ID            uint           `gorm:"primarykey" json:"id"`
	Slug          string         `gorm:"uniqueIndex" json:"slug"`
	Name          string         `json:"name"`
	Type          types.UnitType `json:"type"`
	SleepsUpTo    *uint          `json:"sleeps_up_to,omitempty"`
	ResourceGroup *string        `gorm:"index" json:"resource_group,omitempty"`

	types.Timestamps
}
