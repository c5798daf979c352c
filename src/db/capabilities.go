package db

import (
	"log"
	"strings"
	"sync"

	"gorm.io/gorm"
)

// Capabilities records which optional tables and columns the deployed
// schema actually has. Older deployments may lack the notification_logs
// table and the newer booking/blocked-range columns; writers consult
// the probe once and pick a reduced column set instead of failing the
// request.
type Capabilities struct {
	NotificationLogTable bool
	BookingEventColumns  bool
	BookingNotesColumn   bool
	HoldBookingIDColumn  bool
}

var (
	caps     Capabilities
	capsOnce sync.Once
)

// Caps probes the schema on first use and caches the result for the
// process lifetime.
func Caps(d *gorm.DB) Capabilities {
	capsOnce.Do(func() {
		m := d.Migrator()
		caps = Capabilities{
			NotificationLogTable: m.HasTable("notification_logs"),
			BookingEventColumns: m.HasColumn("bookings", "event_date") &&
				m.HasColumn("bookings", "start_time") &&
				m.HasColumn("bookings", "end_time") &&
				m.HasColumn("bookings", "event_type"),
			BookingNotesColumn:  m.HasColumn("bookings", "notes"),
			HoldBookingIDColumn: m.HasColumn("blocked_date_ranges", "booking_id"),
		}
		log.Printf("Schema capabilities: %+v\n", caps)
	})
	return caps
}

// ResetCaps clears the cached probe. Test hook.
func ResetCaps() {
	capsOnce = sync.Once{}
}

// IsUnknownColumnErr classifies driver errors caused by writing a column
// the deployed schema does not have. Anything in this class surfaces as
// SCHEMA_MISMATCH rather than a generic database error.
func IsUnknownColumnErr(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unknown column") ||
		strings.Contains(msg, "does not exist") && strings.Contains(msg, "column") ||
		strings.Contains(msg, "undefined column")
}
