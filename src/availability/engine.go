// Package availability decides which days a unit can be booked and
// whether a candidate booking collides with persisted state. All checks
// expand to every unit sharing the unit's resource group before
// querying, so a booking on one unit blocks its siblings.
package availability

import (
	"log"
	"sort"
	"strconv"
	"strings"
	"time"

	"farmstay/src/config"
	"farmstay/src/models"
	"farmstay/src/models/scopes"

	"gorm.io/gorm"
)

type Engine struct {
	db *gorm.DB
	// now is injectable so tests can pin "today".
	now func() time.Time
}

func New(d *gorm.DB) *Engine {
	return &Engine{db: d, now: time.Now}
}

// Candidate is a proposed booking reduced to its occupancy shape.
type Candidate struct {
	CheckIn   *time.Time
	CheckOut  *time.Time
	EventDate *time.Time
	StartTime *string
	EndTime   *string
}

// Day truncates t to its calendar day in UTC.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDay parses a wire-format calendar date.
func ParseDay(s string) (time.Time, error) {
	return time.Parse(config.DATE_PARSE_FORMAT, s)
}

// staysOverlap is the half-open interval test: back-to-back stays where
// one checks out the morning the other checks in do not overlap.
func staysOverlap(aIn, aOut, bIn, bOut time.Time) bool {
	return aIn.Before(bOut) && aOut.After(bIn)
}

// minutesOfDay converts "HH:MM" to minutes since midnight.
func minutesOfDay(s string) (int, bool) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, false
	}
	h, err1 := strconv.Atoi(parts[0])
	m, err2 := strconv.Atoi(parts[1])
	if err1 != nil || err2 != nil || h < 0 || h > 23 || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

// timesOverlap compares two same-day time slots. If either side lacks a
// complete start/end pair the whole day is treated as occupied.
func timesOverlap(aStart, aEnd, bStart, bEnd *string) bool {
	if aStart == nil || aEnd == nil || bStart == nil || bEnd == nil {
		return true
	}
	as, ok1 := minutesOfDay(*aStart)
	ae, ok2 := minutesOfDay(*aEnd)
	bs, ok3 := minutesOfDay(*bStart)
	be, ok4 := minutesOfDay(*bEnd)
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return true
	}
	return as < be && ae > bs
}

// bookingConflicts tests a candidate against one existing pending or
// confirmed booking.
func bookingConflicts(cand Candidate, existing *models.Booking) bool {
	if cand.CheckIn != nil && cand.CheckOut != nil {
		if existing.CheckIn != nil && existing.CheckOut != nil {
			return staysOverlap(*cand.CheckIn, *cand.CheckOut, *existing.CheckIn, *existing.CheckOut)
		}
		if existing.EventDate != nil {
			// An event day inside the stay window blocks it.
			d := Day(*existing.EventDate)
			return !d.Before(Day(*cand.CheckIn)) && d.Before(Day(*cand.CheckOut))
		}
		return false
	}
	if cand.EventDate != nil {
		if existing.EventDate != nil {
			if !Day(*cand.EventDate).Equal(Day(*existing.EventDate)) {
				return false
			}
			return timesOverlap(cand.StartTime, cand.EndTime, existing.StartTime, existing.EndTime)
		}
		if existing.CheckIn != nil && existing.CheckOut != nil {
			d := Day(*cand.EventDate)
			return !d.Before(Day(*existing.CheckIn)) && d.Before(Day(*existing.CheckOut))
		}
	}
	return false
}

// rangeConflicts tests a candidate against one blocked range.
func rangeConflicts(cand Candidate, r *models.BlockedDateRange) bool {
	if cand.CheckIn != nil && cand.CheckOut != nil {
		return r.StartDate.Before(*cand.CheckOut) && r.EndDate.After(*cand.CheckIn)
	}
	if cand.EventDate != nil {
		d := Day(*cand.EventDate)
		return !d.Before(Day(r.StartDate)) && !d.After(Day(r.EndDate))
	}
	return false
}

// rangeCoversDay applies the per-source end semantics for the calendar
// view: admin ranges include their end day, system stay-holds keep the
// checkout day free.
func rangeCoversDay(r *models.BlockedDateRange, d time.Time) bool {
	if d.Before(Day(r.StartDate)) {
		return false
	}
	if r.InclusiveEnd() {
		return !d.After(Day(r.EndDate))
	}
	return d.Before(Day(r.EndDate))
}

// bookingCoversDay marks the whole event day disabled for the calendar
// even when only a time slot is booked; fine-grained time overlap is
// admission-only.
func bookingCoversDay(b *models.Booking, d time.Time) bool {
	if b.CheckIn != nil && b.CheckOut != nil {
		return !d.Before(Day(*b.CheckIn)) && d.Before(Day(*b.CheckOut))
	}
	if b.EventDate != nil {
		return d.Equal(Day(*b.EventDate))
	}
	return false
}

// GroupUnitIDs resolves every unit id sharing the unit's resource
// group, the unit itself included.
func GroupUnitIDs(tx *gorm.DB, unit *models.Unit) ([]uint, error) {
	if unit.ResourceGroup == nil || *unit.ResourceGroup == "" {
		return []uint{unit.ID}, nil
	}
	var ids []uint
	err := tx.
		Model(&models.Unit{}).
		Where("resource_group = ?", *unit.ResourceGroup).
		Order("id").
		Pluck("id", &ids).
		Error
	if err != nil {
		return nil, err
	}
	found := false
	for _, id := range ids {
		if id == unit.ID {
			found = true
			break
		}
	}
	if !found {
		ids = append(ids, unit.ID)
	}
	return ids, nil
}

func (e *Engine) loadOccupancy(tx *gorm.DB, unit *models.Unit) ([]*models.Booking, []*models.BlockedDateRange, error) {
	ids, err := GroupUnitIDs(tx, unit)
	if err != nil {
		return nil, nil, err
	}
	var bookings []*models.Booking
	err = tx.
		Model(&models.Booking{}).
		Scopes(scopes.Occupying).
		Where("unit_id IN (?)", ids).
		Find(&bookings).
		Error
	if err != nil {
		return nil, nil, err
	}
	var ranges []*models.BlockedDateRange
	q := tx.Model(&models.BlockedDateRange{})
	if unit.ResourceGroup != nil && *unit.ResourceGroup != "" {
		q = q.Where("unit_id IN (?) OR resource_group = ?", ids, *unit.ResourceGroup)
	} else {
		q = q.Where("unit_id IN (?)", ids)
	}
	if err := q.Find(&ranges).Error; err != nil {
		return nil, nil, err
	}
	return bookings, ranges, nil
}

// Occupancy returns the pending/confirmed bookings and blocked ranges
// visible to the unit across its resource group. A nil tx reads from
// the engine's own handle.
func (e *Engine) Occupancy(tx *gorm.DB, unit *models.Unit) ([]*models.Booking, []*models.BlockedDateRange, error) {
	if tx == nil {
		tx = e.db
	}
	return e.loadOccupancy(tx, unit)
}

// DisabledDates returns every calendar day in [from, to) that is
// unavailable for the unit: occupancy from pending/confirmed bookings
// across the resource group, blocked ranges, and all days before today.
// Set semantics; output is sorted wire-format dates.
func (e *Engine) DisabledDates(unit *models.Unit, from, to time.Time) ([]string, error) {
	bookings, ranges, err := e.loadOccupancy(e.db, unit)
	if err != nil {
		return nil, err
	}
	today := Day(e.now())
	disabled := map[string]struct{}{}
	for d := Day(from); d.Before(Day(to)); d = d.AddDate(0, 0, 1) {
		if d.Before(today) {
			disabled[d.Format(config.DATE_PARSE_FORMAT)] = struct{}{}
			continue
		}
		covered := false
		for _, b := range bookings {
			if bookingCoversDay(b, d) {
				covered = true
				break
			}
		}
		if !covered {
			for _, r := range ranges {
				if rangeCoversDay(r, d) {
					covered = true
					break
				}
			}
		}
		if covered {
			disabled[d.Format(config.DATE_PARSE_FORMAT)] = struct{}{}
		}
	}
	out := make([]string, 0, len(disabled))
	for d := range disabled {
		out = append(out, d)
	}
	sort.Strings(out)
	return out, nil
}

// HasOverlap is the admission-time check, stricter than the calendar
// view. It runs against the supplied handle so callers can re-check
// inside their own transaction. On any data-access failure it fails
// OPEN: a transient read error must not refuse availability outright,
// at the accepted risk of admitting a double booking.
func (e *Engine) HasOverlap(tx *gorm.DB, unit *models.Unit, cand Candidate) bool {
	if tx == nil {
		tx = e.db
	}
	bookings, ranges, err := e.loadOccupancy(tx, unit)
	if err != nil {
		log.Printf("Overlap check failed open for unit %s: %s\n", unit.Slug, err.Error())
		return false
	}
	for _, b := range bookings {
		if bookingConflicts(cand, b) {
			return true
		}
	}
	for _, r := range ranges {
		if rangeConflicts(cand, r) {
			return true
		}
	}
	return false
}
