package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"farmstay/src/availability"
	"farmstay/src/db"
	"farmstay/src/models"
	"farmstay/src/notifications"
	"farmstay/src/ratelimit"
	"farmstay/src/types"
	"farmstay/src/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	errOverlap        = errors.New("requested dates overlap an existing booking or blocked range")
	errSchemaMismatch = errors.New("deployed schema is missing a required column")
)

// admission is the validated, normalized form of a submission, ready
// for the transactional commit.
type admission struct {
	unit models.Unit
	cand availability.Candidate
	body types.CreateBookingRequestBody
}

func bookingHandlers(g *gin.RouterGroup, engine *availability.Engine, limiter ratelimit.Limiter, orch *notifications.Orchestrator) *gin.RouterGroup {
	g.POST("/bookings", func(ctx *gin.Context) {
		var body types.CreateBookingRequestBody
		if err := ctx.ShouldBindJSON(&body); err != nil {
			if _, ok := err.(validator.ValidationErrors); ok {
				utils.AbortWithFieldErrors(ctx, types.ERR_VALIDATION, "invalid booking payload", err)
				return
			}
			utils.AbortWithError(ctx, http.StatusBadRequest, types.ERR_INVALID_JSON, "request body is not valid JSON")
			return
		}
		// Honeypot: real guests never fill this field.
		if body.Honey != "" {
			utils.AbortWithError(ctx, http.StatusBadRequest, types.ERR_SPAM, "submission rejected")
			return
		}

		d := db.GetDb()
		var unit models.Unit
		q := d.Model(&models.Unit{})
		switch {
		case body.UnitSlug != "":
			q = q.Where("slug = ?", body.UnitSlug)
		case body.UnitID != 0:
			q = q.Where("id = ?", body.UnitID)
		default:
			utils.AbortWithError(ctx, http.StatusBadRequest, types.ERR_VALIDATION, "unitSlug or unitId is required")
			return
		}
		if err := q.First(&unit).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				utils.AbortWithError(ctx, http.StatusNotFound, types.ERR_UNIT_NOT_FOUND, "no such unit")
				return
			}
			log.Printf("Error resolving unit: %s\n", err.Error())
			utils.AbortWithError(ctx, http.StatusInternalServerError, types.ERR_DATABASE, "could not resolve unit")
			return
		}

		adm, errCode, errMsg := validateSubmission(&unit, body)
		if errCode != "" {
			utils.AbortWithError(ctx, http.StatusBadRequest, errCode, errMsg)
			return
		}

		// Advisory pre-check outside the transaction for a fast reject;
		// the locked re-check below is the real guard.
		if engine.HasOverlap(nil, &unit, adm.cand) {
			utils.AbortWithError(ctx, http.StatusConflict, types.ERR_OVERLAP, "requested dates are no longer available")
			return
		}

		// Rate limiting applies only after validation and overlap pass,
		// so a rejected request never consumes quota.
		clientKey := utils.ClientKey(ctx)
		if !limiter.Allow(clientKey) {
			utils.AbortWithError(ctx, http.StatusTooManyRequests, types.ERR_RATE_LIMIT, "too many booking requests, try again shortly")
			return
		}

		booking, err := commitAdmission(d, engine, adm)
		if err != nil {
			switch {
			case errors.Is(err, errOverlap):
				utils.AbortWithError(ctx, http.StatusConflict, types.ERR_OVERLAP, "requested dates are no longer available")
			case errors.Is(err, errSchemaMismatch):
				utils.AbortWithError(ctx, http.StatusInternalServerError, types.ERR_SCHEMA, "deployed schema cannot store this booking")
			default:
				log.Printf("Error committing booking [%s]: %s\n", utils.RequestID(ctx), err.Error())
				utils.AbortWithError(ctx, http.StatusInternalServerError, types.ERR_DATABASE, "could not store booking")
			}
			return
		}

		// Success-only accounting.
		limiter.Record(clientKey)

		// Best-effort from here: the committed row is the source of
		// truth regardless of notification outcome.
		summary, warnings := orch.NotifyBookingCreated(ctx, booking, &unit)

		ctx.JSON(http.StatusOK, types.CreateBookingResponse{
			Ok:                 true,
			BookingID:          booking.ID,
			RequestID:          utils.RequestID(ctx),
			Notifications:      summary,
			Warnings:           warnings,
			NotificationStatus: summarizeNotifications(summary),
		})
	})
	return g
}

// validateSubmission enforces the per-unit-type field rules and
// normalizes stay dates (missing or out-of-order checkOut becomes a
// single night). Returns an error code and message on rejection.
func validateSubmission(unit *models.Unit, body types.CreateBookingRequestBody) (admission, string, string) {
	adm := admission{unit: *unit, body: body}

	switch unit.Type {
	case types.UNIT_STAY:
		if body.EventDate != nil {
			return adm, types.ERR_VALIDATION, "eventDate is not valid for a stay unit"
		}
		if body.CheckIn == nil {
			return adm, types.ERR_VALIDATION, "checkIn is required for a stay"
		}
		checkIn, err := availability.ParseDay(*body.CheckIn)
		if err != nil {
			return adm, types.ERR_VALIDATION, "checkIn is not a valid date"
		}
		var checkOut time.Time
		if body.CheckOut != nil {
			checkOut, err = availability.ParseDay(*body.CheckOut)
			if err != nil {
				return adm, types.ERR_VALIDATION, "checkOut is not a valid date"
			}
		}
		// Single-night default, applied before any overlap testing so
		// admission always sees a well-formed half-open range.
		if body.CheckOut == nil || !checkOut.After(checkIn) {
			checkOut = checkIn.AddDate(0, 0, 1)
		}
		adm.cand = availability.Candidate{CheckIn: &checkIn, CheckOut: &checkOut}
		if body.Guests != nil {
			if *body.Guests < 1 {
				return adm, types.ERR_VALIDATION, "guests must be at least 1"
			}
			if unit.SleepsUpTo != nil && *body.Guests > *unit.SleepsUpTo {
				return adm, types.ERR_VALIDATION, fmt.Sprintf("%s sleeps up to %d guests", unit.Name, *unit.SleepsUpTo)
			}
		}
	case types.UNIT_EVENT:
		if body.CheckIn != nil || body.CheckOut != nil {
			return adm, types.ERR_VALIDATION, "checkIn/checkOut are not valid for an event unit"
		}
		if body.EventDate == nil {
			return adm, types.ERR_VALIDATION, "eventDate is required for an event"
		}
		eventDate, err := availability.ParseDay(*body.EventDate)
		if err != nil {
			return adm, types.ERR_VALIDATION, "eventDate is not a valid date"
		}
		if (body.StartTime == nil) != (body.EndTime == nil) {
			return adm, types.ERR_VALIDATION, "startTime and endTime must be given together"
		}
		if body.StartTime != nil && *body.EndTime <= *body.StartTime {
			return adm, types.ERR_VALIDATION, "endTime must be after startTime"
		}
		adm.cand = availability.Candidate{EventDate: &eventDate, StartTime: body.StartTime, EndTime: body.EndTime}
		if body.Guests != nil && *body.Guests < 1 {
			return adm, types.ERR_VALIDATION, "guests must be at least 1"
		}
	default:
		return adm, types.ERR_VALIDATION, "unit has an unknown type"
	}
	return adm, "", ""
}

// commitAdmission re-validates overlap and persists the booking plus
// its hold range atomically. The unit rows of the whole resource group
// are locked in id order, so two near-simultaneous submissions for the
// same resource serialize here instead of racing between pre-check and
// commit.
func commitAdmission(d *gorm.DB, engine *availability.Engine, adm admission) (*models.Booking, error) {
	var booking models.Booking
	err := d.Transaction(func(tx *gorm.DB) error {
		lockQ := tx.
			Clauses(clause.Locking{Strength: "UPDATE"}).
			Model(&models.Unit{}).
			Order("id")
		if adm.unit.ResourceGroup != nil && *adm.unit.ResourceGroup != "" {
			lockQ = lockQ.Where("resource_group = ? OR id = ?", *adm.unit.ResourceGroup, adm.unit.ID)
		} else {
			lockQ = lockQ.Where("id = ?", adm.unit.ID)
		}
		var lockedIDs []uint
		if err := lockQ.Pluck("id", &lockedIDs).Error; err != nil {
			return err
		}

		if engine.HasOverlap(tx, &adm.unit, adm.cand) {
			return errOverlap
		}

		booking = models.Booking{
			UnitID:           adm.unit.ID,
			Status:           types.BOOKING_PENDING,
			GuestName:        adm.body.Name,
			GuestEmail:       adm.body.Email,
			GuestPhone:       adm.body.Phone,
			CheckIn:          adm.cand.CheckIn,
			CheckOut:         adm.cand.CheckOut,
			EventDate:        adm.cand.EventDate,
			StartTime:        adm.body.StartTime,
			EndTime:          adm.body.EndTime,
			EventType:        adm.body.EventType,
			Guests:           adm.body.Guests,
			Notes:            adm.body.Notes,
			OwnerEmailStatus: types.SEND_NOT_SENT,
			OwnerSmsStatus:   types.SEND_NOT_SENT,
			GuestEmailStatus: types.SEND_NOT_SENT,
			GuestSmsStatus:   types.SEND_NOT_SENT,
		}

		caps := db.Caps(tx)
		var omit []string
		if !caps.BookingEventColumns {
			if adm.cand.EventDate != nil {
				// The write cannot proceed without the event columns.
				return errSchemaMismatch
			}
			omit = append(omit, "EventDate", "StartTime", "EndTime", "EventType")
		}
		if !caps.BookingNotesColumn {
			omit = append(omit, "Notes")
		}
		createQ := tx
		if len(omit) > 0 {
			log.Printf("Reduced booking column set in effect; omitting %v\n", omit)
			createQ = createQ.Omit(omit...)
		}
		if err := createQ.Create(&booking).Error; err != nil {
			if db.IsUnknownColumnErr(err) {
				return errSchemaMismatch
			}
			return err
		}

		// The hold is defense-in-depth: its insert failing never rolls
		// back the booking.
		hold := holdRange(&adm.unit, &booking)
		holdQ := tx
		if !caps.HoldBookingIDColumn {
			holdQ = holdQ.Omit("BookingID")
		}
		if err := holdQ.Create(hold).Error; err != nil {
			log.Printf("Could not write hold range for booking %d: %s\n", booking.ID, err.Error())
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &booking, nil
}

// holdRange derives the system hold covering the booking's occupancy
// window, carrying the resource group so siblings are protected too.
func holdRange(unit *models.Unit, b *models.Booking) *models.BlockedDateRange {
	reason := fmt.Sprintf("hold for booking #%d", b.ID)
	hold := &models.BlockedDateRange{
		UnitID:        &unit.ID,
		ResourceGroup: unit.ResourceGroup,
		Reason:        &reason,
		Source:        types.RANGE_SYSTEM,
		BookingID:     &b.ID,
	}
	if b.CheckIn != nil && b.CheckOut != nil {
		hold.StartDate = *b.CheckIn
		hold.EndDate = *b.CheckOut
	} else if b.EventDate != nil {
		hold.StartDate = *b.EventDate
		hold.EndDate = *b.EventDate
	}
	return hold
}

func summarizeNotifications(s types.NotificationSummary) string {
	sent, failed := 0, 0
	for _, st := range []types.SendStatus{s.GuestEmail, s.OwnerEmail, s.OwnerSms, s.GuestSms} {
		switch st {
		case types.SEND_SENT:
			sent++
		case types.SEND_FAILED:
			failed++
		}
	}
	switch {
	case failed == 0 && sent > 0:
		return "all_sent"
	case sent > 0:
		return "partial"
	default:
		return "none_sent"
	}
}
