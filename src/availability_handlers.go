package main

import (
	"errors"
	"log"
	"net/http"
	"time"

	"farmstay/src/availability"
	"farmstay/src/db"
	"farmstay/src/models"
	"farmstay/src/types"
	"farmstay/src/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// Default calendar window when the caller omits the range.
const defaultCalendarDays = 120

// redactedBooking is the public shape of an existing booking on the
// calendar: occupancy only, no guest identity.
type redactedBooking struct {
	Status    types.BookingStatus `json:"status"`
	CheckIn   *string             `json:"checkIn,omitempty"`
	CheckOut  *string             `json:"checkOut,omitempty"`
	EventDate *string             `json:"eventDate,omitempty"`
	StartTime *string             `json:"startTime,omitempty"`
	EndTime   *string             `json:"endTime,omitempty"`
}

type redactedRange struct {
	StartDate string            `json:"startDate"`
	EndDate   string            `json:"endDate"`
	Source    types.RangeSource `json:"source"`
}

func availabilityHandlers(g *gin.RouterGroup, engine *availability.Engine) *gin.RouterGroup {
	g.GET("/units", func(ctx *gin.Context) {
		var units []models.Unit
		if err := db.GetDb().Order("id").Find(&units).Error; err != nil {
			log.Printf("Error listing units: %s\n", err.Error())
			utils.AbortWithError(ctx, http.StatusInternalServerError, types.ERR_DATABASE, "could not list units")
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"units": units})
	})

	g.GET("/units/:slug", func(ctx *gin.Context) {
		unit, ok := unitBySlug(ctx, ctx.Param("slug"))
		if !ok {
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"unit": unit})
	})

	g.GET("/availability", func(ctx *gin.Context) {
		unit, ok := unitBySlug(ctx, ctx.Query("unitSlug"))
		if !ok {
			return
		}

		from := availability.Day(time.Now())
		to := from.AddDate(0, 0, defaultCalendarDays)
		var err error
		if s := ctx.Query("from"); s != "" {
			if from, err = availability.ParseDay(s); err != nil {
				utils.AbortWithError(ctx, http.StatusBadRequest, types.ERR_VALIDATION, "from is not a valid date")
				return
			}
		}
		if s := ctx.Query("to"); s != "" {
			if to, err = availability.ParseDay(s); err != nil {
				utils.AbortWithError(ctx, http.StatusBadRequest, types.ERR_VALIDATION, "to is not a valid date")
				return
			}
		}
		if to.Before(from) {
			utils.AbortWithError(ctx, http.StatusBadRequest, types.ERR_VALIDATION, "to must not be before from")
			return
		}

		disabled, err := engine.DisabledDates(unit, from, to)
		if err != nil {
			log.Printf("Error computing availability for %s: %s\n", unit.Slug, err.Error())
			utils.AbortWithError(ctx, http.StatusInternalServerError, types.ERR_DATABASE, "could not compute availability")
			return
		}

		bookings, ranges, err := engine.Occupancy(nil, unit)
		if err != nil {
			log.Printf("Error loading occupancy for %s: %s\n", unit.Slug, err.Error())
			utils.AbortWithError(ctx, http.StatusInternalServerError, types.ERR_DATABASE, "could not compute availability")
			return
		}

		ctx.JSON(http.StatusOK, gin.H{
			"ok":            true,
			"unit":          unit.Slug,
			"from":          from.Format("2006-01-02"),
			"to":            to.Format("2006-01-02"),
			"disabledDates": disabled,
			"bookings":      redactBookings(bookings),
			"blockedRanges": redactRanges(ranges),
		})
	})
	return g
}

func unitBySlug(ctx *gin.Context, slug string) (*models.Unit, bool) {
	if slug == "" {
		utils.AbortWithError(ctx, http.StatusBadRequest, types.ERR_VALIDATION, "unitSlug is required")
		return nil, false
	}
	var unit models.Unit
	if err := db.GetDb().Where("slug = ?", slug).First(&unit).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.AbortWithError(ctx, http.StatusNotFound, types.ERR_UNIT_NOT_FOUND, "no such unit")
			return nil, false
		}
		log.Printf("Error resolving unit %s: %s\n", slug, err.Error())
		utils.AbortWithError(ctx, http.StatusInternalServerError, types.ERR_DATABASE, "could not resolve unit")
		return nil, false
	}
	return &unit, true
}

func redactBookings(in []*models.Booking) []redactedBooking {
	out := make([]redactedBooking, 0, len(in))
	for _, b := range in {
		rb := redactedBooking{
			Status:    b.Status,
			StartTime: b.StartTime,
			EndTime:   b.EndTime,
		}
		if b.CheckIn != nil {
			s := b.CheckIn.Format("2006-01-02")
			rb.CheckIn = &s
		}
		if b.CheckOut != nil {
			s := b.CheckOut.Format("2006-01-02")
			rb.CheckOut = &s
		}
		if b.EventDate != nil {
			s := b.EventDate.Format("2006-01-02")
			rb.EventDate = &s
		}
		out = append(out, rb)
	}
	return out
}

func redactRanges(in []*models.BlockedDateRange) []redactedRange {
	out := make([]redactedRange, 0, len(in))
	for _, r := range in {
		out = append(out, redactedRange{
			StartDate: r.StartDate.Format("2006-01-02"),
			EndDate:   r.EndDate.Format("2006-01-02"),
			Source:    r.Source,
		})
	}
	return out
}
