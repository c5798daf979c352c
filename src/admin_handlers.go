package main

import (
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"farmstay/src/config"
	"farmstay/src/db"
	"farmstay/src/middlewares"
	"farmstay/src/models"
	"farmstay/src/models/scopes"
	"farmstay/src/notifications"
	"farmstay/src/types"
	"farmstay/src/utils"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/gosimple/slug"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	sessionTTL    = 24 * time.Hour
	resetTokenTTL = time.Hour
)

func adminAuthHandlers(g *gin.RouterGroup, orch *notifications.Orchestrator) *gin.RouterGroup {
	g.POST("/login", func(ctx *gin.Context) {
		var body types.AdminLoginRequestBody
		if err := ctx.ShouldBindJSON(&body); err != nil {
			utils.AbortWithError(ctx, http.StatusBadRequest, types.ERR_VALIDATION, "email and password are required")
			return
		}
		d := db.GetDb()
		var admin models.AdminUser
		if err := d.Where(&models.AdminUser{Email: body.Email}).First(&admin).Error; err != nil {
			// Same response as a wrong password: no account probing.
			utils.AbortWithError(ctx, http.StatusUnauthorized, types.ERR_VALIDATION, "invalid credentials")
			return
		}
		if err := bcrypt.CompareHashAndPassword([]byte(admin.PasswordHash), []byte(body.Password)); err != nil {
			utils.AbortWithError(ctx, http.StatusUnauthorized, types.ERR_VALIDATION, "invalid credentials")
			return
		}
		token, err := middlewares.NewSessionToken(admin.Email, sessionTTL)
		if err != nil {
			log.Printf("Could not sign session token: %s\n", err.Error())
			utils.AbortWithError(ctx, http.StatusInternalServerError, types.ERR_INTERNAL, "could not start session")
			return
		}
		ctx.SetCookie(middlewares.SessionCookieName, token, int(sessionTTL.Seconds()), "/", "", config.IsProd(), true)
		ctx.JSON(http.StatusOK, gin.H{"ok": true})
	})

	g.POST("/logout", func(ctx *gin.Context) {
		ctx.SetCookie(middlewares.SessionCookieName, "", -1, "/", "", config.IsProd(), true)
		ctx.JSON(http.StatusOK, gin.H{"ok": true})
	})

	g.POST("/password-reset/request", func(ctx *gin.Context) {
		var body types.PasswordResetRequestBody
		if err := ctx.ShouldBindJSON(&body); err != nil {
			utils.AbortWithError(ctx, http.StatusBadRequest, types.ERR_VALIDATION, "email is required")
			return
		}
		d := db.GetDb()
		var admin models.AdminUser
		if err := d.Where(&models.AdminUser{Email: body.Email}).First(&admin).Error; err == nil {
			token, hash, expiry := utils.NewResetToken(resetTokenTTL)
			err = d.Model(&admin).Updates(map[string]any{
				"reset_token_hash":   hash,
				"reset_token_expiry": expiry,
			}).Error
			if err != nil {
				log.Printf("Could not store reset token: %s\n", err.Error())
			} else {
				text := fmt.Sprintf("A password reset was requested for your account.\n\nReset token: %s\n\nThe token expires in one hour. Ignore this message if you did not request it.", token)
				res, _ := orch.SendDirectEmail(ctx, admin.Email, "Password reset", "", text)
				if !res.Ok {
					log.Printf("Could not deliver reset email: %s\n", res.Error)
				}
			}
		}
		// Always the same answer, whether or not the account exists.
		ctx.JSON(http.StatusOK, gin.H{"ok": true})
	})

	g.POST("/password-reset/confirm", func(ctx *gin.Context) {
		var body types.PasswordResetConfirmBody
		if err := ctx.ShouldBindJSON(&body); err != nil {
			utils.AbortWithFieldErrors(ctx, types.ERR_VALIDATION, "invalid reset payload", err)
			return
		}
		d := db.GetDb()
		var admin models.AdminUser
		if err := d.Where(&models.AdminUser{Email: body.Email}).First(&admin).Error; err != nil {
			utils.AbortWithError(ctx, http.StatusBadRequest, types.ERR_VALIDATION, "invalid or expired token")
			return
		}
		if admin.ResetTokenHash == nil || admin.ResetTokenExpiry == nil ||
			time.Now().After(*admin.ResetTokenExpiry) ||
			*admin.ResetTokenHash != utils.HashToken(body.Token) {
			utils.AbortWithError(ctx, http.StatusBadRequest, types.ERR_VALIDATION, "invalid or expired token")
			return
		}
		hashed, err := bcrypt.GenerateFromPassword([]byte(body.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			utils.AbortWithError(ctx, http.StatusInternalServerError, types.ERR_INTERNAL, "could not update password")
			return
		}
		err = d.Model(&admin).Updates(map[string]any{
			"password_hash":      string(hashed),
			"reset_token_hash":   nil,
			"reset_token_expiry": nil,
		}).Error
		if err != nil {
			log.Printf("Could not update admin password: %s\n", err.Error())
			utils.AbortWithError(ctx, http.StatusInternalServerError, types.ERR_DATABASE, "could not update password")
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"ok": true})
	})
	return g
}

func adminHandlers(g *gin.RouterGroup, orch *notifications.Orchestrator, logs *utils.LogRing) *gin.RouterGroup {
	g.GET("/bookings", func(ctx *gin.Context) {
		d := db.GetDb()
		q := d.Model(&models.Booking{}).Preload("Unit").Order("created_at DESC")
		if status := ctx.Query("status"); status != "" {
			q = q.Scopes(scopes.WithStatus(types.BookingStatus(status)))
		}
		var bookings []models.Booking
		if err := q.Find(&bookings).Error; err != nil {
			log.Printf("Error listing bookings: %s\n", err.Error())
			utils.AbortWithError(ctx, http.StatusInternalServerError, types.ERR_DATABASE, "could not list bookings")
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"bookings": bookings})
	})

	g.GET("/bookings/:id", func(ctx *gin.Context) {
		booking, ok := bookingByID(ctx)
		if !ok {
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"booking": booking})
	})

	g.POST("/bookings/:id/status", func(ctx *gin.Context) {
		var body types.UpdateBookingStatusRequestBody
		if err := ctx.ShouldBindJSON(&body); err != nil {
			utils.AbortWithError(ctx, http.StatusBadRequest, types.ERR_VALIDATION, "status must be confirmed or cancelled")
			return
		}
		booking, ok := bookingByID(ctx)
		if !ok {
			return
		}
		if booking.Status == body.Status {
			utils.AbortWithError(ctx, http.StatusBadRequest, types.ERR_VALIDATION, fmt.Sprintf("booking is already %s", booking.Status))
			return
		}
		if body.Status == types.BOOKING_CONFIRMED && booking.Status != types.BOOKING_PENDING {
			utils.AbortWithError(ctx, http.StatusBadRequest, types.ERR_VALIDATION, "only a pending booking can be confirmed")
			return
		}

		d := db.GetDb()
		wasPending := booking.Status == types.BOOKING_PENDING
		err := d.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(booking).Update("status", body.Status).Error; err != nil {
				return err
			}
			if body.Status == types.BOOKING_CANCELLED {
				return releaseHolds(tx, booking)
			}
			return nil
		})
		if err != nil {
			log.Printf("Error updating booking %d status: %s\n", booking.ID, err.Error())
			utils.AbortWithError(ctx, http.StatusInternalServerError, types.ERR_DATABASE, "could not update booking")
			return
		}

		resp := gin.H{"ok": true, "booking": booking}
		if body.Status == types.BOOKING_CONFIRMED && wasPending {
			status, warnings := orch.NotifyBookingConfirmed(ctx, booking, booking.Unit)
			resp["guestEmail"] = status
			if len(warnings) > 0 {
				resp["warnings"] = warnings
			}
		}
		ctx.JSON(http.StatusOK, resp)
	})

	g.POST("/bookings/:id/resend", func(ctx *gin.Context) {
		var body types.ResendRequestBody
		if err := ctx.ShouldBindJSON(&body); err != nil {
			if _, ok := err.(validator.ValidationErrors); ok {
				utils.AbortWithFieldErrors(ctx, types.ERR_VALIDATION, "invalid resend payload", err)
				return
			}
			utils.AbortWithError(ctx, http.StatusBadRequest, types.ERR_INVALID_JSON, "request body is not valid JSON")
			return
		}
		booking, ok := bookingByID(ctx)
		if !ok {
			return
		}
		status, warnings := orch.Send(ctx, notifications.SendRequest{
			Booking:     booking,
			Unit:        booking.Unit,
			Audience:    body.Audience,
			Channel:     body.Channel,
			MessageType: body.MessageType,
			Force:       body.Force,
		})
		resp := gin.H{"ok": true, "status": status}
		if len(warnings) > 0 {
			resp["warnings"] = warnings
		}
		ctx.JSON(http.StatusOK, resp)
	})

	g.GET("/blocked-ranges", func(ctx *gin.Context) {
		var ranges []models.BlockedDateRange
		if err := db.GetDb().Order("start_date").Find(&ranges).Error; err != nil {
			log.Printf("Error listing blocked ranges: %s\n", err.Error())
			utils.AbortWithError(ctx, http.StatusInternalServerError, types.ERR_DATABASE, "could not list blocked ranges")
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"blockedRanges": ranges})
	})

	g.POST("/blocked-ranges", func(ctx *gin.Context) {
		var body types.CreateBlockedRangeRequestBody
		if err := ctx.ShouldBindJSON(&body); err != nil {
			utils.AbortWithFieldErrors(ctx, types.ERR_VALIDATION, "invalid blocked range payload", err)
			return
		}
		if body.UnitSlug == "" && (body.ResourceGroup == nil || *body.ResourceGroup == "") {
			utils.AbortWithError(ctx, http.StatusBadRequest, types.ERR_VALIDATION, "unitSlug or resourceGroup is required")
			return
		}
		start, _ := time.Parse(config.DATE_PARSE_FORMAT, body.StartDate)
		end, _ := time.Parse(config.DATE_PARSE_FORMAT, body.EndDate)
		if end.Before(start) {
			utils.AbortWithError(ctx, http.StatusBadRequest, types.ERR_VALIDATION, "endDate must not be before startDate")
			return
		}
		rng := models.BlockedDateRange{
			ResourceGroup: body.ResourceGroup,
			StartDate:     start,
			EndDate:       end,
			Reason:        body.Reason,
			Source:        types.RANGE_ADMIN,
		}
		if body.UnitSlug != "" {
			unit, ok := unitBySlug(ctx, body.UnitSlug)
			if !ok {
				return
			}
			rng.UnitID = &unit.ID
		}
		d := db.GetDb()
		q := d
		if !db.Caps(d).HoldBookingIDColumn {
			q = q.Omit("BookingID")
		}
		if err := q.Create(&rng).Error; err != nil {
			log.Printf("Error creating blocked range: %s\n", err.Error())
			utils.AbortWithError(ctx, http.StatusInternalServerError, types.ERR_DATABASE, "could not create blocked range")
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"ok": true, "blockedRange": rng})
	})

	g.DELETE("/blocked-ranges/:id", func(ctx *gin.Context) {
		var params types.SimpleRequestParams
		if err := ctx.ShouldBindUri(&params); err != nil {
			utils.AbortWithError(ctx, http.StatusBadRequest, types.ERR_VALIDATION, "bad range id")
			return
		}
		res := db.GetDb().Delete(&models.BlockedDateRange{}, params.ID)
		if res.Error != nil {
			log.Printf("Error deleting blocked range %d: %s\n", params.ID, res.Error.Error())
			utils.AbortWithError(ctx, http.StatusInternalServerError, types.ERR_DATABASE, "could not delete blocked range")
			return
		}
		if res.RowsAffected == 0 {
			utils.AbortWithError(ctx, http.StatusNotFound, types.ERR_VALIDATION, "no such blocked range")
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"ok": true})
	})

	g.POST("/units", func(ctx *gin.Context) {
		var body types.CreateUnitRequestBody
		if err := ctx.ShouldBindJSON(&body); err != nil {
			utils.AbortWithFieldErrors(ctx, types.ERR_VALIDATION, "invalid unit payload", err)
			return
		}
		unit := models.Unit{
			Slug:          slug.Make(body.Name),
			Name:          body.Name,
			Type:          body.Type,
			SleepsUpTo:    body.SleepsUpTo,
			ResourceGroup: body.ResourceGroup,
		}
		if err := db.GetDb().Create(&unit).Error; err != nil {
			log.Printf("Error creating unit: %s\n", err.Error())
			utils.AbortWithError(ctx, http.StatusBadRequest, types.ERR_VALIDATION, "could not create unit; is the name taken?")
			return
		}
		ctx.JSON(http.StatusOK, gin.H{"ok": true, "unit": unit})
	})

	g.GET("/logs", func(ctx *gin.Context) {
		ctx.JSON(http.StatusOK, gin.H{"lines": logs.Lines()})
	})
	return g
}

func bookingByID(ctx *gin.Context) (*models.Booking, bool) {
	var params types.SimpleRequestParams
	if err := ctx.ShouldBindUri(&params); err != nil {
		utils.AbortWithError(ctx, http.StatusBadRequest, types.ERR_VALIDATION, "bad booking id")
		return nil, false
	}
	var booking models.Booking
	if err := db.GetDb().Preload("Unit").First(&booking, params.ID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			utils.AbortWithError(ctx, http.StatusNotFound, types.ERR_VALIDATION, "no such booking")
			return nil, false
		}
		log.Printf("Error loading booking %d: %s\n", params.ID, err.Error())
		utils.AbortWithError(ctx, http.StatusInternalServerError, types.ERR_DATABASE, "could not load booking")
		return nil, false
	}
	return &booking, true
}

// releaseHolds removes the system hold ranges written for a booking.
// On schemas without the booking_id column it falls back to the tagged
// reason written at admission time.
func releaseHolds(tx *gorm.DB, b *models.Booking) error {
	if db.Caps(tx).HoldBookingIDColumn {
		return tx.
			Where("source = ? AND booking_id = ?", types.RANGE_SYSTEM, b.ID).
			Delete(&models.BlockedDateRange{}).
			Error
	}
	return tx.
		Where("source = ? AND reason = ?", types.RANGE_SYSTEM, fmt.Sprintf("hold for booking #%d", b.ID)).
		Delete(&models.BlockedDateRange{}).
		Error
}
