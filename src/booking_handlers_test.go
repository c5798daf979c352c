package main

import (
	"testing"
	"time"

	"farmstay/src/models"
	"farmstay/src/types"

	"github.com/stretchr/testify/assert"
)

func strPtr(s string) *string { return &s }

func stayUnit() *models.Unit {
	sleeps := uint(4)
	return &models.Unit{ID: 1, Slug: "red-roost", Name: "Red Roost", Type: types.UNIT_STAY, SleepsUpTo: &sleeps}
}

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	assert.NoError(t, err)
	return d
}

func TestStayCheckOutNormalization(t *testing.T) {
	base := types.CreateBookingRequestBody{
		UnitSlug: "red-roost",
		Name:     "Sam Guest",
		Email:    "sam@example.com",
	}

	t.Run("absent checkOut becomes a single night", func(t *testing.T) {
		body := base
		body.CheckIn = strPtr("2025-06-01")
		adm, code, _ := validateSubmission(stayUnit(), body)
		assert.Empty(t, code)
		assert.Equal(t, mustDate(t, "2025-06-01"), *adm.cand.CheckIn)
		assert.Equal(t, mustDate(t, "2025-06-02"), *adm.cand.CheckOut)
	})

	t.Run("checkOut equal to checkIn becomes a single night", func(t *testing.T) {
		body := base
		body.CheckIn = strPtr("2025-06-01")
		body.CheckOut = strPtr("2025-06-01")
		adm, code, _ := validateSubmission(stayUnit(), body)
		assert.Empty(t, code)
		assert.Equal(t, mustDate(t, "2025-06-02"), *adm.cand.CheckOut)
	})

	t.Run("checkOut before checkIn becomes a single night", func(t *testing.T) {
		body := base
		body.CheckIn = strPtr("2025-06-01")
		body.CheckOut = strPtr("2025-05-28")
		adm, code, _ := validateSubmission(stayUnit(), body)
		assert.Empty(t, code)
		assert.Equal(t, mustDate(t, "2025-06-01"), *adm.cand.CheckIn)
		assert.Equal(t, mustDate(t, "2025-06-02"), *adm.cand.CheckOut)
	})

	t.Run("well-formed range passes through unchanged", func(t *testing.T) {
		body := base
		body.CheckIn = strPtr("2025-06-01")
		body.CheckOut = strPtr("2025-06-04")
		adm, code, _ := validateSubmission(stayUnit(), body)
		assert.Empty(t, code)
		assert.Equal(t, mustDate(t, "2025-06-01"), *adm.cand.CheckIn)
		assert.Equal(t, mustDate(t, "2025-06-04"), *adm.cand.CheckOut)

		// Normalizing an already-normalized range is a no-op.
		body.CheckOut = strPtr(adm.cand.CheckOut.Format("2006-01-02"))
		again, code, _ := validateSubmission(stayUnit(), body)
		assert.Empty(t, code)
		assert.Equal(t, *adm.cand.CheckOut, *again.cand.CheckOut)
	})
}

func TestStayGuestBounds(t *testing.T) {
	base := types.CreateBookingRequestBody{
		UnitSlug: "red-roost",
		Name:     "Sam Guest",
		Email:    "sam@example.com",
		CheckIn:  strPtr("2025-06-01"),
	}

	zero := uint(0)
	body := base
	body.Guests = &zero
	_, code, _ := validateSubmission(stayUnit(), body)
	assert.Equal(t, types.ERR_VALIDATION, code)

	over := uint(9)
	body = base
	body.Guests = &over
	_, code, _ = validateSubmission(stayUnit(), body)
	assert.Equal(t, types.ERR_VALIDATION, code)

	fits := uint(4)
	body = base
	body.Guests = &fits
	_, code, _ = validateSubmission(stayUnit(), body)
	assert.Empty(t, code)
}
