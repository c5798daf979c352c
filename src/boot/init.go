package boot

import (
	"log"
	"os"
	"time"

	"farmstay/src/db"
	"farmstay/src/models"
	"farmstay/src/types"

	"github.com/go-co-op/gocron/v2"
	"github.com/gosimple/slug"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

func InitDb() *gorm.DB {
	d := db.GetDb()

	err := d.AutoMigrate(
		&models.Unit{},
		&models.Booking{},
		&models.BlockedDateRange{},
		&models.NotificationLog{},
		&models.AdminUser{},
	)
	if err != nil {
		log.Fatalf("error migration: %s", err.Error())
	}

	return d
}

// SeedAdmin ensures the single allow-listed operator account exists.
func SeedAdmin(d *gorm.DB) {
	email := os.Getenv("ADMIN_EMAIL")
	password := os.Getenv("ADMIN_INITIAL_PASSWORD")
	if email == "" || password == "" {
		return
	}
	var count int64
	if err := d.Model(&models.AdminUser{}).Where("email = ?", email).Count(&count).Error; err != nil {
		log.Printf("Could not check for admin account: %s\n", err.Error())
		return
	}
	if count > 0 {
		return
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("Could not hash admin password: %s\n", err.Error())
		return
	}
	if err := d.Create(&models.AdminUser{Email: email, PasswordHash: string(hash)}).Error; err != nil {
		log.Printf("Could not seed admin account: %s\n", err.Error())
		return
	}
	log.Printf("Seeded admin account %s\n", email)
}

// SeedUnits creates the default catalogue on an empty database.
func SeedUnits(d *gorm.DB) {
	var count int64
	if err := d.Model(&models.Unit{}).Count(&count).Error; err != nil {
		log.Printf("Could not count units: %s\n", err.Error())
		return
	}
	if count > 0 {
		return
	}
	campus := "main-campus"
	sleeps := uint(4)
	sleepsBig := uint(8)
	units := []models.Unit{
		{Slug: slug.Make("Red Roost"), Name: "Red Roost", Type: types.UNIT_STAY, SleepsUpTo: &sleeps},
		{Slug: slug.Make("The White House"), Name: "The White House", Type: types.UNIT_STAY, SleepsUpTo: &sleepsBig, ResourceGroup: &campus},
		{Slug: slug.Make("Aurora Grand"), Name: "Aurora Grand", Type: types.UNIT_EVENT, ResourceGroup: &campus},
	}
	for _, u := range units {
		if err := d.Create(&u).Error; err != nil {
			log.Printf("Could not seed unit %s: %s\n", u.Slug, err.Error())
		}
	}
	log.Printf("Seeded %d units\n", len(units))
}

// InitScheduler starts the background sweep that removes system hold
// ranges left behind by cancelled bookings. Cancellation deletes holds
// inline; the sweep catches strays from crashed requests.
func InitScheduler() {
	sched, err := gocron.NewScheduler()
	if err != nil {
		log.Printf("Could not create scheduler: %s\n", err.Error())
		return
	}
	_, err = sched.NewJob(
		gocron.DurationJob(time.Hour),
		gocron.NewTask(SweepStaleHolds),
	)
	if err != nil {
		log.Printf("Error scheduling hold sweep: %s\n", err.Error())
		return
	}
	sched.Start()
}

func SweepStaleHolds() {
	d := db.GetDb()
	if !db.Caps(d).HoldBookingIDColumn {
		return
	}
	res := d.
		Where("source = ?", types.RANGE_SYSTEM).
		Where("booking_id IN (?)", d.
			Model(&models.Booking{}).
			Select("id").
			Where("status = ?", types.BOOKING_CANCELLED),
		).
		Delete(&models.BlockedDateRange{})
	if res.Error != nil {
		log.Printf("Error sweeping stale holds: %s\n", res.Error.Error())
		return
	}
	if res.RowsAffected > 0 {
		log.Printf("Swept %d stale hold(s)\n", res.RowsAffected)
	}
}
