package config

import (
	"fmt"
	"os"
	"strconv"
)

func GetDSN() string {
	DATABASE_HOST := os.Getenv("DATABASE_HOST")
	DATABASE_PORT := os.Getenv("DATABASE_PORT")
	DATABASE_SSLMODE := os.Getenv("DATABASE_SSLMODE")
	DATABASE_TIMEZONE := os.Getenv("DATABASE_TIMEZONE")
	DATABASE_USER := os.Getenv("DATABASE_USER")
	DATABASE_PASSWORD := os.Getenv("DATABASE_PASSWORD")
	DATABASE_NAME := os.Getenv("DATABASE_NAME")
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%s sslmode=%s TimeZone=%s", DATABASE_HOST, DATABASE_USER, DATABASE_PASSWORD, DATABASE_NAME, DATABASE_PORT, DATABASE_SSLMODE, DATABASE_TIMEZONE)
	return dsn
}

// DATE_PARSE_FORMAT is the wire format for all calendar dates. Times of
// day travel separately as HH:MM strings in venue-local time.
const (
	DATE_PARSE_FORMAT = "2006-01-02"
	TIME_PARSE_FORMAT = "15:04"
)

func IsProd() bool {
	return os.Getenv("API_ENV") == "production"
}

// RateLimitMax returns the per-client submission budget for the sliding
// window. Zero or negative disables limiting (development default).
func RateLimitMax() int {
	v := os.Getenv("RATE_LIMIT_MAX")
	if v == "" {
		if IsProd() {
			return 3
		}
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 3
	}
	return n
}

// envInt reads an integer setting with a fallback for unset or
// unparsable values.
func envInt(key string, fallback int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return fallback
	}
	return n
}

func DBMaxIdleConns() int {
	return envInt("DATABASE_MAX_IDLE_CONNS", 10)
}

func DBMaxOpenConns() int {
	return envInt("DATABASE_MAX_OPEN_CONNS", 100)
}

func GuestSMSEnabled() bool {
	b, err := strconv.ParseBool(os.Getenv("GUEST_SMS_ENABLED"))
	if err != nil {
		return false
	}
	return b
}
