package db

import (
	"log"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func NewMockDB() (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening a stub database connection", err)
	}

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 db,
		PreferSimpleProtocol: true,
	}), &gorm.Config{})

	if err != nil {
		log.Fatalf("An error '%s' was not expected when opening gorm database", err)
	}

	return gormDB, mock
}

func GetMockDB() (*gorm.DB, sqlmock.Sqlmock) {
	gormDB, mock := NewMockDB()
	db = gormDB
	return gormDB, mock
}

func TestDB(t *testing.T) {
	gormDB, _ := NewMockDB()
	db = gormDB

	assert.Equal(t, db.Name(), "testdb")
}

func TestIsUnknownColumnErr(t *testing.T) {
	assert.False(t, IsUnknownColumnErr(nil))
	assert.False(t, IsUnknownColumnErr(assert.AnError))
	assert.True(t, IsUnknownColumnErr(errUnknown(`ERROR: column "notes" of relation "bookings" does not exist (SQLSTATE 42703)`)))
	assert.True(t, IsUnknownColumnErr(errUnknown("Unknown column 'event_type' in 'field list'")))
}

type errUnknown string

func (e errUnknown) Error() string { return string(e) }
