// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/straye-as/qr-attendance/internal/database"
	"github.com/straye-as/qr-attendance/internal/domain"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// SetupTestDB opens a migrated SQLite ledger in a per-test temp directory.
// The database is pinned to one connection like the production sqlite setup.
func SetupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "attendance_test.db")
	db, err := gorm.Open(sqlite.Open(path+"?_busy_timeout=5000"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, database.AutoMigrate(db))

	t.Cleanup(func() {
		_ = sqlDB.Close()
	})

	return db
}

// FixedClock returns a clock that always reports at
func FixedClock(at time.Time) func() time.Time {
	return func() time.Time { return at }
}

// NewRecord builds an attendance record for name on date with the given scanner
func NewRecord(name, date, scanner string) *domain.AttendanceRecord {
	return &domain.AttendanceRecord{
		Name:            name,
		Department:      "Bsc.CS",
		Year:            "2nd year",
		ScannerName:     scanner,
		ScannerLocation: "Main gate",
		ScannerDevice:   "test-agent/1.0",
		ScanDate:        date,
		ScanTime:        "09:00:00",
		CreatedAt:       time.Now().UTC(),
	}
}
