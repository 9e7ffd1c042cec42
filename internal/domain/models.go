package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Layouts used for the server-assigned scan timestamps
const (
	DateLayout      = "2006-01-02"
	TimeLayout      = "15:04:05"
	TimestampLayout = "2006-01-02 15:04:05"
)

// Column widths of attendance_records, mirrored by the migration
const (
	MaxNameLength            = 100
	MaxDepartmentLength      = 50
	MaxYearLength            = 20
	MaxScannerNameLength     = 100
	MaxScannerLocationLength = 100
	MaxScannerDeviceLength   = 100
)

// Defaults applied when a scan request leaves a field out
const (
	UnknownValue          = "Unknown"
	DefaultScannerName    = "Unknown Scanner"
	DefaultScannerDevice  = "Unknown Device"
	DefaultLocationLabel  = "Not specified"
	MirrorDeviceMaxLength = 50
)

// AttendanceRecord is one ledger entry: a person seen on a given calendar day.
// (name, scan_date) is unique; the first scan of the day wins and the row is never updated.
type AttendanceRecord struct {
	ID              uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name            string    `gorm:"type:varchar(100);not null;uniqueIndex:uk_attendance_name_date,priority:1"`
	Department      string    `gorm:"type:varchar(50);not null"`
	Year            string    `gorm:"type:varchar(20);not null"`
	ScannerName     string    `gorm:"type:varchar(100);not null;default:'Unknown'"`
	ScannerLocation string    `gorm:"type:varchar(100)"`
	ScannerDevice   string    `gorm:"type:varchar(100)"`
	ScanDate        string    `gorm:"type:varchar(10);not null;uniqueIndex:uk_attendance_name_date,priority:2;index"`
	ScanTime        string    `gorm:"type:varchar(8);not null"`
	CreatedAt       time.Time `gorm:"not null;index"`
}

// TableName overrides the gorm default
func (AttendanceRecord) TableName() string {
	return "attendance_records"
}

// BeforeCreate assigns the primary key when the caller did not
func (r *AttendanceRecord) BeforeCreate(tx *gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	return nil
}

// StudentIdentity is the fixed identity printed on the QR card
type StudentIdentity struct {
	Name       string
	Department string
	Year       string
}
