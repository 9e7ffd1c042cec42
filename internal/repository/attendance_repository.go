package repository

import (
	"context"
	"fmt"

	"github.com/straye-as/qr-attendance/internal/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// AttendanceRepository is the ledger: one row per (name, scan_date)
type AttendanceRepository struct {
	db *gorm.DB
}

// NewAttendanceRepository creates a new AttendanceRepository
func NewAttendanceRepository(db *gorm.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Upsert inserts record unless a row for the same (name, scan_date) already exists.
//
// The insert runs as INSERT ... ON CONFLICT (name, scan_date) DO NOTHING, so two
// concurrent first scans resolve in the database: exactly one insert affects a row
// and the other falls through to the lookup. When nothing was inserted the stored row
// is returned unchanged and created is false; the caller's other fields are discarded.
func (r *AttendanceRepository) Upsert(ctx context.Context, record *domain.AttendanceRecord) (*domain.AttendanceRecord, bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "name"}, {Name: "scan_date"}},
			DoNothing: true,
		}).
		Create(record)
	if result.Error != nil {
		return nil, false, fmt.Errorf("failed to insert attendance record: %w", result.Error)
	}

	if result.RowsAffected == 1 {
		return record, true, nil
	}

	existing, err := r.GetByNameAndDate(ctx, record.Name, record.ScanDate)
	if err != nil {
		return nil, false, fmt.Errorf("failed to load existing attendance record: %w", err)
	}
	return existing, false, nil
}

// GetByNameAndDate returns the ledger entry for a person on a day
func (r *AttendanceRepository) GetByNameAndDate(ctx context.Context, name, scanDate string) (*domain.AttendanceRecord, error) {
	var record domain.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("name = ? AND scan_date = ?", name, scanDate).
		First(&record).Error
	if err != nil {
		return nil, err
	}
	return &record, nil
}

// ListAll returns every record, newest first
func (r *AttendanceRepository) ListAll(ctx context.Context) ([]domain.AttendanceRecord, error) {
	var records []domain.AttendanceRecord
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Find(&records).Error
	return records, err
}

// ListByDate returns the records of one scan date, newest first
func (r *AttendanceRepository) ListByDate(ctx context.Context, scanDate string) ([]domain.AttendanceRecord, error) {
	var records []domain.AttendanceRecord
	err := r.db.WithContext(ctx).
		Where("scan_date = ?", scanDate).
		Order("created_at DESC").
		Find(&records).Error
	return records, err
}

// Count returns the number of ledger entries
func (r *AttendanceRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.AttendanceRecord{}).
		Count(&count).Error
	return count, err
}
