package mapper

import (
	"github.com/straye-as/qr-attendance/internal/domain"
)

// ToAttendanceRecordDTO converts AttendanceRecord to AttendanceRecordDTO
func ToAttendanceRecordDTO(record *domain.AttendanceRecord) domain.AttendanceRecordDTO {
	return domain.AttendanceRecordDTO{
		ID:              record.ID.String(),
		Name:            record.Name,
		Department:      record.Department,
		Year:            record.Year,
		ScannerName:     record.ScannerName,
		ScannerLocation: record.ScannerLocation,
		ScannerDevice:   record.ScannerDevice,
		ScanDate:        record.ScanDate,
		ScanTime:        record.ScanTime,
		CreatedAt:       record.CreatedAt.UTC().Format("2006-01-02T15:04:05Z"),
	}
}

// ToAttendanceRecordDTOs converts a slice of records, preserving order
func ToAttendanceRecordDTOs(records []domain.AttendanceRecord) []domain.AttendanceRecordDTO {
	dtos := make([]domain.AttendanceRecordDTO, len(records))
	for i := range records {
		dtos[i] = ToAttendanceRecordDTO(&records[i])
	}
	return dtos
}

// ToScanResultDTO builds the scan response body. Identity and scanner fields echo the
// current scan; date and time come from the stored record, so a repeat scan reports when
// the person was first seen.
func ToScanResultDTO(outcome *domain.ScanOutcome) domain.ScanResultDTO {
	return domain.ScanResultDTO{
		Name:            outcome.Name,
		Department:      outcome.Department,
		Year:            outcome.Year,
		ScannerName:     outcome.ScannerName,
		ScannerLocation: outcome.ScannerLocation,
		Date:            outcome.Record.ScanDate,
		Time:            outcome.Record.ScanTime,
		AlreadyScanned:  !outcome.Created,
	}
}
