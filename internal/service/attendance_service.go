package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/straye-as/qr-attendance/internal/domain"
	"github.com/straye-as/qr-attendance/internal/logger"
	"github.com/straye-as/qr-attendance/internal/metrics"
	"github.com/straye-as/qr-attendance/internal/qrpayload"
	"go.uber.org/zap"
)

// QRDecoder reads the text of a QR code from image bytes
type QRDecoder interface {
	Decode(data []byte, filename string) (string, error)
}

// AttendanceLedger is the authoritative per-day attendance store
type AttendanceLedger interface {
	Upsert(ctx context.Context, record *domain.AttendanceRecord) (*domain.AttendanceRecord, bool, error)
	ListAll(ctx context.Context) ([]domain.AttendanceRecord, error)
	ListByDate(ctx context.Context, scanDate string) ([]domain.AttendanceRecord, error)
	Count(ctx context.Context) (int64, error)
}

// WorkbookMirror is the append-only spreadsheet copy of the ledger
type WorkbookMirror interface {
	AppendAndSave(record *domain.AttendanceRecord) error
	Snapshot() ([]byte, error)
}

// AttendanceService reconciles scanner uploads against the ledger and the workbook
type AttendanceService struct {
	decoder  QRDecoder
	ledger   AttendanceLedger
	mirror   WorkbookMirror
	metrics  *metrics.Metrics
	location *time.Location
	now      func() time.Time
	logger   *zap.Logger
}

// NewAttendanceService creates a new AttendanceService. A nil location means local time.
func NewAttendanceService(
	decoder QRDecoder,
	ledger AttendanceLedger,
	mirror WorkbookMirror,
	m *metrics.Metrics,
	location *time.Location,
	logger *zap.Logger,
) *AttendanceService {
	if location == nil {
		location = time.Local
	}
	return &AttendanceService{
		decoder:  decoder,
		ledger:   ledger,
		mirror:   mirror,
		metrics:  m,
		location: location,
		now:      time.Now,
		logger:   logger,
	}
}

// SetClock replaces time.Now. Used by tests to pin the scan date.
func (s *AttendanceService) SetClock(now func() time.Time) {
	s.now = now
}

// Scan decodes the uploaded image, records the person for today and, for a first scan of the
// day, appends a workbook row. A repeat scan is a success with Created false.
//
// Errors: domain.ErrNoImageProvided, domain.ErrNoCodeDetected, or an error wrapping
// domain.ErrProcessing. A workbook failure after the ledger insert is reported as
// ErrProcessing; the ledger entry stays.
func (s *AttendanceService) Scan(ctx context.Context, in domain.ScanInput) (*domain.ScanOutcome, error) {
	if len(in.Image) == 0 {
		return nil, domain.ErrNoImageProvided
	}

	scannerName := in.ScannerName
	if scannerName == "" {
		scannerName = domain.DefaultScannerName
	}
	device := in.ScannerDevice
	if device == "" {
		device = domain.DefaultScannerDevice
	}
	log := logger.WithScanner(s.logger, scannerName, in.ScannerLocation)

	text, err := s.decoder.Decode(in.Image, in.Filename)
	if err != nil {
		if errors.Is(err, domain.ErrNoCodeDetected) {
			s.metrics.ObserveScan(metrics.OutcomeNoCode)
			log.Info("No QR code found in upload", zap.String("filename", in.Filename))
			return nil, domain.ErrNoCodeDetected
		}
		s.metrics.ObserveScan(metrics.OutcomeError)
		log.Warn("Failed to decode upload", zap.String("filename", in.Filename), zap.Error(err))
		if !errors.Is(err, domain.ErrProcessing) {
			err = fmt.Errorf("%w: %w", domain.ErrProcessing, err)
		}
		return nil, err
	}

	payload := qrpayload.Parse(text)
	now := s.now().In(s.location)

	record := &domain.AttendanceRecord{
		Name:            truncate(payload.Name, domain.MaxNameLength),
		Department:      truncate(payload.Department, domain.MaxDepartmentLength),
		Year:            truncate(payload.Year, domain.MaxYearLength),
		ScannerName:     truncate(scannerName, domain.MaxScannerNameLength),
		ScannerLocation: truncate(in.ScannerLocation, domain.MaxScannerLocationLength),
		ScannerDevice:   truncate(device, domain.MaxScannerDeviceLength),
		ScanDate:        now.Format(domain.DateLayout),
		ScanTime:        now.Format(domain.TimeLayout),
		CreatedAt:       now.UTC(),
	}

	stored, created, err := s.ledger.Upsert(ctx, record)
	if err != nil {
		s.metrics.ObserveScan(metrics.OutcomeError)
		log.Error("Failed to record attendance", zap.String("name", record.Name), zap.Error(err))
		return nil, fmt.Errorf("%w: %w", domain.ErrProcessing, err)
	}

	if created {
		mirrorErr := s.mirror.AppendAndSave(stored)
		s.metrics.ObserveMirrorAppend(mirrorErr)
		if mirrorErr != nil {
			s.metrics.ObserveScan(metrics.OutcomeError)
			log.Error("Attendance recorded but workbook update failed",
				zap.String("name", stored.Name),
				zap.String("record_id", stored.ID.String()),
				zap.Error(mirrorErr),
			)
			return nil, fmt.Errorf("%w: %w", domain.ErrProcessing, mirrorErr)
		}
		s.metrics.ObserveScan(metrics.OutcomeCreated)
		log.Info("Attendance recorded",
			zap.String("name", stored.Name),
			zap.String("scan_date", stored.ScanDate),
			zap.String("scan_time", stored.ScanTime),
		)
	} else {
		s.metrics.ObserveScan(metrics.OutcomeDuplicate)
		log.Info("Attendance already recorded today",
			zap.String("name", stored.Name),
			zap.String("scan_date", stored.ScanDate),
			zap.String("first_scan_time", stored.ScanTime),
		)
	}

	if payload.Date != "" && payload.Date != stored.ScanDate {
		log.Debug("Card date differs from scan date",
			zap.String("card_date", payload.Date),
			zap.String("scan_date", stored.ScanDate),
		)
	}

	return &domain.ScanOutcome{
		Record:          stored,
		Created:         created,
		Name:            payload.Name,
		Department:      payload.Department,
		Year:            payload.Year,
		ScannerName:     scannerName,
		ScannerLocation: in.ScannerLocation,
	}, nil
}

// ListRecords returns ledger entries newest first. An empty date returns every record;
// otherwise date must be YYYY-MM-DD.
func (s *AttendanceService) ListRecords(ctx context.Context, date string) ([]domain.AttendanceRecord, error) {
	if date == "" {
		records, err := s.ledger.ListAll(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to list attendance records: %w", err)
		}
		return records, nil
	}

	if _, err := time.Parse(domain.DateLayout, date); err != nil {
		return nil, fmt.Errorf("%w: %q, expected YYYY-MM-DD", domain.ErrInvalidDate, date)
	}

	records, err := s.ledger.ListByDate(ctx, date)
	if err != nil {
		return nil, fmt.Errorf("failed to list attendance records for %s: %w", date, err)
	}
	return records, nil
}

// CountRecords returns the size of the ledger
func (s *AttendanceService) CountRecords(ctx context.Context) (int64, error) {
	return s.ledger.Count(ctx)
}

// WorkbookDownload returns the workbook bytes and the attachment filename for today
func (s *AttendanceService) WorkbookDownload() ([]byte, string, error) {
	data, err := s.mirror.Snapshot()
	if err != nil {
		return nil, "", err
	}
	filename := fmt.Sprintf("attendance_records_%s.xlsx", s.now().In(s.location).Format(domain.DateLayout))
	return data, filename, nil
}

// truncate cuts s to at most max runes
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
