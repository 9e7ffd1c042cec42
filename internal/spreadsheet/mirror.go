// Package spreadsheet keeps an append-only .xlsx copy of the attendance ledger.
package spreadsheet

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/straye-as/qr-attendance/internal/domain"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// DefaultSheetName is the title of the attendance sheet
const DefaultSheetName = "Attendance Records"

// Header is the first row of every workbook the mirror creates
var Header = []string{
	"Student Name",
	"Department",
	"Year",
	"Scanned By",
	"Scanner Location",
	"Scanner Device",
	"Date",
	"Time",
	"Full Timestamp",
}

// Config locates the workbook
type Config struct {
	Path      string
	SheetName string
	Location  *time.Location
}

// Option customises a Mirror
type Option func(*Mirror)

// WithClock replaces time.Now, for tests
func WithClock(now func() time.Time) Option {
	return func(m *Mirror) {
		m.now = now
	}
}

// Mirror appends ledger creations to a workbook on disk.
// All file access goes through mu, so concurrent appends never overwrite each other.
type Mirror struct {
	mu        sync.Mutex
	path      string
	sheetName string
	location  *time.Location
	now       func() time.Time
	logger    *zap.Logger
}

// NewMirror creates a Mirror for the workbook at cfg.Path
func NewMirror(cfg Config, logger *zap.Logger, opts ...Option) *Mirror {
	m := &Mirror{
		path:      cfg.Path,
		sheetName: cfg.SheetName,
		location:  cfg.Location,
		now:       time.Now,
		logger:    logger,
	}
	if m.sheetName == "" {
		m.sheetName = DefaultSheetName
	}
	if m.location == nil {
		m.location = time.Local
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Path returns the workbook location
func (m *Mirror) Path() string {
	return m.path
}

// EnsureWorkbook opens the workbook, or builds a new header-only one in memory when the
// file does not exist yet. The caller owns the returned file and must Close it.
func (m *Mirror) EnsureWorkbook() (*excelize.File, error) {
	f, err := excelize.OpenFile(m.path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: open %s: %v", domain.ErrFileIO, m.path, err)
		}
		return m.newWorkbook()
	}

	idx, err := f.GetSheetIndex(m.sheetName)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: inspect %s: %v", domain.ErrFileIO, m.path, err)
	}
	if idx < 0 {
		// Sheet removed or renamed outside the application
		idx, err = f.NewSheet(m.sheetName)
		if err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("%w: add sheet: %v", domain.ErrFileIO, err)
		}
		if err := f.SetSheetRow(m.sheetName, "A1", &Header); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("%w: write header: %v", domain.ErrFileIO, err)
		}
		f.SetActiveSheet(idx)
	}
	return f, nil
}

func (m *Mirror) newWorkbook() (*excelize.File, error) {
	f := excelize.NewFile()
	defaultSheet := f.GetSheetName(0)
	if err := f.SetSheetName(defaultSheet, m.sheetName); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: rename sheet: %v", domain.ErrFileIO, err)
	}
	if err := f.SetSheetRow(m.sheetName, "A1", &Header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: write header: %v", domain.ErrFileIO, err)
	}
	if err := f.SetColWidth(m.sheetName, "A", "I", 20); err != nil {
		m.logger.Warn("Failed to set workbook column width", zap.Error(err))
	}
	return f, nil
}

// AppendAndSave writes one row for record and saves the workbook before returning
func (m *Mirror) AppendAndSave(record *domain.AttendanceRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, err := m.EnsureWorkbook()
	if err != nil {
		return err
	}
	defer f.Close()

	rows, err := f.GetRows(m.sheetName)
	if err != nil {
		return fmt.Errorf("%w: read rows: %v", domain.ErrFileIO, err)
	}

	cell, err := excelize.CoordinatesToCellName(1, len(rows)+1)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrFileIO, err)
	}

	row := m.buildRow(record)
	if err := f.SetSheetRow(m.sheetName, cell, &row); err != nil {
		return fmt.Errorf("%w: write row: %v", domain.ErrFileIO, err)
	}

	if err := m.save(f); err != nil {
		return err
	}

	m.logger.Debug("Attendance row appended to workbook",
		zap.String("name", record.Name),
		zap.String("cell", cell),
		zap.String("path", m.path),
	)
	return nil
}

func (m *Mirror) buildRow(record *domain.AttendanceRecord) []interface{} {
	now := m.now().In(m.location)

	location := record.ScannerLocation
	if location == "" {
		location = domain.DefaultLocationLabel
	}

	return []interface{}{
		record.Name,
		record.Department,
		record.Year,
		record.ScannerName,
		location,
		truncate(record.ScannerDevice, domain.MirrorDeviceMaxLength),
		now.Format(domain.DateLayout),
		now.Format(domain.TimeLayout),
		now.Format(domain.TimestampLayout),
	}
}

func (m *Mirror) save(f *excelize.File) error {
	if dir := filepath.Dir(m.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: create directory %s: %v", domain.ErrFileIO, dir, err)
		}
	}
	if err := f.SaveAs(m.path); err != nil {
		return fmt.Errorf("%w: save %s: %v", domain.ErrFileIO, m.path, err)
	}
	return nil
}

// Snapshot returns the workbook bytes as stored on disk. A header-only workbook is
// created and saved first when no scan has been mirrored yet.
func (m *Mirror) Snapshot() ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, err := os.Stat(m.path); errors.Is(err, fs.ErrNotExist) {
		f, err := m.EnsureWorkbook()
		if err != nil {
			return nil, err
		}
		err = m.save(f)
		_ = f.Close()
		if err != nil {
			return nil, err
		}
		m.logger.Info("Created empty attendance workbook", zap.String("path", m.path))
	}

	data, err := os.ReadFile(m.path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", domain.ErrFileIO, m.path, err)
	}
	return data, nil
}

// RowCount returns the number of rows in the sheet, header included.
// A workbook that does not exist yet counts as its header row.
func (m *Mirror) RowCount() (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	f, err := m.EnsureWorkbook()
	if err != nil {
		return 0, err
	}
	defer f.Close()

	rows, err := f.GetRows(m.sheetName)
	if err != nil {
		return 0, fmt.Errorf("%w: read rows: %v", domain.ErrFileIO, err)
	}
	return len(rows), nil
}

// truncate cuts s to at most max runes
func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
