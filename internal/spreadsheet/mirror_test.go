package spreadsheet_test

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/straye-as/qr-attendance/internal/domain"
	"github.com/straye-as/qr-attendance/internal/spreadsheet"
	"github.com/straye-as/qr-attendance/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

var fixedNow = time.Date(2025, 1, 1, 8, 30, 15, 0, time.UTC)

func newTestMirror(t *testing.T) *spreadsheet.Mirror {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", "attendance_records.xlsx")
	return spreadsheet.NewMirror(
		spreadsheet.Config{Path: path, Location: time.UTC},
		zap.NewNop(),
		spreadsheet.WithClock(testutil.FixedClock(fixedNow)),
	)
}

func readRows(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(spreadsheet.DefaultSheetName)
	require.NoError(t, err)
	return rows
}

func TestMirror_EnsureWorkbookCreatesHeader(t *testing.T) {
	m := newTestMirror(t)

	f, err := m.EnsureWorkbook()
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, spreadsheet.DefaultSheetName, f.GetSheetName(0))
	rows, err := f.GetRows(spreadsheet.DefaultSheetName)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, spreadsheet.Header, rows[0])

	_, statErr := os.Stat(m.Path())
	assert.True(t, os.IsNotExist(statErr), "EnsureWorkbook does not save")
}

func TestMirror_AppendAndSave(t *testing.T) {
	m := newTestMirror(t)

	record := testutil.NewRecord("J.Doe", "2025-01-01", "Gate A")
	record.ScannerLocation = ""
	record.ScannerDevice = strings.Repeat("x", 80)

	require.NoError(t, m.AppendAndSave(record))

	rows := readRows(t, m.Path())
	require.Len(t, rows, 2)
	assert.Equal(t, []string{
		"J.Doe",
		"Bsc.CS",
		"2nd year",
		"Gate A",
		domain.DefaultLocationLabel,
		strings.Repeat("x", domain.MirrorDeviceMaxLength),
		"2025-01-01",
		"08:30:15",
		"2025-01-01 08:30:15",
	}, rows[1])
}

func TestMirror_DeviceTruncationIsRuneSafe(t *testing.T) {
	m := newTestMirror(t)

	record := testutil.NewRecord("Ana", "2025-01-01", "Gate A")
	record.ScannerDevice = strings.Repeat("é", 60)

	require.NoError(t, m.AppendAndSave(record))

	rows := readRows(t, m.Path())
	require.Len(t, rows, 2)
	assert.Equal(t, strings.Repeat("é", domain.MirrorDeviceMaxLength), rows[1][5])
}

func TestMirror_RowCountGrowsPerAppend(t *testing.T) {
	m := newTestMirror(t)

	count, err := m.RowCount()
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	for i := 0; i < 3; i++ {
		require.NoError(t, m.AppendAndSave(testutil.NewRecord(fmt.Sprintf("Student %d", i), "2025-01-01", "Gate A")))
	}

	count, err = m.RowCount()
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestMirror_ConcurrentAppendsKeepEveryRow(t *testing.T) {
	m := newTestMirror(t)

	const writers = 10
	var wg sync.WaitGroup
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs <- m.AppendAndSave(testutil.NewRecord(fmt.Sprintf("Student %d", i), "2025-01-01", "Gate A"))
		}(i)
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}

	count, err := m.RowCount()
	require.NoError(t, err)
	assert.Equal(t, writers+1, count)
}

func TestMirror_SnapshotWithoutScans(t *testing.T) {
	m := newTestMirror(t)

	data, err := m.Snapshot()
	require.NoError(t, err)
	require.NotEmpty(t, data)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(spreadsheet.DefaultSheetName)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, spreadsheet.Header, rows[0])

	_, statErr := os.Stat(m.Path())
	assert.NoError(t, statErr, "snapshot persists the empty workbook")
}

func TestMirror_ReopensExistingWorkbook(t *testing.T) {
	path := filepath.Join(t.TempDir(), "attendance_records.xlsx")
	cfg := spreadsheet.Config{Path: path, Location: time.UTC}

	first := spreadsheet.NewMirror(cfg, zap.NewNop())
	require.NoError(t, first.AppendAndSave(testutil.NewRecord("Alice", "2025-01-01", "Gate A")))

	second := spreadsheet.NewMirror(cfg, zap.NewNop())
	require.NoError(t, second.AppendAndSave(testutil.NewRecord("Bob", "2025-01-01", "Gate A")))

	rows := readRows(t, path)
	require.Len(t, rows, 3)
	assert.Equal(t, "Alice", rows[1][0])
	assert.Equal(t, "Bob", rows[2][0])
}

func TestMirror_FileIOErrors(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "not-a-dir")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o644))

	m := spreadsheet.NewMirror(
		spreadsheet.Config{Path: filepath.Join(blocker, "records.xlsx")},
		zap.NewNop(),
	)

	err := m.AppendAndSave(testutil.NewRecord("Alice", "2025-01-01", "Gate A"))
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrFileIO)

	corrupt := filepath.Join(dir, "corrupt.xlsx")
	require.NoError(t, os.WriteFile(corrupt, []byte("not a workbook"), 0o644))
	m = spreadsheet.NewMirror(spreadsheet.Config{Path: corrupt}, zap.NewNop())

	_, err = m.RowCount()
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrFileIO)
}
