package service_test

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/png"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/straye-as/qr-attendance/internal/domain"
	"github.com/straye-as/qr-attendance/internal/metrics"
	"github.com/straye-as/qr-attendance/internal/qrcodec"
	"github.com/straye-as/qr-attendance/internal/repository"
	"github.com/straye-as/qr-attendance/internal/service"
	"github.com/straye-as/qr-attendance/internal/spreadsheet"
	"github.com/straye-as/qr-attendance/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const doePayload = "Name: J.Doe\nDepartment: Bsc.CS\nYear: 2nd year\nDate: 2025-01-01"

var scanTime = time.Date(2025, 1, 1, 9, 15, 0, 0, time.UTC)

type fixture struct {
	svc    *service.AttendanceService
	repo   *repository.AttendanceRepository
	mirror *spreadsheet.Mirror
	codec  *qrcodec.Codec
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.SetupTestDB(t)
	repo := repository.NewAttendanceRepository(db)
	mirror := spreadsheet.NewMirror(
		spreadsheet.Config{Path: filepath.Join(t.TempDir(), "attendance_records.xlsx"), Location: time.UTC},
		zap.NewNop(),
		spreadsheet.WithClock(testutil.FixedClock(scanTime)),
	)
	codec := qrcodec.NewCodec(0, 0, zap.NewNop())

	svc := service.NewAttendanceService(codec, repo, mirror, metrics.New(), time.UTC, zap.NewNop())
	svc.SetClock(testutil.FixedClock(scanTime))

	return &fixture{svc: svc, repo: repo, mirror: mirror, codec: codec}
}

func (f *fixture) qrImage(t *testing.T, text string) []byte {
	t.Helper()
	data, err := f.codec.Encode(text)
	require.NoError(t, err)
	return data
}

func TestAttendanceService_ScanScenario(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	image := f.qrImage(t, doePayload)

	first, err := f.svc.Scan(ctx, domain.ScanInput{
		Image:           image,
		Filename:        "card.png",
		ScannerName:     "Gate A",
		ScannerLocation: "Main entrance",
		ScannerDevice:   "Mozilla/5.0",
	})
	require.NoError(t, err)

	assert.True(t, first.Created)
	assert.Equal(t, "J.Doe", first.Name)
	assert.Equal(t, "Bsc.CS", first.Department)
	assert.Equal(t, "2nd year", first.Year)
	assert.Equal(t, "Gate A", first.ScannerName)
	assert.Equal(t, "2025-01-01", first.Record.ScanDate)
	assert.Equal(t, "09:15:00", first.Record.ScanTime)

	rows, err := f.mirror.RowCount()
	require.NoError(t, err)
	assert.Equal(t, 2, rows)

	// Second scan later the same day from another scanner
	f.svc.SetClock(testutil.FixedClock(scanTime.Add(3 * time.Hour)))
	second, err := f.svc.Scan(ctx, domain.ScanInput{
		Image:       image,
		Filename:    "card.png",
		ScannerName: "Gate B",
	})
	require.NoError(t, err)

	assert.False(t, second.Created)
	assert.Equal(t, "Gate B", second.ScannerName, "scanner fields echo the current request")
	assert.Equal(t, "09:15:00", second.Record.ScanTime, "time comes from the first scan")
	assert.Equal(t, "Gate A", second.Record.ScannerName)

	rows, err = f.mirror.RowCount()
	require.NoError(t, err)
	assert.Equal(t, 2, rows)

	count, err := f.repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestAttendanceService_ScanDefaults(t *testing.T) {
	f := newFixture(t)

	outcome, err := f.svc.Scan(context.Background(), domain.ScanInput{
		Image: f.qrImage(t, "Name: Alice"),
	})
	require.NoError(t, err)

	assert.Equal(t, domain.DefaultScannerName, outcome.ScannerName)
	assert.Equal(t, domain.DefaultScannerName, outcome.Record.ScannerName)
	assert.Equal(t, domain.DefaultScannerDevice, outcome.Record.ScannerDevice)
	assert.Equal(t, "", outcome.Record.ScannerLocation)
	assert.Equal(t, domain.UnknownValue, outcome.Department)
	assert.Equal(t, domain.UnknownValue, outcome.Record.Year)
}

func TestAttendanceService_ScanNoImage(t *testing.T) {
	f := newFixture(t)

	_, err := f.svc.Scan(context.Background(), domain.ScanInput{})

	assert.ErrorIs(t, err, domain.ErrNoImageProvided)
}

func blankPNG(t *testing.T) []byte {
	t.Helper()
	img := image.NewGray(image.Rect(0, 0, 200, 200))
	for i := range img.Pix {
		img.Pix[i] = 0xff
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestAttendanceService_ScanWithoutCode(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Scan(ctx, domain.ScanInput{Image: blankPNG(t), Filename: "blank.png"})
	assert.ErrorIs(t, err, domain.ErrNoCodeDetected)

	_, err = f.svc.Scan(ctx, domain.ScanInput{Image: []byte("not an image at all")})
	assert.ErrorIs(t, err, domain.ErrProcessing)

	count, err := f.repo.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)

	rows, err := f.mirror.RowCount()
	require.NoError(t, err)
	assert.Equal(t, 1, rows)
}

func TestAttendanceService_ConcurrentFirstScans(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	image := f.qrImage(t, doePayload)

	const scanners = 6
	var wg sync.WaitGroup
	results := make(chan *domain.ScanOutcome, scanners)
	errs := make(chan error, scanners)
	for i := 0; i < scanners; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			outcome, err := f.svc.Scan(ctx, domain.ScanInput{Image: image})
			if err != nil {
				errs <- err
				return
			}
			results <- outcome
		}()
	}
	wg.Wait()
	close(results)
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	created := 0
	for r := range results {
		if r.Created {
			created++
		}
	}
	assert.Equal(t, 1, created)

	rows, err := f.mirror.RowCount()
	require.NoError(t, err)
	assert.Equal(t, 2, rows)
}

type stubDecoder struct {
	text string
	err  error
}

func (d stubDecoder) Decode([]byte, string) (string, error) {
	return d.text, d.err
}

type failingMirror struct{}

func (failingMirror) AppendAndSave(*domain.AttendanceRecord) error {
	return errors.New("save attendance_records.xlsx: disk full")
}

func (failingMirror) Snapshot() ([]byte, error) {
	return nil, domain.ErrFileIO
}

func TestAttendanceService_ErrorClassification(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewAttendanceRepository(db)
	mirror := spreadsheet.NewMirror(spreadsheet.Config{Path: filepath.Join(t.TempDir(), "w.xlsx")}, zap.NewNop())

	t.Run("no code", func(t *testing.T) {
		svc := service.NewAttendanceService(stubDecoder{err: domain.ErrNoCodeDetected}, repo, mirror, nil, time.UTC, zap.NewNop())
		_, err := svc.Scan(context.Background(), domain.ScanInput{Image: []byte{1}})
		assert.ErrorIs(t, err, domain.ErrNoCodeDetected)
	})

	t.Run("decoder failure is wrapped", func(t *testing.T) {
		svc := service.NewAttendanceService(stubDecoder{err: errors.New("boom")}, repo, mirror, nil, time.UTC, zap.NewNop())
		_, err := svc.Scan(context.Background(), domain.ScanInput{Image: []byte{1}})
		assert.ErrorIs(t, err, domain.ErrProcessing)
		assert.Equal(t, "boom", service.ErrorCause(err, domain.ErrProcessing))
	})

	t.Run("mirror failure keeps the ledger entry", func(t *testing.T) {
		svc := service.NewAttendanceService(stubDecoder{text: "Name: Mirror Fail"}, repo, failingMirror{}, nil, time.UTC, zap.NewNop())
		_, err := svc.Scan(context.Background(), domain.ScanInput{Image: []byte{1}})
		require.Error(t, err)
		assert.ErrorIs(t, err, domain.ErrProcessing)
		assert.Contains(t, service.ErrorCause(err, domain.ErrProcessing), "disk full")

		records, err := repo.ListAll(context.Background())
		require.NoError(t, err)
		require.Len(t, records, 1)
		assert.Equal(t, "Mirror Fail", records[0].Name)
	})
}

func TestAttendanceService_Truncation(t *testing.T) {
	f := newFixture(t)
	long := make([]rune, 150)
	for i := range long {
		long[i] = 'ø'
	}

	outcome, err := f.svc.Scan(context.Background(), domain.ScanInput{
		Image:         f.qrImage(t, "Name: Zed"),
		ScannerDevice: string(long),
	})
	require.NoError(t, err)
	assert.Len(t, []rune(outcome.Record.ScannerDevice), domain.MaxScannerDeviceLength)
}

func TestAttendanceService_ListRecords(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for _, name := range []string{"Alice", "Bob"} {
		_, err := f.svc.Scan(ctx, domain.ScanInput{Image: f.qrImage(t, "Name: "+name)})
		require.NoError(t, err)
	}

	all, err := f.svc.ListRecords(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	day, err := f.svc.ListRecords(ctx, "2025-01-01")
	require.NoError(t, err)
	assert.Len(t, day, 2)

	other, err := f.svc.ListRecords(ctx, "2025-01-02")
	require.NoError(t, err)
	assert.Empty(t, other)

	_, err = f.svc.ListRecords(ctx, "01/01/2025")
	assert.ErrorIs(t, err, domain.ErrInvalidDate)
}

func TestAttendanceService_WorkbookDownload(t *testing.T) {
	f := newFixture(t)

	data, filename, err := f.svc.WorkbookDownload()
	require.NoError(t, err)

	assert.NotEmpty(t, data)
	assert.Equal(t, "attendance_records_2025-01-01.xlsx", filename)
}
