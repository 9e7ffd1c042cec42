package jobs

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/straye-as/qr-attendance/internal/metrics"
	"github.com/straye-as/qr-attendance/internal/storage"
	"go.uber.org/zap"
)

// WorkbookArchiveJobName is the scheduler name of the archive job
const WorkbookArchiveJobName = "workbook_archive"

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// WorkbookSnapshotter returns the current workbook bytes
type WorkbookSnapshotter interface {
	Snapshot() ([]byte, error)
}

// WorkbookArchiveJob copies the attendance workbook to the archive store and prunes
// old copies beyond the retention count.
type WorkbookArchiveJob struct {
	workbook WorkbookSnapshotter
	store    storage.ArchiveStore
	metrics  *metrics.Metrics
	keep     int
	timeout  time.Duration
	now      func() time.Time
	logger   *zap.Logger
}

// NewWorkbookArchiveJob creates the job. keep <= 0 disables pruning.
func NewWorkbookArchiveJob(
	workbook WorkbookSnapshotter,
	store storage.ArchiveStore,
	m *metrics.Metrics,
	keep int,
	timeout time.Duration,
	logger *zap.Logger,
) *WorkbookArchiveJob {
	return &WorkbookArchiveJob{
		workbook: workbook,
		store:    store,
		metrics:  m,
		keep:     keep,
		timeout:  timeout,
		now:      time.Now,
		logger:   logger,
	}
}

// SetClock replaces time.Now
func (j *WorkbookArchiveJob) SetClock(now func() time.Time) {
	j.now = now
}

// ArchiveKey names the snapshot taken at t, e.g. 2025/01/attendance_records_20250101T230000.xlsx.
// Keys sort in chronological order.
func ArchiveKey(t time.Time) string {
	return fmt.Sprintf("%s/attendance_records_%s.xlsx", t.Format("2006/01"), t.Format("20060102T150405"))
}

// Run is called by the scheduler
func (j *WorkbookArchiveJob) Run() {
	ctx, cancel := context.WithTimeout(context.Background(), j.timeout)
	defer cancel()

	start := time.Now()
	key, err := j.RunOnce(ctx)
	j.metrics.ObserveArchive(err)
	if err != nil {
		j.logger.Error("workbook archive job failed",
			zap.Error(err),
			zap.Duration("duration", time.Since(start)))
		return
	}

	j.logger.Info("workbook archive job completed",
		zap.String("key", key),
		zap.Duration("duration", time.Since(start)))
}

// RunOnce stores one snapshot and prunes, returning the key written
func (j *WorkbookArchiveJob) RunOnce(ctx context.Context) (string, error) {
	data, err := j.workbook.Snapshot()
	if err != nil {
		return "", fmt.Errorf("failed to snapshot workbook: %w", err)
	}

	key := ArchiveKey(j.now().UTC())
	size, err := j.store.Put(ctx, key, xlsxContentType, bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("failed to store workbook archive %s: %w", key, err)
	}
	j.logger.Debug("workbook archive stored",
		zap.String("key", key),
		zap.Int64("size", size))

	if err := j.prune(ctx); err != nil {
		// The snapshot itself is stored
		j.logger.Warn("failed to prune workbook archives", zap.Error(err))
	}
	return key, nil
}

func (j *WorkbookArchiveJob) prune(ctx context.Context) error {
	if j.keep <= 0 {
		return nil
	}

	keys, err := j.store.List(ctx, "")
	if err != nil {
		return err
	}
	if len(keys) <= j.keep {
		return nil
	}

	for _, key := range keys[:len(keys)-j.keep] {
		if err := j.store.Delete(ctx, key); err != nil {
			return fmt.Errorf("failed to delete %s: %w", key, err)
		}
		j.logger.Info("pruned workbook archive", zap.String("key", key))
	}
	return nil
}
