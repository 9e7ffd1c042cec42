package repository_test

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/straye-as/qr-attendance/internal/repository"
	"github.com/straye-as/qr-attendance/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAttendanceRepository_UpsertCreates(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewAttendanceRepository(db)
	ctx := context.Background()

	record := testutil.NewRecord("J.Doe", "2025-01-01", "Gate A")

	stored, created, err := repo.Upsert(ctx, record)
	require.NoError(t, err)

	assert.True(t, created)
	assert.NotEmpty(t, stored.ID)
	assert.Equal(t, "J.Doe", stored.Name)
	assert.Equal(t, "2025-01-01", stored.ScanDate)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestAttendanceRepository_UpsertDuplicateKeepsFirst(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewAttendanceRepository(db)
	ctx := context.Background()

	first := testutil.NewRecord("J.Doe", "2025-01-01", "Gate A")
	_, created, err := repo.Upsert(ctx, first)
	require.NoError(t, err)
	require.True(t, created)

	second := testutil.NewRecord("J.Doe", "2025-01-01", "Gate B")
	second.ScanTime = "17:30:00"
	second.ScannerLocation = "Library"

	stored, created, err := repo.Upsert(ctx, second)
	require.NoError(t, err)

	assert.False(t, created)
	assert.Equal(t, first.ID, stored.ID)
	assert.Equal(t, "Gate A", stored.ScannerName)
	assert.Equal(t, "Main gate", stored.ScannerLocation)
	assert.Equal(t, "09:00:00", stored.ScanTime)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestAttendanceRepository_UpsertIsIdempotent(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewAttendanceRepository(db)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, created, err := repo.Upsert(ctx, testutil.NewRecord("Alice", "2025-03-04", "Gate A"))
		require.NoError(t, err)
		assert.Equal(t, i == 0, created, "attempt %d", i)
	}

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestAttendanceRepository_SameNameDifferentDays(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewAttendanceRepository(db)
	ctx := context.Background()

	_, created, err := repo.Upsert(ctx, testutil.NewRecord("Alice", "2025-03-04", "Gate A"))
	require.NoError(t, err)
	assert.True(t, created)

	_, created, err = repo.Upsert(ctx, testutil.NewRecord("Alice", "2025-03-05", "Gate A"))
	require.NoError(t, err)
	assert.True(t, created)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)
}

func TestAttendanceRepository_ListOrderingAndFilter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewAttendanceRepository(db)
	ctx := context.Background()

	base := time.Date(2025, 3, 4, 9, 0, 0, 0, time.UTC)
	entries := []struct {
		name string
		date string
		at   time.Time
	}{
		{name: "Alice", date: "2025-03-04", at: base},
		{name: "Bob", date: "2025-03-04", at: base.Add(time.Minute)},
		{name: "Carol", date: "2025-03-05", at: base.Add(24 * time.Hour)},
	}
	for _, e := range entries {
		record := testutil.NewRecord(e.name, e.date, "Gate A")
		record.CreatedAt = e.at
		_, _, err := repo.Upsert(ctx, record)
		require.NoError(t, err)
	}

	all, err := repo.ListAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "Carol", all[0].Name)
	assert.Equal(t, "Bob", all[1].Name)
	assert.Equal(t, "Alice", all[2].Name)

	day, err := repo.ListByDate(ctx, "2025-03-04")
	require.NoError(t, err)
	require.Len(t, day, 2)
	assert.Equal(t, "Bob", day[0].Name)
	assert.Equal(t, "Alice", day[1].Name)

	none, err := repo.ListByDate(ctx, "1999-01-01")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestAttendanceRepository_ConcurrentFirstScans(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewAttendanceRepository(db)
	ctx := context.Background()

	const workers = 8
	var (
		wg      sync.WaitGroup
		created atomic.Int32
	)
	errs := make(chan error, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, ok, err := repo.Upsert(ctx, testutil.NewRecord("Racer", "2025-06-01", "Gate A"))
			if err != nil {
				errs <- err
				return
			}
			if ok {
				created.Add(1)
			}
		}()
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		require.NoError(t, err)
	}
	assert.Equal(t, int32(1), created.Load())

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}
