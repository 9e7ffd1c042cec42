package migrations_test

import (
	"database/sql"
	"path/filepath"
	"testing"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pressly/goose/v3"
	"github.com/straye-as/qr-attendance/migrations"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openMigrated(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", filepath.Join(t.TempDir(), "migrate.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	goose.SetBaseFS(migrations.FS)
	goose.SetLogger(goose.NopLogger())
	require.NoError(t, goose.SetDialect("sqlite3"))
	require.NoError(t, goose.Up(db, "."))
	return db
}

func TestMigrations_UniqueNamePerDay(t *testing.T) {
	db := openMigrated(t)

	insert := `INSERT INTO attendance_records (id, name, department, year, scan_date, scan_time, created_at)
		VALUES (?, ?, 'Bsc.CS', '2nd year', ?, '09:00:00', CURRENT_TIMESTAMP)`

	_, err := db.Exec(insert, "00000000-0000-0000-0000-000000000001", "J.Doe", "2025-01-01")
	require.NoError(t, err)

	_, err = db.Exec(insert, "00000000-0000-0000-0000-000000000002", "J.Doe", "2025-01-01")
	assert.Error(t, err, "second row for the same name and day violates uk_attendance_name_date")

	_, err = db.Exec(insert, "00000000-0000-0000-0000-000000000003", "J.Doe", "2025-01-02")
	assert.NoError(t, err)

	var scanner string
	require.NoError(t, db.QueryRow(`SELECT scanner_name FROM attendance_records WHERE scan_date = '2025-01-02'`).Scan(&scanner))
	assert.Equal(t, "Unknown", scanner)
}

func TestMigrations_DownRemovesTable(t *testing.T) {
	db := openMigrated(t)

	require.NoError(t, goose.Down(db, "."))

	var count int
	err := db.QueryRow(`SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = 'attendance_records'`).Scan(&count)
	require.NoError(t, err)
	assert.Zero(t, count)
}
