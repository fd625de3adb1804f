package sqlstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"io"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"github.com/couchcryptid/argo-profile-etl/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openSQLite(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), SQLite, filepath.Join(t.TempDir(), "argo.db"), slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func profile(id, source string) domain.ProfileRecord {
	return domain.ProfileRecord{
		ID:          id,
		SourceFile:  source,
		Metadata:    "6901234_m0",
		CycleNumber: 3,
		Geolocation: domain.NewPoint(45.5, -30.25),
		Data:        map[string]domain.LevelArrays{"PRES": {Value: []float64{5, 10}, QC: []string{"1", "1"}}},
		ProcessedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func loadProfile(ctx context.Context, s *Store, id string) (domain.ProfileRecord, error) {
	var doc string
	row := s.db.QueryRowContext(ctx, s.dialect.rebind(`SELECT CAST(doc AS TEXT) FROM argo_profiles WHERE id = $1`), id)
	if err := row.Scan(&doc); err != nil {
		return domain.ProfileRecord{}, err
	}
	var rec domain.ProfileRecord
	err := json.Unmarshal([]byte(doc), &rec)
	return rec, err
}

func countBySource(t *testing.T, s *Store, source string) int {
	t.Helper()
	var n int
	row := s.db.QueryRow(s.dialect.rebind(`SELECT COUNT(*) FROM argo_profiles WHERE source_file = $1`), source)
	require.NoError(t, row.Scan(&n))
	return n
}

func TestStore_UpsertAndLoad(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()

	rec := profile("R1_001_0", "a.nc")
	require.NoError(t, s.UpsertProfile(ctx, rec))

	got, err := loadProfile(ctx, s, "R1_001_0")
	require.NoError(t, err)
	assert.Equal(t, rec.SourceFile, got.SourceFile)
	assert.Equal(t, rec.Geolocation, got.Geolocation)
	assert.Equal(t, rec.Data, got.Data)
	assert.True(t, rec.ProcessedAt.Equal(got.ProcessedAt))

	rec.CycleNumber = 4
	require.NoError(t, s.UpsertProfile(ctx, rec))
	got, err = loadProfile(ctx, s, "R1_001_0")
	require.NoError(t, err)
	assert.Equal(t, int32(4), got.CycleNumber)

	assert.Equal(t, 1, countBySource(t, s, "a.nc"))
}

func TestStore_ClearOnlyTouchesSource(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()

	require.NoError(t, s.UpsertProfile(ctx, profile("A_0", "a.nc")))
	require.NoError(t, s.UpsertProfile(ctx, profile("A_1", "a.nc")))
	require.NoError(t, s.UpsertProfile(ctx, profile("B_0", "b.nc")))

	require.NoError(t, s.Clear(ctx, "a.nc"))

	assert.Zero(t, countBySource(t, s, "a.nc"))
	assert.Equal(t, 1, countBySource(t, s, "b.nc"))

	_, err := loadProfile(ctx, s, "A_0")
	require.ErrorIs(t, err, sql.ErrNoRows)
}

func TestStore_UpsertMetadata(t *testing.T) {
	s := openSQLite(t)
	ctx := context.Background()

	meta := domain.MetadataRecord{ID: "6901234_m0", PlatformNumber: "6901234", PIName: []string{"A"}}
	require.NoError(t, s.UpsertMetadata(ctx, meta))
	meta.PIName = []string{"A", "B"}
	require.NoError(t, s.UpsertMetadata(ctx, meta))

	var count int
	require.NoError(t, s.db.QueryRow(`SELECT COUNT(*) FROM argo_metadata`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestDialect_Rebind(t *testing.T) {
	q := `SELECT * FROM t WHERE a = $1 AND b IN ($2,$10) AND c = '$'`
	assert.Equal(t, `SELECT * FROM t WHERE a = ? AND b IN (?,?) AND c = '$'`, SQLite.rebind(q))
	assert.Equal(t, q, Postgres.rebind(q))
}

func TestParseDialect(t *testing.T) {
	d, err := ParseDialect("Postgres")
	require.NoError(t, err)
	assert.Equal(t, Postgres, d)
	d, err = ParseDialect("sqlite")
	require.NoError(t, err)
	assert.Equal(t, SQLite, d)
	_, err = ParseDialect("oracle")
	require.Error(t, err)
}
