package main

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	cdfadapter "github.com/couchcryptid/argo-profile-etl/internal/adapter/cdf"
	"github.com/couchcryptid/argo-profile-etl/internal/decode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRun_WritesFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, run([]string{"-out", dir, "-files", "2", "-profiles", "1", "-levels", "3", "-platform", "42"}))

	for _, name := range []string{"R42_001.nc", "R42_002.nc"} {
		info, err := os.Stat(filepath.Join(dir, name))
		require.NoError(t, err)
		assert.Positive(t, info.Size())
	}
}

func TestRun_FilesCarryPlatformAndCycle(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, run([]string{"-out", dir, "-files", "2", "-profiles", "2", "-levels", "3", "-platform", "5900001"}))

	f, err := cdfadapter.Open(filepath.Join(dir, "R5900001_002.nc"))
	require.NoError(t, err)
	defer f.Close()

	values, err := decode.NewRegistry(decode.DefaultVocabulary()).DecodeFile(f, slog.New(slog.DiscardHandler))
	require.NoError(t, err)
	assert.Equal(t, []any{"5900001", "5900001"}, values["PLATFORM_NUMBER"].Native())
	assert.Equal(t, []any{int32(2), int32(2)}, values["CYCLE_NUMBER"].Native())
}

func TestRun_RequiresOut(t *testing.T) {
	require.Error(t, run(nil))
}

func TestRun_RejectsLongPlatform(t *testing.T) {
	require.Error(t, run([]string{"-out", t.TempDir(), "-platform", "123456789"}))
}
