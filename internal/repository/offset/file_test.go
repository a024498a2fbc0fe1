package offset

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// TestFileRepository_NotFound verifies Load returns ErrNotFound for a missing file.
func TestFileRepository_NotFound(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "missing.yaml"))

	got, err := repo.Load(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
	require.Zero(t, got)
}

// TestFileRepository_SaveLoad ensures Save followed by Load returns the offset
// and that the file is readable YAML.
func TestFileRepository_SaveLoad(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "offset.yaml")
	repo := NewFileRepository(file)
	repo.now = func() time.Time { return time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC) }

	require.NoError(t, repo.Save(context.Background(), 101))
	require.NoError(t, repo.Save(context.Background(), 250))

	got, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, int64(250), got)

	contents, err := os.ReadFile(file)
	require.NoError(t, err)
	require.Contains(t, string(contents), "offset: 250")
	require.Contains(t, string(contents), "updated_at: 2025-05-01T12:00:00Z")

	_, err = os.Stat(file + ".tmp")
	require.ErrorIs(t, err, os.ErrNotExist)
}

func TestFileRepository_Corrupt(t *testing.T) {
	t.Parallel()

	file := filepath.Join(t.TempDir(), "offset.yaml")
	require.NoError(t, os.WriteFile(file, []byte("offset: [not a number"), 0o600))

	_, err := NewFileRepository(file).Load(context.Background())
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)
}

func TestFileRepository_SaveToMissingDir(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "nope", "offset.yaml"))
	require.Error(t, repo.Save(context.Background(), 1))
}
