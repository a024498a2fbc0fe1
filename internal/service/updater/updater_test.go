package updater

import (
	"context"
	"crypto/sha512"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// releaseServer serves a manifest at /manifest.yaml and the binary at /bin.
func releaseServer(t *testing.T, releaseVersion string, binary []byte, checksum string) string {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/manifest.yaml", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("version: " + releaseVersion + "\nurl: bin\nchecksum: \"" + checksum + "\"\n"))
	})
	mux.HandleFunc("/bin", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write(binary)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	return srv.URL + "/manifest.yaml"
}

func checksumOf(data []byte) string {
	sum := sha512.Sum512(data)
	return base64.StdEncoding.EncodeToString(sum[:])
}

func writeTarget(t *testing.T) string {
	t.Helper()

	target := filepath.Join(t.TempDir(), "ward-monitor")
	require.NoError(t, os.WriteFile(target, []byte("old build"), DefaultFileMode))

	return target
}

func TestRun_AppliesNewerRelease(t *testing.T) {
	t.Parallel()

	binary := []byte("new build")
	target := writeTarget(t)

	res, err := Run(context.Background(), &Options{
		ManifestURL:    releaseServer(t, "0.4.0", binary, checksumOf(binary)),
		TargetPath:     target,
		CurrentVersion: "0.3.0",
	})
	require.NoError(t, err)
	require.True(t, res.Updated)
	require.Equal(t, "0.4.0", res.Version)

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, binary, got)
}

func TestRun_SkipsSameVersionUnlessForced(t *testing.T) {
	t.Parallel()

	binary := []byte("same build")
	target := writeTarget(t)
	manifestURL := releaseServer(t, "0.3.0", binary, checksumOf(binary))

	res, err := Run(context.Background(), &Options{ManifestURL: manifestURL, TargetPath: target, CurrentVersion: "0.3.0"})
	require.NoError(t, err)
	require.False(t, res.Updated)

	res, err = Run(context.Background(), &Options{
		ManifestURL:    manifestURL,
		TargetPath:     target,
		CurrentVersion: "0.3.0",
		Force:          true,
	})
	require.NoError(t, err)
	require.True(t, res.Updated)
}

func TestRun_ChecksumMismatchKeepsBinary(t *testing.T) {
	t.Parallel()

	target := writeTarget(t)

	_, err := Run(context.Background(), &Options{
		ManifestURL:    releaseServer(t, "0.4.0", []byte("tampered"), checksumOf([]byte("genuine"))),
		TargetPath:     target,
		CurrentVersion: "0.3.0",
	})
	require.Error(t, err)

	got, err := os.ReadFile(target)
	require.NoError(t, err)
	require.Equal(t, []byte("old build"), got)
}

func TestRun_BadManifest(t *testing.T) {
	t.Parallel()

	_, err := Run(context.Background(), &Options{})
	require.ErrorIs(t, err, errManifestRequired)

	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	_, err = Run(context.Background(), &Options{ManifestURL: srv.URL + "/manifest.yaml"})
	require.ErrorIs(t, err, errBadHTTPStatus)

	_, err = Run(context.Background(), &Options{ManifestURL: releaseServer(t, "", nil, "")})
	require.ErrorIs(t, err, errIncomplete)
}

func TestNewManifest(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	binary := filepath.Join(dir, "ward-monitor")
	require.NoError(t, os.WriteFile(binary, []byte("payload"), DefaultFileMode))

	m, err := NewManifest(binary, "ward-monitor-linux-arm64", "1.2.3")
	require.NoError(t, err)
	require.Equal(t, checksumOf([]byte("payload")), m.Checksum)
	require.NoError(t, m.Validate())

	path := filepath.Join(dir, "manifest.yaml")
	require.NoError(t, m.Save(path))

	contents, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Contains(t, string(contents), "version: 1.2.3")

	_, err = NewManifest(filepath.Join(dir, "missing"), "x", "1")
	require.Error(t, err)
}

func TestResolve(t *testing.T) {
	t.Parallel()

	got, err := resolve("https://example.com/releases/manifest.yaml", "ward-monitor")
	require.NoError(t, err)
	require.Equal(t, "https://example.com/releases/ward-monitor", got)

	got, err = resolve("https://example.com/releases/manifest.yaml", "https://cdn.example.com/bin")
	require.NoError(t, err)
	require.Equal(t, "https://cdn.example.com/bin", got)
}
