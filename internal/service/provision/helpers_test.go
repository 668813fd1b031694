package provision

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/oshokin/vcpkg-artifacts/internal/archive"
	domain "github.com/oshokin/vcpkg-artifacts/internal/domain/artifacts"
	"github.com/oshokin/vcpkg-artifacts/internal/testutil"
)

const testBaseURL = "https://example.invalid/releases"

// testFilesystem falls back to OSFilesystem for every operation without an override.
type testFilesystem struct {
	OSFilesystem

	RemoveFunc    func(path string) error
	RemoveAllFunc func(path string) error
	RenameFunc    func(oldpath, newpath string) error
}

func (f *testFilesystem) Remove(path string) error {
	if f.RemoveFunc != nil {
		return f.RemoveFunc(path)
	}

	return f.OSFilesystem.Remove(path)
}

func (f *testFilesystem) RemoveAll(path string) error {
	if f.RemoveAllFunc != nil {
		return f.RemoveAllFunc(path)
	}

	return f.OSFilesystem.RemoveAll(path)
}

func (f *testFilesystem) Rename(oldpath, newpath string) error {
	if f.RenameFunc != nil {
		return f.RenameFunc(oldpath, newpath)
	}

	return f.OSFilesystem.Rename(oldpath, newpath)
}

// fakeDownloader writes payload to the destination and records each call.
type fakeDownloader struct {
	mu      sync.Mutex
	payload []byte
	err     error
	before  func(destination string)
	uris    []string
	hashes  []string
}

func (d *fakeDownloader) Fetch(_ context.Context, uri, destination, sha512 string) error {
	d.mu.Lock()
	d.uris = append(d.uris, uri)
	d.hashes = append(d.hashes, sha512)
	d.mu.Unlock()

	if d.before != nil {
		d.before(destination)
	}

	if d.err != nil {
		return d.err
	}

	return os.WriteFile(destination, d.payload, 0o644)
}

func (d *fakeDownloader) calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.uris)
}

// layout is a vcpkg root with its install and download directories.
type layout struct {
	root      string
	install   string
	downloads string
}

func newLayout(t *testing.T) layout {
	t.Helper()

	root := t.TempDir()

	return layout{
		root:      root,
		install:   filepath.Join(root, domain.BundleSubtree),
		downloads: filepath.Join(root, "downloads"),
	}
}

// installExisting places an installation with the given files.
func installExisting(t *testing.T, root string, files map[string]string) {
	t.Helper()

	for name, content := range files {
		path := filepath.Join(root, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	}
}

// writeArchive stores data as a tarball and returns its path.
func writeArchive(t *testing.T, dir string, data []byte) string {
	t.Helper()

	require.NoError(t, os.MkdirAll(dir, 0o755))

	path := filepath.Join(dir, "bundle.tar.gz")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	return path
}

// requireNoStaging fails if any staging directory survived beside root.
func requireNoStaging(t *testing.T, root string) {
	t.Helper()

	matches, err := filepath.Glob(filepath.Join(filepath.Dir(root), filepath.Base(root)+stagingPattern))
	require.NoError(t, err)
	require.Empty(t, matches)
}

func newTestInstaller(fs Filesystem) *Installer {
	installer := NewInstaller(fs, archive.NewExtractor(0), DefaultMarkers)
	installer.sleep = func(time.Duration) {}

	return installer
}

func pinned(version string) domain.Pinned {
	return domain.Pinned{Version: version, SHA512: testutil.SHA512([]byte(version))}
}

func noRaceWarning(context.Context) {}
