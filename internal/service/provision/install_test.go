package provision

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/vcpkg-artifacts/internal/domain/artifacts"
	"github.com/oshokin/vcpkg-artifacts/internal/testutil"
)

func TestInstaller_PinnedReplacesInstallation(t *testing.T) {
	t.Parallel()

	l := newLayout(t)
	installExisting(t, l.install, map[string]string{
		"main.js":     "old",
		"obsolete.js": "gone after install",
		"version.txt": "2024-01-01",
	})

	tarball := writeArchive(t, l.downloads, testutil.Bundle(t, "new"))
	state := domain.InstallationState{Root: l.install, Channel: pinned("2025-09-03")}

	require.NoError(t, newTestInstaller(OSFilesystem{}).Install(context.Background(), tarball, state))

	got, err := os.ReadFile(filepath.Join(l.install, domain.EntryPointFilename))
	require.NoError(t, err)
	require.Equal(t, "new", string(got))
	require.NoFileExists(t, filepath.Join(l.install, "obsolete.js"))

	marker, err := os.ReadFile(state.MarkerPath())
	require.NoError(t, err)
	require.Equal(t, "2025-09-03", string(marker))

	require.NoFileExists(t, tarball)
	requireNoStaging(t, l.install)
	// Only the artifacts subtree is installed; the rest of the bundle stays out of the vcpkg root.
	require.NoDirExists(t, filepath.Join(l.root, "scripts"))
}

func TestInstaller_LatestWritesNoMarker(t *testing.T) {
	t.Parallel()

	l := newLayout(t)
	tarball := writeArchive(t, l.downloads, testutil.Bundle(t, "latest"))
	state := domain.InstallationState{Root: l.install, Channel: domain.Latest{}}

	require.NoError(t, newTestInstaller(OSFilesystem{}).Install(context.Background(), tarball, state))

	require.FileExists(t, state.EntryPoint())
	require.NoFileExists(t, state.MarkerPath())
	require.NoFileExists(t, tarball)
	requireNoStaging(t, l.install)
}

func TestInstaller_ExtractionFailureKeepsInstallation(t *testing.T) {
	t.Parallel()

	l := newLayout(t)
	installExisting(t, l.install, map[string]string{"main.js": "old"})

	tarball := writeArchive(t, l.downloads, []byte("corrupt"))
	state := domain.InstallationState{Root: l.install, Channel: domain.Latest{}}

	err := newTestInstaller(OSFilesystem{}).Install(context.Background(), tarball, state)
	require.ErrorIs(t, err, ErrInstallFailed)

	got, readErr := os.ReadFile(state.EntryPoint())
	require.NoError(t, readErr)
	require.Equal(t, "old", string(got))
	require.NoFileExists(t, tarball)
	requireNoStaging(t, l.install)
}

func TestInstaller_MissingSubtree(t *testing.T) {
	t.Parallel()

	l := newLayout(t)
	installExisting(t, l.install, map[string]string{"main.js": "old"})

	tarball := writeArchive(t, l.downloads, testutil.TarGz(t, map[string]string{"other/main.js": "x"}))
	state := domain.InstallationState{Root: l.install, Channel: domain.Latest{}}

	err := newTestInstaller(OSFilesystem{}).Install(context.Background(), tarball, state)
	require.ErrorIs(t, err, ErrBundleLayout)
	require.FileExists(t, state.EntryPoint())
	requireNoStaging(t, l.install)
}

func TestInstaller_RenameRetries(t *testing.T) {
	t.Parallel()

	l := newLayout(t)
	tarball := writeArchive(t, l.downloads, testutil.Bundle(t, "retried"))
	state := domain.InstallationState{Root: l.install, Channel: domain.Latest{}}

	var attempts int

	fs := &testFilesystem{}
	fs.RenameFunc = func(oldpath, newpath string) error {
		attempts++
		if attempts == 1 {
			return errors.New("sharing violation")
		}

		return fs.OSFilesystem.Rename(oldpath, newpath)
	}

	require.NoError(t, newTestInstaller(fs).Install(context.Background(), tarball, state))
	require.Equal(t, 2, attempts)
	require.FileExists(t, state.EntryPoint())
}

func TestInstaller_RenameFailureHasNoRollback(t *testing.T) {
	t.Parallel()

	l := newLayout(t)
	installExisting(t, l.install, map[string]string{"main.js": "old", "version.txt": "old"})

	tarball := writeArchive(t, l.downloads, testutil.Bundle(t, "new"))
	state := domain.InstallationState{Root: l.install, Channel: pinned("2025-09-03")}

	fs := &testFilesystem{
		RenameFunc: func(string, string) error { return errors.New("rename refused") },
	}

	err := newTestInstaller(fs).Install(context.Background(), tarball, state)
	require.ErrorIs(t, err, ErrInstallFailed)
	require.NoDirExists(t, l.install)
	require.NoFileExists(t, tarball)
	requireNoStaging(t, l.install)
}

func TestInstaller_MarkerWrittenLast(t *testing.T) {
	t.Parallel()

	l := newLayout(t)
	tarball := writeArchive(t, l.downloads, testutil.Bundle(t, "new"))
	state := domain.InstallationState{Root: l.install, Channel: pinned("2025-09-03")}

	fs := &testFilesystem{}
	fs.RemoveFunc = func(path string) error {
		if strings.HasSuffix(path, ".tar.gz") {
			// The archive is removed before the marker is written.
			require.NoFileExists(t, state.MarkerPath())
		}

		return fs.OSFilesystem.Remove(path)
	}

	require.NoError(t, newTestInstaller(fs).Install(context.Background(), tarball, state))
	require.FileExists(t, state.MarkerPath())
}
