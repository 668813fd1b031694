package provision

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/vcpkg-artifacts/internal/domain/artifacts"
)

func TestFetcher_Reference(t *testing.T) {
	t.Parallel()

	f := NewFetcher(&fakeDownloader{}, OSFilesystem{}, testBaseURL)

	ref := f.Reference(domain.Pinned{Version: "2025-09-03", SHA512: "abc"})
	require.Equal(t, "vcpkg-standalone-bundle-2025-09-03.tar.gz", ref.TarballName)
	require.Equal(t, testBaseURL+"/download/2025-09-03/vcpkg-standalone-bundle.tar.gz", ref.URI)
	require.Equal(t, "abc", ref.SHA512)

	ref = f.Reference(domain.Latest{})
	require.Equal(t, "vcpkg-standalone-bundle-latest.tar.gz", ref.TarballName)
	require.Equal(t, testBaseURL+"/latest/download/vcpkg-standalone-bundle.tar.gz", ref.URI)
	require.Empty(t, ref.SHA512)
}

func TestFetcher_PinnedPassesHash(t *testing.T) {
	t.Parallel()

	downloads := filepath.Join(t.TempDir(), "downloads")
	downloader := &fakeDownloader{payload: []byte("bundle")}
	channel := pinned("2025-09-03")

	path, err := NewFetcher(downloader, OSFilesystem{}, testBaseURL).Fetch(context.Background(), downloads, channel)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(downloads, "vcpkg-standalone-bundle-2025-09-03.tar.gz"), path)
	require.Equal(t, []string{channel.SHA512}, downloader.hashes)
	require.FileExists(t, path)
}

func TestFetcher_LatestRemovesPreviousTarball(t *testing.T) {
	t.Parallel()

	downloads := t.TempDir()
	previous := filepath.Join(downloads, latestTarballName)
	require.NoError(t, os.WriteFile(previous, []byte("old"), 0o644))

	downloader := &fakeDownloader{
		payload: []byte("new"),
		before: func(destination string) {
			require.NoFileExists(t, destination)
		},
	}

	path, err := NewFetcher(downloader, OSFilesystem{}, testBaseURL).Fetch(context.Background(), downloads, domain.Latest{})
	require.NoError(t, err)
	require.Equal(t, previous, path)
	require.Equal(t, []string{""}, downloader.hashes)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	require.Equal(t, "new", string(got))
}

func TestFetcher_LatestRemoveFailure(t *testing.T) {
	t.Parallel()

	fs := &testFilesystem{
		RemoveFunc: func(string) error { return os.ErrPermission },
	}
	downloader := &fakeDownloader{}

	path, err := NewFetcher(downloader, fs, testBaseURL).Fetch(context.Background(), t.TempDir(), domain.Latest{})
	require.Empty(t, path)
	require.ErrorIs(t, err, ErrDownloadFailed)
	require.ErrorIs(t, err, os.ErrPermission)
	require.Zero(t, downloader.calls())
}

func TestFetcher_DownloadFailure(t *testing.T) {
	t.Parallel()

	downloader := &fakeDownloader{err: errors.New("connection refused")}

	path, err := NewFetcher(downloader, OSFilesystem{}, testBaseURL).Fetch(context.Background(), t.TempDir(), pinned("v1"))
	require.Empty(t, path)
	require.ErrorIs(t, err, ErrDownloadFailed)
}
