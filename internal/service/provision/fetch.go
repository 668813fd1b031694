package provision

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	domain "github.com/oshokin/vcpkg-artifacts/internal/domain/artifacts"
	"github.com/oshokin/vcpkg-artifacts/internal/logger"
)

const (
	bundleAssetName   = "vcpkg-standalone-bundle.tar.gz"
	tarballPrefix     = "vcpkg-standalone-bundle-"
	tarballSuffix     = ".tar.gz"
	latestTarballName = tarballPrefix + "latest" + tarballSuffix

	downloadDirMode os.FileMode = 0o755
)

// ErrDownloadFailed signals that no archive was produced.
var ErrDownloadFailed = errors.New("failed to download the vcpkg standalone bundle")

// Downloader places a remote file at a local path, verifying sha512 when it is not empty.
type Downloader interface {
	Fetch(ctx context.Context, uri, destination, sha512 string) error
}

// Fetcher downloads the standalone bundle archive for a channel.
type Fetcher struct {
	downloader Downloader
	fs         Filesystem
	baseURL    string
}

// NewFetcher creates a Fetcher that resolves release assets under baseURL.
func NewFetcher(downloader Downloader, fs Filesystem, baseURL string) *Fetcher {
	return &Fetcher{
		downloader: downloader,
		fs:         fs,
		baseURL:    baseURL,
	}
}

// Reference describes what would be fetched for channel.
func (f *Fetcher) Reference(channel domain.Channel) domain.BundleReference {
	switch ch := channel.(type) {
	case domain.Pinned:
		return domain.BundleReference{
			TarballName: tarballPrefix + ch.Version + tarballSuffix,
			URI:         f.baseURL + "/download/" + ch.Version + "/" + bundleAssetName,
			SHA512:      ch.SHA512,
		}
	default:
		return domain.BundleReference{
			TarballName: latestTarballName,
			URI:         f.baseURL + "/latest/download/" + bundleAssetName,
		}
	}
}

// Fetch downloads the bundle into downloadRoot and returns the archive path.
// On failure the path is empty and the error wraps ErrDownloadFailed.
func (f *Fetcher) Fetch(ctx context.Context, downloadRoot string, channel domain.Channel) (string, error) {
	ref := f.Reference(channel)
	tarball := filepath.Join(downloadRoot, ref.TarballName)

	switch ch := channel.(type) {
	case domain.Pinned:
		logger.InfoKV(ctx, "Downloading vcpkg standalone bundle", "version", ch.Version)
	default:
		logger.Warn(ctx, "Downloading latest vcpkg standalone bundle; its contents cannot be verified")

		if err := f.fs.Remove(tarball); err != nil && !errors.Is(err, os.ErrNotExist) {
			return "", fmt.Errorf("%w: remove %s: %w", ErrDownloadFailed, tarball, err)
		}
	}

	if err := f.fs.MkdirAll(downloadRoot, downloadDirMode); err != nil {
		return "", fmt.Errorf("%w: create %s: %w", ErrDownloadFailed, downloadRoot, err)
	}

	if err := f.downloader.Fetch(ctx, ref.URI, tarball, ref.SHA512); err != nil {
		return "", fmt.Errorf("%w: %w", ErrDownloadFailed, err)
	}

	logger.DebugKV(ctx, "Downloaded vcpkg standalone bundle", "path", tarball)

	return tarball, nil
}
