package provision

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	domain "github.com/oshokin/vcpkg-artifacts/internal/domain/artifacts"
	"github.com/oshokin/vcpkg-artifacts/internal/logger"
)

const (
	renameAttempts = 3
	renameBackoff  = 100 * time.Millisecond

	stagingPattern = ".partial-*"
)

var (
	// ErrBundleLayout is returned when the archive has no vcpkg-artifacts directory.
	ErrBundleLayout = errors.New("standalone bundle does not contain " + domain.BundleSubtree)
	// ErrInstallFailed wraps every installer failure.
	ErrInstallFailed = errors.New("failed to install vcpkg-artifacts")
)

// Extractor unpacks an archive into an existing directory.
type Extractor interface {
	Extract(archivePath, destination string) (string, error)
}

// Installer replaces an installation with the contents of a downloaded bundle.
type Installer struct {
	fs        Filesystem
	extractor Extractor
	markers   MarkerFactory
	sleep     func(time.Duration)
}

// NewInstaller creates an Installer.
func NewInstaller(fs Filesystem, extractor Extractor, markers MarkerFactory) *Installer {
	return &Installer{
		fs:        fs,
		extractor: extractor,
		markers:   markers,
		sleep:     time.Sleep,
	}
}

// Install swaps the vcpkg-artifacts directory of archivePath into state.Root.
//
// The live root is removed before the new tree is renamed in; there is no
// rollback if the rename fails. The staging directory and the archive are
// removed whether or not the install succeeds. For a pinned channel the
// version marker is written last, so an interrupted install stays stale.
func (i *Installer) Install(ctx context.Context, archivePath string, state domain.InstallationState) (err error) {
	root := state.Root

	defer func() {
		if err != nil {
			err = fmt.Errorf("%w: %w", ErrInstallFailed, err)

			if removeErr := i.fs.Remove(archivePath); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) {
				logger.DebugKV(ctx, "Unable to remove bundle archive", "path", archivePath, "error", removeErr)
			}
		}
	}()

	parent := filepath.Dir(root)
	if err = i.fs.MkdirAll(parent, downloadDirMode); err != nil {
		return fmt.Errorf("create %s: %w", parent, err)
	}

	stagingRoot, err := i.fs.MkdirTemp(parent, filepath.Base(root)+stagingPattern)
	if err != nil {
		return fmt.Errorf("create staging directory: %w", err)
	}

	defer func() {
		if removeErr := i.fs.RemoveAll(stagingRoot); removeErr != nil {
			logger.DebugKV(ctx, "Unable to remove staging directory", "path", stagingRoot, "error", removeErr)
		}
	}()

	logger.DebugKV(ctx, "Extracting vcpkg standalone bundle", "archive", archivePath, "staging", stagingRoot)

	extracted, err := i.extractor.Extract(archivePath, stagingRoot)
	if err != nil {
		return fmt.Errorf("extract %s: %w", archivePath, err)
	}

	staging := domain.NewStagingArea(extracted)

	if !i.fs.Exists(staging.Subtree) {
		return ErrBundleLayout
	}

	if err = i.fs.RemoveAll(root); err != nil {
		return fmt.Errorf("remove %s: %w", root, err)
	}

	if err = i.rename(staging.Subtree, root); err != nil {
		return fmt.Errorf("move %s to %s: %w", staging.Subtree, root, err)
	}

	if err = i.fs.RemoveAll(stagingRoot); err != nil {
		return fmt.Errorf("remove %s: %w", stagingRoot, err)
	}

	if err = i.fs.Remove(archivePath); err != nil {
		return fmt.Errorf("remove %s: %w", archivePath, err)
	}

	if pinned, ok := state.Channel.(domain.Pinned); ok {
		if err = i.markers(state.MarkerPath()).Save(ctx, pinned.Version); err != nil {
			return err
		}
	}

	logger.InfoKV(ctx, "Installed vcpkg-artifacts", "root", root, "channel", state.Channel.Name())

	return nil
}

// rename retries transient failures, e.g. a scanner holding a file open on Windows.
func (i *Installer) rename(from, to string) error {
	var err error

	for attempt := 1; attempt <= renameAttempts; attempt++ {
		if err = i.fs.Rename(from, to); err == nil {
			return nil
		}

		if attempt < renameAttempts {
			i.sleep(renameBackoff)
		}
	}

	return err
}
