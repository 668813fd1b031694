package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

const (
	// DefaultMaxBytes is the upper bound on the total extracted size.
	DefaultMaxBytes = int64(2 << 30)

	dirMode  os.FileMode = 0o755
	fileMode os.FileMode = 0o644
)

var (
	// ErrUnsupportedFormat is returned for archives that are neither tar.gz nor zip.
	ErrUnsupportedFormat = errors.New("unsupported archive format")
	// ErrUnsafePath is returned for entries that would land outside the destination.
	ErrUnsafePath = errors.New("archive entry escapes destination")
	// ErrTooLarge is returned when extraction exceeds the size cap.
	ErrTooLarge = errors.New("archive exceeds size limit")
)

// Extractor unpacks archives.
type Extractor struct {
	maxBytes int64
}

// NewExtractor returns an Extractor capped at maxBytes. A non-positive value selects DefaultMaxBytes.
func NewExtractor(maxBytes int64) *Extractor {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}

	return &Extractor{maxBytes: maxBytes}
}

// Extract unpacks archivePath into destination, which must already exist,
// and returns the root of the extracted tree. The format is chosen by file extension.
func (e *Extractor) Extract(archivePath, destination string) (string, error) {
	var (
		name = strings.ToLower(archivePath)
		err  error
	)

	switch {
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		err = e.extractTarGz(archivePath, destination)
	case strings.HasSuffix(name, ".zip"):
		err = e.extractZip(archivePath, destination)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(archivePath))
	}

	if err != nil {
		return "", err
	}

	return destination, nil
}

func (e *Extractor) extractTarGz(archivePath, destination string) error {
	f, err := os.Open(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}

	defer func() {
		_ = f.Close()
	}()

	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("creating gzip reader: %w", err)
	}

	defer func() {
		_ = gz.Close()
	}()

	budget := e.maxBytes
	tr := tar.NewReader(gz)

	for {
		hdr, nextErr := tr.Next()
		if errors.Is(nextErr, io.EOF) {
			return nil
		}

		if nextErr != nil {
			return fmt.Errorf("reading tar entry: %w", nextErr)
		}

		target, err := safeJoin(destination, hdr.Name)
		if err != nil {
			return err
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err = os.MkdirAll(target, dirMode); err != nil {
				return fmt.Errorf("creating directory %s: %w", hdr.Name, err)
			}
		case tar.TypeReg:
			written, err := writeFile(target, tr, hdr.FileInfo().Mode().Perm(), budget)
			if err != nil {
				return fmt.Errorf("extracting %s: %w", hdr.Name, err)
			}

			budget -= written
		default:
			// Links and devices are not part of the bundle.
			continue
		}
	}
}

func (e *Extractor) extractZip(archivePath, destination string) error {
	zr, err := zip.OpenReader(archivePath)
	if err != nil {
		return fmt.Errorf("opening archive: %w", err)
	}

	defer func() {
		_ = zr.Close()
	}()

	budget := e.maxBytes

	for _, entry := range zr.File {
		target, err := safeJoin(destination, entry.Name)
		if err != nil {
			return err
		}

		if entry.FileInfo().IsDir() {
			if err = os.MkdirAll(target, dirMode); err != nil {
				return fmt.Errorf("creating directory %s: %w", entry.Name, err)
			}

			continue
		}

		if !entry.Mode().IsRegular() {
			continue
		}

		written, err := extractZipEntry(entry, target, budget)
		if err != nil {
			return fmt.Errorf("extracting %s: %w", entry.Name, err)
		}

		budget -= written
	}

	return nil
}

func extractZipEntry(entry *zip.File, target string, budget int64) (int64, error) {
	rc, err := entry.Open()
	if err != nil {
		return 0, err
	}

	defer func() {
		_ = rc.Close()
	}()

	return writeFile(target, rc, entry.Mode().Perm(), budget)
}

// writeFile copies at most budget bytes from r into target.
func writeFile(target string, r io.Reader, perm os.FileMode, budget int64) (_ int64, err error) {
	if perm == 0 {
		perm = fileMode
	}

	if err = os.MkdirAll(filepath.Dir(target), dirMode); err != nil {
		return 0, err
	}

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return 0, err
	}

	defer func() {
		if closeErr := out.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	written, err := io.Copy(out, io.LimitReader(r, budget+1))
	if err != nil {
		return written, err
	}

	if written > budget {
		return written, ErrTooLarge
	}

	return written, nil
}

// safeJoin resolves name under root and rejects anything outside it.
func safeJoin(root, name string) (string, error) {
	cleaned := filepath.Clean(filepath.FromSlash(name))
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", ErrUnsafePath, name)
	}

	return filepath.Join(root, cleaned), nil
}
