package download

import (
	"context"
	"crypto"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	goupdate "github.com/doitdistributed/go-update"

	"github.com/oshokin/vcpkg-artifacts/internal/logger"

	// Ensure SHA512 is available to go-update.
	_ "crypto/sha512"
)

const (
	// DefaultMaxBytes caps a single download.
	DefaultMaxBytes = int64(512 << 20)

	// DefaultFileMode is the permission of downloaded files.
	DefaultFileMode os.FileMode = 0o644

	// ChecksumFunction is the digest the expected hashes are expressed in.
	ChecksumFunction = crypto.SHA512

	retryCount   = 1
	retryBackoff = 250 * time.Millisecond
)

var (
	// ErrOriginBlocked is returned when no source may be contacted.
	ErrOriginBlocked = errors.New("download from the origin is blocked and no asset cache entry is usable")
	// ErrBadStatus is returned for non-200 HTTP responses.
	ErrBadStatus = errors.New("unexpected http status")
	// ErrTooLarge is returned when the payload exceeds the size cap.
	ErrTooLarge = errors.New("download exceeds size limit")
	// ErrInvalidChecksum is returned when the expected hash is not hex SHA-512.
	ErrInvalidChecksum = errors.New("invalid sha512")
)

// Downloader fetches files with optional hash verification and mirroring.
type Downloader struct {
	client      *http.Client
	mirror      string
	blockOrigin bool
	maxBytes    int64
	sleep       func(time.Duration)
}

// Option configures a Downloader.
type Option func(*Downloader)

// WithHTTPClient overrides the HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(d *Downloader) {
		if client != nil {
			d.client = client
		}
	}
}

// WithTimeout bounds each request.
func WithTimeout(timeout time.Duration) Option {
	return func(d *Downloader) {
		if timeout > 0 {
			d.client = &http.Client{Timeout: timeout}
		}
	}
}

// WithAssetCache sets a mirror URL template containing {sha512}.
func WithAssetCache(template string, blockOrigin bool) Option {
	return func(d *Downloader) {
		d.mirror = template
		d.blockOrigin = blockOrigin
	}
}

// WithMaxBytes overrides the size cap.
func WithMaxBytes(limit int64) Option {
	return func(d *Downloader) {
		if limit > 0 {
			d.maxBytes = limit
		}
	}
}

// New creates a Downloader.
func New(opts ...Option) *Downloader {
	d := &Downloader{
		client:   http.DefaultClient,
		maxBytes: DefaultMaxBytes,
		sleep:    time.Sleep,
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

// Fetch downloads uri to destination. When sha512 is not empty the payload
// must match it; the asset cache (if any) is tried first.
func (d *Downloader) Fetch(ctx context.Context, uri, destination, sha512 string) error {
	var checksum []byte

	if sha512 != "" {
		decoded, err := hex.DecodeString(strings.ToLower(strings.TrimSpace(sha512)))
		if err != nil || len(decoded) != ChecksumFunction.Size() {
			return fmt.Errorf("%w: %q", ErrInvalidChecksum, sha512)
		}

		checksum = decoded
	}

	sources := d.sources(uri, sha512)
	if len(sources) == 0 {
		return ErrOriginBlocked
	}

	var errs []error

	for _, source := range sources {
		logger.DebugKV(ctx, "Downloading", "url", source, "destination", destination)

		err := d.fetchOne(ctx, source, destination, checksum)
		if err == nil {
			return nil
		}

		logger.WarnKV(ctx, "Download attempt failed", "url", source, "error", err)
		errs = append(errs, fmt.Errorf("%s: %w", source, err))
	}

	return errors.Join(errs...)
}

// sources lists the URLs to try in order.
func (d *Downloader) sources(uri, sha512 string) []string {
	var sources []string

	if d.mirror != "" && sha512 != "" {
		sources = append(sources, strings.ReplaceAll(d.mirror, "{sha512}", strings.ToLower(sha512)))
	}

	if !d.blockOrigin {
		sources = append(sources, uri)
	}

	return sources
}

func (d *Downloader) fetchOne(ctx context.Context, source, destination string, checksum []byte) error {
	payload, err := d.get(ctx, source)
	if err != nil {
		return err
	}

	defer func() {
		_ = payload.Close()
	}()

	return place(payload, destination, checksum)
}

// get opens the response body of source, retrying once on network errors and 5xx.
func (d *Downloader) get(ctx context.Context, source string) (io.ReadCloser, error) {
	for attempt := 0; ; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, http.NoBody)
		if err != nil {
			return nil, err
		}

		resp, err := d.client.Do(req)
		if err != nil {
			if shouldRetry(attempt, err, 0) {
				d.sleep(retryBackoff)
				continue
			}

			return nil, err
		}

		if resp.StatusCode == http.StatusOK {
			return &limitedBody{body: resp.Body, remaining: d.maxBytes}, nil
		}

		_ = resp.Body.Close()

		if shouldRetry(attempt, nil, resp.StatusCode) {
			d.sleep(retryBackoff)
			continue
		}

		return nil, fmt.Errorf("%s: %w", resp.Status, ErrBadStatus)
	}
}

// place verifies payload against checksum and moves it to destination.
// If destination did not exist before, no file is left there on failure.
func place(payload io.Reader, destination string, checksum []byte) (err error) {
	if err = os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
		return fmt.Errorf("create download directory: %w", err)
	}

	created := false

	if _, statErr := os.Stat(destination); errors.Is(statErr, os.ErrNotExist) {
		// go-update renames the target aside first, so it has to exist.
		if err = os.WriteFile(destination, nil, DefaultFileMode); err != nil {
			return fmt.Errorf("create download placeholder: %w", err)
		}

		created = true
	}

	defer func() {
		if err != nil && created {
			_ = os.Remove(destination)
		}
	}()

	options := goupdate.Options{
		TargetPath: destination,
		TargetMode: DefaultFileMode,
		Checksum:   checksum,
		Hash:       ChecksumFunction,
	}

	if err = goupdate.Apply(payload, options); err != nil {
		_ = os.Remove(sideFile(destination))

		return fmt.Errorf("apply download: %w", err)
	}

	return nil
}

// sideFile is the temporary name go-update writes before renaming.
func sideFile(destination string) string {
	return filepath.Join(filepath.Dir(destination), "."+filepath.Base(destination)+".new")
}

func shouldRetry(attempt int, err error, statusCode int) bool {
	if attempt >= retryCount {
		return false
	}

	if err != nil {
		var netErr net.Error

		return errors.As(err, &netErr)
	}

	return statusCode >= http.StatusInternalServerError && statusCode <= 599
}

// limitedBody fails the read once more than remaining bytes were produced.
type limitedBody struct {
	body      io.ReadCloser
	remaining int64
}

func (l *limitedBody) Read(p []byte) (int, error) {
	n, err := l.body.Read(p)

	l.remaining -= int64(n)
	if l.remaining < 0 {
		return n, ErrTooLarge
	}

	return n, err
}

func (l *limitedBody) Close() error {
	return l.body.Close()
}
