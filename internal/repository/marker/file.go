package marker

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	goupdate "github.com/doitdistributed/go-update"
)

// Repository defines persistence operations for the version marker.
type Repository interface {
	Load(ctx context.Context) (string, error)
	Save(ctx context.Context, version string) error
}

// DefaultFileMode is the permission of a freshly written marker.
const DefaultFileMode os.FileMode = 0o644

// ErrNotFound is returned when the marker file does not exist.
var ErrNotFound = errors.New("version marker not found")

// FileRepository stores the marker in a single text file.
type FileRepository struct {
	// path is the filesystem location of the marker.
	path string
	// mu serializes access from this process; other processes are not locked out.
	mu sync.Mutex
}

// NewFileRepository creates a repository for the marker at path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Path returns the marker location.
func (r *FileRepository) Path() string {
	return r.path
}

// Load returns the marker content without surrounding whitespace.
func (r *FileRepository) Load(_ context.Context) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return "", ErrNotFound
		}

		return "", fmt.Errorf("read version marker: %w", err)
	}

	return strings.TrimSpace(string(contents)), nil
}

// Save replaces the marker content with version.
func (r *FileRepository) Save(_ context.Context, version string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	// go-update swaps the target aside before moving the new file in, so the target must exist.
	if _, err := os.Stat(r.path); errors.Is(err, os.ErrNotExist) {
		if err = os.WriteFile(r.path, nil, DefaultFileMode); err != nil {
			return fmt.Errorf("create version marker: %w", err)
		}
	}

	options := goupdate.Options{
		TargetPath: r.path,
		TargetMode: DefaultFileMode,
	}

	if err := goupdate.Apply(strings.NewReader(version), options); err != nil {
		return fmt.Errorf("write version marker: %w", err)
	}

	return nil
}
