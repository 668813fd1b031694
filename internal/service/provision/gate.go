package provision

import (
	"context"
	"errors"

	domain "github.com/oshokin/vcpkg-artifacts/internal/domain/artifacts"
	"github.com/oshokin/vcpkg-artifacts/internal/logger"
	"github.com/oshokin/vcpkg-artifacts/internal/repository/marker"
)

// MarkerFactory opens the marker repository stored at path.
type MarkerFactory func(path string) marker.Repository

// DefaultMarkers opens file-backed markers.
func DefaultMarkers(path string) marker.Repository {
	return marker.NewFileRepository(path)
}

// Gate decides whether an installation has to be replaced.
type Gate struct {
	fs      Filesystem
	markers MarkerFactory
}

// NewGate creates a Gate.
func NewGate(fs Filesystem, markers MarkerFactory) *Gate {
	return &Gate{fs: fs, markers: markers}
}

// Inspect reads what the channel needs to know about the installation at root.
// It never modifies anything.
func (g *Gate) Inspect(ctx context.Context, root string, channel domain.Channel) domain.InstallationState {
	state := domain.InstallationState{
		Root:    root,
		Channel: channel,
	}

	switch channel.(type) {
	case domain.Pinned:
		content, err := g.markers(state.MarkerPath()).Load(ctx)

		switch {
		case err == nil:
			state.Marker = content
			state.HasMarker = true
		case errors.Is(err, marker.ErrNotFound):
		default:
			logger.DebugKV(ctx, "Version marker is unreadable, treating installation as stale",
				"path", state.MarkerPath(), "error", err)
		}
	case domain.Latest:
		state.DevelopmentSentinel = g.fs.Exists(state.SentinelPath())
	}

	return state
}

// Stale reports whether an inspected installation must be re-provisioned.
func (g *Gate) Stale(ctx context.Context, state domain.InstallationState) bool {
	stale := state.Stale()

	logger.DebugKV(ctx, "Checked vcpkg-artifacts installation",
		"root", state.Root,
		"channel", state.Channel.Name(),
		"marker", state.Marker,
		"has_marker", state.HasMarker,
		"development", state.DevelopmentSentinel,
		"stale", stale)

	return stale
}
