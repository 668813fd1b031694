package artifacts

import "path/filepath"

const (
	// BundleSubtree is the directory inside the standalone bundle that gets installed.
	BundleSubtree = "vcpkg-artifacts"
	// EntryPointFilename is the script node runs.
	EntryPointFilename = "main.js"
	// VersionMarkerFilename records the installed pinned version.
	VersionMarkerFilename = "version.txt"
	// DevelopmentSentinelFilename marks a hand-placed working copy that must never be replaced.
	DevelopmentSentinelFilename = "artifacts-development.txt"
)

// InstallationState is what the version gate observed about an installation.
type InstallationState struct {
	// Root is the installation directory.
	Root string
	// Channel governs the staleness decision.
	Channel Channel
	// Marker is the version marker content; meaningful only when HasMarker is true.
	Marker string
	// HasMarker reports whether the marker could be read. Only inspected for Pinned.
	HasMarker bool
	// DevelopmentSentinel reports whether the sentinel file exists. Only inspected for Latest.
	DevelopmentSentinel bool
}

// EntryPoint returns the path of main.js inside the installation.
func (s InstallationState) EntryPoint() string {
	return filepath.Join(s.Root, EntryPointFilename)
}

// MarkerPath returns the path of the version marker file.
func (s InstallationState) MarkerPath() string {
	return filepath.Join(s.Root, VersionMarkerFilename)
}

// SentinelPath returns the path of the development sentinel file.
func (s InstallationState) SentinelPath() string {
	return filepath.Join(s.Root, DevelopmentSentinelFilename)
}

// Stale reports whether the installation has to be replaced.
func (s InstallationState) Stale() bool {
	switch ch := s.Channel.(type) {
	case Pinned:
		return !s.HasMarker || s.Marker != ch.Version
	case Latest:
		return !s.DevelopmentSentinel
	default:
		return true
	}
}

// BundleReference describes one fetch attempt. It is never persisted.
type BundleReference struct {
	// TarballName is the archive file name inside the download root.
	TarballName string
	// URI is the origin download location.
	URI string
	// SHA512 is the expected hex digest; empty for the latest channel.
	SHA512 string
}

// StagingArea is the temporary extraction location owned by one install.
type StagingArea struct {
	// Root is the temporary directory that receives the whole archive.
	Root string
	// Subtree is the part of Root that replaces the installation.
	Subtree string
}

// NewStagingArea returns the staging area rooted at root.
func NewStagingArea(root string) StagingArea {
	return StagingArea{
		Root:    root,
		Subtree: filepath.Join(root, BundleSubtree),
	}
}
