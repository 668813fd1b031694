package version

import "fmt"

var (
	// Version is the build version of the tool. It can be overridden via ldflags.
	// Pinned bundles are tagged with the same string.
	Version = "2025-09-03"
	// Commit is the short git SHA embedded at build time (or "none").
	Commit = "none"
	// BuildTime is the UTC build timestamp embedded at build time.
	BuildTime = "unknown"
	// BundleSHA512 is the hex SHA-512 of the standalone bundle released with Version.
	// Official builds set it; development builds leave it empty and follow the latest release.
	BundleSHA512 = ""
)

// Short returns only the version string.
func Short() string {
	return Version
}

// Full returns a human-readable version string with commit and build time.
func Full() string {
	return fmt.Sprintf("version: %s, commit: %s, built at: %s, bundle: %s", Version, Commit, BuildTime, bundleMode())
}

// Official reports whether the build carries a pinned bundle hash.
func Official() bool {
	return BundleSHA512 != ""
}

func bundleMode() string {
	if Official() {
		return "pinned"
	}

	return "latest"
}
