// Package version exposes build metadata for the project.
//
// Variables Version, Commit, BuildTime and BundleSHA512 are injected at build
// time via Go ldflags. BundleSHA512 decides which bundle channel the "auto"
// setting resolves to.
package version
