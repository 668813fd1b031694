// Package provision keeps the vcpkg-artifacts bundle installed next to the executable.
//
// A run inspects the installation (Gate), downloads the standalone bundle when
// it is stale (Fetcher) and swaps the bundle's vcpkg-artifacts directory into
// place (Installer). Provisioner.Ensure ties the three together and is the only
// entry point the CLI uses.
package provision
