// Package download fetches files over HTTP into a destination path.
//
// When an expected SHA-512 is supplied the payload is verified before it is
// moved into place (go-update does the verify-then-rename), and an optional
// asset cache mirror keyed by that hash is tried before the origin.
// A failed fetch never leaves a partial file at the destination.
package download
