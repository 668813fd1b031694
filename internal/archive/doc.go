// Package archive unpacks downloaded bundles (tar.gz and zip) into a directory.
//
// Entries that would escape the destination are rejected, and the total
// number of extracted bytes is capped.
package archive
