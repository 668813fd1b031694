// Package marker persists the version marker of a pinned installation.
//
// The FileRepository reads the marker as plain text and replaces it through
// go-update, so a reader never observes a half-written marker.
package marker
