// Package config defines the settings shared by the artifacts commands and
// provides helpers to load, validate and save them in YAML format.
//
// Unset paths default relative to the vcpkg root, which itself defaults to
// the directory of the running executable. A handful of environment variables
// override the file.
package config
