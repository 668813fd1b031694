// Package testutil builds fixtures shared by tests.
package testutil

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"crypto/sha512"
	"encoding/hex"
	"sort"
	"testing"

	"github.com/stretchr/testify/require"
)

// TarGz returns a gzip-compressed tar archive holding files (path -> content).
// Entries are written in sorted order.
func TarGz(t testing.TB, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer

	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)

	for _, name := range sortedKeys(files) {
		content := files[name]

		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name:     name,
			Mode:     0o644,
			Size:     int64(len(content)),
			Typeflag: tar.TypeReg,
		}))

		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}

	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())

	return buf.Bytes()
}

// Zip returns a zip archive holding files (path -> content).
func Zip(t testing.TB, files map[string]string) []byte {
	t.Helper()

	var buf bytes.Buffer

	zw := zip.NewWriter(&buf)

	for _, name := range sortedKeys(files) {
		w, err := zw.Create(name)
		require.NoError(t, err)

		_, err = w.Write([]byte(files[name]))
		require.NoError(t, err)
	}

	require.NoError(t, zw.Close())

	return buf.Bytes()
}

// Bundle returns a standalone bundle archive whose vcpkg-artifacts subtree holds a main.js.
func Bundle(t testing.TB, mainJS string) []byte {
	t.Helper()

	return TarGz(t, map[string]string{
		"vcpkg-artifacts/main.js":        mainJS,
		"vcpkg-artifacts/lib/version.js": "module.exports = 1;",
		"scripts/bootstrap.sh":           "#!/bin/sh",
	})
}

// SHA512 returns the hex SHA-512 of data.
func SHA512(data []byte) string {
	sum := sha512.Sum512(data)

	return hex.EncodeToString(sum[:])
}

func sortedKeys(files map[string]string) []string {
	keys := make([]string, 0, len(files))
	for k := range files {
		keys = append(keys, k)
	}

	sort.Strings(keys)

	return keys
}
