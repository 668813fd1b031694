package artifacts

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestParsedArguments_SettingsKeepOrder ensures settings stay in insertion order and overwrite in place.
func TestParsedArguments_SettingsKeepOrder(t *testing.T) {
	t.Parallel()

	var parsed ParsedArguments

	parsed.SetOption("version", "1.0")
	parsed.SetOption("json", "out.json")
	parsed.SetOption("version", "2.0")

	require.Equal(t, []Setting{
		{Name: "version", Value: "2.0"},
		{Name: "json", Value: "out.json"},
	}, parsed.Settings)
}

// TestSwitchSet checks membership and sorted iteration.
func TestSwitchSet(t *testing.T) {
	t.Parallel()

	var parsed ParsedArguments

	parsed.AddSwitch("x64")
	parsed.AddSwitch("linux")
	parsed.AddSwitch("x64")

	require.True(t, parsed.Switches.Has("linux"))
	require.False(t, parsed.Switches.Has("windows"))
	require.Equal(t, []string{"linux", "x64"}, parsed.Switches.Sorted())
	require.Equal(t, []string{"a", "b"}, NewSwitchSet("b", "a").Sorted())
}
