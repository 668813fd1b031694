package invoke

import (
	"testing"

	"github.com/stretchr/testify/require"

	domain "github.com/oshokin/vcpkg-artifacts/internal/domain/artifacts"
)

func TestForward(t *testing.T) {
	t.Parallel()

	var parsed domain.ParsedArguments
	parsed.AddSwitch("x64")
	parsed.AddSwitch("windows")
	parsed.AddSwitch("target:arm64")
	parsed.SetOption("version", "1.2.3")
	parsed.SetOption("msbuild-props", "out.props")

	args, err := Forward(parsed)
	require.NoError(t, err)
	require.Equal(t, []string{
		"--target:arm64", "--windows", "--x64",
		"--version", "1.2.3",
		"--msbuild-props", "out.props",
	}, args)
}

func TestForward_Empty(t *testing.T) {
	t.Parallel()

	args, err := Forward(domain.ParsedArguments{})
	require.NoError(t, err)
	require.Empty(t, args)
}

func TestForward_MutuallyExclusive(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		switches []string
		group    SwitchGroup
	}{
		{name: "operating systems", switches: []string{"windows", "linux"}, group: OperatingSystemSwitches},
		{name: "host platforms", switches: []string{"x86", "arm64"}, group: HostPlatformSwitches},
		{name: "target platforms", switches: []string{"target:x64", "target:arm"}, group: TargetPlatformSwitches},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			parsed := domain.ParsedArguments{Switches: domain.NewSwitchSet(tt.switches...)}

			args, err := Forward(parsed)
			require.Nil(t, args)
			require.ErrorIs(t, err, ErrMutuallyExclusiveSwitches)
			require.ErrorContains(t, err, tt.group.Message)

			kind, ok := domain.KindOf(err)
			require.True(t, ok)
			require.Equal(t, domain.KindConfiguration, kind)
		})
	}
}

func TestForward_OnePerGroup(t *testing.T) {
	t.Parallel()

	parsed := domain.ParsedArguments{Switches: domain.NewSwitchSet("linux", "x64", "target:x64")}

	args, err := Forward(parsed)
	require.NoError(t, err)
	require.Equal(t, []string{"--linux", "--target:x64", "--x64"}, args)
}
