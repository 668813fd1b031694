package invoke

import (
	"errors"
	"fmt"

	domain "github.com/oshokin/vcpkg-artifacts/internal/domain/artifacts"
)

// ErrMutuallyExclusiveSwitches is returned when more than one switch of a group is set.
var ErrMutuallyExclusiveSwitches = errors.New("mutually exclusive switches")

// SwitchGroup is a set of switches of which at most one may be given.
type SwitchGroup struct {
	// Name is used in diagnostics.
	Name string
	// Message is the user-facing explanation.
	Message string
	// Switches are the members of the group.
	Switches []string
}

// Platform switch groups understood by artifacts commands.
//
//nolint:gochecknoglobals // Fixed tables.
var (
	OperatingSystemSwitches = SwitchGroup{
		Name:     "operating system",
		Message:  "only one operating system (--windows, --osx, --linux, --freebsd) may be specified",
		Switches: []string{"windows", "osx", "linux", "freebsd"},
	}
	HostPlatformSwitches = SwitchGroup{
		Name:     "host platform",
		Message:  "only one host platform (--x64, --x86, --arm, --arm64) may be specified",
		Switches: []string{"x86", "x64", "arm", "arm64"},
	}
	TargetPlatformSwitches = SwitchGroup{
		Name:     "target platform",
		Message:  "only one target platform (--target:x64, --target:x86, --target:arm, --target:arm64) may be specified",
		Switches: []string{"target:x86", "target:x64", "target:arm", "target:arm64"},
	}

	switchGroups = []SwitchGroup{OperatingSystemSwitches, HostPlatformSwitches, TargetPlatformSwitches}
)

// Forward turns parsed host arguments into delegate arguments: every switch
// as --<name> in lexical order, then every setting as --<name> <value> in
// the order it was given. A violated switch group yields a configuration error
// and no arguments.
func Forward(parsed domain.ParsedArguments) ([]string, error) {
	for _, group := range switchGroups {
		if moreThanOneMapped(group.Switches, parsed.Switches) {
			return nil, domain.NewError(domain.KindConfiguration,
				fmt.Errorf("%w: %s", ErrMutuallyExclusiveSwitches, group.Message))
		}
	}

	args := make([]string, 0, len(parsed.Switches)+2*len(parsed.Settings))

	for _, name := range parsed.Switches.Sorted() {
		args = append(args, "--"+name)
	}

	for _, setting := range parsed.Settings {
		args = append(args, "--"+setting.Name, setting.Value)
	}

	return args, nil
}

func moreThanOneMapped(group []string, switches domain.SwitchSet) bool {
	found := false

	for _, name := range group {
		if !switches.Has(name) {
			continue
		}

		if found {
			return true
		}

		found = true
	}

	return false
}
