package invoke

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	domain "github.com/oshokin/vcpkg-artifacts/internal/domain/artifacts"
)

const (
	telemetrySuffix           = "_artifacts_telemetry.txt"
	previousEnvironmentSuffix = "_previous_environment.txt"
	messagesSuffix            = "_messages.json"

	tempDirMode  os.FileMode = 0o755
	tempFileMode os.FileMode = 0o600
)

// Paths are the fixed locations handed to the delegate.
type Paths struct {
	VcpkgRoot       string
	ArtifactsRoot   string
	Downloads       string
	RegistriesCache string
	GlobalConfig    string
}

// BuildInput is everything the Builder needs for one invocation.
type BuildInput struct {
	// Node is the resolved node executable.
	Node string
	// SelfPath is the path of the running executable, passed as --z-vcpkg-command.
	SelfPath string
	// EntryPoint is the installed main.js.
	EntryPoint string
	// Args are forwarded verbatim after the entry point.
	Args []string
	// Debug adds --debug.
	Debug bool
	// MetricsEnabled adds --z-telemetry-file.
	MetricsEnabled bool
	// Paths are the fixed contextual paths.
	Paths Paths
	// OriginalCWD is the working directory the host was started in.
	OriginalCWD string
	// Messages are serialized localized messages; empty means none.
	Messages []byte
}

// Builder assembles delegate invocations. Temporary file names are unique per call.
type Builder struct {
	tempDir string
	newID   func() string
}

// NewBuilder creates a Builder that places temporary files in tempDir.
func NewBuilder(tempDir string) *Builder {
	return &Builder{
		tempDir: tempDir,
		newID:   uuid.NewString,
	}
}

// Build returns the invocation for in. It writes the localized messages file
// when messages are present; every other temporary path is only reserved.
func (b *Builder) Build(in BuildInput) (domain.InvocationSpec, error) {
	if err := os.MkdirAll(b.tempDir, tempDirMode); err != nil {
		return domain.InvocationSpec{}, fmt.Errorf("create temporary directory: %w", err)
	}

	args := make([]string, 0, len(in.Args)+20)
	args = append(args, in.EntryPoint)
	args = append(args, in.Args...)

	if in.Debug {
		args = append(args, "--debug")
	}

	var telemetryFile string
	if in.MetricsEnabled {
		telemetryFile = b.tempPath(telemetrySuffix)
		args = append(args, "--z-telemetry-file", telemetryFile)
	}

	args = append(args,
		"--vcpkg-root", in.Paths.VcpkgRoot,
		"--z-vcpkg-command", in.SelfPath,
		"--z-vcpkg-artifacts-root", in.Paths.ArtifactsRoot,
		"--z-vcpkg-downloads", in.Paths.Downloads,
		"--z-vcpkg-registries-cache", in.Paths.RegistriesCache,
		"--z-next-previous-environment", b.tempPath(previousEnvironmentSuffix),
		"--z-global-config", in.Paths.GlobalConfig,
	)

	var languageFile string
	if len(in.Messages) > 0 {
		languageFile = b.tempPath(messagesSuffix)
		if err := os.WriteFile(languageFile, in.Messages, tempFileMode); err != nil {
			return domain.InvocationSpec{}, fmt.Errorf("write localized messages: %w", err)
		}

		args = append(args, "--language", languageFile)
	}

	return domain.NewInvocationSpec(in.Node, args, in.OriginalCWD, telemetryFile, languageFile), nil
}

func (b *Builder) tempPath(suffix string) string {
	return filepath.Join(b.tempDir, b.newID()+suffix)
}
