package invoke

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/oshokin/vcpkg-artifacts/internal/config"
	domain "github.com/oshokin/vcpkg-artifacts/internal/domain/artifacts"
	"github.com/oshokin/vcpkg-artifacts/internal/locale"
	"github.com/oshokin/vcpkg-artifacts/internal/logger"
	"github.com/oshokin/vcpkg-artifacts/internal/metrics"
	"github.com/oshokin/vcpkg-artifacts/internal/service/provision"
)

const (
	maxExitCode     = 127
	fallbackExitCode = 1

	experimentalWarning = "vcpkg-artifacts is experimental and may change at any time"
)

var errNodeNotFound = errors.New("unable to find node")

// ProvisionFunc makes sure the installation described by cfg exists.
type ProvisionFunc func(ctx context.Context, cfg *config.Config) (domain.InstallationState, error)

// Options are the inputs of one artifacts command.
type Options struct {
	// Config holds paths and provisioning settings.
	Config *config.Config
	// Args are the verb and its positional arguments, forwarded verbatim.
	Args []string
	// Parsed are the host-side switches and settings.
	Parsed domain.ParsedArguments
	// Debug is forwarded as --debug.
	Debug bool
	// OriginalCWD is the working directory captured at startup.
	OriginalCWD string
	// Messages are optional localized messages.
	Messages *locale.Messages
	// Collector receives harvested telemetry. A nil or disabled collector turns telemetry off.
	Collector *metrics.Collector
}

// Runner executes artifacts commands.
type Runner struct {
	launcher   Launcher
	provision  ProvisionFunc
	lookPath   func(file string) (string, error)
	executable func() (string, error)
	tempDir    string
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLauncher overrides how the delegate is started.
func WithLauncher(l Launcher) RunnerOption {
	return func(r *Runner) { r.launcher = l }
}

// WithProvisioner overrides how the installation is provisioned.
func WithProvisioner(p ProvisionFunc) RunnerOption {
	return func(r *Runner) { r.provision = p }
}

// WithLookPath overrides how the node executable is resolved.
func WithLookPath(lookPath func(string) (string, error)) RunnerOption {
	return func(r *Runner) { r.lookPath = lookPath }
}

// WithExecutable overrides how the running executable is found.
func WithExecutable(executable func() (string, error)) RunnerOption {
	return func(r *Runner) { r.executable = executable }
}

// WithTempDir overrides where temporary files are created.
func WithTempDir(dir string) RunnerOption {
	return func(r *Runner) { r.tempDir = dir }
}

// NewRunner creates a Runner with the real launcher and provisioner.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{
		launcher: ExecLauncher{},
		provision: func(ctx context.Context, cfg *config.Config) (domain.InstallationState, error) {
			return provision.Run(ctx, cfg)
		},
		lookPath:   exec.LookPath,
		executable: os.Executable,
		tempDir:    filepath.Join(os.TempDir(), "vcpkg"),
	}

	for _, opt := range opts {
		opt(r)
	}

	return r
}

// Run executes the command with the default Runner.
func Run(ctx context.Context, opts *Options) (int, error) {
	return NewRunner().Run(ctx, opts)
}

// Run provisions the bundle, runs the delegate and returns its clamped exit code.
// A returned error is fatal and means the delegate did not run to completion.
func (r *Runner) Run(ctx context.Context, opts *Options) (int, error) {
	ctx = logger.WithName(ctx, "artifacts")

	logger.Warn(ctx, experimentalWarning)

	cfg := opts.Config

	forwarded, err := Forward(opts.Parsed)
	if err != nil {
		return 0, err
	}

	state, err := r.provision(ctx, cfg)
	if err != nil {
		return 0, err
	}

	node, err := r.lookPath(cfg.NodePath)
	if err != nil {
		return 0, domain.NewError(domain.KindLaunch, fmt.Errorf("%w (%s): %w", errNodeNotFound, cfg.NodePath, err))
	}

	self, err := r.executable()
	if err != nil {
		return 0, domain.NewError(domain.KindLaunch, fmt.Errorf("locate running executable: %w", err))
	}

	messages, err := opts.Messages.Bytes()
	if err != nil {
		return 0, domain.NewError(domain.KindConfiguration, err)
	}

	args := make([]string, 0, len(opts.Args)+len(forwarded))
	args = append(args, opts.Args...)
	args = append(args, forwarded...)

	spec, err := NewBuilder(r.tempDir).Build(BuildInput{
		Node:           node,
		SelfPath:       self,
		EntryPoint:     state.EntryPoint(),
		Args:           args,
		Debug:          opts.Debug,
		MetricsEnabled: opts.Collector.Enabled(),
		Paths: Paths{
			VcpkgRoot:       cfg.VcpkgRoot,
			ArtifactsRoot:   cfg.ArtifactsRoot,
			Downloads:       cfg.Downloads,
			RegistriesCache: cfg.RegistriesCache,
			GlobalConfig:    cfg.GlobalConfig,
		},
		OriginalCWD: opts.OriginalCWD,
		Messages:    messages,
	})
	if err != nil {
		return 0, domain.NewError(domain.KindLaunch, err)
	}

	defer removeTemporary(ctx, spec.TelemetryFile(), spec.LanguageFile())

	code, err := r.launcher.Execute(ctx, spec)
	if err != nil {
		return 0, domain.NewError(domain.KindLaunch, fmt.Errorf("run %s: %w", node, err))
	}

	if opts.Collector.Enabled() {
		NewHarvester(opts.Collector).Harvest(ctx, spec.TelemetryFile())
	}

	logger.DebugKV(ctx, "Delegate exited", "code", code)

	return ClampExitCode(code), nil
}

// ClampExitCode keeps codes in [0, 127]; anything else becomes 1.
// Some platforms only preserve the low seven bits.
func ClampExitCode(code int) int {
	if code < 0 || code > maxExitCode {
		return fallbackExitCode
	}

	return code
}

func removeTemporary(ctx context.Context, paths ...string) {
	for _, path := range paths {
		if path == "" {
			continue
		}

		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			logger.DebugKV(ctx, "Unable to remove temporary file", "path", path, "error", err)
		}
	}
}
