package invoke

import (
	"context"
	"errors"
	"os"
	"os/exec"

	domain "github.com/oshokin/vcpkg-artifacts/internal/domain/artifacts"
	"github.com/oshokin/vcpkg-artifacts/internal/logger"
)

// Launcher runs the delegate and waits for it.
type Launcher interface {
	Execute(ctx context.Context, spec domain.InvocationSpec) (int, error)
}

// ExecLauncher starts the delegate with the host's standard streams.
type ExecLauncher struct{}

// Execute runs spec to completion and returns its exit code. The error is
// non-nil only when the process could not be started or waited for.
// The child is not bound to ctx: it runs until it exits or the host is killed.
func (ExecLauncher) Execute(ctx context.Context, spec domain.InvocationSpec) (int, error) {
	//nolint:gosec,noctx // The delegate is deliberately not cancellable.
	cmd := exec.Command(spec.Executable(), spec.Args()...)
	cmd.Dir = spec.WorkingDir()
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	logger.DebugKV(ctx, "Starting delegate", "executable", spec.Executable(), "args", spec.Args(), "dir", cmd.Dir)

	err := cmd.Run()
	if err == nil {
		return 0, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), nil
	}

	return 0, err
}
