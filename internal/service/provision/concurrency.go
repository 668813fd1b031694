package provision

import (
	"context"
	"os"
	"path/filepath"

	"github.com/mitchellh/go-ps"

	"github.com/oshokin/vcpkg-artifacts/internal/logger"
)

//nolint:gochecknoglobals // Test seams for the process table.
var (
	listProcesses  = ps.Processes
	currentPID     = os.Getpid
	executablePath = os.Executable
)

// countOtherInstances returns how many other processes run the same executable.
// The install swap is not locked, so concurrent runs may race.
func countOtherInstances() (int, error) {
	self, err := executablePath()
	if err != nil {
		return 0, err
	}

	processes, err := listProcesses()
	if err != nil {
		return 0, err
	}

	var (
		name  = filepath.Base(self)
		pid   = currentPID()
		count int
	)

	for _, process := range processes {
		if process.Pid() == pid {
			continue
		}

		if process.Executable() == name {
			count++
		}
	}

	return count, nil
}

// warnConcurrentInstances logs a warning when another instance could race the swap.
func warnConcurrentInstances(ctx context.Context) {
	count, err := countOtherInstances()
	if err != nil {
		logger.DebugKV(ctx, "Unable to list processes", "error", err)
		return
	}

	if count > 0 {
		logger.WarnKV(ctx, "Other instances are running; provisioning vcpkg-artifacts may race with them",
			"instances", count)
	}
}
