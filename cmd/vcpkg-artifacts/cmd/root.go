package cmd

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/oshokin/vcpkg-artifacts/internal/config"
	domain "github.com/oshokin/vcpkg-artifacts/internal/domain/artifacts"
	"github.com/oshokin/vcpkg-artifacts/internal/logger"
	"github.com/oshokin/vcpkg-artifacts/internal/version"
)

var (
	// configPath to the configuration YAML file; empty means defaults and environment only.
	configPath string
	// debug enables debug logging and is forwarded to the delegate.
	debug bool
	// logLevel overrides the configured log level.
	logLevel string
	// disableMetrics turns off telemetry collection.
	disableMetrics bool
	// channel overrides the configured bundle channel.
	channel string

	// originalCWD is the working directory the process was started in.
	originalCWD string
	// exitCode is the delegate's clamped exit code.
	exitCode int

	// rootCmd represents the base command; artifact verbs are its subcommands.
	rootCmd = &cobra.Command{
		Use:   "vcpkg-artifacts",
		Short: "Acquire and activate vcpkg artifacts.",
		Long: `Runs vcpkg-artifacts commands.

The vcpkg-artifacts bundle is provisioned next to the vcpkg root before every
command: pinned builds install the bundle released with their own version,
other builds follow the latest release. The command is then delegated to
node running the bundle's main.js.`,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
)

// Execute runs the CLI and exits with the delegate's exit code, or 1 on error.
func Execute() {
	if wd, err := os.Getwd(); err == nil {
		originalCWD = wd
	}

	version.AttachCobraVersionCommand(rootCmd)
	attachVerbCommands(rootCmd)
	rootCmd.AddCommand(newConfigCommand())

	// Setup graceful shutdown handling.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)

	err := rootCmd.ExecuteContext(ctx)

	stop()

	if err != nil {
		reportError(ctx, err)
		logger.Sync()
		os.Exit(1)
	}

	logger.Sync()
	os.Exit(exitCode)
}

func reportError(ctx context.Context, err error) {
	kind, ok := domain.KindOf(err)
	if !ok {
		logger.Error(ctx, err)
		return
	}

	logger.ErrorKV(ctx, err.Error(), "kind", kind.String())
}

// loadConfig reads settings and applies command-line overrides, including the log level.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.Load(resolveConfigPath())
	if err != nil {
		return nil, domain.NewError(domain.KindConfiguration, err)
	}

	if disableMetrics {
		cfg.DisableMetrics = true
	}

	if cmd.Flags().Changed("channel") {
		cfg.Channel = channel
	}

	if cmd.Flags().Changed("log-level") {
		cfg.LogLevel = logLevel
	}

	if err = config.Validate(cfg); err != nil {
		return nil, domain.NewError(domain.KindConfiguration, err)
	}

	if err = applyLogLevel(cfg.LogLevel); err != nil {
		return nil, domain.NewError(domain.KindConfiguration, err)
	}

	return cfg, nil
}

// resolveConfigPath returns --config, or the default settings file when it exists.
func resolveConfigPath() string {
	if configPath != "" {
		return configPath
	}

	if _, err := os.Stat(config.DefaultConfigFilename); err == nil {
		return config.DefaultConfigFilename
	}

	return ""
}

var errUnknownLogLevel = errors.New("unknown log level")

func applyLogLevel(level string) error {
	if debug {
		level = "debug"
	}

	parsed, ok := logger.ParseLogLevel(level)
	if !ok {
		return errUnknownLogLevel
	}

	logger.SetLevel(parsed)

	return nil
}

//nolint:gochecknoinits // Required by Cobra CLI framework architecture.
func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "path to configuration file ("+config.DefaultConfigFilename+")")
	flags.BoolVar(&debug, "debug", false, "enable debug logging and pass --debug to vcpkg-artifacts")
	flags.StringVar(&logLevel, "log-level", config.DefaultLogLevel, "log level: debug, info, warn, error")
	flags.BoolVar(&disableMetrics, "disable-metrics", false, "do not collect telemetry from vcpkg-artifacts")
	flags.StringVar(&channel, "channel", config.ChannelAuto, "bundle channel: auto, pinned, latest")
}
