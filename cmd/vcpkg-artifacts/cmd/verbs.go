package cmd

import (
	"github.com/spf13/cobra"

	domain "github.com/oshokin/vcpkg-artifacts/internal/domain/artifacts"
	"github.com/oshokin/vcpkg-artifacts/internal/locale"
	"github.com/oshokin/vcpkg-artifacts/internal/metrics"
	"github.com/oshokin/vcpkg-artifacts/internal/service/invoke"
)

// hostFlag is a switch or setting parsed by the host and forwarded to the delegate.
type hostFlag struct {
	name    string
	usage   string
	setting bool
}

// verb is one artifacts subcommand.
type verb struct {
	name  string
	short string
	args  cobra.PositionalArgs
	flags []hostFlag
}

func platformSwitches() []hostFlag {
	groups := []invoke.SwitchGroup{
		invoke.OperatingSystemSwitches,
		invoke.HostPlatformSwitches,
		invoke.TargetPlatformSwitches,
	}

	var flags []hostFlag

	for _, group := range groups {
		for _, name := range group.Switches {
			flags = append(flags, hostFlag{name: name, usage: "select " + name + " (" + group.Name + ")"})
		}
	}

	return flags
}

func verbs() []verb {
	platform := platformSwitches()

	activateFlags := append([]hostFlag{
		{name: "msbuild-props", usage: "write MSBuild properties to this file", setting: true},
		{name: "json", usage: "write environment changes as JSON to this file", setting: true},
	}, platform...)

	return []verb{
		{
			name:  "acquire",
			short: "Download and unpack artifacts.",
			args:  cobra.MinimumNArgs(1),
			flags: append([]hostFlag{
				{name: "version", usage: "artifact version to acquire", setting: true},
			}, platform...),
		},
		{
			name:  "activate",
			short: "Activate the artifacts of the current project.",
			args:  cobra.NoArgs,
			flags: activateFlags,
		},
		{
			name:  "add",
			short: "Add an artifact dependency to the project manifest.",
			args:  cobra.MinimumNArgs(1),
			flags: []hostFlag{
				{name: "version", usage: "artifact version to add", setting: true},
			},
		},
		{
			name:  "deactivate",
			short: "Deactivate the artifacts activated in this shell.",
			args:  cobra.NoArgs,
		},
		{
			name:  "find",
			short: "Find artifacts in the configured registries.",
			args:  cobra.ArbitraryArgs,
			flags: []hostFlag{
				{name: "version", usage: "artifact version to match", setting: true},
			},
		},
		{
			name:  "use",
			short: "Activate artifacts in this shell without changing the project.",
			args:  cobra.MinimumNArgs(1),
			flags: activateFlags,
		},
		{
			name:  "update",
			short: "Update artifact registry indexes.",
			args:  cobra.ArbitraryArgs,
		},
		{
			name:  "regenerate",
			short: "Regenerate an artifact registry index.",
			args:  cobra.ExactArgs(1),
			flags: []hostFlag{
				{name: "dry-run", usage: "report changes without writing them"},
				{name: "normalize", usage: "normalize artifact metadata files"},
			},
		},
	}
}

func attachVerbCommands(root *cobra.Command) {
	for _, v := range verbs() {
		root.AddCommand(newVerbCommand(v))
	}
}

func newVerbCommand(v verb) *cobra.Command {
	command := &cobra.Command{
		Use:   v.name,
		Short: v.short,
		Args:  v.args,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVerb(cmd, v, args)
		},
	}

	for _, flag := range v.flags {
		if flag.setting {
			command.Flags().String(flag.name, "", flag.usage)
		} else {
			command.Flags().Bool(flag.name, false, flag.usage)
		}
	}

	return command
}

// parseHostFlags collects the flags the user gave, in declaration order.
func parseHostFlags(cmd *cobra.Command, v verb) (domain.ParsedArguments, error) {
	var parsed domain.ParsedArguments

	for _, flag := range v.flags {
		if !cmd.Flags().Changed(flag.name) {
			continue
		}

		if flag.setting {
			value, err := cmd.Flags().GetString(flag.name)
			if err != nil {
				return parsed, err
			}

			parsed.SetOption(flag.name, value)

			continue
		}

		enabled, err := cmd.Flags().GetBool(flag.name)
		if err != nil {
			return parsed, err
		}

		if enabled {
			parsed.AddSwitch(flag.name)
		}
	}

	return parsed, nil
}

func runVerb(cmd *cobra.Command, v verb, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	parsed, err := parseHostFlags(cmd, v)
	if err != nil {
		return domain.NewError(domain.KindConfiguration, err)
	}

	messages, err := locale.Load(cfg.LanguageFile)
	if err != nil {
		return domain.NewError(domain.KindConfiguration, err)
	}

	collector := metrics.NewCollector(!cfg.DisableMetrics)
	defer collector.Flush(ctx)

	code, err := invoke.Run(ctx, &invoke.Options{
		Config:      cfg,
		Args:        append([]string{v.name}, args...),
		Parsed:      parsed,
		Debug:       debug,
		OriginalCWD: originalCWD,
		Messages:    messages,
		Collector:   collector,
	})
	if err != nil {
		return err
	}

	exitCode = code

	return nil
}
