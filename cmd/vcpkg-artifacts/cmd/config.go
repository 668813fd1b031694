package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/oshokin/vcpkg-artifacts/internal/config"
)

func newConfigCommand() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the settings file.",
	}

	var output string

	initCmd := &cobra.Command{
		Use:   "init",
		Short: "Write the effective settings to a file.",
		Long: `Writes the settings currently in effect (file, environment and defaults
combined) so they can be edited and reused with --config.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}

			if err = config.Save(output, cfg); err != nil {
				return err
			}

			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "Settings written to", output)

			return nil
		},
	}

	initCmd.Flags().StringVarP(&output, "output", "o", config.DefaultConfigFilename, "file to write")
	configCmd.AddCommand(initCmd)

	return configCmd
}
