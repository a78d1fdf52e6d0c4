package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/bouncer-in-go/pkg/config"
)

func newConfigurationCmd() *cobra.Command {
	configurationCmd := &cobra.Command{
		Use:   "configuration",
		Short: "Inspect bouncer configuration",
		Long:  `Inspect bouncer configuration settings.`,
		RunE:  requireSubcommand,
	}

	showCmd := &cobra.Command{
		Use:   "show",
		Short: "Show configuration attributes and their sources",
		Long: `Show configuration attributes and their sources.

Config file location: /etc/bouncer/bouncer.yml (or BOUNCER_CONFIG_PATH)

Example:
  bouncerctl configuration show
  bouncerctl configuration show --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, _ := cmd.Flags().GetString("format")

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load configuration: %w", err)
			}

			out := cmd.OutOrStdout()
			switch format {
			case "json":
				jsonOutput, err := cfg.FormatJSON()
				if err != nil {
					return err
				}
				fmt.Fprintln(out, jsonOutput)
			case "text":
				fmt.Fprint(out, cfg.FormatText())
			default:
				return fmt.Errorf("unknown format %q (text or json)", format)
			}

			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			return nil
		},
	}
	showCmd.Flags().StringP("format", "f", "text", "Output format (text or json)")

	configurationCmd.AddCommand(showCmd)
	return configurationCmd
}
