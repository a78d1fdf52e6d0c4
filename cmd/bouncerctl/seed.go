package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/bouncer-in-go/pkg/bouncer"
	"github.com/doodlesbykumbi/bouncer-in-go/pkg/seed"
)

func newSeedCmd(open engineOpener) *cobra.Command {
	seedCmd := &cobra.Command{
		Use:   "seed",
		Short: "Load and export seed documents",
		Long: `Load and export YAML seed documents describing abilities, roles,
grants and role memberships.`,
		RunE: requireSubcommand,
	}

	loadCmd := &cobra.Command{
		Use:   "load <file>",
		Short: "Load a seed file",
		Long: `Load a seed file.

Abilities and roles are created or updated first, then grants and
memberships are applied. The whole document is applied in one transaction.
Loading the same document twice leaves the database unchanged.

Example:
  bouncerctl seed load permissions.yml
  bouncerctl seed load --dry-run permissions.yml`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dryRun, _ := cmd.Flags().GetBool("dry-run")
			return withEngine(cmd, open, func(ctx context.Context, e *bouncer.Engine) error {
				result, err := loadSeedFile(ctx, e, args[0], actorOf(cmd), dryRun)
				if err != nil {
					return err
				}
				output, _ := json.MarshalIndent(result, "", "  ")
				fmt.Fprintln(cmd.OutOrStdout(), string(output))
				return nil
			})
		},
	}
	loadCmd.Flags().Bool("dry-run", false, "Validate the document without applying it")

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Export abilities, roles, role grants and memberships",
		Long: `Export abilities, roles, grants to roles and to everyone, and role
memberships as a seed document. Grants made directly to principals are not
exported.

Example:
  bouncerctl seed export > permissions.yml
  bouncerctl seed export -o permissions.yml`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			outFile, _ := cmd.Flags().GetString("out")
			return withEngine(cmd, open, func(ctx context.Context, e *bouncer.Engine) error {
				statements, err := seed.Export(ctx, e)
				if err != nil {
					return fmt.Errorf("failed to export: %w", err)
				}
				if outFile == "" {
					return seed.Write(cmd.OutOrStdout(), statements)
				}

				f, err := os.Create(outFile)
				if err != nil {
					return err
				}
				if err := seed.Write(f, statements); err != nil {
					_ = f.Close()
					return err
				}
				return f.Close()
			})
		},
	}
	exportCmd.Flags().StringP("out", "o", "", "Write to a file instead of stdout")

	seedCmd.AddCommand(loadCmd, exportCmd, newSeedWatchCmd(open))
	return seedCmd
}

func actorOf(cmd *cobra.Command) string {
	actor, _ := cmd.Flags().GetString("actor")
	return actor
}

func loadSeedFile(ctx context.Context, e *bouncer.Engine, filename, actor string, dryRun bool) (*seed.LoadResult, error) {
	file, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open seed file: %w", err)
	}
	defer func() { _ = file.Close() }()

	result, err := seed.NewLoader(e).WithActor(actor).WithDryRun(dryRun).LoadFromReader(ctx, file)
	if err != nil {
		return nil, fmt.Errorf("failed to load seed %s: %w", filename, err)
	}
	return result, nil
}
