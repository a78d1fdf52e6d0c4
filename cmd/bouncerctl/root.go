package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newRootCmd(open engineOpener) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "bouncerctl",
		Short: "Manage roles, abilities and permissions",
		Long: `Manage the roles, abilities and permissions of a bouncer database and
check what a principal may do.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("actor", defaultActor(), "Name recorded as the actor in the audit trail")

	rootCmd.AddCommand(
		newDBCmd(),
		newSeedCmd(open),
		newAbilityCmd(open),
		newRoleCmd(open),
		newGrantCmd(open),
		newCheckCmd(open),
		newConfigurationCmd(),
	)
	return rootCmd
}

func defaultActor() string {
	if user := os.Getenv("USER"); user != "" {
		return user
	}
	return "bouncerctl"
}

// requireSubcommand is the Run of commands that only group subcommands
func requireSubcommand(cmd *cobra.Command, _ []string) error {
	_ = cmd.Help()
	return fmt.Errorf("command '%s' requires a subcommand", cmd.Name())
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(openEngine).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func main() {
	Execute()
}
