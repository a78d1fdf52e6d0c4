package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/bouncer-in-go/pkg/bouncer"
)

func newAbilityCmd(open engineOpener) *cobra.Command {
	abilityCmd := &cobra.Command{
		Use:   "ability",
		Short: "Manage abilities",
		Long:  `Define, inspect and delete abilities.`,
		RunE:  requireSubcommand,
	}

	var scope string
	abilityCmd.PersistentFlags().StringVar(&scope, "scope", "", "Ability scope")

	defineCmd := &cobra.Command{
		Use:   "define <name>",
		Short: "Define an ability",
		Long: `Define an ability.

Example:
  bouncerctl ability define publish --title "Publish posts"
  bouncerctl ability define read-notification --only-owned`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			title, _ := cmd.Flags().GetString("title")
			onlyOwned, _ := cmd.Flags().GetBool("only-owned")
			optionPairs, _ := cmd.Flags().GetStringArray("option")
			options, err := parsePairs(optionPairs)
			if err != nil {
				return err
			}

			spec := bouncer.AbilitySpec{Name: args[0], Title: title, OnlyOwned: onlyOwned, Scope: scope}
			if options != nil {
				spec.Options = make(map[string]any, len(options))
				for k, v := range options {
					spec.Options[k] = v
				}
			}
			return withEngine(cmd, open, func(ctx context.Context, e *bouncer.Engine) error {
				a, err := e.DefineAbility(ctx, spec)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), a)
			})
		},
	}
	defineCmd.Flags().String("title", "", "Human readable title")
	defineCmd.Flags().Bool("only-owned", false, "Only apply grants of this ability to owned resources")
	defineCmd.Flags().StringArray("option", nil, "Option as key=value")

	updateCmd := &cobra.Command{
		Use:   "update <name>",
		Short: "Change the title or only_owned flag of an ability",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var upd bouncer.AbilityUpdate
			if cmd.Flags().Changed("title") {
				title, _ := cmd.Flags().GetString("title")
				upd.Title = &title
			}
			if cmd.Flags().Changed("only-owned") {
				onlyOwned, _ := cmd.Flags().GetBool("only-owned")
				upd.OnlyOwned = &onlyOwned
			}
			return withEngine(cmd, open, func(ctx context.Context, e *bouncer.Engine) error {
				a, err := e.UpdateAbility(ctx, bouncer.Ref(args[0]).In(scope), upd)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), a)
			})
		},
	}
	updateCmd.Flags().String("title", "", "Human readable title")
	updateCmd.Flags().Bool("only-owned", false, "Only apply grants of this ability to owned resources")

	showCmd := &cobra.Command{
		Use:   "show <name>",
		Short: "Show an ability",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withEngine(cmd, open, func(ctx context.Context, e *bouncer.Engine) error {
				a, err := e.FindAbility(ctx, bouncer.Ref(args[0]).In(scope))
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), a)
			})
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List abilities",
		Long: `List abilities. Without --scope abilities of every scope are listed.

Example:
  bouncerctl ability list
  bouncerctl ability list --scope tenant-1 --only-owned`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var filter bouncer.AbilityFilter
			if cmd.Flags().Changed("scope") {
				filter.Scope = &scope
			}
			if cmd.Flags().Changed("only-owned") {
				onlyOwned, _ := cmd.Flags().GetBool("only-owned")
				filter.OnlyOwned = &onlyOwned
			}
			return withEngine(cmd, open, func(ctx context.Context, e *bouncer.Engine) error {
				abilities, err := e.ListAbilities(ctx, filter)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%-30s %-15s %-10s %s\n", "NAME", "SCOPE", "OWNED", "TITLE")
				for _, a := range abilities {
					fmt.Fprintf(out, "%-30s %-15s %-10v %s\n", a.Name, a.Scope, a.OnlyOwned, a.Title)
				}
				return nil
			})
		},
	}
	listCmd.Flags().Bool("only-owned", false, "Filter on the only_owned flag")

	deleteCmd := &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete an ability and every grant of it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := bouncer.Ref(args[0]).In(scope)
			return withEngine(cmd, open, func(ctx context.Context, e *bouncer.Engine) error {
				if err := e.DeleteAbility(ctx, ref); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted ability %s\n", ref)
				return nil
			})
		},
	}

	abilityCmd.AddCommand(defineCmd, updateCmd, showCmd, listCmd, deleteCmd)
	return abilityCmd
}
