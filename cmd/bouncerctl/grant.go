package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/bouncer-in-go/pkg/bouncer"
)

type grantMethod func(*bouncer.Engine, context.Context, bouncer.Subject, bouncer.AbilityRef, *bouncer.Resource) error

func newGrantCmd(open engineOpener) *cobra.Command {
	grantCmd := &cobra.Command{
		Use:   "grant",
		Short: "Allow, forbid or revoke abilities",
		Long: `Allow, forbid or revoke abilities.

Subjects are role:NAME, role:NAME@SCOPE, principal:ID or everyone.`,
		RunE: requireSubcommand,
	}

	grantCmd.AddCommand(
		newGrantSubCmd(open, "allow", "Allow abilities", (*bouncer.Engine).Allow, true),
		newGrantSubCmd(open, "forbid", "Forbid abilities", (*bouncer.Engine).Forbid, true),
		newGrantSubCmd(open, "disallow", "Remove allow grants", (*bouncer.Engine).Disallow, false),
		newGrantSubCmd(open, "unforbid", "Remove forbid grants", (*bouncer.Engine).Unforbid, false),
	)
	return grantCmd
}

func newGrantSubCmd(open engineOpener, use, short string, apply grantMethod, canOwn bool) *cobra.Command {
	var (
		res        resourceFlags
		scope      string
		everything bool
		owned      bool
	)

	cmd := &cobra.Command{
		Use:   use + " <subject> [ability]...",
		Short: short,
		Long: short + `.

Without --type the grant applies to the ability on anything. --type alone
targets every resource of the type, --type with --id one resource.
--everything stands for every ability.

Example:
  bouncerctl grant ` + use + ` role:editor publish --type post
  bouncerctl grant ` + use + ` principal:42 edit --type post --id 7
  bouncerctl grant ` + use + ` role:admin --everything`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			subject, err := bouncer.ParseSubject(args[0])
			if err != nil {
				return err
			}

			names := args[1:]
			switch {
			case everything && len(names) > 0:
				return fmt.Errorf("--everything takes no abilities")
			case everything:
				names = []string{bouncer.Everything}
			case len(names) == 0:
				return fmt.Errorf("at least one ability or --everything is required")
			}
			refs := make([]bouncer.AbilityRef, 0, len(names))
			for _, name := range names {
				refs = append(refs, bouncer.Ref(name).In(scope))
			}

			resource, err := res.resource()
			if err != nil {
				return err
			}
			if owned && res.typ == "" {
				return fmt.Errorf("--owned requires --type")
			}

			return withEngine(cmd, open, func(ctx context.Context, e *bouncer.Engine) error {
				err := e.Transaction(ctx, func(tx *bouncer.Engine) error {
					if owned {
						if _, err := tx.ToOwn(ctx, res.typ, refs...); err != nil {
							return err
						}
					}
					for _, ref := range refs {
						if err := apply(tx, ctx, subject, ref, resource); err != nil {
							return err
						}
					}
					return nil
				})
				if err != nil {
					return err
				}
				for _, ref := range refs {
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s %s on %s\n", use, subject, ref, resource)
				}
				return nil
			})
		},
	}

	res.register(cmd.Flags(), false)
	cmd.Flags().StringVar(&scope, "scope", "", "Ability scope")
	cmd.Flags().BoolVar(&everything, "everything", false, "Apply to every ability")
	if canOwn {
		cmd.Flags().BoolVar(&owned, "owned", false, "Mark the abilities only_owned before granting them on --type")
	}
	return cmd
}
