package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/bouncer-in-go/pkg/bouncer"
)

func newCheckCmd(open engineOpener) *cobra.Command {
	var (
		res     resourceFlags
		scope   string
		explain bool
	)

	cmd := &cobra.Command{
		Use:   "check <principal> <ability>",
		Short: "Check whether a principal may exercise an ability",
		Long: `Check whether a principal may exercise an ability, printing allowed or
denied.

Ownership is resolved from --field values using the owner fields from the
configuration.

Example:
  bouncerctl check 42 view --type post
  bouncerctl check 42 edit --type post --id 7 --field user_id=42
  bouncerctl check 42 edit --type post --id 7 --explain`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			resource, err := res.resource()
			if err != nil {
				return err
			}
			principal := bouncer.PrincipalID(args[0])
			ability := args[1]

			return withEngine(cmd, open, func(ctx context.Context, e *bouncer.Engine) error {
				opts := []bouncer.CheckOption{bouncer.InScope(scope)}
				out := cmd.OutOrStdout()

				if !explain {
					allowed, err := e.Can(ctx, principal, ability, resource, opts...)
					if err != nil {
						return err
					}
					fmt.Fprintln(out, verdict(allowed))
					return nil
				}

				d, err := e.Explain(ctx, principal, ability, resource, opts...)
				if err != nil {
					return err
				}
				fmt.Fprintln(out, verdict(d.Allowed))
				fmt.Fprintf(out, "tier: %s\n", d.Tier)
				if d.Grant != nil {
					fmt.Fprintf(out, "grant: %d\n", d.Grant.ID)
				}
				fmt.Fprintf(out, "reason: %s\n", d.Reason)
				return nil
			})
		},
	}

	res.register(cmd.Flags(), true)
	cmd.Flags().StringVar(&scope, "scope", "", "Scope to check in")
	cmd.Flags().BoolVar(&explain, "explain", false, "Show the deciding tier and grant")
	return cmd
}

func verdict(allowed bool) string {
	if allowed {
		return "allowed"
	}
	return "denied"
}
