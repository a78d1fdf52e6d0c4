package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/doodlesbykumbi/bouncer-in-go/pkg/bouncer"
)

func newRoleCmd(open engineOpener) *cobra.Command {
	roleCmd := &cobra.Command{
		Use:   "role",
		Short: "Manage roles",
		Long: `Manage roles and their members.

Roles are named NAME or NAME@SCOPE.`,
		RunE: requireSubcommand,
	}

	upsertCmd := &cobra.Command{
		Use:   "upsert <role>",
		Short: "Create a role or update its title and level",
		Long: `Create a role or update its title and level. Flags left out keep the
values of an existing role.

Example:
  bouncerctl role upsert admin --title Administrator
  bouncerctl role upsert editor@tenant-1 --level 5`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := parseRoleRef(args[0])
			spec := bouncer.RoleSpec{Name: ref.Name, Scope: ref.Scope}
			if cmd.Flags().Changed("title") {
				title, _ := cmd.Flags().GetString("title")
				spec.Title = &title
			}
			if cmd.Flags().Changed("level") {
				level, _ := cmd.Flags().GetInt("level")
				spec.Level = &level
			}
			return withEngine(cmd, open, func(ctx context.Context, e *bouncer.Engine) error {
				r, err := e.UpsertRole(ctx, spec)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), r)
			})
		},
	}
	upsertCmd.Flags().String("title", "", "Human readable title")
	upsertCmd.Flags().Int("level", 0, "Role level")

	updateCmd := &cobra.Command{
		Use:   "update <role>",
		Short: "Rename a role or change its title and level",
		Long: `Rename a role or change its title and level. The scope stays the same.

Example:
  bouncerctl role update editor@tenant-1 --name writer
  bouncerctl role update admin --title Administrator --level 100`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := parseRoleRef(args[0])
			var upd bouncer.RoleUpdate
			if cmd.Flags().Changed("name") {
				name, _ := cmd.Flags().GetString("name")
				upd.Name = &name
			}
			if cmd.Flags().Changed("title") {
				title, _ := cmd.Flags().GetString("title")
				upd.Title = &title
			}
			if cmd.Flags().Changed("level") {
				level, _ := cmd.Flags().GetInt("level")
				upd.Level = &level
			}
			return withEngine(cmd, open, func(ctx context.Context, e *bouncer.Engine) error {
				r, err := e.UpdateRole(ctx, ref, upd)
				if err != nil {
					return err
				}
				return printJSON(cmd.OutOrStdout(), r)
			})
		},
	}
	updateCmd.Flags().String("name", "", "New role name")
	updateCmd.Flags().String("title", "", "Human readable title")
	updateCmd.Flags().Int("level", 0, "Role level")

	showCmd := &cobra.Command{
		Use:   "show <role>",
		Short: "Show a role and its members",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := parseRoleRef(args[0])
			return withEngine(cmd, open, func(ctx context.Context, e *bouncer.Engine) error {
				r, err := e.FindRole(ctx, ref)
				if err != nil {
					return err
				}
				members, err := e.PrincipalsWithRole(ctx, ref)
				if err != nil {
					return err
				}
				if members == nil {
					members = []string{}
				}
				return printJSON(cmd.OutOrStdout(), struct {
					bouncer.Role
					Members []string
				}{r, members})
			})
		},
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List roles",
		Long: `List roles, or the roles of one principal.

Example:
  bouncerctl role list
  bouncerctl role list --scope tenant-1
  bouncerctl role list --principal 42`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			principal, _ := cmd.Flags().GetString("principal")
			var filter bouncer.RoleFilter
			if cmd.Flags().Changed("scope") {
				scope, _ := cmd.Flags().GetString("scope")
				filter.Scope = &scope
			}
			return withEngine(cmd, open, func(ctx context.Context, e *bouncer.Engine) error {
				var (
					roles []bouncer.Role
					err   error
				)
				if principal != "" {
					roles, err = e.RolesOf(ctx, bouncer.PrincipalID(principal))
				} else {
					roles, err = e.ListRoles(ctx, filter)
				}
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "%-30s %-15s %-6s %s\n", "NAME", "SCOPE", "LEVEL", "TITLE")
				for _, r := range roles {
					level := ""
					if r.Level != nil {
						level = strconv.Itoa(*r.Level)
					}
					fmt.Fprintf(out, "%-30s %-15s %-6s %s\n", r.Name, r.Scope, level, r.Title)
				}
				return nil
			})
		},
	}
	listCmd.Flags().String("scope", "", "Only list roles of this scope")
	listCmd.Flags().String("principal", "", "List the roles assigned to this principal")

	withAbilityCmd := &cobra.Command{
		Use:   "with-ability <ability>",
		Short: "List the roles allowed an ability",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			scope, _ := cmd.Flags().GetString("scope")
			return withEngine(cmd, open, func(ctx context.Context, e *bouncer.Engine) error {
				roles, err := e.RolesWithAbility(ctx, bouncer.Ref(args[0]).In(scope))
				if err != nil {
					return err
				}
				for _, r := range roles {
					fmt.Fprintln(cmd.OutOrStdout(), bouncer.RoleNamed(r.Name).In(r.Scope))
				}
				return nil
			})
		},
	}
	withAbilityCmd.Flags().String("scope", "", "Scope of the ability")

	deleteCmd := &cobra.Command{
		Use:   "delete <role>",
		Short: "Delete a role with its grants and assignments",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := parseRoleRef(args[0])
			return withEngine(cmd, open, func(ctx context.Context, e *bouncer.Engine) error {
				if err := e.DeleteRole(ctx, ref); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Deleted role %s\n", ref)
				return nil
			})
		},
	}

	roleCmd.AddCommand(upsertCmd, updateCmd, showCmd, listCmd, withAbilityCmd, deleteCmd,
		newMembershipCmd(open, "assign", "Assign a role to principals", (*bouncer.Engine).AssignRole),
		newMembershipCmd(open, "retract", "Retract a role from principals", (*bouncer.Engine).RetractRole),
	)
	return roleCmd
}

type membershipMethod func(*bouncer.Engine, context.Context, bouncer.RoleRef, bouncer.Principal) error

func newMembershipCmd(open engineOpener, use, short string, apply membershipMethod) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <role> <principal>...",
		Short: short,
		Args:  cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref := parseRoleRef(args[0])
			return withEngine(cmd, open, func(ctx context.Context, e *bouncer.Engine) error {
				err := e.Transaction(ctx, func(tx *bouncer.Engine) error {
					for _, id := range args[1:] {
						if err := apply(tx, ctx, ref, bouncer.PrincipalID(id)); err != nil {
							return err
						}
					}
					return nil
				})
				if err != nil {
					return err
				}
				for _, id := range args[1:] {
					fmt.Fprintf(cmd.OutOrStdout(), "%s %s: %s\n", use, ref, id)
				}
				return nil
			})
		},
	}
}
