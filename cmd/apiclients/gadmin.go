package main

import (
	"context"
	"fmt"
	"os"

	"github.com/lkretschmer/apiclients/googleadmin"
	"github.com/spf13/cobra"
)

func (a *app) gadminClient(ctx context.Context) (*googleadmin.Client, error) {
	g := a.cfg.Google
	if err := requireSettings("google", "key_file", g.KeyFile, "subject", g.Subject); err != nil {
		return nil, err
	}
	keyJSON, err := os.ReadFile(g.KeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read service account key: %w", err)
	}
	ts, err := googleadmin.ServiceAccountTokenSource(ctx, keyJSON, g.Subject, googleadmin.DefaultScopes...)
	if err != nil {
		return nil, err
	}
	return googleadmin.NewClient(ts, a.restOptions(g.BaseURL)...), nil
}

func gadminCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "gadmin",
		Aliases: []string{"google"},
		Short:   "Query the Google Workspace directory",
	}

	users := &cobra.Command{Use: "users", Short: "Directory users"}
	users.AddCommand(gadminUsersListCmd(a))
	groups := &cobra.Command{Use: "groups", Short: "Directory groups"}
	groups.AddCommand(gadminGroupsListCmd(a))
	members := &cobra.Command{Use: "members", Short: "Group members"}
	members.AddCommand(gadminMembersListCmd(a))

	cmd.AddCommand(users, groups, members)
	return cmd
}

func gadminUsersListCmd(a *app) *cobra.Command {
	var opts googleadmin.ListUsersOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List users",
		Long: `List every user of the customer or domain.

Examples:
  apiclients gadmin users list --query "isSuspended=false"
  apiclients gadmin users list --domain example.com --projection full`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.commandContext(cmd)
			defer cancel()
			client, err := a.gadminClient(ctx)
			if err != nil {
				return err
			}

			if opts.Customer == "" && opts.Domain == "" {
				opts.Customer = a.cfg.Google.Customer
			}
			users, err := client.Users().ListAll(ctx, opts)
			if err != nil {
				return err
			}
			return a.print(users)
		},
	}

	cmd.Flags().StringVar(&opts.Domain, "domain", "", "Restrict to one domain")
	cmd.Flags().StringVarP(&opts.Query, "query", "q", "", "Directory search query")
	cmd.Flags().StringVar(&opts.Projection, "projection", "", "basic, custom or full")
	cmd.Flags().StringVar(&opts.CustomFieldMask, "custom-field-mask", "", "Custom schemas to return with --projection custom")
	cmd.Flags().BoolVar(&opts.ShowDeleted, "show-deleted", false, "List deleted users instead")
	cmd.Flags().IntVar(&opts.MaxResults, "page-size", 0, "Results per request")
	return cmd
}

func gadminGroupsListCmd(a *app) *cobra.Command {
	var opts googleadmin.ListGroupsOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List groups",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.commandContext(cmd)
			defer cancel()
			client, err := a.gadminClient(ctx)
			if err != nil {
				return err
			}

			if opts.Customer == "" && opts.Domain == "" && opts.UserKey == "" {
				opts.Customer = a.cfg.Google.Customer
			}
			groups, err := client.Groups().ListAll(ctx, opts)
			if err != nil {
				return err
			}
			return a.print(groups)
		},
	}

	cmd.Flags().StringVar(&opts.Domain, "domain", "", "Restrict to one domain")
	cmd.Flags().StringVar(&opts.UserKey, "user", "", "Only groups this user is a member of")
	cmd.Flags().StringVarP(&opts.Query, "query", "q", "", "Group search query")
	cmd.Flags().IntVar(&opts.MaxResults, "page-size", 0, "Results per request")
	return cmd
}

func gadminMembersListCmd(a *app) *cobra.Command {
	var opts googleadmin.ListMembersOptions

	cmd := &cobra.Command{
		Use:   "list GROUP",
		Short: "List the members of a group",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.commandContext(cmd)
			defer cancel()
			client, err := a.gadminClient(ctx)
			if err != nil {
				return err
			}

			members, err := client.Members().ListAll(ctx, args[0], opts)
			if err != nil {
				return err
			}
			return a.print(members)
		},
	}

	cmd.Flags().StringSliceVar(&opts.Roles, "role", nil, "OWNER, MANAGER or MEMBER; repeatable")
	cmd.Flags().BoolVar(&opts.IncludeDerivedMembership, "derived", false, "Include members of nested groups")
	cmd.Flags().IntVar(&opts.MaxResults, "page-size", 0, "Results per request")
	return cmd
}
