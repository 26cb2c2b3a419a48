package main

import (
	"github.com/lkretschmer/apiclients/rest"
	"github.com/lkretschmer/apiclients/stripe"
	"github.com/spf13/cobra"
)

func (a *app) stripeClient() (*stripe.Client, error) {
	s := a.cfg.Stripe
	if err := requireSettings("stripe", "api_key", s.APIKey); err != nil {
		return nil, err
	}
	opts := a.restOptions(s.BaseURL)
	if s.APIVersion != "" {
		opts = append(opts, stripe.WithAPIVersion(s.APIVersion))
	}
	return stripe.NewClient(s.APIKey, opts...), nil
}

func stripeCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stripe",
		Short: "Query Stripe customers and balance",
	}

	customers := &cobra.Command{Use: "customers", Short: "Stripe customers"}
	customers.AddCommand(stripeCustomersListCmd(a), stripeCustomersGetCmd(a))

	cmd.AddCommand(customers, stripeBalanceCmd(a))
	return cmd
}

func stripeCustomersListCmd(a *app) *cobra.Command {
	var (
		params stripe.CustomerListParams
		all    bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List customers, newest first",
		Long: `List customers, newest first.

Examples:
  apiclients stripe customers list --limit 10
  apiclients stripe customers list --email ada@example.com --all`,
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.stripeClient()
			if err != nil {
				return err
			}
			ctx, cancel := a.commandContext(cmd)
			defer cancel()

			if all {
				customers, err := client.Customers().ListAll(ctx, &params)
				if err != nil {
					return err
				}
				return a.print(customers)
			}
			page, err := client.Customers().List(ctx, &params)
			if err != nil {
				return err
			}
			return a.print(page)
		},
	}

	cmd.Flags().StringVar(&params.Email, "email", "", "Only customers with this email")
	cmd.Flags().IntVar(&params.Limit, "limit", 0, "Customers per page, at most 100")
	cmd.Flags().StringVar(&params.StartingAfter, "starting-after", "", "Cursor: ID of the last customer already seen")
	cmd.Flags().BoolVar(&all, "all", false, "Fetch every page")
	return cmd
}

func stripeCustomersGetCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get ID",
		Short: "Show one customer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.stripeClient()
			if err != nil {
				return err
			}
			ctx, cancel := a.commandContext(cmd)
			defer cancel()

			customer, err := client.Customers().Get(ctx, args[0])
			if rest.IsNotFound(err) {
				a.logger.Warn("customer not found", "id", args[0])
			}
			if err != nil {
				return err
			}
			return a.print(customer)
		},
	}
}

func stripeBalanceCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "balance",
		Short: "Show the account balance",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.stripeClient()
			if err != nil {
				return err
			}
			ctx, cancel := a.commandContext(cmd)
			defer cancel()

			balance, err := client.Balance().Get(ctx)
			if err != nil {
				return err
			}
			return a.print(balance)
		},
	}
}
