package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/lkretschmer/apiclients/docusign"
	"github.com/spf13/cobra"
)

func (a *app) docusignClient(ctx context.Context) (*docusign.Client, error) {
	d := a.cfg.DocuSign
	if err := requireSettings("docusign",
		"integration_key", d.IntegrationKey,
		"user_id", d.UserID,
		"private_key_file", d.PrivateKeyFile,
	); err != nil {
		return nil, err
	}
	key, err := os.ReadFile(d.PrivateKeyFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read DocuSign private key: %w", err)
	}

	jwtCfg := &docusign.JWTConfig{
		IntegrationKey: d.IntegrationKey,
		UserID:         d.UserID,
		PrivateKey:     key,
		AuthServer:     d.AuthServer,
		Options:        a.restOptions(""),
	}
	ts, err := jwtCfg.TokenSource(ctx)
	if err != nil {
		return nil, err
	}

	accountID, baseURL := d.AccountID, d.BaseURL
	if accountID == "" || baseURL == "" {
		info, err := docusign.GetUserInfo(ctx, ts, d.AuthServer, a.restOptions("")...)
		if err != nil {
			return nil, fmt.Errorf("failed to discover DocuSign account: %w", err)
		}
		acct, ok := info.DefaultAccount()
		if !ok {
			return nil, fmt.Errorf("user %s has no DocuSign accounts", d.UserID)
		}
		if accountID == "" {
			accountID = acct.AccountID
		}
		if baseURL == "" {
			baseURL = acct.RestBaseURL()
		}
		a.logger.Debug("discovered DocuSign account", "account_id", accountID, "base_url", baseURL)
	}
	return docusign.NewClient(ts, accountID, a.restOptions(baseURL)...), nil
}

func docusignCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docusign",
		Short: "Query DocuSign envelopes and templates",
	}

	envelopes := &cobra.Command{Use: "envelopes", Short: "Envelopes"}
	envelopes.AddCommand(docusignEnvelopesListCmd(a), docusignEnvelopesGetCmd(a))
	templates := &cobra.Command{Use: "templates", Short: "Templates"}
	templates.AddCommand(docusignTemplatesListCmd(a))

	cmd.AddCommand(envelopes, templates)
	return cmd
}

func docusignEnvelopesListCmd(a *app) *cobra.Command {
	var (
		opts  docusign.ListEnvelopesOptions
		since time.Duration
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List envelopes changed recently",
		Long: `List envelopes whose status changed within --since.

Examples:
  apiclients docusign envelopes list --since 168h --status completed`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.commandContext(cmd)
			defer cancel()
			client, err := a.docusignClient(ctx)
			if err != nil {
				return err
			}

			opts.FromDate = time.Now().Add(-since).UTC()
			envelopes, err := client.Envelopes().ListAll(ctx, opts)
			if err != nil {
				return err
			}
			return a.print(envelopes)
		},
	}

	cmd.Flags().DurationVar(&since, "since", 30*24*time.Hour, "How far back to look")
	cmd.Flags().StringSliceVar(&opts.Status, "status", nil, "Envelope status filter; repeatable")
	cmd.Flags().StringVar(&opts.SearchText, "search", "", "Free text search")
	cmd.Flags().IntVar(&opts.Count, "page-size", 0, "Envelopes per request")
	return cmd
}

func docusignEnvelopesGetCmd(a *app) *cobra.Command {
	var recipients bool

	cmd := &cobra.Command{
		Use:   "get ENVELOPE_ID",
		Short: "Show one envelope",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.commandContext(cmd)
			defer cancel()
			client, err := a.docusignClient(ctx)
			if err != nil {
				return err
			}

			if recipients {
				r, err := client.Envelopes().ListRecipients(ctx, args[0])
				if err != nil {
					return err
				}
				return a.print(r)
			}
			env, err := client.Envelopes().Get(ctx, args[0])
			if err != nil {
				return err
			}
			return a.print(env)
		},
	}

	cmd.Flags().BoolVar(&recipients, "recipients", false, "Show the recipients and their status instead")
	return cmd
}

func docusignTemplatesListCmd(a *app) *cobra.Command {
	var opts docusign.ListTemplatesOptions

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List templates",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, cancel := a.commandContext(cmd)
			defer cancel()
			client, err := a.docusignClient(ctx)
			if err != nil {
				return err
			}

			templates, err := client.Templates().ListAll(ctx, opts)
			if err != nil {
				return err
			}
			return a.print(templates)
		},
	}

	cmd.Flags().StringVar(&opts.SearchText, "search", "", "Free text search")
	cmd.Flags().IntVar(&opts.Count, "page-size", 0, "Templates per request")
	return cmd
}
