package main

import (
	"fmt"
	"strings"

	"github.com/lkretschmer/apiclients/github"
	"github.com/spf13/cobra"
)

func (a *app) githubClient() *github.Client {
	return github.NewClient(a.cfg.GitHub.Token, a.restOptions(a.cfg.GitHub.BaseURL)...)
}

func githubCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "github",
		Short: "Query GitHub repositories and issues",
	}

	issues := &cobra.Command{Use: "issues", Short: "Repository issues"}
	issues.AddCommand(githubIssuesListCmd(a))

	cmd.AddCommand(issues)
	return cmd
}

func githubIssuesListCmd(a *app) *cobra.Command {
	var (
		opts      github.ListIssuesOptions
		withPulls bool
	)

	cmd := &cobra.Command{
		Use:   "list OWNER/REPO",
		Short: "List the issues of a repository",
		Long: `List the issues of a repository. Pull requests are skipped unless --pulls is set.

Examples:
  apiclients github issues list golang/go --label NeedsFix --state open`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			owner, repo, ok := strings.Cut(args[0], "/")
			if !ok || owner == "" || repo == "" {
				return fmt.Errorf("expected OWNER/REPO, got %q", args[0])
			}
			ctx, cancel := a.commandContext(cmd)
			defer cancel()

			issues, err := a.githubClient().Issues().ListAll(ctx, owner, repo, opts)
			if err != nil {
				return err
			}
			if !withPulls {
				filtered := issues[:0]
				for _, issue := range issues {
					if !issue.IsPullRequest() {
						filtered = append(filtered, issue)
					}
				}
				issues = filtered
			}
			return a.print(issues)
		},
	}

	cmd.Flags().StringVar(&opts.State, "state", "", "open, closed or all")
	cmd.Flags().StringSliceVar(&opts.Labels, "label", nil, "Label filter; repeatable")
	cmd.Flags().StringVar(&opts.Assignee, "assignee", "", "Login of the assignee, none or *")
	cmd.Flags().IntVar(&opts.PerPage, "page-size", 0, "Issues per request, at most 100")
	cmd.Flags().BoolVar(&withPulls, "pulls", false, "Include pull requests")
	return cmd
}
