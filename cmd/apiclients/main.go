// Command apiclients calls the bound REST APIs from the shell and prints
// the results as JSON.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/lkretschmer/apiclients/rest"
	"github.com/spf13/cobra"
)

var version = rest.Version

func main() {
	if err := newRootCmd(os.Stdout, os.Stderr).Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app is the state shared by every subcommand.
type app struct {
	configPath string
	debug      bool
	timeout    time.Duration

	cfg    *Config
	logger hclog.Logger
	out    io.Writer
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	a := &app{out: stdout}

	rootCmd := &cobra.Command{
		Use:           "apiclients",
		Short:         "Call REST APIs from the command line",
		Long:          `apiclients calls the DeepL, Google Admin, Stripe, DocuSign and GitHub APIs and prints the responses as JSON.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level := hclog.Warn
			if a.debug {
				level = hclog.Trace
			}
			a.logger = hclog.New(&hclog.LoggerOptions{
				Name:   "apiclients",
				Level:  level,
				Output: stderr,
			})

			cfg, err := LoadConfig(a.configPath)
			if err != nil {
				return err
			}
			a.cfg = cfg
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.configPath, "config", "c", "", "Path to the YAML configuration file")
	flags.BoolVar(&a.debug, "debug", false, "Log requests and responses to stderr")
	flags.DurationVar(&a.timeout, "timeout", 30*time.Second, "Timeout for the whole command")

	rootCmd.AddCommand(deeplCmd(a))
	rootCmd.AddCommand(gadminCmd(a))
	rootCmd.AddCommand(stripeCmd(a))
	rootCmd.AddCommand(docusignCmd(a))
	rootCmd.AddCommand(githubCmd(a))

	return rootCmd
}

// restOptions are applied to every client.
func (a *app) restOptions(baseURL string) []rest.Option {
	opts := []rest.Option{
		rest.WithLogger(a.logger),
		rest.WithUserAgent("apiclients-cli/" + version),
	}
	if a.debug {
		opts = append(opts, rest.WithTrace())
	}
	if baseURL != "" {
		opts = append(opts, rest.WithBaseURL(baseURL))
	}
	return opts
}

// commandContext returns the command context bounded by --timeout.
func (a *app) commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if a.timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, a.timeout)
}

func (a *app) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
