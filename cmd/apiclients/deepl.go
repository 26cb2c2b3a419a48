package main

import (
	"strings"

	"github.com/lkretschmer/apiclients/deepl"
	"github.com/spf13/cobra"
)

func (a *app) deeplClient() (*deepl.Client, error) {
	if err := requireSettings("deepl", "api_key", a.cfg.DeepL.APIKey); err != nil {
		return nil, err
	}
	return deepl.NewClient(a.cfg.DeepL.APIKey, a.restOptions(a.cfg.DeepL.BaseURL)...), nil
}

func deeplCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deepl",
		Short: "Translate text with DeepL",
	}
	cmd.AddCommand(deeplTranslateCmd(a))
	cmd.AddCommand(deeplUsageCmd(a))
	cmd.AddCommand(deeplLanguagesCmd(a))
	return cmd
}

func deeplTranslateCmd(a *app) *cobra.Command {
	var opts deepl.TranslateTextOptions

	cmd := &cobra.Command{
		Use:   "translate TEXT...",
		Short: "Translate one or more texts",
		Long: `Translate one or more texts into the target language.

Examples:
  apiclients deepl translate --to DE "Hello, world"
  apiclients deepl translate --to FR --formality more "How are you?" "Good night"`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.deeplClient()
			if err != nil {
				return err
			}
			ctx, cancel := a.commandContext(cmd)
			defer cancel()

			opts.Text = args
			opts.TargetLang = strings.ToUpper(opts.TargetLang)
			translations, err := client.TranslateTextWithOptions(ctx, opts)
			if err != nil {
				return err
			}
			return a.print(translations)
		},
	}

	cmd.Flags().StringVarP(&opts.TargetLang, "to", "t", "", "Target language, e.g. DE or EN-GB (required)")
	cmd.Flags().StringVarP(&opts.SourceLang, "from", "f", "", "Source language, detected when empty")
	cmd.Flags().StringVar(&opts.Formality, "formality", "", "more, less, prefer_more or prefer_less")
	cmd.Flags().StringVar(&opts.Context, "context", "", "Additional context that is not translated")
	_ = cmd.MarkFlagRequired("to")
	return cmd
}

func deeplUsageCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "usage",
		Short: "Show character usage for the billing period",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.deeplClient()
			if err != nil {
				return err
			}
			ctx, cancel := a.commandContext(cmd)
			defer cancel()

			usage, err := client.GetUsageWithContext(ctx)
			if err != nil {
				return err
			}
			return a.print(usage)
		},
	}
}

func deeplLanguagesCmd(a *app) *cobra.Command {
	var source bool

	cmd := &cobra.Command{
		Use:   "languages",
		Short: "List supported target (or source) languages",
		RunE: func(cmd *cobra.Command, args []string) error {
			client, err := a.deeplClient()
			if err != nil {
				return err
			}
			ctx, cancel := a.commandContext(cmd)
			defer cancel()

			var langs []*deepl.Language
			if source {
				langs, err = client.GetSourceLanguagesWithContext(ctx)
			} else {
				langs, err = client.GetTargetLanguagesWithContext(ctx)
			}
			if err != nil {
				return err
			}
			return a.print(langs)
		},
	}

	cmd.Flags().BoolVar(&source, "source", false, "List source languages instead of target languages")
	return cmd
}
