package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/cobra"
)

// Constants/Variables
// ----------------------------------------------------------------------------

const (
	coverageReportFile = "api_coverage_report.md"
	defaultMaxAge      = time.Hour
	httpTimeout        = 30 * time.Second
	maxSpecSize        = 5 << 20
	specDir            = "tools/testdata"
	userAgent          = "apiclients-coverage/1.0"
)

// APITarget pairs a binding package with its OpenAPI document.
type APITarget struct {
	Name     string // Heading in the report
	Package  string // Package directory relative to the project root
	SpecFile string // Cached document name inside --spec-dir
	URL      string // Refresh source; empty keeps the committed copy
}

// targets are the bound APIs. Only DeepL publishes a document small enough
// to refresh; the others are trimmed copies of the published ones.
var targets = []APITarget{
	{Name: "DeepL", Package: "deepl", SpecFile: "deepl.yaml", URL: "https://raw.githubusercontent.com/DeepLcom/openapi/main/openapi.yaml"},
	{Name: "Google Admin Directory", Package: "googleadmin", SpecFile: "googleadmin.yaml"},
	{Name: "Stripe", Package: "stripe", SpecFile: "stripe.yaml"},
	{Name: "DocuSign eSignature", Package: "docusign", SpecFile: "docusign.yaml"},
	{Name: "GitHub", Package: "github", SpecFile: "github.yaml"},
}

// CoverageAnalyzer
// ----------------------------------------------------------------------------

// CoverageAnalyzer runs the analysis for every target and writes one report.
type CoverageAnalyzer struct {
	Targets   []APITarget
	Sources   func(t APITarget) SpecSource
	Analyzer  SourceAnalyzer
	Generator ReportGenerator
	Logger    hclog.Logger
}

// NewCoverageAnalyzer returns an analyzer reading documents from dir.
func NewCoverageAnalyzer(logger hclog.Logger, dir string, maxAge time.Duration, offline bool) *CoverageAnalyzer {
	return &CoverageAnalyzer{
		Targets: targets,
		Sources: func(t APITarget) SpecSource {
			return &SpecFetcher{
				URL:       t.URL,
				CachePath: filepath.Join(dir, t.SpecFile),
				MaxAge:    maxAge,
				Offline:   offline,
				Logger:    logger.Named(t.Package),
			}
		},
		Analyzer:  &PackageAnalyzer{Logger: logger},
		Generator: &MarkdownReportGenerator{},
		Logger:    logger,
	}
}

// Run analyzes every target below root and saves the report to reportPath.
// A failing target is reported and skipped; its error is part of the
// returned multierror.
func (c *CoverageAnalyzer) Run(ctx context.Context, root, reportPath string) error {
	var result *multierror.Error

	reports := make([]APIReport, 0, len(c.Targets))
	for _, t := range c.Targets {
		r, err := c.analyze(ctx, root, t)
		if err != nil {
			c.Logger.Error("analysis failed", "api", t.Name, "error", err)
			result = multierror.Append(result, fmt.Errorf("%s: %w", t.Name, err))
			reports = append(reports, APIReport{Target: t, Err: err})
			continue
		}
		implemented, total, coverage := calculateCoverage(r.Endpoints)
		c.Logger.Info("analyzed", "api", t.Name, "implemented", implemented, "total", total,
			"coverage", fmt.Sprintf("%.1f%%", coverage))
		reports = append(reports, r)
	}

	if err := c.Generator.Save(reportPath, c.Generator.Generate(reports)); err != nil {
		result = multierror.Append(result, fmt.Errorf("failed to save report: %w", err))
	} else {
		c.Logger.Info("coverage report generated", "path", reportPath)
	}
	return result.ErrorOrNil()
}

func (c *CoverageAnalyzer) analyze(ctx context.Context, root string, t APITarget) (APIReport, error) {
	spec, err := c.Sources(t).Fetch(ctx)
	if err != nil {
		return APIReport{}, fmt.Errorf("failed to load OpenAPI document: %w", err)
	}
	methods, err := c.Analyzer.Analyze(filepath.Join(root, t.Package))
	if err != nil {
		return APIReport{}, fmt.Errorf("failed to analyze package: %w", err)
	}
	return APIReport{
		Target:    t,
		Title:     spec.Info.Title,
		Version:   spec.Info.Version,
		Endpoints: createEndpointMappings(extractEndpoints(t.Name, spec), methods),
		Methods:   methods,
	}, nil
}

// Project setup
// ----------------------------------------------------------------------------

// ensureProjectRoot moves up one level when started from tools/, as
// go generate does.
func ensureProjectRoot(logger hclog.Logger) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get current directory: %w", err)
	}
	if filepath.Base(cwd) != "tools" {
		return nil
	}

	parent := filepath.Dir(cwd)
	if err := os.Chdir(parent); err != nil {
		return fmt.Errorf("failed to change to parent directory: %w", err)
	}
	logger.Debug("changed working directory to project root", "dir", parent)
	return nil
}

// Command
// ----------------------------------------------------------------------------

func newRootCmd() *cobra.Command {
	var (
		output  string
		dir     string
		maxAge  time.Duration
		offline bool
		verbose bool
	)

	cmd := &cobra.Command{
		Use:           "gen_api_coverage",
		Short:         "Compare the bound packages with their OpenAPI documents",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			level := hclog.Info
			if verbose {
				level = hclog.Trace
			}
			logger := hclog.New(&hclog.LoggerOptions{
				Name:   "coverage",
				Level:  level,
				Output: cmd.ErrOrStderr(),
			})

			if err := ensureProjectRoot(logger); err != nil {
				return err
			}
			analyzer := NewCoverageAnalyzer(logger, dir, maxAge, offline)
			return analyzer.Run(cmd.Context(), ".", output)
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", coverageReportFile, "Report path relative to the project root")
	cmd.Flags().StringVar(&dir, "spec-dir", specDir, "Directory holding the cached OpenAPI documents")
	cmd.Flags().DurationVar(&maxAge, "max-age", defaultMaxAge, "Refresh cached documents older than this")
	cmd.Flags().BoolVar(&offline, "offline", false, "Only use the cached documents")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log every file and method")
	return cmd
}

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, strings.TrimSpace(err.Error()))
		os.Exit(1)
	}
}
