package main

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// APIReport is the analysis result of one API.
type APIReport struct {
	Target    APITarget
	Title     string // info.title of the document
	Version   string // info.version of the document
	Endpoints []Endpoint
	Methods   []GoMethod
	Err       error // set when the API could not be analyzed
}

// ReportGenerator renders and stores the coverage report.
type ReportGenerator interface {
	Generate(reports []APIReport) string
	Save(filename, content string) error
}

// MarkdownReportGenerator writes the report as Markdown.
type MarkdownReportGenerator struct {
	Now func() time.Time
}

// Generate renders the summary followed by one section per API.
func (g *MarkdownReportGenerator) Generate(reports []APIReport) string {
	var b strings.Builder

	b.WriteString("<!-- markdownlint-disable MD041 -->\n")
	b.WriteString("> **Code generated by go generate; DO NOT EDIT.**\n")
	b.WriteString("> Generator: [tools/](tools/)\n\n")
	b.WriteString("# API Coverage Report\n\n")

	g.writeSummary(&b, reports)
	for _, r := range reports {
		if r.Err == nil {
			g.writeAPI(&b, r)
		}
	}

	now := time.Now
	if g.Now != nil {
		now = g.Now
	}
	b.WriteString("---\n")
	fmt.Fprintf(&b, "*Report generated on %s*\n", now().UTC().Format("2006-01-02 15:04:05 MST"))
	return b.String()
}

// Save writes the report to filename.
func (g *MarkdownReportGenerator) Save(filename, content string) error {
	return os.WriteFile(filename, []byte(content), 0o644)
}

func (g *MarkdownReportGenerator) writeSummary(b *strings.Builder, reports []APIReport) {
	b.WriteString("## Summary\n\n")
	b.WriteString("| API | Package | Document | Implemented | Total | Coverage |\n")
	b.WriteString("|-----|---------|----------|-------------|-------|----------|\n")

	var all []Endpoint
	for _, r := range reports {
		if r.Err != nil {
			fmt.Fprintf(b, "| %s | `%s` | - | - | - | not analyzed |\n", r.Target.Name, r.Target.Package)
			continue
		}
		implemented, total, coverage := calculateCoverage(r.Endpoints)
		fmt.Fprintf(b, "| %s | `%s` | %s %s | %d | %d | %.1f%% |\n",
			r.Target.Name, r.Target.Package, r.Title, r.Version, implemented, total, coverage)
		all = append(all, r.Endpoints...)
	}
	implemented, total, coverage := calculateCoverage(all)
	fmt.Fprintf(b, "| **All** | | | %d | %d | %.1f%% |\n\n", implemented, total, coverage)

	for _, r := range reports {
		if r.Err != nil {
			fmt.Fprintf(b, "- %s was not analyzed: %v\n", r.Target.Name, r.Err)
		}
	}
	b.WriteString("\n")
}

func (g *MarkdownReportGenerator) writeAPI(b *strings.Builder, r APIReport) {
	fmt.Fprintf(b, "## %s\n\n", r.Target.Name)

	categories := categorizeEndpoints(r.Endpoints)
	b.WriteString("### Coverage by Category\n\n")
	b.WriteString("| Category | Implemented | Total | Coverage |\n")
	b.WriteString("|----------|-------------|-------|----------|\n")
	for _, name := range sortedKeys(categories) {
		implemented, total, coverage := calculateCoverage(categories[name])
		fmt.Fprintf(b, "| %s | %d | %d | %.1f%% |\n", name, implemented, total, coverage)
	}
	b.WriteString("\n")

	b.WriteString("### Implemented Endpoints\n\n")
	for _, e := range r.Endpoints {
		if e.Implemented() {
			fmt.Fprintf(b, "- **%s %s** → `%s`\n", e.HTTPMethod, e.Path, e.GoMethod.QualifiedName())
		}
	}
	b.WriteString("\n")

	b.WriteString("### Missing Endpoints\n\n")
	missing := 0
	for _, priority := range []string{PriorityHigh, PriorityMedium, PriorityLow} {
		header := false
		for _, e := range r.Endpoints {
			if e.Implemented() || e.Priority != priority {
				continue
			}
			if !header {
				fmt.Fprintf(b, "#### %s Priority\n\n", priority)
				header = true
			}
			fmt.Fprintf(b, "- **%s %s**", e.HTTPMethod, e.Path)
			if e.Summary != "" {
				fmt.Fprintf(b, ": %s", e.Summary)
			}
			if e.Deprecated {
				b.WriteString(" (deprecated)")
			}
			b.WriteString("\n")
			missing++
		}
		if header {
			b.WriteString("\n")
		}
	}
	if missing == 0 {
		b.WriteString("None.\n\n")
	}

	b.WriteString("### Go Methods\n\n")
	byFile := make(map[string][]GoMethod)
	for _, m := range r.Methods {
		byFile[m.FileName] = append(byFile[m.FileName], m)
	}
	for _, file := range sortedKeys(byFile) {
		fmt.Fprintf(b, "#### %s/%s\n\n", r.Target.Package, file)
		for _, m := range byFile[file] {
			fmt.Fprintf(b, "- `%s(%s) (%s)`\n", m.QualifiedName(),
				strings.Join(m.Parameters, ", "), strings.Join(m.ReturnTypes, ", "))
			if m.Comments != "" {
				fmt.Fprintf(b, "  - %s\n", m.Comments)
			}
		}
		b.WriteString("\n")
	}
}
