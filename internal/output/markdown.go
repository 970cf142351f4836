package output

import (
	"fmt"
	"strings"
	"time"
)

// MarkdownFormatter outputs a Report as human-readable Markdown.
type MarkdownFormatter struct{}

// NewMarkdownFormatter creates a new MarkdownFormatter.
func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

// Format renders the Report as Markdown.
func (f *MarkdownFormatter) Format(report *Report) ([]byte, error) {
	var b strings.Builder

	b.WriteString("# Dry run\n\n")
	if len(report.Files) == 0 {
		b.WriteString("No supported files found.\n")
	}

	for _, file := range report.Files {
		b.WriteString(fmt.Sprintf("## %s\n\n", file.Path))
		switch {
		case file.Error != "":
			b.WriteString(fmt.Sprintf("**Error:** %s\n\n", file.Error))
		case len(file.Proposals) == 0:
			b.WriteString("No missing documentation found.\n\n")
		default:
			for _, p := range file.Proposals {
				line := fmt.Sprintf("- `%s` (line %d)", p.SymbolName, p.Line)
				if p.Endpoint != nil {
					line += fmt.Sprintf(" `%s %s`", p.Endpoint.Method, p.Endpoint.Path)
				}
				b.WriteString(line + "\n")
			}
			b.WriteString("\n")
		}
	}

	n := report.ProposalCount()
	b.WriteString(fmt.Sprintf("---\n*%s in %s, %d input / %d output tokens, %s*\n",
		plural(n, "proposal"), plural(len(report.Files), "file"),
		report.InputTokens, report.OutputTokens,
		report.Duration().Round(100*time.Millisecond)))

	return []byte(b.String()), nil
}

func plural(n int, noun string) string {
	if n == 1 {
		return "1 " + noun
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
