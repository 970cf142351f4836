// Package output renders the dry-run report of the check command.
package output

import (
	"time"

	"github.com/julianshen/annotator/internal/symbol"
)

// Report holds the proposals a check run would offer, per file.
type Report struct {
	Target       string       `json:"target"`
	Model        string       `json:"model,omitempty"`
	Files        []FileReport `json:"files"`
	InputTokens  int          `json:"input_tokens"`
	OutputTokens int          `json:"output_tokens"`
	DurationMs   int64        `json:"duration_ms"`
}

// FileReport is the outcome for one source file.
type FileReport struct {
	Path      string               `json:"path"`
	Language  string               `json:"language"`
	Proposals []symbol.DocProposal `json:"proposals"`
	Error     string               `json:"error,omitempty"`
}

// Duration returns DurationMs as a time.Duration.
func (r *Report) Duration() time.Duration {
	return time.Duration(r.DurationMs) * time.Millisecond
}

// ProposalCount returns the total number of proposals across all files.
func (r *Report) ProposalCount() int {
	n := 0
	for _, f := range r.Files {
		n += len(f.Proposals)
	}
	return n
}

// Formatter formats a Report into output bytes.
type Formatter interface {
	Format(report *Report) ([]byte, error)
}

// NewFormatter returns the formatter for name: "json" or "markdown".
// Unknown names fall back to markdown.
func NewFormatter(name string) Formatter {
	if name == "json" {
		return NewJSONFormatter()
	}
	return NewMarkdownFormatter()
}
