// Package review walks the user through the doc proposals for a file and
// records which ones to apply.
package review

import (
	"encoding/json"
	"fmt"
	"io"
	"path/filepath"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/julianshen/annotator/internal/insert"
	"github.com/julianshen/annotator/internal/symbol"
)

var (
	fileStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.AdaptiveColor{Light: "#0087AF", Dark: "#5FD7FF"}).
			Padding(0, 1)
	nameStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.AdaptiveColor{Light: "#008700", Dark: "#5FD75F"})
	countStyle = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#AF8700", Dark: "#FFD75F"})
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.AdaptiveColor{Light: "#666666", Dark: "#999999"})
	boldStyle  = lipgloss.NewStyle().Bold(true)
)

// Decision is the outcome of reviewing one file.
type Decision struct {
	Path     string
	Accepted []symbol.DocProposal
	Rejected []symbol.DocProposal
}

// Options configure a Reviewer.
type Options struct {
	// AcceptAll accepts every proposal without prompting.
	AcceptAll bool
	// Plain disables glamour rendering of docs and diffs.
	Plain bool
	// Width is the word wrap width for rendered output. Zero means 100.
	Width int
}

// Reviewer presents proposals and collects decisions.
type Reviewer struct {
	out       io.Writer
	prompter  Prompter
	acceptAll bool
	renderer  *glamour.TermRenderer
}

// New creates a Reviewer writing to out and asking questions through p.
func New(out io.Writer, p Prompter, opts Options) (*Reviewer, error) {
	r := &Reviewer{out: out, prompter: p, acceptAll: opts.AcceptAll}
	if opts.Plain {
		return r, nil
	}
	width := opts.Width
	if width <= 0 {
		width = 100
	}
	tr, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("dark"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return nil, fmt.Errorf("creating glamour renderer: %w", err)
	}
	r.renderer = tr
	return r, nil
}

// Review shows each proposal for path and asks whether to apply it.
// Choosing "a" accepts the current proposal and every remaining one, for
// this and all later files. source is the file's current content and is
// used to preview diffs.
func (r *Reviewer) Review(path, source string, proposals []symbol.DocProposal, family symbol.Family) (Decision, error) {
	d := Decision{Path: path}
	if len(proposals) == 0 {
		return d, nil
	}

	fmt.Fprintln(r.out)
	fmt.Fprintln(r.out, fileStyle.Render(fmt.Sprintf("%s  %s", nameStyle.Render(path), countStyle.Render(plural(len(proposals), "proposal")))))

	for _, p := range proposals {
		fmt.Fprintf(r.out, "\n  %s %s  %s\n", boldStyle.Render("Symbol:"), nameStyle.Render(p.SymbolName), dimStyle.Render(fmt.Sprintf("(line %d)", p.Line)))
		if p.Endpoint != nil {
			fmt.Fprintf(r.out, "  %s %s %s\n", boldStyle.Render("Endpoint:"), p.Endpoint.Method, p.Endpoint.Path)
		}
		r.code(p.Doc, docLanguage(family))

		if len(p.OpenAPI) > 0 {
			if b, err := json.MarshalIndent(p.OpenAPI, "", "  "); err == nil {
				fmt.Fprintf(r.out, "  %s\n", boldStyle.Render("OpenAPI snippet:"))
				r.code(string(b), "json")
			}
		}

		if r.acceptAll {
			fmt.Fprintf(r.out, "  %s\n", dimStyle.Render("Auto-accepted (--all)"))
			d.Accepted = append(d.Accepted, p)
			continue
		}

	ask:
		for {
			choice, err := r.prompter.Choose(fmt.Sprintf("Apply doc for %s?", p.SymbolName))
			if err != nil {
				return d, err
			}
			switch choice {
			case ChoiceShowDiff:
				r.showDiff(path, source, p, family)
			case ChoiceAll:
				r.acceptAll = true
				d.Accepted = append(d.Accepted, p)
				break ask
			case ChoiceYes:
				d.Accepted = append(d.Accepted, p)
				break ask
			default:
				d.Rejected = append(d.Rejected, p)
				break ask
			}
		}
	}
	return d, nil
}

// Confirm forwards a yes/no question to the prompter. With AcceptAll set
// it answers yes without asking.
func (r *Reviewer) Confirm(title string) (bool, error) {
	if r.acceptAll {
		return true, nil
	}
	return r.prompter.Confirm(title, true)
}

func (r *Reviewer) showDiff(path, source string, p symbol.DocProposal, family symbol.Family) {
	text := Diff(path, source, insert.Apply(source, []symbol.DocProposal{p}, family))
	if text == "" {
		fmt.Fprintf(r.out, "  %s\n", dimStyle.Render("No diff to show."))
		return
	}
	r.code(text, "diff")
}

// code prints a fenced block, rendered through glamour when enabled.
func (r *Reviewer) code(text, lang string) {
	if r.renderer != nil {
		if out, err := r.renderer.Render("```" + lang + "\n" + text + "\n```\n"); err == nil {
			fmt.Fprint(r.out, out)
			return
		}
	}
	fmt.Fprintln(r.out, text)
}

// Diff returns a unified diff from before to after labelled a/<name> and
// b/<name>, or "" when they are equal.
func Diff(path, before, after string) string {
	name := filepath.Base(path)
	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(before),
		B:        difflib.SplitLines(after),
		FromFile: "a/" + name,
		ToFile:   "b/" + name,
		Context:  3,
	})
	if err != nil {
		return ""
	}
	return text
}

func docLanguage(f symbol.Family) string {
	if f == symbol.InlineDocString {
		return "python"
	}
	return "javascript"
}

func plural(n int, noun string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", noun)
	}
	return fmt.Sprintf("%d %ss", n, noun)
}
