// Package generate asks an LLM to draft documentation for the symbols an
// analyzer found, and validates the reply into doc proposals.
package generate

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/julianshen/annotator/internal/provider"
	"github.com/julianshen/annotator/internal/symbol"
)

// maxInlineSource is the largest file sent to the model verbatim. Larger
// files are represented by each symbol's captured context.
const maxInlineSource = 120 * 1024

// Config controls the generation requests.
type Config struct {
	Model      string
	MaxTokens   int
	Temperature *float64
	StyleGuide  string // project notes appended to the system prompt
}

// Request describes one file's generation job.
type Request struct {
	Path     string
	Language string // "python" or "typescript"
	Source   string
	Diff     string // optional git diff used as change context
	Symbols  []symbol.Symbol
}

// Result is the outcome of one generation call.
type Result struct {
	Proposals    []symbol.DocProposal
	InputTokens  int
	OutputTokens int
}

// Generator turns symbols into doc proposals with an LLM.
type Generator struct {
	provider provider.LLMProvider
	cfg      Config
}

// New creates a Generator backed by p.
func New(p provider.LLMProvider, cfg Config) *Generator {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 4096
	}
	return &Generator{provider: p, cfg: cfg}
}

// Generate drafts documentation for req.Symbols. Every returned proposal is
// anchored to the line of one of those symbols.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	if len(req.Symbols) == 0 {
		return &Result{}, nil
	}

	style, ok := styles[req.Language]
	if !ok {
		return nil, fmt.Errorf("unsupported language %q", req.Language)
	}

	prompt, err := buildPrompt(style, req)
	if err != nil {
		return nil, fmt.Errorf("building prompt: %w", err)
	}

	completion, err := provider.Complete(ctx, g.provider, provider.CompletionRequest{
		Model:       g.cfg.Model,
		System:      g.systemPrompt(style),
		Messages:    []provider.Message{provider.NewUserMessage(prompt)},
		MaxTokens:   g.cfg.MaxTokens,
		Temperature: g.cfg.Temperature,
	})
	if err != nil {
		return nil, fmt.Errorf("generating docs for %s: %w", req.Path, err)
	}

	items, err := parseResponse(completion.Text)
	if err != nil {
		return nil, fmt.Errorf("parsing response for %s: %w", req.Path, err)
	}

	return &Result{
		Proposals:    bindProposals(req.Path, items, req.Symbols),
		InputTokens:  completion.InputTokens,
		OutputTokens: completion.OutputTokens,
	}, nil
}

func (g *Generator) systemPrompt(style languageStyle) string {
	if strings.TrimSpace(g.cfg.StyleGuide) == "" {
		return style.system
	}
	return style.system + "\n\n## Project Documentation Guidelines\n\n" + strings.TrimSpace(g.cfg.StyleGuide)
}

func buildPrompt(style languageStyle, req Request) (string, error) {
	data := promptData{
		LanguageName: style.name,
		DocName:      style.docName,
		DocKey:       style.docKey,
		Fence:        style.fence,
		Path:         req.Path,
		Diff:         strings.TrimSpace(req.Diff),
		ExampleName:  style.exampleName,
		ExampleDoc:   style.exampleDoc,
	}
	if len(req.Source) <= maxInlineSource {
		data.Source = strings.TrimRight(req.Source, "\n")
	}
	for _, s := range req.Symbols {
		t := promptTarget{
			Name:    s.Name,
			Line:    s.Line,
			Context: strings.Join(s.Context, "\n"),
		}
		if s.IsEndpoint() {
			t.Endpoint = s.Endpoint.Method + " " + s.Endpoint.Path
		}
		data.Targets = append(data.Targets, t)
	}

	var buf bytes.Buffer
	if err := userTmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
