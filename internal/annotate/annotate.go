// Package annotate ties the pipeline together: it collects source files,
// runs the analyzers, asks the generator for doc proposals and writes
// accepted proposals back to disk.
package annotate

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/sourcegraph/conc/pool"

	"github.com/julianshen/annotator/internal/analyzer"
	"github.com/julianshen/annotator/internal/config"
	"github.com/julianshen/annotator/internal/fileutil"
	"github.com/julianshen/annotator/internal/generate"
	"github.com/julianshen/annotator/internal/git"
	"github.com/julianshen/annotator/internal/insert"
	"github.com/julianshen/annotator/internal/symbol"
)

// Generator drafts doc proposals for one file.
type Generator interface {
	Generate(ctx context.Context, req generate.Request) (*generate.Result, error)
}

// Options configure an Annotator.
type Options struct {
	Concurrency int
	ExcludeDirs []string
	// Staged makes the change context the staged diff instead of the
	// working tree diff.
	Staged bool
}

// OptionsFromConfig maps the [annotate] config section to Options.
func OptionsFromConfig(cfg config.AnnotateConfig, staged bool) Options {
	return Options{
		Concurrency: cfg.Concurrency,
		ExcludeDirs: cfg.ExcludeDirs,
		Staged:      staged,
	}
}

// PatternConfig maps the [analyzer] config section to analyzer windows.
// Zero values keep the defaults.
func PatternConfig(cfg config.AnalyzerConfig) analyzer.PatternConfig {
	pc := analyzer.DefaultPatternConfig()
	if cfg.CallWindow > 0 {
		pc.CallWindow = cfg.CallWindow
	}
	if cfg.DecoratorWindow > 0 {
		pc.DecoratorWindow = cfg.DecoratorWindow
	}
	if cfg.DocLookback > 0 {
		pc.DocLookback = cfg.DocLookback
	}
	if cfg.ContextLines > 0 {
		pc.ContextLines = cfg.ContextLines
	}
	return pc
}

// FileResult is the analysis and generation outcome for one file.
type FileResult struct {
	Path         string
	Language     string
	Family       symbol.Family
	Source       string
	Symbols      []symbol.Symbol
	Proposals    []symbol.DocProposal
	InputTokens  int
	OutputTokens int
	Err          error
}

// Annotator runs the analyze, generate and apply steps.
type Annotator struct {
	registry    *analyzer.Registry
	gen         Generator
	concurrency int
	skipDirs    map[string]bool
	staged      bool
}

// New creates an Annotator. gen may be nil when only analysis and
// application are needed.
func New(registry *analyzer.Registry, gen Generator, opts Options) *Annotator {
	if registry == nil {
		registry = analyzer.Default()
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	skip := make(map[string]bool, len(defaultSkipDirs)+len(opts.ExcludeDirs))
	for d := range defaultSkipDirs {
		skip[d] = true
	}
	for _, d := range opts.ExcludeDirs {
		skip[d] = true
	}
	return &Annotator{
		registry:    registry,
		gen:         gen,
		concurrency: opts.Concurrency,
		skipDirs:    skip,
		staged:      opts.Staged,
	}
}

// Analyze reads path and returns the symbols missing documentation.
func (a *Annotator) Analyze(path string) (*FileResult, error) {
	an, ok := a.registry.ForFile(path)
	if !ok {
		return nil, fmt.Errorf("unsupported file type: %s", path)
	}
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return &FileResult{
		Path:     path,
		Language: an.Language(),
		Family:   an.Family(),
		Source:   string(source),
		Symbols:  an.Analyze(source),
	}, nil
}

// Propose analyzes path and asks the generator to document its symbols.
// The file's git diff, when there is one, is sent as change context.
func (a *Annotator) Propose(ctx context.Context, path string) (*FileResult, error) {
	res, err := a.Analyze(path)
	if err != nil {
		return nil, err
	}
	if len(res.Symbols) == 0 {
		return res, nil
	}
	if a.gen == nil {
		return nil, fmt.Errorf("no generator configured")
	}

	diff, err := git.NewRunner(filepath.Dir(path)).Diff(ctx, path, a.staged)
	if err != nil {
		log.Printf("WARNING: git diff for %s: %v", path, err)
	}

	gen, err := a.gen.Generate(ctx, generate.Request{
		Path:     path,
		Language: res.Language,
		Source:   res.Source,
		Diff:     diff,
		Symbols:  res.Symbols,
	})
	if err != nil {
		return nil, err
	}
	res.Proposals = gen.Proposals
	res.InputTokens = gen.InputTokens
	res.OutputTokens = gen.OutputTokens
	return res, nil
}

// ProposeAll runs Propose for every file concurrently. Results are in the
// order of files. A failing file is logged and reported through its
// FileResult.Err; it never stops the others.
func (a *Annotator) ProposeAll(ctx context.Context, files []string) []*FileResult {
	results := make([]*FileResult, len(files))
	p := pool.New().WithMaxGoroutines(a.concurrency)
	for i, path := range files {
		p.Go(func() {
			res, err := a.Propose(ctx, path)
			if err != nil {
				log.Printf("WARNING: analyzing %s: %v", path, err)
				res = &FileResult{Path: path, Err: err}
			}
			results[i] = res
		})
	}
	p.Wait()
	return results
}

// Apply writes the accepted proposals into path and returns the ones that
// were inserted, bound to their current lines. The file is analyzed again
// first and each proposal is bound to the current line of its symbol, so
// edits made since the proposals were generated do not misplace them.
func (a *Annotator) Apply(path string, accepted []symbol.DocProposal) ([]symbol.DocProposal, error) {
	if len(accepted) == 0 {
		return nil, nil
	}
	res, err := a.Analyze(path)
	if err != nil {
		return nil, err
	}

	bound := Reanchor(accepted, res.Symbols)
	if dropped := len(accepted) - len(bound); dropped > 0 {
		log.Printf("WARNING: %s: %d proposal(s) no longer match an undocumented symbol, skipping", path, dropped)
	}
	if len(bound) == 0 {
		return nil, nil
	}

	updated := insert.Apply(res.Source, bound, res.Family)
	if updated == res.Source {
		return nil, nil
	}
	if err := fileutil.WriteAtomic(path, []byte(updated)); err != nil {
		return nil, fmt.Errorf("writing %s: %w", path, err)
	}
	return bound, nil
}
