// Package analyzer finds functions and endpoints that are missing
// documentation. Python sources are parsed with tree-sitter; TypeScript and
// JavaScript sources are matched with line-anchored patterns.
package analyzer

import (
	"path/filepath"
	"sort"

	"github.com/julianshen/annotator/internal/symbol"
)

// Analyzer inspects one source file and returns the symbols needing docs.
// Implementations never fail: unparseable input yields no symbols.
type Analyzer interface {
	Language() string
	Family() symbol.Family
	Analyze(source []byte) []symbol.Symbol
}

// PatternConfig holds the proximity windows used by the pattern-based
// analyzer. They follow common formatting conventions and are approximate.
type PatternConfig struct {
	CallWindow      int // lines around a route call that claim a function
	DecoratorWindow int // lines after a route decorator that inherit it
	DocLookback     int // lines scanned above a candidate for a doc block
	ContextLines    int // max context lines captured per symbol
}

// DefaultPatternConfig returns the standard proximity windows.
func DefaultPatternConfig() PatternConfig {
	return PatternConfig{
		CallWindow:      1,
		DecoratorWindow: 5,
		DocLookback:     20,
		ContextLines:    30,
	}
}

// Registry maps file extensions to analyzers. It is read-only once built.
type Registry struct {
	byExt map[string]Analyzer
}

// NewRegistry builds the extension table for all supported languages.
func NewRegistry(cfg PatternConfig) *Registry {
	ts := NewTypeScript(cfg)
	return &Registry{byExt: map[string]Analyzer{
		".py": NewPython(),
		".ts": ts,
		".js": ts,
	}}
}

var defaultRegistry = NewRegistry(DefaultPatternConfig())

// Default returns the registry built with the default pattern windows.
func Default() *Registry {
	return defaultRegistry
}

// ForFile returns the analyzer responsible for path, if any.
func (r *Registry) ForFile(path string) (Analyzer, bool) {
	a, ok := r.byExt[filepath.Ext(path)]
	return a, ok
}

// Supported reports whether path has a registered extension.
func (r *Registry) Supported(path string) bool {
	_, ok := r.ForFile(path)
	return ok
}

// Extensions returns the registered extensions in sorted order.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
