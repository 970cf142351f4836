// Package parser provides tree-sitter-based parsing for the languages that
// have an embedded grammar, with language detection from file extensions.
// Callers walk the returned syntax tree themselves.
package parser

import (
	"context"
	"fmt"
	"path/filepath"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/python"
)

// registry maps file extensions to tree-sitter grammars.
var registry = map[string]*sitter.Language{
	".py": python.GetLanguage(),
}

// Parser wraps a tree-sitter parser. A Parser is not safe for concurrent
// use; create one per goroutine.
type Parser struct {
	inner *sitter.Parser
}

// NewParser creates a new Parser instance.
func NewParser() *Parser {
	return &Parser{
		inner: sitter.NewParser(),
	}
}

// Close releases the underlying tree-sitter parser.
func (p *Parser) Close() {
	p.inner.Close()
}

// Parse parses source code from the given filename, auto-detecting the language
// from the file extension. Returns an error for unsupported extensions.
func (p *Parser) Parse(ctx context.Context, filename string, source []byte) (*Tree, error) {
	ext := filepath.Ext(filename)
	lang, ok := registry[ext]
	if !ok {
		return nil, fmt.Errorf("unsupported file extension %q: language not in registry", ext)
	}

	p.inner.SetLanguage(lang)
	sitterTree, err := p.inner.ParseCtx(ctx, nil, source)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", filename, err)
	}

	return &Tree{
		tree:   sitterTree,
		source: source,
	}, nil
}

// Tree wraps a parsed tree-sitter syntax tree together with its source.
type Tree struct {
	tree   *sitter.Tree
	source []byte
}

// RootNode returns the root node of the parsed syntax tree.
func (t *Tree) RootNode() *sitter.Node {
	return t.tree.RootNode()
}

// HasError reports whether the tree contains syntax errors or missing nodes.
func (t *Tree) HasError() bool {
	return t.RootNode().HasError()
}

// Text returns the source text spanned by node.
func (t *Tree) Text(node *sitter.Node) string {
	if node == nil {
		return ""
	}
	return node.Content(t.source)
}

// Close frees the tree. The Tree must not be used afterwards.
func (t *Tree) Close() {
	t.tree.Close()
}

// Walk performs a depth-first, pre-order traversal of the syntax tree. When
// fn returns false the children of that node are skipped.
func Walk(node *sitter.Node, fn func(*sitter.Node) bool) {
	if node == nil {
		return
	}
	if !fn(node) {
		return
	}
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child != nil {
			Walk(child, fn)
		}
	}
}

// NamedChildren returns the named children of node, skipping comments.
func NamedChildren(node *sitter.Node) []*sitter.Node {
	if node == nil {
		return nil
	}
	var out []*sitter.Node
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child == nil || child.Type() == "comment" {
			continue
		}
		out = append(out, child)
	}
	return out
}

// StartLine returns the 1-based line on which node starts.
func StartLine(node *sitter.Node) int {
	return int(node.StartPoint().Row) + 1
}

// EndLine returns the 1-based line on which node ends.
func EndLine(node *sitter.Node) int {
	return int(node.EndPoint().Row) + 1
}
