package analyzer

import (
	"context"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/julianshen/annotator/internal/parser"
	"github.com/julianshen/annotator/internal/symbol"
)

const (
	pythonContextLines    = 30
	pythonContextFallback = 10
)

// apiReceivers are the conventional names FastAPI-style apps are bound to.
var apiReceivers = map[string]bool{
	"app":    true,
	"router": true,
	"api":    true,
}

// Python detects undocumented functions, methods and FastAPI/Flask
// endpoints from a full tree-sitter parse.
type Python struct{}

// NewPython creates the grammar-based Python analyzer.
func NewPython() *Python {
	return &Python{}
}

func (*Python) Language() string { return "python" }

func (*Python) Family() symbol.Family { return symbol.InlineDocString }

// Analyze returns every function definition, nested or class-scoped, that
// has no docstring, in source order. Sources with syntax errors yield nil.
func (a *Python) Analyze(source []byte) []symbol.Symbol {
	p := parser.NewParser()
	defer p.Close()

	tree, err := p.Parse(context.Background(), "source.py", source)
	if err != nil {
		return nil
	}
	defer tree.Close()
	if tree.HasError() {
		return nil
	}

	lines := symbol.SplitLines(string(source))
	var symbols []symbol.Symbol

	parser.Walk(tree.RootNode(), func(n *sitter.Node) bool {
		if n.Type() != "function_definition" {
			return true
		}
		name := tree.Text(n.ChildByFieldName("name"))
		// Dunder methods rarely benefit from generated docs; constructors do.
		if name == "" || (strings.HasPrefix(name, "__") && name != "__init__") {
			return true
		}
		if hasDocstring(tree, n) {
			return true
		}

		sym := symbol.Symbol{
			Name: name,
			Line: parser.StartLine(n),
			Kind: symbol.KindFunction,
		}
		if isMethod(n) {
			sym.Kind = symbol.KindClassMethod
		}
		if ep := endpointFromDecorators(pythonDecorators(tree, n)); ep != nil {
			sym.Kind = symbol.KindEndpoint
			sym.Endpoint = ep
		}
		sym.Context = pythonContext(lines, n)

		symbols = append(symbols, sym)
		return true
	})

	return symbols
}

// hasDocstring reports whether the first body statement is a plain string
// literal. f-strings and bytes never become docstrings.
func hasDocstring(tree *parser.Tree, fn *sitter.Node) bool {
	stmts := parser.NamedChildren(fn.ChildByFieldName("body"))
	if len(stmts) == 0 {
		return false
	}
	first := stmts[0]
	if first.Type() != "expression_statement" {
		return false
	}
	exprs := parser.NamedChildren(first)
	if len(exprs) != 1 {
		return false
	}
	switch expr := exprs[0]; expr.Type() {
	case "string":
		return plainString(tree.Text(expr))
	case "concatenated_string":
		for _, part := range parser.NamedChildren(expr) {
			if part.Type() == "string" && !plainString(tree.Text(part)) {
				return false
			}
		}
		return true
	}
	return false
}

// plainString reports whether a string literal's prefix has no f or b.
func plainString(literal string) bool {
	end := strings.IndexAny(literal, `"'`)
	if end < 0 {
		return false
	}
	return !strings.ContainsAny(literal[:end], "fFbB")
}

// definitionNode returns the node that sits in the enclosing block: the
// decorated_definition wrapper when present, otherwise fn itself.
func definitionNode(fn *sitter.Node) *sitter.Node {
	if parent := fn.Parent(); parent != nil && parent.Type() == "decorated_definition" {
		return parent
	}
	return fn
}

// isMethod reports whether fn is defined directly in a class body.
func isMethod(fn *sitter.Node) bool {
	block := definitionNode(fn).Parent()
	if block == nil || block.Type() != "block" {
		return false
	}
	owner := block.Parent()
	return owner != nil && owner.Type() == "class_definition"
}

// pythonDecorators reduces the decorators attached to fn to plain records,
// preserving their order.
func pythonDecorators(tree *parser.Tree, fn *sitter.Node) []symbol.Decorator {
	def := definitionNode(fn)
	if def == fn {
		return nil
	}

	var decs []symbol.Decorator
	for _, child := range parser.NamedChildren(def) {
		if child.Type() != "decorator" {
			continue
		}
		exprs := parser.NamedChildren(child)
		if len(exprs) == 0 {
			continue
		}
		dec := symbol.Decorator{Line: parser.StartLine(child)}
		expr := exprs[0]
		target := expr
		if expr.Type() == "call" {
			target = expr.ChildByFieldName("function")
			dec.Args, dec.Keywords = pythonArguments(tree, expr.ChildByFieldName("arguments"))
		}
		switch target.Type() {
		case "attribute":
			dec.Receiver = tree.Text(target.ChildByFieldName("object"))
			dec.Name = tree.Text(target.ChildByFieldName("attribute"))
		case "identifier":
			dec.Name = tree.Text(target)
		}
		decs = append(decs, dec)
	}
	return decs
}

// pythonArguments splits a call's argument_list into positional literals
// and keyword literals. List values are flattened into their elements.
func pythonArguments(tree *parser.Tree, args *sitter.Node) ([]symbol.Literal, map[string][]symbol.Literal) {
	var positional []symbol.Literal
	var keywords map[string][]symbol.Literal

	for _, arg := range parser.NamedChildren(args) {
		if arg.Type() != "keyword_argument" {
			positional = append(positional, pythonLiteral(tree, arg))
			continue
		}
		if keywords == nil {
			keywords = make(map[string][]symbol.Literal)
		}
		key := tree.Text(arg.ChildByFieldName("name"))
		value := arg.ChildByFieldName("value")
		if value == nil {
			continue
		}
		switch value.Type() {
		case "list", "tuple":
			for _, elt := range parser.NamedChildren(value) {
				keywords[key] = append(keywords[key], pythonLiteral(tree, elt))
			}
		default:
			keywords[key] = append(keywords[key], pythonLiteral(tree, value))
		}
	}
	return positional, keywords
}

func pythonLiteral(tree *parser.Tree, n *sitter.Node) symbol.Literal {
	if n.Type() == "string" {
		return symbol.Literal{Value: unquotePython(tree.Text(n)), String: true}
	}
	return symbol.Literal{Value: tree.Text(n)}
}

// unquotePython strips string prefixes (r, b, u, f) and quotes.
func unquotePython(s string) string {
	s = strings.TrimLeft(s, "rRbBuUfF")
	for _, q := range []string{`"""`, `'''`, `"`, `'`} {
		if len(s) >= 2*len(q) && strings.HasPrefix(s, q) && strings.HasSuffix(s, q) {
			return s[len(q) : len(s)-len(q)]
		}
	}
	return s
}

// endpointFromDecorators infers an HTTP endpoint from a decorator list.
// Two shapes are recognized, first match wins:
//
//	@app.get("/path")                          receiver in apiReceivers
//	@bp.route("/path", methods=["POST"])       GET when methods is absent
func endpointFromDecorators(decs []symbol.Decorator) *symbol.Endpoint {
	for _, d := range decs {
		if method, ok := symbol.HTTPMethod(d.Name); ok && apiReceivers[d.Receiver] {
			if path, ok := d.FirstString(); ok {
				return &symbol.Endpoint{Method: method, Path: symbol.NormalizePath(path)}
			}
			continue
		}
		if strings.EqualFold(d.Name, "route") && d.Receiver != "" {
			path, ok := d.FirstString()
			if !ok {
				continue
			}
			method := "GET"
			for _, m := range d.Keywords["methods"] {
				if m.String {
					method = strings.ToUpper(m.Value)
					break
				}
			}
			return &symbol.Endpoint{Method: method, Path: symbol.NormalizePath(path)}
		}
	}
	return nil
}

// pythonContext captures the definition from its first line to its last,
// capped at pythonContextLines.
func pythonContext(lines []string, fn *sitter.Node) []string {
	start := parser.StartLine(fn) - 1
	end := parser.EndLine(fn)
	if end <= start {
		end = start + pythonContextFallback
	}
	if end > start+pythonContextLines {
		end = start + pythonContextLines
	}
	return symbol.Window(lines, start, end)
}
