package analyzer

import (
	"regexp"
	"sort"
	"strings"

	"github.com/julianshen/annotator/internal/symbol"
)

// Function patterns, tried in order. A line claimed by an earlier pattern
// is never claimed again.
var tsFuncPatterns = []*regexp.Regexp{
	// function name(
	regexp.MustCompile(`(?m)^(?:export\s+)?(?:async\s+)?function\s+(\w+)\s*\(`),
	// const name = (async) (args) =>
	regexp.MustCompile(`(?m)^(?:export\s+)?const\s+(\w+)\s*=\s*(?:async\s+)?\(`),
	// const name = async function(
	regexp.MustCompile(`(?m)^(?:export\s+)?const\s+(\w+)\s*=\s*async\s+function\s*\(`),
}

var (
	// Express-style route calls: app.get('/path', ...), router.post(`/x`, ...)
	tsRouteCallRe = regexp.MustCompile("(?i)\\b(?:app|router|server)\\.(get|post|put|delete|patch|head|options)\\s*\\(\\s*['\"`]([^'\"` ]+)['\"`]")

	// NestJS-style route decorators: @Get(), @Post(':id')
	tsRouteDecoratorRe = regexp.MustCompile("(?i)@(Get|Post|Put|Delete|Patch|Head|Options)\\s*\\(\\s*(?:['\"`]([^'\"` ]*)['\"`])?\\s*\\)")
	tsControllerRe     = regexp.MustCompile("(?i)@Controller\\s*\\(\\s*(?:['\"`]([^'\"` ]*)['\"`])?\\s*\\)")

	// A JSDoc block that closes the lookback window.
	tsJSDocRe = regexp.MustCompile(`/\*\*[\s\S]*?\*/\s*$`)
)

// TypeScript detects undocumented functions and Express/NestJS endpoints in
// TypeScript and JavaScript with line-anchored patterns. Detection is
// heuristic: it may miss symbols but never invents line numbers.
type TypeScript struct {
	cfg PatternConfig
}

// NewTypeScript creates the pattern-based analyzer with the given windows.
func NewTypeScript(cfg PatternConfig) *TypeScript {
	return &TypeScript{cfg: cfg}
}

func (*TypeScript) Language() string { return "typescript" }

func (*TypeScript) Family() symbol.Family { return symbol.LeadingComment }

// Analyze returns undocumented symbols sorted by line.
func (a *TypeScript) Analyze(source []byte) []symbol.Symbol {
	content := string(source)
	lines := symbol.SplitLines(content)

	callRoutes, callLines := a.routeCalls(content)
	decoratorRoutes := a.routeDecorators(content)

	var symbols []symbol.Symbol
	claimed := make(map[int]bool)

	for _, pattern := range tsFuncPatterns {
		for _, m := range pattern.FindAllStringSubmatchIndex(content, -1) {
			line := lineOf(content, m[0])
			if claimed[line] {
				continue
			}
			claimed[line] = true

			name := content[m[2]:m[3]]
			if strings.HasPrefix(name, "_") {
				continue
			}
			if a.hasJSDoc(lines, line) {
				continue
			}

			sym := symbol.Symbol{
				Name: name,
				Line: line + 1,
				Kind: symbol.KindFunction,
			}
			if ep := a.nearbyCall(callRoutes, callLines, line); ep != nil {
				sym.Kind = symbol.KindEndpoint
				sym.Endpoint = ep
			} else if ep, ok := decoratorRoutes[line]; ok {
				sym.Kind = symbol.KindEndpoint
				sym.Endpoint = &symbol.Endpoint{Method: ep.Method, Path: ep.Path}
			}
			sym.Context = symbol.Window(lines, line, line+a.cfg.ContextLines)
			symbols = append(symbols, sym)
		}
	}

	// Inline anonymous handlers: route calls no function pattern claimed.
	for _, line := range callLines {
		if claimed[line] {
			continue
		}
		claimed[line] = true
		if a.hasJSDoc(lines, line) {
			continue
		}
		ep := callRoutes[line]
		symbols = append(symbols, symbol.Symbol{
			Name:     syntheticName(ep),
			Line:     line + 1,
			Kind:     symbol.KindEndpoint,
			Endpoint: &symbol.Endpoint{Method: ep.Method, Path: ep.Path},
			Context:  symbol.Window(lines, line, line+a.cfg.ContextLines),
		})
	}

	sort.SliceStable(symbols, func(i, j int) bool {
		return symbols[i].Line < symbols[j].Line
	})
	return symbols
}

// routeCalls maps 0-based lines to Express-style route calls. The returned
// slice lists those lines in file order.
func (a *TypeScript) routeCalls(content string) (map[int]symbol.Endpoint, []int) {
	routes := make(map[int]symbol.Endpoint)
	var order []int
	for _, m := range tsRouteCallRe.FindAllStringSubmatchIndex(content, -1) {
		line := lineOf(content, m[0])
		if _, seen := routes[line]; !seen {
			order = append(order, line)
		}
		method, _ := symbol.HTTPMethod(content[m[2]:m[3]])
		routes[line] = symbol.Endpoint{Method: method, Path: symbol.NormalizePath(content[m[4]:m[5]])}
	}
	return routes, order
}

// routeDecorators maps 0-based lines to the NestJS route a decorator above
// them declares. Each decorator covers the DecoratorWindow lines after it.
func (a *TypeScript) routeDecorators(content string) map[int]symbol.Endpoint {
	base := ""
	if m := tsControllerRe.FindStringSubmatch(content); m != nil {
		base = m[1]
	}

	routes := make(map[int]symbol.Endpoint)
	for _, m := range tsRouteDecoratorRe.FindAllStringSubmatchIndex(content, -1) {
		decLine := lineOf(content, m[0])
		method, _ := symbol.HTTPMethod(content[m[2]:m[3]])
		sub := ""
		if m[4] >= 0 {
			sub = content[m[4]:m[5]]
		}
		ep := symbol.Endpoint{Method: method, Path: symbol.JoinPath(base, sub)}
		for offset := 1; offset <= a.cfg.DecoratorWindow; offset++ {
			routes[decLine+offset] = ep
		}
	}
	return routes
}

// nearbyCall returns the first route call, in file order, within
// CallWindow lines of line.
func (a *TypeScript) nearbyCall(routes map[int]symbol.Endpoint, order []int, line int) *symbol.Endpoint {
	for _, callLine := range order {
		d := callLine - line
		if d < 0 {
			d = -d
		}
		if d <= a.cfg.CallWindow {
			ep := routes[callLine]
			return &ep
		}
	}
	return nil
}

// hasJSDoc reports whether a /** ... */ block ends the DocLookback lines
// above the 0-based line.
func (a *TypeScript) hasJSDoc(lines []string, line int) bool {
	if line == 0 {
		return false
	}
	start := line - a.cfg.DocLookback
	if start < 0 {
		start = 0
	}
	block := strings.Join(symbol.Window(lines, start, line), "\n")
	return tsJSDocRe.MatchString(block)
}

// syntheticName names an anonymous route handler, e.g. GET /users/{id}
// becomes "get_users_{id}".
func syntheticName(ep symbol.Endpoint) string {
	return strings.ToLower(ep.Method) + "_" + strings.Trim(strings.ReplaceAll(ep.Path, "/", "_"), "_")
}

// lineOf converts a byte offset into a 0-based line number.
func lineOf(content string, offset int) int {
	return strings.Count(content[:offset], "\n")
}
