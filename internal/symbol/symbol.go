// Package symbol defines the shared records passed between the analyzers,
// the doc generator and the insertion engine.
package symbol

import "strings"

// Kind classifies a documentable symbol.
type Kind string

const (
	KindFunction    Kind = "function"
	KindClassMethod Kind = "class-method"
	KindEndpoint    Kind = "endpoint"
)

// Endpoint binds a symbol to an HTTP method and path. Method and path only
// ever travel together, so a symbol either has an Endpoint or it does not.
type Endpoint struct {
	Method string `json:"method"` // uppercase verb: GET, POST, ...
	Path   string `json:"path"`   // leading slash, placeholders such as {id} kept verbatim
}

// Symbol is a function, method or endpoint handler found by an analyzer.
type Symbol struct {
	Name     string    `json:"name"`
	Line     int       `json:"line"` // 1-based definition line
	Kind     Kind      `json:"kind"`
	HasDocs  bool      `json:"has_docs"`
	Endpoint *Endpoint `json:"endpoint,omitempty"`
	// Context holds a bounded slice of source around the definition. It is
	// prompt material only and is never used to locate insertions.
	Context []string `json:"-"`
}

// IsEndpoint reports whether the symbol handles an HTTP route.
func (s Symbol) IsEndpoint() bool {
	return s.Endpoint != nil
}

// DocProposal is a generated doc block bound to a symbol's anchor line.
type DocProposal struct {
	SymbolName string    `json:"symbol"`
	Line       int       `json:"line"`
	Doc        string    `json:"doc"`
	Endpoint   *Endpoint `json:"endpoint,omitempty"`
	// OpenAPI is an operation object for the endpoint, when one was generated.
	OpenAPI map[string]any `json:"openapi,omitempty"`
	// Postman is a request item for the endpoint, when one was generated.
	Postman map[string]any `json:"postman,omitempty"`
}

// Family selects where a language keeps its documentation.
type Family int

const (
	// InlineDocString documentation is the first statement of the body (Python).
	InlineDocString Family = iota
	// LeadingComment documentation is a block directly above the definition (JSDoc).
	LeadingComment
)

func (f Family) String() string {
	switch f {
	case InlineDocString:
		return "inline-docstring"
	case LeadingComment:
		return "leading-comment"
	default:
		return "unknown"
	}
}

// SplitLines splits text into lines without their terminators. A trailing
// newline does not produce a final empty line, and "\r\n" endings are
// treated the same as "\n".
func SplitLines(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// Window returns lines[start:end] clamped to the bounds of lines.
func Window(lines []string, start, end int) []string {
	if start < 0 {
		start = 0
	}
	if end > len(lines) {
		end = len(lines)
	}
	if start >= end {
		return nil
	}
	out := make([]string, end-start)
	copy(out, lines[start:end])
	return out
}
