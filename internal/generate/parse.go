package generate

import (
	"encoding/json"
	"fmt"
	"log"
	"sort"
	"strconv"
	"strings"

	"github.com/julianshen/annotator/internal/symbol"
)

// responseItem is one proposal as returned by the model. Python replies
// carry "docstring", TypeScript replies "jsdoc"; "doc" is accepted for both.
type responseItem struct {
	Symbol    string          `json:"symbol"`
	Line      lineNumber      `json:"line"`
	Docstring string          `json:"docstring"`
	JSDoc     string          `json:"jsdoc"`
	Doc       string          `json:"doc"`
	OpenAPI   json.RawMessage `json:"openapi"`
	Postman   json.RawMessage `json:"postman"`
}

func (r responseItem) text() string {
	for _, s := range []string{r.Docstring, r.JSDoc, r.Doc} {
		if strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

// lineNumber accepts both 12 and "12".
type lineNumber int

func (n *lineNumber) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*n = 0
		return nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return fmt.Errorf("invalid line %s", b)
	}
	*n = lineNumber(v)
	return nil
}

// parseResponse extracts the proposal list from a model reply. Markdown
// fences and surrounding prose are tolerated; both {"proposals": [...]}
// and a bare array are accepted.
func parseResponse(raw string) ([]responseItem, error) {
	body := stripFences(strings.TrimSpace(raw))

	start := strings.IndexAny(body, "{[")
	if start < 0 {
		return nil, fmt.Errorf("no JSON found in response")
	}
	body = body[start:]

	if body[0] == '[' {
		var items []responseItem
		if err := json.Unmarshal([]byte(trimAfter(body, ']')), &items); err != nil {
			return nil, fmt.Errorf("decoding proposals: %w", err)
		}
		return items, nil
	}

	var wrapper struct {
		Proposals []responseItem `json:"proposals"`
	}
	if err := json.Unmarshal([]byte(trimAfter(body, '}')), &wrapper); err != nil {
		return nil, fmt.Errorf("decoding proposals: %w", err)
	}
	return wrapper.Proposals, nil
}

// stripFences removes a leading ```lang line and a trailing ``` line.
func stripFences(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	lines := strings.Split(s, "\n")
	lines = lines[1:]
	if n := len(lines); n > 0 && strings.TrimSpace(lines[n-1]) == "```" {
		lines = lines[:n-1]
	}
	return strings.Join(lines, "\n")
}

// trimAfter drops anything after the last occurrence of closer.
func trimAfter(s string, closer byte) string {
	if i := strings.LastIndexByte(s, closer); i >= 0 {
		return s[:i+1]
	}
	return s
}

// bindProposals validates model output against the analyzed symbols. A
// proposal is kept only when it carries a doc and its line matches a symbol
// (or, failing that, its name matches exactly one symbol). The first
// proposal per symbol wins. Results are ordered by line.
func bindProposals(path string, items []responseItem, symbols []symbol.Symbol) []symbol.DocProposal {
	byLine := make(map[int]symbol.Symbol, len(symbols))
	byName := make(map[string][]symbol.Symbol)
	for _, s := range symbols {
		byLine[s.Line] = s
		byName[s.Name] = append(byName[s.Name], s)
	}

	taken := make(map[int]bool)
	var out []symbol.DocProposal
	for _, item := range items {
		doc := item.text()
		if doc == "" {
			log.Printf("WARNING: %s: empty doc for %q (line %d), skipping", path, item.Symbol, item.Line)
			continue
		}

		sym, ok := byLine[int(item.Line)]
		if !ok {
			if candidates := byName[item.Symbol]; len(candidates) == 1 {
				sym, ok = candidates[0], true
			}
		}
		if !ok {
			log.Printf("WARNING: %s: proposal for %q at line %d matches no symbol, skipping", path, item.Symbol, item.Line)
			continue
		}
		if taken[sym.Line] {
			continue
		}
		taken[sym.Line] = true

		p := symbol.DocProposal{
			SymbolName: sym.Name,
			Line:       sym.Line,
			Doc:        doc,
		}
		if sym.IsEndpoint() {
			ep := *sym.Endpoint
			p.Endpoint = &ep
			p.OpenAPI = operationObject(item.OpenAPI, ep)
			p.Postman = object(item.Postman)
		}
		out = append(out, p)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Line < out[j].Line })
	return out
}

// operationObject decodes the model's OpenAPI fragment into an operation
// object for ep. Path-item shaped ({"get": {...}}) and paths shaped
// ({"/users": {"get": {...}}}) fragments are unwrapped.
func operationObject(raw json.RawMessage, ep symbol.Endpoint) map[string]any {
	obj := object(raw)
	if obj == nil {
		return nil
	}

	if paths, ok := obj["paths"].(map[string]any); ok {
		obj = paths
	}
	if item, ok := obj[ep.Path].(map[string]any); ok {
		obj = item
	}
	if op, ok := obj[strings.ToLower(ep.Method)].(map[string]any); ok {
		obj = op
	}
	return obj
}

// object decodes raw as a non-empty JSON object, or returns nil.
func object(raw json.RawMessage) map[string]any {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var obj map[string]any
	if err := json.Unmarshal(raw, &obj); err != nil || len(obj) == 0 {
		return nil
	}
	return obj
}
