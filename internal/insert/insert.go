// Package insert splices generated doc blocks into source text.
//
// Proposals are anchored to 1-based definition lines of an unmodified
// snapshot. Apply processes them from the bottom of the file upwards, so an
// insertion never shifts the anchor of a proposal that is still pending.
package insert

import (
	"sort"
	"strings"

	"github.com/julianshen/annotator/internal/symbol"
)

// indentUnit is one indentation level when the body gives no better hint.
const indentUnit = "    "

// Apply returns source with every proposal's doc inserted according to the
// language family. Proposals with anchors outside the file, empty docs, or
// (for inline doc strings) no body block to insert into are skipped. The
// input slice is not modified.
func Apply(source string, proposals []symbol.DocProposal, family symbol.Family) string {
	if len(proposals) == 0 {
		return source
	}

	lines := splitKeepEOL(source)

	ordered := make([]symbol.DocProposal, len(proposals))
	copy(ordered, proposals)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Line != ordered[j].Line {
			return ordered[i].Line > ordered[j].Line
		}
		return ordered[i].Doc > ordered[j].Doc
	})

	for _, p := range ordered {
		idx := p.Line - 1
		if idx < 0 || idx >= len(lines) {
			continue
		}
		if strings.TrimSpace(p.Doc) == "" {
			continue
		}

		anchor := lines[idx]
		indent := leadingWhitespace(anchor)
		eol := "\n"
		if strings.HasSuffix(anchor, "\r\n") {
			eol = "\r\n"
		}

		at := idx
		if family == symbol.InlineDocString {
			end, ok := signatureEnd(lines, idx)
			if !ok {
				continue
			}
			at = end + 1
			indent = bodyIndent(lines, at, indent)
		}

		if at == len(lines) && !strings.HasSuffix(lines[at-1], "\n") {
			lines[at-1] += eol
		}
		lines = insertAt(lines, at, render(p.Doc, indent, eol))
	}

	return strings.Join(lines, "")
}

// render indents each non-blank doc line and terminates the block with eol.
func render(doc, indent, eol string) string {
	var b strings.Builder
	for _, l := range strings.Split(strings.TrimRight(doc, "\r\n"), "\n") {
		l = strings.TrimSuffix(l, "\r")
		if strings.TrimSpace(l) != "" {
			b.WriteString(indent)
			b.WriteString(l)
		}
		b.WriteString(eol)
	}
	return b.String()
}

// signatureEnd finds the last line of the definition header starting at
// lines[start]. The header continues while brackets are open or a line ends
// with a separator or backslash. ok is false when the header does not end
// with ':' (a one-line body) or never closes.
func signatureEnd(lines []string, start int) (end int, ok bool) {
	var sc headerScanner
	for i := start; i < len(lines); i++ {
		code := sc.scan(strings.TrimRight(lines[i], "\r\n"))
		if sc.open() || strings.HasSuffix(code, ",") || strings.HasSuffix(code, `\`) {
			continue
		}
		return i, strings.HasSuffix(code, ":")
	}
	return len(lines) - 1, false
}

// bodyIndent returns the indentation of the first code line at or after
// lines[from], provided it is deeper than the header's. Otherwise the header
// indent grows by one level, a tab for tab-indented headers.
func bodyIndent(lines []string, from int, header string) string {
	for i := from; i < len(lines); i++ {
		text := strings.TrimSpace(lines[i])
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		ws := leadingWhitespace(lines[i])
		if len(ws) > len(header) && strings.HasPrefix(ws, header) {
			return ws
		}
		break
	}
	if strings.Contains(header, "\t") {
		return header + "\t"
	}
	return header + indentUnit
}

// headerScanner tracks bracket depth and string state across the lines of
// a Python definition header.
type headerScanner struct {
	depth  int
	quote  byte // active string delimiter, 0 outside strings
	triple bool
}

func (s *headerScanner) open() bool {
	return s.depth > 0 || (s.quote != 0 && s.triple)
}

// scan consumes one line and returns it with any trailing comment and
// whitespace removed.
func (s *headerScanner) scan(line string) string {
	cut := len(line)
	for i := 0; i < len(line); i++ {
		c := line[i]
		if s.quote != 0 {
			switch {
			case c == '\\':
				i++
			case c == s.quote && !s.triple:
				s.quote = 0
			case c == s.quote && strings.HasPrefix(line[i:], strings.Repeat(string(c), 3)):
				s.quote, s.triple = 0, false
				i += 2
			}
			continue
		}
		switch c {
		case '#':
			cut = i
			i = len(line)
		case '"', '\'':
			s.quote = c
			s.triple = strings.HasPrefix(line[i:], strings.Repeat(string(c), 3))
			if s.triple {
				i += 2
			}
		case '(', '[', '{':
			s.depth++
		case ')', ']', '}':
			if s.depth > 0 {
				s.depth--
			}
		}
	}
	// Single-quoted strings cannot span lines.
	if s.quote != 0 && !s.triple {
		s.quote = 0
	}
	return strings.TrimRight(line[:cut], " \t")
}

// splitKeepEOL splits text into lines that keep their terminators.
func splitKeepEOL(text string) []string {
	if text == "" {
		return nil
	}
	lines := strings.SplitAfter(text, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func leadingWhitespace(line string) string {
	return line[:len(line)-len(strings.TrimLeft(line, " \t"))]
}

func insertAt(lines []string, at int, block string) []string {
	lines = append(lines, "")
	copy(lines[at+1:], lines[at:])
	lines[at] = block
	return lines
}
