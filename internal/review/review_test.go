package review

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianshen/annotator/internal/symbol"
)

// scriptedPrompter answers Choose from a fixed script.
type scriptedPrompter struct {
	choices  []Choice
	confirms []bool
	asked    int
}

func (s *scriptedPrompter) Choose(string) (Choice, error) {
	if s.asked >= len(s.choices) {
		return "", errors.New("unexpected prompt")
	}
	c := s.choices[s.asked]
	s.asked++
	return c, nil
}

func (s *scriptedPrompter) Confirm(string, bool) (bool, error) {
	if len(s.confirms) == 0 {
		return false, errors.New("unexpected confirm")
	}
	ok := s.confirms[0]
	s.confirms = s.confirms[1:]
	return ok, nil
}

const source = "def add(a, b):\n    return a + b\n\n\ndef sub(a, b):\n    return a - b\n\n\ndef mul(a, b):\n    return a * b\n"

var proposals = []symbol.DocProposal{
	{SymbolName: "add", Line: 1, Doc: `"""Add."""`},
	{SymbolName: "sub", Line: 5, Doc: `"""Subtract."""`},
	{SymbolName: "mul", Line: 9, Doc: `"""Multiply."""`},
}

func newPlain(t *testing.T, p Prompter, acceptAll bool) (*Reviewer, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	r, err := New(&out, p, Options{AcceptAll: acceptAll, Plain: true})
	require.NoError(t, err)
	return r, &out
}

func names(ps []symbol.DocProposal) []string {
	var out []string
	for _, p := range ps {
		out = append(out, p.SymbolName)
	}
	return out
}

func TestReviewYesNo(t *testing.T) {
	p := &scriptedPrompter{choices: []Choice{ChoiceYes, ChoiceNo, ChoiceYes}}
	r, out := newPlain(t, p, false)

	d, err := r.Review("calc.py", source, proposals, symbol.InlineDocString)
	require.NoError(t, err)
	assert.Equal(t, "calc.py", d.Path)
	assert.Equal(t, []string{"add", "mul"}, names(d.Accepted))
	assert.Equal(t, []string{"sub"}, names(d.Rejected))
	assert.Contains(t, out.String(), "3 proposals")
	assert.Contains(t, out.String(), `"""Subtract."""`)
}

func TestReviewShowDiffAsksAgain(t *testing.T) {
	p := &scriptedPrompter{choices: []Choice{ChoiceShowDiff, ChoiceYes}}
	r, out := newPlain(t, p, false)

	d, err := r.Review("calc.py", source, proposals[:1], symbol.InlineDocString)
	require.NoError(t, err)
	assert.Equal(t, 2, p.asked)
	assert.Len(t, d.Accepted, 1)
	assert.Contains(t, out.String(), "--- a/calc.py")
	assert.Contains(t, out.String(), `+    """Add."""`)
}

func TestReviewAcceptRemaining(t *testing.T) {
	p := &scriptedPrompter{choices: []Choice{ChoiceNo, ChoiceAll}}
	r, _ := newPlain(t, p, false)

	d, err := r.Review("calc.py", source, proposals, symbol.InlineDocString)
	require.NoError(t, err)
	assert.Equal(t, []string{"sub", "mul"}, names(d.Accepted))
	assert.Equal(t, []string{"add"}, names(d.Rejected))

	// "all" carries over to later files and confirmations.
	d, err = r.Review("other.py", source, proposals[:1], symbol.InlineDocString)
	require.NoError(t, err)
	assert.Len(t, d.Accepted, 1)
	ok, err := r.Confirm("Apply OpenAPI update?")
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReviewAcceptAllNeverPrompts(t *testing.T) {
	r, out := newPlain(t, &scriptedPrompter{}, true)

	d, err := r.Review("calc.py", source, proposals, symbol.InlineDocString)
	require.NoError(t, err)
	assert.Len(t, d.Accepted, 3)
	assert.Empty(t, d.Rejected)
	assert.Contains(t, out.String(), "Auto-accepted (--all)")
}

func TestReviewShowsEndpointAndOpenAPI(t *testing.T) {
	r, out := newPlain(t, &scriptedPrompter{}, true)
	p := symbol.DocProposal{
		SymbolName: "listUsers",
		Line:       3,
		Doc:        "/** List users. */",
		Endpoint:   &symbol.Endpoint{Method: "GET", Path: "/users"},
		OpenAPI:    map[string]any{"summary": "List users"},
	}
	_, err := r.Review("app.ts", "x\ny\nfunction listUsers() {}\n", []symbol.DocProposal{p}, symbol.LeadingComment)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "GET /users")
	assert.Contains(t, out.String(), "OpenAPI snippet:")
	assert.Contains(t, out.String(), `"summary": "List users"`)
}

func TestReviewPromptError(t *testing.T) {
	r, _ := newPlain(t, &scriptedPrompter{}, false)
	_, err := r.Review("calc.py", source, proposals, symbol.InlineDocString)
	assert.Error(t, err)
}

func TestReviewNoProposals(t *testing.T) {
	r, out := newPlain(t, &scriptedPrompter{}, false)
	d, err := r.Review("calc.py", source, nil, symbol.InlineDocString)
	require.NoError(t, err)
	assert.Empty(t, d.Accepted)
	assert.Empty(t, out.String())
}

func TestReviewRendered(t *testing.T) {
	var out bytes.Buffer
	r, err := New(&out, &scriptedPrompter{}, Options{AcceptAll: true, Width: 80})
	require.NoError(t, err)

	_, err = r.Review("calc.py", source, proposals[:1], symbol.InlineDocString)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "Add")
}

func TestConfirmAsksPrompter(t *testing.T) {
	r, _ := newPlain(t, &scriptedPrompter{confirms: []bool{false}}, false)
	ok, err := r.Confirm("Apply?")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestDiff(t *testing.T) {
	assert.Empty(t, Diff("x.py", "a\n", "a\n"))
	d := Diff("dir/x.py", "a\n", "a\nb\n")
	assert.Contains(t, d, "--- a/x.py")
	assert.Contains(t, d, "+++ b/x.py")
	assert.Contains(t, d, "+b")
}
