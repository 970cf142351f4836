package annotate

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianshen/annotator/internal/config"
	"github.com/julianshen/annotator/internal/generate"
	"github.com/julianshen/annotator/internal/symbol"
)

// docAllGenerator proposes a one-line doc for every symbol it is given.
type docAllGenerator struct {
	mu   sync.Mutex
	reqs []generate.Request
	fail map[string]error
}

func (g *docAllGenerator) Generate(_ context.Context, req generate.Request) (*generate.Result, error) {
	g.mu.Lock()
	g.reqs = append(g.reqs, req)
	g.mu.Unlock()
	if err := g.fail[filepath.Base(req.Path)]; err != nil {
		return nil, err
	}

	res := &generate.Result{InputTokens: 10, OutputTokens: 5}
	for _, s := range req.Symbols {
		doc := `"""Document ` + s.Name + `."""`
		if req.Language == "typescript" {
			doc = "/** Document " + s.Name + ". */"
		}
		res.Proposals = append(res.Proposals, symbol.DocProposal{SymbolName: s.Name, Line: s.Line, Doc: doc})
	}
	return res, nil
}

func write(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const pySource = `import os


def add(a, b):
    return a + b


class Greeter:
    def greet(self, name):
        return "hi " + name
`

func TestAnalyze(t *testing.T) {
	path := write(t, filepath.Join(t.TempDir(), "calc.py"), pySource)
	a := New(nil, nil, Options{})

	res, err := a.Analyze(path)
	require.NoError(t, err)
	assert.Equal(t, "python", res.Language)
	assert.Equal(t, symbol.InlineDocString, res.Family)
	require.Len(t, res.Symbols, 2)
	assert.Equal(t, "add", res.Symbols[0].Name)
	assert.Equal(t, 4, res.Symbols[0].Line)
	assert.Equal(t, "greet", res.Symbols[1].Name)

	_, err = a.Analyze(filepath.Join(t.TempDir(), "main.go"))
	assert.ErrorContains(t, err, "unsupported")
	_, err = a.Analyze(filepath.Join(t.TempDir(), "missing.py"))
	assert.Error(t, err)
}

func TestProposeAndApplyRoundTrip(t *testing.T) {
	path := write(t, filepath.Join(t.TempDir(), "calc.py"), pySource)
	gen := &docAllGenerator{}
	a := New(nil, gen, Options{})

	res, err := a.Propose(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, res.Proposals, 2)
	assert.Equal(t, 10, res.InputTokens)
	require.Len(t, gen.reqs, 1)
	assert.Equal(t, pySource, gen.reqs[0].Source)

	applied, err := a.Apply(path, res.Proposals)
	require.NoError(t, err)
	assert.Len(t, applied, 2)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, `import os


def add(a, b):
    """Document add."""
    return a + b


class Greeter:
    def greet(self, name):
        """Document greet."""
        return "hi " + name
`, string(data))

	// Everything is documented now.
	again, err := a.Analyze(path)
	require.NoError(t, err)
	assert.Empty(t, again.Symbols)
}

func TestProposeNoSymbolsSkipsGenerator(t *testing.T) {
	path := write(t, filepath.Join(t.TempDir(), "done.py"), "def f():\n    \"\"\"Done.\"\"\"\n")
	gen := &docAllGenerator{}
	res, err := New(nil, gen, Options{}).Propose(context.Background(), path)
	require.NoError(t, err)
	assert.Empty(t, res.Proposals)
	assert.Empty(t, gen.reqs)
}

func TestProposeIncludesGitDiff(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	for _, args := range [][]string{
		{"init"},
		{"config", "user.email", "test@test.com"},
		{"config", "user.name", "Test"},
	} {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		out, err := cmd.CombinedOutput()
		require.NoError(t, err, string(out))
	}
	path := write(t, filepath.Join(dir, "calc.py"), "def add(a, b):\n    return a + b\n")
	cmd := exec.Command("git", "add", "calc.py")
	cmd.Dir = dir
	require.NoError(t, cmd.Run())

	gen := &docAllGenerator{}
	_, err := New(nil, gen, Options{Staged: true}).Propose(context.Background(), path)
	require.NoError(t, err)
	require.Len(t, gen.reqs, 1)
	assert.Contains(t, gen.reqs[0].Diff, "+def add(a, b):")
}

func TestProposeAllKeepsOrderAndIsolatesFailures(t *testing.T) {
	dir := t.TempDir()
	var files []string
	for _, name := range []string{"a.py", "b.py", "c.ts", "d.py"} {
		content := "def " + strings.TrimSuffix(name, ".py") + "_fn():\n    pass\n"
		if strings.HasSuffix(name, ".ts") {
			content = "export function cFn() {}\n"
		}
		files = append(files, write(t, filepath.Join(dir, name), content))
	}
	gen := &docAllGenerator{fail: map[string]error{"b.py": errors.New("API error 529")}}

	results := New(nil, gen, Options{Concurrency: 3}).ProposeAll(context.Background(), files)
	require.Len(t, results, 4)
	for i, r := range results {
		assert.Equal(t, files[i], r.Path)
	}
	assert.NoError(t, results[0].Err)
	assert.ErrorContains(t, results[1].Err, "529")
	assert.NoError(t, results[2].Err)
	assert.Equal(t, "/** Document cFn. */", results[2].Proposals[0].Doc)
	assert.Len(t, results[3].Proposals, 1)
}

func TestApplyReanchorsAfterEdits(t *testing.T) {
	path := write(t, filepath.Join(t.TempDir(), "app.ts"), "function a() {}\n\nfunction b() {}\n")
	a := New(nil, nil, Options{})
	proposals := []symbol.DocProposal{
		{SymbolName: "a", Line: 1, Doc: "/** A. */"},
		{SymbolName: "b", Line: 3, Doc: "/** B. */"},
		{SymbolName: "gone", Line: 5, Doc: "/** Gone. */"},
	}

	// The file gains two lines before the proposals are applied.
	write(t, path, "// header\n\nfunction a() {}\n\nfunction b() {}\n")

	applied, err := a.Apply(path, proposals)
	require.NoError(t, err)
	require.Len(t, applied, 2)
	assert.Equal(t, "a", applied[0].SymbolName)
	assert.Equal(t, 3, applied[0].Line)
	assert.Equal(t, "b", applied[1].SymbolName)
	assert.Equal(t, 5, applied[1].Line)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "// header\n\n/** A. */\nfunction a() {}\n\n/** B. */\nfunction b() {}\n", string(data))
}

func TestApplyNothingAccepted(t *testing.T) {
	path := write(t, filepath.Join(t.TempDir(), "x.py"), pySource)
	applied, err := New(nil, nil, Options{}).Apply(path, nil)
	require.NoError(t, err)
	assert.Empty(t, applied)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, pySource, string(data))
}

func TestPatternConfig(t *testing.T) {
	pc := PatternConfig(config.AnalyzerConfig{CallWindow: 3})
	assert.Equal(t, 3, pc.CallWindow)
	assert.Equal(t, 5, pc.DecoratorWindow)
	assert.Equal(t, 20, pc.DocLookback)
	assert.Equal(t, 30, pc.ContextLines)
}

func TestOptionsFromConfig(t *testing.T) {
	opts := OptionsFromConfig(config.AnnotateConfig{Concurrency: 8, ExcludeDirs: []string{"gen"}}, true)
	assert.Equal(t, Options{Concurrency: 8, ExcludeDirs: []string{"gen"}, Staged: true}, opts)
}
