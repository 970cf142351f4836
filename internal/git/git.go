// Package git wraps the git command line for the few queries the annotator
// needs: staged files, per-file diffs and staging of rewritten files.
package git

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// Runner executes git commands in a directory.
type Runner struct {
	workDir string
}

// NewRunner creates a Runner for the given directory.
func NewRunner(workDir string) *Runner {
	return &Runner{workDir: workDir}
}

// IsRepo reports whether the working directory is inside a git work tree.
func (g *Runner) IsRepo(ctx context.Context) bool {
	out, err := g.run(ctx, "rev-parse", "--is-inside-work-tree")
	return err == nil && strings.TrimSpace(out) == "true"
}

// RepoRoot returns the absolute top-level directory of the repository.
func (g *Runner) RepoRoot(ctx context.Context) (string, error) {
	out, err := g.run(ctx, "rev-parse", "--show-toplevel")
	if err != nil {
		return "", err
	}
	return filepath.Clean(strings.TrimSpace(out)), nil
}

// StagedFiles returns absolute paths of files added, copied or modified in
// the index whose extension is in exts. Files deleted from the work tree
// since staging are left out. The result is sorted.
func (g *Runner) StagedFiles(ctx context.Context, exts []string) ([]string, error) {
	root, err := g.RepoRoot(ctx)
	if err != nil {
		return nil, err
	}
	out, err := g.run(ctx, "-C", root, "diff", "--cached", "--name-only", "--diff-filter=ACM", "-z")
	if err != nil {
		return nil, err
	}

	want := make(map[string]bool, len(exts))
	for _, e := range exts {
		want[e] = true
	}

	var files []string
	for _, name := range strings.Split(out, "\x00") {
		if name == "" || !want[filepath.Ext(name)] {
			continue
		}
		path := filepath.Join(root, filepath.FromSlash(name))
		if _, err := os.Stat(path); err != nil {
			continue
		}
		files = append(files, path)
	}
	sort.Strings(files)
	return files, nil
}

// Diff returns the diff of path against HEAD, or of the index against HEAD
// when cached is set. In a repository without commits it falls back to a
// diff without HEAD. Paths outside a repository yield "".
func (g *Runner) Diff(ctx context.Context, path string, cached bool) (string, error) {
	dir := filepath.Dir(path)
	if !NewRunner(dir).IsRepo(ctx) {
		return "", nil
	}

	args := []string{"-C", dir, "diff"}
	if cached {
		args = append(args, "--cached")
	}
	out, err := g.run(ctx, append(args, "HEAD", "--", path)...)
	if err == nil {
		return out, nil
	}
	// HEAD does not exist yet.
	return g.run(ctx, append(args, "--", path)...)
}

// Add stages the given paths.
func (g *Runner) Add(ctx context.Context, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	_, err := g.run(ctx, append([]string{"add", "--"}, paths...)...)
	return err
}

func (g *Runner) run(ctx context.Context, args ...string) (string, error) {
	if len(args) == 0 {
		return "", fmt.Errorf("git: no subcommand provided")
	}
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = g.workDir
	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return "", fmt.Errorf("git %s: %s", subcommand(args), strings.TrimSpace(string(exitErr.Stderr)))
		}
		return "", fmt.Errorf("git %s: %w", subcommand(args), err)
	}
	return string(out), nil
}

// subcommand skips a leading "-C dir" pair for error messages.
func subcommand(args []string) string {
	if len(args) > 2 && args[0] == "-C" {
		return args[2]
	}
	return args[0]
}
