package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gitCmd(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.Command("git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v failed: %s", args, string(out))
}

func initRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	gitCmd(t, dir, "init")
	gitCmd(t, dir, "config", "user.email", "test@test.com")
	gitCmd(t, dir, "config", "user.name", "Test")
	// Resolve symlinks (macOS /var -> /private/var) so paths compare equal.
	resolved, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)
	return resolved
}

func commitFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	gitCmd(t, dir, "add", name)
	gitCmd(t, dir, "commit", "-m", "add "+name)
}

func TestIsRepoAndRoot(t *testing.T) {
	dir := initRepo(t)
	sub := filepath.Join(dir, "pkg")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	r := NewRunner(sub)
	assert.True(t, r.IsRepo(context.Background()))
	root, err := r.RepoRoot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, dir, root)

	assert.False(t, NewRunner(t.TempDir()).IsRepo(context.Background()))
}

func TestStagedFiles(t *testing.T) {
	dir := initRepo(t)
	commitFile(t, dir, "seed.txt", "seed")

	for name, content := range map[string]string{
		"app/main.py":  "def f():\n    pass\n",
		"web/index.ts": "function g() {}\n",
		"README.md":    "# readme\n",
		"gone.js":      "function h() {}\n",
	} {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
		gitCmd(t, dir, "add", name)
	}
	require.NoError(t, os.Remove(filepath.Join(dir, "gone.js")))

	files, err := NewRunner(filepath.Join(dir, "app")).StagedFiles(context.Background(), []string{".py", ".ts", ".js"})
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "app", "main.py"),
		filepath.Join(dir, "web", "index.ts"),
	}, files)
}

func TestStagedFilesOutsideRepo(t *testing.T) {
	_, err := NewRunner(t.TempDir()).StagedFiles(context.Background(), []string{".py"})
	assert.Error(t, err)
}

func TestDiffAgainstHEAD(t *testing.T) {
	dir := initRepo(t)
	commitFile(t, dir, "app.py", "def f():\n    pass\n")
	path := filepath.Join(dir, "app.py")
	require.NoError(t, os.WriteFile(path, []byte("def f():\n    return 1\n"), 0o644))

	r := NewRunner(dir)
	diff, err := r.Diff(context.Background(), path, false)
	require.NoError(t, err)
	assert.Contains(t, diff, "+    return 1")

	cached, err := r.Diff(context.Background(), path, true)
	require.NoError(t, err)
	assert.Empty(t, cached)

	gitCmd(t, dir, "add", "app.py")
	cached, err = r.Diff(context.Background(), path, true)
	require.NoError(t, err)
	assert.Contains(t, cached, "+    return 1")
}

func TestDiffWithoutCommits(t *testing.T) {
	dir := initRepo(t)
	path := filepath.Join(dir, "new.py")
	require.NoError(t, os.WriteFile(path, []byte("def f():\n    pass\n"), 0o644))
	gitCmd(t, dir, "add", "new.py")

	diff, err := NewRunner(dir).Diff(context.Background(), path, true)
	require.NoError(t, err)
	assert.Contains(t, diff, "+def f():")
}

func TestDiffOutsideRepo(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "x.py")
	require.NoError(t, os.WriteFile(path, []byte("x = 1\n"), 0o644))

	diff, err := NewRunner(dir).Diff(context.Background(), path, false)
	require.NoError(t, err)
	assert.Empty(t, diff)
}

func TestAdd(t *testing.T) {
	dir := initRepo(t)
	commitFile(t, dir, "seed.txt", "seed")
	path := filepath.Join(dir, "doc.py")
	require.NoError(t, os.WriteFile(path, []byte("x = 1\n"), 0o644))

	r := NewRunner(dir)
	require.NoError(t, r.Add(context.Background(), path))
	files, err := r.StagedFiles(context.Background(), []string{".py"})
	require.NoError(t, err)
	assert.Equal(t, []string{path}, files)

	assert.NoError(t, r.Add(context.Background()))
}
