package analyzer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistryForFile(t *testing.T) {
	r := Default()

	a, ok := r.ForFile("app/main.py")
	require.True(t, ok)
	assert.Equal(t, "python", a.Language())

	for _, path := range []string{"src/server.ts", "lib/util.js"} {
		a, ok := r.ForFile(path)
		require.True(t, ok, path)
		assert.Equal(t, "typescript", a.Language())
	}

	_, ok = r.ForFile("main.go")
	assert.False(t, ok)
	assert.False(t, r.Supported("README.md"))
}

func TestRegistryExtensions(t *testing.T) {
	assert.Equal(t, []string{".js", ".py", ".ts"}, Default().Extensions())
}

func TestNewRegistryUsesPatternConfig(t *testing.T) {
	cfg := DefaultPatternConfig()
	cfg.CallWindow = 4
	r := NewRegistry(cfg)

	a, ok := r.ForFile("x.ts")
	require.True(t, ok)
	ts, ok := a.(*TypeScript)
	require.True(t, ok)
	assert.Equal(t, 4, ts.cfg.CallWindow)
}
