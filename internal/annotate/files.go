package annotate

import (
	"context"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/julianshen/annotator/internal/git"
)

// defaultSkipDirs are never descended into when walking a directory.
var defaultSkipDirs = map[string]bool{
	"node_modules": true,
	".venv":        true,
	"venv":         true,
	"__pycache__":  true,
	".git":         true,
	"dist":         true,
	"build":        true,
}

// CollectFiles returns the supported source files for target as sorted
// absolute paths. target may be a single file or a directory. With staged
// set, only files staged in git are returned, limited to target; outside a
// repository that is an empty list.
func (a *Annotator) CollectFiles(ctx context.Context, target string, staged bool) ([]string, error) {
	abs, err := filepath.Abs(target)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", target, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("path does not exist: %s", target)
	}

	if staged {
		return a.stagedFiles(ctx, abs, info.IsDir())
	}

	if !info.IsDir() {
		if a.registry.Supported(abs) {
			return []string{abs}, nil
		}
		return nil, nil
	}

	var files []string
	err = filepath.WalkDir(abs, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			log.Printf("WARNING: skipping %s: %v", path, err)
			return nil
		}
		if d.IsDir() {
			if path != abs && a.skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if d.Type().IsRegular() && a.registry.Supported(path) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", target, err)
	}
	sort.Strings(files)
	return files, nil
}

func (a *Annotator) stagedFiles(ctx context.Context, target string, isDir bool) ([]string, error) {
	dir := target
	if !isDir {
		dir = filepath.Dir(target)
	}
	runner := git.NewRunner(dir)
	if !runner.IsRepo(ctx) {
		return nil, nil
	}
	staged, err := runner.StagedFiles(ctx, a.registry.Extensions())
	if err != nil {
		return nil, fmt.Errorf("listing staged files: %w", err)
	}

	// git reports paths under the resolved repository root.
	if resolved, err := filepath.EvalSymlinks(target); err == nil {
		target = resolved
	}

	var files []string
	for _, f := range staged {
		if f == target || (isDir && strings.HasPrefix(f, target+string(filepath.Separator))) {
			files = append(files, f)
		}
	}
	return files, nil
}
