package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// LoadStyleGuide reads the project's doc style notes (name, usually
// ANNOTATOR.md) from root. A missing or blank file yields "".
func LoadStyleGuide(root, name string) (string, error) {
	if name == "" {
		return "", nil
	}
	data, err := os.ReadFile(filepath.Join(root, name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil
		}
		return "", err
	}
	if strings.TrimSpace(string(data)) == "" {
		return "", nil
	}
	return string(data), nil
}
