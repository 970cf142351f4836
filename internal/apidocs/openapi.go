package apidocs

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pmezard/go-difflib/difflib"
	"gopkg.in/yaml.v3"

	"github.com/julianshen/annotator/internal/symbol"
)

var (
	openAPIDirs  = []string{".", "docs", "api", "spec", "specs", "schema"}
	openAPINames = []string{
		"openapi.yaml", "openapi.yml", "openapi.json",
		"swagger.yaml", "swagger.yml", "swagger.json",
	}
)

// FindOpenAPI returns the first OpenAPI or Swagger file found in the usual
// locations under root, or "" when there is none.
func FindOpenAPI(root string) string {
	for _, dir := range openAPIDirs {
		for _, name := range openAPINames {
			candidate := filepath.Join(root, dir, name)
			if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
				return candidate
			}
		}
	}
	return ""
}

// UpdateOperation merges op into paths[path][method] of the spec at
// specPath and saves it. Keys of op replace existing keys; other existing
// keys are kept. Missing "paths" and path items are created.
func UpdateOperation(specPath, method, path string, op map[string]any) error {
	doc, err := loadDocument(specPath)
	if err != nil {
		return err
	}
	if _, err := mergeOperation(doc.root, method, path, op); err != nil {
		return fmt.Errorf("updating %s %s: %w", strings.ToUpper(method), path, err)
	}
	return doc.save(specPath)
}

// OperationDiff returns a unified diff between the current operation at
// paths[path][method] and the result of merging op into it, both rendered
// as JSON. The spec file is not modified.
func OperationDiff(specPath, method, path string, op map[string]any) (string, error) {
	doc, err := loadDocument(specPath)
	if err != nil {
		return "", err
	}

	key := symbol.NormalizePath(path)
	verb := strings.ToLower(method)

	current := []byte("{}")
	if existing := lookup(lookup(lookup(doc.root, "paths"), key), verb); existing != nil {
		if current, err = encodeJSON(existing); err != nil {
			return "", fmt.Errorf("encoding current operation: %w", err)
		}
	}

	merged, err := mergeOperation(doc.root, method, path, op)
	if err != nil {
		return "", err
	}
	proposed, err := encodeJSON(merged)
	if err != nil {
		return "", fmt.Errorf("encoding proposed operation: %w", err)
	}

	label := strings.ToUpper(verb) + " " + key
	return difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(string(current)),
		B:        difflib.SplitLines(string(proposed)),
		FromFile: "current " + label,
		ToFile:   "proposed " + label,
		Context:  3,
	})
}

// mergeOperation shallow-merges op into the operation node for method and
// path, creating the intermediate mappings, and returns that node.
func mergeOperation(root *yaml.Node, method, path string, op map[string]any) (*yaml.Node, error) {
	item := child(child(root, "paths"), symbol.NormalizePath(path))
	operation := child(item, strings.ToLower(method))

	keys := make([]string, 0, len(op))
	for k := range op {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		n, err := toNode(op[k])
		if err != nil {
			return nil, fmt.Errorf("encoding %q: %w", k, err)
		}
		set(operation, k, n)
	}
	return operation, nil
}
