package apidocs

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

const postmanSuffix = ".postman_collection.json"

var postmanDirs = []string{"postman", "collections", "api"}

// FindPostman returns a Postman collection under root, or "" when there is
// none. A *.postman_collection.json file in root wins; otherwise the first
// JSON file in postman/, collections/ or api/ whose name mentions
// "postman" or "collection" is used.
func FindPostman(root string) string {
	if matches, _ := filepath.Glob(filepath.Join(root, "*"+postmanSuffix)); len(matches) > 0 {
		sort.Strings(matches)
		return matches[0]
	}
	for _, dir := range postmanDirs {
		matches, _ := filepath.Glob(filepath.Join(root, dir, "*.json"))
		sort.Strings(matches)
		for _, m := range matches {
			name := strings.ToLower(filepath.Base(m))
			if strings.Contains(name, "postman") || strings.Contains(name, "collection") {
				return m
			}
		}
	}
	return ""
}

// RequestUpdate describes one endpoint to mirror into a collection.
type RequestUpdate struct {
	Name        string
	Method      string
	Path        string
	Description string
	// Item, when set, is a complete Postman item. It is merged over an
	// existing item or added as is.
	Item map[string]any
}

// UpdateRequest adds or updates the request for u.Method and u.Path in the
// collection at path. An existing request is found by method and by its URL
// containing u.Path, searching folders recursively. A new item is appended
// at the top level with a fresh id.
func UpdateRequest(path string, u RequestUpdate) error {
	doc, err := loadDocument(path)
	if err != nil {
		return err
	}

	items := lookup(doc.root, "item")
	if items == nil || items.Kind != yaml.SequenceNode {
		items = newSequence()
		set(doc.root, "item", items)
	}

	if existing := findRequest(items, u.Method, u.Path); existing != nil {
		if u.Description != "" {
			if req := lookup(existing, "request"); req != nil && req.Kind == yaml.MappingNode {
				set(req, "description", newString(u.Description))
			}
		}
		if err := mergeInto(existing, u.Item); err != nil {
			return err
		}
		return doc.save(path)
	}

	fresh := u.Item
	if len(fresh) == 0 {
		fresh = buildItem(u)
	}
	node, err := toNode(fresh)
	if err != nil {
		return err
	}
	if lookup(node, "id") == nil {
		set(node, "id", newString(uuid.NewString()))
	}
	items.Content = append(items.Content, node)
	if items.Style&yaml.FlowStyle != 0 {
		items.Style = 0
	}
	return doc.save(path)
}

// findRequest walks items depth first, descending into folders before
// looking at an entry's own request.
func findRequest(items *yaml.Node, method, urlPath string) *yaml.Node {
	if items == nil || items.Kind != yaml.SequenceNode {
		return nil
	}
	for _, item := range items.Content {
		item = resolve(item)
		if item.Kind != yaml.MappingNode {
			continue
		}
		if found := findRequest(lookup(item, "item"), method, urlPath); found != nil {
			return found
		}
		req := lookup(item, "request")
		if req == nil || req.Kind != yaml.MappingNode {
			continue
		}
		if !strings.EqualFold(scalarString(lookup(req, "method")), method) {
			continue
		}
		if strings.Contains(rawURL(lookup(req, "url")), urlPath) {
			return item
		}
	}
	return nil
}

// rawURL returns a request URL given either as a string or as a URL
// object with a "raw" field.
func rawURL(n *yaml.Node) string {
	if n == nil {
		return ""
	}
	if n.Kind == yaml.MappingNode {
		return scalarString(lookup(n, "raw"))
	}
	return scalarString(n)
}

func mergeInto(m *yaml.Node, values map[string]any) error {
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		n, err := toNode(values[k])
		if err != nil {
			return err
		}
		set(m, k, n)
	}
	return nil
}

// buildItem returns a minimal request item whose URL is relative to the
// collection's {{base_url}} variable.
func buildItem(u RequestUpdate) map[string]any {
	segments := []any{}
	for _, s := range strings.Split(u.Path, "/") {
		if s != "" {
			segments = append(segments, s)
		}
	}
	return map[string]any{
		"name": u.Name,
		"request": map[string]any{
			"method": strings.ToUpper(u.Method),
			"header": []any{},
			"url": map[string]any{
				"raw":  "{{base_url}}" + u.Path,
				"host": []any{"{{base_url}}"},
				"path": segments,
			},
			"description": u.Description,
		},
		"response": []any{},
	}
}

// Summary returns the first prose line of a doc block, without docstring
// quotes or comment markers. It is used as a short request description.
func Summary(doc string) string {
	for _, line := range strings.Split(doc, "\n") {
		line = strings.TrimSpace(line)
		for _, p := range []string{`"""`, `'''`, "/**", "*/", "*"} {
			line = strings.TrimSpace(strings.TrimPrefix(line, p))
		}
		line = strings.TrimSpace(strings.TrimSuffix(strings.TrimSuffix(line, `"""`), "*/"))
		line = strings.TrimSpace(strings.TrimSuffix(line, `'''`))
		if line != "" && !strings.HasPrefix(line, "@") {
			return line
		}
	}
	return ""
}
