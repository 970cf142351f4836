// Package apidocs mirrors accepted endpoint documentation into API
// description files: OpenAPI/Swagger specs (YAML or JSON) and Postman
// collections. Files are edited as yaml.v3 node trees so key order and
// YAML comments survive a merge.
package apidocs

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/julianshen/annotator/internal/fileutil"
)

// document is a parsed API file together with the format it is written back in.
type document struct {
	root *yaml.Node // always a mapping node
	doc  *yaml.Node // the enclosing document node
	json bool
}

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// loadDocument reads path into a node tree. An empty file yields an empty
// mapping.
func loadDocument(path string) (*document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		doc = yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{newMapping()}}
	}
	root := doc.Content[0]
	if root.Kind != yaml.MappingNode {
		return nil, fmt.Errorf("parsing %s: top level is not an object", path)
	}
	return &document{root: root, doc: &doc, json: isJSON(path)}, nil
}

// save writes the document back to path in its original format.
func (d *document) save(path string) error {
	var out []byte
	if d.json {
		b, err := encodeJSON(d.root)
		if err != nil {
			return fmt.Errorf("encoding %s: %w", path, err)
		}
		out = append(b, '\n')
	} else {
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(d.doc); err != nil {
			return fmt.Errorf("encoding %s: %w", path, err)
		}
		if err := enc.Close(); err != nil {
			return fmt.Errorf("encoding %s: %w", path, err)
		}
		out = buf.Bytes()
	}
	if err := fileutil.WriteAtomic(path, out); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}
	return nil
}

func newMapping() *yaml.Node {
	return &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
}

func newSequence() *yaml.Node {
	return &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
}

func newString(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

// toNode converts a decoded JSON value into a node.
func toNode(v any) (*yaml.Node, error) {
	var n yaml.Node
	if err := n.Encode(v); err != nil {
		return nil, err
	}
	return &n, nil
}

// lookup returns the value stored under key in mapping m, or nil.
func lookup(m *yaml.Node, key string) *yaml.Node {
	if m == nil || m.Kind != yaml.MappingNode {
		return nil
	}
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return resolve(m.Content[i+1])
		}
	}
	return nil
}

// set stores val under key, replacing an existing value in place or
// appending a new pair. A flow mapping such as "paths: {}" is switched to
// block style once it has children.
func set(m *yaml.Node, key string, val *yaml.Node) {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			m.Content[i+1] = val
			return
		}
	}
	if m.Style&yaml.FlowStyle != 0 {
		m.Style = 0
	}
	m.Content = append(m.Content, newString(key), val)
}

// child returns the mapping stored under key, creating it when missing or
// when the existing value is not a mapping (e.g. a null "paths:").
func child(m *yaml.Node, key string) *yaml.Node {
	if c := lookup(m, key); c != nil && c.Kind == yaml.MappingNode {
		return c
	}
	c := newMapping()
	set(m, key, c)
	return c
}

func resolve(n *yaml.Node) *yaml.Node {
	for n != nil && n.Kind == yaml.AliasNode {
		n = n.Alias
	}
	return n
}

// scalarString returns the value of a scalar node, or "".
func scalarString(n *yaml.Node) string {
	if n = resolve(n); n == nil || n.Kind != yaml.ScalarNode {
		return ""
	}
	return n.Value
}

// encodeJSON renders a node tree as indented JSON, keeping mapping order.
func encodeJSON(n *yaml.Node) ([]byte, error) {
	var compact bytes.Buffer
	if err := writeJSON(&compact, n); err != nil {
		return nil, err
	}
	var out bytes.Buffer
	if err := json.Indent(&out, compact.Bytes(), "", "  "); err != nil {
		return nil, err
	}
	return out.Bytes(), nil
}

func writeJSON(buf *bytes.Buffer, n *yaml.Node) error {
	n = resolve(n)
	if n == nil {
		buf.WriteString("null")
		return nil
	}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			buf.WriteString("null")
			return nil
		}
		return writeJSON(buf, n.Content[0])
	case yaml.MappingNode:
		buf.WriteByte('{')
		for i := 0; i+1 < len(n.Content); i += 2 {
			if i > 0 {
				buf.WriteByte(',')
			}
			writeString(buf, n.Content[i].Value)
			buf.WriteByte(':')
			if err := writeJSON(buf, n.Content[i+1]); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	case yaml.SequenceNode:
		buf.WriteByte('[')
		for i, c := range n.Content {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := writeJSON(buf, c); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case yaml.ScalarNode:
		return writeScalar(buf, n)
	default:
		return fmt.Errorf("unsupported node kind %d", n.Kind)
	}
	return nil
}

func writeScalar(buf *bytes.Buffer, n *yaml.Node) error {
	switch n.ShortTag() {
	case "!!null":
		buf.WriteString("null")
	case "!!bool", "!!int", "!!float":
		if json.Valid([]byte(n.Value)) {
			buf.WriteString(n.Value)
			return nil
		}
		// YAML spellings such as "0x1F" or ".inf" are re-decoded.
		var v any
		if err := n.Decode(&v); err != nil {
			return err
		}
		b, err := json.Marshal(v)
		if err != nil {
			return fmt.Errorf("line %d: %w", n.Line, err)
		}
		buf.Write(b)
	default:
		writeString(buf, n.Value)
	}
	return nil
}

func writeString(buf *bytes.Buffer, s string) {
	var b bytes.Buffer
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	_ = enc.Encode(s)
	buf.Write(bytes.TrimRight(b.Bytes(), "\n"))
}
