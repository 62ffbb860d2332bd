package config

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/reploy-cli/reploy/internal/errors"
)

// Document is a configuration file opened for editing. Edits replace or
// extend single keys; everything else keeps its order and, in YAML files,
// its comments. Comments in JSON files are dropped on save.
type Document struct {
	path string
	doc  *yaml.Node
	root *yaml.Node
}

// NewDocument starts an empty document that Save writes to path.
func NewDocument(path string) *Document {
	root := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	return &Document{
		path: path,
		doc:  &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{root}},
		root: root,
	}
}

// OpenDocument reads the configuration file at path for editing.
func OpenDocument(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("config file", path).WithCause(err)
		}
		return nil, errors.Wrapf(err, "reading config %s", path)
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return NewDocument(path), nil
	}

	var root *yaml.Node
	doc := &yaml.Node{Kind: yaml.DocumentNode}
	if configType(path) == "json" {
		root, err = decodeJSONNode(jsonc.ToJSON(data))
		doc.Content = []*yaml.Node{root}
	} else {
		err = yaml.Unmarshal(data, doc)
		if err == nil && len(doc.Content) > 0 {
			root = doc.Content[0]
		}
	}
	if err != nil {
		return nil, errors.Wrapf(err, "parsing config %s", path)
	}
	if root == nil || root.Kind != yaml.MappingNode {
		return nil, errors.Wrapf(errors.ErrInvalidConfig, "%s: top level is not a mapping", path)
	}
	return &Document{path: path, doc: doc, root: root}, nil
}

// Path returns the file the document is saved to.
func (d *Document) Path() string {
	return d.path
}

// Get decodes key of workspace into out and reports whether the key exists.
// An empty workspace addresses the top level.
func (d *Document) Get(workspace, key string, out any) (bool, error) {
	scope := d.scope(workspace, false)
	if scope == nil {
		return false, nil
	}
	value := lookup(scope, key)
	if value == nil {
		return false, nil
	}
	if err := value.Decode(out); err != nil {
		return true, errors.Wrapf(err, "decoding %s", key)
	}
	return true, nil
}

// Set replaces key of workspace with value, adding the key (and the
// workspace) when missing.
func (d *Document) Set(workspace, key string, value any) error {
	var n yaml.Node
	if err := n.Encode(value); err != nil {
		return errors.Wrapf(err, "encoding %s", key)
	}
	scope := d.scope(workspace, true)
	if existing := lookup(scope, key); existing != nil {
		*existing = n
		return nil
	}
	scope.Content = append(scope.Content, scalarNode("!!str", key), &n)
	return nil
}

// Append adds values to the end of the list at key of workspace.
func (d *Document) Append(workspace, key string, values ...any) error {
	scope := d.scope(workspace, true)
	list := lookup(scope, key)
	if list == nil {
		return d.Set(workspace, key, values)
	}
	if list.Kind != yaml.SequenceNode {
		return errors.NewValidationError("not a list").WithField(key)
	}
	for _, v := range values {
		var n yaml.Node
		if err := n.Encode(v); err != nil {
			return errors.Wrapf(err, "encoding %s", key)
		}
		list.Content = append(list.Content, &n)
	}
	// A list that started empty was written inline as [].
	list.Style &^= yaml.FlowStyle
	return nil
}

// MoveRepo moves the repos entry called name from workspace from to the end
// of workspace to's repos, keeping the entry as written apart from its path,
// which is replaced when path is not empty. It reports whether the entry was
// found.
func (d *Document) MoveRepo(name, from, to, path string) (bool, error) {
	src := d.scope(from, false)
	if src == nil {
		return false, nil
	}
	list := lookup(src, "repos")
	if list == nil || list.Kind != yaml.SequenceNode {
		return false, nil
	}

	idx := -1
	for i, item := range list.Content {
		if item.Kind != yaml.MappingNode {
			continue
		}
		if n := lookup(item, "name"); n != nil && strings.EqualFold(n.Value, name) {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}
	entry := list.Content[idx]

	dst := d.scope(to, true)
	target := lookup(dst, "repos")
	if target == nil {
		target = &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		dst.Content = append(dst.Content, scalarNode("!!str", "repos"), target)
	}
	if target.Kind != yaml.SequenceNode {
		return false, errors.NewValidationError("not a list").WithField("repos")
	}

	if path != "" {
		if p := lookup(entry, "path"); p != nil {
			*p = *scalarNode("!!str", path)
		} else {
			entry.Content = append(entry.Content, scalarNode("!!str", "path"), scalarNode("!!str", path))
		}
	}
	list.Content = append(list.Content[:idx], list.Content[idx+1:]...)
	target.Content = append(target.Content, entry)
	target.Style &^= yaml.FlowStyle
	return true, nil
}

// Save writes the document back to its path, replacing the file atomically.
func (d *Document) Save() error {
	var data []byte
	if configType(d.path) == "json" {
		var buf bytes.Buffer
		if err := encodeJSONNode(&buf, d.root); err != nil {
			return errors.Wrap(err, "encoding config")
		}
		var out bytes.Buffer
		if err := json.Indent(&out, buf.Bytes(), "", "  "); err != nil {
			return errors.Wrap(err, "encoding config")
		}
		out.WriteByte('\n')
		data = out.Bytes()
	} else {
		var out bytes.Buffer
		enc := yaml.NewEncoder(&out)
		enc.SetIndent(2)
		if err := enc.Encode(d.doc); err != nil {
			return errors.Wrap(err, "encoding config")
		}
		if err := enc.Close(); err != nil {
			return errors.Wrap(err, "encoding config")
		}
		data = out.Bytes()
	}

	if err := os.MkdirAll(filepath.Dir(d.path), 0755); err != nil {
		return errors.Wrap(err, "creating config directory")
	}
	tmp := d.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return errors.Wrap(err, "writing config")
	}
	if err := os.Rename(tmp, d.path); err != nil {
		_ = os.Remove(tmp)
		return errors.Wrap(err, "writing config")
	}
	return nil
}

// scope returns the mapping holding workspace's keys. Workspace names match
// case-insensitively.
func (d *Document) scope(workspace string, create bool) *yaml.Node {
	if workspace == "" {
		return d.root
	}
	workspaces := lookup(d.root, "workspaces")
	if workspaces == nil || workspaces.Kind != yaml.MappingNode {
		if !create {
			return nil
		}
		if workspaces == nil {
			workspaces = &yaml.Node{}
			d.root.Content = append(d.root.Content, scalarNode("!!str", "workspaces"), workspaces)
		}
		*workspaces = yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	}
	for i := 0; i+1 < len(workspaces.Content); i += 2 {
		if strings.EqualFold(workspaces.Content[i].Value, workspace) {
			return workspaces.Content[i+1]
		}
	}
	if !create {
		return nil
	}
	ws := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
	workspaces.Content = append(workspaces.Content, scalarNode("!!str", workspace), ws)
	return ws
}

func lookup(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

func scalarNode(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

// decodeJSONNode builds a node tree from JSON, keeping object key order.
func decodeJSONNode(data []byte) (*yaml.Node, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	n, err := readJSONNode(dec)
	if err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after the top-level value")
	}
	return n, nil
}

func readJSONNode(dec *json.Decoder) (*yaml.Node, error) {
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch t := tok.(type) {
	case json.Delim:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		if t == '{' {
			n = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		}
		for dec.More() {
			if n.Kind == yaml.MappingNode {
				key, err := dec.Token()
				if err != nil {
					return nil, err
				}
				name, _ := key.(string)
				n.Content = append(n.Content, scalarNode("!!str", name))
			}
			child, err := readJSONNode(dec)
			if err != nil {
				return nil, err
			}
			n.Content = append(n.Content, child)
		}
		// Closing delimiter.
		if _, err := dec.Token(); err != nil {
			return nil, err
		}
		return n, nil
	case string:
		return scalarNode("!!str", t), nil
	case json.Number:
		if strings.ContainsAny(t.String(), ".eE") {
			return scalarNode("!!float", t.String()), nil
		}
		return scalarNode("!!int", t.String()), nil
	case bool:
		return scalarNode("!!bool", strconv.FormatBool(t)), nil
	default:
		return scalarNode("!!null", "null"), nil
	}
}

// encodeJSONNode writes n as compact JSON.
func encodeJSONNode(w *bytes.Buffer, n *yaml.Node) error {
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			w.WriteString("null")
			return nil
		}
		return encodeJSONNode(w, n.Content[0])
	case yaml.AliasNode:
		return encodeJSONNode(w, n.Alias)
	case yaml.MappingNode:
		w.WriteByte('{')
		for i := 0; i+1 < len(n.Content); i += 2 {
			if i > 0 {
				w.WriteByte(',')
			}
			key, err := json.Marshal(n.Content[i].Value)
			if err != nil {
				return err
			}
			w.Write(key)
			w.WriteByte(':')
			if err := encodeJSONNode(w, n.Content[i+1]); err != nil {
				return err
			}
		}
		w.WriteByte('}')
		return nil
	case yaml.SequenceNode:
		w.WriteByte('[')
		for i, child := range n.Content {
			if i > 0 {
				w.WriteByte(',')
			}
			if err := encodeJSONNode(w, child); err != nil {
				return err
			}
		}
		w.WriteByte(']')
		return nil
	default:
		var v any
		if err := n.Decode(&v); err != nil {
			return err
		}
		data, err := json.Marshal(v)
		if err != nil {
			return err
		}
		w.Write(data)
		return nil
	}
}
