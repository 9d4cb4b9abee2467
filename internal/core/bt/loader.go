package bt

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"
)

// Document describes a tree by node name. Keys names the application
// Blackboard keys that task parameters may refer to.
type Document struct {
	Root  string             `json:"root" yaml:"root"`
	Keys  map[string]Key     `json:"keys,omitempty" yaml:"keys,omitempty"`
	Nodes map[string]DocNode `json:"nodes" yaml:"nodes"`
}

type DocNode struct {
	Type     string         `json:"type" yaml:"type"`
	Children []string       `json:"children,omitempty" yaml:"children,omitempty"`
	Child    string         `json:"child,omitempty" yaml:"child,omitempty"`
	Task     string         `json:"task,omitempty" yaml:"task,omitempty"`
	Count    int            `json:"count,omitempty" yaml:"count,omitempty"`
	Params   map[string]any `json:"params,omitempty" yaml:"params,omitempty"`
}

// LoadJSON decodes a Document from JSON.
func LoadJSON(r io.Reader) (*Document, error) {
	var d Document
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("decode tree document: %w", err)
	}
	return &d, nil
}

// LoadYAML decodes a Document from YAML.
func LoadYAML(r io.Reader) (*Document, error) {
	var d Document
	if err := yaml.NewDecoder(r).Decode(&d); err != nil {
		return nil, fmt.Errorf("decode tree document: %w", err)
	}
	return &d, nil
}

// Key resolves an application key name.
func (d *Document) Key(name string) (Key, error) {
	k, ok := d.Keys[name]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrUnknownKey, name)
	}
	return k, nil
}

func normalizeType(t string) string {
	return strings.ReplaceAll(strings.ToLower(strings.TrimSpace(t)), "-", "_")
}

// Build creates the Tree described by d, instantiating tasks through reg.
// Every node must be reachable from Root and used at most once.
func (d *Document) Build(reg *Registry, opts ...BuilderOption) (*Tree, error) {
	if d.Root == "" {
		return nil, ErrEmptyDocument
	}
	b := NewBuilder(opts...)

	names := make([]string, 0, len(d.Keys))
	for name := range d.Keys {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if d.Keys[name] >= b.base {
			return nil, fmt.Errorf("key %s=%d: %w", name, d.Keys[name], ErrReservedKey)
		}
	}

	created := make(map[string]NodeID, len(d.Nodes))
	var buildNode func(name string) (NodeID, error)
	buildNode = func(name string) (NodeID, error) {
		if id, ok := created[name]; ok {
			return id, nil
		}
		nc, ok := d.Nodes[name]
		if !ok {
			return NoNode, fmt.Errorf("%w: %s", ErrUnknownNode, name)
		}

		var id NodeID
		var children []string
		switch normalizeType(nc.Type) {
		case "task", "action", "condition":
			t, err := reg.New(nc.Task, nc.Params, d.Key)
			if err != nil {
				return NoNode, fmt.Errorf("node %s: %w", name, err)
			}
			id = b.Task(name, t)
		case "repeat":
			id = b.Repeat(name, nc.Count)
			children = []string{nc.Child}
		case "repeat_until_fail":
			id = b.RepeatUntilFail(name)
			children = []string{nc.Child}
		case "inverter":
			id = b.Inverter(name)
			children = []string{nc.Child}
		case "succeeder":
			id = b.Succeeder(name)
			children = []string{nc.Child}
		case "sequence":
			id = b.Sequence(name)
			children = nc.Children
		case "selection", "selector":
			id = b.Selection(name)
			children = nc.Children
		default:
			return NoNode, fmt.Errorf("node %s: %w: %s", name, ErrUnknownNodeType, nc.Type)
		}
		created[name] = id

		for _, chname := range children {
			if chname == "" {
				return NoNode, fmt.Errorf("node %s: %w", name, ErrMissingChild)
			}
			ch, err := buildNode(chname)
			if err != nil {
				return NoNode, err
			}
			if err := b.AddChild(id, ch); err != nil {
				return NoNode, fmt.Errorf("node %s: %w", name, err)
			}
		}
		return id, nil
	}

	root, err := buildNode(d.Root)
	if err != nil {
		return nil, err
	}
	if len(created) != len(d.Nodes) {
		for name := range d.Nodes {
			if _, ok := created[name]; !ok {
				return nil, fmt.Errorf("node %s: %w", name, ErrDetached)
			}
		}
	}
	return b.Build(root)
}
