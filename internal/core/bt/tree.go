package bt

import (
	"fmt"
	"math"
)

// DefaultReservedBase is where the reserved engine keys start unless the
// builder is configured otherwise. Application keys should stay below it.
const DefaultReservedBase Key = 1 << 30

type node struct {
	kind     Kind
	name     string
	parent   NodeID
	children []NodeID
	count    int
	task     Task
}

// Tree is an immutable node arena. It is safe to share one Tree between any
// number of Runs on any goroutines.
type Tree struct {
	nodes []node
	root  NodeID
	base  Key
}

func (t *Tree) Root() NodeID { return t.root }

// Len returns the number of nodes, which is also the size of the reserved
// key range.
func (t *Tree) Len() int { return len(t.nodes) }

func (t *Tree) ReservedBase() Key { return t.base }

// ReservedRange returns the half-open key range [lo, hi) owned by the engine.
func (t *Tree) ReservedRange() (lo, hi Key) {
	return t.base, t.base + Key(len(t.nodes))
}

// Key returns the reserved Blackboard key of node id.
func (t *Tree) Key(id NodeID) Key { return t.base + Key(id) }

func (t *Tree) Contains(id NodeID) bool { return id >= 0 && int(id) < len(t.nodes) }

func (t *Tree) Kind(id NodeID) Kind { return t.nodes[id].kind }

func (t *Tree) Name(id NodeID) string { return t.nodes[id].name }

func (t *Tree) Parent(id NodeID) NodeID { return t.nodes[id].parent }

// RepeatCount returns the configured count of a Repeat node, zero for others.
func (t *Tree) RepeatCount(id NodeID) int { return t.nodes[id].count }

// Children returns a copy of the children of id.
func (t *Tree) Children(id NodeID) []NodeID {
	ch := t.nodes[id].children
	out := make([]NodeID, len(ch))
	copy(out, ch)
	return out
}

// Lookup returns the first node named name.
func (t *Tree) Lookup(name string) (NodeID, bool) {
	for i := range t.nodes {
		if t.nodes[i].name == name {
			return NodeID(i), true
		}
	}
	return NoNode, false
}

type BuilderOption func(*Builder)

// WithReservedBase moves the reserved key range.
func WithReservedBase(base Key) BuilderOption {
	return func(b *Builder) { b.base = base }
}

// Builder assembles a Tree. Node ids are handed out in creation order and
// double as offsets into the reserved key range. A Builder is single use:
// Build seals it.
type Builder struct {
	nodes  []node
	base   Key
	sealed bool
}

func NewBuilder(opts ...BuilderOption) *Builder {
	b := &Builder{base: DefaultReservedBase}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Builder) add(kind Kind, name string, count int, task Task) NodeID {
	if b.sealed {
		return NoNode
	}
	b.nodes = append(b.nodes, node{kind: kind, name: name, parent: NoNode, count: count, task: task})
	return NodeID(len(b.nodes) - 1)
}

// Task adds a leaf running task.
func (b *Builder) Task(name string, task Task) NodeID { return b.add(KindTask, name, 0, task) }

// Repeat adds a decorator that runs its child count times per visit, or
// forever when count is zero.
func (b *Builder) Repeat(name string, count int) NodeID {
	return b.add(KindRepeat, name, count, nil)
}

func (b *Builder) RepeatUntilFail(name string) NodeID {
	return b.add(KindRepeatUntilFail, name, 0, nil)
}

func (b *Builder) Inverter(name string) NodeID { return b.add(KindInverter, name, 0, nil) }

func (b *Builder) Succeeder(name string) NodeID { return b.add(KindSucceeder, name, 0, nil) }

func (b *Builder) Sequence(name string) NodeID { return b.add(KindSequence, name, 0, nil) }

func (b *Builder) Selection(name string) NodeID { return b.add(KindSelection, name, 0, nil) }

func (b *Builder) valid(id NodeID) bool { return id >= 0 && int(id) < len(b.nodes) }

// AddChild appends child to parent and fixes the child's parent link.
func (b *Builder) AddChild(parent, child NodeID) error {
	if b.sealed {
		return ErrSealed
	}
	if !b.valid(parent) {
		return fmt.Errorf("parent %d: %w", parent, ErrUnknownNode)
	}
	if !b.valid(child) {
		return fmt.Errorf("child %d: %w", child, ErrUnknownNode)
	}
	p := &b.nodes[parent]
	c := &b.nodes[child]
	if c.parent != NoNode {
		return fmt.Errorf("child %q: %w", c.name, ErrHasParent)
	}
	switch {
	case p.kind == KindTask:
		return fmt.Errorf("parent %q: %w", p.name, ErrLeafChildren)
	case p.kind.IsDecorator() && len(p.children) > 0:
		return fmt.Errorf("parent %q: %w", p.name, ErrDecoratorChild)
	}
	for at := parent; at != NoNode; at = b.nodes[at].parent {
		if at == child {
			return fmt.Errorf("child %q under %q: %w", c.name, p.name, ErrCycle)
		}
	}
	p.children = append(p.children, child)
	c.parent = parent
	return nil
}

// Build validates the arena and returns the Tree rooted at root. The builder
// is sealed afterwards, whether or not validation succeeded.
func (b *Builder) Build(root NodeID) (*Tree, error) {
	if b.sealed {
		return nil, ErrSealed
	}
	b.sealed = true

	if !b.valid(root) {
		return nil, fmt.Errorf("root %d: %w", root, ErrUnknownNode)
	}
	if b.nodes[root].parent != NoNode {
		return nil, fmt.Errorf("root %q: %w", b.nodes[root].name, ErrRootHasParent)
	}
	if int64(b.base)+int64(len(b.nodes)) > math.MaxInt32 {
		return nil, fmt.Errorf("base %d with %d nodes: %w", b.base, len(b.nodes), ErrKeyRange)
	}

	for i := range b.nodes {
		n := &b.nodes[i]
		switch {
		case n.kind == KindTask && n.task == nil:
			return nil, fmt.Errorf("task %q: %w", n.name, ErrNilTask)
		case n.kind == KindRepeat && (n.count < 0 || n.count > math.MaxInt32):
			return nil, fmt.Errorf("repeat %q: %w", n.name, ErrInvalidCount)
		case n.kind.IsDecorator() && len(n.children) == 0:
			return nil, fmt.Errorf("decorator %q: %w", n.name, ErrMissingChild)
		}
	}

	reached := make([]bool, len(b.nodes))
	stack := []NodeID{root}
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		reached[id] = true
		stack = append(stack, b.nodes[id].children...)
	}
	for i, ok := range reached {
		if !ok {
			return nil, fmt.Errorf("node %q: %w", b.nodes[i].name, ErrDetached)
		}
	}

	nodes := make([]node, len(b.nodes))
	for i, n := range b.nodes {
		n.children = append([]NodeID(nil), n.children...)
		nodes[i] = n
	}
	return &Tree{nodes: nodes, root: root, base: b.base}, nil
}
