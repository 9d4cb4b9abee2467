package bt

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const healYAML = `
root: root
keys:
  hp: 1
  healed: 2
nodes:
  root:
    type: selector
    children: [healthy, heal]
  healthy:
    type: condition
    task: Expr
    params:
      expr: hp >= 60
      vars: {hp: int}
  heal:
    type: sequence
    children: [channel, restore, mark]
  channel:
    type: action
    task: Wait
    params: {ticks: 2}
  restore:
    type: action
    task: AddInt
    params: {key: hp, delta: 30}
  mark:
    type: action
    task: SetBool
    params: {key: healed}
`

func builtins() *Registry {
	r := NewRegistry()
	RegisterBuiltins(r)
	return r
}

func TestLoadYAMLHealTree(t *testing.T) {
	doc, err := LoadYAML(strings.NewReader(healYAML))
	require.NoError(t, err)
	tree, err := doc.Build(builtins())
	require.NoError(t, err)
	assert.Equal(t, 6, tree.Len())

	run := NewRun(tree)
	hp, err := doc.Key("hp")
	require.NoError(t, err)
	healed, err := doc.Key("healed")
	require.NoError(t, err)
	run.Blackboard().SetInt(hp, 10)

	var got []Status
	for i := 0; i < 5; i++ {
		st, err := run.Tick(context.Background())
		require.NoError(t, err)
		got = append(got, st)
	}
	assert.Equal(t, []Status{StatusRunning, StatusSuccess, StatusRunning, StatusSuccess, StatusSuccess}, got)
	assert.Equal(t, int32(70), run.Blackboard().GetInt(hp))
	assert.True(t, run.Blackboard().GetBool(healed))
}

func TestLoadJSON(t *testing.T) {
	const src = `{
		"root": "main",
		"keys": {"n": 3},
		"nodes": {
			"main":  {"type": "sequence", "children": ["set", "bump", "check"]},
			"set":   {"type": "task", "task": "SetInt", "params": {"key": "n", "value": 5}},
			"bump":  {"type": "repeat", "count": 3, "child": "inc"},
			"inc":   {"type": "task", "task": "AddInt", "params": {"key": "n", "delta": 2}},
			"check": {"type": "inverter", "child": "zero"},
			"zero":  {"type": "task", "task": "Expr", "params": {"expr": "n == 0", "vars": {"n": "int"}}}
		}
	}`
	doc, err := LoadJSON(strings.NewReader(src))
	require.NoError(t, err)
	tree, err := doc.Build(builtins())
	require.NoError(t, err)

	id, ok := tree.Lookup("bump")
	require.True(t, ok)
	assert.Equal(t, KindRepeat, tree.Kind(id))
	assert.Equal(t, 3, tree.RepeatCount(id))

	run := NewRun(tree)
	st, err := run.Tick(context.Background())
	require.NoError(t, err)
	assert.Equal(t, StatusSuccess, st)
	assert.Equal(t, int32(11), run.Blackboard().GetInt(3))
}

func TestDocumentBuildWithReservedBase(t *testing.T) {
	doc := &Document{
		Root:  "ok",
		Keys:  map[string]Key{"flag": 99},
		Nodes: map[string]DocNode{"ok": {Type: "task", Task: "Succeed"}},
	}
	_, err := doc.Build(builtins(), WithReservedBase(100))
	require.NoError(t, err)

	doc.Keys["flag"] = 100
	_, err = doc.Build(builtins(), WithReservedBase(100))
	assert.ErrorIs(t, err, ErrReservedKey)
}

func TestDocumentBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		doc  Document
		err  error
	}{
		{
			name: "empty root",
			doc:  Document{Nodes: map[string]DocNode{"a": {Type: "task", Task: "Succeed"}}},
			err:  ErrEmptyDocument,
		},
		{
			name: "unknown root",
			doc:  Document{Root: "missing"},
			err:  ErrUnknownNode,
		},
		{
			name: "unknown task",
			doc:  Document{Root: "a", Nodes: map[string]DocNode{"a": {Type: "task", Task: "Teleport"}}},
			err:  ErrUnknownTask,
		},
		{
			name: "unknown node type",
			doc:  Document{Root: "a", Nodes: map[string]DocNode{"a": {Type: "parallel"}}},
			err:  ErrUnknownNodeType,
		},
		{
			name: "unknown key",
			doc: Document{Root: "a", Nodes: map[string]DocNode{
				"a": {Type: "task", Task: "SetBool", Params: map[string]any{"key": "nope"}},
			}},
			err: ErrUnknownKey,
		},
		{
			name: "invalid param",
			doc: Document{Root: "a", Nodes: map[string]DocNode{
				"a": {Type: "task", Task: "Wait", Params: map[string]any{"ticks": 0}},
			}},
			err: ErrInvalidParam,
		},
		{
			name: "decorator without child",
			doc:  Document{Root: "a", Nodes: map[string]DocNode{"a": {Type: "inverter"}}},
			err:  ErrMissingChild,
		},
		{
			name: "negative count",
			doc: Document{Root: "a", Nodes: map[string]DocNode{
				"a": {Type: "repeat", Count: -1, Child: "b"},
				"b": {Type: "task", Task: "Succeed"},
			}},
			err: ErrInvalidCount,
		},
		{
			name: "detached node",
			doc: Document{Root: "a", Nodes: map[string]DocNode{
				"a":     {Type: "task", Task: "Succeed"},
				"stray": {Type: "task", Task: "Fail"},
			}},
			err: ErrDetached,
		},
		{
			name: "cycle",
			doc: Document{Root: "a", Nodes: map[string]DocNode{
				"a": {Type: "sequence", Children: []string{"b"}},
				"b": {Type: "inverter", Child: "a"},
			}},
			err: ErrCycle,
		},
		{
			name: "node used twice",
			doc: Document{Root: "a", Nodes: map[string]DocNode{
				"a": {Type: "sequence", Children: []string{"x", "x"}},
				"x": {Type: "task", Task: "Succeed"},
			}},
			err: ErrHasParent,
		},
		{
			name: "reserved key",
			doc: Document{
				Root:  "a",
				Keys:  map[string]Key{"clash": DefaultReservedBase},
				Nodes: map[string]DocNode{"a": {Type: "task", Task: "Succeed"}},
			},
			err: ErrReservedKey,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.doc.Build(builtins())
			assert.ErrorIs(t, err, tt.err)
		})
	}
}

func TestLoadYAMLRejectsMalformed(t *testing.T) {
	_, err := LoadYAML(strings.NewReader("root: [unclosed"))
	assert.Error(t, err)
	_, err = LoadJSON(strings.NewReader("{"))
	assert.Error(t, err)
}
