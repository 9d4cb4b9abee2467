package bt

import (
	"context"
	"fmt"

	"github.com/zeusync/bttick/internal/core/observability/log"
)

// Outcome computes the status of visiting id, given the status produced by
// the previously visited node. Tasks run their work; control nodes pass prev
// through, except a result decorator returning from its child.
//
// Control nodes never see Running as input because a Running task suspends
// the Run before anything else is visited. Outcome panics with
// ErrRunningPropagated if that ever happens.
func (t *Tree) Outcome(ctx context.Context, id NodeID, prev Status, bb *Blackboard) Status {
	return t.outcome(ctx, id, prev, bb, nil)
}

func (t *Tree) outcome(ctx context.Context, id NodeID, prev Status, bb *Blackboard, l log.Log) Status {
	n := &t.nodes[id]
	if n.kind == KindTask {
		switch st := n.task.Tick(TickContext{Ctx: ctx, BB: bb, Node: id, Key: t.Key(id), Log: l}); st {
		case StatusSuccess, StatusRunning:
			return st
		default:
			return StatusFailure
		}
	}
	if prev == StatusRunning {
		panic(fmt.Errorf("%s %q: %w", n.kind, n.name, ErrRunningPropagated))
	}
	switch n.kind {
	case KindInverter:
		if bb.GetBool(t.Key(id)) {
			if prev == StatusSuccess {
				return StatusFailure
			}
			return StatusSuccess
		}
	case KindSucceeder:
		if bb.GetBool(t.Key(id)) {
			return StatusSuccess
		}
	}
	return prev
}

// Next selects the node visited after id, where prevNode was visited before
// id and st is the status id just produced. It returns id itself while a task
// is Running, and NoNode when control leaves the root.
//
// A node knows it was entered from above when prevNode is its parent; any
// progress across visits is kept in its reserved Blackboard slot.
func (t *Tree) Next(id, prevNode NodeID, st Status, bb *Blackboard) NodeID {
	n := &t.nodes[id]
	key := t.Key(id)
	fromParent := prevNode == n.parent

	switch n.kind {
	case KindTask:
		if st == StatusRunning {
			return id
		}
	case KindRepeat:
		if fromParent {
			bb.SetInt(key, 0)
			return n.children[0]
		}
		if n.count == 0 {
			return n.children[0]
		}
		count := bb.GetInt(key) + 1
		if int(count) >= n.count {
			bb.SetInt(key, 0)
			return n.parent
		}
		bb.SetInt(key, count)
		return n.children[0]
	case KindRepeatUntilFail:
		// key holds "entered": the first visit always descends, whatever
		// status came down from the parent.
		if fromParent || !bb.GetBool(key) || st != StatusFailure {
			bb.SetBool(key, true)
			return n.children[0]
		}
		bb.SetBool(key, false)
	case KindInverter, KindSucceeder:
		// key holds "awaiting child".
		if fromParent {
			bb.SetBool(key, true)
			return n.children[0]
		}
		bb.SetBool(key, false)
	case KindSequence:
		return t.nextChild(n, key, fromParent, st == StatusSuccess, bb)
	case KindSelection:
		return t.nextChild(n, key, fromParent, st == StatusFailure, bb)
	}
	return n.parent
}

// nextChild walks a composite's children using the index stored under key.
func (t *Tree) nextChild(n *node, key Key, fromParent, advance bool, bb *Blackboard) NodeID {
	var i int32
	if !fromParent {
		i = bb.GetInt(key)
	}
	if int(i) >= len(n.children) || (i != 0 && !advance) {
		bb.SetInt(key, 0)
		return n.parent
	}
	bb.SetInt(key, i+1)
	return n.children[i]
}

// Enter clears the reserved slot of id. The Run calls it whenever id is
// entered from its parent, including the wrap back to the root.
func (t *Tree) Enter(id NodeID, bb *Blackboard) {
	bb.setScalar(t.Key(id), 0)
}
