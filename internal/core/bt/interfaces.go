package bt

import (
	"context"
	"fmt"

	"github.com/zeusync/bttick/internal/core/observability/log"
)

// Status represents the result of visiting a behavior tree node.
// Running suspends the traversal until the next tick.
type Status int8

const (
	StatusSuccess Status = iota
	StatusFailure
	StatusRunning
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "Success"
	case StatusFailure:
		return "Failure"
	case StatusRunning:
		return "Running"
	default:
		return "Invalid"
	}
}

// Key addresses a Blackboard slot. Application keys must stay below the
// reserved range of the Tree they are used with, see Tree.ReservedBase.
type Key int32

// Vector3 is a three component float vector.
type Vector3 struct {
	X, Y, Z float32
}

// NodeID is the arena index of a node inside its Tree.
type NodeID int32

// NoNode is the parent of the root, and what next returns when control leaves
// the root upward.
const NoNode NodeID = -1

// Kind selects the behavior of a node.
type Kind uint8

const (
	KindTask Kind = iota
	KindRepeat
	KindRepeatUntilFail
	KindInverter
	KindSucceeder
	KindSequence
	KindSelection
)

func (k Kind) String() string {
	switch k {
	case KindTask:
		return "Task"
	case KindRepeat:
		return "Repeat"
	case KindRepeatUntilFail:
		return "RepeatUntilFail"
	case KindInverter:
		return "Inverter"
	case KindSucceeder:
		return "Succeeder"
	case KindSequence:
		return "Sequence"
	case KindSelection:
		return "Selection"
	default:
		return fmt.Sprintf("Kind(%d)", uint8(k))
	}
}

// IsDecorator reports whether nodes of kind k own exactly one child.
func (k Kind) IsDecorator() bool {
	switch k {
	case KindRepeat, KindRepeatUntilFail, KindInverter, KindSucceeder:
		return true
	default:
		return false
	}
}

// IsComposite reports whether nodes of kind k own an ordered list of children.
func (k Kind) IsComposite() bool {
	return k == KindSequence || k == KindSelection
}

// TickContext is passed to a Task each time it is visited.
type TickContext struct {
	Ctx context.Context
	BB  *Blackboard
	// Node is the visited task.
	Node NodeID
	// Key is the task's reserved slot. It is zeroed whenever the task is
	// entered from its parent, so tasks may keep per-run progress there.
	Key Key
	// Log is the logger of the visiting Run. It may be nil outside a Run.
	Log log.Log
}

// Logger returns tc.Log, or the process default logger when it is unset.
func (tc TickContext) Logger() log.Log {
	if tc.Log != nil {
		return tc.Log
	}
	return log.Provide()
}

// Task is the externally supplied work behind a leaf node. Implementations are
// shared by every Run of a Tree and must keep per-run state in the Blackboard.
type Task interface {
	Tick(tc TickContext) Status
}

// TaskFunc wraps a function as a Task.
type TaskFunc func(tc TickContext) Status

func (f TaskFunc) Tick(tc TickContext) Status { return f(tc) }
