package bt

import (
	"context"

	gobt "github.com/joeycumines/go-behaviortree"
)

// Interop with github.com/joeycumines/go-behaviortree, for hosts that already
// drive their logic with it.

// Node exposes r as a go-behaviortree leaf. Every tick of the leaf is one
// Tick of the Run; errors surface as Failure with the error attached.
func (r *Run) Node(ctx context.Context) gobt.Node {
	return gobt.New(func([]gobt.Node) (gobt.Status, error) {
		st, err := r.Tick(ctx)
		if err != nil {
			return gobt.Failure, err
		}
		return ToGoStatus(st), nil
	})
}

// NodeTask wraps a go-behaviortree node as a Task. The node is shared by all
// Runs of the tree, so it should not keep per-run state of its own.
func NodeTask(node gobt.Node) Task {
	return TaskFunc(func(TickContext) Status {
		st, err := node.Tick()
		if err != nil {
			return StatusFailure
		}
		return FromGoStatus(st)
	})
}

func ToGoStatus(st Status) gobt.Status {
	switch st {
	case StatusSuccess:
		return gobt.Success
	case StatusRunning:
		return gobt.Running
	default:
		return gobt.Failure
	}
}

func FromGoStatus(st gobt.Status) Status {
	switch st {
	case gobt.Success:
		return StatusSuccess
	case gobt.Running:
		return StatusRunning
	default:
		return StatusFailure
	}
}
