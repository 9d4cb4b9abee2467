package bt

import (
	"context"

	"github.com/google/uuid"

	"github.com/zeusync/bttick/internal/core/observability/log"
)

// DefaultStepLimit bounds the node visits of a single Tick.
const DefaultStepLimit = 1 << 16

// Visit describes one node visit of a Run.
type Visit struct {
	Node   NodeID
	Status Status
}

type RunOption func(*Run)

func WithLogger(l log.Log) RunOption {
	return func(r *Run) { r.log = l }
}

// WithStepLimit caps the visits per Tick. Zero or less disables the cap.
func WithStepLimit(n int) RunOption {
	return func(r *Run) { r.limit = n }
}

// WithVisitor registers fn to observe every node visit.
func WithVisitor(fn func(Visit)) RunOption {
	return func(r *Run) { r.visit = fn }
}

func WithID(id string) RunOption {
	return func(r *Run) { r.id = id }
}

// Run is one traversal of a shared Tree. It owns its Blackboard and cursor and
// must be driven from one goroutine at a time.
type Run struct {
	id   string
	tree *Tree
	bb   *Blackboard

	cursor NodeID
	prev   NodeID
	last   Status

	limit int
	log   log.Log
	visit func(Visit)
}

func NewRun(tree *Tree, opts ...RunOption) *Run {
	r := &Run{tree: tree, limit: DefaultStepLimit}
	for _, opt := range opts {
		opt(r)
	}
	if r.id == "" {
		r.id = uuid.NewString()
	}
	if r.log == nil {
		r.log = log.Provide()
	}
	r.log = r.log.With(log.String("run", r.id))
	r.rewind()
	return r
}

func (r *Run) ID() string              { return r.id }
func (r *Run) Tree() *Tree             { return r.tree }
func (r *Run) Blackboard() *Blackboard { return r.bb }

// Cursor is the node the next visit will run.
func (r *Run) Cursor() NodeID { return r.cursor }

// Last is the status of the most recent visit.
func (r *Run) Last() Status { return r.last }

// Suspended reports whether the Run stopped on a Running task.
func (r *Run) Suspended() bool { return r.last == StatusRunning }

// Reset discards the Blackboard, including application facts, and moves the
// cursor back to the root.
func (r *Run) Reset() {
	r.rewind()
	r.log.Info("run reset", log.Int("nodes", r.tree.Len()))
}

func (r *Run) rewind() {
	r.bb = newReservedBlackboard(r.tree.ReservedBase(), r.tree.Len())
	r.cursor = r.tree.Root()
	r.prev = NoNode
	r.last = StatusSuccess
}

type stepResult uint8

const (
	stepProgress stepResult = iota
	stepSuspended
	stepPassed
)

func (r *Run) step(ctx context.Context) (Status, stepResult) {
	id := r.cursor
	st := r.tree.outcome(ctx, id, r.last, r.bb, r.log)
	if r.visit != nil {
		r.visit(Visit{Node: id, Status: st})
	}
	if r.log.Enabled(log.LevelDebug) {
		r.log.Debug("visit",
			log.Int32("node", int32(id)),
			log.String("name", r.tree.Name(id)),
			log.String("kind", r.tree.Kind(id).String()),
			log.String("status", st.String()),
		)
	}
	r.last = st
	if st == StatusRunning {
		return st, stepSuspended
	}

	root := r.tree.Root()
	// a decorator root that is back from its child has finished one pass
	passed := id == root && r.prev != NoNode && r.tree.Kind(id).IsDecorator()

	next := r.tree.Next(id, r.prev, st, r.bb)
	switch {
	case next == NoNode:
		next = root
		r.prev = NoNode
		r.tree.Enter(root, r.bb)
		passed = true
	case r.tree.Parent(next) == id:
		r.tree.Enter(next, r.bb)
		r.prev = id
	default:
		r.prev = id
	}
	r.cursor = next

	if passed {
		return st, stepPassed
	}
	return st, stepProgress
}

// Step performs exactly one node visit. It returns false once the Run is
// suspended on a Running task.
func (r *Run) Step(ctx context.Context) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	_, res := r.step(ctx)
	return res != stepSuspended, nil
}

// Tick visits nodes until a task reports Running or a top-level pass over the
// tree completes. It returns StatusRunning on suspension and the pass outcome
// otherwise. A pass completes when control wraps past the root, or when a
// decorator root such as Repeat(0) gets control back from its child.
func (r *Run) Tick(ctx context.Context) (Status, error) {
	for i := 0; r.limit <= 0 || i < r.limit; i++ {
		if err := ctx.Err(); err != nil {
			return StatusFailure, err
		}
		st, res := r.step(ctx)
		if res != stepProgress {
			return st, nil
		}
	}
	r.log.Warn("step limit reached",
		log.Int("limit", r.limit),
		log.String("cursor", r.tree.Name(r.cursor)),
	)
	return StatusFailure, ErrStepLimit
}
