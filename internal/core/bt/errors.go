package bt

import "errors"

// Tree construction errors
var (
	ErrSealed         = errors.New("builder is sealed")
	ErrUnknownNode    = errors.New("unknown node")
	ErrHasParent      = errors.New("node already has a parent")
	ErrCycle          = errors.New("child is an ancestor of parent")
	ErrLeafChildren   = errors.New("task nodes cannot have children")
	ErrDecoratorChild = errors.New("decorator already has a child")
	ErrMissingChild   = errors.New("decorator has no child")
	ErrRootHasParent  = errors.New("root has a parent")
	ErrDetached       = errors.New("node is not reachable from root")
	ErrInvalidCount   = errors.New("repeat count must not be negative")
	ErrNilTask        = errors.New("task is nil")
	ErrKeyRange       = errors.New("reserved key range overflows")
)

// Loader and registry errors
var (
	ErrUnknownTask     = errors.New("unknown task")
	ErrUnknownNodeType = errors.New("unsupported node type")
	ErrUnknownKey      = errors.New("unknown key name")
	ErrInvalidParam    = errors.New("invalid task parameter")
	ErrEmptyDocument   = errors.New("document has no root")
	ErrReservedKey     = errors.New("application key inside the reserved range")
)

// Run errors
var (
	ErrStepLimit = errors.New("step limit reached without suspension")
	// ErrRunningPropagated is the panic value when Running reaches a control
	// node as an input. It indicates a traversal bug, never bad task output.
	ErrRunningPropagated = errors.New("running status fed into a control node")
)
