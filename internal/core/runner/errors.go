package runner

import "errors"

var (
	ErrDuplicateRun = errors.New("run already registered")
	ErrUnknownRun   = errors.New("unknown run")
	ErrNilRun       = errors.New("run is nil")
)
