package bt

import (
	"fmt"
	"math"
	"sort"
	"sync"
)

// KeyResolver maps an application key name onto its Blackboard key.
type KeyResolver func(name string) (Key, error)

// TaskFactory builds a Task from declarative parameters.
type TaskFactory func(params map[string]any, keys KeyResolver) (Task, error)

// Registry maps task names to factories so trees can be described by name.
type Registry struct {
	mu    sync.RWMutex
	tasks map[string]TaskFactory
}

func NewRegistry() *Registry {
	return &Registry{tasks: make(map[string]TaskFactory)}
}

// Register adds or replaces the factory for name.
func (r *Registry) Register(name string, factory TaskFactory) {
	r.mu.Lock()
	r.tasks[name] = factory
	r.mu.Unlock()
}

func (r *Registry) New(name string, params map[string]any, keys KeyResolver) (Task, error) {
	r.mu.RLock()
	f := r.tasks[name]
	r.mu.RUnlock()
	if f == nil {
		return nil, fmt.Errorf("%w: %s", ErrUnknownTask, name)
	}
	if keys == nil {
		keys = func(name string) (Key, error) { return 0, fmt.Errorf("%w: %s", ErrUnknownKey, name) }
	}
	t, err := f(params, keys)
	if err != nil {
		return nil, fmt.Errorf("task %s: %w", name, err)
	}
	return t, nil
}

// Names returns the registered task names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.tasks))
	for n := range r.tasks {
		names = append(names, n)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

func paramString(params map[string]any, name string) (string, error) {
	s, ok := params[name].(string)
	if !ok || s == "" {
		return "", fmt.Errorf("%w: %q must be a non-empty string", ErrInvalidParam, name)
	}
	return s, nil
}

// paramInt accepts the numeric shapes produced by both the YAML and the JSON
// decoders. Values must fit the 32-bit Blackboard slot.
func paramInt(params map[string]any, name string, def int) (int, error) {
	v, ok := params[name]
	if !ok {
		return def, nil
	}
	var n int64
	switch x := v.(type) {
	case int:
		n = int64(x)
	case int64:
		n = x
	case float64:
		if x != math.Trunc(x) || x < math.MinInt32 || x > math.MaxInt32 {
			return 0, fmt.Errorf("%w: %q must be a whole 32-bit number", ErrInvalidParam, name)
		}
		n = int64(x)
	default:
		return 0, fmt.Errorf("%w: %q must be a number", ErrInvalidParam, name)
	}
	if n < math.MinInt32 || n > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %q out of 32-bit range", ErrInvalidParam, name)
	}
	return int(n), nil
}

func paramBool(params map[string]any, name string, def bool) (bool, error) {
	v, ok := params[name]
	if !ok {
		return def, nil
	}
	b, ok := v.(bool)
	if !ok {
		return false, fmt.Errorf("%w: %q must be a boolean", ErrInvalidParam, name)
	}
	return b, nil
}

func paramKey(params map[string]any, name string, keys KeyResolver) (Key, error) {
	s, err := paramString(params, name)
	if err != nil {
		return 0, err
	}
	return keys(s)
}
