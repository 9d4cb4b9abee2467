package bt

import (
	"fmt"
	"sort"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/zeusync/bttick/internal/core/observability/log"
	"github.com/zeusync/bttick/pkg/generic"
)

// Built-in tasks for trees described by a Document.

func constant(st Status) TaskFactory {
	return func(map[string]any, KeyResolver) (Task, error) {
		return TaskFunc(func(TickContext) Status { return st }), nil
	}
}

// RegisterBuiltins registers the generic tasks into r.
func RegisterBuiltins(r *Registry) {
	r.Register("Succeed", constant(StatusSuccess))
	r.Register("Noop", constant(StatusSuccess))
	r.Register("Fail", constant(StatusFailure))

	r.Register("SetBool", func(params map[string]any, keys KeyResolver) (Task, error) {
		key, err := paramKey(params, "key", keys)
		if err != nil {
			return nil, err
		}
		val, err := paramBool(params, "value", true)
		if err != nil {
			return nil, err
		}
		return TaskFunc(func(tc TickContext) Status {
			tc.BB.SetBool(key, val)
			return StatusSuccess
		}), nil
	})

	r.Register("SetInt", func(params map[string]any, keys KeyResolver) (Task, error) {
		key, err := paramKey(params, "key", keys)
		if err != nil {
			return nil, err
		}
		val, err := paramInt(params, "value", 0)
		if err != nil {
			return nil, err
		}
		return TaskFunc(func(tc TickContext) Status {
			tc.BB.SetInt(key, int32(val))
			return StatusSuccess
		}), nil
	})

	r.Register("AddInt", func(params map[string]any, keys KeyResolver) (Task, error) {
		key, err := paramKey(params, "key", keys)
		if err != nil {
			return nil, err
		}
		delta, err := paramInt(params, "delta", 1)
		if err != nil {
			return nil, err
		}
		return TaskFunc(func(tc TickContext) Status {
			tc.BB.SetInt(key, tc.BB.GetInt(key)+int32(delta))
			return StatusSuccess
		}), nil
	})

	r.Register("IsTrue", func(params map[string]any, keys KeyResolver) (Task, error) {
		key, err := paramKey(params, "key", keys)
		if err != nil {
			return nil, err
		}
		return TaskFunc(func(tc TickContext) Status {
			if tc.BB.GetBool(key) {
				return StatusSuccess
			}
			return StatusFailure
		}), nil
	})

	r.Register("Wait", func(params map[string]any, _ KeyResolver) (Task, error) {
		ticks, err := paramInt(params, "ticks", 1)
		if err != nil {
			return nil, err
		}
		if ticks < 1 {
			return nil, fmt.Errorf("%w: \"ticks\" must be at least 1", ErrInvalidParam)
		}
		return NewWait(ticks), nil
	})

	r.Register("Expr", func(params map[string]any, keys KeyResolver) (Task, error) {
		src, err := paramString(params, "expr")
		if err != nil {
			return nil, err
		}
		vars := make(map[string]string)
		if raw, ok := params["vars"]; ok {
			m, ok := raw.(map[string]any)
			if !ok {
				return nil, fmt.Errorf("%w: \"vars\" must map names to types", ErrInvalidParam)
			}
			for name, typ := range m {
				s, ok := typ.(string)
				if !ok {
					return nil, fmt.Errorf("%w: type of var %q must be a string", ErrInvalidParam, name)
				}
				vars[name] = s
			}
		}
		return NewExprTask(src, vars, keys)
	})
}

// Wait reports Running until it has been visited ticks times in a row, then
// Success. Progress lives in the task's reserved slot.
type Wait struct {
	Ticks int32
}

func NewWait(ticks int) *Wait { return &Wait{Ticks: int32(ticks)} }

func (w *Wait) Tick(tc TickContext) Status {
	n := tc.BB.GetInt(tc.Key) + 1
	if n >= w.Ticks {
		tc.BB.SetInt(tc.Key, 0)
		return StatusSuccess
	}
	tc.BB.SetInt(tc.Key, n)
	return StatusRunning
}

type exprVar struct {
	name string
	key  Key
	typ  string
}

// ExprTask succeeds when a boolean expr-lang expression over named
// Blackboard values holds. Each var is read with the accessor of its type:
// int, float, bool or vector.
type ExprTask struct {
	src     string
	program *vm.Program
	vars    []exprVar
	envs    *generic.Pool[map[string]any]
}

var _ Task = (*ExprTask)(nil)

func NewExprTask(src string, vars map[string]string, keys KeyResolver) (*ExprTask, error) {
	t := &ExprTask{src: src}
	t.envs = generic.NewPool(
		func() map[string]any { return make(map[string]any, len(vars)) },
		func(m map[string]any) { clear(m) },
	)
	env := make(map[string]any, len(vars))
	for name, typ := range vars {
		key, err := keys(name)
		if err != nil {
			return nil, err
		}
		zero, err := exprZero(typ)
		if err != nil {
			return nil, fmt.Errorf("var %s: %w", name, err)
		}
		env[name] = zero
		t.vars = append(t.vars, exprVar{name: name, key: key, typ: typ})
	}
	sort.Slice(t.vars, func(i, j int) bool { return t.vars[i].name < t.vars[j].name })

	program, err := expr.Compile(src, expr.Env(env), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("%w: compile %q: %v", ErrInvalidParam, src, err)
	}
	t.program = program
	return t, nil
}

func exprZero(typ string) (any, error) {
	switch typ {
	case "int":
		return int32(0), nil
	case "float":
		return float32(0), nil
	case "bool":
		return false, nil
	case "vector":
		return Vector3{}, nil
	default:
		return nil, fmt.Errorf("%w: unknown var type %q", ErrInvalidParam, typ)
	}
}

func (t *ExprTask) Tick(tc TickContext) Status {
	env := t.envs.Get()
	defer t.envs.Put(env)
	for _, v := range t.vars {
		switch v.typ {
		case "int":
			env[v.name] = tc.BB.GetInt(v.key)
		case "float":
			env[v.name] = tc.BB.GetFloat(v.key)
		case "bool":
			env[v.name] = tc.BB.GetBool(v.key)
		case "vector":
			env[v.name] = tc.BB.GetVector3(v.key)
		}
	}
	out, err := expr.Run(t.program, env)
	if err != nil {
		tc.Logger().Warn("expr task failed",
			log.Int32("node", int32(tc.Node)),
			log.String("expr", t.src),
			log.Error(err),
		)
		return StatusFailure
	}
	if ok, _ := out.(bool); ok {
		return StatusSuccess
	}
	return StatusFailure
}
