package crate

import (
	"fmt"
	"time"

	celgo "github.com/google/cel-go/cel"
	functions "github.com/google/cel-go/common/functions"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// CELMiddlewareOption configures a CEL-backed middleware.
type CELMiddlewareOption func(*celMiddleware)

// CELWithProgramCache wires a ProgramCache into the CEL middleware.
func CELWithProgramCache(cache ProgramCache) CELMiddlewareOption {
	return func(m *celMiddleware) {
		m.cache = cache
	}
}

// CELWithFunctionRegistry wires a FunctionRegistry into the CEL middleware.
func CELWithFunctionRegistry(registry *FunctionRegistry) CELMiddlewareOption {
	return func(m *celMiddleware) {
		if registry == nil {
			return
		}
		m.registry = registry.Clone()
	}
}

// CELWithLogger attaches a logger for runtime evaluation failures.
func CELWithLogger(logger Logger) CELMiddlewareOption {
	return func(m *celMiddleware) {
		if logger == nil {
			m.logger = noopLogger{}
			return
		}
		m.logger = logger
	}
}

type celMiddleware struct {
	cache    ProgramCache
	registry *FunctionRegistry
	logger   Logger
}

type celBundle struct {
	env     *celgo.Env
	program celgo.Program
}

// maxCallArgs caps how many arguments call() accepts after the function name.
const maxCallArgs = 8

// CELMiddleware builds a Middleware from a CEL expression. The expression
// sees `candidate`, `current`, and `now` as dynamic variables plus a `call`
// function bridging to the registry. CEL converts Go ints to int64, so the
// resolved value for an int key comes back as int64.
func CELMiddleware(expression string, opts ...CELMiddlewareOption) (Middleware, error) {
	if expression == "" {
		return nil, wrapEngineError("cel", fmt.Errorf("expression must not be empty"))
	}
	m := &celMiddleware{logger: noopLogger{}}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	bundle, err := m.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}

	return func(candidate, current any) any {
		out, _, err := bundle.program.Eval(m.activation(candidate, current))
		if err != nil {
			m.logger.Warn("crate: cel middleware failed",
				"expr", expression,
				"error", wrapMiddlewareError("cel", expression, err),
			)
			return candidate
		}
		return out.Value()
	}, nil
}

func (m *celMiddleware) loadOrCompile(expression string) (*celBundle, error) {
	if m.cache != nil {
		if cached, ok := m.cache.Get(expression); ok {
			if bundle, ok := cached.(*celBundle); ok {
				return bundle, nil
			}
		}
	}

	env, err := m.buildEnv()
	if err != nil {
		return nil, wrapMiddlewareError("cel", expression, err)
	}
	ast, issues := env.Parse(expression)
	if issues != nil && issues.Err() != nil {
		return nil, wrapMiddlewareError("cel", expression, issues.Err())
	}
	checked, issues := env.Check(ast)
	if issues != nil && issues.Err() != nil {
		return nil, wrapMiddlewareError("cel", expression, issues.Err())
	}
	prg, err := env.Program(checked)
	if err != nil {
		return nil, wrapMiddlewareError("cel", expression, err)
	}

	bundle := &celBundle{env: env, program: prg}
	if m.cache != nil {
		m.cache.Set(expression, bundle)
	}
	return bundle, nil
}

func (m *celMiddleware) buildEnv() (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable("candidate", celgo.DynType),
		celgo.Variable("current", celgo.DynType),
		celgo.Variable("now", celgo.TimestampType),
	}
	if m.registry != nil {
		// CEL overloads carry fixed arities, so call() is declared once per
		// supported argument count with a shared variadic binding.
		binding := celgo.FunctionBinding(m.callBinding())
		args := []*celgo.Type{celgo.StringType}
		overloads := make([]celgo.FunctionOpt, 0, maxCallArgs+1)
		for i := 0; i <= maxCallArgs; i++ {
			id := fmt.Sprintf("call_%d", i)
			overloads = append(overloads, celgo.Overload(id, args, celgo.DynType, binding))
			args = append(args[:len(args):len(args)], celgo.DynType)
		}
		opts = append(opts, celgo.Function("call", overloads...))
	}
	return celgo.NewEnv(opts...)
}

func (m *celMiddleware) activation(candidate, current any) map[string]any {
	return map[string]any{
		"candidate": candidate,
		"current":   current,
		"now":       time.Now(),
	}
}

func (m *celMiddleware) callBinding() functions.FunctionOp {
	return func(values ...ref.Val) ref.Val {
		if m.registry == nil {
			return types.NewErr("crate: function registry not configured")
		}
		if len(values) == 0 {
			return types.NewErr("crate: call requires function name")
		}
		name, ok := values[0].Value().(string)
		if !ok {
			return types.NewErr("crate: call name must be string")
		}
		args := make([]any, 0, len(values)-1)
		for _, val := range values[1:] {
			args = append(args, val.Value())
		}
		result, err := m.registry.Call(name, args...)
		if err != nil {
			return types.NewErr("%s", err.Error())
		}
		if result == nil {
			return types.NullValue
		}
		return types.DefaultTypeAdapter.NativeToValue(result)
	}
}
