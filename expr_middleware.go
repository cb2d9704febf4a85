package crate

import (
	"fmt"
	"time"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// ExprMiddlewareOption configures an expr-backed middleware.
type ExprMiddlewareOption func(*exprMiddleware)

// ExprWithProgramCache wires a ProgramCache into the expr middleware.
func ExprWithProgramCache(cache ProgramCache) ExprMiddlewareOption {
	return func(m *exprMiddleware) {
		m.cache = cache
	}
}

// ExprWithFunctionRegistry wires a FunctionRegistry into the expr middleware.
func ExprWithFunctionRegistry(registry *FunctionRegistry) ExprMiddlewareOption {
	return func(m *exprMiddleware) {
		if registry == nil {
			return
		}
		m.registry = registry.Clone()
	}
}

// ExprWithLogger attaches a logger for runtime evaluation failures.
func ExprWithLogger(logger Logger) ExprMiddlewareOption {
	return func(m *exprMiddleware) {
		if logger == nil {
			m.logger = noopLogger{}
			return
		}
		m.logger = logger
	}
}

type exprMiddleware struct {
	cache    ProgramCache
	registry *FunctionRegistry
	logger   Logger
}

// ExprMiddleware builds a Middleware from an expr-lang expression. The
// expression sees `candidate`, `current`, and `now`, plus any registry
// functions; its result becomes the resolved value. Compilation errors
// surface here; a runtime failure logs a warning and passes the candidate
// through unchanged.
func ExprMiddleware(expression string, opts ...ExprMiddlewareOption) (Middleware, error) {
	if expression == "" {
		return nil, wrapEngineError("expr", fmt.Errorf("expression must not be empty"))
	}
	m := &exprMiddleware{logger: noopLogger{}}
	for _, opt := range opts {
		if opt != nil {
			opt(m)
		}
	}

	program, err := m.loadOrCompile(expression)
	if err != nil {
		return nil, err
	}

	return func(candidate, current any) any {
		env := m.environment(candidate, current)
		result, err := exprlang.Run(program, env)
		if err != nil {
			m.logger.Warn("crate: expr middleware failed",
				"expr", expression,
				"error", wrapMiddlewareError("expr", expression, err),
			)
			return candidate
		}
		return result
	}, nil
}

func (m *exprMiddleware) loadOrCompile(expression string) (*exprvm.Program, error) {
	if m.cache != nil {
		if cached, ok := m.cache.Get(expression); ok {
			if program, ok := cached.(*exprvm.Program); ok {
				return program, nil
			}
		}
	}
	options := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	for _, name := range m.registryNames() {
		fn := m.registryFunction(name)
		options = append(options, exprlang.Function(name, fn))
	}
	program, err := exprlang.Compile(expression, options...)
	if err != nil {
		return nil, wrapMiddlewareError("expr", expression, err)
	}
	if m.cache != nil {
		m.cache.Set(expression, program)
	}
	return program, nil
}

func (m *exprMiddleware) environment(candidate, current any) map[string]any {
	env := map[string]any{
		"candidate": candidate,
		"current":   current,
		"now":       time.Now(),
	}
	if m.registry != nil {
		env["call"] = func(name string, arguments ...any) (any, error) {
			return m.registry.Call(name, arguments...)
		}
		for _, name := range m.registry.Names() {
			fn := name
			env[fn] = func(arguments ...any) (any, error) {
				return m.registry.Call(fn, arguments...)
			}
		}
	}
	return env
}

func (m *exprMiddleware) registryNames() []string {
	if m == nil || m.registry == nil {
		return nil
	}
	return m.registry.Names()
}

func (m *exprMiddleware) registryFunction(name string) func(...any) (any, error) {
	if m == nil || m.registry == nil {
		return nil
	}
	return func(arguments ...any) (any, error) {
		return m.registry.Call(name, arguments...)
	}
}
