//go:build js_eval

package crate

import (
	"fmt"
	"time"

	"github.com/dop251/goja"
)

// JSMiddleware builds a Middleware from a JavaScript expression executed on a
// fresh goja runtime per call. The expression sees `candidate`, `current`,
// and `now`, plus any registry functions; its result becomes the resolved
// value. A runtime failure logs a warning and passes the candidate through.
func JSMiddleware(expression string, opts ...JSMiddlewareOption) (Middleware, error) {
	if expression == "" {
		return nil, wrapEngineError("js", fmt.Errorf("expression must not be empty"))
	}
	cfg := applyJSMiddlewareOptions(opts)

	program, err := jsLoadOrCompile(cfg, expression)
	if err != nil {
		return nil, err
	}

	return func(candidate, current any) any {
		vm := goja.New()
		jsInjectContext(vm, cfg, candidate, current)
		value, err := vm.RunProgram(program)
		if err != nil {
			cfg.logger.Warn("crate: js middleware failed",
				"expr", expression,
				"error", wrapMiddlewareError("js", expression, err),
			)
			return candidate
		}
		return value.Export()
	}, nil
}

func jsLoadOrCompile(cfg jsMiddlewareConfig, expression string) (*goja.Program, error) {
	if cfg.cache != nil {
		if cached, ok := cfg.cache.Get(expression); ok {
			if program, ok := cached.(*goja.Program); ok {
				return program, nil
			}
		}
	}
	program, err := goja.Compile("", jsWrapExpression(expression), false)
	if err != nil {
		return nil, wrapMiddlewareError("js", expression, err)
	}
	if cfg.cache != nil {
		cfg.cache.Set(expression, program)
	}
	return program, nil
}

func jsInjectContext(vm *goja.Runtime, cfg jsMiddlewareConfig, candidate, current any) {
	vm.Set("candidate", candidate)
	vm.Set("current", current)
	vm.Set("now", time.Now())
	if cfg.registry != nil {
		vm.Set("call", func(name string, arguments ...any) (any, error) {
			return cfg.registry.Call(name, arguments...)
		})
		for _, name := range cfg.registry.Names() {
			fn := name
			vm.Set(fn, func(arguments ...any) (any, error) {
				return cfg.registry.Call(fn, arguments...)
			})
		}
	}
}

func jsWrapExpression(expression string) string {
	return fmt.Sprintf("(function(){ return (%s); })()", expression)
}

func jsMiddlewareAvailable() bool {
	return true
}
