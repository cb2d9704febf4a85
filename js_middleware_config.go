package crate

type jsMiddlewareConfig struct {
	cache    ProgramCache
	registry *FunctionRegistry
	logger   Logger
}

// JSMiddlewareOption configures a JS-backed middleware.
type JSMiddlewareOption func(*jsMiddlewareConfig)

// JSWithProgramCache applies a ProgramCache to the JS middleware.
func JSWithProgramCache(cache ProgramCache) JSMiddlewareOption {
	return func(cfg *jsMiddlewareConfig) {
		cfg.cache = cache
	}
}

// JSWithFunctionRegistry applies a FunctionRegistry to the JS middleware.
func JSWithFunctionRegistry(registry *FunctionRegistry) JSMiddlewareOption {
	return func(cfg *jsMiddlewareConfig) {
		if registry == nil {
			return
		}
		cfg.registry = registry.Clone()
	}
}

// JSWithLogger attaches a logger for runtime evaluation failures.
func JSWithLogger(logger Logger) JSMiddlewareOption {
	return func(cfg *jsMiddlewareConfig) {
		if logger == nil {
			cfg.logger = noopLogger{}
			return
		}
		cfg.logger = logger
	}
}

func applyJSMiddlewareOptions(opts []JSMiddlewareOption) jsMiddlewareConfig {
	cfg := jsMiddlewareConfig{logger: noopLogger{}}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}
