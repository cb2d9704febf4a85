package crate

import (
	"time"

	eventbus "github.com/jilio/ebu"

	"github.com/goliatone/go-crate/pkg/audit"
)

// Record is the mapping a Crate holds. Values may be scalars or nested
// structural containers (maps and slices of the same).
type Record = map[string]any

// Middleware transforms a candidate value before it replaces the current one.
// It receives the candidate and the current committed value and returns the
// value to commit. At most one middleware is registered per key.
type Middleware func(candidate, current any) any

// Clock supplies the wall-clock readings used for the middleware soft budget.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// DefaultMiddlewareBudget is the soft duration budget for a single middleware
// call. Exceeding it logs a warning after the call returns; the result is
// still applied.
const DefaultMiddlewareBudget = 200 * time.Millisecond

type Option func(*crateConfig)

type crateConfig struct {
	logger     Logger
	runLogger  MiddlewareLogger
	clock      Clock
	bus        *eventbus.EventBus
	budget     time.Duration
	auditHooks audit.Hooks
	closed     bool
}

func applyOptions(opts []Option) crateConfig {
	cfg := crateConfig{}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	if cfg.logger == nil {
		cfg.logger = defaultLogger()
	}
	if cfg.runLogger == nil {
		cfg.runLogger = noopMiddlewareLogger{}
	}
	if cfg.clock == nil {
		cfg.clock = systemClock{}
	}
	if cfg.budget <= 0 {
		cfg.budget = DefaultMiddlewareBudget
	}
	return cfg
}

// WithLogger attaches a logger for advisory diagnostics (blocked writes,
// non-numeric increments, slow middleware).
func WithLogger(logger Logger) Option {
	return func(cfg *crateConfig) {
		cfg.logger = logger
	}
}

// WithMiddlewareLogger attaches a structured logger that receives one event
// per middleware run.
func WithMiddlewareLogger(logger MiddlewareLogger) Option {
	return func(cfg *crateConfig) {
		if logger == nil {
			cfg.runLogger = noopMiddlewareLogger{}
			return
		}
		cfg.runLogger = logger
	}
}

// WithClock overrides the clock used for middleware timing measurement.
func WithClock(clock Clock) Option {
	return func(cfg *crateConfig) {
		cfg.clock = clock
	}
}

// WithEventBus publishes change events on an existing bus instead of a
// private one. Changes appear on the shared bus as Change events, so other
// parts of the host application can observe them without holding a Crate
// reference. Destroying a Crate built on a shared bus leaves the bus itself
// untouched.
func WithEventBus(bus *eventbus.EventBus) Option {
	return func(cfg *crateConfig) {
		cfg.bus = bus
	}
}

// WithMiddlewareBudget overrides the soft duration budget for middleware
// calls.
func WithMiddlewareBudget(budget time.Duration) Option {
	return func(cfg *crateConfig) {
		cfg.budget = budget
	}
}

// WithAuditHooks attaches audit hooks notified after every facade mutation.
// Hooks are cloned and nil entries dropped.
func WithAuditHooks(hooks audit.Hooks) Option {
	normalized := cloneAuditHooks(hooks)
	return func(cfg *crateConfig) {
		cfg.auditHooks = normalized
	}
}

// Closed constructs the Crate with every key locked, equivalent to calling
// LockAll immediately after construction.
func Closed() Option {
	return func(cfg *crateConfig) {
		cfg.closed = true
	}
}

func cloneAuditHooks(hooks audit.Hooks) audit.Hooks {
	if len(hooks) == 0 {
		return nil
	}
	normalized := make([]audit.Hook, 0, len(hooks))
	for _, hook := range hooks {
		if hook == nil {
			continue
		}
		normalized = append(normalized, hook)
	}
	if len(normalized) == 0 {
		return nil
	}
	return audit.Hooks(normalized)
}
