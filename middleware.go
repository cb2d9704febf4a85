package crate

import "time"

// pipeline owns at most one middleware per key and times each run against a
// soft budget. The budget is advisory: a slow middleware is logged after the
// fact and its result is still applied, because the execution model is
// cooperative and nothing can preempt the call.
type pipeline struct {
	transforms map[string]Middleware
	clock      Clock
	budget     time.Duration
	logger     Logger
	runLogger  MiddlewareLogger
}

func newPipeline(cfg crateConfig) *pipeline {
	return &pipeline{
		transforms: make(map[string]Middleware),
		clock:      cfg.clock,
		budget:     cfg.budget,
		logger:     cfg.logger,
		runLogger:  cfg.runLogger,
	}
}

// use registers mw for key, replacing any prior middleware. A nil mw removes
// the registration.
func (p *pipeline) use(key string, mw Middleware) {
	if mw == nil {
		delete(p.transforms, key)
		return
	}
	p.transforms[key] = mw
}

func (p *pipeline) registered(key string) bool {
	_, ok := p.transforms[key]
	return ok
}

// run resolves the candidate value for key. With no middleware registered the
// candidate passes through unchanged.
func (p *pipeline) run(key string, candidate, current any) any {
	mw := p.transforms[key]
	if mw == nil {
		return candidate
	}

	start := p.clock.Now()
	resolved := mw(candidate, current)
	elapsed := p.clock.Now().Sub(start)

	exceeded := elapsed > p.budget
	p.runLogger.LogRun(MiddlewareRunEvent{
		Key:      key,
		Duration: elapsed,
		Budget:   p.budget,
		Exceeded: exceeded,
	})
	if exceeded {
		p.logger.Warn("crate: middleware exceeded soft budget",
			"key", key,
			"duration", elapsed,
			"budget", p.budget,
		)
	}
	return resolved
}
