package audit

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
)

// Verb names the facade operation that produced an audit event.
type Verb string

const (
	VerbUpdated     Verb = "crate.updated"
	VerbIncremented Verb = "crate.incremented"
	VerbLocked      Verb = "crate.locked"
	VerbUnlocked    Verb = "crate.unlocked"
	VerbSnapshot    Verb = "crate.snapshot"
	VerbRestored    Verb = "crate.restored"
	VerbOverwritten Verb = "crate.overwritten"
	VerbDestroyed   Verb = "crate.destroyed"
)

// Event describes one container mutation that can be fanned out to hooks.
// Key is empty for whole-container operations; Old and New are set only for
// per-key writes.
type Event struct {
	ID         string
	Verb       Verb
	Key        string
	Old        any
	New        any
	Metadata   map[string]any
	OccurredAt time.Time
}

// Hook receives normalized audit events.
type Hook interface {
	Notify(ctx context.Context, event Event) error
}

// HookFunc allows plain functions to satisfy Hook.
type HookFunc func(ctx context.Context, event Event) error

// Notify dispatches to the underlying function.
func (fn HookFunc) Notify(ctx context.Context, event Event) error {
	if fn == nil {
		return nil
	}
	return fn(ctx, event)
}

// Hooks fans out events to zero or more hooks.
type Hooks []Hook

// Enabled reports whether there are any hooks to notify.
func (h Hooks) Enabled() bool {
	return len(h) > 0
}

// Notify forwards the event to all hooks, returning a joined error if any
// fail. It normalizes the event and short-circuits when the verb is missing.
func (h Hooks) Notify(ctx context.Context, event Event) error {
	if len(h) == 0 {
		return nil
	}

	normalized := NormalizeEvent(event)
	if normalized.Verb == "" {
		return nil
	}

	if ctx == nil {
		ctx = context.Background()
	}

	var errs []error
	for _, hook := range h {
		if hook == nil {
			continue
		}
		if err := hook.Notify(ctx, normalized); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(errs...)
}

// NormalizeEvent trims the key, clones metadata, and ensures an ID and a
// timestamp are present.
func NormalizeEvent(event Event) Event {
	normalized := event
	normalized.Verb = Verb(strings.TrimSpace(string(event.Verb)))
	normalized.Key = strings.TrimSpace(event.Key)
	normalized.Metadata = cloneMap(event.Metadata)
	if normalized.ID == "" {
		normalized.ID = uuid.NewString()
	}
	if normalized.OccurredAt.IsZero() {
		normalized.OccurredAt = time.Now()
	}
	return normalized
}

func cloneMap(src map[string]any) map[string]any {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]any, len(src))
	for key, value := range src {
		dst[key] = value
	}
	return dst
}
