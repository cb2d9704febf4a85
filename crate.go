package crate

import (
	"context"
	"sort"

	"github.com/goliatone/go-crate/pkg/audit"
)

// Crate is an observable state container: a fixed-schema record whose writes
// pass through per-key middleware, honor per-key locks, and broadcast change
// notifications. The schema is derived once from the keys of the initial
// record and never changes afterward.
type Crate struct {
	cfg        crateConfig
	schema     []string
	store      *stateStore
	locks      *lockRegistry
	middleware *pipeline
	notifier   *notifier
}

// New constructs a Crate around initial. The schema is the sorted key set of
// initial; values are deep-copied in, so the caller keeps no live reference.
func New(initial Record, opts ...Option) *Crate {
	cfg := applyOptions(opts)

	schema := make([]string, 0, len(initial))
	for key := range initial {
		schema = append(schema, key)
	}
	sort.Strings(schema)

	c := &Crate{
		cfg:        cfg,
		schema:     schema,
		store:      newStateStore(initial),
		locks:      newLockRegistry(schema),
		middleware: newPipeline(cfg),
		notifier:   newNotifier(cfg),
	}
	if cfg.closed {
		c.locks.lockAll()
	}
	return c
}

// Keys returns the schema in its fixed order.
func (c *Crate) Keys() []string {
	out := make([]string, len(c.schema))
	copy(out, c.schema)
	return out
}

func (c *Crate) hasKey(key string) bool {
	_, ok := c.store.record[key]
	return ok
}

// Update writes value to key and returns the previous value. The write is
// dropped, with a warning, when the key is locked or outside the schema.
// Middleware resolves the committed value; when the resolved value is
// shallow-equal to the current one (identity for maps and slices, == for
// comparable scalars) the write is a silent no-op and nothing fires.
func (c *Crate) Update(key string, value any) any {
	if !c.hasKey(key) {
		c.cfg.logger.Warn("crate: update on unknown key", "key", key)
		return nil
	}
	current := c.store.read(key)
	if c.locks.isLocked(key) {
		c.cfg.logger.Warn("crate: update blocked by lock", "key", key)
		return current
	}

	resolved := c.middleware.run(key, value, current)
	if shallowEqual(resolved, current) {
		return current
	}

	c.store.commit(key, resolved)
	c.notifier.notify(key, current, resolved, c.store)
	c.audit(audit.VerbUpdated, key, current, resolved)
	return current
}

// Patch applies Update once per entry, independently. A locked key among many
// is skipped while the rest still apply; the batch is not atomic. Entries are
// applied in sorted key order so repeated patches behave deterministically.
func (c *Crate) Patch(values Record) {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		c.Update(key, values[key])
	}
}

// Increment adds amount to the current numeric value of key and returns the
// previous value. The sum still passes through middleware, but unlike Update
// there is no equality short-circuit: middleware clamping the sum back to the
// current value still commits and notifies. A locked key is a quiet no-op; a
// non-numeric current value is a no-op with a warning.
func (c *Crate) Increment(key string, amount float64) any {
	if !c.hasKey(key) {
		c.cfg.logger.Warn("crate: increment on unknown key", "key", key)
		return nil
	}
	current := c.store.read(key)
	if c.locks.isLocked(key) {
		c.cfg.logger.Debug("crate: increment blocked by lock", "key", key)
		return current
	}

	sum, ok := addNumeric(current, amount)
	if !ok {
		c.cfg.logger.Warn("crate: increment on non-numeric value", "key", key)
		return current
	}

	resolved := c.middleware.run(key, sum, current)
	c.store.commit(key, resolved)
	c.notifier.notify(key, current, resolved, c.store)
	c.audit(audit.VerbIncremented, key, current, resolved)
	return current
}

// Get returns the live value for key, not a copy. Mutating a returned map or
// slice mutates container state; use All for an independent snapshot.
func (c *Crate) Get(key string) any {
	return c.store.read(key)
}

// All returns a deep copy of the whole record, safe for the caller to mutate.
func (c *Crate) All() Record {
	return c.store.readAll()
}

// Use registers mw as the middleware for key, replacing any prior one. A nil
// mw removes the registration. Keys outside the schema are ignored with a
// warning.
func (c *Crate) Use(key string, mw Middleware) {
	if !c.hasKey(key) {
		c.cfg.logger.Warn("crate: middleware on unknown key", "key", key)
		return
	}
	c.middleware.use(key, mw)
}

// Subscribe registers fn to run after every commit to key, receiving the new
// and old values. Delivery is synchronous, on the writer's stack.
func (c *Crate) Subscribe(key string, fn func(newValue, oldValue any)) Subscription {
	return c.notifier.subscribe(key, fn)
}

// SubscribeAll registers fn to run after every commit regardless of key,
// receiving reconstructed whole-record after/before snapshots. Both are deep
// copies the callback may freely mutate.
func (c *Crate) SubscribeAll(fn func(after, before Record)) Subscription {
	return c.notifier.subscribeAll(fn)
}

// Lock disables writes to key until unlocked.
func (c *Crate) Lock(key string) {
	if !c.hasKey(key) {
		c.cfg.logger.Warn("crate: lock on unknown key", "key", key)
		return
	}
	c.locks.lock(key)
	c.audit(audit.VerbLocked, key, nil, nil)
}

// LockAll disables writes to every key in the schema.
func (c *Crate) LockAll() {
	c.locks.lockAll()
	c.audit(audit.VerbLocked, "", nil, nil)
}

// Unlock re-enables writes to key.
func (c *Crate) Unlock(key string) {
	if !c.hasKey(key) {
		c.cfg.logger.Warn("crate: unlock on unknown key", "key", key)
		return
	}
	c.locks.unlock(key)
	c.audit(audit.VerbUnlocked, key, nil, nil)
}

// UnlockAll re-enables writes to every key.
func (c *Crate) UnlockAll() {
	c.locks.unlockAll()
	c.audit(audit.VerbUnlocked, "", nil, nil)
}

// IsLocked reports whether key is currently write-disabled.
func (c *Crate) IsLocked(key string) bool {
	return c.locks.isLocked(key)
}

// AllLocked reports whether every key in the schema is individually locked.
func (c *Crate) AllLocked() bool {
	return c.locks.allLocked()
}

// Reset writes the baseline value for key through the normal update path: a
// locked key cannot be reset and middleware can reshape the restored value.
// Returns the previous value.
func (c *Crate) Reset(key string) any {
	if !c.hasKey(key) {
		c.cfg.logger.Warn("crate: reset on unknown key", "key", key)
		return nil
	}
	return c.Update(key, c.store.baselineValue(key))
}

// Restore replaces the entire record with a deep copy of the baseline,
// bypassing locks, middleware, and notification. No change events fire.
func (c *Crate) Restore() {
	c.store.replaceAll(c.store.restoreBaseline())
	c.audit(audit.VerbRestored, "", nil, nil)
}

// Snapshot replaces the baseline with a deep copy of the current record,
// establishing a new restore point. Locks and middleware are untouched.
func (c *Crate) Snapshot() {
	c.store.rebase()
	c.audit(audit.VerbSnapshot, "", nil, nil)
}

// Overwrite replaces the record wholesale, bypassing locks, middleware, and
// notification. The caller must preserve the schema: mismatched keys are an
// unchecked contract violation with undefined downstream behavior.
func (c *Crate) Overwrite(record Record) {
	c.store.replaceAll(cloneRecord(record))
	c.audit(audit.VerbOverwritten, "", nil, nil)
}

// Destroy disconnects every subscription and releases the event bus when the
// Crate owns it. No operation is supported afterward.
func (c *Crate) Destroy() {
	c.audit(audit.VerbDestroyed, "", nil, nil)
	c.notifier.disconnectAll()
}

func (c *Crate) audit(verb audit.Verb, key string, oldValue, newValue any) {
	if !c.cfg.auditHooks.Enabled() {
		return
	}
	event := audit.Event{
		Verb:       verb,
		Key:        key,
		Old:        oldValue,
		New:        newValue,
		OccurredAt: c.cfg.clock.Now(),
	}
	if err := c.cfg.auditHooks.Notify(context.Background(), event); err != nil {
		c.cfg.logger.Warn("crate: audit hooks failed", "verb", string(verb), "error", err)
	}
}
