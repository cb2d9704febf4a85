package crate

import (
	"github.com/google/uuid"
	eventbus "github.com/jilio/ebu"
)

// Change is the event published on the event bus for every committed write.
// Before and After are populated only when at least one whole-store
// subscriber is registered; they are independent deep copies.
type Change struct {
	Key    string
	Old    any
	New    any
	Before Record
	After  Record

	// src identifies the publishing crate so that crates sharing a bus via
	// WithEventBus never deliver each other's commits to their own
	// subscribers. Outside bus subscribers still see every Change.
	src *notifier
}

// Subscription is the handle returned by Subscribe and SubscribeAll.
// Disconnect removes the callback; Destroy on the Crate removes all of them.
type Subscription struct {
	id uuid.UUID
	n  *notifier
}

// Disconnect removes the subscription. Safe to call more than once.
func (s Subscription) Disconnect() {
	if s.n != nil {
		s.n.disconnect(s.id)
	}
}

type subscriberEntry struct {
	id     uuid.UUID
	key    string
	global bool
	scoped func(newValue, oldValue any)
	whole  func(after, before Record)
}

// notifier wraps the event bus. Every committed change is published as a
// Change event; a single dispatch handler fans it out to the registered
// subscribers in registration order, synchronously, on the caller's stack.
// The bus also carries the Change event to any outside subscribers when the
// Crate was built with WithEventBus.
type notifier struct {
	bus       *eventbus.EventBus
	ownsBus   bool
	logger    Logger
	entries   []*subscriberEntry
	globals   int
	destroyed bool
}

func newNotifier(cfg crateConfig) *notifier {
	n := &notifier{
		bus:     cfg.bus,
		ownsBus: cfg.bus == nil,
		logger:  cfg.logger,
	}
	if n.bus == nil {
		n.bus = eventbus.New()
	}
	_ = eventbus.Subscribe(n.bus, n.dispatch)
	return n
}

// subscribe registers a key-scoped callback invoked only for commits to key.
func (n *notifier) subscribe(key string, fn func(newValue, oldValue any)) Subscription {
	entry := &subscriberEntry{
		id:     uuid.New(),
		key:    key,
		scoped: fn,
	}
	n.entries = append(n.entries, entry)
	return Subscription{id: entry.id, n: n}
}

// subscribeAll registers a whole-store callback invoked on every commit with
// reconstructed before/after records.
func (n *notifier) subscribeAll(fn func(after, before Record)) Subscription {
	entry := &subscriberEntry{
		id:     uuid.New(),
		global: true,
		whole:  fn,
	}
	n.entries = append(n.entries, entry)
	n.globals++
	return Subscription{id: entry.id, n: n}
}

func (n *notifier) disconnect(id uuid.UUID) {
	for i, entry := range n.entries {
		if entry.id != id {
			continue
		}
		if entry.global {
			n.globals--
		}
		n.entries = append(n.entries[:i], n.entries[i+1:]...)
		return
	}
}

// notify publishes the change. Called only after the store has committed the
// new value, so After reflects the committed state and Before substitutes the
// prior value back in.
func (n *notifier) notify(key string, oldValue, newValue any, store *stateStore) {
	if n.destroyed {
		return
	}

	change := Change{Key: key, Old: oldValue, New: newValue, src: n}
	if n.globals > 0 {
		after := store.readAll()
		before := store.readAll()
		before[key] = cloneAny(oldValue)
		change.Before = before
		change.After = after
	}
	eventbus.Publish(n.bus, change)
}

func (n *notifier) dispatch(change Change) {
	if n.destroyed || change.src != n {
		return
	}
	// Snapshot the list so a callback that disconnects mid-delivery cannot
	// skip its siblings.
	entries := make([]*subscriberEntry, len(n.entries))
	copy(entries, n.entries)
	for _, entry := range entries {
		if entry.global {
			entry.whole(change.After, change.Before)
			continue
		}
		if entry.key == change.Key {
			entry.scoped(change.New, change.Old)
		}
	}
}

// disconnectAll drops every subscription and releases the bus when owned.
// Subscriptions on a shared bus stay registered at the bus level but never
// fire again; the dispatch handler goes inert instead of being removed, since
// the bus cannot tell two crates' handlers apart.
func (n *notifier) disconnectAll() {
	n.destroyed = true
	n.entries = nil
	n.globals = 0
	if n.ownsBus {
		n.bus.ClearAll()
		return
	}
	n.logger.Debug("crate: destroyed on shared bus, dispatch handler left inert")
}
