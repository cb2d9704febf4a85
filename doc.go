// Package crate implements an in-process observable state container: a named
// record of values whose writes flow through optional per-key middleware, can
// be selectively locked, and broadcast change notifications to subscribers.
//
// A Crate is built around a fixed schema derived once from the keys of the
// initial record. Writes follow a single path: lock check, middleware,
// commit, notification. Bulk operations (Restore, Overwrite) intentionally
// bypass that path and fire no events.
//
// Sharp edges, by design rather than omission:
//
//   - Get returns the live value for a key. If the value is a map or slice the
//     caller can mutate container state through it. Use All for an independent
//     deep copy.
//   - Subscribers and middleware run synchronously on the caller's stack. A
//     callback that writes back into the same Crate recurses; guarding against
//     unbounded mutual recursion is the caller's responsibility.
//   - Deep copies are structural clones over scalars, slices, maps, and
//     structs. Cyclic values are not supported.
//   - A Crate is single-owner. Lock and Unlock grant or revoke write
//     permission per key; they are not a concurrency mechanism.
//   - No operation is supported after Destroy.
package crate
