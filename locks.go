package crate

// lockRegistry owns the set of keys currently write-disabled. Pure set
// operations over the fixed schema; "locked" is write-permission semantics
// for callers, not a concurrency mechanism.
type lockRegistry struct {
	schema []string
	locked map[string]struct{}
}

func newLockRegistry(schema []string) *lockRegistry {
	return &lockRegistry{
		schema: schema,
		locked: make(map[string]struct{}, len(schema)),
	}
}

func (r *lockRegistry) lock(key string) {
	r.locked[key] = struct{}{}
}

func (r *lockRegistry) lockAll() {
	for _, key := range r.schema {
		r.locked[key] = struct{}{}
	}
}

func (r *lockRegistry) unlock(key string) {
	delete(r.locked, key)
}

func (r *lockRegistry) unlockAll() {
	for _, key := range r.schema {
		delete(r.locked, key)
	}
}

func (r *lockRegistry) isLocked(key string) bool {
	_, ok := r.locked[key]
	return ok
}

// allLocked re-derives from the schema rather than a cached flag; a per-key
// unlock can leave the registry partially locked.
func (r *lockRegistry) allLocked() bool {
	for _, key := range r.schema {
		if _, ok := r.locked[key]; !ok {
			return false
		}
	}
	return true
}
