package crate

// stateStore owns the live record and the snapshot baseline. Pure reads and
// writes, no policy; lock and middleware checks belong to the facade.
type stateStore struct {
	record   Record
	baseline Record
}

func newStateStore(initial Record) *stateStore {
	return &stateStore{
		record:   cloneRecord(initial),
		baseline: cloneRecord(initial),
	}
}

// read returns the live value for key, not a copy.
func (s *stateStore) read(key string) any {
	return s.record[key]
}

// readAll returns an independent deep copy of the full record.
func (s *stateStore) readAll() Record {
	return cloneRecord(s.record)
}

// commit overwrites a single key. No checks, no notification.
func (s *stateStore) commit(key string, value any) {
	s.record[key] = value
}

// replaceAll swaps the live record wholesale. No checks, no notification.
func (s *stateStore) replaceAll(record Record) {
	s.record = record
}

// baselineValue returns a deep copy of the baseline value for key, detached
// so a later commit cannot alias the baseline.
func (s *stateStore) baselineValue(key string) any {
	return cloneAny(s.baseline[key])
}

// restoreBaseline returns a deep copy of the baseline record.
func (s *stateStore) restoreBaseline() Record {
	return cloneRecord(s.baseline)
}

// rebase replaces the baseline with a deep copy of the current record.
func (s *stateStore) rebase() {
	s.baseline = cloneRecord(s.record)
}
