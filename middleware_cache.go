package crate

// ProgramCache stores compiled expression programs keyed by expression
// strings, so crates sharing the same expressions compile them once.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}
