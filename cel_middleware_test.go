package crate

import (
	"errors"
	"testing"
)

func TestCELMiddlewareClamp(t *testing.T) {
	mw, err := CELMiddleware("candidate < 0 ? 0 : (candidate > 100 ? 100 : candidate)")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// CEL integers are int64.
	if got := mw(-10, 100); got != int64(0) {
		t.Fatalf("expected clamp to 0, got %v (%T)", got, got)
	}
	if got := mw(150, 0); got != int64(100) {
		t.Fatalf("expected clamp to 100, got %v (%T)", got, got)
	}
}

func TestCELMiddlewareEmptyExpression(t *testing.T) {
	if _, err := CELMiddleware(""); err == nil {
		t.Fatalf("expected error for empty expression")
	}
}

func TestCELMiddlewareParseError(t *testing.T) {
	_, err := CELMiddleware("candidate ??")
	if err == nil {
		t.Fatalf("expected parse error")
	}
	var mwErr *MiddlewareError
	if !errors.As(err, &mwErr) {
		t.Fatalf("expected MiddlewareError, got %T", err)
	}
	if mwErr.Engine != "cel" {
		t.Fatalf("expected cel engine, got %q", mwErr.Engine)
	}
}

func TestCELMiddlewareCallFunction(t *testing.T) {
	registry := NewFunctionRegistry()
	if err := registry.Register("floor", func(args ...any) (any, error) {
		v := toInt(args[0])
		lo := toInt(args[1])
		if v < lo {
			return lo, nil
		}
		return v, nil
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mw, err := CELMiddleware(`call("floor", candidate, 0)`, CELWithFunctionRegistry(registry))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	got := mw(-5, 10)
	if toInt(got) != 0 {
		t.Fatalf("expected floor at 0, got %v (%T)", got, got)
	}
}

func TestCELMiddlewareCallWithoutArguments(t *testing.T) {
	registry := NewFunctionRegistry()
	if err := registry.Register("answer", func(args ...any) (any, error) {
		return 42, nil
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	mw, err := CELMiddleware(`call("answer")`, CELWithFunctionRegistry(registry))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := mw(0, 0); toInt(got) != 42 {
		t.Fatalf("expected 42, got %v (%T)", got, got)
	}
}

func TestCELMiddlewareProgramCache(t *testing.T) {
	cache := &fakeProgramCache{}

	if _, err := CELMiddleware("candidate", CELWithProgramCache(cache)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := CELMiddleware("candidate", CELWithProgramCache(cache)); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cache.misses != 1 || cache.hits != 1 {
		t.Fatalf("expected 1 miss and 1 hit, got misses=%d hits=%d", cache.misses, cache.hits)
	}
}
