package crate

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestMiddlewareErrorMessage(t *testing.T) {
	err := &MiddlewareError{Engine: "expr", Expr: "candidate + 1", Err: errors.New("boom")}

	msg := err.Error()
	if !strings.HasPrefix(msg, "crate: expr middleware") {
		t.Fatalf("unexpected message prefix: %q", msg)
	}
	if !strings.Contains(msg, `expr="candidate + 1"`) {
		t.Fatalf("expected expression in message, got %q", msg)
	}

	empty := &MiddlewareError{Engine: "cel", Err: errors.New("boom")}
	if !strings.Contains(empty.Error(), "expr=<empty>") {
		t.Fatalf("expected empty expression marker, got %q", empty.Error())
	}
}

func TestMiddlewareErrorUnwrap(t *testing.T) {
	inner := errors.New("inner")
	err := wrapMiddlewareError("expr", "candidate", inner)

	if !errors.Is(err, inner) {
		t.Fatalf("expected wrapped error to match inner")
	}
	var mwErr *MiddlewareError
	if !errors.As(err, &mwErr) {
		t.Fatalf("expected MiddlewareError, got %T", err)
	}
	if mwErr.Engine != "expr" || mwErr.Expr != "candidate" {
		t.Fatalf("unexpected metadata: %+v", mwErr)
	}
}

func TestWrapMiddlewareErrorFillsMissingFields(t *testing.T) {
	partial := &MiddlewareError{Err: errors.New("boom")}
	err := wrapMiddlewareError("cel", "current", partial)

	var mwErr *MiddlewareError
	if !errors.As(err, &mwErr) {
		t.Fatalf("expected MiddlewareError, got %T", err)
	}
	if mwErr.Engine != "cel" || mwErr.Expr != "current" {
		t.Fatalf("expected missing fields filled, got %+v", mwErr)
	}
}

func TestWrapEngineErrorPassesPrefixedErrors(t *testing.T) {
	if err := wrapEngineError("expr", nil); err != nil {
		t.Fatalf("expected nil passthrough, got %v", err)
	}

	prefixed := fmt.Errorf("crate: already wrapped")
	if got := wrapEngineError("expr", prefixed); got != prefixed {
		t.Fatalf("expected prefixed error unchanged, got %v", got)
	}

	plain := errors.New("plain")
	got := wrapEngineError("expr", plain)
	if !strings.HasPrefix(got.Error(), "crate: expr middleware:") {
		t.Fatalf("unexpected wrapping: %q", got.Error())
	}
	if !errors.Is(got, plain) {
		t.Fatalf("expected wrapped error to match original")
	}
}
