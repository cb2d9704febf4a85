package crate

import (
	"errors"
	"fmt"
	"strings"
)

// MiddlewareError captures engine metadata alongside the originating error
// when an expression-backed middleware cannot be built or run.
type MiddlewareError struct {
	Engine string
	Expr   string
	Err    error
}

func (e *MiddlewareError) Error() string {
	if e == nil {
		return "<nil>"
	}
	return fmt.Sprintf("crate: %s middleware %s: %v", e.Engine, describeExpression(e.Expr), e.Err)
}

func (e *MiddlewareError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

func wrapEngineError(engine string, err error) error {
	if err == nil {
		return nil
	}

	var mwErr *MiddlewareError
	if errors.As(err, &mwErr) {
		return err
	}

	if strings.HasPrefix(err.Error(), "crate:") {
		return err
	}
	return fmt.Errorf("crate: %s middleware: %w", engine, err)
}

func wrapMiddlewareError(engine, expr string, err error) error {
	if err == nil {
		return nil
	}

	var mwErr *MiddlewareError
	if errors.As(err, &mwErr) {
		if mwErr.Engine == "" {
			mwErr.Engine = engine
		}
		if mwErr.Expr == "" {
			mwErr.Expr = expr
		}
		return mwErr
	}

	return &MiddlewareError{
		Engine: engine,
		Expr:   expr,
		Err:    err,
	}
}
