//go:build !js_eval

package crate

import "fmt"

// JSMiddleware is unavailable without the js_eval build tag.
func JSMiddleware(expression string, opts ...JSMiddlewareOption) (Middleware, error) {
	_ = applyJSMiddlewareOptions(opts)
	return nil, wrapEngineError("js", fmt.Errorf("requires the js_eval build tag"))
}

func jsMiddlewareAvailable() bool {
	return false
}
