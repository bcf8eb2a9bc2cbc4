package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

// TracingMiddleware wraps HTTP handlers with OpenTelemetry tracing. Spans are
// named after the mux route template, so capture and release calls on
// different payment ids share one operation name.
func TracingMiddleware(operationName string, next http.Handler) http.Handler {
	return otelhttp.NewHandler(next, operationName,
		otelhttp.WithSpanNameFormatter(func(operation string, r *http.Request) string {
			if route := mux.CurrentRoute(r); route != nil {
				if tmpl, err := route.GetPathTemplate(); err == nil {
					return r.Method + " " + tmpl
				}
			}
			return operation
		}))
}

// TracingMiddlewareFunc wraps HTTP handler functions with OpenTelemetry tracing
func TracingMiddlewareFunc(operationName string, next http.HandlerFunc) http.Handler {
	return TracingMiddleware(operationName, next)
}
