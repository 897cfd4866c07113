package testutil

import (
	"context"
	"net/http"
	"time"

	"ontoreg/pkg/requestcontext"
)

// WithFrozenTime pins the request-scoped clock so assertions on stamped
// timestamps are exact.
func WithFrozenTime(req *http.Request, t time.Time) *http.Request {
	return req.WithContext(requestcontext.WithTime(req.Context(), t))
}

// WithRequestID injects a request ID, simulating the RequestID middleware.
func WithRequestID(req *http.Request, requestID string) *http.Request {
	return req.WithContext(requestcontext.WithRequestID(req.Context(), requestID))
}

// FrozenContext returns a context carrying the given time, for service-level
// tests that bypass HTTP.
func FrozenContext(t time.Time) context.Context {
	return requestcontext.WithTime(context.Background(), t)
}
