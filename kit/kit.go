// CLAUDE:SUMMARY Endpoint abstraction and request-scoped context keys shared across tool transports.
// Package kit provides the transport-neutral endpoint abstraction used to
// expose prospect operations over MCP.
package kit

import "context"

// Endpoint is a transport-neutral operation: typed request in, typed
// response out. Transports (MCP, future HTTP) adapt their wire format to
// this signature.
type Endpoint func(ctx context.Context, request any) (any, error)

// Middleware wraps an Endpoint with cross-cutting behaviour.
type Middleware func(Endpoint) Endpoint

// Chain composes middlewares left-to-right: the first middleware is the
// outermost wrapper.
func Chain(mws ...Middleware) Middleware {
	return func(next Endpoint) Endpoint {
		for i := len(mws) - 1; i >= 0; i-- {
			next = mws[i](next)
		}
		return next
	}
}

type contextKey string

const (
	// RequestIDKey carries the per-call request ID.
	RequestIDKey contextKey = "kit_request_id"
	// TransportKey carries the transport name ("mcp", "cli").
	TransportKey contextKey = "kit_transport"
)

// WithRequestID attaches a request ID to the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// GetRequestID returns the request ID from the context, or "".
func GetRequestID(ctx context.Context) string {
	v, _ := ctx.Value(RequestIDKey).(string)
	return v
}

// WithTransport attaches the transport name to the context.
func WithTransport(ctx context.Context, t string) context.Context {
	return context.WithValue(ctx, TransportKey, t)
}

// GetTransport returns the transport name from the context, or "cli".
func GetTransport(ctx context.Context) string {
	if v, ok := ctx.Value(TransportKey).(string); ok {
		return v
	}
	return "cli"
}
