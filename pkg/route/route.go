package route

import "net/http"

// Middleware wraps a handler.
type Middleware = func(http.Handler) http.Handler

// MethodMiddleware maps a method to the middleware applied to its handler.
// The first entry is the outermost wrapper.
type MethodMiddleware map[Method][]Middleware

// Module is the structured value a route module exposes to the runtime
// registrar: handlers keyed by method, plus optional per-method middleware.
type Module struct {
	Handlers   map[Method]http.Handler
	Middleware MethodMiddleware
}

// Router is the registration surface of a host router. chi.Router satisfies
// it directly; see package registrar for net/http and gin adapters.
type Router interface {
	Method(method, pattern string, h http.Handler)
}

// Wrap applies the middleware registered for m to h.
func (mm MethodMiddleware) Wrap(m Method, h http.Handler) http.Handler {
	chain := mm[m]
	for i := len(chain) - 1; i >= 0; i-- {
		h = chain[i](h)
	}
	return h
}

// Handle registers h for m at pattern, wrapped with the middleware mm
// declares for m. Generated registration code calls Handle once per method.
func Handle(r Router, m Method, pattern string, h http.HandlerFunc, mm MethodMiddleware) {
	r.Method(m.String(), pattern, mm.Wrap(m, h))
}

// Instrument wraps the handler registered for method at pattern. Unlike a
// Middleware it sees the route it serves, so it can label telemetry with
// the pattern instead of the request path.
type Instrument func(method, pattern string, h http.Handler) http.Handler

// Instrumented returns a Router that wraps every registered handler with
// ins before passing it to r. The first instrument is the outermost.
func Instrumented(r Router, ins ...Instrument) Router {
	if len(ins) == 0 {
		return r
	}
	return instrumented{next: r, ins: ins}
}

type instrumented struct {
	next Router
	ins  []Instrument
}

func (i instrumented) Method(method, pattern string, h http.Handler) {
	for j := len(i.ins) - 1; j >= 0; j-- {
		h = i.ins[j](method, pattern, h)
	}
	i.next.Method(method, pattern, h)
}
