package router

import (
	"strings"

	"github.com/vango-dev/routec/pkg/routepath"
)

// Table is an ordered, conflict-free list of routes. The order is the
// match order: the first route whose pattern matches a URL handles it.
// A Table is never modified after construction.
type Table struct {
	routes []CompiledRoute
}

// NewTable wraps routes that have already been validated and ranked.
func NewTable(routes []CompiledRoute) *Table {
	return &Table{routes: routes}
}

// Routes returns the routes in match order. Callers must not modify it.
func (t *Table) Routes() []CompiledRoute {
	if t == nil {
		return nil
	}
	return t.routes
}

// Len returns the number of routes.
func (t *Table) Len() int { return len(t.Routes()) }

// Patterns returns the route patterns in match order.
func (t *Table) Patterns() []string {
	out := make([]string, 0, t.Len())
	for _, r := range t.Routes() {
		out = append(out, r.Pattern)
	}
	return out
}

// Lookup returns the first route matching path, with its decoded
// parameters. The path must already be canonical. A catch-all captures one
// or more trailing segments, joined with "/".
func (t *Table) Lookup(path string) (*CompiledRoute, map[string]string, bool) {
	segs := routepath.SplitPath(path)
	for i := range t.Routes() {
		r := &t.routes[i]
		if params, ok := match(r.Segments, segs); ok {
			return r, params, true
		}
	}
	return nil, nil, false
}

func match(pattern []PathSegment, segs []string) (map[string]string, bool) {
	params := make(map[string]string)
	for i, p := range pattern {
		if p.Kind == CatchAll {
			if i >= len(segs) {
				return nil, false
			}
			rest := make([]string, 0, len(segs)-i)
			for _, s := range segs[i:] {
				d, err := routepath.DecodeSegment(s, true)
				if err != nil {
					return nil, false
				}
				rest = append(rest, d)
			}
			params[p.Value] = strings.Join(rest, "/")
			return params, true
		}
		if i >= len(segs) {
			return nil, false
		}
		switch p.Kind {
		case Static:
			if segs[i] != p.Value {
				return nil, false
			}
		case Dynamic:
			d, err := routepath.DecodeSegment(segs[i], false)
			if err != nil {
				return nil, false
			}
			params[p.Value] = d
		}
	}
	if len(pattern) != len(segs) {
		return nil, false
	}
	return params, true
}
