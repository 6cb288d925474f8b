package router

import (
	"github.com/vango-dev/routec/pkg/route"
)

// Candidate is a source file found beneath the routes directory.
type Candidate struct {
	// AbsPath is the file's path on the host filesystem.
	AbsPath string

	// RelPath is the slash-separated path relative to the routes root
	// (e.g., "users/[id].go"). It is the only identity a route keeps
	// between compilation passes.
	RelPath string

	// FSPath is the path inside the scanner's filesystem.
	FSPath string

	// Size is the file size reported by the walk.
	Size int64
}

// RouteFile is a candidate that exports at least one GET or POST handler.
type RouteFile struct {
	AbsPath string
	RelPath string

	// Dir is the slash-separated directory of RelPath ("" for the root).
	Dir string

	// Package is the Go package name declared by the file.
	Package string

	// Prefix is shared by every handler export of the file: "" for GET,
	// "Users" for UsersGET.
	Prefix string

	// Methods is every method the file exports.
	Methods route.MethodSet

	// Middleware is the name of the per-method middleware export, or "".
	Middleware string
}

// HasMiddleware reports whether the file exports per-method middleware.
func (f RouteFile) HasMiddleware() bool { return f.Middleware != "" }

// Handler returns the exported identifier serving m.
func (f RouteFile) Handler(m route.Method) string { return f.Prefix + m.String() }

// SegmentKind classifies a path segment. The order of the constants is the
// specificity order: lower kinds match first.
type SegmentKind int

const (
	Static SegmentKind = iota
	Dynamic
	CatchAll
)

func (k SegmentKind) String() string {
	switch k {
	case Static:
		return "static"
	case Dynamic:
		return "dynamic"
	case CatchAll:
		return "catch-all"
	}
	return "unknown"
}

// PathSegment is one compiled path component. Value holds the literal for
// static segments and the parameter name otherwise.
type PathSegment struct {
	Kind  SegmentKind
	Value string
}

// CompiledRoute is a route file together with its compiled URL pattern.
type CompiledRoute struct {
	File     RouteFile
	Segments []PathSegment

	// Pattern is the dialect-neutral URL pattern (e.g., "/users/:id").
	Pattern string

	// Params are the parameter names in left-to-right order.
	Params []string

	// Key is computed once at compile time and drives ranking.
	Key SortKey
}

// CatchAllParam returns the name of the trailing catch-all parameter, or "".
func (r CompiledRoute) CatchAllParam() string {
	if n := len(r.Segments); n > 0 && r.Segments[n-1].Kind == CatchAll {
		return r.Segments[n-1].Value
	}
	return ""
}

// SortKey orders compiled routes by specificity.
type SortKey struct {
	// Kind is the most general segment kind present.
	Kind SegmentKind

	// Depth is the number of segments.
	Depth int

	// Pattern breaks the remaining ties.
	Pattern string
}

// Less reports whether k ranks before o.
func (k SortKey) Less(o SortKey) bool {
	if k.Kind != o.Kind {
		return k.Kind < o.Kind
	}
	if k.Depth != o.Depth {
		return k.Depth > o.Depth
	}
	return k.Pattern < o.Pattern
}
