package router

import (
	"path"
	"strings"

	routecerrors "github.com/vango-dev/routec/internal/errors"
)

// ClassifySegment classifies one path component:
//
//	[...name] → CatchAll(name)
//	[name]    → Dynamic(name)
//	literal   → Static(literal)
//
// Parameter names must be Go-style identifiers, and a static literal may not
// contain brackets.
func ClassifySegment(component string) (PathSegment, error) {
	if component == "" {
		return PathSegment{}, routecerrors.New("E107").WithDetail("empty path component")
	}

	if strings.HasPrefix(component, "[") && strings.HasSuffix(component, "]") {
		inner := component[1 : len(component)-1]
		kind := Dynamic
		if rest, ok := strings.CutPrefix(inner, "..."); ok {
			kind = CatchAll
			inner = rest
		}
		if !isIdentifier(inner) {
			return PathSegment{}, routecerrors.New("E107").
				WithDetail(component + ": parameter name must be an identifier").
				WithSuggestion("Use letters, digits and underscores, e.g. [id] or [...path]")
		}
		return PathSegment{Kind: kind, Value: inner}, nil
	}

	if strings.ContainsAny(component, "[]") {
		return PathSegment{}, routecerrors.New("E107").
			WithDetail(component + ": unbalanced brackets")
	}
	return PathSegment{Kind: Static, Value: component}, nil
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// CompilePath compiles a file path relative to the routes root into its
// segments. The extension is stripped and a trailing "index" component
// contributes no segment, so "users/index.go" and "users.go" compile alike.
func CompilePath(rel string) ([]PathSegment, error) {
	rel = strings.ReplaceAll(rel, "\\", "/")
	rel = strings.TrimSuffix(rel, path.Ext(rel))

	components := strings.Split(rel, "/")
	if components[len(components)-1] == "index" {
		components = components[:len(components)-1]
	}

	segments := make([]PathSegment, 0, len(components))
	seen := make(map[string]bool)
	for i, c := range components {
		seg, err := ClassifySegment(c)
		if err != nil {
			return nil, err
		}
		if seg.Kind == CatchAll && i != len(components)-1 {
			return nil, routecerrors.New("E106").
				WithDetail(c + " is followed by " + strings.Join(components[i+1:], "/")).
				WithSuggestion("Move the file to " + strings.Join(components[:i+1], "/") + ".go")
		}
		if seg.Kind != Static {
			if seen[seg.Value] {
				return nil, routecerrors.New("E108").
					WithDetail("parameter " + seg.Value + " appears more than once")
			}
			seen[seg.Value] = true
		}
		segments = append(segments, seg)
	}
	return segments, nil
}

// Pattern renders segments as a URL pattern: static literals, ":name" for
// dynamic segments and "*" for a trailing catch-all.
func Pattern(segments []PathSegment) string {
	return render(segments, func(s PathSegment) string { return ":" + s.Value })
}

// ConflictShape renders segments with anonymous parameters. Two routes with
// the same shape match exactly the same URLs.
func ConflictShape(segments []PathSegment) string {
	return render(segments, func(PathSegment) string { return ":param" })
}

func render(segments []PathSegment, param func(PathSegment) string) string {
	parts := make([]string, len(segments))
	for i, s := range segments {
		switch s.Kind {
		case Static:
			parts[i] = s.Value
		case Dynamic:
			parts[i] = param(s)
		case CatchAll:
			parts[i] = "*"
		}
	}
	return "/" + strings.Join(parts, "/")
}

// CompileRoute compiles f into a route and computes its sort key.
func CompileRoute(f RouteFile) (CompiledRoute, error) {
	segments, err := CompilePath(f.RelPath)
	if err != nil {
		if re, ok := err.(*routecerrors.Error); ok {
			return CompiledRoute{}, re.WithFiles(f.RelPath)
		}
		return CompiledRoute{}, err
	}

	r := CompiledRoute{
		File:     f,
		Segments: segments,
		Pattern:  Pattern(segments),
		Params:   []string{},
	}
	kind := Static
	for _, s := range segments {
		if s.Kind != Static {
			r.Params = append(r.Params, s.Value)
		}
		if s.Kind > kind {
			kind = s.Kind
		}
	}
	r.Key = SortKey{Kind: kind, Depth: len(segments), Pattern: r.Pattern}
	return r, nil
}
