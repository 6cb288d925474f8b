package router

import (
	"fmt"
	"strings"

	"github.com/vango-dev/routec/pkg/routepath"
)

// ErrorDialectConflict indicates two routes the host router cannot hold
// together, although their URL sets differ.
// Example: users/[id].go and users/[...path].go under gin
const ErrorDialectConflict ValidationErrorType = "DIALECT_CONFLICT"

// ForDialect makes Validate also reject route shapes that d cannot
// register. chi and mux accept every table; gin does not.
func (v *Validator) ForDialect(d routepath.Dialect) *Validator {
	v.dialect = d
	return v
}

// ginChild is one route's segment below a shared prefix.
type ginChild struct {
	seg  string // rendered as gin spells it: literal, :name or *name
	kind SegmentKind
	file string
}

// validateGin reports shapes that make gin's radix tree panic on
// registration:
//   - a catch-all beside any other segment at the same position
//   - two parameters with different names at the same position
//   - a catch-all directly under the root when "/" is also a route
func (v *Validator) validateGin() {
	children := make(map[string][]ginChild)
	var prefixes []string
	rootFile := ""

	for _, r := range v.routes {
		if len(r.Segments) == 0 {
			rootFile = r.File.RelPath
		}
		var prefix strings.Builder
		for _, s := range r.Segments {
			key := prefix.String()
			if _, ok := children[key]; !ok {
				prefixes = append(prefixes, key)
			}
			c := ginChild{seg: ginSegment(s), kind: s.Kind, file: r.File.RelPath}
			children[key] = append(children[key], c)
			prefix.WriteString("/" + c.seg)
		}
	}

	for _, key := range prefixes {
		cs := children[key]
		var param, catchAll *ginChild
		for i := range cs {
			c := &cs[i]
			switch c.kind {
			case CatchAll:
				if catchAll == nil {
					catchAll = c
				}
			case Dynamic:
				if param == nil {
					param = c
				} else if param.seg != c.seg {
					v.dialectConflict(key, param, c, "parameters "+param.seg+" and "+c.seg+" share one position")
				}
			}
		}
		if catchAll == nil {
			continue
		}
		for i := range cs {
			c := &cs[i]
			if c.seg != catchAll.seg {
				v.dialectConflict(key, catchAll, c, "catch-all "+catchAll.seg+" has sibling "+c.seg)
				break
			}
		}
		if key == "" && rootFile != "" {
			v.dialectConflict(key, catchAll, &ginChild{seg: "", file: rootFile}, "catch-all "+catchAll.seg+" under the root route")
		}
	}
}

func (v *Validator) dialectConflict(prefix string, a, b *ginChild, detail string) {
	files := []string{a.file, b.file}
	if files[1] < files[0] {
		files[0], files[1] = files[1], files[0]
	}
	pattern := prefix + "/" + a.seg
	v.errors = append(v.errors, ValidationError{
		Type:    ErrorDialectConflict,
		Message: fmt.Sprintf("Routes under %s cannot be registered on %s", prefix+"/", v.dialect),
		Pattern: pattern,
		Files:   files,
		Details: detail,
	})
}

func ginSegment(s PathSegment) string {
	switch s.Kind {
	case Dynamic:
		return ":" + s.Value
	case CatchAll:
		return "*" + s.Value
	}
	return s.Value
}
