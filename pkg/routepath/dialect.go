package routepath

import (
	"fmt"
	"strings"
)

// Dialect names the pattern syntax of a host router.
//
// Compiled routes use a dialect-neutral form: static literals, ":name" for a
// single-segment parameter and a trailing "*" for a catch-all. Format
// rewrites that form for a specific router.
type Dialect string

const (
	// DialectChi renders {name} and a trailing /* (go-chi/chi).
	DialectChi Dialect = "chi"

	// DialectMux renders {name} and {name...} (net/http.ServeMux).
	DialectMux Dialect = "mux"

	// DialectGin renders :name and *name (gin-gonic/gin).
	DialectGin Dialect = "gin"
)

// Dialects lists the supported dialects.
var Dialects = []Dialect{DialectChi, DialectMux, DialectGin}

// ParseDialect returns the dialect named s. An empty name selects chi.
func ParseDialect(s string) (Dialect, error) {
	if s == "" {
		return DialectChi, nil
	}
	for _, d := range Dialects {
		if string(d) == strings.ToLower(s) {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown router dialect %q (want chi, mux or gin)", s)
}

// Format renders a dialect-neutral pattern for d. catchAll names the
// trailing wildcard for dialects that require a name; it defaults to "path".
func (d Dialect) Format(pattern, catchAll string) string {
	if catchAll == "" {
		catchAll = "path"
	}
	segs := SplitPath(pattern)
	if len(segs) == 0 {
		if d == DialectMux {
			// ServeMux treats a bare "/" as a subtree.
			return "/{$}"
		}
		return "/"
	}

	out := make([]string, len(segs))
	for i, seg := range segs {
		switch {
		case seg == "*":
			switch d {
			case DialectMux:
				out[i] = "{" + catchAll + "...}"
			case DialectGin:
				out[i] = "*" + catchAll
			default:
				out[i] = "*"
			}
		case strings.HasPrefix(seg, ":"):
			if d == DialectGin {
				out[i] = seg
			} else {
				out[i] = "{" + seg[1:] + "}"
			}
		default:
			out[i] = seg
		}
	}
	return "/" + strings.Join(out, "/")
}

// Canonical converts a pattern written in any supported dialect back to the
// dialect-neutral form.
func Canonical(pattern string) string {
	segs := SplitPath(pattern)
	out := make([]string, 0, len(segs))
	for _, seg := range segs {
		switch {
		case seg == "{$}":
		case strings.HasPrefix(seg, "*"):
			out = append(out, "*")
		case strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "...}"):
			out = append(out, "*")
		case strings.HasPrefix(seg, "{") && strings.HasSuffix(seg, "}"):
			out = append(out, ":"+seg[1:len(seg)-1])
		default:
			out = append(out, seg)
		}
	}
	return "/" + strings.Join(out, "/")
}
