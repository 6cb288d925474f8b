package emit

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"golang.org/x/mod/module"
	"mvdan.cc/gofumpt/format"

	routecerrors "github.com/vango-dev/routec/internal/errors"
	"github.com/vango-dev/routec/pkg/route"
	"github.com/vango-dev/routec/pkg/routepath"
	"github.com/vango-dev/routec/pkg/router"
)

// GeneratedHeader is the first line of every static artifact.
const GeneratedHeader = "// Code generated by routec. DO NOT EDIT."

// StaticEmitter generates a Go file with one Register function. Every
// exported method of every route is registered, in table order and then
// canonical method order.
type StaticEmitter struct {
	Target Target
}

// Mode implements Emitter.
func (e *StaticEmitter) Mode() Mode { return ModeStatic }

var staticTemplate = template.Must(template.New("routes").Parse(GeneratedHeader + `

package {{.Package}}

import (
{{- if .Hints}}
	"net/http"
{{end}}
	"github.com/vango-dev/routec/pkg/route"
{{- if .Imports}}
{{range .Imports}}
	{{.Alias}} "{{.Path}}"
{{- end}}
{{- end}}
)
{{if .Hints}}
var (
{{- range .Hints}}
	_ {{.Type}} = {{.Expr}}
{{- end}}
)
{{end}}
// Register registers every route on r in match order.
func Register(r route.Router) {
{{- range .Calls}}
	route.Handle(r, route.{{.Method}}, {{printf "%q" .Pattern}}, {{.Handler}}, {{.Middleware}})
{{- end}}
}
`))

type staticImport struct {
	Alias string
	Path  string
}

type staticCall struct {
	Method     string
	Pattern    string
	Handler    string
	Middleware string
}

type staticHint struct {
	Type string
	Expr string
}

// staticData feeds staticTemplate. The http import and the hint block are
// rendered only when Hints is non-empty, so an empty table still compiles.
type staticData struct {
	Package string
	Imports []staticImport
	Hints   []staticHint
	Calls   []staticCall
}

// Emit implements Emitter.
func (e *StaticEmitter) Emit(table *router.Table) (Artifact, error) {
	t := e.Target
	data := staticData{Package: t.packageName()}

	aliases := make(map[string]string) // import path → alias
	used := map[string]bool{"route": true, "http": true, "r": true}

	for _, r := range table.Routes() {
		qual, err := e.qualifier(r.File, aliases, used, &data)
		if err != nil {
			return Artifact{}, err
		}

		mw := "nil"
		if r.File.HasMiddleware() {
			mw = qual + r.File.Middleware
		}
		pattern := t.Dialect.Format(r.Pattern, r.CatchAllParam())

		for _, m := range r.File.Methods.Slice() {
			handler := qual + r.File.Handler(m)
			data.Calls = append(data.Calls, staticCall{
				Method:     m.String(),
				Pattern:    pattern,
				Handler:    handler,
				Middleware: mw,
			})
			if t.TypeHints {
				data.Hints = append(data.Hints, staticHint{Type: "http.HandlerFunc", Expr: handler})
			}
		}
		if t.TypeHints && r.File.HasMiddleware() {
			data.Hints = append(data.Hints, staticHint{Type: "route.MethodMiddleware", Expr: mw})
		}
	}

	sort.Slice(data.Imports, func(i, j int) bool { return data.Imports[i].Path < data.Imports[j].Path })

	var buf bytes.Buffer
	if err := staticTemplate.Execute(&buf, data); err != nil {
		return Artifact{}, fmt.Errorf("render routes: %w", err)
	}
	src, err := format.Source(buf.Bytes(), format.Options{})
	if err != nil {
		return Artifact{}, fmt.Errorf("format generated routes: %w", err)
	}
	return Artifact{Mode: ModeStatic, Content: src}, nil
}

// qualifier returns the selector prefix for identifiers of f's package,
// adding an import when needed. Files in the generated file's own package
// are referenced unqualified.
func (e *StaticEmitter) qualifier(f router.RouteFile, aliases map[string]string, used map[string]bool, data *staticData) (string, error) {
	t := e.Target
	if f.Dir == t.OutputDir {
		if f.Package != t.packageName() {
			return "", routecerrors.New("E132").
				WithFiles(f.RelPath).
				WithDetail(fmt.Sprintf("package %s shares a directory with generated package %s", f.Package, t.packageName())).
				WithSuggestion("Set \"package\" in routec.json to " + f.Package)
		}
		return "", nil
	}

	importPath := t.importPath(f)
	if alias, ok := aliases[importPath]; ok {
		return alias + ".", nil
	}
	if err := module.CheckImportPath(importPath); err != nil {
		return "", routecerrors.New("E132").
			WithFiles(f.RelPath).
			WithDetail(importPath).
			WithSuggestion("Directory names such as [id] cannot be imported; use dynamic mode or keep parameter files in an importable directory").
			Wrap(err)
	}

	alias := importAlias(f.Dir)
	for base, n := alias, 2; used[alias]; n++ {
		alias = fmt.Sprintf("%s%d", base, n)
	}
	used[alias] = true
	aliases[importPath] = alias
	data.Imports = append(data.Imports, staticImport{Alias: alias, Path: importPath})
	return alias + ".", nil
}

// importAlias derives an identifier from a slash-separated directory:
// "api/v1" → "api_v1".
func importAlias(dir string) string {
	if dir == "" {
		return "root"
	}
	var b strings.Builder
	for _, c := range dir {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_':
			b.WriteRune(c)
		default:
			b.WriteByte('_')
		}
	}
	alias := b.String()
	if alias[0] >= '0' && alias[0] <= '9' {
		alias = "_" + alias
	}
	return alias
}

// Registration is one route.Handle call of a static artifact. Handler is
// the exported identifier without its package qualifier.
type Registration struct {
	Method  route.Method
	Pattern string
	Handler string
}

// Registrations lists the calls the static emitter produces for table.
func Registrations(table *router.Table, dialect routepath.Dialect) []Registration {
	var out []Registration
	for _, r := range table.Routes() {
		pattern := dialect.Format(r.Pattern, r.CatchAllParam())
		for _, m := range r.File.Methods.Slice() {
			out = append(out, Registration{Method: m, Pattern: pattern, Handler: r.File.Handler(m)})
		}
	}
	return out
}
