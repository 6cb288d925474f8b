package main

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"path"
	"strings"
	"unicode"

	"github.com/go-git/go-billy/v5/util"
	"github.com/spf13/cobra"
	"mvdan.cc/gofumpt/format"

	routecerrors "github.com/vango-dev/routec/internal/errors"
	"github.com/vango-dev/routec/pkg/route"
	"github.com/vango-dev/routec/pkg/router"
)

func newCmd() *cobra.Command {
	var (
		methods []string
		prefix  string
	)

	cmd := &cobra.Command{
		Use:   "new <path>",
		Short: "Create a new route file",
		Long: `Create a route file with a stub handler for each method.

The path uses the routes directory conventions:
  index              → /
  about              → /about
  users/[id]         → /users/:id
  files/[...path]    → /files/*

Handlers are named <Prefix><METHOD>. The prefix is derived from the file
name (users/[id] → IdGET) unless --prefix is given.

Examples:
  routec new about
  routec new users/[id] --methods=GET,PUT,DELETE
  routec new users/[id] --prefix=Show`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runNew(cmd, args[0], methods, prefix)
		},
	}

	cmd.Flags().StringSliceVarP(&methods, "methods", "m", []string{"GET"}, "HTTP methods to generate")
	cmd.Flags().StringVar(&prefix, "prefix", "", "Handler name prefix")

	return cmd
}

func runNew(cmd *cobra.Command, routePath string, methodNames []string, prefix string) error {
	p, err := loadProject(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	rel := strings.TrimSuffix(strings.Trim(routePath, "/"), ".go") + ".go"
	if rel == ".go" {
		rel = "index.go"
	}
	segments, err := router.CompilePath(rel)
	if err != nil {
		return err
	}
	pattern := router.Pattern(segments)

	set := route.NewMethodSet()
	for _, name := range methodNames {
		m, ok := route.ParseMethod(strings.ToUpper(strings.TrimSpace(name)))
		if !ok {
			return routecerrors.New("E122").
				WithDetail(fmt.Sprintf("unknown method %q", name)).
				WithSuggestion("Use GET, POST, PUT, DELETE, PATCH, HEAD or OPTIONS")
		}
		set = set.Add(m)
	}
	if set.Len() == 0 {
		return routecerrors.New("E122").WithDetail("no methods given")
	}

	if prefix == "" {
		prefix = handlerPrefix(path.Base(strings.TrimSuffix(rel, ".go")))
	}
	if !validHandlerPrefix(prefix) {
		return routecerrors.New("E122").
			WithDetail(fmt.Sprintf("handler prefix %q must be exported and end in a lower-case letter or digit", prefix)).
			WithSuggestion("Pass --prefix, e.g. --prefix=Show")
	}

	routesDir := p.rel(p.cfg.RoutesPath())
	file := path.Join(routesDir, rel)
	if _, err := p.fs.Stat(file); err == nil {
		return routecerrors.New("E152").
			WithFiles(file).
			WithSuggestion("Choose a different path or remove the existing file")
	}

	dir := path.Dir(file)
	pkg := packageName(p, dir, dir == routesDir)

	src, err := format.Source([]byte(routeCode(pkg, prefix, pattern, segments, set)), format.Options{})
	if err != nil {
		return err
	}
	if err := p.fs.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	if err := util.WriteFile(p.fs, file, src, 0o644); err != nil {
		return err
	}

	success(out, "Created %s", file)
	info(out, "")
	info(out, "Run 'routec gen' to update %s", p.cfg.Output)
	return nil
}

// handlerPrefix turns a file name into an exported handler prefix:
// "[id]" → "Id", "user-profile" → "UserProfile", "index" → "Index".
func handlerPrefix(name string) string {
	name = strings.TrimPrefix(strings.Trim(name, "[]"), "...")
	parts := strings.FieldsFunc(name, func(r rune) bool {
		return r == '_' || r == '-' || r == '.' || r == ' '
	})

	var b strings.Builder
	for _, part := range parts {
		runes := []rune(part)
		runes[0] = unicode.ToUpper(runes[0])
		b.WriteString(string(runes))
	}
	s := b.String()
	if s != "" && unicode.IsDigit(rune(s[0])) {
		s = "R" + s
	}
	return s
}

// validHandlerPrefix mirrors the rule the extractor applies: the prefix is
// empty, or exported and ending in a lower-case letter or digit.
func validHandlerPrefix(p string) bool {
	if p == "" {
		return true
	}
	if !ast.IsExported(p) || !token.IsIdentifier(p) {
		return false
	}
	last := p[len(p)-1]
	return (last >= 'a' && last <= 'z') || (last >= '0' && last <= '9')
}

// packageName returns the package clause of existing Go files in dir, or
// a name derived from the directory.
func packageName(p *project, dir string, isRoot bool) string {
	if entries, err := p.fs.ReadDir(dir); err == nil {
		fset := token.NewFileSet()
		for _, e := range entries {
			if e.IsDir() || !strings.HasSuffix(e.Name(), ".go") {
				continue
			}
			src, err := util.ReadFile(p.fs, path.Join(dir, e.Name()))
			if err != nil {
				continue
			}
			f, err := parser.ParseFile(fset, e.Name(), src, parser.PackageClauseOnly)
			if err == nil {
				return f.Name.Name
			}
		}
	}

	if isRoot {
		return p.cfg.Package
	}
	name := strings.ReplaceAll(path.Base(dir), "-", "_")
	if !token.IsIdentifier(name) || token.IsKeyword(name) {
		return p.cfg.Package
	}
	return name
}

// routeCode renders a route file with one stub handler per method.
func routeCode(pkg, prefix, pattern string, segments []router.PathSegment, methods route.MethodSet) string {
	var code strings.Builder

	code.WriteString(fmt.Sprintf("package %s\n\n", pkg))
	code.WriteString("import \"net/http\"\n\n")

	for _, m := range methods.Slice() {
		name := prefix + m.String()
		code.WriteString(fmt.Sprintf("// %s handles %s %s.\n", name, m, pattern))
		code.WriteString(fmt.Sprintf("func %s(w http.ResponseWriter, r *http.Request) {\n", name))
		for _, s := range segments {
			if s.Kind != router.Static {
				code.WriteString(fmt.Sprintf("\t// %s := r.PathValue(%q)\n", s.Value, s.Value))
			}
		}
		code.WriteString("\thttp.Error(w, http.StatusText(http.StatusNotImplemented), http.StatusNotImplemented)\n")
		code.WriteString("}\n\n")
	}

	return code.String()
}
