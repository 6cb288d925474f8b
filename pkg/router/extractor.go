package router

import (
	"context"
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"log/slog"
	"strings"

	"github.com/cespare/xxhash/v2"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	lru "github.com/hashicorp/golang-lru/v2"

	routecerrors "github.com/vango-dev/routec/internal/errors"
	"github.com/vango-dev/routec/pkg/route"
)

// DefaultCacheSize bounds the number of parsed files kept between passes.
const DefaultCacheSize = 4096

// Extractor inspects candidate files for handler exports.
//
// A handler export is a top-level exported func or var named after a method
// token, either bare (GET) or behind a prefix (UsersGET) so several route
// files can share one Go package. The prefix must end in a lower-case letter
// or digit, which keeps names like TARGET from being read as handlers. The
// per-method middleware export is named Middleware with the same prefix.
type Extractor struct {
	fs    billy.Filesystem
	cache *lru.Cache[string, extraction]
	log   *slog.Logger
}

// extraction is the cached result of parsing one file revision, identified
// by the digest of its contents. Timestamps are too coarse: an edit of equal
// length within one mtime tick would otherwise be missed.
type extraction struct {
	sum        uint64
	pkg        string
	prefix     string
	methods    route.MethodSet
	middleware string
	err        error
}

// NewExtractor creates an extractor reading files from fs.
func NewExtractor(fs billy.Filesystem, cacheSize int, logger *slog.Logger) (*Extractor, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, extraction](cacheSize)
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{fs: fs, cache: cache, log: logger}, nil
}

// ExtractAll extracts every candidate and returns the eligible route files
// in candidate order. The first failing file aborts extraction.
func (e *Extractor) ExtractAll(ctx context.Context, candidates []Candidate) ([]RouteFile, error) {
	files := make([]RouteFile, 0, len(candidates))
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, ok, err := e.Extract(c)
		if err != nil {
			return nil, err
		}
		if ok {
			files = append(files, f)
		}
	}
	return files, nil
}

// Extract inspects one candidate. It reports false for files that export
// neither GET nor POST; those are not errors.
func (e *Extractor) Extract(c Candidate) (RouteFile, bool, error) {
	src, err := util.ReadFile(e.fs, c.FSPath)
	if err != nil {
		return RouteFile{}, false, routecerrors.New("E103").WithFiles(c.RelPath).Wrap(err)
	}
	sum := xxhash.Sum64(src)

	x, hit := e.cache.Get(c.FSPath)
	if !hit || x.sum != sum {
		x = e.parse(c, src)
		x.sum = sum
		e.cache.Add(c.FSPath, x)
	}
	if x.err != nil {
		return RouteFile{}, false, x.err
	}

	if !x.methods.Has(route.GET) && !x.methods.Has(route.POST) {
		e.log.Debug("excluded route file: no GET or POST export", "file", c.RelPath, "methods", x.methods.String())
		return RouteFile{}, false, nil
	}

	dir := ""
	if i := strings.LastIndex(c.RelPath, "/"); i >= 0 {
		dir = c.RelPath[:i]
	}
	return RouteFile{
		AbsPath:    c.AbsPath,
		RelPath:    c.RelPath,
		Dir:        dir,
		Package:    x.pkg,
		Prefix:     x.prefix,
		Methods:    x.methods,
		Middleware: x.middleware,
	}, true, nil
}

func (e *Extractor) parse(c Candidate, src []byte) extraction {
	var x extraction

	fset := token.NewFileSet()
	f, err := parser.ParseFile(fset, c.AbsPath, src, parser.SkipObjectResolution)
	if err != nil {
		x.err = routecerrors.New("E103").
			WithFiles(c.RelPath).
			WithLocationFromError(err).
			Wrap(err)
		return x
	}
	x.pkg = f.Name.Name

	handlers := make(map[route.Method][]string)
	var middleware []string
	for _, name := range exportedNames(f) {
		if prefix, m, ok := splitHandlerName(name); ok {
			handlers[m] = append(handlers[m], prefix)
			continue
		}
		if prefix, ok := strings.CutSuffix(name, "Middleware"); ok && validPrefix(prefix) {
			middleware = append(middleware, prefix)
		}
	}

	prefixes := make(map[string]bool)
	for _, m := range route.Methods {
		ps := handlers[m]
		if len(ps) > 1 {
			names := make([]string, len(ps))
			for i, p := range ps {
				names[i] = p + m.String()
			}
			x.err = routecerrors.New("E105").
				WithFiles(c.RelPath).
				WithDetail(fmt.Sprintf("%s are all exported for %s", strings.Join(names, ", "), m)).
				WithSuggestion("Export exactly one handler per method")
			return x
		}
		if len(ps) == 1 {
			x.methods = x.methods.Add(m)
			x.prefix = ps[0]
			prefixes[ps[0]] = true
		}
	}
	if len(prefixes) > 1 {
		x.err = routecerrors.New("E105").
			WithFiles(c.RelPath).
			WithDetail("handler exports use different prefixes").
			WithSuggestion("Split the handlers into one file per prefix")
		return x
	}

	for _, p := range middleware {
		if p == x.prefix {
			x.middleware = p + "Middleware"
		}
	}
	return x
}

// exportedNames returns the exported top-level funcs and vars of f in
// declaration order. Methods are ignored.
func exportedNames(f *ast.File) []string {
	var names []string
	for _, decl := range f.Decls {
		switch d := decl.(type) {
		case *ast.FuncDecl:
			if d.Recv == nil && d.Name.IsExported() {
				names = append(names, d.Name.Name)
			}
		case *ast.GenDecl:
			if d.Tok != token.VAR {
				continue
			}
			for _, spec := range d.Specs {
				vs, ok := spec.(*ast.ValueSpec)
				if !ok {
					continue
				}
				for _, ident := range vs.Names {
					if ident.IsExported() {
						names = append(names, ident.Name)
					}
				}
			}
		}
	}
	return names
}

// splitHandlerName splits UsersGET into ("Users", GET).
func splitHandlerName(name string) (string, route.Method, bool) {
	for _, m := range route.Methods {
		if prefix, ok := strings.CutSuffix(name, m.String()); ok && validPrefix(prefix) {
			return prefix, m, true
		}
	}
	return "", 0, false
}

func validPrefix(p string) bool {
	if p == "" {
		return true
	}
	if !ast.IsExported(p) {
		return false
	}
	last := p[len(p)-1]
	return (last >= 'a' && last <= 'z') || (last >= '0' && last <= '9')
}
