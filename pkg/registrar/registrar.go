package registrar

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	routecerrors "github.com/vango-dev/routec/internal/errors"
	"github.com/vango-dev/routec/pkg/emit"
	"github.com/vango-dev/routec/pkg/route"
	"github.com/vango-dev/routec/pkg/routepath"
)

// Loader resolves a manifest locator to a route module.
type Loader interface {
	Load(ctx context.Context, locator string) (route.Module, error)
}

// LoaderFunc adapts a function to Loader.
type LoaderFunc func(ctx context.Context, locator string) (route.Module, error)

// Load implements Loader.
func (f LoaderFunc) Load(ctx context.Context, locator string) (route.Module, error) {
	return f(ctx, locator)
}

// registered lists the methods the registrar serves, in registration order.
var registered = []route.Method{route.GET, route.POST}

// Registrar registers manifest routes through a Loader.
type Registrar struct {
	Loader  Loader
	Dialect routepath.Dialect

	// Instruments wrap every registered handler, outside the module's own
	// middleware. See package middleware.
	Instruments []route.Instrument

	Logger *slog.Logger
}

// Register loads every module of m in order and registers its routes on r.
// Modules are loaded one at a time. The first load failure, or the first
// pattern the host router rejects (E142), stops registration and is
// returned; routes registered before it stay registered.
func (g *Registrar) Register(ctx context.Context, r route.Router, m *emit.Manifest) error {
	log := g.Logger
	if log == nil {
		log = slog.Default()
	}

	ctx, span := otel.Tracer("routec").Start(ctx, "routec.register")
	defer span.End()
	span.SetAttributes(attribute.Int("routec.routes", len(m.Routes)))

	r = route.Instrumented(r, g.Instruments...)

	for _, e := range m.Routes {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := g.register(ctx, r, e, log); err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "register")
			return err
		}
	}
	return nil
}

func (g *Registrar) register(ctx context.Context, r route.Router, e emit.ManifestEntry, log *slog.Logger) error {
	mod, err := g.Loader.Load(ctx, e.Locator)
	if err != nil {
		return routecerrors.New("E140").
			WithDetail(e.Locator).
			WithFiles(e.File).
			WithPattern(e.Pattern).
			Wrap(err)
	}

	pattern := e.DialectPattern(g.Dialect)
	n := 0
	for _, m := range registered {
		h := mod.Handlers[m]
		if h == nil {
			continue
		}
		if err := handle(r, m.String(), pattern, mod.Middleware.Wrap(m, h)); err != nil {
			return err.WithFiles(e.File)
		}
		log.Debug("registered route", "method", m, "pattern", pattern, "locator", e.Locator)
		n++
	}
	if n == 0 {
		return routecerrors.New("E141").
			WithDetail(e.Locator).
			WithFiles(e.File).
			WithPattern(e.Pattern).
			WithSuggestion(fmt.Sprintf("Export %sGET or %sPOST from %s", prefixOf(e.Locator), prefixOf(e.Locator), e.File))
	}
	return nil
}

// handle registers h on r. Host routers report conflicting patterns by
// panicking (gin and net/http.ServeMux both do); the panic becomes E142.
func handle(r route.Router, method, pattern string, h http.Handler) (err *routecerrors.Error) {
	defer func() {
		if p := recover(); p != nil {
			err = routecerrors.New("E142").
				WithPattern(pattern).
				WithDetail(fmt.Sprintf("%s %s: %v", method, pattern, p)).
				WithSuggestion("Pick a dialect whose router accepts this table, or rename the conflicting route files")
		}
	}()
	r.Method(method, pattern, h)
	return nil
}

func prefixOf(locator string) string {
	_, prefix := emit.SplitLocator(locator)
	return prefix
}

// Register is shorthand for a Registrar with the default logger.
func Register(ctx context.Context, r route.Router, m *emit.Manifest, l Loader, dialect routepath.Dialect) error {
	g := &Registrar{Loader: l, Dialect: dialect}
	return g.Register(ctx, r, m)
}
