package registrar

import (
	"context"
	"fmt"
	"net/http"
	"plugin"
	"sync"

	"github.com/vango-dev/routec/pkg/emit"
	"github.com/vango-dev/routec/pkg/route"
)

// Catalog is an in-process Loader. Modules are provided up front, usually
// from an init function in each route package.
type Catalog struct {
	mu      sync.RWMutex
	modules map[string]route.Module
}

// NewCatalog creates an empty catalog.
func NewCatalog() *Catalog {
	return &Catalog{modules: make(map[string]route.Module)}
}

// Provide makes m loadable under locator, replacing any earlier module.
func (c *Catalog) Provide(locator string, m route.Module) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.modules[locator] = m
}

// Load implements Loader.
func (c *Catalog) Load(ctx context.Context, locator string) (route.Module, error) {
	if err := ctx.Err(); err != nil {
		return route.Module{}, err
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.modules[locator]
	if !ok {
		return route.Module{}, fmt.Errorf("no module provided for %s", locator)
	}
	return m, nil
}

// PluginLoader loads route modules from Go plugins, one plugin per route
// package. Handlers are looked up as <Prefix><METHOD> and middleware as
// <Prefix>Middleware.
type PluginLoader struct {
	// Path maps an import path to the plugin file built from it.
	Path func(importPath string) string

	mu   sync.Mutex
	open map[string]*plugin.Plugin
}

// Load implements Loader.
func (p *PluginLoader) Load(ctx context.Context, locator string) (route.Module, error) {
	if err := ctx.Err(); err != nil {
		return route.Module{}, err
	}
	importPath, prefix := emit.SplitLocator(locator)
	plug, err := p.plugin(importPath)
	if err != nil {
		return route.Module{}, err
	}

	mod := route.Module{Handlers: make(map[route.Method]http.Handler)}
	for _, m := range route.Methods {
		sym, err := plug.Lookup(prefix + m.String())
		if err != nil {
			continue
		}
		switch fn := sym.(type) {
		case func(http.ResponseWriter, *http.Request):
			mod.Handlers[m] = http.HandlerFunc(fn)
		case *http.HandlerFunc:
			mod.Handlers[m] = *fn
		default:
			return route.Module{}, fmt.Errorf("%s%s has type %T, want func(http.ResponseWriter, *http.Request)", prefix, m, sym)
		}
	}

	if sym, err := plug.Lookup(prefix + "Middleware"); err == nil {
		mm, ok := sym.(*route.MethodMiddleware)
		if !ok {
			return route.Module{}, fmt.Errorf("%sMiddleware has type %T, want route.MethodMiddleware", prefix, sym)
		}
		mod.Middleware = *mm
	}
	return mod, nil
}

func (p *PluginLoader) plugin(importPath string) (*plugin.Plugin, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if plug, ok := p.open[importPath]; ok {
		return plug, nil
	}
	if p.Path == nil {
		return nil, fmt.Errorf("plugin loader has no Path function")
	}
	plug, err := plugin.Open(p.Path(importPath))
	if err != nil {
		return nil, err
	}
	if p.open == nil {
		p.open = make(map[string]*plugin.Plugin)
	}
	p.open[importPath] = plug
	return plug, nil
}
