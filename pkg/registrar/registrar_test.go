package registrar

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	routecerrors "github.com/vango-dev/routec/internal/errors"
	"github.com/vango-dev/routec/pkg/emit"
	"github.com/vango-dev/routec/pkg/middleware"
	"github.com/vango-dev/routec/pkg/route"
	"github.com/vango-dev/routec/pkg/routepath"
)

type call struct {
	method  string
	pattern string
}

type recorder struct {
	calls []call
}

func (r *recorder) Method(method, pattern string, _ http.Handler) {
	r.calls = append(r.calls, call{method, pattern})
}

func text(s string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		io.WriteString(w, s)
	})
}

// param reads a path parameter set by any host router. chi names its
// catch-all "*".
func param(r *http.Request, name, chiName string) string {
	if v := r.PathValue(name); v != "" {
		return v
	}
	return chi.URLParam(r, chiName)
}

// scenario mirrors the manifest of the five-route tree.
func scenario() (*emit.Manifest, *Catalog) {
	m := &emit.Manifest{Version: emit.ManifestVersion, Routes: []emit.ManifestEntry{
		{Pattern: "/about", Methods: []string{"GET"}, Locator: "app#About", File: "about.go"},
		{Pattern: "/users", Methods: []string{"GET", "POST"}, Locator: "app/users#List", File: "users/index.go"},
		{Pattern: "/", Methods: []string{"GET"}, Locator: "app#", File: "index.go"},
		{Pattern: "/users/:id", Params: []string{"id"}, Methods: []string{"GET", "DELETE"}, Locator: "app/users#Show", File: "users/[id].go"},
		{Pattern: "/users/*", CatchAll: "path", Methods: []string{"GET"}, Locator: "app/users#Files", File: "users/[...path].go"},
	}}

	c := NewCatalog()
	c.Provide("app#About", route.Module{Handlers: map[route.Method]http.Handler{route.GET: text("about")}})
	c.Provide("app/users#List", route.Module{Handlers: map[route.Method]http.Handler{
		route.GET:  text("list"),
		route.POST: text("create"),
	}})
	c.Provide("app#", route.Module{Handlers: map[route.Method]http.Handler{route.GET: text("home")}})
	c.Provide("app/users#Show", route.Module{Handlers: map[route.Method]http.Handler{
		route.GET: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "user "+param(r, "id", "id"))
		}),
		route.DELETE: text("delete"),
	}})
	c.Provide("app/users#Files", route.Module{Handlers: map[route.Method]http.Handler{
		route.GET: http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			io.WriteString(w, "files "+param(r, "path", "*"))
		}),
	}})
	return m, c
}

func TestRegisterOrder(t *testing.T) {
	m, c := scenario()
	rec := &recorder{}
	require.NoError(t, Register(context.Background(), rec, m, c, routepath.DialectChi))

	assert.Equal(t, []call{
		{"GET", "/about"},
		{"GET", "/users"},
		{"POST", "/users"},
		{"GET", "/"},
		{"GET", "/users/{id}"},
		{"GET", "/users/*"},
	}, rec.calls, "only GET and POST, in manifest order")
}

func TestRegisterChi(t *testing.T) {
	m, c := scenario()
	r := chi.NewRouter()
	require.NoError(t, Register(context.Background(), r, m, c, routepath.DialectChi))

	tests := []struct {
		method, path, want string
		status             int
	}{
		{"GET", "/", "home", 200},
		{"GET", "/about", "about", 200},
		{"POST", "/users", "create", 200},
		{"GET", "/users/42", "user 42", 200},
		{"GET", "/users/a/b", "files a/b", 200},
		{"DELETE", "/users/42", "", http.StatusMethodNotAllowed},
	}
	for _, tt := range tests {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(tt.method, tt.path, nil))
		assert.Equal(t, tt.status, w.Code, "%s %s", tt.method, tt.path)
		if tt.status == 200 {
			assert.Equal(t, tt.want, w.Body.String(), "%s %s", tt.method, tt.path)
		}
	}
}

func TestRegisterServeMux(t *testing.T) {
	m, c := scenario()
	mux := http.NewServeMux()
	require.NoError(t, Register(context.Background(), ServeMux(mux), m, c, routepath.DialectMux))

	tests := map[string]string{
		"/":          "home",
		"/users":     "list",
		"/users/7":   "user 7",
		"/users/x/y": "files x/y",
	}
	for path, want := range tests {
		w := httptest.NewRecorder()
		mux.ServeHTTP(w, httptest.NewRequest("GET", path, nil))
		assert.Equal(t, want, w.Body.String(), path)
	}

	w := httptest.NewRecorder()
	mux.ServeHTTP(w, httptest.NewRequest("GET", "/missing", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRegisterMiddleware(t *testing.T) {
	var order []string
	mw := func(name string) route.Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	c := NewCatalog()
	c.Provide("app#", route.Module{
		Handlers: map[route.Method]http.Handler{
			route.GET:  text("get"),
			route.POST: text("post"),
		},
		Middleware: route.MethodMiddleware{route.POST: {mw("outer"), mw("inner")}},
	})
	m := &emit.Manifest{Version: 1, Routes: []emit.ManifestEntry{{Pattern: "/", Locator: "app#"}}}

	r := chi.NewRouter()
	require.NoError(t, Register(context.Background(), r, m, c, routepath.DialectChi))

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	assert.Empty(t, order, "GET has no middleware")

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("POST", "/", nil))
	assert.Equal(t, []string{"outer", "inner"}, order)
}

func TestRegisterLoadError(t *testing.T) {
	m, c := scenario()
	m.Routes[3].Locator = "app/users#Missing"

	rec := &recorder{}
	err := Register(context.Background(), rec, m, c, routepath.DialectChi)
	require.Error(t, err)
	assert.True(t, routecerrors.HasCode(err, "E140"), "got %v", err)
	assert.ErrorContains(t, err, "app/users#Missing")

	var re *routecerrors.Error
	require.ErrorAs(t, err, &re)
	assert.Equal(t, []string{"users/[id].go"}, re.Files)
	assert.Len(t, rec.calls, 4, "entries before the failure are registered")
}

func TestRegisterLoaderErrorIsWrapped(t *testing.T) {
	boom := errors.New("boom")
	l := LoaderFunc(func(context.Context, string) (route.Module, error) { return route.Module{}, boom })
	m := &emit.Manifest{Version: 1, Routes: []emit.ManifestEntry{{Pattern: "/", Locator: "app#"}}}

	err := Register(context.Background(), &recorder{}, m, l, routepath.DialectChi)
	assert.ErrorIs(t, err, boom)
}

func TestRegisterNoGetOrPost(t *testing.T) {
	c := NewCatalog()
	c.Provide("app#Admin", route.Module{Handlers: map[route.Method]http.Handler{route.DELETE: text("x")}})
	m := &emit.Manifest{Version: 1, Routes: []emit.ManifestEntry{{Pattern: "/admin", Locator: "app#Admin", File: "admin.go"}}}

	err := Register(context.Background(), &recorder{}, m, c, routepath.DialectChi)
	assert.True(t, routecerrors.HasCode(err, "E141"), "got %v", err)

	var re *routecerrors.Error
	require.ErrorAs(t, err, &re)
	assert.Contains(t, re.Suggestion, "AdminGET")
}

func TestRegisterCanceled(t *testing.T) {
	m, c := scenario()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	rec := &recorder{}
	err := Register(ctx, rec, m, c, routepath.DialectChi)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, rec.calls)
}

func TestCatalogReplace(t *testing.T) {
	c := NewCatalog()
	c.Provide("x#", route.Module{Handlers: map[route.Method]http.Handler{route.GET: text("one")}})
	c.Provide("x#", route.Module{Handlers: map[route.Method]http.Handler{route.POST: text("two")}})

	mod, err := c.Load(context.Background(), "x#")
	require.NoError(t, err)
	assert.Nil(t, mod.Handlers[route.GET])
	assert.NotNil(t, mod.Handlers[route.POST])
}

func TestPluginLoaderErrors(t *testing.T) {
	_, err := (&PluginLoader{}).Load(context.Background(), "app#")
	assert.ErrorContains(t, err, "no Path function")

	p := &PluginLoader{Path: func(string) string { return t.TempDir() + "/missing.so" }}
	_, err = p.Load(context.Background(), "app#")
	assert.Error(t, err)
}

func TestRegisterInstruments(t *testing.T) {
	m, c := scenario()
	reg := prometheus.NewRegistry()
	metrics := middleware.NewMetrics(middleware.WithRegistry(reg))

	r := chi.NewRouter()
	g := &Registrar{Loader: c, Dialect: routepath.DialectChi, Instruments: []route.Instrument{metrics.Instrument}}
	require.NoError(t, g.Register(context.Background(), r, m))

	for _, path := range []string{"/users/1", "/users/2", "/about"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	expected := `
# HELP routec_route_requests_total Total number of requests served by a route
# TYPE routec_route_requests_total counter
routec_route_requests_total{code="200",method="GET",pattern="/about"} 1
routec_route_requests_total{code="200",method="GET",pattern="/users/{id}"} 2
`
	assert.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "routec_route_requests_total"))
}
