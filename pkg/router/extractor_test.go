package router

import (
	"context"
	"testing"

	"github.com/go-git/go-billy/v5/util"

	routecerrors "github.com/vango-dev/routec/internal/errors"
	"github.com/vango-dev/routec/pkg/route"
)

func extractOne(t *testing.T, src string) (RouteFile, bool, error) {
	t.Helper()
	fs := newTree(t, map[string]string{"users/[id].go": src})
	s, _ := NewScanner(fs, ScanOptions{Root: testRoot})
	candidates, err := s.Scan(context.Background())
	if err != nil || len(candidates) != 1 {
		t.Fatalf("Scan() = %v, %v", candidates, err)
	}
	x, err := NewExtractor(fs, 0, nil)
	if err != nil {
		t.Fatalf("NewExtractor() error: %v", err)
	}
	return x.Extract(candidates[0])
}

func TestExtractMethods(t *testing.T) {
	tests := []struct {
		name       string
		exports    []string
		included   bool
		methods    []route.Method
		prefix     string
		middleware string
	}{
		{"get only", []string{"GET"}, true, []route.Method{route.GET}, "", ""},
		{"post only", []string{"POST"}, true, []route.Method{route.POST}, "", ""},
		{"get and delete", []string{"DELETE", "GET"}, true, []route.Method{route.GET, route.DELETE}, "", ""},
		{"all seven", []string{"OPTIONS", "HEAD", "PATCH", "DELETE", "PUT", "POST", "GET"}, true, route.Methods, "", ""},
		{"put only is excluded", []string{"PUT"}, false, nil, "", ""},
		{"helpers only", []string{"Helper", "Format"}, false, nil, "", ""},
		{"prefixed", []string{"UserGET", "UserPATCH"}, true, []route.Method{route.GET, route.PATCH}, "User", ""},
		{"prefixed with digit", []string{"V2GET"}, true, []route.Method{route.GET}, "V2", ""},
		{"not a handler suffix", []string{"TARGET", "POST"}, true, []route.Method{route.POST}, "", ""},
		{"middleware", []string{"GET", "Middleware"}, true, []route.Method{route.GET}, "", "Middleware"},
		{"prefixed middleware", []string{"UserGET", "UserMiddleware"}, true, []route.Method{route.GET}, "User", "UserMiddleware"},
		{"middleware of another prefix", []string{"UserGET", "Middleware"}, true, []route.Method{route.GET}, "User", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, ok, err := extractOne(t, handlerSource("users", tt.exports...))
			if err != nil {
				t.Fatalf("Extract() error: %v", err)
			}
			if ok != tt.included {
				t.Fatalf("included = %v, want %v", ok, tt.included)
			}
			if !ok {
				return
			}
			if got := f.Methods.Slice(); !equalMethods(got, tt.methods) {
				t.Errorf("Methods = %v, want %v", got, tt.methods)
			}
			if f.Prefix != tt.prefix {
				t.Errorf("Prefix = %q, want %q", f.Prefix, tt.prefix)
			}
			if f.Middleware != tt.middleware {
				t.Errorf("Middleware = %q, want %q", f.Middleware, tt.middleware)
			}
			if f.Package != "users" || f.Dir != "users" || f.RelPath != "users/[id].go" {
				t.Errorf("file = %+v", f)
			}
		})
	}
}

func equalMethods(a, b []route.Method) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestExtractVarHandlers(t *testing.T) {
	src := `package users

import "net/http"

var GET = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})

var (
	POST, PUT = handler, handler
	internal  = handler
)

func handler(w http.ResponseWriter, r *http.Request) {}

type T struct{}

// Methods on types are not handler exports.
func (T) DELETE() {}
`
	f, ok, err := extractOne(t, src)
	if err != nil || !ok {
		t.Fatalf("Extract() = %v, %v", ok, err)
	}
	want := []route.Method{route.GET, route.POST, route.PUT}
	if got := f.Methods.Slice(); !equalMethods(got, want) {
		t.Errorf("Methods = %v, want %v", got, want)
	}
}

func TestExtractAmbiguous(t *testing.T) {
	tests := []struct {
		name    string
		exports []string
	}{
		{"bare and prefixed", []string{"GET", "UsersGET"}},
		{"two prefixes", []string{"UsersGET", "PostsPOST"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := extractOne(t, handlerSource("users", tt.exports...))
			if !routecerrors.HasCode(err, "E105") {
				t.Fatalf("Extract() error = %v, want E105", err)
			}
		})
	}
}

func TestExtractParseError(t *testing.T) {
	_, _, err := extractOne(t, "package users\n\nfunc GET( {\n")
	if !routecerrors.HasCode(err, "E103") {
		t.Fatalf("Extract() error = %v, want E103", err)
	}
	var re *routecerrors.Error
	if !asError(err, &re) || re.Location == nil || re.Location.Line != 3 {
		t.Errorf("error should carry the parse location, got %+v", re)
	}
}

func TestExtractCacheInvalidation(t *testing.T) {
	fs := newTree(t, map[string]string{"about.go": handlerSource("routes", "GET")})
	s, _ := NewScanner(fs, ScanOptions{Root: testRoot})
	x, _ := NewExtractor(fs, 8, nil)

	scanOne := func() Candidate {
		cs, err := s.Scan(context.Background())
		if err != nil || len(cs) != 1 {
			t.Fatalf("Scan() = %v, %v", cs, err)
		}
		return cs[0]
	}

	f, ok, err := x.Extract(scanOne())
	if err != nil || !ok || f.Methods != route.NewMethodSet(route.GET) {
		t.Fatalf("first Extract() = %+v, %v, %v", f, ok, err)
	}

	// Changed contents invalidate the cached entry.
	src := handlerSource("routes", "GET", "POST", "DELETE")
	if err := util.WriteFile(fs, testRoot+"/about.go", []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	f, ok, err = x.Extract(scanOne())
	if err != nil || !ok {
		t.Fatalf("second Extract() = %v, %v", ok, err)
	}
	if want := route.NewMethodSet(route.GET, route.POST, route.DELETE); f.Methods != want {
		t.Errorf("Methods = %v, want %v", f.Methods, want)
	}
}

func TestExtractCacheSameSizeEdit(t *testing.T) {
	fs := newTree(t, map[string]string{"about.go": handlerSource("routes", "GET")})
	s, _ := NewScanner(fs, ScanOptions{Root: testRoot})
	x, _ := NewExtractor(fs, 8, nil)

	cs, err := s.Scan(context.Background())
	if err != nil || len(cs) != 1 {
		t.Fatalf("Scan() = %v, %v", cs, err)
	}
	c := cs[0]
	if _, ok, err := x.Extract(c); err != nil || !ok {
		t.Fatalf("first Extract() = %v, %v", ok, err)
	}

	// Same length, and the candidate still reports the old revision, as
	// when the edit lands within one mtime tick.
	src := handlerSource("routes", "PUT")
	if len(src) != len(handlerSource("routes", "GET")) {
		t.Fatal("edit must keep the file size")
	}
	if err := util.WriteFile(fs, testRoot+"/about.go", []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	f, ok, err := x.Extract(c)
	if err != nil {
		t.Fatalf("second Extract() error: %v", err)
	}
	if ok {
		t.Errorf("PUT-only file should be excluded, got %+v", f)
	}
}

func TestExtractUnreadable(t *testing.T) {
	fs := newTree(t, map[string]string{"about.go": handlerSource("routes", "GET")})
	x, _ := NewExtractor(fs, 8, nil)
	_, _, err := x.Extract(Candidate{RelPath: "gone.go", FSPath: testRoot + "/gone.go"})
	if !routecerrors.HasCode(err, "E103") {
		t.Errorf("Extract() error = %v, want E103", err)
	}
}
