package dev

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/routec/pkg/emit"
	"github.com/vango-dev/routec/pkg/router"
	"github.com/vango-dev/routec/pkg/routepath"
)

const (
	testRoot   = "app/routes"
	testImport = "example.com/shop/app/routes"
)

func routeSource(pkg string, exports ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "package %s\n\nimport \"net/http\"\n\n", pkg)
	for _, name := range exports {
		fmt.Fprintf(&b, "func %s(w http.ResponseWriter, r *http.Request) {}\n\n", name)
	}
	return b.String()
}

func writeFile(t *testing.T, fs billy.Filesystem, name, content string) {
	t.Helper()
	require.NoError(t, util.WriteFile(fs, testRoot+"/"+name, []byte(content), 0o644))
}

func scenarioFS(t *testing.T) billy.Filesystem {
	fs := memfs.New()
	writeFile(t, fs, "index.go", routeSource("routes", "GET"))
	writeFile(t, fs, "about.go", routeSource("routes", "AboutGET"))
	writeFile(t, fs, "users/index.go", routeSource("users", "ListGET", "ListPOST"))
	writeFile(t, fs, "users/[id].go", routeSource("users", "ShowGET", "ShowDELETE"))
	writeFile(t, fs, "users/[...path].go", routeSource("users", "FilesGET"))
	return fs
}

func testTarget() emit.Target {
	return emit.Target{ImportPath: testImport, Dialect: routepath.DialectChi}
}

// testOptions returns orchestrator options over fs with fresh metrics.
func testOptions(fs billy.Filesystem) (Options, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return Options{
		Compiler: router.Options{FS: fs, Root: testRoot},
		Emitter:  &emit.StaticEmitter{Target: testTarget()},
		Target:   testTarget(),
		Metrics:  NewMetrics(reg),
	}, reg
}

type notification struct {
	kind   string
	routes int
	msg    string
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notification
}

func (n *fakeNotifier) NotifyReload(_ string, routes int) {
	n.add(notification{kind: "reload", routes: routes})
}

func (n *fakeNotifier) NotifyError(msg string) {
	n.add(notification{kind: "error", msg: msg})
}

func (n *fakeNotifier) ClearError() {
	n.add(notification{kind: "clear"})
}

func (n *fakeNotifier) add(x notification) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, x)
}

func (n *fakeNotifier) kinds() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []string
	for _, x := range n.sent {
		out = append(out, x.kind)
	}
	return out
}
