package emit

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/require"

	"github.com/vango-dev/routec/pkg/router"
)

const (
	testRoot   = "app/routes"
	testImport = "example.com/shop/app/routes"
)

// routeSource returns a Go file in pkg exporting the given names.
func routeSource(pkg string, exports ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "package %s\n\nimport \"net/http\"\n\n", pkg)
	for _, name := range exports {
		if strings.HasSuffix(name, "Middleware") {
			fmt.Fprintf(&b, "var %s = route.MethodMiddleware{}\n\n", name)
			continue
		}
		fmt.Fprintf(&b, "func %s(w http.ResponseWriter, r *http.Request) {}\n\n", name)
	}
	return b.String()
}

func writeTree(t *testing.T, files map[string]string) billy.Filesystem {
	t.Helper()
	fs := memfs.New()
	for name, content := range files {
		require.NoError(t, util.WriteFile(fs, testRoot+"/"+name, []byte(content), 0o644))
	}
	return fs
}

func compileTable(t *testing.T, fs billy.Filesystem) *router.Table {
	t.Helper()
	c, err := router.NewCompiler(router.Options{FS: fs, Root: testRoot})
	require.NoError(t, err)
	table, err := c.Compile(context.Background())
	require.NoError(t, err)
	return table
}

// scenarioTree is the canonical five-route tree.
func scenarioTree(t *testing.T) billy.Filesystem {
	return writeTree(t, map[string]string{
		"index.go":           routeSource("routes", "GET"),
		"about.go":           routeSource("routes", "AboutGET"),
		"users/index.go":     routeSource("users", "ListGET", "ListPOST"),
		"users/[id].go":      routeSource("users", "ShowGET", "ShowDELETE", "ShowMiddleware"),
		"users/[...path].go": routeSource("users", "FilesGET"),
	})
}
