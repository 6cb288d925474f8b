package router

import (
	"fmt"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
)

const testRoot = "app/routes"

// handlerSource returns a route file exporting the given identifiers as
// http handlers.
func handlerSource(pkg string, exports ...string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "package %s\n\nimport \"net/http\"\n\n", pkg)
	for _, name := range exports {
		if strings.HasSuffix(name, "Middleware") {
			fmt.Fprintf(&b, "var %s = map[int]int{}\n\n", name)
			continue
		}
		fmt.Fprintf(&b, "func %s(w http.ResponseWriter, r *http.Request) {}\n\n", name)
	}
	return b.String()
}

// newTree writes files beneath testRoot in a fresh in-memory filesystem.
func newTree(t *testing.T, files map[string]string) billy.Filesystem {
	t.Helper()
	fs := memfs.New()
	if err := fs.MkdirAll(testRoot, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	for name, content := range files {
		if err := util.WriteFile(fs, fs.Join(testRoot, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	return fs
}

// getTree builds a tree where every file exports GET.
func getTree(t *testing.T, rels ...string) billy.Filesystem {
	t.Helper()
	files := make(map[string]string, len(rels))
	for _, rel := range rels {
		files[rel] = handlerSource("routes", "GET")
	}
	return newTree(t, files)
}

func compileTree(t *testing.T, fs billy.Filesystem) (*Table, error) {
	t.Helper()
	c, err := NewCompiler(Options{FS: fs, Root: testRoot})
	if err != nil {
		t.Fatalf("NewCompiler: %v", err)
	}
	return c.Compile(t.Context())
}
