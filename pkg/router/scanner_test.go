package router

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/go-git/go-billy/v5/osfs"
	"github.com/go-git/go-billy/v5/util"

	routecerrors "github.com/vango-dev/routec/internal/errors"
)

func relPaths(cs []Candidate) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.RelPath
	}
	return out
}

func TestScannerScan(t *testing.T) {
	fs := newTree(t, map[string]string{
		"index.go":           "package routes",
		"about.go":           "package routes",
		"users/index.go":     "package users",
		"users/[id].go":      "package users",
		"users/[id]_test.go": "package users",
		"routes_gen.go":      "package routes",
		"README.md":          "# routes",
	})

	s, err := NewScanner(fs, ScanOptions{Root: testRoot})
	if err != nil {
		t.Fatalf("NewScanner() error: %v", err)
	}
	got, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}

	want := []string{"about.go", "index.go", "users/[id].go", "users/index.go"}
	if !reflect.DeepEqual(relPaths(got), want) {
		t.Errorf("Scan() = %v, want %v", relPaths(got), want)
	}

	for _, c := range got {
		wantAbs := filepath.Join(fs.Root(), filepath.FromSlash(testRoot), filepath.FromSlash(c.RelPath))
		if c.AbsPath != wantAbs {
			t.Errorf("AbsPath = %q, want %q", c.AbsPath, wantAbs)
		}
		if c.Size == 0 {
			t.Errorf("%s: Size not recorded", c.RelPath)
		}
	}
}

func TestScannerExclude(t *testing.T) {
	fs := newTree(t, map[string]string{
		"index.go":            "package routes",
		"internal/helpers.go": "package internal",
		"internal/deep/x.go":  "package deep",
		"users/shared.go":     "package users",
		"users/[id].go":       "package users",
		"gen.go":              "package routes",
	})

	tests := []struct {
		name    string
		exclude []string
		want    []string
	}{
		{
			name:    "none",
			exclude: nil,
			want:    []string{"gen.go", "index.go", "internal/deep/x.go", "internal/helpers.go", "users/[id].go", "users/shared.go"},
		},
		{
			name:    "subtree",
			exclude: []string{"internal/**"},
			want:    []string{"gen.go", "index.go", "users/[id].go", "users/shared.go"},
		},
		{
			name:    "directory name",
			exclude: []string{"internal"},
			want:    []string{"gen.go", "index.go", "users/[id].go", "users/shared.go"},
		},
		{
			name:    "base name glob",
			exclude: []string{"shared.go", "gen*"},
			want:    []string{"index.go", "internal/deep/x.go", "internal/helpers.go", "users/[id].go"},
		},
		{
			name:    "relative path glob",
			exclude: []string{"users/*"},
			want:    []string{"gen.go", "index.go", "internal/deep/x.go", "internal/helpers.go"},
		},
		{
			name:    "any depth",
			exclude: []string{"**/deep/*.go"},
			want:    []string{"gen.go", "index.go", "internal/helpers.go", "users/[id].go", "users/shared.go"},
		},
		{
			name:    "alternation",
			exclude: []string{"{gen,shared}.go"},
			want:    []string{"index.go", "internal/deep/x.go", "internal/helpers.go", "users/[id].go"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := NewScanner(fs, ScanOptions{Root: testRoot, Exclude: tt.exclude})
			if err != nil {
				t.Fatalf("NewScanner() error: %v", err)
			}
			got, err := s.Scan(context.Background())
			if err != nil {
				t.Fatalf("Scan() error: %v", err)
			}
			if !reflect.DeepEqual(relPaths(got), tt.want) {
				t.Errorf("Scan() = %v, want %v", relPaths(got), tt.want)
			}
		})
	}
}

func TestScannerInvalidExclude(t *testing.T) {
	_, err := NewScanner(newTree(t, nil), ScanOptions{Root: testRoot, Exclude: []string{"[a-"}})
	if !routecerrors.HasCode(err, "E121") {
		t.Fatalf("NewScanner() error = %v, want E121", err)
	}
}

func TestScannerMissingRoot(t *testing.T) {
	fs := newTree(t, map[string]string{"index.go": "package routes"})

	s, err := NewScanner(fs, ScanOptions{Root: "app/missing"})
	if err != nil {
		t.Fatalf("NewScanner() error: %v", err)
	}
	if _, err := s.Scan(context.Background()); !routecerrors.HasCode(err, "E120") {
		t.Errorf("Scan() error = %v, want E120", err)
	}

	// A file is not a routes directory.
	s, _ = NewScanner(fs, ScanOptions{Root: testRoot + "/index.go"})
	if _, err := s.Scan(context.Background()); !routecerrors.HasCode(err, "E120") {
		t.Errorf("Scan() on file root error = %v, want E120", err)
	}
}

func TestScannerMissingRootOnDisk(t *testing.T) {
	fs := osfs.New(t.TempDir())
	s, err := NewScanner(fs, ScanOptions{Root: "app/routes"})
	if err != nil {
		t.Fatalf("NewScanner() error: %v", err)
	}
	if _, err := s.Scan(context.Background()); !routecerrors.HasCode(err, "E120") {
		t.Errorf("Scan() error = %v, want E120", err)
	}
}

func TestScannerCustomOutput(t *testing.T) {
	fs := newTree(t, map[string]string{
		"index.go":           "package routes",
		"routes_gen.go":      "package routes",
		"generated/table.go": "package generated",
	})

	s, _ := NewScanner(fs, ScanOptions{Root: testRoot, Output: "generated/table.go"})
	got, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	want := []string{"index.go", "routes_gen.go"}
	if !reflect.DeepEqual(relPaths(got), want) {
		t.Errorf("Scan() = %v, want %v", relPaths(got), want)
	}
}

func TestScannerSymlinks(t *testing.T) {
	fs := newTree(t, map[string]string{
		"index.go":       "package routes",
		"shared/list.go": "package shared",
		"users/[id].go":  "package users",
	})
	if err := util.WriteFile(fs, "outside/secret.go", []byte("package outside"), 0o644); err != nil {
		t.Fatal(err)
	}

	links := map[string]string{
		testRoot + "/people":     "users",         // followed
		testRoot + "/users/loop": "..",            // ancestor: cycle
		testRoot + "/again":      "shared",        // followed
		testRoot + "/secrets":    "../../outside", // leaves the root
	}
	for link, target := range links {
		if err := fs.Symlink(target, link); err != nil {
			t.Fatalf("symlink %s: %v", link, err)
		}
	}

	s, _ := NewScanner(fs, ScanOptions{Root: testRoot})
	got, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}

	want := []string{"again/list.go", "index.go", "people/[id].go", "shared/list.go", "users/[id].go"}
	if !reflect.DeepEqual(relPaths(got), want) {
		t.Errorf("Scan() = %v, want %v", relPaths(got), want)
	}
}

func TestScannerSymlinkLoopBetweenDirs(t *testing.T) {
	fs := newTree(t, map[string]string{
		"a/index.go": "package a",
		"b/index.go": "package b",
	})
	fs.Symlink("../b", testRoot+"/a/tob")
	fs.Symlink("../a", testRoot+"/b/toa")

	s, _ := NewScanner(fs, ScanOptions{Root: testRoot})
	got, err := s.Scan(context.Background())
	if err != nil {
		t.Fatalf("Scan() error: %v", err)
	}
	want := []string{"a/index.go", "a/tob/index.go", "b/index.go", "b/toa/index.go"}
	if !reflect.DeepEqual(relPaths(got), want) {
		t.Errorf("Scan() = %v, want %v", relPaths(got), want)
	}
}
