package router

import (
	"context"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/go-git/go-billy/v5"

	routecerrors "github.com/vango-dev/routec/internal/errors"
)

// DefaultOutputName is the file name of the generated registration code.
const DefaultOutputName = "routes_gen.go"

// ScanOptions configures a Scanner.
type ScanOptions struct {
	// Root is the routes directory inside the filesystem.
	Root string

	// Exclude lists doublestar globs matched against each slash-separated
	// relative path and its base name. "dir/**" excludes a subtree.
	Exclude []string

	// Extensions are the accepted source extensions. Defaults to ".go".
	Extensions []string

	// Output is the generated artifact relative to Root. It is never
	// scanned. Defaults to DefaultOutputName.
	Output string

	Logger *slog.Logger
}

// Scanner walks a routes directory and returns candidate route files.
type Scanner struct {
	fs   billy.Filesystem
	opts ScanOptions
	log  *slog.Logger
}

// NewScanner creates a scanner over fs. Exclude patterns are validated
// here so a bad pattern fails before any scan.
func NewScanner(fs billy.Filesystem, opts ScanOptions) (*Scanner, error) {
	for _, pattern := range opts.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			return nil, routecerrors.New("E121").
				WithDetail(pattern).
				WithSuggestion("Exclude patterns are globs such as \"internal/**\" or \"*_helpers.go\"").
				Wrap(doublestar.ErrBadPattern)
		}
	}
	if len(opts.Extensions) == 0 {
		opts.Extensions = []string{".go"}
	}
	if opts.Root == "" {
		opts.Root = "."
	}
	if opts.Output == "" {
		opts.Output = DefaultOutputName
	}
	opts.Output = path.Clean(filepath.ToSlash(opts.Output))
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Scanner{fs: fs, opts: opts, log: logger}, nil
}

// Scan returns every candidate file beneath the root, sorted by RelPath.
// Unreadable entries and symlinks that loop or leave the root are skipped
// with a warning. A missing root is a configuration error.
func (s *Scanner) Scan(ctx context.Context) ([]Candidate, error) {
	root := path.Clean(filepath.ToSlash(s.opts.Root))
	info, err := s.fs.Stat(root)
	if err != nil || !info.IsDir() {
		e := routecerrors.New("E120").
			WithDetail(s.abs(root)).
			WithSuggestion("Create the directory or set \"dir\" in routec.json")
		if err != nil {
			e = e.Wrap(err)
		}
		return nil, e
	}

	w := &walk{
		ctx:    ctx,
		root:   root,
		active: make(map[string]bool),
	}
	if err := s.walkDir(w, root, ""); err != nil {
		return nil, err
	}

	sort.Slice(w.out, func(i, j int) bool { return w.out[i].RelPath < w.out[j].RelPath })
	return w.out, nil
}

type walk struct {
	ctx  context.Context
	root string

	// active holds the directories on the current descent path.
	active map[string]bool
	out    []Candidate
}

// walkDir scans the filesystem directory dir, which appears at rel inside
// the routes tree. The two differ below a followed symlink.
func (s *Scanner) walkDir(w *walk, dir, rel string) error {
	if err := w.ctx.Err(); err != nil {
		return err
	}

	entries, err := s.fs.ReadDir(dir)
	if err != nil {
		s.log.Warn("skipping unreadable directory", "dir", s.abs(dir), "error", err)
		return nil
	}
	w.active[dir] = true
	defer delete(w.active, dir)

	for _, entry := range entries {
		name := entry.Name()
		fsPath := path.Join(dir, name)
		relPath := path.Join(rel, name)

		if s.excluded(relPath, name) {
			s.log.Debug("excluded", "path", relPath)
			continue
		}

		mode := entry.Mode()
		if mode&os.ModeSymlink != 0 {
			target, ok := s.followLink(w, fsPath, relPath)
			if !ok {
				continue
			}
			info, err := s.fs.Stat(target)
			if err != nil {
				s.log.Warn("skipping broken symlink", "path", relPath, "error", err)
				continue
			}
			if info.IsDir() {
				if err := s.walkDir(w, target, relPath); err != nil {
					return err
				}
				continue
			}
			entry = info
			fsPath = target
		} else if entry.IsDir() {
			if err := s.walkDir(w, fsPath, relPath); err != nil {
				return err
			}
			continue
		}

		if !entry.Mode().IsRegular() || !s.accepted(relPath) {
			continue
		}
		w.out = append(w.out, Candidate{
			AbsPath: s.abs(fsPath),
			RelPath: relPath,
			FSPath:  fsPath,
			Size:    entry.Size(),
		})
	}
	return nil
}

// followLink resolves the symlink at fsPath. It reports false, after
// logging why, for links that point outside the root or back into the
// current descent path.
func (s *Scanner) followLink(w *walk, fsPath, relPath string) (string, bool) {
	target, err := s.fs.Readlink(fsPath)
	if err != nil {
		s.log.Warn("skipping unreadable symlink", "path", relPath, "error", err)
		return "", false
	}

	target = filepath.ToSlash(target)
	if path.IsAbs(target) {
		// Chrooted filesystems report absolute targets relative to their
		// root; others report host paths.
		root := strings.TrimSuffix(filepath.ToSlash(s.fs.Root()), "/")
		if r, ok := strings.CutPrefix(target, root+"/"); ok && root != "" {
			target = r
		} else {
			target = strings.TrimPrefix(target, "/")
		}
	} else {
		target = path.Join(path.Dir(fsPath), target)
	}
	target = path.Clean(target)

	if !within(w.root, target) {
		s.log.Warn("skipping symlink outside routes directory", "path", relPath, "target", target)
		return "", false
	}
	for dir := range w.active {
		if within(target, dir) {
			s.log.Warn("skipping symlink cycle", "path", relPath, "target", target)
			return "", false
		}
	}
	return target, true
}

// within reports whether p is dir or lies beneath it.
func within(dir, p string) bool {
	if dir == "." {
		return !strings.HasPrefix(p, "../") && p != ".." && !path.IsAbs(p)
	}
	return p == dir || strings.HasPrefix(p, dir+"/")
}

func (s *Scanner) accepted(relPath string) bool {
	base := path.Base(relPath)
	if strings.HasSuffix(base, "_test.go") {
		return false
	}
	if relPath == s.opts.Output {
		return false
	}
	for _, ext := range s.opts.Extensions {
		if path.Ext(base) == ext {
			return true
		}
	}
	return false
}

func (s *Scanner) excluded(relPath, name string) bool {
	for _, pattern := range s.opts.Exclude {
		if doublestar.MatchUnvalidated(pattern, relPath) || doublestar.MatchUnvalidated(pattern, name) {
			return true
		}
	}
	return false
}

func (s *Scanner) abs(fsPath string) string {
	return filepath.Join(s.fs.Root(), filepath.FromSlash(fsPath))
}
