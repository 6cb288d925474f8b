package emit

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path"
	"path/filepath"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	routecerrors "github.com/vango-dev/routec/internal/errors"
)

// Sink delivers an artifact. Delivery is independent of compilation: the
// same artifact can be written to disk, handed to a callback or published.
type Sink interface {
	// Write delivers a and reports whether the delivered content changed.
	Write(ctx context.Context, a Artifact) (changed bool, err error)
}

// FileSink writes the artifact to a file. The previous file is replaced
// only by a complete new one, and is left untouched when the content is
// unchanged.
type FileSink struct {
	FS   billy.Filesystem
	Path string
}

// Write implements Sink.
func (s *FileSink) Write(ctx context.Context, a Artifact) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	existing, err := util.ReadFile(s.FS, s.Path)
	if err == nil && bytes.Equal(existing, a.Content) {
		return false, nil
	}
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, s.fail(err)
	}

	dir := path.Dir(filepath.ToSlash(s.Path))
	if dir != "." {
		if err := s.FS.MkdirAll(dir, 0o755); err != nil {
			return false, s.fail(err)
		}
	}
	tmp, err := s.FS.TempFile(dir, ".routec-")
	if err != nil {
		return false, s.fail(err)
	}
	name := tmp.Name()

	_, err = tmp.Write(a.Content)
	if cerr := tmp.Close(); err == nil {
		err = cerr
	}
	if err == nil {
		err = s.FS.Rename(name, s.Path)
	}
	if err != nil {
		s.FS.Remove(name)
		return false, s.fail(err)
	}
	return true, nil
}

func (s *FileSink) fail(err error) error {
	return routecerrors.New("E130").
		WithDetail(filepath.Join(s.FS.Root(), filepath.FromSlash(s.Path))).
		Wrap(err)
}

// CallbackSink hands the artifact to a function instead of writing it.
type CallbackSink func(ctx context.Context, a Artifact) error

// Write implements Sink. Every delivery counts as a change.
func (f CallbackSink) Write(ctx context.Context, a Artifact) (bool, error) {
	if err := f(ctx, a); err != nil {
		return false, err
	}
	return true, nil
}

// MultiSink delivers to every sink in order, stopping at the first error.
type MultiSink []Sink

// Write implements Sink.
func (m MultiSink) Write(ctx context.Context, a Artifact) (bool, error) {
	changed := false
	for _, s := range m {
		c, err := s.Write(ctx, a)
		if err != nil {
			return changed, err
		}
		changed = changed || c
	}
	return changed, nil
}
