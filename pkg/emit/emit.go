package emit

import (
	"fmt"
	"path"
	"strings"

	"github.com/vango-dev/routec/pkg/routepath"
	"github.com/vango-dev/routec/pkg/router"
)

// Mode selects an emission backend.
type Mode string

const (
	// ModeStatic generates Go source that registers every route explicitly.
	ModeStatic Mode = "static"

	// ModeDynamic produces a manifest consumed at startup by package
	// registrar.
	ModeDynamic Mode = "dynamic"
)

// ParseMode returns the mode named s. An empty name selects ModeStatic.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(s)) {
	case "", ModeStatic:
		return ModeStatic, nil
	case ModeDynamic:
		return ModeDynamic, nil
	}
	return "", fmt.Errorf("unknown emit mode %q (want static or dynamic)", s)
}

// Artifact is the output of an Emitter. Content is deterministic for a
// given table and target.
type Artifact struct {
	Mode    Mode
	Content []byte

	// Manifest is set in dynamic mode.
	Manifest *Manifest
}

// Emitter turns a route table into an artifact. Emitters are pure: they
// read no files and write nothing.
type Emitter interface {
	Mode() Mode
	Emit(table *router.Table) (Artifact, error)
}

// Target describes where the routes live and how the host router spells
// patterns.
type Target struct {
	// ImportPath is the import path of the routes directory,
	// e.g. "example.com/app/app/routes".
	ImportPath string

	// Package is the package name of the generated file. Defaults to
	// "routes".
	Package string

	// OutputDir is the directory of the generated file relative to the
	// routes root, "" when it sits in the root itself.
	OutputDir string

	Dialect routepath.Dialect

	// TypeHints adds compile-time assertions on handler signatures to
	// static output.
	TypeHints bool
}

func (t Target) packageName() string {
	if t.Package == "" {
		return "routes"
	}
	return t.Package
}

// importPath returns the import path of the package holding f.
func (t Target) importPath(f router.RouteFile) string {
	if f.Dir == "" {
		return t.ImportPath
	}
	return path.Join(t.ImportPath, f.Dir)
}

// New returns the emitter for mode.
func New(mode Mode, target Target, format Format) (Emitter, error) {
	switch mode {
	case ModeStatic, "":
		return &StaticEmitter{Target: target}, nil
	case ModeDynamic:
		return &DynamicEmitter{Target: target, Format: format}, nil
	}
	return nil, fmt.Errorf("unknown emit mode %q", mode)
}
