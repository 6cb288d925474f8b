package emit

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/routec/pkg/routepath"
	"github.com/vango-dev/routec/pkg/router"
)

// ManifestVersion is the version written by DynamicEmitter.
const ManifestVersion = 1

// Manifest is the dynamic-mode artifact: the ranked routes and the locator
// of each route module. Patterns are dialect-neutral; the registrar renders
// them for its router.
type Manifest struct {
	Version int             `json:"version" yaml:"version"`
	Routes  []ManifestEntry `json:"routes" yaml:"routes"`
}

// ManifestEntry describes one route.
type ManifestEntry struct {
	Pattern string   `json:"pattern" yaml:"pattern"`
	Params  []string `json:"params,omitempty" yaml:"params,omitempty"`

	// CatchAll names the trailing catch-all parameter, if any.
	CatchAll string `json:"catchAll,omitempty" yaml:"catchAll,omitempty"`

	// Methods lists every method the file exports, in canonical order.
	Methods []string `json:"methods" yaml:"methods"`

	// Locator identifies the route module for a registrar.Loader:
	// "<import path>#<export prefix>".
	Locator string `json:"locator" yaml:"locator"`

	// File is the route file relative to the routes root.
	File string `json:"file" yaml:"file"`
}

// Locator formats a module locator.
func Locator(importPath, prefix string) string {
	return importPath + "#" + prefix
}

// SplitLocator splits a locator into its import path and export prefix.
func SplitLocator(locator string) (importPath, prefix string) {
	importPath, prefix, _ = strings.Cut(locator, "#")
	return importPath, prefix
}

// Format is the encoding of a manifest.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatForPath picks YAML for .yaml and .yml files and JSON otherwise.
func FormatForPath(p string) Format {
	switch strings.ToLower(path.Ext(p)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// DynamicEmitter produces a Manifest. It writes no Go code, so route
// directories need not be importable Go paths.
type DynamicEmitter struct {
	Target Target
	Format Format
}

// Mode implements Emitter.
func (e *DynamicEmitter) Mode() Mode { return ModeDynamic }

// Emit implements Emitter.
func (e *DynamicEmitter) Emit(table *router.Table) (Artifact, error) {
	m := BuildManifest(table, e.Target)
	content, err := m.Encode(e.Format)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{Mode: ModeDynamic, Content: content, Manifest: m}, nil
}

// BuildManifest lists the routes of table in match order.
func BuildManifest(table *router.Table, target Target) *Manifest {
	m := &Manifest{Version: ManifestVersion, Routes: make([]ManifestEntry, 0, table.Len())}
	for _, r := range table.Routes() {
		m.Routes = append(m.Routes, ManifestEntry{
			Pattern:  r.Pattern,
			Params:   r.Params,
			CatchAll: r.CatchAllParam(),
			Methods:  r.File.Methods.Strings(),
			Locator:  Locator(target.importPath(r.File), r.File.Prefix),
			File:     r.File.RelPath,
		})
	}
	return m
}

// Encode serializes m.
func (m *Manifest) Encode(f Format) ([]byte, error) {
	switch f {
	case FormatYAML:
		var buf bytes.Buffer
		enc := yaml.NewEncoder(&buf)
		enc.SetIndent(2)
		if err := enc.Encode(m); err != nil {
			return nil, fmt.Errorf("encode manifest: %w", err)
		}
		if err := enc.Close(); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatJSON, "":
		data, err := json.MarshalIndent(m, "", "  ")
		if err != nil {
			return nil, fmt.Errorf("encode manifest: %w", err)
		}
		return append(data, '\n'), nil
	}
	return nil, fmt.Errorf("unknown manifest format %q", f)
}

// DecodeManifest parses a manifest in either format.
func DecodeManifest(data []byte, f Format) (*Manifest, error) {
	var m Manifest
	var err error
	if f == FormatYAML {
		err = yaml.Unmarshal(data, &m)
	} else {
		err = json.Unmarshal(data, &m)
	}
	if err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	if m.Version != ManifestVersion {
		return nil, fmt.Errorf("unsupported manifest version %d", m.Version)
	}
	return &m, nil
}

// DialectPattern renders the entry's pattern for d.
func (e ManifestEntry) DialectPattern(d routepath.Dialect) string {
	return d.Format(e.Pattern, e.CatchAll)
}
