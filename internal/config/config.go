package config

import (
	"errors"
	"go/token"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"golang.org/x/mod/modfile"

	routecerrors "github.com/vango-dev/routec/internal/errors"
	"github.com/vango-dev/routec/pkg/emit"
	"github.com/vango-dev/routec/pkg/router"
	"github.com/vango-dev/routec/pkg/routepath"
)

const (
	// ConfigName is the base name of the configuration file. Any extension
	// viper understands is accepted: routec.json, routec.yaml, routec.toml.
	ConfigName = "routec"

	// EnvPrefix prefixes environment overrides, e.g. ROUTEC_DEV_ADDR.
	EnvPrefix = "ROUTEC"

	// DefaultDir is the default routes directory.
	DefaultDir = "app/routes"

	// DefaultPackage is the default package name of generated code.
	DefaultPackage = "routes"

	// DefaultAddr is the default dev server address.
	DefaultAddr = "localhost:3100"

	// DefaultDebounce collapses bursts of file events.
	DefaultDebounce = 100 * time.Millisecond

	// DefaultVirtualRoute serves the in-memory artifact in dev mode.
	DefaultVirtualRoute = "/_routec/artifact"

	// DefaultManifestName is the default dynamic-mode output file.
	DefaultManifestName = "routes.json"
)

// Config represents the routec configuration.
type Config struct {
	// Dir is the routes directory, relative to the project root.
	Dir string `json:"dir"`

	// Output is the artifact path, relative to the project root. Defaults
	// to <dir>/routes_gen.go in static mode and <dir>/routes.json in
	// dynamic mode.
	Output string `json:"output,omitempty"`

	// Write controls whether artifacts are written to disk.
	Write bool `json:"write"`

	Verbose bool `json:"verbose,omitempty"`

	// Externals are glob patterns excluded from the scan.
	Externals []string `json:"externals,omitempty"`

	// TypeHints adds handler type assertions to generated code.
	TypeHints bool `json:"typeHints,omitempty"`

	// Mode is the emission backend: "static" or "dynamic".
	Mode string `json:"mode"`

	// Dialect is the pattern syntax of the host router: "chi", "mux" or
	// "gin".
	Dialect string `json:"dialect"`

	// Package is the package name of generated code.
	Package string `json:"package,omitempty"`

	// Module is the module path of the project. Read from go.mod when
	// empty.
	Module string `json:"module,omitempty"`

	Dev DevConfig `json:"dev"`

	Publish PublishConfig `json:"publish,omitempty"`

	// configPath stores the path where the config was loaded from.
	configPath string

	// root is the project root all relative paths resolve against.
	root string
}

// DevConfig contains watch-mode settings.
type DevConfig struct {
	// VirtualRoute is the URL path serving the in-memory artifact.
	VirtualRoute string `json:"virtualRoute"`

	// Addr is the dev server listen address.
	Addr string `json:"addr"`

	// Debounce is how long the watcher waits for a burst of events to
	// settle, e.g. "150ms".
	Debounce time.Duration `json:"debounce"`
}

// PublishConfig contains artifact publishing targets.
type PublishConfig struct {
	S3 S3Config `json:"s3,omitempty"`
}

// S3Config selects an S3 object to publish the artifact to.
type S3Config struct {
	Bucket string `json:"bucket,omitempty"`
	Key    string `json:"key,omitempty"`
	Region string `json:"region,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Dir:     DefaultDir,
		Write:   true,
		Mode:    string(emit.ModeStatic),
		Dialect: string(routepath.DialectChi),
		Package: DefaultPackage,
		Dev: DevConfig{
			VirtualRoute: DefaultVirtualRoute,
			Addr:         DefaultAddr,
			Debounce:     DefaultDebounce,
		},
	}
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"dir":        "dir",
	"output":     "output",
	"write":      "write",
	"verbose":    "verbose",
	"exclude":    "externals",
	"type-hints": "typeHints",
	"mode":       "mode",
	"dialect":    "dialect",
	"package":    "package",
	"module":     "module",
	"addr":       "dev.addr",
	"debounce":   "dev.debounce",
}

// Load reads configuration for the project rooted at dir. Values come from,
// in increasing priority: defaults, the routec.* file in dir, ROUTEC_*
// environment variables and flags that were set explicitly. A missing
// config file is not an error. flags may be nil.
func Load(dir string, flags *pflag.FlagSet) (*Config, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}

	v := viper.New()
	setDefaults(v, New())

	v.SetConfigName(ConfigName)
	v.AddConfigPath(root)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if flags != nil {
		for name, key := range flagKeys {
			if f := flags.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, err
				}
			}
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, routecerrors.New("E123").
				WithDetail(v.ConfigFileUsed()).
				WithSuggestion("Check the syntax of your routec config file").
				Wrap(err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, routecerrors.New("E123").
			WithDetail(v.ConfigFileUsed()).
			Wrap(err)
	}
	cfg.configPath = v.ConfigFileUsed()
	cfg.root = root

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper, c *Config) {
	v.SetDefault("dir", c.Dir)
	v.SetDefault("output", "")
	v.SetDefault("write", c.Write)
	v.SetDefault("verbose", false)
	v.SetDefault("externals", []string{})
	v.SetDefault("typeHints", false)
	v.SetDefault("mode", c.Mode)
	v.SetDefault("dialect", c.Dialect)
	v.SetDefault("package", c.Package)
	v.SetDefault("module", "")
	v.SetDefault("dev.virtualRoute", c.Dev.VirtualRoute)
	v.SetDefault("dev.addr", c.Dev.Addr)
	v.SetDefault("dev.debounce", c.Dev.Debounce)
	v.SetDefault("publish.s3.bucket", "")
	v.SetDefault("publish.s3.key", "")
	v.SetDefault("publish.s3.region", "")
}

// applyDefaults fills in values derived from other fields.
func (c *Config) applyDefaults() error {
	if c.Dir == "" {
		c.Dir = DefaultDir
	}
	if c.Package == "" {
		c.Package = DefaultPackage
	}
	if c.Output == "" {
		name := router.DefaultOutputName
		if c.Mode == string(emit.ModeDynamic) {
			name = DefaultManifestName
		}
		c.Output = path.Join(filepath.ToSlash(c.Dir), name)
	}
	if c.Module == "" {
		mod, err := readModulePath(filepath.Join(c.root, "go.mod"))
		if err != nil {
			return err
		}
		c.Module = mod
	}
	return nil
}

// readModulePath returns the module path declared in a go.mod file, or ""
// when the file does not exist.
func readModulePath(gomod string) (string, error) {
	data, err := os.ReadFile(gomod)
	if errors.Is(err, os.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", routecerrors.New("E123").WithDetail(gomod).Wrap(err)
	}
	mod := modfile.ModulePath(data)
	if mod == "" {
		return "", routecerrors.New("E123").
			WithDetail(gomod + " has no module directive")
	}
	return mod, nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	invalid := func(detail, hint string) error {
		return routecerrors.New("E122").WithDetail(detail).WithSuggestion(hint)
	}

	if _, err := emit.ParseMode(c.Mode); err != nil {
		return invalid(err.Error(), `Use "static" or "dynamic"`)
	}
	if _, err := routepath.ParseDialect(c.Dialect); err != nil {
		return invalid(err.Error(), `Use "chi", "mux" or "gin"`)
	}
	if !token.IsIdentifier(c.Package) {
		return invalid("package "+c.Package+" is not a Go identifier", "")
	}
	if filepath.IsAbs(c.Dir) || strings.HasPrefix(path.Clean(filepath.ToSlash(c.Dir)), "../") {
		return invalid("dir "+c.Dir+" is outside the project", "Use a path relative to the project root")
	}
	for _, pattern := range c.Externals {
		if !doublestar.ValidatePattern(pattern) {
			return invalid("externals: "+pattern+": "+doublestar.ErrBadPattern.Error(), "")
		}
	}
	if c.Dev.Debounce < 0 {
		return invalid("dev.debounce must not be negative", "")
	}
	if !strings.HasPrefix(c.Dev.VirtualRoute, "/") {
		return invalid("dev.virtualRoute must start with /", "")
	}
	if (c.Publish.S3.Bucket == "") != (c.Publish.S3.Key == "") {
		return invalid("publish.s3 needs both bucket and key", "")
	}
	if c.EmitMode() == emit.ModeStatic && c.Module == "" {
		return invalid("module path unknown", `Set "module" or run routec next to go.mod`)
	}
	return nil
}

// Path returns the path where the config was loaded from, or "" when only
// defaults were used.
func (c *Config) Path() string {
	return c.configPath
}

// Root returns the project root.
func (c *Config) Root() string {
	return c.root
}

// RoutesPath returns the absolute path to the routes directory.
func (c *Config) RoutesPath() string {
	return c.abs(c.Dir)
}

// OutputPath returns the absolute path to the artifact.
func (c *Config) OutputPath() string {
	return c.abs(c.Output)
}

// OutputInRoutes returns the artifact path relative to the routes
// directory, slash-separated. It starts with "../" when the artifact lives
// outside it.
func (c *Config) OutputInRoutes() string {
	rel, err := filepath.Rel(c.RoutesPath(), c.OutputPath())
	if err != nil {
		return filepath.ToSlash(c.Output)
	}
	return filepath.ToSlash(rel)
}

// ImportPath returns the import path of the routes directory.
func (c *Config) ImportPath() string {
	dir := path.Clean(filepath.ToSlash(c.Dir))
	if dir == "." {
		return c.Module
	}
	return path.Join(c.Module, dir)
}

// EmitMode returns the parsed mode. Validate has rejected unknown modes.
func (c *Config) EmitMode() emit.Mode {
	m, _ := emit.ParseMode(c.Mode)
	return m
}

// RouteDialect returns the parsed dialect.
func (c *Config) RouteDialect() routepath.Dialect {
	d, _ := routepath.ParseDialect(c.Dialect)
	return d
}

// Target describes the emission target for this project.
func (c *Config) Target() emit.Target {
	outDir := path.Dir(c.OutputInRoutes())
	if outDir == "." {
		outDir = ""
	}
	return emit.Target{
		ImportPath: c.ImportPath(),
		Package:    c.Package,
		OutputDir:  outDir,
		Dialect:    c.RouteDialect(),
		TypeHints:  c.TypeHints,
	}
}

func (c *Config) abs(p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(c.root, filepath.FromSlash(p))
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	for _, ext := range viper.SupportedExts {
		if _, err := os.Stat(filepath.Join(dir, ConfigName+"."+ext)); err == nil {
			return true
		}
	}
	return false
}

// FindProjectRoot walks up directories to find the project root: the
// nearest directory holding a routec config file or a go.mod.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", routecerrors.New("E120").
				WithDetail("No routec config or go.mod found in " + startDir + " or any parent directory").
				WithSuggestion("Run routec inside a Go module")
		}
		dir = parent
	}
}
