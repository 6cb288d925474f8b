package router

import (
	"context"
	"log/slog"
	"time"

	"github.com/go-git/go-billy/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/vango-dev/routec/pkg/routepath"
)

const tracerName = "routec"

// Options configures a Compiler.
type Options struct {
	// FS is the filesystem holding the routes directory.
	FS billy.Filesystem

	// Root is the routes directory inside FS.
	Root string

	// Exclude lists glob patterns of files and directories to skip.
	Exclude []string

	// Output is the generated artifact relative to Root, skipped by the scan.
	Output string

	// Dialect is the host router the table is compiled for. Shapes it cannot
	// register fail validation (E109). Empty means chi.
	Dialect routepath.Dialect

	// CacheSize bounds the extraction cache. Defaults to DefaultCacheSize.
	CacheSize int

	Logger *slog.Logger

	// Progress, if set, is told when each pipeline stage starts.
	Progress func(Stage)
}

// Stage is a step of a compile pass.
type Stage int

const (
	// StageScan walks the routes directory.
	StageScan Stage = iota

	// StageCompile extracts handlers, compiles patterns and ranks them.
	StageCompile
)

// Compiler runs the scan → extract → compile → rank → validate pipeline.
// It keeps only the extraction cache between passes; every pass builds a
// new Table.
type Compiler struct {
	scanner   *Scanner
	extractor *Extractor
	dialect   routepath.Dialect
	log       *slog.Logger
	tracer    trace.Tracer
	progress  func(Stage)
}

// NewCompiler creates a compiler. Configuration errors, such as an invalid
// exclude pattern, are reported here.
func NewCompiler(opts Options) (*Compiler, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	scanner, err := NewScanner(opts.FS, ScanOptions{
		Root:    opts.Root,
		Exclude: opts.Exclude,
		Output:  opts.Output,
		Logger:  logger,
	})
	if err != nil {
		return nil, err
	}
	extractor, err := NewExtractor(opts.FS, opts.CacheSize, logger)
	if err != nil {
		return nil, err
	}
	return &Compiler{
		scanner:   scanner,
		extractor: extractor,
		dialect:   opts.Dialect,
		log:       logger,
		tracer:    otel.Tracer(tracerName),
		progress:  opts.Progress,
	}, nil
}

// Compile runs one full pass and returns the ranked route table.
func (c *Compiler) Compile(ctx context.Context) (*Table, error) {
	pass := uuid.NewString()
	start := time.Now()
	log := c.log.With("pass", pass)

	ctx, span := c.tracer.Start(ctx, "routec.compile", trace.WithAttributes(
		attribute.String("routec.pass", pass),
	))
	defer span.End()

	table, err := c.compile(ctx, log)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("routec.routes", table.Len()))
	span.SetStatus(codes.Ok, "")
	log.Debug("compiled route table", "routes", table.Len(), "duration", time.Since(start))
	return table, nil
}

func (c *Compiler) stage(s Stage) {
	if c.progress != nil {
		c.progress(s)
	}
}

func (c *Compiler) compile(ctx context.Context, log *slog.Logger) (*Table, error) {
	c.stage(StageScan)
	scanCtx, span := c.tracer.Start(ctx, "routec.scan")
	candidates, err := c.scanner.Scan(scanCtx)
	span.SetAttributes(attribute.Int("routec.candidates", len(candidates)))
	span.End()
	if err != nil {
		return nil, err
	}

	c.stage(StageCompile)
	extractCtx, span := c.tracer.Start(ctx, "routec.extract")
	files, err := c.extractor.ExtractAll(extractCtx, candidates)
	span.SetAttributes(attribute.Int("routec.files", len(files)))
	span.End()
	if err != nil {
		return nil, err
	}

	_, span = c.tracer.Start(ctx, "routec.rank")
	defer span.End()

	routes := make([]CompiledRoute, 0, len(files))
	for _, f := range files {
		r, err := CompileRoute(f)
		if err != nil {
			return nil, err
		}
		routes = append(routes, r)
	}

	if err := NewValidator(routes).ForDialect(c.dialect).Validate(); err != nil {
		return nil, err
	}
	Rank(routes)

	for _, r := range routes {
		log.Debug("route", "pattern", r.Pattern, "file", r.File.RelPath, "methods", r.File.Methods.String())
	}
	return NewTable(routes), nil
}
