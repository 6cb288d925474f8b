package main

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"
	"github.com/spf13/cobra"

	"github.com/vango-dev/routec/internal/config"
	routecerrors "github.com/vango-dev/routec/internal/errors"
	"github.com/vango-dev/routec/pkg/emit"
	"github.com/vango-dev/routec/pkg/router"
)

// newS3Client builds the client used for publish.s3. Tests replace it.
var newS3Client = func(ctx context.Context, region string) (emit.PutObjectAPI, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(cfg), nil
}

// project is a loaded configuration together with the filesystem and
// logger every command works with.
type project struct {
	cfg *config.Config
	fs  billy.Filesystem
	log *slog.Logger
}

// loadProject resolves the project root and loads its configuration,
// letting flags set on cmd override the config file.
func loadProject(cmd *cobra.Command) (*project, error) {
	root, _ := cmd.Flags().GetString("root")
	if root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		if root, err = config.FindProjectRoot(wd); err != nil {
			return nil, err
		}
	}

	cfg, err := config.Load(root, cmd.Flags())
	if err != nil {
		return nil, err
	}

	return &project{
		cfg: cfg,
		fs:  osfs.New(cfg.Root()),
		log: newLogger(cmd.ErrOrStderr(), cfg.Verbose),
	}, nil
}

// newLogger logs warnings and errors, or everything with verbose set.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// rel returns p relative to the project root, slash-separated.
func (p *project) rel(abs string) string {
	rel, err := filepath.Rel(p.cfg.Root(), abs)
	if err != nil {
		return filepath.ToSlash(abs)
	}
	return filepath.ToSlash(rel)
}

func (p *project) compilerOptions() router.Options {
	return router.Options{
		FS:      p.fs,
		Root:    p.rel(p.cfg.RoutesPath()),
		Exclude: p.cfg.Externals,
		Output:  p.cfg.OutputInRoutes(),
		Dialect: p.cfg.RouteDialect(),
		Logger:  p.log,
	}
}

// compile runs one pass over the routes directory.
func (p *project) compile(ctx context.Context) (*router.Table, error) {
	c, err := router.NewCompiler(p.compilerOptions())
	if err != nil {
		return nil, err
	}
	return c.Compile(ctx)
}

func (p *project) emitter() (emit.Emitter, error) {
	return emit.New(p.cfg.EmitMode(), p.cfg.Target(), emit.FormatForPath(p.cfg.Output))
}

// build compiles and emits.
func (p *project) build(ctx context.Context) (*router.Table, emit.Artifact, error) {
	table, err := p.compile(ctx)
	if err != nil {
		return nil, emit.Artifact{}, err
	}
	em, err := p.emitter()
	if err != nil {
		return nil, emit.Artifact{}, err
	}
	art, err := em.Emit(table)
	if err != nil {
		return nil, emit.Artifact{}, err
	}
	return table, art, nil
}

// fileSink writes the artifact to the configured output path.
func (p *project) fileSink() *emit.FileSink {
	return &emit.FileSink{FS: p.fs, Path: p.rel(p.cfg.OutputPath())}
}

// publishSink returns the S3 sink, or nil when publishing is not
// configured.
func (p *project) publishSink(ctx context.Context) (emit.Sink, error) {
	s3cfg := p.cfg.Publish.S3
	if s3cfg.Bucket == "" {
		return nil, nil
	}
	client, err := newS3Client(ctx, s3cfg.Region)
	if err != nil {
		return nil, routecerrors.New("E131").
			WithDetail("s3://" + s3cfg.Bucket + "/" + s3cfg.Key).
			WithSuggestion("Check your AWS credentials and region").
			Wrap(err)
	}
	return emit.NewS3Sink(client, s3cfg.Bucket, s3cfg.Key), nil
}

// sinks returns every configured delivery target.
func (p *project) sinks(ctx context.Context) (emit.MultiSink, error) {
	var sinks emit.MultiSink
	if p.cfg.Write {
		sinks = append(sinks, p.fileSink())
	}
	pub, err := p.publishSink(ctx)
	if err != nil {
		return nil, err
	}
	if pub != nil {
		sinks = append(sinks, pub)
	}
	return sinks, nil
}
