package main

import (
	"io"
	"path"
	"strings"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/vango-dev/routec/internal/dev"
)

func devCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dev",
		Short: "Watch the routes directory and recompile on change",
		Long: `Watch the routes directory and recompile the route table whenever a
file changes.

Bursts of changes are debounced into one compile pass, and passes never
overlap. A failing pass is reported without stopping the watcher; the
last good artifact keeps being served.

The dev server exposes:
  <virtualRoute>       the latest artifact, served from memory
  /_routec/manifest    the route manifest as JSON
  /_routec/status      the watcher state
  /_routec/match       ?path= shows which route handles a path
  /_routec/reload      WebSocket notified after every pass
  /metrics             Prometheus metrics

Examples:
  routec dev
  routec dev --addr=:3100 --debounce=250ms
  routec dev --write=false     # keep the artifact in memory only`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDev(cmd)
		},
	}

	cmd.Flags().Bool("write", true, "Write the artifact to disk after every pass")
	cmd.Flags().String("addr", "", "Dev server listen address (default: localhost:3100)")
	cmd.Flags().Duration("debounce", 0, "Quiet period before a compile pass (default: 100ms)")

	return cmd
}

func runDev(cmd *cobra.Command) error {
	p, err := loadProject(cmd)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	sinks, err := p.sinks(cmd.Context())
	if err != nil {
		return err
	}
	em, err := p.emitter()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reload := dev.NewReloadServer()
	orch, err := dev.NewOrchestrator(dev.Options{
		Compiler: p.compilerOptions(),
		Emitter:  em,
		Target:   p.cfg.Target(),
		Sink:     sinks,
		Debounce: p.cfg.Dev.Debounce,
		Notifier: &consoleNotifier{out: out, next: reload},
		Metrics:  dev.NewMetrics(reg),
		Logger:   p.log,
	})
	if err != nil {
		return err
	}

	watcher := dev.NewWatcher(dev.WatcherConfig{
		Root:   p.cfg.RoutesPath(),
		Ignore: watchIgnore(p.cfg.OutputInRoutes()),
		Logger: p.log,
	})
	watcher.OnChange(func(c dev.Change) {
		p.log.Debug("route change", "path", c.Path, "op", c.Op.String())
		orch.Trigger()
	})

	server := dev.NewServer(dev.ServerOptions{
		Addr:         p.cfg.Dev.Addr,
		VirtualRoute: p.cfg.Dev.VirtualRoute,
		Orchestrator: orch,
		Reload:       reload,
		Gatherer:     reg,
		Logger:       p.log,
	})

	printBanner(out)
	info(out, "Watching %s", p.cfg.Dir)
	info(out, "Serving  http://%s%s", p.cfg.Dev.Addr, p.cfg.Dev.VirtualRoute)
	info(out, "")

	g, ctx := errgroup.WithContext(cmd.Context())
	g.Go(func() error { return watcher.Start(ctx) })
	g.Go(func() error { return orch.Run(ctx) })
	g.Go(func() error { return server.ListenAndServe(ctx) })
	err = g.Wait()

	info(out, "")
	info(out, "Shutting down...")
	return err
}

// watchIgnore adds the artifact itself to the default ignore list when it
// lives inside the routes directory.
func watchIgnore(output string) []string {
	ignore := append([]string(nil), dev.DefaultIgnore...)
	if !strings.HasPrefix(output, "../") {
		ignore = append(ignore, path.Base(output))
	}
	return ignore
}

// consoleNotifier prints pass outcomes and forwards them to the reload
// server.
type consoleNotifier struct {
	mu   sync.Mutex
	out  io.Writer
	next dev.Notifier
}

func (n *consoleNotifier) NotifyReload(pass string, routes int) {
	n.mu.Lock()
	success(n.out, "Compiled %d routes", routes)
	n.mu.Unlock()
	n.next.NotifyReload(pass, routes)
}

func (n *consoleNotifier) NotifyError(msg string) {
	n.mu.Lock()
	for _, line := range strings.Split(msg, "\n") {
		errorMsg(n.out, "%s", line)
	}
	n.mu.Unlock()
	n.next.NotifyError(msg)
}

func (n *consoleNotifier) ClearError() {
	n.mu.Lock()
	success(n.out, "Errors resolved")
	n.mu.Unlock()
	n.next.ClearError()
}
