// Package dev keeps route artifacts current while routes are edited.
//
// The development loop consists of:
//
//   - Watcher: reports file changes below the routes directory (fsnotify)
//   - Orchestrator: runs compile passes, one at a time, and keeps the last
//     good result
//   - Server: serves the in-memory artifact, status and metrics
//   - ReloadServer: notifies clients of new artifacts via WebSocket
//
// # Usage
//
//	o, err := dev.NewOrchestrator(dev.Options{
//	    Compiler: router.Options{FS: osfs.New(root), Root: "app/routes"},
//	    Emitter:  emitter,
//	    Sink:     &emit.FileSink{FS: osfs.New(root), Path: "app/routes/routes_gen.go"},
//	    Debounce: 100 * time.Millisecond,
//	})
//	w := dev.NewWatcher(dev.WatcherConfig{Root: routesDir})
//	w.OnChange(func(dev.Change) { o.Trigger() })
//
// # Reload Protocol
//
// Clients connect to /_routec/reload via WebSocket. Messages are
// JSON-encoded:
//
//	{"type": "reload", "pass": "...", "routes": 5} // New artifact available
//	{"type": "error", "error": "..."}              // Compile failed
//	{"type": "clear"}                              // Previous error resolved
package dev
