package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	routecerrors "github.com/vango-dev/routec/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┬─┐┌─┐┬ ┬┌┬┐┌─┐┌─┐
  ├┬┘│ ││ │ │ ├┤ │
  ┴└─└─┘└─┘ ┴ └─┘└─┘
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		routecerrors.PrintError(err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "routec",
		Short: "Compile a directory of route files into a route table",
		Long: `routec turns a directory of Go route files into the route table of
an HTTP router.

Every file below the routes directory is one route; its path is the URL
pattern and its exported <Prefix><METHOD> handlers are the methods:

  index.go            → /
  about.go            → /about
  users/[id].go       → /users/:id
  files/[...path].go  → /files/*

Routes are ranked so the most specific pattern matches first, and are
emitted either as Go source (static mode) or as a manifest loaded at
startup (dynamic mode).`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.String("root", "", "Project root (default: nearest directory with a routec config or go.mod)")
	flags.StringP("dir", "d", "", "Routes directory (default: app/routes)")
	flags.StringP("output", "o", "", "Artifact path (default: <dir>/routes_gen.go)")
	flags.StringSlice("exclude", nil, "Glob patterns to skip while scanning")
	flags.String("mode", "", "Emission mode: static or dynamic")
	flags.String("dialect", "", "Pattern dialect of the host router: chi, mux or gin")
	flags.String("package", "", "Package name of generated code")
	flags.String("module", "", "Module path (default: read from go.mod)")
	flags.Bool("type-hints", false, "Add handler type assertions to generated code")
	flags.BoolP("verbose", "v", false, "Log every pipeline step")

	rootCmd.AddCommand(
		genCmd(),
		devCmd(),
		listCmd(),
		matchCmd(),
		checkCmd(),
		newCmd(),
		versionCmd(),
	)

	return rootCmd
}

// printBanner prints the routec banner.
func printBanner(w io.Writer) {
	fmt.Fprint(w, banner)
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}

// warn prints a warning message.
func warn(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[33m⚠\033[0m %s\n", fmt.Sprintf(format, args...))
}

// errorMsg prints an error message.
func errorMsg(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[31m✗\033[0m %s\n", fmt.Sprintf(format, args...))
}
