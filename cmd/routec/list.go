package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	routecerrors "github.com/vango-dev/routec/internal/errors"
	"github.com/vango-dev/routec/pkg/emit"
)

func listCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the compiled routes in match order",
		Long: `Compile the routes directory and print every route in the order the
router tries them.

Formats:
  table   pattern, methods, file and module (default)
  json    the dynamic-mode manifest as JSON
  yaml    the dynamic-mode manifest as YAML

Examples:
  routec list
  routec list --format=json
  routec list --dialect=gin`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(cmd, format)
		},
	}

	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table, json or yaml")

	return cmd
}

func runList(cmd *cobra.Command, format string) error {
	p, err := loadProject(cmd)
	if err != nil {
		return err
	}

	table, err := p.compile(cmd.Context())
	if err != nil {
		return err
	}
	m := emit.BuildManifest(table, p.cfg.Target())
	out := cmd.OutOrStdout()

	switch strings.ToLower(format) {
	case "table", "":
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "PATTERN\tMETHODS\tFILE\tMODULE")
		dialect := p.cfg.RouteDialect()
		for _, e := range m.Routes {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n",
				e.DialectPattern(dialect), strings.Join(e.Methods, ","), e.File, e.Locator)
		}
		return tw.Flush()
	case "json", "yaml":
		data, err := m.Encode(emit.Format(strings.ToLower(format)))
		if err != nil {
			return err
		}
		_, err = out.Write(data)
		return err
	}

	return routecerrors.New("E122").
		WithDetail(fmt.Sprintf("unknown list format %q", format)).
		WithSuggestion("Use table, json or yaml")
}
