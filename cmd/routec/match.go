package main

import (
	"encoding/json"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	routecerrors "github.com/vango-dev/routec/internal/errors"
	"github.com/vango-dev/routec/pkg/routepath"
)

func matchCmd() *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "match <url>",
		Short: "Show which route handles a URL",
		Long: `Canonicalize a URL path the way the router sees it and report the
first route that matches, with its decoded parameters.

Examples:
  routec match /users/42
  routec match 'https://example.com/files/a/b.txt?download=1'
  routec match /users/42 --json`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runMatch(cmd, args[0], asJSON)
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the match as JSON")

	return cmd
}

type matchResult struct {
	Path    string            `json:"path"`
	Pattern string            `json:"pattern"`
	File    string            `json:"file"`
	Methods []string          `json:"methods"`
	Params  map[string]string `json:"params,omitempty"`
}

func runMatch(cmd *cobra.Command, target string, asJSON bool) error {
	p, err := loadProject(cmd)
	if err != nil {
		return err
	}

	path := requestPath(target)
	canon, err := routepath.CanonicalizePath(path)
	if err != nil {
		return fmt.Errorf("invalid path %q: %w", path, err)
	}

	table, err := p.compile(cmd.Context())
	if err != nil {
		return err
	}

	r, params, ok := table.Lookup(canon.Path)
	if !ok {
		return routecerrors.New("E151").
			WithDetail(canon.Path).
			WithSuggestion("Run 'routec list' to see every route")
	}

	res := matchResult{
		Path:    canon.Path,
		Pattern: p.cfg.RouteDialect().Format(r.Pattern, r.CatchAllParam()),
		File:    r.File.RelPath,
		Methods: r.File.Methods.Strings(),
		Params:  params,
	}
	out := cmd.OutOrStdout()

	if asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}

	success(out, "%s → %s", res.Path, res.Pattern)
	info(out, "File:    %s", res.File)
	info(out, "Methods: %s", strings.Join(res.Methods, ", "))
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		info(out, "  %s = %s", name, params[name])
	}
	return nil
}

// requestPath returns the path and query of target, which may be a full
// URL or just a path.
func requestPath(target string) string {
	u, err := url.Parse(target)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return target
	}
	if u.RawQuery != "" {
		return u.EscapedPath() + "?" + u.RawQuery
	}
	return u.EscapedPath()
}
