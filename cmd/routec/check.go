package main

import (
	"bytes"
	"errors"
	"os"

	"github.com/go-git/go-billy/v5/util"
	"github.com/spf13/cobra"

	routecerrors "github.com/vango-dev/routec/internal/errors"
)

func checkCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Verify the artifact on disk is up to date",
		Long: `Compile the routes directory and compare the result with the artifact
on disk. Exits non-zero when they differ, which makes it suitable for CI.

Examples:
  routec check
  routec check --dir=internal/routes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd)
		},
	}
	return cmd
}

func runCheck(cmd *cobra.Command) error {
	p, err := loadProject(cmd)
	if err != nil {
		return err
	}

	table, art, err := p.build(cmd.Context())
	if err != nil {
		return err
	}

	path := p.rel(p.cfg.OutputPath())
	existing, err := util.ReadFile(p.fs, path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return routecerrors.New("E150").
			WithDetail(path + " does not exist").
			WithSuggestion("Run 'routec gen' and commit the result")
	case err != nil:
		return err
	case !bytes.Equal(existing, art.Content):
		return routecerrors.New("E150").
			WithFiles(path).
			WithSuggestion("Run 'routec gen' and commit the result")
	}

	success(cmd.OutOrStdout(), "%s is up to date (%d routes)", path, table.Len())
	return nil
}
