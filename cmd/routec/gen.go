package main

import (
	"github.com/spf13/cobra"
)

func genCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Compile the routes directory and write the artifact",
		Long: `Scan the routes directory, compile every route file and write the
route table artifact.

In static mode the artifact is Go source registering each route with its
handlers. In dynamic mode it is a JSON or YAML manifest read at startup by
the registrar package.

The output is deterministic: running gen again without changes to the
routes directory leaves the artifact untouched.

Examples:
  routec gen
  routec gen --mode=dynamic --output=app/routes/routes.json
  routec gen --write=false     # print the artifact instead`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGen(cmd)
		},
	}

	cmd.Flags().Bool("write", true, "Write the artifact to disk (print it to stdout when false)")

	return cmd
}

func runGen(cmd *cobra.Command) error {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	p, err := loadProject(cmd)
	if err != nil {
		return err
	}

	if p.cfg.Write {
		info(out, "Scanning %s...", p.cfg.Dir)
	}
	table, art, err := p.build(ctx)
	if err != nil {
		return err
	}

	if !p.cfg.Write {
		if _, err := out.Write(art.Content); err != nil {
			return err
		}
	} else {
		changed, err := p.fileSink().Write(ctx, art)
		if err != nil {
			return err
		}
		if changed {
			success(out, "Generated %s (%d routes)", p.cfg.Output, table.Len())
		} else {
			success(out, "%s is up to date (%d routes)", p.cfg.Output, table.Len())
		}
	}

	pub, err := p.publishSink(ctx)
	if err != nil || pub == nil {
		return err
	}
	if _, err := pub.Write(ctx, art); err != nil {
		return err
	}
	success(out, "Published s3://%s/%s", p.cfg.Publish.S3.Bucket, p.cfg.Publish.S3.Key)
	return nil
}
