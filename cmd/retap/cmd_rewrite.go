package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/dhamidi/retap/config"
	"github.com/dhamidi/retap/project"
	"github.com/dhamidi/retap/rewrite"
)

func newRewriteCmd() *cobra.Command {
	var write bool
	var pattern string

	cmd := &cobra.Command{
		Use:   "rewrite [path...]",
		Short: "Rewrite doAfterSuccessOrError call sites to tap",
		Long: `Rewrite replaces supported Mono.doAfterSuccessOrError call sites with an
equivalent tap(() -> new DefaultSignalListener<>() {...}) construct and
maintains the file's import list.

Without -w the rewritten source of a single file is printed to stdout; with
-w all changed files are updated in place.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRewrite(args, pattern, write)
		},
	}

	cmd.Flags().BoolVarP(&write, "write", "w", false, "write results back to the source files")
	cmd.Flags().StringVarP(&pattern, "pattern", "p", "", "method pattern to match (defaults to the configured one)")

	return cmd
}

func runRewrite(roots []string, pattern string, write bool) error {
	cfg, err := config.Load(".")
	if err != nil {
		return err
	}
	if len(roots) == 0 {
		roots = cfg.Roots
	}
	if pattern == "" {
		pattern = cfg.Pattern
	}

	engine, err := rewrite.NewEngine(pattern)
	if err != nil {
		return err
	}

	files, err := project.New(roots, cfg.Exclude).JavaFiles()
	if err != nil {
		return err
	}

	if !write && len(files) == 1 {
		result, err := engine.RewriteFile(files[0], false)
		if err != nil {
			return err
		}
		os.Stdout.Write(result.Output)
		return nil
	}

	changed := 0
	for _, file := range files {
		result, err := engine.RewriteFile(file, write)
		if err != nil {
			fmt.Printf("[ERROR] %v\n", err)
			continue
		}
		if result.Changed {
			changed++
			fmt.Printf("[REWRITE] %s (%d sites)\n", file, appliedCount(result.Sites))
		}
	}

	if !write && changed > 0 {
		fmt.Printf("\n%d files would change; re-run with -w to apply\n", changed)
	}
	return nil
}

func appliedCount(sites []rewrite.SiteResult) int {
	n := 0
	for _, site := range sites {
		if site.Applied {
			n++
		}
	}
	return n
}
