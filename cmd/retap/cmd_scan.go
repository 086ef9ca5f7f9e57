package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dhamidi/retap/config"
	"github.com/dhamidi/retap/project"
	"github.com/dhamidi/retap/rewrite"
)

func newScanCmd() *cobra.Command {
	var pattern string

	cmd := &cobra.Command{
		Use:   "scan [path...]",
		Short: "Report doAfterSuccessOrError call sites without rewriting",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(args, pattern)
		},
	}

	cmd.Flags().StringVarP(&pattern, "pattern", "p", "", "method pattern to match (defaults to the configured one)")

	return cmd
}

func runScan(roots []string, pattern string) error {
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

	total, skipped := 0, 0
	for _, file := range files {
		result, err := engine.ScanFile(file)
		if err != nil {
			fmt.Printf("[ERROR] %v\n", err)
			continue
		}
		for _, site := range result.Sites {
			total++
			if site.Applied {
				form := "opaque callback"
				if site.Inline {
					form = "inline lambda"
				}
				fmt.Printf("%s:%d:%d: %s.doAfterSuccessOrError (%s)\n", file, site.Line, site.Column, site.Receiver, form)
			} else {
				skipped++
				fmt.Printf("%s:%d:%d: %s.doAfterSuccessOrError (skipped: %s)\n", file, site.Line, site.Column, site.Receiver, site.Reason)
			}
		}
	}

	fmt.Printf("\n%d call sites (%d rewritable, %d skipped) in %d files\n", total, total-skipped, skipped, len(files))
	return nil
}
