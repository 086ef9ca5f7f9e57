package main

import (
	"github.com/spf13/cobra"

	"github.com/dhamidi/retap/config"
	"github.com/dhamidi/retap/lsp"
	"github.com/dhamidi/retap/rewrite"
)

func newLSPCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(".")
			if err != nil {
				return err
			}
			engine, err := rewrite.NewEngine(cfg.Pattern)
			if err != nil {
				return err
			}
			return lsp.NewServer(engine, "0.1.0").RunStdio()
		},
	}
}
