package main

import (
	"os"

	"github.com/spf13/cobra"
	"github.com/tliron/commonlog"

	"github.com/dhamidi/retap/config"

	_ "github.com/tliron/commonlog/simple"
)

func main() {
	var verbosity int

	rootCmd := &cobra.Command{
		Use:   "retap",
		Short: "Rewrite Mono.doAfterSuccessOrError call sites to tap",
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			cfg, err := config.Load(".")
			if err != nil {
				cfg = config.Default()
			}
			commonlog.Configure(cfg.LogVerbosity(verbosity), nil)
		},
	}

	rootCmd.PersistentFlags().CountVarP(&verbosity, "verbose", "v", "increase log verbosity")

	rootCmd.AddCommand(newScanCmd())
	rootCmd.AddCommand(newRewriteCmd())
	rootCmd.AddCommand(newParseCmd())
	rootCmd.AddCommand(newLSPCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
