package main

import (
	"github.com/spf13/cobra"

	"github.com/dhamidi/crabrl/workspace"
)

func newLSPCmd() *cobra.Command {
	var cacheSize int

	cmd := &cobra.Command{
		Use:   "lsp",
		Short: "Start the Language Server Protocol server",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig()
			server := workspace.NewLSPServer(version,
				workspace.WithParserOptions(cfg.ParserOptions()...),
				workspace.WithValidatorOptions(cfg.ValidatorOptions()...),
				workspace.WithCacheSize(cacheSize),
			)
			return server.RunStdio()
		},
	}

	cmd.Flags().IntVar(&cacheSize, "cache", workspace.DefaultCacheSize, "number of parsed documents kept by content hash")

	return cmd
}
