package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/hand-lang/handc/internal/lsp"
)

// NewLspCommand creates the lsp command
func NewLspCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "lsp",
		Short: "Start the HAND language server on stdio",
		Long: `Serve the Language Server Protocol over stdin/stdout, publishing full
pipeline diagnostics on open/change/save and providing document formatting.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			server := lsp.NewServer()
			return server.Run(context.Background())
		},
	}
}
