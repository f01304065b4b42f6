package main

import (
	"os"

	"github.com/NiyiNeo/Pixel.Bedrock/pkg/mcpserver"
	"github.com/spf13/cobra"
)

func newMCPCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "mcp",
		Short: "Serve render_prompt and run_job as MCP tools over stdio",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := newPipeline(cmd.Context(), g.settings)
			if err != nil {
				return err
			}

			return mcpserver.NewForRunner("pixel", version, p).Serve(cmd.Context(), os.Stdin, os.Stdout)
		},
	}
}
