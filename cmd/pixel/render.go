package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

func newRenderCmd(g *globals) *cobra.Command {
	return &cobra.Command{
		Use:   "render [job]",
		Short: "Show the rendered prompt and model request without calling the model",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			draft, err := newRenderPipeline(g.settings).Render(g.jobArg(args))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()

			if g.settings.Log.JSON {
				enc := json.NewEncoder(out)
				enc.SetIndent("", "  ")
				return enc.Encode(draft.Request)
			}

			envelope, err := json.MarshalIndent(draft.Request, "", "  ")
			if err != nil {
				return err
			}

			_, _ = fmt.Fprintln(out, titleStyle.Render("Prompt")+" "+dimStyle.Render(draft.Job.Source))
			_, _ = fmt.Fprintln(out, blockStyle.Render(draft.Prompt))
			_, _ = fmt.Fprintln(out)
			_, _ = fmt.Fprintln(out, titleStyle.Render("Request"))
			_, _ = fmt.Fprintln(out, blockStyle.Render(string(envelope)))

			return nil
		},
	}
}
