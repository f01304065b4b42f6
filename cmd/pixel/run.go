package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/NiyiNeo/Pixel.Bedrock/pkg/pipeline"
	"github.com/spf13/cobra"
)

func newRunCmd(g *globals) *cobra.Command {
	var preview bool

	cmd := &cobra.Command{
		Use:   "run [job]",
		Short: "Render, invoke the model and publish the artifacts of a job",
		Long: `Run executes a job end to end. The job id defaults to $FILENAME.

Artifacts are written to outputs/ and uploaded to the bucket of the active
environment under {environment}/outputs/.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := newPipeline(cmd.Context(), g.settings)
			if err != nil {
				return err
			}

			res, err := p.Run(cmd.Context(), g.jobArg(args))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if g.settings.Log.JSON {
				return writeRunJSON(out, res)
			}

			writeRunSummary(out, res)
			if preview {
				_, _ = fmt.Fprintln(out)
				_, _ = fmt.Fprintln(out, renderPreview(res.Completion, terminalWidth()))
			}

			return nil
		},
	}

	cmd.Flags().BoolVarP(&preview, "preview", "p", false, "render the completion in the terminal")

	return cmd
}

func writeRunSummary(w io.Writer, res pipeline.Result) {
	width := terminalWidth() - 14

	completion := okStyle.Render(truncate(res.Completion, width))
	if res.Placeholder {
		completion = warnStyle.Render(res.Completion + " (placeholder)")
	}

	rows := [][2]string{
		{"job", res.JobID},
		{"environment", string(res.Environment)},
		{"run", res.RunID},
		{"completion", completion},
		{"html", res.Artifacts.HTML.LocalPath},
		{"markdown", res.Artifacts.Markdown.LocalPath},
		{"uploaded", "s3://" + res.Bucket + "/" + res.Artifacts.HTML.Key},
		{"", "s3://" + res.Bucket + "/" + res.Artifacts.Markdown.Key},
	}
	if !res.Usage.IsZero() {
		rows = append(rows, [2]string{"tokens", res.Usage.String()})
	}
	rows = append(rows, [2]string{"took", res.Duration.Round(time.Millisecond).String()})

	_, _ = fmt.Fprintln(w, titleStyle.Render("Published "+res.JobID))
	for _, r := range rows {
		_, _ = fmt.Fprintln(w, labelStyle.Render(r[0])+valueStyle.Render(r[1]))
	}
}

type runJSON struct {
	RunID       string   `json:"run_id"`
	Job         string   `json:"job"`
	Environment string   `json:"environment"`
	Bucket      string   `json:"bucket"`
	Completion  string   `json:"completion"`
	Placeholder bool     `json:"placeholder"`
	Files       []string `json:"files"`
	Keys        []string `json:"keys"`
	InputTokens int      `json:"input_tokens"`
	OutTokens   int      `json:"output_tokens"`
	DurationMS  int64    `json:"duration_ms"`
}

func writeRunJSON(w io.Writer, res pipeline.Result) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(runJSON{
		RunID:       res.RunID,
		Job:         res.JobID,
		Environment: string(res.Environment),
		Bucket:      res.Bucket,
		Completion:  res.Completion,
		Placeholder: res.Placeholder,
		Files:       []string{res.Artifacts.HTML.LocalPath, res.Artifacts.Markdown.LocalPath},
		Keys:        res.Artifacts.Keys(),
		InputTokens: res.Usage.InputTokens,
		OutTokens:   res.Usage.OutputTokens,
		DurationMS:  res.Duration.Milliseconds(),
	})
}
