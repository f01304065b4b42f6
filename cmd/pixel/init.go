package main

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/NiyiNeo/Pixel.Bedrock/pkg/errors"
	"github.com/NiyiNeo/Pixel.Bedrock/pkg/workdir"
	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

func newInitCmd(g *globals) *cobra.Command {
	var interactive bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create prompts/, prompt_templates/ and outputs/ with a sample job",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			sample := workdir.DefaultSample
			if interactive {
				s, err := runInitWizard()
				if err != nil {
					return err
				}
				sample = s
			}

			d := workdir.New(g.settings.Root)
			created, err := workdir.Bootstrap(d, sample)
			if err != nil {
				return errors.WrapKind(err, errors.ErrPersistence, "init workspace")
			}

			out := cmd.OutOrStdout()
			if len(created) == 0 {
				_, _ = fmt.Fprintln(out, dimStyle.Render("workspace already initialized in "+d.Root()))
				return nil
			}

			for _, p := range created {
				_, _ = fmt.Fprintln(out, okStyle.Render("created ")+valueStyle.Render(p))
			}
			_, _ = fmt.Fprintln(out, dimStyle.Render("next: pixel render "+sample.Job))

			return nil
		},
	}

	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false, "describe the sample job with a form")

	return cmd
}

var jobIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)

func validateJobID(s string) error {
	if !jobIDPattern.MatchString(s) {
		return fmt.Errorf("use letters, digits, '-' and '_'")
	}
	return nil
}

func validateTemplateFile(s string) error {
	s = strings.TrimSpace(s)
	if s == "" || strings.ContainsAny(s, `/\`) {
		return fmt.Errorf("must be a file name inside prompt_templates/")
	}
	return nil
}

func validateRequired(s string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("required")
	}
	return nil
}

// runInitWizard asks for the sample job. The template body references the
// single variable it collects.
func runInitWizard() (workdir.Sample, error) {
	var (
		id       = workdir.DefaultSample.Job
		file     = workdir.DefaultSample.TemplateFile
		variable = "name"
		value    = "Jordan"
		body     = "Write a short, warm welcome note for {{ name }}, who just joined the team."
	)

	if err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().Title("Job id").Value(&id).Validate(validateJobID),
			huh.NewInput().Title("Template file").Value(&file).Validate(validateTemplateFile),
		),
		huh.NewGroup(
			huh.NewInput().Title("Variable name").Value(&variable).Validate(validateJobID),
			huh.NewInput().Title("Variable value").Value(&value).Validate(validateRequired),
			huh.NewText().Title("Template").Value(&body).Validate(validateRequired),
		),
	).Run(); err != nil {
		return workdir.Sample{}, errors.Wrap(err, "init wizard")
	}

	return workdir.Sample{
		Job:          id,
		TemplateFile: strings.TrimSpace(file),
		TemplateBody: strings.TrimRight(body, "\n") + "\n",
		Variables:    map[string]any{variable: value},
	}, nil
}
