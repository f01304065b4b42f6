package artifact

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/NiyiNeo/Pixel.Bedrock/pkg/errors"
	"github.com/NiyiNeo/Pixel.Bedrock/pkg/job"
	"github.com/NiyiNeo/Pixel.Bedrock/pkg/prompt"
	"github.com/NiyiNeo/Pixel.Bedrock/pkg/settings"
)

// TimestampLayout is the suffix format of timestamped names (YYYYmmddHHMMSS).
const TimestampLayout = "20060102150405"

const (
	htmlExt     = ".html"
	markdownExt = ".md"
)

// NameInput is what a Namer derives names from.
type NameInput struct {
	Job         job.Config
	Environment settings.Environment
}

// Namer derives the HTML filename of an artifact pair.
type Namer interface {
	HTMLName(in NameInput) (string, error)
}

// FixedNamer names artifacts {job}_{environment}.html. Reruns overwrite.
type FixedNamer struct{}

// HTMLName implements Namer.
func (FixedNamer) HTMLName(in NameInput) (string, error) {
	return in.Job.ID + "_" + string(in.Environment) + htmlExt, nil
}

// TimestampedNamer names artifacts {job}_{environment}_{YYYYmmddHHMMSS}.html.
type TimestampedNamer struct {
	Now func() time.Time
}

// HTMLName implements Namer.
func (n TimestampedNamer) HTMLName(in NameInput) (string, error) {
	now := time.Now
	if n.Now != nil {
		now = n.Now
	}
	return in.Job.ID + "_" + string(in.Environment) + "_" + now().Format(TimestampLayout) + htmlExt, nil
}

// TemplateNamer renders the job's output_file template with the job's own
// variables. ".html" is appended when the result lacks it.
type TemplateNamer struct {
	Renderer *prompt.Renderer
}

// HTMLName implements Namer.
func (n TemplateNamer) HTMLName(in NameInput) (string, error) {
	name, err := n.Renderer.RenderString("output_file", in.Job.OutputNameTemplate, in.Job.Variables)
	if err != nil {
		return "", errors.Wrap(err, "render output filename")
	}

	name = strings.TrimSpace(name)
	if !strings.EqualFold(filepath.Ext(name), htmlExt) {
		name += htmlExt
	}

	return name, nil
}

// NamerFor selects the Namer for a job. A job-level naming choice overrides
// the deployment policy; an output_file template always wins.
func NamerFor(cfg job.Config, policy job.Naming, r *prompt.Renderer, now func() time.Time) Namer {
	naming := cfg.Naming
	if naming == "" {
		naming = policy
	}
	if cfg.OutputNameTemplate != "" && r != nil {
		naming = job.NamingTemplate
	}

	switch naming {
	case job.NamingTimestamped:
		return TimestampedNamer{Now: now}
	case job.NamingTemplate:
		if r == nil {
			return FixedNamer{}
		}
		return TemplateNamer{Renderer: r}
	default:
		return FixedNamer{}
	}
}

// Filenames returns the HTML and markdown filenames derived by n. Both share
// the base name; the markdown name swaps the .html extension for .md.
func Filenames(n Namer, in NameInput) (html, markdown string, err error) {
	html, err = n.HTMLName(in)
	if err != nil {
		return "", "", err
	}

	if err := checkName(html); err != nil {
		return "", "", err
	}

	markdown = strings.TrimSuffix(html, filepath.Ext(html)) + markdownExt

	return html, markdown, nil
}

func checkName(name string) error {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	switch {
	case strings.TrimSpace(base) == "":
		return errors.NewKind(errors.ErrPersistence, "artifact name %q has an empty base", name)
	case strings.ContainsAny(name, `/\`), strings.Contains(name, ".."):
		return errors.NewKind(errors.ErrPersistence, "artifact name %q must not contain path separators or ..", name)
	}
	return nil
}
