// Package job resolves and validates the per-job configuration: which
// template to render, the variables bound into it, and the per-job options
// for request construction and artifact naming.
package job

import (
	"strings"

	"github.com/NiyiNeo/Pixel.Bedrock/pkg/errors"
)

// Mode selects how the rendered prompt is wrapped in the model request.
type Mode string

const (
	ModeDirect  Mode = "direct"
	ModePersona Mode = "persona"
)

// Naming selects how artifact filenames are derived.
type Naming string

const (
	NamingFixed       Naming = "fixed"
	NamingTimestamped Naming = "timestamped"
	NamingTemplate    Naming = "template"
)

// HTMLFormat selects how the completion is placed in the HTML artifact.
type HTMLFormat string

const (
	FormatPre      HTMLFormat = "pre"
	FormatMarkdown HTMLFormat = "markdown"
)

// Persona configures persona mode.
type Persona struct {
	Name         string `json:"name" yaml:"name" toml:"name"`
	Instructions string `json:"instructions,omitempty" yaml:"instructions,omitempty" toml:"instructions,omitempty"`
}

// Publish holds per-job overrides of the remote destination.
type Publish struct {
	// HTMLKey, when set, is the exact object key for the HTML artifact
	// (e.g. "index.html" for website-root publishing).
	HTMLKey string `json:"html_key,omitempty" yaml:"html_key,omitempty" toml:"html_key,omitempty"`
}

// Config identifies one generation job.
type Config struct {
	ID                 string         `json:"-" yaml:"-" toml:"-"`
	TemplateRef        string         `json:"template_file" yaml:"template_file" toml:"template_file"`
	Variables          map[string]any `json:"variables" yaml:"variables" toml:"variables"`
	OutputNameTemplate string         `json:"output_file,omitempty" yaml:"output_file,omitempty" toml:"output_file,omitempty"`
	Mode               Mode           `json:"mode,omitempty" yaml:"mode,omitempty" toml:"mode,omitempty"`
	Persona            *Persona       `json:"persona,omitempty" yaml:"persona,omitempty" toml:"persona,omitempty"`
	MaxTokens          int            `json:"max_tokens,omitempty" yaml:"max_tokens,omitempty" toml:"max_tokens,omitempty"`
	Naming             Naming         `json:"naming,omitempty" yaml:"naming,omitempty" toml:"naming,omitempty"`
	Publish            Publish        `json:"publish,omitempty" yaml:"publish,omitempty" toml:"publish,omitempty"`
	HTMLFormat         HTMLFormat     `json:"html_format,omitempty" yaml:"html_format,omitempty" toml:"html_format,omitempty"`

	Source string `json:"-" yaml:"-" toml:"-"` // Path the config was read from.
}

// applyDefaults fills optional fields with their defaults.
func (c *Config) applyDefaults() {
	if c.Mode == "" {
		c.Mode = ModeDirect
	}
	if c.HTMLFormat == "" {
		c.HTMLFormat = FormatPre
	}
	if c.Naming == "" && c.OutputNameTemplate != "" {
		c.Naming = NamingTemplate
	}
}

// Validate checks that required fields are present and options are known.
func (c Config) Validate() error {
	if strings.TrimSpace(c.TemplateRef) == "" {
		return c.invalid("template_file is missing")
	}

	if len(c.Variables) == 0 {
		return c.invalid("variables are missing or empty")
	}

	switch c.Mode {
	case ModeDirect:
	case ModePersona:
		if c.Persona == nil || strings.TrimSpace(c.Persona.Name) == "" {
			return c.invalid("persona mode requires persona.name")
		}
	default:
		return c.invalid("unknown mode %q", c.Mode)
	}

	switch c.Naming {
	case "", NamingFixed, NamingTimestamped:
	case NamingTemplate:
		if strings.TrimSpace(c.OutputNameTemplate) == "" {
			return c.invalid("naming %q requires output_file", c.Naming)
		}
	default:
		return c.invalid("unknown naming %q", c.Naming)
	}

	switch c.HTMLFormat {
	case FormatPre, FormatMarkdown:
	default:
		return c.invalid("unknown html_format %q", c.HTMLFormat)
	}

	if c.MaxTokens < 0 {
		return c.invalid("max_tokens must be positive, got %d", c.MaxTokens)
	}

	return nil
}

func (c Config) invalid(format string, args ...interface{}) error {
	err := errors.NewKind(errors.ErrConfigInvalid, format, args...)
	err = errors.Wrapf(err, "job %q", c.ID)
	if c.Source != "" {
		err = errors.WithDetailf(err, "config file: %s", c.Source)
	}
	return err
}
