// Package request assembles the model request envelope from a rendered
// prompt. Building is pure: identical inputs produce identical envelopes.
package request

import (
	"fmt"
	"strings"

	"github.com/NiyiNeo/Pixel.Bedrock/pkg/errors"
	"github.com/NiyiNeo/Pixel.Bedrock/pkg/job"
	"github.com/NiyiNeo/Pixel.Bedrock/pkg/modeladapter"
)

const (
	// ProtocolVersion is the Anthropic-on-Bedrock messages protocol tag.
	ProtocolVersion = "bedrock-2023-05-31"

	// DefaultMaxTokens bounds the completion length when neither the job
	// nor the deployment sets a limit.
	DefaultMaxTokens = 2000
)

// Mode decides how the rendered prompt becomes the user message.
type Mode interface {
	Content(prompt string) string
}

// Direct sends the prompt unmodified.
type Direct struct{}

// Content returns prompt as is.
func (Direct) Content(prompt string) string { return prompt }

// Persona embeds the prompt in an instruction to rewrite it in the voice of a
// named person.
type Persona struct {
	Name string

	// Instructions replace the default preamble. The non-disclosure rule and
	// the draft block are always appended.
	Instructions string
}

const (
	personaPreamble = "You are %s. Rewrite the draft below in your own voice, as you would write it yourself. " +
		"Keep every fact, name and number from the draft. Reply with the finished text only."

	nonDisclosure = "Never mention that you are an AI, a language model or an assistant, " +
		"and never say that the text was generated or rewritten."
)

// Content wraps prompt in the persona instructions. The prompt appears
// verbatim between <draft> tags.
func (p Persona) Content(prompt string) string {
	preamble := strings.TrimSpace(p.Instructions)
	if preamble == "" {
		preamble = fmt.Sprintf(personaPreamble, p.Name)
	}

	var b strings.Builder
	b.WriteString(preamble)
	b.WriteString("\n\n")
	b.WriteString(nonDisclosure)
	b.WriteString("\n\n<draft>\n")
	b.WriteString(prompt)
	b.WriteString("\n</draft>")

	return b.String()
}

// ModeFor returns the Mode configured for a job.
func ModeFor(cfg job.Config) Mode {
	if cfg.Mode == job.ModePersona && cfg.Persona != nil {
		return Persona{Name: cfg.Persona.Name, Instructions: cfg.Persona.Instructions}
	}
	return Direct{}
}

// Builder creates model requests.
type Builder struct {
	Mode             Mode
	DefaultMaxTokens int
}

// NewBuilder creates a Builder for mode. A nil mode means Direct; a
// non-positive default falls back to DefaultMaxTokens.
func NewBuilder(mode Mode, defaultMaxTokens int) *Builder {
	if mode == nil {
		mode = Direct{}
	}
	if defaultMaxTokens <= 0 {
		defaultMaxTokens = DefaultMaxTokens
	}
	return &Builder{Mode: mode, DefaultMaxTokens: defaultMaxTokens}
}

// Build returns the single-user-message envelope for prompt. maxTokens <= 0
// selects the builder default.
func (b *Builder) Build(prompt string, maxTokens int) (modeladapter.Request, error) {
	if strings.TrimSpace(prompt) == "" {
		return modeladapter.Request{}, errors.NewKind(errors.ErrRender, "cannot build a request from an empty prompt")
	}

	if maxTokens <= 0 {
		maxTokens = b.DefaultMaxTokens
	}
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}

	mode := b.Mode
	if mode == nil {
		mode = Direct{}
	}

	return modeladapter.Request{
		AnthropicVersion: ProtocolVersion,
		MaxTokens:        maxTokens,
		Messages: []modeladapter.Message{
			{Role: modeladapter.User, Content: mode.Content(prompt)},
		},
	}, nil
}
