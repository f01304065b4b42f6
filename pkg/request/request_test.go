package request_test

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/NiyiNeo/Pixel.Bedrock/pkg/errors"
	"github.com/NiyiNeo/Pixel.Bedrock/pkg/job"
	"github.com/NiyiNeo/Pixel.Bedrock/pkg/modeladapter"
	"github.com/NiyiNeo/Pixel.Bedrock/pkg/request"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuild_Direct(t *testing.T) {
	b := request.NewBuilder(request.Direct{}, 0)

	got, err := b.Build("Hi Jordan!", 0)
	require.NoError(t, err)

	want := modeladapter.Request{
		AnthropicVersion: "bedrock-2023-05-31",
		MaxTokens:        2000,
		Messages:         []modeladapter.Message{{Role: modeladapter.User, Content: "Hi Jordan!"}},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Build() mismatch (-want +got):\n%s", diff)
	}
}

func TestBuild_MaxTokens(t *testing.T) {
	b := request.NewBuilder(nil, 1500)

	got, err := b.Build("x", 0)
	require.NoError(t, err)
	assert.Equal(t, 1500, got.MaxTokens)

	got, err = b.Build("x", 300)
	require.NoError(t, err)
	assert.Equal(t, 300, got.MaxTokens)

	got, err = (&request.Builder{}).Build("x", -1)
	require.NoError(t, err)
	assert.Equal(t, request.DefaultMaxTokens, got.MaxTokens)
}

func TestBuild_Idempotent(t *testing.T) {
	b := request.NewBuilder(request.Persona{Name: "Sam"}, 0)

	first, err := b.Build("Ship notes for v2", 0)
	require.NoError(t, err)
	second, err := b.Build("Ship notes for v2", 0)
	require.NoError(t, err)

	assert.Empty(t, cmp.Diff(first, second))

	a, err := json.Marshal(first)
	require.NoError(t, err)
	c, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(a), string(c))
}

func TestBuild_Persona(t *testing.T) {
	draft := "Line one.\n  Indented {braces} & <tags>"

	got, err := request.NewBuilder(request.Persona{Name: "Sam, the release manager"}, 0).Build(draft, 0)
	require.NoError(t, err)
	require.Len(t, got.Messages, 1)

	content := got.Messages[0].Content
	assert.Equal(t, modeladapter.User, got.Messages[0].Role)
	assert.True(t, strings.HasPrefix(content, "You are Sam, the release manager."))
	assert.Contains(t, content, "<draft>\n"+draft+"\n</draft>")
	assert.Contains(t, content, "Never mention that you are an AI")
	assert.NotEqual(t, draft, content)
}

func TestBuild_PersonaCustomInstructions(t *testing.T) {
	p := request.Persona{Name: "Sam", Instructions: "Write as a pirate."}

	content := p.Content("Ahoy")
	assert.True(t, strings.HasPrefix(content, "Write as a pirate."))
	assert.NotContains(t, content, "You are Sam")
	assert.Contains(t, content, "Never mention that you are an AI")
	assert.True(t, strings.HasSuffix(content, "<draft>\nAhoy\n</draft>"))
}

func TestBuild_EmptyPrompt(t *testing.T) {
	for _, prompt := range []string{"", " \n\t"} {
		_, err := request.NewBuilder(nil, 0).Build(prompt, 0)
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrRender))
	}
}

func TestModeFor(t *testing.T) {
	assert.Equal(t, request.Direct{}, request.ModeFor(job.Config{Mode: job.ModeDirect}))
	assert.Equal(t,
		request.Persona{Name: "Sam", Instructions: "Be brief."},
		request.ModeFor(job.Config{Mode: job.ModePersona, Persona: &job.Persona{Name: "Sam", Instructions: "Be brief."}}),
	)
	assert.Equal(t, request.Direct{}, request.ModeFor(job.Config{Mode: job.ModePersona}))
}
