package artifact_test

import (
	"testing"
	"time"

	"github.com/NiyiNeo/Pixel.Bedrock/pkg/artifact"
	"github.com/NiyiNeo/Pixel.Bedrock/pkg/errors"
	"github.com/NiyiNeo/Pixel.Bedrock/pkg/job"
	"github.com/NiyiNeo/Pixel.Bedrock/pkg/prompt"
	"github.com/NiyiNeo/Pixel.Bedrock/pkg/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock() time.Time {
	return time.Date(2024, 3, 9, 14, 5, 7, 0, time.UTC)
}

func welcomeInput(env settings.Environment) artifact.NameInput {
	return artifact.NameInput{
		Job:         job.Config{ID: "welcome", Variables: map[string]any{"name": "Jordan"}},
		Environment: env,
	}
}

func TestFilenames_Fixed(t *testing.T) {
	html, md, err := artifact.Filenames(artifact.FixedNamer{}, welcomeInput(settings.Beta))
	require.NoError(t, err)
	assert.Equal(t, "welcome_beta.html", html)
	assert.Equal(t, "welcome_beta.md", md)

	html, _, err = artifact.Filenames(artifact.FixedNamer{}, welcomeInput(settings.Prod))
	require.NoError(t, err)
	assert.Equal(t, "welcome_prod.html", html)
}

func TestFilenames_Timestamped(t *testing.T) {
	html, md, err := artifact.Filenames(artifact.TimestampedNamer{Now: fixedClock}, welcomeInput(settings.Prod))
	require.NoError(t, err)
	assert.Equal(t, "welcome_prod_20240309140507.html", html)
	assert.Equal(t, "welcome_prod_20240309140507.md", md)
}

func TestFilenames_Template(t *testing.T) {
	n := artifact.TemplateNamer{Renderer: prompt.New(nil, true)}

	tests := []struct {
		tmpl     string
		wantHTML string
		wantMD   string
	}{
		{"{{ name|lower }}_welcome.html", "jordan_welcome.html", "jordan_welcome.md"},
		{"{{ name }}-note", "Jordan-note.html", "Jordan-note.md"},
	}

	for _, tt := range tests {
		in := welcomeInput(settings.Beta)
		in.Job.OutputNameTemplate = tt.tmpl

		html, md, err := artifact.Filenames(n, in)
		require.NoError(t, err, tt.tmpl)
		assert.Equal(t, tt.wantHTML, html)
		assert.Equal(t, tt.wantMD, md)
	}
}

func TestFilenames_TemplateRejectsPaths(t *testing.T) {
	n := artifact.TemplateNamer{Renderer: prompt.New(nil, true)}

	for _, tmpl := range []string{"../{{ name }}.html", "site/{{ name }}.html", `a\{{ name }}`} {
		in := welcomeInput(settings.Beta)
		in.Job.OutputNameTemplate = tmpl

		_, _, err := artifact.Filenames(n, in)
		require.Error(t, err, tmpl)
		assert.True(t, errors.Is(err, errors.ErrPersistence), tmpl)
	}
}

func TestFilenames_TemplateMissingVariable(t *testing.T) {
	in := welcomeInput(settings.Beta)
	in.Job.OutputNameTemplate = "{{ team }}.html"

	_, _, err := artifact.Filenames(artifact.TemplateNamer{Renderer: prompt.New(nil, true)}, in)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrRender))
}

func TestNamerFor(t *testing.T) {
	r := prompt.New(nil, true)

	assert.IsType(t, artifact.FixedNamer{}, artifact.NamerFor(job.Config{}, "", r, nil))
	assert.IsType(t, artifact.FixedNamer{}, artifact.NamerFor(job.Config{}, job.NamingFixed, r, nil))
	assert.IsType(t, artifact.TimestampedNamer{}, artifact.NamerFor(job.Config{}, job.NamingTimestamped, r, nil))
	assert.IsType(t, artifact.FixedNamer{}, artifact.NamerFor(job.Config{Naming: job.NamingFixed}, job.NamingTimestamped, r, nil))
	assert.IsType(t, artifact.TimestampedNamer{}, artifact.NamerFor(job.Config{Naming: job.NamingTimestamped}, job.NamingFixed, r, nil))
	assert.IsType(t, artifact.TemplateNamer{}, artifact.NamerFor(job.Config{OutputNameTemplate: "x"}, job.NamingTimestamped, r, nil))
}
