package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/NiyiNeo/Pixel.Bedrock/pkg/errors"
	"github.com/NiyiNeo/Pixel.Bedrock/pkg/modeladapter"
	"github.com/NiyiNeo/Pixel.Bedrock/pkg/modeladapter/usage"
	"github.com/NiyiNeo/Pixel.Bedrock/pkg/pipeline"
	"github.com/NiyiNeo/Pixel.Bedrock/pkg/settings"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()

	for _, name := range []string{
		"DEPLOY_ENV", "FILENAME", "S3_BUCKET_BETA", "S3_BUCKET_PROD", "ANTHROPIC_API_KEY",
		"PIXEL_ENVIRONMENT", "PIXEL_JOB", "PIXEL_NAMING", "PIXEL_MODEL_PROVIDER",
	} {
		t.Setenv(name, "")
		require.NoError(t, os.Unsetenv(name))
	}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var out bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()
	return out.String(), err
}

func TestInitThenRender(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()

	out, err := execute(t, "init", "--root", root, "--env-file", filepath.Join(root, ".env"))
	require.NoError(t, err)
	assert.Contains(t, out, "welcome.json")
	assert.FileExists(t, filepath.Join(root, "prompts", "welcome.json"))
	assert.FileExists(t, filepath.Join(root, "prompt_templates", "welcome.j2"))

	out, err = execute(t, "render", "welcome", "--root", root, "--json", "--env-file", filepath.Join(root, ".env"))
	require.NoError(t, err)

	var req modeladapter.Request
	require.NoError(t, json.Unmarshal([]byte(out), &req))
	assert.Equal(t, "bedrock-2023-05-31", req.AnthropicVersion)
	assert.Equal(t, 2000, req.MaxTokens)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, "Write a short, warm welcome note for Jordan, who just joined the team.", req.Messages[0].Content)
}

func TestInit_Idempotent(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()
	envFile := filepath.Join(root, ".env")

	_, err := execute(t, "init", "--root", root, "--env-file", envFile)
	require.NoError(t, err)

	out, err := execute(t, "init", "--root", root, "--env-file", envFile)
	require.NoError(t, err)
	assert.Contains(t, out, "already initialized")
}

func TestRender_UnknownJob(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()

	_, err := execute(t, "render", "missing", "--root", root, "--env-file", filepath.Join(root, ".env"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConfigNotFound))
}

func TestRun_RequiresBuckets(t *testing.T) {
	clearEnv(t)
	root := t.TempDir()
	envFile := filepath.Join(root, ".env")

	_, err := execute(t, "init", "--root", root, "--env-file", envFile)
	require.NoError(t, err)

	_, err = execute(t, "run", "welcome", "--root", root, "--env-file", envFile)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrConfigInvalid))
}

func TestPrintError_IncludesHints(t *testing.T) {
	err := errors.WithHint(errors.NewKind(errors.ErrConfigInvalid, "settings: buckets missing"), "export S3_BUCKET_BETA")

	var buf bytes.Buffer
	printError(&buf, err)

	assert.Contains(t, buf.String(), "error:")
	assert.Contains(t, buf.String(), "settings: buckets missing")
	assert.Contains(t, buf.String(), "hint:")
	assert.Contains(t, buf.String(), "export S3_BUCKET_BETA")
}

func TestWriteRunJSON(t *testing.T) {
	res := pipeline.Result{
		RunID:       "run-1",
		JobID:       "welcome",
		Environment: settings.Beta,
		Bucket:      "beta-bucket",
		Completion:  "Great job, Jordan!",
		Usage:       usage.TokenCount{InputTokens: 12, OutputTokens: 7},
	}
	res.Artifacts.HTML.Key = "beta/outputs/welcome_beta.html"
	res.Artifacts.Markdown.Key = "beta/outputs/welcome_beta.md"

	var buf bytes.Buffer
	require.NoError(t, writeRunJSON(&buf, res))

	var got runJSON
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "welcome", got.Job)
	assert.Equal(t, "beta", got.Environment)
	assert.Equal(t, []string{"beta/outputs/welcome_beta.html", "beta/outputs/welcome_beta.md"}, got.Keys)
	assert.Equal(t, 12, got.InputTokens)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "a b c", truncate("a\nb   c", 0))
	assert.Equal(t, "hello", truncate("hello", 10))
	assert.LessOrEqual(t, len([]rune(truncate("hello world, this is long", 8))), 8)
}

func TestValidateJobID(t *testing.T) {
	assert.NoError(t, validateJobID("weekly_digest-2"))
	assert.Error(t, validateJobID("../etc"))
	assert.Error(t, validateJobID(""))
	assert.Error(t, validateTemplateFile("a/b.j2"))
	assert.NoError(t, validateTemplateFile("welcome.j2"))
}
