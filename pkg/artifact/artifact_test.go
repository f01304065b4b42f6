package artifact_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/NiyiNeo/Pixel.Bedrock/pkg/artifact"
	"github.com/NiyiNeo/Pixel.Bedrock/pkg/errors"
	"github.com/NiyiNeo/Pixel.Bedrock/pkg/job"
	"github.com/NiyiNeo/Pixel.Bedrock/pkg/settings"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu      sync.Mutex
	objects []artifact.Object
	failKey string
}

func (m *memStore) Put(_ context.Context, obj artifact.Object) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if obj.Key == m.failKey {
		return errors.New("access denied")
	}
	m.objects = append(m.objects, obj)
	return nil
}

func welcomeRequest(completion string) artifact.Request {
	return artifact.Request{
		RunID:       "run-1",
		Job:         job.Config{ID: "welcome", Variables: map[string]any{"name": "Jordan"}, HTMLFormat: job.FormatPre},
		Environment: settings.Beta,
		Bucket:      "beta-bucket",
		Completion:  completion,
		Namer:       artifact.FixedNamer{},
	}
}

func TestPublish_WritesAndUploadsPair(t *testing.T) {
	out := filepath.Join(t.TempDir(), "outputs")
	store := &memStore{}

	set, err := artifact.NewPublisher(out, store).Publish(context.Background(), welcomeRequest("Great job, Jordan!"))
	require.NoError(t, err)

	assert.Equal(t, "welcome_beta.html", set.HTML.Filename)
	assert.Equal(t, "welcome_beta.md", set.Markdown.Filename)
	assert.Equal(t, []string{"beta/outputs/welcome_beta.html", "beta/outputs/welcome_beta.md"}, set.Keys())

	md, err := os.ReadFile(filepath.Join(out, "welcome_beta.md"))
	require.NoError(t, err)
	assert.Equal(t, "Great job, Jordan!", string(md))

	html, err := os.ReadFile(filepath.Join(out, "welcome_beta.html"))
	require.NoError(t, err)
	assert.Contains(t, string(html), "<html>")
	assert.Contains(t, string(html), "<body><pre>Great job, Jordan!</pre></body>")

	require.Len(t, store.objects, 2)
	assert.Equal(t, "beta-bucket", store.objects[0].Bucket)
	assert.Equal(t, "beta/outputs/welcome_beta.html", store.objects[0].Key)
	assert.Equal(t, "text/html", store.objects[0].ContentType)
	assert.Equal(t, html, store.objects[0].Body)
	assert.Equal(t, "beta/outputs/welcome_beta.md", store.objects[1].Key)
	assert.Equal(t, "text/markdown", store.objects[1].ContentType)
	assert.Equal(t, map[string]string{"job": "welcome", "environment": "beta", "run-id": "run-1"}, store.objects[1].Metadata)

	entries, err := os.ReadDir(out)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "no temp files left behind")
}

func TestPublish_RerunOverwrites(t *testing.T) {
	out := t.TempDir()
	p := artifact.NewPublisher(out, &memStore{})

	_, err := p.Publish(context.Background(), welcomeRequest("first"))
	require.NoError(t, err)
	_, err = p.Publish(context.Background(), welcomeRequest("second"))
	require.NoError(t, err)

	md, err := os.ReadFile(filepath.Join(out, "welcome_beta.md"))
	require.NoError(t, err)
	assert.Equal(t, "second", string(md))
}

func TestPublish_HTMLKeyOverride(t *testing.T) {
	req := welcomeRequest("hello")
	req.Job.Publish.HTMLKey = "index.html"
	req.Environment = settings.Prod
	req.Bucket = "prod-bucket"

	store := &memStore{}
	set, err := artifact.NewPublisher(t.TempDir(), store).Publish(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, "index.html", set.HTML.Key)
	assert.Equal(t, "prod/outputs/welcome_prod.md", set.Markdown.Key)
	assert.Equal(t, "welcome_prod.html", set.HTML.Filename)
}

func TestPublish_UploadFailureKeepsLocalFiles(t *testing.T) {
	out := t.TempDir()
	store := &memStore{failKey: "beta/outputs/welcome_beta.md"}

	set, err := artifact.NewPublisher(out, store).Publish(context.Background(), welcomeRequest("kept"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrPersistence))

	assert.FileExists(t, set.HTML.LocalPath)
	assert.FileExists(t, set.Markdown.LocalPath)
	assert.Len(t, store.objects, 1)
}

func TestPublish_MissingBucket(t *testing.T) {
	req := welcomeRequest("x")
	req.Bucket = ""

	_, err := artifact.NewPublisher(t.TempDir(), &memStore{}).Publish(context.Background(), req)
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrPersistence))
}

func TestPublish_UnwritableOutputDir(t *testing.T) {
	file := filepath.Join(t.TempDir(), "outputs")
	require.NoError(t, os.WriteFile(file, []byte("not a dir"), 0o600))

	store := &memStore{}
	_, err := artifact.NewPublisher(file, store).Publish(context.Background(), welcomeRequest("x"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrPersistence))
	assert.Empty(t, store.objects)
}

func TestRenderHTML_EscapesPreformatted(t *testing.T) {
	page, err := artifact.RenderHTML(context.Background(), "welcome", `<script>alert("x")</script> & more`, job.FormatPre)
	require.NoError(t, err)

	html := string(page)
	assert.NotContains(t, html, "<script>")
	assert.Contains(t, html, "&lt;script&gt;")
	assert.Contains(t, html, "<title>welcome</title>")
	assert.True(t, strings.HasPrefix(html, "<html>"))
}

func TestRenderHTML_Markdown(t *testing.T) {
	page, err := artifact.RenderHTML(context.Background(), "digest", "# Weekly\n\n- **one**\n\n<script>alert(1)</script>", job.FormatMarkdown)
	require.NoError(t, err)

	html := string(page)
	assert.Contains(t, html, "<h1")
	assert.Contains(t, html, "<strong>one</strong>")
	assert.NotContains(t, html, "<script>")
}

func TestWriteFile_CreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "out.md")

	require.NoError(t, artifact.WriteFile(path, []byte("body")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "body", string(data))
}

type fakeS3 struct {
	input *s3.PutObjectInput
	body  string
	err   error
}

func (f *fakeS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = params
	if params.Body != nil {
		data, _ := io.ReadAll(params.Body)
		f.body = string(data)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3Store_Put(t *testing.T) {
	api := &fakeS3{}
	store := &artifact.S3Store{Client: api}

	err := store.Put(context.Background(), artifact.Object{
		Bucket:      "beta-bucket",
		Key:         "beta/outputs/welcome_beta.md",
		ContentType: "text/markdown",
		Body:        []byte("Great job, Jordan!"),
		Metadata:    map[string]string{"job": "welcome"},
	})
	require.NoError(t, err)

	assert.Equal(t, "beta-bucket", aws.ToString(api.input.Bucket))
	assert.Equal(t, "beta/outputs/welcome_beta.md", aws.ToString(api.input.Key))
	assert.Equal(t, "text/markdown", aws.ToString(api.input.ContentType))
	assert.Equal(t, int64(18), aws.ToInt64(api.input.ContentLength))
	assert.Equal(t, "welcome", api.input.Metadata["job"])
	assert.Equal(t, "Great job, Jordan!", api.body)
}

func TestS3Store_PutError(t *testing.T) {
	api := &fakeS3{err: &smithy.GenericAPIError{Code: "NoSuchBucket", Message: "gone"}}

	err := (&artifact.S3Store{Client: api}).Put(context.Background(), artifact.Object{Bucket: "b", Key: "k"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrPersistence))
	assert.Contains(t, errors.FlattenDetails(err), "code: NoSuchBucket")
	assert.NotEmpty(t, errors.FlattenHints(err))
}
