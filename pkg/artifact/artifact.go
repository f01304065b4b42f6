// Package artifact turns a completion into a pair of files (an HTML page and
// the raw markdown text), writes them under outputs/ and uploads them to the
// bucket of the active environment.
//
// Writes happen before uploads. A failure at any step is reported as
// ErrPersistence and nothing already written is rolled back.
package artifact

import (
	"context"
	"path"
	"path/filepath"

	"github.com/NiyiNeo/Pixel.Bedrock/pkg/errors"
	"github.com/NiyiNeo/Pixel.Bedrock/pkg/job"
	"github.com/NiyiNeo/Pixel.Bedrock/pkg/logger"
	"github.com/NiyiNeo/Pixel.Bedrock/pkg/settings"
)

// Media types of the two artifacts.
const (
	ContentTypeHTML     = "text/html"
	ContentTypeMarkdown = "text/markdown"
)

// Artifact is one persisted output file.
type Artifact struct {
	Filename    string
	LocalPath   string
	Key         string
	ContentType string
	Body        []byte
}

// Set is the HTML and markdown pair produced by one run.
type Set struct {
	HTML     Artifact
	Markdown Artifact
}

// Keys returns the remote keys of the pair, HTML first.
func (s Set) Keys() []string {
	return []string{s.HTML.Key, s.Markdown.Key}
}

// Request describes one publish.
type Request struct {
	RunID       string
	Job         job.Config
	Environment settings.Environment
	Bucket      string
	Completion  string
	Namer       Namer
}

// Publisher writes and uploads artifact pairs.
type Publisher struct {
	OutputDir string
	Store     Store
}

// NewPublisher creates a Publisher writing into outputDir and uploading to store.
func NewPublisher(outputDir string, store Store) *Publisher {
	return &Publisher{OutputDir: outputDir, Store: store}
}

// Key returns the default remote key of filename: {environment}/outputs/{filename}.
func Key(env settings.Environment, filename string) string {
	return path.Join(string(env), "outputs", filename)
}

// Build derives the artifact pair for req without touching disk or network.
func (p *Publisher) Build(ctx context.Context, req Request) (Set, error) {
	namer := req.Namer
	if namer == nil {
		namer = FixedNamer{}
	}

	htmlName, mdName, err := Filenames(namer, NameInput{Job: req.Job, Environment: req.Environment})
	if err != nil {
		return Set{}, err
	}

	page, err := RenderHTML(ctx, req.Job.ID, req.Completion, req.Job.HTMLFormat)
	if err != nil {
		return Set{}, errors.WrapKind(err, errors.ErrPersistence, "render %s", htmlName)
	}

	htmlKey := Key(req.Environment, htmlName)
	if req.Job.Publish.HTMLKey != "" {
		htmlKey = req.Job.Publish.HTMLKey
	}

	return Set{
		HTML: Artifact{
			Filename:    htmlName,
			LocalPath:   filepath.Join(p.OutputDir, htmlName),
			Key:         htmlKey,
			ContentType: ContentTypeHTML,
			Body:        page,
		},
		Markdown: Artifact{
			Filename:    mdName,
			LocalPath:   filepath.Join(p.OutputDir, mdName),
			Key:         Key(req.Environment, mdName),
			ContentType: ContentTypeMarkdown,
			Body:        []byte(req.Completion),
		},
	}, nil
}

// Publish builds the pair, writes both files locally, then uploads both to
// req.Bucket. The returned Set is valid even when an upload fails, so callers
// can report what reached the disk.
func (p *Publisher) Publish(ctx context.Context, req Request) (Set, error) {
	if req.Bucket == "" {
		return Set{}, errors.WithHint(
			errors.NewKind(errors.ErrPersistence, "no bucket configured for environment %s", req.Environment),
			"set S3_BUCKET_BETA and S3_BUCKET_PROD",
		)
	}

	set, err := p.Build(ctx, req)
	if err != nil {
		return Set{}, err
	}

	for _, a := range []Artifact{set.HTML, set.Markdown} {
		logChange(a.LocalPath, a.Body)

		if err := WriteFile(a.LocalPath, a.Body); err != nil {
			return set, err
		}

		logger.Debugw("artifact written", "job", req.Job.ID, "run_id", req.RunID, "path", a.LocalPath)
	}

	meta := map[string]string{
		"job":         req.Job.ID,
		"environment": string(req.Environment),
		"run-id":      req.RunID,
	}

	for _, a := range []Artifact{set.HTML, set.Markdown} {
		err := p.Store.Put(ctx, Object{
			Bucket:      req.Bucket,
			Key:         a.Key,
			ContentType: a.ContentType,
			Body:        a.Body,
			Metadata:    meta,
		})
		if err != nil {
			return set, errors.Mark(err, errors.ErrPersistence)
		}

		logger.Infow("artifact uploaded", "job", req.Job.ID, "run_id", req.RunID, "bucket", req.Bucket, "key", a.Key)
	}

	return set, nil
}
