// Package pipeline runs one generation job end to end: resolve the job
// config, render its template, build the model request, invoke the model,
// extract the completion, publish the artifact pair and announce it.
//
// Stages run strictly in order on one goroutine. The only blocking stage,
// the model call, is bounded by the configured timeout. Cancellation is
// honored between stages; once uploads start they run to completion.
package pipeline

import (
	"context"
	"time"

	"github.com/NiyiNeo/Pixel.Bedrock/pkg/artifact"
	"github.com/NiyiNeo/Pixel.Bedrock/pkg/errors"
	"github.com/NiyiNeo/Pixel.Bedrock/pkg/extract"
	"github.com/NiyiNeo/Pixel.Bedrock/pkg/job"
	"github.com/NiyiNeo/Pixel.Bedrock/pkg/logger"
	"github.com/NiyiNeo/Pixel.Bedrock/pkg/modeladapter"
	"github.com/NiyiNeo/Pixel.Bedrock/pkg/modeladapter/usage"
	"github.com/NiyiNeo/Pixel.Bedrock/pkg/notify"
	"github.com/NiyiNeo/Pixel.Bedrock/pkg/prompt"
	"github.com/NiyiNeo/Pixel.Bedrock/pkg/request"
	"github.com/NiyiNeo/Pixel.Bedrock/pkg/settings"
	"github.com/NiyiNeo/Pixel.Bedrock/pkg/workdir"
	"github.com/google/uuid"
)

// Stage names used in error messages and log fields.
const (
	StageResolve = "resolve"
	StageRender  = "render"
	StageBuild   = "build"
	StageInvoke  = "invoke"
	StageExtract = "extract"
	StagePublish = "publish"
	StageNotify  = "notify"
)

// Draft is everything a run decides before the model is called.
type Draft struct {
	Job     job.Config
	Prompt  string
	Request modeladapter.Request
}

// Result describes a completed run.
type Result struct {
	RunID       string
	JobID       string
	Environment settings.Environment
	Bucket      string
	Prompt      string
	Completion  string
	Placeholder bool
	Usage       usage.TokenCount
	Artifacts   artifact.Set
	Duration    time.Duration
}

// Pipeline wires the stages together.
type Pipeline struct {
	Settings  settings.Settings
	Resolver  *job.Resolver
	Renderer  *prompt.Renderer
	Invoker   modeladapter.Invoker
	Publisher *artifact.Publisher
	Notifier  notify.Notifier
	Usage     *usage.Tracker

	Now      func() time.Time
	NewRunID func() string
}

// New assembles a Pipeline over the workspace at s.Root.
func New(s settings.Settings, inv modeladapter.Invoker, store artifact.Store, n notify.Notifier) *Pipeline {
	d := workdir.New(s.Root)

	if n == nil {
		n = notify.Nop{}
	}

	return &Pipeline{
		Settings:  s,
		Resolver:  job.NewResolver(d),
		Renderer:  prompt.New(prompt.DirSource{Root: d.TemplatesDir()}, s.Template.Strict),
		Invoker:   inv,
		Publisher: artifact.NewPublisher(d.OutputsDir(), store),
		Notifier:  n,
		Usage:     &usage.Tracker{},
		Now:       time.Now,
		NewRunID:  uuid.NewString,
	}
}

// Render resolves jobID and renders its request without any network call.
func (p *Pipeline) Render(jobID string) (Draft, error) {
	cfg, err := p.Resolver.Resolve(jobID)
	if err != nil {
		return Draft{}, stageError(err, jobID, StageResolve)
	}

	text, err := p.Renderer.Render(cfg.TemplateRef, cfg.Variables)
	if err != nil {
		return Draft{}, stageError(err, jobID, StageRender)
	}

	req, err := request.NewBuilder(request.ModeFor(cfg), p.Settings.Model.MaxTokens).Build(text, cfg.MaxTokens)
	if err != nil {
		return Draft{}, stageError(err, jobID, StageBuild)
	}

	return Draft{Job: cfg, Prompt: text, Request: req}, nil
}

// Run executes the full pipeline for jobID.
func (p *Pipeline) Run(ctx context.Context, jobID string) (Result, error) {
	started := p.now()
	runID := p.runID()
	env := p.Settings.Environment

	log := logger.Logger.With("job", jobID, "run_id", runID, "environment", env)

	if err := p.Settings.Validate(true); err != nil {
		return Result{}, errors.Wrapf(err, "job %q", jobID)
	}

	draft, err := p.Render(jobID)
	if err != nil {
		return Result{}, err
	}
	log.Debugw("prompt rendered", "stage", StageRender, "template", draft.Job.TemplateRef, "chars", len(draft.Prompt))

	if err := ctx.Err(); err != nil {
		return Result{}, stageError(err, jobID, StageInvoke)
	}

	resp, err := p.invoke(ctx, draft.Request)
	if err != nil {
		return Result{}, stageError(err, jobID, StageInvoke)
	}
	log.Infow("model invoked", "stage", StageInvoke, "model", resp.ModelID, "bytes", len(resp.Body))
	log.Debugw("model response", "stage", StageInvoke, "body", string(resp.Body))

	completion := extract.Extract(resp)
	p.Usage.Add(completion.Usage)
	log.Infow("completion extracted", "stage", StageExtract,
		"placeholder", completion.Placeholder, "stop_reason", completion.StopReason, "usage", completion.Usage.String())

	if err := ctx.Err(); err != nil {
		return Result{}, stageError(err, jobID, StagePublish)
	}

	bucket := p.Settings.Bucket()
	uploadCtx := context.WithoutCancel(ctx)

	set, err := p.Publisher.Publish(uploadCtx, artifact.Request{
		RunID:       runID,
		Job:         draft.Job,
		Environment: env,
		Bucket:      bucket,
		Completion:  completion.Text,
		Namer:       artifact.NamerFor(draft.Job, job.Naming(p.Settings.Naming), p.Renderer, p.now),
	})
	if err != nil {
		return Result{}, stageError(err, jobID, StagePublish)
	}
	log.Infow("artifacts published", "stage", StagePublish, "bucket", bucket, "keys", set.Keys())

	err = p.Notifier.Notify(uploadCtx, notify.Event{
		RunID:       runID,
		Job:         jobID,
		Environment: string(env),
		Bucket:      bucket,
		Keys:        set.Keys(),
		Placeholder: completion.Placeholder,
		PublishedAt: p.now().UTC(),
	})
	if err != nil {
		return Result{}, stageError(err, jobID, StageNotify)
	}

	return Result{
		RunID:       runID,
		JobID:       jobID,
		Environment: env,
		Bucket:      bucket,
		Prompt:      draft.Prompt,
		Completion:  completion.Text,
		Placeholder: completion.Placeholder,
		Usage:       completion.Usage,
		Artifacts:   set,
		Duration:    p.now().Sub(started),
	}, nil
}

// invoke calls the model under the configured timeout. Expiry of the
// timeout, or of ctx, is reported as ErrInvocation.
func (p *Pipeline) invoke(ctx context.Context, req modeladapter.Request) (modeladapter.Response, error) {
	timeout := p.Settings.Model.Timeout
	if timeout <= 0 {
		timeout = settings.DefaultTimeout
	}

	callCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := p.Invoker.Invoke(callCtx, req)
	if err != nil {
		if !errors.Is(err, errors.ErrInvocation) {
			err = errors.Mark(err, errors.ErrInvocation)
		}
		if errors.Is(callCtx.Err(), context.DeadlineExceeded) {
			err = errors.WithDetailf(err, "timeout: %s", timeout)
		}
		return modeladapter.Response{}, err
	}

	return resp, nil
}

// TotalUsage returns the token usage summed over every run of p.
func (p *Pipeline) TotalUsage() usage.TokenCount {
	return p.Usage.Total()
}

func (p *Pipeline) now() time.Time {
	if p.Now != nil {
		return p.Now()
	}
	return time.Now()
}

func (p *Pipeline) runID() string {
	if p.NewRunID != nil {
		return p.NewRunID()
	}
	return uuid.NewString()
}

func stageError(err error, jobID, stage string) error {
	return errors.Wrapf(err, "job %q: %s", jobID, stage)
}
