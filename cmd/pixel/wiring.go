package main

import (
	"context"

	"github.com/NiyiNeo/Pixel.Bedrock/pkg/artifact"
	"github.com/NiyiNeo/Pixel.Bedrock/pkg/errors"
	"github.com/NiyiNeo/Pixel.Bedrock/pkg/modeladapter"
	"github.com/NiyiNeo/Pixel.Bedrock/pkg/notify"
	"github.com/NiyiNeo/Pixel.Bedrock/pkg/pipeline"
	"github.com/NiyiNeo/Pixel.Bedrock/pkg/providers/anthropic"
	"github.com/NiyiNeo/Pixel.Bedrock/pkg/providers/bedrock"
	"github.com/NiyiNeo/Pixel.Bedrock/pkg/settings"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
)

// newPipeline wires the AWS clients and the configured model provider into
// a pipeline.
func newPipeline(ctx context.Context, s settings.Settings) (*pipeline.Pipeline, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(s.Region))
	if err != nil {
		return nil, errors.WithHint(
			errors.WrapKind(err, errors.ErrConfigInvalid, "load AWS configuration"),
			"check AWS_PROFILE / AWS_ACCESS_KEY_ID and AWS_REGION",
		)
	}

	return pipeline.New(
		s,
		newInvoker(awsCfg, s),
		artifact.NewS3Store(awsCfg),
		notify.New(awsCfg, s.Notify.QueueURL),
	), nil
}

// newRenderPipeline builds a pipeline for dry runs. It never touches the
// network, so no credentials are loaded.
func newRenderPipeline(s settings.Settings) *pipeline.Pipeline {
	return pipeline.New(s, nil, nil, nil)
}

func newInvoker(awsCfg aws.Config, s settings.Settings) modeladapter.Invoker {
	if s.Model.Provider == settings.ProviderAnthropic {
		model := s.Model.ID
		if model == settings.DefaultModelID {
			model = "claude-3-sonnet-20240229"
		}
		return anthropic.New(s.Anthropic.BaseURL, s.Anthropic.APIKey, model)
	}
	return bedrock.NewFromConfig(awsCfg, s.Model.ID)
}
