// Package bedrock provides an Invoker for Anthropic models hosted on Amazon
// Bedrock.
package bedrock

import (
	"context"
	"encoding/json"

	"github.com/NiyiNeo/Pixel.Bedrock/pkg/errors"
	"github.com/NiyiNeo/Pixel.Bedrock/pkg/modeladapter"
	"github.com/aws/aws-sdk-go-v2/aws"
	awshttp "github.com/aws/aws-sdk-go-v2/aws/transport/http"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/smithy-go"
)

// DefaultModelID is the model invoked when none is configured.
const DefaultModelID = "anthropic.claude-3-sonnet-20240229-v1:0"

const jsonContentType = "application/json"

var _ modeladapter.Invoker = (*Invoker)(nil)

// API is the subset of the Bedrock runtime client used by Invoker.
type API interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Invoker sends model requests through bedrockruntime.InvokeModel.
type Invoker struct {
	Client  API
	ModelID string
}

// New creates an Invoker. An empty modelID selects DefaultModelID.
func New(client API, modelID string) *Invoker {
	if modelID == "" {
		modelID = DefaultModelID
	}
	return &Invoker{Client: client, ModelID: modelID}
}

// NewFromConfig creates an Invoker backed by a Bedrock runtime client built
// from cfg.
func NewFromConfig(cfg aws.Config, modelID string) *Invoker {
	return New(bedrockruntime.NewFromConfig(cfg), modelID)
}

// Invoke serializes req as the request body and returns the raw response
// payload. Every failure, including deadline expiry, is ErrInvocation.
func (i *Invoker) Invoke(ctx context.Context, req modeladapter.Request) (modeladapter.Response, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return modeladapter.Response{}, errors.WrapKind(err, errors.ErrInvocation, "bedrock: marshal request")
	}

	out, err := i.Client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(i.ModelID),
		Body:        body,
		ContentType: aws.String(jsonContentType),
		Accept:      aws.String(jsonContentType),
	})
	if err != nil {
		return modeladapter.Response{}, i.invocationError(ctx, err)
	}

	return modeladapter.Response{Body: out.Body, ModelID: i.ModelID}, nil
}

func (i *Invoker) invocationError(ctx context.Context, err error) error {
	wrapped := errors.WrapKind(err, errors.ErrInvocation, "bedrock: invoke model %s", i.ModelID)

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		wrapped = errors.WithDetailf(wrapped, "code: %s", apiErr.ErrorCode())
	}

	var respErr *awshttp.ResponseError
	if errors.As(err, &respErr) {
		wrapped = errors.WithDetailf(wrapped, "status: %d", respErr.HTTPStatusCode())
		if rid := respErr.ServiceRequestID(); rid != "" {
			wrapped = errors.WithDetailf(wrapped, "request id: %s", rid)
		}
	}

	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		wrapped = errors.WithHint(wrapped, "the model did not answer in time; raise model.timeout or lower max_tokens")
	}

	return wrapped
}
