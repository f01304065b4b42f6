// Package anthropic provides an Invoker for the Anthropic Messages API.
package anthropic

import (
	"context"

	"github.com/NiyiNeo/Pixel.Bedrock/pkg/errors"
	"github.com/NiyiNeo/Pixel.Bedrock/pkg/modeladapter"
)

const (
	// DefaultBaseURL is the public Anthropic API endpoint.
	DefaultBaseURL = "https://api.anthropic.com"
	// APIVersion is sent in the anthropic-version header.
	APIVersion = "2023-06-01"

	messagesPath = "/v1/messages"
)

var _ modeladapter.Invoker = (*Invoker)(nil)

// Invoker implements modeladapter.Invoker for the Anthropic Messages API.
type Invoker struct {
	modeladapter.ModelAdapter
}

// New creates an Invoker. An empty baseURL selects DefaultBaseURL.
func New(baseURL, apiKey, model string) *Invoker {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	i := &Invoker{
		ModelAdapter: modeladapter.New(baseURL, modeladapter.Auth{Key: apiKey, Header: "x-api-key"}, nil),
	}
	i.Name = model
	i.Headers = map[string]string{
		"anthropic-version": APIVersion,
	}

	return i
}

// apiRequest is the Bedrock envelope with the model named in the body and
// without the Bedrock-only protocol tag.
type apiRequest struct {
	Model     string                 `json:"model"`
	MaxTokens int                    `json:"max_tokens"`
	Messages  []modeladapter.Message `json:"messages"`
}

// Invoke posts req to /v1/messages and returns the raw response payload.
// Both API and Bedrock responses carry content[0].text, so the payload is
// passed on unchanged.
func (i *Invoker) Invoke(ctx context.Context, req modeladapter.Request) (modeladapter.Response, error) {
	body, err := i.PostJSON(ctx, messagesPath, apiRequest{
		Model:     i.Name,
		MaxTokens: req.MaxTokens,
		Messages:  req.Messages,
	})
	if err != nil {
		wrapped := errors.WrapKind(err, errors.ErrInvocation, "anthropic: invoke model %s", i.Name)

		var se *modeladapter.StatusError
		if errors.As(err, &se) {
			wrapped = errors.WithDetailf(wrapped, "status: %d", se.Status)
			if se.Status == 401 || se.Status == 403 {
				wrapped = errors.WithHint(wrapped, "check ANTHROPIC_API_KEY")
			}
		}
		if errors.Is(err, context.DeadlineExceeded) {
			wrapped = errors.WithHint(wrapped, "the model did not answer in time; raise model.timeout or lower max_tokens")
		}

		return modeladapter.Response{}, wrapped
	}

	return modeladapter.Response{Body: body, ModelID: i.Name}, nil
}
