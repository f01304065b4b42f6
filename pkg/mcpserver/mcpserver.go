// Package mcpserver exposes the pipeline as MCP tools so agents and editors
// can render prompts and run jobs in the local workspace.
package mcpserver

import (
	"context"
	"encoding/json"
	"io"
	"strings"

	"github.com/NiyiNeo/Pixel.Bedrock/pkg/errors"
	"github.com/NiyiNeo/Pixel.Bedrock/pkg/modeladapter/usage"
	"github.com/NiyiNeo/Pixel.Bedrock/pkg/pipeline"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Runner is the part of the pipeline served over MCP.
type Runner interface {
	Run(ctx context.Context, jobID string) (pipeline.Result, error)
	Render(jobID string) (pipeline.Draft, error)
	TotalUsage() usage.TokenCount
}

var _ Runner = (*pipeline.Pipeline)(nil)

// Handler executes a tool with the given JSON input and returns a text result.
type Handler func(ctx context.Context, input json.RawMessage) (string, error)

// Tool is one MCP tool backed by a Handler.
type Tool struct {
	Name        string
	Description string
	InputSchema json.RawMessage
	Handler     Handler
}

const jobSchema = `{"type":"object","properties":{"job":{"type":"string","description":"Job id: the name of a config file under prompts/ without extension."}},"required":["job"]}`

// MCPServer serves tools over the MCP protocol using the official MCP Go SDK.
type MCPServer struct {
	server *mcp.Server
}

// New creates a new MCPServer with the given name and version.
func New(name, version string) *MCPServer {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    name,
		Version: version,
	}, nil)

	return &MCPServer{server: server}
}

// NewForRunner creates an MCPServer with the run_job and render_prompt tools
// registered for r.
func NewForRunner(name, version string, r Runner) *MCPServer {
	s := New(name, version)
	s.Register(Tools(r)...)
	return s
}

// Register adds tools to the server.
func (s *MCPServer) Register(tools ...Tool) {
	for _, t := range tools {
		s.server.AddTool(toSDKTool(t), toSDKHandler(t.Handler))
	}
}

// Serve starts serving MCP requests. It reads requests from in and writes
// responses to out. It blocks until ctx is cancelled or the transport closes.
func (s *MCPServer) Serve(ctx context.Context, in io.Reader, out io.Writer) error {
	transport := &mcp.IOTransport{
		Reader: io.NopCloser(in),
		Writer: nopWriteCloser{out},
	}

	return s.run(ctx, transport)
}

func (s *MCPServer) run(ctx context.Context, transport mcp.Transport) error {
	return s.server.Run(ctx, transport)
}

// Tools returns the pipeline tools for r.
func Tools(r Runner) []Tool {
	return []Tool{
		{
			Name:        "render_prompt",
			Description: "Render a job's prompt and model request without calling the model or publishing anything.",
			InputSchema: json.RawMessage(jobSchema),
			Handler: func(_ context.Context, input json.RawMessage) (string, error) {
				id, err := jobID(input)
				if err != nil {
					return "", err
				}

				draft, err := r.Render(id)
				if err != nil {
					return "", err
				}

				return marshal(renderOutput{
					Job:      draft.Job.ID,
					Template: draft.Job.TemplateRef,
					Prompt:   draft.Prompt,
					Request:  draft.Request,
				})
			},
		},
		{
			Name:        "run_job",
			Description: "Run a job end to end: render, invoke the model, write outputs/ and upload to the environment's bucket.",
			InputSchema: json.RawMessage(jobSchema),
			Handler: func(ctx context.Context, input json.RawMessage) (string, error) {
				id, err := jobID(input)
				if err != nil {
					return "", err
				}

				res, err := r.Run(ctx, id)
				if err != nil {
					return "", err
				}

				return marshal(runOutput{
					RunID:       res.RunID,
					Job:         res.JobID,
					Environment: string(res.Environment),
					Bucket:      res.Bucket,
					Completion:  res.Completion,
					Placeholder: res.Placeholder,
					Files:       []string{res.Artifacts.HTML.LocalPath, res.Artifacts.Markdown.LocalPath},
					Keys:        res.Artifacts.Keys(),
					Usage:       res.Usage,
					ServerUsage: r.TotalUsage(),
				})
			},
		},
	}
}

type renderOutput struct {
	Job      string `json:"job"`
	Template string `json:"template"`
	Prompt   string `json:"prompt"`
	Request  any    `json:"request"`
}

type runOutput struct {
	RunID       string   `json:"run_id"`
	Job         string   `json:"job"`
	Environment string   `json:"environment"`
	Bucket      string   `json:"bucket"`
	Completion  string   `json:"completion"`
	Placeholder bool     `json:"placeholder"`
	Files       []string `json:"files"`
	Keys        []string `json:"keys"`

	Usage       usage.TokenCount `json:"usage"`
	ServerUsage usage.TokenCount `json:"server_usage"` // summed over every run_job call of this server
}

func jobID(input json.RawMessage) (string, error) {
	var args struct {
		Job string `json:"job"`
	}
	if err := json.Unmarshal(input, &args); err != nil {
		return "", errors.WrapKind(err, errors.ErrConfigInvalid, "invalid arguments")
	}
	if strings.TrimSpace(args.Job) == "" {
		return "", errors.NewKind(errors.ErrConfigInvalid, "argument \"job\" is required")
	}
	return args.Job, nil
}

func marshal(v any) (string, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func toSDKTool(t Tool) *mcp.Tool {
	return &mcp.Tool{
		Name:        t.Name,
		Description: t.Description,
		InputSchema: t.InputSchema,
	}
}

// toSDKHandler wraps a Handler as an SDK ToolHandler. Failures become error
// results prefixed with their kind so clients can tell a missing config from
// a model outage.
func toSDKHandler(h Handler) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := req.Params.Arguments
		if args == nil {
			args = json.RawMessage("{}")
		}

		result, err := h(ctx, args)
		if err != nil {
			return &mcp.CallToolResult{
				Content: []mcp.Content{&mcp.TextContent{Text: errorText(err)}},
				IsError: true,
			}, nil
		}

		return &mcp.CallToolResult{
			Content: []mcp.Content{&mcp.TextContent{Text: result}},
		}, nil
	}
}

func errorText(err error) string {
	text := errors.Kind(err) + ": " + err.Error()
	if hints := errors.FlattenHints(err); hints != "" {
		text += "\nhint: " + hints
	}
	return text
}

// nopWriteCloser wraps an io.Writer as an io.WriteCloser with a no-op Close.
type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
