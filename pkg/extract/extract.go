// Package extract pulls the completion text out of a raw model response.
//
// Extraction never fails: a payload without usable text degrades to
// [Placeholder] and the problem is reported on the log instead.
package extract

import (
	"encoding/json"
	"strings"

	"github.com/NiyiNeo/Pixel.Bedrock/pkg/logger"
	"github.com/NiyiNeo/Pixel.Bedrock/pkg/modeladapter"
	"github.com/NiyiNeo/Pixel.Bedrock/pkg/modeladapter/usage"
)

// Placeholder is the completion used when the response carries no text.
const Placeholder = "No response."

// Result is the extracted completion.
type Result struct {
	Text        string
	Placeholder bool // Text is Placeholder because the response had no text.
	StopReason  string
	Usage       usage.TokenCount
}

type segment struct {
	Type string  `json:"type"`
	Text *string `json:"text"`
}

// The payload is decoded in independent parts so that a malformed
// metadata field never hides the text.
type (
	contentPart struct {
		Content []json.RawMessage `json:"content"`
	}
	stopPart struct {
		StopReason string `json:"stop_reason"`
	}
	usagePart struct {
		Usage usage.TokenCount `json:"usage"`
	}
)

// Extract returns the trimmed text of the first content segment. The
// placeholder is used exactly when content[0].text is absent.
func Extract(resp modeladapter.Response) Result {
	var c contentPart
	if err := json.Unmarshal(resp.Body, &c); err != nil {
		return placeholder(resp, "response has no readable content", "error", err.Error())
	}

	if len(c.Content) == 0 {
		return placeholder(resp, "response has no content segments")
	}

	var first segment
	if err := json.Unmarshal(c.Content[0], &first); err != nil || first.Text == nil {
		return placeholder(resp, "first content segment has no text", "segment_type", first.Type)
	}

	res := Result{Text: strings.TrimSpace(*first.Text)}

	var sp stopPart
	if err := json.Unmarshal(resp.Body, &sp); err == nil {
		res.StopReason = sp.StopReason
	}

	var up usagePart
	if err := json.Unmarshal(resp.Body, &up); err != nil {
		logger.Debugw("ignoring unreadable usage", "model", resp.ModelID, "error", err.Error())
	} else {
		res.Usage = up.Usage
	}

	return res
}

func placeholder(resp modeladapter.Response, reason string, kv ...interface{}) Result {
	fields := append([]interface{}{"model", resp.ModelID, "bytes", len(resp.Body)}, kv...)
	logger.Warnw("using placeholder completion: "+reason, fields...)

	return Result{Text: Placeholder, Placeholder: true}
}
