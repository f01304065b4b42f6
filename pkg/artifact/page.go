package artifact

import (
	"bytes"
	"context"
	"io"

	"github.com/NiyiNeo/Pixel.Bedrock/pkg/job"
	"github.com/a-h/templ"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	markdown  = goldmark.New(goldmark.WithExtensions(extension.GFM))
	sanitizer = bluemonday.UGCPolicy()
)

// Page is the minimal HTML document shell around body.
func Page(title string, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		if _, err := io.WriteString(w, `<html><head><meta charset="utf-8"><title>`+templ.EscapeString(title)+`</title></head><body>`); err != nil {
			return err
		}
		if err := body.Render(ctx, w); err != nil {
			return err
		}
		_, err := io.WriteString(w, "</body></html>\n")
		return err
	})
}

// Preformatted shows text escaped inside a <pre> block.
func Preformatted(text string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		_, err := io.WriteString(w, "<pre>"+templ.EscapeString(text)+"</pre>")
		return err
	})
}

// Markdown renders text as sanitized HTML.
func Markdown(text string) templ.Component {
	return templ.ComponentFunc(func(_ context.Context, w io.Writer) error {
		var buf bytes.Buffer
		if err := markdown.Convert([]byte(text), &buf); err != nil {
			return err
		}
		_, err := w.Write(sanitizer.SanitizeBytes(buf.Bytes()))
		return err
	})
}

// RenderHTML returns the HTML document for completion in the given format.
func RenderHTML(ctx context.Context, title, completion string, format job.HTMLFormat) ([]byte, error) {
	body := Preformatted(completion)
	if format == job.FormatMarkdown {
		body = Markdown(completion)
	}

	var buf bytes.Buffer
	if err := Page(title, body).Render(ctx, &buf); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
