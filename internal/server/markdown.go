package server

import (
	"bytes"
	"context"

	"github.com/yuin/goldmark"
	highlighting "github.com/yuin/goldmark-highlighting/v2"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/ziadkadry99/policy-bot/internal/logging"
)

// answerMarkdown renders model answers. Raw HTML in answers is escaped.
var answerMarkdown = goldmark.New(
	goldmark.WithExtensions(
		extension.GFM,
		highlighting.NewHighlighting(
			highlighting.WithStyle("github"),
		),
	),
	goldmark.WithRendererOptions(
		html.WithHardWraps(),
	),
)

// renderMarkdown converts answer markdown to HTML. On failure the HTML is
// left empty; the markdown is always returned.
func renderMarkdown(ctx context.Context, md string) string {
	var buf bytes.Buffer
	if err := answerMarkdown.Convert([]byte(md), &buf); err != nil {
		logging.FromContext(ctx).Warn("render markdown", "error", err)
		return ""
	}
	return buf.String()
}
