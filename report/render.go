// Package report renders verified markdown reports into sanitized HTML.
package report

import (
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"github.com/microcosm-cc/bluemonday"
)

// RenderHTML converts report markdown to HTML and strips anything unsafe.
// Model output is untrusted input, so the result always passes through a
// UGC sanitization policy.
func RenderHTML(md string) string {
	p := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	doc := p.Parse([]byte(md))

	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.HrefTargetBlank,
	})
	raw := markdown.Render(doc, renderer)

	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("target", "rel").OnElements("a")
	policy.AllowAttrs("id").OnElements("h1", "h2", "h3", "h4", "h5", "h6")
	return string(policy.SanitizeBytes(raw))
}
