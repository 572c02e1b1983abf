// Package render turns comment Markdown into sanitised HTML.
package render

import (
	"bytes"
	"html"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// Renderer converts Markdown to HTML that is safe to embed in a page.
// It is safe for concurrent use.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// New creates a renderer with GitHub-flavoured Markdown and a user
// generated content policy
func New() *Renderer {
	policy := bluemonday.UGCPolicy()
	policy.AddTargetBlankToFullyQualifiedLinks(true)
	policy.RequireNoReferrerOnLinks(true)

	return &Renderer{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithRendererOptions(
				gmhtml.WithHardWraps(),
				gmhtml.WithXHTML(),
			),
		),
		policy: policy,
	}
}

// Render returns the sanitised HTML form of source
func (r *Renderer) Render(source string) string {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(source), &buf); err != nil {
		return "<p>" + html.EscapeString(source) + "</p>"
	}
	return string(r.policy.SanitizeBytes(buf.Bytes()))
}
