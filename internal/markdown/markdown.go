// Package markdown renders summaries for the different presentation surfaces
// and cleans up HTML in user input.
package markdown

import (
	"bytes"
	"fmt"
	"regexp"

	"github.com/charmbracelet/glamour"
	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	htmlrenderer "github.com/yuin/goldmark/renderer/html"
)

// Renderer converts markdown to sanitized HTML.
type Renderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

var tagPattern = regexp.MustCompile(`<[^>]*>`)

// New creates a Renderer.
func New() *Renderer {
	md := goldmark.New(
		goldmark.WithExtensions(
			extension.GFM,
			extension.Strikethrough,
			extension.Linkify,
		),
		goldmark.WithRendererOptions(
			htmlrenderer.WithHardWraps(),
			htmlrenderer.WithXHTML(),
		),
	)

	policy := bluemonday.UGCPolicy()
	policy.AllowAttrs("class").Matching(bluemonday.SpaceSeparatedTokens).OnElements("code", "span", "pre")

	return &Renderer{
		md:     md,
		policy: policy,
	}
}

// ToHTML converts markdown to HTML without sanitizing it.
func (r *Renderer) ToHTML(markdown string) (string, error) {
	var buf bytes.Buffer
	if err := r.md.Convert([]byte(markdown), &buf); err != nil {
		return "", fmt.Errorf("failed to convert markdown to HTML: %w", err)
	}
	return buf.String(), nil
}

// Sanitize removes anything from htmlContent that is unsafe to embed in a page.
func (r *Renderer) Sanitize(htmlContent string) string {
	return r.policy.Sanitize(htmlContent)
}

// ToHTMLSanitized converts markdown to HTML that is safe to embed.
func (r *Renderer) ToHTMLSanitized(markdown string) (string, error) {
	out, err := r.ToHTML(markdown)
	if err != nil {
		return "", err
	}
	return r.Sanitize(out), nil
}

// StripTags removes every HTML tag from s. Text between tags, entities and
// whitespace are left untouched.
func (r *Renderer) StripTags(s string) string {
	return tagPattern.ReplaceAllString(s, "")
}

// Terminal renders markdown for display in a terminal wrapped at width columns.
// Styles follow the terminal background; non-terminals get plain output.
func Terminal(markdown string, width int) (string, error) {
	if width <= 0 {
		width = 80
	}
	tr, err := glamour.NewTermRenderer(
		glamour.WithAutoStyle(),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", fmt.Errorf("creating terminal renderer: %w", err)
	}
	out, err := tr.Render(markdown)
	if err != nil {
		return "", fmt.Errorf("rendering markdown: %w", err)
	}
	return out, nil
}
