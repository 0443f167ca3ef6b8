package mailmark

import (
	"bytes"
	"fmt"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// commentRenderer defines the contract for rendering user comments into
// margin-entry HTML.
type commentRenderer interface {
	RenderComment(comment string) (string, error)
}

// markdownCommentRenderer renders annotation comments as Markdown and
// sanitizes the result. Comments come from the editing surface, not from the
// trusted round-trip markup, so they are the one input that must not be
// injected verbatim.
type markdownCommentRenderer struct {
	md     goldmark.Markdown
	policy *bluemonday.Policy
}

// newMarkdownCommentRenderer creates a renderer with GFM extensions and a
// UGC sanitization policy.
func newMarkdownCommentRenderer() *markdownCommentRenderer {
	return &markdownCommentRenderer{
		md: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM, // tables, strikethrough, autolinks
			),
		),
		policy: bluemonday.UGCPolicy(),
	}
}

// RenderComment converts a Markdown comment to sanitized HTML. An empty
// comment renders to "".
func (r *markdownCommentRenderer) RenderComment(comment string) (string, error) {
	if comment == "" {
		return "", nil
	}

	var buf bytes.Buffer
	if err := r.md.Convert([]byte(comment), &buf); err != nil {
		return "", fmt.Errorf("rendering comment: %w", err)
	}
	return r.policy.Sanitize(buf.String()), nil
}
