package mailmark

import (
	"context"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Marker attributes for wrapped structural placeholders. The wrapping span
// has no styling of its own, so the raw placeholder text renders exactly as
// it did before normalization.
const (
	markerNameAttr = "data-var-name"
	markerKindAttr = "data-var-kind"
	markerIDPrefix = "mm-var-"
)

// Marker sub-type tags.
const (
	markerKindVariable   = "variable"
	markerKindCustomText = "customText"
)

// Structural placeholder grammars. customText blocks may span lines and are
// matched before plain variables so the inner content is never misread as a
// dotted identifier.
var (
	customTextPattern = regexp.MustCompile(`(?s)\{\{\s*customText\[(.*?)\]\s*\}\}`)
	variablePattern   = regexp.MustCompile(`\{\{\s*([A-Za-z_][A-Za-z0-9_]*(?:\.[A-Za-z_][A-Za-z0-9_]*)*)\s*\}\}`)
)

// placeholderNormalizer defines the contract for structural placeholder
// normalization.
type placeholderNormalizer interface {
	Normalize(ctx context.Context, htmlContent string) (string, error)
}

// structuralNormalization rewrites {{customText[...]}} and {{variable}}
// occurrences found in text nodes into marker spans. Occurrences inside tag
// attributes, <script>/<style> bodies, and HTML comments are left untouched:
// they are not placeholders in a detectable position, and rewriting them
// would break hrefs, inline styles, or Outlook conditional blocks. Legacy
// ##name## and [text] placeholders are never rewritten; the detector finds
// them directly against the text.
type structuralNormalization struct{}

// Normalize parses the document, wraps structural placeholders, and
// serializes the tree back to text. The output is the canonical document:
// marker element identifiers are assigned sequentially per pass, so
// normalizing the same input always yields the same text. Re-normalizing
// already-wrapped output is a no-op.
func (s *structuralNormalization) Normalize(ctx context.Context, htmlContent string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	doc, err := parseDocument(htmlContent)
	if err != nil {
		return "", err
	}

	// Collect candidate text nodes first: wrapping mutates the tree and
	// must not happen mid-walk.
	var candidates []*html.Node
	walkNodes(doc, func(n *html.Node) {
		if n.Type != html.TextNode || n.Parent == nil {
			return
		}
		if !isWrappableContext(n.Parent) {
			return
		}
		candidates = append(candidates, n)
	})

	counter := 0
	for _, n := range candidates {
		counter = wrapPlaceholders(n, counter)
	}

	return renderDocument(doc)
}

// isWrappableContext reports whether text under parent may be rewritten.
// Script and style bodies parse as text nodes but are code; title, textarea,
// and the other raw-text elements cannot hold child elements, so a span
// inserted there would reappear as literal markup text on the next parse.
// Text already inside a marker span must not be wrapped twice.
func isWrappableContext(parent *html.Node) bool {
	if parent.Type != html.ElementNode {
		return false
	}
	switch parent.DataAtom {
	case atom.Script, atom.Style, atom.Title, atom.Textarea,
		atom.Iframe, atom.Noembed, atom.Noframes, atom.Noscript,
		atom.Plaintext, atom.Xmp:
		return false
	}
	return !hasAttr(parent, markerNameAttr)
}

// placeholderMatch is one structural placeholder found in a text node.
type placeholderMatch struct {
	start, end int
	name       string // dotted identifier, or customText content
	kind       string // markerKindVariable or markerKindCustomText
}

// findStructuralPlaceholders returns non-overlapping matches in text order.
// customText matches win over variable matches on overlap.
func findStructuralPlaceholders(text string) []placeholderMatch {
	var matches []placeholderMatch

	for _, m := range customTextPattern.FindAllStringSubmatchIndex(text, -1) {
		matches = append(matches, placeholderMatch{
			start: m[0],
			end:   m[1],
			name:  text[m[2]:m[3]],
			kind:  markerKindCustomText,
		})
	}

	for _, m := range variablePattern.FindAllStringSubmatchIndex(text, -1) {
		candidate := placeholderMatch{
			start: m[0],
			end:   m[1],
			name:  text[m[2]:m[3]],
			kind:  markerKindVariable,
		}
		if !overlapsAny(candidate, matches) {
			matches = append(matches, candidate)
		}
	}

	sort.Slice(matches, func(i, j int) bool { return matches[i].start < matches[j].start })
	return matches
}

// overlapsAny reports whether c overlaps any match in ms.
func overlapsAny(c placeholderMatch, ms []placeholderMatch) bool {
	for _, m := range ms {
		if c.start < m.end && m.start < c.end {
			return true
		}
	}
	return false
}

// wrapPlaceholders replaces a text node with a sequence of text and marker
// span nodes. Returns the updated marker counter.
func wrapPlaceholders(n *html.Node, counter int) int {
	matches := findStructuralPlaceholders(n.Data)
	if len(matches) == 0 {
		return counter
	}

	parent := n.Parent
	pos := 0
	for _, m := range matches {
		if m.start > pos {
			parent.InsertBefore(textNode(n.Data[pos:m.start]), n)
		}
		counter++
		parent.InsertBefore(markerNode(n.Data[m.start:m.end], m, counter), n)
		pos = m.end
	}
	if pos < len(n.Data) {
		parent.InsertBefore(textNode(n.Data[pos:]), n)
	}
	parent.RemoveChild(n)
	return counter
}

// textNode creates a plain text node.
func textNode(data string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: data}
}

// markerNode creates a marker span wrapping the raw placeholder text.
func markerNode(raw string, m placeholderMatch, seq int) *html.Node {
	span := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Span,
		Data:     "span",
		Attr: []html.Attribute{
			{Key: "id", Val: markerIDPrefix + strconv.Itoa(seq)},
			{Key: markerNameAttr, Val: m.name},
			{Key: markerKindAttr, Val: m.kind},
		},
	}
	span.AppendChild(textNode(raw))
	return span
}

// containsStructuralPlaceholder reports whether text still carries an
// unresolved structural placeholder. Used to flag dynamic hrefs and link
// text, which keep their raw {{...}} form because attributes are never
// rewritten.
func containsStructuralPlaceholder(text string) bool {
	return customTextPattern.MatchString(text) || variablePattern.MatchString(text)
}

// splitHrefAtPlaceholder returns the href segment before the first
// structural placeholder token, or the full href when none is present.
func splitHrefAtPlaceholder(href string) string {
	if idx := strings.Index(href, "{{"); idx != -1 {
		return href[:idx]
	}
	return href
}
