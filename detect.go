package mailmark

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// Label display thresholds.
const (
	customTextLabelMax = 40
	linkLabelMax       = 50
)

// Legacy placeholder grammars, detected directly against text. These are
// never rewritten into markup: square brackets collide with Outlook
// conditional comments, so wrapping them the way structural placeholders are
// wrapped is unsafe.
var (
	hashPattern    = regexp.MustCompile(`##([A-Za-z0-9_][A-Za-z0-9_.-]*)##`)
	bracketPattern = regexp.MustCompile(`\[([^\[\]]+)\]`)
	commentPattern = regexp.MustCompile(`(?s)<!--.*?-->`)

	// Marker spans hold a single text child, so non-greedy matching up to the
	// closing tag is safe.
	markerSpanPattern = regexp.MustCompile(`(?s)<span[^>]*` + markerNameAttr + `[^>]*>.*?</span>`)
)

// bracketDenylist discards bracket candidates that look like Outlook/OWA
// conditional markers. Case-insensitive substring matching: this heuristic
// both under- and over-matches (a legitimate "[verify]" is discarded because
// it contains "if") and downstream editor behavior depends on its exact
// current boundaries. Do not "fix" it silently.
var bracketDenylist = []string{"if", "endif", "else", "owa", "!owa", "mso", "!mso", "vml", "gte"}

// elementDetector defines the contract for annotation detection.
type elementDetector interface {
	Detect(ctx context.Context, htmlContent string) ([]Annotation, error)
}

// annotationDetection enumerates every annotatable occurrence in a canonical
// document, classified by kind. One invocation owns all its counters, so
// detection across documents is safely parallel.
type annotationDetection struct {
	log *zap.Logger
}

func newAnnotationDetection(log *zap.Logger) *annotationDetection {
	return &annotationDetection{log: log}
}

// Detect runs the five scan passes in fixed order: form controls, hash
// placeholders, bracket placeholders, wrapped structural placeholders, then
// hyperlinks. The order is load-bearing: the hyperlink pass inspects marker
// spans produced by normalization, and overlapping occurrences must not
// double-count. An individually odd element is logged and skipped; detection
// never aborts the whole pass for one element.
func (d *annotationDetection) Detect(ctx context.Context, htmlContent string) ([]Annotation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := parseDocument(htmlContent)
	if err != nil {
		return nil, err
	}

	var annotations []Annotation
	annotations = append(annotations, d.detectFormFields(doc)...)
	annotations = append(annotations, d.detectHashPlaceholders(htmlContent)...)
	annotations = append(annotations, d.detectBracketPlaceholders(htmlContent)...)
	annotations = append(annotations, d.detectStructuralPlaceholders(doc)...)
	annotations = append(annotations, d.detectHyperlinks(doc)...)

	d.log.Debug("detection pass complete",
		zap.Int("annotations", len(annotations)))
	return annotations, nil
}

// detectFormFields finds input, textarea, select, and button elements.
// Hidden inputs are skipped: they carry no annotatable surface.
func (d *annotationDetection) detectFormFields(doc *html.Node) []Annotation {
	var out []Annotation
	walkNodes(doc, func(n *html.Node) {
		if n.Type != html.ElementNode {
			return
		}
		switch n.DataAtom {
		case atom.Input, atom.Textarea, atom.Select, atom.Button:
		default:
			return
		}

		inputType := attrVal(n, "type")
		if inputType == "" {
			inputType = "text"
		}
		if n.DataAtom == atom.Input && inputType == "hidden" {
			d.log.Debug("skipping hidden input", zap.String("name", attrVal(n, "name")))
			return
		}

		meta := &FormFieldMeta{
			Name:        attrVal(n, "name"),
			InputType:   inputType,
			Placeholder: attrVal(n, "placeholder"),
			Value:       attrVal(n, "value"),
			Required:    hasAttr(n, "required"),
		}

		out = append(out, Annotation{
			ID:        uuid.NewString(),
			Kind:      KindFormField,
			Locator:   synthesizeLocator(doc, n),
			Label:     formFieldLabel(n, meta),
			FormField: meta,
		})
	})
	return out
}

// formFieldLabel synthesizes the display label per the fixed rule table.
func formFieldLabel(n *html.Node, meta *FormFieldMeta) string {
	id := attrVal(n, "id")

	switch {
	case n.DataAtom == atom.Button || meta.InputType == "submit":
		text := nodeText(n)
		if text == "" {
			text = meta.Value
		}
		if text == "" {
			text = "Submit"
		}
		return "Button: " + text

	case n.DataAtom == atom.Select:
		name := firstNonEmpty(meta.Name, id, "unnamed")
		if count := countOptions(n); count > 0 {
			return fmt.Sprintf("Dropdown: %s (%d options)", name, count)
		}
		return "Dropdown: " + name

	case n.DataAtom == atom.Textarea:
		return "Textarea: " + firstNonEmpty(meta.Name, id, meta.Placeholder, "unnamed")

	default:
		return fmt.Sprintf("Input (%s): %s", meta.InputType,
			firstNonEmpty(meta.Name, id, meta.Placeholder, "unnamed"))
	}
}

// countOptions counts option elements under a select.
func countOptions(n *html.Node) int {
	count := 0
	walkNodes(n, func(c *html.Node) {
		if c.Type == html.ElementNode && c.DataAtom == atom.Option {
			count++
		}
	})
	return count
}

// firstNonEmpty returns the first non-empty string.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// detectHashPlaceholders finds every ##name## occurrence in the raw text.
// Duplicates of the same name are not deduplicated: each literal occurrence
// is its own annotation, distinguished by a per-name instance counter scoped
// to this pass. Marker spans are stripped first: their inner text belongs to
// the structural pass.
func (d *annotationDetection) detectHashPlaceholders(htmlContent string) []Annotation {
	var out []Annotation
	counts := make(map[string]int)
	stripped := markerSpanPattern.ReplaceAllString(htmlContent, "")

	for _, m := range hashPattern.FindAllStringSubmatch(stripped, -1) {
		raw, name := m[0], m[1]
		counts[name]++
		out = append(out, d.variableAnnotation(name, SyntaxHashDelimited, raw, counts[name]))
	}
	return out
}

// detectBracketPlaceholders finds [text] occurrences. HTML comments are
// stripped first so Outlook conditional markers never match, and marker spans
// are stripped so customText content already owned by the structural pass is
// not re-counted as a bracket candidate. Candidates containing =, <, or >
// are discarded as probable attribute fragments.
func (d *annotationDetection) detectBracketPlaceholders(htmlContent string) []Annotation {
	var out []Annotation
	counts := make(map[string]int)
	stripped := commentPattern.ReplaceAllString(htmlContent, "")
	stripped = markerSpanPattern.ReplaceAllString(stripped, "")

	for _, m := range bracketPattern.FindAllStringSubmatch(stripped, -1) {
		raw, content := m[0], m[1]
		if strings.ContainsAny(content, "=<>") {
			continue
		}
		if bracketDenied(content) {
			d.log.Debug("bracket candidate denied", zap.String("content", content))
			continue
		}
		counts[content]++
		out = append(out, d.variableAnnotation(content, SyntaxBracketed, raw, counts[content]))
	}
	return out
}

// bracketDenied reports whether the candidate hits the conditional-marker
// denylist.
func bracketDenied(content string) bool {
	lower := strings.ToLower(content)
	for _, word := range bracketDenylist {
		if strings.Contains(lower, word) {
			return true
		}
	}
	return false
}

// variableAnnotation builds a template-variable record for a legacy
// placeholder occurrence. The locator is a text-match token: these
// occurrences have no containing element, so they are re-found by direct
// text search.
func (d *annotationDetection) variableAnnotation(name string, syntax VariableSyntax, raw string, instance int) Annotation {
	label := "Variable: " + name
	if instance > 1 {
		label = fmt.Sprintf("Variable: %s (#%d)", name, instance)
	}
	return Annotation{
		ID:      uuid.NewString(),
		Kind:    KindTemplateVariable,
		Locator: textMatchLocator(raw, instance),
		Label:   label,
		Variable: &VariableMeta{
			VariableName: name,
			Syntax:       syntax,
			RawText:      raw,
			Instance:     instance,
		},
	}
}

// detectStructuralPlaceholders finds marker spans wrapped by the normalizer.
// Their locator is the marker's generated identifier, the strongest rung of
// the precedence ladder.
func (d *annotationDetection) detectStructuralPlaceholders(doc *html.Node) []Annotation {
	var out []Annotation
	counts := make(map[string]int)

	walkNodes(doc, func(n *html.Node) {
		if n.Type != html.ElementNode || !hasAttr(n, markerNameAttr) {
			return
		}

		name := attrVal(n, markerNameAttr)
		raw := nodeText(n)
		counts[name]++

		syntax := SyntaxDoubleBrace
		label := "Variable: " + name
		if attrVal(n, markerKindAttr) == markerKindCustomText {
			syntax = SyntaxCustomTextBlock
			label = "Custom text: " + truncateLabel(name, customTextLabelMax)
		}

		out = append(out, Annotation{
			ID:      uuid.NewString(),
			Kind:    KindTemplateVariable,
			Locator: Locator{Strategy: StrategyID, Value: attrVal(n, "id")},
			Label:   label,
			Variable: &VariableMeta{
				VariableName: name,
				Syntax:       syntax,
				RawText:      raw,
				Instance:     counts[name],
			},
		})
	})
	return out
}

// detectHyperlinks finds anchors with a non-empty, non-fragment href.
// Unlike placeholders, identical (href, visible text) pairs collapse to one
// annotation: an editor edit to "the same link repeated in the template" is
// expected to apply to all its occurrences. This asymmetry with the
// placeholder non-deduplication rule is deliberate.
func (d *annotationDetection) detectHyperlinks(doc *html.Node) []Annotation {
	var out []Annotation
	seen := make(map[string]bool)

	walkNodes(doc, func(n *html.Node) {
		if n.Type != html.ElementNode || n.DataAtom != atom.A {
			return
		}

		href := attrVal(n, "href")
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}

		text := nodeText(n)
		key := href + "\x00" + text
		if seen[key] {
			return
		}
		seen[key] = true

		meta := &HyperlinkMeta{
			URL:            href,
			DisplayText:    text,
			IsEmailLink:    strings.HasPrefix(strings.ToLower(href), "mailto:"),
			HasDynamicURL:  containsStructuralPlaceholder(href),
			HasDynamicText: containsStructuralPlaceholder(text) || containsMarker(n),
		}

		out = append(out, Annotation{
			ID:        uuid.NewString(),
			Kind:      KindHyperlink,
			Locator:   synthesizeLocator(doc, n),
			Label:     hyperlinkLabel(meta),
			Hyperlink: meta,
		})
	})
	return out
}

// containsMarker reports whether the subtree holds a normalizer marker span.
func containsMarker(n *html.Node) bool {
	return findFirst(n, func(c *html.Node) bool {
		return c != n && hasAttr(c, markerNameAttr)
	}) != nil
}

// hyperlinkLabel builds the link label, flagging unresolved placeholders in
// the href or visible text so the editor can offer the right affordances.
func hyperlinkLabel(meta *HyperlinkMeta) string {
	display := meta.DisplayText
	if display == "" {
		display = truncateLabel(meta.URL, linkLabelMax)
	}
	label := "Link: " + display

	switch {
	case meta.HasDynamicURL && meta.HasDynamicText:
		label += " (dynamic URL and text)"
	case meta.HasDynamicURL:
		label += " (dynamic URL)"
	case meta.HasDynamicText:
		label += " (dynamic text)"
	}
	return label
}

// truncateLabel shortens display text to max runes with an ellipsis.
// Underlying metadata always retains the full content.
func truncateLabel(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
