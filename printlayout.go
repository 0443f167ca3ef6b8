package mailmark

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"strconv"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/alnah/go-mailmark/internal/assets"
)

// printLayoutRenderer defines the contract for print layout rendering.
type printLayoutRenderer interface {
	RenderPrintLayout(ctx context.Context, doc *Document) (string, RenderStats, error)
}

// marginLayout restructures the document body into two side-by-side
// regions: the original content, relocated (not copied) into a primary
// column, and a margin column listing every annotation in input order.
// Resolved structural annotations additionally get a numbered inline badge
// matching their margin entry, so a reader of the rendered page can
// correlate markers with descriptions.
type marginLayout struct {
	log      *zap.Logger
	injector cssInjector
	comments commentRenderer
	tmpl     *template.Template
	page     *PageSettings
}

// marginEntryData feeds the embedded margin-entry template.
type marginEntryData struct {
	ID      string
	Number  int
	Kind    string
	Label   string
	Details []string
	Comment template.HTML
}

// newMarginLayout creates a marginLayout with the embedded entry template.
// Panics if the template cannot be loaded or parsed (programmer error).
func newMarginLayout(log *zap.Logger, page *PageSettings) *marginLayout {
	tmplContent, err := assets.LoadTemplate("margin")
	if err != nil {
		panic("failed to load margin template: " + err.Error())
	}
	tmpl, err := template.New("margin").Parse(tmplContent)
	if err != nil {
		panic("failed to parse margin template: " + err.Error())
	}

	return &marginLayout{
		log:      log,
		injector: &cssInjection{},
		comments: newMarkdownCommentRenderer(),
		tmpl:     tmpl,
		page:     page,
	}
}

// RenderPrintLayout produces the two-column HTML handed to the PDF backend.
// Margin entries are numbered contiguously 1..len(annotations) across all
// kinds in one pass. Annotations that fail to resolve are still listed in
// the margin, so the record is never silently lost; they just receive no
// inline badge.
func (m *marginLayout) RenderPrintLayout(ctx context.Context, doc *Document) (string, RenderStats, error) {
	var stats RenderStats

	if err := ctx.Err(); err != nil {
		return "", stats, err
	}
	if doc == nil {
		return "", stats, ErrNilDocument
	}

	tree, err := parseDocument(doc.HTML)
	if err != nil {
		return "", stats, err
	}

	body := findBody(tree)
	if body == nil {
		return "", stats, fmt.Errorf("%w: document has no body", ErrParseFailure)
	}

	// Resolve before relocating: relocation moves nodes, so pointers taken
	// now stay valid inside the content column.
	targets := make([]*html.Node, len(doc.Annotations))
	for i, a := range doc.Annotations {
		if a.Locator.IsTextMatch() {
			continue
		}
		if target, ok := resolveFirstLogged(m.log, tree, a, &stats); ok {
			targets[i] = target
			stats.Resolved++
		}
	}

	content := divNode(contentAreaClass)
	margin := divNode(marginAreaClass)
	container := divNode(layoutClass)

	// Relocate the body's children into the content column.
	for child := body.FirstChild; child != nil; {
		next := child.NextSibling
		body.RemoveChild(child)
		content.AppendChild(child)
		child = next
	}
	container.AppendChild(content)
	container.AppendChild(margin)
	body.AppendChild(container)

	for i, a := range doc.Annotations {
		number := i + 1
		if targets[i] != nil {
			m.attachBadge(targets[i], number)
		}
		if err := m.appendMarginEntry(margin, a, number); err != nil {
			return "", stats, err
		}
	}

	rendered, err := renderDocument(tree)
	if err != nil {
		return "", stats, err
	}

	printCSS, err := assets.LoadStyle("print")
	if err != nil {
		return "", stats, err
	}

	return m.injector.InjectCSS(ctx, rendered, printCSS+buildPageCSS(m.page)), stats, nil
}

// attachBadge marks the element and adds its numbered badge. Void elements
// cannot carry children, so their badge goes in as the next sibling.
func (m *marginLayout) attachBadge(target *html.Node, number int) {
	appendClass(target, markedClass)

	badge := &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Span,
		Data:     "span",
		Attr:     []html.Attribute{{Key: "class", Val: markerBadgeClass}},
	}
	badge.AppendChild(textNode(strconv.Itoa(number)))

	if isVoidElement(target) {
		target.Parent.InsertBefore(badge, target.NextSibling)
		return
	}
	target.AppendChild(badge)
}

// appendMarginEntry renders one margin card and appends it to the margin
// column.
func (m *marginLayout) appendMarginEntry(margin *html.Node, a Annotation, number int) error {
	comment, err := m.comments.RenderComment(a.UserComment)
	if err != nil {
		m.log.Warn("skipping unrenderable comment",
			zap.String("id", a.ID), zap.Error(err))
		comment = ""
	}

	var buf bytes.Buffer
	data := marginEntryData{
		ID:      a.ID,
		Number:  number,
		Kind:    kindTitle(a.Kind),
		Label:   a.Label,
		Details: marginDetails(a),
		Comment: template.HTML(comment), // #nosec G203 -- sanitized by bluemonday
	}
	if err := m.tmpl.Execute(&buf, data); err != nil {
		return fmt.Errorf("rendering margin entry: %w", err)
	}

	nodes, err := html.ParseFragment(strings.NewReader(buf.String()), margin)
	if err != nil {
		return fmt.Errorf("%w: margin entry fragment: %v", ErrParseFailure, err)
	}
	for _, n := range nodes {
		margin.AppendChild(n)
	}
	return nil
}

// kindTitle maps an annotation kind to its margin heading.
func kindTitle(kind Kind) string {
	switch kind {
	case KindFormField:
		return "Form Field"
	case KindHyperlink:
		return "Hyperlink"
	default:
		return "Template Variable"
	}
}

// marginDetails lists the kind-specific lines of a margin card.
func marginDetails(a Annotation) []string {
	var details []string
	switch {
	case a.Hyperlink != nil:
		details = append(details, a.Hyperlink.URL)
	case a.FormField != nil:
		if a.FormField.Name != "" {
			details = append(details, "Name: "+a.FormField.Name)
		}
		details = append(details, "Type: "+a.FormField.InputType)
	case a.Variable != nil:
		details = append(details, "Variable: "+a.Variable.VariableName)
		details = append(details, "Syntax: "+string(a.Variable.Syntax))
		if a.Variable.Instance > 1 {
			details = append(details, fmt.Sprintf("Instance: %d", a.Variable.Instance))
		}
	}
	return details
}

// divNode creates a div with the given class.
func divNode(class string) *html.Node {
	return &html.Node{
		Type:     html.ElementNode,
		DataAtom: atom.Div,
		Data:     "div",
		Attr:     []html.Attribute{{Key: "class", Val: class}},
	}
}

// isVoidElement reports whether the element cannot carry child nodes.
func isVoidElement(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Area, atom.Base, atom.Br, atom.Col, atom.Embed, atom.Hr,
		atom.Img, atom.Input, atom.Link, atom.Meta, atom.Param,
		atom.Source, atom.Track, atom.Wbr:
		return true
	}
	return false
}
