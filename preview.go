package mailmark

import (
	"context"

	"go.uber.org/zap"

	"github.com/alnah/go-mailmark/internal/assets"
)

// previewRenderer defines the contract for highlight preview rendering.
type previewRenderer interface {
	RenderPreview(ctx context.Context, doc *Document) (string, RenderStats, error)
}

// highlightPreview re-renders the canonical document with a highlight class
// and an identifying attribute on every annotation whose locator resolves to
// a structural element, plus one appended stylesheet block. The operation is
// additive-only: every other byte of structure and content is preserved.
type highlightPreview struct {
	log      *zap.Logger
	injector cssInjector
}

func newHighlightPreview(log *zap.Logger) *highlightPreview {
	return &highlightPreview{log: log, injector: &cssInjection{}}
}

// RenderPreview marks resolved annotations and injects the highlight
// stylesheet. Text-match annotations have no containing element to mark and
// are skipped without counting as failures; the editor surfaces them by
// other means. A locator that matches nothing is logged and skipped: a
// broken annotation never aborts the rest of the preview. A locator that
// matches several elements marks only the first in document order.
func (p *highlightPreview) RenderPreview(ctx context.Context, doc *Document) (string, RenderStats, error) {
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

	for _, a := range doc.Annotations {
		if a.Locator.IsTextMatch() {
			continue
		}

		target, ok := resolveFirstLogged(p.log, tree, a, &stats)
		if !ok {
			continue
		}

		setAttr(target, annotationIDAttr, a.ID)
		appendClass(target, highlightClassFor(a.Kind))
		stats.Resolved++
	}

	rendered, err := renderDocument(tree)
	if err != nil {
		return "", stats, err
	}

	css, err := assets.LoadStyle("preview")
	if err != nil {
		return "", stats, err
	}

	return p.injector.InjectCSS(ctx, rendered, css), stats, nil
}
