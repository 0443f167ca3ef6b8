package mailmark

import (
	"fmt"
	"strings"
)

// defaultFontFamily is the font stack for generated margin notes and badges.
const defaultFontFamily = "Arial, sans-serif"

// CSS class and attribute names added by the renderers. The static
// treatments behind them live in internal/assets/styles.
const (
	highlightFormClass = "annotation-highlight-form"
	highlightLinkClass = "annotation-highlight-link"
	highlightVarClass  = "annotation-highlight-var"
	annotationIDAttr   = "data-annotation-id"
	markerBadgeClass   = "annotation-marker"
	markedClass        = "annotation-marked"
	marginAreaClass    = "annotation-margin"
	marginEntryClass   = "annotation-entry"
	contentAreaClass   = "annotation-content"
	layoutClass        = "annotation-layout"
)

// highlightClassFor maps an annotation kind to its preview treatment.
func highlightClassFor(kind Kind) string {
	switch kind {
	case KindFormField:
		return highlightFormClass
	case KindHyperlink:
		return highlightLinkClass
	default:
		return highlightVarClass
	}
}

// buildPageCSS generates the @page rule for the PDF backend. Nil settings
// mean the A4 landscape export defaults.
func buildPageCSS(p *PageSettings) string {
	if p == nil {
		p = DefaultPageSettings()
	}

	size := cssPageSize(p.Size)
	if strings.ToLower(p.Orientation) == OrientationLandscape {
		size += " landscape"
	}

	return fmt.Sprintf(`
@page {
  size: %s;
  margin: %.1fcm;
}
body {
  font-family: %s;
  font-size: 12px;
}
@media print {
  body {
    background: white;
  }
}
`, size, p.MarginCm, defaultFontFamily)
}

// cssPageSize maps a page size constant to its CSS keyword.
func cssPageSize(size string) string {
	switch strings.ToLower(size) {
	case PageSizeA4:
		return "A4"
	case PageSizeLegal:
		return "legal"
	default:
		return "letter"
	}
}
