package mailmark

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// LocatorStrategy names the resolution strategy a locator uses.
type LocatorStrategy string

// Locator strategies, in synthesis precedence order. The first six address
// structural elements; text-match is the tagged variant for legacy
// placeholder occurrences, which have no containing element identity and are
// re-found by direct text search.
const (
	StrategyID         LocatorStrategy = "id"
	StrategyTagClass   LocatorStrategy = "tag-class"
	StrategyTagName    LocatorStrategy = "tag-name"
	StrategyLinkText   LocatorStrategy = "link-text"
	StrategyHrefPrefix LocatorStrategy = "href-prefix"
	StrategyTagNth     LocatorStrategy = "tag-nth"
	StrategyTextMatch  LocatorStrategy = "text-match"
)

// Locator is a serializable expression that re-finds the occurrence an
// annotation was created for. It is scoped to one document and makes no
// uniqueness promise across unrelated documents. When a locator matches more
// than one element at resolve time, resolution always takes the first match
// in document order; annotation identity is bound to the document order of
// the occurrence at creation time.
type Locator struct {
	Strategy LocatorStrategy `json:"strategy"`
	Tag      string          `json:"tag,omitempty"`
	Value    string          `json:"value"`
	Instance int             `json:"instance,omitempty"` // 1-based occurrence ordinal
}

// IsTextMatch reports whether the locator is resolved by text search rather
// than against the element tree.
func (l Locator) IsTextMatch() bool {
	return l.Strategy == StrategyTextMatch
}

// Locator synthesis thresholds.
const (
	// maxLinkTextLocator caps visible-text locators; longer anchor text is
	// unwieldy and no more unique than its href.
	maxLinkTextLocator = 50

	// maxHrefPrefix caps href-prefix locators to a safe length.
	maxHrefPrefix = 100
)

// synthesizeLocator computes a locator for a structural element. Precedence,
// first applicable wins:
//
//  1. unique identifier attribute
//  2. tag + first class token (additional classes ignored; a rare collision
//     on the remaining tokens is an accepted limitation)
//  3. tag + name attribute
//  4. anchors only: visible text when short, else href prefix before the
//     first placeholder token (exact-href matching breaks once a href
//     carries per-recipient substitution)
//  5. tag + nth occurrence in document order, the explicit positional
//     tie-break
//
// Any reimplementation must keep this exact order and the first-match
// tie-break to stay compatible with previously created locators.
func synthesizeLocator(doc, n *html.Node) Locator {
	if id := attrVal(n, "id"); id != "" {
		return Locator{Strategy: StrategyID, Value: id}
	}

	if class := firstClassToken(n); class != "" {
		return Locator{Strategy: StrategyTagClass, Tag: n.Data, Value: class}
	}

	if name := attrVal(n, "name"); name != "" {
		return Locator{Strategy: StrategyTagName, Tag: n.Data, Value: name}
	}

	if n.DataAtom == atom.A {
		if loc, ok := anchorLocator(n); ok {
			return loc
		}
	}

	return Locator{Strategy: StrategyTagNth, Tag: n.Data, Instance: nthOfTag(doc, n)}
}

// anchorLocator builds a visible-text or href-prefix locator for an anchor.
func anchorLocator(n *html.Node) (Locator, bool) {
	text := nodeText(n)
	if text != "" && len(text) <= maxLinkTextLocator {
		return Locator{Strategy: StrategyLinkText, Tag: "a", Value: text}, true
	}

	href := attrVal(n, "href")
	if href == "" {
		return Locator{}, false
	}
	prefix := splitHrefAtPlaceholder(href)
	if len(prefix) > maxHrefPrefix {
		prefix = prefix[:maxHrefPrefix]
	}
	if prefix == "" {
		return Locator{}, false
	}
	return Locator{Strategy: StrategyHrefPrefix, Tag: "a", Value: prefix}, true
}

// nthOfTag returns the 1-based position of n among all elements with the
// same tag, in document order.
func nthOfTag(doc, n *html.Node) int {
	nth := 0
	found := 0
	walkNodes(doc, func(c *html.Node) {
		if c.Type != html.ElementNode || c.Data != n.Data {
			return
		}
		nth++
		if c == n && found == 0 {
			found = nth
		}
	})
	return found
}

// textMatchLocator builds a locator for a legacy placeholder occurrence.
// Value carries the literal matched text with delimiters; instance is the
// 1-based ordinal among identical literals in the document.
func textMatchLocator(literal string, instance int) Locator {
	return Locator{Strategy: StrategyTextMatch, Value: literal, Instance: instance}
}

// resolveLocator returns all elements matching a structural locator, in
// document order. Text-match locators resolve to no elements: they have no
// containing element to return. An empty result is not an error at this
// level; renderers decide whether to log and skip.
func resolveLocator(doc *html.Node, loc Locator) ([]*html.Node, error) {
	switch loc.Strategy {
	case StrategyID:
		return collectElements(doc, func(n *html.Node) bool {
			return attrVal(n, "id") == loc.Value
		}), nil

	case StrategyTagClass:
		return collectElements(doc, func(n *html.Node) bool {
			return n.Data == loc.Tag && hasClassToken(n, loc.Value)
		}), nil

	case StrategyTagName:
		return collectElements(doc, func(n *html.Node) bool {
			return n.Data == loc.Tag && attrVal(n, "name") == loc.Value
		}), nil

	case StrategyLinkText:
		return collectElements(doc, func(n *html.Node) bool {
			return n.DataAtom == atom.A && nodeText(n) == loc.Value
		}), nil

	case StrategyHrefPrefix:
		return collectElements(doc, func(n *html.Node) bool {
			return n.DataAtom == atom.A && strings.HasPrefix(attrVal(n, "href"), loc.Value)
		}), nil

	case StrategyTagNth:
		all := collectElements(doc, func(n *html.Node) bool {
			return n.Data == loc.Tag
		})
		if loc.Instance < 1 || loc.Instance > len(all) {
			return nil, nil
		}
		return all[loc.Instance-1 : loc.Instance], nil

	case StrategyTextMatch:
		return nil, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, loc.Strategy)
	}
}

// collectElements gathers elements matching the predicate, in document order.
func collectElements(doc *html.Node, match func(*html.Node) bool) []*html.Node {
	var out []*html.Node
	walkNodes(doc, func(n *html.Node) {
		if n.Type == html.ElementNode && match(n) {
			out = append(out, n)
		}
	})
	return out
}

// hasClassToken reports whether any class token equals token. The locator
// stores only the first token of the original element, but matching accepts
// the token anywhere so later additive class edits do not break resolution.
func hasClassToken(n *html.Node, token string) bool {
	for _, f := range strings.Fields(attrVal(n, "class")) {
		if f == token {
			return true
		}
	}
	return false
}

// resolveFirstLogged resolves a structural locator to its first match in
// document order, updating diagnostic counts. Zero matches and unknown
// strategies are logged and reported as (nil, false); more than one match
// increments the ambiguity count and yields the first.
func resolveFirstLogged(log *zap.Logger, tree *html.Node, a Annotation, stats *RenderStats) (*html.Node, bool) {
	matches, err := resolveLocator(tree, a.Locator)
	if err != nil {
		log.Warn("skipping annotation with unresolvable locator",
			zap.String("id", a.ID),
			zap.String("strategy", string(a.Locator.Strategy)),
			zap.Error(err))
		stats.Failed++
		return nil, false
	}
	if len(matches) == 0 {
		log.Warn("skipping annotation",
			zap.String("id", a.ID),
			zap.String("strategy", string(a.Locator.Strategy)),
			zap.String("value", a.Locator.Value),
			zap.Error(ErrSelectorResolution))
		stats.Failed++
		return nil, false
	}
	if len(matches) > 1 {
		stats.Ambiguous++
	}
	return matches[0], true
}

// ResolveCount reports how many occurrences a locator matches in the
// canonical document text. Structural locators count matching elements;
// text-match locators count literal text occurrences. Useful for round-trip
// verification by editing surfaces.
func ResolveCount(htmlContent string, loc Locator) (int, error) {
	if loc.IsTextMatch() {
		return strings.Count(htmlContent, loc.Value), nil
	}

	doc, err := parseDocument(htmlContent)
	if err != nil {
		return 0, err
	}
	nodes, err := resolveLocator(doc, loc)
	if err != nil {
		return 0, err
	}
	return len(nodes), nil
}
