package mailmark

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// parseDocument parses HTML text into a traversable tree.
// x/net/html implements the WHATWG parsing algorithm, so malformed markup is
// repaired rather than rejected; a failure here is fatal for the document.
func parseDocument(content string) (*html.Node, error) {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParseFailure, err)
	}
	return doc, nil
}

// renderDocument serializes a tree back to HTML text.
func renderDocument(doc *html.Node) (string, error) {
	var buf bytes.Buffer
	if err := html.Render(&buf, doc); err != nil {
		return "", fmt.Errorf("rendering HTML: %w", err)
	}
	return buf.String(), nil
}

// walkNodes visits n and all its descendants in document order.
func walkNodes(n *html.Node, visit func(*html.Node)) {
	visit(n)
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walkNodes(c, visit)
	}
}

// attrVal returns the value of the named attribute, or "" when absent.
func attrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

// hasAttr reports whether the named attribute is present, regardless of value.
func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}

// setAttr sets or replaces an attribute.
func setAttr(n *html.Node, key, val string) {
	for i, a := range n.Attr {
		if a.Key == key {
			n.Attr[i].Val = val
			return
		}
	}
	n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
}

// appendClass adds a class token to the element's class attribute.
func appendClass(n *html.Node, class string) {
	existing := attrVal(n, "class")
	if existing == "" {
		setAttr(n, "class", class)
		return
	}
	setAttr(n, "class", existing+" "+class)
}

// firstClassToken returns the first token of the class attribute, or "".
func firstClassToken(n *html.Node) string {
	fields := strings.Fields(attrVal(n, "class"))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// nodeText returns the concatenated text content of n's subtree, trimmed.
// Script and style bodies are excluded.
func nodeText(n *html.Node) string {
	var buf strings.Builder
	collectText(n, &buf)
	return strings.Join(strings.Fields(buf.String()), " ")
}

func collectText(n *html.Node, buf *strings.Builder) {
	if n.Type == html.ElementNode {
		switch n.DataAtom {
		case atom.Script, atom.Style:
			return
		}
	}
	if n.Type == html.TextNode {
		buf.WriteString(n.Data)
		buf.WriteString(" ")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, buf)
	}
}

// findFirst returns the first element in document order for which match
// returns true, or nil.
func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	if n.Type == html.ElementNode && match(n) {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findFirst(c, match); found != nil {
			return found
		}
	}
	return nil
}

// findBody returns the document's <body> element, or nil.
func findBody(doc *html.Node) *html.Node {
	return findFirst(doc, func(n *html.Node) bool {
		return n.DataAtom == atom.Body
	})
}
