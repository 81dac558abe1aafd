// CLAUDE:SUMMARY Text-density content selection: landmark tags first, then densest low-link subtree.
package extract

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// contentText picks the main content text of a document.
// Strategy: semantic landmarks (<main>, <article>) first; otherwise the
// subtree with the highest text-to-markup density that is not mostly
// links; last resort, all non-boilerplate body text.
func contentText(root *html.Node, minLen int) string {
	var parts []string
	for _, lm := range landmarkNodes(root) {
		if isBoilerplate(lm) {
			continue
		}
		if text := collectText(lm); len(text) >= minLen {
			parts = append(parts, text)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, "\n\n")
	}

	body := findBody(root)
	if body == nil {
		body = root
	}

	if best := densestNode(body, minLen); best != nil {
		return collectText(best)
	}
	return collectText(body)
}

// candidate holds density metrics for one subtree.
type candidate struct {
	node     *html.Node
	textLen  int
	density  float64
	linkFrac float64 // fraction of text inside <a>
}

// densestNode returns the content container with the best composite score,
// or nil when nothing passes the filters.
func densestNode(root *html.Node, minLen int) *html.Node {
	var cands []candidate

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type != html.ElementNode || isBoilerplate(n) {
			return
		}
		if isContainerTag(n.DataAtom) || n.DataAtom == atom.Body {
			text := collectText(n)
			if len(text) >= minLen {
				markupLen := renderedLen(n)
				if markupLen == 0 {
					markupLen = 1
				}
				linkLen := len(collectText(n, onlyLinks))
				cands = append(cands, candidate{
					node:     n,
					textLen:  len(text),
					density:  float64(len(text)) / float64(markupLen),
					linkFrac: float64(linkLen) / float64(len(text)),
				})
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	var best *html.Node
	bestScore := 0.0
	for i := range cands {
		c := &cands[i]
		if c.linkFrac > 0.5 {
			continue // navigation, not content
		}
		score := c.density * lengthScale(c.textLen) * (1 - c.linkFrac)
		if score > bestScore {
			bestScore = score
			best = c.node
		}
	}
	return best
}

// lengthScale grows logarithmically with text length so long pages beat
// short dense snippets without dominating outright.
func lengthScale(n int) float64 {
	scale := 1.0
	for v := n; v > 100; v /= 2 {
		scale++
	}
	return scale
}

type textFilter int

const (
	allText textFilter = iota
	onlyLinks
)

// collectText gathers whitespace-normalized text from a subtree, skipping
// boilerplate and non-content tags. With onlyLinks, only text inside <a>
// elements is counted.
func collectText(n *html.Node, filter ...textFilter) string {
	f := allText
	if len(filter) > 0 {
		f = filter[0]
	}

	var sb strings.Builder
	var walk func(*html.Node, bool)
	walk = func(n *html.Node, inLink bool) {
		if n.Type == html.ElementNode {
			if isBoilerplate(n) {
				return
			}
			switch n.DataAtom {
			case atom.Script, atom.Style, atom.Noscript, atom.Template:
				return
			case atom.A:
				inLink = true
			}
		}
		if n.Type == html.TextNode && (f == allText || inLink) {
			if text := strings.TrimSpace(n.Data); text != "" {
				if sb.Len() > 0 {
					sb.WriteByte(' ')
				}
				sb.WriteString(text)
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, inLink)
		}
	}
	walk(n, false)
	return sb.String()
}

// renderedLen approximates the markup size of a subtree without allocating
// the rendered string.
func renderedLen(n *html.Node) int {
	total := 0
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.ElementNode:
			total += 2*len(n.Data) + 5 // open + close tags
			for _, a := range n.Attr {
				total += len(a.Key) + len(a.Val) + 4
			}
		case html.TextNode:
			total += len(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return total
}

var boilerplateMarkers = []string{
	"nav", "footer", "sidebar", "menu", "cookie", "banner", "breadcrumb",
	"social", "newsletter", "popup", "modal",
}

// isBoilerplate reports whether a node is navigation/footer/ad chrome.
func isBoilerplate(n *html.Node) bool {
	switch n.DataAtom {
	case atom.Nav, atom.Footer, atom.Aside:
		return true
	}
	for _, a := range n.Attr {
		if a.Key != "class" && a.Key != "id" && a.Key != "role" {
			continue
		}
		val := strings.ToLower(a.Val)
		for _, marker := range boilerplateMarkers {
			if strings.Contains(val, marker) {
				return true
			}
		}
	}
	return false
}

func isContainerTag(a atom.Atom) bool {
	switch a {
	case atom.Div, atom.Article, atom.Section, atom.Main, atom.Td:
		return true
	}
	return false
}

// landmarkNodes returns <main> and <article> elements in document order.
func landmarkNodes(root *html.Node) []*html.Node {
	var out []*html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && (n.DataAtom == atom.Main || n.DataAtom == atom.Article) {
			out = append(out, n)
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return out
}

func findBody(root *html.Node) *html.Node {
	var body *html.Node
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if body != nil {
			return
		}
		if n.Type == html.ElementNode && n.DataAtom == atom.Body {
			body = n
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return body
}
