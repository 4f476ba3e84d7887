package format

import (
	"strings"

	"golang.org/x/net/html"
)

// PlainText returns the visible text of an XHTML fragment with whitespace
// collapsed. Text without markup is returned with whitespace collapsed.
func PlainText(s string) string {
	if !strings.ContainsRune(s, '<') {
		return strings.Join(strings.Fields(html.UnescapeString(s)), " ")
	}
	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		return strings.Join(strings.Fields(s), " ")
	}
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			sb.WriteString(n.Data)
			return
		case html.ElementNode:
			switch n.Data {
			case "script", "style", "head":
				return
			case "br", "p", "div", "li", "tr", "td", "th", "h1", "h2", "h3", "h4", "h5", "h6":
				sb.WriteByte(' ')
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)
	return strings.Join(strings.Fields(sb.String()), " ")
}
