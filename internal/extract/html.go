package extract

import (
	"io"
	"strings"

	"golang.org/x/net/html"
)

// Elements whose text never counts as page content.
var skipElements = map[string]bool{
	"script":   true,
	"style":    true,
	"meta":     true,
	"noscript": true,
	"header":   true,
	"footer":   true,
	"nav":      true,
}

// VisibleText returns the readable text of an HTML document with runs of
// whitespace collapsed to single spaces.
func VisibleText(r io.Reader) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", err
	}

	var words []string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && skipElements[n.Data] {
			return
		}
		if n.Type == html.TextNode {
			words = append(words, strings.Fields(n.Data)...)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return strings.Join(words, " "), nil
}

// CollapseWhitespace joins the fields of s with single spaces.
func CollapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
