package htmlutil

import (
	"bytes"
	"regexp"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

var innerWhitespace = regexp.MustCompile(`\s\s+`)

// CleanText flattens a rendered label into a single printable line.
func CleanText(s string) string {
	var b strings.Builder
	for _, c := range s {
		if unicode.IsPrint(c) {
			b.WriteRune(c)
		}
	}
	out := strings.Trim(b.String(), " \t\n")
	return innerWhitespace.ReplaceAllString(out, " ")
}

// Fragment serializes a selection into a normalized HTML fragment,
// markup preserved, trimmed of surrounding whitespace.
func Fragment(sel *goquery.Selection) (string, error) {
	markup, err := goquery.OuterHtml(sel)
	if err != nil {
		return "", err
	}
	return strings.Trim(markup, " \t\n"), nil
}
