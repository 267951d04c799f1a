package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

func TestGetText(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		`<div><p>hello <b>world</b></p><p>again</p></div>`,
	))
	require.NoError(t, err)
	require.Equal(t, "hello worldagain", GetText(doc.Find("div").Nodes[0]))
}

func TestCleanText(t *testing.T) {
	require.Equal(t, "Jane Doe", CleanText("  Jane \n\t  Doe "))
	require.Equal(t, "a b", CleanText("a\x00  b"))
}

func TestFragment(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(
		"\n  <div class=\"content\"><p>body</p></div>\n",
	))
	require.NoError(t, err)
	fragment, err := Fragment(doc.Find("div.content"))
	require.NoError(t, err)
	require.Equal(t, `<div class="content"><p>body</p></div>`, fragment)
}
