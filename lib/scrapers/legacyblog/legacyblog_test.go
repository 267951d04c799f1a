package legacyblog

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

const sourceURL = "https://old.example.com/posts/summer-reunion-1987"

func fixtureDocument(t *testing.T, mutate func(doc *goquery.Document)) *goquery.Document {
	raw, err := os.ReadFile("testdata/post.html")
	require.NoError(t, err)
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(raw)))
	require.NoError(t, err)
	if mutate != nil {
		mutate(doc)
	}
	return doc
}

func TestParsePost(t *testing.T) {
	doc := fixtureDocument(t, nil)
	record, err := ParsePost(context.Background(), sourceURL, doc)
	require.NoError(t, err)

	require.Equal(t, sourceURL, record.SourceURL)
	require.Equal(t, "Summer Reunion 1987", record.Title)
	require.Equal(t, "Jane Doe", record.Author)
	require.Equal(t, "https://old.example.com/uploads/reunion.jpg", record.FeaturedImage)
	require.True(t, record.PublishedAt.Equal(time.Date(1987, 6, 5, 15, 0, 0, 0, time.UTC)))

	diff := cmp.Diff([]string{"poland", "reunion"}, record.Tags)
	if diff != "" {
		t.Fatal(diff)
	}

	require.Contains(t, record.Body, `class="elementor-text-editor elementor-clearfix"`)
	require.Contains(t, record.Body, "<b>Krakow</b>")
	require.NoError(t, record.Validate())
}

func TestParsePostNoImage(t *testing.T) {
	doc := fixtureDocument(t, func(doc *goquery.Document) {
		doc.Find("img").Remove()
	})
	record, err := ParsePost(context.Background(), sourceURL, doc)
	require.NoError(t, err)
	require.Empty(t, record.FeaturedImage)
}

func TestParsePostNoTags(t *testing.T) {
	doc := fixtureDocument(t, func(doc *goquery.Document) {
		doc.Find("div.tagcloud").Remove()
	})
	record, err := ParsePost(context.Background(), sourceURL, doc)
	require.NoError(t, err)
	require.Empty(t, record.Tags)
}

func TestParsePostErrors(t *testing.T) {
	testCases := []struct {
		name     string
		mutate   func(doc *goquery.Document)
		expected ExtractionKind
	}{
		{
			name: "missing title",
			mutate: func(doc *goquery.Document) {
				doc.Find("h1").Remove()
			},
			expected: MissingTitle,
		},
		{
			name: "missing author",
			mutate: func(doc *goquery.Document) {
				doc.Find("span.elementor-post-info__item--type-author").Remove()
			},
			expected: MissingAuthor,
		},
		{
			name: "missing body",
			mutate: func(doc *goquery.Document) {
				doc.Find("div.elementor-text-editor").Remove()
			},
			expected: MissingBody,
		},
		{
			name: "bad timestamp",
			mutate: func(doc *goquery.Document) {
				doc.Find("span.elementor-post-info__item--type-date").SetText("the fifth of June")
			},
			expected: BadTimestamp,
		},
		{
			name: "missing timestamp",
			mutate: func(doc *goquery.Document) {
				doc.Find("span.elementor-post-info__item--type-date").Remove()
				doc.Find("span.elementor-post-info__item--type-time").Remove()
			},
			expected: BadTimestamp,
		},
	}

	for _, test := range testCases {
		t.Run(test.name, func(t *testing.T) {
			doc := fixtureDocument(t, test.mutate)
			record, err := ParsePost(context.Background(), sourceURL, doc)
			require.Nil(t, record)

			var extractionErr *ExtractionError
			require.True(t, errors.As(err, &extractionErr), "got %v", err)
			require.Equal(t, test.expected, extractionErr.Kind)
			require.Equal(t, sourceURL, extractionErr.URL)
		})
	}
}
