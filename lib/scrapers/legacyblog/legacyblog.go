// Package legacyblog extracts normalized post records from the legacy
// site's rendered pages. The layout is fixed: one elementor-built post
// page per record.
package legacyblog

import (
	"bytes"
	"context"
	"strings"
	"time"

	"blogmigrate/lib/auditlog"
	"blogmigrate/lib/htmlutil"
	"blogmigrate/lib/post"
	"blogmigrate/lib/telemetry"
	"blogmigrate/lib/timestamp"

	cloudflarebp "github.com/DaRealFreak/cloudflare-bp-go"
	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("lib/scrapers/legacyblog")

const (
	titleSelector  = "h1.elementor-heading-title"
	headerSelector = "div.elementor-widget-wrap"
	authorSelector = "span.elementor-post-info__item--type-author"
	dateSelector   = "span.elementor-post-info__item--type-date"
	timeSelector   = "span.elementor-post-info__item--type-time"
	bodySelector   = "div.elementor-text-editor.elementor-clearfix"
	tagSelector    = "div.tagcloud a"
)

type Client struct {
	http  *resty.Client
	audit *auditlog.Log
}

func NewClient(audit *auditlog.Log) *Client {
	client := resty.New()
	client.GetClient().Transport = cloudflarebp.AddCloudFlareByPass(client.GetClient().Transport)
	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "scrapers/legacyblog/http")

	return &Client{
		http:  client,
		audit: audit,
	}
}

// FetchPost fetches a source post page and extracts it into a record.
func (c *Client) FetchPost(ctx context.Context, url string) (*post.Record, error) {
	ctx, span := tracer.Start(ctx, "FetchPost")
	defer span.End()

	res, err := c.http.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch source page")
		return nil, &FetchError{URL: url, Cause: err}
	}
	if res.StatusCode() >= 300 {
		span.SetStatus(codes.Error, "unexpected status")
		return nil, &FetchError{URL: url, StatusCode: res.StatusCode()}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse source html")
		return nil, &FetchError{URL: url, Cause: err}
	}

	record, err := ParsePost(ctx, url, doc)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "extraction failed")
		return nil, err
	}

	if c.audit != nil {
		c.audit.Info(
			"retrieved old blog post",
			auditlog.Field{Key: "Source", Value: record.SourceURL},
			auditlog.Field{Key: "Title", Value: record.Title},
			auditlog.Field{Key: "Author", Value: record.Author},
			auditlog.Field{Key: "Published", Value: timestamp.Format(record.PublishedAt)},
			auditlog.Field{Key: "Featured image", Value: record.FeaturedImage},
			auditlog.Field{Key: "Tags", Value: strings.Join(record.Tags, ", ")},
		)
	}
	return record, nil
}

// ParsePost extracts a record from an already-parsed source document.
// Pure function of the document apart from the url stamped on errors.
func ParsePost(ctx context.Context, url string, doc *goquery.Document) (*post.Record, error) {
	ctx, span := tracer.Start(ctx, "ParsePost")
	defer span.End()

	record := &post.Record{SourceURL: url}

	// the post header is the second widget wrap on the page, the first
	// wraps the site chrome
	header := doc.Find(headerSelector).Eq(1)

	title := htmlutil.CleanText(header.Find(titleSelector).Text())
	if title == "" {
		title = htmlutil.CleanText(doc.Find(titleSelector).First().Text())
	}
	if title == "" {
		return nil, &ExtractionError{URL: url, Kind: MissingTitle}
	}
	record.Title = title

	// a post with no image is fine
	record.FeaturedImage = header.Find("img").AttrOr("src", "")

	author := htmlutil.CleanText(doc.Find(authorSelector).First().Text())
	if author == "" {
		return nil, &ExtractionError{URL: url, Kind: MissingAuthor}
	}
	record.Author = author

	date := doc.Find(dateSelector).First().Text()
	clock := doc.Find(timeSelector).First().Text()
	publishedAt, err := timestamp.Parse(date, clock)
	if err != nil {
		return nil, &ExtractionError{URL: url, Kind: BadTimestamp, Cause: err}
	}
	record.PublishedAt = publishedAt

	body := doc.Find(bodySelector).First()
	if len(body.Nodes) == 0 {
		return nil, &ExtractionError{URL: url, Kind: MissingBody}
	}
	fragment, err := htmlutil.Fragment(body)
	if err != nil {
		return nil, &ExtractionError{URL: url, Kind: MissingBody, Cause: err}
	}
	record.Body = fragment

	var tags []string
	doc.Find(tagSelector).Each(func(_ int, tag *goquery.Selection) {
		tags = append(tags, tag.Text())
	})
	record.Tags = post.NormalizeTags(tags)

	return record, nil
}
