// Package webform drives the destination platform's server-rendered
// admin pages over HTTP. Pages are fetched with resty, parsed with
// goquery, and "clicks" become link fetches or form submissions; typed
// text and selections accumulate as pending form values until a submit
// control is clicked.
package webform

import (
	"bytes"
	"context"
	"fmt"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"blogmigrate/lib/htmlutil"
	"blogmigrate/lib/surface"
	"blogmigrate/lib/telemetry"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("lib/surface/webform")

type Client struct {
	http *resty.Client
	base *url.URL

	pageURL *url.URL
	doc     *goquery.Document
	// pending form values for the current page, keyed by control name
	form url.Values
}

type ClientOptions struct {
	BaseURL string
}

func NewClient(ctx context.Context, opts ClientOptions) (*Client, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, err
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseURL)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetRedirectPolicy(resty.DomainCheckRedirectPolicy(base.Hostname()))
	client.SetTimeout(time.Second * 30)

	telemetry.InstrumentResty(client, "surface/webform/http")

	return &Client{
		http: client,
		base: base,
		form: url.Values{},
	}, nil
}

// Open fetches the page at ref (absolute or relative to the base url)
// and makes it the current page, discarding pending form state.
func (c *Client) Open(ctx context.Context, ref string) error {
	ctx, span := tracer.Start(ctx, "Open")
	defer span.End()

	link, err := url.Parse(ref)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "bad page reference")
		return err
	}
	target := c.base.ResolveReference(link)

	res, err := c.http.R().
		SetContext(ctx).
		Get(target.String())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch page")
		return err
	}
	if res.StatusCode() >= 300 {
		err := fmt.Errorf("unexpected status %d fetching %s", res.StatusCode(), target)
		span.SetStatus(codes.Error, err.Error())
		return err
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse page html")
		return err
	}

	c.pageURL = target
	c.doc = doc
	c.form = url.Values{}
	return nil
}

// Login drives the destination's login form using the configured
// locators, then leaves the post-login page current.
func (c *Client) Login(ctx context.Context, loc surface.LocatorTable, email, password string) error {
	ctx, span := tracer.Start(ctx, "Login")
	defer span.End()

	root := c.Root()
	emailField, err := root.FindElement(ctx, loc.LoginEmail)
	if err != nil {
		span.SetStatus(codes.Error, "login email field not found")
		return err
	}
	passwordField, err := root.FindElement(ctx, loc.LoginPassword)
	if err != nil {
		span.SetStatus(codes.Error, "login password field not found")
		return err
	}
	submit, err := root.FindElement(ctx, loc.LoginSubmit)
	if err != nil {
		span.SetStatus(codes.Error, "login submit button not found")
		return err
	}

	if err := emailField.Type(ctx, email); err != nil {
		return err
	}
	if err := passwordField.Type(ctx, password); err != nil {
		return err
	}
	if err := submit.Click(ctx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login submission failed")
		return err
	}
	return nil
}

// Root returns a surface scoped to the whole current page.
func (c *Client) Root() surface.Surface {
	return pageSurface{client: c}
}

// pageSurface issues commands against the current page, optionally
// restricted to a scope selection (an overlay).
type pageSurface struct {
	client *Client
	scope  *goquery.Selection
}

func (s pageSurface) selection() *goquery.Selection {
	if s.scope != nil {
		return s.scope
	}
	if s.client.doc == nil {
		return nil
	}
	return s.client.doc.Selection
}

func (s pageSurface) FindElement(ctx context.Context, locator surface.Locator) (surface.Element, error) {
	root := s.selection()
	if root == nil {
		return nil, surface.NotFound(locator)
	}
	sel := root.Find(string(locator)).First()
	if len(sel.Nodes) == 0 {
		return nil, surface.NotFound(locator)
	}
	return pageElement{client: s.client, locator: locator, sel: sel}, nil
}

func (s pageSurface) FindElements(ctx context.Context, locator surface.Locator) ([]surface.Element, error) {
	root := s.selection()
	if root == nil {
		return nil, surface.NotFound(locator)
	}
	var out []surface.Element
	root.Find(string(locator)).Each(func(_ int, sel *goquery.Selection) {
		out = append(out, pageElement{client: s.client, locator: locator, sel: sel})
	})
	return out, nil
}

// WaitUntilInteractive re-fetches the current page until it renders a
// non-empty body, bounded by timeout.
func (s pageSurface) WaitUntilInteractive(ctx context.Context, timeout time.Duration) error {
	ctx, span := tracer.Start(ctx, "WaitUntilInteractive")
	defer span.End()

	deadline := time.Now().Add(timeout)
	var lastErr error
	for {
		if s.client.doc != nil && len(s.client.doc.Find("body *").Nodes) > 0 {
			return nil
		}
		if time.Now().After(deadline) {
			err := surface.Timeout("", lastErr)
			span.RecordError(err)
			span.SetStatus(codes.Error, "page never became interactive")
			return err
		}

		select {
		case <-ctx.Done():
			return surface.Timeout("", ctx.Err())
		case <-time.After(time.Millisecond * 500):
		}

		if s.client.pageURL != nil {
			lastErr = s.client.Open(ctx, s.client.pageURL.String())
		}
	}
}

// SwitchToActiveChild scopes the surface to the overlay currently
// holding focus: the last dialog on the page, or failing that the last
// form, which is how the destination renders its editor panels.
func (s pageSurface) SwitchToActiveChild(ctx context.Context) (surface.Surface, error) {
	root := s.selection()
	if root == nil {
		return nil, surface.NotFound("[role=dialog]")
	}
	dialogs := root.Find("[role=dialog], dialog")
	if len(dialogs.Nodes) > 0 {
		return pageSurface{client: s.client, scope: dialogs.Last()}, nil
	}
	forms := root.Find("form")
	if len(forms.Nodes) > 0 {
		return pageSurface{client: s.client, scope: forms.Last()}, nil
	}
	return pageSurface{client: s.client}, nil
}

type pageElement struct {
	client  *Client
	locator surface.Locator
	sel     *goquery.Selection
}

func (e pageElement) name() string {
	return e.sel.AttrOr("name", "")
}

func (e pageElement) Type(ctx context.Context, text string) error {
	name := e.name()
	if name == "" {
		return surface.NotFound(e.locator)
	}
	e.client.form.Set(name, text)
	return nil
}

func (e pageElement) SelectByLabel(ctx context.Context, label string) error {
	name := e.name()
	if name == "" {
		return surface.NotFound(e.locator)
	}
	var value string
	var found bool
	e.sel.Find("option").EachWithBreak(func(_ int, opt *goquery.Selection) bool {
		if htmlutil.CleanText(opt.Text()) != label {
			return true
		}
		value = opt.AttrOr("value", label)
		found = true
		return false
	})
	if !found {
		return surface.NotFound(e.locator)
	}
	e.client.form.Set(name, value)
	return nil
}

func (e pageElement) SelectByValue(ctx context.Context, value string) error {
	name := e.name()
	if name == "" {
		return surface.NotFound(e.locator)
	}
	e.client.form.Set(name, value)
	return nil
}

func (e pageElement) OptionLabels(ctx context.Context) ([]string, error) {
	var labels []string
	e.sel.Find("option").Each(func(_ int, opt *goquery.Selection) {
		labels = append(labels, htmlutil.CleanText(opt.Text()))
	})
	return labels, nil
}

func (e pageElement) Label(ctx context.Context) (string, error) {
	if aria := e.sel.AttrOr("aria-label", ""); aria != "" {
		return htmlutil.CleanText(aria), nil
	}
	return htmlutil.CleanText(e.sel.Text()), nil
}

func (e pageElement) Value(ctx context.Context) (string, error) {
	if name := e.name(); name != "" && e.client.form.Has(name) {
		return e.client.form.Get(name), nil
	}
	return e.sel.AttrOr("value", ""), nil
}

// Click follows links, submits forms for submit controls and toggles
// checkable controls; anything else commits no server-side action on a
// server-rendered page.
func (e pageElement) Click(ctx context.Context) error {
	ctx, span := tracer.Start(ctx, "Click")
	defer span.End()

	if href := e.sel.AttrOr("href", ""); href != "" {
		return e.client.Open(ctx, href)
	}

	tag := goquery.NodeName(e.sel)
	inputType := e.sel.AttrOr("type", "")
	isSubmit := inputType == "submit" ||
		(tag == "button" && (inputType == "" || inputType == "submit"))
	if isSubmit {
		err := e.submitEnclosingForm(ctx)
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "form submission failed")
		}
		return err
	}

	if inputType == "checkbox" || inputType == "radio" || tag == "label" || tag == "li" {
		e.toggle()
		return nil
	}

	// clicking any other control only moves focus
	return nil
}

func (e pageElement) toggle() {
	sel := e.sel
	// a label or list item toggles the control it wraps
	if goquery.NodeName(sel) == "label" || goquery.NodeName(sel) == "li" {
		wrapped := sel.Find("input").First()
		if len(wrapped.Nodes) > 0 {
			sel = wrapped
		}
	}
	name := sel.AttrOr("name", "")
	if name == "" {
		return
	}
	value := sel.AttrOr("value", "on")
	if e.client.form.Get(name) == value {
		e.client.form.Del(name)
		return
	}
	e.client.form.Set(name, value)
}

func (e pageElement) submitEnclosingForm(ctx context.Context) error {
	form := e.sel.Closest("form")
	if len(form.Nodes) == 0 {
		return surface.NotFound(e.locator)
	}

	values := url.Values{}
	form.Find("input[name], select[name], textarea[name]").Each(func(_ int, control *goquery.Selection) {
		name := control.AttrOr("name", "")
		controlType := control.AttrOr("type", "")
		if controlType == "checkbox" || controlType == "radio" {
			// unchecked controls submit nothing
			if _, checked := control.Attr("checked"); !checked {
				return
			}
		}
		if controlType == "submit" {
			return
		}
		values.Set(name, control.AttrOr("value", ""))
	})
	for name, pending := range e.client.form {
		if len(pending) > 0 {
			values.Set(name, pending[0])
		}
	}
	if name := e.name(); name != "" {
		values.Set(name, e.sel.AttrOr("value", ""))
	}

	action := form.AttrOr("action", "")
	target := e.client.pageURL
	if action != "" {
		ref, err := url.Parse(action)
		if err != nil {
			return err
		}
		target = e.client.pageURL.ResolveReference(ref)
	}

	method := strings.ToUpper(form.AttrOr("method", "POST"))
	req := e.client.http.R().SetContext(ctx)
	var res *resty.Response
	var err error
	if method == "GET" {
		res, err = req.SetQueryParamsFromValues(values).Get(target.String())
	} else {
		res, err = req.SetFormDataFromValues(values).Post(target.String())
	}
	if err != nil {
		return err
	}
	if res.StatusCode() >= 300 {
		return fmt.Errorf("unexpected status %d submitting to %s", res.StatusCode(), target)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		return err
	}
	e.client.pageURL = target
	e.client.doc = doc
	e.client.form = url.Values{}
	return nil
}
