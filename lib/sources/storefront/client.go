// Package storefront collects variation state by driving the
// server-rendered product page the way a shopper's browser would:
// one shared page session, one selection at a time. It satisfies the
// same contract as the direct-API source, at the cost of having to
// serialize combination fetches.
package storefront

import (
	"bytes"
	"context"
	"fmt"
	"net/http/cookiejar"
	"sync"
	"time"

	"skumatrix/lib/catalog"
	"skumatrix/lib/restyutil"
	"skumatrix/lib/sources"
	"skumatrix/lib/telemetry"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
)

type ClientOptions struct {
	BaseUrl string
	// path of the product page, defaults to "/Product-Show"
	ProductPath string
	// path of the consent overlay dismissal action, defaults to
	// "/ConsentTracking-SetSession"
	ConsentPath string
	// expected dimension ids in output order, see the sources package
	Dimensions []string
	// per-attempt timeout
	Timeout time.Duration
	Retry   sources.RetryOptions
}

type Client struct {
	http *resty.Client
	opts ClientOptions

	// one shared page session: selections mutate server-side state
	// keyed by the session cookie, so page actions never overlap
	mu               sync.Mutex
	consentDismissed bool
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.ProductPath == "" {
		opts.ProductPath = "/Product-Show"
	}
	if opts.ConsentPath == "" {
		opts.ConsentPath = "/ConsentTracking-SetSession"
	}
	if opts.Timeout == 0 {
		opts.Timeout = time.Second * 30
	}

	client := resty.New()
	client.SetBaseURL(opts.BaseUrl)
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client.SetCookieJar(jar)
	client.SetHeader("user-agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/123.0.0.0 Safari/537.36")
	client.SetTimeout(opts.Timeout)

	sources.ConfigureRetry(client, opts.Retry)

	telemetry.InstrumentResty(client, "sources/storefront/http")

	return &Client{http: client, opts: opts}, nil
}

func (c *Client) SetInstrumentOutput(output restyutil.InstrumentOutput) {
	restyutil.InstrumentClient(c.http, output)
}

// the page session is shared state, combination fetches must not overlap
func (c *Client) MaxParallel() int {
	return 1
}

func (c *Client) ResolveItemId(locator string) (string, error) {
	return sources.ResolveProductUrl(locator)
}

// getPage fetches the product page with the given query parameters
// under the overlay guard: if the response is blocked by the consent
// overlay, the overlay is dismissed (once per session, the dismissal
// is idempotent) and the fetch is run again.
func (c *Client) getPage(ctx context.Context, params map[string]string) (*goquery.Document, error) {
	fetch := func() (*goquery.Document, error) {
		res, err := c.http.R().
			SetContext(ctx).
			SetQueryParams(params).
			Get(c.opts.ProductPath)
		if err != nil {
			return nil, catalog.NetworkError{
				Url:      res.Request.URL,
				Attempts: res.Request.Attempt,
				Err:      err,
			}
		}
		if !res.IsSuccess() {
			return nil, catalog.NetworkError{
				Url:      res.Request.URL,
				Attempts: res.Request.Attempt,
				Err:      fmt.Errorf("status %s", res.Status()),
			}
		}

		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
		if err != nil {
			return nil, catalog.ParseError{Url: res.Request.URL, Err: err}
		}
		return doc, nil
	}

	doc, err := fetch()
	if err != nil {
		return nil, err
	}
	if !hasConsentOverlay(doc) {
		return doc, nil
	}

	err = c.dismissConsentOverlay(ctx)
	if err != nil {
		return nil, err
	}
	return fetch()
}

func hasConsentOverlay(doc *goquery.Document) bool {
	return doc.Find("#consent-tracking.show").Length() > 0
}

func (c *Client) dismissConsentOverlay(ctx context.Context) error {
	if c.consentDismissed {
		return nil
	}

	res, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("consent", "true").
		Post(c.opts.ConsentPath)
	if err != nil {
		return catalog.NetworkError{
			Url:      res.Request.URL,
			Attempts: res.Request.Attempt,
			Err:      err,
		}
	}
	if !res.IsSuccess() {
		return catalog.NetworkError{
			Url:      res.Request.URL,
			Attempts: res.Request.Attempt,
			Err:      fmt.Errorf("status %s", res.Status()),
		}
	}

	c.consentDismissed = true
	return nil
}
