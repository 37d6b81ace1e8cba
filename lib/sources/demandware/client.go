// Package demandware fetches variation state from a storefront's
// Product-Variation endpoint, which returns the full selection model
// and the price/availability of whichever combination the query
// parameters select.
package demandware

import (
	"net/http/cookiejar"
	"time"

	"skumatrix/lib/restyutil"
	"skumatrix/lib/sources"
	"skumatrix/lib/telemetry"

	"github.com/go-resty/resty/v2"
)

type ClientOptions struct {
	BaseUrl string
	// path of the variation endpoint, defaults to "/Product-Variation"
	VariationPath string
	// expected dimension ids in output order; an expected dimension
	// the item type lacks is synthesized as a single "NS" placeholder
	Dimensions []string
	// per-attempt timeout
	Timeout time.Duration
	Retry   sources.RetryOptions
}

type Client struct {
	http *resty.Client
	opts ClientOptions
}

func NewClient(opts ClientOptions) (*Client, error) {
	if opts.VariationPath == "" {
		opts.VariationPath = "/Product-Variation"
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
	client.SetHeader("accept", "application/json")
	client.SetTimeout(opts.Timeout)

	sources.ConfigureRetry(client, opts.Retry)

	telemetry.InstrumentResty(client, "sources/demandware/http")

	return &Client{http: client, opts: opts}, nil
}

func (c *Client) SetInstrumentOutput(output restyutil.InstrumentOutput) {
	restyutil.InstrumentClient(c.http, output)
}

// REST calls carry no shared page session, any fetch parallelism is fine.
func (c *Client) MaxParallel() int {
	return 0
}
