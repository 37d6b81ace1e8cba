package sources

import (
	"time"

	"github.com/go-resty/resty/v2"
)

type RetryOptions struct {
	// retries after the first attempt; a request makes Count+1
	// attempts in total
	Count int
	// base delay B; the wait before retry n is B × n (linear).
	// Schedule overrides this when set.
	Backoff time.Duration
	// optional custom schedule, attempt is 1-based
	Schedule func(attempt int) time.Duration
}

func (o RetryOptions) Wait(attempt int) time.Duration {
	if o.Schedule != nil {
		return o.Schedule(attempt)
	}
	return o.Backoff * time.Duration(attempt)
}

// ConfigureRetry installs the retry policy on a resty client:
// transport errors and non-success statuses are retried on the
// options' schedule until the attempt budget is spent.
func ConfigureRetry(client *resty.Client, opts RetryOptions) {
	client.SetRetryCount(opts.Count)
	client.AddRetryCondition(func(res *resty.Response, err error) bool {
		return err != nil || !res.IsSuccess()
	})
	client.SetRetryAfter(func(_ *resty.Client, res *resty.Response) (time.Duration, error) {
		return opts.Wait(res.Request.Attempt), nil
	})
}
