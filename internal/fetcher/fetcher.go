package fetcher

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	DefaultTimeout   = 15 * time.Second
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
)

// Client downloads resources (full-size icon images) over plain HTTP,
// outside the browser session.
type Client struct {
	client *resty.Client
}

type Options struct {
	Timeout   time.Duration
	UserAgent string
	// Retries is the number of extra attempts after a transport failure.
	Retries int
	// Proxy is the same proxy the browser uses, e.g. http://127.0.0.1:7890.
	Proxy string
}

func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}

	client := resty.New()
	client.SetHeader("user-agent", opts.UserAgent)
	client.SetTimeout(opts.Timeout)
	if opts.Proxy != "" {
		client.SetProxy(opts.Proxy)
	}
	if opts.Retries > 0 {
		client.SetRetryCount(opts.Retries)
		client.SetRetryWaitTime(500 * time.Millisecond)
	}
	return &Client{client: client}
}

// Get returns the status code and body of url. Only transport failures are
// errors; callers decide what to do with a non-200 status.
func (c *Client) Get(ctx context.Context, url string) (int, []byte, error) {
	res, err := c.client.R().
		SetContext(ctx).
		Get(url)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to get %s: %w", url, err)
	}
	return res.StatusCode(), res.Body(), nil
}
