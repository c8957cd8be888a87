package driver

import (
	"context"
	"time"
)

// Element is an opaque handle to a rendered DOM node. Only the driver that
// returned it knows its concrete type.
type Element = any

// Driver is one exclusive browser session plus a plain HTTP fetch for
// resources the page links to.
type Driver interface {
	Navigate(ctx context.Context, url string) error
	// WaitFor blocks until selector matches or timeout elapses.
	WaitFor(ctx context.Context, selector string, timeout time.Duration) (Element, error)
	// FindAll returns the current matches without waiting.
	FindAll(ctx context.Context, selector string) ([]Element, error)
	Attribute(ctx context.Context, el Element, name string) (string, error)
	Text(ctx context.Context, el Element) (string, error)
	Click(ctx context.Context, el Element) error
	ScrollIntoView(ctx context.Context, el Element) error
	// Input replaces the element's value with text.
	Input(ctx context.Context, el Element, text string) error
	// FetchBytes does a GET outside the browser. A non-2xx status is not an error.
	FetchBytes(ctx context.Context, url string) (status int, body []byte, err error)
	Close() error
}

type Options struct {
	Headless     bool
	ProxyURL     string
	Bin          string // browser executable, empty for auto-detect/download
	WindowWidth  int
	WindowHeight int
	UserAgent    string
	FetchTimeout time.Duration
	FetchRetries int
}
