package roddriver

import (
	"context"
	"fmt"
	"time"

	"iconscrape/internal/browser"
	"iconscrape/internal/driver"
	"iconscrape/internal/fetcher"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
)

func init() {
	driver.Register("rod", Open)
}

// Driver drives a single rod page.
type Driver struct {
	browser *browser.Browser
	page    *rod.Page
	fetcher *fetcher.Client
}

// Open launches a browser and opens the page all later calls act on.
func Open(ctx context.Context, opts driver.Options) (driver.Driver, error) {
	b, err := browser.New(browser.Config{
		Headless:     opts.Headless,
		ProxyURL:     opts.ProxyURL,
		Bin:          opts.Bin,
		WindowWidth:  opts.WindowWidth,
		WindowHeight: opts.WindowHeight,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create browser: %w", err)
	}

	page, err := b.NewPage()
	if err != nil {
		b.Close()
		return nil, fmt.Errorf("failed to create page: %w", err)
	}

	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = fetcher.DefaultUserAgent
	}
	_ = page.SetUserAgent(&proto.NetworkSetUserAgentOverride{UserAgent: userAgent})
	_, _ = page.EvalOnNewDocument(`Object.defineProperty(navigator, 'webdriver', {get: () => undefined});`)

	return &Driver{
		browser: b,
		page:    page,
		fetcher: fetcher.New(fetcher.Options{
			Timeout:   opts.FetchTimeout,
			UserAgent: userAgent,
			Retries:   opts.FetchRetries,
			Proxy:     opts.ProxyURL,
		}),
	}, nil
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	p := d.page.Context(ctx)
	if err := p.Navigate(url); err != nil {
		return fmt.Errorf("failed to navigate: %w", err)
	}
	if err := p.WaitLoad(); err != nil {
		return fmt.Errorf("failed to wait for page load: %w", err)
	}
	return nil
}

func (d *Driver) WaitFor(ctx context.Context, selector string, timeout time.Duration) (driver.Element, error) {
	p := d.page.Context(ctx).Timeout(timeout)
	el, err := p.Element(selector)
	p.CancelTimeout()
	if err != nil {
		return nil, fmt.Errorf("failed to wait for element '%s': %w", selector, err)
	}
	// later calls rebind el to their own context
	return el, nil
}

func (d *Driver) FindAll(ctx context.Context, selector string) ([]driver.Element, error) {
	els, err := d.page.Context(ctx).Elements(selector)
	if err != nil {
		return nil, fmt.Errorf("failed to query '%s': %w", selector, err)
	}
	out := make([]driver.Element, 0, len(els))
	for _, el := range els {
		out = append(out, el)
	}
	return out, nil
}

func (d *Driver) Attribute(ctx context.Context, el driver.Element, name string) (string, error) {
	e, err := element(ctx, el)
	if err != nil {
		return "", err
	}
	v, err := e.Attribute(name)
	if err != nil {
		return "", fmt.Errorf("failed to read attribute %s: %w", name, err)
	}
	if v == nil {
		return "", nil
	}
	return *v, nil
}

func (d *Driver) Text(ctx context.Context, el driver.Element) (string, error) {
	e, err := element(ctx, el)
	if err != nil {
		return "", err
	}
	text, err := e.Text()
	if err != nil {
		return "", fmt.Errorf("failed to read text: %w", err)
	}
	return text, nil
}

func (d *Driver) Click(ctx context.Context, el driver.Element) error {
	e, err := element(ctx, el)
	if err != nil {
		return err
	}
	if err := e.Click(proto.InputMouseButtonLeft, 1); err != nil {
		return fmt.Errorf("failed to click: %w", err)
	}
	return nil
}

func (d *Driver) ScrollIntoView(ctx context.Context, el driver.Element) error {
	e, err := element(ctx, el)
	if err != nil {
		return err
	}
	if _, err := e.Eval(`() => this.scrollIntoView({block: 'center'})`); err != nil {
		return fmt.Errorf("failed to scroll into view: %w", err)
	}
	return nil
}

func (d *Driver) Input(ctx context.Context, el driver.Element, text string) error {
	e, err := element(ctx, el)
	if err != nil {
		return err
	}
	if err := e.SelectAllText(); err != nil {
		return fmt.Errorf("failed to clear input: %w", err)
	}
	if err := e.Input(text); err != nil {
		return fmt.Errorf("failed to type: %w", err)
	}
	return nil
}

func (d *Driver) FetchBytes(ctx context.Context, url string) (int, []byte, error) {
	return d.fetcher.Get(ctx, url)
}

func (d *Driver) Close() error {
	if d.page != nil {
		d.page.Close()
	}
	return d.browser.Close()
}

func element(ctx context.Context, el driver.Element) (*rod.Element, error) {
	e, ok := el.(*rod.Element)
	if !ok || e == nil {
		return nil, fmt.Errorf("not a rod element: %T", el)
	}
	return e.Context(ctx), nil
}
