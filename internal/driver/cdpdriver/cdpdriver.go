package cdpdriver

import (
	"context"
	"fmt"
	"time"

	"iconscrape/internal/driver"
	"iconscrape/internal/fetcher"

	"github.com/chromedp/cdproto/cdp"
	"github.com/chromedp/chromedp"
)

func init() {
	driver.Register("chromedp", Open)
}

// Driver drives one chromedp tab. Elements are *cdp.Node values and every
// query after lookup goes through the node ID.
type Driver struct {
	allocCtx    context.Context
	allocCancel context.CancelFunc
	pageCtx     context.Context
	pageCancel  context.CancelFunc
	fetcher     *fetcher.Client
}

func Open(ctx context.Context, opts driver.Options) (driver.Driver, error) {
	userAgent := opts.UserAgent
	if userAgent == "" {
		userAgent = fetcher.DefaultUserAgent
	}

	allocOpts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", opts.Headless),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
		chromedp.UserAgent(userAgent),
	)
	if opts.Bin != "" {
		allocOpts = append(allocOpts, chromedp.ExecPath(opts.Bin))
	}
	if opts.ProxyURL != "" {
		allocOpts = append(allocOpts, chromedp.ProxyServer(opts.ProxyURL))
	}
	if opts.WindowWidth > 0 && opts.WindowHeight > 0 {
		allocOpts = append(allocOpts, chromedp.WindowSize(opts.WindowWidth, opts.WindowHeight))
	}

	// the browser outlives any single call, so it hangs off a background context
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.WithoutCancel(ctx), allocOpts...)
	pageCtx, pageCancel := chromedp.NewContext(allocCtx)

	// start the browser and the tab now so launch errors surface here
	if err := chromedp.Run(pageCtx); err != nil {
		pageCancel()
		allocCancel()
		return nil, fmt.Errorf("failed to start browser: %w", err)
	}

	return &Driver{
		allocCtx:    allocCtx,
		allocCancel: allocCancel,
		pageCtx:     pageCtx,
		pageCancel:  pageCancel,
		fetcher: fetcher.New(fetcher.Options{
			Timeout:   opts.FetchTimeout,
			UserAgent: userAgent,
			Retries:   opts.FetchRetries,
			Proxy:     opts.ProxyURL,
		}),
	}, nil
}

// run executes actions on the tab and aborts them when ctx is done. Cancelling
// a context derived from pageCtx stops the actions without closing the tab.
func (d *Driver) run(ctx context.Context, timeout time.Duration, actions ...chromedp.Action) error {
	var runCtx context.Context
	var cancel context.CancelFunc
	if timeout > 0 {
		runCtx, cancel = context.WithTimeout(d.pageCtx, timeout)
	} else {
		runCtx, cancel = context.WithCancel(d.pageCtx)
	}
	defer cancel()
	stop := context.AfterFunc(ctx, cancel)
	defer stop()

	return chromedp.Run(runCtx, actions...)
}

func (d *Driver) Navigate(ctx context.Context, url string) error {
	if err := d.run(ctx, 0, chromedp.Navigate(url)); err != nil {
		return fmt.Errorf("failed to navigate: %w", err)
	}
	return nil
}

func (d *Driver) WaitFor(ctx context.Context, selector string, timeout time.Duration) (driver.Element, error) {
	var nodes []*cdp.Node
	if err := d.run(ctx, timeout, chromedp.Nodes(selector, &nodes, chromedp.ByQuery)); err != nil {
		return nil, fmt.Errorf("failed to wait for element '%s': %w", selector, err)
	}
	if len(nodes) == 0 {
		return nil, fmt.Errorf("failed to wait for element '%s': no match", selector)
	}
	return nodes[0], nil
}

func (d *Driver) FindAll(ctx context.Context, selector string) ([]driver.Element, error) {
	var nodes []*cdp.Node
	if err := d.run(ctx, 0, chromedp.Nodes(selector, &nodes, chromedp.ByQueryAll, chromedp.AtLeast(0))); err != nil {
		return nil, fmt.Errorf("failed to query '%s': %w", selector, err)
	}
	out := make([]driver.Element, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, n)
	}
	return out, nil
}

func (d *Driver) Attribute(ctx context.Context, el driver.Element, name string) (string, error) {
	ids, err := nodeIDs(el)
	if err != nil {
		return "", err
	}
	var value string
	var ok bool
	if err := d.run(ctx, 0, chromedp.AttributeValue(ids, name, &value, &ok, chromedp.ByNodeID)); err != nil {
		return "", fmt.Errorf("failed to read attribute %s: %w", name, err)
	}
	return value, nil
}

func (d *Driver) Text(ctx context.Context, el driver.Element) (string, error) {
	ids, err := nodeIDs(el)
	if err != nil {
		return "", err
	}
	var text string
	if err := d.run(ctx, 0, chromedp.Text(ids, &text, chromedp.ByNodeID)); err != nil {
		return "", fmt.Errorf("failed to read text: %w", err)
	}
	return text, nil
}

func (d *Driver) Click(ctx context.Context, el driver.Element) error {
	n, ok := el.(*cdp.Node)
	if !ok || n == nil {
		return fmt.Errorf("not a chromedp node: %T", el)
	}
	if err := d.run(ctx, 0, chromedp.MouseClickNode(n)); err != nil {
		return fmt.Errorf("failed to click: %w", err)
	}
	return nil
}

func (d *Driver) ScrollIntoView(ctx context.Context, el driver.Element) error {
	ids, err := nodeIDs(el)
	if err != nil {
		return err
	}
	if err := d.run(ctx, 0, chromedp.ScrollIntoView(ids, chromedp.ByNodeID)); err != nil {
		return fmt.Errorf("failed to scroll into view: %w", err)
	}
	return nil
}

func (d *Driver) Input(ctx context.Context, el driver.Element, text string) error {
	ids, err := nodeIDs(el)
	if err != nil {
		return err
	}
	err = d.run(ctx, 0,
		chromedp.Clear(ids, chromedp.ByNodeID),
		chromedp.SendKeys(ids, text, chromedp.ByNodeID),
	)
	if err != nil {
		return fmt.Errorf("failed to type: %w", err)
	}
	return nil
}

func (d *Driver) FetchBytes(ctx context.Context, url string) (int, []byte, error) {
	return d.fetcher.Get(ctx, url)
}

func (d *Driver) Close() error {
	d.pageCancel()
	d.allocCancel()
	return nil
}

func nodeIDs(el driver.Element) ([]cdp.NodeID, error) {
	n, ok := el.(*cdp.Node)
	if !ok || n == nil {
		return nil, fmt.Errorf("not a chromedp node: %T", el)
	}
	return []cdp.NodeID{n.NodeID}, nil
}
