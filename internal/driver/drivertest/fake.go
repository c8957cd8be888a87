// Package drivertest provides an in-memory driver.Driver that renders a
// scripted icon catalog using the default mcicons selectors.
package drivertest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"iconscrape/internal/driver"
	"iconscrape/internal/sites/mcicons"
)

var ErrTimeout = errors.New("timed out waiting for element")

// Icon is one tile in the result grid and the detail view behind it.
type Icon struct {
	Alt   string
	Title string
	Tags  []string
	Src   string
}

// Response is what FetchBytes returns for a URL.
type Response struct {
	Status int
	Body   []byte
	Err    error
}

type element struct {
	kind  string
	index int
}

// Fake is a scripted catalog. Searches maps a typed query to the icons the
// grid shows; Images maps absolute image URLs to responses (unknown URLs 404).
type Fake struct {
	Searches map[string][]Icon
	Images   map[string]Response
	// GridFailures makes the grid wait fail for these queries.
	GridFailures map[string]error
	// NavigateErr is returned by every Navigate call when set.
	NavigateErr error

	sel mcicons.Selectors

	mu       sync.Mutex
	query    string
	searched bool
	open     *Icon

	navigated []string
	queries   []string
	fetched   []string
}

func New() *Fake {
	return &Fake{
		Searches:     map[string][]Icon{},
		Images:       map[string]Response{},
		GridFailures: map[string]error{},
		sel:          mcicons.DefaultSelectors(),
	}
}

var _ driver.Driver = (*Fake)(nil)

func (f *Fake) Navigate(ctx context.Context, url string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.navigated = append(f.navigated, url)
	if f.NavigateErr != nil {
		return f.NavigateErr
	}
	return ctx.Err()
}

func (f *Fake) WaitFor(ctx context.Context, selector string, timeout time.Duration) (driver.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	switch selector {
	case f.sel.SearchBox:
		return element{kind: "searchbox"}, nil
	case f.sel.SearchInput:
		return element{kind: "input"}, nil
	case f.sel.Grid:
		if err := f.GridFailures[f.query]; err != nil {
			return nil, err
		}
		if !f.searched {
			return nil, ErrTimeout
		}
		return element{kind: "grid"}, nil
	case f.sel.Modal, f.sel.ModalImage, f.sel.ModalTitle, f.sel.ModalClose:
		if f.open == nil {
			return nil, ErrTimeout
		}
		return element{kind: selector}, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrTimeout, selector)
}

func (f *Fake) FindAll(ctx context.Context, selector string) ([]driver.Element, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	var out []driver.Element
	switch selector {
	case f.sel.Icon:
		for i := range f.Searches[f.query] {
			out = append(out, element{kind: "icon", index: i})
		}
	case f.sel.ModalTag:
		if f.open != nil {
			for i := range f.open.Tags {
				out = append(out, element{kind: "tag", index: i})
			}
		}
	}
	return out, nil
}

func (f *Fake) Attribute(ctx context.Context, el driver.Element, name string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	e := el.(element)
	switch {
	case e.kind == "icon" && name == "alt":
		return f.Searches[f.query][e.index].Alt, nil
	case e.kind == f.sel.ModalImage && name == "src" && f.open != nil:
		return f.open.Src, nil
	}
	return "", nil
}

func (f *Fake) Text(ctx context.Context, el driver.Element) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	e := el.(element)
	if f.open == nil {
		return "", fmt.Errorf("detached element %s", e.kind)
	}
	switch e.kind {
	case f.sel.ModalTitle:
		return f.open.Title, nil
	case "tag":
		return f.open.Tags[e.index], nil
	}
	return "", nil
}

func (f *Fake) Click(ctx context.Context, el driver.Element) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	e := el.(element)
	switch e.kind {
	case "icon":
		icon := f.Searches[f.query][e.index]
		f.open = &icon
	case f.sel.ModalClose:
		f.open = nil
	}
	return nil
}

func (f *Fake) ScrollIntoView(ctx context.Context, el driver.Element) error {
	return ctx.Err()
}

func (f *Fake) Input(ctx context.Context, el driver.Element, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	f.query = text
	f.searched = true
	f.open = nil
	f.queries = append(f.queries, text)
	return nil
}

func (f *Fake) FetchBytes(ctx context.Context, url string) (int, []byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.fetched = append(f.fetched, url)
	res, ok := f.Images[url]
	if !ok {
		return 404, nil, nil
	}
	return res.Status, res.Body, res.Err
}

func (f *Fake) Close() error {
	return nil
}

// Queries lists every search typed so far, in order.
func (f *Fake) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

func (f *Fake) Navigated() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.navigated...)
}

func (f *Fake) Fetched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.fetched...)
}

// DetailOpen reports whether a detail view is currently shown.
func (f *Fake) DetailOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open != nil
}
