package scraper

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"iconscrape/internal/classify"
	"iconscrape/internal/driver"
	"iconscrape/internal/extractor"
	"iconscrape/internal/ids"
	"iconscrape/internal/results"
	"iconscrape/internal/sites/mcicons"
)

const (
	DefaultWaitTimeout = 20 * time.Second
	NotFound           = "not found"
)

// Options is everything one scrape run needs. The scraper is the only user
// of Driver and the only writer of Store.
type Options struct {
	Driver      driver.Driver
	Store       *results.Store
	IDs         ids.Set
	OutputDir   string
	BaseURL     string
	Selectors   mcicons.Selectors
	Delays      mcicons.Delays
	WaitTimeout time.Duration
	Taxonomy    classify.Taxonomy
}

// Scraper resolves identifiers one at a time against the catalog.
type Scraper struct {
	opts      Options
	extractor *extractor.Extractor
}

// Outcome is the result of resolving one identifier: how many icons were
// committed, or the fault that stopped it.
type Outcome struct {
	Processed int
	Err       error
}

type Summary struct {
	Total       int
	Skipped     int
	Resolved    int
	NotFound    int
	Failed      int
	Interrupted bool
}

func New(opts Options) *Scraper {
	if opts.WaitTimeout <= 0 {
		opts.WaitTimeout = DefaultWaitTimeout
	}
	if opts.BaseURL == "" {
		opts.BaseURL = mcicons.BaseURL
	}
	if len(opts.Taxonomy.Categories) == 0 {
		opts.Taxonomy = classify.Default()
	}
	return &Scraper{
		opts:      opts,
		extractor: extractor.NewExtractor(opts.Driver, opts.Selectors, opts.WaitTimeout),
	}
}

// Open loads the catalog and waits until the search box is usable.
func (s *Scraper) Open(ctx context.Context) error {
	if err := s.opts.Driver.Navigate(ctx, s.opts.BaseURL); err != nil {
		return fmt.Errorf("failed to open %s: %w", s.opts.BaseURL, err)
	}
	if _, err := s.opts.Driver.WaitFor(ctx, s.opts.Selectors.SearchBox, s.opts.WaitTimeout); err != nil {
		return fmt.Errorf("search box not found: %w", err)
	}
	return sleep(ctx, s.opts.Delays.AfterReady)
}

// Run resolves list in order, skipping identifiers already in the store.
// A fault on one identifier is recorded against it and the run goes on;
// cancelling ctx stops the run before the next identifier.
func (s *Scraper) Run(ctx context.Context, list []string) Summary {
	sum := Summary{Total: len(list)}
	for i, id := range list {
		if ctx.Err() != nil {
			sum.Interrupted = true
			break
		}
		if s.opts.Store.Has(id) {
			sum.Skipped++
			continue
		}

		slog.InfoContext(ctx, "resolving", "progress", fmt.Sprintf("%d/%d", i+1, len(list)), "id", id)

		out := s.resolve(ctx, id)
		sum.Resolved += out.Processed
		switch {
		case out.Err != nil && ctx.Err() != nil:
			// interrupted mid-identifier; leave it for the next run
			sum.Interrupted = true
		case out.Err != nil:
			slog.WarnContext(ctx, "failed to resolve", "id", id, "err", out.Err)
			if s.opts.Store.Put(id, results.Failure(out.Err.Error())) {
				sum.Failed++
			}
		case out.Processed == 0:
			slog.InfoContext(ctx, "no matching icon", "id", id)
			s.opts.Store.Put(id, results.Failure(NotFound))
			sum.NotFound++
		}
	}
	return sum
}

func (s *Scraper) resolve(ctx context.Context, id string) Outcome {
	d := s.opts.Driver
	sel := s.opts.Selectors
	out := Outcome{}

	input, err := d.WaitFor(ctx, sel.SearchInput, s.opts.WaitTimeout)
	if err != nil {
		out.Err = fmt.Errorf("search input not found: %w", err)
		return out
	}
	if err := d.Input(ctx, input, id); err != nil {
		out.Err = err
		return out
	}
	if err := sleep(ctx, s.opts.Delays.AfterSearch); err != nil {
		out.Err = err
		return out
	}

	if _, err := d.WaitFor(ctx, sel.Grid, s.opts.WaitTimeout); err != nil {
		out.Err = fmt.Errorf("result grid not found: %w", err)
		return out
	}
	if err := sleep(ctx, s.opts.Delays.AfterGrid); err != nil {
		out.Err = err
		return out
	}

	icons, err := d.FindAll(ctx, sel.Icon)
	if err != nil {
		out.Err = err
		return out
	}

	for _, icon := range icons {
		ok, err := s.processIcon(ctx, icon)
		if ok {
			out.Processed++
		}
		if err != nil {
			out.Err = err
			return out
		}
	}
	return out
}

// processIcon opens one grid icon and commits its entry. It returns false
// for icons that are not wanted or already recorded.
func (s *Scraper) processIcon(ctx context.Context, icon driver.Element) (bool, error) {
	d := s.opts.Driver
	delays := s.opts.Delays

	alt, err := d.Attribute(ctx, icon, "alt")
	if err != nil {
		return false, err
	}
	key := ids.Normalize(alt)
	if !s.opts.IDs.Contains(key) || s.opts.Store.Has(key) {
		return false, nil
	}

	if err := d.ScrollIntoView(ctx, icon); err != nil {
		return false, err
	}
	if err := sleep(ctx, delays.AfterScroll); err != nil {
		return false, err
	}
	if err := d.Click(ctx, icon); err != nil {
		return false, err
	}
	if err := sleep(ctx, delays.AfterOpen); err != nil {
		return false, err
	}

	detail, err := s.extractor.Extract(ctx)
	if err != nil {
		return false, err
	}

	mainCategory, subCategory := s.opts.Taxonomy.Classify(detail.Tags)
	name := detail.Title
	if name == "" {
		name = key
	}
	filename := safeName(name) + ".png"
	dir := filepath.Join(s.opts.OutputDir, safeName(mainCategory), safeName(subCategory))
	if err := os.MkdirAll(dir, 0755); err != nil {
		return false, fmt.Errorf("failed to create directory: %w", err)
	}

	if err := s.download(ctx, detail.ImageURL, filepath.Join(dir, filename)); err != nil {
		return false, err
	}

	s.opts.Store.Put(key, results.Success(
		name,
		mainCategory,
		subCategory,
		path.Join(safeName(mainCategory), safeName(subCategory), filename),
	))
	slog.DebugContext(ctx, "icon saved", "key", key, "main_category", mainCategory, "sub_category", subCategory)

	closeBtn, err := d.WaitFor(ctx, s.opts.Selectors.ModalClose, s.opts.WaitTimeout)
	if err != nil {
		return true, fmt.Errorf("close button not found: %w", err)
	}
	if err := d.Click(ctx, closeBtn); err != nil {
		return true, err
	}
	return true, sleep(ctx, delays.AfterClose)
}

// download saves the image at src to dst. Only a 200 response is written;
// any other status leaves the file absent without failing the icon.
func (s *Scraper) download(ctx context.Context, src, dst string) error {
	if src == "" {
		return errors.New("detail image has no src")
	}
	imgURL, err := mcicons.ResolveURL(s.opts.BaseURL, src)
	if err != nil {
		return err
	}

	status, body, err := s.opts.Driver.FetchBytes(ctx, imgURL)
	if err != nil {
		return err
	}
	if status != 200 {
		slog.DebugContext(ctx, "image not saved", "url", imgURL, "status", status)
		return nil
	}
	if err := os.WriteFile(dst, body, 0644); err != nil {
		return fmt.Errorf("failed to write image: %w", err)
	}
	return nil
}

var unsafeChars = strings.NewReplacer("/", "_", "\\", "_")

// safeName keeps a display name or category to a single path element.
func safeName(s string) string {
	s = unsafeChars.Replace(s)
	if s == "." || s == ".." {
		return "_"
	}
	return s
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
