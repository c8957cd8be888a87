// Package mcicons holds everything specific to the icon catalog's markup:
// where it lives, which selectors reach each part of the UI and how long the
// UI needs to settle between actions.
package mcicons

import (
	"fmt"
	"net/url"
	"time"
)

const BaseURL = "https://mcicons.ccleaf.com"

// Selectors are the CSS selectors for each part of the catalog UI.
type Selectors struct {
	SearchBox   string `json:"search_box"`
	SearchInput string `json:"search_input"`
	Grid        string `json:"grid"`
	Icon        string `json:"icon"`
	Modal       string `json:"modal"`
	ModalImage  string `json:"modal_image"`
	ModalTitle  string `json:"modal_title"`
	ModalTag    string `json:"modal_tag"`
	ModalClose  string `json:"modal_close"`
}

func DefaultSelectors() Selectors {
	return Selectors{
		SearchBox:   ".mc-search-input",
		SearchInput: ".mc-search-input input",
		Grid:        ".mc-icons-grid",
		Icon:        ".mc-icon-item img",
		Modal:       ".mc-modal",
		ModalImage:  ".mc-modal .mc-modal-image",
		ModalTitle:  ".mc-modal .mc-modal-title",
		ModalTag:    ".mc-modal .mc-tag",
		ModalClose:  ".mc-modal .mc-modal-close",
	}
}

// Delays are the fixed pauses the UI needs after each action.
type Delays struct {
	AfterReady  time.Duration
	AfterSearch time.Duration
	AfterGrid   time.Duration
	AfterScroll time.Duration
	AfterOpen   time.Duration
	AfterClose  time.Duration
}

func DefaultDelays() Delays {
	return Delays{
		AfterReady:  2 * time.Second,
		AfterSearch: 1 * time.Second,
		AfterGrid:   1200 * time.Millisecond,
		AfterScroll: 300 * time.Millisecond,
		AfterOpen:   1 * time.Second,
		AfterClose:  800 * time.Millisecond,
	}
}

// ResolveURL resolves ref (often a relative image src) against base.
func ResolveURL(base, ref string) (string, error) {
	b, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("invalid base url %q: %w", base, err)
	}
	r, err := url.Parse(ref)
	if err != nil {
		return "", fmt.Errorf("invalid url %q: %w", ref, err)
	}
	return b.ResolveReference(r).String(), nil
}
