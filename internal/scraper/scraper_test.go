package scraper

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"iconscrape/internal/driver/drivertest"
	"iconscrape/internal/ids"
	"iconscrape/internal/results"
	"iconscrape/internal/sites/mcicons"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const iconURL = mcicons.BaseURL + "/icons/diamond_sword.png"

var diamondSword = drivertest.Icon{
	Alt:   "DIAMOND_SWORD.png",
	Title: "Diamond Sword",
	Tags:  []string{"Items", "Weapons", "1024x1024"},
	Src:   "/icons/diamond_sword.png",
}

func newScraper(t *testing.T, fake *drivertest.Fake, store *results.Store, list []string) (*Scraper, string) {
	t.Helper()
	out := t.TempDir()
	return New(Options{
		Driver:    fake,
		Store:     store,
		IDs:       ids.NewSet(list),
		OutputDir: out,
		Selectors: mcicons.DefaultSelectors(),
		// zero delays keep the tests fast
		Delays: mcicons.Delays{},
	}), out
}

func TestRunResolvesIcon(t *testing.T) {
	fake := drivertest.New()
	fake.Searches["DIAMOND_SWORD"] = []drivertest.Icon{diamondSword}
	fake.Images[iconURL] = drivertest.Response{Status: 200, Body: []byte("png-bytes")}

	store := results.New()
	list := []string{"DIAMOND_SWORD"}
	s, out := newScraper(t, fake, store, list)

	sum := s.Run(context.Background(), list)

	expected := map[string]results.Entry{
		"DIAMOND_SWORD": {
			Name:         "Diamond Sword",
			MainCategory: "Items",
			SubCategory:  "Weapons",
			File:         "Items/Weapons/Diamond Sword.png",
		},
	}
	if diff := cmp.Diff(expected, store.Snapshot()); diff != "" {
		t.Errorf("store mismatch (-want +got):\n%s", diff)
	}

	data, err := os.ReadFile(filepath.Join(out, "Items", "Weapons", "Diamond Sword.png"))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	assert.Equal(t, Summary{Total: 1, Resolved: 1}, sum)
	assert.Equal(t, []string{iconURL}, fake.Fetched())
	assert.False(t, fake.DetailOpen(), "detail view must be closed after processing")
}

func TestRunRecordsNotFound(t *testing.T) {
	fake := drivertest.New()
	store := results.New()
	list := []string{"GHOST_ITEM"}
	s, _ := newScraper(t, fake, store, list)

	sum := s.Run(context.Background(), list)

	assert.Equal(t, map[string]results.Entry{"GHOST_ITEM": results.Failure("not found")}, store.Snapshot())
	assert.Equal(t, 1, sum.NotFound)
}

func TestRunKeepsMetadataWhenImageMissing(t *testing.T) {
	fake := drivertest.New()
	fake.Searches["DIAMOND_SWORD"] = []drivertest.Icon{diamondSword}
	fake.Images[iconURL] = drivertest.Response{Status: 404}

	store := results.New()
	list := []string{"DIAMOND_SWORD"}
	s, out := newScraper(t, fake, store, list)

	s.Run(context.Background(), list)

	e, ok := store.Get("DIAMOND_SWORD")
	require.True(t, ok)
	assert.Equal(t, results.Success("Diamond Sword", "Items", "Weapons", "Items/Weapons/Diamond Sword.png"), e)

	_, err := os.Stat(filepath.Join(out, "Items", "Weapons", "Diamond Sword.png"))
	assert.True(t, os.IsNotExist(err), "no file for a non-200 image")
}

func TestRunSkipsResolvedIdentifiers(t *testing.T) {
	fake := drivertest.New()
	fake.Searches["STONE"] = []drivertest.Icon{{Alt: "STONE.png", Title: "Stone", Tags: []string{"Blocks"}, Src: "/stone.png"}}

	store := results.New()
	store.Put("DIAMOND_SWORD", results.Success("Diamond Sword", "Items", "Weapons", "Items/Weapons/Diamond Sword.png"))
	store.Put("GHOST_ITEM", results.Failure("not found"))

	list := []string{"DIAMOND_SWORD", "GHOST_ITEM", "STONE"}
	s, _ := newScraper(t, fake, store, list)
	sum := s.Run(context.Background(), list)

	assert.Equal(t, []string{"STONE"}, fake.Queries(), "resolved identifiers never reach the driver")
	assert.Equal(t, 2, sum.Skipped)
	assert.Equal(t, results.Success("Stone", "Blocks", "Uncategorized", "Blocks/Uncategorized/Stone.png"), mustGet(t, store, "STONE"))
}

func TestRunBlankTagFallsBackToUncategorized(t *testing.T) {
	fake := drivertest.New()
	fake.Searches["STONE"] = []drivertest.Icon{{Alt: "STONE.png", Title: "Stone", Tags: []string{"Blocks", "  "}, Src: "/stone.png"}}
	fake.Images[mcicons.BaseURL+"/stone.png"] = drivertest.Response{Status: 200, Body: []byte("png")}

	store := results.New()
	list := []string{"STONE"}
	s, out := newScraper(t, fake, store, list)
	s.Run(context.Background(), list)

	assert.Equal(t, results.Success("Stone", "Blocks", "Uncategorized", "Blocks/Uncategorized/Stone.png"), mustGet(t, store, "STONE"))
	_, err := os.Stat(filepath.Join(out, "Blocks", "Uncategorized", "Stone.png"))
	assert.NoError(t, err)
}

func TestRunDeduplicatesIconsAcrossSearches(t *testing.T) {
	variants := []drivertest.Icon{
		{Alt: "OAK_LOG.png", Title: "Oak Log", Tags: []string{"Blocks", "Wood"}, Src: "/oak_log.png"},
		{Alt: "OAK_PLANKS.png", Title: "Oak Planks", Tags: []string{"Blocks", "Wood"}, Src: "/oak_planks.png"},
		{Alt: "OAK_DOOR.png", Title: "Oak Door", Tags: []string{"Blocks"}, Src: "/oak_door.png"},
	}
	fake := drivertest.New()
	fake.Searches["OAK_LOG"] = variants
	fake.Searches["OAK_PLANKS"] = variants

	store := results.New()
	list := []string{"OAK_LOG", "OAK_PLANKS"}
	s, _ := newScraper(t, fake, store, list)
	sum := s.Run(context.Background(), list)

	// OAK_PLANKS was committed while searching OAK_LOG, so it is never searched;
	// OAK_DOOR is not in the work list and is ignored.
	assert.Equal(t, []string{"OAK_LOG"}, fake.Queries())
	assert.Equal(t, []string{"OAK_LOG", "OAK_PLANKS"}, keys(store))
	assert.Equal(t, Summary{Total: 2, Skipped: 1, Resolved: 2}, sum)
	assert.Len(t, fake.Fetched(), 2)
}

func TestRunRecordsFaultAndContinues(t *testing.T) {
	fake := drivertest.New()
	fake.GridFailures["BROKEN"] = errors.New("grid timeout")
	fake.Searches["STONE"] = []drivertest.Icon{{Alt: "STONE.png", Title: "Stone", Tags: []string{"Blocks", "Natural"}, Src: "/stone.png"}}

	store := results.New()
	list := []string{"BROKEN", "STONE"}
	s, _ := newScraper(t, fake, store, list)
	sum := s.Run(context.Background(), list)

	e := mustGet(t, store, "BROKEN")
	assert.True(t, e.Failed())
	assert.Contains(t, e.Error, "grid timeout")
	assert.Equal(t, "Stone", mustGet(t, store, "STONE").Name)
	assert.Equal(t, 1, sum.Failed)
}

func TestRunRecordsFetchError(t *testing.T) {
	fake := drivertest.New()
	fake.Searches["DIAMOND_SWORD"] = []drivertest.Icon{diamondSword}
	fake.Images[iconURL] = drivertest.Response{Err: errors.New("connection reset")}

	store := results.New()
	list := []string{"DIAMOND_SWORD"}
	s, _ := newScraper(t, fake, store, list)
	s.Run(context.Background(), list)

	assert.Equal(t, results.Failure("connection reset"), mustGet(t, store, "DIAMOND_SWORD"))
}

func TestRunStopsOnCancel(t *testing.T) {
	fake := drivertest.New()
	store := results.New()
	list := []string{"A", "B"}
	s, _ := newScraper(t, fake, store, list)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	sum := s.Run(ctx, list)

	assert.True(t, sum.Interrupted)
	assert.Empty(t, fake.Queries())
	assert.Equal(t, 0, store.Len())
}

func TestOpen(t *testing.T) {
	fake := drivertest.New()
	s, _ := newScraper(t, fake, results.New(), nil)

	require.NoError(t, s.Open(context.Background()))
	assert.Equal(t, []string{mcicons.BaseURL}, fake.Navigated())
}

func TestSafeName(t *testing.T) {
	assert.Equal(t, "Diamond Sword", safeName("Diamond Sword"))
	assert.Equal(t, "AC_DC", safeName("AC/DC"))
	assert.Equal(t, "a_b", safeName(`a\b`))
	assert.Equal(t, "_", safeName(".."))
}

func mustGet(t *testing.T, store *results.Store, key string) results.Entry {
	t.Helper()
	e, ok := store.Get(key)
	require.True(t, ok, "missing entry %s", key)
	return e
}

func keys(store *results.Store) []string {
	var out []string
	for k := range store.Snapshot() {
		out = append(out, k)
	}
	slices.Sort(out)
	return out
}
