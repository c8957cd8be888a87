package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadMissingFileGivesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "iconscrape.json5"))
	assert.True(t, errors.Is(err, os.ErrNotExist))
	if diff := cmp.Diff(Default(), cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadFillsUnsetFields(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "iconscrape.json5")
	writeFile(t, name, `{
		// comments are fine
		driver: "chromedp",
		wait_timeout: "5s",
		selectors: { modal: ".dialog" }
	}`)

	cfg, err := Load(name)
	require.NoError(t, err)

	want := Default()
	want.Driver = "chromedp"
	want.WaitTimeout = Duration(5 * time.Second)
	want.Selectors.Modal = ".dialog"
	if diff := cmp.Diff(want, cfg); diff != "" {
		t.Errorf("config mismatch (-want +got):\n%s", diff)
	}
}

func TestLoadLocalOverride(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "iconscrape.json5")
	writeFile(t, name, `{driver: "chromedp", out_dir: "icons"}`)
	writeFile(t, filepath.Join(dir, "iconscrape.local.json5"), `{driver: "rod", proxy: "http://127.0.0.1:7890"}`)

	cfg, err := Load(name)
	require.NoError(t, err)
	assert.Equal(t, "rod", cfg.Driver)
	assert.Equal(t, "icons", cfg.OutDir)
	assert.Equal(t, "http://127.0.0.1:7890", cfg.Proxy)
}

func TestLoadOnlyLocalFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "iconscrape.local.json5"), `{result: "out.json"}`)

	cfg, err := Load(filepath.Join(dir, "iconscrape.json5"))
	require.NoError(t, err)
	assert.Equal(t, "out.json", cfg.Result)
	assert.Equal(t, "ids.json", cfg.IDs)
}

func TestLoadMalformed(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "iconscrape.json5")
	writeFile(t, name, `{driver: `)

	_, err := Load(name)
	require.Error(t, err)
	assert.False(t, errors.Is(err, os.ErrNotExist))
}

func TestLoadBadDuration(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "iconscrape.json5")
	writeFile(t, name, `{checkpoint_interval: "soon"}`)

	_, err := Load(name)
	require.Error(t, err)
}

func TestLoadLocalOverrideCanDisable(t *testing.T) {
	dir := t.TempDir()
	name := filepath.Join(dir, "iconscrape.json5")
	writeFile(t, name, `{showui: true, fetch_retries: 3, sqlite: "results.db"}`)
	writeFile(t, filepath.Join(dir, "iconscrape.local.json5"), `{showui: false, fetch_retries: 0}`)

	cfg, err := Load(name)
	require.NoError(t, err)
	assert.False(t, cfg.ShowUI)
	assert.Equal(t, 0, cfg.FetchRetries)
	assert.Equal(t, "results.db", cfg.SQLite)
}
