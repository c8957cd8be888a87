// Package config loads the scraper configuration from a JSON5 file with an
// optional `<name>.local.<ext>` override next to it.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"iconscrape/internal/checkpoint"
	"iconscrape/internal/classify"
	"iconscrape/internal/fetcher"
	"iconscrape/internal/scraper"
	"iconscrape/internal/sites/mcicons"

	"dario.cat/mergo"
	"github.com/titanous/json5"
)

const DefaultPath = "iconscrape.json5"

// Duration accepts "20s" style strings in the config file.
type Duration time.Duration

func (d *Duration) UnmarshalText(b []byte) error {
	v, err := time.ParseDuration(string(b))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

type Config struct {
	IDs    string `json:"ids"`
	OutDir string `json:"out_dir"`
	Result string `json:"result"`
	SQLite string `json:"sqlite"`

	BaseURL string `json:"base_url"`
	Driver  string `json:"driver"`

	ShowUI       bool   `json:"showui"`
	Proxy        string `json:"proxy"`
	Bin          string `json:"bin"`
	WindowWidth  int    `json:"window_width"`
	WindowHeight int    `json:"window_height"`
	UserAgent    string `json:"user_agent"`

	WaitTimeout  Duration `json:"wait_timeout"`
	FetchTimeout Duration `json:"fetch_timeout"`
	FetchRetries int      `json:"fetch_retries"`
	Interval     Duration `json:"checkpoint_interval"`

	Selectors mcicons.Selectors `json:"selectors"`
	Taxonomy  classify.Taxonomy `json:"taxonomy"`
}

func Default() Config {
	return Config{
		IDs:          "ids.json",
		OutDir:       "output",
		Result:       "result.json",
		BaseURL:      mcicons.BaseURL,
		Driver:       "rod",
		WindowWidth:  1920,
		WindowHeight: 1080,
		UserAgent:    fetcher.DefaultUserAgent,
		WaitTimeout:  Duration(scraper.DefaultWaitTimeout),
		FetchTimeout: Duration(fetcher.DefaultTimeout),
		Interval:     Duration(checkpoint.DefaultInterval),
		Selectors:    mcicons.DefaultSelectors(),
		Taxonomy:     classify.Default(),
	}
}

// Load reads the config file; fields left unset (or zero) take their defaults.
// A missing file yields the defaults together with os.ErrNotExist.
func Load(name string) (Config, error) {
	cfg, err := ReadConfig[Config](name)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return Default(), fmt.Errorf("failed to read config %s: %w", name, err)
	}
	if mergeErr := mergo.Merge(&cfg, Default()); mergeErr != nil {
		return Default(), mergeErr
	}
	return cfg, err
}

func splitExt(f string) (string, string) {
	for i := len(f) - 1; i >= 0; i-- {
		if f[i] == '.' {
			return f[0:i], f[i+1:]
		}
	}
	return f, ""
}

// ReadConfig merges <name>.<ext> with <name>.local.<ext>, the local file
// taking priority. `name` should come with a file extension. The local file
// only changes the keys it names, so it can also switch a value back to
// false or zero.
func ReadConfig[T any](name string) (T, error) {
	var out T
	allNotFound := true

	dirname := filepath.Dir(name)
	prefixname, ext := splitExt(filepath.Base(name))

	defaultFile, err := os.ReadFile(name)
	if err != nil && !os.IsNotExist(err) {
		return out, err
	}
	if len(defaultFile) > 0 {
		if err := json5.Unmarshal(defaultFile, &out); err != nil {
			return out, err
		}
		allNotFound = false
	}

	localFilepath := filepath.Join(dirname, fmt.Sprintf("%s.local.%s", prefixname, ext))
	localFile, err := os.ReadFile(localFilepath)
	if err != nil && !os.IsNotExist(err) {
		return out, err
	}
	if len(localFile) > 0 {
		override := out
		if err := json5.Unmarshal(localFile, &override); err != nil {
			return out, err
		}
		if err := mergo.Merge(&out, override, mergo.WithOverride, mergo.WithOverwriteWithEmptyValue); err != nil {
			return out, err
		}
		slog.Info("merging config with local overrides", "local", localFilepath)
		allNotFound = false
	}

	if allNotFound {
		return out, os.ErrNotExist
	}
	return out, nil
}
