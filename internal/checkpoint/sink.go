package checkpoint

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"iconscrape/internal/results"
)

// Sink persists a full snapshot of the result store.
type Sink interface {
	Write(ctx context.Context, snapshot map[string]results.Entry) error
}

// FileSink writes the snapshot as the JSON result file. The file is replaced
// atomically: readers see either the previous or the new content, never a
// partial write.
type FileSink struct {
	Path string
}

func (s FileSink) Write(ctx context.Context, snapshot map[string]results.Entry) error {
	data, err := results.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	return WriteFileAtomic(s.Path, data)
}

// WriteFileAtomic writes data to a temp file next to path and renames it over
// path. If the rename fails on an existing target it falls back to
// remove-then-rename.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	promoted := false
	defer func() {
		if !promoted {
			os.Remove(tmpPath)
		}
	}()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	// CreateTemp uses 0600
	if err := os.Chmod(tmpPath, 0644); err != nil {
		return fmt.Errorf("failed to chmod temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		if _, statErr := os.Stat(path); statErr != nil {
			return fmt.Errorf("failed to rename temp file: %w", err)
		}
		if rmErr := os.Remove(path); rmErr != nil {
			return fmt.Errorf("failed to replace %s: %w", path, errors.Join(err, rmErr))
		}
		if err := os.Rename(tmpPath, path); err != nil {
			return fmt.Errorf("failed to rename temp file: %w", err)
		}
	}
	promoted = true
	return nil
}
