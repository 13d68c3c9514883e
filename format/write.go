package format

import (
	"fmt"
	"os"
	"path/filepath"
)

// WriteResult replaces res.Path with the formatted text. The output is
// written to a temporary file in the same directory and renamed over the
// target, so a failure never leaves a partially written file behind.
// Unchanged results are not written.
func WriteResult(res Result) error {
	if !res.Changed() {
		return nil
	}

	info, err := os.Stat(res.Path)
	if err != nil {
		return fmt.Errorf("stat %s: %w", res.Path, err)
	}

	dir := filepath.Dir(res.Path)
	tmp, err := os.CreateTemp(dir, ".keyfmt-*")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(res.After); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Chmod(tmpPath, info.Mode().Perm()); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("chmod temp file: %w", err)
	}
	if err := os.Rename(tmpPath, res.Path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace %s: %w", res.Path, err)
	}
	return nil
}
