// Package output persists the generated artifacts.
package output

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// ErrExists is returned when an artifact would replace an existing file.
var ErrExists = errors.New("artifact already exists")

type ArtifactWriter interface {
	// Write stores content at path. Either the whole content is written or
	// nothing is.
	Write(ctx context.Context, path string, content []byte) error
}

// FileWriter writes artifacts below Dir. Relative paths are resolved against
// Dir; shell scripts are made executable.
type FileWriter struct {
	Dir       string
	Overwrite bool
}

func (w FileWriter) Write(ctx context.Context, path string, content []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if !filepath.IsAbs(path) && w.Dir != "" {
		path = filepath.Join(w.Dir, path)
	}
	if !w.Overwrite {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s", ErrExists, path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Chmod(modeFor(path)); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set mode of %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	slog.Info("Wrote artifact", "path", path, "bytes", len(content))
	return nil
}

func modeFor(path string) os.FileMode {
	if strings.HasSuffix(path, ".sh") {
		return 0o755
	}
	return 0o644
}
