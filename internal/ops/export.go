package ops

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/hpungsan/slidecraft/internal/db"
	"github.com/hpungsan/slidecraft/internal/errors"
	"github.com/hpungsan/slidecraft/internal/export"
)

// ExportDeck renders a deck the caller may edit as PPTX or PDF.
func ExportDeck(ctx context.Context, env *Env, caller Caller, id, format string) (*export.File, error) {
	f, err := export.ParseFormat(format)
	if err != nil {
		return nil, err
	}
	if env.Exporter == nil {
		return nil, errors.NewInternal(fmt.Errorf("exporter is not configured"))
	}
	if _, err := accessDeck(ctx, env.DB, caller, id); err != nil {
		return nil, err
	}
	d, err := db.LoadDeck(ctx, env.DB, id)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	file, err := env.Exporter.Export(ctx, d, f)
	if err != nil {
		return nil, err
	}
	env.log().Info(ctx, "exported presentation",
		"presentation_id", d.ID,
		"format", string(f),
		"bytes", len(file.Data),
		"duration_ms", time.Since(start).Milliseconds(),
	)
	return file, nil
}

// ExportToFileInput contains parameters for the ExportToFile operation.
type ExportToFileInput struct {
	ID     string
	Format string

	// Path is optional, default: <exports dir>/<sanitized title>.<format>
	Path string
}

// ExportToFileOutput contains the result of the ExportToFile operation.
type ExportToFileOutput struct {
	Path  string `json:"path"`
	Bytes int    `json:"bytes"`
}

// ExportToFile exports a deck and writes it to disk, replacing the
// destination only once the whole file is written.
func ExportToFile(ctx context.Context, env *Env, caller Caller, input ExportToFileInput) (*ExportToFileOutput, error) {
	f, err := export.ParseFormat(input.Format)
	if err != nil {
		return nil, err
	}
	if input.Path != "" {
		if err := validateExportPath(input.Path, "."+string(f)); err != nil {
			return nil, err
		}
	}

	file, err := ExportDeck(ctx, env, caller, input.ID, string(f))
	if err != nil {
		return nil, err
	}

	path := input.Path
	if path == "" {
		if env.ExportsDir == "" {
			return nil, errors.NewInvalidRequest("an output path is required")
		}
		path = filepath.Join(env.ExportsDir, file.FileName)
	}
	if err := writeFileAtomic(path, file.Data); err != nil {
		return nil, err
	}
	return &ExportToFileOutput{Path: path, Bytes: len(file.Data)}, nil
}

// writeFileAtomic writes data to a temp file beside path, then renames it
// into place. An existing file at path survives any failure.
func writeFileAtomic(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create export directory: %w", err))
	}

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := path + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0600)
	if err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create export file: %w", err))
	}

	success := false
	defer func() {
		if file != nil {
			file.Close()
		}
		if !success {
			os.Remove(tempPath)
		}
	}()

	if _, err := file.Write(data); err != nil {
		return errors.NewInternal(err)
	}
	if err := file.Sync(); err != nil {
		return errors.NewInternal(err)
	}
	if err := file.Close(); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to close export file: %w", err))
	}
	file = nil

	// os.Rename would follow a symlink at the destination.
	if info, err := os.Lstat(path); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInvalidRequest("export path is a symlink")
	}

	if err := os.Rename(tempPath, path); err != nil {
		if runtime.GOOS == "windows" {
			if _, statErr := os.Stat(path); statErr == nil {
				return errors.NewInvalidRequest("export destination already exists; choose a new path or delete the existing file")
			}
		}
		return errors.NewInternal(fmt.Errorf("failed to finalize export: %w", err))
	}

	success = true
	return nil
}
