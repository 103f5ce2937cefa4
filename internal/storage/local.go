package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/hpungsan/slidecraft/internal/errors"
)

// Local stores media as files directly inside one directory.
type Local struct {
	dir string
}

// NewLocal creates the directory if needed.
func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &Local{dir: dir}, nil
}

// Dir returns the directory files are stored in.
func (l *Local) Dir() string { return l.dir }

// Save writes to a temp file first, then renames it into place so readers
// never see a partial file.
func (l *Local) Save(ctx context.Context, name string, r io.Reader, _ string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	dest := filepath.Join(l.dir, name)

	randBytes := make([]byte, 8)
	if _, err := rand.Read(randBytes); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to generate temp file name: %w", err))
	}
	tempPath := dest + "." + hex.EncodeToString(randBytes) + ".tmp"
	file, err := openFileNoFollow(tempPath, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0600)
	if err != nil {
		return errors.NewInternal(fmt.Errorf("failed to create upload file: %w", err))
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

	if _, err := io.Copy(file, contextReader{ctx: ctx, r: r}); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to write upload: %w", err))
	}
	if err := file.Sync(); err != nil {
		return errors.NewInternal(err)
	}
	if err := file.Close(); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to close upload file: %w", err))
	}
	file = nil

	if info, err := os.Lstat(dest); err == nil && info.Mode()&os.ModeSymlink != 0 {
		return errors.NewInternal(fmt.Errorf("upload path is a symlink"))
	}
	if err := os.Rename(tempPath, dest); err != nil {
		return errors.NewInternal(fmt.Errorf("failed to finalize upload: %w", err))
	}

	success = true
	return nil
}

// Open opens a stored file for reading.
func (l *Local) Open(_ context.Context, name string) (io.ReadCloser, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	return openFileNoFollowRead(filepath.Join(l.dir, name))
}

// Delete removes a stored file.
func (l *Local) Delete(_ context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if err := os.Remove(filepath.Join(l.dir, name)); err != nil {
		if os.IsNotExist(err) {
			return errors.NewNotFound("file", name)
		}
		return errors.NewInternal(err)
	}
	return nil
}

// contextReader stops a copy once ctx is done.
type contextReader struct {
	ctx context.Context
	r   io.Reader
}

func (c contextReader) Read(p []byte) (int, error) {
	if err := c.ctx.Err(); err != nil {
		return 0, err
	}
	return c.r.Read(p)
}
