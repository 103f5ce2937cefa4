// Package storage keeps uploaded media (images, videos, audio, generated
// pictures) under flat, server-chosen names.
package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/hpungsan/slidecraft/internal/config"
	"github.com/hpungsan/slidecraft/internal/errors"
)

// RefPrefix starts every media reference that points into the store.
const RefPrefix = "/uploads/"

// Store is a flat namespace of media files.
type Store interface {
	// Save writes the content under name, replacing nothing: names are unique.
	Save(ctx context.Context, name string, r io.Reader, contentType string) error

	// Open returns the content of name. A missing name is NOT_FOUND.
	Open(ctx context.Context, name string) (io.ReadCloser, error)

	// Delete removes name. A missing name is NOT_FOUND.
	Delete(ctx context.Context, name string) error
}

// Presigner is implemented by stores whose objects can be fetched directly
// by clients through a time-limited URL.
type Presigner interface {
	PresignedURL(ctx context.Context, name string) (string, error)
}

// New builds the store selected by cfg.Storage.Backend. Relative local
// directories resolve against baseDir.
func New(ctx context.Context, baseDir string, cfg *config.Config) (Store, error) {
	switch cfg.Storage.Backend {
	case "", "local":
		return NewLocal(config.ResolvePath(baseDir, cfg.Storage.Dir))
	case "s3":
		return NewS3(ctx, cfg.Storage)
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Storage.Backend)
	}
}

// NewName returns a fresh name with the given extension (".png").
func NewName(ext string) string {
	return uuid.NewString() + strings.ToLower(ext)
}

// Ref returns the media reference for a stored name.
func Ref(name string) string {
	return RefPrefix + name
}

// NameFromRef extracts the stored name from a "/uploads/<name>" reference.
// Absolute URLs and anything that is not a plain file name report false.
func NameFromRef(ref string) (string, bool) {
	if !strings.HasPrefix(ref, RefPrefix) {
		return "", false
	}
	name := strings.TrimPrefix(ref, RefPrefix)
	if ValidateName(name) != nil {
		return "", false
	}
	return name, true
}

// ValidateName rejects names that could escape the store: empty names,
// path separators, traversal and hidden files.
func ValidateName(name string) error {
	switch {
	case name == "":
		return errors.NewInvalidRequest("file name is required")
	case strings.ContainsAny(name, `/\`) || strings.ContainsRune(name, 0):
		return errors.NewInvalidRequest("file name must not contain path separators")
	case name == "." || name == ".." || strings.Contains(name, ".."):
		return errors.NewInvalidRequest("file name must not contain directory traversal (..)")
	case strings.HasPrefix(name, "."):
		return errors.NewInvalidRequest("file name must not start with a dot")
	}
	return nil
}

// ContentType guesses a MIME type from a name's extension.
func ContentType(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".gif":
		return "image/gif"
	case ".webp":
		return "image/webp"
	case ".mp4":
		return "video/mp4"
	case ".webm":
		return "video/webm"
	case ".mov":
		return "video/quicktime"
	case ".mp3":
		return "audio/mpeg"
	case ".wav":
		return "audio/wav"
	case ".ogg":
		return "audio/ogg"
	case ".m4a":
		return "audio/mp4"
	default:
		return "application/octet-stream"
	}
}

// ExtensionFor returns the file extension for an image MIME type.
func ExtensionFor(contentType string) string {
	switch strings.ToLower(strings.TrimSpace(strings.SplitN(contentType, ";", 2)[0])) {
	case "image/jpeg", "image/jpg":
		return ".jpg"
	case "image/gif":
		return ".gif"
	case "image/webp":
		return ".webp"
	default:
		return ".png"
	}
}
