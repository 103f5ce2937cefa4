package ops

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/hpungsan/slidecraft/internal/errors"
	"github.com/hpungsan/slidecraft/internal/storage"
)

// Upload kinds and the extensions each accepts.
var uploadExtensions = map[string][]string{
	"image": {".png", ".jpg", ".jpeg", ".gif", ".webp"},
	"video": {".mp4", ".webm", ".mov"},
	"audio": {".mp3", ".wav", ".ogg", ".m4a"},
}

// UploadInput contains parameters for the Upload operation.
type UploadInput struct {
	Kind     string
	FileName string
	Body     io.Reader
}

// UploadOutput contains the result of the Upload operation.
type UploadOutput struct {
	URL string `json:"url"`
}

// Upload stores a media file under a fresh name and returns its reference.
func Upload(ctx context.Context, env *Env, caller Caller, input UploadInput) (*UploadOutput, error) {
	if err := requireUser(caller); err != nil {
		return nil, err
	}
	if env.Store == nil {
		return nil, errors.NewInternal(fmt.Errorf("media store is not configured"))
	}
	allowed, ok := uploadExtensions[input.Kind]
	if !ok {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("unknown upload kind %q: use image, video or audio", input.Kind))
	}
	if input.Body == nil || strings.TrimSpace(input.FileName) == "" {
		return nil, errors.NewInvalidRequest("file is required")
	}
	ext := strings.ToLower(filepath.Ext(input.FileName))
	if !contains(allowed, ext) {
		return nil, errors.NewInvalidRequest(fmt.Sprintf("%s uploads must be one of %s", input.Kind, strings.Join(allowed, ", ")))
	}

	name := storage.NewName(ext)
	body := &cappedReader{r: input.Body, remaining: env.maxUploadBytes()}
	if err := env.Store.Save(ctx, name, body, storage.ContentType(name)); err != nil {
		if body.exceeded {
			return nil, errors.NewInvalidRequest(fmt.Sprintf("file exceeds the %d MB upload limit", env.maxUploadBytes()>>20))
		}
		return nil, err
	}

	env.log().Info(ctx, "stored upload", "kind", input.Kind, "name", name, "bytes", body.read)
	return &UploadOutput{URL: storage.Ref(name)}, nil
}

func (e *Env) maxUploadBytes() int64 {
	mb := 100
	if e.Config != nil && e.Config.MaxUploadMB > 0 {
		mb = e.Config.MaxUploadMB
	}
	return int64(mb) << 20
}

var errUploadTooLarge = fmt.Errorf("upload too large")

// cappedReader fails once more than remaining bytes have been read.
type cappedReader struct {
	r         io.Reader
	remaining int64
	read      int64
	exceeded  bool
}

func (c *cappedReader) Read(p []byte) (int, error) {
	if c.remaining < 0 {
		c.exceeded = true
		return 0, errUploadTooLarge
	}
	// Read one byte past the limit to tell "exactly full" from "too large".
	if int64(len(p)) > c.remaining+1 {
		p = p[:c.remaining+1]
	}
	n, err := c.r.Read(p)
	c.read += int64(n)
	c.remaining -= int64(n)
	if c.remaining < 0 {
		c.exceeded = true
		return 0, errUploadTooLarge
	}
	return n, err
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
