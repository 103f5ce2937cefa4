package export

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"image"
	"io"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	// Decoders for image.DecodeConfig.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	_ "golang.org/x/image/webp"

	"github.com/hpungsan/slidecraft/internal/storage"
)

// MaxMediaBytes bounds a single fetched file.
const MaxMediaBytes = 64 << 20

// Poster file names inside the poster directory.
const (
	VideoPoster = "video_poster.png"
	AudioPoster = "audio_poster.png"
)

// MediaFetcher resolves a media reference into bytes.
type MediaFetcher interface {
	Fetch(ctx context.Context, ref string) (Media, error)
}

// Fetcher reads "/uploads/<name>" references from the store and anything
// else over http(s).
type Fetcher struct {
	store  storage.Store
	client *http.Client
}

// NewFetcher creates a Fetcher.
func NewFetcher(store storage.Store, client *http.Client) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{store: store, client: client}
}

// Fetch returns the bytes behind ref.
func (f *Fetcher) Fetch(ctx context.Context, ref string) (Media, error) {
	if name, ok := storage.NameFromRef(ref); ok {
		return f.fetchStored(ctx, name)
	}

	u, err := url.Parse(ref)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return Media{}, fmt.Errorf("unsupported media reference %q", ref)
	}
	return f.fetchRemote(ctx, u.String())
}

func (f *Fetcher) fetchStored(ctx context.Context, name string) (Media, error) {
	rc, err := f.store.Open(ctx, name)
	if err != nil {
		return Media{}, err
	}
	defer rc.Close()

	data, err := readLimited(rc)
	if err != nil {
		return Media{}, fmt.Errorf("read %s: %w", name, err)
	}
	mime := storage.ContentType(name)
	if mime == "application/octet-stream" {
		mime = http.DetectContentType(data)
	}
	return Media{Data: data, MIME: mime}, nil
}

func (f *Fetcher) fetchRemote(ctx context.Context, rawURL string) (Media, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Media{}, err
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return Media{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Media{}, fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}
	data, err := readLimited(resp.Body)
	if err != nil {
		return Media{}, fmt.Errorf("fetch %s: %w", rawURL, err)
	}

	mime := strings.TrimSpace(strings.SplitN(resp.Header.Get("Content-Type"), ";", 2)[0])
	if mime == "" || mime == "application/octet-stream" {
		mime = http.DetectContentType(data)
	}
	return Media{Data: data, MIME: mime}, nil
}

var errTooLarge = stderrors.New("media exceeds size limit")

func readLimited(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, MaxMediaBytes+1))
	if err != nil {
		return nil, err
	}
	if len(data) > MaxMediaBytes {
		return nil, errTooLarge
	}
	return data, nil
}

// imageSize decodes only the header of an image.
func imageSize(data []byte) (int, int, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, fmt.Errorf("decode image: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return 0, 0, fmt.Errorf("image has no size")
	}
	return cfg.Width, cfg.Height, nil
}

// Posters loads the placeholder frames shown for uploaded video and audio.
type Posters struct {
	dir string
}

// NewPosters reads posters from dir.
func NewPosters(dir string) *Posters {
	return &Posters{dir: dir}
}

// Load returns the named poster.
func (p *Posters) Load(name string) (Media, error) {
	if p == nil || p.dir == "" {
		return Media{}, fmt.Errorf("poster directory is not configured")
	}
	data, err := os.ReadFile(filepath.Join(p.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return Media{}, fmt.Errorf("poster %s not found", name)
		}
		return Media{}, err
	}
	return Media{Data: data, MIME: http.DetectContentType(data)}, nil
}
