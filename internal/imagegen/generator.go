// Package imagegen produces image URLs from text prompts through external
// providers. Generators never return errors: a failed image is reported as
// ok=false and logged, and the caller lays out the slide without it.
package imagegen

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/hpungsan/slidecraft/internal/config"
	"github.com/hpungsan/slidecraft/internal/logging"
	"github.com/hpungsan/slidecraft/internal/storage"
)

// Generator turns a prompt into an image URL.
type Generator interface {
	Generate(ctx context.Context, prompt string) (url string, ok bool)
}

// Disabled never produces an image.
type Disabled struct{}

// Generate always reports false.
func (Disabled) Generate(context.Context, string) (string, bool) { return "", false }

// New builds the generator selected by cfg.Images.Provider.
func New(cfg *config.Config, store storage.Store, client *http.Client, logger logging.Logger) (Generator, error) {
	if client == nil {
		client = &http.Client{Timeout: 60 * time.Second}
	}
	images := cfg.Images

	switch images.Provider {
	case "none", "":
		return Disabled{}, nil
	case "hosted":
		return NewHosted(images.Hosted, client, logger), nil
	case "pipeline":
		var m Materializer
		materializer := images.Materializer
		if materializer == "" {
			materializer = "storage"
			if store == nil {
				materializer = "relay"
			}
		}
		switch materializer {
		case "relay":
			m = NewRelay(images.Relay, client, "", logger)
		case "storage":
			m = NewStorageMaterializer(store)
		default:
			return nil, fmt.Errorf("unknown image materializer %q", images.Materializer)
		}
		return NewPipeline(images.Pipeline, m, client, logger), nil
	default:
		return nil, fmt.Errorf("unknown image provider %q", images.Provider)
	}
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
