package generate

import (
	"context"
	"fmt"

	"github.com/hpungsan/slidecraft/internal/deck"
	"github.com/hpungsan/slidecraft/internal/errors"
	"github.com/hpungsan/slidecraft/internal/logging"
)

// MinDrafts is the fewest drafts a usable outline may have.
const MinDrafts = 2

// ImageGenerator produces an image URL for a prompt, or reports false.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) (url string, ok bool)
}

// Pipeline produces the slides of a generated deck. Persisting them is the
// caller's job.
type Pipeline struct {
	chat   *Client
	images ImageGenerator
	logger logging.Logger
}

// NewPipeline creates a Pipeline.
func NewPipeline(chat *Client, images ImageGenerator, logger logging.Logger) *Pipeline {
	return &Pipeline{chat: chat, images: images, logger: logger}
}

// Chat returns the underlying completion client.
func (p *Pipeline) Chat() *Client { return p.chat }

// Images returns the image generator.
func (p *Pipeline) Images() ImageGenerator { return p.images }

// Run requests an outline for topic, parses it and lays out one slide per
// draft. Images are generated one draft at a time, in order; a failed image
// only changes that slide's layout.
func (p *Pipeline) Run(ctx context.Context, deckID, topic string, now int64) ([]deck.Slide, error) {
	completion, err := p.chat.GenerateDeckOutline(ctx, topic)
	if err != nil {
		return nil, err
	}

	parsed := ParseSlides(completion)
	if len(parsed.DroppedLines) > 0 || parsed.DroppedChunks > 0 {
		p.logger.Warn(ctx, "outline contained unrecognized content",
			"dropped_lines", parsed.DroppedLines,
			"dropped_chunks", parsed.DroppedChunks,
		)
	}
	if len(parsed.Drafts) < MinDrafts {
		p.logger.Error(ctx, "outline has too few slides", "drafts", len(parsed.Drafts), "completion", completion)
		return nil, errors.NewGenerationFailed(fmt.Errorf("parsed %d drafts, need %d", len(parsed.Drafts), MinDrafts))
	}

	slides := make([]deck.Slide, 0, len(parsed.Drafts))
	for i, d := range parsed.Drafts {
		if err := ctx.Err(); err != nil {
			return nil, errors.NewGenerationFailed(err)
		}

		var url string
		var ok bool
		if d.ImagePrompt == "" {
			p.logger.Warn(ctx, "draft has no image prompt", "slide", i+1)
		} else {
			url, ok = p.images.Generate(ctx, d.ImagePrompt)
			if !ok {
				p.logger.Warn(ctx, "no image generated, using full-width text", "slide", i+1)
			}
		}

		slides = append(slides, AssembleSlide(deckID, i+1, d, url, ok, now))
	}
	return slides, nil
}
