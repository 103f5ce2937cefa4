package ops

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/hpungsan/slidecraft/internal/db"
	"github.com/hpungsan/slidecraft/internal/deck"
	"github.com/hpungsan/slidecraft/internal/errors"
)

// GenerateDeckInput contains parameters for the GenerateDeck operation.
type GenerateDeckInput struct {
	Prompt string `json:"prompt"`
}

// GenerateDeckOutput contains the result of the GenerateDeck operation.
type GenerateDeckOutput struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Slides int    `json:"slides"`
}

// GenerateDeck builds a deck on a topic through the generation pipeline and
// stores it in one transaction. Nothing is written when generation fails.
func GenerateDeck(ctx context.Context, env *Env, caller Caller, input GenerateDeckInput) (*GenerateDeckOutput, error) {
	if err := requireUser(caller); err != nil {
		return nil, err
	}
	topic := strings.TrimSpace(input.Prompt)
	if topic == "" {
		return nil, errors.NewInvalidRequest("prompt is required")
	}
	if env.Pipeline == nil {
		return nil, errors.NewInternal(fmt.Errorf("generation pipeline is not configured"))
	}

	now := time.Now().Unix()
	d := &deck.Deck{
		ID:        deck.NewID(),
		OwnerID:   caller.UserID,
		Title:     topic,
		CreatedAt: now,
		UpdatedAt: now,
	}

	slides, err := env.Pipeline.Run(ctx, d.ID, topic, now)
	if err != nil {
		return nil, err
	}

	err = db.WithTx(ctx, env.DB, func(ctx context.Context, tx db.DBTX) error {
		if err := db.InsertDeck(ctx, tx, d); err != nil {
			return err
		}
		for i := range slides {
			if err := db.InsertSlide(ctx, tx, &slides[i]); err != nil {
				return err
			}
			for j := range slides[i].Elements {
				if err := db.InsertElement(ctx, tx, &slides[i].Elements[j]); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	env.log().Info(ctx, "generated presentation", "presentation_id", d.ID, "slides", len(slides))
	return &GenerateDeckOutput{ID: d.ID, Title: d.Title, Slides: len(slides)}, nil
}
