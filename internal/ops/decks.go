package ops

import (
	"context"
	"time"

	"github.com/hpungsan/slidecraft/internal/db"
	"github.com/hpungsan/slidecraft/internal/deck"
	"github.com/hpungsan/slidecraft/internal/errors"
)

// CreateDeckInput contains parameters for the CreateDeck operation.
type CreateDeckInput struct {
	Title string `json:"title"`
}

// CreateDeck creates a deck with one blank slide.
func CreateDeck(ctx context.Context, env *Env, caller Caller, input CreateDeckInput) (*DeckSummary, error) {
	if err := requireUser(caller); err != nil {
		return nil, err
	}
	d, first, err := insertBlankDeck(ctx, env, caller.UserID, deck.NormalizeTitle(input.Title), false)
	if err != nil {
		return nil, err
	}
	out := deckSummary(d, first)
	return &out, nil
}

func insertBlankDeck(ctx context.Context, env *Env, ownerID, title string, template bool) (*deck.Deck, *deck.Slide, error) {
	now := time.Now().Unix()
	d := &deck.Deck{
		ID:         deck.NewID(),
		OwnerID:    ownerID,
		Title:      title,
		IsTemplate: template,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	first := newSlide(d.ID, 1, now)

	err := db.WithTx(ctx, env.DB, func(ctx context.Context, tx db.DBTX) error {
		if err := db.InsertDeck(ctx, tx, d); err != nil {
			return err
		}
		return db.InsertSlide(ctx, tx, &first)
	})
	if err != nil {
		return nil, nil, err
	}
	return d, &first, nil
}

func newSlide(deckID string, position int, now int64) deck.Slide {
	return deck.Slide{
		ID:         deck.NewID(),
		DeckID:     deckID,
		Position:   position,
		Background: deck.ColorBackground(deck.DefaultBackgroundColor),
		CreatedAt:  now,
	}
}

// ListDecks returns the caller's decks, most recently updated first, each
// with its first slide for the thumbnail.
func ListDecks(ctx context.Context, env *Env, caller Caller) ([]DeckSummary, error) {
	if err := requireUser(caller); err != nil {
		return nil, err
	}
	decks, err := db.ListDecksByOwner(ctx, env.DB, caller.UserID)
	if err != nil {
		return nil, err
	}

	out := make([]DeckSummary, 0, len(decks))
	for i := range decks {
		first, err := db.GetFirstSlide(ctx, env.DB, decks[i].ID)
		if err != nil && !errors.Is(err, errors.ErrNotFound) {
			return nil, err
		}
		out = append(out, deckSummary(&decks[i], first))
	}
	return out, nil
}

// GetDeck returns a deck with all slides and elements.
func GetDeck(ctx context.Context, env *Env, caller Caller, id string) (*DeckView, error) {
	if _, err := accessDeck(ctx, env.DB, caller, id); err != nil {
		return nil, err
	}
	d, err := db.LoadDeck(ctx, env.DB, id)
	if err != nil {
		return nil, err
	}
	return deckView(d), nil
}

// UpdateDeckInput contains parameters for the UpdateDeck operation.
type UpdateDeckInput struct {
	ID    string  `json:"-"`
	Title *string `json:"title"`
}

// UpdateDeck renames a deck. A nil title only touches updated_at.
func UpdateDeck(ctx context.Context, env *Env, caller Caller, input UpdateDeckInput) (*DeckSummary, error) {
	d, err := accessDeck(ctx, env.DB, caller, input.ID)
	if err != nil {
		return nil, err
	}

	now := time.Now().Unix()
	if input.Title != nil {
		d.Title = deck.NormalizeTitle(*input.Title)
		err = db.UpdateDeckTitle(ctx, env.DB, d.ID, d.Title, now)
	} else {
		err = db.TouchDeck(ctx, env.DB, d.ID, now)
	}
	if err != nil {
		return nil, err
	}
	d.UpdatedAt = now

	first, err := db.GetFirstSlide(ctx, env.DB, d.ID)
	if err != nil && !errors.Is(err, errors.ErrNotFound) {
		return nil, err
	}
	out := deckSummary(d, first)
	return &out, nil
}

// DeleteDeck removes a deck with its slides and elements, then any
// uploaded media nothing else references.
func DeleteDeck(ctx context.Context, env *Env, caller Caller, id string) error {
	if _, err := accessDeck(ctx, env.DB, caller, id); err != nil {
		return err
	}
	return deleteDeck(ctx, env, id)
}

func deleteDeck(ctx context.Context, env *Env, id string) error {
	full, err := db.LoadDeck(ctx, env.DB, id)
	if err != nil {
		return err
	}
	if err := db.DeleteDeck(ctx, env.DB, id); err != nil {
		return err
	}
	env.removeMedia(ctx, mediaRefs(full))
	return nil
}

// mediaRefs lists the uploaded files a deck points at.
func mediaRefs(d *deck.Deck) []string {
	var refs []string
	if d.PreviewImage != nil {
		refs = append(refs, *d.PreviewImage)
	}
	for _, s := range d.Slides {
		if s.Background.IsImage() {
			refs = append(refs, s.Background.Image)
		}
		for _, e := range s.Elements {
			if ref, ok := deck.MediaRef(e.Payload); ok {
				refs = append(refs, ref)
			}
		}
	}
	return refs
}

func touch(ctx context.Context, q db.DBTX, deckID string) error {
	return db.TouchDeck(ctx, q, deckID, time.Now().Unix())
}
