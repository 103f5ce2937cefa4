package ops

import (
	"context"
	"strings"
	"time"

	"github.com/hpungsan/slidecraft/internal/db"
	"github.com/hpungsan/slidecraft/internal/deck"
	"github.com/hpungsan/slidecraft/internal/errors"
)

// AddSlide appends a blank slide after the deck's last one.
func AddSlide(ctx context.Context, env *Env, caller Caller, deckID string) (*SlideView, error) {
	var s deck.Slide
	err := db.WithTx(ctx, env.DB, func(ctx context.Context, tx db.DBTX) error {
		if _, err := accessDeck(ctx, tx, caller, deckID); err != nil {
			return err
		}
		pos, err := db.NextSlidePosition(ctx, tx, deckID)
		if err != nil {
			return err
		}
		s = newSlide(deckID, pos, time.Now().Unix())
		if err := db.InsertSlide(ctx, tx, &s); err != nil {
			return err
		}
		return touch(ctx, tx, deckID)
	})
	if err != nil {
		return nil, err
	}
	v := slideView(s)
	return &v, nil
}

// GetSlide returns one slide with its elements.
func GetSlide(ctx context.Context, env *Env, caller Caller, id string) (*SlideView, error) {
	if _, _, err := accessSlide(ctx, env.DB, caller, id); err != nil {
		return nil, err
	}
	s, err := db.LoadSlide(ctx, env.DB, id)
	if err != nil {
		return nil, err
	}
	v := slideView(*s)
	return &v, nil
}

// UpdateSlideInput contains parameters for the UpdateSlide operation.
// Setting one background kind clears the other; an empty image reverts the
// slide to the default color.
type UpdateSlideInput struct {
	ID              string  `json:"-"`
	BackgroundColor *string `json:"background_color"`
	BackgroundImage *string `json:"background_image"`
}

// UpdateSlide changes a slide's background.
func UpdateSlide(ctx context.Context, env *Env, caller Caller, input UpdateSlideInput) (*SlideView, error) {
	if input.BackgroundColor != nil && input.BackgroundImage != nil {
		return nil, errors.NewInvalidRequest("set either background_color or background_image, not both")
	}

	var bg *deck.Background
	switch {
	case input.BackgroundColor != nil:
		color, err := deck.NormalizeColor(*input.BackgroundColor)
		if err != nil {
			return nil, errors.NewInvalidRequest(err.Error())
		}
		b := deck.ColorBackground(color)
		bg = &b
	case input.BackgroundImage != nil:
		ref := strings.TrimSpace(*input.BackgroundImage)
		b := deck.ColorBackground(deck.DefaultBackgroundColor)
		if ref != "" {
			if !validMediaRef(ref) {
				return nil, errors.NewInvalidRequest("background_image must be an uploaded file or an http(s) URL")
			}
			b = deck.ImageBackground(ref)
		}
		bg = &b
	}

	err := db.WithTx(ctx, env.DB, func(ctx context.Context, tx db.DBTX) error {
		s, _, err := accessSlide(ctx, tx, caller, input.ID)
		if err != nil {
			return err
		}
		if bg == nil {
			return nil
		}
		if err := db.UpdateSlideBackground(ctx, tx, s.ID, *bg); err != nil {
			return err
		}
		return touch(ctx, tx, s.DeckID)
	})
	if err != nil {
		return nil, err
	}

	s, err := db.LoadSlide(ctx, env.DB, input.ID)
	if err != nil {
		return nil, err
	}
	v := slideView(*s)
	return &v, nil
}

// DeleteSlide removes a slide and renumbers the rest. The only slide of a
// deck cannot be deleted.
func DeleteSlide(ctx context.Context, env *Env, caller Caller, id string) error {
	var refs []string
	err := db.WithTx(ctx, env.DB, func(ctx context.Context, tx db.DBTX) error {
		s, _, err := accessSlide(ctx, tx, caller, id)
		if err != nil {
			return err
		}
		n, err := db.CountSlides(ctx, tx, s.DeckID)
		if err != nil {
			return err
		}
		if n <= 1 {
			return errors.NewLastSlide(s.DeckID)
		}

		elements, err := db.ListElements(ctx, tx, s.ID)
		if err != nil {
			return err
		}
		if s.Background.IsImage() {
			refs = append(refs, s.Background.Image)
		}
		for _, e := range elements {
			if ref, ok := deck.MediaRef(e.Payload); ok {
				refs = append(refs, ref)
			}
		}

		if err := db.DeleteSlide(ctx, tx, s); err != nil {
			return err
		}
		return touch(ctx, tx, s.DeckID)
	})
	if err != nil {
		return err
	}
	env.removeMedia(ctx, refs)
	return nil
}

// ReorderSlidesInput contains parameters for the ReorderSlides operation.
type ReorderSlidesInput struct {
	DeckID   string   `json:"-"`
	SlideIDs []string `json:"slide_ids"`
}

// ReorderSlides renumbers a deck's slides 1..N in the given order. The ids
// must be exactly the deck's current slide set; otherwise nothing changes.
func ReorderSlides(ctx context.Context, env *Env, caller Caller, input ReorderSlidesInput) error {
	if len(input.SlideIDs) == 0 {
		return errors.NewInvalidRequest("slide_ids is required")
	}

	return db.WithTx(ctx, env.DB, func(ctx context.Context, tx db.DBTX) error {
		if _, err := accessDeck(ctx, tx, caller, input.DeckID); err != nil {
			return err
		}
		slides, err := db.ListSlides(ctx, tx, input.DeckID)
		if err != nil {
			return err
		}
		if !sameSlideSet(slides, input.SlideIDs) {
			return errors.NewInvalidRequest("slide_ids must list every slide of the presentation exactly once")
		}
		if err := db.RenumberSlides(ctx, tx, input.DeckID, input.SlideIDs); err != nil {
			return err
		}
		return touch(ctx, tx, input.DeckID)
	})
}

func sameSlideSet(slides []deck.Slide, ids []string) bool {
	if len(slides) != len(ids) {
		return false
	}
	want := make(map[string]bool, len(slides))
	for _, s := range slides {
		want[s.ID] = true
	}
	for _, id := range ids {
		if !want[id] {
			return false
		}
		delete(want, id)
	}
	return len(want) == 0
}
