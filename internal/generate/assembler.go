package generate

import (
	"github.com/hpungsan/slidecraft/internal/deck"
)

// Fixed layout of generated slides in the 1280x720 editor space.
var (
	TitleFrame         = deck.Frame{X: 80, Y: 60, Width: 1120, Height: 120}
	BodyFrameWithImage = deck.Frame{X: 80, Y: 200, Width: 580, Height: 460}
	BodyFrameFull      = deck.Frame{X: 80, Y: 200, Width: 1120, Height: 460}
	ImageFrame         = deck.Frame{X: 680, Y: 200, Width: 520, Height: 293}
)

const (
	TitleFontSize = 48
	BodyFontSize  = 24
)

// AssembleSlide lays out one draft as slide number position. imageURL is
// used only when hasImage is true; otherwise the body spans the full width.
func AssembleSlide(deckID string, position int, d Draft, imageURL string, hasImage bool, now int64) deck.Slide {
	s := deck.Slide{
		ID:         deck.NewID(),
		DeckID:     deckID,
		Position:   position,
		Background: deck.ColorBackground(deck.DefaultBackgroundColor),
		CreatedAt:  now,
	}

	add := func(f deck.Frame, p deck.Payload) {
		s.Elements = append(s.Elements, deck.Element{
			ID:        deck.NewID(),
			SlideID:   s.ID,
			Frame:     f,
			Payload:   p,
			Seq:       len(s.Elements) + 1,
			CreatedAt: now,
		})
	}

	add(TitleFrame, deck.Text{Body: d.Title, FontSize: TitleFontSize})
	if hasImage {
		add(BodyFrameWithImage, deck.Text{Body: d.Body, FontSize: BodyFontSize})
		add(ImageFrame, deck.Image{Ref: imageURL})
	} else {
		add(BodyFrameFull, deck.Text{Body: d.Body, FontSize: BodyFontSize})
	}
	return s
}
