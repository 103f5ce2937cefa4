package ops

import (
	"github.com/hpungsan/slidecraft/internal/deck"
)

// ElementView is the wire form of an element.
type ElementView struct {
	ID       string  `json:"id"`
	Type     string  `json:"element_type"`
	X        float64 `json:"pos_x"`
	Y        float64 `json:"pos_y"`
	Width    float64 `json:"width"`
	Height   float64 `json:"height"`
	Content  string  `json:"content"`
	FontSize *int    `json:"font_size"`

	// ThumbnailURL is set for YouTube elements only.
	ThumbnailURL string `json:"thumbnailUrl,omitempty"`
}

// SlideView is the wire form of a slide. Exactly one background field is set.
type SlideView struct {
	ID              string        `json:"id"`
	Position        int           `json:"slide_number"`
	BackgroundColor *string       `json:"background_color"`
	BackgroundImage *string       `json:"background_image"`
	Elements        []ElementView `json:"elements"`
}

// DeckSummary is a deck in listings.
type DeckSummary struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	UpdatedAt  int64      `json:"updated_at"`
	FirstSlide *SlideView `json:"first_slide"`
}

// DeckView is a full deck.
type DeckView struct {
	ID           string      `json:"id"`
	Title        string      `json:"title"`
	IsTemplate   bool        `json:"is_template"`
	PreviewImage *string     `json:"preview_image"`
	UpdatedAt    int64       `json:"updated_at"`
	Slides       []SlideView `json:"slides"`
}

// TemplateView is a template in the gallery.
type TemplateView struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	PreviewImage *string `json:"preview_image"`
	CreatedAt    int64   `json:"created_at"`
}

// UserView is an account without its credentials.
type UserView struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	IsAdmin   bool   `json:"is_admin"`
	CreatedAt int64  `json:"created_at"`
}

// PromptView is an editable system instruction.
type PromptView struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Text        string `json:"prompt_text"`
	Overridden  bool   `json:"overridden"`
	UpdatedAt   int64  `json:"updated_at,omitempty"`
}

func elementView(e deck.Element) ElementView {
	v := ElementView{
		ID:      e.ID,
		Type:    string(e.Kind()),
		X:       e.Frame.X,
		Y:       e.Frame.Y,
		Width:   e.Frame.Width,
		Height:  e.Frame.Height,
		Content: e.Payload.Content(),
	}
	if t, ok := e.Payload.(deck.Text); ok {
		size := t.FontSize
		v.FontSize = &size
	}
	if y, ok := e.Payload.(deck.YouTube); ok {
		v.ThumbnailURL = deck.YouTubePreviewURL(y.VideoID)
	}
	return v
}

func slideView(s deck.Slide) SlideView {
	v := SlideView{
		ID:       s.ID,
		Position: s.Position,
		Elements: make([]ElementView, 0, len(s.Elements)),
	}
	if s.Background.IsImage() {
		img := s.Background.Image
		v.BackgroundImage = &img
	} else {
		color := s.Background.Color
		v.BackgroundColor = &color
	}
	for _, e := range s.Elements {
		v.Elements = append(v.Elements, elementView(e))
	}
	return v
}

func deckSummary(d *deck.Deck, first *deck.Slide) DeckSummary {
	out := DeckSummary{ID: d.ID, Title: d.Title, UpdatedAt: d.UpdatedAt}
	if first != nil {
		v := slideView(*first)
		out.FirstSlide = &v
	}
	return out
}

func deckView(d *deck.Deck) *DeckView {
	v := &DeckView{
		ID:           d.ID,
		Title:        d.Title,
		IsTemplate:   d.IsTemplate,
		PreviewImage: d.PreviewImage,
		UpdatedAt:    d.UpdatedAt,
		Slides:       make([]SlideView, 0, len(d.Slides)),
	}
	for _, s := range d.Slides {
		v.Slides = append(v.Slides, slideView(s))
	}
	return v
}

func templateView(d deck.Deck) TemplateView {
	return TemplateView{ID: d.ID, Title: d.Title, PreviewImage: d.PreviewImage, CreatedAt: d.CreatedAt}
}

func userView(u *deck.User) UserView {
	return UserView{ID: u.ID, Email: u.Email, IsAdmin: u.IsAdmin, CreatedAt: u.CreatedAt}
}
