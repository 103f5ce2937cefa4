package ops

import (
	"context"
	"strings"
	"time"

	"github.com/hpungsan/slidecraft/internal/db"
	"github.com/hpungsan/slidecraft/internal/deck"
	"github.com/hpungsan/slidecraft/internal/errors"
)

// DefaultTemplateTitle is the title of a template created without one.
const DefaultTemplateTitle = "Новый шаблон"

// ListTemplates returns the template gallery.
func ListTemplates(ctx context.Context, env *Env, caller Caller) ([]TemplateView, error) {
	if err := requireUser(caller); err != nil {
		return nil, err
	}
	templates, err := db.ListTemplates(ctx, env.DB)
	if err != nil {
		return nil, err
	}
	out := make([]TemplateView, 0, len(templates))
	for _, t := range templates {
		out = append(out, templateView(t))
	}
	return out, nil
}

// CreateFromTemplate copies a template's slides and elements into a new
// deck owned by the caller. Media references are shared, not duplicated.
func CreateFromTemplate(ctx context.Context, env *Env, caller Caller, templateID string) (*DeckSummary, error) {
	if err := requireUser(caller); err != nil {
		return nil, err
	}
	if strings.TrimSpace(templateID) == "" {
		return nil, errors.NewInvalidRequest("template_id is required")
	}

	var d *deck.Deck
	var first *deck.Slide
	err := db.WithTx(ctx, env.DB, func(ctx context.Context, tx db.DBTX) error {
		if _, err := templateByID(ctx, tx, templateID); err != nil {
			return err
		}
		src, err := db.LoadDeck(ctx, tx, templateID)
		if err != nil {
			return err
		}

		now := time.Now().Unix()
		d = &deck.Deck{
			ID:        deck.NewID(),
			OwnerID:   caller.UserID,
			Title:     src.Title,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := db.InsertDeck(ctx, tx, d); err != nil {
			return err
		}
		for i, s := range src.Slides {
			cp, err := copySlide(ctx, tx, d.ID, s, now)
			if err != nil {
				return err
			}
			if i == 0 {
				first = cp
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := deckSummary(d, first)
	return &out, nil
}

func copySlide(ctx context.Context, tx db.DBTX, deckID string, src deck.Slide, now int64) (*deck.Slide, error) {
	s := &deck.Slide{
		ID:         deck.NewID(),
		DeckID:     deckID,
		Position:   src.Position,
		Background: src.Background,
		CreatedAt:  now,
	}
	if err := db.InsertSlide(ctx, tx, s); err != nil {
		return nil, err
	}
	for _, e := range src.Elements {
		cp := deck.Element{
			ID:        deck.NewID(),
			SlideID:   s.ID,
			Frame:     e.Frame,
			Payload:   e.Payload,
			CreatedAt: now,
		}
		if err := db.InsertElement(ctx, tx, &cp); err != nil {
			return nil, err
		}
		s.Elements = append(s.Elements, cp)
	}
	return s, nil
}

func templateByID(ctx context.Context, q db.DBTX, id string) (*deck.Deck, error) {
	d, err := db.GetDeck(ctx, q, id)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return nil, errors.NewNotFound("template", id)
		}
		return nil, err
	}
	if !d.IsTemplate {
		return nil, errors.NewNotFound("template", id)
	}
	return d, nil
}

// CreateTemplateInput contains parameters for the CreateTemplate operation.
type CreateTemplateInput struct {
	Title string `json:"title"`
}

// CreateTemplate creates an empty template owned by the admin caller.
func CreateTemplate(ctx context.Context, env *Env, caller Caller, input CreateTemplateInput) (*TemplateView, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		title = DefaultTemplateTitle
	}
	d, _, err := insertBlankDeck(ctx, env, caller.UserID, title, true)
	if err != nil {
		return nil, err
	}
	v := templateView(*d)
	return &v, nil
}

// UpdateTemplateInput contains parameters for the UpdateTemplate operation.
type UpdateTemplateInput struct {
	ID    string  `json:"-"`
	Title *string `json:"title"`
}

// UpdateTemplate renames a template.
func UpdateTemplate(ctx context.Context, env *Env, caller Caller, input UpdateTemplateInput) (*TemplateView, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	t, err := templateByID(ctx, env.DB, input.ID)
	if err != nil {
		return nil, err
	}
	if input.Title != nil {
		title := strings.TrimSpace(*input.Title)
		if title == "" {
			return nil, errors.NewInvalidRequest("title must not be empty")
		}
		if err := db.UpdateDeckTitle(ctx, env.DB, t.ID, title, time.Now().Unix()); err != nil {
			return nil, err
		}
		t.Title = title
	}
	v := templateView(*t)
	return &v, nil
}

// DeleteTemplate removes a template. Decks created from it are unaffected.
func DeleteTemplate(ctx context.Context, env *Env, caller Caller, id string) error {
	if err := requireAdmin(caller); err != nil {
		return err
	}
	if _, err := templateByID(ctx, env.DB, id); err != nil {
		return err
	}
	return deleteDeck(ctx, env, id)
}

// SetTemplatePreview points a template's gallery preview at an uploaded
// image, replacing any previous one.
func SetTemplatePreview(ctx context.Context, env *Env, caller Caller, id, ref string) (*TemplateView, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	ref = strings.TrimSpace(ref)
	if !validMediaRef(ref) {
		return nil, errors.NewInvalidRequest("preview must be an uploaded file or an http(s) URL")
	}
	t, err := templateByID(ctx, env.DB, id)
	if err != nil {
		return nil, err
	}
	if err := db.SetDeckPreview(ctx, env.DB, t.ID, &ref, time.Now().Unix()); err != nil {
		return nil, err
	}
	if t.PreviewImage != nil && *t.PreviewImage != ref {
		env.removeMedia(ctx, []string{*t.PreviewImage})
	}
	t.PreviewImage = &ref
	v := templateView(*t)
	return &v, nil
}

type seedElement struct {
	text  string
	frame deck.Frame
	size  int
}

type seedSlide struct {
	color    string
	elements []seedElement
}

type seedTemplate struct {
	title  string
	slides []seedSlide
}

var seedTemplates = []seedTemplate{
	{
		title: "Шаблон 'Темная тема'",
		slides: []seedSlide{
			{color: "#1B1B2F", elements: []seedElement{
				{"Заголовок", deck.Frame{X: 100, Y: 280, Width: 600, Height: 100}, 60},
				{"примерно о чем будет презентация", deck.Frame{X: 100, Y: 390, Width: 600, Height: 120}, 28},
			}},
			{color: "#162447", elements: []seedElement{
				{"Теорема", deck.Frame{X: 100, Y: 90, Width: 1080, Height: 80}, 54},
				{"текст текст текст текст текст текст текст текст текст текст текст текст", deck.Frame{X: 100, Y: 200, Width: 1080, Height: 150}, 24},
				{"Формула", deck.Frame{X: 100, Y: 420, Width: 1080, Height: 220}, 32},
			}},
			{color: "#1F4068", elements: []seedElement{
				{"Заголовок", deck.Frame{X: 100, Y: 60, Width: 1100, Height: 80}, 54},
				{"Подзаголовок", deck.Frame{X: 120, Y: 200, Width: 480, Height: 60}, 32},
				{"текст текст текст текст текст текст текст текст текст текст", deck.Frame{X: 120, Y: 280, Width: 480, Height: 300}, 22},
			}},
			{color: "#1B1B2F", elements: []seedElement{
				{"Заголовок", deck.Frame{X: 100, Y: 60, Width: 1100, Height: 80}, 54},
				{"01", deck.Frame{X: 120, Y: 200, Width: 250, Height: 60}, 36},
				{"текст текст текст текст текст текст текст текст", deck.Frame{X: 120, Y: 270, Width: 250, Height: 300}, 18},
				{"02", deck.Frame{X: 680, Y: 200, Width: 250, Height: 60}, 36},
				{"текст текст текст текст текст текст текст текст", deck.Frame{X: 680, Y: 270, Width: 250, Height: 300}, 18},
			}},
		},
	},
}

// SeedTemplates replaces every template with the built-in set, owned by
// the admin caller.
func SeedTemplates(ctx context.Context, env *Env, caller Caller) ([]TemplateView, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}

	existing, err := db.ListTemplates(ctx, env.DB)
	if err != nil {
		return nil, err
	}
	for _, t := range existing {
		if err := deleteDeck(ctx, env, t.ID); err != nil {
			return nil, err
		}
	}

	var out []TemplateView
	err = db.WithTx(ctx, env.DB, func(ctx context.Context, tx db.DBTX) error {
		now := time.Now().Unix()
		for _, st := range seedTemplates {
			d := &deck.Deck{
				ID:         deck.NewID(),
				OwnerID:    caller.UserID,
				Title:      st.title,
				IsTemplate: true,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if err := db.InsertDeck(ctx, tx, d); err != nil {
				return err
			}
			for i, ss := range st.slides {
				s := deck.Slide{
					ID:         deck.NewID(),
					DeckID:     d.ID,
					Position:   i + 1,
					Background: deck.ColorBackground(ss.color),
					CreatedAt:  now,
				}
				if err := db.InsertSlide(ctx, tx, &s); err != nil {
					return err
				}
				for _, se := range ss.elements {
					e := deck.Element{
						ID:        deck.NewID(),
						SlideID:   s.ID,
						Frame:     se.frame,
						Payload:   deck.Text{Body: se.text, FontSize: se.size},
						CreatedAt: now,
					}
					if err := db.InsertElement(ctx, tx, &e); err != nil {
						return err
					}
				}
			}
			out = append(out, templateView(*d))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
