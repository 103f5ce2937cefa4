package ops

import (
	"context"
	"math"
	"net/url"
	"strings"
	"time"

	"github.com/hpungsan/slidecraft/internal/db"
	"github.com/hpungsan/slidecraft/internal/deck"
	"github.com/hpungsan/slidecraft/internal/errors"
	"github.com/hpungsan/slidecraft/internal/storage"
)

// AddElementInput contains parameters for the AddElement operation.
// Omitted frame fields take the default frame.
type AddElementInput struct {
	SlideID  string   `json:"-"`
	Type     string   `json:"element_type"`
	X        *float64 `json:"pos_x"`
	Y        *float64 `json:"pos_y"`
	Width    *float64 `json:"width"`
	Height   *float64 `json:"height"`
	Content  *string  `json:"content"`
	FontSize *int     `json:"font_size"`
}

// AddElement places a new element on top of a slide.
func AddElement(ctx context.Context, env *Env, caller Caller, input AddElementInput) (*ElementView, error) {
	if strings.TrimSpace(input.Type) == "" {
		return nil, errors.NewInvalidRequest("element_type is required")
	}
	kind, err := deck.ParseKind(input.Type)
	if err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}

	frame := applyFrame(deck.DefaultFrame, input.X, input.Y, input.Width, input.Height)
	if err := validateFrame(frame); err != nil {
		return nil, err
	}

	content := deck.DefaultText
	if input.Content != nil {
		content = *input.Content
	} else if kind != deck.KindText {
		content = ""
	}
	fontSize := 0
	if input.FontSize != nil {
		fontSize = *input.FontSize
	}
	payload, err := buildPayload(kind, content, fontSize)
	if err != nil {
		return nil, err
	}

	e := &deck.Element{
		ID:        deck.NewID(),
		SlideID:   input.SlideID,
		Frame:     frame,
		Payload:   payload,
		CreatedAt: time.Now().Unix(),
	}
	err = db.WithTx(ctx, env.DB, func(ctx context.Context, tx db.DBTX) error {
		s, _, err := accessSlide(ctx, tx, caller, input.SlideID)
		if err != nil {
			return err
		}
		if err := db.InsertElement(ctx, tx, e); err != nil {
			return err
		}
		return touch(ctx, tx, s.DeckID)
	})
	if err != nil {
		return nil, err
	}

	v := elementView(*e)
	return &v, nil
}

// UpdateElementInput contains parameters for the UpdateElement operation.
// Nil fields are left unchanged; the element type never changes.
type UpdateElementInput struct {
	ID       string   `json:"-"`
	X        *float64 `json:"pos_x"`
	Y        *float64 `json:"pos_y"`
	Width    *float64 `json:"width"`
	Height   *float64 `json:"height"`
	Content  *string  `json:"content"`
	FontSize *int     `json:"font_size"`
}

// UpdateElement applies a partial update to an element.
func UpdateElement(ctx context.Context, env *Env, caller Caller, input UpdateElementInput) (*ElementView, error) {
	var updated deck.Element
	var replaced string
	err := db.WithTx(ctx, env.DB, func(ctx context.Context, tx db.DBTX) error {
		e, s, _, err := accessElement(ctx, tx, caller, input.ID)
		if err != nil {
			return err
		}

		frame := applyFrame(e.Frame, input.X, input.Y, input.Width, input.Height)
		if err := validateFrame(frame); err != nil {
			return err
		}

		content := e.Payload.Content()
		if input.Content != nil {
			content = *input.Content
		}
		fontSize := deck.FontSize(e.Payload)
		if input.FontSize != nil {
			if e.Kind() != deck.KindText {
				return errors.NewInvalidRequest("font_size applies to text elements only")
			}
			fontSize = *input.FontSize
		}
		payload, err := buildPayload(e.Kind(), content, fontSize)
		if err != nil {
			return err
		}

		if old, ok := deck.MediaRef(e.Payload); ok && old != payload.Content() {
			replaced = old
		}
		e.Frame = frame
		e.Payload = payload
		if err := db.UpdateElement(ctx, tx, e); err != nil {
			return err
		}
		updated = *e
		return touch(ctx, tx, s.DeckID)
	})
	if err != nil {
		return nil, err
	}

	if replaced != "" {
		env.removeMedia(ctx, []string{replaced})
	}
	v := elementView(updated)
	return &v, nil
}

// DeleteElement removes an element and, for uploaded media, its file.
func DeleteElement(ctx context.Context, env *Env, caller Caller, id string) error {
	var ref string
	err := db.WithTx(ctx, env.DB, func(ctx context.Context, tx db.DBTX) error {
		e, s, _, err := accessElement(ctx, tx, caller, id)
		if err != nil {
			return err
		}
		ref, _ = deck.MediaRef(e.Payload)
		if err := db.DeleteElement(ctx, tx, e.ID); err != nil {
			return err
		}
		return touch(ctx, tx, s.DeckID)
	})
	if err != nil {
		return err
	}
	if ref != "" {
		env.removeMedia(ctx, []string{ref})
	}
	return nil
}

func applyFrame(f deck.Frame, x, y, w, h *float64) deck.Frame {
	if x != nil {
		f.X = *x
	}
	if y != nil {
		f.Y = *y
	}
	if w != nil {
		f.Width = *w
	}
	if h != nil {
		f.Height = *h
	}
	return f
}

func validateFrame(f deck.Frame) error {
	for _, v := range []float64{f.X, f.Y, f.Width, f.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return errors.NewInvalidRequest("frame values must be finite numbers")
		}
	}
	if f.Width <= 0 || f.Height <= 0 {
		return errors.NewInvalidRequest("width and height must be positive")
	}
	return nil
}

// buildPayload validates submitted content for kind.
func buildPayload(kind deck.Kind, content string, fontSize int) (deck.Payload, error) {
	if kind == deck.KindText && fontSize < 0 {
		return nil, errors.NewInvalidRequest("font_size must be positive")
	}
	p, err := deck.NewPayload(kind, content, fontSize)
	if err != nil {
		return nil, errors.NewInvalidRequest(err.Error())
	}
	// Empty media content is a placeholder awaiting an upload.
	switch kind {
	case deck.KindImage, deck.KindUploadedVideo, deck.KindAudio:
		if c := p.Content(); c != "" && !validMediaRef(c) {
			return nil, errors.NewInvalidRequest("content must be an uploaded file or an http(s) URL")
		}
	}
	return p, nil
}

// validMediaRef accepts "/uploads/<name>" and absolute http(s) URLs.
func validMediaRef(ref string) bool {
	if _, ok := storage.NameFromRef(ref); ok {
		return true
	}
	u, err := url.Parse(ref)
	return err == nil && (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
