package ops

import (
	"context"
	"testing"

	"github.com/hpungsan/slidecraft/internal/deck"
	"github.com/hpungsan/slidecraft/internal/errors"
)

func TestAddElement_TextDefaults(t *testing.T) {
	te := newTestEnv(t)
	d := te.mustDeck(t, "Deck")

	e, err := AddElement(context.Background(), te.Env, te.owner, AddElementInput{SlideID: d.FirstSlide.ID, Type: "text"})
	if err != nil {
		t.Fatalf("AddElement failed: %v", err)
	}
	if e.Type != string(deck.KindText) {
		t.Errorf("Type = %q", e.Type)
	}
	if e.Content != deck.DefaultText {
		t.Errorf("Content = %q", e.Content)
	}
	if e.FontSize == nil || *e.FontSize != deck.DefaultFontSize {
		t.Errorf("FontSize = %v, want %d", e.FontSize, deck.DefaultFontSize)
	}
	f := deck.DefaultFrame
	if e.X != f.X || e.Y != f.Y || e.Width != f.Width || e.Height != f.Height {
		t.Errorf("frame = %v,%v %vx%v", e.X, e.Y, e.Width, e.Height)
	}
}

func TestAddElement_YouTube(t *testing.T) {
	te := newTestEnv(t)
	ctx := context.Background()
	d := te.mustDeck(t, "Deck")

	e, err := AddElement(ctx, te.Env, te.owner, AddElementInput{
		SlideID: d.FirstSlide.ID,
		Type:    "YOUTUBE_VIDEO",
		Content: stringPtr("https://youtu.be/dQw4w9WgXcQ?t=1"),
	})
	if err != nil {
		t.Fatalf("AddElement failed: %v", err)
	}
	if e.Type != string(deck.KindYouTube) || e.Content != "dQw4w9WgXcQ" {
		t.Errorf("element = %+v", e)
	}
	if e.ThumbnailURL == "" {
		t.Error("ThumbnailURL is empty")
	}
	if e.FontSize != nil {
		t.Errorf("FontSize = %d, want nil", *e.FontSize)
	}

	_, err = AddElement(ctx, te.Env, te.owner, AddElementInput{SlideID: d.FirstSlide.ID, Type: "VIDEO_YOUTUBE", Content: stringPtr("https://vimeo.com/1")})
	assertCode(t, err, errors.ErrInvalidRequest)
}

func TestAddElement_Invalid(t *testing.T) {
	te := newTestEnv(t)
	ctx := context.Background()
	d := te.mustDeck(t, "Deck")
	slide := d.FirstSlide.ID

	tests := []struct {
		name  string
		input AddElementInput
		code  errors.ErrorCode
	}{
		{"missing type", AddElementInput{SlideID: slide}, errors.ErrInvalidRequest},
		{"unknown type", AddElementInput{SlideID: slide, Type: "CHART"}, errors.ErrInvalidRequest},
		{"zero width", AddElementInput{SlideID: slide, Type: "TEXT", Width: floatPtr(0)}, errors.ErrInvalidRequest},
		{"bad media ref", AddElementInput{SlideID: slide, Type: "IMAGE", Content: stringPtr("ftp://x/a.png")}, errors.ErrInvalidRequest},
		{"missing slide", AddElementInput{SlideID: "nope", Type: "TEXT"}, errors.ErrNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := AddElement(ctx, te.Env, te.owner, tt.input)
			assertCode(t, err, tt.code)
		})
	}

	_, err := AddElement(ctx, te.Env, te.other, AddElementInput{SlideID: slide, Type: "TEXT"})
	assertCode(t, err, errors.ErrForbidden)
}

func TestAddElement_MediaPlaceholder(t *testing.T) {
	te := newTestEnv(t)
	d := te.mustDeck(t, "Deck")

	e, err := AddElement(context.Background(), te.Env, te.owner, AddElementInput{SlideID: d.FirstSlide.ID, Type: "AUDIO"})
	if err != nil {
		t.Fatalf("AddElement failed: %v", err)
	}
	if e.Content != "" {
		t.Errorf("Content = %q, want empty placeholder", e.Content)
	}
}

func TestUpdateElement_Partial(t *testing.T) {
	te := newTestEnv(t)
	ctx := context.Background()
	d := te.mustDeck(t, "Deck")
	e, _ := AddElement(ctx, te.Env, te.owner, AddElementInput{SlideID: d.FirstSlide.ID, Type: "TEXT", Content: stringPtr("Hello")})

	got, err := UpdateElement(ctx, te.Env, te.owner, UpdateElementInput{ID: e.ID, X: floatPtr(10), FontSize: intPtr(40)})
	if err != nil {
		t.Fatalf("UpdateElement failed: %v", err)
	}
	if got.X != 10 || got.Y != e.Y || got.Width != e.Width {
		t.Errorf("frame = %v,%v %v", got.X, got.Y, got.Width)
	}
	if got.Content != "Hello" {
		t.Errorf("Content = %q, want unchanged", got.Content)
	}
	if got.FontSize == nil || *got.FontSize != 40 {
		t.Errorf("FontSize = %v, want 40", got.FontSize)
	}
}

func TestUpdateElement_FontSizeOnMedia(t *testing.T) {
	te := newTestEnv(t)
	ctx := context.Background()
	d := te.mustDeck(t, "Deck")
	e, _ := AddElement(ctx, te.Env, te.owner, AddElementInput{SlideID: d.FirstSlide.ID, Type: "IMAGE", Content: stringPtr("https://example.com/a.png")})

	_, err := UpdateElement(ctx, te.Env, te.owner, UpdateElementInput{ID: e.ID, FontSize: intPtr(12)})
	assertCode(t, err, errors.ErrInvalidRequest)
}

func TestUpdateElement_ReplacedMediaRemoved(t *testing.T) {
	te := newTestEnv(t)
	ctx := context.Background()
	d := te.mustDeck(t, "Deck")
	oldRef := te.mustUpload(t, "image", "old.png", pngBytes(t, 2, 2))
	newRef := te.mustUpload(t, "image", "new.png", pngBytes(t, 2, 2))

	e, _ := AddElement(ctx, te.Env, te.owner, AddElementInput{SlideID: d.FirstSlide.ID, Type: "IMAGE", Content: &oldRef})
	if _, err := UpdateElement(ctx, te.Env, te.owner, UpdateElementInput{ID: e.ID, Content: &newRef}); err != nil {
		t.Fatalf("UpdateElement failed: %v", err)
	}
	if te.stored(t, oldRef) {
		t.Error("replaced file survived")
	}
	if !te.stored(t, newRef) {
		t.Error("new file missing")
	}
}

func TestDeleteElement_RemovesUpload(t *testing.T) {
	te := newTestEnv(t)
	ctx := context.Background()
	d := te.mustDeck(t, "Deck")
	ref := te.mustUpload(t, "video", "clip.mp4", []byte("not really a video"))

	e, err := AddElement(ctx, te.Env, te.owner, AddElementInput{SlideID: d.FirstSlide.ID, Type: "UPLOADED_VIDEO", Content: &ref})
	if err != nil {
		t.Fatalf("AddElement failed: %v", err)
	}
	assertCode(t, DeleteElement(ctx, te.Env, te.other, e.ID), errors.ErrForbidden)

	if err := DeleteElement(ctx, te.Env, te.owner, e.ID); err != nil {
		t.Fatalf("DeleteElement failed: %v", err)
	}
	if te.stored(t, ref) {
		t.Error("uploaded file survived element deletion")
	}
	assertCode(t, DeleteElement(ctx, te.Env, te.owner, e.ID), errors.ErrNotFound)
}

func TestValidMediaRef(t *testing.T) {
	tests := []struct {
		ref  string
		want bool
	}{
		{"/uploads/a.png", true},
		{"https://example.com/a.png", true},
		{"http://example.com/a.png", true},
		{"/uploads/../a.png", false},
		{"https://", false},
		{"javascript:alert(1)", false},
		{"", false},
	}
	for _, tt := range tests {
		if got := validMediaRef(tt.ref); got != tt.want {
			t.Errorf("validMediaRef(%q) = %v, want %v", tt.ref, got, tt.want)
		}
	}
}
