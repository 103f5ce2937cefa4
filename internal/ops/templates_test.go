package ops

import (
	"context"
	"testing"

	"github.com/hpungsan/slidecraft/internal/errors"
)

func TestSeedTemplates(t *testing.T) {
	te := newTestEnv(t)
	ctx := context.Background()

	_, err := SeedTemplates(ctx, te.Env, te.owner)
	assertCode(t, err, errors.ErrForbidden)

	seeded, err := SeedTemplates(ctx, te.Env, te.admin)
	if err != nil {
		t.Fatalf("SeedTemplates failed: %v", err)
	}
	if len(seeded) != len(seedTemplates) {
		t.Fatalf("len(seeded) = %d, want %d", len(seeded), len(seedTemplates))
	}

	// Seeding again replaces, never duplicates.
	if _, err := SeedTemplates(ctx, te.Env, te.admin); err != nil {
		t.Fatalf("second SeedTemplates failed: %v", err)
	}
	list, err := ListTemplates(ctx, te.Env, te.owner)
	if err != nil {
		t.Fatalf("ListTemplates failed: %v", err)
	}
	if len(list) != len(seedTemplates) {
		t.Errorf("len(list) = %d after reseed, want %d", len(list), len(seedTemplates))
	}
}

func TestCreateFromTemplate_DeepCopy(t *testing.T) {
	te := newTestEnv(t)
	ctx := context.Background()

	seeded, err := SeedTemplates(ctx, te.Env, te.admin)
	if err != nil {
		t.Fatalf("SeedTemplates failed: %v", err)
	}
	tmpl := seeded[0]

	d, err := CreateFromTemplate(ctx, te.Env, te.owner, tmpl.ID)
	if err != nil {
		t.Fatalf("CreateFromTemplate failed: %v", err)
	}
	if d.ID == tmpl.ID || d.Title != tmpl.Title {
		t.Errorf("copy = %+v", d)
	}

	copyView, err := GetDeck(ctx, te.Env, te.owner, d.ID)
	if err != nil {
		t.Fatalf("GetDeck failed: %v", err)
	}
	srcView, err := GetDeck(ctx, te.Env, te.admin, tmpl.ID)
	if err != nil {
		t.Fatalf("GetDeck(template) failed: %v", err)
	}
	if copyView.IsTemplate {
		t.Error("copy is marked as template")
	}
	if len(copyView.Slides) != len(srcView.Slides) {
		t.Fatalf("slides = %d, want %d", len(copyView.Slides), len(srcView.Slides))
	}
	for i := range srcView.Slides {
		src, cp := srcView.Slides[i], copyView.Slides[i]
		if src.ID == cp.ID {
			t.Errorf("slide %d shares its id", i)
		}
		if *src.BackgroundColor != *cp.BackgroundColor || len(src.Elements) != len(cp.Elements) {
			t.Errorf("slide %d differs", i)
		}
		for j := range src.Elements {
			if src.Elements[j].ID == cp.Elements[j].ID || src.Elements[j].Content != cp.Elements[j].Content {
				t.Errorf("slide %d element %d not copied", i, j)
			}
		}
	}

	// Editing the copy leaves the template alone.
	if _, err := UpdateElement(ctx, te.Env, te.owner, UpdateElementInput{ID: copyView.Slides[0].Elements[0].ID, Content: stringPtr("Mine")}); err != nil {
		t.Fatalf("UpdateElement failed: %v", err)
	}
	srcAgain, _ := GetDeck(ctx, te.Env, te.admin, tmpl.ID)
	if srcAgain.Slides[0].Elements[0].Content == "Mine" {
		t.Error("template changed through its copy")
	}
}

func TestCreateFromTemplate_NotATemplate(t *testing.T) {
	te := newTestEnv(t)
	d := te.mustDeck(t, "Plain")

	_, err := CreateFromTemplate(context.Background(), te.Env, te.other, d.ID)
	assertCode(t, err, errors.ErrNotFound)

	_, err = CreateFromTemplate(context.Background(), te.Env, te.other, "")
	assertCode(t, err, errors.ErrInvalidRequest)
}

func TestTemplateAdmin(t *testing.T) {
	te := newTestEnv(t)
	ctx := context.Background()

	_, err := CreateTemplate(ctx, te.Env, te.owner, CreateTemplateInput{})
	assertCode(t, err, errors.ErrForbidden)

	tmpl, err := CreateTemplate(ctx, te.Env, te.admin, CreateTemplateInput{})
	if err != nil {
		t.Fatalf("CreateTemplate failed: %v", err)
	}
	if tmpl.Title != DefaultTemplateTitle {
		t.Errorf("Title = %q", tmpl.Title)
	}

	renamed, err := UpdateTemplate(ctx, te.Env, te.admin, UpdateTemplateInput{ID: tmpl.ID, Title: stringPtr("Light")})
	if err != nil {
		t.Fatalf("UpdateTemplate failed: %v", err)
	}
	if renamed.Title != "Light" {
		t.Errorf("Title = %q", renamed.Title)
	}

	first := te.mustUpload(t, "image", "p1.png", pngBytes(t, 2, 2))
	second := te.mustUpload(t, "image", "p2.png", pngBytes(t, 2, 2))
	if _, err := SetTemplatePreview(ctx, te.Env, te.admin, tmpl.ID, first); err != nil {
		t.Fatalf("SetTemplatePreview failed: %v", err)
	}
	v, err := SetTemplatePreview(ctx, te.Env, te.admin, tmpl.ID, second)
	if err != nil {
		t.Fatalf("SetTemplatePreview failed: %v", err)
	}
	if v.PreviewImage == nil || *v.PreviewImage != second {
		t.Errorf("PreviewImage = %v", v.PreviewImage)
	}
	if te.stored(t, first) {
		t.Error("replaced preview survived")
	}

	// Admins edit template slides through the deck operations.
	if _, err := AddSlide(ctx, te.Env, te.admin, tmpl.ID); err != nil {
		t.Fatalf("AddSlide on template failed: %v", err)
	}

	if err := DeleteTemplate(ctx, te.Env, te.admin, tmpl.ID); err != nil {
		t.Fatalf("DeleteTemplate failed: %v", err)
	}
	if te.stored(t, second) {
		t.Error("preview survived template deletion")
	}
	assertCode(t, DeleteTemplate(ctx, te.Env, te.admin, tmpl.ID), errors.ErrNotFound)
}
