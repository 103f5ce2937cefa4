package generate

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/hpungsan/slidecraft/internal/errors"
	"github.com/hpungsan/slidecraft/internal/logging"
)

// fakeModel records the last request and replies with a fixed message.
type fakeModel struct {
	reply string
	err   error
	calls int
	last  []*schema.Message
}

func (f *fakeModel) Generate(_ context.Context, in []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	f.calls++
	f.last = in
	if f.err != nil {
		return nil, f.err
	}
	return &schema.Message{Role: schema.Assistant, Content: f.reply}, nil
}

// mapPrompts serves overrides from a map.
type mapPrompts map[string]string

func (m mapPrompts) Override(_ context.Context, name string) (string, bool, error) {
	text, ok := m[name]
	return text, ok, nil
}

func TestGenerateDeckOutline_SendsInstructionAndTopic(t *testing.T) {
	fm := &fakeModel{reply: "Слайд 1"}
	c := NewClient(fm, nil, logging.Discard())

	out, err := c.GenerateDeckOutline(context.Background(), "Космос")
	if err != nil {
		t.Fatalf("GenerateDeckOutline() error = %v", err)
	}
	if out != "Слайд 1" {
		t.Errorf("out = %q, want verbatim completion", out)
	}
	if len(fm.last) != 2 {
		t.Fatalf("messages = %d, want 2", len(fm.last))
	}
	if fm.last[0].Role != schema.System || fm.last[0].Content != deckOutlineInstruction {
		t.Errorf("system message = %+v", fm.last[0])
	}
	if fm.last[1].Role != schema.User || fm.last[1].Content != "Тема презентации: Космос" {
		t.Errorf("user message = %+v", fm.last[1])
	}
}

func TestClient_OverrideWins(t *testing.T) {
	fm := &fakeModel{reply: "ok"}
	c := NewClient(fm, mapPrompts{PromptTransform: "custom"}, logging.Discard())

	if _, err := c.TransformText(context.Background(), "текст", "короче"); err != nil {
		t.Fatalf("TransformText() error = %v", err)
	}
	if fm.last[0].Content != "custom" {
		t.Errorf("system = %q, want override", fm.last[0].Content)
	}
	if !strings.Contains(fm.last[1].Content, "короче") || !strings.Contains(fm.last[1].Content, "текст") {
		t.Errorf("user = %q, want text and instruction", fm.last[1].Content)
	}
}

func TestClient_DistinctInstructions(t *testing.T) {
	fm := &fakeModel{reply: "ok"}
	c := NewClient(fm, nil, logging.Discard())
	ctx := context.Background()

	seen := map[string]bool{}
	_, _ = c.GenerateDeckOutline(ctx, "a")
	seen[fm.last[0].Content] = true
	_, _ = c.TransformText(ctx, "a", "b")
	seen[fm.last[0].Content] = true
	_, _ = c.SuggestImagePrompt(ctx, "a")
	seen[fm.last[0].Content] = true

	if len(seen) != 3 {
		t.Errorf("distinct system instructions = %d, want 3", len(seen))
	}
}

func TestClient_ErrorsAreGenerationFailed(t *testing.T) {
	fm := &fakeModel{err: fmt.Errorf("401 bad key sk-secret")}
	c := NewClient(fm, nil, logging.Discard())

	_, err := c.SuggestImagePrompt(context.Background(), "x")
	if !errors.Is(err, errors.ErrGenerationFailed) {
		t.Fatalf("error = %v, want GENERATION_FAILED", err)
	}
	if strings.Contains(err.Error(), "sk-secret") {
		t.Errorf("error leaks cause: %v", err)
	}
	if fm.calls != 1 {
		t.Errorf("calls = %d, want 1 (no retry)", fm.calls)
	}

	empty := NewClient(&fakeModel{}, nil, logging.Discard())
	if _, err := empty.GenerateDeckOutline(context.Background(), "x"); !errors.Is(err, errors.ErrGenerationFailed) {
		t.Errorf("empty completion error = %v, want GENERATION_FAILED", err)
	}
}

func TestBuiltins(t *testing.T) {
	all := Builtins()
	if len(all) != 3 {
		t.Fatalf("len(Builtins()) = %d, want 3", len(all))
	}
	all[0].Text = "mutated"
	if p, _ := Builtin(PromptDeckOutline); p.Text != deckOutlineInstruction {
		t.Error("Builtins() must return a copy")
	}
	if _, ok := Builtin("nope"); ok {
		t.Error("Builtin(nope) ok = true")
	}
}
