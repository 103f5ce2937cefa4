package ops

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/hpungsan/slidecraft/internal/db"
	"github.com/hpungsan/slidecraft/internal/deck"
	"github.com/hpungsan/slidecraft/internal/errors"
	"github.com/hpungsan/slidecraft/internal/generate"
)

// ListPrompts returns every built-in instruction with any stored override
// applied.
func ListPrompts(ctx context.Context, env *Env, caller Caller) ([]PromptView, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	stored, err := db.ListPrompts(ctx, env.DB)
	if err != nil {
		return nil, err
	}
	overrides := make(map[string]deck.Prompt, len(stored))
	for _, p := range stored {
		overrides[p.Name] = p
	}

	builtins := generate.Builtins()
	out := make([]PromptView, 0, len(builtins))
	for _, b := range builtins {
		v := PromptView{Name: b.Name, Description: b.Description, Text: b.Text}
		if o, ok := overrides[b.Name]; ok {
			v.Description = o.Description
			v.Text = o.Text
			v.Overridden = true
			v.UpdatedAt = o.UpdatedAt
		}
		out = append(out, v)
	}
	return out, nil
}

// UpdatePromptInput contains parameters for the UpdatePrompt operation.
// Nil fields keep their current value.
type UpdatePromptInput struct {
	Name        string  `json:"-"`
	Description *string `json:"description"`
	Text        *string `json:"prompt_text"`
}

// UpdatePrompt stores an override for a built-in instruction.
func UpdatePrompt(ctx context.Context, env *Env, caller Caller, input UpdatePromptInput) (*PromptView, error) {
	if err := requireAdmin(caller); err != nil {
		return nil, err
	}
	builtin, ok := generate.Builtin(input.Name)
	if !ok {
		return nil, errors.NewNotFound("prompt", input.Name)
	}

	current := builtin
	stored, err := db.GetPrompt(ctx, env.DB, input.Name)
	switch {
	case err == nil:
		current = *stored
	case !errors.Is(err, errors.ErrNotFound):
		return nil, err
	}

	if input.Description != nil {
		current.Description = strings.TrimSpace(*input.Description)
	}
	if input.Text != nil {
		text := strings.TrimSpace(*input.Text)
		if text == "" {
			return nil, errors.NewInvalidRequest("prompt_text must not be empty")
		}
		current.Text = text
	}
	current.Name = builtin.Name
	current.UpdatedAt = time.Now().Unix()

	if err := db.UpsertPrompt(ctx, env.DB, &current); err != nil {
		return nil, err
	}
	env.log().Info(ctx, "updated prompt", "prompt", current.Name)
	return &PromptView{
		Name:        current.Name,
		Description: current.Description,
		Text:        current.Text,
		Overridden:  true,
		UpdatedAt:   current.UpdatedAt,
	}, nil
}

// PromptStore serves admin overrides to the chat client from the database.
type PromptStore struct {
	db *sql.DB
}

// NewPromptStore creates a PromptStore.
func NewPromptStore(database *sql.DB) *PromptStore {
	return &PromptStore{db: database}
}

// Override implements generate.PromptSource.
func (s *PromptStore) Override(ctx context.Context, name string) (string, bool, error) {
	p, err := db.GetPrompt(ctx, s.db, name)
	if err != nil {
		if errors.Is(err, errors.ErrNotFound) {
			return "", false, nil
		}
		return "", false, err
	}
	return p.Text, true, nil
}

var _ generate.PromptSource = (*PromptStore)(nil)
