package db

import (
	"context"
	"database/sql"

	"github.com/hpungsan/slidecraft/internal/deck"
	"github.com/hpungsan/slidecraft/internal/errors"
)

// GetPrompt retrieves a stored prompt override by name.
func GetPrompt(ctx context.Context, q DBTX, name string) (*deck.Prompt, error) {
	var p deck.Prompt
	err := q.QueryRowContext(ctx, `
		SELECT name, description, prompt_text, updated_at FROM prompts WHERE name = ?
	`, name).Scan(&p.Name, &p.Description, &p.Text, &p.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("prompt", name)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return &p, nil
}

// ListPrompts returns all stored prompt overrides by name.
func ListPrompts(ctx context.Context, q DBTX) ([]deck.Prompt, error) {
	rows, err := q.QueryContext(ctx, `SELECT name, description, prompt_text, updated_at FROM prompts ORDER BY name`)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var prompts []deck.Prompt
	for rows.Next() {
		var p deck.Prompt
		if err := rows.Scan(&p.Name, &p.Description, &p.Text, &p.UpdatedAt); err != nil {
			return nil, errors.NewInternal(err)
		}
		prompts = append(prompts, p)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return prompts, nil
}

// UpsertPrompt inserts or replaces a prompt override.
func UpsertPrompt(ctx context.Context, q DBTX, p *deck.Prompt) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO prompts (name, description, prompt_text, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET
			description = excluded.description,
			prompt_text = excluded.prompt_text,
			updated_at = excluded.updated_at
	`, p.Name, p.Description, p.Text, p.UpdatedAt)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}
