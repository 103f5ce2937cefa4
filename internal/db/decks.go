package db

import (
	"context"
	"database/sql"

	"github.com/hpungsan/slidecraft/internal/deck"
	"github.com/hpungsan/slidecraft/internal/errors"
)

const deckColumns = `id, owner_id, title, is_template, preview_image, created_at, updated_at`

// InsertDeck stores a deck header. Slides are inserted separately.
func InsertDeck(ctx context.Context, q DBTX, d *deck.Deck) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO decks (id, owner_id, title, is_template, preview_image, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.OwnerID, d.Title, boolToInt(d.IsTemplate), toNullString(d.PreviewImage), d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// GetDeck retrieves a deck header without its slides.
func GetDeck(ctx context.Context, q DBTX, id string) (*deck.Deck, error) {
	row := q.QueryRowContext(ctx, `SELECT `+deckColumns+` FROM decks WHERE id = ?`, id)
	d, err := scanDeck(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("presentation", id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return d, nil
}

// LoadDeck retrieves a deck with all slides and their elements.
func LoadDeck(ctx context.Context, q DBTX, id string) (*deck.Deck, error) {
	d, err := GetDeck(ctx, q, id)
	if err != nil {
		return nil, err
	}
	slides, err := ListSlides(ctx, q, id)
	if err != nil {
		return nil, err
	}
	byslide, err := listElementsByDeck(ctx, q, id)
	if err != nil {
		return nil, err
	}
	for i := range slides {
		slides[i].Elements = byslide[slides[i].ID]
	}
	d.Slides = slides
	return d, nil
}

// ListDecksByOwner returns the owner's non-template decks, most recently
// updated first.
func ListDecksByOwner(ctx context.Context, q DBTX, ownerID string) ([]deck.Deck, error) {
	return queryDecks(ctx, q, `
		SELECT `+deckColumns+` FROM decks
		WHERE owner_id = ? AND is_template = 0
		ORDER BY updated_at DESC, id DESC
	`, ownerID)
}

// ListTemplates returns every template deck, oldest first.
func ListTemplates(ctx context.Context, q DBTX) ([]deck.Deck, error) {
	return queryDecks(ctx, q, `
		SELECT `+deckColumns+` FROM decks
		WHERE is_template = 1
		ORDER BY created_at ASC, id ASC
	`)
}

// UpdateDeckTitle renames a deck and bumps updated_at.
func UpdateDeckTitle(ctx context.Context, q DBTX, id, title string, now int64) error {
	res, err := q.ExecContext(ctx, `UPDATE decks SET title = ?, updated_at = ? WHERE id = ?`, title, now, id)
	if err != nil {
		return errors.NewInternal(err)
	}
	return requireOneRow(res, "presentation", id)
}

// SetDeckPreview sets or clears the gallery preview image.
func SetDeckPreview(ctx context.Context, q DBTX, id string, ref *string, now int64) error {
	res, err := q.ExecContext(ctx, `UPDATE decks SET preview_image = ?, updated_at = ? WHERE id = ?`,
		toNullString(ref), now, id)
	if err != nil {
		return errors.NewInternal(err)
	}
	return requireOneRow(res, "presentation", id)
}

// TouchDeck bumps updated_at after a change to one of the deck's slides or elements.
func TouchDeck(ctx context.Context, q DBTX, id string, now int64) error {
	res, err := q.ExecContext(ctx, `UPDATE decks SET updated_at = ? WHERE id = ?`, now, id)
	if err != nil {
		return errors.NewInternal(err)
	}
	return requireOneRow(res, "presentation", id)
}

// DeleteDeck removes a deck. Slides and elements go with it through
// ON DELETE CASCADE.
func DeleteDeck(ctx context.Context, q DBTX, id string) error {
	res, err := q.ExecContext(ctx, `DELETE FROM decks WHERE id = ?`, id)
	if err != nil {
		return errors.NewInternal(err)
	}
	return requireOneRow(res, "presentation", id)
}

func queryDecks(ctx context.Context, q DBTX, query string, args ...any) ([]deck.Deck, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var decks []deck.Deck
	for rows.Next() {
		d, err := scanDeck(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		decks = append(decks, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return decks, nil
}

func scanDeck(s scanner) (*deck.Deck, error) {
	var d deck.Deck
	var isTemplate int
	var preview sql.NullString
	if err := s.Scan(&d.ID, &d.OwnerID, &d.Title, &isTemplate, &preview, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	d.IsTemplate = isTemplate != 0
	d.PreviewImage = fromNullString(preview)
	return &d, nil
}
