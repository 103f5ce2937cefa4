package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/hpungsan/slidecraft/internal/deck"
	"github.com/hpungsan/slidecraft/internal/errors"
)

const elementColumns = `id, slide_id, kind, x, y, width, height, content, font_size, seq, created_at`

// InsertElement stores an element on top of the slide's existing ones and
// sets e.Seq to the assigned insertion order.
func InsertElement(ctx context.Context, q DBTX, e *deck.Element) error {
	err := q.QueryRowContext(ctx, `
		INSERT INTO elements (id, slide_id, kind, x, y, width, height, content, font_size, seq, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?,
			(SELECT COALESCE(MAX(seq), 0) + 1 FROM elements WHERE slide_id = ?), ?)
		RETURNING seq
	`, e.ID, e.SlideID, string(e.Kind()),
		e.Frame.X, e.Frame.Y, e.Frame.Width, e.Frame.Height,
		e.Payload.Content(), deck.FontSize(e.Payload),
		e.SlideID, e.CreatedAt,
	).Scan(&e.Seq)
	if err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// GetElement retrieves an element by ID.
func GetElement(ctx context.Context, q DBTX, id string) (*deck.Element, error) {
	row := q.QueryRowContext(ctx, `SELECT `+elementColumns+` FROM elements WHERE id = ?`, id)
	e, err := scanElement(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("element", id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return e, nil
}

// ListElements returns a slide's elements in insertion order.
func ListElements(ctx context.Context, q DBTX, slideID string) ([]deck.Element, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+elementColumns+` FROM elements
		WHERE slide_id = ?
		ORDER BY seq ASC
	`, slideID)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var elems []deck.Element
	for rows.Next() {
		e, err := scanElement(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		elems = append(elems, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return elems, nil
}

// listElementsByDeck loads every element of a deck in one query, grouped by slide.
func listElementsByDeck(ctx context.Context, q DBTX, deckID string) (map[string][]deck.Element, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT e.id, e.slide_id, e.kind, e.x, e.y, e.width, e.height, e.content, e.font_size, e.seq, e.created_at
		FROM elements e
		JOIN slides s ON s.id = e.slide_id
		WHERE s.deck_id = ?
		ORDER BY e.slide_id, e.seq ASC
	`, deckID)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	out := make(map[string][]deck.Element)
	for rows.Next() {
		e, err := scanElement(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		out[e.SlideID] = append(out[e.SlideID], *e)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return out, nil
}

// UpdateElement writes an element's frame and payload.
func UpdateElement(ctx context.Context, q DBTX, e *deck.Element) error {
	res, err := q.ExecContext(ctx, `
		UPDATE elements
		SET kind = ?, x = ?, y = ?, width = ?, height = ?, content = ?, font_size = ?
		WHERE id = ?
	`, string(e.Kind()), e.Frame.X, e.Frame.Y, e.Frame.Width, e.Frame.Height,
		e.Payload.Content(), deck.FontSize(e.Payload), e.ID)
	if err != nil {
		return errors.NewInternal(err)
	}
	return requireOneRow(res, "element", e.ID)
}

// DeleteElement removes an element.
func DeleteElement(ctx context.Context, q DBTX, id string) error {
	res, err := q.ExecContext(ctx, `DELETE FROM elements WHERE id = ?`, id)
	if err != nil {
		return errors.NewInternal(err)
	}
	return requireOneRow(res, "element", id)
}

func scanElement(s scanner) (*deck.Element, error) {
	var e deck.Element
	var kind, content string
	var fontSize int
	if err := s.Scan(&e.ID, &e.SlideID, &kind,
		&e.Frame.X, &e.Frame.Y, &e.Frame.Width, &e.Frame.Height,
		&content, &fontSize, &e.Seq, &e.CreatedAt); err != nil {
		return nil, err
	}
	k, err := deck.ParseKind(kind)
	if err != nil {
		return nil, fmt.Errorf("element %s: %w", e.ID, err)
	}
	if e.Payload, err = deck.NewPayload(k, content, fontSize); err != nil {
		return nil, fmt.Errorf("element %s: %w", e.ID, err)
	}
	return &e, nil
}

// CountMediaReferences counts elements, slide backgrounds and template
// previews that still point at ref.
func CountMediaReferences(ctx context.Context, q DBTX, ref string) (int, error) {
	var n int
	err := q.QueryRowContext(ctx, `
		SELECT
			(SELECT COUNT(*) FROM elements WHERE content = ? AND kind IN ('IMAGE', 'VIDEO_UPLOADED', 'AUDIO')) +
			(SELECT COUNT(*) FROM slides WHERE background_image = ?) +
			(SELECT COUNT(*) FROM decks WHERE preview_image = ?)
	`, ref, ref, ref).Scan(&n)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}
