package db

import (
	"context"
	"database/sql"

	"github.com/hpungsan/slidecraft/internal/deck"
	"github.com/hpungsan/slidecraft/internal/errors"
)

const slideColumns = `id, deck_id, position, background_color, background_image, created_at`

// InsertSlide stores a slide header at its Position.
func InsertSlide(ctx context.Context, q DBTX, s *deck.Slide) error {
	color, image := backgroundColumns(s.Background)
	_, err := q.ExecContext(ctx, `
		INSERT INTO slides (id, deck_id, position, background_color, background_image, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, s.ID, s.DeckID, s.Position, color, image, s.CreatedAt)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ErrUniqueConstraint
		}
		return errors.NewInternal(err)
	}
	return nil
}

// GetSlide retrieves a slide header without its elements.
func GetSlide(ctx context.Context, q DBTX, id string) (*deck.Slide, error) {
	row := q.QueryRowContext(ctx, `SELECT `+slideColumns+` FROM slides WHERE id = ?`, id)
	s, err := scanSlide(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("slide", id)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return s, nil
}

// LoadSlide retrieves a slide with its elements.
func LoadSlide(ctx context.Context, q DBTX, id string) (*deck.Slide, error) {
	s, err := GetSlide(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if s.Elements, err = ListElements(ctx, q, id); err != nil {
		return nil, err
	}
	return s, nil
}

// GetFirstSlide returns the slide at position 1 with its elements.
func GetFirstSlide(ctx context.Context, q DBTX, deckID string) (*deck.Slide, error) {
	row := q.QueryRowContext(ctx, `
		SELECT `+slideColumns+` FROM slides
		WHERE deck_id = ?
		ORDER BY position ASC
		LIMIT 1
	`, deckID)
	s, err := scanSlide(row)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFound("slide", deckID)
	}
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	if s.Elements, err = ListElements(ctx, q, s.ID); err != nil {
		return nil, err
	}
	return s, nil
}

// ListSlides returns a deck's slide headers in position order.
func ListSlides(ctx context.Context, q DBTX, deckID string) ([]deck.Slide, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT `+slideColumns+` FROM slides
		WHERE deck_id = ?
		ORDER BY position ASC
	`, deckID)
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	defer rows.Close()

	var slides []deck.Slide
	for rows.Next() {
		s, err := scanSlide(rows)
		if err != nil {
			return nil, errors.NewInternal(err)
		}
		slides = append(slides, *s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewInternal(err)
	}
	return slides, nil
}

// CountSlides returns the number of slides in a deck.
func CountSlides(ctx context.Context, q DBTX, deckID string) (int, error) {
	var n int
	if err := q.QueryRowContext(ctx, `SELECT COUNT(*) FROM slides WHERE deck_id = ?`, deckID).Scan(&n); err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

// NextSlidePosition returns max(position)+1 for a deck, or 1 if it has no slides.
func NextSlidePosition(ctx context.Context, q DBTX, deckID string) (int, error) {
	var n int
	err := q.QueryRowContext(ctx, `SELECT COALESCE(MAX(position), 0) + 1 FROM slides WHERE deck_id = ?`, deckID).Scan(&n)
	if err != nil {
		return 0, errors.NewInternal(err)
	}
	return n, nil
}

// UpdateSlideBackground replaces a slide's background. Exactly one of
// color or image is stored.
func UpdateSlideBackground(ctx context.Context, q DBTX, id string, bg deck.Background) error {
	color, image := backgroundColumns(bg)
	res, err := q.ExecContext(ctx, `
		UPDATE slides SET background_color = ?, background_image = ? WHERE id = ?
	`, color, image, id)
	if err != nil {
		return errors.NewInternal(err)
	}
	return requireOneRow(res, "slide", id)
}

// DeleteSlide removes a slide and closes the gap it leaves, keeping
// positions contiguous from 1.
func DeleteSlide(ctx context.Context, q DBTX, s *deck.Slide) error {
	res, err := q.ExecContext(ctx, `DELETE FROM slides WHERE id = ?`, s.ID)
	if err != nil {
		return errors.NewInternal(err)
	}
	if err := requireOneRow(res, "slide", s.ID); err != nil {
		return err
	}

	// Shift through negative positions so the unique (deck_id, position)
	// index never sees two rows on the same number mid-update.
	if _, err := q.ExecContext(ctx, `
		UPDATE slides SET position = -(position - 1)
		WHERE deck_id = ? AND position > ?
	`, s.DeckID, s.Position); err != nil {
		return errors.NewInternal(err)
	}
	if _, err := q.ExecContext(ctx, `
		UPDATE slides SET position = -position
		WHERE deck_id = ? AND position < 0
	`, s.DeckID); err != nil {
		return errors.NewInternal(err)
	}
	return nil
}

// RenumberSlides assigns positions 1..N following ids. The caller must
// have checked that ids is exactly the deck's slide set; run inside WithTx.
func RenumberSlides(ctx context.Context, q DBTX, deckID string, ids []string) error {
	if _, err := q.ExecContext(ctx, `UPDATE slides SET position = -position WHERE deck_id = ?`, deckID); err != nil {
		return errors.NewInternal(err)
	}
	for i, id := range ids {
		res, err := q.ExecContext(ctx, `UPDATE slides SET position = ? WHERE id = ? AND deck_id = ?`, i+1, id, deckID)
		if err != nil {
			return errors.NewInternal(err)
		}
		if err := requireOneRow(res, "slide", id); err != nil {
			return err
		}
	}
	return nil
}

func backgroundColumns(bg deck.Background) (color, image sql.NullString) {
	if bg.IsImage() {
		return sql.NullString{}, sql.NullString{String: bg.Image, Valid: true}
	}
	c := bg.Color
	if c == "" {
		c = deck.DefaultBackgroundColor
	}
	return sql.NullString{String: c, Valid: true}, sql.NullString{}
}

func scanSlide(s scanner) (*deck.Slide, error) {
	var sl deck.Slide
	var color, image sql.NullString
	if err := s.Scan(&sl.ID, &sl.DeckID, &sl.Position, &color, &image, &sl.CreatedAt); err != nil {
		return nil, err
	}
	if image.Valid {
		sl.Background = deck.ImageBackground(image.String)
	} else {
		sl.Background = deck.ColorBackground(color.String)
	}
	return &sl, nil
}
