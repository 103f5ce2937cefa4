// Package ops implements slidecraft's operations. Transports (HTTP, MCP,
// CLI) resolve a Caller first and pass it explicitly; operations never read
// identity from ambient request state.
package ops

import (
	"context"
	"database/sql"

	"github.com/hpungsan/slidecraft/internal/config"
	"github.com/hpungsan/slidecraft/internal/db"
	"github.com/hpungsan/slidecraft/internal/deck"
	"github.com/hpungsan/slidecraft/internal/errors"
	"github.com/hpungsan/slidecraft/internal/export"
	"github.com/hpungsan/slidecraft/internal/generate"
	"github.com/hpungsan/slidecraft/internal/logging"
	"github.com/hpungsan/slidecraft/internal/storage"
)

// Env holds the dependencies shared by operations. Operations that do not
// need a dependency tolerate it being nil.
type Env struct {
	DB       *sql.DB
	Config   *config.Config
	Store    storage.Store
	Pipeline *generate.Pipeline
	Exporter *export.Exporter
	Logger   logging.Logger

	// ExportsDir receives files written by ExportToFile.
	ExportsDir string
}

func (e *Env) log() logging.Logger {
	if e.Logger == nil {
		return logging.Discard()
	}
	return e.Logger
}

// Caller is the authenticated identity an operation runs as.
type Caller struct {
	UserID  string
	IsAdmin bool
}

func requireUser(c Caller) error {
	if c.UserID == "" {
		return errors.NewUnauthorized("authentication required")
	}
	return nil
}

func requireAdmin(c Caller) error {
	if err := requireUser(c); err != nil {
		return err
	}
	if !c.IsAdmin {
		return errors.NewForbidden()
	}
	return nil
}

// canEdit reports whether c may read and change d. Admins edit templates
// through the regular deck operations.
func canEdit(c Caller, d *deck.Deck) bool {
	return d.OwnerID == c.UserID || (d.IsTemplate && c.IsAdmin)
}

// accessDeck loads a deck header the caller may edit.
func accessDeck(ctx context.Context, q db.DBTX, c Caller, id string) (*deck.Deck, error) {
	if err := requireUser(c); err != nil {
		return nil, err
	}
	d, err := db.GetDeck(ctx, q, id)
	if err != nil {
		return nil, err
	}
	if !canEdit(c, d) {
		return nil, errors.NewForbidden()
	}
	return d, nil
}

// accessSlide loads a slide header and its deck, checking ownership.
func accessSlide(ctx context.Context, q db.DBTX, c Caller, id string) (*deck.Slide, *deck.Deck, error) {
	if err := requireUser(c); err != nil {
		return nil, nil, err
	}
	s, err := db.GetSlide(ctx, q, id)
	if err != nil {
		return nil, nil, err
	}
	d, err := accessDeck(ctx, q, c, s.DeckID)
	if err != nil {
		return nil, nil, err
	}
	return s, d, nil
}

// accessElement loads an element with its slide and deck, checking ownership.
func accessElement(ctx context.Context, q db.DBTX, c Caller, id string) (*deck.Element, *deck.Slide, *deck.Deck, error) {
	if err := requireUser(c); err != nil {
		return nil, nil, nil, err
	}
	e, err := db.GetElement(ctx, q, id)
	if err != nil {
		return nil, nil, nil, err
	}
	s, d, err := accessSlide(ctx, q, c, e.SlideID)
	if err != nil {
		return nil, nil, nil, err
	}
	return e, s, d, nil
}

// removeMedia deletes uploaded files behind refs once nothing references
// them anymore; decks copied from templates share files. Failures are
// logged and never fail the operation that triggered them.
func (e *Env) removeMedia(ctx context.Context, refs []string) {
	if e.Store == nil {
		return
	}
	seen := make(map[string]bool, len(refs))
	for _, ref := range refs {
		name, ok := storage.NameFromRef(ref)
		if !ok || seen[ref] {
			continue
		}
		seen[ref] = true

		n, err := db.CountMediaReferences(ctx, e.DB, ref)
		if err != nil {
			e.log().Warn(ctx, "failed to count media references", "ref", ref, "error", err)
			continue
		}
		if n > 0 {
			continue
		}
		if err := e.Store.Delete(ctx, name); err != nil && !errors.Is(err, errors.ErrNotFound) {
			e.log().Warn(ctx, "failed to remove media", "ref", ref, "error", err)
		}
	}
}
