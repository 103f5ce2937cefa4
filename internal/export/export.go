// Package export renders decks into PPTX documents and converts them to PDF.
//
// Rendering is best effort per element: a picture that cannot be fetched or
// a missing poster skips that element with a warning, and the rest of the
// page and document are still produced.
//
// The PPTX writer has no media parts, so uploaded video and audio are placed
// as their poster image rather than as playable objects. YouTube videos get
// their thumbnail plus a strip linking to the watch page.
package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/hpungsan/slidecraft/internal/deck"
	"github.com/hpungsan/slidecraft/internal/errors"
	"github.com/hpungsan/slidecraft/internal/layout"
	"github.com/hpungsan/slidecraft/internal/logging"
)

// Format is an export file format.
type Format string

const (
	FormatPPTX Format = "pptx"
	FormatPDF  Format = "pdf"
)

const (
	ContentTypePPTX = "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	ContentTypePDF  = "application/pdf"
)

const defaultBackground = "FFFFFFFF"

// ParseFormat parses "pptx" or "pdf". Empty means pptx.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatPPTX:
		return FormatPPTX, nil
	case FormatPDF:
		return FormatPDF, nil
	}
	return "", errors.NewInvalidRequest(fmt.Sprintf("unsupported export format %q: use pptx or pdf", s))
}

// File is an exported document.
type File struct {
	Data        []byte
	FileName    string
	ContentType string
}

// Exporter builds documents from fully loaded decks.
type Exporter struct {
	renderer  *Renderer
	fetcher   MediaFetcher
	newDoc    DocumentFactory
	converter Converter
	logger    logging.Logger
}

// NewExporter creates an Exporter. A nil newDoc writes PPTX through GoPPT.
func NewExporter(fetcher MediaFetcher, posters *Posters, newDoc DocumentFactory, converter Converter, logger logging.Logger) *Exporter {
	if newDoc == nil {
		newDoc = NewPPTXDocument
	}
	if converter == nil {
		converter = Unavailable{}
	}
	return &Exporter{
		renderer:  NewRenderer(fetcher, posters),
		fetcher:   fetcher,
		newDoc:    newDoc,
		converter: converter,
		logger:    logger,
	}
}

// Export renders d in the requested format.
func (x *Exporter) Export(ctx context.Context, d *deck.Deck, format Format) (*File, error) {
	pptx, err := x.BuildPPTX(ctx, d)
	if err != nil {
		return nil, err
	}

	base := SanitizeFilename(d.Title)
	switch format {
	case FormatPDF:
		pdf, err := x.converter.Convert(ctx, pptx)
		if err != nil {
			return nil, err
		}
		return &File{Data: pdf, FileName: base + ".pdf", ContentType: ContentTypePDF}, nil
	default:
		return &File{Data: pptx, FileName: base + ".pptx", ContentType: ContentTypePPTX}, nil
	}
}

// BuildPPTX renders every slide of d, in position order, into one document.
func (x *Exporter) BuildPPTX(ctx context.Context, d *deck.Deck) ([]byte, error) {
	doc := x.newDoc(d.Title)
	for _, s := range d.Slides {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		x.renderSlide(ctx, doc.AddPage(), s)
	}

	data, err := doc.Bytes()
	if err != nil {
		return nil, errors.NewInternal(err)
	}
	return data, nil
}

func (x *Exporter) renderSlide(ctx context.Context, page Page, s deck.Slide) {
	log := x.logger.With("presentation_id", s.DeckID, "slide", s.Position)

	x.renderBackground(ctx, log, page, s.Background)

	for _, e := range s.Elements {
		if err := x.renderer.Render(ctx, page, e); err != nil {
			log.Warn(ctx, "skipped element on export",
				"element_id", e.ID,
				"type", string(e.Kind()),
				"error", err,
			)
		}
	}
}

// renderBackground paints the page before any element so it sits behind
// everything. A picture that cannot be placed falls back to white.
func (x *Exporter) renderBackground(ctx context.Context, log logging.Logger, page Page, bg deck.Background) {
	if bg.IsImage() {
		m, err := x.fetcher.Fetch(ctx, bg.Image)
		if err == nil {
			page.AddImage(layout.Page(), m)
			return
		}
		log.Warn(ctx, "background image unavailable", "ref", bg.Image, "error", err)
		page.FillBackground(defaultBackground)
		return
	}

	argb, err := deck.ColorARGB(bg.Color)
	if err != nil {
		log.Warn(ctx, "invalid background color", "color", bg.Color, "error", err)
		argb = defaultBackground
	}
	page.FillBackground(argb)
}

// SanitizeFilename makes a deck title safe to use as a download name.
func SanitizeFilename(s string) string {
	s = strings.NewReplacer(
		"/", "-", `\`, "-", ":", "-", "*", "-", "?", "-",
		`"`, "", "<", "", ">", "", "|", "-",
	).Replace(s)
	s = strings.ReplaceAll(s, "..", "-")

	var b strings.Builder
	for _, r := range s {
		if r >= 32 && r != 127 {
			b.WriteRune(r)
		}
	}
	s = b.String()

	for strings.Contains(s, "--") {
		s = strings.ReplaceAll(s, "--", "-")
	}
	s = strings.Trim(strings.TrimSpace(s), "-. ")

	if s == "" {
		s = "presentation"
	}
	return s
}
