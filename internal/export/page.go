package export

import "github.com/hpungsan/slidecraft/internal/layout"

// Media is a fetched file with its MIME type.
type Media struct {
	Data []byte
	MIME string
}

// Document is an output file under construction, one Page per slide.
type Document interface {
	AddPage() Page
	Bytes() ([]byte, error)
}

// DocumentFactory starts a new Document with the given title.
type DocumentFactory func(title string) Document

// Page receives shapes in z-order. Rectangles are in logical pixels; the
// implementation owns the mapping to physical units.
type Page interface {
	// FillBackground paints the whole page with an opaque "FFRRGGBB" color.
	FillBackground(argb string)

	// AddText places a wrapping text box.
	AddText(r layout.Rect, text string, fontPt int)

	// AddImage places a picture stretched to r.
	AddImage(r layout.Rect, img Media)

	// AddMedia places a video or audio object shown through its poster.
	AddMedia(r layout.Rect, poster Media, media Media)

	// AddLink places a strip over the bottom of r showing url and opening it
	// on click.
	AddLink(r layout.Rect, url string)
}
