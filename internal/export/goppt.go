package export

import (
	"bytes"
	"fmt"

	ppt "github.com/VantageDataChat/GoPPT"

	"github.com/hpungsan/slidecraft/internal/layout"
)

const (
	captionFill   = "CC000000"
	captionHeight = 32.0
	captionFontPt = 10
)

// pptDocument writes PPTX through GoPPT. GoPPT starts every presentation
// with one empty slide, which becomes the first page.
type pptDocument struct {
	p     *ppt.Presentation
	pages int
}

// NewPPTXDocument starts a 16:9 PPTX document.
func NewPPTXDocument(title string) Document {
	p := ppt.New()
	p.GetDocumentProperties().Title = title
	p.GetDocumentProperties().Creator = "slidecraft"
	return &pptDocument{p: p}
}

func (d *pptDocument) AddPage() Page {
	d.pages++
	if d.pages == 1 {
		return &pptPage{slide: d.p.GetActiveSlide()}
	}
	return &pptPage{slide: d.p.CreateSlide()}
}

func (d *pptDocument) Bytes() ([]byte, error) {
	w, err := ppt.NewWriter(d.p, ppt.WriterPowerPoint2007)
	if err != nil {
		return nil, fmt.Errorf("create pptx writer: %w", err)
	}
	pw, ok := w.(*ppt.PPTXWriter)
	if !ok {
		return nil, fmt.Errorf("unexpected writer type %T", w)
	}

	var buf bytes.Buffer
	if err := pw.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write pptx: %w", err)
	}
	return buf.Bytes(), nil
}

type pptPage struct {
	slide *ppt.Slide
}

func (pg *pptPage) FillBackground(argb string) {
	page := layout.Page()
	bg := pg.slide.CreateRichTextShape()
	bg.SetOffsetX(0).SetOffsetY(0)
	bg.SetWidth(layout.ToEMU(page.W)).SetHeight(layout.ToEMU(page.H))
	bg.SetFill(ppt.NewFill().SetSolid(ppt.NewColor(argb)))
}

func (pg *pptPage) AddText(r layout.Rect, text string, fontPt int) {
	box := pg.slide.CreateRichTextShape()
	box.SetOffsetX(layout.ToEMU(r.X)).SetOffsetY(layout.ToEMU(r.Y))
	box.SetWidth(layout.ToEMU(r.W)).SetHeight(layout.ToEMU(r.H))
	run := box.CreateTextRun(text)
	run.GetFont().SetSize(fontPt)
}

func (pg *pptPage) AddImage(r layout.Rect, img Media) {
	pic := pg.slide.CreateDrawingShape()
	pic.SetImageData(img.Data, img.MIME)
	pic.SetOffsetX(layout.ToEMU(r.X)).SetOffsetY(layout.ToEMU(r.Y))
	pic.SetWidth(layout.ToEMU(r.W)).SetHeight(layout.ToEMU(r.H))
}

// AddMedia renders the poster frame. GoPPT has no media part or media
// relationship support, so the file is not embedded and the media bytes only
// gate whether the object is placed at all.
func (pg *pptPage) AddMedia(r layout.Rect, poster Media, _ Media) {
	pg.AddImage(r, poster)
}

func (pg *pptPage) AddLink(r layout.Rect, url string) {
	h := captionHeight
	if r.H < 4*h {
		h = r.H / 4
	}
	strip := pg.slide.CreateRichTextShape()
	strip.SetOffsetX(layout.ToEMU(r.X)).SetOffsetY(layout.ToEMU(r.Y + r.H - h))
	strip.SetWidth(layout.ToEMU(r.W)).SetHeight(layout.ToEMU(h))
	strip.SetFill(ppt.NewFill().SetSolid(ppt.NewColor(captionFill)))
	run := strip.CreateTextRun(url)
	run.GetFont().SetSize(captionFontPt).SetColor(ppt.ColorWhite)
	run.SetHyperlink(ppt.NewHyperlink(url))
	strip.GetActiveParagraph().SetAlignment(ppt.NewAlignment().SetHorizontal(ppt.HorizontalCenter))
}
