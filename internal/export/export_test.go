package export

import (
	"archive/zip"
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/hpungsan/slidecraft/internal/deck"
	"github.com/hpungsan/slidecraft/internal/errors"
	"github.com/hpungsan/slidecraft/internal/layout"
	"github.com/hpungsan/slidecraft/internal/logging"
)

// recorded is one call on a fakePage.
type recorded struct {
	op    string
	rect  layout.Rect
	text  string
	color string
	font  int
	mime  string
}

type fakePage struct {
	calls []recorded
}

func (p *fakePage) FillBackground(argb string) {
	p.calls = append(p.calls, recorded{op: "fill", color: argb})
}

func (p *fakePage) AddText(r layout.Rect, text string, fontPt int) {
	p.calls = append(p.calls, recorded{op: "text", rect: r, text: text, font: fontPt})
}

func (p *fakePage) AddImage(r layout.Rect, img Media) {
	p.calls = append(p.calls, recorded{op: "image", rect: r, mime: img.MIME})
}

func (p *fakePage) AddMedia(r layout.Rect, _ Media, media Media) {
	p.calls = append(p.calls, recorded{op: "media", rect: r, mime: media.MIME})
}

func (p *fakePage) AddLink(r layout.Rect, text string) {
	p.calls = append(p.calls, recorded{op: "link", rect: r, text: text})
}

func (p *fakePage) ops() []string {
	out := make([]string, len(p.calls))
	for i, c := range p.calls {
		out[i] = c.op
	}
	return out
}

type fakeDoc struct {
	title string
	pages []*fakePage
}

func (d *fakeDoc) AddPage() Page {
	p := &fakePage{}
	d.pages = append(d.pages, p)
	return p
}

func (d *fakeDoc) Bytes() ([]byte, error) {
	return []byte("doc:" + d.title), nil
}

// mapFetcher serves media by reference; unknown references fail.
type mapFetcher struct {
	media   map[string]Media
	fetched []string
}

func (f *mapFetcher) Fetch(_ context.Context, ref string) (Media, error) {
	f.fetched = append(f.fetched, ref)
	m, ok := f.media[ref]
	if !ok {
		return Media{}, fmt.Errorf("404 for %s", ref)
	}
	return m, nil
}

type fakeConverter struct {
	got []byte
	err error
}

func (c *fakeConverter) Name() string { return "fake" }

func (c *fakeConverter) Convert(_ context.Context, pptx []byte) ([]byte, error) {
	c.got = pptx
	if c.err != nil {
		return nil, c.err
	}
	return []byte("%PDF"), nil
}

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, w, h))); err != nil {
		t.Fatalf("png.Encode() error = %v", err)
	}
	return buf.Bytes()
}

func newTestExporter(f MediaFetcher, posters *Posters, conv Converter) (*Exporter, *fakeDoc) {
	doc := &fakeDoc{}
	factory := func(title string) Document {
		doc.title = title
		return doc
	}
	return NewExporter(f, posters, factory, conv, logging.Discard()), doc
}

func element(p deck.Payload, f deck.Frame) deck.Element {
	return deck.Element{ID: "E-" + string(p.Kind()), Payload: p, Frame: f}
}

func TestBuildPPTX_BackgroundFirstThenElementsInOrder(t *testing.T) {
	bgImage := Media{Data: pngBytes(t, 16, 9), MIME: "image/png"}
	f := &mapFetcher{media: map[string]Media{"/uploads/bg.png": bgImage}}
	x, doc := newTestExporter(f, nil, nil)

	d := &deck.Deck{
		Title: "Demo",
		Slides: []deck.Slide{
			{
				Position:   1,
				Background: deck.ColorBackground("#112233"),
				Elements: []deck.Element{
					element(deck.Text{Body: "a", FontSize: 48}, deck.Frame{X: 80, Y: 60, Width: 1120, Height: 120}),
					element(deck.Text{Body: "b", FontSize: 24}, deck.Frame{X: 80, Y: 200, Width: 580, Height: 460}),
				},
			},
			{Position: 2, Background: deck.ImageBackground("/uploads/bg.png")},
		},
	}

	data, err := x.BuildPPTX(context.Background(), d)
	if err != nil {
		t.Fatalf("BuildPPTX() error = %v", err)
	}
	if string(data) != "doc:Demo" {
		t.Errorf("data = %q", data)
	}
	if len(doc.pages) != 2 {
		t.Fatalf("pages = %d, want 2", len(doc.pages))
	}

	first := doc.pages[0]
	if got := fmt.Sprint(first.ops()); got != "[fill text text]" {
		t.Fatalf("page 1 ops = %s", got)
	}
	if first.calls[0].color != "FF112233" {
		t.Errorf("fill = %q, want FF112233", first.calls[0].color)
	}
	if first.calls[1].text != "a" || first.calls[1].font != 27 {
		t.Errorf("title text = %+v, want a at 27pt", first.calls[1])
	}
	if first.calls[2].font != 14 {
		t.Errorf("body font = %d, want 14", first.calls[2].font)
	}

	second := doc.pages[1]
	if got := fmt.Sprint(second.ops()); got != "[image]" {
		t.Fatalf("page 2 ops = %s", got)
	}
	if second.calls[0].rect != layout.Page() {
		t.Errorf("background rect = %+v, want full page", second.calls[0].rect)
	}
}

func TestBuildPPTX_BackgroundFallsBackToWhite(t *testing.T) {
	x, doc := newTestExporter(&mapFetcher{}, nil, nil)

	d := &deck.Deck{Slides: []deck.Slide{
		{Position: 1, Background: deck.ImageBackground("https://gone.example/bg.png")},
		{Position: 2, Background: deck.ColorBackground("not-a-color")},
	}}
	if _, err := x.BuildPPTX(context.Background(), d); err != nil {
		t.Fatalf("BuildPPTX() error = %v", err)
	}
	for i, p := range doc.pages {
		if len(p.calls) != 1 || p.calls[0].op != "fill" || p.calls[0].color != defaultBackground {
			t.Errorf("page %d calls = %+v, want white fill", i+1, p.calls)
		}
	}
}

func TestBuildPPTX_FailedElementIsIsolated(t *testing.T) {
	x, doc := newTestExporter(&mapFetcher{}, nil, nil)

	d := &deck.Deck{Slides: []deck.Slide{{
		Position:   1,
		Background: deck.ColorBackground("#FFFFFF"),
		Elements: []deck.Element{
			element(deck.Image{Ref: "https://gone.example/a.png"}, deck.DefaultFrame),
			element(deck.Text{Body: "still here", FontSize: 24}, deck.DefaultFrame),
		},
	}}}
	if _, err := x.BuildPPTX(context.Background(), d); err != nil {
		t.Fatalf("BuildPPTX() error = %v", err)
	}
	if got := fmt.Sprint(doc.pages[0].ops()); got != "[fill text]" {
		t.Errorf("ops = %s, want [fill text]", got)
	}
}

func TestRender_ImageIsFittedAndCentered(t *testing.T) {
	f := &mapFetcher{media: map[string]Media{
		"/uploads/wide.png": {Data: pngBytes(t, 200, 100), MIME: "image/png"},
	}}
	r := NewRenderer(f, nil)
	page := &fakePage{}

	e := element(deck.Image{Ref: "/uploads/wide.png"}, deck.Frame{X: 0, Y: 0, Width: 400, Height: 400})
	if err := r.Render(context.Background(), page, e); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	want := layout.Rect{X: 0, Y: 100, W: 400, H: 200}
	if len(page.calls) != 1 || page.calls[0].rect != want {
		t.Errorf("calls = %+v, want image at %+v", page.calls, want)
	}
}

func TestRender_ImageUndecodableIsSkipped(t *testing.T) {
	f := &mapFetcher{media: map[string]Media{
		"/uploads/bad.png": {Data: []byte("not an image"), MIME: "image/png"},
	}}
	page := &fakePage{}
	err := NewRenderer(f, nil).Render(context.Background(), page, element(deck.Image{Ref: "/uploads/bad.png"}, deck.DefaultFrame))
	if err == nil {
		t.Fatal("Render() expected error for undecodable image")
	}
	if len(page.calls) != 0 {
		t.Errorf("calls = %+v, want none", page.calls)
	}
}

func TestRender_YouTubeThumbnailFallback(t *testing.T) {
	urls := deck.YouTubeThumbnailURLs("dQw4w9WgXcQ")
	f := &mapFetcher{media: map[string]Media{
		urls[1]: {Data: pngBytes(t, 480, 360), MIME: "image/jpeg"},
	}}
	page := &fakePage{}

	e := element(deck.YouTube{VideoID: "dQw4w9WgXcQ"}, deck.Frame{X: 0, Y: 0, Width: 640, Height: 360})
	if err := NewRenderer(f, nil).Render(context.Background(), page, e); err != nil {
		t.Fatalf("Render() error = %v", err)
	}
	if got := fmt.Sprint(f.fetched); got != fmt.Sprint(urls[:2]) {
		t.Errorf("fetched = %s, want first two thumbnails", got)
	}
	if got := fmt.Sprint(page.ops()); got != "[image link]" {
		t.Fatalf("ops = %s", got)
	}
	if page.calls[1].text != "https://www.youtube.com/watch?v=dQw4w9WgXcQ" {
		t.Errorf("link = %q", page.calls[1].text)
	}
	if page.calls[1].rect != page.calls[0].rect {
		t.Errorf("link rect %+v should match thumbnail rect %+v", page.calls[1].rect, page.calls[0].rect)
	}
}

func TestRender_YouTubeAllThumbnailsFail(t *testing.T) {
	page := &fakePage{}
	f := &mapFetcher{}
	err := NewRenderer(f, nil).Render(context.Background(), page, element(deck.YouTube{VideoID: "dQw4w9WgXcQ"}, deck.DefaultFrame))
	if err == nil {
		t.Fatal("Render() expected error")
	}
	if len(f.fetched) != 3 {
		t.Errorf("fetched %d thumbnails, want 3", len(f.fetched))
	}
	if len(page.calls) != 0 {
		t.Errorf("calls = %+v, want none", page.calls)
	}
}

func TestRender_UploadedMediaNeedsPoster(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, VideoPoster), pngBytes(t, 16, 9), 0600); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}
	f := &mapFetcher{media: map[string]Media{
		"/uploads/clip.mp4": {Data: []byte("mp4"), MIME: "application/octet-stream"},
		"/uploads/song.mp3": {Data: []byte("mp3"), MIME: "audio/mpeg"},
	}}
	r := NewRenderer(f, NewPosters(dir))

	page := &fakePage{}
	if err := r.Render(context.Background(), page, element(deck.UploadedVideo{Ref: "/uploads/clip.mp4"}, deck.DefaultFrame)); err != nil {
		t.Fatalf("Render(video) error = %v", err)
	}
	if len(page.calls) != 1 || page.calls[0].op != "media" || page.calls[0].mime != "video/mp4" {
		t.Errorf("calls = %+v, want one video/mp4 media", page.calls)
	}

	// No audio poster in dir.
	page = &fakePage{}
	if err := r.Render(context.Background(), page, element(deck.Audio{Ref: "/uploads/song.mp3"}, deck.DefaultFrame)); err == nil {
		t.Error("Render(audio) expected error for missing poster")
	}
	if len(page.calls) != 0 {
		t.Errorf("calls = %+v, want none", page.calls)
	}

	// Missing media.
	page = &fakePage{}
	if err := r.Render(context.Background(), page, element(deck.UploadedVideo{Ref: "/uploads/gone.mp4"}, deck.DefaultFrame)); err == nil {
		t.Error("Render(missing video) expected error")
	}
}

func TestExport_Formats(t *testing.T) {
	conv := &fakeConverter{}
	x, _ := newTestExporter(&mapFetcher{}, nil, conv)
	d := &deck.Deck{Title: "Отчёт / 2024", Slides: []deck.Slide{{Position: 1, Background: deck.ColorBackground("#FFFFFF")}}}

	pptx, err := x.Export(context.Background(), d, FormatPPTX)
	if err != nil {
		t.Fatalf("Export(pptx) error = %v", err)
	}
	if pptx.FileName != "Отчёт - 2024.pptx" || pptx.ContentType != ContentTypePPTX {
		t.Errorf("pptx = %q %q", pptx.FileName, pptx.ContentType)
	}

	pdf, err := x.Export(context.Background(), d, FormatPDF)
	if err != nil {
		t.Fatalf("Export(pdf) error = %v", err)
	}
	if pdf.FileName != "Отчёт - 2024.pdf" || string(pdf.Data) != "%PDF" {
		t.Errorf("pdf = %q %q", pdf.FileName, pdf.Data)
	}
	if string(conv.got) != string(pptx.Data) {
		t.Errorf("converter got %q, want the pptx bytes", conv.got)
	}
}

func TestExport_PDFWithoutConverter(t *testing.T) {
	x, _ := newTestExporter(&mapFetcher{}, nil, Unavailable{})
	d := &deck.Deck{Title: "t", Slides: []deck.Slide{{Position: 1, Background: deck.ColorBackground("#FFFFFF")}}}

	_, err := x.Export(context.Background(), d, FormatPDF)
	if !errors.Is(err, errors.ErrConversionFailed) {
		t.Fatalf("Export(pdf) error = %v, want CONVERSION_FAILED", err)
	}
}

func TestParseFormat(t *testing.T) {
	for in, want := range map[string]Format{"": FormatPPTX, "PPTX": FormatPPTX, " pdf ": FormatPDF} {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseFormat("docx"); !errors.Is(err, errors.ErrInvalidRequest) {
		t.Errorf("ParseFormat(docx) error = %v, want INVALID_REQUEST", err)
	}
}

func TestSanitizeFilename(t *testing.T) {
	tests := map[string]string{
		"Quarterly review": "Quarterly review",
		"../../etc":        "etc",
		"a\x00b\nc":        "abc",
		`x:"y"|z`:          "x-y-z",
		"   ":              "presentation",
		"":                 "presentation",
	}
	for in, want := range tests {
		if got := SanitizeFilename(in); got != want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestPPTXDocument_WritesZip(t *testing.T) {
	doc := NewPPTXDocument("Smoke")
	page := doc.AddPage()
	page.FillBackground("FF202020")
	page.AddText(layout.Rect{X: 80, Y: 60, W: 1120, H: 120}, "Hello", 27)
	page.AddImage(layout.Rect{X: 680, Y: 200, W: 520, H: 293}, Media{Data: pngBytes(t, 32, 18), MIME: "image/png"})
	doc.AddPage().AddLink(layout.Rect{X: 0, Y: 0, W: 640, H: 360}, "https://www.youtube.com/watch?v=dQw4w9WgXcQ")

	data, err := doc.Bytes()
	if err != nil {
		t.Fatalf("Bytes() error = %v", err)
	}
	if !bytes.HasPrefix(data, []byte("PK")) {
		t.Errorf("output is not a zip package: % x", data[:min(4, len(data))])
	}
}

func TestPPTXExport_YouTubeLinksToWatchURL(t *testing.T) {
	urls := deck.YouTubeThumbnailURLs("dQw4w9WgXcQ")
	f := &mapFetcher{media: map[string]Media{
		urls[0]: {Data: pngBytes(t, 480, 360), MIME: "image/jpeg"},
	}}
	x := NewExporter(f, nil, nil, nil, logging.Discard())
	d := &deck.Deck{Title: "Video", Slides: []deck.Slide{{
		Position:   1,
		Background: deck.ColorBackground("#FFFFFF"),
		Elements: []deck.Element{
			element(deck.YouTube{VideoID: "dQw4w9WgXcQ"}, deck.Frame{X: 100, Y: 100, Width: 640, Height: 360}),
		},
	}}}

	data, err := x.BuildPPTX(context.Background(), d)
	if err != nil {
		t.Fatalf("BuildPPTX() error = %v", err)
	}
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("zip.NewReader() error = %v", err)
	}

	read := func(name string) string {
		t.Helper()
		for _, zf := range zr.File {
			if zf.Name != name {
				continue
			}
			rc, err := zf.Open()
			if err != nil {
				t.Fatalf("open %s: %v", name, err)
			}
			defer rc.Close()
			var buf bytes.Buffer
			if _, err := buf.ReadFrom(rc); err != nil {
				t.Fatalf("read %s: %v", name, err)
			}
			return buf.String()
		}
		t.Fatalf("%s not found in package", name)
		return ""
	}

	const watch = "https://www.youtube.com/watch?v=dQw4w9WgXcQ"
	if slide := read("ppt/slides/slide1.xml"); !strings.Contains(slide, "hlinkClick") {
		t.Error("slide1.xml has no hlinkClick")
	}
	rels := read("ppt/slides/_rels/slide1.xml.rels")
	if !strings.Contains(rels, watch) || !strings.Contains(rels, "relationships/hyperlink") {
		t.Errorf("slide1.xml.rels has no hyperlink to %s:\n%s", watch, rels)
	}
}
