package export

import (
	"context"
	"fmt"
	"strings"

	"github.com/hpungsan/slidecraft/internal/deck"
	"github.com/hpungsan/slidecraft/internal/layout"
)

// Renderer places deck elements on a Page.
type Renderer struct {
	fetcher MediaFetcher
	posters *Posters
}

// NewRenderer creates a Renderer.
func NewRenderer(fetcher MediaFetcher, posters *Posters) *Renderer {
	return &Renderer{fetcher: fetcher, posters: posters}
}

// Render draws one element. An error means nothing was placed.
func (r *Renderer) Render(ctx context.Context, page Page, e deck.Element) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("render %s element: %v", e.Kind(), p)
		}
	}()

	return e.Payload.Accept(&elementVisitor{
		ctx:   ctx,
		r:     r,
		page:  page,
		frame: frameRect(e.Frame),
	})
}

func frameRect(f deck.Frame) layout.Rect {
	return layout.Rect{X: f.X, Y: f.Y, W: f.Width, H: f.Height}
}

type elementVisitor struct {
	ctx   context.Context
	r     *Renderer
	page  Page
	frame layout.Rect
}

func (v *elementVisitor) VisitText(t deck.Text) error {
	v.page.AddText(v.frame, t.Body, layout.FontPoints(t.FontSize))
	return nil
}

func (v *elementVisitor) VisitImage(img deck.Image) error {
	if img.Ref == "" {
		return fmt.Errorf("image has no source")
	}
	m, err := v.r.fetcher.Fetch(v.ctx, img.Ref)
	if err != nil {
		return err
	}
	w, h, err := imageSize(m.Data)
	if err != nil {
		return err
	}
	v.page.AddImage(layout.Fit(v.frame, w, h), m)
	return nil
}

func (v *elementVisitor) VisitYouTube(y deck.YouTube) error {
	var lastErr error
	for _, u := range deck.YouTubeThumbnailURLs(y.VideoID) {
		if err := v.ctx.Err(); err != nil {
			return err
		}
		m, err := v.r.fetcher.Fetch(v.ctx, u)
		if err != nil {
			lastErr = err
			continue
		}
		w, h, err := imageSize(m.Data)
		if err != nil {
			lastErr = err
			continue
		}
		fitted := layout.Fit(v.frame, w, h)
		v.page.AddImage(fitted, m)
		v.page.AddLink(fitted, deck.YouTubeWatchURL(y.VideoID))
		return nil
	}
	return fmt.Errorf("no thumbnail for video %s: %w", y.VideoID, lastErr)
}

func (v *elementVisitor) VisitUploadedVideo(u deck.UploadedVideo) error {
	return v.media(u.Ref, VideoPoster, "video/mp4")
}

func (v *elementVisitor) VisitAudio(a deck.Audio) error {
	return v.media(a.Ref, AudioPoster, "audio/mpeg")
}

func (v *elementVisitor) media(ref, posterName, defaultMIME string) error {
	if ref == "" {
		return fmt.Errorf("media has no source")
	}
	poster, err := v.r.posters.Load(posterName)
	if err != nil {
		return err
	}
	m, err := v.r.fetcher.Fetch(v.ctx, ref)
	if err != nil {
		return err
	}
	if m.MIME == "" || m.MIME == "application/octet-stream" || strings.HasPrefix(m.MIME, "text/") {
		m.MIME = defaultMIME
	}
	v.page.AddMedia(v.frame, poster, m)
	return nil
}
