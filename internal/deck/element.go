package deck

import (
	"fmt"
	"strings"
)

// Kind identifies an element variant.
type Kind string

const (
	KindText          Kind = "TEXT"
	KindImage         Kind = "IMAGE"
	KindUploadedVideo Kind = "VIDEO_UPLOADED"
	KindYouTube       Kind = "VIDEO_YOUTUBE"
	KindAudio         Kind = "AUDIO"
)

// DefaultFontSize applies to text elements created without a size.
const DefaultFontSize = 24

// DefaultText is the content of a text element created without one.
const DefaultText = "Новый текст"

// legacyKinds maps wire names used by older clients.
var legacyKinds = map[string]Kind{
	"UPLOADED_VIDEO": KindUploadedVideo,
	"YOUTUBE_VIDEO":  KindYouTube,
	"VIDEO":          KindUploadedVideo,
	"YOUTUBE":        KindYouTube,
}

// ParseKind parses an element type name, accepting legacy aliases.
func ParseKind(s string) (Kind, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	switch k := Kind(s); k {
	case KindText, KindImage, KindUploadedVideo, KindYouTube, KindAudio:
		return k, nil
	}
	if k, ok := legacyKinds[s]; ok {
		return k, nil
	}
	return "", fmt.Errorf("unknown element type %q", s)
}

// Payload is the closed set of element variants. Every variant dispatches
// through Visitor, so a new variant must be handled by every visitor
// before the code compiles.
type Payload interface {
	Kind() Kind

	// Content is the value persisted in the element's content column.
	Content() string

	Accept(v Visitor) error

	sealed()
}

// Visitor handles each element variant.
type Visitor interface {
	VisitText(Text) error
	VisitImage(Image) error
	VisitUploadedVideo(UploadedVideo) error
	VisitYouTube(YouTube) error
	VisitAudio(Audio) error
}

// Text is a text box.
type Text struct {
	Body     string
	FontSize int
}

// Image is a picture from storage or a remote URL.
type Image struct {
	Ref string
}

// UploadedVideo is a video file from storage.
type UploadedVideo struct {
	Ref string
}

// YouTube is an embedded YouTube video.
type YouTube struct {
	VideoID string
}

// Audio is an audio file from storage.
type Audio struct {
	Ref string
}

func (Text) Kind() Kind          { return KindText }
func (Image) Kind() Kind         { return KindImage }
func (UploadedVideo) Kind() Kind { return KindUploadedVideo }
func (YouTube) Kind() Kind       { return KindYouTube }
func (Audio) Kind() Kind         { return KindAudio }

func (p Text) Content() string          { return p.Body }
func (p Image) Content() string         { return p.Ref }
func (p UploadedVideo) Content() string { return p.Ref }
func (p YouTube) Content() string       { return p.VideoID }
func (p Audio) Content() string         { return p.Ref }

func (p Text) Accept(v Visitor) error          { return v.VisitText(p) }
func (p Image) Accept(v Visitor) error         { return v.VisitImage(p) }
func (p UploadedVideo) Accept(v Visitor) error { return v.VisitUploadedVideo(p) }
func (p YouTube) Accept(v Visitor) error       { return v.VisitYouTube(p) }
func (p Audio) Accept(v Visitor) error         { return v.VisitAudio(p) }

func (Text) sealed()          {}
func (Image) sealed()         {}
func (UploadedVideo) sealed() {}
func (YouTube) sealed()       {}
func (Audio) sealed()         {}

// NewPayload builds a payload from its persisted or submitted form.
// YouTube content may be any supported URL or a bare 11-character id.
func NewPayload(kind Kind, content string, fontSize int) (Payload, error) {
	switch kind {
	case KindText:
		if fontSize <= 0 {
			fontSize = DefaultFontSize
		}
		return Text{Body: content, FontSize: fontSize}, nil
	case KindImage:
		return Image{Ref: strings.TrimSpace(content)}, nil
	case KindUploadedVideo:
		return UploadedVideo{Ref: strings.TrimSpace(content)}, nil
	case KindAudio:
		return Audio{Ref: strings.TrimSpace(content)}, nil
	case KindYouTube:
		id, ok := ExtractYouTubeID(content)
		if !ok {
			return nil, fmt.Errorf("invalid YouTube link: %q", content)
		}
		return YouTube{VideoID: id}, nil
	default:
		return nil, fmt.Errorf("unknown element type %q", kind)
	}
}

// FontSize returns the font size of a text payload, or 0.
func FontSize(p Payload) int {
	if t, ok := p.(Text); ok {
		return t.FontSize
	}
	return 0
}

// MediaRef returns the stored media reference of a payload that points at
// an uploaded file, if any. Text and YouTube payloads have none.
func MediaRef(p Payload) (string, bool) {
	switch v := p.(type) {
	case Image:
		return v.Ref, v.Ref != ""
	case UploadedVideo:
		return v.Ref, v.Ref != ""
	case Audio:
		return v.Ref, v.Ref != ""
	}
	return "", false
}
