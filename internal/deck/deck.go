package deck

// DefaultTitle is the title of a deck created without one.
const DefaultTitle = "Новая презентация"

// DefaultBackgroundColor is the background of a new slide.
const DefaultBackgroundColor = "#FFFFFF"

// User is an account that owns decks.
type User struct {
	// ID is a ULID that uniquely identifies this user
	ID string

	// Email is stored normalized (trimmed, lowercased)
	Email string

	// PasswordHash is a bcrypt hash
	PasswordHash string

	IsAdmin bool

	// CreatedAt is the Unix timestamp when the user registered
	CreatedAt int64
}

// Deck is a presentation: an ordered set of slides owned by one user.
type Deck struct {
	// ID is a ULID that uniquely identifies this deck
	ID string

	// OwnerID is the ID of the owning user
	OwnerID string

	Title string

	// IsTemplate marks decks offered in the template gallery
	IsTemplate bool

	// PreviewImage is an optional media reference shown in the gallery
	PreviewImage *string

	// CreatedAt is the Unix timestamp when the deck was created
	CreatedAt int64

	// UpdatedAt is the Unix timestamp of the last change to the deck or its slides
	UpdatedAt int64

	// Slides are ordered by Position; only populated by full loads
	Slides []Slide
}

// Slide is one page of a deck.
type Slide struct {
	ID     string
	DeckID string

	// Position is 1-based and contiguous within the deck
	Position int

	Background Background

	// Elements are in insertion order, which is z-order
	Elements []Element

	CreatedAt int64
}

// Background is exactly one of a solid color or an image reference.
type Background struct {
	// Color is "#RRGGBB" when the background is a fill
	Color string

	// Image is a media reference when the background is a picture
	Image string
}

// ColorBackground returns a solid fill background.
func ColorBackground(color string) Background {
	return Background{Color: color}
}

// ImageBackground returns a picture background.
func ImageBackground(ref string) Background {
	return Background{Image: ref}
}

// IsImage reports whether the background is a picture.
func (b Background) IsImage() bool {
	return b.Image != ""
}

// Frame is an element's rectangle in the 1280x720 editor space.
type Frame struct {
	X      float64
	Y      float64
	Width  float64
	Height float64
}

// DefaultFrame is the frame of an element added without one.
var DefaultFrame = Frame{X: 100, Y: 100, Width: 400, Height: 150}

// Element is one positioned content unit on a slide.
type Element struct {
	ID      string
	SlideID string
	Frame   Frame
	Payload Payload

	// Seq is the insertion order within the slide
	Seq int

	CreatedAt int64
}

// Kind returns the element's kind.
func (e Element) Kind() Kind {
	return e.Payload.Kind()
}

// Prompt is an admin-editable system instruction for the chat model.
// A stored prompt overrides the built-in instruction of the same name.
type Prompt struct {
	Name        string
	Description string
	Text        string
	UpdatedAt   int64
}
