package generate

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Markers in the completion text. Keys are matched by substring, so
// "1. Название слайда" and "**Название слайда**" both count.
const (
	slideMarker    = "Слайд "
	titleKey       = "Название слайда"
	bodyKey        = "Текст слайда"
	imagePromptKey = "Картинка слайда"
)

// Draft is one slide recovered from a completion.
type Draft struct {
	Title       string
	Body        string
	ImagePrompt string
}

// ParseResult holds the drafts plus what the parser threw away.
type ParseResult struct {
	Drafts []Draft

	// DroppedLines are non-empty lines that matched no key, excluding
	// each chunk's leading slide-number line.
	DroppedLines []string

	// DroppedChunks counts chunks discarded for lacking a title.
	DroppedChunks int
}

var markdown = goldmark.New()

// numberPrefix matches "2024. " style openings, which markdown would
// otherwise read as an ordered list and drop.
var numberPrefix = regexp.MustCompile(`^\d+[.)]\s+`)

// ParseSlides splits a completion into drafts. It never fails: malformed
// input just yields fewer drafts.
func ParseSlides(completion string) ParseResult {
	var res ParseResult

	for _, chunk := range strings.Split(strings.TrimSpace(completion), slideMarker) {
		chunk = strings.TrimSpace(chunk)
		if chunk == "" {
			continue
		}

		var d Draft
		for i, line := range strings.Split(chunk, "\n") {
			key, value, found := strings.Cut(line, ":")
			if !found {
				if i > 0 && strings.TrimSpace(line) != "" {
					res.DroppedLines = append(res.DroppedLines, line)
				}
				continue
			}
			key = strings.TrimSpace(key)
			value = strings.TrimSpace(value)

			switch {
			case strings.Contains(key, titleKey):
				d.Title = cleanMarkdown(value)
			case strings.Contains(key, bodyKey):
				d.Body = cleanMarkdown(value)
			case strings.Contains(key, imagePromptKey):
				d.ImagePrompt = cleanMarkdown(value)
			default:
				if i > 0 {
					res.DroppedLines = append(res.DroppedLines, line)
				}
			}
		}

		if d.Title == "" {
			res.DroppedChunks++
			continue
		}
		res.Drafts = append(res.Drafts, d)
	}

	return res
}

// cleanMarkdown strips stray inline markup (emphasis, headings, code spans,
// link targets) and keeps the text. Anything that is not markup for us is
// written back from the source: raw HTML, autolinks, entities and
// intraword delimiters such as the stars in "2*3*4".
func cleanMarkdown(s string) string {
	if s == "" {
		return ""
	}
	if loc := numberPrefix.FindStringIndex(s); loc != nil {
		return strings.TrimSpace(s[:loc[1]] + cleanMarkdown(s[loc[1]:]))
	}
	src := []byte(s)
	doc := markdown.Parser().Parse(text.NewReader(src))

	var b strings.Builder
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if e, ok := n.(*ast.Emphasis); ok {
			if delim, ok := intrawordDelimiter(e, src); ok {
				b.WriteString(delim)
			}
			return ast.WalkContinue, nil
		}
		if !entering {
			return ast.WalkContinue, nil
		}
		if n.Type() == ast.TypeBlock && n.Kind() != ast.KindDocument && b.Len() > 0 {
			b.WriteByte(' ')
		}
		switch t := n.(type) {
		case *ast.Text:
			b.Write(t.Segment.Value(src))
			if t.SoftLineBreak() || t.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(t.Value)
		case *ast.RawHTML:
			for i := 0; i < t.Segments.Len(); i++ {
				seg := t.Segments.At(i)
				b.Write(seg.Value(src))
			}
		case *ast.HTMLBlock:
			lines := t.Lines()
			for i := 0; i < lines.Len(); i++ {
				seg := lines.At(i)
				b.Write(seg.Value(src))
				b.WriteByte(' ')
			}
			if t.HasClosure() {
				b.Write(t.ClosureLine.Value(src))
			}
		case *ast.AutoLink:
			b.Write(t.Label(src))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})

	return strings.Join(strings.Fields(b.String()), " ")
}

// intrawordDelimiter reports the delimiter run of an emphasis that sits
// inside a word. Those are literal characters, not markup.
func intrawordDelimiter(e *ast.Emphasis, src []byte) (string, bool) {
	first, last := firstText(e), lastText(e)
	if first == nil || last == nil {
		return "", false
	}
	open := first.Segment.Start - e.Level
	end := last.Segment.Stop + e.Level
	if open < 0 || end > len(src) {
		return "", false
	}
	delim := src[open:first.Segment.Start]
	if string(src[last.Segment.Stop:end]) != string(delim) || strings.Trim(string(delim), "*_") != "" {
		return "", false
	}
	if !wordRuneBefore(src[:open]) && !wordRuneAfter(src[end:]) {
		return "", false
	}
	return string(delim), true
}

func firstText(n ast.Node) *ast.Text {
	for c := n.FirstChild(); c != nil; c = c.FirstChild() {
		if t, ok := c.(*ast.Text); ok {
			return t
		}
	}
	return nil
}

func lastText(n ast.Node) *ast.Text {
	for c := n.LastChild(); c != nil; c = c.LastChild() {
		if t, ok := c.(*ast.Text); ok {
			return t
		}
	}
	return nil
}

func wordRuneBefore(b []byte) bool {
	r, size := utf8.DecodeLastRune(b)
	return size > 0 && (unicode.IsLetter(r) || unicode.IsDigit(r))
}

func wordRuneAfter(b []byte) bool {
	r, size := utf8.DecodeRune(b)
	return size > 0 && (unicode.IsLetter(r) || unicode.IsDigit(r))
}
