package deck

import (
	"fmt"
	"regexp"
	"strings"
)

// emailRegex is the accepted email shape.
var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9_.+-]+@[a-zA-Z0-9-]+\.[a-zA-Z0-9-.]+$`)

// hexColorRegex matches six hex digits, optionally prefixed with '#'.
var hexColorRegex = regexp.MustCompile(`^#?[0-9a-fA-F]{6}$`)

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// ValidEmail reports whether s looks like an email address.
func ValidEmail(s string) bool {
	return emailRegex.MatchString(s)
}

// NormalizeColor returns c as "#RRGGBB" (uppercase).
func NormalizeColor(c string) (string, error) {
	c = strings.TrimSpace(c)
	if !hexColorRegex.MatchString(c) {
		return "", fmt.Errorf("color must be 6 hex digits, got %q", c)
	}
	return "#" + strings.ToUpper(strings.TrimPrefix(c, "#")), nil
}

// ColorARGB converts "#RRGGBB" into the opaque "FFRRGGBB" form used by
// the PPTX writer.
func ColorARGB(c string) (string, error) {
	norm, err := NormalizeColor(c)
	if err != nil {
		return "", err
	}
	return "FF" + norm[1:], nil
}

// NormalizeTitle trims a title and substitutes the default when empty.
func NormalizeTitle(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return DefaultTitle
	}
	return s
}
