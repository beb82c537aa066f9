package core

import (
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxHeadingLength bounds a heading, in runes.
const MaxHeadingLength = 100

// Color tags a note with one of a fixed palette.
type Color string

const (
	ColorOrange Color = "orange"
	ColorBlue   Color = "blue"
	ColorGreen  Color = "green"
	ColorPink   Color = "pink"
	ColorWhite  Color = "white"
)

// DefaultColor is used when a note carries no color.
const DefaultColor = ColorWhite

var palette = []Color{ColorOrange, ColorBlue, ColorGreen, ColorPink, ColorWhite}

// Colors returns the palette in display order.
func Colors() []Color {
	out := make([]Color, len(palette))
	copy(out, palette)
	return out
}

// Valid reports whether c belongs to the palette.
func (c Color) Valid() bool {
	for _, p := range palette {
		if c == p {
			return true
		}
	}
	return false
}

// OrDefault returns c, or DefaultColor when c is empty.
func (c Color) OrDefault() Color {
	if c == "" {
		return DefaultColor
	}
	return c
}

func (c Color) String() string {
	return string(c)
}

// ParseColor resolves a palette name, ignoring case and surrounding space.
// An empty string yields DefaultColor.
func ParseColor(s string) (Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return DefaultColor, nil
	}
	c := Color(s)
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidColor, s)
	}
	return c, nil
}

// Note is the persisted entity.
// ID is assigned by the store on insert and never changes afterwards.
type Note struct {
	ID          int64  `json:"id" yaml:"id"`
	Heading     string `json:"heading" yaml:"heading"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Color       Color  `json:"color" yaml:"color"`
}

// HasHeading reports whether the heading has any non-space content
// and fits MaxHeadingLength.
func (n Note) HasHeading() bool {
	return strings.TrimSpace(n.Heading) != "" && utf8.RuneCountInString(n.Heading) <= MaxHeadingLength
}

// Less orders notes by heading, then id.
func Less(a, b Note) bool {
	if a.Heading != b.Heading {
		return a.Heading < b.Heading
	}
	return a.ID < b.ID
}

// EqualNotes reports whether two slices hold the same notes in the same order.
func EqualNotes(a, b []Note) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// EqualNote compares two optional notes.
func EqualNote(a, b *Note) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
