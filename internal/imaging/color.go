package imaging

import (
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ColorName is one of the eleven basic color names produced by Classify.
type ColorName string

// Basic color names. Mixed is only returned if no other rule matches, which
// cannot happen for integer input.
const (
	White   ColorName = "White"
	Black   ColorName = "Black"
	Gray    ColorName = "Gray"
	Red     ColorName = "Red"
	Orange  ColorName = "Orange"
	Yellow  ColorName = "Yellow"
	Green   ColorName = "Green"
	Cyan    ColorName = "Cyan"
	Magenta ColorName = "Magenta"
	Blue    ColorName = "Blue"
	Mixed   ColorName = "Mixed"
)

// ColorNames lists every value Classify can return, in rule order.
var ColorNames = []ColorName{
	White, Black, Gray, Red, Orange, Yellow, Green, Cyan, Magenta, Blue, Mixed,
}

// Valid reports whether n is one of the enumerated color names.
func (n ColorName) Valid() bool {
	for _, c := range ColorNames {
		if n == c {
			return true
		}
	}
	return false
}

// String returns the name as it appears in descriptions.
func (n ColorName) String() string {
	return string(n)
}

// RGBColor represents an RGB color with integer components.
//
// Components are conventionally in the range 0-255 but are not validated:
// values reported by the annotation service are truncated floats and are
// passed through as-is.
type RGBColor struct {
	R int `json:"r"` // Red component
	G int `json:"g"` // Green component
	B int `json:"b"` // Blue component
}

// Name classifies the color. It is shorthand for Classify(c.R, c.G, c.B).
func (c RGBColor) Name() ColorName {
	return Classify(c.R, c.G, c.B)
}

// Hex returns the color in "#RRGGBB" form. Components outside 0-255 are
// clamped for rendering only.
func (c RGBColor) Hex() string {
	cf := colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}
	return strings.ToUpper(cf.Clamped().Hex())
}

// String formats the color as "rgb(r, g, b)".
func (c RGBColor) String() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", c.R, c.G, c.B)
}

// Classify maps an RGB triple to a basic color name.
//
// The rules are evaluated in order and the first match wins:
//  1. White: all channels > 200
//  2. Black: all channels < 50
//  3. Gray: every pairwise absolute difference < 30
//  4. Hue by maximum channel, testing r, then g, then b:
//     - r: Orange if g > 150 and b < 100, else Red
//     - g: Yellow if r > 150 and b < 100, else Green
//     - b: Cyan if r > 150 and g > 150, Magenta if r > 150, else Blue
//  5. Mixed
//
// Ties for the maximum favor red over green over blue, so (200, 200, 50)
// is classified through the red branch as Orange.
//
// No range validation is performed. The function is pure and safe for
// concurrent use.
func Classify(r, g, b int) ColorName {
	if r > 200 && g > 200 && b > 200 {
		return White
	}
	if r < 50 && g < 50 && b < 50 {
		return Black
	}
	if absDiff(r, g) < 30 && absDiff(r, b) < 30 && absDiff(g, b) < 30 {
		return Gray
	}

	maxVal := max(r, g, b)
	switch maxVal {
	case r:
		if g > 150 && b < 100 {
			return Orange
		}
		return Red
	case g:
		if r > 150 && b < 100 {
			return Yellow
		}
		return Green
	case b:
		if r > 150 && g > 150 {
			return Cyan
		}
		if r > 150 {
			return Magenta
		}
		return Blue
	}
	return Mixed
}

func absDiff(a, b int) int {
	if a > b {
		return a - b
	}
	return b - a
}
