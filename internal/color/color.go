// Package color provides small helpers for coloring report output using
// ANSI escape sequences. Rendering code asks a Palette for colors so a
// single switch disables every sequence at once.
//
//nolint:revive // package name conflicts with standard library
package color

// ANSI color codes
const (
	resetCode  = "\033[0m"
	grayCode   = "\033[90m" // Bright black/gray
	greenCode  = "\033[32m"
	yellowCode = "\033[33m"
	redCode    = "\033[31m"
	cyanCode   = "\033[36m"
	boldCode   = "\033[1m"
)

// Color represents a color function that wraps text with ANSI escape
// sequences.
type Color func(text string) string

// NewColor creates a color function with the specified ANSI code.
func NewColor(ansiCode string) Color {
	return func(text string) string {
		return ansiCode + text + resetCode
	}
}

func plain(text string) string { return text }

// Palette holds the color functions used when rendering a report. The zero
// value renders everything uncolored.
type Palette struct {
	// Heading colors report section headings.
	Heading Color

	// Tag colors classification tag lists.
	Tag Color

	// HighScore, MidScore and LowScore color string entries by rank.
	HighScore Color
	MidScore  Color
	LowScore  Color

	// Muted colors metadata such as offsets and section names.
	Muted Color
}

// NewPalette returns the report palette. With enabled false every color
// function passes text through unchanged, so callers never branch.
func NewPalette(enabled bool) Palette {
	if !enabled {
		return Palette{
			Heading:   plain,
			Tag:       plain,
			HighScore: plain,
			MidScore:  plain,
			LowScore:  plain,
			Muted:     plain,
		}
	}
	return Palette{
		Heading:   NewColor(boldCode),
		Tag:       NewColor(cyanCode),
		HighScore: NewColor(redCode),
		MidScore:  NewColor(yellowCode),
		LowScore:  NewColor(greenCode),
		Muted:     NewColor(grayCode),
	}
}
