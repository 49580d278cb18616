package formatter

import (
	"github.com/charmbracelet/lipgloss"
)

// DefaultPalette is the palette used by [Styled] when none is given.
var DefaultPalette = NewPalette("#1DB954", "#04B575", "#FF0000", "#FFA500", "#626262")

// Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title lipgloss.Style
	year  lipgloss.Style
	err   lipgloss.Style
	warn  lipgloss.Style
	muted lipgloss.Style
}

// NewPalette builds a palette from foreground colors for titles, years, errors, warnings, and muted text.
func NewPalette(title, year, err, warn, muted string) *Palette {
	return &Palette{
		title: NewBold(title).MarginBottom(1),
		year:  NewBold(year),
		err:   NewBold(err),
		warn:  NewStyle(warn),
		muted: NewEm(muted),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
