package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/desertthunder/jukebox/internal/listing"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title  lipgloss.Style
	ok     lipgloss.Style
	err    lipgloss.Style
	warn   lipgloss.Style
	help   lipgloss.Style
	label  lipgloss.Style
	dialog lipgloss.Style
	toasts map[listing.Level]lipgloss.Style
}

func NewPalette(t, s, e, w, h string) *Palette {
	return &Palette{
		title:  NewBold(t).MarginBottom(1),
		ok:     NewBold(s),
		err:    NewBold(e),
		warn:   NewStyle(w),
		help:   NewEm(h),
		label:  NewBold(t).Width(14),
		dialog: lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color(e)).Padding(1, 2),
		toasts: map[listing.Level]lipgloss.Style{
			listing.Info:    NewToast(s),
			listing.Success: NewToast(s),
			listing.Warning: NewToast(w),
			listing.Danger:  NewToast(e),
		},
	}
}

// Toast returns the style for a toast of level l.
func (p *Palette) Toast(l listing.Level) lipgloss.Style {
	if s, ok := p.toasts[l]; ok {
		return s
	}
	return p.toasts[listing.Info]
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

// NewToast is a bordered box in color fg.
func NewToast(fg string) lipgloss.Style {
	return NewStyle(fg).Border(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color(fg)).Padding(0, 1)
}
