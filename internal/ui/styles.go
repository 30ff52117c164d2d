package ui

import (
	"sync"

	"github.com/charmbracelet/lipgloss"
)

// Theme represents the current color scheme
type Theme string

const (
	ThemeDark  Theme = "dark"
	ThemeLight Theme = "light"
)

type palette struct {
	Border, Text, TextDim, Accent lipgloss.Color
	Green, Yellow, Red, Comment   lipgloss.Color
	SelectedBg                    lipgloss.Color
}

// Tokyo Night
var darkPalette = palette{
	Border:     lipgloss.Color("#414868"),
	Text:       lipgloss.Color("#c0caf5"),
	TextDim:    lipgloss.Color("#787fa0"),
	Accent:     lipgloss.Color("#7aa2f7"),
	Green:      lipgloss.Color("#9ece6a"),
	Yellow:     lipgloss.Color("#e0af68"),
	Red:        lipgloss.Color("#f7768e"),
	Comment:    lipgloss.Color("#787fa0"),
	SelectedBg: lipgloss.Color("#283457"),
}

// Tokyo Night Light
var lightPalette = palette{
	Border:     lipgloss.Color("#9699a3"),
	Text:       lipgloss.Color("#343b58"),
	TextDim:    lipgloss.Color("#6a6d7c"),
	Accent:     lipgloss.Color("#34548a"),
	Green:      lipgloss.Color("#485e30"),
	Yellow:     lipgloss.Color("#8f5e15"),
	Red:        lipgloss.Color("#8c4351"),
	Comment:    lipgloss.Color("#6a6d7c"),
	SelectedBg: lipgloss.Color("#c4c8da"),
}

var (
	themeMu      sync.RWMutex
	currentTheme = ThemeDark
	styles       pickerStyles
)

type pickerStyles struct {
	title    lipgloss.Style
	help     lipgloss.Style
	header   lipgloss.Style
	row      lipgloss.Style
	selected lipgloss.Style
	running  lipgloss.Style
	stopped  lipgloss.Style
	focus    lipgloss.Style
	dim      lipgloss.Style
	frame    lipgloss.Style
}

// InitTheme sets the active palette. Anything but "light" means dark.
func InitTheme(theme string) {
	themeMu.Lock()
	defer themeMu.Unlock()

	p := darkPalette
	currentTheme = ThemeDark
	if theme == string(ThemeLight) {
		p = lightPalette
		currentTheme = ThemeLight
	}
	styles = pickerStyles{
		title:    lipgloss.NewStyle().Bold(true).Foreground(p.Accent),
		help:     lipgloss.NewStyle().Foreground(p.Comment).Italic(true),
		header:   lipgloss.NewStyle().Bold(true).Foreground(p.TextDim),
		row:      lipgloss.NewStyle().Foreground(p.Text),
		selected: lipgloss.NewStyle().Bold(true).Foreground(p.Accent).Background(p.SelectedBg),
		running:  lipgloss.NewStyle().Foreground(p.Green),
		stopped:  lipgloss.NewStyle().Foreground(p.Red),
		focus:    lipgloss.NewStyle().Foreground(p.Yellow),
		dim:      lipgloss.NewStyle().Foreground(p.TextDim),
		frame:    lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(p.Border).Padding(0, 1),
	}
}

// CurrentTheme returns the active theme
func CurrentTheme() Theme {
	themeMu.RLock()
	defer themeMu.RUnlock()
	return currentTheme
}

func currentStyles() pickerStyles {
	themeMu.RLock()
	defer themeMu.RUnlock()
	return styles
}

func init() {
	InitTheme(string(ThemeDark))
}
