package ui

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInitTheme(t *testing.T) {
	t.Cleanup(func() { InitTheme(string(ThemeDark)) })

	InitTheme("light")
	assert.Equal(t, ThemeLight, CurrentTheme())
	assert.Equal(t, lightPalette.Accent, currentStyles().title.GetForeground())

	InitTheme("bogus")
	assert.Equal(t, ThemeDark, CurrentTheme())
	assert.Equal(t, darkPalette.Accent, currentStyles().title.GetForeground())
}
