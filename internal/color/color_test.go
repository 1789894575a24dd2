//go:build test

package color

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewColor(t *testing.T) {
	red := NewColor(redCode)
	got := red("danger")
	assert.True(t, strings.HasPrefix(got, redCode))
	assert.True(t, strings.HasSuffix(got, resetCode))
	assert.Contains(t, got, "danger")
}

func TestNewPaletteDisabled(t *testing.T) {
	p := NewPalette(false)
	assert.Equal(t, "heading", p.Heading("heading"))
	assert.Equal(t, "tag", p.Tag("tag"))
	assert.Equal(t, "text", p.HighScore("text"))
	assert.Equal(t, "meta", p.Muted("meta"))
}

func TestNewPaletteEnabled(t *testing.T) {
	p := NewPalette(true)
	assert.NotEqual(t, "text", p.HighScore("text"))
	assert.Contains(t, p.Heading("h"), boldCode)
	assert.Contains(t, p.Muted("m"), grayCode)
}
