package widget

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSizeForPresets(t *testing.T) {
	assert.Equal(t, SizePreset{48, 48, 20}, SizeFor(SizeSmall))
	assert.Equal(t, SizePreset{60, 60, 24}, SizeFor(SizeMedium))
	assert.Equal(t, SizePreset{72, 72, 28}, SizeFor(SizeLarge))

	// Unknown sizes fall back to medium
	assert.Equal(t, SizeFor(SizeMedium), SizeFor("gigantic"))
	assert.Equal(t, SizeFor(SizeMedium), SizeFor(""))
}

func TestThemeForFallsBackToModern(t *testing.T) {
	assert.Equal(t, themePresets[ThemeModern], ThemeFor("neon"))
	assert.Equal(t, themePresets[ThemeModern], ThemeFor(""))

	assert.False(t, ThemeFor(ThemeMinimal).AllowBadge)
	assert.True(t, ThemeFor(ThemeClassic).AllowBadge)
	assert.True(t, ThemeFor(ThemeModern).AnimateIcon)
	assert.False(t, ThemeFor(ThemeClassic).AnimateIcon)
}

func TestCornerCSS(t *testing.T) {
	tests := []struct {
		position string
		want     string
	}{
		{PositionBottomRight, "bottom:10px;right:5px;"},
		{PositionBottomLeft, "bottom:10px;left:5px;"},
		{PositionTopRight, "top:10px;right:5px;"},
		{PositionTopLeft, "top:10px;left:5px;"},
		{"sideways", "bottom:10px;right:5px;"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CornerCSS(tt.position, 5, 10), tt.position)
	}
}
