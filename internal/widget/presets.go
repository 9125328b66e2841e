package widget

import "fmt"

// SizePreset maps a buttonSize name to fixed button geometry.
type SizePreset struct {
	Width    int
	Height   int
	IconSize int
}

var sizePresets = map[string]SizePreset{
	SizeSmall:  {Width: 48, Height: 48, IconSize: 20},
	SizeMedium: {Width: 60, Height: 60, IconSize: 24},
	SizeLarge:  {Width: 72, Height: 72, IconSize: 28},
}

// SizeFor returns the geometry for a buttonSize name, falling back to
// medium for unrecognized values.
func SizeFor(name string) SizePreset {
	if p, ok := sizePresets[name]; ok {
		return p
	}
	return sizePresets[SizeMedium]
}

// ThemePreset bundles the style and behavior decisions a theme makes.
type ThemePreset struct {
	BorderRadius string
	Border       string
	BoxShadow    string
	AllowBadge   bool
	AnimateIcon  bool
}

var themePresets = map[string]ThemePreset{
	ThemeModern: {
		BorderRadius: "50%",
		Border:       "none",
		BoxShadow:    "0 4px 24px rgba(0,0,0,0.25)",
		AllowBadge:   true,
		AnimateIcon:  true,
	},
	ThemeMinimal: {
		BorderRadius: "50%",
		Border:       "none",
		BoxShadow:    "0 2px 8px rgba(0,0,0,0.15)",
		AllowBadge:   false,
		AnimateIcon:  false,
	},
	ThemeClassic: {
		BorderRadius: "12px",
		Border:       "2px solid rgba(255,255,255,0.9)",
		BoxShadow:    "0 4px 16px rgba(0,0,0,0.2)",
		AllowBadge:   true,
		AnimateIcon:  false,
	},
}

// ThemeFor returns the preset for a theme name, falling back to modern for
// unrecognized values.
func ThemeFor(name string) ThemePreset {
	if p, ok := themePresets[name]; ok {
		return p
	}
	return themePresets[ThemeModern]
}

// CornerCSS returns the two offset declarations anchoring the widget to its
// corner, e.g. "bottom:20px;right:20px;". Unrecognized positions use the
// bottom-right formula.
func CornerCSS(position string, paddingX, paddingY int) string {
	switch position {
	case PositionBottomLeft:
		return fmt.Sprintf("bottom:%dpx;left:%dpx;", paddingY, paddingX)
	case PositionTopRight:
		return fmt.Sprintf("top:%dpx;right:%dpx;", paddingY, paddingX)
	case PositionTopLeft:
		return fmt.Sprintf("top:%dpx;left:%dpx;", paddingY, paddingX)
	default:
		return fmt.Sprintf("bottom:%dpx;right:%dpx;", paddingY, paddingX)
	}
}
