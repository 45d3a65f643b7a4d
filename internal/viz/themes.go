package viz

import "github.com/charmbracelet/lipgloss"

// Theme is the palette of the live view.
type Theme struct {
	Name    string
	Primary lipgloss.Color // graph and headers
	Accent  lipgloss.Color // selection
	Text    lipgloss.Color
	Muted   lipgloss.Color
	Chart   lipgloss.Color
	Warning lipgloss.Color
}

var (
	ThemeMono = Theme{
		Name:    "mono",
		Primary: lipgloss.Color("#ffffff"),
		Accent:  lipgloss.Color("#ff00ff"),
		Text:    lipgloss.Color("#dddddd"),
		Muted:   lipgloss.Color("#777777"),
		Chart:   lipgloss.Color("#aaaaaa"),
		Warning: lipgloss.Color("#ffaa00"),
	}

	ThemeEmber = Theme{
		Name:    "ember",
		Primary: lipgloss.Color("#ff8c42"),
		Accent:  lipgloss.Color("#ffd23f"),
		Text:    lipgloss.Color("#fff1e6"),
		Muted:   lipgloss.Color("#8c5a3c"),
		Chart:   lipgloss.Color("#ff5e5b"),
		Warning: lipgloss.Color("#ffd23f"),
	}

	ThemeGlacier = Theme{
		Name:    "glacier",
		Primary: lipgloss.Color("#7fdbff"),
		Accent:  lipgloss.Color("#f012be"),
		Text:    lipgloss.Color("#e0f7ff"),
		Muted:   lipgloss.Color("#4a7890"),
		Chart:   lipgloss.Color("#39cccc"),
		Warning: lipgloss.Color("#ffdc00"),
	}

	ThemeMatrix = Theme{
		Name:    "matrix",
		Primary: lipgloss.Color("#00ff41"),
		Accent:  lipgloss.Color("#d1ff00"),
		Text:    lipgloss.Color("#b8ffc6"),
		Muted:   lipgloss.Color("#006b1b"),
		Chart:   lipgloss.Color("#00c832"),
		Warning: lipgloss.Color("#ffff00"),
	}

	Themes = []Theme{ThemeMono, ThemeEmber, ThemeGlacier, ThemeMatrix}
)

// GetTheme returns the named theme, or the first one.
func GetTheme(name string) Theme {
	for _, t := range Themes {
		if t.Name == name {
			return t
		}
	}
	return Themes[0]
}

// NextTheme returns the theme after t, wrapping around.
func NextTheme(t Theme) Theme {
	for i, th := range Themes {
		if th.Name == t.Name {
			return Themes[(i+1)%len(Themes)]
		}
	}
	return Themes[0]
}

func ThemeNames() []string {
	names := make([]string, len(Themes))
	for i, t := range Themes {
		names[i] = t.Name
	}
	return names
}
