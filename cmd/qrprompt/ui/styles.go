// Package ui provides the styling and the interactive form of the qrprompt
// terminal client.
package ui

import (
	"os"
	"strconv"
	"strings"

	"qrprompt/internal/fiche"

	"github.com/charmbracelet/lipgloss"
)

var (
	// Light mode
	LightForeground = lipgloss.Color("#101F38")
	LightPrimary    = lipgloss.Color("#0B5394")
	LightMuted      = lipgloss.Color("#6B7280")
	LightBorder     = lipgloss.Color("#D0D5DD")
	LightCard       = lipgloss.Color("#FFFFFF")

	// Dark mode
	DarkForeground = lipgloss.Color("#F2F2F2")
	DarkPrimary    = lipgloss.Color("#6FA8DC")
	DarkMuted      = lipgloss.Color("#8A94A6")
	DarkBorder     = lipgloss.Color("#2A3850")
	DarkCard       = lipgloss.Color("#1A2536")

	// Semantic colors, shared by both modes. High, caution and paid follow
	// the green, orange and dashed-purple target buttons of the web page.
	Destructive = lipgloss.Color("#E53935")
	Success     = lipgloss.Color("#2E7D32")
	Warning     = lipgloss.Color("#EF6C00")
	Paid        = lipgloss.Color("#6A1B9A")
)

// Theme is a terminal colour scheme.
type Theme struct {
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	Card       lipgloss.Color
	IsDark     bool
}

// LightTheme is the palette for light terminals.
func LightTheme() Theme {
	return Theme{
		Foreground: LightForeground,
		Primary:    LightPrimary,
		Muted:      LightMuted,
		Border:     LightBorder,
		Card:       LightCard,
	}
}

// DarkTheme is the palette for dark terminals.
func DarkTheme() Theme {
	return Theme{
		Foreground: DarkForeground,
		Primary:    DarkPrimary,
		Muted:      DarkMuted,
		Border:     DarkBorder,
		Card:       DarkCard,
		IsDark:     true,
	}
}

// DetectTheme picks dark mode from COLORFGBG or QRPROMPT_DARK_MODE=1,
// light mode otherwise.
func DetectTheme() Theme {
	if colorTerm := os.Getenv("COLORFGBG"); colorTerm != "" {
		// "foreground;background"; 0-6 and 8 are dark backgrounds
		parts := strings.Split(colorTerm, ";")
		if len(parts) == 2 {
			if bgIdx, err := strconv.Atoi(parts[1]); err == nil {
				if (bgIdx >= 0 && bgIdx <= 6) || bgIdx == 8 {
					return DarkTheme()
				}
			}
		}
	}
	if os.Getenv("QRPROMPT_DARK_MODE") == "1" {
		return DarkTheme()
	}
	return LightTheme()
}

// Styles are the lipgloss styles of the form and the CLI tables.
type Styles struct {
	Theme Theme

	Header lipgloss.Style
	Footer lipgloss.Style

	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Body     lipgloss.Style
	Muted    lipgloss.Style
	Bold     lipgloss.Style

	Label     lipgloss.Style
	Focused   lipgloss.Style
	Required  lipgloss.Style
	Selected  lipgloss.Style
	Preview   lipgloss.Style
	Divider   lipgloss.Style
	Error     lipgloss.Style
	Status    lipgloss.Style
	TierHigh  lipgloss.Style
	TierWarn  lipgloss.Style
	TierPaid  lipgloss.Style
	ActiveBtn lipgloss.Style
}

// NewStyles derives every form style from theme.
func NewStyles(theme Theme) Styles {
	button := lipgloss.NewStyle().
		Padding(0, 1).
		MarginRight(1).
		Border(lipgloss.RoundedBorder())

	return Styles{
		Theme: theme,

		Header: lipgloss.NewStyle().
			Background(theme.Primary).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 2).
			Bold(true),

		Footer: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Padding(0, 2),

		Title: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true),

		Subtitle: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Italic(true),

		Body: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Bold: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Bold(true),

		Label: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Bold(true),

		Focused: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true),

		Required: lipgloss.NewStyle().
			Foreground(Destructive),

		Selected: lipgloss.NewStyle().
			Foreground(Success).
			Bold(true),

		Preview: lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border),

		Divider: lipgloss.NewStyle().
			Foreground(theme.Border),

		Error: lipgloss.NewStyle().
			Foreground(Destructive).
			Bold(true),

		Status: lipgloss.NewStyle().
			Foreground(Success),

		TierHigh: button.
			Foreground(Success).
			BorderForeground(Success),

		TierWarn: button.
			Foreground(Warning).
			BorderForeground(Warning),

		TierPaid: button.
			Foreground(Paid).
			BorderForeground(Paid).
			BorderStyle(lipgloss.Border{
				Top: "╌", Bottom: "╌", Left: "╎", Right: "╎",
				TopLeft: "╭", TopRight: "╮", BottomLeft: "╰", BottomRight: "╯",
			}),

		ActiveBtn: lipgloss.NewStyle().
			Bold(true).
			Underline(true),
	}
}

// DefaultStyles returns styles for the detected theme
func DefaultStyles() Styles {
	return NewStyles(DetectTheme())
}

// TargetStyle returns the button style for a target: paid entries are
// dashed purple, otherwise green for high and orange for caution.
func (s Styles) TargetStyle(t fiche.Target) lipgloss.Style {
	switch {
	case t.Paid:
		return s.TierPaid
	case t.Tier == fiche.TierHigh:
		return s.TierHigh
	default:
		return s.TierWarn
	}
}

// RenderDivider returns a horizontal divider
func (s Styles) RenderDivider(width int) string {
	if width < 1 {
		width = 1
	}
	return s.Divider.Render(strings.Repeat("─", width))
}
