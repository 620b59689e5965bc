// Package ui provides the visual styling and reusable view components for
// the paperchat terminal interface, with light/dark mode support.
package ui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Color palette: indigo ink and amber highlights on paper tones.
var (
	// Light Mode Colors (Default)
	LightBackground = lipgloss.Color("#f7f5f0") // warm paper white
	LightForeground = lipgloss.Color("#20242e") // ink
	LightPrimary    = lipgloss.Color("#3d4fb0") // indigo
	LightAccent     = lipgloss.Color("#d9822b") // amber
	LightSecondary  = lipgloss.Color("#e9e5dc") // aged paper
	LightMuted      = lipgloss.Color("#8b8b83") // pencil grey
	LightBorder     = lipgloss.Color("#ddd8cc") // faint rule
	LightCard       = lipgloss.Color("#ffffff") // white sheet

	// Dark Mode Colors
	DarkBackground = lipgloss.Color("#171b26") // midnight
	DarkForeground = lipgloss.Color("#ecebe6") // off-white
	DarkPrimary    = lipgloss.Color("#8fa3e8") // indigo lightened
	DarkAccent     = lipgloss.Color("#e8a04c") // amber lightened
	DarkSecondary  = lipgloss.Color("#232a3a") // deep slate
	DarkMuted      = lipgloss.Color("#6f7585") // dim grey
	DarkBorder     = lipgloss.Color("#2e3547") // subtle rule
	DarkCard       = lipgloss.Color("#1f2533") // raised slate

	// Semantic Colors (same in both modes)
	Destructive = lipgloss.Color("#e5484d") // red
	Success     = lipgloss.Color("#46a758") // green
	Warning     = lipgloss.Color("#ffc53d") // yellow
	Info        = lipgloss.Color("#0091ff") // blue

	// Knowledge mode accents
	ModeStrict    = lipgloss.Color("#0091ff") // blue: documents only
	ModeAugmented = lipgloss.Color("#12a594") // teal: documents + web
	ModeExpert    = lipgloss.Color("#8e4ec6") // purple: documents + model
)

// Theme holds the current color scheme
type Theme struct {
	Background lipgloss.Color
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Accent     lipgloss.Color
	Secondary  lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	Card       lipgloss.Color
	IsDark     bool
}

// LightTheme returns the light mode theme
func LightTheme() Theme {
	return Theme{
		Background: LightBackground,
		Foreground: LightForeground,
		Primary:    LightPrimary,
		Accent:     LightAccent,
		Secondary:  LightSecondary,
		Muted:      LightMuted,
		Border:     LightBorder,
		Card:       LightCard,
		IsDark:     false,
	}
}

// DarkTheme returns the dark mode theme
func DarkTheme() Theme {
	return Theme{
		Background: DarkBackground,
		Foreground: DarkForeground,
		Primary:    DarkPrimary,
		Accent:     DarkAccent,
		Secondary:  DarkSecondary,
		Muted:      DarkMuted,
		Border:     DarkBorder,
		Card:       DarkCard,
		IsDark:     true,
	}
}

// DetectTheme auto-detects based on terminal hints or returns light mode.
// TODO: query the terminal background via termenv instead of trusting COLORFGBG.
func DetectTheme() Theme {
	colorTerm := os.Getenv("COLORFGBG")
	if colorTerm != "" {
		// Format is usually "foreground;background"; ANSI background
		// indices 0-6 and 8 are dark in practice.
		parts := strings.Split(colorTerm, ";")
		if len(parts) == 2 {
			if bgIdx, err := strconv.Atoi(parts[1]); err == nil {
				if (bgIdx >= 0 && bgIdx <= 6) || bgIdx == 8 {
					return DarkTheme()
				}
			}
		}
	}

	if os.Getenv("PAPERCHAT_DARK_MODE") == "1" {
		return DarkTheme()
	}

	return LightTheme()
}

// ThemeFromName maps a config theme name to a Theme. Unknown names and
// "auto" fall back to detection.
func ThemeFromName(name string) Theme {
	switch strings.ToLower(name) {
	case "light":
		return LightTheme()
	case "dark":
		return DarkTheme()
	default:
		return DetectTheme()
	}
}

// Styles holds all the styled components
type Styles struct {
	Theme Theme

	// Layout
	App     lipgloss.Style
	Header  lipgloss.Style
	Footer  lipgloss.Style
	Content lipgloss.Style

	// Text
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Body     lipgloss.Style
	Muted    lipgloss.Style
	Bold     lipgloss.Style

	// Interactive
	Prompt        lipgloss.Style
	UserInput     lipgloss.Style
	AgentResponse lipgloss.Style

	// Status
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style

	// Markdown
	CodeBlock  lipgloss.Style
	InlineCode lipgloss.Style
	Blockquote lipgloss.Style
	Link       lipgloss.Style
	TableHead  lipgloss.Style

	// Components
	Spinner        lipgloss.Style
	ProgressBar    lipgloss.Style
	Divider        lipgloss.Style
	Badge          lipgloss.Style
	DropZone       lipgloss.Style
	DropZoneActive lipgloss.Style
}

// NewStyles creates a new Styles instance with the given theme
func NewStyles(theme Theme) Styles {
	return Styles{
		Theme: theme,

		// Layout styles
		App: lipgloss.NewStyle().
			Background(theme.Background).
			Foreground(theme.Foreground),

		Header: lipgloss.NewStyle().
			Background(theme.Primary).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 2).
			Bold(true),

		Footer: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Padding(0, 2),

		Content: lipgloss.NewStyle().
			Padding(1, 2),

		// Text styles
		Title: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true).
			MarginBottom(1),

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

		// Interactive styles
		Prompt: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true),

		UserInput: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		AgentResponse: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			PaddingLeft(2).
			BorderLeft(true).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(theme.Accent),

		// Status styles
		Success: lipgloss.NewStyle().
			Foreground(Success).
			Bold(true),

		Error: lipgloss.NewStyle().
			Foreground(Destructive).
			Bold(true),

		Warning: lipgloss.NewStyle().
			Foreground(Warning).
			Bold(true),

		Info: lipgloss.NewStyle().
			Foreground(Info),

		// Markdown styles
		CodeBlock: lipgloss.NewStyle().
			Background(theme.Card).
			Foreground(theme.Foreground).
			Padding(0, 2).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border),

		InlineCode: lipgloss.NewStyle().
			Background(theme.Secondary).
			Foreground(theme.Primary).
			Padding(0, 1),

		Blockquote: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Italic(true),

		Link: lipgloss.NewStyle().
			Foreground(Info).
			Underline(true),

		TableHead: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true),

		// Component styles
		Spinner: lipgloss.NewStyle().
			Foreground(theme.Accent),

		ProgressBar: lipgloss.NewStyle().
			Foreground(theme.Accent),

		Divider: lipgloss.NewStyle().
			Foreground(theme.Border),

		Badge: lipgloss.NewStyle().
			Background(theme.Accent).
			Foreground(lipgloss.Color("#ffffff")).
			Padding(0, 1).
			Bold(true),

		DropZone: lipgloss.NewStyle().
			Foreground(theme.Muted).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),

		DropZoneActive: lipgloss.NewStyle().
			Foreground(theme.Accent).
			Bold(true).
			Border(lipgloss.ThickBorder()).
			BorderForeground(theme.Accent).
			Padding(0, 1),
	}
}

// DefaultStyles returns styles with the detected theme
func DefaultStyles() Styles {
	return NewStyles(DetectTheme())
}

// ModeColor returns the accent color for a knowledge mode wire key.
func ModeColor(key string) lipgloss.Color {
	switch key {
	case "strict":
		return ModeStrict
	case "augmented":
		return ModeAugmented
	case "expert":
		return ModeExpert
	default:
		return Info
	}
}

// Logo returns the paperchat wordmark
func Logo(s Styles) string {
	logo := `
                                     _           _
  _ __  __ _ _ __  ___ _ _ __ _ _  _| |_  __ _ _| |_
 | '_ \/ _' | '_ \/ -_) '_/ _| ' \/ _' |  _/ _' |  _|
 | .__/\__,_| .__/\___|_| \__|_||_\__,_|\__\__,_|\__|
 |_|        |_|
`
	return s.Title.Foreground(s.Theme.Primary).Render(logo)
}

// RenderDivider returns a horizontal divider
func (s Styles) RenderDivider(width int) string {
	return s.Divider.Render(strings.Repeat("─", width))
}
