// Package styles contains Lip Gloss style definitions.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Semantic color names - Text hierarchy
	TextPrimaryColor     = lipgloss.AdaptiveColor{Light: "#333333", Dark: "#CCCCCC"} // Message bodies
	TextSecondaryColor   = lipgloss.AdaptiveColor{Light: "#AAAAAA", Dark: "#BBBBBB"} // Timestamps, room ids
	TextMutedColor       = lipgloss.AdaptiveColor{Light: "#999999", Dark: "#696969"} // Hints, help text
	TextPlaceholderColor = lipgloss.AdaptiveColor{Light: "#666666", Dark: "#777777"} // Input placeholders

	// Semantic color names - Border
	BorderDefaultColor = lipgloss.AdaptiveColor{Light: "#D9DCCF", Dark: "#696969"} // Unfocused pane borders
	BorderFocusColor   = lipgloss.AdaptiveColor{Light: "#54A0FF", Dark: "#54A0FF"} // Focused pane border

	// Semantic color names - Status
	StatusSuccessColor = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	StatusWarningColor = lipgloss.AdaptiveColor{Light: "#FECA57", Dark: "#FECA57"}
	StatusErrorColor   = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"}

	// Vi mode indicator colors
	ViNormalModeColor  = lipgloss.AdaptiveColor{Light: "#54A0FF", Dark: "#54A0FF"}
	ViInsertModeColor  = lipgloss.AdaptiveColor{Light: "#43BF6D", Dark: "#73F59F"}
	ViReplaceModeColor = lipgloss.AdaptiveColor{Light: "#FF6B6B", Dark: "#FF8787"}
	ViVisualModeColor  = lipgloss.AdaptiveColor{Light: "#8839EF", Dark: "#CBA6F7"}

	// Chat log colors
	SpeakerColor     = lipgloss.AdaptiveColor{Light: "#1E66F5", Dark: "#89B4FA"}
	SpeakerSelfColor = lipgloss.AdaptiveColor{Light: "#179299", Dark: "#94E2D5"}
	TimestampColor   = lipgloss.AdaptiveColor{Light: "#9CA0B0", Dark: "#6C7086"}

	// Highlight (visual selection) colors
	HighlightBgColor = lipgloss.AdaptiveColor{Light: "#D0D7E2", Dark: "#45475A"}

	// Status line styles
	StatusMessageStyle = lipgloss.NewStyle().Bold(true)
	StatusModeStyle    = lipgloss.NewStyle().Bold(true)

	// Pane chrome
	PaneTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(TextPrimaryColor)
	PaneBorderStyle = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), true, false, false, false).
			BorderForeground(BorderDefaultColor)

	// Input line
	PromptStyle      = lipgloss.NewStyle().Foreground(TextSecondaryColor)
	CursorStyle      = lipgloss.NewStyle().Reverse(true)
	HighlightStyle   = lipgloss.NewStyle().Background(HighlightBgColor)
	PlaceholderStyle = lipgloss.NewStyle().Foreground(TextPlaceholderColor)

	// Chat log styles
	SpeakerStyle     = lipgloss.NewStyle().Bold(true).Foreground(SpeakerColor)
	SpeakerSelfStyle = lipgloss.NewStyle().Bold(true).Foreground(SpeakerSelfColor)
	TimestampStyle   = lipgloss.NewStyle().Foreground(TimestampColor)
	SyntheticStyle   = lipgloss.NewStyle().Foreground(StatusErrorColor)
)

// ModeColor returns the indicator color for a mode name.
func ModeColor(mode string) lipgloss.AdaptiveColor {
	switch mode {
	case "INSERT":
		return ViInsertModeColor
	case "REPLACE":
		return ViReplaceModeColor
	case "VISUAL":
		return ViVisualModeColor
	default:
		return ViNormalModeColor
	}
}
