// SPDX-License-Identifier: MPL-2.0

package cmd

import "github.com/charmbracelet/lipgloss"

// Color palette shared by all CLI output.
const (
	// ColorPrimary is used for titles and headers.
	ColorPrimary = lipgloss.Color("#2F9E44")
	// ColorMuted is used for secondary text.
	ColorMuted = lipgloss.Color("#6B7280")
	// ColorSuccess is used for values and positive outcomes.
	ColorSuccess = lipgloss.Color("#10B981")
	// ColorError is used for errors.
	ColorError = lipgloss.Color("#EF4444")
	// ColorWarning is used for warnings.
	ColorWarning = lipgloss.Color("#F59E0B")
	// ColorHighlight is used for command and tool names.
	ColorHighlight = lipgloss.Color("#3B82F6")
)

var (
	// TitleStyle is for section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorPrimary)

	// SubtitleStyle is for secondary text.
	SubtitleStyle = lipgloss.NewStyle().
			Foreground(ColorMuted)

	// SuccessStyle is for values.
	SuccessStyle = lipgloss.NewStyle().
			Foreground(ColorSuccess)

	// ErrorStyle is for error labels.
	ErrorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(ColorError)

	// WarningStyle is for warning labels.
	WarningStyle = lipgloss.NewStyle().
			Foreground(ColorWarning)

	// CmdStyle is for command and tool names.
	CmdStyle = lipgloss.NewStyle().
			Foreground(ColorHighlight)

	// hintStyle is for trailing hints under errors.
	hintStyle = lipgloss.NewStyle().
			Foreground(ColorMuted).
			Italic(true)
)
