package ui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1")).Bold(true)
	stepStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("6"))
	dimStyle     = lipgloss.NewStyle().Faint(true)
)

func render(style lipgloss.Style, s string) string {
	if !active.Color {
		return s
	}
	return style.Render(s)
}

// glyph picks the decorated prefix or its plain fallback per the active
// policy.
func glyph(decorated, plain string) string {
	if active.Emoji {
		return decorated
	}
	return plain
}

// Step formats a progress step line.
func Step(format string, args ...any) string {
	return render(stepStyle, glyph("→ ", "-> ")+fmt.Sprintf(format, args...))
}

// Success formats a completion line.
func Success(format string, args ...any) string {
	return render(successStyle, glyph("✓ ", "ok: ")+fmt.Sprintf(format, args...))
}

// Warning formats a warning line.
func Warning(format string, args ...any) string {
	return render(warnStyle, "Warning: "+fmt.Sprintf(format, args...))
}

// Error formats an error line.
func Error(format string, args ...any) string {
	return render(errorStyle, "Error: "+fmt.Sprintf(format, args...))
}

// Detail formats a dim secondary line.
func Detail(format string, args ...any) string {
	return render(dimStyle, "  "+fmt.Sprintf(format, args...))
}
