package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

var (
	successColor = lipgloss.Color("#8BC34A") // Lime Green
	warningColor = lipgloss.Color("#FFC107") // Yellow
	errorColor   = lipgloss.Color("#e53935") // Red
	infoColor    = lipgloss.Color("#2196F3") // Blue
	mutedColor   = lipgloss.Color("#6b7280")

	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(infoColor)
	successStyle = lipgloss.NewStyle().Foreground(successColor)
	warningStyle = lipgloss.NewStyle().Foreground(warningColor)
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(errorColor)
	mutedStyle   = lipgloss.NewStyle().Foreground(mutedColor)
	labelStyle   = lipgloss.NewStyle().Width(14).Foreground(mutedColor)
)

// field renders an aligned "label value" line.
func field(label string, value interface{}) string {
	return labelStyle.Render(label) + fmt.Sprint(value)
}
