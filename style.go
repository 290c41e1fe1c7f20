package main

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

var paragraphStyle = lipgloss.NewStyle().Margin(1, 2, 0, 2)

func paragraph(s string) string {
	return paragraphStyle.Render(s)
}

func keyword(s string) string {
	color := lipgloss.Color("#04B575")
	if termenv.HasDarkBackground() {
		color = lipgloss.Color("#ECFD65")
	}
	return lipgloss.NewStyle().Foreground(color).Render(s)
}
