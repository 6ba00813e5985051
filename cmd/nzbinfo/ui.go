package main

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#DC2626")).Bold(true)
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#16A34A"))
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")).Italic(true)
	boldStyle    = lipgloss.NewStyle().Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
)

// formatError returns a styled multi-line error message.
func formatError(title, detail, suggestion string) string {
	out := errorStyle.Render("Error: "+title) + "\n"
	if detail != "" {
		out += "  " + detail + "\n"
	}
	if suggestion != "" {
		out += "  " + hintStyle.Render("Hint: "+suggestion) + "\n"
	}
	return out
}

// validationOK prints a green check for a valid field.
func validationOK(w io.Writer, field, detail string) {
	fmt.Fprintf(w, "  %s %s: %s\n", successStyle.Render("OK "), field, detail)
}

// validationErr prints a red error for an invalid field.
func validationErr(w io.Writer, field, message, suggestion string) {
	fmt.Fprintf(w, "  %s %s: %s\n", errorStyle.Render("ERR"), field, message)
	if suggestion != "" {
		fmt.Fprintf(w, "      %s\n", hintStyle.Render("Hint: "+suggestion))
	}
}

func bold(s string) string {
	return boldStyle.Render(s)
}
