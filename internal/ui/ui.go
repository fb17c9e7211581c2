// Package ui styles the human-readable CLI output.
package ui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#DC2626")).Bold(true)
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#CA8A04"))
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#16A34A"))
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280")).Italic(true)
	boldStyle    = lipgloss.NewStyle().Bold(true)
	dimStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#9CA3AF"))
)

// FormatError returns a styled multi-line error message.
func FormatError(title, detail, suggestion string) string {
	out := errorStyle.Render("Error: "+title) + "\n"
	if detail != "" {
		out += "  " + detail + "\n"
	}
	if suggestion != "" {
		out += "  " + hintStyle.Render("Hint: "+suggestion) + "\n"
	}
	return out
}

// Success writes a green success message.
func Success(w io.Writer, msg string) {
	fmt.Fprintln(w, successStyle.Render(msg))
}

// Warn writes a yellow warning message.
func Warn(w io.Writer, msg string) {
	fmt.Fprintln(w, warnStyle.Render("Warning: "+msg))
}

// Field writes an indented "label: value" line with a bold label.
func Field(w io.Writer, label, value string) {
	fmt.Fprintf(w, "  %s %s\n", boldStyle.Render(label+":"), value)
}

// Bold renders text in bold.
func Bold(s string) string {
	return boldStyle.Render(s)
}

// Dim renders text in grey.
func Dim(s string) string {
	return dimStyle.Render(s)
}

// Hint renders text in dim italic.
func Hint(s string) string {
	return hintStyle.Render(s)
}
