package ui

import (
	"bytes"
	"testing"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
)

func init() {
	// Plain output keeps assertions independent of the terminal.
	lipgloss.SetColorProfile(termenv.Ascii)
}

func TestFormatError(t *testing.T) {
	tests := []struct {
		name       string
		detail     string
		suggestion string
		want       string
	}{
		{"title only", "", "", "Error: boom\n"},
		{"with detail", "host \"y2\" does not exist", "", "Error: boom\n  host \"y2\" does not exist\n"},
		{"with hint", "", "run host list", "Error: boom\n  Hint: run host list\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatError("boom", tt.detail, tt.suggestion))
		})
	}
}

func TestWriters(t *testing.T) {
	var buf bytes.Buffer
	Success(&buf, "saved")
	Warn(&buf, "recalculated")
	Field(&buf, "network", "10.0.0.0/24")

	assert.Equal(t, "saved\nWarning: recalculated\n  network: 10.0.0.0/24\n", buf.String())
}
