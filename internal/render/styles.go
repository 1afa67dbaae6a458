// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package render

import (
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
)

// =============================================================================
// STYLES
// =============================================================================

// Styles are the text styles used on screen. With the Ascii profile every
// style renders its input unchanged.
type Styles struct {
	Title   lipgloss.Style
	Index   lipgloss.Style
	Message lipgloss.Style
	Error   lipgloss.Style
}

// NewStyles builds the styles for w with the given color profile.
func NewStyles(w io.Writer, profile termenv.Profile) Styles {
	r := lipgloss.NewRenderer(w)
	r.SetColorProfile(profile)

	return Styles{
		// Cyan (#39), as command titles elsewhere
		Title: r.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")),

		// Dim gray (#242)
		Index: r.NewStyle().
			Foreground(lipgloss.Color("242")),

		// Blue (#75)
		Message: r.NewStyle().
			Foreground(lipgloss.Color("75")),

		// Red (#196)
		Error: r.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true),
	}
}
