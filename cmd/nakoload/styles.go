// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/invowk/nakoload/pkg/resolve"
)

const (
	colorTitle    = lipgloss.Color("#7C3AED")
	colorMuted    = lipgloss.Color("#6B7280")
	colorOK       = lipgloss.Color("#10B981")
	colorFailure  = lipgloss.Color("#EF4444")
	colorWarning  = lipgloss.Color("#F59E0B")
	colorLocation = lipgloss.Color("#3B82F6")
	colorSource   = lipgloss.Color("#14B8A6")
)

var (
	// TitleStyle renders the program name and plugin names.
	TitleStyle = lipgloss.NewStyle().Bold(true).Foreground(colorTitle)
	// SubtitleStyle renders headings and placeholder lines such as "(cache is empty)".
	SubtitleStyle = lipgloss.NewStyle().Foreground(colorMuted)
	// SuccessStyle renders the ✓ of a completed load or cache operation.
	SuccessStyle = lipgloss.NewStyle().Foreground(colorOK)
	// ErrorStyle renders failed imports and the failure count.
	ErrorStyle = lipgloss.NewStyle().Bold(true).Foreground(colorFailure)
	// WarningStyle renders import cycles.
	WarningStyle = lipgloss.NewStyle().Foreground(colorWarning)
	// CmdStyle renders locations: paths, URLs and builtin: references.
	CmdStyle = lipgloss.NewStyle().Foreground(colorLocation)

	pluginKindStyle = lipgloss.NewStyle().Foreground(colorTitle)
	sourceKindStyle = lipgloss.NewStyle().Foreground(colorSource)
)

// kindLabel renders an artifact kind, coloring plugins and source modules apart.
func kindLabel(kind resolve.ArtifactKind) string {
	if kind == resolve.KindSourceModule {
		return sourceKindStyle.Render(string(kind))
	}
	return pluginKindStyle.Render(string(kind))
}
