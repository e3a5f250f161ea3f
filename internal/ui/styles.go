// Package ui renders command output for the terminal.
package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/lukaszraczylo/lando-hosts/internal/hosts"
)

// Colors, optimized for dark terminals
var (
	colorSuccess = lipgloss.Color("42")  // Green
	colorWarning = lipgloss.Color("220") // Yellow
	colorError   = lipgloss.Color("196") // Red
	colorMuted   = lipgloss.Color("245") // Gray
	colorAccent  = lipgloss.Color("141") // Light purple
	colorHeader  = lipgloss.Color("220") // Yellow for headers
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorHeader)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorAccent).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)
)

// Outcome indicators
var (
	writtenStyle = lipgloss.NewStyle().
			Foreground(colorSuccess).
			Bold(true)

	unchangedStyle = lipgloss.NewStyle().
			Foreground(colorMuted)

	skippedStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	failedStyle = lipgloss.NewStyle().
			Foreground(colorError)
)

// Diff styles
var (
	diffAddStyle = lipgloss.NewStyle().
			Foreground(colorSuccess)

	diffRemoveStyle = lipgloss.NewStyle().
			Foreground(colorError)

	diffHunkStyle = lipgloss.NewStyle().
			Foreground(colorAccent)
)

// Message styles
var (
	errorMsgStyle = lipgloss.NewStyle().
			Foreground(colorError).
			Bold(true)

	warningMsgStyle = lipgloss.NewStyle().
			Foreground(colorWarning)

	successMsgStyle = lipgloss.NewStyle().
			Foreground(colorSuccess)
)

// Indicator returns the status indicator for an outcome.
func Indicator(o hosts.Outcome) string {
	switch o {
	case hosts.OutcomeWritten:
		return writtenStyle.Render("●")
	case hosts.OutcomeSkippedNoChange:
		return unchangedStyle.Render("○")
	case hosts.OutcomeSkippedNoPrivilege:
		return skippedStyle.Render("◐")
	default:
		return failedStyle.Render("✗")
	}
}

// OutcomeText returns a short human label for an outcome.
func OutcomeText(o hosts.Outcome) string {
	switch o {
	case hosts.OutcomeWritten:
		return writtenStyle.Render("updated")
	case hosts.OutcomeSkippedNoChange:
		return unchangedStyle.Render("up to date")
	case hosts.OutcomeSkippedNoPrivilege:
		return skippedStyle.Render("skipped, no privilege")
	default:
		return failedStyle.Render("failed")
	}
}
