package tui

import "github.com/charmbracelet/lipgloss"

var (
	styleActivePanel = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("39"))
	styleOtherPanel  = lipgloss.NewStyle().BorderStyle(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	styleSelected    = lipgloss.NewStyle().Reverse(true)
	styleDir         = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	styleLoading     = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	styleStatusLine  = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	styleDialogBox   = lipgloss.NewStyle().BorderStyle(lipgloss.NormalBorder()).BorderForeground(lipgloss.Color("205")).Padding(0, 1)
	styleDialogTitle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205"))
	styleJobQueued   = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	styleJobRunning  = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	styleJobDone     = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))
	styleJobFailed   = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	styleJobCanceled = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	styleLink        = lipgloss.NewStyle().Underline(true).Foreground(lipgloss.Color("39"))
	styleLinkFocused = lipgloss.NewStyle().Underline(true).Reverse(true).Foreground(lipgloss.Color("39"))
)
