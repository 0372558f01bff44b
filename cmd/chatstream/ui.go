package main

import "github.com/charmbracelet/lipgloss"

var (
	userPrompt  = lipgloss.NewStyle().Foreground(lipgloss.Color("82")).Bold(true).Render("you> ")
	agentPrompt = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Render("agent> ")
	toolStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	dimStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	titleStyle  = lipgloss.NewStyle().Bold(true)
)
