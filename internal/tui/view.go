package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// render draws the full dashboard.
func (m Model) render() string {
	sections := []string{
		m.renderHeader(),
		m.renderTotals(),
		m.renderStrategyTable(),
		m.renderFooter(),
	}
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m Model) renderHeader() string {
	header := fmt.Sprintf(
		" go-spawn-bench │ %s │ Elapsed: %s ",
		m.command,
		formatDuration(m.elapsed),
	)
	return headerStyle.Width(m.width).Render(header)
}

func (m Model) renderTotals() string {
	failedStyle := valueGoodStyle
	if m.failed > 0 {
		failedStyle = valueBadStyle
	}

	rows := []string{
		lipgloss.JoinHorizontal(lipgloss.Left,
			labelStyle.Render("Completed:"),
			valueStyle.Render(fmt.Sprintf("%d", m.completed)),
		),
		lipgloss.JoinHorizontal(lipgloss.Left,
			labelStyle.Render("Failed:"),
			failedStyle.Render(fmt.Sprintf("%d", m.failed)),
		),
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{sectionHeaderStyle.Render("Executions")}, rows...)...,
	)
	return boxStyle.Width(m.width - 2).Render(content)
}

func (m Model) renderStrategyTable() string {
	if len(m.snapshots) == 0 {
		return boxStyle.Width(m.width - 2).Render(
			dimStyle.Render("Waiting for the first executions to complete..."),
		)
	}

	header := tableHeaderStyle.Render(
		fmt.Sprintf("%-18s %8s %9s %9s %9s %9s %9s",
			"STRATEGY", "COUNT", "MIN", "P50", "P95", "P99", "MAX"),
	)

	var rows []string
	for i, s := range m.snapshots {
		rowStyle := tableRowEvenStyle
		if i%2 == 1 {
			rowStyle = tableRowOddStyle
		}
		row := fmt.Sprintf("%-18s %8d %9s %9s %9s %9s %9s",
			s.Strategy,
			s.Count,
			formatLatency(s.Min),
			formatLatency(s.P50),
			formatLatency(s.P95),
			formatLatency(s.P99),
			formatLatency(s.Max),
		)
		rows = append(rows, rowStyle.Render(row))
	}

	content := lipgloss.JoinVertical(lipgloss.Left,
		append([]string{
			sectionHeaderStyle.Render("Latency by Strategy"),
			header,
		}, rows...)...,
	)
	return boxStyle.Width(m.width - 2).Render(content)
}

func (m Model) renderFooter() string {
	shortcuts := []string{
		"q: quit",
		"r: refresh",
	}

	left := dimStyle.Render(strings.Join(shortcuts, " │ "))

	right := ""
	if m.metricsAddr != "" {
		right = dimStyle.Render("Metrics: http://" + m.metricsAddr + "/metrics")
	}

	padding := m.width - lipgloss.Width(left) - lipgloss.Width(right) - 2
	if padding < 1 {
		padding = 1
	}

	return footerStyle.Render(
		lipgloss.JoinHorizontal(lipgloss.Left,
			left,
			strings.Repeat(" ", padding),
			right,
		),
	)
}
