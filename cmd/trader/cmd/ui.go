package cmd

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/Revetex/tradeguard/executor"
)

var (
	titleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7C3AED")).
		MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#3B82F6")).
		Padding(0, 1)

	cellStyle = lipgloss.NewStyle().Padding(0, 1)

	okStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10B981")).
		Bold(true)

	warnStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#F59E0B")).
		Bold(true)

	errorStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#EF4444")).
		Bold(true)
)

// renderTable draws rows under headers with a rounded border.
func renderTable(headers []string, rows [][]string) string {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("#6B7280"))).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		String()
}

func statusStyle(s string) lipgloss.Style {
	switch executor.Status(s) {
	case executor.StatusFilled, executor.StatusOpen:
		return okStyle
	case executor.StatusDuplicate, executor.StatusIgnored, executor.StatusCanceled:
		return warnStyle
	}
	return errorStyle
}

func printResult(r executor.Result) {
	line := fmt.Sprintf("%s %s", statusStyle(string(r.Status)).Render(string(r.Status)), r.OrderID)
	switch {
	case r.Status == executor.StatusFilled:
		line += fmt.Sprintf("  %s @ %s", r.FillQty, r.FillPrice.StringFixed(4))
	case r.Reason != "":
		line += "  " + r.Reason
	}
	if r.Err != nil && r.Status != executor.StatusFilled {
		line += fmt.Sprintf("  (%v)", r.Err)
	}
	fmt.Println(line)
}
