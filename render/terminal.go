package render

import (
	"fmt"
	"strings"

	"mealmate/grocery"

	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#8BC34A"))
	pendingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#f2f2f2"))
	checkedStyle = lipgloss.NewStyle().Strikethrough(true).Foreground(lipgloss.Color("#6b7280"))
	qtyStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#9ca3af"))
	boxStyle     = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#dce0e5")).
			Padding(0, 1)
)

// GroceryTerminal renders entries for a terminal, checked lines struck through.
func GroceryTerminal(title string, entries []grocery.Entry) string {
	if title == "" {
		title = "Grocery list"
	}
	var lines []string
	lines = append(lines, titleStyle.Render(title))
	if len(entries) == 0 {
		lines = append(lines, qtyStyle.Render("(nothing to buy)"))
	}
	for _, e := range entries {
		box, style := "[ ]", pendingStyle
		if e.Checked {
			box, style = "[x]", checkedStyle
		}
		line := fmt.Sprintf("%s %s", box, style.Render(e.DisplayName))
		if q := grocery.FormatQuantities(e.Quantities); q != "" {
			line += " " + qtyStyle.Render(q)
		}
		lines = append(lines, line)
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}
