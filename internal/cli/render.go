package cli

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/julianstephens/studyloop/internal/models"
)

var (
	HeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("205")).Padding(0, 1)
	CellStyle   = lipgloss.NewStyle().Padding(0, 1)
	MutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	TitleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("99"))

	statusColors = map[models.Status]lipgloss.Color{
		models.StatusCompleted: lipgloss.Color("42"),
		models.StatusPartial:   lipgloss.Color("214"),
		models.StatusSkipped:   lipgloss.Color("244"),
		models.StatusMissed:    lipgloss.Color("196"),
		models.StatusPending:   lipgloss.Color("39"),
	}
)

// NewTable returns a rounded table with the shared header style.
func NewTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(MutedStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return HeaderStyle
			}
			return CellStyle
		})
}

// StatusLabel renders a status with its icon and colour.
func StatusLabel(s models.Status) string {
	icon := map[models.Status]string{
		models.StatusCompleted: "✓",
		models.StatusPartial:   "◐",
		models.StatusSkipped:   "⤼",
		models.StatusMissed:    "✗",
		models.StatusPending:   "•",
	}[s]
	return lipgloss.NewStyle().Foreground(statusColors[s]).Render(fmt.Sprintf("%s %s", icon, s))
}

func Minutes(m int) string {
	if m < 60 {
		return fmt.Sprintf("%dm", m)
	}
	return fmt.Sprintf("%dh%02dm", m/60, m%60)
}
