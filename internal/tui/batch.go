package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// batchResultView summarizes a delete of the selection. Failed ids are
// listed in order so the user can retry them.
func (a *App) batchResultView() string {
	var sb strings.Builder
	sb.WriteString(titleStyle.Render("Batch Delete"))
	sb.WriteString("\n")
	if a.batch != nil {
		sb.WriteString(successStyle.Render(fmt.Sprintf("Deleted %d entries", len(a.batch.Deleted))))
		sb.WriteString("\n")
		if len(a.batch.Failed) > 0 {
			sb.WriteString(errorStyle.Render(fmt.Sprintf("%d could not be deleted:", len(a.batch.Failed))))
			sb.WriteString("\n")
			ids := make([]string, 0, len(a.batch.Failed))
			for id := range a.batch.Failed {
				ids = append(ids, id)
			}
			sort.Strings(ids)
			for _, id := range ids {
				sb.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, "  "+id+"  ", dimStyle.Render(a.batch.Failed[id].Error())))
				sb.WriteString("\n")
			}
		}
	}
	sb.WriteString(helpStyle.Render("Press any key to continue"))
	return boxStyle.Render(sb.String())
}
