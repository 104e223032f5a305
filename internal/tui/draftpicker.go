package tui

import (
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/christopherklint97/hourly/internal/entry"
)

const draftPickerVisible = 15

// draftPickerModel lets the user pick which calendar drafts to submit.
type draftPickerModel struct {
	drafts   []entry.Fields
	filtered []int // indices into drafts
	selected map[int]bool
	cursor   int
	filter   textinput.Model
	done     bool
	canceled bool
}

// DraftPickerResult holds the drafts the user selected.
type DraftPickerResult struct {
	Drafts   []entry.Fields
	Canceled bool
}

// DraftPickerApp wraps draftPickerModel for standalone use with tea.NewProgram.
type DraftPickerApp struct {
	picker draftPickerModel
	result *DraftPickerResult
}

func NewDraftPickerApp(drafts []entry.Fields) *DraftPickerApp {
	return &DraftPickerApp{
		picker: newDraftPicker(drafts),
	}
}

func (a *DraftPickerApp) Init() tea.Cmd {
	return a.picker.Init()
}

func (a *DraftPickerApp) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok && keyMsg.String() == "esc" {
		a.picker.canceled = true
	}

	var cmd tea.Cmd
	if !a.picker.canceled {
		a.picker, cmd = a.picker.Update(msg)
	}

	if a.picker.done || a.picker.canceled {
		a.result = a.picker.Result()
		return a, tea.Quit
	}

	return a, cmd
}

func (a *DraftPickerApp) View() string {
	return a.picker.View()
}

func (a *DraftPickerApp) GetResult() *DraftPickerResult {
	return a.result
}

func newDraftPicker(drafts []entry.Fields) draftPickerModel {
	ti := textinput.New()
	ti.Placeholder = "Filter events..."
	ti.Focus()

	filtered := make([]int, len(drafts))
	selected := make(map[int]bool, len(drafts))
	for i := range drafts {
		filtered[i] = i
		selected[i] = true
	}

	return draftPickerModel{
		drafts:   drafts,
		filtered: filtered,
		selected: selected,
		filter:   ti,
	}
}

func (m draftPickerModel) Init() tea.Cmd {
	return textinput.Blink
}

func (m draftPickerModel) Update(msg tea.Msg) (draftPickerModel, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			m.canceled = true
			return m, nil
		case "enter":
			if len(m.selected) > 0 {
				m.done = true
			}
			return m, nil
		case " ":
			if len(m.filtered) > 0 {
				idx := m.filtered[m.cursor]
				if m.selected[idx] {
					delete(m.selected, idx)
				} else {
					m.selected[idx] = true
				}
			}
			return m, nil
		case "up":
			if m.cursor > 0 {
				m.cursor--
			}
			return m, nil
		case "down":
			if m.cursor < len(m.filtered)-1 {
				m.cursor++
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	prevFilter := m.filter.Value()
	m.filter, cmd = m.filter.Update(msg)

	if m.filter.Value() != prevFilter {
		m.applyFilter()
	}

	return m, cmd
}

func (m *draftPickerModel) applyFilter() {
	query := strings.ToLower(m.filter.Value())
	m.filtered = m.filtered[:0]
	for i, d := range m.drafts {
		if query == "" || strings.Contains(strings.ToLower(d.Description), query) {
			m.filtered = append(m.filtered, i)
		}
	}
	if m.cursor >= len(m.filtered) {
		m.cursor = max(0, len(m.filtered)-1)
	}
}

func (m draftPickerModel) View() string {
	var b strings.Builder

	b.WriteString(titleStyle.Render("Import Calendar Events"))
	b.WriteString("\n")
	b.WriteString(m.filter.View())
	b.WriteString("\n\n")

	if len(m.filtered) == 0 {
		b.WriteString(dimStyle.Render("  No events match filter"))
		b.WriteString("\n")
	} else {
		start := 0
		if m.cursor >= draftPickerVisible {
			start = m.cursor - draftPickerVisible + 1
		}
		end := min(start+draftPickerVisible, len(m.filtered))

		for vi := start; vi < end; vi++ {
			idx := m.filtered[vi]
			d := m.drafts[idx]

			cursor := "  "
			if vi == m.cursor {
				cursor = "> "
			}

			check := "[ ]"
			if m.selected[idx] {
				check = "[x]"
			}

			span := fmt.Sprintf("%s %s-%s", d.Date, d.StartTime, d.EndTime)
			line := fmt.Sprintf("%s%s %s  %s", cursor, check, span, d.Description)
			if vi == m.cursor {
				line = highlightStyle.Render(fmt.Sprintf("%s%s ", cursor, check)) + span + "  " + d.Description
			}
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	b.WriteString(helpStyle.Render(fmt.Sprintf(
		"\n%d selected • Space: toggle • Enter: submit • Esc: cancel", len(m.selected))))

	return b.String()
}

// Result returns the selected drafts in calendar order.
func (m draftPickerModel) Result() *DraftPickerResult {
	if m.canceled {
		return &DraftPickerResult{Canceled: true}
	}
	indices := make([]int, 0, len(m.selected))
	for idx := range m.selected {
		indices = append(indices, idx)
	}
	sort.Ints(indices)

	drafts := make([]entry.Fields, 0, len(indices))
	for _, idx := range indices {
		drafts = append(drafts, m.drafts[idx])
	}
	return &DraftPickerResult{Drafts: drafts}
}
