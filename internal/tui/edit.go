package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/christopherklint97/hourly/internal/entry"
)

type formField int

const (
	formDate formField = iota
	formStart
	formEnd
	formDescription
	formFieldCount
)

var formLabels = [formFieldCount]string{"Date", "Start", "End", "Description"}

// fieldIndex maps ValidationError.Field to the input that gets focus.
var fieldIndex = map[string]formField{
	entry.FieldDate:        formDate,
	entry.FieldStartTime:   formStart,
	entry.FieldEndTime:     formEnd,
	entry.FieldDescription: formDescription,
}

// editModel is the create/update form. id is empty for a new entry.
type editModel struct {
	id       string
	inputs   [formFieldCount]textinput.Model
	focus    formField
	duration string
	errMsg   string
	now      func() time.Time
}

func newEditModel(id string, f entry.Fields, now func() time.Time) editModel {
	m := editModel{id: id, now: now}

	placeholders := [formFieldCount]string{"YYYY-MM-DD or \"yesterday\"", "HH:MM", "HH:MM", "What did you work on?"}
	values := [formFieldCount]string{f.Date, f.StartTime, f.EndTime, f.Description}
	limits := [formFieldCount]int{32, 8, 8, 500}

	for i := range m.inputs {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.CharLimit = limits[i]
		ti.Width = 50
		ti.SetValue(values[i])
		m.inputs[i] = ti
	}
	m.inputs[formDate].Focus()
	return m
}

func (m editModel) isNew() bool {
	return m.id == ""
}

// rawFields is the form content as typed.
func (m editModel) rawFields() entry.Fields {
	return entry.Fields{
		Date:        strings.TrimSpace(m.inputs[formDate].Value()),
		StartTime:   strings.TrimSpace(m.inputs[formStart].Value()),
		EndTime:     strings.TrimSpace(m.inputs[formEnd].Value()),
		Description: m.inputs[formDescription].Value(),
	}
}

// Fields resolves a natural-language date and returns what gets submitted.
func (m editModel) Fields() (entry.Fields, error) {
	f := m.rawFields()
	if f.Date == "" {
		return f, nil
	}
	date, err := entry.ParseDate(f.Date, m.now())
	if err != nil {
		return f, &entry.ValidationError{Field: entry.FieldDate, Reason: "unrecognized date"}
	}
	f.Date = date
	return f, nil
}

func (m *editModel) setFocus(field formField) tea.Cmd {
	m.inputs[m.focus].Blur()
	m.focus = field
	return m.inputs[m.focus].Focus()
}

// showError puts the message under the form and focuses the offending input.
func (m *editModel) showError(err *entry.ValidationError) tea.Cmd {
	m.errMsg = err.Reason
	if field, ok := fieldIndex[err.Field]; ok {
		return m.setFocus(field)
	}
	return nil
}

// Update handles navigation between inputs. The caller handles submit
// and cancel. changed reports whether any input value changed.
func (m editModel) Update(msg tea.Msg) (editModel, tea.Cmd, bool) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.String() {
		case "tab", "down":
			return m, m.setFocus((m.focus + 1) % formFieldCount), false
		case "shift+tab", "up":
			return m, m.setFocus((m.focus + formFieldCount - 1) % formFieldCount), false
		}
	}

	before := m.inputs[m.focus].Value()
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	changed := m.inputs[m.focus].Value() != before
	if changed {
		m.errMsg = ""
	}
	return m, cmd, changed
}

func (m editModel) View() string {
	var sb strings.Builder

	if m.isNew() {
		sb.WriteString(titleStyle.Render("New Entry"))
	} else {
		sb.WriteString(titleStyle.Render(fmt.Sprintf("Edit Entry %s", m.id)))
	}
	sb.WriteString("\n")

	for i, ti := range m.inputs {
		label := labelStyle.Render(formLabels[i])
		if formField(i) == m.focus {
			label = highlightStyle.Width(12).Render(formLabels[i])
		}
		sb.WriteString(label + ti.View() + "\n")
	}

	sb.WriteString("\n")
	duration := m.duration
	if duration == "" {
		duration = dimStyle.Render("-")
	}
	sb.WriteString(labelStyle.Render("Duration") + duration + "\n")

	if m.errMsg != "" {
		sb.WriteString("\n" + errorStyle.Render(m.errMsg) + "\n")
	}

	sb.WriteString(helpStyle.Render("Tab: next field • Enter: save • Esc: cancel"))

	return boxStyle.Render(sb.String())
}
