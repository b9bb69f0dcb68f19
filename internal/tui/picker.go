package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/jeanpaul/alacrity/internal/model"
)

type modelItem struct {
	mdl model.Model
}

func (i modelItem) Title() string {
	marker := "   "
	if i.mdl.OnDisk() {
		marker = " ● "
	}
	return marker + i.mdl.Name
}

func (i modelItem) Description() string {
	parts := ""
	if i.mdl.Params != "" {
		parts = i.mdl.Params + " "
	}
	if i.mdl.Quant != "" {
		parts += i.mdl.Quant + " "
	}
	size := "size unknown"
	if i.mdl.SizeBytes > 0 {
		size = humanize.Bytes(uint64(i.mdl.SizeBytes))
	}
	state := "needs download"
	if i.mdl.OnDisk() {
		state = "on disk"
	}
	return fmt.Sprintf("   %s%s, %s", parts, size, state)
}

func (i modelItem) FilterValue() string { return i.mdl.Name }

// PickerModel is the model-selection popup. Models already on disk are
// marked and sort is left to the caller.
type PickerModel struct {
	list     list.Model
	active   bool
	selected *model.Model
}

func NewPickerModel(models []model.Model) PickerModel {
	items := make([]list.Item, len(models))
	for i, mdl := range models {
		items[i] = modelItem{mdl: mdl}
	}

	d := list.NewDefaultDelegate()
	d.Styles.SelectedTitle = lipgloss.NewStyle().Foreground(Green).Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(Green).PaddingLeft(1)
	d.Styles.SelectedDesc = d.Styles.SelectedTitle.Foreground(DimGreen)

	l := list.New(items, d, 48, 14)
	l.Title = "Models"
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = ListTitleStyle

	return PickerModel{list: l}
}

// SetModels replaces the listed models, keeping the popup state.
func (m *PickerModel) SetModels(models []model.Model) {
	items := make([]list.Item, len(models))
	for i, mdl := range models {
		items[i] = modelItem{mdl: mdl}
	}
	m.list.SetItems(items)
}

func (m PickerModel) Update(msg tea.Msg) (PickerModel, tea.Cmd) {
	if !m.active {
		return m, nil
	}

	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			m.active = false
			return m, nil
		case "enter":
			if it, ok := m.list.SelectedItem().(modelItem); ok {
				mdl := it.mdl
				m.selected = &mdl
				m.active = false
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

// TakeSelection returns and clears the picked model.
func (m *PickerModel) TakeSelection() *model.Model {
	sel := m.selected
	m.selected = nil
	return sel
}

func (m PickerModel) View() string {
	if !m.active {
		return ""
	}
	return ListBoxStyle.Render(m.list.View())
}
