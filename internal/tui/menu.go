package tui

import (
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type item struct {
	title, desc string
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title }

// MenuModel is the slash-command popup.
type MenuModel struct {
	list   list.Model
	active bool
}

func NewMenuModel() MenuModel {
	items := []list.Item{
		item{title: "/help", desc: "Show commands and shortcuts"},
		item{title: "/models", desc: "Pick a model to chat with"},
		item{title: "/bench", desc: "Benchmark the current model"},
		item{title: "/results", desc: "Show stored benchmark results"},
		item{title: "/storage", desc: "Show disk and memory status"},
		item{title: "/compact", desc: "Summarize history to save tokens"},
		item{title: "/clear", desc: "Clear conversation history"},
		item{title: "/save", desc: "Export conversation to markdown"},
		item{title: "/resume", desc: "Pick up the last saved conversation"},
		item{title: "/quit", desc: "Exit the application"},
	}

	d := list.NewDefaultDelegate()
	d.Styles.SelectedTitle = lipgloss.NewStyle().Foreground(Green).Border(lipgloss.NormalBorder(), false, false, false, true).BorderForeground(Green).PaddingLeft(1)
	d.Styles.SelectedDesc = d.Styles.SelectedTitle.Foreground(DimGreen)

	l := list.New(items, d, 34, 14)
	l.Title = "Commands"
	l.SetShowHelp(false)
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)
	l.Styles.Title = ListTitleStyle

	return MenuModel{list: l}
}

func (m MenuModel) Update(msg tea.Msg) (MenuModel, tea.Cmd) {
	if !m.active {
		return m, nil
	}

	if key, ok := msg.(tea.KeyMsg); ok && key.String() == "esc" {
		m.active = false
		return m, nil
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m MenuModel) View() string {
	if !m.active {
		return ""
	}
	return ListBoxStyle.Render(m.list.View())
}
