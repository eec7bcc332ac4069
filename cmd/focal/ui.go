// # cmd/focal/ui.go
package main

import (
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"focal/internal/output"
)

var (
	titleStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	failStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

type item struct {
	title, desc string
	failed      bool
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title + i.desc }

type uiModel struct {
	list       list.Model
	rows       []output.EntryResult
	lastUpdate time.Time
	modules    int
	failed     int
}

type updateMsg struct {
	rows    []output.EntryResult
	modules int
	failed  int
}

func (m uiModel) Init() tea.Cmd {
	return nil
}

func (m uiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v-4)
	case updateMsg:
		m.rows = msg.rows
		m.modules = msg.modules
		m.failed = msg.failed
		m.lastUpdate = time.Now()

		items := []list.Item{}
		for _, row := range m.rows {
			if row.Skipped {
				items = append(items, item{
					title:  row.Entry,
					desc:   "skipped: " + row.Err,
					failed: true,
				})
				continue
			}
			items = append(items, item{
				title: row.Entry,
				desc:  fmt.Sprintf("%s | %d modules | %d direct | %d reachable", row.File, row.Modules, row.DirectSize, row.IndirectSize),
			})
		}
		m.list.SetItems(items)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m uiModel) View() string {
	status := statusStyle.Render(fmt.Sprintf("Last run: %v | %d entry points | %d modules",
		m.lastUpdate.Format("15:04:05"), len(m.rows), m.modules))

	var summary string
	if m.failed == 0 {
		summary = successStyle.Render("all contexts written")
	} else {
		summary = failStyle.Render(fmt.Sprintf("%d entries skipped", m.failed))
	}

	header := fmt.Sprintf("%s\n%s | %s\n", titleStyle("Focal Context Monitor"), status, summary)
	return docStyle.Render(header + "\n" + m.list.View())
}

func initialModel() uiModel {
	l := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Extracted Entry Points"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)

	return uiModel{
		list:       l,
		lastUpdate: time.Now(),
	}
}
