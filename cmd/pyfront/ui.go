// # cmd/pyfront/ui.go
package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F87171")).
			Bold(true)

	componentStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

type item struct {
	title, desc string
	isError     bool
}

func (i item) Title() string       { return i.title }
func (i item) Description() string { return i.desc }
func (i item) FilterValue() string { return i.title + i.desc }

type model struct {
	list   list.Model
	result *Result
}

func newModel(result *Result) model {
	items := make([]list.Item, 0, len(result.Errors)+len(result.Partition))
	for _, e := range result.Errors {
		title := fmt.Sprintf("%v [%v]", e["name"], e["code"])
		items = append(items, item{
			title:   errorStyle.Render(title),
			desc:    fmt.Sprintf("%v:%v %v", e["path"], e["line"], e["description"]),
			isError: true,
		})
	}
	for i, component := range result.Partition {
		label := "component"
		if len(component) > 1 {
			label = "cycle"
		}
		items = append(items, item{
			title: componentStyle.Render(fmt.Sprintf("%s %d (%d members)", label, i, len(component))),
			desc:  strings.Join(component, " → "),
		})
	}

	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = titleStyle(fmt.Sprintf("pyfront — %d sources, %d errors, %d components",
		len(result.Sources), len(result.Errors), len(result.Partition)))
	l.SetShowStatusBar(true)
	l.Styles.StatusBar = statusStyle
	return model{list: l, result: result}
}

func (m model) Init() tea.Cmd { return nil }

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "q" || msg.String() == "ctrl+c" {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v)
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m model) View() string {
	return docStyle.Render(m.list.View())
}

// RunUI shows the diagnostics and call-graph components in a browsable list.
func (a *App) RunUI(result *Result) error {
	program := tea.NewProgram(newModel(result), tea.WithAltScreen())
	_, err := program.Run()
	return err
}
