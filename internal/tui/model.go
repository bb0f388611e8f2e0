// Package tui is a terminal client for the task component. Every key that
// touches tasks runs one interaction cycle through task.Component, the same
// way the browser client does over HTTP.
package tui

import (
	"context"
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"taskview/internal/store"
	"taskview/internal/task"
)

type mode int

const (
	browsing mode = iota
	adding
	editing
)

// item adapts store.Task to list.Item.
type item struct{ task store.Task }

func (i item) Title() string       { return i.task.Title }
func (i item) Description() string { return "" }
func (i item) FilterValue() string { return i.task.Title }

type itemDelegate struct{}

func (itemDelegate) Height() int                         { return 1 }
func (itemDelegate) Spacing() int                        { return 0 }
func (itemDelegate) Update(tea.Msg, *list.Model) tea.Cmd { return nil }
func (itemDelegate) Render(w io.Writer, m list.Model, index int, li list.Item) {
	it, ok := li.(item)
	if !ok {
		return
	}
	prefix := "  "
	if index == m.Index() {
		prefix = selectedStyle.Render("> ")
	}
	fmt.Fprintf(w, "%s%s %s", prefix, mutedStyle.Render(fmt.Sprintf("#%d", it.task.ID)), it.task.Title)
}

var (
	addKey     = key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add"))
	editKey    = key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit"))
	deleteKey  = key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete"))
	refreshKey = key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh"))
	quitKey    = key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit"))
)

type Model struct {
	ctx  context.Context
	comp *task.Component

	list   list.Model
	input  textinput.Model
	mode   mode
	editID int64

	status string
	err    error
}

// New hydrates the initial task list.
func New(ctx context.Context, comp *task.Component) (Model, error) {
	l := list.New(nil, itemDelegate{}, 80, 20)
	l.Title = "Tasks"
	l.Styles.Title = titleStyle
	l.Styles.HelpStyle = helpStyle
	l.SetShowStatusBar(true)
	l.SetStatusBarItemName("task", "tasks")
	l.KeyMap.Quit.SetEnabled(false)
	bindings := func() []key.Binding { return []key.Binding{addKey, editKey, deleteKey, refreshKey, quitKey} }
	l.AdditionalShortHelpKeys = bindings
	l.AdditionalFullHelpKeys = bindings

	ti := textinput.New()
	ti.Prompt = "> "
	ti.CharLimit = 200

	m := Model{ctx: ctx, comp: comp, list: l, input: ti}
	if _, err := m.cycle(task.ActionHydrate, ""); err != nil {
		return Model{}, err
	}
	return m, nil
}

// Run starts the program on the alternate screen until the user quits or ctx
// is cancelled.
func Run(ctx context.Context, comp *task.Component) error {
	m, err := New(ctx, comp)
	if err != nil {
		return err
	}
	_, err = tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	return err
}

// cycle runs one action against a fresh State holding title as the buffer and
// refreshes the list from the resulting snapshot.
func (m *Model) cycle(action, title string, args ...any) (*task.State, error) {
	st := &task.State{Title: title}
	if err := m.comp.Call(m.ctx, st, task.Action{Name: action, Args: args}); err != nil {
		m.err = err
		return nil, err
	}
	m.err = nil
	items := make([]list.Item, 0, len(st.Tasks))
	for _, t := range st.Tasks {
		items = append(items, item{task: t})
	}
	m.list.SetItems(items)
	m.status = strings.Join(st.Notices, ", ")
	return st, nil
}

func hasTask(tasks []store.Task, id int64) bool {
	return slices.ContainsFunc(tasks, func(t store.Task) bool { return t.ID == id })
}

func (m *Model) selected() (store.Task, bool) {
	it, ok := m.list.SelectedItem().(item)
	return it.task, ok
}

func (m *Model) openInput(md mode, value, placeholder string) tea.Cmd {
	m.mode = md
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Placeholder = placeholder
	return m.input.Focus()
}

func (m *Model) closeInput() {
	m.mode = browsing
	m.editID = 0
	m.input.SetValue("")
	m.input.Blur()
}

func (m Model) Init() tea.Cmd { return nil }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if ws, ok := msg.(tea.WindowSizeMsg); ok {
		m.list.SetSize(ws.Width-4, ws.Height-6)
		return m, nil
	}
	if m.mode != browsing {
		return m.updateInput(msg)
	}

	km, ok := msg.(tea.KeyMsg)
	if !ok || m.list.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	}
	switch {
	case key.Matches(km, quitKey):
		return m, tea.Quit
	case key.Matches(km, addKey):
		return m, m.openInput(adding, "", "New task...")
	case key.Matches(km, refreshKey):
		_, _ = m.cycle(task.ActionRefresh, "")
		return m, nil
	case key.Matches(km, editKey):
		t, ok := m.selected()
		if !ok {
			return m, nil
		}
		st, err := m.cycle(task.ActionPreview, "", t.ID)
		if err != nil {
			return m, nil
		}
		if !hasTask(st.Tasks, t.ID) {
			m.status = "task no longer exists"
			return m, nil
		}
		m.editID = t.ID
		return m, m.openInput(editing, st.Title, "Task title...")
	case key.Matches(km, deleteKey):
		if t, ok := m.selected(); ok {
			_, _ = m.cycle(task.ActionDelete, "", t.ID)
		}
		return m, nil
	}
	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) updateInput(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.Type {
		case tea.KeyEsc:
			m.closeInput()
			return m, nil
		case tea.KeyEnter:
			if m.mode == adding {
				if _, err := m.cycle(task.ActionAdd, m.input.Value()); err == nil {
					m.closeInput()
				}
				return m, nil
			}
			st, err := m.cycle(task.ActionUpdate, m.input.Value(), m.editID)
			if err != nil {
				return m, nil
			}
			if !hasTask(st.Tasks, m.editID) {
				m.status = "task no longer exists"
			}
			m.closeInput()
			return m, nil
		}
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	var b strings.Builder
	b.WriteString(m.list.View())
	if m.mode != browsing {
		label := "Add task"
		if m.mode == editing {
			label = fmt.Sprintf("Edit task %s", accentStyle.Render(fmt.Sprintf("#%d", m.editID)))
		}
		b.WriteString("\n" + panelStyle.Render(label+"\n"+m.input.View()))
	}
	switch {
	case m.err != nil:
		b.WriteString("\n" + errorStyle.Render("✖ "+m.err.Error()))
	case m.status != "":
		b.WriteString("\n" + noticeStyle.Render(m.status))
	}
	return panelStyle.Render(b.String())
}
