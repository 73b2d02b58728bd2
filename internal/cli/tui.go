package cli

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/olivekit/oliveapi/pkg/api"
	"github.com/olivekit/oliveapi/pkg/queue"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// QueueListModel - Interactive queued-mutation selection
// =============================================================================

// QueueListModel is the bubbletea model for picking one pending mutation.
type QueueListModel struct {
	Items    []queue.Item
	Cursor   int
	Selected *queue.Item
	Height   int
	Offset   int
}

// NewQueueListModel creates a new queue picker model.
func NewQueueListModel(items []queue.Item) QueueListModel {
	return QueueListModel{
		Items:  items,
		Height: 15,
	}
}

func (m QueueListModel) Init() tea.Cmd {
	return nil
}

func (m QueueListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			if m.Cursor > 0 {
				m.Cursor--
				if m.Cursor < m.Offset {
					m.Offset = m.Cursor
				}
			}
		case "down", "j":
			if m.Cursor < len(m.Items)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			item := m.Items[m.Cursor]
			m.Selected = &item
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m QueueListModel) View() string {
	if len(m.Items) == 0 {
		return listDimStyle.Render("No pending mutations") + "\n"
	}

	s := StyleTitle.Render("Pending mutations") + "\n\n"

	end := m.Offset + m.Height
	if end > len(m.Items) {
		end = len(m.Items)
	}

	for i := m.Offset; i < end; i++ {
		item := m.Items[i]
		line := fmt.Sprintf("%-6s %s", item.Request.Method, item.Request.URL)
		added := listDimStyle.Render(item.AddedAt.Local().Format("2006-01-02 15:04"))

		if i == m.Cursor {
			s += listSelectedStyle.Render("› "+line) + "  " + added + "\n"
		} else {
			s += listNormalStyle.Render("  "+line) + "  " + added + "\n"
		}
	}

	if len(m.Items) > m.Height {
		s += listDimStyle.Render(fmt.Sprintf("\n  %d/%d", m.Cursor+1, len(m.Items)))
	}
	s += "\n" + listDimStyle.Render("enter replay · j/k move · q quit") + "\n"
	return s
}

// replayInteractive runs the picker loop: select a pending mutation, replay
// it, and show the list again until the queue is drained or the user quits.
func (c *CLI) replayInteractive(ctx context.Context, client *api.Client) error {
	for {
		items, err := client.QueueStore().Pending(ctx)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			printInfo("Nothing to replay")
			return nil
		}

		model := NewQueueListModel(items)
		final, err := tea.NewProgram(model, tea.WithContext(ctx)).Run()
		if err != nil {
			return err
		}

		picked := final.(QueueListModel).Selected
		if picked == nil {
			return nil
		}

		replayed, err := client.ReplayItem(ctx, *picked)
		if err != nil {
			return err
		}
		if replayed.Status == queue.StatusApplied {
			printSuccess("Applied %s %s", replayed.Request.Method, replayed.Request.URL)
		} else {
			printError("Rejected %s %s", replayed.Request.Method, replayed.Request.URL)
			printDetail("%s", replayed.LastError)
		}
	}
}
