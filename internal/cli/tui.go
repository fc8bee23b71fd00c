package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/matzehuels/splitdelegation/pkg/stats"
)

// List styles
var (
	listDimStyle = lipgloss.NewStyle().Foreground(colorDim)
)

// =============================================================================
// DelegateListModel - Interactive delegate selection
// =============================================================================

// DelegateListModel is the bubbletea model behind top --interactive.
type DelegateListModel struct {
	Delegates []stats.Stat
	Cursor    int
	Selected  *stats.Stat
	Height    int
	Offset    int

	// rankOffset is the rank of Delegates[0] minus one.
	rankOffset int
}

// NewDelegateListModel creates a list over ranked delegates.
func NewDelegateListModel(ranked []stats.Stat, rankOffset int) DelegateListModel {
	return DelegateListModel{
		Delegates:  ranked,
		Height:     15,
		rankOffset: rankOffset,
	}
}

func (m DelegateListModel) Init() tea.Cmd {
	return nil
}

func (m DelegateListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			if m.Cursor < len(m.Delegates)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter":
			if len(m.Delegates) == 0 {
				return m, nil
			}
			s := m.Delegates[m.Cursor]
			m.Selected = &s
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-6, 5)
	}
	return m, nil
}

func (m DelegateListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Select Delegate"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ show tree  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Delegates))
	rows := statsRows(m.Delegates[m.Offset:end], m.rankOffset+m.Offset)
	for i := range rows {
		cursor := "  "
		if m.Offset+i == m.Cursor {
			cursor = "▸ "
		}
		rows[i][0] = cursor + rows[i][0]
	}

	t := newTable(statsHeaders...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == headerRow {
				return tableHeaderStyle
			}
			if m.Offset+row == m.Cursor {
				return lipgloss.NewStyle().Foreground(colorGreen).Bold(true)
			}
			return lipgloss.NewStyle()
		})

	b.WriteString(t.Render())
	b.WriteString("\n\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Delegates))))

	return b.String()
}
