package cli

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"

	"github.com/matzehuels/stackreqs/pkg/loadorder"
)

// List styles
var (
	listDimStyle    = lipgloss.NewStyle().Foreground(colorDim)
	listHeaderStyle = lipgloss.NewStyle().Foreground(colorGray).Bold(true)
	listRootStyle   = lipgloss.NewStyle().Foreground(colorGreen)
)

// browseCommand opens an interactive view of the resolved load order.
func (c *CLI) browseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse the load order interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := c.resolve(cmd.Context())
			if err != nil {
				return err
			}
			if len(res.Order) == 0 {
				printInfo(cmd.OutOrStdout(), "No components configured")
				return nil
			}
			p := tea.NewProgram(NewComponentListModel(res), tea.WithContext(cmd.Context()))
			_, err = p.Run()
			return err
		},
	}
}

// =============================================================================
// ComponentListModel - Load order browser
// =============================================================================

// ComponentListModel is the bubbletea model for browsing a resolution
// result. Enter toggles the detail pane of the component under the cursor.
type ComponentListModel struct {
	Order    []string
	Graph    *loadorder.Graph
	Cursor   int
	Offset   int
	Height   int
	Detail   bool
	requests map[string]bool
}

// NewComponentListModel creates a browser over res.
func NewComponentListModel(res *loadorder.Result) ComponentListModel {
	requests := make(map[string]bool, len(res.Requested))
	for _, id := range res.Requested {
		requests[id] = true
	}
	return ComponentListModel{
		Order:    res.Order,
		Graph:    res.Graph,
		Height:   15,
		requests: requests,
	}
}

func (m ComponentListModel) Init() tea.Cmd {
	return nil
}

func (m ComponentListModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
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
			if m.Cursor < len(m.Order)-1 {
				m.Cursor++
				if m.Cursor >= m.Offset+m.Height {
					m.Offset = m.Cursor - m.Height + 1
				}
			}
		case "enter", " ":
			m.Detail = !m.Detail
		}
	case tea.WindowSizeMsg:
		m.Height = max(msg.Height-12, 5)
	}
	return m, nil
}

func (m ComponentListModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Load Order"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ⏎ details  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.Order))

	rows := [][]string{}
	for i := m.Offset; i < end; i++ {
		id := m.Order[i]
		cursor := "  "
		if i == m.Cursor {
			cursor = "▸ "
		}
		deps := len(m.Graph.Dependencies(id))
		reqs := len(m.Graph.Requirements(id))
		rows = append(rows, []string{cursor, fmt.Sprintf("%d", i+1), id, fmt.Sprintf("%d", deps), fmt.Sprintf("%d", reqs)})
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorDim)).
		Headers("", "#", "Component", "Deps", "Reqs").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == -1 {
				return listHeaderStyle
			}
			idx := m.Offset + row
			if idx >= len(m.Order) {
				return lipgloss.NewStyle()
			}
			base := lipgloss.NewStyle()
			if m.requests[m.Order[idx]] {
				base = listRootStyle
			}
			if idx == m.Cursor {
				return base.Bold(true)
			}
			if col == 1 || col == 3 || col == 4 {
				return base.Foreground(colorDim)
			}
			return base
		})

	b.WriteString(t.Render())
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.Order))))
	b.WriteString("\n")

	if m.Detail && m.Cursor < len(m.Order) {
		b.WriteString("\n")
		b.WriteString(m.detail(m.Order[m.Cursor]))
	}
	return b.String()
}

func (m ComponentListModel) detail(id string) string {
	var b strings.Builder
	b.WriteString(StyleTitle.Render(id))
	if m.requests[id] {
		b.WriteString(listDimStyle.Render("  (configured)"))
	}
	b.WriteString("\n")
	section := func(title string, values []string) {
		b.WriteString(listHeaderStyle.Render(title))
		b.WriteString("\n")
		if len(values) == 0 {
			b.WriteString(listDimStyle.Render("  none"))
			b.WriteString("\n")
			return
		}
		for _, v := range values {
			b.WriteString("  " + StyleValue.Render(v) + "\n")
		}
	}
	section("Dependencies", m.Graph.Dependencies(id))
	section("Requirements", m.Graph.Requirements(id))
	return b.String()
}
