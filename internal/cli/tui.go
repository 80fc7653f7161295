package cli

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"github.com/matzehuels/musclegraph/pkg/hierarchy"
	"github.com/matzehuels/musclegraph/pkg/pipeline"
)

// List styles
var (
	listSelectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	listNormalStyle   = lipgloss.NewStyle().Foreground(colorWhite)
	listDimStyle      = lipgloss.NewStyle().Foreground(colorDim)
)

// browseCommand opens the interactive hierarchy browser.
func (c *CLI) browseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse the hierarchy interactively",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			runner, err := c.newRunner(ctx)
			if err != nil {
				return err
			}
			defer runner.Close()

			f, err := runner.Forest(ctx)
			if err != nil {
				return err
			}

			m := NewTreeModel(f.Roots, exercisesLoader(ctx, runner))
			_, err = tea.NewProgram(m, tea.WithContext(ctx), tea.WithOutput(cmd.OutOrStdout())).Run()
			return err
		},
	}
}

// exercisesLoader fetches a node's aggregated exercises off the UI goroutine.
func exercisesLoader(ctx context.Context, runner *pipeline.Runner) func(id string) tea.Cmd {
	return func(id string) tea.Cmd {
		return func() tea.Msg {
			res, err := runner.Exercises(ctx, id, pipeline.Options{})
			if err != nil {
				return exercisesMsg{id: id, err: err}
			}
			names := make([]string, 0, len(res.Exercises))
			for _, e := range res.Exercises {
				name := e.ExerciseID
				if e.Exercise != nil && e.Exercise.Name != "" {
					name = e.Exercise.Name
				}
				names = append(names, fmt.Sprintf("%s (%s)", name, e.Role))
			}
			return exercisesMsg{id: id, names: names}
		}
	}
}

// =============================================================================
// TreeModel - Interactive hierarchy browser
// =============================================================================

// exercisesMsg carries the result of a background exercises lookup.
type exercisesMsg struct {
	id    string
	names []string
	err   error
}

type treeRow struct {
	node  *hierarchy.TreeNode
	depth int
}

// TreeModel is the bubbletea model for browsing the forest.
type TreeModel struct {
	Roots    []*hierarchy.TreeNode
	Expanded map[string]bool
	Cursor   int
	Height   int
	Offset   int

	rows []treeRow
	load func(id string) tea.Cmd

	detailID  string
	exercises []string
	err       error
}

// NewTreeModel creates a browser over roots with every region collapsed.
// load may be nil, which disables the exercise pane.
func NewTreeModel(roots []*hierarchy.TreeNode, load func(id string) tea.Cmd) TreeModel {
	m := TreeModel{
		Roots:    roots,
		Expanded: map[string]bool{},
		Height:   15,
		load:     load,
	}
	m.rows = m.visibleRows()
	return m
}

func (m TreeModel) Init() tea.Cmd {
	return nil
}

func (m TreeModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			m.move(-1)
		case "down", "j":
			m.move(1)
		case "right", "l":
			m.setExpanded(true)
		case "left", "h":
			m.collapseOrParent()
		case " ":
			if row, ok := m.current(); ok {
				m.setExpanded(!m.Expanded[row.node.ID])
			}
		case "enter":
			if row, ok := m.current(); ok && m.load != nil {
				m.detailID, m.exercises, m.err = row.node.ID, nil, nil
				return m, m.load(row.node.ID)
			}
		}
	case exercisesMsg:
		if msg.id == m.detailID {
			m.exercises, m.err = msg.names, msg.err
		}
	case tea.WindowSizeMsg:
		m.Height = msg.Height - 10
		if m.Height < 5 {
			m.Height = 5
		}
	}
	return m, nil
}

func (m *TreeModel) current() (treeRow, bool) {
	if m.Cursor < 0 || m.Cursor >= len(m.rows) {
		return treeRow{}, false
	}
	return m.rows[m.Cursor], true
}

func (m *TreeModel) move(delta int) {
	if len(m.rows) == 0 {
		return
	}
	m.Cursor += delta
	if m.Cursor < 0 {
		m.Cursor = 0
	}
	if m.Cursor > len(m.rows)-1 {
		m.Cursor = len(m.rows) - 1
	}
	if m.Cursor < m.Offset {
		m.Offset = m.Cursor
	}
	if m.Cursor >= m.Offset+m.Height {
		m.Offset = m.Cursor - m.Height + 1
	}
}

func (m *TreeModel) setExpanded(open bool) {
	row, ok := m.current()
	if !ok || row.node.IsLeaf() {
		return
	}
	m.Expanded[row.node.ID] = open
	m.rows = m.visibleRows()
}

// collapseOrParent collapses an open node, or jumps to the parent of a
// closed one.
func (m *TreeModel) collapseOrParent() {
	row, ok := m.current()
	if !ok {
		return
	}
	if m.Expanded[row.node.ID] {
		m.setExpanded(false)
		return
	}
	for i := m.Cursor - 1; i >= 0; i-- {
		if m.rows[i].depth < row.depth {
			m.move(i - m.Cursor)
			return
		}
	}
}

// visibleRows flattens the expanded part of the forest in display order.
func (m *TreeModel) visibleRows() []treeRow {
	var rows []treeRow
	type frame struct {
		node  *hierarchy.TreeNode
		depth int
	}
	stack := make([]frame, 0, len(m.Roots))
	for i := len(m.Roots) - 1; i >= 0; i-- {
		stack = append(stack, frame{m.Roots[i], 0})
	}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		rows = append(rows, treeRow{node: f.node, depth: f.depth})
		if !m.Expanded[f.node.ID] {
			continue
		}
		for i := len(f.node.Children) - 1; i >= 0; i-- {
			stack = append(stack, frame{f.node.Children[i], f.depth + 1})
		}
	}
	return rows
}

func (m TreeModel) View() string {
	var b strings.Builder

	b.WriteString(StyleTitle.Render("Hierarchy"))
	b.WriteString("\n")
	b.WriteString(listDimStyle.Render("↑/↓ navigate  ←/→ fold  ⏎ exercises  q quit"))
	b.WriteString("\n\n")

	end := min(m.Offset+m.Height, len(m.rows))
	for i := m.Offset; i < end; i++ {
		row := m.rows[i]
		var marker string
		switch {
		case row.node.IsLeaf():
			marker = "· "
		case m.Expanded[row.node.ID]:
			marker = "▾ "
		default:
			marker = "▸ "
		}

		line := fmt.Sprintf("%s%s%s", strings.Repeat("  ", row.depth), marker, row.node.Name)
		counts := listDimStyle.Render(fmt.Sprintf("  %d/%d", row.node.DirectExerciseCount, row.node.TotalExerciseCount))
		if i == m.Cursor {
			b.WriteString(listSelectedStyle.Render(line))
		} else {
			b.WriteString(listNormalStyle.Render(line))
		}
		b.WriteString(counts)
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(listDimStyle.Render(fmt.Sprintf("  [%d/%d]", m.Cursor+1, len(m.rows))))
	b.WriteString("\n")

	if m.detailID != "" {
		b.WriteString("\n")
		b.WriteString(StyleHighlight.Render("Exercises for " + m.detailID))
		b.WriteString("\n")
		switch {
		case m.err != nil:
			b.WriteString(StyleWarning.Render("  " + m.err.Error()))
			b.WriteString("\n")
		case m.exercises == nil:
			b.WriteString(listDimStyle.Render("  loading..."))
			b.WriteString("\n")
		case len(m.exercises) == 0:
			b.WriteString(listDimStyle.Render("  none"))
			b.WriteString("\n")
		default:
			for _, name := range m.exercises {
				b.WriteString("  " + listNormalStyle.Render(name) + "\n")
			}
		}
	}

	return b.String()
}
