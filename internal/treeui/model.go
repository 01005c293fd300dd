// Package treeui provides the interactive skill tree browser.
package treeui

import (
	"bytes"
	"fmt"
	"sort"
	"strings"

	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/keydrill/internal/engine"
	"github.com/verte-zerg/keydrill/internal/stats"
)

const (
	tabBranches = iota
	tabKeys
	tabPairs
)

var (
	activeNavStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F0F0F0")).
			Bold(true).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#C89A3A"))
	inactiveNavStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("#B0B0B0")).
				Padding(0, 1).
				Border(lipgloss.RoundedBorder(), true).
				BorderForeground(lipgloss.Color("#4A4A4A"))
	headerStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	tableMutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#B8B8B8"))
)

// Model implements the Bubble Tea skill tree browser.
type Model struct {
	eng *engine.Engine

	tabs      []string
	activeTab int

	branchIDs   []engine.BranchID
	branchTable table.Model
	keyTable    table.Model
	keyBranch   engine.BranchID
	pairView    viewport.Model

	width  int
	height int
}

// NewModel constructs a tree browser over an already replayed engine.
func NewModel(eng *engine.Engine) *Model {
	m := &Model{
		eng:  eng,
		tabs: []string{"Branches", "Keys", "Pairs"},
	}
	m.branchTable = newTable(branchColumns(), m.branchRows())
	m.branchTable.Focus()
	m.keyBranch = ""
	m.keyTable = newTable(keyColumns(), m.keyRows(m.keyBranch))
	m.pairView = viewport.New(0, 0)
	m.pairView.SetContent(m.pairContent())
	return m
}

// Init implements tea.Model.
func (m *Model) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.updateLayout()
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.String() == "q" {
			return m, tea.Quit
		}
		switch msg.String() {
		case "left", "h":
			m.moveTab(-1)
			return m, tea.ClearScreen
		case "right", "l":
			m.moveTab(1)
			return m, tea.ClearScreen
		case "enter":
			if m.activeTab == tabBranches {
				m.selectBranch()
				m.moveTabTo(tabKeys)
				return m, tea.ClearScreen
			}
			return m, nil
		case "g", "home":
			switch m.activeTab {
			case tabBranches:
				m.branchTable.GotoTop()
			case tabKeys:
				m.keyTable.GotoTop()
			default:
				m.pairView.GotoTop()
			}
			return m, nil
		case "G", "end":
			switch m.activeTab {
			case tabBranches:
				m.branchTable.GotoBottom()
			case tabKeys:
				m.keyTable.GotoBottom()
			default:
				m.pairView.GotoBottom()
			}
			return m, nil
		default:
			var cmd tea.Cmd
			switch m.activeTab {
			case tabBranches:
				m.branchTable, cmd = m.branchTable.Update(msg)
			case tabKeys:
				m.keyTable, cmd = m.keyTable.Update(msg)
			default:
				m.pairView, cmd = m.pairView.Update(msg)
			}
			return m, cmd
		}
	}
	return m, nil
}

// View implements tea.Model.
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return ""
	}
	headerHeight, bodyHeight, footerHeight := m.layoutHeights()
	header := fitLines(m.renderHeader(), m.width, headerHeight)
	body := fitLines(m.renderBody(), m.width, bodyHeight)
	footer := fitLines(m.renderFooter(), m.width, footerHeight)
	return strings.Join([]string{header, body, footer}, "\n")
}

func (m *Model) layoutHeights() (headerHeight, bodyHeight, footerHeight int) {
	tabsHeight := lipgloss.Height(activeNavStyle.Render("X"))
	if tabsHeight < 1 {
		tabsHeight = 1
	}
	headerHeight = tabsHeight + 1
	footerHeight = 1
	bodyHeight = m.height - headerHeight - footerHeight
	if bodyHeight < 1 {
		bodyHeight = 1
	}
	return headerHeight, bodyHeight, footerHeight
}

func (m *Model) updateLayout() {
	if m.width <= 0 || m.height <= 0 {
		return
	}
	_, bodyHeight, _ := m.layoutHeights()
	m.branchTable.SetWidth(m.width)
	m.branchTable.SetHeight(maxInt(1, bodyHeight-1))
	m.keyTable.SetWidth(m.width)
	m.keyTable.SetHeight(maxInt(1, bodyHeight-1))
	m.pairView.Width = m.width
	m.pairView.Height = bodyHeight
}

func (m *Model) moveTab(delta int) {
	count := len(m.tabs)
	next := m.activeTab + delta
	if next < 0 {
		next = count - 1
	}
	if next >= count {
		next = 0
	}
	m.moveTabTo(next)
}

func (m *Model) moveTabTo(tab int) {
	m.activeTab = tab
	if m.activeTab == tabBranches {
		m.branchTable.Focus()
	} else {
		m.branchTable.Blur()
	}
	if m.activeTab == tabKeys {
		m.keyTable.Focus()
	} else {
		m.keyTable.Blur()
	}
}

// selectBranch rebuilds the key table for the branch under the cursor.
func (m *Model) selectBranch() {
	idx := m.branchTable.Cursor()
	if idx < 0 || idx >= len(m.branchIDs) {
		return
	}
	m.keyBranch = m.branchIDs[idx]
	m.keyTable.SetRows(m.keyRows(m.keyBranch))
	m.keyTable.GotoTop()
}

func (m *Model) renderHeader() string {
	parts := make([]string, 0, len(m.tabs))
	for i, tab := range m.tabs {
		if i == m.activeTab {
			parts = append(parts, activeNavStyle.Render(tab))
		} else {
			parts = append(parts, inactiveNavStyle.Render(tab))
		}
	}
	tabs := lipgloss.JoinHorizontal(lipgloss.Top, parts...)
	return tabs + "\n" + headerStyle.Render(m.summaryLine())
}

func (m *Model) summaryLine() string {
	scope := engine.GlobalScope()
	confident := 0
	for _, sym := range m.eng.Tree.UnlockedSymbols(scope) {
		if m.eng.Symbols.Confidence(sym) >= 1.0 {
			confident++
		}
	}
	line := fmt.Sprintf("Unlocked: %d/%d  Mastered: %d  Complexity: %.0f%%",
		m.eng.Tree.UnlockedCount(), m.eng.Tree.TotalUniqueKeys(),
		confident, m.eng.Tree.Complexity()*100)
	if m.activeTab == tabKeys && m.keyBranch != "" {
		line += fmt.Sprintf("  Branch: %s", branchName(m.eng.Tree, m.keyBranch))
	}
	return line
}

func (m *Model) renderBody() string {
	switch m.activeTab {
	case tabBranches:
		return tableMutedStyle.Render(m.branchTable.View())
	case tabKeys:
		return tableMutedStyle.Render(m.keyTable.View())
	default:
		return m.pairView.View()
	}
}

func (m *Model) renderFooter() string {
	help := "Nav: left/right  Scroll: up/down  Top/Bottom: g/G  Quit: q"
	if m.activeTab == tabBranches {
		help = "Nav: left/right  Scroll: up/down  Inspect branch: enter  Quit: q"
	}
	return headerStyle.Render(help)
}

func newTable(columns []table.Column, rows []table.Row) table.Model {
	t := table.New(
		table.WithColumns(columns),
		table.WithRows(rows),
		table.WithHeight(maxInt(1, len(rows))),
	)
	styles := table.DefaultStyles()
	styles.Header = styles.Header.
		Border(lipgloss.NormalBorder(), false, false, true, false).
		BorderForeground(lipgloss.Color("#4A4A4A")).
		Foreground(lipgloss.Color("#C0C0C0")).
		Bold(true).
		Padding(0, 1).
		PaddingLeft(0)
	styles.Cell = styles.Cell.
		Padding(0, 1).
		PaddingLeft(0)
	styles.Selected = styles.Cell.
		Foreground(lipgloss.Color("#F0F0F0")).
		Bold(true)
	t.SetStyles(styles)
	return t
}

func branchColumns() []table.Column {
	return []table.Column{
		{Title: "Branch", Width: 12},
		{Title: "Status", Width: 12},
		{Title: "Level", Width: 18},
		{Title: "Mastered", Width: 8},
	}
}

func (m *Model) branchRows() []table.Row {
	defs := m.eng.Tree.Branches()
	m.branchIDs = m.branchIDs[:0]
	rows := make([]table.Row, 0, len(defs))
	for _, def := range defs {
		bp := m.eng.Tree.BranchProgress(def.ID)
		level := "-"
		if bp.Status == engine.InProgress {
			level = fmt.Sprintf("%d/%d %s", bp.CurrentLevel+1, len(def.Levels), def.Levels[bp.CurrentLevel].Name)
		}
		confident, total := m.eng.Tree.ConfidentKeys(def.ID, m.eng.Symbols)
		m.branchIDs = append(m.branchIDs, def.ID)
		rows = append(rows, table.Row{
			def.Name,
			bp.Status.String(),
			level,
			fmt.Sprintf("%d/%d", confident, total),
		})
	}
	return rows
}

func keyColumns() []table.Column {
	return []table.Column{
		{Title: "Key", Width: 9},
		{Title: "Confidence", Width: 10},
		{Title: "Avg (ms)", Width: 8},
		{Title: "Accuracy", Width: 8},
		{Title: "Samples", Width: 7},
	}
}

// keyRows lists the unlocked symbols for a scope, weakest first. An empty
// branch means the global scope.
func (m *Model) keyRows(branch engine.BranchID) []table.Row {
	scope := engine.GlobalScope()
	if branch != "" {
		scope = engine.BranchScope(branch)
	}
	unlocked := m.eng.Tree.UnlockedSymbols(scope)
	sort.Slice(unlocked, func(i, j int) bool {
		ci, cj := m.eng.Symbols.Confidence(unlocked[i]), m.eng.Symbols.Confidence(unlocked[j])
		if ci == cj {
			return unlocked[i] < unlocked[j]
		}
		return ci < cj
	})
	rows := make([]table.Row, 0, len(unlocked))
	for _, sym := range unlocked {
		stat, ok := m.eng.Symbols.Stat(sym)
		if !ok || stat.TotalCount == 0 {
			rows = append(rows, table.Row{sym.Label(), "-", "-", "-", "0"})
			continue
		}
		rows = append(rows, table.Row{
			sym.Label(),
			fmt.Sprintf("%.2f", stat.Confidence),
			fmt.Sprintf("%.0f", stat.FilteredTimeMs),
			fmt.Sprintf("%.1f%%", (1-engine.LaplaceRate(stat.ErrorCount, stat.TotalCount))*100),
			fmt.Sprintf("%d", stat.TotalCount),
		})
	}
	return rows
}

func (m *Model) pairContent() string {
	var buf bytes.Buffer
	unlocked := m.eng.Tree.UnlockedSet(engine.GlobalScope())
	if err := stats.RenderAnomalies(&buf, m.eng.Bigrams, m.eng.Trigrams, m.eng.Symbols, unlocked); err != nil {
		return fmt.Sprintf("Failed to render pair stats: %v", err)
	}
	return strings.TrimRight(buf.String(), "\n")
}

func branchName(tree *engine.SkillTree, id engine.BranchID) string {
	for _, def := range tree.Branches() {
		if def.ID == id {
			return def.Name
		}
	}
	return string(id)
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

func padLine(line string, width int) string {
	lineWidth := lipgloss.Width(line)
	if lineWidth < width {
		return line + strings.Repeat(" ", width-lineWidth)
	}
	return line
}

func fitLines(s string, width, height int) string {
	if width <= 0 || height <= 0 {
		return s
	}
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = padLine(line, width)
	}
	if len(lines) > height {
		lines = lines[:height]
	}
	for len(lines) < height {
		lines = append(lines, strings.Repeat(" ", width))
	}
	return strings.Join(lines, "\n")
}
