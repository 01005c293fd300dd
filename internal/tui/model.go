// Package tui provides the Bubble Tea typing interface.
package tui

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/verte-zerg/keydrill/internal/engine"
	"github.com/verte-zerg/keydrill/internal/generator"
	"github.com/verte-zerg/keydrill/internal/model"
	statsPkg "github.com/verte-zerg/keydrill/internal/stats"
	"github.com/verte-zerg/keydrill/internal/store"
	"github.com/verte-zerg/keydrill/internal/wordlist"
)

// Model implements the Bubble Tea typing UI. It captures per-keystroke
// timing, feeds completed sessions through the engine, and regenerates the
// next text from a fresh focus selection.
type Model struct {
	cfg    model.PracticeConfig
	store  *store.Store
	eng    *engine.Engine
	gen    *generator.Generator
	corpus []string
	scope  engine.Scope

	width  int
	height int

	targetRunes []rune
	inputRunes  []rune

	started   bool
	startedAt time.Time
	lastKeyAt time.Time

	keys           []engine.Keystroke
	correctKeys    int
	incorrectKeys  int
	backspaceCount int

	focus  engine.FocusSelection
	notice string

	lastCPM float64
	lastAcc float64
	hasLast bool
}

var (
	correctStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0"))
	incorrectStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	currentWordStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
	cursorStyle      = pendingStyle.Copy().Underline(true)
	footerStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#6E6E6E"))
	noticeStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A"))
)

// NewModel constructs a typing TUI model over a rebuilt engine.
func NewModel(cfg model.PracticeConfig, st *store.Store, eng *engine.Engine, gen *generator.Generator, corpus []string, scope engine.Scope) *Model {
	m := &Model{
		cfg:    cfg,
		store:  st,
		eng:    eng,
		gen:    gen,
		corpus: corpus,
		scope:  scope,
	}
	m.resetSession()
	m.loadFooterStats()
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
		return m, nil
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC:
			// A session abandoned mid-text still counts: partial data goes
			// through the same update path as a finished session.
			m.abandonSession()
			return m, tea.Quit
		case tea.KeyBackspace, tea.KeyDelete:
			m.handleBackspace()
			return m, nil
		case tea.KeySpace:
			m.handleRune(' ')
			return m, nil
		case tea.KeyEnter:
			m.handleRune('\n')
			return m, nil
		case tea.KeyTab:
			m.handleRune('\t')
			return m, nil
		case tea.KeyRunes:
			for _, r := range msg.Runes {
				m.handleRune(r)
			}
			return m, nil
		default:
			return m, nil
		}
	default:
		return m, nil
	}
}

// View implements tea.Model.
func (m *Model) View() string {
	if len(m.targetRunes) == 0 {
		return ""
	}
	cursorIndex := -1
	if len(m.inputRunes) < len(m.targetRunes) {
		cursorIndex = len(m.inputRunes)
	}
	styledRunes := buildStyledRunes(m.targetRunes, m.inputRunes, cursorIndex)
	if m.width == 0 || m.height == 0 {
		return renderStyledRunes(styledRunes)
	}
	contentWidth := int(float64(m.width) * 0.70)
	if contentWidth < 1 {
		contentWidth = 1
	}
	wrapped := wrapStyledRunes(styledRunes, contentWidth)
	content := lipgloss.NewStyle().Width(contentWidth).Render(wrapped)
	footer := m.renderFooter()
	if footer == "" || m.height < 3 {
		return lipgloss.Place(m.width, m.height, lipgloss.Center, lipgloss.Center, content)
	}
	bodyHeight := m.height - 1
	body := lipgloss.Place(m.width, bodyHeight, lipgloss.Center, lipgloss.Center, content)
	footerLine := lipgloss.Place(m.width, 1, lipgloss.Center, lipgloss.Center, footer)
	return body + "\n" + footerLine
}

// record appends one keystroke event. The very first keypress of a session
// only starts the clock: there is no preceding keystroke to measure a
// transition from.
func (m *Model) record(sym engine.Symbol, correct bool) {
	now := time.Now()
	if !m.started {
		m.started = true
		m.startedAt = now
		m.lastKeyAt = now
		return
	}
	delta := now.Sub(m.lastKeyAt)
	m.lastKeyAt = now
	m.keys = append(m.keys, engine.Keystroke{
		Symbol:  sym,
		TimeMs:  float64(delta.Milliseconds()),
		Correct: correct,
	})
}

func (m *Model) handleBackspace() {
	if len(m.inputRunes) == 0 {
		return
	}
	m.inputRunes = m.inputRunes[:len(m.inputRunes)-1]
	m.backspaceCount++
	m.record(engine.Backspace, true)
}

func (m *Model) handleRune(r rune) {
	if len(m.inputRunes) >= len(m.targetRunes) {
		return
	}
	pos := len(m.inputRunes)
	expected := m.targetRunes[pos]
	m.inputRunes = append(m.inputRunes, r)

	correct := r == expected
	if correct {
		m.correctKeys++
	} else {
		m.incorrectKeys++
	}
	m.record(engine.Symbol(expected), correct)

	if len(m.inputRunes) == len(m.targetRunes) {
		m.finishSession()
		m.resetSession()
	}
}

func (m *Model) loadFooterStats() {
	ctx := context.Background()
	sessions, err := m.store.ListSessions(ctx, model.StatsConfig{Last: 1})
	if err != nil {
		logErrf("failed to load session stats: %v\n", err)
		return
	}
	if len(sessions) == 0 {
		return
	}
	last := sessions[len(sessions)-1]
	_, cpm, acc := statsPkg.SessionMetrics(last.Correct, last.Incorrect, last.DurationMs)
	m.lastCPM = cpm
	m.lastAcc = acc
	m.hasLast = true
}

func (m *Model) focusLabel() string {
	switch {
	case m.focus.Pair != nil:
		return fmt.Sprintf("focus %s (%s +%.0f%%)", m.focus.Pair.Key.Label(), m.focus.Pair.Kind, m.focus.Pair.Percent)
	case m.focus.Char != nil:
		return fmt.Sprintf("focus %s", m.focus.Char.Symbol.Label())
	default:
		return ""
	}
}

func (m *Model) renderFooter() string {
	if len(m.targetRunes) == 0 {
		return ""
	}
	progress := int(float64(len(m.inputRunes)) / float64(len(m.targetRunes)) * 100)
	var segments []string
	if label := m.focusLabel(); label != "" {
		segments = append(segments, label)
	}
	segments = append(segments, fmt.Sprintf("Progress %d%%", progress))
	if m.hasLast {
		segments = append(segments, fmt.Sprintf("Last %.0f CPM · %.1f%%", m.lastCPM, m.lastAcc*100))
	}
	footer := footerStyle.Render(strings.Join(segments, "  "))
	if m.notice != "" {
		footer += "  " + noticeStyle.Render(m.notice)
	}
	return footer
}

func (m *Model) resetSession() {
	m.inputRunes = nil
	m.keys = nil
	m.started = false
	m.startedAt = time.Time{}
	m.lastKeyAt = time.Time{}
	m.correctKeys = 0
	m.incorrectKeys = 0
	m.backspaceCount = 0

	m.targetRunes = []rune(m.generateText())
}

// generateText snapshots the focus selection and renders the next target
// text. The snapshot stays fixed for the whole session even as statistics
// change beneath it.
func (m *Model) generateText() string {
	unlocked := m.eng.Tree.UnlockedSet(m.scope)
	m.focus = m.eng.Focus(m.scope)

	filtered := wordlist.Filter(m.corpus, wordlist.AllowedSymbols(unlocked))
	words := m.gen.Generate(filtered, generator.Options{
		Words:    m.cfg.Words,
		Unlocked: unlocked,
		Focus:    m.focus,
	})
	return m.gen.Join(words, unlocked)
}

func (m *Model) abandonSession() {
	if !m.started || len(m.keys) == 0 {
		return
	}
	m.finishSession()
}

func (m *Model) finishSession() {
	if !m.started {
		return
	}
	endedAt := time.Now()
	stats := model.SessionStats{
		StartedAt:      m.startedAt,
		EndedAt:        endedAt,
		Branch:         m.cfg.Branch,
		Focus:          m.focus.Label(),
		CorrectKeys:    m.correctKeys,
		IncorrectKeys:  m.incorrectKeys,
		BackspaceCount: m.backspaceCount,
		DurationMs:     endedAt.Sub(m.startedAt).Milliseconds(),
	}

	ctx := context.Background()
	if _, err := m.store.InsertSession(ctx, stats, m.keys); err != nil {
		logErrf("failed to save session: %v\n", err)
	}

	cs := m.eng.ApplySession(m.keys)
	m.notice = noticeFor(cs)

	if err := m.store.SaveSymbolStats(ctx, m.eng.Symbols); err != nil {
		logErrf("failed to save symbol snapshot: %v\n", err)
	}
	if err := m.store.SaveProgress(ctx, m.eng.Tree.Snapshot()); err != nil {
		logErrf("failed to save progress: %v\n", err)
	}

	_, cpm, acc := statsPkg.SessionMetrics(stats.CorrectKeys, stats.IncorrectKeys, stats.DurationMs)
	m.lastCPM = cpm
	m.lastAcc = acc
	m.hasLast = true
}

// noticeFor renders the most significant tree transition of a session.
func noticeFor(cs engine.Changeset) string {
	switch {
	case cs.AllBranchesComplete:
		return "every branch mastered"
	case cs.AllSymbolsUnlocked:
		return "all symbols unlocked"
	case len(cs.NewlyCompleted) > 0:
		return fmt.Sprintf("%s complete", cs.NewlyCompleted[0])
	case len(cs.NewlyAvailable) > 0:
		return "new branches available: run keydrill start <branch>"
	default:
		return ""
	}
}

func logErrf(format string, args ...any) {
	if _, err := fmt.Fprintf(os.Stderr, format, args...); err != nil {
		// Best-effort logging to stderr.
		_ = err
	}
}
