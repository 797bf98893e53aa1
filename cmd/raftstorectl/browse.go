package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/funkiben/raftstore/internal/kv"
	"github.com/funkiben/raftstore/internal/raftstore"
)

type browsePane int

const (
	paneLog browsePane = iota
	paneState
)

type browseStyles struct {
	appHeader  lipgloss.Style
	label      lipgloss.Style
	value      lipgloss.Style
	paneActive lipgloss.Style
	paneIdle   lipgloss.Style
	cursorSty  lipgloss.Style
	entryCmd   lipgloss.Style
	entryCfg   lipgloss.Style
	entryBad   lipgloss.Style
	footer     lipgloss.Style
}

var bStyles = browseStyles{
	appHeader:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")),
	label:      lipgloss.NewStyle().Faint(true),
	value:      lipgloss.NewStyle().Bold(true),
	paneActive: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("7")).Background(lipgloss.Color("8")),
	paneIdle:   lipgloss.NewStyle().Faint(true),
	cursorSty:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("6")),
	entryCmd:   lipgloss.NewStyle(),
	entryCfg:   lipgloss.NewStyle().Foreground(lipgloss.Color("5")),
	entryBad:   lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	footer:     lipgloss.NewStyle().Faint(true),
}

type browseModel struct {
	store raftstore.Store[kv.State]

	term         uint32
	vote         string
	meta         raftstore.SnapshotMeta
	snapshotSize uint32
	entries      []raftstore.LogEntry
	stateKeys    []string
	state        kv.State
	replayErr    string

	pane      browsePane
	cursor    int
	scrollOff int
	width     int
	height    int
}

func newBrowseModel(store raftstore.Store[kv.State]) browseModel {
	m := browseModel{store: store, width: 100, height: 30}
	m.reload()
	return m
}

func (m *browseModel) reload() {
	m.term = m.store.CurrentTerm()
	m.vote = "-"
	if id, ok := m.store.VotedFor(); ok {
		m.vote = fmt.Sprintf("%d", id)
	}
	m.meta = m.store.SnapshotMeta()
	m.snapshotSize = m.store.SnapshotSize()
	m.entries = m.store.EntriesFrom(0)

	m.replayErr = ""
	replayed, err := replayState(context.Background(), m.store)
	if err != nil {
		m.replayErr = err.Error()
		m.state = nil
		m.stateKeys = nil
	} else {
		m.state = replayed.SnapshotState(context.Background())
		m.stateKeys = make([]string, 0, len(m.state))
		for k := range m.state {
			m.stateKeys = append(m.stateKeys, k)
		}
		sort.Strings(m.stateKeys)
	}
	m.clampCursor()
}

func (m browseModel) Init() tea.Cmd { return nil }

func (m browseModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.clampCursor()
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q":
			return m, tea.Quit
		case "tab":
			if m.pane == paneLog {
				m.pane = paneState
			} else {
				m.pane = paneLog
			}
			m.cursor = 0
			m.scrollOff = 0
		case "up", "k":
			m.moveCursor(-1)
		case "down", "j":
			m.moveCursor(1)
		case "r":
			m.reload()
		}
	}
	return m, nil
}

func (m browseModel) View() string {
	var b strings.Builder

	b.WriteString("  ")
	b.WriteString(bStyles.appHeader.Render("Store browser"))
	b.WriteString("\n\n")

	overview := []string{
		bStyles.label.Render("term ") + bStyles.value.Render(fmt.Sprintf("%d", m.term)),
		bStyles.label.Render("vote ") + bStyles.value.Render(m.vote),
		bStyles.label.Render("entries ") + bStyles.value.Render(fmt.Sprintf("%d", len(m.entries))),
		bStyles.label.Render("snapshot ") + bStyles.value.Render(
			fmt.Sprintf("idx=%d term=%d %dB", m.meta.LastIndex, m.meta.LastTerm, m.snapshotSize)),
	}
	b.WriteString("  ")
	b.WriteString(strings.Join(overview, "   "))
	b.WriteString("\n\n")

	b.WriteString("  ")
	b.WriteString(m.paneTab("Log", paneLog))
	b.WriteString(" ")
	b.WriteString(m.paneTab(fmt.Sprintf("State (%d keys)", len(m.stateKeys)), paneState))
	b.WriteString("\n")

	visRows := m.visibleRowCount()
	items := m.items()
	start := m.scrollOff
	end := start + visRows
	if end > len(items) {
		end = len(items)
	}
	for i := start; i < end; i++ {
		cursor := "  "
		if i == m.cursor {
			cursor = bStyles.cursorSty.Render("▶ ")
		}
		b.WriteString("  " + cursor + items[i] + "\n")
	}
	if len(items) == 0 {
		b.WriteString("  " + bStyles.label.Render("(empty)") + "\n")
	}
	if m.replayErr != "" && m.pane == paneState {
		b.WriteString("  " + bStyles.entryBad.Render("replay failed: "+m.replayErr) + "\n")
	}

	b.WriteString("\n  ")
	b.WriteString(bStyles.footer.Render("tab: switch pane   j/k: move   r: reload   q: quit"))
	return b.String()
}

func (m browseModel) paneTab(label string, p browsePane) string {
	if m.pane == p {
		return bStyles.paneActive.Render(" " + label + " ")
	}
	return bStyles.paneIdle.Render(" " + label + " ")
}

func (m browseModel) items() []string {
	if m.pane == paneState {
		out := make([]string, len(m.stateKeys))
		for i, k := range m.stateKeys {
			out[i] = fmt.Sprintf("%s = %s", k, shorten(m.state[k], 60))
		}
		return out
	}

	out := make([]string, len(m.entries))
	for pos, e := range m.entries {
		switch e.Type {
		case raftstore.EntryCommand:
			cmd, ok := kv.DecodeSetCommand(e.Data)
			if !ok {
				out[pos] = bStyles.entryBad.Render(
					fmt.Sprintf("%5d term=%-4d command (undecodable, %d bytes)", pos, e.Term, len(e.Data)))
				continue
			}
			out[pos] = bStyles.entryCmd.Render(
				fmt.Sprintf("%5d term=%-4d set %s = %s", pos, e.Term, cmd.Key, shorten(cmd.Value, 40)))
		case raftstore.EntryConfig:
			out[pos] = bStyles.entryCfg.Render(
				fmt.Sprintf("%5d term=%-4d config (%d bytes)", pos, e.Term, len(e.Data)))
		default:
			out[pos] = bStyles.entryBad.Render(
				fmt.Sprintf("%5d term=%-4d unknown type %d", pos, e.Term, e.Type))
		}
	}
	return out
}

func (m *browseModel) moveCursor(delta int) {
	n := len(m.items())
	if n == 0 {
		return
	}
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if m.cursor >= n {
		m.cursor = n - 1
	}
	m.clampScroll()
}

func (m *browseModel) clampCursor() {
	n := len(m.items())
	if m.cursor >= n {
		m.cursor = 0
		m.scrollOff = 0
	}
	m.clampScroll()
}

func (m *browseModel) clampScroll() {
	visRows := m.visibleRowCount()
	if m.cursor < m.scrollOff {
		m.scrollOff = m.cursor
	} else if m.cursor >= m.scrollOff+visRows {
		m.scrollOff = m.cursor - visRows + 1
	}
	if m.scrollOff < 0 {
		m.scrollOff = 0
	}
}

func (m browseModel) visibleRowCount() int {
	// Overhead: title(2)+overview(2)+tabs(1)+blank(1)+footer(1) = 7
	v := m.height - 8
	if v < 2 {
		v = 2
	}
	return v
}

func cmdBrowse(_ context.Context, store raftstore.Store[kv.State]) error {
	p := tea.NewProgram(newBrowseModel(store), tea.WithAltScreen())
	_, err := p.Run()
	return err
}

func shorten(s string, n int) string {
	if n <= 3 || len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
