package main

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"unicode/utf8"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/reflow/wordwrap"

	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/storage"
	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/pkg/transcript"
)

const helpText = "↑/↓ select • PgUp/PgDn scroll • c copy • r reload • q quit"

// ViewerUI is the BubbleTea model for browsing transcripts.
// https://github.com/charmbracelet/bubbletea
type ViewerUI struct {
	dir      string
	watcher  *Watcher
	copyText func(string) error

	files    []string
	selected int
	current  string
	content  string

	viewport viewport.Model
	ready    bool
	width    int
	height   int
	status   string
	err      error
}

type filesLoadedMsg struct {
	files []string
	err   error
}

type transcriptMsg struct {
	path    string
	content string
	err     error
}

type filesChangedMsg struct {
	paths []string
}

type watchErrMsg struct {
	err error
}

var (
	listPanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingLeft(2).
			PaddingRight(1)

	textPanelStyle = lipgloss.NewStyle().
			PaddingTop(1).
			PaddingLeft(2).
			PaddingRight(2)

	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("205")). // pink
			Bold(true)

	speakerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("212")). // purple
			Bold(true)

	effectStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("86")) // green

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")) // red

	promptStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")) // dark grey

	itemStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("255"))

	selectedItemStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("0")).
				Background(lipgloss.Color("205")).
				Bold(true)
)

// headerPrefixes open the character list line in either label language.
var headerPrefixes = []string{
	transcript.EnglishLabels.CharactersOpen,
	transcript.ChineseLabels.CharactersOpen,
}

func NewViewerUI(dir string, watcher *Watcher) ViewerUI {
	vp := viewport.New(60, 20)
	vp.MouseWheelEnabled = true

	return ViewerUI{
		dir:      dir,
		watcher:  watcher,
		copyText: clipboard.WriteAll,
		viewport: vp,
	}
}

func (m ViewerUI) Init() tea.Cmd {
	return tea.Batch(loadFiles(m.dir), waitForChange(m.watcher))
}

func (m ViewerUI) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.viewport.Width = m.width - m.listWidth() - 7
		m.viewport.Height = m.height - 3
		m.ready = true
		m.viewport.SetContent(renderTranscript(m.content, m.viewport.Width))
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case "up", "k":
			return m.selectFile(m.selected - 1)
		case "down", "j":
			return m.selectFile(m.selected + 1)
		case "r":
			m.status = "Reloaded"
			return m, m.reload()
		case "c":
			if m.current == "" {
				return m, nil
			}
			if err := m.copyText(m.content); err != nil {
				m.status = errorStyle.Render("Copy failed: " + err.Error())
			} else {
				m.status = fmt.Sprintf("Copied %s", filepath.Base(m.current))
			}
			return m, nil
		}

	case filesLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.err = nil
		m.files = msg.files
		if i := slices.Index(m.files, m.current); i >= 0 {
			m.selected = i
			return m, nil
		}
		if len(m.files) == 0 {
			m.selected, m.current, m.content = 0, "", ""
			m.viewport.SetContent("")
			return m, nil
		}
		m.selected = min(m.selected, len(m.files)-1)
		return m, loadTranscript(m.dir, m.files[m.selected])

	case transcriptMsg:
		if msg.err != nil {
			m.status = errorStyle.Render(msg.err.Error())
			return m, nil
		}
		changed := msg.path != m.current
		m.current, m.content = msg.path, msg.content
		m.viewport.SetContent(renderTranscript(m.content, m.viewport.Width))
		if changed {
			m.viewport.GotoTop()
		}
		return m, nil

	case filesChangedMsg:
		m.status = fmt.Sprintf("%d file(s) changed", len(msg.paths))
		return m, tea.Batch(m.reload(), waitForChange(m.watcher))

	case watchErrMsg:
		m.status = errorStyle.Render("Watch error: " + msg.err.Error())
		return m, waitForChange(m.watcher)
	}

	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

func (m ViewerUI) selectFile(i int) (tea.Model, tea.Cmd) {
	if i < 0 || i >= len(m.files) || i == m.selected && m.current != "" {
		return m, nil
	}
	m.selected = i
	m.status = ""
	return m, loadTranscript(m.dir, m.files[i])
}

// reload refreshes the file list and the open transcript.
func (m ViewerUI) reload() tea.Cmd {
	cmds := []tea.Cmd{loadFiles(m.dir)}
	if m.current != "" {
		cmds = append(cmds, loadTranscript(m.dir, m.current))
	}
	return tea.Batch(cmds...)
}

func (m ViewerUI) listWidth() int {
	return max(20, min(50, m.width/3))
}

func (m ViewerUI) View() string {
	if !m.ready {
		return "\n  Initializing..."
	}

	listWidth := m.listWidth()
	listPanel := listPanelStyle.Width(listWidth).Height(m.height - 2).Render(m.renderList(listWidth-3, m.height-5))
	textPanel := textPanelStyle.Width(m.width - listWidth).Height(m.height - 2).Render(m.viewport.View())

	footer := promptStyle.Render(helpText)
	if m.status != "" {
		footer += "  " + m.status
	}
	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, listPanel, textPanel),
		footer,
	)
}

// renderList draws the file list, scrolled so the selection stays visible.
func (m ViewerUI) renderList(width, height int) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("TRANSCRIPTS") + "\n\n")

	switch {
	case m.err != nil:
		b.WriteString(errorStyle.Render(m.err.Error()))
		return b.String()
	case len(m.files) == 0:
		b.WriteString(promptStyle.Render("No transcripts in " + m.dir))
		return b.String()
	}

	height = max(height, 1)
	start := max(0, min(m.selected-height/2, len(m.files)-height))
	end := min(len(m.files), start+height)
	for i := start; i < end; i++ {
		name := truncate(m.files[i], width-2)
		if i == m.selected {
			b.WriteString(selectedItemStyle.Render("▶ " + name))
		} else {
			b.WriteString(itemStyle.Render("  " + name))
		}
		b.WriteString("\n")
	}
	return b.String()
}

// truncate keeps the tail of a path, which carries the episode name.
func truncate(s string, width int) string {
	if width <= 1 || utf8.RuneCountInString(s) <= width {
		return s
	}
	runes := []rune(s)
	return "…" + string(runes[len(runes)-width+1:])
}

// renderTranscript wraps text to width and highlights the character list,
// speakers and staging lines.
func renderTranscript(text string, width int) string {
	if text == "" {
		return ""
	}
	if width > 0 {
		text = wordwrap.String(text, width)
	}

	lines := strings.Split(text, "\n")
	for i, line := range lines {
		lines[i] = styleLine(line)
	}
	return strings.Join(lines, "\n")
}

func styleLine(line string) string {
	for _, prefix := range headerPrefixes {
		if strings.HasPrefix(line, prefix) {
			return titleStyle.Render(line)
		}
	}
	if strings.HasPrefix(line, "【") || strings.HasPrefix(line, "(") || strings.HasPrefix(line, "（") {
		return effectStyle.Render(line)
	}

	mark := transcript.EnglishLabels.SpeakerMark
	if idx := strings.Index(line, mark); idx > 0 && utf8.RuneCountInString(line[:idx]) <= 20 {
		return speakerStyle.Render(line[:idx+len(mark)]) + line[idx+len(mark):]
	}
	return line
}

func loadFiles(dir string) tea.Cmd {
	return func() tea.Msg {
		files, err := storage.ListTranscripts(dir)
		return filesLoadedMsg{files: files, err: err}
	}
}

func loadTranscript(dir, rel string) tea.Cmd {
	return func() tea.Msg {
		data, err := os.ReadFile(filepath.Join(dir, rel))
		if err != nil {
			return transcriptMsg{path: rel, err: fmt.Errorf("failed to read %s: %w", rel, err)}
		}
		return transcriptMsg{path: rel, content: string(data)}
	}
}

// waitForChange blocks until the watcher reports a batch of changes.
func waitForChange(w *Watcher) tea.Cmd {
	if w == nil {
		return nil
	}
	return func() tea.Msg {
		select {
		case paths, ok := <-w.Changes():
			if !ok {
				return nil
			}
			return filesChangedMsg{paths: paths}
		case err, ok := <-w.Errors():
			if !ok {
				return nil
			}
			return watchErrMsg{err: err}
		case <-w.done:
			return nil
		}
	}
}
