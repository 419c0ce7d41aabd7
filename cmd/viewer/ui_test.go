package main

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, rel, content string) {
	t.Helper()
	path := filepath.Join(dir, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

// drive feeds msg to the model and then every message its commands produce,
// skipping batches and nil results.
func drive(t *testing.T, m ViewerUI, msg tea.Msg) ViewerUI {
	t.Helper()
	queue := []tea.Msg{msg}
	for len(queue) > 0 {
		next, cmd := m.Update(queue[0])
		m = next.(ViewerUI)
		queue = queue[1:]
		queue = append(queue, run(cmd)...)
	}
	return m
}

func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	switch msg := cmd().(type) {
	case nil:
		return nil
	case tea.BatchMsg:
		var out []tea.Msg
		for _, c := range msg {
			out = append(out, run(c)...)
		}
		return out
	default:
		return []tea.Msg{msg}
	}
}

func newTestUI(t *testing.T) (ViewerUI, string) {
	t.Helper()
	dir := t.TempDir()
	writeFile(t, dir, "event_story/1 A/1-1 a.txt", "(Characters appearing: Ichika)\n\nIchika：hello\n")
	writeFile(t, dir, "event_story/1 A/1-2 b.txt", "Saki：bye\n")
	writeFile(t, dir, "notes.log", "ignored")

	m := NewViewerUI(dir, nil)
	m = drive(t, m, tea.WindowSizeMsg{Width: 120, Height: 40})
	m = drive(t, m, loadFiles(dir)())
	return m, dir
}

func TestViewerUI_LoadAndSelect(t *testing.T) {
	m, _ := newTestUI(t)

	require.Len(t, m.files, 2)
	assert.Equal(t, filepath.Join("event_story", "1 A", "1-1 a.txt"), m.current)
	assert.Contains(t, m.content, "Ichika：hello")

	m = drive(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.selected)
	assert.Equal(t, "Saki：bye\n", m.content)

	m = drive(t, m, tea.KeyMsg{Type: tea.KeyDown})
	assert.Equal(t, 1, m.selected, "stays on the last file")

	view := m.View()
	assert.Contains(t, view, "TRANSCRIPTS")
	assert.Contains(t, view, "1-2 b.txt")
}

func TestViewerUI_Copy(t *testing.T) {
	m, _ := newTestUI(t)

	var copied string
	m.copyText = func(s string) error { copied = s; return nil }
	m = drive(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'c'}})
	assert.Equal(t, m.content, copied)
	assert.Contains(t, m.status, "Copied 1-1 a.txt")

	m.copyText = func(string) error { return errors.New("no clipboard") }
	m = drive(t, m, tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'c'}})
	assert.Contains(t, m.status, "no clipboard")
}

func TestViewerUI_FilesChanged(t *testing.T) {
	m, dir := newTestUI(t)

	writeFile(t, dir, "event_story/1 A/1-1 a.txt", "Ichika：updated\n")
	writeFile(t, dir, "area_talk/talk_1.txt", "X：y\n")
	m = drive(t, m, filesChangedMsg{paths: []string{"x"}})

	assert.Len(t, m.files, 3)
	assert.Equal(t, "Ichika：updated\n", m.content, "open transcript reloaded")
	assert.Equal(t, filepath.Join("event_story", "1 A", "1-1 a.txt"), m.files[m.selected])

	require.NoError(t, os.RemoveAll(filepath.Join(dir, "event_story")))
	require.NoError(t, os.RemoveAll(filepath.Join(dir, "area_talk")))
	m = drive(t, m, loadFiles(dir)())
	assert.Empty(t, m.files)
	assert.Empty(t, m.current)
}

func TestRenderTranscript(t *testing.T) {
	out := renderTranscript("（登场角色：一歌）\n\n【Place】: roof\n一歌：hello\nplain", 80)
	lines := strings.Split(out, "\n")
	require.Len(t, lines, 5)
	assert.Contains(t, lines[0], "登场角色")
	assert.Contains(t, lines[3], "hello")
	assert.Equal(t, "plain", lines[4])
	assert.Empty(t, renderTranscript("", 10))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "…cdef", truncate("abcdef", 5))
}

func TestWatcher(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir, 20*time.Millisecond)
	require.NoError(t, err)
	defer w.Close()

	writeFile(t, dir, "a.txt", "x")
	waitForPath(t, w, filepath.Join(dir, "a.txt"))

	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))
	waitForPath(t, w, filepath.Join(dir, "sub"))
	writeFile(t, dir, "sub/b.txt", "y")
	waitForPath(t, w, filepath.Join(dir, "sub", "b.txt"))

	assert.NoError(t, w.Close())
	assert.NoError(t, w.Close(), "close is idempotent")
}

func TestWatcher_UnwatchableDirReported(t *testing.T) {
	dir := t.TempDir()
	w, err := NewWatcher(dir, 20*time.Millisecond)
	require.NoError(t, err)
	defer w.Close()

	gone := filepath.Join(dir, "gone")
	w.watchNew(gone)

	select {
	case err := <-w.Errors():
		assert.ErrorContains(t, err, gone)
	case <-time.After(time.Second):
		t.Fatal("expected watch error for missing directory")
	}
}

func waitForPath(t *testing.T, w *Watcher, path string) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for {
		select {
		case batch := <-w.Changes():
			if slices.Contains(batch, path) {
				return
			}
		case <-deadline:
			t.Fatalf("no change reported for %s", path)
		}
	}
}
