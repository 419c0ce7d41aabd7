package main

import (
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/ci-ke/ProjectSekai-BangDream-story-crawler/internal/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	dir := cfg.OutputDir
	if len(os.Args) > 1 {
		dir = os.Args[1]
	}
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		fmt.Fprintf(os.Stderr, "Not a directory: %s\n", dir)
		os.Exit(1)
	}

	watcher, err := NewWatcher(dir, 0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to watch %s: %v\n", dir, err)
		os.Exit(1)
	}
	defer watcher.Close()

	p := tea.NewProgram(NewViewerUI(dir, watcher),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion())
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running program: %v\n", err)
		os.Exit(1)
	}
}
