package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sha1n/mcp-guide-search/internal/config"
	"github.com/sha1n/mcp-guide-search/internal/studyguide"
)

// Run runs the browser on the terminal until the user quits or ctx is done.
func Run(ctx context.Context, svc *studyguide.Service, search *config.SearchSettings) error {
	m := NewModel(svc, WithDebounce(search.Debounce))
	defer m.Close()

	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	m.send = p.Send

	_, err := p.Run()
	return err
}
