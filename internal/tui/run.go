// Package tui implements the interactive display arranger.
package tui

import (
	"context"
	"errors"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"github.com/1broseidon/monlayout/internal/config"
	"github.com/1broseidon/monlayout/internal/session"
	"github.com/1broseidon/monlayout/internal/worker"
)

// IsTerminal reports whether stdin and stdout are both terminals.
func IsTerminal() bool {
	return term.IsTerminal(int(os.Stdin.Fd())) && term.IsTerminal(int(os.Stdout.Fd()))
}

// Run opens a session over cfg and runs the arranger until the user quits.
// Queued configuration jobs are drained before it returns.
func Run(ctx context.Context, cfg *config.Config, opts session.Options) error {
	if !IsTerminal() {
		return fmt.Errorf("monlayout tui requires a terminal")
	}

	results := make(chan worker.Result, 16)
	forward := opts.OnResult
	opts.OnResult = func(res worker.Result) {
		if forward != nil {
			forward(res)
		}
		select {
		case results <- res:
		default:
		}
	}

	sess, err := session.Open(ctx, cfg, opts)
	if err != nil {
		return err
	}
	defer sess.Close()

	m := New(sess.Controller, Options{Results: results, MoveStep: cfg.MoveStep})
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("tui: %w", err)
	}
	return nil
}
