package main

import (
	"context"
	"fmt"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/plextool/plextool/internal/dedup"
	"github.com/plextool/plextool/internal/shared"
	"github.com/plextool/plextool/internal/ui"
	"github.com/urfave/cli/v3"
)

// Browse launches the interactive terminal UI: pick a playlist, inspect its
// tracks and run the duplicate workflow from there.
func (r *Runner) Browse(ctx context.Context, cmd *cli.Command) error {
	r.applyGlobalFlags(cmd)

	fields, err := dedup.ParseMatchFields(cmd.String("match"))
	if err != nil {
		return err
	}
	client, err := r.userClient(ctx, cmd.String("user"))
	if err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	dir, err := shared.ConfigDir()
	if err != nil {
		return err
	}
	fileLogger, err := shared.NewFileLogger(filepath.Join(dir, "browse.log"))
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	r.SetLogger(fileLogger)

	model := ui.NewModel(ctx, client, fields)
	p := tea.NewProgram(model)

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
